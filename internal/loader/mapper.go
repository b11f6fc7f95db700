package loader

import (
	"strings"
)

// WeightMapper translates checkpoint tensor names to the state dict
// layout used by the models package. MapName returns an empty string for
// tensors that should be skipped entirely.
type WeightMapper interface {
	// MapName converts a checkpoint tensor name to the target name.
	MapName(name string) (string, error)
	// Architecture returns the architecture this mapper handles.
	Architecture() string
}

// PassthroughMapper handles checkpoints whose tensor names already match
// the models package layout; only the batch counter tensors are dropped.
type PassthroughMapper struct {
	architecture string
}

// NewTorchvisionResNetMapper creates a mapper for torchvision ResNet
// checkpoints, whose layout matches the models package ("conv1.weight",
// "layer1.0.bn2.running_mean", ...).
func NewTorchvisionResNetMapper() *PassthroughMapper {
	return &PassthroughMapper{architecture: "resnet"}
}

// NewResNetV2Mapper creates a mapper for ResNetV2 checkpoints, which
// carry this project's register names verbatim ("conv", "batchnorm",
// "layer_1", "feature_connector").
func NewResNetV2Mapper() *PassthroughMapper {
	return &PassthroughMapper{architecture: "resnet_v2"}
}

// MapName passes a tensor name through unchanged.
func (m *PassthroughMapper) MapName(name string) (string, error) {
	if strings.HasSuffix(name, "num_batches_tracked") {
		return "", nil
	}
	return name, nil
}

// Architecture returns the architecture name.
func (m *PassthroughMapper) Architecture() string {
	return m.architecture
}

// TimmSelectSLSMapper maps timm SelecSls checkpoints. The feature and
// head layout matches; only the classifier differs ("fc" in timm).
type TimmSelectSLSMapper struct{}

// NewTimmSelectSLSMapper creates a mapper for timm SelecSls checkpoints.
func NewTimmSelectSLSMapper() *TimmSelectSLSMapper {
	return &TimmSelectSLSMapper{}
}

// MapName maps a timm tensor name.
func (m *TimmSelectSLSMapper) MapName(name string) (string, error) {
	if strings.HasSuffix(name, "num_batches_tracked") {
		return "", nil
	}
	if rest, ok := strings.CutPrefix(name, "fc."); ok {
		return "classifier." + rest, nil
	}
	return name, nil
}

// Architecture returns the architecture name.
func (m *TimmSelectSLSMapper) Architecture() string {
	return "selectsls"
}

// DetectArchitecture guesses the model architecture from checkpoint
// tensor names. Returns "unknown" when no known layout matches.
func DetectArchitecture(names []string) string {
	for _, name := range names {
		switch {
		case strings.HasPrefix(name, "layer_1.0."):
			return "resnet_v2"
		case strings.HasPrefix(name, "layer1.0."):
			return "resnet"
		case strings.HasPrefix(name, "features.0.conv1"):
			return "selectsls"
		}
	}
	return "unknown"
}

// GetMapper returns the weight mapper for an architecture, or nil when
// the architecture is not supported.
func GetMapper(architecture string) WeightMapper {
	switch architecture {
	case "resnet":
		return NewTorchvisionResNetMapper()
	case "resnet_v2":
		return NewResNetV2Mapper()
	case "selectsls":
		return NewTimmSelectSLSMapper()
	default:
		return nil
	}
}
