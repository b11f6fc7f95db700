// Package nn provides neural network layers for building inference
// models on top of the tensor package.
package nn

import (
	"strings"

	"github.com/flame-ml/flame/internal/tensor"
)

// Module is the interface implemented by all neural network layers.
//
// A module transforms one tensor into another and exposes its weights
// both as flat parameter lists and as named state dicts compatible
// with exported PyTorch checkpoints.
type Module[B tensor.Backend] interface {
	// Forward performs the forward pass.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all learnable parameters of the module.
	Parameters() []*Parameter[B]

	// StateDict returns the module's weights keyed by name.
	// Buffers that are not learnable (e.g. batch norm running
	// statistics) are included.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict copies weights from a state dict into the module.
	// Shapes and dtypes must match exactly.
	LoadStateDict(state map[string]*tensor.RawTensor) error
}

// Verify that every layer implements Module.
var (
	_ Module[*tensor.MockBackend] = (*Linear[*tensor.MockBackend])(nil)
	_ Module[*tensor.MockBackend] = (*Conv2D[*tensor.MockBackend])(nil)
	_ Module[*tensor.MockBackend] = (*BatchNorm2D[*tensor.MockBackend])(nil)
	_ Module[*tensor.MockBackend] = (*ReLU[*tensor.MockBackend])(nil)
	_ Module[*tensor.MockBackend] = (*MaxPool2D[*tensor.MockBackend])(nil)
	_ Module[*tensor.MockBackend] = (*AvgPool2D[*tensor.MockBackend])(nil)
	_ Module[*tensor.MockBackend] = (*AdaptiveAvgPool2D[*tensor.MockBackend])(nil)
	_ Module[*tensor.MockBackend] = (*Sequential[*tensor.MockBackend])(nil)
)

// MergeStateDict copies every entry of src into dst with the given
// prefix prepended ("conv1" + "weight" -> "conv1.weight").
func MergeStateDict(dst map[string]*tensor.RawTensor, prefix string, src map[string]*tensor.RawTensor) {
	for name, raw := range src {
		dst[prefix+"."+name] = raw
	}
}

// SubStateDict extracts the entries of state that live under prefix,
// stripping the prefix from the keys. Entries outside the prefix are
// ignored so composite modules can split one flat dict among children.
func SubStateDict(state map[string]*tensor.RawTensor, prefix string) map[string]*tensor.RawTensor {
	sub := make(map[string]*tensor.RawTensor)
	for name, raw := range state {
		if rest, ok := strings.CutPrefix(name, prefix+"."); ok {
			sub[rest] = raw
		}
	}
	return sub
}
