package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/flame-ml/flame/internal/tensor"
)

// ModelFormat identifies the on-disk weight format.
type ModelFormat int

// Supported model formats.
const (
	FormatUnknown ModelFormat = iota
	FormatSafeTensors
)

func (f ModelFormat) String() string {
	switch f {
	case FormatSafeTensors:
		return "safetensors"
	default:
		return "unknown"
	}
}

// ModelReader provides uniform access to a weight file.
type ModelReader interface {
	// Format returns the file format.
	Format() ModelFormat
	// Architecture returns the detected model architecture.
	Architecture() string
	// Metadata returns format-level metadata.
	Metadata() map[string]string
	// TensorNames returns the names of all tensors in the file.
	TensorNames() []string
	// LoadTensor loads a named tensor onto the given device.
	LoadTensor(name string, device tensor.Device) (*tensor.RawTensor, error)
	// Close releases the underlying file.
	Close() error
}

type safeTensorsModel struct {
	reader       *SafeTensorsReader
	architecture string
}

func (m *safeTensorsModel) Format() ModelFormat {
	return FormatSafeTensors
}

func (m *safeTensorsModel) Architecture() string {
	return m.architecture
}

func (m *safeTensorsModel) Metadata() map[string]string {
	return m.reader.Metadata()
}

func (m *safeTensorsModel) TensorNames() []string {
	return m.reader.TensorNames()
}

func (m *safeTensorsModel) LoadTensor(name string, device tensor.Device) (*tensor.RawTensor, error) {
	return m.reader.LoadTensor(name, device)
}

func (m *safeTensorsModel) Close() error {
	return m.reader.Close()
}

// OpenModel opens a weight file, detecting the format from the file
// extension. The caller must Close the returned reader.
func OpenModel(path string) (ModelReader, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".safetensors":
		reader, err := NewSafeTensorsReader(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open safetensors file: %w", err)
		}
		return &safeTensorsModel{
			reader:       reader,
			architecture: DetectArchitecture(reader.TensorNames()),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported model format: %s", ext)
	}
}

// LoadStateDict reads every tensor from a weight file into CPU memory,
// translating checkpoint names to the models package layout.
func LoadStateDict(path string) (map[string]*tensor.RawTensor, error) {
	model, err := OpenModel(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = model.Close() }()

	mapper := GetMapper(model.Architecture())
	if mapper == nil {
		return nil, fmt.Errorf("cannot detect architecture of %s", path)
	}

	state := make(map[string]*tensor.RawTensor)
	for _, name := range model.TensorNames() {
		mapped, err := mapper.MapName(name)
		if err != nil {
			return nil, fmt.Errorf("failed to map tensor name %s: %w", name, err)
		}
		if mapped == "" {
			continue
		}
		raw, err := model.LoadTensor(name, tensor.CPU)
		if err != nil {
			return nil, fmt.Errorf("failed to load tensor %s: %w", name, err)
		}
		state[mapped] = raw
	}
	return state, nil
}
