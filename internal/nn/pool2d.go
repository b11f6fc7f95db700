package nn

import (
	"fmt"

	"github.com/flame-ml/flame/internal/tensor"
)

// MaxPool2D is a 2D max pooling layer.
//
// Input shape:  [batch, channels, height, width]
// Output shape: [batch, channels, out_height, out_width]
//
// Where:
//
//	out_height = (height + 2*padding - kernelSize) / stride + 1
//	out_width = (width + 2*padding - kernelSize) / stride + 1
type MaxPool2D[B tensor.Backend] struct {
	kernelSize int
	stride     int
	padding    int
	backend    B
}

// NewMaxPool2D creates a 2D max pooling layer.
//
// Common patterns:
//   - NewMaxPool2D(2, 2, 0, backend): standard 2x2 non-overlapping pooling
//   - NewMaxPool2D(3, 2, 1, backend): overlapping stem pooling
func NewMaxPool2D[B tensor.Backend](kernelSize, stride, padding int, backend B) *MaxPool2D[B] {
	if kernelSize <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid kernel size %d", kernelSize))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid stride %d", stride))
	}
	if padding < 0 {
		panic(fmt.Sprintf("maxpool2d: invalid padding %d", padding))
	}

	return &MaxPool2D[B]{
		kernelSize: kernelSize,
		stride:     stride,
		padding:    padding,
		backend:    backend,
	}
}

// Forward performs the pooling.
func (m *MaxPool2D[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if len(x.Shape()) != 4 {
		panic(fmt.Sprintf("maxpool2d: expected 4D input [N,C,H,W], got %dD", len(x.Shape())))
	}

	raw := m.backend.MaxPool2D(x.Raw(), m.kernelSize, m.stride, m.padding)
	return tensor.New[float32, B](raw, m.backend)
}

// Parameters returns nil; pooling has no learnable parameters.
func (m *MaxPool2D[B]) Parameters() []*Parameter[B] {
	return nil
}

// StateDict returns an empty state dict.
func (m *MaxPool2D[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op; pooling has no weights.
func (m *MaxPool2D[B]) LoadStateDict(_ map[string]*tensor.RawTensor) error {
	return nil
}

// String returns a string representation of the layer.
func (m *MaxPool2D[B]) String() string {
	return fmt.Sprintf("MaxPool2D(kernel_size=%d, stride=%d, padding=%d)",
		m.kernelSize, m.stride, m.padding)
}

// AvgPool2D is a 2D average pooling layer with the same window
// geometry as MaxPool2D.
type AvgPool2D[B tensor.Backend] struct {
	kernelSize int
	stride     int
	padding    int
	backend    B
}

// NewAvgPool2D creates a 2D average pooling layer.
func NewAvgPool2D[B tensor.Backend](kernelSize, stride, padding int, backend B) *AvgPool2D[B] {
	if kernelSize <= 0 {
		panic(fmt.Sprintf("avgpool2d: invalid kernel size %d", kernelSize))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("avgpool2d: invalid stride %d", stride))
	}
	if padding < 0 {
		panic(fmt.Sprintf("avgpool2d: invalid padding %d", padding))
	}

	return &AvgPool2D[B]{
		kernelSize: kernelSize,
		stride:     stride,
		padding:    padding,
		backend:    backend,
	}
}

// Forward performs the pooling.
func (a *AvgPool2D[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if len(x.Shape()) != 4 {
		panic(fmt.Sprintf("avgpool2d: expected 4D input [N,C,H,W], got %dD", len(x.Shape())))
	}

	raw := a.backend.AvgPool2D(x.Raw(), a.kernelSize, a.stride, a.padding)
	return tensor.New[float32, B](raw, a.backend)
}

// Parameters returns nil; pooling has no learnable parameters.
func (a *AvgPool2D[B]) Parameters() []*Parameter[B] {
	return nil
}

// StateDict returns an empty state dict.
func (a *AvgPool2D[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op; pooling has no weights.
func (a *AvgPool2D[B]) LoadStateDict(_ map[string]*tensor.RawTensor) error {
	return nil
}

// String returns a string representation of the layer.
func (a *AvgPool2D[B]) String() string {
	return fmt.Sprintf("AvgPool2D(kernel_size=%d, stride=%d, padding=%d)",
		a.kernelSize, a.stride, a.padding)
}
