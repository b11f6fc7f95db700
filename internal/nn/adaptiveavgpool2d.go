package nn

import (
	"fmt"

	"github.com/flame-ml/flame/internal/tensor"
)

// AdaptiveAvgPool2D averages NCHW input down to a fixed square output
// size regardless of the input's spatial dimensions.
//
// The input spatial dimensions must be square and divisible by the
// output size; the window then reduces to a plain average pool with
// kernel = stride = size/outputSize. Classification heads use output
// size 1, which collapses each channel to a single value.
type AdaptiveAvgPool2D[B tensor.Backend] struct {
	outputSize int
	backend    B
}

// NewAdaptiveAvgPool2D creates an adaptive average pooling layer with
// the given square output size.
func NewAdaptiveAvgPool2D[B tensor.Backend](outputSize int, backend B) *AdaptiveAvgPool2D[B] {
	if outputSize <= 0 {
		panic(fmt.Sprintf("adaptiveavgpool2d: invalid output size %d", outputSize))
	}

	return &AdaptiveAvgPool2D[B]{
		outputSize: outputSize,
		backend:    backend,
	}
}

// Forward performs the pooling.
func (a *AdaptiveAvgPool2D[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("adaptiveavgpool2d: expected 4D input [N,C,H,W], got %dD", len(shape)))
	}

	h, w := shape[2], shape[3]
	if h != w {
		panic(fmt.Sprintf("adaptiveavgpool2d: expected square input, got %dx%d", h, w))
	}
	if h%a.outputSize != 0 {
		panic(fmt.Sprintf("adaptiveavgpool2d: input size %d not divisible by output size %d", h, a.outputSize))
	}

	if h == a.outputSize {
		return x
	}

	window := h / a.outputSize
	raw := a.backend.AvgPool2D(x.Raw(), window, window, 0)
	return tensor.New[float32, B](raw, a.backend)
}

// Parameters returns nil; pooling has no learnable parameters.
func (a *AdaptiveAvgPool2D[B]) Parameters() []*Parameter[B] {
	return nil
}

// StateDict returns an empty state dict.
func (a *AdaptiveAvgPool2D[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op; pooling has no weights.
func (a *AdaptiveAvgPool2D[B]) LoadStateDict(_ map[string]*tensor.RawTensor) error {
	return nil
}

// String returns a string representation of the layer.
func (a *AdaptiveAvgPool2D[B]) String() string {
	return fmt.Sprintf("AdaptiveAvgPool2D(output_size=%d)", a.outputSize)
}
