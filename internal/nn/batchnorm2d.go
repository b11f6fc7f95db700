package nn

import (
	"fmt"

	"github.com/flame-ml/flame/internal/tensor"
)

// BatchNorm2D normalizes each channel of NCHW input using running
// statistics collected during training:
//
//	y = (x - running_mean) / sqrt(running_var + eps) * weight + bias
//
// This is the inference-mode behavior. The layer never updates its
// running statistics; they are loaded from a checkpoint.
type BatchNorm2D[B tensor.Backend] struct {
	weight *Parameter[B] // scale, [channels]
	bias   *Parameter[B] // shift, [channels]

	runningMean *Parameter[B]
	runningVar  *Parameter[B]

	numFeatures int
	epsilon     float32
	backend     B
}

// NewBatchNorm2D creates a batch normalization layer for the given
// channel count. Weight is initialized to ones, bias and running mean
// to zeros, running variance to ones.
func NewBatchNorm2D[B tensor.Backend](numFeatures int, epsilon float32, backend B) *BatchNorm2D[B] {
	if numFeatures <= 0 {
		panic(fmt.Sprintf("batchnorm2d: invalid feature count %d", numFeatures))
	}

	shape := tensor.Shape{numFeatures}

	return &BatchNorm2D[B]{
		weight:      NewParameter("weight", tensor.Ones[float32](shape, backend)),
		bias:        NewParameter("bias", tensor.Zeros[float32](shape, backend)),
		runningMean: NewParameter("running_mean", tensor.Zeros[float32](shape, backend)),
		runningVar:  NewParameter("running_var", tensor.Ones[float32](shape, backend)),
		numFeatures: numFeatures,
		epsilon:     epsilon,
		backend:     backend,
	}
}

// Forward normalizes the input channel-wise.
func (b *BatchNorm2D[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("batchnorm2d: expected 4D input [N,C,H,W], got %dD", len(shape)))
	}
	if shape[1] != b.numFeatures {
		panic(fmt.Sprintf("batchnorm2d: expected %d channels, got %d", b.numFeatures, shape[1]))
	}

	// Per-channel statistics broadcast across batch and spatial dims
	mean := b.runningMean.Tensor().Reshape(1, b.numFeatures, 1, 1)
	invStd := b.runningVar.Tensor().Reshape(1, b.numFeatures, 1, 1).AddScalar(b.epsilon).Rsqrt()
	scale := b.weight.Tensor().Reshape(1, b.numFeatures, 1, 1)
	shift := b.bias.Tensor().Reshape(1, b.numFeatures, 1, 1)

	return x.Sub(mean).Mul(invStd).Mul(scale).Add(shift)
}

// Parameters returns the learnable scale and shift. Running statistics
// are buffers, not parameters.
func (b *BatchNorm2D[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{b.weight, b.bias}
}

// StateDict returns the weights and running statistics keyed by name.
func (b *BatchNorm2D[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{
		"weight":       b.weight.Raw(),
		"bias":         b.bias.Raw(),
		"running_mean": b.runningMean.Raw(),
		"running_var":  b.runningVar.Raw(),
	}
}

// LoadStateDict copies weights and running statistics from a state
// dict. Extra entries such as num_batches_tracked are ignored.
func (b *BatchNorm2D[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	all := []*Parameter[B]{b.weight, b.bias, b.runningMean, b.runningVar}
	return loadParameters(state, all)
}

// NumFeatures returns the channel count.
func (b *BatchNorm2D[B]) NumFeatures() int {
	return b.numFeatures
}

// String returns a string representation of the layer.
func (b *BatchNorm2D[B]) String() string {
	return fmt.Sprintf("BatchNorm2D(%d, eps=%g)", b.numFeatures, b.epsilon)
}
