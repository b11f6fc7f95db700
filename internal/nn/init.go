package nn

import (
	"math"
	"math/rand" //nolint:gosec // G404: weight initialization, not cryptography

	"github.com/flame-ml/flame/internal/tensor"
)

// KaimingNormal initializes a tensor with values drawn from N(0, std)
// where std = sqrt(2/fan). With fan equal to the fan-out of a
// convolution (out_channels * kernel_h * kernel_w) this matches the
// initialization used for ReLU networks.
func KaimingNormal[B tensor.Backend](shape tensor.Shape, fan int, backend B) *tensor.Tensor[float32, B] {
	std := math.Sqrt(2.0 / float64(fan))

	t := tensor.Zeros[float32](shape, backend)
	data := t.Data()
	for i := range data {
		data[i] = float32(rand.NormFloat64() * std) //nolint:gosec // G404
	}
	return t
}

// XavierUniform initializes a tensor with values drawn uniformly from
// [-limit, limit] where limit = sqrt(6/(fanIn+fanOut)). Keeps the
// variance of activations stable for layers without ReLU.
func XavierUniform[B tensor.Backend](shape tensor.Shape, fanIn, fanOut int, backend B) *tensor.Tensor[float32, B] {
	limit := math.Sqrt(6.0 / float64(fanIn+fanOut))

	t := tensor.Zeros[float32](shape, backend)
	data := t.Data()
	for i := range data {
		data[i] = float32((rand.Float64()*2 - 1) * limit) //nolint:gosec // G404
	}
	return t
}
