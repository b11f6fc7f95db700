package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flame-ml/flame/internal/backend/cpu"
	"github.com/flame-ml/flame/internal/tensor"
)

func TestSequential_Forward(t *testing.T) {
	backend := cpu.New()

	seq := NewSequential[Backend](
		NewConv2D(Conv2DConfig{
			InChannels:  1,
			OutChannels: 1,
			KernelSize:  1,
			Stride:      1,
		}, backend),
		NewReLU[Backend](),
	)

	require.NoError(t, seq.LoadStateDict(map[string]*tensor.RawTensor{
		"0.weight": raw32(t, tensor.Shape{1, 1, 1, 1}, []float32{-1}),
	}))

	x := tensor32(t, tensor.Shape{1, 1, 1, 3}, []float32{-1, 0, 2}, backend)
	out := seq.Forward(x)

	// Conv negates, ReLU clamps
	assert.Equal(t, []float32{1, 0, 0}, out.Data())
}

func TestSequential_StateDictKeys(t *testing.T) {
	backend := cpu.New()

	seq := NewSequential[Backend](
		NewConv2D(Conv2DConfig{
			InChannels:  2,
			OutChannels: 4,
			KernelSize:  3,
			Stride:      1,
			Padding:     1,
		}, backend),
		NewBatchNorm2D(4, 1e-5, backend),
		NewReLU[Backend](),
	)

	state := seq.StateDict()

	for _, key := range []string{"0.weight", "1.weight", "1.bias", "1.running_mean", "1.running_var"} {
		assert.Contains(t, state, key)
	}
	assert.Len(t, state, 5)
}

func TestSequential_LoadRoundtrip(t *testing.T) {
	backend := cpu.New()

	build := func() *Sequential[Backend] {
		return NewSequential[Backend](
			NewConv2D(Conv2DConfig{
				InChannels:  1,
				OutChannels: 2,
				KernelSize:  3,
				Stride:      1,
				Padding:     1,
				Bias:        true,
			}, backend),
			NewBatchNorm2D(2, 1e-5, backend),
		)
	}

	src := build()
	dst := build()
	require.NoError(t, dst.LoadStateDict(src.StateDict()))

	srcState, dstState := src.StateDict(), dst.StateDict()
	for key, raw := range srcState {
		assert.Equal(t, raw.AsFloat32(), dstState[key].AsFloat32(), "key %s", key)
	}
}

func TestSubStateDict(t *testing.T) {
	state := map[string]*tensor.RawTensor{
		"layer1.0.weight": nil,
		"layer1.1.weight": nil,
		"layer2.0.weight": nil,
	}

	sub := SubStateDict(state, "layer1")
	assert.Len(t, sub, 2)
	assert.Contains(t, sub, "0.weight")
	assert.Contains(t, sub, "1.weight")
}
