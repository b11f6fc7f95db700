package nn

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flame-ml/flame/internal/backend/cpu"
	"github.com/flame-ml/flame/internal/tensor"
)

type Backend = *cpu.CPUBackend

// raw32 builds a float32 raw tensor from literal data.
func raw32(t *testing.T, shape tensor.Shape, data []float32) *tensor.RawTensor {
	t.Helper()

	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	require.Len(t, data, raw.NumElements())

	copy(raw.AsFloat32(), data)
	return raw
}

// tensor32 builds a float32 tensor from literal data.
func tensor32(t *testing.T, shape tensor.Shape, data []float32, backend Backend) *tensor.Tensor[float32, Backend] {
	t.Helper()

	ten, err := tensor.FromSlice[float32](data, shape, backend)
	require.NoError(t, err)
	return ten
}
