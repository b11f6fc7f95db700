package loader

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flame-ml/flame/internal/tensor"
)

type testTensor struct {
	name  string
	dtype SafeTensorsDType
	shape []int
	data  []byte
}

// writeSafeTensors writes a minimal safetensors file for tests.
func writeSafeTensors(t *testing.T, path string, tensors []testTensor, metadata map[string]string) {
	t.Helper()

	header := make(map[string]any)
	if metadata != nil {
		header["__metadata__"] = metadata
	}

	var blob []byte
	for _, tt := range tensors {
		start := len(blob)
		blob = append(blob, tt.data...)
		header[tt.name] = SafeTensorInfo{
			DType:       tt.dtype,
			Shape:       tt.shape,
			DataOffsets: [2]int64{int64(start), int64(len(blob))},
		}
	}

	headerJSON, err := json.Marshal(header)
	require.NoError(t, err)

	buf := make([]byte, 8, 8+len(headerJSON)+len(blob))
	binary.LittleEndian.PutUint64(buf, uint64(len(headerJSON)))
	buf = append(buf, headerJSON...)
	buf = append(buf, blob...)

	require.NoError(t, os.WriteFile(path, buf, 0o600))
}

func f32Bytes(values ...float32) []byte {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func u16Bytes(values ...uint16) []byte {
	buf := make([]byte, 2*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint16(buf[2*i:], v)
	}
	return buf
}

func TestSafeTensorsReader_Header(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.safetensors")
	writeSafeTensors(t, path, []testTensor{
		{"fc.weight", SafeTensorsF32, []int{2, 3}, f32Bytes(1, 2, 3, 4, 5, 6)},
		{"fc.bias", SafeTensorsF32, []int{2}, f32Bytes(7, 8)},
	}, map[string]string{"format": "pt"})

	reader, err := NewSafeTensorsReader(path)
	require.NoError(t, err)
	defer reader.Close()

	assert.ElementsMatch(t, []string{"fc.weight", "fc.bias"}, reader.TensorNames())
	assert.Equal(t, "pt", reader.Metadata()["format"])

	info, err := reader.TensorInfo("fc.weight")
	require.NoError(t, err)
	assert.Equal(t, SafeTensorsF32, info.DType)
	assert.Equal(t, []int{2, 3}, info.Shape)
}

func TestSafeTensorsReader_LoadF32(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.safetensors")
	writeSafeTensors(t, path, []testTensor{
		{"w", SafeTensorsF32, []int{2, 2}, f32Bytes(1, -2, 3.5, 0)},
	}, nil)

	reader, err := NewSafeTensorsReader(path)
	require.NoError(t, err)
	defer reader.Close()

	raw, err := reader.LoadTensor("w", tensor.CPU)
	require.NoError(t, err)
	assert.Equal(t, tensor.Float32, raw.DType())
	assert.Equal(t, tensor.Shape{2, 2}, raw.Shape())
	assert.Equal(t, []float32{1, -2, 3.5, 0}, raw.AsFloat32())
}

func TestSafeTensorsReader_WidensF16(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.safetensors")
	// 1.0, -2.0, 0.5 as IEEE binary16.
	writeSafeTensors(t, path, []testTensor{
		{"w", SafeTensorsF16, []int{3}, u16Bytes(0x3C00, 0xC000, 0x3800)},
	}, nil)

	reader, err := NewSafeTensorsReader(path)
	require.NoError(t, err)
	defer reader.Close()

	raw, err := reader.LoadTensor("w", tensor.CPU)
	require.NoError(t, err)
	assert.Equal(t, tensor.Float32, raw.DType())
	assert.Equal(t, []float32{1, -2, 0.5}, raw.AsFloat32())
}

func TestSafeTensorsReader_WidensBF16(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.safetensors")
	// 1.0, -2.0 as bfloat16.
	writeSafeTensors(t, path, []testTensor{
		{"w", SafeTensorsBF16, []int{2}, u16Bytes(0x3F80, 0xC000)},
	}, nil)

	reader, err := NewSafeTensorsReader(path)
	require.NoError(t, err)
	defer reader.Close()

	raw, err := reader.LoadTensor("w", tensor.CPU)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, -2}, raw.AsFloat32())
}

func TestSafeTensorsReader_MissingTensor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.safetensors")
	writeSafeTensors(t, path, []testTensor{
		{"w", SafeTensorsF32, []int{1}, f32Bytes(1)},
	}, nil)

	reader, err := NewSafeTensorsReader(path)
	require.NoError(t, err)
	defer reader.Close()

	_, err = reader.LoadTensor("missing", tensor.CPU)
	assert.ErrorContains(t, err, "not found")
}

func TestSafeTensorsReader_SizeMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.safetensors")
	// Shape claims 4 elements but only 2 are stored.
	writeSafeTensors(t, path, []testTensor{
		{"w", SafeTensorsF32, []int{4}, f32Bytes(1, 2)},
	}, nil)

	reader, err := NewSafeTensorsReader(path)
	require.NoError(t, err)
	defer reader.Close()

	_, err = reader.LoadTensor("w", tensor.CPU)
	assert.ErrorContains(t, err, "does not match shape")
}

func TestSafeTensorsReader_TruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.safetensors")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o600))

	_, err := NewSafeTensorsReader(path)
	assert.Error(t, err)
}
