package cpu

import (
	"fmt"

	"github.com/flame-ml/flame/internal/tensor"
)

// scalar covers every numeric element type Cast can convert between.
// Bool and Float16 are handled separately: bool has no arithmetic
// conversion and Float16 is stored as raw bit patterns.
type scalar interface {
	~float32 | ~float64 | ~int8 | ~int16 | ~int32 | ~int64 | ~uint8
}

// Cast converts the tensor to a different data type. Returns the input
// unchanged when the dtype already matches. Float16 values are widened
// through float32.
func (cpu *CPUBackend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	if x.DType() == dtype {
		return x
	}

	result, err := tensor.NewRaw(x.Shape(), dtype, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("cast: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		castTo(result, x.AsFloat32())
	case tensor.Float64:
		castTo(result, x.AsFloat64())
	case tensor.Float16:
		bits := x.AsFloat16Bits()
		widened := make([]float32, len(bits))
		for i, b := range bits {
			widened[i] = tensor.Float16FromBits(b)
		}
		castTo(result, widened)
	case tensor.Int8:
		castTo(result, x.AsInt8())
	case tensor.Int16:
		castTo(result, x.AsInt16())
	case tensor.Int32:
		castTo(result, x.AsInt32())
	case tensor.Int64:
		castTo(result, x.AsInt64())
	case tensor.Uint8:
		castTo(result, x.AsUint8())
	case tensor.Bool:
		// Bool has no arithmetic conversion: go through 0/1 bytes
		boolSrc := x.AsBool()
		ones := make([]uint8, len(boolSrc))
		for i, v := range boolSrc {
			if v {
				ones[i] = 1
			}
		}
		castTo(result, ones)
	default:
		panic(fmt.Sprintf("cast: unsupported source dtype %v", x.DType()))
	}

	return result
}

// castTo writes src converted element-wise into result's dtype.
//
//nolint:gosec // G115: narrowing is the defined behavior of Cast.
func castTo[S scalar](result *tensor.RawTensor, src []S) {
	switch result.DType() {
	case tensor.Float32:
		dst := result.AsFloat32()
		for i, v := range src {
			dst[i] = float32(v)
		}
	case tensor.Float64:
		dst := result.AsFloat64()
		for i, v := range src {
			dst[i] = float64(v)
		}
	case tensor.Float16:
		dst := result.AsFloat16Bits()
		for i, v := range src {
			dst[i] = tensor.Float16Bits(float32(v))
		}
	case tensor.Int8:
		dst := result.AsInt8()
		for i, v := range src {
			dst[i] = int8(v)
		}
	case tensor.Int16:
		dst := result.AsInt16()
		for i, v := range src {
			dst[i] = int16(v)
		}
	case tensor.Int32:
		dst := result.AsInt32()
		for i, v := range src {
			dst[i] = int32(v)
		}
	case tensor.Int64:
		dst := result.AsInt64()
		for i, v := range src {
			dst[i] = int64(v)
		}
	case tensor.Uint8:
		dst := result.AsUint8()
		for i, v := range src {
			dst[i] = uint8(v)
		}
	case tensor.Bool:
		dst := result.AsBool()
		for i, v := range src {
			dst[i] = v != 0
		}
	default:
		panic(fmt.Sprintf("cast: unsupported target dtype %v", result.DType()))
	}
}
