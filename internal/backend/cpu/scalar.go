package cpu

import (
	"fmt"

	"github.com/flame-ml/flame/internal/tensor"
)

// Scalar operations. The scalar's dynamic type must match the tensor
// element type.

// MulScalar multiplies each element of the tensor by a scalar value.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("mulScalar", x, scalar, mulKernel)
}

// AddScalar adds a scalar value to each element of the tensor.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("addScalar", x, scalar, addKernel)
}

// SubScalar subtracts a scalar value from each element of the tensor.
func (cpu *CPUBackend) SubScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("subScalar", x, scalar, subKernel)
}

// DivScalar divides each element of the tensor by a scalar value.
func (cpu *CPUBackend) DivScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("divScalar", x, scalar, divKernel)
}

func (cpu *CPUBackend) scalarOp(name string, x *tensor.RawTensor, scalar any, kernel binaryKernel) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", name, err))
	}

	switch x.DType() {
	case tensor.Float32:
		s, ok := scalar.(float32)
		if !ok {
			panic(fmt.Sprintf("%s: scalar type %T does not match dtype float32", name, scalar))
		}
		scalarSlice(result.AsFloat32(), x.AsFloat32(), s, kernel)
	case tensor.Float64:
		s, ok := scalar.(float64)
		if !ok {
			panic(fmt.Sprintf("%s: scalar type %T does not match dtype float64", name, scalar))
		}
		scalarSlice(result.AsFloat64(), x.AsFloat64(), s, kernel)
	case tensor.Int32:
		s, ok := scalar.(int32)
		if !ok {
			panic(fmt.Sprintf("%s: scalar type %T does not match dtype int32", name, scalar))
		}
		scalarSlice(result.AsInt32(), x.AsInt32(), s, kernel)
	case tensor.Int64:
		s, ok := scalar.(int64)
		if !ok {
			panic(fmt.Sprintf("%s: scalar type %T does not match dtype int64", name, scalar))
		}
		scalarSlice(result.AsInt64(), x.AsInt64(), s, kernel)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %v", name, x.DType()))
	}

	return result
}

func scalarSlice[T number](dst, src []T, scalar T, kernel binaryKernel) {
	switch kernel {
	case addKernel:
		for i := range src {
			dst[i] = src[i] + scalar
		}
	case subKernel:
		for i := range src {
			dst[i] = src[i] - scalar
		}
	case mulKernel:
		for i := range src {
			dst[i] = src[i] * scalar
		}
	case divKernel:
		for i := range src {
			dst[i] = src[i] / scalar
		}
	}
}
