package cpu

import (
	"fmt"

	"github.com/flame-ml/flame/internal/tensor"
)

// number covers the element types the arithmetic kernels operate on.
// Float16 and the small integer types are storage formats and must be
// widened before arithmetic.
type number interface {
	~float32 | ~float64 | ~int32 | ~int64
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("add", a, b, addKernel)
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("sub", a, b, subKernel)
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("mul", a, b, mulKernel)
}

// Div performs element-wise division with broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("div", a, b, divKernel)
}

// binaryKernel identifies the arithmetic operation for generic dispatch.
type binaryKernel int

const (
	addKernel binaryKernel = iota
	subKernel
	mulKernel
	divKernel
)

// binaryOp runs the shared shape logic for the four arithmetic ops.
// Same-shape operands with a uniquely referenced left operand are
// updated inplace and returned directly.
func (cpu *CPUBackend) binaryOp(name string, a, b *tensor.RawTensor, kernel binaryKernel) *tensor.RawTensor {
	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	if !needsBroadcast && a.Shape().Equal(b.Shape()) {
		if a.IsUnique() {
			binaryDispatch(name, a, a, b, kernel)
			return a
		}

		result, err := tensor.NewRaw(outShape, a.DType(), cpu.device)
		if err != nil {
			panic(fmt.Sprintf("%s: failed to create result tensor: %v", name, err))
		}
		binaryDispatch(name, result, a, b, kernel)
		return result
	}

	result, err := tensor.NewRaw(outShape, a.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", name, err))
	}
	binaryBroadcastDispatch(name, result, a, b, kernel, outShape)
	return result
}

func binaryDispatch(name string, result, a, b *tensor.RawTensor, kernel binaryKernel) {
	switch a.DType() {
	case tensor.Float32:
		binarySlice(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), kernel)
	case tensor.Float64:
		binarySlice(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), kernel)
	case tensor.Int32:
		binarySlice(result.AsInt32(), a.AsInt32(), b.AsInt32(), kernel)
	case tensor.Int64:
		binarySlice(result.AsInt64(), a.AsInt64(), b.AsInt64(), kernel)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, a.DType()))
	}
}

func binaryBroadcastDispatch(name string, result, a, b *tensor.RawTensor, kernel binaryKernel, outShape tensor.Shape) {
	switch a.DType() {
	case tensor.Float32:
		binaryBroadcast(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), kernel, a.Shape(), b.Shape(), outShape)
	case tensor.Float64:
		binaryBroadcast(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), kernel, a.Shape(), b.Shape(), outShape)
	case tensor.Int32:
		binaryBroadcast(result.AsInt32(), a.AsInt32(), b.AsInt32(), kernel, a.Shape(), b.Shape(), outShape)
	case tensor.Int64:
		binaryBroadcast(result.AsInt64(), a.AsInt64(), b.AsInt64(), kernel, a.Shape(), b.Shape(), outShape)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, a.DType()))
	}
}

// binarySlice applies the kernel over contiguous same-shape slices.
// dst may alias a for the inplace path.
func binarySlice[T number](dst, a, b []T, kernel binaryKernel) {
	switch kernel {
	case addKernel:
		for i := range a {
			dst[i] = a[i] + b[i]
		}
	case subKernel:
		for i := range a {
			dst[i] = a[i] - b[i]
		}
	case mulKernel:
		for i := range a {
			dst[i] = a[i] * b[i]
		}
	case divKernel:
		for i := range a {
			dst[i] = a[i] / b[i]
		}
	}
}

// binaryBroadcast applies the kernel with stride-0 broadcasting on both
// operands.
func binaryBroadcast[T number](dst, a, b []T, kernel binaryKernel, aShape, bShape, outShape tensor.Shape) {
	outStrides := outShape.ComputeStrides()
	aStrides := computeBroadcastStridesForShape(aShape, outShape)
	bStrides := computeBroadcastStridesForShape(bShape, outShape)

	n := outShape.NumElements()
	for i := 0; i < n; i++ {
		av := a[computeFlatIndex(i, outStrides, aStrides)]
		bv := b[computeFlatIndex(i, outStrides, bStrides)]
		switch kernel {
		case addKernel:
			dst[i] = av + bv
		case subKernel:
			dst[i] = av - bv
		case mulKernel:
			dst[i] = av * bv
		case divKernel:
			dst[i] = av / bv
		}
	}
}

// computeBroadcastStridesForShape computes strides for broadcasting a
// shape to outShape. Dimensions of size 1 and left-padded dimensions
// get stride 0.
func computeBroadcastStridesForShape(inShape, outShape tensor.Shape) []int {
	outDim := len(outShape)
	strides := make([]int, outDim)

	inDim := len(inShape)
	offset := outDim - inDim
	origStrides := inShape.ComputeStrides()

	for i := 0; i < outDim; i++ {
		inIdx := i - offset
		switch {
		case inIdx < 0 || inIdx >= inDim:
			strides[i] = 0
		case inShape[inIdx] == 1:
			strides[i] = 0
		default:
			strides[i] = origStrides[inIdx]
		}
	}

	return strides
}

// computeFlatIndex maps a flat output index to the flat source index
// under broadcast-adjusted strides.
func computeFlatIndex(outIdx int, outStrides, inStrides []int) int {
	flatIdx := 0
	for i := range outStrides {
		coord := outIdx / outStrides[i]
		outIdx %= outStrides[i]
		flatIdx += coord * inStrides[i]
	}
	return flatIdx
}
