package tensor

import (
	"fmt"
	"math"
	"testing"
)

func TestTensorDiv(t *testing.T) {
	backend := NewMockBackend()
	a, _ := FromSlice([]float32{10, 20, 30, 40}, Shape{2, 2}, backend)
	b, _ := FromSlice([]float32{2, 4, 5, 8}, Shape{2, 2}, backend)

	c := a.Div(b)

	expected := []float32{5, 5, 6, 5}
	got := c.Data()

	for i := range expected {
		assertEqualFloat32(t, expected[i], got[i], fmt.Sprintf("Div[%d]", i))
	}
}

func TestTensorSumDim(t *testing.T) {
	backend := NewMockBackend()
	// [[1, 2, 3],
	//  [4, 5, 6]]
	x, _ := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3}, backend)

	// Sum along dim 0: [5, 7, 9]
	sum0 := x.SumDim(0, false)
	assertEqualShape(t, Shape{3}, sum0.Shape(), "SumDim(0) shape")
	expected0 := []float32{5, 7, 9}
	for i, exp := range expected0 {
		assertEqualFloat32(t, exp, sum0.Data()[i], fmt.Sprintf("SumDim(0)[%d]", i))
	}

	// Sum along dim 1 with keepDim: [[6], [15]]
	sum1 := x.SumDim(1, true)
	assertEqualShape(t, Shape{2, 1}, sum1.Shape(), "SumDim(1, keep) shape")
	expected1 := []float32{6, 15}
	for i, exp := range expected1 {
		assertEqualFloat32(t, exp, sum1.Data()[i], fmt.Sprintf("SumDim(1)[%d]", i))
	}
}

func TestTensorMeanDim(t *testing.T) {
	backend := NewMockBackend()
	x, _ := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3}, backend)

	// Mean along dim 1: [2, 5]
	mean := x.MeanDim(1, false)
	assertEqualShape(t, Shape{2}, mean.Shape(), "MeanDim(1) shape")
	expected := []float32{2, 5}
	for i, exp := range expected {
		assertEqualFloat32(t, exp, mean.Data()[i], fmt.Sprintf("MeanDim(1)[%d]", i))
	}
}

func TestTensorMulScalar(t *testing.T) {
	backend := NewMockBackend()
	x, _ := FromSlice([]float32{1, 2, 3, 4}, Shape{2, 2}, backend)

	y := x.MulScalar(2.5)

	expected := []float32{2.5, 5, 7.5, 10}
	for i, exp := range expected {
		assertEqualFloat32(t, exp, y.Data()[i], fmt.Sprintf("MulScalar[%d]", i))
	}
}

func TestTensorAddScalar(t *testing.T) {
	backend := NewMockBackend()
	x, _ := FromSlice([]float32{1, 2, 3, 4}, Shape{2, 2}, backend)

	y := x.AddScalar(1.5)

	expected := []float32{2.5, 3.5, 4.5, 5.5}
	for i, exp := range expected {
		assertEqualFloat32(t, exp, y.Data()[i], fmt.Sprintf("AddScalar[%d]", i))
	}
}

func TestTensorSubScalar(t *testing.T) {
	backend := NewMockBackend()
	x, _ := FromSlice([]float32{1, 2, 3, 4}, Shape{2, 2}, backend)

	y := x.SubScalar(0.5)

	expected := []float32{0.5, 1.5, 2.5, 3.5}
	for i, exp := range expected {
		assertEqualFloat32(t, exp, y.Data()[i], fmt.Sprintf("SubScalar[%d]", i))
	}
}

func TestTensorDivScalar(t *testing.T) {
	backend := NewMockBackend()
	x, _ := FromSlice([]float32{2, 4, 6, 8}, Shape{2, 2}, backend)

	y := x.DivScalar(2)

	expected := []float32{1, 2, 3, 4}
	for i, exp := range expected {
		assertEqualFloat32(t, exp, y.Data()[i], fmt.Sprintf("DivScalar[%d]", i))
	}
}

func TestTensorExp(t *testing.T) {
	backend := NewMockBackend()
	x, _ := FromSlice([]float32{0, 1, 2}, Shape{3}, backend)

	y := x.Exp()

	expected := []float32{1, float32(math.E), float32(math.Exp(2))}
	for i, exp := range expected {
		if math.Abs(float64(exp-y.Data()[i])) > 1e-5 {
			t.Errorf("Exp[%d] = %v, want %v", i, y.Data()[i], exp)
		}
	}
}

func TestTensorLog(t *testing.T) {
	backend := NewMockBackend()
	x, _ := FromSlice([]float32{1, float32(math.E), 10}, Shape{3}, backend)

	y := x.Log()

	expected := []float32{0, 1, float32(math.Log(10))}
	for i, exp := range expected {
		if math.Abs(float64(exp-y.Data()[i])) > 1e-5 {
			t.Errorf("Log[%d] = %v, want %v", i, y.Data()[i], exp)
		}
	}
}

func TestTensorSqrt(t *testing.T) {
	backend := NewMockBackend()
	x, _ := FromSlice([]float32{1, 4, 9, 16}, Shape{4}, backend)

	y := x.Sqrt()

	expected := []float32{1, 2, 3, 4}
	for i, exp := range expected {
		assertEqualFloat32(t, exp, y.Data()[i], fmt.Sprintf("Sqrt[%d]", i))
	}
}

func TestTensorRsqrt(t *testing.T) {
	backend := NewMockBackend()
	x, _ := FromSlice([]float32{1, 4, 16}, Shape{3}, backend)

	y := x.Rsqrt()

	expected := []float32{1, 0.5, 0.25}
	for i, exp := range expected {
		assertEqualFloat32(t, exp, y.Data()[i], fmt.Sprintf("Rsqrt[%d]", i))
	}
}

func TestTensorSoftmax(t *testing.T) {
	backend := NewMockBackend()
	x, _ := FromSlice([]float32{1, 2, 3, 4}, Shape{1, 4}, backend)

	y := x.Softmax(1)

	// Probabilities sum to 1 and preserve ordering
	sum := float32(0)
	data := y.Data()
	for _, v := range data {
		sum += v
	}
	assertEqualFloat32(t, 1.0, sum, "Softmax sum")

	for i := 1; i < len(data); i++ {
		if data[i] <= data[i-1] {
			t.Errorf("Softmax should preserve ordering: data[%d]=%v <= data[%d]=%v", i, data[i], i-1, data[i-1])
		}
	}
}

func TestTensorSoftmaxNegativeDim(t *testing.T) {
	backend := NewMockBackend()
	x, _ := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3}, backend)

	y := x.Softmax(-1)

	assertEqualShape(t, Shape{2, 3}, y.Shape(), "Softmax(-1) shape")

	// Each row sums to 1
	data := y.Data()
	for row := 0; row < 2; row++ {
		sum := float32(0)
		for col := 0; col < 3; col++ {
			sum += data[row*3+col]
		}
		assertEqualFloat32(t, 1.0, sum, fmt.Sprintf("Softmax row %d sum", row))
	}
}

func TestTensorSum(t *testing.T) {
	backend := NewMockBackend()
	x, _ := FromSlice([]float32{1, 2, 3, 4}, Shape{2, 2}, backend)

	sum := x.Sum()

	assertEqualFloat32(t, 10, sum.Data()[0], "Sum")
}

func TestTensorArgmax(t *testing.T) {
	backend := NewMockBackend()
	// [[1, 5, 3],
	//  [9, 2, 7]]
	x, _ := FromSlice([]float32{1, 5, 3, 9, 2, 7}, Shape{2, 3}, backend)

	indices := x.Argmax(1)

	assertEqualShape(t, Shape{2}, indices.Shape(), "Argmax shape")

	expected := []int32{1, 0}
	for i, exp := range expected {
		if indices.Data()[i] != exp {
			t.Errorf("Argmax[%d] = %d, want %d", i, indices.Data()[i], exp)
		}
	}
}

func TestTensorTopK(t *testing.T) {
	backend := NewMockBackend()
	x, _ := FromSlice([]float32{0.1, 0.5, 0.2, 0.9, 0.3}, Shape{1, 5}, backend)

	values, indices := x.TopK(3, 1)

	assertEqualShape(t, Shape{1, 3}, values.Shape(), "TopK values shape")
	assertEqualShape(t, Shape{1, 3}, indices.Shape(), "TopK indices shape")

	expectedVals := []float32{0.9, 0.5, 0.3}
	expectedIdx := []int32{3, 1, 4}
	for i := range expectedVals {
		assertEqualFloat32(t, expectedVals[i], values.Data()[i], fmt.Sprintf("TopK values[%d]", i))
		if indices.Data()[i] != expectedIdx[i] {
			t.Errorf("TopK indices[%d] = %d, want %d", i, indices.Data()[i], expectedIdx[i])
		}
	}
}

func TestTensorTopKNegativeDim(t *testing.T) {
	backend := NewMockBackend()
	x, _ := FromSlice([]float32{3, 1, 2, 6, 5, 4}, Shape{2, 3}, backend)

	values, indices := x.TopK(2, -1)

	assertEqualShape(t, Shape{2, 2}, values.Shape(), "TopK(-1) values shape")

	expectedVals := []float32{3, 2, 6, 5}
	expectedIdx := []int32{0, 2, 0, 1}
	for i := range expectedVals {
		assertEqualFloat32(t, expectedVals[i], values.Data()[i], fmt.Sprintf("TopK values[%d]", i))
		if indices.Data()[i] != expectedIdx[i] {
			t.Errorf("TopK indices[%d] = %d, want %d", i, indices.Data()[i], expectedIdx[i])
		}
	}
}

func TestTensorTopKInvalidK(t *testing.T) {
	backend := NewMockBackend()
	x, _ := FromSlice([]float32{1, 2, 3}, Shape{3}, backend)

	defer func() {
		if r := recover(); r == nil {
			t.Error("TopK with k > dim size should panic")
		}
	}()
	x.TopK(5, 0)
}

func TestTensorExpand(t *testing.T) {
	backend := NewMockBackend()
	x, _ := FromSlice([]float32{1, 2, 3}, Shape{1, 3}, backend)

	y := x.Expand(Shape{4, 3})

	assertEqualShape(t, Shape{4, 3}, y.Shape(), "Expand shape")

	data := y.Data()
	for row := 0; row < 4; row++ {
		for col := 0; col < 3; col++ {
			assertEqualFloat32(t, float32(col+1), data[row*3+col], fmt.Sprintf("Expand[%d,%d]", row, col))
		}
	}
}

func TestTensorFloat32(t *testing.T) {
	backend := NewMockBackend()
	x, _ := FromSlice([]int32{1, 2, 3}, Shape{3}, backend)

	y := x.Float32()

	if y.DType() != Float32 {
		t.Errorf("Float32() dtype = %v, want Float32", y.DType())
	}
	expected := []float32{1, 2, 3}
	for i, exp := range expected {
		assertEqualFloat32(t, exp, y.Data()[i], fmt.Sprintf("Float32[%d]", i))
	}
}

func TestTensorInt32(t *testing.T) {
	backend := NewMockBackend()
	x, _ := FromSlice([]float32{1.0, 2.0, 3.0}, Shape{3}, backend)

	y := x.Int32()

	if y.DType() != Int32 {
		t.Errorf("Int32() dtype = %v, want Int32", y.DType())
	}
	expected := []int32{1, 2, 3}
	for i, exp := range expected {
		if y.Data()[i] != exp {
			t.Errorf("Int32[%d] = %d, want %d", i, y.Data()[i], exp)
		}
	}
}

func TestTensorFloat64(t *testing.T) {
	backend := NewMockBackend()
	x, _ := FromSlice([]float32{1.5, 2.5}, Shape{2}, backend)

	y := x.Float64()

	if y.DType() != Float64 {
		t.Errorf("Float64() dtype = %v, want Float64", y.DType())
	}
	if y.Data()[0] != 1.5 || y.Data()[1] != 2.5 {
		t.Errorf("Float64() data = %v, want [1.5 2.5]", y.Data())
	}
}
