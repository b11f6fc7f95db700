package cpu

import (
	"testing"

	"github.com/flame-ml/flame/internal/tensor"
)

func TestMaxPool2D_Basic(t *testing.T) {
	backend := New()

	input := rawFloat32(t, tensor.Shape{1, 1, 4, 4}, []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	})

	output := backend.MaxPool2D(input, 2, 2, 0)

	if !output.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("Expected shape [1,1,2,2], got %v", output.Shape())
	}

	expected := []float32{6, 8, 14, 16}
	if !float32SliceEqual(output.AsFloat32(), expected) {
		t.Errorf("MaxPool2D failed: got %v, expected %v", output.AsFloat32(), expected)
	}
}

func TestMaxPool2D_Stride1(t *testing.T) {
	backend := New()

	input := rawFloat32(t, tensor.Shape{1, 1, 3, 3}, []float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	})

	output := backend.MaxPool2D(input, 2, 1, 0)

	if !output.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("Expected shape [1,1,2,2], got %v", output.Shape())
	}

	expected := []float32{5, 6, 8, 9}
	if !float32SliceEqual(output.AsFloat32(), expected) {
		t.Errorf("MaxPool2D stride 1 failed: got %v, expected %v", output.AsFloat32(), expected)
	}
}

func TestMaxPool2D_NegativeValues(t *testing.T) {
	backend := New()

	input := rawFloat32(t, tensor.Shape{1, 1, 2, 2}, []float32{
		-4, -3,
		-2, -1,
	})

	output := backend.MaxPool2D(input, 2, 2, 0)

	if got := output.AsFloat32()[0]; got != -1 {
		t.Errorf("MaxPool2D over negatives: expected -1, got %v", got)
	}
}

func TestMaxPool2D_MultiChannel(t *testing.T) {
	backend := New()

	// Channel 0 is 1..4, channel 1 is 10..40
	input := rawFloat32(t, tensor.Shape{1, 2, 2, 2}, []float32{
		1, 2, 3, 4,
		10, 20, 30, 40,
	})

	output := backend.MaxPool2D(input, 2, 2, 0)

	if !output.Shape().Equal(tensor.Shape{1, 2, 1, 1}) {
		t.Fatalf("Expected shape [1,2,1,1], got %v", output.Shape())
	}

	expected := []float32{4, 40}
	if !float32SliceEqual(output.AsFloat32(), expected) {
		t.Errorf("MaxPool2D multi-channel failed: got %v", output.AsFloat32())
	}
}

func TestMaxPool2D_Padded(t *testing.T) {
	backend := New()

	input := rawFloat32(t, tensor.Shape{1, 1, 4, 4}, []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	})

	// Stem geometry: 3x3 window, stride 2, padding 1
	output := backend.MaxPool2D(input, 3, 2, 1)

	if !output.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("Expected shape [1,1,2,2], got %v", output.Shape())
	}

	expected := []float32{6, 8, 14, 16}
	if !float32SliceEqual(output.AsFloat32(), expected) {
		t.Errorf("Padded MaxPool2D failed: got %v, expected %v", output.AsFloat32(), expected)
	}
}

func TestPool2D_PaddingTooLarge(t *testing.T) {
	backend := New()
	input, _ := tensor.NewRaw(tensor.Shape{1, 1, 4, 4}, tensor.Float32, tensor.CPU)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic: padding 2 exceeds half of kernel 3")
		}
	}()
	backend.MaxPool2D(input, 3, 2, 2)
}

func TestAvgPool2D_Basic(t *testing.T) {
	backend := New()

	input := rawFloat32(t, tensor.Shape{1, 1, 4, 4}, []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	})

	output := backend.AvgPool2D(input, 2, 2, 0)

	if !output.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("Expected shape [1,1,2,2], got %v", output.Shape())
	}

	// Window means: (1+2+5+6)/4, (3+4+7+8)/4, ...
	expected := []float32{3.5, 5.5, 11.5, 13.5}
	if !float32SliceEqual(output.AsFloat32(), expected) {
		t.Errorf("AvgPool2D failed: got %v, expected %v", output.AsFloat32(), expected)
	}
}

func TestAvgPool2D_GlobalWindow(t *testing.T) {
	backend := New()

	// 7x7 window over a 7x7 plane collapses spatial dims to 1x1, which
	// is how the classifier head pools features
	input, _ := tensor.NewRaw(tensor.Shape{1, 2, 7, 7}, tensor.Float32, tensor.CPU)
	inputData := input.AsFloat32()
	for i := 0; i < 49; i++ {
		inputData[i] = 2.0
		inputData[49+i] = 4.0
	}

	output := backend.AvgPool2D(input, 7, 1, 0)

	if !output.Shape().Equal(tensor.Shape{1, 2, 1, 1}) {
		t.Fatalf("Expected shape [1,2,1,1], got %v", output.Shape())
	}

	expected := []float32{2, 4}
	if !float32SliceEqual(output.AsFloat32(), expected) {
		t.Errorf("Global AvgPool2D failed: got %v", output.AsFloat32())
	}
}

func TestAvgPool2D_Padded(t *testing.T) {
	backend := New()

	input := rawFloat32(t, tensor.Shape{1, 1, 2, 2}, []float32{1, 2, 3, 4})

	output := backend.AvgPool2D(input, 2, 2, 1)

	if !output.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("Expected shape [1,1,2,2], got %v", output.Shape())
	}

	// Padded positions count as zeros toward the kernel area of 4
	expected := []float32{0.25, 0.5, 0.75, 1.0}
	if !float32SliceEqual(output.AsFloat32(), expected) {
		t.Errorf("Padded AvgPool2D failed: got %v, expected %v", output.AsFloat32(), expected)
	}
}

func TestPool2D_KernelTooLarge(t *testing.T) {
	backend := New()
	input, _ := tensor.NewRaw(tensor.Shape{1, 1, 2, 2}, tensor.Float32, tensor.CPU)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic: kernel 3 larger than 2x2 input")
		}
	}()
	backend.MaxPool2D(input, 3, 1, 0)
}

func TestPool2D_Float64(t *testing.T) {
	backend := New()

	input, _ := tensor.NewRaw(tensor.Shape{1, 1, 2, 2}, tensor.Float64, tensor.CPU)
	copy(input.AsFloat64(), []float64{1, 2, 3, 4})

	maxOut := backend.MaxPool2D(input, 2, 2, 0)
	if got := maxOut.AsFloat64()[0]; got != 4 {
		t.Errorf("float64 max pool: expected 4, got %v", got)
	}

	avgOut := backend.AvgPool2D(input, 2, 2, 0)
	if got := avgOut.AsFloat64()[0]; got != 2.5 {
		t.Errorf("float64 avg pool: expected 2.5, got %v", got)
	}
}
