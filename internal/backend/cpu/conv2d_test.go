package cpu

import (
	"testing"

	"github.com/flame-ml/flame/internal/tensor"
)

func TestConv2D_BasicForward(t *testing.T) {
	backend := New()

	// Input: [1, 1, 3, 3] with values 1..9
	input := rawFloat32(t, tensor.Shape{1, 1, 3, 3}, []float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	})

	// Kernel: [1, 1, 2, 2] identity diagonal
	kernel := rawFloat32(t, tensor.Shape{1, 1, 2, 2}, []float32{
		1, 0,
		0, 1,
	})

	output := backend.Conv2D(input, kernel, 1, 0, 1, 1)

	// out_h = (3 + 2*0 - 2) / 1 + 1 = 2
	if !output.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("Expected shape [1,1,2,2], got %v", output.Shape())
	}

	// Diagonal sums: 1+5, 2+6, 4+8, 5+9
	expected := []float32{6, 8, 12, 14}
	if !float32SliceEqual(output.AsFloat32(), expected) {
		t.Errorf("Conv2D failed: got %v, expected %v", output.AsFloat32(), expected)
	}
}

func TestConv2D_WithPadding(t *testing.T) {
	backend := New()

	input := rawFloat32(t, tensor.Shape{1, 1, 3, 3}, []float32{
		1, 1, 1,
		1, 1, 1,
		1, 1, 1,
	})
	kernel := rawFloat32(t, tensor.Shape{1, 1, 3, 3}, []float32{
		1, 1, 1,
		1, 1, 1,
		1, 1, 1,
	})

	output := backend.Conv2D(input, kernel, 1, 1, 1, 1)

	if !output.Shape().Equal(tensor.Shape{1, 1, 3, 3}) {
		t.Fatalf("Expected shape [1,1,3,3], got %v", output.Shape())
	}

	// Sum of valid window elements: 4 in corners, 6 on edges, 9 center
	expected := []float32{
		4, 6, 4,
		6, 9, 6,
		4, 6, 4,
	}
	if !float32SliceEqual(output.AsFloat32(), expected) {
		t.Errorf("Conv2D with padding failed: got %v, expected %v", output.AsFloat32(), expected)
	}
}

func TestConv2D_WithStride(t *testing.T) {
	backend := New()

	input := rawFloat32(t, tensor.Shape{1, 1, 4, 4}, []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	})
	kernel := rawFloat32(t, tensor.Shape{1, 1, 2, 2}, []float32{1, 1, 1, 1})

	output := backend.Conv2D(input, kernel, 2, 0, 1, 1)

	if !output.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("Expected shape [1,1,2,2], got %v", output.Shape())
	}

	// Window sums: [1,2,5,6], [3,4,7,8], [9,10,13,14], [11,12,15,16]
	expected := []float32{14, 22, 46, 54}
	if !float32SliceEqual(output.AsFloat32(), expected) {
		t.Errorf("Conv2D with stride failed: got %v, expected %v", output.AsFloat32(), expected)
	}
}

func TestConv2D_MultiChannel(t *testing.T) {
	backend := New()

	// Input: [1, 2, 3, 3] - channel 0 all 1s, channel 1 all 2s
	input, _ := tensor.NewRaw(tensor.Shape{1, 2, 3, 3}, tensor.Float32, tensor.CPU)
	inputData := input.AsFloat32()
	for i := 0; i < 9; i++ {
		inputData[i] = 1.0
		inputData[9+i] = 2.0
	}

	// Kernel: [2, 2, 2, 2] - out channel 0 all 1s, out channel 1 all 0.5s
	kernel, _ := tensor.NewRaw(tensor.Shape{2, 2, 2, 2}, tensor.Float32, tensor.CPU)
	kernelData := kernel.AsFloat32()
	for i := 0; i < 8; i++ {
		kernelData[i] = 1.0
		kernelData[8+i] = 0.5
	}

	output := backend.Conv2D(input, kernel, 1, 0, 1, 1)

	if !output.Shape().Equal(tensor.Shape{1, 2, 2, 2}) {
		t.Fatalf("Expected shape [1,2,2,2], got %v", output.Shape())
	}

	// Each window: 4*1 + 4*2 = 12 for channel 0, half that for channel 1
	outputData := output.AsFloat32()
	for i := 0; i < 4; i++ {
		if outputData[i] != 12.0 {
			t.Errorf("Output channel 0 [%d]: expected 12.0, got %.1f", i, outputData[i])
		}
	}
	for i := 4; i < 8; i++ {
		if outputData[i] != 6.0 {
			t.Errorf("Output channel 1 [%d]: expected 6.0, got %.1f", i, outputData[i])
		}
	}
}

func TestConv2D_Batch(t *testing.T) {
	backend := New()

	// Input: [2, 1, 2, 2] - batch 0 is 1..4, batch 1 is 5..8
	input := rawFloat32(t, tensor.Shape{2, 1, 2, 2}, []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
	})
	kernel := rawFloat32(t, tensor.Shape{1, 1, 2, 2}, []float32{1, 1, 1, 1})

	output := backend.Conv2D(input, kernel, 1, 0, 1, 1)

	if !output.Shape().Equal(tensor.Shape{2, 1, 1, 1}) {
		t.Fatalf("Expected shape [2,1,1,1], got %v", output.Shape())
	}

	outputData := output.AsFloat32()
	if outputData[0] != 10.0 {
		t.Errorf("Batch 0: expected 10.0, got %.1f", outputData[0])
	}
	if outputData[1] != 26.0 {
		t.Errorf("Batch 1: expected 26.0, got %.1f", outputData[1])
	}
}

func TestConv2D_Grouped(t *testing.T) {
	backend := New()

	// Input: [1, 2, 3, 3] - channel 0 all 1s, channel 1 all 2s
	input, _ := tensor.NewRaw(tensor.Shape{1, 2, 3, 3}, tensor.Float32, tensor.CPU)
	inputData := input.AsFloat32()
	for i := 0; i < 9; i++ {
		inputData[i] = 1.0
		inputData[9+i] = 2.0
	}

	// groups=2: kernel [2, 1, 2, 2], each output channel sees only its
	// own input channel
	kernel := rawFloat32(t, tensor.Shape{2, 1, 2, 2}, []float32{
		1, 1, 1, 1,
		1, 1, 1, 1,
	})

	output := backend.Conv2D(input, kernel, 1, 0, 2, 1)

	if !output.Shape().Equal(tensor.Shape{1, 2, 2, 2}) {
		t.Fatalf("Expected shape [1,2,2,2], got %v", output.Shape())
	}

	// Group 0 windows sum channel 0 only: 4*1 = 4
	// Group 1 windows sum channel 1 only: 4*2 = 8
	outputData := output.AsFloat32()
	for i := 0; i < 4; i++ {
		if outputData[i] != 4.0 {
			t.Errorf("Group 0 output [%d]: expected 4.0, got %.1f", i, outputData[i])
		}
	}
	for i := 4; i < 8; i++ {
		if outputData[i] != 8.0 {
			t.Errorf("Group 1 output [%d]: expected 8.0, got %.1f", i, outputData[i])
		}
	}
}

func TestConv2D_GroupsMismatch(t *testing.T) {
	backend := New()
	input, _ := tensor.NewRaw(tensor.Shape{1, 3, 4, 4}, tensor.Float32, tensor.CPU)
	kernel, _ := tensor.NewRaw(tensor.Shape{2, 1, 2, 2}, tensor.Float32, tensor.CPU)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic: 3 input channels not divisible by 2 groups")
		}
	}()
	backend.Conv2D(input, kernel, 1, 0, 2, 1)
}

func TestConv2D_Dilated(t *testing.T) {
	backend := New()

	input := rawFloat32(t, tensor.Shape{1, 1, 5, 5}, []float32{
		1, 2, 3, 4, 5,
		6, 7, 8, 9, 10,
		11, 12, 13, 14, 15,
		16, 17, 18, 19, 20,
		21, 22, 23, 24, 25,
	})
	kernel := rawFloat32(t, tensor.Shape{1, 1, 2, 2}, []float32{1, 1, 1, 1})

	output := backend.Conv2D(input, kernel, 1, 0, 1, 2)

	// Effective kernel extent: 2*(2-1)+1 = 3, so out = (5-3)/1+1 = 3
	if !output.Shape().Equal(tensor.Shape{1, 1, 3, 3}) {
		t.Fatalf("Expected shape [1,1,3,3], got %v", output.Shape())
	}

	// Each output sums taps two apart: out(h,w) = x(h,w)+x(h,w+2)+x(h+2,w)+x(h+2,w+2)
	expected := []float32{
		28, 32, 36,
		48, 52, 56,
		68, 72, 76,
	}
	if !float32SliceEqual(output.AsFloat32(), expected) {
		t.Errorf("Dilated conv failed: got %v, expected %v", output.AsFloat32(), expected)
	}
}

// TestConv2D_MatchesMockBackend verifies the im2col implementation
// against the naive direct convolution in MockBackend.
func TestConv2D_MatchesMockBackend(t *testing.T) {
	cpuBackend := New()
	mockBackend := tensor.NewMockBackend()

	input, _ := tensor.NewRaw(tensor.Shape{1, 2, 4, 4}, tensor.Float32, tensor.CPU)
	inputData := input.AsFloat32()
	for i := range inputData {
		inputData[i] = float32(i % 7)
	}

	kernel, _ := tensor.NewRaw(tensor.Shape{4, 2, 3, 3}, tensor.Float32, tensor.CPU)
	kernelData := kernel.AsFloat32()
	for i := range kernelData {
		kernelData[i] = float32((i % 5) - 2)
	}

	configs := []struct {
		stride, padding, groups, dilation int
	}{
		{1, 0, 1, 1},
		{1, 1, 1, 1},
		{2, 0, 1, 1},
		{1, 1, 1, 2}, // effective extent 5: out = (4+2-5)/1+1 = 2
	}

	for _, cfg := range configs {
		cpuOutput := cpuBackend.Conv2D(input, kernel, cfg.stride, cfg.padding, cfg.groups, cfg.dilation)
		mockOutput := mockBackend.Conv2D(input, kernel, cfg.stride, cfg.padding, cfg.groups, cfg.dilation)

		if !cpuOutput.Shape().Equal(mockOutput.Shape()) {
			t.Fatalf("Shape mismatch (%+v): CPU=%v, Mock=%v", cfg, cpuOutput.Shape(), mockOutput.Shape())
		}

		cpuData := cpuOutput.AsFloat32()
		mockData := mockOutput.AsFloat32()
		for i := range cpuData {
			diff := cpuData[i] - mockData[i]
			if diff < -0.001 || diff > 0.001 {
				t.Errorf("Value mismatch at index %d (%+v): CPU=%.4f, Mock=%.4f",
					i, cfg, cpuData[i], mockData[i])
			}
		}
	}
}

func TestConv2D_GroupedMatchesMockBackend(t *testing.T) {
	cpuBackend := New()
	mockBackend := tensor.NewMockBackend()

	input, _ := tensor.NewRaw(tensor.Shape{2, 4, 5, 5}, tensor.Float32, tensor.CPU)
	inputData := input.AsFloat32()
	for i := range inputData {
		inputData[i] = float32(i%11) - 5
	}

	// groups=2: 4 output channels, 2 input channels each
	kernel, _ := tensor.NewRaw(tensor.Shape{4, 2, 3, 3}, tensor.Float32, tensor.CPU)
	kernelData := kernel.AsFloat32()
	for i := range kernelData {
		kernelData[i] = float32(i%3) - 1
	}

	cpuOutput := cpuBackend.Conv2D(input, kernel, 1, 1, 2, 1)
	mockOutput := mockBackend.Conv2D(input, kernel, 1, 1, 2, 1)

	if !cpuOutput.Shape().Equal(mockOutput.Shape()) {
		t.Fatalf("Shape mismatch: CPU=%v, Mock=%v", cpuOutput.Shape(), mockOutput.Shape())
	}

	cpuData := cpuOutput.AsFloat32()
	mockData := mockOutput.AsFloat32()
	for i := range cpuData {
		diff := cpuData[i] - mockData[i]
		if diff < -0.001 || diff > 0.001 {
			t.Fatalf("Value mismatch at index %d: CPU=%.4f, Mock=%.4f", i, cpuData[i], mockData[i])
		}
	}
}
