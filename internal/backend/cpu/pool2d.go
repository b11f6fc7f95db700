package cpu

import (
	"fmt"
	"math"

	"github.com/flame-ml/flame/internal/tensor"
)

// MaxPool2D performs 2D max pooling.
//
// Pooling reduces spatial dimensions by sliding a kernelSize x
// kernelSize window with the given stride. Padding extends the input
// with -inf on all sides, so padded positions never win. No learnable
// parameters.
//
// Input shape:  [batch, channels, height, width]
// Output shape: [batch, channels, out_height, out_width]
//
// Where:
//
//	out_height = (height + 2*padding - kernelSize) / stride + 1
//	out_width = (width + 2*padding - kernelSize) / stride + 1
func (cpu *CPUBackend) MaxPool2D(input *tensor.RawTensor, kernelSize, stride, padding int) *tensor.RawTensor {
	return cpu.pool2D("maxpool2d", input, kernelSize, stride, padding, maxPoolKind)
}

// AvgPool2D performs 2D average pooling with the same window geometry
// as MaxPool2D. Each output is the window sum divided by the full
// kernel area; padded positions count as zeros.
func (cpu *CPUBackend) AvgPool2D(input *tensor.RawTensor, kernelSize, stride, padding int) *tensor.RawTensor {
	return cpu.pool2D("avgpool2d", input, kernelSize, stride, padding, avgPoolKind)
}

type poolKind int

const (
	maxPoolKind poolKind = iota
	avgPoolKind
)

func (cpu *CPUBackend) pool2D(name string, input *tensor.RawTensor, kernelSize, stride, padding int, kind poolKind) *tensor.RawTensor {
	inputShape := input.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("%s: expected 4D input [N,C,H,W], got %dD", name, len(inputShape)))
	}

	N := inputShape[0]
	C := inputShape[1]
	H := inputShape[2]
	W := inputShape[3]

	if kernelSize <= 0 {
		panic(fmt.Sprintf("%s: invalid kernel size %d", name, kernelSize))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("%s: invalid stride %d", name, stride))
	}
	if padding < 0 || padding > kernelSize/2 {
		panic(fmt.Sprintf("%s: padding %d must be in [0, %d]", name, padding, kernelSize/2))
	}
	if kernelSize > H+2*padding || kernelSize > W+2*padding {
		panic(fmt.Sprintf("%s: kernel size %d too large for input %dx%d with padding %d", name, kernelSize, H, W, padding))
	}

	HOut := (H+2*padding-kernelSize)/stride + 1
	WOut := (W+2*padding-kernelSize)/stride + 1

	output, err := tensor.NewRaw(tensor.Shape{N, C, HOut, WOut}, input.DType(), cpu.Device())
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create output: %v", name, err))
	}

	args := pool2dArgs{
		n: N, c: C, h: H, w: W,
		hOut: HOut, wOut: WOut,
		kernelSize: kernelSize, stride: stride, padding: padding,
	}

	switch input.DType() {
	case tensor.Float32:
		pool2dSlice(output.AsFloat32(), input.AsFloat32(), args, kind)
	case tensor.Float64:
		pool2dSlice(output.AsFloat64(), input.AsFloat64(), args, kind)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %v", name, input.DType()))
	}

	return output
}

type pool2dArgs struct {
	n, c, h, w int
	hOut, wOut int

	kernelSize, stride, padding int
}

//nolint:gocognit // Window iteration over batch, channel and both spatial dims.
func pool2dSlice[T ~float32 | ~float64](output, input []T, a pool2dArgs, kind poolKind) {
	windowArea := T(a.kernelSize * a.kernelSize)

	for n := 0; n < a.n; n++ {
		for c := 0; c < a.c; c++ {
			// Pre-slice the channel plane: single bounds check per row
			channelOffset := (n*a.c + c) * a.h * a.w
			channelData := input[channelOffset : channelOffset+a.h*a.w]

			for outH := 0; outH < a.hOut; outH++ {
				hStart := outH*a.stride - a.padding
				hLo, hHi := clampWindow(hStart, a.kernelSize, a.h)

				for outW := 0; outW < a.wOut; outW++ {
					wStart := outW*a.stride - a.padding
					wLo, wHi := clampWindow(wStart, a.kernelSize, a.w)

					var acc T
					if kind == maxPoolKind {
						acc = T(math.Inf(-1))
					}

					for h := hLo; h < hHi; h++ {
						rowData := channelData[h*a.w+wLo : h*a.w+wHi]

						for _, val := range rowData {
							if kind == maxPoolKind {
								if val > acc {
									acc = val
								}
							} else {
								acc += val
							}
						}
					}

					if kind == avgPoolKind {
						acc /= windowArea
					}

					output[((n*a.c+c)*a.hOut+outH)*a.wOut+outW] = acc
				}
			}
		}
	}
}

// clampWindow intersects the window [start, start+kernelSize) with the
// valid range [0, size).
func clampWindow(start, kernelSize, size int) (lo, hi int) {
	lo, hi = start, start+kernelSize
	if lo < 0 {
		lo = 0
	}
	if hi > size {
		hi = size
	}
	return lo, hi
}
