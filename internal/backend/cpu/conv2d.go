package cpu

import (
	"fmt"

	"github.com/flame-ml/flame/internal/tensor"
)

// Conv2D performs 2D convolution using the im2col algorithm.
//
// Input shape:  [batch, in_channels, height, width]
// Kernel shape: [out_channels, in_channels/groups, kernel_h, kernel_w]
// Output shape: [batch, out_channels, out_h, out_w]
//
// groups splits the channel dimension into independent convolutions:
// input channels [g*C_in/G, (g+1)*C_in/G) feed output channels
// [g*C_out/G, (g+1)*C_out/G). dilation spaces the kernel taps, so the
// effective kernel extent is dilation*(K-1)+1.
//
// Algorithm:
//  1. Transform input patches of each group into columns (im2col)
//  2. Multiply the group's kernel matrix against the columns
//  3. Scatter the result into [N, C_out, H_out, W_out]
//
// Reference: "High Performance Convolutional Neural Networks for
// Document Processing" (Chellapilla et al., 2006).
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, stride, padding, groups, dilation int) *tensor.RawTensor {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()

	if len(inputShape) != 4 {
		panic(fmt.Sprintf("conv2d: input must be 4D [N,C,H,W], got %dD", len(inputShape)))
	}
	if len(kernelShape) != 4 {
		panic(fmt.Sprintf("conv2d: kernel must be 4D [C_out,C_in/G,K_h,K_w], got %dD", len(kernelShape)))
	}
	if groups <= 0 {
		panic(fmt.Sprintf("conv2d: groups must be positive, got %d", groups))
	}
	if dilation <= 0 {
		panic(fmt.Sprintf("conv2d: dilation must be positive, got %d", dilation))
	}

	N := inputShape[0]
	CIn := inputShape[1]
	H := inputShape[2]
	W := inputShape[3]
	COut := kernelShape[0]
	CInK := kernelShape[1]
	KH := kernelShape[2]
	KW := kernelShape[3]

	if CIn%groups != 0 || COut%groups != 0 {
		panic(fmt.Sprintf("conv2d: channels (in=%d, out=%d) not divisible by groups %d", CIn, COut, groups))
	}
	if CIn/groups != CInK {
		panic(fmt.Sprintf("conv2d: input channels per group %d != kernel channels %d", CIn/groups, CInK))
	}

	// Effective kernel extent with dilation
	effKH := dilation*(KH-1) + 1
	effKW := dilation*(KW-1) + 1
	HOut := (H+2*padding-effKH)/stride + 1
	WOut := (W+2*padding-effKW)/stride + 1

	if HOut <= 0 || WOut <= 0 {
		panic(fmt.Sprintf("conv2d: invalid output dimensions: out_h=%d, out_w=%d (check stride/padding/dilation)", HOut, WOut))
	}

	output, err := tensor.NewRaw(tensor.Shape{N, COut, HOut, WOut}, input.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("conv2d: failed to create output tensor: %v", err))
	}

	args := conv2dArgs{
		n: N, cIn: CIn, h: H, w: W,
		cOut: COut, kh: KH, kw: KW,
		hOut: HOut, wOut: WOut,
		stride: stride, padding: padding,
		groups: groups, dilation: dilation,
	}

	switch input.DType() {
	case tensor.Float32:
		conv2dSlice(output.AsFloat32(), input.AsFloat32(), kernel.AsFloat32(), args)
	case tensor.Float64:
		conv2dSlice(output.AsFloat64(), input.AsFloat64(), kernel.AsFloat64(), args)
	default:
		panic(fmt.Sprintf("conv2d: unsupported dtype %s", input.DType()))
	}

	return output
}

type conv2dArgs struct {
	n, cIn, h, w     int
	cOut, kh, kw     int
	hOut, wOut       int
	stride, padding  int
	groups, dilation int
}

// conv2dSlice runs im2col plus matmul per group.
func conv2dSlice[T number](output, input, kernel []T, a conv2dArgs) {
	cInG := a.cIn / a.groups
	cOutG := a.cOut / a.groups

	// Column matrix for one (batch, group): [cInG*KH*KW, H_out*W_out]
	colWidth := a.hOut * a.wOut
	colHeight := cInG * a.kh * a.kw
	colBuf := make([]T, colHeight*colWidth)

	kernelStride := cInG * a.kh * a.kw

	for n := 0; n < a.n; n++ {
		for g := 0; g < a.groups; g++ {
			im2col(colBuf, input, n, g*cInG, cInG, a)

			// kernel rows for this group: [cOutG, cInG*KH*KW]
			// result rows go to output[n, g*cOutG+c, :, :]
			for c := 0; c < cOutG; c++ {
				kRow := kernel[(g*cOutG+c)*kernelStride : (g*cOutG+c+1)*kernelStride]
				outPlane := output[((n*a.cOut+g*cOutG+c)*a.hOut)*a.wOut : ((n*a.cOut+g*cOutG+c)*a.hOut+a.hOut)*a.wOut]

				for j := range outPlane {
					outPlane[j] = 0
				}
				for k, kv := range kRow {
					if kv == 0 {
						continue
					}
					colRow := colBuf[k*colWidth : (k+1)*colWidth]
					for j, cv := range colRow {
						outPlane[j] += kv * cv
					}
				}
			}
		}
	}
}

// im2col fills colBuf with the patches of one (batch, channel group).
// colBuf layout: [cInG*KH*KW, H_out*W_out], one row per kernel tap.
func im2col[T number](colBuf, input []T, n, cStart, cInG int, a conv2dArgs) {
	colWidth := a.hOut * a.wOut

	row := 0
	for c := 0; c < cInG; c++ {
		channel := input[((n*a.cIn+cStart+c)*a.h)*a.w : ((n*a.cIn+cStart+c)*a.h+a.h)*a.w]
		for kh := 0; kh < a.kh; kh++ {
			for kw := 0; kw < a.kw; kw++ {
				dst := colBuf[row*colWidth : (row+1)*colWidth]
				col := 0
				for outH := 0; outH < a.hOut; outH++ {
					h := outH*a.stride - a.padding + kh*a.dilation
					for outW := 0; outW < a.wOut; outW++ {
						w := outW*a.stride - a.padding + kw*a.dilation
						if h >= 0 && h < a.h && w >= 0 && w < a.w {
							dst[col] = channel[h*a.w+w]
						} else {
							dst[col] = 0
						}
						col++
					}
				}
				row++
			}
		}
	}
}
