// Copyright 2026 Flame ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package models

import (
	"github.com/flame-ml/flame/internal/nn"
	"github.com/flame-ml/flame/internal/tensor"
)

// Conv1x1 builds a bias-free 1x1 convolution.
func Conv1x1[B tensor.Backend](inChannels, outChannels, stride int, backend B) *nn.Conv2D[B] {
	return nn.NewConv2D(nn.Conv2DConfig{
		InChannels:  inChannels,
		OutChannels: outChannels,
		KernelSize:  1,
		Stride:      stride,
	}, backend)
}

// Conv3x3 builds a bias-free 3x3 convolution. The padding equals the
// dilation so spatial size is preserved at stride 1.
func Conv3x3[B tensor.Backend](inChannels, outChannels, stride, groups, dilation int, backend B) *nn.Conv2D[B] {
	return nn.NewConv2D(nn.Conv2DConfig{
		InChannels:  inChannels,
		OutChannels: outChannels,
		KernelSize:  3,
		Stride:      stride,
		Padding:     dilation,
		Groups:      groups,
		Dilation:    dilation,
	}, backend)
}

// Conv5x5 builds a bias-free 5x5 convolution with padding 2.
func Conv5x5[B tensor.Backend](inChannels, outChannels, stride int, backend B) *nn.Conv2D[B] {
	return nn.NewConv2D(nn.Conv2DConfig{
		InChannels:  inChannels,
		OutChannels: outChannels,
		KernelSize:  5,
		Stride:      stride,
		Padding:     2,
	}, backend)
}

// Conv7x7 builds a bias-free 7x7 convolution with padding 3, as used by
// the ResNet stem.
func Conv7x7[B tensor.Backend](inChannels, outChannels, stride int, backend B) *nn.Conv2D[B] {
	return nn.NewConv2D(nn.Conv2DConfig{
		InChannels:  inChannels,
		OutChannels: outChannels,
		KernelSize:  7,
		Stride:      stride,
		Padding:     3,
	}, backend)
}

// Conv3x3BN is a 3x3 convolution followed by batch normalization and ReLU.
// Its state dict keys follow Sequential indexing: "0.weight", "1.weight",
// "1.bias", "1.running_mean", "1.running_var".
func Conv3x3BN[B tensor.Backend](inChannels, outChannels, stride int, backend B) *nn.Sequential[B] {
	return nn.NewSequential[B](
		Conv3x3(inChannels, outChannels, stride, 1, 1, backend),
		nn.NewBatchNorm2D(outChannels, batchNormEps, backend),
		nn.NewReLU[B](),
	)
}

// Conv1x1BN is a 1x1 convolution followed by batch normalization and ReLU.
func Conv1x1BN[B tensor.Backend](inChannels, outChannels int, backend B) *nn.Sequential[B] {
	return nn.NewSequential[B](
		Conv1x1(inChannels, outChannels, 1, backend),
		nn.NewBatchNorm2D(outChannels, batchNormEps, backend),
		nn.NewReLU[B](),
	)
}

// batchNormEps matches the PyTorch BatchNorm2d default.
const batchNormEps = 1e-5
