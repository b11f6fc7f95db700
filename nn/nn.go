// Copyright 2026 Flame ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the public API for neural network layers in the
// Flame ML framework.
//
// Layers are generic over the compute backend and compose through the
// Module interface. State dicts use dot-separated keys compatible with
// exported PyTorch checkpoints.
package nn

import (
	"github.com/flame-ml/flame/internal/nn"
	"github.com/flame-ml/flame/internal/tensor"
)

// Module is the common interface for all neural network modules.
type Module[B tensor.Backend] = nn.Module[B]

// Parameter represents a named parameter in a neural network.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// MergeStateDict copies src into dst with every key prefixed.
func MergeStateDict(dst map[string]*tensor.RawTensor, prefix string, src map[string]*tensor.RawTensor) {
	nn.MergeStateDict(dst, prefix, src)
}

// SubStateDict extracts the entries of state under the given prefix,
// with the prefix stripped.
func SubStateDict(state map[string]*tensor.RawTensor, prefix string) map[string]*tensor.RawTensor {
	return nn.SubStateDict(state, prefix)
}

// Layers

// Linear represents a fully connected (dense) layer.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a new linear layer with Xavier initialization.
//
// Example:
//
//	backend := cpu.New()
//	layer := nn.NewLinear(2048, 1000, true, backend)
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, useBias bool, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, useBias, backend)
}

// Conv2D represents a 2D convolutional layer.
type Conv2D[B tensor.Backend] = nn.Conv2D[B]

// Conv2DConfig describes a Conv2D layer.
type Conv2DConfig = nn.Conv2DConfig

// NewConv2D creates a new 2D convolutional layer with Kaiming
// initialization.
//
// Example:
//
//	backend := cpu.New()
//	conv := nn.NewConv2D(nn.Conv2DConfig{
//	    InChannels:  3,
//	    OutChannels: 64,
//	    KernelSize:  7,
//	    Stride:      2,
//	    Padding:     3,
//	}, backend)
func NewConv2D[B tensor.Backend](cfg Conv2DConfig, backend B) *Conv2D[B] {
	return nn.NewConv2D(cfg, backend)
}

// BatchNorm2D represents 2D batch normalization over loaded running
// statistics (inference mode).
type BatchNorm2D[B tensor.Backend] = nn.BatchNorm2D[B]

// NewBatchNorm2D creates a new batch normalization layer.
func NewBatchNorm2D[B tensor.Backend](numFeatures int, epsilon float32, backend B) *BatchNorm2D[B] {
	return nn.NewBatchNorm2D(numFeatures, epsilon, backend)
}

// MaxPool2D represents a 2D max pooling layer.
type MaxPool2D[B tensor.Backend] = nn.MaxPool2D[B]

// NewMaxPool2D creates a new 2D max pooling layer.
func NewMaxPool2D[B tensor.Backend](kernelSize, stride, padding int, backend B) *MaxPool2D[B] {
	return nn.NewMaxPool2D(kernelSize, stride, padding, backend)
}

// AvgPool2D represents a 2D average pooling layer.
type AvgPool2D[B tensor.Backend] = nn.AvgPool2D[B]

// NewAvgPool2D creates a new 2D average pooling layer.
func NewAvgPool2D[B tensor.Backend](kernelSize, stride, padding int, backend B) *AvgPool2D[B] {
	return nn.NewAvgPool2D(kernelSize, stride, padding, backend)
}

// AdaptiveAvgPool2D pools feature maps down to a fixed output size.
type AdaptiveAvgPool2D[B tensor.Backend] = nn.AdaptiveAvgPool2D[B]

// NewAdaptiveAvgPool2D creates a new adaptive average pooling layer.
func NewAdaptiveAvgPool2D[B tensor.Backend](outputSize int, backend B) *AdaptiveAvgPool2D[B] {
	return nn.NewAdaptiveAvgPool2D(outputSize, backend)
}

// Activations

// ReLU represents the Rectified Linear Unit activation function.
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a new ReLU activation layer.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return nn.NewReLU[B]()
}

// Containers

// Sequential chains modules, applying them in order.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// NewSequential creates a sequential container from the given modules.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return nn.NewSequential(modules...)
}
