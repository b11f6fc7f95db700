// Copyright 2026 Flame ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package models

import (
	"github.com/flame-ml/flame/internal/nn"
	"github.com/flame-ml/flame/internal/tensor"
)

// BasicBlockExpansion is the channel expansion factor of BasicBlock.
const BasicBlockExpansion = 1

// BasicBlock is the two-convolution residual block used by ResNet-18 and
// ResNet-34. The optional downsample branch projects the identity when the
// block changes spatial size or channel count.
type BasicBlock[B tensor.Backend] struct {
	conv1      *nn.Conv2D[B]
	bn1        *nn.BatchNorm2D[B]
	conv2      *nn.Conv2D[B]
	bn2        *nn.BatchNorm2D[B]
	relu       *nn.ReLU[B]
	downsample *nn.Sequential[B]
}

var _ nn.Module[*tensor.MockBackend] = (*BasicBlock[*tensor.MockBackend])(nil)

// NewBasicBlock builds a basic residual block. downsample may be nil.
// BasicBlock only supports groups=1, widthPerGroup=64 and dilation=1;
// other values panic.
func NewBasicBlock[B tensor.Backend](inPlanes, planes, stride int, downsample *nn.Sequential[B], groups, widthPerGroup, dilation int, backend B) *BasicBlock[B] {
	if groups != 1 || widthPerGroup != 64 {
		panic("models: BasicBlock only supports groups=1 and widthPerGroup=64")
	}
	if dilation > 1 {
		panic("models: BasicBlock does not support dilation > 1")
	}
	return &BasicBlock[B]{
		conv1:      Conv3x3(inPlanes, planes, stride, 1, 1, backend),
		bn1:        nn.NewBatchNorm2D(planes, batchNormEps, backend),
		conv2:      Conv3x3(planes, planes, 1, 1, 1, backend),
		bn2:        nn.NewBatchNorm2D(planes, batchNormEps, backend),
		relu:       nn.NewReLU[B](),
		downsample: downsample,
	}
}

func (b *BasicBlock[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	identity := x

	out := b.relu.Forward(b.bn1.Forward(b.conv1.Forward(x)))
	out = b.bn2.Forward(b.conv2.Forward(out))

	if b.downsample != nil {
		identity = b.downsample.Forward(x)
	}
	return b.relu.Forward(out.Add(identity))
}

func (b *BasicBlock[B]) Parameters() []*nn.Parameter[B] {
	params := b.conv1.Parameters()
	params = append(params, b.bn1.Parameters()...)
	params = append(params, b.conv2.Parameters()...)
	params = append(params, b.bn2.Parameters()...)
	if b.downsample != nil {
		params = append(params, b.downsample.Parameters()...)
	}
	return params
}

func (b *BasicBlock[B]) StateDict() map[string]*tensor.RawTensor {
	state := make(map[string]*tensor.RawTensor)
	nn.MergeStateDict(state, "conv1", b.conv1.StateDict())
	nn.MergeStateDict(state, "bn1", b.bn1.StateDict())
	nn.MergeStateDict(state, "conv2", b.conv2.StateDict())
	nn.MergeStateDict(state, "bn2", b.bn2.StateDict())
	if b.downsample != nil {
		nn.MergeStateDict(state, "downsample", b.downsample.StateDict())
	}
	return state
}

func (b *BasicBlock[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	if err := b.conv1.LoadStateDict(nn.SubStateDict(state, "conv1")); err != nil {
		return err
	}
	if err := b.bn1.LoadStateDict(nn.SubStateDict(state, "bn1")); err != nil {
		return err
	}
	if err := b.conv2.LoadStateDict(nn.SubStateDict(state, "conv2")); err != nil {
		return err
	}
	if err := b.bn2.LoadStateDict(nn.SubStateDict(state, "bn2")); err != nil {
		return err
	}
	if b.downsample != nil {
		return b.downsample.LoadStateDict(nn.SubStateDict(state, "downsample"))
	}
	return nil
}

// zeroInitResidual zeroes the final batch norm scale so the block starts
// as an identity mapping, which improves training from scratch.
func (b *BasicBlock[B]) zeroInitResidual() {
	zeroFloat32(b.bn2.StateDict()["weight"])
}

func zeroFloat32(raw *tensor.RawTensor) {
	data := raw.AsFloat32()
	for i := range data {
		data[i] = 0
	}
}
