// Copyright 2026 Flame ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package models

import (
	"github.com/flame-ml/flame/internal/nn"
	"github.com/flame-ml/flame/internal/tensor"
)

// BottleneckExpansion is the channel expansion factor of Bottleneck.
const BottleneckExpansion = 4

// Bottleneck is the three-convolution residual block used by ResNet-50 and
// deeper variants. The stride is applied by the 3x3 convolution, matching
// torchvision's ResNet V1.5.
type Bottleneck[B tensor.Backend] struct {
	conv1      *nn.Conv2D[B]
	bn1        *nn.BatchNorm2D[B]
	conv2      *nn.Conv2D[B]
	bn2        *nn.BatchNorm2D[B]
	conv3      *nn.Conv2D[B]
	bn3        *nn.BatchNorm2D[B]
	relu       *nn.ReLU[B]
	downsample *nn.Sequential[B]
}

var _ nn.Module[*tensor.MockBackend] = (*Bottleneck[*tensor.MockBackend])(nil)

// NewBottleneck builds a bottleneck residual block. downsample may be nil.
func NewBottleneck[B tensor.Backend](inPlanes, planes, stride int, downsample *nn.Sequential[B], groups, widthPerGroup, dilation int, backend B) *Bottleneck[B] {
	width := int(float64(planes)*(float64(widthPerGroup)/64.0)) * groups
	return &Bottleneck[B]{
		conv1:      Conv1x1(inPlanes, width, 1, backend),
		bn1:        nn.NewBatchNorm2D(width, batchNormEps, backend),
		conv2:      Conv3x3(width, width, stride, groups, dilation, backend),
		bn2:        nn.NewBatchNorm2D(width, batchNormEps, backend),
		conv3:      Conv1x1(width, planes*BottleneckExpansion, 1, backend),
		bn3:        nn.NewBatchNorm2D(planes*BottleneckExpansion, batchNormEps, backend),
		relu:       nn.NewReLU[B](),
		downsample: downsample,
	}
}

func (b *Bottleneck[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	identity := x

	out := b.relu.Forward(b.bn1.Forward(b.conv1.Forward(x)))
	out = b.relu.Forward(b.bn2.Forward(b.conv2.Forward(out)))
	out = b.bn3.Forward(b.conv3.Forward(out))

	if b.downsample != nil {
		identity = b.downsample.Forward(x)
	}
	return b.relu.Forward(out.Add(identity))
}

func (b *Bottleneck[B]) Parameters() []*nn.Parameter[B] {
	params := b.conv1.Parameters()
	params = append(params, b.bn1.Parameters()...)
	params = append(params, b.conv2.Parameters()...)
	params = append(params, b.bn2.Parameters()...)
	params = append(params, b.conv3.Parameters()...)
	params = append(params, b.bn3.Parameters()...)
	if b.downsample != nil {
		params = append(params, b.downsample.Parameters()...)
	}
	return params
}

func (b *Bottleneck[B]) StateDict() map[string]*tensor.RawTensor {
	state := make(map[string]*tensor.RawTensor)
	nn.MergeStateDict(state, "conv1", b.conv1.StateDict())
	nn.MergeStateDict(state, "bn1", b.bn1.StateDict())
	nn.MergeStateDict(state, "conv2", b.conv2.StateDict())
	nn.MergeStateDict(state, "bn2", b.bn2.StateDict())
	nn.MergeStateDict(state, "conv3", b.conv3.StateDict())
	nn.MergeStateDict(state, "bn3", b.bn3.StateDict())
	if b.downsample != nil {
		nn.MergeStateDict(state, "downsample", b.downsample.StateDict())
	}
	return state
}

func (b *Bottleneck[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	modules := []struct {
		prefix string
		module nn.Module[B]
	}{
		{"conv1", b.conv1},
		{"bn1", b.bn1},
		{"conv2", b.conv2},
		{"bn2", b.bn2},
		{"conv3", b.conv3},
		{"bn3", b.bn3},
	}
	for _, m := range modules {
		if err := m.module.LoadStateDict(nn.SubStateDict(state, m.prefix)); err != nil {
			return err
		}
	}
	if b.downsample != nil {
		return b.downsample.LoadStateDict(nn.SubStateDict(state, "downsample"))
	}
	return nil
}

func (b *Bottleneck[B]) zeroInitResidual() {
	zeroFloat32(b.bn3.StateDict()["weight"])
}
