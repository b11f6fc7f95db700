// Copyright 2026 Flame ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package models

import (
	"fmt"

	"github.com/flame-ml/flame/internal/nn"
	"github.com/flame-ml/flame/internal/tensor"
)

// ResNetV2 is a residual network variant with a heavier stem: a 7x7 max
// pool follows the first convolution, stage one is strided, and the final
// stage is not. The head uses a fixed 7x7 average pool, so inputs must be
// sized such that the last stage produces 7x7 feature maps (224x224 for
// the standard configuration).
//
// State dict keys use this model's own register names: "conv",
// "batchnorm", "layer_1" through "layer_4" and "feature_connector".
type ResNetV2[B tensor.Backend] struct {
	conv      *nn.Conv2D[B]
	batchnorm *nn.BatchNorm2D[B]
	relu      *nn.ReLU[B]
	maxPool   *nn.MaxPool2D[B]
	layers    [4]*nn.Sequential[B]
	avgPool   *nn.AvgPool2D[B]
	fc        *nn.Linear[B]

	inChannels int
}

var _ nn.Module[*tensor.MockBackend] = (*ResNetV2[*tensor.MockBackend])(nil)

// NewResNetV2 builds a ResNetV2 with the given block kind and per-stage
// block counts. classes=0 omits the classifier and returns pooled features.
func NewResNetV2[B tensor.Backend](block BlockKind, layerSizes [4]int, classes int, backend B) *ResNetV2[B] {
	r := &ResNetV2[B]{
		conv:       Conv7x7(3, 64, 2, backend),
		batchnorm:  nn.NewBatchNorm2D(64, batchNormEps, backend),
		relu:       nn.NewReLU[B](),
		maxPool:    nn.NewMaxPool2D(7, 2, 1, backend),
		avgPool:    nn.NewAvgPool2D(7, 1, 0, backend),
		inChannels: 64,
	}
	channels := [4]int{64, 128, 256, 512}
	strides := [4]int{2, 2, 2, 1}
	for i := range r.layers {
		r.layers[i] = r.makeLayer(block, channels[i], layerSizes[i], strides[i], backend)
	}
	if classes > 0 {
		r.fc = nn.NewLinear(r.inChannels, classes, true, backend)
	}
	return r
}

// NewResNetV250 builds the 50-layer bottleneck configuration.
func NewResNetV250[B tensor.Backend](classes int, backend B) *ResNetV2[B] {
	return NewResNetV2(BottleneckKind, [4]int{3, 4, 6, 3}, classes, backend)
}

func (r *ResNetV2[B]) makeLayer(block BlockKind, channels, blocks, stride int, backend B) *nn.Sequential[B] {
	expansion := block.expansion()
	outPlanes := channels * expansion

	var downsample *nn.Sequential[B]
	if stride != 1 || r.inChannels != outPlanes {
		downsample = nn.NewSequential[B](
			Conv1x1(r.inChannels, outPlanes, stride, backend),
			nn.NewBatchNorm2D(outPlanes, batchNormEps, backend),
		)
	}

	layer := nn.NewSequential[B](newV2Block(block, r.inChannels, channels, stride, downsample, backend))
	r.inChannels = outPlanes
	for i := 1; i < blocks; i++ {
		layer.Add(newV2Block(block, r.inChannels, channels, 1, nil, backend))
	}
	return layer
}

func newV2Block[B tensor.Backend](block BlockKind, inPlanes, planes, stride int, downsample *nn.Sequential[B], backend B) residualBlock[B] {
	switch block {
	case BasicBlockKind:
		return NewBasicBlock(inPlanes, planes, stride, downsample, 1, 64, 1, backend)
	case BottleneckKind:
		return NewBottleneck(inPlanes, planes, stride, downsample, 1, 64, 1, backend)
	default:
		panic(fmt.Sprintf("models: unknown block kind %d", block))
	}
}

func (r *ResNetV2[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	x = r.relu.Forward(r.batchnorm.Forward(r.conv.Forward(x)))
	x = r.maxPool.Forward(x)
	for _, layer := range r.layers {
		x = layer.Forward(x)
	}
	x = r.avgPool.Forward(x).Flatten(1)
	if r.fc != nil {
		x = r.fc.Forward(x)
	}
	return x
}

func (r *ResNetV2[B]) Parameters() []*nn.Parameter[B] {
	params := r.conv.Parameters()
	params = append(params, r.batchnorm.Parameters()...)
	for _, layer := range r.layers {
		params = append(params, layer.Parameters()...)
	}
	if r.fc != nil {
		params = append(params, r.fc.Parameters()...)
	}
	return params
}

func (r *ResNetV2[B]) StateDict() map[string]*tensor.RawTensor {
	state := make(map[string]*tensor.RawTensor)
	nn.MergeStateDict(state, "conv", r.conv.StateDict())
	nn.MergeStateDict(state, "batchnorm", r.batchnorm.StateDict())
	for i, layer := range r.layers {
		nn.MergeStateDict(state, fmt.Sprintf("layer_%d", i+1), layer.StateDict())
	}
	if r.fc != nil {
		nn.MergeStateDict(state, "feature_connector", r.fc.StateDict())
	}
	return state
}

func (r *ResNetV2[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	if err := r.conv.LoadStateDict(nn.SubStateDict(state, "conv")); err != nil {
		return fmt.Errorf("conv: %w", err)
	}
	if err := r.batchnorm.LoadStateDict(nn.SubStateDict(state, "batchnorm")); err != nil {
		return fmt.Errorf("batchnorm: %w", err)
	}
	for i, layer := range r.layers {
		prefix := fmt.Sprintf("layer_%d", i+1)
		if err := layer.LoadStateDict(nn.SubStateDict(state, prefix)); err != nil {
			return fmt.Errorf("%s: %w", prefix, err)
		}
	}
	if r.fc != nil {
		if err := r.fc.LoadStateDict(nn.SubStateDict(state, "feature_connector")); err != nil {
			return fmt.Errorf("feature_connector: %w", err)
		}
	}
	return nil
}
