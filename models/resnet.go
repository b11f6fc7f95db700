// Copyright 2026 Flame ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package models

import (
	"fmt"

	"github.com/flame-ml/flame/internal/nn"
	"github.com/flame-ml/flame/internal/tensor"
)

// BlockKind selects the residual block used by a ResNet.
type BlockKind int

const (
	// BasicBlockKind is the two-convolution block (ResNet-18/34).
	BasicBlockKind BlockKind = iota
	// BottleneckKind is the three-convolution block (ResNet-50 and deeper).
	BottleneckKind
)

func (k BlockKind) expansion() int {
	switch k {
	case BasicBlockKind:
		return BasicBlockExpansion
	case BottleneckKind:
		return BottleneckExpansion
	default:
		panic(fmt.Sprintf("models: unknown block kind %d", k))
	}
}

func (k BlockKind) String() string {
	switch k {
	case BasicBlockKind:
		return "BasicBlock"
	case BottleneckKind:
		return "Bottleneck"
	default:
		return fmt.Sprintf("BlockKind(%d)", int(k))
	}
}

// ResNetConfig describes a ResNet architecture.
type ResNetConfig struct {
	// Block is the residual block kind.
	Block BlockKind
	// Layers gives the number of blocks in each of the four stages.
	Layers [4]int
	// Classes is the classifier size. Zero omits the final linear layer
	// so the model produces pooled features.
	Classes int
	// ZeroInitResidual zeroes the last batch norm scale in each
	// bottleneck block.
	ZeroInitResidual bool
	// Groups and WidthPerGroup configure ResNeXt-style grouped
	// convolutions. Zero values mean 1 and 64.
	Groups        int
	WidthPerGroup int
	// DilationForStride replaces the stride of stages 2-4 with dilation,
	// keeping spatial resolution for dense prediction.
	DilationForStride [3]bool
}

// residualBlock is implemented by both block kinds.
type residualBlock[B tensor.Backend] interface {
	nn.Module[B]
	zeroInitResidual()
}

// ResNet is the deep residual network of He et al. (2015),
// https://arxiv.org/abs/1512.03385. State dict keys follow the
// torchvision layout ("conv1.weight", "layer1.0.bn2.running_mean", ...),
// so exported torchvision checkpoints load directly.
type ResNet[B tensor.Backend] struct {
	conv1   *nn.Conv2D[B]
	bn1     *nn.BatchNorm2D[B]
	relu    *nn.ReLU[B]
	maxpool *nn.MaxPool2D[B]
	layers  [4]*nn.Sequential[B]
	avgpool *nn.AdaptiveAvgPool2D[B]
	fc      *nn.Linear[B]

	// construction state for makeLayer
	inPlanes int
	dilation int
}

var _ nn.Module[*tensor.MockBackend] = (*ResNet[*tensor.MockBackend])(nil)

// NewResNet builds a ResNet from cfg.
func NewResNet[B tensor.Backend](cfg ResNetConfig, backend B) *ResNet[B] {
	if cfg.Groups == 0 {
		cfg.Groups = 1
	}
	if cfg.WidthPerGroup == 0 {
		cfg.WidthPerGroup = 64
	}

	r := &ResNet[B]{
		conv1:    Conv7x7(3, 64, 2, backend),
		bn1:      nn.NewBatchNorm2D(64, batchNormEps, backend),
		relu:     nn.NewReLU[B](),
		maxpool:  nn.NewMaxPool2D(3, 2, 1, backend),
		avgpool:  nn.NewAdaptiveAvgPool2D(1, backend),
		inPlanes: 64,
		dilation: 1,
	}
	r.layers[0] = r.makeLayer(cfg, 64, cfg.Layers[0], 1, false, backend)
	r.layers[1] = r.makeLayer(cfg, 128, cfg.Layers[1], 2, cfg.DilationForStride[0], backend)
	r.layers[2] = r.makeLayer(cfg, 256, cfg.Layers[2], 2, cfg.DilationForStride[1], backend)
	r.layers[3] = r.makeLayer(cfg, 512, cfg.Layers[3], 2, cfg.DilationForStride[2], backend)

	if cfg.Classes > 0 {
		r.fc = nn.NewLinear(512*cfg.Block.expansion(), cfg.Classes, true, backend)
	}

	if cfg.ZeroInitResidual {
		for _, layer := range r.layers {
			for i := 0; i < layer.Len(); i++ {
				if block, ok := layer.Module(i).(*Bottleneck[B]); ok {
					block.zeroInitResidual()
				}
			}
		}
	}
	return r
}

// NewResNet18 builds a ResNet-18 classifier.
func NewResNet18[B tensor.Backend](classes int, backend B) *ResNet[B] {
	return NewResNet(ResNetConfig{Block: BasicBlockKind, Layers: [4]int{2, 2, 2, 2}, Classes: classes}, backend)
}

// NewResNet34 builds a ResNet-34 classifier.
func NewResNet34[B tensor.Backend](classes int, backend B) *ResNet[B] {
	return NewResNet(ResNetConfig{Block: BasicBlockKind, Layers: [4]int{3, 4, 6, 3}, Classes: classes}, backend)
}

// NewResNet50 builds a ResNet-50 classifier.
func NewResNet50[B tensor.Backend](classes int, backend B) *ResNet[B] {
	return NewResNet(ResNetConfig{Block: BottleneckKind, Layers: [4]int{3, 4, 6, 3}, Classes: classes}, backend)
}

func (r *ResNet[B]) makeLayer(cfg ResNetConfig, planes, blocks, stride int, dilate bool, backend B) *nn.Sequential[B] {
	expansion := cfg.Block.expansion()
	previousDilation := r.dilation
	if dilate {
		r.dilation *= stride
		stride = 1
	}

	var downsample *nn.Sequential[B]
	if stride != 1 || r.inPlanes != planes*expansion {
		downsample = nn.NewSequential[B](
			Conv1x1(r.inPlanes, planes*expansion, stride, backend),
			nn.NewBatchNorm2D(planes*expansion, batchNormEps, backend),
		)
	}

	layer := nn.NewSequential[B](
		r.newBlock(cfg, r.inPlanes, planes, stride, downsample, previousDilation, backend),
	)
	r.inPlanes = planes * expansion
	for i := 1; i < blocks; i++ {
		layer.Add(r.newBlock(cfg, r.inPlanes, planes, 1, nil, r.dilation, backend))
	}
	return layer
}

func (r *ResNet[B]) newBlock(cfg ResNetConfig, inPlanes, planes, stride int, downsample *nn.Sequential[B], dilation int, backend B) residualBlock[B] {
	switch cfg.Block {
	case BasicBlockKind:
		return NewBasicBlock(inPlanes, planes, stride, downsample, cfg.Groups, cfg.WidthPerGroup, dilation, backend)
	case BottleneckKind:
		return NewBottleneck(inPlanes, planes, stride, downsample, cfg.Groups, cfg.WidthPerGroup, dilation, backend)
	default:
		panic(fmt.Sprintf("models: unknown block kind %d", cfg.Block))
	}
}

// Forward runs inference on a [N, 3, H, W] batch. With a classifier the
// result is [N, Classes]; without one it is the pooled [N, C] features.
func (r *ResNet[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	x = r.relu.Forward(r.bn1.Forward(r.conv1.Forward(x)))
	x = r.maxpool.Forward(x)
	for _, layer := range r.layers {
		x = layer.Forward(x)
	}
	x = r.avgpool.Forward(x).Flatten(1)
	if r.fc != nil {
		x = r.fc.Forward(x)
	}
	return x
}

func (r *ResNet[B]) Parameters() []*nn.Parameter[B] {
	params := r.conv1.Parameters()
	params = append(params, r.bn1.Parameters()...)
	for _, layer := range r.layers {
		params = append(params, layer.Parameters()...)
	}
	if r.fc != nil {
		params = append(params, r.fc.Parameters()...)
	}
	return params
}

func (r *ResNet[B]) StateDict() map[string]*tensor.RawTensor {
	state := make(map[string]*tensor.RawTensor)
	nn.MergeStateDict(state, "conv1", r.conv1.StateDict())
	nn.MergeStateDict(state, "bn1", r.bn1.StateDict())
	for i, layer := range r.layers {
		nn.MergeStateDict(state, fmt.Sprintf("layer%d", i+1), layer.StateDict())
	}
	if r.fc != nil {
		nn.MergeStateDict(state, "fc", r.fc.StateDict())
	}
	return state
}

func (r *ResNet[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	if err := r.conv1.LoadStateDict(nn.SubStateDict(state, "conv1")); err != nil {
		return fmt.Errorf("conv1: %w", err)
	}
	if err := r.bn1.LoadStateDict(nn.SubStateDict(state, "bn1")); err != nil {
		return fmt.Errorf("bn1: %w", err)
	}
	for i, layer := range r.layers {
		prefix := fmt.Sprintf("layer%d", i+1)
		if err := layer.LoadStateDict(nn.SubStateDict(state, prefix)); err != nil {
			return fmt.Errorf("%s: %w", prefix, err)
		}
	}
	if r.fc != nil {
		if err := r.fc.LoadStateDict(nn.SubStateDict(state, "fc")); err != nil {
			return fmt.Errorf("fc: %w", err)
		}
	}
	return nil
}
