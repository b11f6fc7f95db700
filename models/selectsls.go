// Copyright 2026 Flame ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package models

import (
	"fmt"

	"github.com/flame-ml/flame/internal/nn"
	"github.com/flame-ml/flame/internal/tensor"
)

// Config42 is the feature configuration shared by SelectSLS-42 and -42b.
func Config42() []SLSBlockConfig {
	return []SLSBlockConfig{
		{InPlanes: 32, Skip: 0, Planes: 64, OutPlanes: 64, Stride: 2, IsFirst: true},
		{InPlanes: 64, Skip: 64, Planes: 64, OutPlanes: 128, Stride: 1},
		{InPlanes: 128, Skip: 0, Planes: 144, OutPlanes: 144, Stride: 2, IsFirst: true},
		{InPlanes: 144, Skip: 144, Planes: 144, OutPlanes: 288, Stride: 1},
		{InPlanes: 288, Skip: 0, Planes: 304, OutPlanes: 304, Stride: 2, IsFirst: true},
		{InPlanes: 304, Skip: 304, Planes: 304, OutPlanes: 480, Stride: 1},
	}
}

// SelectSLS is the SelectSLS network of XNect (Mehta et al. 2019). A
// stride-2 stem is followed by SLS blocks that thread a feature/skip pair,
// a four-convolution head, global spatial averaging and an optional linear
// classifier.
//
// State dict keys follow the timm layout: "stem.0.weight",
// "features.2.conv4.1.running_mean", "head.3.0.weight",
// "classifier.weight".
type SelectSLS[B tensor.Backend] struct {
	stem       *nn.Sequential[B]
	features   []*SLSBlock[B]
	head       *nn.Sequential[B]
	classifier *nn.Linear[B]
}

var _ nn.Module[*tensor.MockBackend] = (*SelectSLS[*tensor.MockBackend])(nil)

// NewSelectSLS builds a SelectSLS network. headInputs gives the input
// channel counts of the four head convolutions; headOutputs the head's
// output width. classes=0 omits the classifier and returns pooled features.
func NewSelectSLS[B tensor.Backend](config []SLSBlockConfig, headInputs [4]int, headOutputs, classes int, backend B) *SelectSLS[B] {
	s := &SelectSLS[B]{
		stem: Conv3x3BN(3, 32, 2, backend),
		head: nn.NewSequential[B](
			Conv3x3BN(headInputs[0], headInputs[1], 2, backend),
			Conv3x3BN(headInputs[1], headInputs[2], 1, backend),
			Conv3x3BN(headInputs[2], headInputs[3], 2, backend),
			Conv1x1BN(headInputs[3], headOutputs, backend),
		),
	}
	for _, cfg := range config {
		s.features = append(s.features, NewSLSBlock(cfg, backend))
	}
	if classes > 0 {
		s.classifier = nn.NewLinear(headOutputs, classes, true, backend)
	}
	return s
}

// NewSelectSLS42 builds the SelectSLS-42 configuration.
func NewSelectSLS42[B tensor.Backend](classes int, backend B) *SelectSLS[B] {
	return NewSelectSLS(Config42(), [4]int{480, 960, 1024, 1024}, 1280, classes, backend)
}

// NewSelectSLS42B builds the SelectSLS-42b configuration, which trades a
// wider final head convolution for a narrower feature vector.
func NewSelectSLS42B[B tensor.Backend](classes int, backend B) *SelectSLS[B] {
	return NewSelectSLS(Config42(), [4]int{480, 960, 1024, 1280}, 1024, classes, backend)
}

func (s *SelectSLS[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	pair := []*tensor.Tensor[float32, B]{s.stem.Forward(x)}
	for _, block := range s.features {
		pair = block.Forward(pair)
	}
	x = s.head.Forward(pair[0])
	x = x.MeanDim(3, false).MeanDim(2, false)
	if s.classifier != nil {
		x = s.classifier.Forward(x)
	}
	return x
}

func (s *SelectSLS[B]) Parameters() []*nn.Parameter[B] {
	params := s.stem.Parameters()
	for _, block := range s.features {
		params = append(params, block.Parameters()...)
	}
	params = append(params, s.head.Parameters()...)
	if s.classifier != nil {
		params = append(params, s.classifier.Parameters()...)
	}
	return params
}

func (s *SelectSLS[B]) StateDict() map[string]*tensor.RawTensor {
	state := make(map[string]*tensor.RawTensor)
	nn.MergeStateDict(state, "stem", s.stem.StateDict())
	for i, block := range s.features {
		nn.MergeStateDict(state, fmt.Sprintf("features.%d", i), block.StateDict())
	}
	nn.MergeStateDict(state, "head", s.head.StateDict())
	if s.classifier != nil {
		nn.MergeStateDict(state, "classifier", s.classifier.StateDict())
	}
	return state
}

func (s *SelectSLS[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	if err := s.stem.LoadStateDict(nn.SubStateDict(state, "stem")); err != nil {
		return fmt.Errorf("stem: %w", err)
	}
	for i, block := range s.features {
		prefix := fmt.Sprintf("features.%d", i)
		if err := block.LoadStateDict(nn.SubStateDict(state, prefix)); err != nil {
			return fmt.Errorf("%s: %w", prefix, err)
		}
	}
	if err := s.head.LoadStateDict(nn.SubStateDict(state, "head")); err != nil {
		return fmt.Errorf("head: %w", err)
	}
	if s.classifier != nil {
		if err := s.classifier.LoadStateDict(nn.SubStateDict(state, "classifier")); err != nil {
			return fmt.Errorf("classifier: %w", err)
		}
	}
	return nil
}
