// Copyright 2026 Flame ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package models

import (
	"fmt"

	"github.com/flame-ml/flame/internal/nn"
	"github.com/flame-ml/flame/internal/tensor"
)

// SLSBlockConfig describes one selective long and short range skip block.
type SLSBlockConfig struct {
	// InPlanes is the block's input channel count.
	InPlanes int
	// Skip is the channel count of the skip tensor carried alongside the
	// features. Ignored when IsFirst is set.
	Skip int
	// Planes is the internal channel count. Must be even.
	Planes int
	// OutPlanes is the output channel count.
	OutPlanes int
	// Stride is applied by the first convolution.
	Stride int
	// IsFirst marks the block that starts a resolution stage. A first
	// block ignores any incoming skip and seeds it with its own output.
	IsFirst bool
}

// SLSBlock is the building block of SelectSLS (Mehta et al. 2019). Unlike
// a plain residual block it passes a pair of tensors between blocks: the
// features and a long-range skip from the start of the stage.
type SLSBlock[B tensor.Backend] struct {
	cfg   SLSBlockConfig
	conv1 *nn.Sequential[B]
	conv2 *nn.Sequential[B]
	conv3 *nn.Sequential[B]
	conv4 *nn.Sequential[B]
	conv5 *nn.Sequential[B]
	conv6 *nn.Sequential[B]
}

// NewSLSBlock builds an SLS block. Panics when the channel configuration
// is invalid.
func NewSLSBlock[B tensor.Backend](cfg SLSBlockConfig, backend B) *SLSBlock[B] {
	if cfg.InPlanes <= 0 || cfg.Planes <= 0 || cfg.OutPlanes <= 0 {
		panic(fmt.Sprintf("models: SLSBlock channels must be positive, got %+v", cfg))
	}
	if cfg.Planes%2 != 0 {
		panic(fmt.Sprintf("models: SLSBlock internal planes must be even, got %d", cfg.Planes))
	}
	if cfg.Stride <= 0 {
		panic(fmt.Sprintf("models: SLSBlock stride must be positive, got %d", cfg.Stride))
	}
	half := cfg.Planes / 2
	catChannels := 2 * cfg.Planes
	if !cfg.IsFirst {
		catChannels += cfg.Skip
	}
	return &SLSBlock[B]{
		cfg:   cfg,
		conv1: Conv3x3BN(cfg.InPlanes, cfg.Planes, cfg.Stride, backend),
		conv2: Conv1x1BN(cfg.Planes, cfg.Planes, backend),
		conv3: Conv3x3BN(cfg.Planes, half, 1, backend),
		conv4: Conv1x1BN(half, cfg.Planes, backend),
		conv5: Conv3x3BN(cfg.Planes, half, 1, backend),
		conv6: Conv1x1BN(catChannels, cfg.OutPlanes, backend),
	}
}

// Forward takes the feature tensor and, for non-first blocks, the skip
// tensor from the start of the stage. A first block also accepts the pair
// from the previous stage and ignores the stale skip. It returns the new
// features and the skip to carry forward. Panics on wrong arity.
func (b *SLSBlock[B]) Forward(inputs []*tensor.Tensor[float32, B]) []*tensor.Tensor[float32, B] {
	if b.cfg.IsFirst {
		if len(inputs) != 1 && len(inputs) != 2 {
			panic(fmt.Sprintf("models: first SLSBlock takes 1 or 2 inputs, got %d", len(inputs)))
		}
	} else if len(inputs) != 2 {
		panic(fmt.Sprintf("models: SLSBlock takes 2 inputs, got %d", len(inputs)))
	}

	x := inputs[0]
	d1 := b.conv1.Forward(x)
	d2 := b.conv3.Forward(b.conv2.Forward(d1))
	d3 := b.conv5.Forward(b.conv4.Forward(d2))

	if b.cfg.IsFirst {
		out := b.conv6.Forward(tensor.Cat([]*tensor.Tensor[float32, B]{d1, d2, d3}, 1))
		return []*tensor.Tensor[float32, B]{out, out}
	}
	skip := inputs[1]
	out := b.conv6.Forward(tensor.Cat([]*tensor.Tensor[float32, B]{d1, d2, d3, skip}, 1))
	return []*tensor.Tensor[float32, B]{out, skip}
}

// Config returns the block configuration.
func (b *SLSBlock[B]) Config() SLSBlockConfig {
	return b.cfg
}

func (b *SLSBlock[B]) branches() []struct {
	name   string
	module *nn.Sequential[B]
} {
	return []struct {
		name   string
		module *nn.Sequential[B]
	}{
		{"conv1", b.conv1},
		{"conv2", b.conv2},
		{"conv3", b.conv3},
		{"conv4", b.conv4},
		{"conv5", b.conv5},
		{"conv6", b.conv6},
	}
}

func (b *SLSBlock[B]) Parameters() []*nn.Parameter[B] {
	var params []*nn.Parameter[B]
	for _, br := range b.branches() {
		params = append(params, br.module.Parameters()...)
	}
	return params
}

func (b *SLSBlock[B]) StateDict() map[string]*tensor.RawTensor {
	state := make(map[string]*tensor.RawTensor)
	for _, br := range b.branches() {
		nn.MergeStateDict(state, br.name, br.module.StateDict())
	}
	return state
}

func (b *SLSBlock[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	for _, br := range b.branches() {
		if err := br.module.LoadStateDict(nn.SubStateDict(state, br.name)); err != nil {
			return fmt.Errorf("%s: %w", br.name, err)
		}
	}
	return nil
}
