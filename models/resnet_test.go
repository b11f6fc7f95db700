// Copyright 2026 Flame ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flame-ml/flame/internal/backend/cpu"
	"github.com/flame-ml/flame/internal/tensor"
)

type Backend = *cpu.CPUBackend

func TestResNet18_Forward(t *testing.T) {
	backend := cpu.New()
	model := NewResNet18[Backend](10, backend)

	x := tensor.Randn[float32](tensor.Shape{2, 3, 64, 64}, backend)
	out := model.Forward(x)

	assert.Equal(t, tensor.Shape{2, 10}, out.Shape())
}

func TestResNet18_FeatureMode(t *testing.T) {
	backend := cpu.New()
	model := NewResNet18[Backend](0, backend)

	x := tensor.Randn[float32](tensor.Shape{1, 3, 64, 64}, backend)
	out := model.Forward(x)

	assert.Equal(t, tensor.Shape{1, 512}, out.Shape())
}

func TestResNet18_StateDictLayout(t *testing.T) {
	backend := cpu.New()
	model := NewResNet18[Backend](1000, backend)
	state := model.StateDict()

	// 7 stem/classifier tensors, 10 per basic block across 8 blocks, and
	// 5 per downsample branch in the first block of stages 2-4.
	assert.Len(t, state, 102)

	for _, key := range []string{
		"conv1.weight",
		"bn1.running_mean",
		"layer1.0.conv1.weight",
		"layer2.0.downsample.0.weight",
		"layer2.0.downsample.1.running_var",
		"layer4.1.bn2.bias",
		"fc.weight",
		"fc.bias",
	} {
		assert.Contains(t, state, key)
	}
	assert.NotContains(t, state, "layer1.0.downsample.0.weight")
	assert.NotContains(t, state, "layer1.0.conv3.weight")

	assert.Equal(t, tensor.Shape{64, 3, 7, 7}, state["conv1.weight"].Shape())
	assert.Equal(t, tensor.Shape{1000, 512}, state["fc.weight"].Shape())
}

func TestResNet50_StateDictLayout(t *testing.T) {
	backend := cpu.New()
	model := NewResNet50[Backend](1000, backend)
	state := model.StateDict()

	for _, key := range []string{
		"layer1.0.conv3.weight",
		"layer1.0.bn3.running_mean",
		"layer1.0.downsample.0.weight",
		"layer3.5.bn1.weight",
	} {
		assert.Contains(t, state, key)
	}

	// Stage one expands 64 -> 256 without striding, so the first block
	// still needs a projection branch.
	assert.Equal(t, tensor.Shape{256, 64, 1, 1}, state["layer1.0.downsample.0.weight"].Shape())
	assert.Equal(t, tensor.Shape{1000, 2048}, state["fc.weight"].Shape())
}

func TestResNet50_ZeroInitResidual(t *testing.T) {
	backend := cpu.New()
	model := NewResNet(ResNetConfig{
		Block:            BottleneckKind,
		Layers:           [4]int{3, 4, 6, 3},
		Classes:          10,
		ZeroInitResidual: true,
	}, backend)

	state := model.StateDict()
	for _, v := range state["layer1.0.bn3.weight"].AsFloat32() {
		require.Zero(t, v)
	}
	// Earlier norms keep the default unit scale.
	for _, v := range state["layer1.0.bn1.weight"].AsFloat32() {
		require.Equal(t, float32(1), v)
	}
}

func TestResNet_LoadStateDictRoundtrip(t *testing.T) {
	backend := cpu.New()
	src := NewResNet18[Backend](10, backend)
	dst := NewResNet18[Backend](10, backend)

	require.NoError(t, dst.LoadStateDict(src.StateDict()))

	x := tensor.Randn[float32](tensor.Shape{1, 3, 64, 64}, backend)
	assert.Equal(t, src.Forward(x).Raw().AsFloat32(), dst.Forward(x).Raw().AsFloat32())
}

func TestResNet_LoadStateDictMissingKey(t *testing.T) {
	backend := cpu.New()
	model := NewResNet18[Backend](10, backend)

	state := model.StateDict()
	delete(state, "layer3.0.conv2.weight")

	err := model.LoadStateDict(state)
	require.Error(t, err)
	assert.ErrorContains(t, err, "layer3")
}

func TestResNet34_Depth(t *testing.T) {
	backend := cpu.New()
	model := NewResNet34[Backend](10, backend)
	state := model.StateDict()

	assert.Contains(t, state, "layer3.5.conv2.weight")
	assert.NotContains(t, state, "layer3.6.conv1.weight")
}

func TestBasicBlock_RejectsGroups(t *testing.T) {
	backend := cpu.New()
	assert.Panics(t, func() {
		NewBasicBlock(64, 64, 1, nil, 2, 64, 1, backend)
	})
	assert.Panics(t, func() {
		NewBasicBlock(64, 64, 1, nil, 1, 64, 2, backend)
	})
}

func TestBottleneck_GroupedWidth(t *testing.T) {
	backend := cpu.New()
	// ResNeXt-style 32x4d: width = 64 * (4/64) * 32 = 128.
	block := NewBottleneck(256, 64, 1, nil, 32, 4, 1, backend)
	state := block.StateDict()
	assert.Equal(t, tensor.Shape{128, 256, 1, 1}, state["conv1.weight"].Shape())
	assert.Equal(t, tensor.Shape{256, 128, 1, 1}, state["conv3.weight"].Shape())
}
