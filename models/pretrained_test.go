// Copyright 2026 Flame ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package models

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flame-ml/flame/internal/backend/cpu"
	"github.com/flame-ml/flame/internal/loader"
	"github.com/flame-ml/flame/internal/tensor"
)

// writeStateDictArchive serializes a state dict as a safetensors file so
// the pretrained loading path can be exercised end to end.
func writeStateDictArchive(t *testing.T, path string, state map[string]*tensor.RawTensor) {
	t.Helper()

	names := make([]string, 0, len(state))
	for name := range state {
		names = append(names, name)
	}
	sort.Strings(names)

	header := make(map[string]any, len(state))
	var blob []byte
	for _, name := range names {
		raw := state[name]
		data := raw.AsFloat32()
		start := len(blob)
		buf := make([]byte, 4*len(data))
		for i, v := range data {
			binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
		}
		blob = append(blob, buf...)
		header[name] = loader.SafeTensorInfo{
			DType:       loader.SafeTensorsF32,
			Shape:       []int(raw.Shape()),
			DataOffsets: [2]int64{int64(start), int64(len(blob))},
		}
	}

	headerJSON, err := json.Marshal(header)
	require.NoError(t, err)

	out := make([]byte, 8, 8+len(headerJSON)+len(blob))
	binary.LittleEndian.PutUint64(out, uint64(len(headerJSON)))
	out = append(out, headerJSON...)
	out = append(out, blob...)

	require.NoError(t, os.WriteFile(path, out, 0o600))
}

func TestNewResNet18Pretrained_Roundtrip(t *testing.T) {
	if testing.Short() {
		t.Skip("writes and reloads a full ResNet-18 state dict")
	}

	backend := cpu.New()
	dir := t.TempDir()

	src := NewResNet18(1000, backend)
	writeStateDictArchive(t, filepath.Join(dir, ArchiveResNet18), src.StateDict())

	model, err := NewResNet18Pretrained(dir, backend)
	require.NoError(t, err)

	input := tensor.Rand[float32](tensor.Shape{1, 3, 64, 64}, backend)
	want := src.Forward(input)
	got := model.Forward(input)

	require.True(t, want.Shape().Equal(got.Shape()))
	assert.Equal(t, want.Raw().AsFloat32(), got.Raw().AsFloat32())
}

func TestLoadPretrained_MissingArchive(t *testing.T) {
	backend := cpu.New()
	model := NewResNet18(10, backend)

	err := LoadPretrained[Backend](model, t.TempDir(), ArchiveResNet18)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ArchiveResNet18)
}
