// Copyright 2026 Flame ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package loader provides model weight loading for the Flame ML framework.
//
// It wraps the internal loader implementation and exports a public API
// for reading safetensors weight files and translating checkpoint tensor
// names to the models package layout.
//
// Example:
//
//	state, err := loader.LoadStateDict("weights/resnet50.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := model.LoadStateDict(state); err != nil {
//	    log.Fatal(err)
//	}
package loader

import (
	"github.com/flame-ml/flame/internal/loader"
	"github.com/flame-ml/flame/tensor"
)

// ModelFormat represents the model weight format.
type ModelFormat = loader.ModelFormat

// Supported model formats.
const (
	FormatUnknown     ModelFormat = loader.FormatUnknown
	FormatSafeTensors ModelFormat = loader.FormatSafeTensors
)

// ModelReader provides uniform access to a weight file.
type ModelReader = loader.ModelReader

// WeightMapper translates checkpoint tensor names to the models package
// state dict layout.
type WeightMapper = loader.WeightMapper

// SafeTensorsReader reads safetensors files directly.
type SafeTensorsReader = loader.SafeTensorsReader

// NewSafeTensorsReader opens a safetensors file.
func NewSafeTensorsReader(path string) (*SafeTensorsReader, error) {
	return loader.NewSafeTensorsReader(path)
}

// OpenModel opens a weight file, detecting the format from the file
// extension. The caller must Close the returned reader.
func OpenModel(path string) (ModelReader, error) {
	return loader.OpenModel(path)
}

// DetectArchitecture guesses the model architecture from checkpoint
// tensor names.
func DetectArchitecture(names []string) string {
	return loader.DetectArchitecture(names)
}

// GetMapper returns the weight mapper for an architecture, or nil when
// the architecture is not supported.
func GetMapper(architecture string) WeightMapper {
	return loader.GetMapper(architecture)
}

// LoadStateDict reads every tensor from a weight file into CPU memory,
// translating checkpoint names to the models package layout.
func LoadStateDict(path string) (map[string]*tensor.RawTensor, error) {
	return loader.LoadStateDict(path)
}
