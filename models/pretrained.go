// Copyright 2026 Flame ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package models

import (
	"fmt"
	"path/filepath"

	"github.com/flame-ml/flame/internal/loader"
	"github.com/flame-ml/flame/internal/nn"
	"github.com/flame-ml/flame/internal/tensor"
)

// Archive names for the pretrained weight files that LoadPretrained
// expects.
const (
	ArchiveResNet18     = "resnet18.safetensors"
	ArchiveResNet34     = "resnet34.safetensors"
	ArchiveResNet50     = "resnet50.safetensors"
	ArchiveResNetV250   = "resnetv2_50.safetensors"
	ArchiveSelectSLS42  = "selectsls42.safetensors"
	ArchiveSelectSLS42B = "selectsls42b.safetensors"
)

// LoadPretrained loads pretrained weights from the named safetensors
// archive in dir and applies them to model. Checkpoint tensor names are
// translated to this package's state dict layout before loading.
func LoadPretrained[B tensor.Backend](model nn.Module[B], dir, archive string) error {
	path := filepath.Join(dir, archive)
	state, err := loader.LoadStateDict(path)
	if err != nil {
		return fmt.Errorf("load pretrained weights from %s: %w", path, err)
	}
	if err := model.LoadStateDict(state); err != nil {
		return fmt.Errorf("apply pretrained weights from %s: %w", path, err)
	}
	return nil
}

// Pretrained checkpoints are ImageNet classifiers.
const imageNetClasses = 1000

// NewResNet18Pretrained builds a ResNet-18 ImageNet classifier and loads
// its pretrained weights from dir.
func NewResNet18Pretrained[B tensor.Backend](dir string, backend B) (*ResNet[B], error) {
	model := NewResNet18(imageNetClasses, backend)
	if err := LoadPretrained[B](model, dir, ArchiveResNet18); err != nil {
		return nil, err
	}
	return model, nil
}

// NewResNet34Pretrained builds a ResNet-34 ImageNet classifier and loads
// its pretrained weights from dir.
func NewResNet34Pretrained[B tensor.Backend](dir string, backend B) (*ResNet[B], error) {
	model := NewResNet34(imageNetClasses, backend)
	if err := LoadPretrained[B](model, dir, ArchiveResNet34); err != nil {
		return nil, err
	}
	return model, nil
}

// NewResNet50Pretrained builds a ResNet-50 ImageNet classifier and loads
// its pretrained weights from dir.
func NewResNet50Pretrained[B tensor.Backend](dir string, backend B) (*ResNet[B], error) {
	model := NewResNet50(imageNetClasses, backend)
	if err := LoadPretrained[B](model, dir, ArchiveResNet50); err != nil {
		return nil, err
	}
	return model, nil
}

// NewResNetV250Pretrained builds a ResNetV2-50 ImageNet classifier and
// loads its pretrained weights from dir.
func NewResNetV250Pretrained[B tensor.Backend](dir string, backend B) (*ResNetV2[B], error) {
	model := NewResNetV250(imageNetClasses, backend)
	if err := LoadPretrained[B](model, dir, ArchiveResNetV250); err != nil {
		return nil, err
	}
	return model, nil
}

// NewSelectSLS42Pretrained builds a SelectSLS-42 ImageNet classifier and
// loads its pretrained weights from dir.
func NewSelectSLS42Pretrained[B tensor.Backend](dir string, backend B) (*SelectSLS[B], error) {
	model := NewSelectSLS42(imageNetClasses, backend)
	if err := LoadPretrained[B](model, dir, ArchiveSelectSLS42); err != nil {
		return nil, err
	}
	return model, nil
}

// NewSelectSLS42BPretrained builds a SelectSLS-42b ImageNet classifier
// and loads its pretrained weights from dir.
func NewSelectSLS42BPretrained[B tensor.Backend](dir string, backend B) (*SelectSLS[B], error) {
	model := NewSelectSLS42B(imageNetClasses, backend)
	if err := LoadPretrained[B](model, dir, ArchiveSelectSLS42B); err != nil {
		return nil, err
	}
	return model, nil
}
