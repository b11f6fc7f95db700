// Copyright 2026 Flame ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package transforms

import (
	"gocv.io/x/gocv"

	"github.com/flame-ml/flame/internal/tensor"
)

// Transformer applies an ordered chain of transforms to an image.
// The zero chain clones images and materializes with a default ToTensor.
type Transformer[B tensor.Backend] struct {
	backend    B
	transforms []Transform
}

// NewTransformer creates an empty pipeline for the given backend.
func NewTransformer[B tensor.Backend](backend B) *Transformer[B] {
	return &Transformer[B]{backend: backend}
}

// Add appends a stage and returns the transformer for chaining.
func (t *Transformer[B]) Add(transform Transform) *Transformer[B] {
	t.transforms = append(t.transforms, transform)
	return t
}

// Len returns the number of stages.
func (t *Transformer[B]) Len() int {
	return len(t.transforms)
}

// MakeImage applies the chain and returns a new image the caller owns.
// The input is not modified.
func (t *Transformer[B]) MakeImage(img gocv.Mat) gocv.Mat {
	if len(t.transforms) == 0 {
		return img.Clone()
	}

	image := t.transforms[0].Apply(img)
	for _, tr := range t.transforms[1:] {
		tr.ApplyInPlace(&image)
	}
	return image
}

// UpdateImage applies the chain to the caller-owned image in place.
func (t *Transformer[B]) UpdateImage(img *gocv.Mat) {
	for _, tr := range t.transforms {
		tr.ApplyInPlace(img)
	}
}

// MakeTensor applies the chain and materializes a tensor. A
// materializing stage may sit anywhere in the chain: it is remembered
// and invoked on the final pixel state after all other stages have run.
// When several are present only the first is honored, and when none is
// present a default ToTensor is used.
func (t *Transformer[B]) MakeTensor(img gocv.Mat) *tensor.Tensor[float32, B] {
	if len(t.transforms) == 0 {
		image := img.Clone()
		defer image.Close()
		return NewToTensor(t.backend).Tensor(&image)
	}

	first := t.transforms[0]
	if first.Kind() == KindMaterialization {
		image := img.Clone()
		defer image.Close()
		return first.(Materializer[B]).Tensor(&image)
	}

	image := first.Apply(img)
	defer image.Close()

	var materializer Materializer[B]
	for _, tr := range t.transforms[1:] {
		if tr.Kind() == KindMaterialization {
			if materializer == nil {
				materializer = tr.(Materializer[B])
			}
			continue
		}
		tr.ApplyInPlace(&image)
	}

	if materializer == nil {
		return NewToTensor(t.backend).Tensor(&image)
	}
	return materializer.Tensor(&image)
}
