// Copyright 2026 Flame ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package transforms

import (
	"gocv.io/x/gocv"

	"github.com/flame-ml/flame/internal/tensor"
)

// Kind classifies a pipeline stage. The executor branches on it, never
// on the stage's dynamic type.
type Kind int

const (
	// KindGeometric stages change spatial extent (resize, crop).
	KindGeometric Kind = iota
	// KindConversion stages change pixel storage type and channel order.
	KindConversion
	// KindNormalization stages change pixel values channel-wise.
	KindNormalization
	// KindMaterialization stages convert the image to a tensor. A stage
	// reporting this kind must implement Materializer.
	KindMaterialization
)

func (k Kind) String() string {
	switch k {
	case KindGeometric:
		return "geometric"
	case KindConversion:
		return "conversion"
	case KindNormalization:
		return "normalization"
	case KindMaterialization:
		return "materialization"
	default:
		return "unknown"
	}
}

// Transform is a single image-processing stage. Apply returns a fresh
// Mat the caller owns; ApplyInPlace mutates the given Mat, closing and
// replacing the underlying buffer when the operation cannot reuse it.
type Transform interface {
	Kind() Kind
	Apply(img gocv.Mat) gocv.Mat
	ApplyInPlace(img *gocv.Mat)
}

// Materializer is implemented by stages of KindMaterialization.
// Tensor may convert the image in place before wrapping it.
type Materializer[B tensor.Backend] interface {
	Transform
	Tensor(img *gocv.Mat) *tensor.Tensor[float32, B]
}
