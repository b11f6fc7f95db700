// Copyright 2026 Flame ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package transforms

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/flame-ml/flame/internal/tensor"
)

// ToTensor materializes an image as a float32 tensor of shape
// {channels, rows, cols}. Integral images are first converted to float32
// (scaling into [0, 1] and swapping BGR to RGB); images that are already
// float are wrapped without rescale. Use Unsqueeze(0) on the result for
// a batch of one.
type ToTensor[B tensor.Backend] struct {
	backend B
}

// NewToTensor builds a materialization stage for the given backend.
func NewToTensor[B tensor.Backend](backend B) ToTensor[B] {
	return ToTensor[B]{backend: backend}
}

func (t ToTensor[B]) Kind() Kind { return KindMaterialization }

// Apply is the image pass-through; materialization happens in Tensor.
func (t ToTensor[B]) Apply(img gocv.Mat) gocv.Mat {
	return img.Clone()
}

func (t ToTensor[B]) ApplyInPlace(_ *gocv.Mat) {}

// Tensor converts the image and wraps its pixels, permuting the HWC
// buffer into CHW order.
func (t ToTensor[B]) Tensor(img *gocv.Mat) *tensor.Tensor[float32, B] {
	switch matDepth(*img) {
	case gocv.MatTypeCV8U, gocv.MatTypeCV8S, gocv.MatTypeCV16U, gocv.MatTypeCV16S, gocv.MatTypeCV32S:
		NewConvertImageDType(tensor.Float32).ApplyInPlace(img)
	case gocv.MatTypeCV32F:
		// Already the target depth.
	default:
		// Other float depths change precision only: no rescale, no swap.
		dst := gocv.NewMat()
		img.ConvertToWithParams(&dst, matTypeWith(gocv.MatTypeCV32F, img.Channels()), 1, 0)
		img.Close()
		*img = dst
	}

	data, err := img.DataPtrFloat32()
	if err != nil {
		panic(fmt.Sprintf("transforms: cannot access image data: %v", err))
	}

	rows, cols, ch := img.Rows(), img.Cols(), img.Channels()
	chw := make([]float32, ch*rows*cols)
	plane := rows * cols
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			pixel := (i*cols + j) * ch
			for c := 0; c < ch; c++ {
				chw[c*plane+i*cols+j] = data[pixel+c]
			}
		}
	}

	result, err := tensor.FromSlice(chw, tensor.Shape{ch, rows, cols}, t.backend)
	if err != nil {
		panic(fmt.Sprintf("transforms: cannot wrap image as tensor: %v", err))
	}
	return result
}
