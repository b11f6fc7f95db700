// Copyright 2026 Flame ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package transforms

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/flame-ml/flame/internal/tensor"
)

// floatScale maps 8-bit pixel values into [0, 1] when converting to a
// floating point depth.
const floatScale = 1.0 / 255.0

// ConvertImageDType changes the pixel storage type. Converting into any
// floating point depth scales values by 1/255, and any actual conversion
// also swaps the channel order from BGR to RGB. When the image already
// has the target depth the stage is a no-op.
type ConvertImageDType struct {
	dtype tensor.DataType
}

// NewConvertImageDType builds a conversion to the given tensor dtype.
// Panics on dtypes with no Mat depth equivalent.
func NewConvertImageDType(dtype tensor.DataType) ConvertImageDType {
	matDepthFor(dtype)
	return ConvertImageDType{dtype: dtype}
}

// matDepthFor maps a tensor dtype to an OpenCV depth and the scale
// applied during conversion.
func matDepthFor(dtype tensor.DataType) (gocv.MatType, float32) {
	switch dtype {
	case tensor.Uint8:
		return gocv.MatTypeCV8U, 1
	case tensor.Int8:
		return gocv.MatTypeCV8S, 1
	case tensor.Int16:
		return gocv.MatTypeCV16S, 1
	case tensor.Int32, tensor.Int64:
		return gocv.MatTypeCV32S, 1
	case tensor.Float16:
		return gocv.MatTypeCV16F, floatScale
	case tensor.Float32:
		return gocv.MatTypeCV32F, floatScale
	case tensor.Float64:
		return gocv.MatTypeCV64F, floatScale
	default:
		panic(fmt.Sprintf("transforms: dtype %v has no Mat depth", dtype))
	}
}

// matDepth extracts the depth from a Mat type. The low three bits of the
// OpenCV type encode the depth, the rest the channel count.
func matDepth(m gocv.Mat) gocv.MatType {
	return m.Type() & 7
}

// matTypeWith combines a depth with a channel count, mirroring OpenCV's
// CV_MAKETYPE.
func matTypeWith(depth gocv.MatType, channels int) gocv.MatType {
	return depth + gocv.MatType((channels-1)<<3)
}

func (c ConvertImageDType) Kind() Kind { return KindConversion }

func (c ConvertImageDType) Apply(img gocv.Mat) gocv.Mat {
	depth, alpha := matDepthFor(c.dtype)
	if depth == matDepth(img) {
		return img.Clone()
	}

	dst := gocv.NewMat()
	img.ConvertToWithParams(&dst, matTypeWith(depth, img.Channels()), alpha, 0)
	if dst.Channels() == 3 {
		gocv.CvtColor(dst, &dst, gocv.ColorBGRToRGB)
	}
	return dst
}

func (c ConvertImageDType) ApplyInPlace(img *gocv.Mat) {
	depth, alpha := matDepthFor(c.dtype)
	if depth == matDepth(*img) {
		return
	}

	dst := gocv.NewMat()
	img.ConvertToWithParams(&dst, matTypeWith(depth, img.Channels()), alpha, 0)
	img.Close()
	*img = dst
	if img.Channels() == 3 {
		gocv.CvtColor(*img, img, gocv.ColorBGRToRGB)
	}
}
