// Copyright 2026 Flame ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package transforms

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Resize rescales the image to a fixed size.
type Resize struct {
	width  int
	height int
	interp gocv.InterpolationFlags
}

// NewResize builds a square resize with bilinear interpolation.
func NewResize(size int) Resize {
	return NewResizeWH(size, size, gocv.InterpolationLinear)
}

// NewResizeWH builds a resize to width x height with the given
// interpolation.
func NewResizeWH(width, height int, interp gocv.InterpolationFlags) Resize {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("transforms: resize target %dx%d must be positive", width, height))
	}
	return Resize{width: width, height: height, interp: interp}
}

func (r Resize) Kind() Kind { return KindGeometric }

func (r Resize) Apply(img gocv.Mat) gocv.Mat {
	dst := gocv.NewMat()
	gocv.Resize(img, &dst, image.Pt(r.width, r.height), 0, 0, r.interp)
	return dst
}

func (r Resize) ApplyInPlace(img *gocv.Mat) {
	gocv.Resize(*img, img, image.Pt(r.width, r.height), 0, 0, r.interp)
}

// CenterCrop extracts a centered rectangle of a fixed size. Panics at
// apply time if the target exceeds the source.
type CenterCrop struct {
	width  int
	height int
}

// NewCenterCrop builds a square center crop.
func NewCenterCrop(size int) CenterCrop {
	return NewCenterCropWH(size, size)
}

// NewCenterCropWH builds a center crop to width x height.
func NewCenterCropWH(width, height int) CenterCrop {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("transforms: crop target %dx%d must be positive", width, height))
	}
	return CenterCrop{width: width, height: height}
}

func (c CenterCrop) Kind() Kind { return KindGeometric }

func (c CenterCrop) roi(img gocv.Mat) image.Rectangle {
	if c.width > img.Cols() || c.height > img.Rows() {
		panic(fmt.Sprintf("transforms: crop %dx%d exceeds source %dx%d",
			c.width, c.height, img.Cols(), img.Rows()))
	}
	offsetW := (img.Cols() - c.width) / 2
	offsetH := (img.Rows() - c.height) / 2
	return image.Rect(offsetW, offsetH, offsetW+c.width, offsetH+c.height)
}

func (c CenterCrop) Apply(img gocv.Mat) gocv.Mat {
	region := img.Region(c.roi(img))
	defer region.Close()
	return region.Clone()
}

func (c CenterCrop) ApplyInPlace(img *gocv.Mat) {
	region := img.Region(c.roi(*img))
	cropped := region.Clone()
	region.Close()
	img.Close()
	*img = cropped
}
