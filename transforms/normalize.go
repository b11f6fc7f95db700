// Copyright 2026 Flame ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package transforms

import (
	"fmt"

	"gocv.io/x/gocv"
)

// ImageNet channel statistics (RGB order) used by the torchvision
// pretrained models.
var (
	ImageNetMean   = [3]float32{0.485, 0.456, 0.406}
	ImageNetStdDev = [3]float32{0.229, 0.224, 0.225}
)

// Normalize applies (pixel - mean) / stddev per channel. The image must
// be three-channel, and for the ImageNet constants it must already be
// float RGB in [0, 1] (apply ConvertImageDType first).
type Normalize struct {
	mean   [3]float32
	stddev [3]float32
}

// NewNormalize builds a per-channel normalization.
func NewNormalize(mean, stddev [3]float32) Normalize {
	for i, s := range stddev {
		if s == 0 {
			panic(fmt.Sprintf("transforms: zero stddev for channel %d", i))
		}
	}
	return Normalize{mean: mean, stddev: stddev}
}

func (n Normalize) Kind() Kind { return KindNormalization }

func (n Normalize) Apply(img gocv.Mat) gocv.Mat {
	dst := img.Clone()
	n.ApplyInPlace(&dst)
	return dst
}

func (n Normalize) ApplyInPlace(img *gocv.Mat) {
	if img.Channels() != 3 {
		panic(fmt.Sprintf("transforms: normalize needs 3 channels, got %d", img.Channels()))
	}

	channels := gocv.Split(*img)
	for i := range channels {
		channels[i].SubtractFloat(n.mean[i])
		channels[i].DivideFloat(n.stddev[i])
	}
	gocv.Merge(channels, img)
	for i := range channels {
		channels[i].Close()
	}
}
