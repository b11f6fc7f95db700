// Copyright 2026 Flame ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package transforms provides a composable image preprocessing pipeline
// over gocv, producing network-ready tensors from decoded images.
//
// A Transformer applies an ordered chain of stages. Each stage is a small
// value type holding only its numeric parameters:
//
//	backend := cpu.New()
//	pipeline := transforms.NewTransformer(backend).
//	    Add(transforms.NewResize(256)).
//	    Add(transforms.NewCenterCrop(224)).
//	    Add(transforms.NewConvertImageDType(tensor.Float32)).
//	    Add(transforms.NewNormalize(transforms.ImageNetMean, transforms.ImageNetStdDev)).
//	    Add(transforms.NewToTensor(backend))
//
//	img := gocv.IMRead(path, gocv.IMReadColor)
//	defer img.Close()
//	input := pipeline.MakeTensor(img).Unsqueeze(0)
//
// Tensor materialization is deferred: a ToTensor stage anywhere in the
// chain is remembered and invoked on the final pixel state, so stages
// listed after it still take effect. Images are BGR as decoded by OpenCV;
// the float conversion scales to [0, 1] and swaps to RGB.
package transforms
