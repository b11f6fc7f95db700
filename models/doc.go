// Copyright 2026 Flame ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package models provides convolutional network architectures for image
// classification: ResNet (18/34/50), a ResNet V2 variant, and SelectSLS
// (42/42b) from XNect (Mehta et al. 2019, https://arxiv.org/abs/1907.00837).
//
// Models are assembled from nn layers and expose state dicts whose keys
// match the corresponding exported PyTorch checkpoints, so pretrained
// weights load without manual renaming:
//
//	backend := cpu.New()
//	model := models.NewResNet50(1000, backend)
//	if err := models.LoadPretrained(model, modelDir, models.ArchiveResNet50); err != nil {
//	    log.Fatal(err)
//	}
//	logits := model.Forward(batch) // [1, 3, 224, 224] -> [1, 1000]
package models
