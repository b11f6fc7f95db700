// Package loader reads pretrained model weights from safetensors files
// (the Hugging Face interchange format) and translates checkpoint tensor
// names into the state dict layout used by the models package.
//
// Checkpoints exported from torchvision (ResNet), timm (SelectSLS) and
// this project's own ResNetV2 trainer each use their own naming scheme.
// The architecture is detected from the tensor names and a WeightMapper
// normalizes them:
//
//	state, err := loader.LoadStateDict("weights/resnet50.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = model.LoadStateDict(state)
//
// Half precision (F16/BF16) tensors are widened to float32 on load since
// the CPU backend computes in float32.
package loader
