package nn

import (
	"fmt"

	"github.com/flame-ml/flame/internal/tensor"
)

// Conv2DConfig describes a 2D convolution layer.
//
// Groups and Dilation default to 1 when left zero, so callers only set
// the fields they need.
type Conv2DConfig struct {
	InChannels  int
	OutChannels int
	KernelSize  int
	Stride      int
	Padding     int
	Groups      int
	Dilation    int
	Bias        bool
}

// Conv2D is a 2D convolution layer over NCHW input.
//
// The weight is stored as [out_channels, in_channels/groups, k, k],
// matching the layout of exported PyTorch checkpoints.
//
// Input shape:  [batch, in_channels, height, width]
// Output shape: [batch, out_channels, out_height, out_width]
//
// Where:
//
//	effective_k = dilation*(k-1) + 1
//	out_height = (height + 2*padding - effective_k) / stride + 1
//	out_width = (width + 2*padding - effective_k) / stride + 1
type Conv2D[B tensor.Backend] struct {
	weight *Parameter[B]
	bias   *Parameter[B] // nil when the layer has no bias

	cfg     Conv2DConfig
	backend B
}

// NewConv2D creates a 2D convolution layer. The weight is initialized
// with Kaiming normal (fan-out), the bias (when enabled) with zeros.
func NewConv2D[B tensor.Backend](cfg Conv2DConfig, backend B) *Conv2D[B] {
	if cfg.Groups == 0 {
		cfg.Groups = 1
	}
	if cfg.Dilation == 0 {
		cfg.Dilation = 1
	}

	if cfg.InChannels <= 0 || cfg.OutChannels <= 0 {
		panic(fmt.Sprintf("conv2d: invalid channels in=%d out=%d", cfg.InChannels, cfg.OutChannels))
	}
	if cfg.KernelSize <= 0 {
		panic(fmt.Sprintf("conv2d: invalid kernel size %d", cfg.KernelSize))
	}
	if cfg.Stride <= 0 {
		panic(fmt.Sprintf("conv2d: invalid stride %d", cfg.Stride))
	}
	if cfg.Padding < 0 {
		panic(fmt.Sprintf("conv2d: invalid padding %d", cfg.Padding))
	}
	if cfg.InChannels%cfg.Groups != 0 || cfg.OutChannels%cfg.Groups != 0 {
		panic(fmt.Sprintf("conv2d: channels in=%d out=%d not divisible by groups %d",
			cfg.InChannels, cfg.OutChannels, cfg.Groups))
	}

	weightShape := tensor.Shape{cfg.OutChannels, cfg.InChannels / cfg.Groups, cfg.KernelSize, cfg.KernelSize}
	fanOut := cfg.OutChannels * cfg.KernelSize * cfg.KernelSize
	weight := KaimingNormal(weightShape, fanOut, backend)

	c := &Conv2D[B]{
		weight:  NewParameter("weight", weight),
		cfg:     cfg,
		backend: backend,
	}

	if cfg.Bias {
		bias := tensor.Zeros[float32](tensor.Shape{cfg.OutChannels}, backend)
		c.bias = NewParameter("bias", bias)
	}

	return c
}

// Forward performs the convolution.
func (c *Conv2D[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("conv2d: expected 4D input [N,C,H,W], got %dD", len(shape)))
	}
	if shape[1] != c.cfg.InChannels {
		panic(fmt.Sprintf("conv2d: expected %d input channels, got %d", c.cfg.InChannels, shape[1]))
	}

	raw := c.backend.Conv2D(x.Raw(), c.weight.Raw(),
		c.cfg.Stride, c.cfg.Padding, c.cfg.Groups, c.cfg.Dilation)
	out := tensor.New[float32, B](raw, c.backend)

	if c.bias != nil {
		// Broadcast [out_channels] across batch and spatial dims
		out = out.Add(c.bias.Tensor().Reshape(1, c.cfg.OutChannels, 1, 1))
	}

	return out
}

// Parameters returns the weight and, when present, the bias.
func (c *Conv2D[B]) Parameters() []*Parameter[B] {
	params := []*Parameter[B]{c.weight}
	if c.bias != nil {
		params = append(params, c.bias)
	}
	return params
}

// StateDict returns the layer weights keyed by name.
func (c *Conv2D[B]) StateDict() map[string]*tensor.RawTensor {
	state := map[string]*tensor.RawTensor{
		"weight": c.weight.Raw(),
	}
	if c.bias != nil {
		state["bias"] = c.bias.Raw()
	}
	return state
}

// LoadStateDict copies weights from a state dict into the layer.
func (c *Conv2D[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	return loadParameters(state, c.Parameters())
}

// Config returns the layer configuration.
func (c *Conv2D[B]) Config() Conv2DConfig {
	return c.cfg
}

// ComputeOutputSize computes output spatial dimensions for the given
// input size.
func (c *Conv2D[B]) ComputeOutputSize(inputH, inputW int) [2]int {
	effK := c.cfg.Dilation*(c.cfg.KernelSize-1) + 1
	outH := (inputH+2*c.cfg.Padding-effK)/c.cfg.Stride + 1
	outW := (inputW+2*c.cfg.Padding-effK)/c.cfg.Stride + 1
	return [2]int{outH, outW}
}

// String returns a string representation of the layer.
func (c *Conv2D[B]) String() string {
	return fmt.Sprintf("Conv2D(%d, %d, kernel_size=%d, stride=%d, padding=%d, groups=%d, dilation=%d, bias=%t)",
		c.cfg.InChannels, c.cfg.OutChannels, c.cfg.KernelSize,
		c.cfg.Stride, c.cfg.Padding, c.cfg.Groups, c.cfg.Dilation, c.bias != nil)
}
