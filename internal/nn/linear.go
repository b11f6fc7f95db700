package nn

import (
	"fmt"

	"github.com/flame-ml/flame/internal/tensor"
)

// Linear is a fully connected layer: y = x @ W^T + b.
//
// The weight is stored as [out_features, in_features], matching the
// layout of exported PyTorch checkpoints.
//
// Input shape:  [batch, in_features]
// Output shape: [batch, out_features]
type Linear[B tensor.Backend] struct {
	weight *Parameter[B]
	bias   *Parameter[B] // nil when the layer has no bias

	inFeatures  int
	outFeatures int
	backend     B
}

// NewLinear creates a fully connected layer. The weight is initialized
// with Xavier uniform, the bias (when enabled) with zeros.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, useBias bool, backend B) *Linear[B] {
	if inFeatures <= 0 || outFeatures <= 0 {
		panic(fmt.Sprintf("linear: invalid dimensions in=%d out=%d", inFeatures, outFeatures))
	}

	weight := XavierUniform(tensor.Shape{outFeatures, inFeatures}, inFeatures, outFeatures, backend)

	l := &Linear[B]{
		weight:      NewParameter("weight", weight),
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		backend:     backend,
	}

	if useBias {
		bias := tensor.Zeros[float32](tensor.Shape{outFeatures}, backend)
		l.bias = NewParameter("bias", bias)
	}

	return l
}

// Forward computes y = x @ W^T + b.
func (l *Linear[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("linear: expected 2D input [batch, features], got %dD", len(shape)))
	}
	if shape[1] != l.inFeatures {
		panic(fmt.Sprintf("linear: expected %d input features, got %d", l.inFeatures, shape[1]))
	}

	out := x.MatMul(l.weight.Tensor().T())

	if l.bias != nil {
		out = out.Add(l.bias.Tensor().Reshape(1, l.outFeatures))
	}

	return out
}

// Parameters returns the weight and, when present, the bias.
func (l *Linear[B]) Parameters() []*Parameter[B] {
	params := []*Parameter[B]{l.weight}
	if l.bias != nil {
		params = append(params, l.bias)
	}
	return params
}

// StateDict returns the layer weights keyed by name.
func (l *Linear[B]) StateDict() map[string]*tensor.RawTensor {
	state := map[string]*tensor.RawTensor{
		"weight": l.weight.Raw(),
	}
	if l.bias != nil {
		state["bias"] = l.bias.Raw()
	}
	return state
}

// LoadStateDict copies weights from a state dict into the layer.
func (l *Linear[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	return loadParameters(state, l.Parameters())
}

// InFeatures returns the input dimension.
func (l *Linear[B]) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the output dimension.
func (l *Linear[B]) OutFeatures() int {
	return l.outFeatures
}

// String returns a string representation of the layer.
func (l *Linear[B]) String() string {
	return fmt.Sprintf("Linear(in_features=%d, out_features=%d, bias=%t)",
		l.inFeatures, l.outFeatures, l.bias != nil)
}

// loadParameters copies each named parameter from state, requiring
// every parameter to be present.
func loadParameters[B tensor.Backend](state map[string]*tensor.RawTensor, params []*Parameter[B]) error {
	for _, p := range params {
		raw, ok := state[p.Name()]
		if !ok {
			return fmt.Errorf("missing parameter %q in state dict", p.Name())
		}
		if err := p.Load(raw); err != nil {
			return err
		}
	}
	return nil
}
