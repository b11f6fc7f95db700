package nn

import (
	"fmt"

	"github.com/flame-ml/flame/internal/tensor"
)

// Parameter is a named weight tensor owned by a module.
type Parameter[B tensor.Backend] struct {
	name   string
	tensor *tensor.Tensor[float32, B]
}

// NewParameter creates a parameter wrapping the given tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name (e.g. "weight", "bias").
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the underlying tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// Raw returns the underlying raw tensor.
func (p *Parameter[B]) Raw() *tensor.RawTensor {
	return p.tensor.Raw()
}

// Load copies the values of raw into the parameter. The source must
// match the parameter's shape and be float32.
func (p *Parameter[B]) Load(raw *tensor.RawTensor) error {
	dst := p.tensor.Raw()
	if !raw.Shape().Equal(dst.Shape()) {
		return fmt.Errorf("parameter %q: shape mismatch: expected %v, got %v", p.name, dst.Shape(), raw.Shape())
	}
	if raw.DType() != tensor.Float32 {
		return fmt.Errorf("parameter %q: dtype mismatch: expected float32, got %s", p.name, raw.DType())
	}

	copy(dst.Data(), raw.Data())
	return nil
}
