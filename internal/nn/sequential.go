package nn

import (
	"fmt"
	"strconv"

	"github.com/flame-ml/flame/internal/tensor"
)

// Sequential chains modules, feeding each module's output into the
// next. State dict keys are prefixed with the module index, matching
// the naming of exported PyTorch nn.Sequential checkpoints
// ("0.weight", "1.running_mean", ...).
type Sequential[B tensor.Backend] struct {
	modules []Module[B]
}

// NewSequential creates a sequential container from the given modules.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return &Sequential[B]{modules: modules}
}

// Add appends a module to the chain.
func (s *Sequential[B]) Add(m Module[B]) {
	s.modules = append(s.modules, m)
}

// Forward runs the input through every module in order.
func (s *Sequential[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	out := x
	for _, m := range s.modules {
		out = m.Forward(out)
	}
	return out
}

// Parameters returns the parameters of all modules in order.
func (s *Sequential[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, m := range s.modules {
		params = append(params, m.Parameters()...)
	}
	return params
}

// StateDict returns the weights of all modules, keyed by module index.
func (s *Sequential[B]) StateDict() map[string]*tensor.RawTensor {
	state := make(map[string]*tensor.RawTensor)
	for i, m := range s.modules {
		MergeStateDict(state, strconv.Itoa(i), m.StateDict())
	}
	return state
}

// LoadStateDict distributes index-prefixed entries to the modules.
func (s *Sequential[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	for i, m := range s.modules {
		if err := m.LoadStateDict(SubStateDict(state, strconv.Itoa(i))); err != nil {
			return fmt.Errorf("module %d: %w", i, err)
		}
	}
	return nil
}

// Len returns the number of modules.
func (s *Sequential[B]) Len() int {
	return len(s.modules)
}

// Module returns the module at index i.
func (s *Sequential[B]) Module(i int) Module[B] {
	return s.modules[i]
}
