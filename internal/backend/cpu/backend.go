// Package cpu implements tensor operations on the CPU.
package cpu

import (
	"github.com/flame-ml/flame/internal/tensor"
)

// Interface conformance check.
var _ tensor.Backend = (*CPUBackend)(nil)

// CPUBackend implements the full tensor.Backend contract with pure Go
// kernels. Element-wise operations take an inplace fast path when the
// left operand buffer is uniquely referenced.
type CPUBackend struct {
	device tensor.Device
}

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}
