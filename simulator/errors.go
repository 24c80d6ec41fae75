package simulator

import "github.com/pkg/errors"

// ValidationError reports that a command stream violated a VM precondition
// a real device would enforce: reading a block that was never opened with
// USE_BLOCK, reading CACHE_BUF with nothing staged, or any other ordering
// the target hardware cannot execute safely. It is distinct from a Go
// runtime error (out-of-range offset, nil Device) because it means the
// scheduler produced a bad plan, not that the caller misused the simulator.
type ValidationError struct {
	Opcode  string
	Message string
}

func (e *ValidationError) Error() string {
	return "simulator: " + e.Opcode + ": " + e.Message
}

func newValidationError(opcode, format string, args ...interface{}) error {
	return &ValidationError{Opcode: opcode, Message: errors.Errorf(format, args...).Error()}
}
