package scheduler

import "github.com/pkg/errors"

// InvalidInputError reports a malformed move: the caller's input, not a bug
// in the scheduler. The scheduler returns an empty plan alongside this error.
type InvalidInputError struct {
	Index int
	cause error
}

// Error implements error.
func (e *InvalidInputError) Error() string {
	return errors.Wrapf(e.cause, "invalid move at index %d", e.Index).Error()
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *InvalidInputError) Unwrap() error {
	return e.cause
}

func newInvalidInputError(index int, cause error) *InvalidInputError {
	return &InvalidInputError{Index: index, cause: cause}
}

// InternalInvariantError reports a violated postcondition of one of the
// scheduler's passes: a failure inside this package, not a malformed move.
// Besides outright bugs, resolve raises it for valid move lists whose
// cycles would need two blocks staged in the cache at once. Carries the
// offending block and the pass that detected the violation.
type InternalInvariantError struct {
	Pass    string
	Block   int64
	Message string
}

// Error implements error.
func (e *InternalInvariantError) Error() string {
	return errors.Errorf("%s: invariant violated at block %d: %s", e.Pass, e.Block, e.Message).Error()
}

func newInternalInvariantError(pass string, block int64, message string) *InternalInvariantError {
	return &InternalInvariantError{Pass: pass, Block: block, Message: message}
}
