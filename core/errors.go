package core

import (
	"errors"
	"fmt"
)

var (
	// ErrAllocationFailed is returned when a shared-memory segment cannot be created or mapped.
	// There is no fallback path.
	ErrAllocationFailed = errors.New("shared memory allocation failed")

	// ErrEngineCallFailed is returned when a session call fails (node creation,
	// attribute reads, parameter commit, partial commit).
	ErrEngineCallFailed = errors.New("engine call failed")

	// ErrPreconditionViolated is returned when an operation is attempted out of order,
	// e.g. a partial upload against a channel without a committed full upload.
	ErrPreconditionViolated = errors.New("precondition violated")
)

// CallError records which session call failed.
//
// It matches ErrEngineCallFailed via errors.Is; the session's own error is
// available through errors.Unwrap.
type CallError struct {
	Op   string
	Node NodeID
	Err  error
}

func (e *CallError) Error() string {
	if e.Node.Valid() {
		return fmt.Sprintf("engine call %s on node %d failed: %v", e.Op, e.Node, e.Err)
	}
	return fmt.Sprintf("engine call %s failed: %v", e.Op, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// Is makes every CallError match ErrEngineCallFailed.
func (e *CallError) Is(target error) bool { return target == ErrEngineCallFailed }

// WrapCall wraps a non-nil session error into a CallError.
func WrapCall(op string, node NodeID, err error) error {
	if err == nil {
		return nil
	}
	return &CallError{Op: op, Node: node, Err: err}
}

// Preconditionf returns an error wrapping ErrPreconditionViolated.
func Preconditionf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPreconditionViolated, fmt.Sprintf(format, args...))
}
