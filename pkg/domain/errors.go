package domain

import (
	"errors"
	"fmt"
)

// ErrSnapshotNotFound is returned when no snapshot exists for a wizard ID.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// ErrSubmitInFlight is returned when a submission is attempted while
// another one is still running for the same wizard.
var ErrSubmitInFlight = errors.New("submission already in flight")

// ErrStepOutOfRange is returned when a step index outside [1, totalSteps]
// is requested from the registry.
var ErrStepOutOfRange = errors.New("step index out of range")

// ErrNotFound is returned by backend services when a remote resource
// (document, file, session) does not exist.
var ErrNotFound = errors.New("resource not found")

// ErrConflict marks a side effect that failed because the remote resource
// already exists (e.g. an account registered with the same email).
// Callers match it with errors.Is.
var ErrConflict = errors.New("resource already exists")

// SideEffectError wraps a failed remote call triggered by a step
// submission. The wizard state is never advanced past a step whose side
// effect returned one of these.
type SideEffectError struct {
	Step string // step name
	Op   string // remote operation, e.g. "create_account"
	Err  error
}

func (e *SideEffectError) Error() string {
	return fmt.Sprintf("step %s: %s failed: %v", e.Step, e.Op, e.Err)
}

func (e *SideEffectError) Unwrap() error { return e.Err }

// IsConflict reports whether err is (or wraps) a duplicate-resource
// failure, which the UI maps to an "already registered" message.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
