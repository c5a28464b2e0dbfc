package pipeline

import (
	"errors"
	"fmt"
)

var ErrEmptyOutput = errors.New("output text is missing")

// Error reports the stage that aborted a run. Cause is the provider error
// (or ErrEmptyOutput) unchanged.
type Error struct {
	Stage Stage
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
