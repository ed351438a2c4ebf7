package reduction

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/askiada/go-reductions/pkg/reduction/model"
)

var (
	// ErrInternalConsistency reports a stage table whose stages do not chain.
	// It is a defect of the table, not of the user input.
	ErrInternalConsistency    = errors.New("internal consistency error")
	ErrInvocationReused       = errors.New("invocation already used")
	ErrPipelineMustBeSet      = errors.New("pipeline must be set")
	ErrInputMustBeSet         = errors.New("input must be set")
	ErrOutputMustBeSet        = errors.New("output must be set")
	ErrExampleMustBeSet       = errors.New("example must be set")
	ErrConfigurationMustBeSet = errors.New("configuration must be set")
)

// InternalError is returned when a stage does not accept what the previous
// stage produces.
type InternalError struct {
	Stage    model.StageID
	Position int
	Want     model.Contract
	Got      model.Contract
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal consistency error: stage %q at position %d takes %q, got %q", e.Stage, e.Position, e.Want, e.Got)
}

func (e *InternalError) Is(target error) bool { return target == ErrInternalConsistency }

// StageError wraps an error returned by a stage while processing an example.
type StageError struct {
	Stage model.StageID
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %q: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
