package options

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/askiada/go-reductions/pkg/reduction/model"
)

var (
	ErrUnknownOption         = errors.New("unknown option")
	ErrOptionType            = errors.New("option type error")
	ErrDuplicateOption       = errors.New("duplicate option")
	ErrConfigurationConflict = errors.New("configuration conflict")
	ErrRegistrySealed        = errors.New("registry is sealed")
	ErrRegistryMustBeSet     = errors.New("registry must be set")
	ErrOptionNotInView       = errors.New("option is not owned by this stage")
)

// UnknownOptionError is returned when a name has no registered OptionSpec.
type UnknownOptionError struct {
	Name   string
	Source model.Provenance
}

func (e *UnknownOptionError) Error() string {
	return fmt.Sprintf("unknown option %q (from %s)", e.Name, e.Source)
}

func (e *UnknownOptionError) Is(target error) bool { return target == ErrUnknownOption }

// TypeError is returned when a value cannot be converted to the type of its option.
type TypeError struct {
	Name  string
	Want  model.ValueType
	Value string
	Err   error
}

func (e *TypeError) Error() string {
	msg := fmt.Sprintf("option %q: cannot use %s as %s", e.Name, e.Value, e.Want)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

func (e *TypeError) Is(target error) bool { return target == ErrOptionType }

func (e *TypeError) Unwrap() error { return e.Err }

// DuplicateOptionError is returned when a name is registered twice with different types.
type DuplicateOptionError struct {
	Name      string
	Existing  model.ValueType
	Requested model.ValueType
}

func (e *DuplicateOptionError) Error() string {
	return fmt.Sprintf("option %q already registered as %s, cannot register as %s", e.Name, e.Existing, e.Requested)
}

func (e *DuplicateOptionError) Is(target error) bool { return target == ErrDuplicateOption }

// ConflictError is returned when the command line asks for a different value than
// the one stored in a loaded model for an option that cannot change after load.
type ConflictError struct {
	Name      string
	Loaded    string
	Requested string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("option %q is fixed by the loaded model to %s, command line requested %s", e.Name, e.Loaded, e.Requested)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConfigurationConflict }
