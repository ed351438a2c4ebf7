package stages

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/go-reductions/pkg/reduction/model"
)

var (
	ErrCyclicStageDependency  = errors.New("cyclic stage dependency")
	ErrMissingDependency      = errors.New("missing stage dependency")
	ErrIncompatibleStages     = errors.New("incompatible stages")
	ErrInvalidTable           = errors.New("invalid stage table")
	ErrConfigurationMustBeSet = errors.New("configuration must be set")
)

// CycleError names the stages forming a dependency cycle, in dependency order.
type CycleError struct {
	Stages []model.StageID
}

func (e *CycleError) Error() string {
	if len(e.Stages) == 0 {
		return ErrCyclicStageDependency.Error()
	}

	ids := make([]string, len(e.Stages))
	for i, id := range e.Stages {
		ids[i] = string(id)
	}

	return fmt.Sprintf("cyclic stage dependency: %s -> %s", strings.Join(ids, " -> "), ids[0])
}

func (e *CycleError) Is(target error) bool { return target == ErrCyclicStageDependency }

// MissingDependencyError is returned when an enabled stage needs one of OneOf
// and none of them is enabled or can be substituted.
type MissingDependencyError struct {
	Stage model.StageID
	OneOf []model.StageID
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("stage %q requires one of %v, none is enabled", e.Stage, e.OneOf)
}

func (e *MissingDependencyError) Is(target error) bool { return target == ErrMissingDependency }

// IncompatibleStagesError is returned when two enabled stages exclude each other.
type IncompatibleStagesError struct {
	Stage model.StageID
	Other model.StageID
}

func (e *IncompatibleStagesError) Error() string {
	return fmt.Sprintf("stage %q cannot be used together with %q", e.Stage, e.Other)
}

func (e *IncompatibleStagesError) Is(target error) bool { return target == ErrIncompatibleStages }
