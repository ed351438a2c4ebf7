package learners

import (
	"context"
	"math"
	"sync"

	"github.com/askiada/go-reductions/pkg/reduction/model"
)

// searnStage predicts one action per feature, mixing the cost sensitive
// choice with the previous action according to the interpolation rate.
type searnStage struct {
	k      int
	task   string
	beta   float64
	passes int

	mu   sync.Mutex
	seen int
}

func buildSearn(opts model.OptionReader) (model.Stage, error) {
	r := &reader{opts: opts}
	s := &searnStage{
		k:      r.positive("searn", r.int("searn")),
		task:   r.oneOf("searn_task", r.string("searn_task"), "sequence", "sequencespan", "entity_relation"),
		beta:   r.float("searn_beta"),
		passes: r.positive("searn_passes_per_policy", r.int("searn_passes_per_policy")),
	}

	return s, r.err
}

// policy returns how many policy updates have happened so far.
func (s *searnStage) policy() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seen++

	return (s.seen - 1) / s.passes
}

func (s *searnStage) Process(_ context.Context, ex *model.Example) error {
	// Weight of the learned policy against the reference one.
	learned := 1 - math.Pow(1-s.beta, float64(s.policy()))

	costs := make([]float64, s.k)
	copy(costs, ex.Costs)

	seq := make([]int, 0, len(ex.Features))
	prev := 0

	for i, f := range ex.Features {
		step := make([]float64, s.k)
		for a := range step {
			step[a] = learned*costs[a] + (1-learned)*math.Abs(f.Value-float64(a+1))
		}

		action := argmin(step) + 1
		action = s.constrain(i, prev, action)
		seq = append(seq, action)
		prev = action
	}

	ex.Sequence = seq
	ex.Trace = append(ex.Trace, Searn)

	return nil
}

// constrain applies the task's transition rules. For span tagging, odd
// actions open a span and the following even action continues it, so an even
// action can only follow its opening action or itself. Entity relation
// alternates entity and relation positions, with relations taking the even
// actions.
func (s *searnStage) constrain(pos, prev, action int) int {
	switch s.task {
	case "sequencespan":
		if action%2 == 0 && prev != action-1 && prev != action {
			return action - 1
		}
	case "entity_relation":
		if s.k < 2 {
			return action
		}

		wantEven := pos%2 == 1
		if (action%2 == 0) != wantEven {
			if action < s.k {
				return action + 1
			}

			return action - 1
		}
	}

	return action
}
