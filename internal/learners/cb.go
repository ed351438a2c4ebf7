package learners

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"github.com/askiada/go-reductions/pkg/reduction/model"
)

// cbStage picks an action from the cost estimates of the cost sensitive stage
// below it. Only the cost of the action taken is observed, which the
// estimator corrects for.
type cbStage struct {
	k      int
	method string
}

func buildCB(opts model.OptionReader) (model.Stage, error) {
	r := &reader{opts: opts}
	s := &cbStage{
		k:      r.positive("cb", r.int("cb")),
		method: r.oneOf("cb_type", r.string("cb_type"), "dr", "dm", "ips"),
	}

	return s, r.err
}

func (s *cbStage) Process(_ context.Context, ex *model.Example) error {
	if ex.Action < 0 || ex.Action > s.k {
		return errors.Wrapf(ErrLabelOutOfRange, "action %d not in 1..%d", ex.Action, s.k)
	}

	costs := make([]float64, s.k)
	copy(costs, ex.Costs)

	// Pad unknown actions with the worst estimate.
	worst := 0.0
	for i := range min(len(ex.Costs), s.k) {
		worst = math.Max(worst, costs[i])
	}

	for i := len(ex.Costs); i < s.k; i++ {
		costs[i] = worst
	}

	if ex.Action > 0 && ex.HasLabel {
		taken := ex.Action - 1
		// Uniform logging probability over the actions.
		prob := 1 / float64(s.k)

		switch s.method {
		case "ips":
			for i := range costs {
				costs[i] = 0
			}

			costs[taken] = ex.Label / prob
		case "dr":
			costs[taken] += (ex.Label - costs[taken]) / prob
		case "dm":
			costs[taken] = ex.Label
		}
	}

	clampCosts(costs)

	ex.Costs = costs
	ex.Action = argmin(costs) + 1
	ex.Trace = append(ex.Trace, CB)

	return nil
}
