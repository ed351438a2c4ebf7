package learners

import (
	"context"
	"math"
	"sync"

	"github.com/pkg/errors"

	"github.com/askiada/go-reductions/pkg/reduction/model"
)

// ErrLabelOutOfRange is returned when a labelled example names a class or
// action the stage does not know.
var ErrLabelOutOfRange = errors.New("label out of range")

// classScores keeps one linear scorer per class. Classes are numbered from 1.
type classScores struct {
	mu      sync.Mutex
	classes []*weights
}

func newClassScores(k int) *classScores {
	c := &classScores{classes: make([]*weights, k)}
	for i := range c.classes {
		c.classes[i] = newWeights()
	}

	return c
}

// scores returns base plus each class score. The caller holds c.mu.
func (c *classScores) scores(ex *model.Example) []float64 {
	out := make([]float64, len(c.classes))
	for i, w := range c.classes {
		out[i] = ex.Prediction + w.dot(ex.Features)
	}

	return out
}

// train nudges class towards target on the example's features. The caller holds c.mu.
func (c *classScores) train(class int, ex *model.Example, target, current float64) {
	w := c.classes[class]
	grad := current - target

	for _, f := range ex.Features {
		w.w[featureKey(f)] -= 0.1 * grad * f.Value
	}
}

func labelClass(ex *model.Example, k int) (int, bool, error) {
	if !ex.HasLabel {
		return 0, false, nil
	}

	class := int(ex.Label)
	if float64(class) != ex.Label || class < 1 || class > k {
		return 0, false, errors.Wrapf(ErrLabelOutOfRange, "class %v not in 1..%d", ex.Label, k)
	}

	return class, true, nil
}

type oaaStage struct {
	k      int
	scores *classScores
}

func buildOAA(opts model.OptionReader) (model.Stage, error) {
	r := &reader{opts: opts}
	k := r.positive("oaa", r.int("oaa"))

	if r.err != nil {
		return nil, r.err
	}

	return &oaaStage{k: k, scores: newClassScores(k)}, nil
}

func (s *oaaStage) Process(_ context.Context, ex *model.Example) error {
	label, labelled, err := labelClass(ex, s.k)
	if err != nil {
		return err
	}

	s.scores.mu.Lock()
	defer s.scores.mu.Unlock()

	scores := s.scores.scores(ex)
	best := argmax(scores)

	if labelled {
		for i, score := range scores {
			target := -1.0
			if i+1 == label {
				target = 1
			}

			s.scores.train(i, ex, target, score)
		}
	}

	ex.Class = best + 1
	ex.Trace = append(ex.Trace, OAA)

	return nil
}

// ectStage runs a single elimination tournament over the class scores. A
// challenger only beats the holder when it leads by more than the tolerated
// error margin.
type ectStage struct {
	k         int
	tolerance int
	scores    *classScores
}

func buildECT(opts model.OptionReader) (model.Stage, error) {
	r := &reader{opts: opts}
	s := &ectStage{
		k:         r.positive("ect", r.int("ect")),
		tolerance: r.int("ect_error"),
	}

	if r.err != nil {
		return nil, r.err
	}

	if s.tolerance < 0 {
		s.tolerance = 0
	}

	s.scores = newClassScores(s.k)

	return s, nil
}

func (s *ectStage) Process(_ context.Context, ex *model.Example) error {
	label, labelled, err := labelClass(ex, s.k)
	if err != nil {
		return err
	}

	s.scores.mu.Lock()
	defer s.scores.mu.Unlock()

	scores := s.scores.scores(ex)
	margin := float64(s.tolerance) / float64(s.k)

	round := make([]int, s.k)
	for i := range round {
		round[i] = i
	}

	for len(round) > 1 {
		next := make([]int, 0, (len(round)+1)/2)

		for i := 0; i < len(round); i += 2 {
			if i+1 == len(round) {
				next = append(next, round[i])

				continue
			}

			a, b := round[i], round[i+1]
			if scores[b]-scores[a] > margin {
				a, b = b, a
			}

			next = append(next, a)

			if labelled && (a+1 == label || b+1 == label) {
				winner := label - 1
				loser := a + b - winner
				s.scores.train(winner, ex, scores[winner]+1, scores[winner])
				s.scores.train(loser, ex, scores[loser]-1, scores[loser])
			}
		}

		round = next
	}

	ex.Class = round[0] + 1
	ex.Trace = append(ex.Trace, ECT)

	return nil
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}

	return best
}

func argmin(values []float64) int {
	best := 0
	for i, v := range values {
		if v < values[best] {
			best = i
		}
	}

	return best
}

func clampCosts(costs []float64) {
	for i, c := range costs {
		if math.IsNaN(c) {
			costs[i] = math.Inf(1)
		}
	}
}
