package learners

import (
	"context"
	"math"

	"github.com/askiada/go-reductions/pkg/reduction/model"
)

// csoaaStage regresses the cost of every class. Observed costs on the example
// train the regressors and are then replaced by the predicted ones. With no
// class count it follows the number of costs carried by each example.
type csoaaStage struct {
	k      int
	scores *classScores
}

func buildCSOAA(opts model.OptionReader) (model.Stage, error) {
	r := &reader{opts: opts}
	k := r.int("csoaa")

	if r.err != nil {
		return nil, r.err
	}

	if k < 0 {
		k = 0
	}

	return &csoaaStage{k: k, scores: newClassScores(k)}, nil
}

func (s *csoaaStage) Process(_ context.Context, ex *model.Example) error {
	s.scores.mu.Lock()
	defer s.scores.mu.Unlock()

	k := s.k
	if k == 0 {
		k = len(ex.Costs)
		for len(s.scores.classes) < k {
			s.scores.classes = append(s.scores.classes, newWeights())
		}
	}

	observed := ex.Costs
	predicted := make([]float64, k)
	scores := s.scores.scores(ex)

	for i := range k {
		predicted[i] = scores[i]

		if i < len(observed) && !math.IsNaN(observed[i]) && !math.IsInf(observed[i], 0) {
			s.scores.train(i, ex, observed[i], scores[i])
		}
	}

	ex.Costs = predicted
	if k > 0 {
		ex.Class = argmin(predicted) + 1
	}

	ex.Trace = append(ex.Trace, CSOAA)

	return nil
}

// wapStage compares every pair of classes and scores each class by the cost
// weighted pairs it loses.
type wapStage struct {
	k      int
	scores *classScores
}

func buildWAP(opts model.OptionReader) (model.Stage, error) {
	r := &reader{opts: opts}
	k := r.positive("wap", r.int("wap"))

	if r.err != nil {
		return nil, r.err
	}

	return &wapStage{k: k, scores: newClassScores(k)}, nil
}

func (s *wapStage) Process(_ context.Context, ex *model.Example) error {
	s.scores.mu.Lock()
	defer s.scores.mu.Unlock()

	observed := ex.Costs
	scores := s.scores.scores(ex)
	costs := make([]float64, s.k)

	for i := range s.k {
		for j := i + 1; j < s.k; j++ {
			diff := scores[i] - scores[j]
			// A lower score means a lower expected cost.
			if diff > 0 {
				costs[i] += diff
			} else {
				costs[j] -= diff
			}

			if i < len(observed) && j < len(observed) {
				weight := math.Abs(observed[i] - observed[j])
				if observed[i] < observed[j] {
					s.scores.train(i, ex, scores[i]-weight, scores[i])
				} else if observed[j] < observed[i] {
					s.scores.train(j, ex, scores[j]-weight, scores[j])
				}
			}
		}
	}

	ex.Costs = costs
	ex.Class = argmin(costs) + 1
	ex.Trace = append(ex.Trace, WAP)

	return nil
}
