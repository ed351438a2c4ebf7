package learners

import (
	"context"
	"math"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"github.com/zclconf/go-cty/cty"

	"github.com/askiada/go-reductions/pkg/reduction/model"
	"github.com/askiada/go-reductions/pkg/reduction/options"
)

const nnRate = 0.01

// nnStage feeds the base prediction through one layer of tanh hidden units.
type nnStage struct {
	mu     sync.Mutex
	inpass bool
	in     []float64
	bias   []float64
	out    []float64
}

func buildNN(opts model.OptionReader) (model.Stage, error) {
	r := &reader{opts: opts}
	hidden := r.positive("nn", r.int("nn"))
	inpass := r.bool("inpass")

	if r.err != nil {
		return nil, r.err
	}

	s := &nnStage{
		inpass: inpass,
		in:     make([]float64, hidden),
		bias:   make([]float64, hidden),
		out:    make([]float64, hidden),
	}

	for j := range hidden {
		s.in[j] = 1 / float64(j+1)
		s.out[j] = 1 / float64(hidden)
	}

	return s, nil
}

func (s *nnStage) Process(_ context.Context, ex *model.Example) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	x := ex.Prediction
	hidden := make([]float64, len(s.in))
	pred := 0.0

	if s.inpass {
		pred = x
	}

	for j := range s.in {
		hidden[j] = math.Tanh(s.in[j]*x + s.bias[j])
		pred += s.out[j] * hidden[j]
	}

	if ex.HasLabel {
		grad := pred - ex.Label
		for j := range s.in {
			back := grad * s.out[j] * (1 - hidden[j]*hidden[j])
			s.out[j] -= nnRate * grad * hidden[j]
			s.in[j] -= nnRate * back * x
			s.bias[j] -= nnRate * back
		}
	}

	ex.Prediction = pred
	ex.Trace = append(ex.Trace, NN)

	return nil
}

type scorerStage struct {
	logistic bool
	min, max float64
}

func buildScorer(opts model.OptionReader) (model.Stage, error) {
	r := &reader{opts: opts}
	link := r.oneOf("link", r.string("link"), "identity", "logistic")
	s := &scorerStage{
		logistic: link == "logistic",
		min:      r.float("min_prediction"),
		max:      r.float("max_prediction"),
	}

	if r.err != nil {
		return nil, r.err
	}

	if s.min > s.max {
		return nil, &options.TypeError{
			Name:  "min_prediction",
			Want:  model.FloatType,
			Value: options.FormatValue(cty.NumberFloatVal(s.min)),
			Err:   errors.Errorf("must not exceed max_prediction %s", strconv.FormatFloat(s.max, 'g', -1, 64)),
		}
	}

	return s, nil
}

func (s *scorerStage) Process(_ context.Context, ex *model.Example) error {
	p := ex.Prediction
	if s.logistic {
		p = 1 / (1 + math.Exp(-p))
	}

	ex.Prediction = math.Max(s.min, math.Min(s.max, p))
	ex.Trace = append(ex.Trace, Scorer)

	return nil
}

// binaryStage maps predictions to -1 or 1.
type binaryStage struct{}

func buildBinary(opts model.OptionReader) (model.Stage, error) {
	r := &reader{opts: opts}
	r.bool("binary")

	return binaryStage{}, r.err
}

func (binaryStage) Process(_ context.Context, ex *model.Example) error {
	if ex.Prediction > 0 {
		ex.Prediction = 1
	} else {
		ex.Prediction = -1
	}

	ex.Trace = append(ex.Trace, Binary)

	return nil
}

// activeStage queries labels for uncertain examples. In simulation mode the
// labels of examples it does not query are dropped.
type activeStage struct {
	simulation bool
	mellowness float64

	mu sync.Mutex
	t  float64
}

func buildActive(opts model.OptionReader) (model.Stage, error) {
	r := &reader{opts: opts}
	s := &activeStage{
		simulation: r.bool("active_simulation"),
		mellowness: r.float("mellowness"),
	}

	return s, r.err
}

func (s *activeStage) Process(_ context.Context, ex *model.Example) error {
	s.mu.Lock()
	s.t++
	threshold := math.Sqrt(s.mellowness / s.t)
	s.mu.Unlock()

	ex.Queried = math.Abs(ex.Prediction) <= threshold

	if s.simulation && !ex.Queried {
		ex.HasLabel = false
	}

	ex.Trace = append(ex.Trace, Active)

	return nil
}
