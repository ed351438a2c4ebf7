package learners

import (
	"context"
	"math"
	"sync"

	"github.com/askiada/go-reductions/pkg/reduction/model"
)

func featureKey(f model.Feature) string {
	return f.Namespace + "^" + f.Name
}

// weights is a sparse linear model shared by the base learners.
type weights struct {
	mu sync.Mutex
	w  map[string]float64
	// g accumulates squared gradients for adaptive updates.
	g map[string]float64
	// scale records the largest magnitude seen per feature for normalized updates.
	scale map[string]float64
}

func newWeights() *weights {
	return &weights{
		w:     map[string]float64{},
		g:     map[string]float64{},
		scale: map[string]float64{},
	}
}

func (w *weights) predict(features []model.Feature) float64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.dot(features)
}

func (w *weights) dot(features []model.Feature) float64 {
	sum := 0.0
	for _, f := range features {
		sum += w.w[featureKey(f)] * f.Value
	}

	return sum
}

type gdStage struct {
	w *weights

	adaptive   bool
	normalized bool
	invariant  bool
	rate       float64
	powerT     float64
	initialT   float64
	l1, l2     float64

	mu sync.Mutex
	t  float64
}

func buildGD(opts model.OptionReader) (model.Stage, error) {
	r := &reader{opts: opts}
	s := &gdStage{
		w:          newWeights(),
		adaptive:   r.bool("adaptive"),
		normalized: r.bool("normalized"),
		invariant:  r.bool("invariant"),
		rate:       r.float("learning_rate"),
		powerT:     r.float("power_t"),
		initialT:   r.float("initial_t"),
		l1:         r.float("l1"),
		l2:         r.float("l2"),
	}

	return s, r.err
}

func (s *gdStage) Process(_ context.Context, ex *model.Example) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()

	ex.Prediction = s.w.dot(ex.Features)

	if ex.HasLabel {
		s.update(ex)
	}

	ex.Trace = append(ex.Trace, GD)

	return nil
}

// update takes one squared loss gradient step. The caller holds s.w.mu.
func (s *gdStage) update(ex *model.Example) {
	s.mu.Lock()
	s.t++
	t := s.t
	s.mu.Unlock()

	eta := s.rate / math.Pow(s.initialT+t, s.powerT)
	grad := ex.Prediction - ex.Label

	if s.invariant {
		// Never step past the label.
		norm := 0.0
		for _, f := range ex.Features {
			norm += f.Value * f.Value
		}

		if norm > 0 && eta*norm > 1 {
			eta = 1 / norm
		}
	}

	for _, f := range ex.Features {
		key := featureKey(f)
		g := grad * f.Value
		step := eta

		if s.adaptive {
			s.w.g[key] += g * g
			if s.w.g[key] > 0 {
				step /= math.Sqrt(s.w.g[key])
			}
		}

		if s.normalized {
			if abs := math.Abs(f.Value); abs > s.w.scale[key] {
				s.w.scale[key] = abs
			}

			if sc := s.w.scale[key]; sc > 0 {
				step /= sc * sc
			}
		}

		next := s.w.w[key] - step*(g+s.l2*s.w.w[key])
		s.w.w[key] = softThreshold(next, step*s.l1)
	}
}

func softThreshold(v, lambda float64) float64 {
	switch {
	case v > lambda:
		return v - lambda
	case v < -lambda:
		return v + lambda
	default:
		return 0
	}
}

// bfgsStage keeps a short history of gradients and moves along a conjugate
// direction built from it.
type bfgsStage struct {
	w           *weights
	conjugate   bool
	mem         int
	termination float64
	hessian     bool

	dir     map[string]float64
	history []float64
}

func buildBFGS(opts model.OptionReader) (model.Stage, error) {
	r := &reader{opts: opts}
	s := &bfgsStage{
		w:           newWeights(),
		conjugate:   r.bool("conjugate_gradient"),
		mem:         r.positive("mem", r.int("mem")),
		termination: r.float("termination"),
		hessian:     r.bool("hessian_on"),
		dir:         map[string]float64{},
	}

	return s, r.err
}

func (s *bfgsStage) Process(_ context.Context, ex *model.Example) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()

	ex.Prediction = s.w.dot(ex.Features)

	if ex.HasLabel {
		s.update(ex)
	}

	ex.Trace = append(ex.Trace, BFGS)

	return nil
}

func (s *bfgsStage) update(ex *model.Example) {
	grad := ex.Prediction - ex.Label
	norm := grad * grad

	if math.Abs(grad) < s.termination {
		return
	}

	beta := 0.0
	if n := len(s.history); n > 0 && s.history[n-1] > 0 {
		beta = norm / s.history[n-1]
	}

	if !s.conjugate {
		// Average over the remembered curvature instead of the last step only.
		sum := 0.0
		for _, h := range s.history {
			sum += h
		}

		if sum > 0 {
			beta = norm * float64(len(s.history)) / sum
		}
	}

	beta = math.Min(beta, 1)

	s.history = append(s.history, norm)
	if len(s.history) > s.mem {
		s.history = s.history[len(s.history)-s.mem:]
	}

	step := 1.0
	if s.hessian {
		curvature := 0.0
		for _, f := range ex.Features {
			curvature += f.Value * f.Value
		}

		if curvature > 0 {
			step = 1 / curvature
		}
	}

	for _, f := range ex.Features {
		key := featureKey(f)
		s.dir[key] = -grad*f.Value + beta*s.dir[key]
		s.w.w[key] += step * s.dir[key]
	}
}

// ldaStage assigns each document to its most likely topic and predicts the
// topic index.
type ldaStage struct {
	mu     sync.Mutex
	topics int
	alpha  float64
	rho    float64
	docs   float64
	eps    float64

	counts map[string][]float64
	totals []float64
}

func buildLDA(opts model.OptionReader) (model.Stage, error) {
	r := &reader{opts: opts}
	s := &ldaStage{
		topics: r.positive("lda", r.int("lda")),
		alpha:  r.float("lda_alpha"),
		rho:    r.float("lda_rho"),
		docs:   r.float("lda_D"),
		eps:    r.float("lda_epsilon"),
		counts: map[string][]float64{},
	}

	if r.err != nil {
		return nil, r.err
	}

	s.totals = make([]float64, s.topics)

	return s, nil
}

func (s *ldaStage) Process(_ context.Context, ex *model.Example) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	gamma := make([]float64, s.topics)
	for k := range gamma {
		gamma[k] = s.alpha
	}

	// Fixed point on the document topic weights.
	for range 20 {
		next := make([]float64, s.topics)
		for k := range next {
			next[k] = s.alpha
		}

		for _, f := range ex.Features {
			probs := s.wordTopics(featureKey(f), gamma)
			for k, p := range probs {
				next[k] += p * f.Value
			}
		}

		delta := 0.0
		for k := range next {
			delta += math.Abs(next[k] - gamma[k])
		}

		gamma = next
		if delta/float64(s.topics) < s.eps {
			break
		}
	}

	best := 0
	for k := range gamma {
		if gamma[k] > gamma[best] {
			best = k
		}
	}

	rate := 1 / math.Max(s.docs, 1)

	for _, f := range ex.Features {
		key := featureKey(f)
		probs := s.wordTopics(key, gamma)

		for k, p := range probs {
			s.counts[key][k] += rate * p * f.Value
			s.totals[k] += rate * p * f.Value
		}
	}

	ex.Prediction = float64(best)
	ex.Trace = append(ex.Trace, LDA)

	return nil
}

func (s *ldaStage) wordTopics(key string, gamma []float64) []float64 {
	counts, ok := s.counts[key]
	if !ok {
		counts = make([]float64, s.topics)
		s.counts[key] = counts
	}

	probs := make([]float64, s.topics)
	sum := 0.0

	for k := range probs {
		norm := s.totals[k] + s.rho*float64(len(s.counts))
		if norm <= 0 {
			norm = 1
		}

		probs[k] = gamma[k] * (counts[k] + s.rho) / norm
		sum += probs[k]
	}

	for k := range probs {
		if sum > 0 {
			probs[k] /= sum
		} else {
			probs[k] = 1 / float64(s.topics)
		}
	}

	return probs
}
