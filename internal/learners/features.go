package learners

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/zclconf/go-cty/cty"

	"github.com/askiada/go-reductions/pkg/reduction/model"
	"github.com/askiada/go-reductions/pkg/reduction/options"
)

const constantNamespace = "constant"

type gram struct {
	namespace byte // 0 applies to every namespace
	n         int
}

type featureStage struct {
	bits       int
	quadratic  []string
	cubic      []string
	ngrams     []gram
	skips      []gram
	ignore     map[byte]struct{}
	noconstant bool
}

func buildFeatures(opts model.OptionReader) (model.Stage, error) {
	r := &reader{opts: opts}
	s := &featureStage{
		bits:       r.int("bit_precision"),
		quadratic:  r.strings("quadratic"),
		cubic:      r.strings("cubic"),
		noconstant: r.bool("noconstant"),
		ignore:     map[byte]struct{}{},
	}

	ngram := r.strings("ngram")
	skips := r.strings("skips")
	ignore := r.strings("ignore")

	if r.err != nil {
		return nil, r.err
	}

	if s.bits <= 0 || s.bits > 32 {
		return nil, &options.TypeError{
			Name: "bit_precision", Want: model.IntType,
			Value: strconv.Itoa(s.bits), Err: errors.New("must be between 1 and 32"),
		}
	}

	err := checkInteractions("quadratic", s.quadratic, 2)
	if err != nil {
		return nil, err
	}

	err = checkInteractions("cubic", s.cubic, 3)
	if err != nil {
		return nil, err
	}

	s.ngrams, err = compileGrams("ngram", ngram)
	if err != nil {
		return nil, err
	}

	s.skips, err = compileGrams("skips", skips)
	if err != nil {
		return nil, err
	}

	for _, ns := range ignore {
		if ns == "" {
			continue
		}

		s.ignore[ns[0]] = struct{}{}
	}

	return s, nil
}

func checkInteractions(name string, entries []string, size int) error {
	for _, entry := range entries {
		if len(entry) != size {
			return &options.TypeError{
				Name: name, Want: model.StringsType,
				Value: options.FormatValue(cty.StringVal(entry)),
				Err:   errors.Errorf("each entry must name %d namespaces", size),
			}
		}
	}

	return nil
}

// compileGrams parses entries like "2" (every namespace) or "a3" (namespace a).
func compileGrams(name string, entries []string) ([]gram, error) {
	out := make([]gram, 0, len(entries))

	for _, entry := range entries {
		g := gram{}
		digits := entry

		if entry != "" && (entry[0] < '0' || entry[0] > '9') {
			g.namespace = entry[0]
			digits = entry[1:]
		}

		n, err := strconv.Atoi(digits)
		if err != nil || n < 0 {
			return nil, &options.TypeError{
				Name: name, Want: model.StringsType,
				Value: options.FormatValue(cty.StringVal(entry)),
				Err:   errors.New("expected an optional namespace followed by a count"),
			}
		}

		g.n = n
		out = append(out, g)
	}

	return out, nil
}

func (s *featureStage) Process(_ context.Context, ex *model.Example) error {
	kept := make([]model.Feature, 0, len(ex.Features))

	for _, f := range ex.Features {
		if f.Namespace != "" {
			if _, ok := s.ignore[f.Namespace[0]]; ok {
				continue
			}
		}

		kept = append(kept, f)
	}

	byFirst := map[byte][]model.Feature{}
	for _, f := range kept {
		if f.Namespace != "" {
			byFirst[f.Namespace[0]] = append(byFirst[f.Namespace[0]], f)
		}
	}

	out := kept

	for _, g := range s.ngrams {
		out = append(out, s.grams(kept, g, skipFor(s.skips, g.namespace))...)
	}

	for _, pair := range s.quadratic {
		for _, a := range byFirst[pair[0]] {
			for _, b := range byFirst[pair[1]] {
				out = append(out, model.Feature{Namespace: pair, Name: a.Name + "^" + b.Name, Value: a.Value * b.Value})
			}
		}
	}

	for _, triple := range s.cubic {
		for _, a := range byFirst[triple[0]] {
			for _, b := range byFirst[triple[1]] {
				for _, c := range byFirst[triple[2]] {
					out = append(out, model.Feature{Namespace: triple, Name: a.Name + "^" + b.Name + "^" + c.Name, Value: a.Value * b.Value * c.Value})
				}
			}
		}
	}

	if !s.noconstant {
		out = append(out, model.Feature{Namespace: constantNamespace, Name: constantNamespace, Value: 1})
	}

	ex.Features = out
	ex.Trace = append(ex.Trace, Features)

	return nil
}

func skipFor(skips []gram, namespace byte) int {
	skip := 0

	for _, g := range skips {
		if g.namespace == 0 || g.namespace == namespace {
			skip = g.n
		}
	}

	return skip
}

// grams builds n-grams over consecutive features of each namespace, allowing
// skip features to be jumped between two tokens.
func (s *featureStage) grams(features []model.Feature, g gram, skip int) []model.Feature {
	if g.n < 2 {
		return nil
	}

	byNamespace := map[string][]model.Feature{}
	order := []string{}

	for _, f := range features {
		if g.namespace != 0 && (f.Namespace == "" || f.Namespace[0] != g.namespace) {
			continue
		}

		if _, ok := byNamespace[f.Namespace]; !ok {
			order = append(order, f.Namespace)
		}

		byNamespace[f.Namespace] = append(byNamespace[f.Namespace], f)
	}

	out := []model.Feature{}
	step := skip + 1

	for _, ns := range order {
		tokens := byNamespace[ns]
		for start := range tokens {
			parts := []string{}

			for i := 0; i < g.n; i++ {
				idx := start + i*step
				if idx >= len(tokens) {
					parts = nil

					break
				}

				parts = append(parts, tokens[idx].Name)
			}

			if parts != nil {
				out = append(out, model.Feature{Namespace: ns, Name: strings.Join(parts, "_"), Value: 1})
			}
		}
	}

	return out
}
