package learners

import (
	"github.com/pkg/errors"
	"github.com/zclconf/go-cty/cty"

	"github.com/askiada/go-reductions/pkg/reduction/model"
	"github.com/askiada/go-reductions/pkg/reduction/options"
)

// reader reads options and keeps the first error, so that a Build function can
// read everything it needs and check once.
type reader struct {
	opts model.OptionReader
	err  error
}

func (r *reader) keep(err error) {
	if r.err == nil && err != nil {
		r.err = err
	}
}

func (r *reader) bool(name string) bool {
	v, err := r.opts.Bool(name)
	r.keep(err)

	return v
}

func (r *reader) int(name string) int {
	v, err := r.opts.Int(name)
	r.keep(err)

	return v
}

func (r *reader) float(name string) float64 {
	v, err := r.opts.Float(name)
	r.keep(err)

	return v
}

func (r *reader) string(name string) string {
	v, err := r.opts.String(name)
	r.keep(err)

	return v
}

func (r *reader) strings(name string) []string {
	v, err := r.opts.Strings(name)
	r.keep(err)

	return v
}

// oneOf checks that value is one of allowed.
func (r *reader) oneOf(name, value string, allowed ...string) string {
	for _, a := range allowed {
		if a == value {
			return value
		}
	}

	r.keep(&options.TypeError{
		Name:  name,
		Want:  model.StringType,
		Value: options.FormatValue(cty.StringVal(value)),
		Err:   errors.Errorf("must be one of %v", allowed),
	})

	return value
}

func (r *reader) positive(name string, value int) int {
	if value <= 0 {
		r.keep(countError(name, value, "must be greater than 0"))
	}

	return value
}

func countError(name string, value int, reason string) error {
	return &options.TypeError{
		Name:  name,
		Want:  model.IntType,
		Value: options.FormatValue(cty.NumberIntVal(int64(value))),
		Err:   errors.New(reason),
	}
}

func boolOpt(owner model.StageID, name string, mutable bool, help string) model.OptionSpec {
	return model.OptionSpec{Name: name, Type: model.BoolType, Default: cty.False, Owner: owner, MutableAfterLoad: mutable, Help: help}
}

func intOpt(owner model.StageID, name string, def int64, mutable bool, help string) model.OptionSpec {
	return model.OptionSpec{Name: name, Type: model.IntType, Default: cty.NumberIntVal(def), Owner: owner, MutableAfterLoad: mutable, Help: help}
}

func floatOpt(owner model.StageID, name string, def float64, mutable bool, help string) model.OptionSpec {
	return model.OptionSpec{Name: name, Type: model.FloatType, Default: cty.NumberFloatVal(def), Owner: owner, MutableAfterLoad: mutable, Help: help}
}

func stringOpt(owner model.StageID, name, def string, mutable bool, help string) model.OptionSpec {
	return model.OptionSpec{Name: name, Type: model.StringType, Default: cty.StringVal(def), Owner: owner, MutableAfterLoad: mutable, Help: help}
}

func stringsOpt(owner model.StageID, name string, help string) model.OptionSpec {
	return model.OptionSpec{Name: name, Type: model.StringsType, Default: cty.ListValEmpty(cty.String), Owner: owner, Help: help}
}

func names(specs []model.OptionSpec) []string {
	out := make([]string, len(specs))
	for i, spec := range specs {
		out[i] = spec.Name
	}

	return out
}

// flagActive activates a stage when the bool option name is set.
func flagActive(names ...string) func(model.OptionReader) (bool, error) {
	return func(opts model.OptionReader) (bool, error) {
		for _, name := range names {
			on, err := opts.Bool(name)
			if err != nil {
				return false, err
			}

			if on {
				return true, nil
			}
		}

		return false, nil
	}
}

// countActive activates a stage when the int option name is greater than 0.
// A negative count is an error.
func countActive(name string) func(model.OptionReader) (bool, error) {
	return func(opts model.OptionReader) (bool, error) {
		n, err := opts.Int(name)
		if err != nil {
			return false, err
		}

		if n < 0 {
			return false, countError(name, n, "must not be negative")
		}

		return n > 0, nil
	}
}
