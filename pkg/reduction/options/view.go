package options

import (
	"github.com/pkg/errors"

	"github.com/askiada/go-reductions/pkg/reduction/model"
)

// View is a read-only window over a Configuration limited to a set of names.
// Stages are built from a View holding only the options they own.
type View struct {
	cfg     *Configuration
	allowed map[string]struct{}
}

func (v *View) check(name string) error {
	if _, ok := v.allowed[name]; !ok {
		return errors.Wrapf(ErrOptionNotInView, "%q", name)
	}

	return nil
}

func (v *View) Bool(name string) (bool, error) {
	if err := v.check(name); err != nil {
		return false, err
	}

	return v.cfg.Bool(name)
}

func (v *View) Int(name string) (int, error) {
	if err := v.check(name); err != nil {
		return 0, err
	}

	return v.cfg.Int(name)
}

func (v *View) Float(name string) (float64, error) {
	if err := v.check(name); err != nil {
		return 0, err
	}

	return v.cfg.Float(name)
}

func (v *View) String(name string) (string, error) {
	if err := v.check(name); err != nil {
		return "", err
	}

	return v.cfg.String(name)
}

func (v *View) Strings(name string) ([]string, error) {
	if err := v.check(name); err != nil {
		return nil, err
	}

	return v.cfg.Strings(name)
}

var _ model.OptionReader = (*View)(nil)
