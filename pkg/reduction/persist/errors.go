package persist

import "github.com/pkg/errors"

var (
	ErrCorruptSnapshot = errors.New("corrupt option snapshot")
	// ErrNoSection is returned by ReadSection when the model carries no option section.
	ErrNoSection          = errors.New("no option section")
	ErrModelIDMustBeSet   = errors.New("model id must be set")
	ErrConfigurationUnset = errors.New("configuration must be set")
)

func corrupt(format string, args ...any) error {
	return errors.Wrapf(ErrCorruptSnapshot, format, args...)
}
