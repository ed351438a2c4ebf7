// Package optfile reads option values from HCL files.
//
// An options file holds one top-level attribute per option:
//
//	bit_precision = 24
//	quadratic     = ["ab", "cd"]
//	link          = "logistic"
//
// Values are returned untyped. They are checked against the registry when the
// bag is resolved, like command-line values.
package optfile

import (
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/pkg/errors"

	"github.com/askiada/go-reductions/pkg/reduction/options"
)

// ErrInvalidOptionsFile is returned when a file is not a flat list of attributes.
var ErrInvalidOptionsFile = errors.New("invalid options file")

// Parse reads the options held in src. filename is only used in diagnostics.
func Parse(src []byte, filename string) (options.Bag, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, wrapDiags(diags, "unable to parse %s", filename)
	}

	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, wrapDiags(diags, "unable to read attributes of %s", filename)
	}

	bag := make(options.Bag, len(attrs))

	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, wrapDiags(diags, "unable to evaluate option %q", name)
		}

		bag[name] = val
	}

	return bag, nil
}

// ReadFile reads the options file at path.
func ReadFile(path string) (options.Bag, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read options file %s", path)
	}

	return Parse(src, path)
}

// Merge returns base overridden by every value of over.
func Merge(base, over options.Bag) options.Bag {
	out := make(options.Bag, len(base)+len(over))

	for name, val := range base {
		out[name] = val
	}

	for name, val := range over {
		out[name] = val
	}

	return out
}

func wrapDiags(diags hcl.Diagnostics, format string, args ...any) error {
	return errors.Wrapf(errors.Wrap(ErrInvalidOptionsFile, diags.Error()), format, args...)
}
