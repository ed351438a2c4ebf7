package options

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Bag is a set of raw option values keyed by option name, as produced by a
// tokenizer or read back from a loaded model. Values are not yet typed against
// the registry.
type Bag map[string]cty.Value

// BagFromMap builds a Bag from plain Go values: bools, numbers, strings and string slices.
func BagFromMap(raw map[string]any) (Bag, error) {
	bag := make(Bag, len(raw))

	for name, val := range raw {
		ty, err := gocty.ImpliedType(val)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to infer type of option %q", name)
		}

		ctyVal, err := gocty.ToCtyValue(val, ty)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to convert option %q", name)
		}

		bag[name] = ctyVal
	}

	return bag, nil
}

// Names returns the names in the bag, sorted.
func (b Bag) Names() []string {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
