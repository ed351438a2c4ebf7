package options

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/askiada/go-reductions/pkg/reduction/model"
)

// Configuration is the canonical option set produced by Resolve. Every
// registered option has exactly one value and one provenance.
type Configuration struct {
	values map[string]model.OptionValue
	types  map[string]model.ValueType
	owners map[string]model.StageID
	names  []string
}

func newConfiguration(size int) *Configuration {
	return &Configuration{
		values: make(map[string]model.OptionValue, size),
		types:  make(map[string]model.ValueType, size),
		owners: make(map[string]model.StageID, size),
	}
}

func (c *Configuration) set(spec *model.OptionSpec, val cty.Value, prov model.Provenance) {
	if _, ok := c.values[spec.Name]; !ok {
		c.names = append(c.names, spec.Name)
	}

	c.values[spec.Name] = model.OptionValue{Name: spec.Name, Value: val, Provenance: prov}
	c.types[spec.Name] = spec.Type
	c.owners[spec.Name] = spec.Owner
}

func (c *Configuration) finish() {
	sort.Strings(c.names)
}

// Names returns every option name, sorted.
func (c *Configuration) Names() []string {
	names := make([]string, len(c.names))
	copy(names, c.names)

	return names
}

// Len returns the number of resolved options.
func (c *Configuration) Len() int {
	return len(c.names)
}

// Get returns the resolved value of name.
func (c *Configuration) Get(name string) (model.OptionValue, bool) {
	val, ok := c.values[name]

	return val, ok
}

// Type returns the value type of name.
func (c *Configuration) Type(name string) (model.ValueType, bool) {
	t, ok := c.types[name]

	return t, ok
}

// Owner returns the stage owning name.
func (c *Configuration) Owner(name string) (model.StageID, bool) {
	owner, ok := c.owners[name]

	return owner, ok
}

// Values returns the resolved values as a Bag, without provenance.
func (c *Configuration) Values() Bag {
	bag := make(Bag, len(c.values))
	for name, val := range c.values {
		bag[name] = val.Value
	}

	return bag
}

// WithProvenance returns the values whose provenance is p.
func (c *Configuration) WithProvenance(p model.Provenance) Bag {
	bag := Bag{}

	for name, val := range c.values {
		if val.Provenance == p {
			bag[name] = val.Value
		}
	}

	return bag
}

// Equal reports whether both configurations hold the same names and values.
// Provenance is not compared: a configuration read back from a model holds the
// same values as the one written, but they now come from the loaded model.
func (c *Configuration) Equal(o *Configuration) bool {
	if c == nil || o == nil {
		return c == o
	}

	if len(c.names) != len(o.names) {
		return false
	}

	for name, val := range c.values {
		other, ok := o.values[name]
		if !ok || c.types[name] != o.types[name] {
			return false
		}

		if !val.Value.RawEquals(other.Value) {
			return false
		}
	}

	return true
}

// View restricts read access to the given names.
func (c *Configuration) View(names ...string) *View {
	allowed := make(map[string]struct{}, len(names))
	for _, name := range names {
		allowed[name] = struct{}{}
	}

	return &View{cfg: c, allowed: allowed}
}

func (c *Configuration) Bool(name string) (bool, error) {
	var out bool

	return out, c.decode(name, model.BoolType, &out)
}

func (c *Configuration) Int(name string) (int, error) {
	var out int

	return out, c.decode(name, model.IntType, &out)
}

func (c *Configuration) Float(name string) (float64, error) {
	var out float64

	return out, c.decode(name, model.FloatType, &out)
}

func (c *Configuration) String(name string) (string, error) {
	var out string

	return out, c.decode(name, model.StringType, &out)
}

func (c *Configuration) Strings(name string) ([]string, error) {
	out := []string{}

	return out, c.decode(name, model.StringsType, &out)
}

func (c *Configuration) decode(name string, want model.ValueType, target any) error {
	val, ok := c.values[name]
	if !ok {
		return &UnknownOptionError{Name: name, Source: model.Default}
	}

	if got := c.types[name]; got != want {
		return &TypeError{Name: name, Want: want, Value: formatValue(val.Value), Err: errors.Errorf("option is a %s", got)}
	}

	if err := gocty.FromCtyValue(val.Value, target); err != nil {
		return &TypeError{Name: name, Want: want, Value: formatValue(val.Value), Err: err}
	}

	return nil
}

var _ model.OptionReader = (*Configuration)(nil)
