package options

import (
	"github.com/pkg/errors"
	"github.com/zclconf/go-cty/cty/gocty"
	"gopkg.in/yaml.v3"

	"github.com/askiada/go-reductions/pkg/reduction/model"
)

type describedOption struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Value      any    `yaml:"value"`
	Provenance string `yaml:"provenance"`
	Owner      string `yaml:"owner,omitempty"`
}

// DescribeYAML renders the configuration as YAML, sorted by option name.
// Options still at their default are skipped unless all is set.
func (c *Configuration) DescribeYAML(all bool) ([]byte, error) {
	out := make([]describedOption, 0, len(c.names))

	for _, name := range c.names {
		val := c.values[name]
		if !all && val.Provenance == model.Default {
			continue
		}

		goVal, err := c.goValue(name)
		if err != nil {
			return nil, err
		}

		out = append(out, describedOption{
			Name:       name,
			Type:       c.types[name].String(),
			Value:      goVal,
			Provenance: val.Provenance.String(),
			Owner:      string(c.owners[name]),
		})
	}

	data, err := yaml.Marshal(map[string]any{"options": out})
	if err != nil {
		return nil, errors.Wrap(err, "unable to marshal configuration")
	}

	return data, nil
}

func (c *Configuration) goValue(name string) (any, error) {
	val := c.values[name].Value

	var err error

	switch c.types[name] {
	case model.BoolType:
		var b bool
		err = gocty.FromCtyValue(val, &b)

		return b, err
	case model.IntType:
		var i int64
		err = gocty.FromCtyValue(val, &i)

		return i, err
	case model.FloatType:
		var f float64
		err = gocty.FromCtyValue(val, &f)

		return f, err
	case model.StringType:
		var s string
		err = gocty.FromCtyValue(val, &s)

		return s, err
	case model.StringsType:
		ss := []string{}
		err = gocty.FromCtyValue(val, &ss)

		return ss, err
	default:
		return nil, errors.Errorf("option %q has unsupported type %s", name, c.types[name])
	}
}
