package options_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/askiada/go-reductions/pkg/reduction/model"
	"github.com/askiada/go-reductions/pkg/reduction/options"
)

func newTestRegistry(t *testing.T) *options.Registry {
	t.Helper()

	reg := options.NewRegistry()
	specs := []model.OptionSpec{
		{Name: "binary", Type: model.BoolType, Default: cty.False, Owner: "binary"},
		{Name: "bit_precision", Type: model.IntType, Default: cty.NumberIntVal(18), Owner: "features"},
		{Name: "learning_rate", Type: model.FloatType, Default: cty.NumberFloatVal(0.5), Owner: "gd", MutableAfterLoad: true},
		{Name: "passes", Type: model.IntType, Default: cty.NumberIntVal(1), Owner: "gd", MutableAfterLoad: true},
		{Name: "link", Type: model.StringType, Default: cty.StringVal("identity"), Owner: "scorer"},
		{Name: "quadratic", Type: model.StringsType, Default: cty.ListValEmpty(cty.String), Owner: "features"},
	}

	for _, spec := range specs {
		require.NoError(t, reg.Register(spec))
	}

	return reg
}
