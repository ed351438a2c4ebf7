package stages_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/askiada/go-reductions/internal/learners"
	"github.com/askiada/go-reductions/pkg/reduction/model"
	"github.com/askiada/go-reductions/pkg/reduction/options"
	"github.com/askiada/go-reductions/pkg/reduction/stages"
)

type nopStage struct{}

func (nopStage) Process(context.Context, *model.Example) error { return nil }

func buildNop(model.OptionReader) (model.Stage, error) { return nopStage{}, nil }

func resolveBuiltin(t *testing.T, cmdline options.Bag) *options.Configuration {
	t.Helper()

	reg := options.NewRegistry()
	require.NoError(t, learners.Register(reg))

	cfg, err := options.Resolve(reg, nil, cmdline)
	require.NoError(t, err)

	return cfg
}

func emptyConfig(t *testing.T) *options.Configuration {
	t.Helper()

	cfg, err := options.Resolve(options.NewRegistry(), nil, nil)
	require.NoError(t, err)

	return cfg
}

func TestSelectBuiltin(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		cmdline  options.Bag
		expected []model.StageID
	}{
		"defaults": {
			expected: []model.StageID{learners.Features, learners.GD, learners.Scorer},
		},
		"multiclass after binary": {
			cmdline:  options.Bag{"oaa": cty.NumberIntVal(3), "binary": cty.True},
			expected: []model.StageID{learners.Features, learners.GD, learners.Scorer, learners.Binary, learners.OAA},
		},
		"bandit substitutes cost sensitive": {
			cmdline:  options.Bag{"cb": cty.NumberIntVal(4)},
			expected: []model.StageID{learners.Features, learners.GD, learners.Scorer, learners.CSOAA, learners.CB},
		},
		"bandit over weighted all pairs": {
			cmdline:  options.Bag{"cb": cty.NumberIntVal(4), "wap": cty.NumberIntVal(4)},
			expected: []model.StageID{learners.Features, learners.GD, learners.Scorer, learners.WAP, learners.CB},
		},
		"bfgs replaces gd": {
			cmdline:  options.Bag{"bfgs": cty.True},
			expected: []model.StageID{learners.Features, learners.BFGS, learners.Scorer},
		},
		"network over lda": {
			cmdline:  options.Bag{"lda": cty.NumberIntVal(3), "nn": cty.NumberIntVal(5)},
			expected: []model.StageID{learners.Features, learners.LDA, learners.NN, learners.Scorer},
		},
		"searn": {
			cmdline:  options.Bag{"searn": cty.StringVal("3")},
			expected: []model.StageID{learners.Features, learners.GD, learners.Scorer, learners.CSOAA, learners.Searn},
		},
	}

	f, err := stages.NewFactory(learners.Table())
	require.NoError(t, err)

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			sel, err := f.Select(resolveBuiltin(t, tc.cmdline))
			require.NoError(t, err)
			assert.Equal(t, tc.expected, sel.IDs())
		})
	}
}

func TestSelectIncompatible(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		cmdline options.Bag
		stage   model.StageID
		other   model.StageID
	}{
		"oaa and ect": {
			cmdline: options.Bag{"oaa": cty.NumberIntVal(3), "ect": cty.NumberIntVal(3)},
			stage:   learners.OAA,
			other:   learners.ECT,
		},
		"cb and searn": {
			cmdline: options.Bag{"cb": cty.NumberIntVal(3), "searn": cty.NumberIntVal(3)},
			stage:   learners.CB,
			other:   learners.Searn,
		},
		"bfgs and lda": {
			cmdline: options.Bag{"bfgs": cty.True, "lda": cty.NumberIntVal(2)},
			stage:   learners.BFGS,
			other:   learners.LDA,
		},
	}

	f, err := stages.NewFactory(learners.Table())
	require.NoError(t, err)

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := f.Select(resolveBuiltin(t, tc.cmdline))
			require.ErrorIs(t, err, stages.ErrIncompatibleStages)

			var incompatible *stages.IncompatibleStagesError
			require.ErrorAs(t, err, &incompatible)
			assert.Equal(t, tc.stage, incompatible.Stage)
			assert.Equal(t, tc.other, incompatible.Other)
		})
	}
}

func TestSelectEnabledByAndPosition(t *testing.T) {
	t.Parallel()

	f, err := stages.NewFactory(learners.Table())
	require.NoError(t, err)

	sel, err := f.Select(resolveBuiltin(t, options.Bag{"binary": cty.True}))
	require.NoError(t, err)

	assert.Equal(t, stages.EnabledAlways, sel.EnabledBy(learners.Features))
	assert.Equal(t, stages.EnabledDependency, sel.EnabledBy(learners.GD))
	assert.Equal(t, stages.EnabledByOption, sel.EnabledBy(learners.Binary))
	assert.Empty(t, sel.EnabledBy(learners.OAA))

	_, props, err := sel.Graph().VertexWithProperties(string(learners.GD))
	require.NoError(t, err)
	assert.Equal(t, stages.EnabledDependency, props.Attributes[stages.AttributeEnabledBy])
	assert.Equal(t, "1", props.Attributes[stages.AttributePosition])

	_, err = sel.Graph().Edge(string(learners.GD), string(learners.Scorer))
	require.NoError(t, err)
}

func TestSelectCycle(t *testing.T) {
	t.Parallel()

	table := []*model.StageDescriptor{
		{ID: "a", Always: true, Prerequisites: []model.Prerequisite{{OneOf: []model.StageID{"b"}}}, Build: buildNop},
		{ID: "b", Always: true, Prerequisites: []model.Prerequisite{{OneOf: []model.StageID{"a"}}}, Build: buildNop},
		{ID: "c", Always: true, Build: buildNop},
	}

	f, err := stages.NewFactory(table)
	require.NoError(t, err)

	_, err = f.Select(emptyConfig(t))
	require.ErrorIs(t, err, stages.ErrCyclicStageDependency)

	var cycle *stages.CycleError
	require.ErrorAs(t, err, &cycle)
	assert.ElementsMatch(t, []model.StageID{"a", "b"}, cycle.Stages)
	assert.Contains(t, err.Error(), "a")
	assert.Contains(t, err.Error(), "b")
}

func TestSelectMissingDependency(t *testing.T) {
	t.Parallel()

	table := []*model.StageDescriptor{
		{ID: "x", Always: true, Prerequisites: []model.Prerequisite{{OneOf: []model.StageID{"y", "z"}}}, Build: buildNop},
		{ID: "y", Build: buildNop},
		{ID: "z", Build: buildNop},
	}

	f, err := stages.NewFactory(table)
	require.NoError(t, err)

	_, err = f.Select(emptyConfig(t))
	require.ErrorIs(t, err, stages.ErrMissingDependency)

	var missing *stages.MissingDependencyError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, model.StageID("x"), missing.Stage)
	assert.Equal(t, []model.StageID{"y", "z"}, missing.OneOf)
}

func TestSelectOptionalPrerequisite(t *testing.T) {
	t.Parallel()

	table := []*model.StageDescriptor{
		{ID: "late", Always: true, Prerequisites: []model.Prerequisite{{OneOf: []model.StageID{"early", "never"}, Optional: true}}, Build: buildNop},
		{ID: "early", Always: true, Build: buildNop},
		{ID: "never", Build: buildNop},
	}

	f, err := stages.NewFactory(table)
	require.NoError(t, err)

	sel, err := f.Select(emptyConfig(t))
	require.NoError(t, err)
	assert.Equal(t, []model.StageID{"early", "late"}, sel.IDs())
}

func TestSelectDeclarationOrderBreaksTies(t *testing.T) {
	t.Parallel()

	table := []*model.StageDescriptor{
		{ID: "zeta", Always: true, Build: buildNop},
		{ID: "alpha", Always: true, Build: buildNop},
		{ID: "mid", Always: true, Prerequisites: []model.Prerequisite{{OneOf: []model.StageID{"omega"}}}, Build: buildNop},
		{ID: "omega", Always: true, Build: buildNop},
	}

	f, err := stages.NewFactory(table)
	require.NoError(t, err)

	for range 10 {
		sel, err := f.Select(emptyConfig(t))
		require.NoError(t, err)
		assert.Equal(t, []model.StageID{"zeta", "alpha", "omega", "mid"}, sel.IDs())
	}
}

func TestSelectActivationError(t *testing.T) {
	t.Parallel()

	table := []*model.StageDescriptor{
		{
			ID:      "reads",
			Options: []string{"missing"},
			Activate: func(opts model.OptionReader) (bool, error) {
				return opts.Bool("missing")
			},
			Build: buildNop,
		},
	}

	f, err := stages.NewFactory(table)
	require.NoError(t, err)

	_, err = f.Select(emptyConfig(t))
	require.Error(t, err)

	_, err = f.Select(nil)
	require.ErrorIs(t, err, stages.ErrConfigurationMustBeSet)
}

func TestNewFactoryInvalidTable(t *testing.T) {
	t.Parallel()

	tcs := map[string][]*model.StageDescriptor{
		"nil descriptor": {nil},
		"missing id":     {{Build: buildNop}},
		"duplicate id":   {{ID: "a", Build: buildNop}, {ID: "a", Build: buildNop}},
		"missing build":  {{ID: "a"}},
		"unknown prerequisite": {
			{ID: "a", Build: buildNop, Prerequisites: []model.Prerequisite{{OneOf: []model.StageID{"b"}}}},
		},
		"unknown substitute": {
			{ID: "a", Build: buildNop, Prerequisites: []model.Prerequisite{{OneOf: []model.StageID{"a"}, Substitute: "b"}}},
		},
		"empty prerequisite": {
			{ID: "a", Build: buildNop, Prerequisites: []model.Prerequisite{{}}},
		},
		"unknown exclusion": {
			{ID: "a", Build: buildNop, Excludes: []model.StageID{"b"}},
		},
	}

	for name, table := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := stages.NewFactory(table)
			require.ErrorIs(t, err, stages.ErrInvalidTable)
		})
	}
}

func TestFactoryDescriptor(t *testing.T) {
	t.Parallel()

	f, err := stages.NewFactory(learners.Table())
	require.NoError(t, err)

	desc, ok := f.Descriptor(learners.CB)
	require.True(t, ok)
	assert.Equal(t, model.BanditContract, desc.Output)

	_, ok = f.Descriptor("unknown")
	assert.False(t, ok)
	assert.Len(t, f.Stages(), 14)
}
