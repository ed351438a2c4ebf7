package optfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/askiada/go-reductions/internal/learners"
	"github.com/askiada/go-reductions/pkg/reduction/model"
	"github.com/askiada/go-reductions/pkg/reduction/optfile"
	"github.com/askiada/go-reductions/pkg/reduction/options"
)

const validFile = `
bit_precision = 24
quadratic     = ["ab", "cd"]
link          = "logistic"
adaptive      = true
learning_rate = 0.25
`

func TestParse(t *testing.T) {
	t.Parallel()

	bag, err := optfile.Parse([]byte(validFile), "options.hcl")
	require.NoError(t, err)

	assert.Equal(t, []string{"adaptive", "bit_precision", "learning_rate", "link", "quadratic"}, bag.Names())
	assert.True(t, bag["adaptive"].True())
	assert.Equal(t, cty.StringVal("logistic"), bag["link"])
}

func TestParseResolves(t *testing.T) {
	t.Parallel()

	bag, err := optfile.Parse([]byte(validFile), "options.hcl")
	require.NoError(t, err)

	reg := options.NewRegistry()
	require.NoError(t, learners.Register(reg))

	cfg, err := options.Resolve(reg, nil, bag)
	require.NoError(t, err)

	bits, err := cfg.Int("bit_precision")
	require.NoError(t, err)
	assert.Equal(t, 24, bits)

	quadratic, err := cfg.Strings("quadratic")
	require.NoError(t, err)
	assert.Equal(t, []string{"ab", "cd"}, quadratic)

	rate, err := cfg.Float("learning_rate")
	require.NoError(t, err)
	assert.InDelta(t, 0.25, rate, 1e-12)

	val, ok := cfg.Get("link")
	require.True(t, ok)
	assert.Equal(t, model.CommandLine, val.Provenance)
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		src string
	}{
		"syntax":    {src: `bit_precision = `},
		"block":     {src: "gd {\n  adaptive = true\n}\n"},
		"variables": {src: `bit_precision = bits`},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := optfile.Parse([]byte(tt.src), "options.hcl")
			require.ErrorIs(t, err, optfile.ErrInvalidOptionsFile)
		})
	}
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "options.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`oaa = 3`), 0o600))

	bag, err := optfile.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"oaa"}, bag.Names())

	_, err = optfile.ReadFile(filepath.Join(t.TempDir(), "missing.hcl"))
	require.Error(t, err)
}

func TestMerge(t *testing.T) {
	t.Parallel()

	base := options.Bag{"oaa": cty.NumberIntVal(3), "link": cty.StringVal("identity")}
	over := options.Bag{"link": cty.StringVal("logistic")}

	merged := optfile.Merge(base, over)

	assert.Equal(t, cty.StringVal("logistic"), merged["link"])
	assert.Equal(t, cty.NumberIntVal(3), merged["oaa"])
	assert.Equal(t, cty.StringVal("identity"), base["link"])
}
