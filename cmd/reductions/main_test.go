package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-reductions/pkg/reduction/model"
	"github.com/askiada/go-reductions/pkg/reduction/options"
)

func runArgs(t *testing.T, args ...string) (string, error) {
	t.Helper()

	out := &bytes.Buffer{}
	err := run(t.Context(), strings.NewReader(""), out, &bytes.Buffer{}, args)

	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestRunHelp(t *testing.T) {
	t.Parallel()

	out, err := runArgs(t, "-h")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "-bit_precision")
	assert.Contains(t, out, "-log-level")
}

func TestRunParseErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		args []string
	}{
		"unknown flag":       {args: []string{"-not-an-option"}},
		"invalid log format": {args: []string{"-log-format", "xml"}},
		"invalid log level":  {args: []string{"-log-level", "trace"}},
		"two data paths":     {args: []string{"a.txt", "b.txt"}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := runArgs(t, tt.args...)

			var exitErr *ExitError
			require.True(t, errors.As(err, &exitErr))
			assert.Equal(t, 2, exitErr.Code)
		})
	}
}

func TestRunDescribe(t *testing.T) {
	t.Parallel()

	out, err := runArgs(t, "-oaa", "3", "-binary", "-quadratic", "ab", "-quadratic", "cd", "-describe")
	require.NoError(t, err)

	assert.Contains(t, out, "name: oaa")
	assert.Contains(t, out, "value: 3")
	assert.Contains(t, out, "name: binary")
	assert.Contains(t, out, "- ab")
	assert.Contains(t, out, "- cd")
	assert.Contains(t, out, "provenance: command_line")
	assert.NotContains(t, out, "name: bit_precision")
}

func TestRunStreamsExamples(t *testing.T) {
	t.Parallel()

	data := writeFile(t, "train.txt", "1 'first|a x:1 y:2\n\n-1 'second|a x:2 |b z\n0.5 'third|a y:0.5\n")

	out, err := runArgs(t, data)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasSuffix(lines[0], " first"))
	assert.True(t, strings.HasSuffix(lines[1], " second"))
	assert.True(t, strings.HasSuffix(lines[2], " third"))
}

func TestRunInvalidExample(t *testing.T) {
	t.Parallel()

	data := writeFile(t, "train.txt", "1 |a x:1\nnot-a-label |a x\n")

	_, err := runArgs(t, data)
	require.ErrorIs(t, err, errInvalidExample)
	assert.Contains(t, err.Error(), "line 2")
}

func TestRunSaveAndReload(t *testing.T) {
	t.Parallel()

	modelPath := filepath.Join(t.TempDir(), "model.bin")

	_, err := runArgs(t, "-oaa", "3", "-save", modelPath)
	require.NoError(t, err)

	out, err := runArgs(t, "-model", modelPath, "-describe")
	require.NoError(t, err)
	assert.Contains(t, out, "name: oaa")
	assert.Contains(t, out, "provenance: loaded_model")

	_, err = runArgs(t, "-model", modelPath, "-oaa", "4")
	require.ErrorIs(t, err, options.ErrConfigurationConflict)

	_, err = runArgs(t, "-model", filepath.Join(t.TempDir(), "missing.bin"))
	require.Error(t, err)
}

func TestRunOptionsFile(t *testing.T) {
	t.Parallel()

	optionsFile := writeFile(t, "options.hcl", "oaa = 3\nlink = \"logistic\"\n")

	out, err := runArgs(t, "-options-file", optionsFile, "-link", "identity", "-describe")
	require.NoError(t, err)
	assert.Contains(t, out, "name: oaa")
	assert.NotContains(t, out, "logistic")
}

func TestRunDot(t *testing.T) {
	t.Parallel()

	dotPath := filepath.Join(t.TempDir(), "pipeline.dot")
	data := writeFile(t, "train.txt", "1 |a x:1\n")

	_, err := runArgs(t, "-dot", dotPath, data)
	require.NoError(t, err)

	content, err := os.ReadFile(dotPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"features" -> "gd"`)
	assert.Contains(t, string(content), `"scorer" -> "output"`)
}

func TestParseExample(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		line string
		want *model.Example
	}{
		"unlabelled": {
			line: "|a x",
			want: &model.Example{Features: []model.Feature{{Namespace: "a", Name: "x", Value: 1}}},
		},
		"label and tag": {
			line: "2 'doc|a x:0.5 |b y",
			want: &model.Example{
				Tag:      "doc",
				Label:    2,
				HasLabel: true,
				Features: []model.Feature{
					{Namespace: "a", Name: "x", Value: 0.5},
					{Namespace: "b", Name: "y", Value: 1},
				},
			},
		},
		"default namespace": {
			line: "1 | x y:3",
			want: &model.Example{
				Label:    1,
				HasLabel: true,
				Features: []model.Feature{{Name: "x", Value: 1}, {Name: "y", Value: 3}},
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := parseExample(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseExampleErrors(t *testing.T) {
	t.Parallel()

	for _, line := range []string{"1 x y", "one |a x", "1 |a x:one", "1 tag extra|a x"} {
		_, err := parseExample(line)
		require.ErrorIs(t, err, errInvalidExample, line)
	}
}
