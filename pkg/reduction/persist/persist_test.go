package persist_test

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/askiada/go-reductions/pkg/reduction/model"
	"github.com/askiada/go-reductions/pkg/reduction/options"
	"github.com/askiada/go-reductions/pkg/reduction/persist"
)

var testID = uuid.MustParse("6f1c3b2a-1d4e-4f5a-9b8c-7d6e5f4a3b2c")

func newTestRegistry(t *testing.T) *options.Registry {
	t.Helper()

	reg := options.NewRegistry()
	reg.MustRegister(
		model.OptionSpec{Name: "binary", Type: model.BoolType, Default: cty.False},
		model.OptionSpec{Name: "bit_precision", Type: model.IntType, Default: cty.NumberIntVal(18)},
		model.OptionSpec{Name: "learning_rate", Type: model.FloatType, Default: cty.NumberFloatVal(0.5), MutableAfterLoad: true},
		model.OptionSpec{Name: "link", Type: model.StringType, Default: cty.StringVal("identity")},
		model.OptionSpec{Name: "quadratic", Type: model.StringsType, Default: cty.ListValEmpty(cty.String)},
		model.OptionSpec{Name: "l1", Type: model.FloatType, Default: cty.NumberFloatVal(0)},
	)

	return reg
}

func resolve(t *testing.T, reg *options.Registry, loaded, cmdline options.Bag) *options.Configuration {
	t.Helper()

	cfg, err := options.Resolve(reg, loaded, cmdline)
	require.NoError(t, err)

	return cfg
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	tcs := map[string]options.Bag{
		"defaults": nil,
		"every type": {
			"binary":        cty.True,
			"bit_precision": cty.NumberIntVal(-24),
			"learning_rate": cty.NumberFloatVal(0.1),
			"link":          cty.StringVal("logistic"),
			"quadratic":     cty.ListVal([]cty.Value{cty.StringVal("ab"), cty.StringVal("cd")}),
		},
		"strings from text": {
			"bit_precision": cty.StringVal("30"),
			"quadratic":     cty.StringVal("ab"),
			"l1":            cty.StringVal("1e-8"),
		},
	}

	for name, cmdline := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			reg := newTestRegistry(t)
			cfg := resolve(t, reg, nil, cmdline)

			buf, err := persist.Encode(cfg, &persist.Snapshot{ModelID: testID})
			require.NoError(t, err)

			snap, err := persist.Decode(buf)
			require.NoError(t, err)
			assert.Equal(t, testID, snap.ModelID)
			assert.Equal(t, persist.EngineVersion, snap.Version)
			assert.False(t, snap.HasUnknownFields())

			reloaded := resolve(t, reg, snap.Options, nil)
			assert.True(t, cfg.Equal(reloaded))

			for _, name := range reloaded.Names() {
				val, ok := reloaded.Get(name)
				require.True(t, ok)
				assert.Equal(t, model.LoadedModel, val.Provenance, name)
			}

			again, err := persist.Encode(reloaded, snap)
			require.NoError(t, err)
			assert.Equal(t, buf, again)
		})
	}
}

func TestMarshalDeterministic(t *testing.T) {
	t.Parallel()

	cfg := resolve(t, newTestRegistry(t), nil, options.Bag{"quadratic": cty.TupleVal([]cty.Value{cty.StringVal("ab")})})

	first, err := persist.NewSnapshot(cfg, testID, nil)
	require.NoError(t, err)

	want, err := first.Marshal()
	require.NoError(t, err)

	for range 10 {
		got, err := first.Marshal()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

type message []byte

func (m message) str(num protowire.Number, s string) message {
	m = protowire.AppendTag(m, num, protowire.BytesType)

	return protowire.AppendString(m, s)
}

func (m message) bytes(num protowire.Number, b []byte) message {
	m = protowire.AppendTag(m, num, protowire.BytesType)

	return protowire.AppendBytes(m, b)
}

func (m message) varint(num protowire.Number, v uint64) message {
	m = protowire.AppendTag(m, num, protowire.VarintType)

	return protowire.AppendVarint(m, v)
}

func header() message {
	return message{}.str(1, "1.0.0").bytes(2, testID[:])
}

func TestUnknownFieldsSurvive(t *testing.T) {
	t.Parallel()

	futureOption := message{}.str(8, "future").varint(9, 3)
	option := message{}.str(1, "binary").varint(2, uint64(model.BoolType)).varint(3, 1)
	option = append(option, futureOption...)

	futureTop := message{}.str(20, "later").varint(21, 42)
	buf := header().bytes(3, option)
	buf = append(buf, futureTop...)

	snap, err := persist.Decode(buf)
	require.NoError(t, err)
	assert.True(t, snap.HasUnknownFields())
	assert.Equal(t, cty.True, snap.Options["binary"])

	reg := newTestRegistry(t)
	cfg := resolve(t, reg, snap.Options, nil)

	out, err := persist.Encode(cfg, snap)
	require.NoError(t, err)
	assert.True(t, bytes.Contains(out, futureOption), "option level unknown fields must be kept")
	assert.True(t, bytes.HasSuffix(out, futureTop), "top level unknown fields must be kept")

	again, err := persist.Decode(out)
	require.NoError(t, err)
	assert.True(t, again.HasUnknownFields())
	assert.Equal(t, testID, again.ModelID)
}

func TestDecodeMissingValueIsZero(t *testing.T) {
	t.Parallel()

	option := message{}.str(1, "quadratic").varint(2, uint64(model.StringsType))
	snap, err := persist.Decode(header().bytes(3, option))
	require.NoError(t, err)
	assert.True(t, snap.Options["quadratic"].RawEquals(cty.ListValEmpty(cty.String)))
	assert.Equal(t, model.StringsType, snap.Types["quadratic"])
}

func TestDecodeCorrupt(t *testing.T) {
	t.Parallel()

	boolOption := message{}.str(1, "binary").varint(2, uint64(model.BoolType)).varint(3, 1)
	valid := header().bytes(3, boolOption)

	tcs := map[string][]byte{
		"truncated":           valid[:len(valid)-1],
		"bad tag":             {0xff},
		"bad version":         message{}.str(1, "one").bytes(2, testID[:]),
		"missing version":     message{}.bytes(2, testID[:]),
		"missing model id":    message{}.str(1, "1.0.0"),
		"short model id":      message{}.str(1, "1.0.0").bytes(2, []byte{1, 2, 3}),
		"version as varint":   message{}.varint(1, 1).bytes(2, testID[:]),
		"option without name": header().bytes(3, message{}.varint(2, uint64(model.BoolType))),
		"unknown type":        header().bytes(3, message{}.str(1, "x").varint(2, 9)),
		"huge type":           header().bytes(3, message{}.str(1, "x").varint(2, 1<<10)),
		"duplicate option":    header().bytes(3, boolOption).bytes(3, boolOption),
		"value in wrong field": header().bytes(3,
			message{}.str(1, "bit_precision").varint(2, uint64(model.IntType)).str(6, "18")),
		"list for a scalar": header().bytes(3,
			message{}.str(1, "link").varint(2, uint64(model.StringType)).str(7, "a")),
		"option wire type": header().varint(3, 1),
	}

	for name, buf := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := persist.Decode(buf)
			require.ErrorIs(t, err, persist.ErrCorruptSnapshot)
		})
	}
}

func TestNewSnapshotErrors(t *testing.T) {
	t.Parallel()

	cfg := resolve(t, newTestRegistry(t), nil, nil)

	_, err := persist.NewSnapshot(nil, testID, nil)
	require.ErrorIs(t, err, persist.ErrConfigurationUnset)

	_, err = persist.NewSnapshot(cfg, uuid.Nil, nil)
	require.ErrorIs(t, err, persist.ErrModelIDMustBeSet)

	_, err = persist.Encode(cfg, nil)
	require.ErrorIs(t, err, persist.ErrModelIDMustBeSet)
}

func TestSection(t *testing.T) {
	t.Parallel()

	payload := []byte("payload")
	rest := []byte("weights")

	buf := persist.WriteSection(payload, rest)

	gotPayload, gotRest, err := persist.ReadSection(buf)
	require.NoError(t, err)
	assert.Equal(t, payload, gotPayload)
	assert.Equal(t, rest, gotRest)

	gotPayload, gotRest, err = persist.ReadSection(persist.WriteSection(nil, nil))
	require.NoError(t, err)
	assert.Empty(t, gotPayload)
	assert.Empty(t, gotRest)
}

func TestSectionMissingOrCorrupt(t *testing.T) {
	t.Parallel()

	_, rest, err := persist.ReadSection([]byte("weights only"))
	require.ErrorIs(t, err, persist.ErrNoSection)
	assert.Equal(t, []byte("weights only"), rest)

	_, rest, err = persist.ReadSection(nil)
	require.ErrorIs(t, err, persist.ErrNoSection)
	assert.Empty(t, rest)

	buf := persist.WriteSection([]byte("payload"), nil)

	_, _, err = persist.ReadSection(buf[:len(buf)-2])
	require.ErrorIs(t, err, persist.ErrCorruptSnapshot)

	_, _, err = persist.ReadSection([]byte("RDXC"))
	require.ErrorIs(t, err, persist.ErrCorruptSnapshot)
}

func TestSetAsideOptionsSurvive(t *testing.T) {
	t.Parallel()

	cfg := resolve(t, newTestRegistry(t), nil, options.Bag{"link": cty.StringVal("logistic")})

	buf, err := persist.Encode(cfg, &persist.Snapshot{ModelID: testID})
	require.NoError(t, err)

	snap, err := persist.Decode(buf)
	require.NoError(t, err)

	older := options.NewRegistry()
	older.MustRegister(
		model.OptionSpec{Name: "binary", Type: model.BoolType, Default: cty.False},
		model.OptionSpec{Name: "bit_precision", Type: model.IntType, Default: cty.NumberIntVal(18)},
		model.OptionSpec{Name: "learning_rate", Type: model.FloatType, Default: cty.NumberFloatVal(0.5), MutableAfterLoad: true},
		model.OptionSpec{Name: "quadratic", Type: model.StringsType, Default: cty.ListValEmpty(cty.String)},
	)

	aside, err := snap.SetAside(func(name string) bool {
		_, err := older.Lookup(name)

		return err == nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"l1", "link"}, aside)
	assert.Equal(t, aside, snap.Foreign())
	assert.NotContains(t, snap.Options, "link")
	assert.True(t, snap.HasUnknownFields())

	again, err := snap.Marshal()
	require.NoError(t, err)
	assert.Equal(t, buf, again)

	reloaded := resolve(t, older, snap.Options, nil)

	carried, err := persist.Encode(reloaded, snap)
	require.NoError(t, err)
	assert.Equal(t, buf, carried)
}
