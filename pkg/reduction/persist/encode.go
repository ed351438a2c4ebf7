package persist

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"github.com/zclconf/go-cty/cty"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/askiada/go-reductions/pkg/reduction/model"
)

const (
	fieldVersion protowire.Number = 1
	fieldModelID protowire.Number = 2
	fieldOption  protowire.Number = 3
)

const (
	optName protowire.Number = iota + 1
	optType
	optBool
	optInt
	optFloat
	optString
	optStrings
)

// Marshal writes the snapshot. The output only depends on the snapshot
// content: options are sorted by name and unknown fields follow the known ones.
func (s *Snapshot) Marshal() ([]byte, error) {
	var b []byte

	b = protowire.AppendTag(b, fieldVersion, protowire.BytesType)
	b = protowire.AppendString(b, s.Version.String())

	b = protowire.AppendTag(b, fieldModelID, protowire.BytesType)
	b = protowire.AppendBytes(b, s.ModelID[:])

	names := make([]string, 0, len(s.Options)+len(s.foreign))
	for name := range s.Options {
		names = append(names, name)
	}

	for name := range s.foreign {
		if _, ok := s.Options[name]; !ok {
			names = append(names, name)
		}
	}

	sort.Strings(names)

	for _, name := range names {
		opt, err := s.encodedOption(name)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to encode option %q", name)
		}

		b = protowire.AppendTag(b, fieldOption, protowire.BytesType)
		b = protowire.AppendBytes(b, opt)
	}

	return append(b, s.unknown...), nil
}

// encodedOption returns option name as written. Options set aside are written
// back as they were read.
func (s *Snapshot) encodedOption(name string) ([]byte, error) {
	if _, ok := s.Options[name]; ok {
		return s.marshalOption(name)
	}

	return s.foreign[name], nil
}

func (s *Snapshot) marshalOption(name string) ([]byte, error) {
	t, ok := s.Types[name]
	if !ok || !t.Valid() {
		return nil, errors.New("missing option type")
	}

	val := s.Options[name]
	if val.IsNull() || !val.IsKnown() {
		return nil, errors.New("value must be known and not null")
	}

	var b []byte

	b = protowire.AppendTag(b, optName, protowire.BytesType)
	b = protowire.AppendString(b, name)
	b = protowire.AppendTag(b, optType, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(t))

	switch t {
	case model.BoolType:
		b = protowire.AppendTag(b, optBool, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(val.True()))
	case model.IntType:
		i, acc := val.AsBigFloat().Int64()
		if acc != 0 {
			return nil, errors.New("value is not an int64")
		}

		b = protowire.AppendTag(b, optInt, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(i))
	case model.FloatType:
		f, _ := val.AsBigFloat().Float64()
		b = protowire.AppendTag(b, optFloat, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(f))
	case model.StringType:
		b = protowire.AppendTag(b, optString, protowire.BytesType)
		b = protowire.AppendString(b, val.AsString())
	case model.StringsType:
		for it := val.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			if elem.Type() != cty.String {
				return nil, errors.New("list element is not a string")
			}

			b = protowire.AppendTag(b, optStrings, protowire.BytesType)
			b = protowire.AppendString(b, elem.AsString())
		}
	}

	return append(b, s.optionUnknown[name]...), nil
}
