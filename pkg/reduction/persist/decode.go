package persist

import (
	"math"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/zclconf/go-cty/cty"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/askiada/go-reductions/pkg/reduction/model"
	"github.com/askiada/go-reductions/pkg/reduction/options"
)

// Decode reads a snapshot written by Marshal, by this or any other version.
func Decode(buf []byte) (*Snapshot, error) {
	snap := &Snapshot{
		Options:       options.Bag{},
		Types:         map[string]model.ValueType{},
		optionUnknown: map[string][]byte{},
		foreign:       map[string][]byte{},
	}

	var hasVersion, hasID bool

	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return nil, corrupt("tag: %v", protowire.ParseError(n))
		}

		switch {
		case num == fieldVersion && typ == protowire.BytesType:
			raw, m := protowire.ConsumeString(buf[n:])
			if m < 0 {
				return nil, corrupt("version: %v", protowire.ParseError(m))
			}

			v, err := model.ParseVersion(raw)
			if err != nil {
				return nil, corrupt("version %q", raw)
			}

			snap.Version = v
			hasVersion = true
			n += m
		case num == fieldModelID && typ == protowire.BytesType:
			raw, m := protowire.ConsumeBytes(buf[n:])
			if m < 0 {
				return nil, corrupt("model id: %v", protowire.ParseError(m))
			}

			id, err := uuid.FromBytes(raw)
			if err != nil {
				return nil, corrupt("model id: %v", err)
			}

			snap.ModelID = id
			hasID = true
			n += m
		case num == fieldOption && typ == protowire.BytesType:
			raw, m := protowire.ConsumeBytes(buf[n:])
			if m < 0 {
				return nil, corrupt("option: %v", protowire.ParseError(m))
			}

			err := snap.decodeOption(raw)
			if err != nil {
				return nil, err
			}

			n += m
		case num == fieldVersion, num == fieldModelID, num == fieldOption:
			return nil, corrupt("field %d has wire type %d", num, typ)
		default:
			m := protowire.ConsumeFieldValue(num, typ, buf[n:])
			if m < 0 {
				return nil, corrupt("field %d: %v", num, protowire.ParseError(m))
			}

			n += m
			snap.unknown = append(snap.unknown, buf[:n]...)
		}

		buf = buf[n:]
	}

	if !hasVersion {
		return nil, corrupt("missing version")
	}

	if !hasID {
		return nil, corrupt("missing model id")
	}

	return snap, nil
}

var optionWireTypes = map[protowire.Number]protowire.Type{
	optName:    protowire.BytesType,
	optType:    protowire.VarintType,
	optBool:    protowire.VarintType,
	optInt:     protowire.VarintType,
	optFloat:   protowire.Fixed64Type,
	optString:  protowire.BytesType,
	optStrings: protowire.BytesType,
}

var valueFields = map[model.ValueType]protowire.Number{
	model.BoolType:   optBool,
	model.IntType:    optInt,
	model.FloatType:  optFloat,
	model.StringType: optString,
}

type rawOption struct {
	name     string
	hasName  bool
	typ      model.ValueType
	value    cty.Value
	hasValue bool
	field    protowire.Number
	strs     []cty.Value
	unknown  []byte
}

func (s *Snapshot) decodeOption(buf []byte) error {
	opt := &rawOption{}

	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return corrupt("option tag: %v", protowire.ParseError(n))
		}

		m, err := opt.consume(num, typ, buf[n:])
		if err != nil {
			return err
		}

		if m < 0 {
			return corrupt("option field %d: %v", num, protowire.ParseError(m))
		}

		n += m
		if opt.isUnknown(num) {
			opt.unknown = append(opt.unknown, buf[:n]...)
		}

		buf = buf[n:]
	}

	if !opt.hasName || opt.name == "" {
		return corrupt("option without a name")
	}

	if !opt.typ.Valid() {
		return corrupt("option %q has unknown type %d", opt.name, opt.typ)
	}

	if _, ok := s.Types[opt.name]; ok {
		return corrupt("option %q written twice", opt.name)
	}

	val, err := opt.result()
	if err != nil {
		return err
	}

	s.Options[opt.name] = val
	s.Types[opt.name] = opt.typ

	if len(opt.unknown) > 0 {
		s.optionUnknown[opt.name] = opt.unknown
	}

	return nil
}

func (o *rawOption) isUnknown(num protowire.Number) bool {
	return num < optName || num > optStrings
}

// consume reads the value of field num and returns how many bytes it used.
func (o *rawOption) consume(num protowire.Number, typ protowire.Type, buf []byte) (int, error) {
	if w, ok := optionWireTypes[num]; ok && w != typ {
		return 0, corrupt("option field %d has wire type %d", num, typ)
	}

	switch num {
	case optName:
		v, n := protowire.ConsumeString(buf)
		o.name, o.hasName = v, true

		return n, nil
	case optType:
		v, n := protowire.ConsumeVarint(buf)
		if n >= 0 && v > math.MaxUint8 {
			return 0, corrupt("option %q has unknown type %d", o.name, v)
		}

		o.typ = model.ValueType(v)

		return n, nil
	case optBool:
		v, n := protowire.ConsumeVarint(buf)
		o.value = cty.BoolVal(protowire.DecodeBool(v))
		o.hasValue, o.field = true, num

		return n, nil
	case optInt:
		v, n := protowire.ConsumeVarint(buf)
		o.value = cty.NumberIntVal(protowire.DecodeZigZag(v))
		o.hasValue, o.field = true, num

		return n, nil
	case optFloat:
		v, n := protowire.ConsumeFixed64(buf)
		f := math.Float64frombits(v)

		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, corrupt("option %q is not a finite number", o.name)
		}

		o.value = cty.NumberFloatVal(f)
		o.hasValue, o.field = true, num

		return n, nil
	case optString, optStrings:
		v, n := protowire.ConsumeString(buf)
		if n >= 0 && !utf8.ValidString(v) {
			return 0, corrupt("option %q is not valid utf-8", o.name)
		}

		if num == optString {
			o.value = cty.StringVal(v)
			o.hasValue, o.field = true, num
		} else {
			o.strs = append(o.strs, cty.StringVal(v))
		}

		return n, nil
	default:
		return protowire.ConsumeFieldValue(num, typ, buf), nil
	}
}

// result checks the value read against the declared type. An option written
// without a value holds the zero value of its type.
func (o *rawOption) result() (cty.Value, error) {
	if o.typ == model.StringsType {
		if o.hasValue {
			return cty.NilVal, corrupt("option %q mixes scalar and list values", o.name)
		}

		if len(o.strs) == 0 {
			return cty.ListValEmpty(cty.String), nil
		}

		return cty.ListVal(o.strs), nil
	}

	if len(o.strs) > 0 {
		return cty.NilVal, corrupt("option %q is not a list", o.name)
	}

	if !o.hasValue {
		return zeroValue(o.typ)
	}

	if valueFields[o.typ] != o.field {
		return cty.NilVal, corrupt("option %q of type %s written in field %d", o.name, o.typ, o.field)
	}

	return o.value, nil
}
