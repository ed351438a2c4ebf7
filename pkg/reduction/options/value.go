package options

import (
	"math"
	"math/big"

	"github.com/pkg/errors"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/askiada/go-reductions/pkg/reduction/model"
)

var (
	errNotWholeNumber = errors.New("a whole number is required")
	errOutOfRange     = errors.New("value out of range")
	errNullValue      = errors.New("value must be set")
)

// convertValue converts val to the type t and returns its canonical form.
// Ints are stored as int64 numbers and floats as float64 numbers so that a
// value read back from a persisted model compares equal to the one written.
func convertValue(name string, t model.ValueType, val cty.Value) (cty.Value, error) {
	typeErr := func(err error) error {
		return &TypeError{Name: name, Want: t, Value: formatValue(val), Err: err}
	}

	if val.IsNull() || !val.IsWhollyKnown() {
		return cty.NilVal, typeErr(errNullValue)
	}

	if t == model.StringsType && val.Type().IsPrimitiveType() {
		val = cty.TupleVal([]cty.Value{val})
	}

	converted, err := convert.Convert(val, t.CtyType())
	if err != nil {
		return cty.NilVal, typeErr(err)
	}

	switch t {
	case model.IntType:
		bf := converted.AsBigFloat()
		if !bf.IsInt() {
			return cty.NilVal, typeErr(errNotWholeNumber)
		}

		i, acc := bf.Int64()
		if acc != big.Exact {
			return cty.NilVal, typeErr(errOutOfRange)
		}

		return cty.NumberIntVal(i), nil
	case model.FloatType:
		f, _ := converted.AsBigFloat().Float64()
		if math.IsInf(f, 0) {
			return cty.NilVal, typeErr(errOutOfRange)
		}

		return cty.NumberFloatVal(f), nil
	case model.StringsType:
		if converted.LengthInt() == 0 {
			return cty.ListValEmpty(cty.String), nil
		}

		return converted, nil
	case model.BoolType, model.StringType:
		return converted, nil
	default:
		return cty.NilVal, typeErr(errors.Errorf("unsupported option type %s", t))
	}
}

// formatValue renders val for error messages and logs.
func formatValue(val cty.Value) string {
	if val.Type() == cty.NilType {
		return "<nil>"
	}

	if val.IsNull() {
		return "null"
	}

	if !val.IsWhollyKnown() {
		return "(unknown)"
	}

	out, err := ctyjson.Marshal(val, val.Type())
	if err != nil {
		return val.GoString()
	}

	return string(out)
}

// FormatValue renders a resolved option value the way errors report it.
func FormatValue(val cty.Value) string {
	return formatValue(val)
}
