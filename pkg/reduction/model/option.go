package model

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// ValueType is the type of an option value.
type ValueType uint8

const (
	InvalidType ValueType = iota
	BoolType
	IntType
	FloatType
	StringType
	StringsType
)

var valueTypeNames = map[ValueType]string{
	BoolType:    "bool",
	IntType:     "int",
	FloatType:   "float",
	StringType:  "string",
	StringsType: "strings",
}

func (t ValueType) String() string {
	if name, ok := valueTypeNames[t]; ok {
		return name
	}

	return fmt.Sprintf("ValueType(%d)", uint8(t))
}

// Valid reports whether t is one of the known value types.
func (t ValueType) Valid() bool {
	_, ok := valueTypeNames[t]

	return ok
}

// CtyType returns the cty type values of t are stored as.
func (t ValueType) CtyType() cty.Type {
	switch t {
	case BoolType:
		return cty.Bool
	case IntType, FloatType:
		return cty.Number
	case StringType:
		return cty.String
	case StringsType:
		return cty.List(cty.String)
	default:
		return cty.DynamicPseudoType
	}
}

// Provenance is the source a resolved option value came from.
// Higher values take precedence over lower ones.
type Provenance uint8

const (
	Default Provenance = iota
	LoadedModel
	CommandLine
)

func (p Provenance) String() string {
	switch p {
	case Default:
		return "default"
	case LoadedModel:
		return "loaded_model"
	case CommandLine:
		return "command_line"
	default:
		return fmt.Sprintf("Provenance(%d)", uint8(p))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Provenance) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// OptionSpec declares an option: its type, its default and the stage owning it.
type OptionSpec struct {
	Name    string
	Type    ValueType
	Default cty.Value
	Owner   StageID
	// MutableAfterLoad lets the command line override a value stored in a loaded model.
	MutableAfterLoad bool
	Help             string
}

// OptionValue is a resolved option value and where it came from.
type OptionValue struct {
	Name       string
	Value      cty.Value
	Provenance Provenance
}

// OptionReader gives typed read access to resolved option values.
type OptionReader interface {
	Bool(name string) (bool, error)
	Int(name string) (int, error)
	Float(name string) (float64, error)
	String(name string) (string, error)
	Strings(name string) ([]string, error)
}
