package persist

import (
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/zclconf/go-cty/cty"

	"github.com/askiada/go-reductions/pkg/reduction/model"
	"github.com/askiada/go-reductions/pkg/reduction/options"
)

// EngineVersion is written into every snapshot.
var EngineVersion = model.Version{Major: 1, Minor: 0, Rev: 0}

// Snapshot is the persisted form of a configuration.
type Snapshot struct {
	Version model.Version
	ModelID uuid.UUID
	Options options.Bag
	Types   map[string]model.ValueType

	// unknown holds top level fields this version does not know, and
	// optionUnknown the unknown fields of each option.
	unknown       []byte
	optionUnknown map[string][]byte
	// foreign holds the encoded options set aside because the registry
	// reading the snapshot does not declare them.
	foreign map[string][]byte
}

// NewSnapshot captures every value of cfg. Unknown fields of carry, if any,
// are kept so that re-encoding a loaded model does not drop them.
func NewSnapshot(cfg *options.Configuration, id uuid.UUID, carry *Snapshot) (*Snapshot, error) {
	if cfg == nil {
		return nil, ErrConfigurationUnset
	}

	if id == uuid.Nil {
		return nil, ErrModelIDMustBeSet
	}

	snap := &Snapshot{
		Version:       EngineVersion,
		ModelID:       id,
		Options:       cfg.Values(),
		Types:         make(map[string]model.ValueType, cfg.Len()),
		optionUnknown: map[string][]byte{},
		foreign:       map[string][]byte{},
	}

	for _, name := range cfg.Names() {
		t, _ := cfg.Type(name)
		snap.Types[name] = t
	}

	if carry != nil {
		snap.unknown = append([]byte(nil), carry.unknown...)

		for name, raw := range carry.optionUnknown {
			if _, ok := snap.Types[name]; ok {
				snap.optionUnknown[name] = append([]byte(nil), raw...)
			}
		}

		for name, raw := range carry.foreign {
			if _, ok := snap.Types[name]; !ok {
				snap.foreign[name] = append([]byte(nil), raw...)
			}
		}
	}

	return snap, nil
}

// Encode snapshots cfg under the model id of carry and marshals it.
func Encode(cfg *options.Configuration, carry *Snapshot) ([]byte, error) {
	if carry == nil {
		return nil, ErrModelIDMustBeSet
	}

	snap, err := NewSnapshot(cfg, carry.ModelID, carry)
	if err != nil {
		return nil, err
	}

	return snap.Marshal()
}

// SetAside moves the options known rejects out of Options. They are kept
// encoded and written back by Marshal, and by any snapshot carrying this one.
// It returns their names, sorted.
func (s *Snapshot) SetAside(known func(name string) bool) ([]string, error) {
	if s.foreign == nil {
		s.foreign = map[string][]byte{}
	}

	names := []string{}

	for _, name := range s.Options.Names() {
		if known(name) {
			continue
		}

		raw, err := s.marshalOption(name)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to set aside option %q", name)
		}

		s.foreign[name] = raw
		delete(s.Options, name)
		delete(s.Types, name)
		delete(s.optionUnknown, name)

		names = append(names, name)
	}

	return names, nil
}

// Foreign returns the names of the options set aside, sorted.
func (s *Snapshot) Foreign() []string {
	names := make([]string, 0, len(s.foreign))
	for name := range s.foreign {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// HasUnknownFields reports whether the snapshot carries fields this version does not know.
func (s *Snapshot) HasUnknownFields() bool {
	if len(s.unknown) > 0 || len(s.foreign) > 0 {
		return true
	}

	for _, raw := range s.optionUnknown {
		if len(raw) > 0 {
			return true
		}
	}

	return false
}

func zeroValue(t model.ValueType) (cty.Value, error) {
	switch t {
	case model.BoolType:
		return cty.False, nil
	case model.IntType:
		return cty.NumberIntVal(0), nil
	case model.FloatType:
		return cty.NumberFloatVal(0), nil
	case model.StringType:
		return cty.StringVal(""), nil
	case model.StringsType:
		return cty.ListValEmpty(cty.String), nil
	default:
		return cty.NilVal, errors.Errorf("unknown option type %d", t)
	}
}
