package options

import (
	"sort"

	"github.com/zclconf/go-cty/cty"

	"github.com/askiada/go-reductions/pkg/reduction/model"
)

// Resolve merges the defaults declared in reg, the options stored in a loaded
// model and the options given on the command line into one Configuration.
//
// For each option the command line wins over the loaded model, which wins over
// the default. A loaded value can only be replaced when the option is mutable
// after load; asking for a different value otherwise fails with a ConflictError.
// loaded is nil when no model was loaded.
//
// Resolve does not modify its inputs. The registry is sealed on first use.
func Resolve(reg *Registry, loaded, cmdline Bag) (*Configuration, error) {
	if reg == nil {
		return nil, ErrRegistryMustBeSet
	}

	reg.Seal()

	err := checkKnown(reg, loaded, model.LoadedModel)
	if err != nil {
		return nil, err
	}

	err = checkKnown(reg, cmdline, model.CommandLine)
	if err != nil {
		return nil, err
	}

	specs := reg.Specs()
	sort.Slice(specs, func(i, j int) bool {
		return specs[i].Name < specs[j].Name
	})

	cfg := newConfiguration(len(specs))

	for i := range specs {
		spec := &specs[i]

		val, prov, err := resolveOne(spec, loaded, cmdline)
		if err != nil {
			return nil, err
		}

		cfg.set(spec, val, prov)
	}

	cfg.finish()

	return cfg, nil
}

func checkKnown(reg *Registry, bag Bag, source model.Provenance) error {
	for _, name := range bag.Names() {
		if _, ok := reg.lookup(name); !ok {
			return &UnknownOptionError{Name: name, Source: source}
		}
	}

	return nil
}

func resolveOne(spec *model.OptionSpec, loaded, cmdline Bag) (cty.Value, model.Provenance, error) {
	loadedRaw, hasLoaded := loaded[spec.Name]
	cmdRaw, hasCmd := cmdline[spec.Name]

	var loadedVal, cmdVal cty.Value

	var err error

	if hasLoaded {
		loadedVal, err = convertValue(spec.Name, spec.Type, loadedRaw)
		if err != nil {
			return cty.NilVal, model.Default, err
		}
	}

	if hasCmd {
		cmdVal, err = convertValue(spec.Name, spec.Type, cmdRaw)
		if err != nil {
			return cty.NilVal, model.Default, err
		}
	}

	switch {
	case hasLoaded && hasCmd:
		if spec.MutableAfterLoad {
			return cmdVal, model.CommandLine, nil
		}

		if !loadedVal.RawEquals(cmdVal) {
			return cty.NilVal, model.Default, &ConflictError{
				Name:      spec.Name,
				Loaded:    formatValue(loadedVal),
				Requested: formatValue(cmdVal),
			}
		}

		return loadedVal, model.LoadedModel, nil
	case hasCmd:
		return cmdVal, model.CommandLine, nil
	case hasLoaded:
		return loadedVal, model.LoadedModel, nil
	default:
		return spec.Default, model.Default, nil
	}
}
