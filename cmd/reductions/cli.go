package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/askiada/go-reductions/pkg/reduction/model"
	"github.com/askiada/go-reductions/pkg/reduction/options"
)

// ExitError is an error carrying the exit code of the process.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

type config struct {
	modelPath   string
	savePath    string
	dotPath     string
	optionsFile string
	dataPath    string
	describe    bool
	describeAll bool
	logLevel    string
	logFormat   string
	// cmdline holds the raw value of every option flag that was set.
	cmdline options.Bag
}

// optionFlags collects option flags as raw strings. Repeated flags of a
// strings option are appended.
type optionFlags struct {
	bag      options.Bag
	repeated map[string][]cty.Value
}

func (o *optionFlags) set(spec model.OptionSpec) func(string) error {
	return func(raw string) error {
		if spec.Type != model.StringsType {
			o.bag[spec.Name] = cty.StringVal(raw)

			return nil
		}

		o.repeated[spec.Name] = append(o.repeated[spec.Name], cty.StringVal(raw))
		o.bag[spec.Name] = cty.TupleVal(o.repeated[spec.Name])

		return nil
	}
}

// parse reads args. Every option of reg becomes a flag named after it. It
// returns a nil config when the program should exit cleanly.
func parse(args []string, output io.Writer, reg *options.Registry) (*config, error) {
	flagSet := flag.NewFlagSet("reductions", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
reductions - assemble a learner stack from options and a saved model.

Usage:
  reductions [options] [DATA_PATH]

Arguments:
  DATA_PATH
    File of examples to stream through the pipeline, one per line. "-" reads stdin.

Options:
`)
		flagSet.PrintDefaults()
	}

	cfg := &config{}
	flagSet.StringVar(&cfg.modelPath, "model", "", "Path of the model to load.")
	flagSet.StringVar(&cfg.savePath, "save", "", "Path to write the model to.")
	flagSet.StringVar(&cfg.dotPath, "dot", "", "Path to write the DOT drawing of the pipeline to.")
	flagSet.StringVar(&cfg.optionsFile, "options-file", "", "HCL file of option values. Flags override it.")
	flagSet.BoolVar(&cfg.describe, "describe", false, "Print the options that differ from their default as YAML.")
	flagSet.BoolVar(&cfg.describeAll, "describe-all", false, "Print every option as YAML.")
	flagSet.StringVar(&cfg.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	flagSet.StringVar(&cfg.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	opts := &optionFlags{bag: options.Bag{}, repeated: map[string][]cty.Value{}}

	for _, spec := range reg.Specs() {
		if flagSet.Lookup(spec.Name) != nil {
			return nil, &ExitError{Code: 2, Message: fmt.Sprintf("option %q shadows a command flag", spec.Name)}
		}

		usage := fmt.Sprintf("%s (%s, stage %s)", spec.Help, spec.Type, spec.Owner)

		if spec.Type == model.BoolType {
			flagSet.BoolFunc(spec.Name, usage, opts.set(spec))

			continue
		}

		flagSet.Func(spec.Name, usage, opts.set(spec))
	}

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, nil
		}

		return nil, &ExitError{Code: 2, Message: err.Error()}
	}

	if flagSet.NArg() > 1 {
		return nil, &ExitError{Code: 2, Message: "at most one data path can be given"}
	}

	cfg.dataPath = flagSet.Arg(0)
	cfg.cmdline = opts.bag

	cfg.logFormat = strings.ToLower(cfg.logFormat)
	if cfg.logFormat != "text" && cfg.logFormat != "json" {
		return nil, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	cfg.logLevel = strings.ToLower(cfg.logLevel)
	switch cfg.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	return cfg, nil
}
