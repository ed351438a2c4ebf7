package reduction

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/askiada/go-reductions/internal/ctxlog"
	"github.com/askiada/go-reductions/pkg/reduction/model"
	"github.com/askiada/go-reductions/pkg/reduction/options"
	"github.com/askiada/go-reductions/pkg/reduction/persist"
	"github.com/askiada/go-reductions/pkg/reduction/stages"
)

// State is the progress of an Invocation.
type State int

const (
	Unresolved State = iota
	Resolving
	Resolved
	StagesSelected
	Assembled
	Failed
)

func (s State) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case Resolving:
		return "resolving"
	case Resolved:
		return "resolved"
	case StagesSelected:
		return "stages_selected"
	case Assembled:
		return "assembled"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Setup holds what an invocation needs. A nil Registry or Factory stands for
// the built-in ones.
//
// Options are reset by each assembly, so a Setup can be built again and again.
// They follow one pipeline at a time: a Setup with Options must not be built
// from several goroutines at once.
type Setup struct {
	Registry *options.Registry
	Factory  *stages.Factory
	Options  []model.AssemblyOption
}

// Result is what a successful invocation produces.
type Result struct {
	Pipeline *Pipeline
	Config   *options.Configuration
	// Snapshot is the configuration to store into the model.
	Snapshot *persist.Snapshot
	// Section is Snapshot framed as the option section of a model.
	Section []byte
	// Rest holds the model bytes found after the option section of the loaded model.
	Rest []byte
}

// Model returns the full model to write: the option section followed by the rest.
func (r *Result) Model() []byte {
	out := make([]byte, 0, len(r.Section)+len(r.Rest))
	out = append(out, r.Section...)

	return append(out, r.Rest...)
}

// Build runs a new invocation.
func (s Setup) Build(ctx context.Context, cmdline options.Bag, modelBuf []byte) (*Result, error) {
	return s.NewInvocation().Run(ctx, cmdline, modelBuf)
}

// NewInvocation returns an invocation ready to run once.
func (s Setup) NewInvocation() *Invocation {
	if s.Registry == nil {
		s.Registry = DefaultRegistry()
	}

	if s.Factory == nil {
		s.Factory = DefaultFactory()
	}

	return &Invocation{setup: s}
}

// Invocation turns a command line and a model buffer into a pipeline. It
// goes through Unresolved, Resolving, Resolved, StagesSelected and Assembled,
// or stops in Failed. It can only be run once.
type Invocation struct {
	setup Setup

	mu    sync.Mutex
	state State
	err   error
}

// State returns the current state.
func (inv *Invocation) State() State {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	return inv.state
}

// Err returns the error that made the invocation fail, if any.
func (inv *Invocation) Err() error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	return inv.err
}

func (inv *Invocation) moveTo(state State) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	inv.state = state
}

func (inv *Invocation) fail(err error) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	inv.state = Failed
	inv.err = err

	return err
}

func (inv *Invocation) start() error {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if inv.state != Unresolved {
		return errors.Wrapf(ErrInvocationReused, "invocation is %s", inv.state)
	}

	inv.state = Resolving

	return nil
}

// Run resolves the options of cmdline and of the model held in modelBuf,
// selects the stages they ask for and assembles them.
func (inv *Invocation) Run(ctx context.Context, cmdline options.Bag, modelBuf []byte) (*Result, error) {
	err := inv.start()
	if err != nil {
		return nil, err
	}

	res, err := inv.run(ctx, cmdline, modelBuf)
	if err != nil {
		return nil, inv.fail(err)
	}

	inv.moveTo(Assembled)

	return res, nil
}

func (inv *Invocation) run(ctx context.Context, cmdline options.Bag, modelBuf []byte) (*Result, error) {
	logger := ctxlog.FromContext(ctx)

	loaded, rest, err := inv.load(ctx, modelBuf)
	if err != nil {
		return nil, err
	}

	var loadedOptions options.Bag
	if loaded != nil {
		loadedOptions = loaded.Options
	}

	cfg, err := options.Resolve(inv.setup.Registry, loadedOptions, cmdline)
	if err != nil {
		return nil, err
	}

	inv.moveTo(Resolved)
	logger.Debug("options resolved",
		"options", cfg.Len(),
		"from_model", len(cfg.WithProvenance(model.LoadedModel)),
		"from_command_line", len(cfg.WithProvenance(model.CommandLine)),
	)

	sel, err := inv.setup.Factory.Select(cfg)
	if err != nil {
		return nil, err
	}

	inv.moveTo(StagesSelected)
	logger.Debug("stages selected", "stages", sel.IDs())

	pipe, err := assemble(ctx, sel.Stages, cfg, sel.EnabledBy, inv.setup.Options...)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	if loaded != nil {
		id = loaded.ModelID
	}

	snap, err := persist.NewSnapshot(cfg, id, loaded)
	if err != nil {
		return nil, errors.Wrap(err, "unable to snapshot configuration")
	}

	payload, err := snap.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "unable to encode configuration")
	}

	return &Result{
		Pipeline: pipe,
		Config:   cfg,
		Snapshot: snap,
		Section:  persist.WriteSection(payload, nil),
		Rest:     rest,
	}, nil
}

// load reads the option section of modelBuf. A model without one is a fresh model.
func (inv *Invocation) load(ctx context.Context, modelBuf []byte) (*persist.Snapshot, []byte, error) {
	payload, rest, err := persist.ReadSection(modelBuf)
	if errors.Is(err, persist.ErrNoSection) {
		return nil, rest, nil
	}

	if err != nil {
		return nil, nil, err
	}

	snap, err := persist.Decode(payload)
	if err != nil {
		return nil, nil, err
	}

	if snap.Version.Compare(persist.EngineVersion) > 0 {
		ctxlog.FromContext(ctx).Warn("model written by a newer version",
			"model_version", snap.Version.String(),
			"engine_version", persist.EngineVersion.String(),
		)
	}

	// Options declared by another version are kept as written, not resolved.
	foreign, err := snap.SetAside(func(name string) bool {
		_, err := inv.setup.Registry.Lookup(name)

		return err == nil
	})
	if err != nil {
		return nil, nil, err
	}

	if len(foreign) > 0 {
		ctxlog.FromContext(ctx).Warn("model holds options this version does not declare", "options", foreign)
	}

	return snap, rest, nil
}
