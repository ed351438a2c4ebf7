package reduction

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-reductions/internal/ctxlog"
	"github.com/askiada/go-reductions/pkg/reduction/model"
	"github.com/askiada/go-reductions/pkg/reduction/options"
)

type stage struct {
	info   *model.StageInfo
	parent *model.StageInfo
	impl   model.Stage
}

// Pipeline is an ordered list of built stages. It owns its stages, which may
// keep state between examples: a Pipeline must not be shared between
// goroutines.
type Pipeline struct {
	stages []*stage
	opts   []model.AssemblyOption
}

// Assemble builds descs in order and chains them into a pipeline. Each stage
// only sees the options it declares. The first stage must take raw examples
// and each following stage must take what the previous one produces.
func Assemble(ctx context.Context, descs []*model.StageDescriptor, cfg *options.Configuration, opts ...model.AssemblyOption) (*Pipeline, error) {
	return assemble(ctx, descs, cfg, nil, opts...)
}

func assemble(
	ctx context.Context,
	descs []*model.StageDescriptor,
	cfg *options.Configuration,
	enabledBy func(model.StageID) string,
	opts ...model.AssemblyOption,
) (*Pipeline, error) {
	if cfg == nil {
		return nil, ErrConfigurationMustBeSet
	}

	err := checkContracts(descs)
	if err != nil {
		return nil, err
	}

	for _, opt := range opts {
		err := opt.New()
		if err != nil {
			return nil, errors.Wrap(err, "unable to apply assembly option")
		}
	}

	pipe := &Pipeline{
		stages: make([]*stage, 0, len(descs)),
		opts:   opts,
	}
	parent := model.InputStage

	for pos, desc := range descs {
		impl, err := desc.Build(cfg.View(desc.Options...))
		if err != nil {
			return nil, errors.Wrapf(err, "unable to build stage %q", desc.ID)
		}

		info := &model.StageInfo{
			ID:       desc.ID,
			Position: pos,
			Input:    desc.Input,
			Output:   desc.Output,
		}

		if enabledBy != nil {
			info.EnabledBy = enabledBy(desc.ID)
		}

		err = pipe.prepareStage(parent, info)
		if err != nil {
			return nil, err
		}

		pipe.stages = append(pipe.stages, &stage{info: info, parent: parent, impl: impl})
		parent = info
	}

	err = pipe.prepareStage(parent, model.OutputStage)
	if err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Debug("pipeline assembled", "stages", pipe.IDs())

	err = pipe.finish()
	if err != nil {
		return nil, err
	}

	return pipe, nil
}

func checkContracts(descs []*model.StageDescriptor) error {
	got := model.RawContract

	for pos, desc := range descs {
		if desc == nil {
			return errors.Wrapf(ErrInternalConsistency, "stage at position %d is not set", pos)
		}

		if desc.Input != got {
			return &InternalError{Stage: desc.ID, Position: pos, Want: desc.Input, Got: got}
		}

		got = desc.Output
	}

	return nil
}

func (p *Pipeline) prepareStage(parent, info *model.StageInfo) error {
	for _, opt := range p.opts {
		err := opt.PrepareStage(parent, info)
		if err != nil {
			return errors.Wrapf(err, "unable to prepare stage %q", info.ID)
		}
	}

	return nil
}

func (p *Pipeline) finish() error {
	for _, opt := range p.opts {
		err := opt.Finish()
		if err != nil {
			return errors.Wrap(err, "unable to finish assembly option")
		}
	}

	return nil
}

// IDs returns the stage ids in processing order.
func (p *Pipeline) IDs() []model.StageID {
	ids := make([]model.StageID, len(p.stages))
	for i, st := range p.stages {
		ids[i] = st.info.ID
	}

	return ids
}

// Stages returns a copy of the placed stages, in processing order.
func (p *Pipeline) Stages() []model.StageInfo {
	out := make([]model.StageInfo, len(p.stages))
	for i, st := range p.stages {
		out[i] = *st.info
	}

	return out
}

// Output returns the contract of what the pipeline produces.
func (p *Pipeline) Output() model.Contract {
	if len(p.stages) == 0 {
		return model.RawContract
	}

	return p.stages[len(p.stages)-1].info.Output
}

// Process runs ex through every stage.
func (p *Pipeline) Process(ctx context.Context, ex *model.Example) error {
	if p == nil {
		return ErrPipelineMustBeSet
	}

	if ex == nil {
		return ErrExampleMustBeSet
	}

	for _, st := range p.stages {
		err := ctx.Err()
		if err != nil {
			return err
		}

		start := time.Now()

		err = st.impl.Process(ctx, ex)
		if err != nil {
			return &StageError{Stage: st.info.ID, Err: err}
		}

		elapsed := time.Since(start)

		err = p.onStageOutput(st, elapsed, elapsed)
		if err != nil {
			return err
		}
	}

	return nil
}

func (p *Pipeline) onStageOutput(st *stage, iteration, computation time.Duration) error {
	for _, opt := range p.opts {
		err := opt.OnStageOutput(st.parent, st.info, iteration, computation)
		if err != nil {
			return errors.Wrapf(err, "unable to record output of stage %q", st.info.ID)
		}
	}

	return nil
}

// Run streams the examples of in through the pipeline into out, until in is
// closed. Every stage runs in its own goroutine. Run closes out when it
// returns, and stops on the first error.
func (p *Pipeline) Run(ctx context.Context, in <-chan *model.Example, out chan<- *model.Example, opts ...RunOption) error {
	if p == nil {
		return ErrPipelineMustBeSet
	}

	if in == nil {
		return ErrInputMustBeSet
	}

	if out == nil {
		return ErrOutputMustBeSet
	}

	cfg := &runConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	for _, opt := range p.opts {
		err := opt.StartRun()
		if err != nil {
			close(out)

			return errors.Wrap(err, "unable to start run")
		}
	}

	errGrp, dCtx := errgroup.WithContext(ctx)
	input := in
	last := len(p.stages) - 1

	for i, st := range p.stages {
		stageInput := input

		if i == last {
			errGrp.Go(func() error {
				defer close(out)

				return p.runStage(dCtx, st, stageInput, out)
			})

			break
		}

		output := make(chan *model.Example, cfg.bufferSize)

		errGrp.Go(func() error {
			defer close(output)

			return p.runStage(dCtx, st, stageInput, output)
		})

		input = output
	}

	if len(p.stages) == 0 {
		errGrp.Go(func() error {
			defer close(out)

			return forward(dCtx, in, out)
		})
	}

	err := errGrp.Wait()
	if err != nil {
		return err
	}

	return p.finish()
}
