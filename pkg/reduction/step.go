package reduction

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-reductions/pkg/reduction/model"
)

// runStage feeds the examples of input to st and pushes them to output.
func (p *Pipeline) runStage(ctx context.Context, st *stage, input <-chan *model.Example, output chan<- *model.Example) error {
outer:
	for {
		start := time.Now()
		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "stage %q", st.info.ID)
		case ex, ok := <-input:
			if !ok {
				break outer
			}

			if ex == nil {
				return &StageError{Stage: st.info.ID, Err: ErrExampleMustBeSet}
			}

			startFn := time.Now()

			err := st.impl.Process(ctx, ex)
			if err != nil {
				return &StageError{Stage: st.info.ID, Err: err}
			}

			endFn := time.Since(startFn)

			// check the context again so that no stage keeps pushing once another one failed
			select {
			case <-ctx.Done():
				return errors.Wrapf(ctx.Err(), "stage %q", st.info.ID)
			case output <- ex:
				err := p.onStageOutput(st, time.Since(start), endFn)
				if err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// forward copies input to output for a pipeline without stages.
func forward(ctx context.Context, input <-chan *model.Example, output chan<- *model.Example) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ex, ok := <-input:
			if !ok {
				return nil
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case output <- ex:
			}
		}
	}
}
