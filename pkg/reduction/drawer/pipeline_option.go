package drawer

import (
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-reductions/pkg/reduction/measure"
	"github.com/askiada/go-reductions/pkg/reduction/model"
)

type pipelineDrawer struct {
	Drawer
	m         measure.Measure
	startTime time.Time
}

// New starts a drawing from scratch, so one drawer can follow several assemblies.
func (pd *pipelineDrawer) New() error {
	pd.Reset()
	pd.startTime = time.Now()

	err := pd.AddStage(model.InputStage)
	if err != nil {
		return errors.Wrap(err, "unable to add input stage to drawer")
	}

	err = pd.AddStage(model.OutputStage)
	if err != nil {
		return errors.Wrap(err, "unable to add output stage to drawer")
	}

	return nil
}

func (pd *pipelineDrawer) PrepareStage(parent, stage *model.StageInfo) error {
	if stage.ID != model.OutputStage.ID {
		err := pd.AddStage(stage)
		if err != nil {
			return err
		}
	}

	return pd.AddLink(string(parent.ID), string(stage.ID))
}

func (pd *pipelineDrawer) StartRun() error {
	pd.startTime = time.Now()

	return nil
}

func (pd *pipelineDrawer) OnStageOutput(_, _ *model.StageInfo, _, _ time.Duration) error {
	return nil
}

func (pd *pipelineDrawer) Finish() error {
	if pd.m != nil {
		err := pd.SetTotalTime(string(model.OutputStage.ID), pd.startTime)
		if err != nil {
			return errors.Wrap(err, "unable to set total time")
		}

		err = pd.AddMeasure(pd.m)
		if err != nil {
			return errors.Wrap(err, "unable to add measure")
		}
	}

	err := pd.Draw()
	if err != nil {
		return errors.Wrap(err, "unable to draw pipeline")
	}

	return nil
}

// PipelineDrawer returns an assembly option drawing the pipeline with drawer.
// When msr is set, the drawing also shows the durations it recorded.
func PipelineDrawer(drawer Drawer, msr measure.Measure) model.AssemblyOption {
	return &pipelineDrawer{Drawer: drawer, m: msr}
}
