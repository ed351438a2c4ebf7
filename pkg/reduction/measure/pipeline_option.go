package measure

import (
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-reductions/pkg/reduction/model"
)

var ErrUnknownStage = errors.New("unknown stage")

type pipelineMeasure struct {
	Measure
	startTime time.Time
}

// New drops the metrics of any previous assembly.
func (pm *pipelineMeasure) New() error {
	pm.Reset()
	pm.startTime = time.Now()
	pm.AddMetric(string(model.InputStage.ID))
	pm.AddMetric(string(model.OutputStage.ID))

	return nil
}

func (pm *pipelineMeasure) PrepareStage(_, stage *model.StageInfo) error {
	if stage.ID == model.OutputStage.ID {
		return nil
	}

	pm.AddMetric(string(stage.ID))

	return nil
}

func (pm *pipelineMeasure) StartRun() error {
	pm.startTime = time.Now()

	return nil
}

func (pm *pipelineMeasure) OnStageOutput(parent, stage *model.StageInfo, iterationDuration, computationDuration time.Duration) error {
	mt := pm.GetMetric(string(stage.ID))
	if mt == nil {
		return errors.Wrapf(ErrUnknownStage, "no metric for stage %q", stage.ID)
	}

	mt.AddDuration(computationDuration)
	mt.AddTransportDuration(string(parent.ID), iterationDuration)

	return nil
}

// Finish records the time elapsed since the assembly or the last run started
// as the total duration of the output stage.
func (pm *pipelineMeasure) Finish() error {
	pm.GetMetric(string(model.OutputStage.ID)).SetTotalDuration(time.Since(pm.startTime))

	return nil
}

// PipelineMeasure returns an assembly option recording stage durations into measure.
func PipelineMeasure(measure Measure) model.AssemblyOption {
	return &pipelineMeasure{Measure: measure}
}
