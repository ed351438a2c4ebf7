package measure_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-reductions/pkg/reduction/measure"
	"github.com/askiada/go-reductions/pkg/reduction/model"
)

func TestDefaultMetric(t *testing.T) {
	t.Parallel()

	msr := measure.NewDefaultMeasure()
	mt := msr.AddMetric("gd")

	assert.Zero(t, mt.AVGDuration())

	mt.AddDuration(2 * time.Millisecond)
	mt.AddDuration(4 * time.Millisecond)
	mt.AddTransportDuration("features", 10*time.Millisecond)
	mt.AddTransportDuration("features", 20*time.Millisecond)

	assert.Equal(t, 3*time.Millisecond, mt.AVGDuration())
	assert.Equal(t, int64(2), mt.Count())

	transports := mt.AVGTransportDuration()
	assert.Equal(t, measure.TransportInfo{Elapsed: 15 * time.Millisecond, Total: 2}, transports["features"])

	// reading twice does not change the averages
	assert.Equal(t, transports, mt.AVGTransportDuration())

	assert.Same(t, mt, msr.GetMetric("gd"))
	assert.Nil(t, msr.GetMetric("unknown"))
	assert.Len(t, msr.AllMetrics(), 1)
}

func TestPipelineMeasure(t *testing.T) {
	t.Parallel()

	msr := measure.NewDefaultMeasure()
	opt := measure.PipelineMeasure(msr)

	features := &model.StageInfo{ID: "features", Output: model.FeaturesContract}
	gd := &model.StageInfo{ID: "gd", Position: 1, Input: model.FeaturesContract, Output: model.ScalarContract}

	require.NoError(t, opt.New())
	require.NoError(t, opt.PrepareStage(model.InputStage, features))
	require.NoError(t, opt.PrepareStage(features, gd))
	require.NoError(t, opt.PrepareStage(gd, model.OutputStage))

	require.NoError(t, opt.OnStageOutput(model.InputStage, features, time.Millisecond, time.Millisecond))
	require.NoError(t, opt.OnStageOutput(features, gd, 2*time.Millisecond, time.Millisecond))
	require.NoError(t, opt.Finish())

	assert.Len(t, msr.AllMetrics(), 4)
	assert.Equal(t, int64(1), msr.GetMetric("gd").Count())
	assert.Contains(t, msr.GetMetric("gd").AVGTransportDuration(), "features")
	assert.NotZero(t, msr.GetMetric("output").GetTotalDuration())

	err := opt.OnStageOutput(gd, &model.StageInfo{ID: "unknown"}, 0, 0)
	require.ErrorIs(t, err, measure.ErrUnknownStage)
}

func TestPipelineMeasureRestarts(t *testing.T) {
	t.Parallel()

	msr := measure.NewDefaultMeasure()
	opt := measure.PipelineMeasure(msr)
	gd := &model.StageInfo{ID: "gd", Output: model.ScalarContract}

	require.NoError(t, opt.New())
	require.NoError(t, opt.PrepareStage(model.InputStage, gd))
	require.NoError(t, opt.Finish())

	// idle time between assembly and run is not part of the run
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, opt.StartRun())
	require.NoError(t, opt.Finish())
	assert.Less(t, msr.GetMetric("output").GetTotalDuration(), 50*time.Millisecond)

	require.NoError(t, opt.New())
	assert.Nil(t, msr.GetMetric("gd"))
	assert.Len(t, msr.AllMetrics(), 2)
}
