package reduction_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/askiada/go-reductions/internal/learners"
	"github.com/askiada/go-reductions/pkg/reduction"
	"github.com/askiada/go-reductions/pkg/reduction/model"
	"github.com/askiada/go-reductions/pkg/reduction/options"
	"github.com/askiada/go-reductions/pkg/reduction/stages"
)

var errBoom = errors.New("boom")

// traceStage appends its id to the trace and fails on the example tagged failOn.
type traceStage struct {
	id     model.StageID
	failOn string
}

func (s *traceStage) Process(_ context.Context, ex *model.Example) error {
	if s.failOn != "" && ex.Tag == s.failOn {
		return errBoom
	}

	ex.Trace = append(ex.Trace, s.id)

	return nil
}

func traceDesc(id model.StageID, in, out model.Contract) *model.StageDescriptor {
	return &model.StageDescriptor{
		ID:     id,
		Input:  in,
		Output: out,
		Always: true,
		Build: func(model.OptionReader) (model.Stage, error) {
			return &traceStage{id: id}, nil
		},
	}
}

func failingDesc(id model.StageID, in, out model.Contract, failOn string) *model.StageDescriptor {
	desc := traceDesc(id, in, out)
	desc.Build = func(model.OptionReader) (model.Stage, error) {
		return &traceStage{id: id, failOn: failOn}, nil
	}

	return desc
}

func emptyConfig(t *testing.T) *options.Configuration {
	t.Helper()

	cfg, err := options.Resolve(options.NewRegistry(), nil, nil)
	require.NoError(t, err)

	return cfg
}

// builtinSetup returns a setup over the built-in stages with its own registry.
func builtinSetup(t *testing.T, opts ...model.AssemblyOption) reduction.Setup {
	t.Helper()

	reg := options.NewRegistry()
	require.NoError(t, learners.Register(reg))

	f, err := stages.NewFactory(learners.Table())
	require.NoError(t, err)

	return reduction.Setup{Registry: reg, Factory: f, Options: opts}
}

func examples(total int) []*model.Example {
	out := make([]*model.Example, total)
	for i := range out {
		out[i] = &model.Example{
			Tag:      string(rune('a' + i%26)),
			Features: []model.Feature{{Namespace: "words", Name: "w", Value: float64(i)}},
			Label:    1,
			HasLabel: true,
		}
	}

	return out
}

func createInputChan(t *testing.T, exs []*model.Example) chan *model.Example {
	t.Helper()

	inputChan := make(chan *model.Example)

	go func() {
		defer close(inputChan)

		for _, ex := range exs {
			inputChan <- ex
		}
	}()

	return inputChan
}

func processOutputChan(t *testing.T, output <-chan *model.Example) (res []*model.Example) {
	t.Helper()

	for out := range output {
		res = append(res, out)
	}

	return res
}

// recorder is an assembly option recording the calls it receives.
type recorder struct {
	mu       sync.Mutex
	news     int
	runs     int
	finishes int
	links    []string
	outputs  map[model.StageID]int
	enabled  map[model.StageID]string
	failOn   string
}

func newRecorder() *recorder {
	return &recorder{outputs: map[model.StageID]int{}, enabled: map[model.StageID]string{}}
}

func (r *recorder) New() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.news++

	return nil
}

func (r *recorder) StartRun() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failOn == "start" {
		return errBoom
	}

	r.runs++

	return nil
}

func (r *recorder) PrepareStage(parent, stage *model.StageInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failOn == "prepare" {
		return errBoom
	}

	r.links = append(r.links, string(parent.ID)+"->"+string(stage.ID))
	r.enabled[stage.ID] = stage.EnabledBy

	return nil
}

func (r *recorder) OnStageOutput(_, stage *model.StageInfo, _, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.outputs[stage.ID]++

	return nil
}

func (r *recorder) Finish() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.finishes++

	return nil
}

func intVal(i int64) cty.Value { return cty.NumberIntVal(i) }
