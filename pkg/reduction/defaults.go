package reduction

import (
	"sync"

	"github.com/askiada/go-reductions/internal/learners"
	"github.com/askiada/go-reductions/pkg/reduction/options"
	"github.com/askiada/go-reductions/pkg/reduction/stages"
)

var (
	defaultOnce     sync.Once
	defaultRegistry *options.Registry
	defaultFactory  *stages.Factory
)

func initDefaults() {
	defaultOnce.Do(func() {
		reg := options.NewRegistry()
		reg.MustRegister(learners.Options()...)

		f, err := stages.NewFactory(learners.Table())
		if err != nil {
			panic(err)
		}

		defaultRegistry, defaultFactory = reg, f
	})
}

// DefaultRegistry returns the process wide registry holding the options of
// the built-in stages. It is sealed by the first resolution against it.
func DefaultRegistry() *options.Registry {
	initDefaults()

	return defaultRegistry
}

// DefaultFactory returns the factory of the built-in stages.
func DefaultFactory() *stages.Factory {
	initDefaults()

	return defaultFactory
}
