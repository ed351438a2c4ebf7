// Command reductions resolves learner options against a saved model, assembles
// the learner stack they describe and streams examples through it.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-reductions/internal/ctxlog"
	"github.com/askiada/go-reductions/pkg/reduction"
	"github.com/askiada/go-reductions/pkg/reduction/drawer"
	"github.com/askiada/go-reductions/pkg/reduction/measure"
	"github.com/askiada/go-reductions/pkg/reduction/model"
	"github.com/askiada/go-reductions/pkg/reduction/optfile"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(context.Background(), os.Stdin, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}

		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdin io.Reader, outW, errW io.Writer, args []string) error {
	setup := reduction.Setup{Registry: reduction.DefaultRegistry()}

	cfg, err := parse(args, outW, setup.Registry)
	if err != nil {
		return err
	}

	if cfg == nil {
		return nil
	}

	logger := newLogger(cfg.logLevel, cfg.logFormat, errW)
	ctx = ctxlog.WithLogger(ctx, logger)

	cmdline := cfg.cmdline
	if cfg.optionsFile != "" {
		fromFile, err := optfile.ReadFile(cfg.optionsFile)
		if err != nil {
			return err
		}

		cmdline = optfile.Merge(fromFile, cmdline)
	}

	var modelBuf []byte
	if cfg.modelPath != "" {
		modelBuf, err = os.ReadFile(cfg.modelPath)
		if err != nil {
			return errors.Wrapf(err, "unable to read model %s", cfg.modelPath)
		}
	}

	if cfg.dotPath != "" {
		msr := measure.NewDefaultMeasure()
		setup.Options = append(setup.Options,
			measure.PipelineMeasure(msr),
			drawer.PipelineDrawer(drawer.NewDOTDrawer(cfg.dotPath), msr),
		)
	}

	res, err := setup.Build(ctx, cmdline, modelBuf)
	if err != nil {
		return errors.Wrap(err, "unable to assemble pipeline")
	}

	logger.Info("pipeline assembled",
		"stages", res.Pipeline.IDs(),
		"model_id", res.Snapshot.ModelID.String(),
	)

	if cfg.describe || cfg.describeAll {
		description, err := res.Config.DescribeYAML(cfg.describeAll)
		if err != nil {
			return err
		}

		if _, err := outW.Write(description); err != nil {
			return errors.Wrap(err, "unable to write description")
		}
	}

	if cfg.dataPath != "" {
		err = stream(ctx, res.Pipeline, cfg.dataPath, stdin, outW)
		if err != nil {
			return err
		}
	}

	if cfg.savePath != "" {
		err = os.WriteFile(cfg.savePath, res.Model(), 0o600)
		if err != nil {
			return errors.Wrapf(err, "unable to save model %s", cfg.savePath)
		}

		logger.Debug("model saved", "path", cfg.savePath)
	}

	return nil
}

// stream runs every example of dataPath through pipe and writes one result per line to outW.
func stream(ctx context.Context, pipe *reduction.Pipeline, dataPath string, stdin io.Reader, outW io.Writer) error {
	data := stdin

	if dataPath != "-" {
		file, err := os.Open(dataPath)
		if err != nil {
			return errors.Wrapf(err, "unable to open data %s", dataPath)
		}
		defer file.Close()

		data = file
	}

	in := make(chan *model.Example)
	out := make(chan *model.Example)
	contract := pipe.Output()

	errGrp, dCtx := errgroup.WithContext(ctx)

	errGrp.Go(func() error {
		return readExamples(dCtx, data, in)
	})

	errGrp.Go(func() error {
		return pipe.Run(dCtx, in, out)
	})

	errGrp.Go(func() error {
		for ex := range out {
			if _, err := fmt.Fprintln(outW, formatResult(contract, ex)); err != nil {
				return errors.Wrap(err, "unable to write result")
			}
		}

		return nil
	})

	return errGrp.Wait()
}
