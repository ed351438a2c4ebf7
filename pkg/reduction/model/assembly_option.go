package model

import "time"

// AssemblyOption defines the interface for options observing a pipeline assembly and its runs.
type AssemblyOption interface {
	// New initialises the assembly option.
	New() error
	// PrepareStage runs once a stage has been built, before it is appended to the pipeline.
	PrepareStage(parent, stage *StageInfo) error
	// StartRun runs at the start of each Pipeline.Run.
	StartRun() error
	// OnStageOutput runs everytime a stage finishes processing an example.
	OnStageOutput(parent, stage *StageInfo, iterationDuration, computationDuration time.Duration) error
	// Finish runs after the pipeline is assembled, and again after each run.
	Finish() error
}
