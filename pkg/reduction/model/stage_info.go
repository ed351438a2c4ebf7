package model

// StageInfo describes a stage once it has been placed in a pipeline.
type StageInfo struct {
	ID       StageID
	Position int
	Input    Contract
	Output   Contract
	// EnabledBy says why the stage is part of the pipeline: "always", "option" or "dependency".
	EnabledBy string
}

var (
	// InputStage is the virtual parent of the first stage.
	InputStage = &StageInfo{ID: "input", Position: -1, Output: RawContract}
	// OutputStage is the virtual child of the last stage.
	OutputStage = &StageInfo{ID: "output"}
)
