package model

import "context"

// StageID identifies a stage in the stage table.
type StageID string

// Contract is the kind of data a stage consumes or produces.
type Contract string

const (
	RawContract           Contract = "raw"
	FeaturesContract      Contract = "features"
	ScalarContract        Contract = "scalar"
	MulticlassContract    Contract = "multiclass"
	CostSensitiveContract Contract = "cost_sensitive"
	BanditContract        Contract = "bandit"
	StructuredContract    Contract = "structured"
)

// Stage processes one example at a time.
type Stage interface {
	Process(ctx context.Context, ex *Example) error
}

// Prerequisite is satisfied when any stage of OneOf is enabled.
// When none is, Substitute is enabled in its place. Without a substitute the
// prerequisite is missing, unless Optional is set: an optional prerequisite
// only orders the stage after whichever member is enabled.
type Prerequisite struct {
	OneOf      []StageID
	Substitute StageID
	Optional   bool
}

// StageDescriptor declares a stage: how it is activated, what it depends on,
// which options it owns and how it is built.
type StageDescriptor struct {
	ID            StageID
	Prerequisites []Prerequisite
	Excludes      []StageID
	// Options lists the option names the stage owns. Activate and Build only
	// see those.
	Options []string
	Input   Contract
	Output  Contract
	// Always enables the stage whatever the options say.
	Always bool
	// Activate reports whether the options ask for the stage.
	Activate func(opts OptionReader) (bool, error)
	Build    func(opts OptionReader) (Stage, error)
}
