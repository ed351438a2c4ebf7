package model

// Feature is a single named feature value within a namespace.
type Feature struct {
	Namespace string
	Name      string
	Value     float64
}

// Example is the unit of data flowing through a pipeline.
type Example struct {
	Tag      string
	Features []Feature
	// Label is only used when HasLabel is set.
	Label    float64
	HasLabel bool

	Prediction float64
	Class      int
	Costs      []float64
	Action     int
	Queried    bool
	Sequence   []int

	// Trace lists the stages the example went through, in order.
	Trace []StageID
}
