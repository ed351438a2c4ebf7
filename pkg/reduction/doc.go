// Package reduction assembles learner stacks.
//
// A stack is built in three steps. Options coming from the defaults, from a
// loaded model and from the command line are merged into a single
// configuration (see the options package). The configuration selects the
// stages to use and orders them by their prerequisites (see the stages
// package). The selected stages are then built and chained into a Pipeline,
// each stage reading its input from the output of the previous one.
//
// Setup runs the three steps from a command line and a model buffer, and
// returns the option snapshot to store back into the model so that a later
// run rebuilds the same stack.
//
// A Pipeline processes examples one at a time with Process, or streams them
// with Run. Run gives every stage its own goroutine and links consecutive
// stages with channels. It stops on the first error.
package reduction
