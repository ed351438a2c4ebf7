// Package learners declares the built-in stages: their options, how they are
// activated, how they depend on each other and minimal implementations of
// their processing.
//
// The arithmetic here only keeps examples flowing through an assembled
// pipeline. The learning algorithms themselves live outside this module.
package learners
