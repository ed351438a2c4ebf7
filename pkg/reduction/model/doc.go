// Package model provides the data structures shared by the reduction packages.
// It defines the option specifications, the stage descriptors used by the stage factory,
// and the hooks an assembly option can implement to observe the pipeline being built.
package model
