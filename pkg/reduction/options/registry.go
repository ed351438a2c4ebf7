package options

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/askiada/go-reductions/pkg/reduction/model"
)

// Registry holds every declared option. It is written while stages register
// their options and becomes read-only once sealed, which happens on the first
// resolution against it.
type Registry struct {
	mu     sync.RWMutex
	specs  map[string]*model.OptionSpec
	order  []string
	sealed atomic.Bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		specs: make(map[string]*model.OptionSpec),
	}
}

// Register declares an option. Registering the same name again with the same
// type is a no-op and the first declaration is kept.
func (r *Registry) Register(spec model.OptionSpec) error {
	if r.sealed.Load() {
		return errors.Wrapf(ErrRegistrySealed, "unable to register option %q", spec.Name)
	}

	if spec.Name == "" {
		return errors.New("option name must be set")
	}

	if !spec.Type.Valid() {
		return &TypeError{Name: spec.Name, Want: spec.Type, Value: formatValue(spec.Default), Err: errors.New("invalid option type")}
	}

	def, err := convertValue(spec.Name, spec.Type, spec.Default)
	if err != nil {
		return errors.Wrap(err, "invalid default")
	}

	spec.Default = def

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed.Load() {
		return errors.Wrapf(ErrRegistrySealed, "unable to register option %q", spec.Name)
	}

	if existing, ok := r.specs[spec.Name]; ok {
		if existing.Type != spec.Type {
			return &DuplicateOptionError{Name: spec.Name, Existing: existing.Type, Requested: spec.Type}
		}

		return nil
	}

	r.specs[spec.Name] = &spec
	r.order = append(r.order, spec.Name)

	return nil
}

// MustRegister is like Register but panics on error. It is meant for static stage tables.
func (r *Registry) MustRegister(specs ...model.OptionSpec) {
	for _, spec := range specs {
		if err := r.Register(spec); err != nil {
			panic(err)
		}
	}
}

// Lookup returns the spec registered under name.
func (r *Registry) Lookup(name string) (model.OptionSpec, error) {
	spec, ok := r.lookup(name)
	if !ok {
		return model.OptionSpec{}, &UnknownOptionError{Name: name, Source: model.Default}
	}

	return *spec, nil
}

func (r *Registry) lookup(name string) (*model.OptionSpec, bool) {
	if r.sealed.Load() {
		spec, ok := r.specs[name]

		return spec, ok
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	spec, ok := r.specs[name]

	return spec, ok
}

// Specs returns every spec, in registration order.
func (r *Registry) Specs() []model.OptionSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]model.OptionSpec, len(r.order))
	for i, name := range r.order {
		specs[i] = *r.specs[name]
	}

	return specs
}

// Seal makes the registry read-only. Further registrations fail with ErrRegistrySealed.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sealed.Store(true)
}

// Sealed reports whether the registry is read-only.
func (r *Registry) Sealed() bool {
	return r.sealed.Load()
}
