// Package stages selects the stages a configuration asks for and orders them
// by their prerequisites.
package stages

import (
	"strconv"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"

	"github.com/askiada/go-reductions/internal/store"
	"github.com/askiada/go-reductions/pkg/reduction/model"
	"github.com/askiada/go-reductions/pkg/reduction/options"
)

// Reasons a stage is enabled.
const (
	EnabledAlways     = "always"
	EnabledByOption   = "option"
	EnabledDependency = "dependency"
)

// Vertex attribute keys set on the selection graph.
const (
	AttributeEnabledBy = "enabled_by"
	AttributePosition  = "position"
)

// Factory holds a stage table. The table's declaration order breaks ties
// between stages that do not depend on each other.
type Factory struct {
	table []*model.StageDescriptor
	index map[model.StageID]int
}

// NewFactory validates table and returns a factory for it.
func NewFactory(table []*model.StageDescriptor) (*Factory, error) {
	f := &Factory{
		table: table,
		index: make(map[model.StageID]int, len(table)),
	}

	for i, desc := range table {
		if desc == nil || desc.ID == "" {
			return nil, errors.Wrapf(ErrInvalidTable, "stage %d: id must be set", i)
		}

		if _, ok := f.index[desc.ID]; ok {
			return nil, errors.Wrapf(ErrInvalidTable, "stage %q declared twice", desc.ID)
		}

		if desc.Build == nil {
			return nil, errors.Wrapf(ErrInvalidTable, "stage %q: build function must be set", desc.ID)
		}

		f.index[desc.ID] = i
	}

	for _, desc := range table {
		err := f.checkReferences(desc)
		if err != nil {
			return nil, err
		}
	}

	return f, nil
}

func (f *Factory) checkReferences(desc *model.StageDescriptor) error {
	known := func(id model.StageID) error {
		if _, ok := f.index[id]; !ok {
			return errors.Wrapf(ErrInvalidTable, "stage %q refers to unknown stage %q", desc.ID, id)
		}

		return nil
	}

	for _, pre := range desc.Prerequisites {
		if len(pre.OneOf) == 0 {
			return errors.Wrapf(ErrInvalidTable, "stage %q has an empty prerequisite", desc.ID)
		}

		for _, id := range pre.OneOf {
			if err := known(id); err != nil {
				return err
			}
		}

		if pre.Substitute != "" {
			if err := known(pre.Substitute); err != nil {
				return err
			}
		}
	}

	for _, id := range desc.Excludes {
		if err := known(id); err != nil {
			return err
		}
	}

	return nil
}

// Stages returns the table in declaration order.
func (f *Factory) Stages() []*model.StageDescriptor {
	out := make([]*model.StageDescriptor, len(f.table))
	copy(out, f.table)

	return out
}

// Descriptor returns the stage declared under id.
func (f *Factory) Descriptor(id model.StageID) (*model.StageDescriptor, bool) {
	i, ok := f.index[id]
	if !ok {
		return nil, false
	}

	return f.table[i], true
}

// Selection is the ordered list of stages enabled by a configuration.
type Selection struct {
	Stages    []*model.StageDescriptor
	enabledBy map[model.StageID]string
	graph     graph.Graph[string, *model.StageDescriptor]
}

// EnabledBy returns why id was enabled, or "" when it was not.
func (s *Selection) EnabledBy(id model.StageID) string {
	return s.enabledBy[id]
}

// IDs returns the selected stage ids in pipeline order.
func (s *Selection) IDs() []model.StageID {
	ids := make([]model.StageID, len(s.Stages))
	for i, desc := range s.Stages {
		ids[i] = desc.ID
	}

	return ids
}

// Graph returns the dependency graph of the selected stages, edges going from
// a prerequisite to its dependent.
func (s *Selection) Graph() graph.Graph[string, *model.StageDescriptor] {
	return s.graph
}

// Select returns the stages cfg enables, prerequisites first.
func (f *Factory) Select(cfg *options.Configuration) (*Selection, error) {
	if cfg == nil {
		return nil, ErrConfigurationMustBeSet
	}

	enabled, err := f.enable(cfg)
	if err != nil {
		return nil, err
	}

	err = f.checkExcludes(enabled)
	if err != nil {
		return nil, err
	}

	st := store.NewMemoryStore[*model.StageDescriptor]()
	gra := graph.NewWithStore(stageHash, st, graph.Directed(), graph.PreventCycles())

	for i, desc := range f.table {
		reason, ok := enabled[desc.ID]
		if !ok {
			continue
		}

		err := gra.AddVertex(desc, graph.VertexAttribute(AttributeEnabledBy, reason), graph.VertexWeight(i))
		if err != nil {
			return nil, errors.Wrapf(err, "unable to add stage %q", desc.ID)
		}
	}

	for _, desc := range f.table {
		if _, ok := enabled[desc.ID]; !ok {
			continue
		}

		err := f.link(gra, desc, enabled)
		if err != nil {
			return nil, err
		}
	}

	order, err := graph.StableTopologicalSort(gra, func(a, b string) bool {
		return f.index[model.StageID(a)] < f.index[model.StageID(b)]
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to order stages")
	}

	sel := &Selection{
		Stages:    make([]*model.StageDescriptor, len(order)),
		enabledBy: enabled,
		graph:     gra,
	}

	for pos, id := range order {
		sel.Stages[pos] = f.table[f.index[model.StageID(id)]]

		err := st.UpdateVertex(id, graph.VertexAttribute(AttributePosition, strconv.Itoa(pos)))
		if err != nil {
			return nil, errors.Wrapf(err, "unable to record position of stage %q", id)
		}
	}

	return sel, nil
}

// enable seeds the stages asked for by cfg and then enables substitutes for
// missing prerequisites until nothing changes.
func (f *Factory) enable(cfg *options.Configuration) (map[model.StageID]string, error) {
	enabled := make(map[model.StageID]string)

	for _, desc := range f.table {
		if desc.Always {
			enabled[desc.ID] = EnabledAlways

			continue
		}

		if desc.Activate == nil {
			continue
		}

		active, err := desc.Activate(cfg.View(desc.Options...))
		if err != nil {
			return nil, errors.Wrapf(err, "unable to check activation of stage %q", desc.ID)
		}

		if active {
			enabled[desc.ID] = EnabledByOption
		}
	}

	for changed := true; changed; {
		changed = false

		for _, desc := range f.table {
			if _, ok := enabled[desc.ID]; !ok {
				continue
			}

			for _, pre := range desc.Prerequisites {
				if pre.Optional || anyEnabled(enabled, pre.OneOf) {
					continue
				}

				if pre.Substitute == "" {
					return nil, &MissingDependencyError{Stage: desc.ID, OneOf: pre.OneOf}
				}

				if _, ok := enabled[pre.Substitute]; !ok {
					enabled[pre.Substitute] = EnabledDependency
					changed = true
				}
			}
		}
	}

	return enabled, nil
}

func (f *Factory) checkExcludes(enabled map[model.StageID]string) error {
	for _, desc := range f.table {
		if _, ok := enabled[desc.ID]; !ok {
			continue
		}

		for _, other := range desc.Excludes {
			if _, ok := enabled[other]; ok {
				return &IncompatibleStagesError{Stage: desc.ID, Other: other}
			}
		}
	}

	return nil
}

func (f *Factory) link(gra graph.Graph[string, *model.StageDescriptor], desc *model.StageDescriptor, enabled map[model.StageID]string) error {
	for _, pre := range desc.Prerequisites {
		parents := make([]model.StageID, 0, len(pre.OneOf)+1)
		parents = append(parents, pre.OneOf...)

		if pre.Substitute != "" {
			parents = append(parents, pre.Substitute)
		}

		for _, parent := range parents {
			if _, ok := enabled[parent]; !ok {
				continue
			}

			err := gra.AddEdge(string(parent), string(desc.ID))

			switch {
			case err == nil, errors.Is(err, graph.ErrEdgeAlreadyExists):
				continue
			case errors.Is(err, graph.ErrEdgeCreatesCycle):
				return cycleError(gra, parent, desc.ID)
			default:
				return errors.Wrapf(err, "unable to link stage %q to %q", parent, desc.ID)
			}
		}
	}

	return nil
}

// cycleError names the stages already leading from child back to parent,
// which the edge parent -> child would close into a cycle.
func cycleError(gra graph.Graph[string, *model.StageDescriptor], parent, child model.StageID) error {
	if parent == child {
		return &CycleError{Stages: []model.StageID{parent}}
	}

	path, err := graph.ShortestPath(gra, string(child), string(parent))
	if err != nil {
		return &CycleError{Stages: []model.StageID{parent, child}}
	}

	stages := make([]model.StageID, len(path))
	for i, id := range path {
		stages[i] = model.StageID(id)
	}

	return &CycleError{Stages: stages}
}

func anyEnabled(enabled map[model.StageID]string, ids []model.StageID) bool {
	for _, id := range ids {
		if _, ok := enabled[id]; ok {
			return true
		}
	}

	return false
}

func stageHash(desc *model.StageDescriptor) string {
	return string(desc.ID)
}
