package wizard

import (
	"fmt"
	"slices"
)

// Registry is the ordered, read-only list of step definitions. Order defines
// linear navigation; the id index exists only for lookup.
type Registry struct {
	defs  []StepDefinition
	index map[string]int
}

// NewRegistry copies defs into a new Registry. It rejects an empty list,
// empty IDs and duplicate IDs.
func NewRegistry(defs []StepDefinition) (*Registry, error) {
	if len(defs) == 0 {
		return nil, ErrNoSteps
	}

	r := &Registry{
		defs:  make([]StepDefinition, len(defs)),
		index: make(map[string]int, len(defs)),
	}
	for i, def := range defs {
		if def.ID == "" {
			return nil, fmt.Errorf("%w (position %d)", ErrEmptyStepID, i)
		}
		if prev, ok := r.index[def.ID]; ok {
			return nil, fmt.Errorf("%w: %q at positions %d and %d", ErrDuplicateStep, def.ID, prev, i)
		}
		def.FieldNames = slices.Clone(def.FieldNames)
		r.defs[i] = def
		r.index[def.ID] = i
	}
	return r, nil
}

// Len returns the number of steps.
func (r *Registry) Len() int { return len(r.defs) }

// At returns the definition at position i.
func (r *Registry) At(i int) (StepDefinition, bool) {
	if i < 0 || i >= len(r.defs) {
		return StepDefinition{}, false
	}
	def := r.defs[i]
	def.FieldNames = slices.Clone(def.FieldNames)
	return def, true
}

// IndexOf returns the position of the step with the given ID.
func (r *Registry) IndexOf(id string) (int, bool) {
	i, ok := r.index[id]
	return i, ok
}

// Resolve turns a Target into an index within [0, Len()).
func (r *Registry) Resolve(t Target) (int, bool) {
	if t.byID {
		return r.IndexOf(t.id)
	}
	if t.index < 0 || t.index >= len(r.defs) {
		return 0, false
	}
	return t.index, true
}

// IDs returns the step IDs in order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.defs))
	for i, def := range r.defs {
		ids[i] = def.ID
	}
	return ids
}

// def returns the stored definition without copying FieldNames. Callers in
// this package must not modify it.
func (r *Registry) def(i int) *StepDefinition {
	return &r.defs[i]
}
