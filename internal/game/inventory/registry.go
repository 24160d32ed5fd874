package inventory

import (
	"fmt"
	"slices"
)

// Registry indexes item definitions by ID. It is read-only once built, and a
// nil Registry behaves as an empty one.
type Registry struct {
	defs map[string]*ItemDef
}

// NewRegistryFromDefs indexes defs, rejecting duplicate IDs.
func NewRegistryFromDefs(defs []*ItemDef) (*Registry, error) {
	r := &Registry{defs: make(map[string]*ItemDef, len(defs))}
	for _, d := range defs {
		if _, dup := r.defs[d.ID]; dup {
			return nil, fmt.Errorf("item %q defined twice", d.ID)
		}
		r.defs[d.ID] = d
	}
	return r, nil
}

// Item returns the definition registered for id.
func (r *Registry) Item(id string) (*ItemDef, bool) {
	if r == nil {
		return nil, false
	}
	d, ok := r.defs[id]
	return d, ok
}

// Resolve returns the definition for id. Unknown IDs resolve to a stackable
// material named after the ID, so loot from unlisted items still stacks.
//
// Postcondition: the returned def is never nil.
func (r *Registry) Resolve(id string) *ItemDef {
	if d, ok := r.Item(id); ok {
		return d
	}
	return &ItemDef{ID: id, Name: id, Kind: KindMaterial, Stackable: true, MaxStack: DefaultMaxStack}
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.defs)
}

// Unknown returns the sorted, de-duplicated subset of ids with no definition.
func (r *Registry) Unknown(ids ...string) []string {
	var out []string
	for _, id := range ids {
		if _, ok := r.Item(id); !ok {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
