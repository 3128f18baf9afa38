package graph

import (
	"reflect"

	"github.com/rivcore/riv/rerr"
)

// capabilityKey identifies a capability interface without runtime
// type identification at query time: nodes register which
// capabilities they satisfy once, at construction, and Select later
// does a plain map lookup keyed by the capability's static type
// (spec.md §9 "Dynamic dispatch to arbitrary capabilities").
type capabilityKey reflect.Type

func keyFor[T any]() capabilityKey {
	var zero T
	return reflect.TypeOf(&zero).Elem()
}

// RegisterCapability declares that node id implements capability T,
// backed by impl. A node may register more than one capability.
func RegisterCapability[T any](g *Graph, id ID, impl T) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.nodes[id]
	if !ok {
		return rerr.Newf(rerr.NullArgument, "register capability: unknown node id %d", id)
	}
	rec.capabilities[keyFor[T]()] = impl
	return nil
}

// Capability returns id's own registered implementation of capability
// T, if any. Unlike Select, which filters neighbours, Capability
// looks at the node itself — used to recover a concrete object (e.g.
// a data binding) from its graph handle.
func Capability[T any](g *Graph, id ID) (T, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var zero T
	rec, ok := g.nodes[id]
	if !ok {
		return zero, false
	}
	impl, ok := rec.capabilities[keyFor[T]()]
	if !ok {
		return zero, false
	}
	return impl.(T), true
}

// Select returns every neighbour of id that has registered capability
// T, without inspecting any neighbour's full interface set.
func Select[T any](g *Graph, id ID) []T {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rec, ok := g.nodes[id]
	if !ok {
		return nil
	}

	key := keyFor[T]()
	var out []T
	for n := range rec.neighbours {
		nrec, ok := g.nodes[n]
		if !ok {
			continue
		}
		if impl, ok := nrec.capabilities[key]; ok {
			out = append(out, impl.(T))
		}
	}
	return out
}
