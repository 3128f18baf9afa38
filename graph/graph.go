// Package graph is the object graph and registry of spec.md §4.1: an
// undirected graph of every long-lived riv core object (core,
// providers, communicators, data bindings, sessions, encoders) with
// symmetric connect/disconnect, veto hooks, and core discovery.
package graph

import (
	"sync"

	"github.com/rivcore/riv/rerr"
)

// ID is a stable integer identity into the graph's node arena.
// Representing neighbour edges as ids rather than pointers keeps the
// cyclic object graph (session <-> encoder <-> binding <-> provider
// <-> session) collectible without manual teardown ordering (spec.md
// §9 "Cyclic object graph").
type ID uint64

// ConnectHooks lets a node veto or observe (dis)connection. Nodes
// that do not need this behaviour simply do not implement it; Connect
// and Disconnect fall back to unconditional acceptance.
type ConnectHooks interface {
	// OnConnecting is called on both sides before an edge is added; if
	// either side returns false the connect fails with AbortedByHook.
	OnConnecting(other ID) bool
	OnConnected(other ID)
	// OnDisconnecting is called on both sides before an edge is
	// removed; if either side returns false the disconnect fails with
	// AbortedByHook.
	OnDisconnecting(other ID) bool
	OnDisconnected(other ID)
}

// CoreAware lets a node react to the reachable core appearing or
// disappearing, for nodes that start/stop worker threads in response
// (spec.md §3 "Core").
type CoreAware interface {
	OnCoreDiscovered()
	OnCoreLost()
}

type nodeRecord struct {
	neighbours   map[ID]struct{}
	hooks        ConnectHooks // nil if the node does not veto/observe
	coreAware    CoreAware    // nil if the node does not care about core reachability
	capabilities map[capabilityKey]any
	reachesCore  bool
}

// Graph is the graph lock and node arena. The zero value is not
// usable; use New.
type Graph struct {
	mu      sync.RWMutex
	nodes   map[ID]*nodeRecord
	nextID  ID
	coreID  ID
	hasCore bool
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[ID]*nodeRecord)}
}

// AddNode allocates a fresh id for a node and registers it. hooks and
// coreAware may be nil.
func (g *Graph) AddNode(hooks ConnectHooks, coreAware CoreAware) ID {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.nextID++
	id := g.nextID
	g.nodes[id] = &nodeRecord{
		neighbours:   make(map[ID]struct{}),
		hooks:        hooks,
		coreAware:    coreAware,
		capabilities: make(map[capabilityKey]any),
	}
	return id
}

// SetCore marks id as the unique graph root (spec.md §3 "Core: the
// unique root"). It does not itself run discovery; call RunDiscovery
// after connecting the core's initial neighbours.
func (g *Graph) SetCore(id ID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[id]; !ok {
		return rerr.Newf(rerr.NullArgument, "set core: unknown node id %d", id)
	}
	g.coreID = id
	g.hasCore = true
	return nil
}

// RemoveNode deletes a node record after it has been fully
// disconnected. It is an error to remove a node that still has
// neighbours.
func (g *Graph) RemoveNode(id ID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.nodes[id]
	if !ok {
		return nil
	}
	if len(rec.neighbours) != 0 {
		return rerr.Newf(rerr.InternalError, "remove node %d: still has %d neighbours", id, len(rec.neighbours))
	}
	delete(g.nodes, id)
	return nil
}

// IsNeighbour reports whether a and b are directly connected.
// is_neighbour(a, b) ⇔ is_neighbour(b, a) is an invariant (spec.md §8).
func (g *Graph) IsNeighbour(a, b ID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ra, ok := g.nodes[a]
	if !ok {
		return false
	}
	_, ok = ra.neighbours[b]
	return ok
}

// Neighbours returns a's current neighbour ids.
func (g *Graph) Neighbours(a ID) []ID {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ra, ok := g.nodes[a]
	if !ok {
		return nil
	}
	out := make([]ID, 0, len(ra.neighbours))
	for id := range ra.neighbours {
		out = append(out, id)
	}
	return out
}

// Connect adds a symmetric edge between a and b, firing on_connected
// on both sides. It rejects if either id is the zero/unknown handle,
// if the edge already exists, or if either side's on_connecting hook
// vetoes (spec.md §4.1).
func (g *Graph) Connect(a, b ID) error {
	if a == 0 || b == 0 {
		return rerr.New(rerr.NullArgument, errNullHandle)
	}

	g.mu.Lock()
	ra, aok := g.nodes[a]
	rb, bok := g.nodes[b]
	if !aok || !bok {
		g.mu.Unlock()
		return rerr.New(rerr.NullArgument, errNullHandle)
	}
	if _, exists := ra.neighbours[b]; exists {
		g.mu.Unlock()
		return rerr.Newf(rerr.InternalError, "connect: %d and %d are already connected", a, b)
	}

	if (ra.hooks != nil && !ra.hooks.OnConnecting(b)) || (rb.hooks != nil && !rb.hooks.OnConnecting(a)) {
		g.mu.Unlock()
		return rerr.Newf(rerr.AbortedByHook, "connect %d-%d vetoed by on_connecting", a, b)
	}

	ra.neighbours[b] = struct{}{}
	rb.neighbours[a] = struct{}{}
	g.mu.Unlock()

	if ra.hooks != nil {
		ra.hooks.OnConnected(b)
	}
	if rb.hooks != nil {
		rb.hooks.OnConnected(a)
	}
	return nil
}

// Disconnect removes the symmetric edge between a and b, firing
// on_disconnected on both sides. It is idempotent: disconnecting a
// pair that is not connected is a no-op, not an error, since recursive
// shutdown calls it on neighbours that may already have been
// unwound.
func (g *Graph) Disconnect(a, b ID) error {
	g.mu.Lock()
	ra, aok := g.nodes[a]
	rb, bok := g.nodes[b]
	if !aok || !bok {
		g.mu.Unlock()
		return nil
	}
	if _, exists := ra.neighbours[b]; !exists {
		g.mu.Unlock()
		return nil
	}

	if (ra.hooks != nil && !ra.hooks.OnDisconnecting(b)) || (rb.hooks != nil && !rb.hooks.OnDisconnecting(a)) {
		g.mu.Unlock()
		return rerr.Newf(rerr.AbortedByHook, "disconnect %d-%d vetoed by on_disconnecting", a, b)
	}

	delete(ra.neighbours, b)
	delete(rb.neighbours, a)
	g.mu.Unlock()

	if ra.hooks != nil {
		ra.hooks.OnDisconnected(b)
	}
	if rb.hooks != nil {
		rb.hooks.OnDisconnected(a)
	}
	return nil
}

// DisconnectAllRecursive disconnects id from every neighbour, then
// recurses into those neighbours' now-former neighbour sets (spec.md
// §4.1 "disconnect_all_recursive"). Each pair is disconnected at most
// once; a veto on one edge does not stop the sweep over the rest.
func (g *Graph) DisconnectAllRecursive(id ID) {
	visited := make(map[ID]struct{})
	g.disconnectAllRecursive(id, visited)
}

func (g *Graph) disconnectAllRecursive(id ID, visited map[ID]struct{}) {
	if _, seen := visited[id]; seen {
		return
	}
	visited[id] = struct{}{}

	neighbours := g.Neighbours(id)
	for _, n := range neighbours {
		_ = g.Disconnect(id, n)
	}
	for _, n := range neighbours {
		g.disconnectAllRecursive(n, visited)
	}
}

var errNullHandle = nullHandleError{}

type nullHandleError struct{}

func (nullHandleError) Error() string { return "null graph handle" }
