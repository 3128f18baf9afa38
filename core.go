// Package riv is the embeddable public API: an in-process RGB
// framebuffer becomes a remotely consumable TCP streaming service.
//
// The shared object graph (sessions, providers, bindings) is an
// internal implementation detail; callers only ever hold opaque
// handle types (spec.md §9 "smart api pointer" redesign note). There
// is no process-wide singleton — every handle is reachable only
// through the Core that created it, matching spec.md §9's "Global
// state" note that the rewrite should carry no process-wide state.
package riv

import (
	"context"
	"net"

	"github.com/rivcore/riv/binding"
	"github.com/rivcore/riv/discovery"
	"github.com/rivcore/riv/errors"
	"github.com/rivcore/riv/graph"
	"github.com/rivcore/riv/listener"
	"github.com/rivcore/riv/provider"
)

// Core owns one communicator and the object graph backing it.
type Core struct {
	g    *graph.Graph
	id   graph.ID
	l    *listener.Listener
	enum *discovery.Enumerator
}

// NewCore constructs a Core whose public URIs are reported for the
// given listen port (spec.md §4.6). The Core registers itself as the
// graph's unique root (spec.md §3 "Core: the unique root") and
// connects its communicator to it, so that a session accepted by the
// communicator discovers core reachability as soon as it joins the
// graph (spec.md §4.5 "the session's worker starts on core
// discovery").
func NewCore(port int) *Core {
	g := graph.New()
	id := g.AddNode(nil, nil)
	if err := g.SetCore(id); err != nil {
		// AddNode just minted id; SetCore can only fail on an unknown id.
		panic(err)
	}

	l := listener.New(g)
	if err := g.Connect(id, l.ID); err != nil {
		panic(err)
	}
	g.RunDiscovery()

	return &Core{
		g:    g,
		id:   id,
		l:    l,
		enum: discovery.New(port),
	}
}

// Addr returns the communicator's bound address, or nil if
// ListenAndServe has not yet bound a socket.
func (c *Core) Addr() net.Addr {
	return c.l.Addr()
}

// ListenAndServe binds addr and serves until ctx is cancelled or a
// fatal transport error occurs. It blocks until every in-flight
// session has finished (spec.md §4.7's structured-shutdown
// replacement for the worker reaper).
func (c *Core) ListenAndServe(ctx context.Context, addr string) error {
	return c.l.ListenAndServe(ctx, addr)
}

// ProviderHandle is the opaque handle to a registered provider.
type ProviderHandle struct {
	core *Core
	p    *provider.Provider
}

// RegisterProvider creates a provider reachable by name on this Core's
// communicator.
func (c *Core) RegisterProvider(name string) (*ProviderHandle, error) {
	p := provider.New(c.g, name)
	if err := c.l.RegisterProvider(p); err != nil {
		return nil, err
	}
	return &ProviderHandle{core: c, p: p}, nil
}

// BindingHandle is the opaque handle to a registered data binding.
type BindingHandle struct {
	id   graph.ID
	impl binding.Binding
}

// RegisterBinding exposes an existing binding.Binding implementation
// (typically a *binding.RawImage the caller owns and mutates in
// place) as a named data channel on this provider.
func (ph *ProviderHandle) RegisterBinding(name string, impl binding.Binding) (*BindingHandle, error) {
	id := ph.core.g.AddNode(nil, nil)
	if err := graph.RegisterCapability[binding.Binding](ph.core.g, id, impl); err != nil {
		return nil, errors.Wrap(err, "register binding capability")
	}
	if err := ph.p.RegisterBinding(name, id); err != nil {
		return nil, err
	}
	return &BindingHandle{id: id, impl: impl}, nil
}

// OnUserMessage registers a callback for user messages (ids >= 1000)
// delivered to this provider's control sessions.
func (ph *ProviderHandle) OnUserMessage(cb provider.UserMessageCallback) {
	ph.p.OnUserMessage(cb)
}

// Broadcast fans a user message out to every session currently
// connected to this provider's control channel, returning the number
// of sessions that accepted it.
func (ph *ProviderHandle) Broadcast(id uint32, body []byte) int {
	return ph.p.BroadcastMessage(id, body)
}

// PublicURIs returns the riv:// URIs by which an external client could
// reach this provider through its Core's communicator (spec.md §4.6).
func (ph *ProviderHandle) PublicURIs() ([]string, error) {
	return ph.core.enum.URIs(ph.p.Name, ph.p.Name)
}

// InvalidatePublicURIs drops the cached URI set, forcing the next
// PublicURIs call to re-enumerate — e.g. after the provider is
// renamed or the host's network interfaces change.
func (ph *ProviderHandle) InvalidatePublicURIs() {
	ph.core.enum.Invalidate(ph.p.Name)
}
