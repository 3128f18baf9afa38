// Package provider implements the provider API surface of spec.md
// §3/§4: a named logical service grouping data bindings and a control
// surface, user-message callback delivery, and broadcast to every
// connected session.
package provider

import (
	"sync"

	"github.com/rivcore/riv/graph"
	"github.com/rivcore/riv/logger"
	"github.com/rivcore/riv/rerr"
)

// SessionSender is the capability a control session registers with
// the graph so a provider can broadcast to it without knowing its
// concrete type (spec.md §9 "Dynamic dispatch to arbitrary
// capabilities"). EnqueueMessage must not block; it reports whether
// the message was accepted, mirroring a bounded per-session outbox.
type SessionSender interface {
	EnqueueMessage(id uint32, body []byte) bool
}

// UserMessageCallback receives an application message (id >= 1000)
// delivered on a provider's control channel.
type UserMessageCallback func(id uint32, body []byte)

// Provider is a named provider node in the object graph, with zero or
// more data bindings and a broadcast/callback surface (spec.md §3
// "Provider").
type Provider struct {
	Name string
	ID   graph.ID

	g *graph.Graph

	mu        sync.RWMutex
	bindings  map[string]graph.ID
	callbacks []UserMessageCallback
}

// New registers a fresh provider node in g under the given name.
func New(g *graph.Graph, name string) *Provider {
	p := &Provider{
		Name:     name,
		g:        g,
		bindings: make(map[string]graph.ID),
	}
	p.ID = g.AddNode(nil, nil)
	return p
}

// RegisterBinding connects a data binding node to this provider under
// a channel name (e.g. "rgb_raw"). It is an error to register the
// same name twice.
func (p *Provider) RegisterBinding(name string, bindingID graph.ID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.bindings[name]; exists {
		return rerr.Newf(rerr.BadRequest, "binding %q is already registered on provider %q", name, p.Name)
	}
	if err := p.g.Connect(p.ID, bindingID); err != nil {
		return err
	}
	p.bindings[name] = bindingID
	return nil
}

// Binding resolves a channel name to its graph node id.
func (p *Provider) Binding(name string) (graph.ID, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	id, ok := p.bindings[name]
	return id, ok
}

// Bindings returns a snapshot of every registered channel name.
func (p *Provider) Bindings() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.bindings))
	for name := range p.bindings {
		names = append(names, name)
	}
	return names
}

// OnUserMessage registers a callback invoked for every incoming
// user-space message (id >= 1000) on this provider's control
// channels.
func (p *Provider) OnUserMessage(cb UserMessageCallback) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.callbacks = append(p.callbacks, cb)
}

// DeliverUserMessage fans an incoming user message out to every
// registered callback. A panicking callback never escapes the
// session (spec.md §7 "User-message callback exceptions never escape
// the session").
func (p *Provider) DeliverUserMessage(id uint32, body []byte) {
	p.mu.RLock()
	cbs := make([]UserMessageCallback, len(p.callbacks))
	copy(cbs, p.callbacks)
	p.mu.RUnlock()

	for _, cb := range cbs {
		invokeSafely(cb, id, body)
	}
}

func invokeSafely(cb UserMessageCallback, id uint32, body []byte) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorw("user message callback panicked",
				logger.FieldMessageID, id,
				"panic", r,
			)
		}
	}()
	cb(id, body)
}

// BroadcastMessage sends id/body to every session currently bound to
// this provider, returning the number of sessions that accepted it.
// Sends are non-blocking per session and the neighbour set is
// snapshotted before sending, so a slow or disconnecting session
// cannot stall the broadcast to the rest (spec.md §3
// "broadcast_message").
func (p *Provider) BroadcastMessage(id uint32, body []byte) int {
	senders := graph.Select[SessionSender](p.g, p.ID)

	sent := 0
	for _, s := range senders {
		if s.EnqueueMessage(id, body) {
			sent++
		}
	}
	return sent
}
