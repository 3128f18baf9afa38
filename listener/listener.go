// Package listener implements the TCP accept loop of spec.md §4.5:
// one communicator node per bound port, one session per accepted
// connection, with structured shutdown in place of the thread reaper
// (spec.md §9 "Thread reaper").
package listener

import (
	"context"
	"net"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/rivcore/riv/errors"
	"github.com/rivcore/riv/graph"
	"github.com/rivcore/riv/logger"
	"github.com/rivcore/riv/provider"
	"github.com/rivcore/riv/rerr"
	"github.com/rivcore/riv/session"
)

// DefaultPort is the default TCP listen port (spec.md §6).
const DefaultPort = 52000

var log = logger.ComponentLogger("listener")

// Listener is a communicator: a TCP accept loop bound to one port,
// connected into the object graph as the parent of every session it
// accepts.
type Listener struct {
	g  *graph.Graph
	ID graph.ID

	mu        sync.RWMutex
	providers map[string]*provider.Provider

	ln       net.Listener
	sessions errgroup.Group
}

// New registers a communicator node in g.
func New(g *graph.Graph) *Listener {
	l := &Listener{
		g:         g,
		providers: make(map[string]*provider.Provider),
	}
	l.ID = g.AddNode(nil, nil)
	return l
}

// RegisterProvider makes a provider reachable by name to incoming
// requests on this communicator.
func (l *Listener) RegisterProvider(p *provider.Provider) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.providers[p.Name]; exists {
		return rerr.Newf(rerr.BadRequest, "provider %q already registered on this communicator", p.Name)
	}
	if err := l.g.Connect(l.ID, p.ID); err != nil {
		return err
	}
	l.providers[p.Name] = p
	return nil
}

// Provider implements session.Registry.
func (l *Listener) Provider(name string) (*provider.Provider, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.providers[name]
	return p, ok
}

// Addr returns the communicator's bound address, or nil if
// ListenAndServe has not yet bound a socket.
func (l *Listener) Addr() net.Addr {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}

// ListenAndServe binds addr and accepts connections until ctx is
// cancelled or an unexpected accept error occurs, then waits for
// every in-flight session to finish before returning — the
// structured-shutdown replacement for the worker reaper.
func (l *Listener) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return rerr.New(rerr.SocketError, errors.Wrap(err, "listen"))
	}
	l.mu.Lock()
	l.ln = ln
	l.mu.Unlock()

	log.Infow("listener started", logger.FieldAddress, addr)

	lg, lctx := errgroup.WithContext(ctx)
	lg.Go(func() error { return l.acceptLoop(ctx) })
	lg.Go(func() error {
		<-lctx.Done()
		return l.ln.Close()
	})

	acceptErr := lg.Wait()
	sessionErr := l.sessions.Wait()

	if acceptErr != nil {
		return acceptErr
	}
	return sessionErr
}

func (l *Listener) acceptLoop(ctx context.Context) error {
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				// Expected: the socket was closed for shutdown (spec.md
				// §4.5 "Accept errors on socket shutdown are expected
				// and silent").
				return nil
			}
			log.Errorw("accept error", logger.FieldError, err.Error())
			return rerr.New(rerr.SocketError, err)
		}

		sess := session.New(conn, l.g, l)
		if err := l.g.Connect(sess.ID, l.ID); err != nil {
			log.Errorw("failed to connect session to communicator", logger.FieldError, err.Error())
			_ = conn.Close()
			continue
		}
		l.g.RunDiscovery()

		log.Infow("session accepted",
			logger.FieldSessionID, sess.ID,
			logger.FieldRequestID, sess.LogID,
		)
		l.sessions.Go(func() error {
			err := sess.Run(ctx)
			l.g.RunDiscovery()
			return err
		})
	}
}
