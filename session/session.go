// Package session implements the per-connection session state machine
// of spec.md §4.3: handshake, request parsing, then either a control
// message loop or an image-stream pull loop, with graceful and
// error-driven shutdown.
package session

import (
	"context"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rivcore/riv/binding"
	"github.com/rivcore/riv/encoder"
	"github.com/rivcore/riv/errors"
	"github.com/rivcore/riv/graph"
	"github.com/rivcore/riv/logger"
	"github.com/rivcore/riv/provider"
	"github.com/rivcore/riv/rerr"
	"github.com/rivcore/riv/uri"
	"github.com/rivcore/riv/wire"
)

// Registry resolves a provider by the name carried in a request URI's
// path. The listener's provider table implements this.
type Registry interface {
	Provider(name string) (*provider.Provider, bool)
}

// Session is one accepted connection's runtime: socket, state, and
// either a bound provider (control session) or an encoder pipeline
// (stream session).
type Session struct {
	conn     net.Conn
	g        *graph.Graph
	ID       graph.ID
	registry Registry

	// LogID is a random external correlation id for log lines, kept
	// separate from ID (the graph arena index) since arena indices get
	// reused once a session's node is removed.
	LogID string

	outbox chan wire.Message

	state atomic.Int32

	mu              sync.Mutex
	boundProvider   *provider.Provider
	pipeline        *encoder.Pipeline
	pipelineCancel  context.CancelFunc
	unknownControls int
}

// New constructs a session for an accepted connection and registers
// its node in the graph. Run must be called to actually drive it.
func New(conn net.Conn, g *graph.Graph, registry Registry) *Session {
	s := &Session{
		conn:     conn,
		g:        g,
		registry: registry,
		outbox:   make(chan wire.Message, 64),
		LogID:    uuid.New().String(),
	}
	s.ID = g.AddNode(nil, nil)
	s.state.Store(int32(Handshaking))
	return s
}

// State returns the session's current state.
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
}

// EnqueueMessage implements provider.SessionSender: it non-blockingly
// queues a message for delivery to this session's peer. It reports
// false if the outbox is full, matching the teacher's bounded-outbox
// broadcast pattern.
func (s *Session) EnqueueMessage(id uint32, body []byte) bool {
	select {
	case s.outbox <- wire.Message{ID: id, Body: body}:
		return true
	default:
		return false
	}
}

// Run drives the session to completion: handshake, request parsing,
// then control or stream mode, until the peer disconnects, a protocol
// error occurs, or ctx is cancelled. It always disconnects the
// session from the graph before returning (spec.md §4.3 "Closing").
func (s *Session) Run(ctx context.Context) error {
	defer s.close()

	ctx, cancel := context.WithCancel(logger.WithSessionID(ctx, s.LogID))
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.writerLoop(gctx) })
	g.Go(func() error {
		// The protocol driver returning, with or without an error, ends
		// the session.
		defer cancel()
		return s.driveProtocol(gctx)
	})
	g.Go(func() error {
		// Closing the socket is what actually unblocks a goroutine
		// parked in a blocking Read/Write once ctx is cancelled (spec.md
		// §5 "closing the owned socket to force an in-progress recv to
		// return").
		<-gctx.Done()
		_ = s.conn.Close()
		return nil
	})

	err := g.Wait()
	if err != nil && gctx.Err() != nil {
		return nil
	}
	return err
}

func (s *Session) writerLoop(ctx context.Context) error {
	for {
		select {
		case msg := <-s.outbox:
			if err := wire.WriteMessage(s.conn, msg); err != nil {
				return rerr.New(rerr.SocketError, err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *Session) driveProtocol(ctx context.Context) error {
	if err := wire.WriteHandshake(s.conn); err != nil {
		s.setState(Closing)
		return rerr.New(rerr.SocketError, errors.Wrap(err, "write handshake"))
	}
	s.setState(ReadingRequest)

	line, err := wire.ReadRequestLine(s.conn)
	if err != nil {
		s.setState(Closing)
		return classifyReadErr(err)
	}
	if line == "" {
		// An empty request string is silently dropped (spec.md §4.3
		// edge cases).
		s.setState(Closing)
		return nil
	}

	parsed, err := uri.ParseRequestLine(line)
	if err != nil {
		_ = wire.WriteStatus(s.conn, wire.StatusBadRequest)
		s.setState(Closing)
		return nil
	}

	prov, ok := s.registry.Provider(parsed.Name)
	if !ok {
		_ = wire.WriteStatus(s.conn, wire.StatusNotFound)
		s.setState(Closing)
		return rerr.Newf(rerr.ResourceNotFound, "provider %q not found", parsed.Name)
	}

	if !parsed.IsData {
		return s.runControl(ctx, prov)
	}
	return s.runStream(ctx, prov, parsed)
}

func (s *Session) runControl(ctx context.Context, prov *provider.Provider) error {
	s.mu.Lock()
	s.boundProvider = prov
	s.mu.Unlock()

	if err := s.g.Connect(s.ID, prov.ID); err != nil {
		_ = wire.WriteStatus(s.conn, wire.StatusInternalError)
		s.setState(Closing)
		return err
	}
	if err := wire.WriteStatus(s.conn, wire.StatusOK); err != nil {
		s.setState(Closing)
		return rerr.New(rerr.SocketError, err)
	}
	// Only register as a broadcast target once the status reply is on
	// the wire: a concurrent BroadcastMessage that finds this session
	// any earlier could enqueue onto the outbox while the handshake
	// reply is still being written, and writerLoop would interleave the
	// two onto the single socket (spec.md §5 "a session owns its
	// socket").
	if err := graph.RegisterCapability[provider.SessionSender](s.g, s.ID, s); err != nil {
		s.setState(Closing)
		return err
	}

	s.setState(Control)
	for {
		msg, err := wire.ReadMessage(s.conn)
		if err != nil {
			s.setState(Closing)
			return classifyReadErr(err)
		}

		if wire.IsUserMessage(msg.ID) {
			prov.DeliverUserMessage(msg.ID, msg.Body)
			continue
		}

		switch msg.ID {
		case wire.QueryDataChannelsID:
			s.handleQueryDataChannels(prov)
		default:
			s.mu.Lock()
			s.unknownControls++
			fatal := s.unknownControls >= maxUnknownControlIDs
			s.mu.Unlock()

			logger.LoggerFromContext(ctx).Warnw("unknown control message id",
				logger.FieldMessageID, msg.ID,
			)
			if fatal {
				s.setState(Closing)
				return rerr.Newf(rerr.ProtocolViolation, "unknown control id %d repeated past threshold", msg.ID)
			}
		}

		select {
		case <-ctx.Done():
			s.setState(Closing)
			return nil
		default:
		}
	}
}

func (s *Session) handleQueryDataChannels(prov *provider.Provider) {
	var channels []wire.DataChannel
	for _, name := range prov.Bindings() {
		channels = append(channels, wire.DataChannel{
			Name:    name,
			Type:    encoder.ChannelType,
			Subtype: uint16(encoder.SubtypeRGBRaw),
			Quality: 100,
		})
	}
	body := wire.EncodeDataChannels(channels)
	if !s.EnqueueMessage(wire.DataChannelsID, body) {
		logger.Warnw("data_channels reply dropped: outbox full")
	}
}

func (s *Session) runStream(ctx context.Context, prov *provider.Provider, u uri.URI) error {
	bindingID := graph.ID(u.BindID)
	impl, ok := graph.Capability[binding.Binding](s.g, bindingID)
	if !ok || !s.g.IsNeighbour(prov.ID, bindingID) {
		_ = wire.WriteStatus(s.conn, wire.StatusNotFound)
		s.setState(Closing)
		return rerr.Newf(rerr.ResourceNotFound, "binding %d not found on provider %q", bindingID, prov.Name)
	}

	pipeline, err := encoder.New(impl, encoder.Subtype(u.Subtype))
	if err != nil {
		_ = wire.WriteStatus(s.conn, wire.StatusUnsupportedMedia)
		s.setState(Closing)
		return err
	}

	if err := s.g.Connect(s.ID, bindingID); err != nil {
		_ = wire.WriteStatus(s.conn, wire.StatusInternalError)
		s.setState(Closing)
		return err
	}
	if err := wire.WriteStatus(s.conn, wire.StatusOK); err != nil {
		s.setState(Closing)
		return rerr.New(rerr.SocketError, err)
	}

	pipelineCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.pipeline = pipeline
	s.pipelineCancel = cancel
	s.mu.Unlock()

	pipelineDone := make(chan error, 1)
	go func() { pipelineDone <- pipeline.Run(pipelineCtx) }()

	s.setState(Stream)
	err = s.streamLoop(ctx, pipeline)
	cancel()
	<-pipelineDone
	return err
}

func (s *Session) streamLoop(ctx context.Context, pipeline *encoder.Pipeline) error {
	var requestSeq uint64

	for {
		req, err := wire.ReadStreamRequest(s.conn)
		if err != nil {
			s.setState(Closing)
			return classifyReadErr(err)
		}

		switch req.Op {
		case wire.OpClose:
			s.setState(Closing)
			return nil
		case wire.OpRestart:
			// op=2 always carries the client's own time-code in its arg
			// (spec.md §4.2), so there is no server-side echo counter
			// for restart to reset; validating the arg is the operation's
			// entire effect here.
			if err := wire.ValidateRestartArg(req.Arg); err != nil {
				s.setState(Closing)
				return rerr.New(rerr.ProtocolViolation, err)
			}
		case wire.OpNext:
			requestSeq++
			id := requestSeq
			pipeline.Queue.Enqueue(encoder.Request{
				ID:       id,
				TimeCode: req.Arg,
				Deliver:  func(buf *encoder.Buffer) { s.deliverFrame(buf) },
				Cancel:   func() {},
			})
		default:
			s.setState(Closing)
			return rerr.Newf(rerr.ProtocolViolation, "unknown image-stream op %d", req.Op)
		}

		select {
		case <-ctx.Done():
			s.setState(Closing)
			return nil
		default:
		}
	}
}

func (s *Session) deliverFrame(buf *encoder.Buffer) {
	body := wire.EncodeImageDataBlob(buf.ToImageDataBlob())
	if !s.EnqueueMessage(wire.ImageDataBlobID, body) {
		logger.Warnw("image_data_blob reply dropped: outbox full")
	}
}

func (s *Session) close() {
	s.setState(Closing)

	s.mu.Lock()
	cancel := s.pipelineCancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	for _, n := range s.g.Neighbours(s.ID) {
		_ = s.g.Disconnect(s.ID, n)
	}
	_ = s.g.RemoveNode(s.ID)
	_ = s.conn.Close()

	s.setState(Terminated)
}

// classifyReadErr wraps a failed read as PeerDisconnected: fatal to
// this session, even though the same peer-disconnect condition is
// benign when observed between reads (spec.md §7).
func classifyReadErr(err error) error {
	if err == nil {
		return nil
	}
	return rerr.New(rerr.PeerDisconnected, err)
}
