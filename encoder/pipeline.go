package encoder

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/rivcore/riv/binding"
	"github.com/rivcore/riv/slot"
)

// rawFrame is the raw input slot's payload: a tightly-packed top-down
// RGB snapshot plus its dimensions.
type rawFrame struct {
	pixels        []byte
	width, height int
}

// Pipeline is one encoder: the three workers of spec.md §4.4 wired
// over two slots (raw input, encoded output) and a FIFO of pending
// output requests. One exists per (session, data binding, subtype)
// triple.
type Pipeline struct {
	Binding binding.Binding
	Subtype Subtype
	Queue   *Queue

	encode EncodeFunc

	rawSlot     *slot.Slot[rawFrame]
	encodedSlot *slot.Slot[*Buffer]
}

// New constructs a pipeline for the given binding and channel subtype.
func New(b binding.Binding, subtype Subtype) (*Pipeline, error) {
	enc, err := EncoderFor(subtype)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		Binding:     b,
		Subtype:     subtype,
		Queue:       NewQueue(),
		encode:      enc,
		rawSlot:     slot.New[rawFrame](),
		encodedSlot: slot.New[*Buffer](),
	}, nil
}

// Run starts the three workers under a single errgroup and blocks
// until ctx is cancelled or a worker returns an error (the structured
// task ownership the listener/session use in place of a reaper,
// spec.md §9 "Thread reaper"). Run always cancels the pending request
// queue before returning.
func (p *Pipeline) Run(ctx context.Context) error {
	defer p.Queue.CancelAll()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.inputCollector(gctx) })
	g.Go(func() error { return p.encoderWorker(gctx) })
	g.Go(func() error { return p.outputDispatcher(gctx) })

	err := g.Wait()
	if err != nil && gctx.Err() == nil {
		return err
	}
	return nil
}

// inputCollector sleeps on the binding's data-available event. On
// wake it waits out any in-flight asynchronous producer write, copies
// the current frame, and publishes the copy to the raw input slot. On
// context cancellation it propagates abort to the binding first.
func (p *Pipeline) inputCollector(ctx context.Context) error {
	for {
		select {
		case <-p.Binding.Available():
			if err := p.Binding.WaitAsyncCompleted(ctx); err != nil {
				return nil
			}
			pixels, width, height := p.Binding.Snapshot()
			p.rawSlot.Publish(rawFrame{pixels: pixels, width: width, height: height})
		case <-ctx.Done():
			if ab, ok := p.Binding.(interface{ Abort() }); ok {
				ab.Abort()
			}
			return nil
		}
	}
}

// encoderWorker sleeps on the raw input slot's update event. On wake
// it encodes the latest frame and publishes the result to the encoded
// output slot.
func (p *Pipeline) encoderWorker(ctx context.Context) error {
	updates, unsubscribe := p.rawSlot.Subscribe()
	defer unsubscribe()

	for {
		select {
		case frame := <-updates:
			payload, metadata, err := p.encode(frame.pixels, frame.width, frame.height)
			if err != nil {
				continue
			}
			buf := NewBuffer(uint16(p.Subtype), 0, metadata, payload)
			p.encodedSlot.Publish(buf)
		case <-ctx.Done():
			return nil
		}
	}
}

// outputDispatcher sleeps on either the encoded output slot's update
// event or a new request arriving in the FIFO. On wake, once both a
// buffer and a request are available, it pops the head request and
// invokes its callback with the encoded buffer stamped with the
// request's time-code. It is solely responsible for honouring queue
// order (spec.md §4.4).
func (p *Pipeline) outputDispatcher(ctx context.Context) error {
	updates, unsubscribe := p.encodedSlot.Subscribe()
	defer unsubscribe()

	for {
		if buf, ok := p.encodedSlot.Peek(); ok {
			if req, ok := p.Queue.PopFront(); ok {
				req.Deliver(stampedCopy(buf, req.TimeCode))
				continue
			}
		}

		select {
		case <-updates:
		case <-p.Queue.Signal():
		case <-ctx.Done():
			return nil
		}
	}
}

func stampedCopy(b *Buffer, timeCode uint32) *Buffer {
	return NewBuffer(b.Subtype, timeCode, b.Metadata, b.Payload)
}
