package encoder

import (
	"context"
	"sync"

	"github.com/rivcore/riv/rerr"
)

// Request is a pending "next frame" request: an output callback, an
// opaque identity used to cancel it later, and the client-chosen
// time-code to stamp the delivered buffer with (spec.md §3 "Request").
type Request struct {
	ID       any
	TimeCode uint32
	Deliver  func(buf *Buffer)
	Cancel   func()
}

// Queue is the FIFO of pending output requests a single encoder's
// output dispatcher drains. Delivery is strict first-queued,
// first-served (spec.md §4.4).
type Queue struct {
	mu      sync.Mutex
	pending []Request
	signal  chan struct{}
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{signal: make(chan struct{}, 1)}
}

// Enqueue appends a request to the tail of the FIFO.
func (q *Queue) Enqueue(req Request) {
	q.mu.Lock()
	q.pending = append(q.pending, req)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Len reports the number of pending requests.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Signal returns the channel that receives a notification whenever a
// request is enqueued, for use in a select alongside other wake
// sources.
func (q *Queue) Signal() <-chan struct{} {
	return q.signal
}

// Wait blocks until a request is pending or ctx is done.
func (q *Queue) Wait(ctx context.Context) error {
	if q.Len() > 0 {
		return nil
	}
	select {
	case <-q.signal:
		return nil
	case <-ctx.Done():
		return rerr.New(rerr.InternalError, ctx.Err())
	}
}

// PopFront removes and returns the head request, reporting false if
// the queue was empty.
func (q *Queue) PopFront() (Request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return Request{}, false
	}
	req := q.pending[0]
	q.pending = q.pending[1:]
	return req, true
}

// CancelByID removes and cancels the pending request matching id, if
// present. It matches §4.1's "remove pending requests with target
// (cb, ctxt)" using a caller-assigned opaque identity in place of a
// callback/context pointer pair.
func (q *Queue) CancelByID(id any) bool {
	q.mu.Lock()
	var found Request
	ok := false
	for i, req := range q.pending {
		if req.ID == id {
			found = req
			ok = true
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			break
		}
	}
	q.mu.Unlock()

	if ok && found.Cancel != nil {
		found.Cancel()
	}
	return ok
}

// CancelAll cancels every pending request, in queue order. Used when
// a session closes (spec.md §4.3 "Closing": cancel all still-pending
// requests on the attached encoder).
func (q *Queue) CancelAll() {
	q.mu.Lock()
	drained := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, req := range drained {
		if req.Cancel != nil {
			req.Cancel()
		}
	}
}
