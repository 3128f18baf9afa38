// Package binding implements data bindings (spec.md §3): producer-side
// objects that expose a live image as readable memory plus the
// synchronisation an encoder pipeline needs to snapshot it safely.
package binding

import (
	"context"
	"sync"

	"github.com/rivcore/riv/rerr"
)

// ColorType is the binding's pixel colour ordering.
type ColorType int

const (
	ColorRGB ColorType = iota
	ColorBGR
)

// Orientation is the binding's scan-line order.
type Orientation int

const (
	TopDown Orientation = iota
	BottomUp
)

// Binding is the capability an encoder's input collector needs: it can
// be asked whether it is mutating, waited on for async completion or
// abort, and snapshotted into a tightly-packed top-down RGB buffer.
type Binding interface {
	IsAsyncRunning() bool
	WaitAsyncCompleted(ctx context.Context) error
	WaitAsyncAborted(ctx context.Context) error
	Snapshot() (pixels []byte, width, height int)
	Available() <-chan struct{}
}

// channelsPerPixel is the byte count per pixel for a colour/element type
// pair. riv core only ever has byte elements, so this is always 3.
const channelsPerPixel = 3

// RawImage is the one concrete binding kind: a live, externally-owned
// pixel buffer mutated in place by the producer.
type RawImage struct {
	mu sync.Mutex

	width, height int
	colorType     ColorType
	orientation   Orientation
	stride        int
	data          []byte

	asyncRunning bool
	available    chan struct{}
	completed    chan struct{}
	aborted      chan struct{}
}

// NewRawImage constructs a raw image binding. stride is clamped to at
// least width*channelsPerPixel, per spec.md's invariant on scan-line
// stride (§3).
func NewRawImage(width, height int, colorType ColorType, orientation Orientation, stride int) *RawImage {
	minStride := width * channelsPerPixel
	if stride < minStride {
		stride = minStride
	}
	return &RawImage{
		width:       width,
		height:      height,
		colorType:   colorType,
		orientation: orientation,
		stride:      stride,
		data:        make([]byte, stride*height),
		available:   make(chan struct{}, 1),
		completed:   make(chan struct{}, 1),
		aborted:     make(chan struct{}, 1),
	}
}

// Write lets the producer mutate the live pixel memory in place. It
// does not itself signal data availability; call NotifyDataAvailable
// once the frame is complete.
func (b *RawImage) Write(pixels []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(pixels) != len(b.data) {
		return rerr.Newf(rerr.BadRequest, "binding write size %d does not match buffer size %d", len(pixels), len(b.data))
	}
	copy(b.data, pixels)
	return nil
}

// NotifyDataAvailable signals the binding's attached encoders that a
// fresh frame is ready to be collected.
func (b *RawImage) NotifyDataAvailable() {
	select {
	case b.available <- struct{}{}:
	default:
	}
}

// Available returns the channel an input collector sleeps on.
func (b *RawImage) Available() <-chan struct{} {
	return b.available
}

// IsAsyncRunning reports whether the producer currently has an
// in-flight asynchronous write to this binding.
func (b *RawImage) IsAsyncRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.asyncRunning
}

// SetAsyncRunning marks an asynchronous producer operation as
// started or finished.
func (b *RawImage) SetAsyncRunning(running bool) {
	b.mu.Lock()
	b.asyncRunning = running
	b.mu.Unlock()
	if !running {
		select {
		case b.completed <- struct{}{}:
		default:
		}
	}
}

// WaitAsyncCompleted blocks until the current in-flight asynchronous
// operation finishes, or ctx is done.
func (b *RawImage) WaitAsyncCompleted(ctx context.Context) error {
	if !b.IsAsyncRunning() {
		return nil
	}
	select {
	case <-b.completed:
		return nil
	case <-ctx.Done():
		return rerr.New(rerr.InternalError, ctx.Err())
	}
}

// Abort propagates an abort signal to the producer, fired by the
// input collector on its own termination (spec.md §4.4).
func (b *RawImage) Abort() {
	select {
	case b.aborted <- struct{}{}:
	default:
	}
}

// WaitAsyncAborted blocks until Abort is called, or ctx is done.
func (b *RawImage) WaitAsyncAborted(ctx context.Context) error {
	select {
	case <-b.aborted:
		return nil
	case <-ctx.Done():
		return rerr.New(rerr.InternalError, ctx.Err())
	}
}

// Snapshot copies the current pixel memory into a tightly-packed,
// top-down RGB buffer, honouring stride and orientation (spec.md
// §4.4 "input collector").
func (b *RawImage) Snapshot() ([]byte, int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rowSize := b.width * channelsPerPixel
	out := make([]byte, rowSize*b.height)

	for y := 0; y < b.height; y++ {
		srcRow := y
		if b.orientation == BottomUp {
			srcRow = b.height - 1 - y
		}
		src := b.data[srcRow*b.stride : srcRow*b.stride+rowSize]
		dst := out[y*rowSize : (y+1)*rowSize]
		if b.colorType == ColorBGR {
			swapRGB(dst, src)
		} else {
			copy(dst, src)
		}
	}

	return out, b.width, b.height
}

func swapRGB(dst, src []byte) {
	for i := 0; i+2 < len(src); i += 3 {
		dst[i] = src[i+2]
		dst[i+1] = src[i+1]
		dst[i+2] = src[i]
	}
}

// Dimensions returns the binding's width and height.
func (b *RawImage) Dimensions() (width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

// Stride returns the binding's scan-line stride in bytes.
func (b *RawImage) Stride() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stride
}
