package binding

import (
	"context"
	"testing"
	"time"
)

func TestStrideClampedToWidthTimesChannels(t *testing.T) {
	b := NewRawImage(4, 2, ColorRGB, TopDown, 0)
	if got, want := b.Stride(), 4*channelsPerPixel; got != want {
		t.Errorf("got stride %d, want %d", got, want)
	}

	b2 := NewRawImage(4, 2, ColorRGB, TopDown, 100)
	if got := b2.Stride(); got != 100 {
		t.Errorf("got stride %d, want 100 (already above minimum)", got)
	}
}

func TestSnapshotTopDownIsIdentity(t *testing.T) {
	b := NewRawImage(2, 2, ColorRGB, TopDown, 0)
	pixels := []byte{
		1, 2, 3, 4, 5, 6,
		7, 8, 9, 10, 11, 12,
	}
	if err := b.Write(pixels); err != nil {
		t.Fatalf("Write: %v", err)
	}

	out, w, h := b.Snapshot()
	if w != 2 || h != 2 {
		t.Fatalf("got (%d,%d), want (2,2)", w, h)
	}
	for i := range pixels {
		if out[i] != pixels[i] {
			t.Fatalf("byte %d: got %d, want %d", i, out[i], pixels[i])
		}
	}
}

func TestSnapshotBottomUpFlipsRows(t *testing.T) {
	b := NewRawImage(1, 2, ColorRGB, BottomUp, 0)
	pixels := []byte{
		1, 1, 1, // row 0 (bottom, in storage order)
		2, 2, 2, // row 1 (top, in storage order)
	}
	if err := b.Write(pixels); err != nil {
		t.Fatalf("Write: %v", err)
	}

	out, _, _ := b.Snapshot()
	want := []byte{2, 2, 2, 1, 1, 1}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("byte %d: got %d, want %d", i, out[i], want[i])
		}
	}
}

func TestSnapshotBGRSwapsChannels(t *testing.T) {
	b := NewRawImage(1, 1, ColorBGR, TopDown, 0)
	if err := b.Write([]byte{10, 20, 30}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	out, _, _ := b.Snapshot()
	want := []byte{30, 20, 10}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("byte %d: got %d, want %d", i, out[i], want[i])
		}
	}
}

func TestWriteRejectsWrongSize(t *testing.T) {
	b := NewRawImage(2, 2, ColorRGB, TopDown, 0)
	if err := b.Write([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for mismatched buffer size")
	}
}

func TestAsyncWaitCompleted(t *testing.T) {
	b := NewRawImage(1, 1, ColorRGB, TopDown, 0)
	b.SetAsyncRunning(true)
	if !b.IsAsyncRunning() {
		t.Fatal("expected async running true")
	}

	done := make(chan error, 1)
	go func() {
		done <- b.WaitAsyncCompleted(context.Background())
	}()

	b.SetAsyncRunning(false)

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("WaitAsyncCompleted: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitAsyncCompleted did not return")
	}
}

func TestWaitAsyncCompletedReturnsImmediatelyWhenIdle(t *testing.T) {
	b := NewRawImage(1, 1, ColorRGB, TopDown, 0)
	if err := b.WaitAsyncCompleted(context.Background()); err != nil {
		t.Fatalf("WaitAsyncCompleted: %v", err)
	}
}

func TestWaitAsyncAbortedFiresOnAbort(t *testing.T) {
	b := NewRawImage(1, 1, ColorRGB, TopDown, 0)

	done := make(chan error, 1)
	go func() {
		done <- b.WaitAsyncAborted(context.Background())
	}()

	b.Abort()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("WaitAsyncAborted: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitAsyncAborted did not return")
	}
}

func TestNotifyDataAvailableSignalsCollector(t *testing.T) {
	b := NewRawImage(1, 1, ColorRGB, TopDown, 0)
	b.NotifyDataAvailable()

	select {
	case <-b.Available():
	default:
		t.Fatal("expected pending data-available signal")
	}
}
