package encoder

import (
	"context"
	"testing"
	"time"

	"github.com/rivcore/riv/binding"
)

func TestPipelineFramePullOrdering(t *testing.T) {
	b := binding.NewRawImage(1, 1, binding.ColorRGB, binding.TopDown, 0)
	if err := b.Write([]byte{1, 2, 3}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	p, err := New(b, SubtypeRGBRaw)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runDone := make(chan error, 1)
	go func() { runDone <- p.Run(ctx) }()

	b.NotifyDataAvailable()
	time.Sleep(50 * time.Millisecond) // let the frame propagate through both slots

	// Scenario 4: three op=2 requests with time-codes 10, 20, 30 must
	// be delivered in that order.
	timeCodes := []uint32{10, 20, 30}
	results := make(chan uint32, len(timeCodes))
	for _, tc := range timeCodes {
		tc := tc
		p.Queue.Enqueue(Request{
			ID:       tc,
			TimeCode: tc,
			Deliver:  func(buf *Buffer) { results <- buf.TimeCode },
		})
	}

	for _, want := range timeCodes {
		select {
		case got := <-results:
			if got != want {
				t.Errorf("got time-code %d, want %d", got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for delivered frame")
		}
	}

	cancel()
	select {
	case <-runDone:
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline did not shut down after cancel")
	}
}

func TestPipelineCancelsPendingRequestsOnShutdown(t *testing.T) {
	b := binding.NewRawImage(1, 1, binding.ColorRGB, binding.TopDown, 0)
	p, err := New(b, SubtypeRGBRaw)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancelled := make(chan struct{}, 1)
	p.Queue.Enqueue(Request{
		ID:      "pending",
		Deliver: func(buf *Buffer) { t.Error("request should have been cancelled, not delivered") },
		Cancel:  func() { cancelled <- struct{}{} },
	})

	runDone := make(chan error, 1)
	go func() { runDone <- p.Run(ctx) }()

	cancel()

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("pending request was not cancelled on shutdown")
	}
	<-runDone
}
