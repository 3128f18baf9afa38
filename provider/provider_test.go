package provider

import (
	"testing"

	"github.com/rivcore/riv/graph"
)

type fakeSender struct {
	accept   bool
	received []uint32
}

func (f *fakeSender) EnqueueMessage(id uint32, body []byte) bool {
	if !f.accept {
		return false
	}
	f.received = append(f.received, id)
	return true
}

func TestRegisterBindingRejectsDuplicateName(t *testing.T) {
	g := graph.New()
	p := New(g, "cam")
	bindingID := g.AddNode(nil, nil)

	if err := p.RegisterBinding("rgb_raw", bindingID); err != nil {
		t.Fatalf("RegisterBinding: %v", err)
	}
	other := g.AddNode(nil, nil)
	if err := p.RegisterBinding("rgb_raw", other); err == nil {
		t.Fatal("expected error re-registering the same channel name")
	}
}

func TestBindingLookup(t *testing.T) {
	g := graph.New()
	p := New(g, "cam")
	bindingID := g.AddNode(nil, nil)
	if err := p.RegisterBinding("rgb_raw", bindingID); err != nil {
		t.Fatalf("RegisterBinding: %v", err)
	}

	got, ok := p.Binding("rgb_raw")
	if !ok || got != bindingID {
		t.Fatalf("got (%v, %v), want (%v, true)", got, ok, bindingID)
	}

	if _, ok := p.Binding("missing"); ok {
		t.Fatal("expected missing channel to not resolve")
	}
}

func TestDeliverUserMessageFansOutAndSurvivesPanic(t *testing.T) {
	g := graph.New()
	p := New(g, "cam")

	var gotFirst, gotSecond bool
	p.OnUserMessage(func(id uint32, body []byte) {
		gotFirst = true
		panic("boom")
	})
	p.OnUserMessage(func(id uint32, body []byte) {
		gotSecond = true
	})

	p.DeliverUserMessage(1000, []byte("hello"))

	if !gotFirst || !gotSecond {
		t.Fatalf("got first=%v second=%v, want both true (panic must not stop fan-out)", gotFirst, gotSecond)
	}
}

func TestBroadcastMessageCountsAcceptedOnly(t *testing.T) {
	g := graph.New()
	p := New(g, "cam")

	accepting := &fakeSender{accept: true}
	full := &fakeSender{accept: false}

	s1 := g.AddNode(nil, nil)
	s2 := g.AddNode(nil, nil)
	if err := graph.RegisterCapability[SessionSender](g, s1, accepting); err != nil {
		t.Fatalf("RegisterCapability: %v", err)
	}
	if err := graph.RegisterCapability[SessionSender](g, s2, full); err != nil {
		t.Fatalf("RegisterCapability: %v", err)
	}
	if err := g.Connect(p.ID, s1); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := g.Connect(p.ID, s2); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	sent := p.BroadcastMessage(1000, []byte("x"))
	if sent != 1 {
		t.Fatalf("got sent=%d, want 1", sent)
	}
	if len(accepting.received) != 1 || accepting.received[0] != 1000 {
		t.Errorf("got %+v, want [1000] delivered to accepting sender", accepting.received)
	}
}
