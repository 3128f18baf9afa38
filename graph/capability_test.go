package graph

import "testing"

type namer interface {
	Name() string
}

type namedThing struct{ name string }

func (n namedThing) Name() string { return n.name }

func TestSelectFiltersByRegisteredCapability(t *testing.T) {
	g := New()
	a := g.AddNode(nil, nil)
	b := g.AddNode(nil, nil) // implements namer
	c := g.AddNode(nil, nil) // does not implement namer

	if err := RegisterCapability[namer](g, b, namedThing{name: "b"}); err != nil {
		t.Fatalf("RegisterCapability: %v", err)
	}

	mustConnect(t, g, a, b)
	mustConnect(t, g, a, c)

	got := Select[namer](g, a)
	if len(got) != 1 || got[0].Name() != "b" {
		t.Fatalf("got %+v, want exactly [b]", got)
	}
}

func TestSelectUnknownNodeReturnsNil(t *testing.T) {
	g := New()
	if got := Select[namer](g, ID(123)); got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}

func TestCapabilityReturnsOwnRegistration(t *testing.T) {
	g := New()
	a := g.AddNode(nil, nil)
	if err := RegisterCapability[namer](g, a, namedThing{name: "a"}); err != nil {
		t.Fatalf("RegisterCapability: %v", err)
	}

	got, ok := Capability[namer](g, a)
	if !ok || got.Name() != "a" {
		t.Fatalf("got (%+v, %v), want (a, true)", got, ok)
	}

	if _, ok := Capability[namer](g, ID(999)); ok {
		t.Error("expected unknown node to report false")
	}
}

func TestRegisterCapabilityUnknownNode(t *testing.T) {
	g := New()
	if err := RegisterCapability[namer](g, ID(123), namedThing{}); err == nil {
		t.Fatal("expected error registering capability on unknown node")
	}
}
