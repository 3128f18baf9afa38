package graph

import "testing"

type coreAwareSpy struct {
	discovered int
	lost       int
}

func (c *coreAwareSpy) OnCoreDiscovered() { c.discovered++ }
func (c *coreAwareSpy) OnCoreLost()       { c.lost++ }

func TestRunDiscoveryFiresExactlyOncePerChange(t *testing.T) {
	g := New()
	spy := &coreAwareSpy{}
	core := g.AddNode(nil, nil)
	node := g.AddNode(nil, spy)

	if err := g.SetCore(core); err != nil {
		t.Fatalf("SetCore: %v", err)
	}

	mustConnect(t, g, core, node)
	g.RunDiscovery()
	g.RunDiscovery() // idempotent: must not fire again

	if spy.discovered != 1 {
		t.Errorf("got %d discoveries, want 1", spy.discovered)
	}
	if !g.ReachesCore(node) {
		t.Error("expected node to reach core")
	}

	if err := g.Disconnect(core, node); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	g.RunDiscovery()
	g.RunDiscovery()

	if spy.lost != 1 {
		t.Errorf("got %d losses, want 1", spy.lost)
	}
	if g.ReachesCore(node) {
		t.Error("expected node to no longer reach core")
	}
}

func TestDisconnectAllRecursiveFiresLossForEveryReachableNode(t *testing.T) {
	g := New()
	core := g.AddNode(nil, nil)
	midSpy := &coreAwareSpy{}
	leafSpy := &coreAwareSpy{}
	mid := g.AddNode(nil, midSpy)
	leaf := g.AddNode(nil, leafSpy)

	if err := g.SetCore(core); err != nil {
		t.Fatalf("SetCore: %v", err)
	}
	mustConnect(t, g, core, mid)
	mustConnect(t, g, mid, leaf)
	g.RunDiscovery()

	if midSpy.discovered != 1 || leafSpy.discovered != 1 {
		t.Fatalf("expected both nodes to discover core first")
	}

	g.DisconnectAllRecursive(core)
	g.RunDiscovery()

	if midSpy.lost != 1 {
		t.Errorf("got %d losses for mid, want 1", midSpy.lost)
	}
	if leafSpy.lost != 1 {
		t.Errorf("got %d losses for leaf, want 1", leafSpy.lost)
	}
}

func TestReachesCoreUnknownNode(t *testing.T) {
	g := New()
	if g.ReachesCore(ID(999)) {
		t.Error("expected unknown node to not reach core")
	}
}
