package dependency

import (
	"sort"
	"testing"
)

func TestNew(t *testing.T) {
	g := New()
	if g == nil {
		t.Fatal("New() returned nil")
	}
	if g.Len() != 0 {
		t.Fatalf("expected empty graph, got %d nodes", g.Len())
	}
}

func TestAddEdge(t *testing.T) {
	g := New()
	g.AddEdge("camera", "display")
	g.AddEdge("camera", "logger")
	g.AddEdge("camera", "display")

	if !g.Has("display") || !g.Has("logger") {
		t.Fatal("AddEdge should create both nodes")
	}
	deps := g.Dependencies("camera")
	if len(deps) != 2 || deps[0] != "display" || deps[1] != "logger" {
		t.Fatalf("unexpected dependencies %v", deps)
	}

	// Modifying the returned slice must not change the graph.
	deps[0] = "other"
	if g.Dependencies("camera")[0] != "display" {
		t.Fatal("Dependencies returned internal slice")
	}

	if got := g.Dependencies("missing"); got != nil {
		t.Fatalf("expected nil for unknown node, got %v", got)
	}
}

func TestDependents(t *testing.T) {
	g := New()
	g.AddEdge("a", "c")
	g.AddEdge("b", "c")
	g.AddEdge("c", "a")

	got := g.Dependents("c")
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected dependents %v", got)
	}
	if len(g.Dependents("b")) != 0 {
		t.Fatal("b has no dependents")
	}
}

func TestRemoveEdge(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")
	g.RemoveEdge("a", "b")
	g.RemoveEdge("a", "b")
	g.RemoveEdge("x", "y")

	if len(g.Dependencies("a")) != 0 {
		t.Fatal("edge was not removed")
	}
	if !g.Has("b") {
		t.Fatal("RemoveEdge must keep the nodes")
	}
}

func TestRemoveNode(t *testing.T) {
	g := New()
	g.AddEdge("a", "b")
	g.AddEdge("b", "a")
	g.AddEdge("c", "b")
	g.AddNode("c")

	g.RemoveNode("b")

	if g.Has("b") {
		t.Fatal("node still present")
	}
	if len(g.Dependencies("a")) != 0 || len(g.Dependencies("c")) != 0 {
		t.Fatal("edges into the removed node survived")
	}
	if g.Len() != 2 {
		t.Fatalf("expected 2 nodes, got %d", g.Len())
	}
}
