// internal/dependency/graph.go
package dependency

// NodeID is the unique identifier for a node inside a dependency graph. The
// orchestrator uses component names.
type NodeID string

// Node is a component together with the peers it holds.
type Node struct {
	ID        NodeID
	DependsOn []NodeID
}

// Graph records which component holds which other components as peers.
// An edge from A to B means A uses B by name. It is *not* thread-safe by
// itself; callers must synchronise if they write concurrently.
type Graph struct {
	nodes map[NodeID]*Node
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[NodeID]*Node)}
}

// AddNode adds a node without edges. Adding an existing node is a no-op.
func (g *Graph) AddNode(id NodeID) {
	if _, ok := g.nodes[id]; !ok {
		g.nodes[id] = &Node{ID: id}
	}
}

// Has reports whether id is in the graph.
func (g *Graph) Has(id NodeID) bool {
	_, ok := g.nodes[id]
	return ok
}

// AddEdge records that from holds to. Both nodes are created if needed and
// duplicate edges are ignored.
func (g *Graph) AddEdge(from, to NodeID) {
	g.AddNode(from)
	g.AddNode(to)
	n := g.nodes[from]
	for _, dep := range n.DependsOn {
		if dep == to {
			return
		}
	}
	n.DependsOn = append(n.DependsOn, to)
}

// RemoveEdge drops the edge from -> to if present.
func (g *Graph) RemoveEdge(from, to NodeID) {
	n, ok := g.nodes[from]
	if !ok {
		return
	}
	for i, dep := range n.DependsOn {
		if dep == to {
			n.DependsOn = append(n.DependsOn[:i], n.DependsOn[i+1:]...)
			return
		}
	}
}

// RemoveNode drops id together with every edge into or out of it.
func (g *Graph) RemoveNode(id NodeID) {
	delete(g.nodes, id)
	for _, n := range g.nodes {
		g.RemoveEdge(n.ID, id)
	}
}

// Dependencies returns the peers held by id, in the order they were added.
func (g *Graph) Dependencies(id NodeID) []NodeID {
	if n, ok := g.nodes[id]; ok {
		// Return a copy to avoid callers modifying internal slice.
		depsCopy := make([]NodeID, len(n.DependsOn))
		copy(depsCopy, n.DependsOn)
		return depsCopy
	}
	return nil
}

// Dependents returns all node IDs that hold id as a peer. This is an O(n)
// walk over the graph.
func (g *Graph) Dependents(id NodeID) []NodeID {
	var res []NodeID
	for _, n := range g.nodes {
		for _, dep := range n.DependsOn {
			if dep == id {
				res = append(res, n.ID)
				break
			}
		}
	}
	return res
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}
