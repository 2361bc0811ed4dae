package contractor

import (
	"fmt"

	"github.com/lintang-b-s/osm-routing/pkg/graph"
)

// Edge is an edge of the hierarchy. Orig is the original graph edge, or -1
// for a shortcut that replaces Skip1 followed by Skip2.
type Edge struct {
	From  graph.NodeID
	To    graph.NodeID
	Cost  float64
	Orig  graph.EdgeID
	Skip1 int32
	Skip2 int32
}

func (e *Edge) IsShortcut() bool {
	return e.Orig < 0
}

// Hierarchy is the immutable result of Contract. upEdges holds, per node u,
// the edges u->x with rank[x] > rank[u]. downEdges holds, per node v, the
// edges x->v with rank[x] > rank[v].
type Hierarchy struct {
	mode        graph.Mode
	weighting   string
	rank        []int32
	edges       []Edge
	upOffsets   []int32
	upEdges     []int32
	downOffsets []int32
	downEdges   []int32
}

func newHierarchy(mode graph.Mode, weighting string, rank []int32, edges []Edge, out [][]arc) *Hierarchy {
	n := len(rank)
	h := &Hierarchy{
		mode:        mode,
		weighting:   weighting,
		rank:        rank,
		edges:       edges,
		upOffsets:   make([]int32, n+1),
		downOffsets: make([]int32, n+1),
	}

	for u, arcs := range out {
		for _, a := range arcs {
			if rank[a.node] > rank[u] {
				h.upOffsets[u+1]++
			} else {
				h.downOffsets[a.node+1]++
			}
		}
	}
	for i := 0; i < n; i++ {
		h.upOffsets[i+1] += h.upOffsets[i]
		h.downOffsets[i+1] += h.downOffsets[i]
	}

	h.upEdges = make([]int32, h.upOffsets[n])
	h.downEdges = make([]int32, h.downOffsets[n])
	upFill := make([]int32, n)
	downFill := make([]int32, n)
	copy(upFill, h.upOffsets[:n])
	copy(downFill, h.downOffsets[:n])
	for u, arcs := range out {
		for _, a := range arcs {
			if rank[a.node] > rank[u] {
				h.upEdges[upFill[u]] = a.edge
				upFill[u]++
			} else {
				h.downEdges[downFill[a.node]] = a.edge
				downFill[a.node]++
			}
		}
	}
	return h
}

func (h *Hierarchy) Mode() graph.Mode {
	return h.mode
}

func (h *Hierarchy) Weighting() string {
	return h.weighting
}

func (h *Hierarchy) NumNodes() int {
	return len(h.rank)
}

func (h *Hierarchy) Rank(v graph.NodeID) int32 {
	return h.rank[v]
}

func (h *Hierarchy) Edge(id int32) *Edge {
	return &h.edges[id]
}

func (h *Hierarchy) NumEdges() int {
	return len(h.edges)
}

func (h *Hierarchy) NumShortcuts() int {
	count := 0
	for i := range h.edges {
		if h.edges[i].IsShortcut() {
			count++
		}
	}
	return count
}

// UpEdges returns the edges leaving u towards higher ranked nodes.
func (h *Hierarchy) UpEdges(u graph.NodeID) []int32 {
	return h.upEdges[h.upOffsets[u]:h.upOffsets[u+1]]
}

// DownEdges returns the edges entering v from higher ranked nodes.
func (h *Hierarchy) DownEdges(v graph.NodeID) []int32 {
	return h.downEdges[h.downOffsets[v]:h.downOffsets[v+1]]
}

// Unpack appends the original edges that edge id stands for, in travel
// order, to dst.
func (h *Hierarchy) Unpack(id int32, dst []graph.EdgeID) []graph.EdgeID {
	stack := []int32{id}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		e := &h.edges[top]
		if !e.IsShortcut() {
			dst = append(dst, e.Orig)
			continue
		}
		stack = append(stack, e.Skip2, e.Skip1)
	}
	return dst
}

// Validate checks that the hierarchy belongs to a graph with n nodes and m edges.
func (h *Hierarchy) Validate(n, m int) error {
	if len(h.rank) != n {
		return fmt.Errorf("%w: hierarchy has %d nodes, graph has %d", ErrInvalidHierarchy, len(h.rank), n)
	}
	for i := range h.edges {
		e := &h.edges[i]
		if int(e.From) >= n || int(e.To) >= n || e.From < 0 || e.To < 0 {
			return fmt.Errorf("%w: edge %d references a node outside [0,%d)", ErrInvalidHierarchy, i, n)
		}
		if e.IsShortcut() {
			if e.Skip1 < 0 || int(e.Skip1) >= i || e.Skip2 < 0 || int(e.Skip2) >= i {
				return fmt.Errorf("%w: shortcut %d has children %d,%d", ErrInvalidHierarchy, i, e.Skip1, e.Skip2)
			}
		} else if int(e.Orig) >= m {
			return fmt.Errorf("%w: edge %d references original edge %d of %d", ErrInvalidHierarchy, i, e.Orig, m)
		}
	}
	return nil
}
