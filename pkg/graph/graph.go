package graph

import (
	"github.com/lintang-b-s/osm-routing/pkg/geo"
)

type NodeID int32

type EdgeID int32

const InvalidNode NodeID = -1

type Node struct {
	Coord geo.Coordinate
	OSMID int64
}

type Edge struct {
	From     NodeID
	To       NodeID
	Length   float64 // meters
	MaxSpeed float64 // km/h
	Access   AccessMask
	Class    RoadClass
	WayID    int64
}

// Graph is an immutable road network with dense node ids in [0, NumNodes).
// Edges are sorted by (From, To); the outgoing edges of u are the contiguous
// id range [outOffsets[u], outOffsets[u+1]).
type Graph struct {
	nodes      []Node
	edges      []Edge
	outOffsets []int32
	inOffsets  []int32
	inEdges    []EdgeID
	nodeAccess []AccessMask
}

func (g *Graph) NumNodes() int {
	return len(g.nodes)
}

func (g *Graph) NumEdges() int {
	return len(g.edges)
}

func (g *Graph) Node(id NodeID) Node {
	return g.nodes[id]
}

func (g *Graph) Coordinate(id NodeID) geo.Coordinate {
	return g.nodes[id].Coord
}

func (g *Graph) Edge(id EdgeID) *Edge {
	return &g.edges[id]
}

// OutEdges returns the half-open id range of edges leaving u.
func (g *Graph) OutEdges(u NodeID) (EdgeID, EdgeID) {
	return EdgeID(g.outOffsets[u]), EdgeID(g.outOffsets[u+1])
}

// InEdges returns the ids of edges entering v. The slice must not be modified.
func (g *Graph) InEdges(v NodeID) []EdgeID {
	return g.inEdges[g.inOffsets[v]:g.inOffsets[v+1]]
}

// NodeAccess is the union of the access masks of every edge touching id.
func (g *Graph) NodeAccess(id NodeID) AccessMask {
	return g.nodeAccess[id]
}

// build derives the CSR arrays from nodes and edges already sorted by (From, To).
func build(nodes []Node, edges []Edge) *Graph {
	n := len(nodes)
	g := &Graph{
		nodes:      nodes,
		edges:      edges,
		outOffsets: make([]int32, n+1),
		inOffsets:  make([]int32, n+1),
		inEdges:    make([]EdgeID, len(edges)),
		nodeAccess: make([]AccessMask, n),
	}

	for _, e := range edges {
		g.outOffsets[e.From+1]++
		g.inOffsets[e.To+1]++
		g.nodeAccess[e.From] |= e.Access
		g.nodeAccess[e.To] |= e.Access
	}
	for i := 0; i < n; i++ {
		g.outOffsets[i+1] += g.outOffsets[i]
		g.inOffsets[i+1] += g.inOffsets[i]
	}

	// edges are visited by ascending From, so each in-list ends up sorted by source
	fill := make([]int32, n)
	copy(fill, g.inOffsets[:n])
	for id, e := range edges {
		g.inEdges[fill[e.To]] = EdgeID(id)
		fill[e.To]++
	}
	return g
}
