package graph

import (
	"cmp"
	"slices"

	"github.com/lintang-b-s/osm-routing/pkg/osmparser"
)

// EdgeAttributes carries everything about an edge except its endpoints.
type EdgeAttributes struct {
	Length   float64
	MaxSpeed float64
	Access   AccessMask
	Class    RoadClass
	WayID    int64
}

type BuilderOptions struct {
	// ExpectedNodes presizes the id map.
	ExpectedNodes int
}

// Builder collects edges keyed by OSM node ids and assigns dense ids in
// first-seen order.
type Builder struct {
	idMap     map[int64]NodeID
	nodes     []Node
	edges     []Edge
	waysAdded int
	finalized bool
}

func NewBuilder(opts BuilderOptions) *Builder {
	return &Builder{
		idMap: make(map[int64]NodeID, opts.ExpectedNodes),
		nodes: make([]Node, 0, opts.ExpectedNodes),
	}
}

func (b *Builder) nodeID(n osmparser.Node) NodeID {
	if id, ok := b.idMap[n.ID]; ok {
		return id
	}
	id := NodeID(len(b.nodes))
	b.idMap[n.ID] = id
	b.nodes = append(b.nodes, Node{Coord: n.Coord, OSMID: n.ID})
	return id
}

// AddEdge adds one directed edge. Self loops and edges without any access are dropped.
func (b *Builder) AddEdge(from, to osmparser.Node, attrs EdgeAttributes) (bool, error) {
	if b.finalized {
		return false, ErrBuilderFinalized
	}
	if from.ID == to.ID || attrs.Access == 0 {
		return false, nil
	}
	b.edges = append(b.edges, Edge{
		From:     b.nodeID(from),
		To:       b.nodeID(to),
		Length:   attrs.Length,
		MaxSpeed: attrs.MaxSpeed,
		Access:   attrs.Access,
		Class:    attrs.Class,
		WayID:    attrs.WayID,
	})
	return true, nil
}

// AddWay adds the directed edges of every consecutive node pair of way and
// returns how many were added. Against a one-way road only foot may travel.
func (b *Builder) AddWay(way osmparser.Way) (int, error) {
	if b.finalized {
		return 0, ErrBuilderFinalized
	}
	b.waysAdded++

	wa := InterpretTags(way.Tags)
	if wa.Access == 0 {
		return 0, nil
	}

	forward, backward := wa.Access, wa.Access
	switch wa.Direction {
	case Forward:
		backward &= AccessFoot
	case Backward:
		forward &= AccessFoot
	}

	added := 0
	for i := 1; i < len(way.Nodes); i++ {
		a, c := way.Nodes[i-1], way.Nodes[i]
		attrs := EdgeAttributes{
			Length:   a.Coord.DistanceTo(c.Coord),
			MaxSpeed: wa.MaxSpeed,
			Class:    wa.Class,
			WayID:    way.ID,
		}

		attrs.Access = forward
		ok, _ := b.AddEdge(a, c, attrs)
		if ok {
			added++
		}
		attrs.Access = backward
		ok, _ = b.AddEdge(c, a, attrs)
		if ok {
			added++
		}
	}
	return added, nil
}

// Finalize sorts the edges, builds the adjacency arrays and returns the
// immutable graph. The builder is unusable afterwards.
func (b *Builder) Finalize() (*Graph, error) {
	if b.finalized {
		return nil, ErrBuilderFinalized
	}
	b.finalized = true
	b.idMap = nil

	if len(b.edges) == 0 {
		return nil, &EmptyGraphError{WaysAdded: b.waysAdded}
	}

	edges := b.edges
	slices.SortStableFunc(edges, func(x, y Edge) int {
		if c := cmp.Compare(x.From, y.From); c != 0 {
			return c
		}
		return cmp.Compare(x.To, y.To)
	})

	g := build(b.nodes, edges)
	b.nodes, b.edges = nil, nil
	return g, nil
}
