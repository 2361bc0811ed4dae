package graph

import (
	"fmt"
	"math"

	"github.com/lintang-b-s/osm-routing/pkg/geo"
)

// Snapshot is the columnar form of a Graph used for persistence.
type Snapshot struct {
	OSMIDs []int64   `msgpack:"osm_ids"`
	Lats   []float64 `msgpack:"lats"`
	Lons   []float64 `msgpack:"lons"`

	EdgeFrom  []int32   `msgpack:"edge_from"`
	EdgeTo    []int32   `msgpack:"edge_to"`
	Lengths   []float64 `msgpack:"lengths"`
	MaxSpeeds []float64 `msgpack:"max_speeds"`
	Access    []uint8   `msgpack:"access"`
	Classes   []uint8   `msgpack:"classes"`
	WayIDs    []int64   `msgpack:"way_ids"`
}

func (g *Graph) Snapshot() *Snapshot {
	n, m := len(g.nodes), len(g.edges)
	s := &Snapshot{
		OSMIDs:    make([]int64, n),
		Lats:      make([]float64, n),
		Lons:      make([]float64, n),
		EdgeFrom:  make([]int32, m),
		EdgeTo:    make([]int32, m),
		Lengths:   make([]float64, m),
		MaxSpeeds: make([]float64, m),
		Access:    make([]uint8, m),
		Classes:   make([]uint8, m),
		WayIDs:    make([]int64, m),
	}
	for i, node := range g.nodes {
		s.OSMIDs[i] = node.OSMID
		s.Lats[i] = node.Coord.Lat
		s.Lons[i] = node.Coord.Lon
	}
	for i, e := range g.edges {
		s.EdgeFrom[i] = int32(e.From)
		s.EdgeTo[i] = int32(e.To)
		s.Lengths[i] = e.Length
		s.MaxSpeeds[i] = e.MaxSpeed
		s.Access[i] = uint8(e.Access)
		s.Classes[i] = uint8(e.Class)
		s.WayIDs[i] = e.WayID
	}
	return s
}

// FromSnapshot rebuilds a Graph and checks every structural invariant.
func FromSnapshot(s *Snapshot) (*Graph, error) {
	n := len(s.OSMIDs)
	if len(s.Lats) != n || len(s.Lons) != n {
		return nil, fmt.Errorf("%w: node columns differ in length", ErrInvalidSnapshot)
	}
	m := len(s.EdgeFrom)
	for _, col := range []int{len(s.EdgeTo), len(s.Lengths), len(s.MaxSpeeds), len(s.Access), len(s.Classes), len(s.WayIDs)} {
		if col != m {
			return nil, fmt.Errorf("%w: edge columns differ in length", ErrInvalidSnapshot)
		}
	}
	if m == 0 {
		return nil, fmt.Errorf("%w: no edges", ErrInvalidSnapshot)
	}

	nodes := make([]Node, n)
	for i := range nodes {
		c := geo.NewCoordinate(s.Lats[i], s.Lons[i])
		if !c.Valid() {
			return nil, fmt.Errorf("%w: node %d has coordinate %s", ErrInvalidSnapshot, i, c)
		}
		nodes[i] = Node{Coord: c, OSMID: s.OSMIDs[i]}
	}

	edges := make([]Edge, m)
	for i := range edges {
		from, to := s.EdgeFrom[i], s.EdgeTo[i]
		if from < 0 || int(from) >= n || to < 0 || int(to) >= n {
			return nil, fmt.Errorf("%w: edge %d references %d->%d outside [0,%d)", ErrInvalidSnapshot, i, from, to, n)
		}
		if i > 0 && (from < s.EdgeFrom[i-1] || (from == s.EdgeFrom[i-1] && to < s.EdgeTo[i-1])) {
			return nil, fmt.Errorf("%w: edge %d out of order", ErrInvalidSnapshot, i)
		}
		if s.Lengths[i] < 0 || math.IsNaN(s.Lengths[i]) || math.IsInf(s.Lengths[i], 0) {
			return nil, fmt.Errorf("%w: edge %d has length %v", ErrInvalidSnapshot, i, s.Lengths[i])
		}
		edges[i] = Edge{
			From:     NodeID(from),
			To:       NodeID(to),
			Length:   s.Lengths[i],
			MaxSpeed: s.MaxSpeeds[i],
			Access:   AccessMask(s.Access[i]),
			Class:    RoadClass(s.Classes[i]),
			WayID:    s.WayIDs[i],
		}
	}

	return build(nodes, edges), nil
}
