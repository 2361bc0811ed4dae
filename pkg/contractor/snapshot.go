package contractor

import (
	"errors"
	"fmt"

	"github.com/lintang-b-s/osm-routing/pkg/graph"
)

var ErrInvalidHierarchy = errors.New("invalid contraction hierarchy")

type Snapshot struct {
	Mode        uint8     `msgpack:"mode"`
	Weighting   string    `msgpack:"weighting"`
	Rank        []int32   `msgpack:"rank"`
	From        []int32   `msgpack:"from"`
	To          []int32   `msgpack:"to"`
	Cost        []float64 `msgpack:"cost"`
	Orig        []int32   `msgpack:"orig"`
	Skip1       []int32   `msgpack:"skip1"`
	Skip2       []int32   `msgpack:"skip2"`
	UpOffsets   []int32   `msgpack:"up_offsets"`
	UpEdges     []int32   `msgpack:"up_edges"`
	DownOffsets []int32   `msgpack:"down_offsets"`
	DownEdges   []int32   `msgpack:"down_edges"`
}

func (h *Hierarchy) Snapshot() *Snapshot {
	m := len(h.edges)
	s := &Snapshot{
		Mode:        uint8(h.mode),
		Weighting:   h.weighting,
		Rank:        h.rank,
		From:        make([]int32, m),
		To:          make([]int32, m),
		Cost:        make([]float64, m),
		Orig:        make([]int32, m),
		Skip1:       make([]int32, m),
		Skip2:       make([]int32, m),
		UpOffsets:   h.upOffsets,
		UpEdges:     h.upEdges,
		DownOffsets: h.downOffsets,
		DownEdges:   h.downEdges,
	}
	for i, e := range h.edges {
		s.From[i] = int32(e.From)
		s.To[i] = int32(e.To)
		s.Cost[i] = e.Cost
		s.Orig[i] = int32(e.Orig)
		s.Skip1[i] = e.Skip1
		s.Skip2[i] = e.Skip2
	}
	return s
}

func FromSnapshot(s *Snapshot) (*Hierarchy, error) {
	m := len(s.From)
	for _, l := range []int{len(s.To), len(s.Cost), len(s.Orig), len(s.Skip1), len(s.Skip2)} {
		if l != m {
			return nil, fmt.Errorf("%w: edge columns differ in length", ErrInvalidHierarchy)
		}
	}
	n := len(s.Rank)
	if len(s.UpOffsets) != n+1 || len(s.DownOffsets) != n+1 {
		return nil, fmt.Errorf("%w: offset columns do not match %d nodes", ErrInvalidHierarchy, n)
	}
	for _, offsets := range [][]int32{s.UpOffsets, s.DownOffsets} {
		if offsets[0] != 0 {
			return nil, fmt.Errorf("%w: offsets start at %d", ErrInvalidHierarchy, offsets[0])
		}
		for v := 1; v <= n; v++ {
			if offsets[v] < offsets[v-1] {
				return nil, fmt.Errorf("%w: offsets decrease at node %d", ErrInvalidHierarchy, v-1)
			}
		}
	}
	if int(s.UpOffsets[n]) != len(s.UpEdges) || int(s.DownOffsets[n]) != len(s.DownEdges) {
		return nil, fmt.Errorf("%w: offsets do not cover the adjacency", ErrInvalidHierarchy)
	}
	for _, list := range [][]int32{s.UpEdges, s.DownEdges} {
		for _, id := range list {
			if id < 0 || int(id) >= m {
				return nil, fmt.Errorf("%w: adjacency references edge %d of %d", ErrInvalidHierarchy, id, m)
			}
		}
	}

	edges := make([]Edge, m)
	for i := range edges {
		edges[i] = Edge{
			From:  graph.NodeID(s.From[i]),
			To:    graph.NodeID(s.To[i]),
			Cost:  s.Cost[i],
			Orig:  graph.EdgeID(s.Orig[i]),
			Skip1: s.Skip1[i],
			Skip2: s.Skip2[i],
		}
	}

	return &Hierarchy{
		mode:        graph.Mode(s.Mode),
		weighting:   s.Weighting,
		rank:        s.Rank,
		edges:       edges,
		upOffsets:   s.UpOffsets,
		upEdges:     s.UpEdges,
		downOffsets: s.DownOffsets,
		downEdges:   s.DownEdges,
	}, nil
}
