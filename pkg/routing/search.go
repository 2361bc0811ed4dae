package routing

import (
	"context"
	"math"
	"slices"
	"sync"

	"github.com/lintang-b-s/osm-routing/pkg/contractor"
	"github.com/lintang-b-s/osm-routing/pkg/datastructure"
	"github.com/lintang-b-s/osm-routing/pkg/graph"
	"github.com/lintang-b-s/osm-routing/pkg/weighting"
)

// Path is a search result in terms of original edges.
type Path struct {
	Source  graph.NodeID
	Target  graph.NodeID
	Edges   []graph.EdgeID
	Cost    float64
	Found   bool
	Settled int
}

// direction is one half of a bidirectional search. parent holds the edge
// used to reach a node: an original edge id for the plain search and a
// hierarchy edge id for the contraction search.
type direction struct {
	dist    []float64
	parent  []int32
	touched []graph.NodeID
	pq      *datastructure.MinHeap[graph.NodeID, float64]
}

func newDirection(n int) *direction {
	d := &direction{
		dist:   make([]float64, n),
		parent: make([]int32, n),
		pq:     datastructure.NewMinHeap[graph.NodeID, float64](64),
	}
	for i := range d.dist {
		d.dist[i] = math.Inf(1)
		d.parent[i] = -1
	}
	return d
}

func (d *direction) reset() {
	for _, v := range d.touched {
		d.dist[v] = math.Inf(1)
		d.parent[v] = -1
	}
	d.touched = d.touched[:0]
	d.pq.Clear()
}

func (d *direction) relax(v graph.NodeID, dist float64, via int32) bool {
	if dist >= d.dist[v] {
		return false
	}
	if math.IsInf(d.dist[v], 1) {
		d.touched = append(d.touched, v)
	}
	d.dist[v] = dist
	d.parent[v] = via
	d.pq.Insert(v, dist)
	return true
}

// minKey drops stale heap entries and returns the smallest live key.
func (d *direction) minKey() float64 {
	for {
		top, ok := d.pq.GetMin()
		if !ok {
			return math.Inf(1)
		}
		if top.GetRank() > d.dist[top.GetItem()] {
			d.pq.ExtractMin()
			continue
		}
		return top.GetRank()
	}
}

type searchSpace struct {
	forward  *direction
	backward *direction
}

// spacePool hands out per-query scratch arrays sized for one graph.
type spacePool struct {
	pool sync.Pool
}

func newSpacePool(n int) *spacePool {
	return &spacePool{
		pool: sync.Pool{
			New: func() any {
				return &searchSpace{forward: newDirection(n), backward: newDirection(n)}
			},
		},
	}
}

func (p *spacePool) get() *searchSpace {
	return p.pool.Get().(*searchSpace)
}

func (p *spacePool) put(s *searchSpace) {
	s.forward.reset()
	s.backward.reset()
	p.pool.Put(s)
}

type meeting struct {
	node graph.NodeID
	cost float64
}

func (m *meeting) update(v graph.NodeID, f, b *direction) {
	if c := f.dist[v] + b.dist[v]; c < m.cost {
		m.node, m.cost = v, c
	}
}

type budget struct {
	ctx     context.Context
	limit   int
	settled int
}

func (b *budget) step() error {
	if err := b.ctx.Err(); err != nil {
		return &TimeoutError{Settled: b.settled, Err: err}
	}
	b.settled++
	if b.limit > 0 && b.settled > b.limit {
		return &TimeoutError{Settled: b.settled, Err: ErrStepBudgetExceeded}
	}
	return nil
}

// bidirectionalDijkstra searches from s over out edges and from t over in
// edges, expanding the side with the smaller key, and stops once
// minF + minB >= best.
func bidirectionalDijkstra(ctx context.Context, g *graph.Graph, w weighting.Weighting, mode graph.Mode,
	s, t graph.NodeID, space *searchSpace, maxSettled int) (Path, error) {
	f, b := space.forward, space.backward
	m := meeting{node: graph.InvalidNode, cost: math.Inf(1)}
	bud := budget{ctx: ctx, limit: maxSettled}

	f.relax(s, 0, -1)
	b.relax(t, 0, -1)
	m.update(s, f, b)

	for {
		minF, minB := f.minKey(), b.minKey()
		if math.IsInf(minF, 1) && math.IsInf(minB, 1) {
			break
		}
		if minF+minB >= m.cost {
			break
		}
		if err := bud.step(); err != nil {
			return Path{Settled: bud.settled}, err
		}

		if minF <= minB {
			u := f.pq.ExtractMin().GetItem()
			begin, end := g.OutEdges(u)
			for id := begin; id < end; id++ {
				e := g.Edge(id)
				cost, ok := w.CostOf(e, mode)
				if !ok {
					continue
				}
				if f.relax(e.To, f.dist[u]+cost, int32(id)) {
					m.update(e.To, f, b)
				}
			}
		} else {
			v := b.pq.ExtractMin().GetItem()
			for _, id := range g.InEdges(v) {
				e := g.Edge(id)
				cost, ok := w.CostOf(e, mode)
				if !ok {
					continue
				}
				if b.relax(e.From, b.dist[v]+cost, int32(id)) {
					m.update(e.From, f, b)
				}
			}
		}
	}

	path := Path{Source: s, Target: t, Settled: bud.settled}
	if m.node == graph.InvalidNode {
		return path, nil
	}
	path.Found = true
	path.Cost = m.cost

	for v := m.node; f.parent[v] >= 0; {
		id := graph.EdgeID(f.parent[v])
		path.Edges = append(path.Edges, id)
		v = g.Edge(id).From
	}
	slices.Reverse(path.Edges)
	for v := m.node; b.parent[v] >= 0; {
		id := graph.EdgeID(b.parent[v])
		path.Edges = append(path.Edges, id)
		v = g.Edge(id).To
	}
	return path, nil
}

// hierarchySearch runs the upward searches of a contraction hierarchy query.
// Each side stops once its own min key reaches the best meeting cost.
func hierarchySearch(ctx context.Context, h *contractor.Hierarchy, s, t graph.NodeID,
	space *searchSpace, maxSettled int) (Path, error) {
	f, b := space.forward, space.backward
	m := meeting{node: graph.InvalidNode, cost: math.Inf(1)}
	bud := budget{ctx: ctx, limit: maxSettled}

	f.relax(s, 0, -1)
	b.relax(t, 0, -1)
	m.update(s, f, b)

	for {
		minF, minB := f.minKey(), b.minKey()
		forwardDone := minF >= m.cost
		backwardDone := minB >= m.cost
		if forwardDone && backwardDone {
			break
		}
		if err := bud.step(); err != nil {
			return Path{Settled: bud.settled}, err
		}

		if !forwardDone && (backwardDone || minF <= minB) {
			u := f.pq.ExtractMin().GetItem()
			for _, id := range h.UpEdges(u) {
				e := h.Edge(id)
				if f.relax(e.To, f.dist[u]+e.Cost, id) {
					m.update(e.To, f, b)
				}
			}
		} else {
			v := b.pq.ExtractMin().GetItem()
			for _, id := range h.DownEdges(v) {
				e := h.Edge(id)
				if b.relax(e.From, b.dist[v]+e.Cost, id) {
					m.update(e.From, f, b)
				}
			}
		}
	}

	path := Path{Source: s, Target: t, Settled: bud.settled}
	if m.node == graph.InvalidNode {
		return path, nil
	}
	path.Found = true
	path.Cost = m.cost

	var up []int32
	for v := m.node; f.parent[v] >= 0; {
		id := f.parent[v]
		up = append(up, id)
		v = h.Edge(id).From
	}
	slices.Reverse(up)
	for _, id := range up {
		path.Edges = h.Unpack(id, path.Edges)
	}
	for v := m.node; b.parent[v] >= 0; {
		id := b.parent[v]
		path.Edges = h.Unpack(id, path.Edges)
		v = h.Edge(id).To
	}
	return path, nil
}
