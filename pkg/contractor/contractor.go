package contractor

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/lintang-b-s/osm-routing/pkg/datastructure"
	"github.com/lintang-b-s/osm-routing/pkg/graph"
	"github.com/lintang-b-s/osm-routing/pkg/weighting"
)

const DefaultWitnessSettleLimit = 500

type Options struct {
	// WitnessSettleLimit caps the nodes settled by one witness search.
	// Hitting it only costs a redundant shortcut.
	WitnessSettleLimit int
	// Workers computes the initial priorities in parallel. Zero means GOMAXPROCS.
	Workers int
}

type arc struct {
	node graph.NodeID
	cost float64
	edge int32
}

type contraction struct {
	out        [][]arc
	in         [][]arc
	edges      []Edge
	contracted []bool
	neighbours []int32
	depth      []int32
	opts       Options
}

// Contract builds a contraction hierarchy of g for one (weighting, mode)
// profile. The node order depends only on g and w, never on scheduling.
func Contract(ctx context.Context, g *graph.Graph, w weighting.Weighting, mode graph.Mode, opts Options) (*Hierarchy, error) {
	if opts.WitnessSettleLimit <= 0 {
		opts.WitnessSettleLimit = DefaultWitnessSettleLimit
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}

	n := g.NumNodes()
	c := newContraction(g, w, mode, opts)

	priorities, err := c.initialPriorities(ctx, n)
	if err != nil {
		return nil, err
	}

	pq := datastructure.NewMinHeap[graph.NodeID, int](n)
	for v, p := range priorities {
		pq.Insert(graph.NodeID(v), p)
	}

	ws := newWitnessSearch(n)
	rank := make([]int32, n)
	next := int32(0)
	for !pq.IsEmpty() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("contraction interrupted after %d of %d nodes: %w", next, n, err)
		}

		v := pq.ExtractMin().GetItem()
		p := c.priority(ws, v)
		if top, ok := pq.GetMin(); ok && (p > top.GetRank() || (p == top.GetRank() && v > top.GetItem())) {
			pq.Insert(v, p)
			continue
		}

		c.contract(ws, v)
		rank[v] = next
		next++
	}

	return newHierarchy(mode, w.Name(), rank, c.edges, c.out), nil
}

func newContraction(g *graph.Graph, w weighting.Weighting, mode graph.Mode, opts Options) *contraction {
	n := g.NumNodes()
	c := &contraction{
		out:        make([][]arc, n),
		in:         make([][]arc, n),
		contracted: make([]bool, n),
		neighbours: make([]int32, n),
		depth:      make([]int32, n),
		opts:       opts,
	}

	// edges arrive sorted by (From, To), so parallel edges are adjacent
	for u := 0; u < n; u++ {
		begin, end := g.OutEdges(graph.NodeID(u))
		for id := begin; id < end; id++ {
			e := g.Edge(id)
			cost, ok := w.CostOf(e, mode)
			if !ok || e.From == e.To {
				continue
			}
			if last := len(c.out[u]) - 1; last >= 0 && c.out[u][last].node == e.To {
				if cost < c.out[u][last].cost {
					c.replaceArc(e.From, e.To, cost, c.addEdge(Edge{From: e.From, To: e.To, Cost: cost, Orig: id, Skip1: -1, Skip2: -1}))
				}
				continue
			}
			c.addArc(Edge{From: e.From, To: e.To, Cost: cost, Orig: id, Skip1: -1, Skip2: -1})
		}
	}
	return c
}

func (c *contraction) addEdge(e Edge) int32 {
	c.edges = append(c.edges, e)
	return int32(len(c.edges) - 1)
}

func (c *contraction) addArc(e Edge) {
	id := c.addEdge(e)
	c.out[e.From] = append(c.out[e.From], arc{node: e.To, cost: e.Cost, edge: id})
	c.in[e.To] = append(c.in[e.To], arc{node: e.From, cost: e.Cost, edge: id})
}

func (c *contraction) replaceArc(from, to graph.NodeID, cost float64, edge int32) {
	for i := range c.out[from] {
		if c.out[from][i].node == to {
			c.out[from][i] = arc{node: to, cost: cost, edge: edge}
			break
		}
	}
	for i := range c.in[to] {
		if c.in[to][i].node == from {
			c.in[to][i] = arc{node: from, cost: cost, edge: edge}
			break
		}
	}
}

// addShortcut inserts from->to unless an arc at least as cheap already exists.
func (c *contraction) addShortcut(from, to graph.NodeID, cost float64, skip1, skip2 int32) {
	e := Edge{From: from, To: to, Cost: cost, Orig: -1, Skip1: skip1, Skip2: skip2}
	for _, a := range c.out[from] {
		if a.node != to {
			continue
		}
		if a.cost <= cost {
			return
		}
		c.replaceArc(from, to, cost, c.addEdge(e))
		return
	}
	c.addArc(e)
}

type shortcut struct {
	from, to     graph.NodeID
	cost         float64
	skip1, skip2 int32
}

// shortcuts lists the shortcuts contracting v would need. The slice is
// appended to dst.
func (c *contraction) shortcuts(ws *witnessSearch, v graph.NodeID, dst []shortcut) []shortcut {
	for _, in := range c.in[v] {
		u := in.node
		if c.contracted[u] {
			continue
		}

		maxCost, targets := 0.0, 0
		for _, out := range c.out[v] {
			if out.node == u || c.contracted[out.node] {
				continue
			}
			targets++
			maxCost = max(maxCost, in.cost+out.cost)
		}
		if targets == 0 {
			continue
		}

		ws.run(c, u, v, maxCost, c.opts.WitnessSettleLimit)
		for _, out := range c.out[v] {
			x := out.node
			if x == u || c.contracted[x] {
				continue
			}
			candidate := in.cost + out.cost
			if ws.dist[x] <= candidate {
				continue
			}
			dst = append(dst, shortcut{from: u, to: x, cost: candidate, skip1: in.edge, skip2: out.edge})
		}
	}
	return dst
}

func (c *contraction) degree(v graph.NodeID) int {
	d := 0
	for _, a := range c.in[v] {
		if !c.contracted[a.node] {
			d++
		}
	}
	for _, a := range c.out[v] {
		if !c.contracted[a.node] {
			d++
		}
	}
	return d
}

// priority is edge difference + contracted neighbours + depth.
func (c *contraction) priority(ws *witnessSearch, v graph.NodeID) int {
	added := len(c.shortcuts(ws, v, nil))
	return added - c.degree(v) + int(c.neighbours[v]) + int(c.depth[v])
}

func (c *contraction) contract(ws *witnessSearch, v graph.NodeID) {
	for _, s := range c.shortcuts(ws, v, nil) {
		c.addShortcut(s.from, s.to, s.cost, s.skip1, s.skip2)
	}
	c.contracted[v] = true

	for _, arcs := range [][]arc{c.in[v], c.out[v]} {
		for _, a := range arcs {
			if c.contracted[a.node] {
				continue
			}
			c.neighbours[a.node]++
			if c.depth[v]+1 > c.depth[a.node] {
				c.depth[a.node] = c.depth[v] + 1
			}
		}
	}
}

// initialPriorities simulates every contraction on the untouched overlay.
// Workers own disjoint index ranges and their own witness search.
func (c *contraction) initialPriorities(ctx context.Context, n int) ([]int, error) {
	priorities := make([]int, n)
	workers := c.opts.Workers
	if workers > n {
		workers = n
	}
	if workers == 0 {
		return priorities, nil
	}
	chunk := (n + workers - 1) / workers

	eg, ctx := errgroup.WithContext(ctx)
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		eg.Go(func() error {
			ws := newWitnessSearch(n)
			for v := start; v < end; v++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				priorities[v] = c.priority(ws, graph.NodeID(v))
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("initial priorities: %w", err)
	}
	return priorities, nil
}
