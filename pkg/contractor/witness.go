package contractor

import (
	"math"

	"github.com/lintang-b-s/osm-routing/pkg/datastructure"
	"github.com/lintang-b-s/osm-routing/pkg/graph"
)

// witnessSearch is a one-to-many Dijkstra over the uncontracted overlay that
// never enters the node being contracted. Each goroutine owns one.
type witnessSearch struct {
	dist    []float64
	touched []graph.NodeID
	pq      *datastructure.MinHeap[graph.NodeID, float64]
}

func newWitnessSearch(n int) *witnessSearch {
	dist := make([]float64, n)
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	return &witnessSearch{
		dist: dist,
		pq:   datastructure.NewMinHeap[graph.NodeID, float64](64),
	}
}

func (ws *witnessSearch) reset() {
	for _, v := range ws.touched {
		ws.dist[v] = math.Inf(1)
	}
	ws.touched = ws.touched[:0]
	ws.pq.Clear()
}

func (ws *witnessSearch) relax(v graph.NodeID, d float64) {
	if d >= ws.dist[v] {
		return
	}
	if math.IsInf(ws.dist[v], 1) {
		ws.touched = append(ws.touched, v)
	}
	ws.dist[v] = d
	ws.pq.Insert(v, d)
}

// run settles nodes from source until the frontier passes maxCost or
// settleLimit nodes were settled. Distances stay readable until the next reset.
func (ws *witnessSearch) run(c *contraction, source, skip graph.NodeID, maxCost float64, settleLimit int) {
	ws.reset()
	ws.relax(source, 0)

	settled := 0
	for !ws.pq.IsEmpty() {
		item := ws.pq.ExtractMin()
		u, d := item.GetItem(), item.GetRank()
		if d > ws.dist[u] {
			continue
		}
		if d > maxCost {
			return
		}
		settled++
		if settleLimit > 0 && settled > settleLimit {
			return
		}

		for _, a := range c.out[u] {
			if a.node == skip || c.contracted[a.node] {
				continue
			}
			ws.relax(a.node, d+a.cost)
		}
	}
}
