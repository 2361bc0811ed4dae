package graph

import (
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

type ComponentStats struct {
	Count   int
	Largest int
}

// Components counts the weakly connected components of g, ignoring edge direction and access.
func Components(g *Graph) ComponentStats {
	ug := simple.NewUndirectedGraph()
	for i := 0; i < g.NumNodes(); i++ {
		ug.AddNode(simple.Node(i))
	}
	for _, e := range g.edges {
		if e.From == e.To {
			continue
		}
		ug.SetEdge(ug.NewEdge(simple.Node(e.From), simple.Node(e.To)))
	}

	stats := ComponentStats{}
	for _, cc := range topo.ConnectedComponents(ug) {
		stats.Count++
		if len(cc) > stats.Largest {
			stats.Largest = len(cc)
		}
	}
	return stats
}
