package routing

import (
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/quadtree"

	"github.com/lintang-b-s/osm-routing/pkg/geo"
	"github.com/lintang-b-s/osm-routing/pkg/graph"
)

const DefaultMaxSnapDistance = 2000.0

type snapPoint struct {
	id     graph.NodeID
	point  orb.Point
	access graph.AccessMask
}

func (p *snapPoint) Point() orb.Point {
	return p.point
}

// Snapper finds the graph node nearest to a coordinate.
type Snapper struct {
	tree *quadtree.Quadtree
}

func NewSnapper(g *graph.Graph) *Snapper {
	coords := make([]geo.Coordinate, g.NumNodes())
	for i := range coords {
		coords[i] = g.Coordinate(graph.NodeID(i))
	}
	bound := geo.BoundingBox(coords).Pad(1e-6)

	tree := quadtree.New(bound)
	for i, c := range coords {
		// the bound covers every node, so Add cannot fail
		_ = tree.Add(&snapPoint{id: graph.NodeID(i), point: c.Point(), access: g.NodeAccess(graph.NodeID(i))})
	}
	return &Snapper{tree: tree}
}

// Snap returns the nearest node usable by mode within maxDistance meters.
// Every usable node inside the lat/lon box around c padded by maxDistance is
// ranked by haversine distance, ties going to the lower node id.
func (s *Snapper) Snap(c geo.Coordinate, mode graph.Mode, maxDistance float64) (graph.NodeID, error) {
	if maxDistance <= 0 {
		maxDistance = DefaultMaxSnapDistance
	}

	best, bestDist := s.within(c, mode, maxDistance)
	if best != graph.InvalidNode && bestDist <= maxDistance {
		return best, nil
	}

	// nothing in range: widen the box until it holds a node closer than its
	// own radius, which is then the true nearest
	nearestDist := -1.0
	for r := maxDistance * 4; ; r *= 4 {
		id, d := s.within(c, mode, r)
		if id != graph.InvalidNode && d <= r {
			nearestDist = d
			break
		}
		if r >= maxSearchRadius {
			if id != graph.InvalidNode {
				nearestDist = d
			}
			break
		}
	}
	return graph.InvalidNode, &UnreachableLocationError{Location: c, Nearest: nearestDist, Radius: maxDistance}
}

// half the earth's circumference, every box this wide covers the globe
const maxSearchRadius = 20037508.0

func (s *Snapper) within(c geo.Coordinate, mode graph.Mode, radius float64) (graph.NodeID, float64) {
	usable := func(p orb.Pointer) bool {
		return p.(*snapPoint).access.Allows(mode)
	}
	box := orbgeo.BoundPad(orb.Bound{Min: c.Point(), Max: c.Point()}, radius)
	return nearest(c, s.tree.InBoundMatching(nil, box, usable))
}

func nearest(c geo.Coordinate, candidates []orb.Pointer) (graph.NodeID, float64) {
	best, bestDist := graph.InvalidNode, math.Inf(1)
	for _, cand := range candidates {
		sp := cand.(*snapPoint)
		d := geo.HaversineDistance(c.Lat, c.Lon, sp.point.Lat(), sp.point.Lon())
		if d < bestDist || (d == bestDist && sp.id < best) {
			best, bestDist = sp.id, d
		}
	}
	return best, bestDist
}
