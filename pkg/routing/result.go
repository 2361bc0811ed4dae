package routing

import (
	"fmt"
	"math"

	"github.com/twpayne/go-polyline"

	"github.com/lintang-b-s/osm-routing/pkg/geo"
	"github.com/lintang-b-s/osm-routing/pkg/graph"
	"github.com/lintang-b-s/osm-routing/pkg/weighting"
)

type Outcome uint8

const (
	OutcomeFound Outcome = iota
	OutcomeNoRoute
)

func (o Outcome) String() string {
	if o == OutcomeFound {
		return "found"
	}
	return "no_route"
}

type Result struct {
	Outcome        Outcome          `json:"outcome"`
	Points         []geo.Coordinate `json:"points"`
	DistanceMeters float64          `json:"distance_meters"`
	DurationMillis int64            `json:"duration_millis"`
	Weight         float64          `json:"weight"`
	Edges          []graph.EdgeID   `json:"-"`
	SnappedSource  geo.Coordinate   `json:"snapped_source"`
	SnappedTarget  geo.Coordinate   `json:"snapped_target"`
	Settled        int              `json:"settled"`
}

func (r *Result) Found() bool {
	return r.Outcome == OutcomeFound
}

// Polyline encodes the points with the Google polyline algorithm.
func (r *Result) Polyline() string {
	coords := make([][]float64, 0, len(r.Points))
	for _, p := range r.Points {
		coords = append(coords, []float64{p.Lat, p.Lon})
	}
	return string(polyline.EncodeCoords(coords))
}

// Assemble turns a path into coordinates and totals. Duration always uses
// the fastest weighting, whatever weighting produced the path.
func Assemble(g *graph.Graph, path Path, mode graph.Mode) (Result, error) {
	res := Result{
		Outcome:       OutcomeNoRoute,
		SnappedSource: g.Coordinate(path.Source),
		SnappedTarget: g.Coordinate(path.Target),
		Settled:       path.Settled,
	}
	if !path.Found {
		return res, nil
	}

	res.Outcome = OutcomeFound
	res.Weight = path.Cost
	res.Edges = path.Edges
	res.Points = make([]geo.Coordinate, 0, len(path.Edges)+1)
	res.Points = append(res.Points, g.Coordinate(path.Source))

	at := path.Source
	seconds := 0.0
	for _, id := range path.Edges {
		e := g.Edge(id)
		if e.From != at {
			return Result{}, fmt.Errorf("assemble: edge %d starts at node %d, expected %d", id, e.From, at)
		}
		t, ok := weighting.Fastest{}.CostOf(e, mode)
		if !ok {
			return Result{}, fmt.Errorf("assemble: edge %d is closed to %s", id, mode)
		}
		seconds += t
		res.DistanceMeters += e.Length
		res.Points = append(res.Points, g.Coordinate(e.To))
		at = e.To
	}
	if at != path.Target {
		return Result{}, fmt.Errorf("assemble: path ends at node %d, expected %d", at, path.Target)
	}

	res.DurationMillis = int64(math.Round(seconds * 1000))
	return res, nil
}
