package weighting

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/lintang-b-s/osm-routing/pkg/graph"
)

var ErrUnknownWeighting = errors.New("unknown weighting")

const (
	NameFastest  = "fastest"
	NameShortest = "shortest"
)

// Weighting assigns a traversal cost to an edge for a mode. ok is false when
// the edge must not be traversed. Costs are finite and non-negative.
type Weighting interface {
	Name() string
	CostOf(e *graph.Edge, mode graph.Mode) (cost float64, ok bool)
}

type Fastest struct{}

func (Fastest) Name() string {
	return NameFastest
}

// CostOf returns the travel time in seconds at min(edge speed, mode top speed).
func (Fastest) CostOf(e *graph.Edge, mode graph.Mode) (float64, bool) {
	if !e.Access.Allows(mode) {
		return 0, false
	}
	speed := math.Min(e.MaxSpeed, mode.MaxSpeed())
	if speed <= 0 {
		speed = math.Min(graph.DefaultSpeed, mode.MaxSpeed())
	}
	return e.Length / (speed / 3.6), true
}

type Shortest struct{}

func (Shortest) Name() string {
	return NameShortest
}

// CostOf returns the edge length in meters.
func (Shortest) CostOf(e *graph.Edge, mode graph.Mode) (float64, bool) {
	if !e.Access.Allows(mode) {
		return 0, false
	}
	return e.Length, true
}

// New returns the weighting called name. risk wraps the base weighting when
// it is non-nil.
func New(name string, risk *RiskOverlay) (Weighting, error) {
	var base Weighting
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NameFastest:
		base = Fastest{}
	case NameShortest:
		base = Shortest{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownWeighting, name)
	}
	if risk == nil {
		return base, nil
	}
	return NewRisk(base, risk), nil
}
