package routing

import (
	"errors"
	"fmt"

	"github.com/lintang-b-s/osm-routing/pkg/geo"
)

var ErrStepBudgetExceeded = errors.New("step budget exceeded")

// UnreachableLocationError is returned when no node usable by the mode lies
// within the snap radius of a query point.
type UnreachableLocationError struct {
	Location geo.Coordinate
	// Nearest is the distance in meters to the closest usable node, or -1 if none exists.
	Nearest float64
	Radius  float64
}

func (e *UnreachableLocationError) Error() string {
	if e.Nearest < 0 {
		return fmt.Sprintf("location %s: no routable node", e.Location)
	}
	return fmt.Sprintf("location %s: nearest routable node is %.1fm away, limit %.1fm", e.Location, e.Nearest, e.Radius)
}

// TimeoutError reports a search that gave up. It unwraps to the context
// error or to ErrStepBudgetExceeded.
type TimeoutError struct {
	Settled int
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("search stopped after %d settled nodes: %v", e.Settled, e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}
