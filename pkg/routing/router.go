package routing

import (
	"context"

	"github.com/lintang-b-s/osm-routing/pkg/contractor"
	"github.com/lintang-b-s/osm-routing/pkg/geo"
	"github.com/lintang-b-s/osm-routing/pkg/graph"
	"github.com/lintang-b-s/osm-routing/pkg/weighting"
)

// Request is a comparable point-to-point query.
type Request struct {
	Source      geo.Coordinate
	Destination geo.Coordinate
	Mode        graph.Mode
	Weighting   string
}

type Options struct {
	// MaxSnapDistance is the snap radius in meters.
	MaxSnapDistance float64
	// MaxSettledNodes bounds one search. Zero means unbounded.
	MaxSettledNodes int
}

// Router answers queries over one immutable graph. It is safe for concurrent use.
type Router struct {
	g       *graph.Graph
	snapper *Snapper
	spaces  *spacePool
	opts    Options
}

func NewRouter(g *graph.Graph, snapper *Snapper, opts Options) *Router {
	if snapper == nil {
		snapper = NewSnapper(g)
	}
	if opts.MaxSnapDistance <= 0 {
		opts.MaxSnapDistance = DefaultMaxSnapDistance
	}
	return &Router{
		g:       g,
		snapper: snapper,
		spaces:  newSpacePool(g.NumNodes()),
		opts:    opts,
	}
}

func (r *Router) Graph() *graph.Graph {
	return r.g
}

// Query is one execution of a Request. h may be nil, in which case the
// plain bidirectional search is used.
type Query struct {
	router *Router
	req    Request
	w      weighting.Weighting
	h      *contractor.Hierarchy
	life   lifecycle
}

func (r *Router) NewQuery(req Request, w weighting.Weighting, h *contractor.Hierarchy) *Query {
	return &Query{router: r, req: req, w: w, h: h, life: newLifecycle()}
}

func (q *Query) State() State {
	return q.life.state
}

// Trace returns the states the query has passed through, in order.
func (q *Query) Trace() []State {
	return append([]State(nil), q.life.trace...)
}

// Run snaps both endpoints, searches and assembles the result. A query can
// only be run once.
func (q *Query) Run(ctx context.Context) (*Result, error) {
	r := q.router
	q.life.advance(Snapping)

	s, err := r.snapper.Snap(q.req.Source, q.req.Mode, r.opts.MaxSnapDistance)
	if err != nil {
		q.life.advance(Terminal)
		return nil, err
	}
	t, err := r.snapper.Snap(q.req.Destination, q.req.Mode, r.opts.MaxSnapDistance)
	if err != nil {
		q.life.advance(Terminal)
		return nil, err
	}

	q.life.advance(Searching)
	var path Path
	if s == t {
		path = Path{Source: s, Target: t, Found: true}
	} else {
		space := r.spaces.get()
		if q.h != nil {
			path, err = hierarchySearch(ctx, q.h, s, t, space, r.opts.MaxSettledNodes)
		} else {
			path, err = bidirectionalDijkstra(ctx, r.g, q.w, q.req.Mode, s, t, space, r.opts.MaxSettledNodes)
		}
		r.spaces.put(space)
		if err != nil {
			q.life.advance(Terminal)
			return nil, err
		}
	}
	path.Source, path.Target = s, t

	res, err := Assemble(r.g, path, q.req.Mode)
	if err != nil {
		q.life.advance(Terminal)
		return nil, err
	}
	if res.Found() {
		q.life.advance(Found)
	} else {
		q.life.advance(NoRoute)
	}
	q.life.advance(Terminal)
	return &res, nil
}

// Route runs a single query.
func (r *Router) Route(ctx context.Context, req Request, w weighting.Weighting, h *contractor.Hierarchy) (*Result, error) {
	return r.NewQuery(req, w, h).Run(ctx)
}
