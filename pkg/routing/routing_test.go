package routing

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/lintang-b-s/osm-routing/pkg/contractor"
	"github.com/lintang-b-s/osm-routing/pkg/geo"
	"github.com/lintang-b-s/osm-routing/pkg/graph"
	"github.com/lintang-b-s/osm-routing/pkg/osmparser"
	"github.com/lintang-b-s/osm-routing/pkg/weighting"
)

var (
	nodeA = osmparser.Node{ID: 1, Coord: geo.NewCoordinate(45.4300, -75.6900)}
	nodeB = osmparser.Node{ID: 2, Coord: geo.NewCoordinate(45.4300, -75.6890)}
	nodeC = osmparser.Node{ID: 3, Coord: geo.NewCoordinate(45.4300, -75.6880)}
)

// threeNodeGraph is A - B - C with 100 m edges at 10 km/h in both directions.
func threeNodeGraph(t *testing.T) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder(graph.BuilderOptions{})
	attrs := graph.EdgeAttributes{Length: 100, MaxSpeed: 10, Access: graph.AccessAll}
	for _, pair := range [][2]osmparser.Node{{nodeA, nodeB}, {nodeB, nodeA}, {nodeB, nodeC}, {nodeC, nodeB}} {
		_, err := b.AddEdge(pair[0], pair[1], attrs)
		require.NoError(t, err)
	}
	g, err := b.Finalize()
	require.NoError(t, err)
	return g
}

func gridGraph(t *testing.T, rows, cols int, seed uint64) *graph.Graph {
	t.Helper()
	rd := rand.New(rand.NewSource(seed))
	node := func(r, c int) osmparser.Node {
		return osmparser.Node{
			ID:    int64(r*cols + c + 1),
			Coord: geo.NewCoordinate(45.42+float64(r)*0.001, -75.70+float64(c)*0.001),
		}
	}

	b := graph.NewBuilder(graph.BuilderOptions{})
	link := func(a, c osmparser.Node) {
		attrs := graph.EdgeAttributes{
			Length:   50 + rd.Float64()*200,
			MaxSpeed: float64(10 + rd.Intn(60)),
			Access:   graph.AccessAll,
		}
		if rd.Intn(10) == 0 {
			attrs.Access = graph.AccessFoot
		}
		_, err := b.AddEdge(a, c, attrs)
		require.NoError(t, err)
		if rd.Intn(5) != 0 {
			_, err = b.AddEdge(c, a, attrs)
			require.NoError(t, err)
		}
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if c+1 < cols {
				link(node(r, c), node(r, c+1))
			}
			if r+1 < rows {
				link(node(r, c), node(r+1, c))
			}
		}
	}
	g, err := b.Finalize()
	require.NoError(t, err)
	return g
}

func TestThreeNodeRoute(t *testing.T) {
	g := threeNodeGraph(t)
	h, err := contractor.Contract(context.Background(), g, weighting.Fastest{}, graph.Car, contractor.Options{})
	require.NoError(t, err)
	router := NewRouter(g, nil, Options{})

	for name, hierarchy := range map[string]*contractor.Hierarchy{"plain": nil, "hierarchy": h} {
		t.Run(name, func(t *testing.T) {
			q := router.NewQuery(Request{
				Source:      nodeA.Coord,
				Destination: nodeC.Coord,
				Mode:        graph.Car,
				Weighting:   weighting.NameFastest,
			}, weighting.Fastest{}, hierarchy)
			res, err := q.Run(context.Background())
			require.NoError(t, err)

			assert.Equal(t, OutcomeFound, res.Outcome)
			assert.Equal(t, []geo.Coordinate{nodeA.Coord, nodeB.Coord, nodeC.Coord}, res.Points)
			assert.InDelta(t, 200.0, res.DistanceMeters, 1e-9)
			assert.Equal(t, int64(72000), res.DurationMillis)
			assert.InDelta(t, 72.0, res.Weight, 1e-9)
			assert.Equal(t, nodeA.Coord, res.SnappedSource)
			assert.Equal(t, nodeC.Coord, res.SnappedTarget)
			assert.Equal(t, []State{NotStarted, Snapping, Searching, Found, Terminal}, q.Trace())
		})
	}
}

// A -> B -> C with no way back.
func TestOneWayRoute(t *testing.T) {
	b := graph.NewBuilder(graph.BuilderOptions{})
	attrs := graph.EdgeAttributes{Length: 100, MaxSpeed: 10, Access: graph.AccessAll}
	for _, pair := range [][2]osmparser.Node{{nodeA, nodeB}, {nodeB, nodeC}} {
		_, err := b.AddEdge(pair[0], pair[1], attrs)
		require.NoError(t, err)
	}
	g, err := b.Finalize()
	require.NoError(t, err)

	h, err := contractor.Contract(context.Background(), g, weighting.Fastest{}, graph.Car, contractor.Options{})
	require.NoError(t, err)
	router := NewRouter(g, nil, Options{})

	for name, hierarchy := range map[string]*contractor.Hierarchy{"plain": nil, "hierarchy": h} {
		t.Run(name, func(t *testing.T) {
			res, err := router.Route(context.Background(), Request{
				Source:      nodeA.Coord,
				Destination: nodeC.Coord,
				Mode:        graph.Car,
				Weighting:   weighting.NameFastest,
			}, weighting.Fastest{}, hierarchy)
			require.NoError(t, err)
			assert.Equal(t, OutcomeFound, res.Outcome)
			assert.Equal(t, []geo.Coordinate{nodeA.Coord, nodeB.Coord, nodeC.Coord}, res.Points)
			assert.InDelta(t, 200.0, res.DistanceMeters, 1e-9)

			q := router.NewQuery(Request{
				Source:      nodeC.Coord,
				Destination: nodeA.Coord,
				Mode:        graph.Car,
				Weighting:   weighting.NameFastest,
			}, weighting.Fastest{}, hierarchy)
			res, err = q.Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, OutcomeNoRoute, res.Outcome)
			assert.False(t, res.Found())
			assert.Empty(t, res.Points)
			assert.Equal(t, []State{NotStarted, Snapping, Searching, NoRoute, Terminal}, q.Trace())
		})
	}
}

func TestSameNodeRoute(t *testing.T) {
	g := threeNodeGraph(t)
	router := NewRouter(g, nil, Options{})
	near := geo.NewCoordinate(nodeB.Coord.Lat+0.00001, nodeB.Coord.Lon)

	res, err := router.Route(context.Background(), Request{Source: nodeB.Coord, Destination: near, Mode: graph.Foot},
		weighting.Shortest{}, nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFound, res.Outcome)
	assert.Equal(t, []geo.Coordinate{nodeB.Coord}, res.Points)
	assert.Equal(t, 0.0, res.DistanceMeters)
	assert.Equal(t, int64(0), res.DurationMillis)
}

func TestDisjointComponentsNoRoute(t *testing.T) {
	b := graph.NewBuilder(graph.BuilderOptions{})
	attrs := graph.EdgeAttributes{Length: 100, MaxSpeed: 30, Access: graph.AccessAll}
	far := osmparser.Node{ID: 10, Coord: geo.NewCoordinate(45.4400, -75.6900)}
	farther := osmparser.Node{ID: 11, Coord: geo.NewCoordinate(45.4410, -75.6900)}
	for _, pair := range [][2]osmparser.Node{{nodeA, nodeB}, {nodeB, nodeA}, {far, farther}, {farther, far}} {
		_, err := b.AddEdge(pair[0], pair[1], attrs)
		require.NoError(t, err)
	}
	g, err := b.Finalize()
	require.NoError(t, err)

	h, err := contractor.Contract(context.Background(), g, weighting.Shortest{}, graph.Car, contractor.Options{})
	require.NoError(t, err)
	router := NewRouter(g, nil, Options{})

	for _, hierarchy := range []*contractor.Hierarchy{nil, h} {
		q := router.NewQuery(Request{Source: nodeA.Coord, Destination: farther.Coord, Mode: graph.Car},
			weighting.Shortest{}, hierarchy)
		res, err := q.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, OutcomeNoRoute, res.Outcome)
		assert.Empty(t, res.Points)
		assert.Equal(t, []State{NotStarted, Snapping, Searching, NoRoute, Terminal}, q.Trace())
	}
}

func TestUnreachableLocation(t *testing.T) {
	g := threeNodeGraph(t)
	router := NewRouter(g, nil, Options{MaxSnapDistance: 500})

	q := router.NewQuery(Request{Source: geo.NewCoordinate(45.50, -75.69), Destination: nodeC.Coord, Mode: graph.Car},
		weighting.Fastest{}, nil)
	_, err := q.Run(context.Background())

	var unreachable *UnreachableLocationError
	require.True(t, errors.As(err, &unreachable))
	assert.Greater(t, unreachable.Nearest, 500.0)
	assert.Equal(t, []State{NotStarted, Snapping, Terminal}, q.Trace())
}

func TestSnapperRespectsMode(t *testing.T) {
	b := graph.NewBuilder(graph.BuilderOptions{})
	_, err := b.AddEdge(nodeA, nodeB, graph.EdgeAttributes{Length: 80, Access: graph.AccessFoot})
	require.NoError(t, err)
	_, err = b.AddEdge(nodeB, nodeC, graph.EdgeAttributes{Length: 80, Access: graph.AccessCar})
	require.NoError(t, err)
	g, err := b.Finalize()
	require.NoError(t, err)

	snapper := NewSnapper(g)
	id, err := snapper.Snap(nodeA.Coord, graph.Foot, 0)
	require.NoError(t, err)
	assert.Equal(t, nodeA.Coord, g.Coordinate(id))

	// A is only reachable on foot, B is the nearest car node
	id, err = snapper.Snap(nodeA.Coord, graph.Car, 0)
	require.NoError(t, err)
	assert.Equal(t, nodeB.Coord, g.Coordinate(id))

	_, err = snapper.Snap(nodeA.Coord, graph.Bike, 0)
	var unreachable *UnreachableLocationError
	require.True(t, errors.As(err, &unreachable))
	assert.Equal(t, -1.0, unreachable.Nearest)
}

// At 60N a degree of longitude is half a degree of latitude, so planar
// nearest neighbours are not the closest nodes on the ground.
func TestSnapHighLatitude(t *testing.T) {
	q := geo.NewCoordinate(60.0, 10.0)
	east := osmparser.Node{ID: 100, Coord: geo.NewCoordinate(60.0, 10.0015)}
	eastEnd := osmparser.Node{ID: 101, Coord: geo.NewCoordinate(60.0, 10.01)}

	b := graph.NewBuilder(graph.BuilderOptions{})
	attrs := graph.EdgeAttributes{Length: 50, MaxSpeed: 30, Access: graph.AccessAll}
	for i := 0; i < 8; i++ {
		// eight nodes 0.001 deg (111.3 m) north, spread over a few cm
		from := osmparser.Node{ID: int64(2*i + 1), Coord: geo.NewCoordinate(60.001, 10.0+float64(i)*1e-7)}
		to := osmparser.Node{ID: int64(2*i + 2), Coord: geo.NewCoordinate(60.002, 10.0+float64(i)*1e-7)}
		_, err := b.AddEdge(from, to, attrs)
		require.NoError(t, err)
	}
	_, err := b.AddEdge(east, eastEnd, attrs)
	require.NoError(t, err)
	g, err := b.Finalize()
	require.NoError(t, err)

	snapper := NewSnapper(g)
	id, err := snapper.Snap(q, graph.Car, 100)
	require.NoError(t, err)
	assert.Equal(t, east.Coord, g.Coordinate(id))
	assert.InDelta(t, 83.5, q.DistanceTo(g.Coordinate(id)), 0.5)

	_, err = snapper.Snap(q, graph.Car, 50)
	var unreachable *UnreachableLocationError
	require.True(t, errors.As(err, &unreachable))
	assert.InDelta(t, 83.5, unreachable.Nearest, 0.5)
}

func TestStepBudgetAndCancellation(t *testing.T) {
	g := gridGraph(t, 12, 12, 9)
	router := NewRouter(g, nil, Options{MaxSettledNodes: 3})
	req := Request{
		Source:      g.Coordinate(0),
		Destination: g.Coordinate(graph.NodeID(g.NumNodes() - 1)),
		Mode:        graph.Foot,
	}

	q := router.NewQuery(req, weighting.Shortest{}, nil)
	_, err := q.Run(context.Background())
	var timeout *TimeoutError
	require.True(t, errors.As(err, &timeout))
	assert.ErrorIs(t, err, ErrStepBudgetExceeded)
	assert.Equal(t, []State{NotStarted, Snapping, Searching, Terminal}, q.Trace())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewRouter(g, nil, Options{}).Route(ctx, req, weighting.Shortest{}, nil)
	require.True(t, errors.As(err, &timeout))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIllegalTransitionPanics(t *testing.T) {
	life := newLifecycle()
	assert.Panics(t, func() { life.advance(Found) })

	q := NewRouter(threeNodeGraph(t), nil, Options{}).NewQuery(Request{Source: nodeA.Coord, Destination: nodeB.Coord}, weighting.Shortest{}, nil)
	_, err := q.Run(context.Background())
	require.NoError(t, err)
	assert.Panics(t, func() { _, _ = q.Run(context.Background()) })
}

// oracle computes single-source costs with gonum, keeping the cheapest of
// parallel edges.
func oracle(g *graph.Graph, w weighting.Weighting, mode graph.Mode, source graph.NodeID) func(graph.NodeID) float64 {
	cheapest := map[[2]graph.NodeID]float64{}
	for id := 0; id < g.NumEdges(); id++ {
		e := g.Edge(graph.EdgeID(id))
		cost, ok := w.CostOf(e, mode)
		if !ok || e.From == e.To {
			continue
		}
		key := [2]graph.NodeID{e.From, e.To}
		if old, seen := cheapest[key]; !seen || cost < old {
			cheapest[key] = cost
		}
	}

	wg := simple.NewWeightedDirectedGraph(0, math.Inf(1))
	for i := 0; i < g.NumNodes(); i++ {
		wg.AddNode(simple.Node(i))
	}
	for key, cost := range cheapest {
		wg.SetWeightedEdge(wg.NewWeightedEdge(simple.Node(key[0]), simple.Node(key[1]), cost))
	}
	shortest := path.DijkstraFrom(simple.Node(source), wg)
	return func(target graph.NodeID) float64 {
		return shortest.WeightTo(int64(target))
	}
}

func pathCost(t *testing.T, g *graph.Graph, w weighting.Weighting, mode graph.Mode, p Path) float64 {
	t.Helper()
	total := 0.0
	at := p.Source
	for _, id := range p.Edges {
		e := g.Edge(id)
		require.Equal(t, at, e.From)
		cost, ok := w.CostOf(e, mode)
		require.True(t, ok)
		total += cost
		at = e.To
	}
	require.Equal(t, p.Target, at)
	return total
}

func TestSearchesMatchOracle(t *testing.T) {
	g := gridGraph(t, 15, 15, 2024)
	rd := rand.New(rand.NewSource(99))
	pool := newSpacePool(g.NumNodes())

	for _, w := range []weighting.Weighting{weighting.Fastest{}, weighting.Shortest{}} {
		for _, mode := range []graph.Mode{graph.Car, graph.Foot} {
			h, err := contractor.Contract(context.Background(), g, w, mode, contractor.Options{})
			require.NoError(t, err)

			for i := 0; i < 40; i++ {
				s := graph.NodeID(rd.Intn(g.NumNodes()))
				target := graph.NodeID(rd.Intn(g.NumNodes()))
				want := oracle(g, w, mode, s)(target)

				space := pool.get()
				plain, err := bidirectionalDijkstra(context.Background(), g, w, mode, s, target, space, 0)
				pool.put(space)
				require.NoError(t, err)

				space = pool.get()
				ch, err := hierarchySearch(context.Background(), h, s, target, space, 0)
				pool.put(space)
				require.NoError(t, err)

				if math.IsInf(want, 1) {
					assert.False(t, plain.Found, "%d -> %d", s, target)
					assert.False(t, ch.Found, "%d -> %d", s, target)
					continue
				}
				require.True(t, plain.Found, "%d -> %d", s, target)
				require.True(t, ch.Found, "%d -> %d", s, target)
				assert.InDelta(t, want, plain.Cost, 1e-6)
				assert.InDelta(t, want, ch.Cost, 1e-6)
				assert.InDelta(t, plain.Cost, pathCost(t, g, w, mode, plain), 1e-6)
				assert.InDelta(t, ch.Cost, pathCost(t, g, w, mode, ch), 1e-6)
			}
		}
	}
}

func TestPenaltyIsMonotonic(t *testing.T) {
	g := gridGraph(t, 12, 12, 7)
	rd := rand.New(rand.NewSource(3))
	pool := newSpacePool(g.NumNodes())
	search := func(w weighting.Weighting, s, target graph.NodeID) Path {
		space := pool.get()
		defer pool.put(space)
		p, err := bidirectionalDijkstra(context.Background(), g, w, graph.Car, s, target, space, 0)
		require.NoError(t, err)
		return p
	}

	var base Path
	for !base.Found || len(base.Edges) < 3 {
		base = search(weighting.Shortest{}, graph.NodeID(rd.Intn(g.NumNodes())), graph.NodeID(rd.Intn(g.NumNodes())))
	}
	penalized := g.Edge(base.Edges[len(base.Edges)/2])
	from, to := g.Node(penalized.From).OSMID, g.Node(penalized.To).OSMID
	overlay := weighting.NewRiskOverlay(g, weighting.RiskTable{{from, to}: {Primary: 2}}, 1, 0)
	w, err := weighting.New(weighting.NameShortest, overlay)
	require.NoError(t, err)

	after := search(w, base.Source, base.Target)
	require.True(t, after.Found)
	assert.GreaterOrEqual(t, after.Cost, base.Cost-1e-9)

	uses := func(p Path) bool {
		for _, id := range p.Edges {
			e := g.Edge(id)
			if e.From == penalized.From && e.To == penalized.To {
				return true
			}
		}
		return false
	}
	for i := 0; i < 30; i++ {
		s := graph.NodeID(rd.Intn(g.NumNodes()))
		target := graph.NodeID(rd.Intn(g.NumNodes()))
		before := search(weighting.Shortest{}, s, target)
		if !before.Found || uses(before) {
			continue
		}
		assert.InDelta(t, before.Cost, search(w, s, target).Cost, 1e-9, "%d -> %d", s, target)
	}
}

func TestPolyline(t *testing.T) {
	res := Result{Points: []geo.Coordinate{
		geo.NewCoordinate(38.5, -120.2),
		geo.NewCoordinate(40.7, -120.95),
		geo.NewCoordinate(43.252, -126.453),
	}}
	assert.Equal(t, "_p~iF~ps|U_ulLnnqC_mqNvxq`@", res.Polyline())
}
