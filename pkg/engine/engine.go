package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/lintang-b-s/osm-routing/pkg/concurrent"
	"github.com/lintang-b-s/osm-routing/pkg/contractor"
	"github.com/lintang-b-s/osm-routing/pkg/graph"
	"github.com/lintang-b-s/osm-routing/pkg/routing"
	"github.com/lintang-b-s/osm-routing/pkg/weighting"
)

type Request = routing.Request

// Engine answers route queries over one immutable graph. All methods are
// safe for concurrent use.
type Engine struct {
	cfg         Config
	log         *zap.Logger
	g           *graph.Graph
	router      *routing.Router
	hierarchies map[Profile]*contractor.Hierarchy
	risk        *weighting.RiskOverlay
	cache       *lru.Cache[Request, routing.Result]
	metrics     *metrics
}

// New builds an engine from an in-memory graph. Hierarchies are matched to
// queries by their mode and weighting name.
func New(g *graph.Graph, hierarchies []*contractor.Hierarchy, cfg Config, log *zap.Logger, reg prometheus.Registerer) (*Engine, error) {
	risk, err := loadRisk(g, cfg, log)
	if err != nil {
		return nil, err
	}
	return newEngine(g, hierarchies, risk, cfg, log, reg)
}

func newEngine(g *graph.Graph, hierarchies []*contractor.Hierarchy, risk *weighting.RiskOverlay, cfg Config,
	log *zap.Logger, reg prometheus.Registerer) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}

	e := &Engine{
		cfg: cfg,
		log: log,
		g:   g,
		router: routing.NewRouter(g, nil, routing.Options{
			MaxSnapDistance: cfg.MaxSnapDistance,
			MaxSettledNodes: cfg.MaxSettledNodes,
		}),
		hierarchies: make(map[Profile]*contractor.Hierarchy, len(hierarchies)),
		risk:        risk,
		metrics:     newMetrics(reg),
	}

	for _, h := range hierarchies {
		if err := h.Validate(g.NumNodes(), g.NumEdges()); err != nil {
			return nil, fmt.Errorf("hierarchy %s/%s: %w", h.Mode(), h.Weighting(), err)
		}
		e.hierarchies[Profile{Mode: h.Mode(), Weighting: h.Weighting()}] = h
	}

	if cfg.CacheSize > 0 {
		cache, err := lru.New[Request, routing.Result](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("route cache: %w", err)
		}
		e.cache = cache
	}
	return e, nil
}

func (e *Engine) Graph() *graph.Graph {
	return e.g
}

// HasHierarchy reports whether queries for the profile use the contraction search.
func (e *Engine) HasHierarchy(mode graph.Mode, weightingName string) bool {
	w, err := weighting.New(weightingName, e.risk)
	if err != nil {
		return false
	}
	_, ok := e.hierarchies[Profile{Mode: mode, Weighting: w.Name()}]
	return ok
}

func normalize(req Request) Request {
	req.Weighting = strings.ToLower(strings.TrimSpace(req.Weighting))
	if req.Weighting == "" {
		req.Weighting = weighting.NameFastest
	}
	return req
}

// Route answers one query. NoRoute is reported through Result.Outcome, not
// as an error. The returned result must not be modified.
func (e *Engine) Route(ctx context.Context, req Request) (*routing.Result, error) {
	req = normalize(req)
	if req.Mode > graph.Foot {
		return nil, fmt.Errorf("%w: %d", graph.ErrUnknownMode, req.Mode)
	}

	if e.cache != nil {
		if res, ok := e.cache.Get(req); ok {
			e.metrics.cacheHits.Inc()
			e.metrics.queries.WithLabelValues(outcomeOf(&res, nil)).Inc()
			return &res, nil
		}
	}

	w, err := weighting.New(req.Weighting, e.risk)
	if err != nil {
		return nil, err
	}
	h := e.hierarchies[Profile{Mode: req.Mode, Weighting: w.Name()}]

	if e.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.QueryTimeout)
		defer cancel()
	}

	queryID := uuid.NewString()
	start := time.Now()
	res, err := e.router.NewQuery(req, w, h).Run(ctx)
	elapsed := time.Since(start)

	outcome := outcomeOf(res, err)
	e.metrics.queries.WithLabelValues(outcome).Inc()
	e.metrics.latency.Observe(elapsed.Seconds())
	if res != nil {
		e.metrics.settled.Observe(float64(res.Settled))
	}

	fields := []zap.Field{
		zap.String("query_id", queryID),
		zap.Stringer("mode", req.Mode),
		zap.String("weighting", w.Name()),
		zap.Bool("hierarchy", h != nil),
		zap.String("outcome", outcome),
		zap.Duration("elapsed", elapsed),
	}
	if err != nil {
		e.log.Info("route query failed", append(fields, zap.Error(err))...)
		return nil, err
	}
	e.log.Debug("route query", append(fields,
		zap.Int("settled", res.Settled),
		zap.Float64("distance_m", res.DistanceMeters))...)

	if e.cache != nil {
		e.cache.Add(req, *res)
	}
	return res, nil
}

type BatchResult struct {
	Result *routing.Result
	Err    error
}

// RouteBatch answers reqs on workers goroutines. Results keep request order.
func (e *Engine) RouteBatch(ctx context.Context, reqs []Request, workers int) []BatchResult {
	return concurrent.Map(workers, reqs, func(req Request) BatchResult {
		res, err := e.Route(ctx, req)
		return BatchResult{Result: res, Err: err}
	})
}
