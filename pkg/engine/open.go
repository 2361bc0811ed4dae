package engine

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/lintang-b-s/osm-routing/pkg/contractor"
	"github.com/lintang-b-s/osm-routing/pkg/graph"
	"github.com/lintang-b-s/osm-routing/pkg/kvdb"
	"github.com/lintang-b-s/osm-routing/pkg/osmparser"
	"github.com/lintang-b-s/osm-routing/pkg/weighting"
)

// Open builds the engine according to cfg.Policy. The graph store in
// cfg.GraphDir is only held open while the engine is built.
func Open(ctx context.Context, cfg Config, log *zap.Logger, reg prometheus.Registerer) (e *Engine, err error) {
	if log == nil {
		log = zap.NewNop()
	}

	db, err := kvdb.Open(cfg.GraphDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, db.Close())
		if err != nil {
			e = nil
		}
	}()

	switch cfg.Policy {
	case PolicyImport:
		return importExtract(ctx, db, cfg, log, reg)
	case PolicyLoad:
		return loadStored(ctx, db, cfg, log, reg)
	case PolicyImportOrLoad, "":
		e, err = loadStored(ctx, db, cfg, log, reg)
		if err == nil {
			return e, nil
		}
		if !errors.Is(err, kvdb.ErrNotFound) && !errors.Is(err, ErrStaleGraph) {
			return nil, err
		}
		log.Info("stored graph unusable, importing", zap.String("reason", err.Error()))
		return importExtract(ctx, db, cfg, log, reg)
	default:
		return nil, fmt.Errorf("unknown graph policy %q", cfg.Policy)
	}
}

func loadStored(ctx context.Context, db *kvdb.KVDB, cfg Config, log *zap.Logger, reg prometheus.Registerer) (*Engine, error) {
	stored, err := db.GetFingerprint()
	if err != nil {
		return nil, err
	}

	fp, err := kvdb.FingerprintFile(cfg.ExtractPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Warn("extract missing, loading stored graph unchecked",
			zap.String("extract", cfg.ExtractPath), zap.Stringer("stored", stored))
	case err != nil:
		return nil, err
	case fp != stored:
		return nil, fmt.Errorf("%w: stored %s, extract %s", ErrStaleGraph, stored, fp)
	}

	g, err := db.GetGraph()
	if err != nil {
		return nil, err
	}
	risk, err := loadRisk(g, cfg, log)
	if err != nil {
		return nil, err
	}

	hierarchies := make([]*contractor.Hierarchy, 0, len(cfg.Profiles))
	for _, p := range cfg.Profiles {
		w, err := weighting.New(p.Weighting, risk)
		if err != nil {
			return nil, err
		}
		h, err := db.GetHierarchy(p.Mode, w.Name())
		if errors.Is(err, kvdb.ErrNotFound) {
			log.Warn("no stored hierarchy for profile, contracting in memory", zap.Stringer("profile", p))
			h, err = contract(ctx, g, w, p.Mode, cfg, log)
		}
		if err != nil {
			return nil, fmt.Errorf("hierarchy %s: %w", p, err)
		}
		hierarchies = append(hierarchies, h)
	}

	log.Info("graph loaded",
		zap.String("path", db.Path()),
		zap.String("nodes", humanize.Comma(int64(g.NumNodes()))),
		zap.String("edges", humanize.Comma(int64(g.NumEdges()))),
		zap.Int("hierarchies", len(hierarchies)))
	return newEngine(g, hierarchies, risk, cfg, log, reg)
}

func importExtract(ctx context.Context, db *kvdb.KVDB, cfg Config, log *zap.Logger, reg prometheus.Registerer) (*Engine, error) {
	fp, err := kvdb.FingerprintFile(cfg.ExtractPath)
	if err != nil {
		return nil, err
	}

	g, err := Build(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	risk, err := loadRisk(g, cfg, log)
	if err != nil {
		return nil, err
	}

	hierarchies := make([]*contractor.Hierarchy, 0, len(cfg.Profiles))
	for _, p := range cfg.Profiles {
		w, err := weighting.New(p.Weighting, risk)
		if err != nil {
			return nil, err
		}
		h, err := contract(ctx, g, w, p.Mode, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("hierarchy %s: %w", p, err)
		}
		hierarchies = append(hierarchies, h)
	}

	if err := db.SaveAll(fp, g, hierarchies); err != nil {
		return nil, err
	}
	log.Info("graph stored", zap.String("path", db.Path()), zap.Stringer("fingerprint", fp))
	return newEngine(g, hierarchies, risk, cfg, log, reg)
}

// Build loads cfg.ExtractPath and turns it into a road graph.
func Build(ctx context.Context, cfg Config, log *zap.Logger) (*graph.Graph, error) {
	if log == nil {
		log = zap.NewNop()
	}

	extract, err := osmparser.Load(ctx, cfg.ExtractPath, osmparser.Options{ShowProgress: cfg.ShowProgress})
	if err != nil {
		return nil, &BuildError{Err: err}
	}
	report := extract.Report

	fields := []zap.Field{
		zap.String("extract", cfg.ExtractPath),
		zap.String("nodes", humanize.Comma(int64(report.NodesRead))),
		zap.String("ways", humanize.Comma(int64(report.WaysRead))),
		zap.Int("ways_ignored", report.WaysIgnored),
		zap.Int("skipped_nodes", report.SkippedNodes),
		zap.Int("skipped_ways", report.SkippedWays),
		zap.Int("skipped_lines", report.SkippedLines),
	}
	if report.Errors != nil {
		fields = append(fields, zap.Errors("malformed", multierr.Errors(report.Errors)))
		log.Warn("extract loaded with malformed records", fields...)
	} else {
		log.Info("extract loaded", fields...)
	}

	b := graph.NewBuilder(graph.BuilderOptions{ExpectedNodes: extract.NodeCount()})
	for way := range extract.Ways() {
		if _, err := b.AddWay(way); err != nil {
			return nil, &BuildError{Skipped: report.Skipped(), Err: err}
		}
	}
	g, err := b.Finalize()
	if err != nil {
		return nil, &BuildError{Skipped: report.Skipped(), Err: err}
	}

	cc := graph.Components(g)
	log.Info("graph built",
		zap.String("nodes", humanize.Comma(int64(g.NumNodes()))),
		zap.String("edges", humanize.Comma(int64(g.NumEdges()))),
		zap.Int("components", cc.Count),
		zap.Int("largest_component", cc.Largest))
	return g, nil
}

func contract(ctx context.Context, g *graph.Graph, w weighting.Weighting, mode graph.Mode, cfg Config, log *zap.Logger) (*contractor.Hierarchy, error) {
	h, err := contractor.Contract(ctx, g, w, mode, contractor.Options{
		WitnessSettleLimit: cfg.WitnessSettleLimit,
		Workers:            cfg.ContractionWorkers,
	})
	if err != nil {
		return nil, err
	}
	log.Info("hierarchy contracted",
		zap.Stringer("mode", mode),
		zap.String("weighting", w.Name()),
		zap.String("shortcuts", humanize.Comma(int64(h.NumShortcuts()))))
	return h, nil
}

func loadRisk(g *graph.Graph, cfg Config, log *zap.Logger) (*weighting.RiskOverlay, error) {
	if cfg.RiskFile == "" {
		return nil, nil
	}
	table, err := weighting.LoadRiskFile(cfg.RiskFile)
	if err != nil {
		return nil, err
	}
	overlay := weighting.NewRiskOverlay(g, table, cfg.RiskAlpha, cfg.RiskBeta)
	if log != nil {
		log.Info("risk overlay loaded",
			zap.String("path", cfg.RiskFile),
			zap.Int("rows", len(table)),
			zap.Int("edges", overlay.Len()))
	}
	return overlay, nil
}
