package engine_di

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/lintang-b-s/osm-routing/pkg/di/config"
	"github.com/lintang-b-s/osm-routing/pkg/engine"
)

func NewRegisterer() prometheus.Registerer {
	return prometheus.DefaultRegisterer
}

func New(ctx context.Context, cfg *config.Config, log *zap.Logger, reg prometheus.Registerer) (*engine.Engine, error) {
	ec, err := cfg.Engine()
	if err != nil {
		return nil, err
	}
	return engine.Open(ctx, ec, log, reg)
}
