package logger_di

import (
	"go.uber.org/zap"

	"github.com/lintang-b-s/osm-routing/pkg/di/config"
	"github.com/lintang-b-s/osm-routing/pkg/logger"
)

func New(cfg *config.Config) (*zap.Logger, func(), error) {
	log, err := logger.New(cfg.Logger())
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		_ = log.Sync()
	}

	return log, cleanup, nil
}
