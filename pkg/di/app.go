package di

import (
	"go.uber.org/zap"

	"github.com/lintang-b-s/osm-routing/pkg/di/config"
	"github.com/lintang-b-s/osm-routing/pkg/engine"
)

type App struct {
	Config *config.Config
	Log    *zap.Logger
	Engine *engine.Engine
}
