//go:build wireinject

//go:generate wire
package di

import (
	"context"

	"github.com/google/wire"

	"github.com/lintang-b-s/osm-routing/pkg/di/config"
	engine_di "github.com/lintang-b-s/osm-routing/pkg/di/engine"
	logger_di "github.com/lintang-b-s/osm-routing/pkg/di/logger"
)

var defaultSet = wire.NewSet(
	config.New,
	logger_di.New,
)

var engineSet = wire.NewSet(
	defaultSet,
	engine_di.NewRegisterer,
	engine_di.New,
	wire.Struct(new(App), "*"),
)

func InitializeApp(ctx context.Context) (*App, func(), error) {
	panic(wire.Build(engineSet))
}
