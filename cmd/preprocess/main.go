package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lintang-b-s/osm-routing/pkg/di"
	"github.com/lintang-b-s/osm-routing/pkg/di/config"
	"github.com/lintang-b-s/osm-routing/pkg/engine"
)

func main() {
	if err := config.RegisterFlags(pflag.CommandLine); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	pflag.Parse()
	viper.Set("policy", string(engine.PolicyImport))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	app, cleanup, err := di.InitializeApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
	defer cleanup()

	g := app.Engine.Graph()
	app.Log.Sugar().Infof("preprocessed %s into %s: %d nodes, %d edges in %s",
		app.Config.Extract, app.Config.GraphDir, g.NumNodes(), g.NumEdges(), time.Since(start).Round(time.Millisecond))
}
