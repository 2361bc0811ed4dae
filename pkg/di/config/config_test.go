package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lintang-b-s/osm-routing/pkg/engine"
	"github.com/lintang-b-s/osm-routing/pkg/graph"
	"github.com/lintang-b-s/osm-routing/pkg/logger"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(viper.New(), t.TempDir())
	require.NoError(t, err)

	ec, err := cfg.Engine()
	require.NoError(t, err)
	assert.Equal(t, engine.DefaultConfig(), ec)
	assert.Equal(t, logger.INFO_LEVEL, cfg.Logger().Level)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	yaml := "graph_dir: from-file\nquery_timeout: 2s\ncache_size: 16\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("ROUTING_CACHE_SIZE", "32")
	t.Setenv("ROUTING_PROFILES", "car/fastest,foot/shortest")

	v := viper.New()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("graph-dir", "out", "")
	fs.String("policy", "import-or-load", "")
	require.NoError(t, bindFlags(v, fs))
	require.NoError(t, fs.Parse([]string{"--policy", "load"}))

	cfg, err := load(v, dir)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.GraphDir)
	assert.Equal(t, 2*time.Second, cfg.QueryTimeout)
	assert.Equal(t, 32, cfg.CacheSize)

	ec, err := cfg.Engine()
	require.NoError(t, err)
	assert.Equal(t, engine.PolicyLoad, ec.Policy)
	assert.Equal(t, []engine.Profile{
		{Mode: graph.Car, Weighting: "fastest"},
		{Mode: graph.Foot, Weighting: "shortest"},
	}, ec.Profiles)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ROUTING_RISK_ALPHA=2.5\nROUTING_RISK_BETA=0.75\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("ROUTING_RISK_ALPHA")
		os.Unsetenv("ROUTING_RISK_BETA")
	})

	cfg, err := load(viper.New(), dir)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, cfg.RiskAlpha, 1e-9)

	ec, err := cfg.Engine()
	require.NoError(t, err)
	assert.InDelta(t, 0.75, ec.RiskBeta, 1e-9)
}

func TestValidate(t *testing.T) {
	t.Setenv("ROUTING_POLICY", "sometimes")
	_, err := load(viper.New(), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Policy")

	t.Setenv("ROUTING_POLICY", "load")
	t.Setenv("ROUTING_PROFILES", "boat/fastest")
	cfg, err := load(viper.New(), t.TempDir())
	require.NoError(t, err)
	_, err = cfg.Engine()
	assert.ErrorIs(t, err, graph.ErrUnknownMode)
}
