package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lintang-b-s/osm-routing/pkg/engine"
	"github.com/lintang-b-s/osm-routing/pkg/logger"
)

const EnvPrefix = "ROUTING"

type Config struct {
	Extract            string        `mapstructure:"extract" validate:"required"`
	GraphDir           string        `mapstructure:"graph_dir" validate:"required"`
	Policy             string        `mapstructure:"policy" validate:"oneof=import-or-load import load"`
	Profiles           []string      `mapstructure:"profiles" validate:"dive,required"`
	MaxSnapDistance    float64       `mapstructure:"max_snap_distance" validate:"gt=0"`
	QueryTimeout       time.Duration `mapstructure:"query_timeout" validate:"gte=0"`
	MaxSettledNodes    int           `mapstructure:"max_settled_nodes" validate:"gte=0"`
	CacheSize          int           `mapstructure:"cache_size" validate:"gte=0"`
	WitnessSettleLimit int           `mapstructure:"witness_settle_limit" validate:"gt=0"`
	ContractionWorkers int           `mapstructure:"contraction_workers" validate:"gte=0"`
	RiskFile           string        `mapstructure:"risk_file"`
	RiskAlpha          float64       `mapstructure:"risk_alpha" validate:"gte=0"`
	RiskBeta           float64       `mapstructure:"risk_beta" validate:"gte=0"`
	Progress           bool          `mapstructure:"progress"`
	LogLevel           int           `mapstructure:"log_level" validate:"gte=-1,lte=2"`
	LogTimeFormat      string        `mapstructure:"log_time_format"`
}

// flag name -> viper key
var flagKeys = map[string]string{
	"extract":              "extract",
	"graph-dir":            "graph_dir",
	"policy":               "policy",
	"profiles":             "profiles",
	"max-snap-distance":    "max_snap_distance",
	"query-timeout":        "query_timeout",
	"max-settled-nodes":    "max_settled_nodes",
	"cache-size":           "cache_size",
	"witness-settle-limit": "witness_settle_limit",
	"contraction-workers":  "contraction_workers",
	"risk-file":            "risk_file",
	"risk-alpha":           "risk_alpha",
	"risk-beta":            "risk_beta",
	"progress":             "progress",
	"log-level":            "log_level",
}

func setDefaults(v *viper.Viper) {
	d := engine.DefaultConfig()
	profiles := make([]string, 0, len(d.Profiles))
	for _, p := range d.Profiles {
		profiles = append(profiles, p.String())
	}

	v.SetDefault("extract", d.ExtractPath)
	v.SetDefault("graph_dir", d.GraphDir)
	v.SetDefault("policy", string(d.Policy))
	v.SetDefault("profiles", profiles)
	v.SetDefault("max_snap_distance", d.MaxSnapDistance)
	v.SetDefault("query_timeout", d.QueryTimeout)
	v.SetDefault("max_settled_nodes", d.MaxSettledNodes)
	v.SetDefault("cache_size", d.CacheSize)
	v.SetDefault("witness_settle_limit", d.WitnessSettleLimit)
	v.SetDefault("contraction_workers", d.ContractionWorkers)
	v.SetDefault("risk_file", d.RiskFile)
	v.SetDefault("risk_alpha", d.RiskAlpha)
	v.SetDefault("risk_beta", d.RiskBeta)
	v.SetDefault("progress", d.ShowProgress)
	v.SetDefault("log_level", logger.INFO_LEVEL)
	v.SetDefault("log_time_format", time.RFC3339Nano)
}

// RegisterFlags adds the engine flags to fs and binds them to the global
// viper instance.
func RegisterFlags(fs *pflag.FlagSet) error {
	d := engine.DefaultConfig()
	fs.String("extract", d.ExtractPath, "OSM extract (.osm, .osm.pbf or .jsonl)")
	fs.String("graph-dir", d.GraphDir, "directory holding graph.db")
	fs.String("policy", string(d.Policy), "graph policy: import-or-load, import or load")
	fs.StringSlice("profiles", []string{"car/fastest"}, "mode/weighting pairs to contract")
	fs.Float64("max-snap-distance", d.MaxSnapDistance, "max snapping distance in meters")
	fs.Duration("query-timeout", d.QueryTimeout, "per query timeout, 0 disables it")
	fs.Int("max-settled-nodes", d.MaxSettledNodes, "per query settle budget, 0 disables it")
	fs.Int("cache-size", d.CacheSize, "route cache entries, 0 disables the cache")
	fs.Int("witness-settle-limit", d.WitnessSettleLimit, "witness search settle limit")
	fs.Int("contraction-workers", d.ContractionWorkers, "contraction goroutines, 0 uses GOMAXPROCS")
	fs.String("risk-file", d.RiskFile, "CSV of from,to,risk or from,to,...,risk1,risk2 rows")
	fs.Float64("risk-alpha", d.RiskAlpha, "primary risk penalty factor")
	fs.Float64("risk-beta", d.RiskBeta, "secondary risk penalty factor")
	fs.Bool("progress", d.ShowProgress, "show progress bars while importing")
	fs.Int("log-level", logger.INFO_LEVEL, "-1 debug, 0 info, 1 warn, 2 error")
	return bindFlags(viper.GetViper(), fs)
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

// New reads the configuration from the global viper instance. Sources in
// order of precedence: flags, ROUTING_* environment (a .env file is loaded
// first), config.yaml in the working directory, defaults.
func New() (*Config, error) {
	return load(viper.GetViper(), ".")
}

func load(v *viper.Viper, dir string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	validate := validator.New()
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var validatorErrs validator.ValidationErrors
	if !errors.As(err, &validatorErrs) {
		return err
	}
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	_ = enTranslations.RegisterDefaultTranslations(validate, trans)

	msgs := make([]string, 0, len(validatorErrs))
	for _, e := range validatorErrs {
		msgs = append(msgs, e.Translate(trans))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// Engine converts c into engine settings.
func (c *Config) Engine() (engine.Config, error) {
	policy, err := engine.ParsePolicy(c.Policy)
	if err != nil {
		return engine.Config{}, err
	}

	profiles := make([]engine.Profile, 0, len(c.Profiles))
	for _, s := range c.Profiles {
		p, err := engine.ParseProfile(s)
		if err != nil {
			return engine.Config{}, err
		}
		profiles = append(profiles, p)
	}

	return engine.Config{
		ExtractPath:        c.Extract,
		GraphDir:           c.GraphDir,
		Policy:             policy,
		Profiles:           profiles,
		MaxSnapDistance:    c.MaxSnapDistance,
		QueryTimeout:       c.QueryTimeout,
		MaxSettledNodes:    c.MaxSettledNodes,
		CacheSize:          c.CacheSize,
		WitnessSettleLimit: c.WitnessSettleLimit,
		ContractionWorkers: c.ContractionWorkers,
		RiskFile:           c.RiskFile,
		RiskAlpha:          c.RiskAlpha,
		RiskBeta:           c.RiskBeta,
		ShowProgress:       c.Progress,
	}, nil
}

func (c *Config) Logger() logger.Configuration {
	return logger.Configuration{
		Level:      c.LogLevel,
		TimeFormat: c.LogTimeFormat,
	}
}
