package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/lintang-b-s/osm-routing/pkg/contractor"
	"github.com/lintang-b-s/osm-routing/pkg/graph"
	"github.com/lintang-b-s/osm-routing/pkg/routing"
	"github.com/lintang-b-s/osm-routing/pkg/weighting"
)

type Policy string

const (
	PolicyImportOrLoad Policy = "import-or-load"
	PolicyImport       Policy = "import"
	PolicyLoad         Policy = "load"
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyImportOrLoad, PolicyImport, PolicyLoad:
		return p, nil
	}
	return "", fmt.Errorf("unknown graph policy %q", s)
}

// Profile names one (mode, weighting) pair that gets a contraction hierarchy.
type Profile struct {
	Mode      graph.Mode
	Weighting string
}

func (p Profile) String() string {
	return p.Mode.String() + "/" + p.Weighting
}

// ParseProfile reads "car/fastest" style names.
func ParseProfile(s string) (Profile, error) {
	modeName, weightingName, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return Profile{}, fmt.Errorf("profile %q: want mode/weighting", s)
	}
	mode, err := graph.ParseMode(modeName)
	if err != nil {
		return Profile{}, fmt.Errorf("profile %q: %w", s, err)
	}
	if _, err := weighting.New(weightingName, nil); err != nil {
		return Profile{}, fmt.Errorf("profile %q: %w", s, err)
	}
	return Profile{Mode: mode, Weighting: strings.ToLower(weightingName)}, nil
}

type Config struct {
	ExtractPath string
	GraphDir    string
	Policy      Policy
	// Profiles are contracted at import. Other profiles use the plain search.
	Profiles []Profile

	MaxSnapDistance float64
	QueryTimeout    time.Duration
	MaxSettledNodes int
	CacheSize       int

	WitnessSettleLimit int
	ContractionWorkers int

	RiskFile  string
	RiskAlpha float64
	RiskBeta  float64

	ShowProgress bool
}

func DefaultConfig() Config {
	return Config{
		ExtractPath:        "lowertown.osm",
		GraphDir:           "out",
		Policy:             PolicyImportOrLoad,
		Profiles:           []Profile{{Mode: graph.Car, Weighting: weighting.NameFastest}},
		MaxSnapDistance:    routing.DefaultMaxSnapDistance,
		QueryTimeout:       5 * time.Second,
		CacheSize:          1024,
		WitnessSettleLimit: contractor.DefaultWitnessSettleLimit,
		RiskAlpha:          1,
	}
}
