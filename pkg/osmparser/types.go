package osmparser

import (
	"iter"

	"github.com/lintang-b-s/osm-routing/pkg/geo"
)

type Format int

const (
	FormatUnknown Format = iota
	FormatPBF
	FormatXML
	FormatJSONL
)

func (f Format) String() string {
	switch f {
	case FormatPBF:
		return "pbf"
	case FormatXML:
		return "xml"
	case FormatJSONL:
		return "jsonl"
	default:
		return "unknown"
	}
}

// Node is an OSM node with a valid position.
type Node struct {
	ID    int64
	Coord geo.Coordinate
}

// Way is a routable OSM way whose node references all resolved.
type Way struct {
	ID    int64
	Nodes []Node
	Tags  map[string]string
}

type Options struct {
	// ShowProgress draws a progress bar on stdout while scanning.
	ShowProgress bool
	// Procs is the number of pbf decoder goroutines.
	Procs int
}

type Report struct {
	NodesRead    int
	WaysRead     int
	WaysIgnored  int
	SkippedNodes int
	SkippedWays  int
	// SkippedLines counts json lines that did not decode at all.
	SkippedLines int
	// Errors holds the first MaxReportedErrors malformed records combined with multierr.
	Errors error
}

// Skipped is the total number of malformed records dropped during the load.
func (r Report) Skipped() int {
	return r.SkippedNodes + r.SkippedWays + r.SkippedLines
}

type Extract struct {
	nodes  []Node
	ways   []Way
	Report Report
}

// Nodes yields every valid node in read order.
func (e *Extract) Nodes() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for _, n := range e.nodes {
			if !yield(n) {
				return
			}
		}
	}
}

// Ways yields every resolved routable way in read order.
func (e *Extract) Ways() iter.Seq[Way] {
	return func(yield func(Way) bool) {
		for _, w := range e.ways {
			if !yield(w) {
				return
			}
		}
	}
}

func (e *Extract) NodeCount() int {
	return len(e.nodes)
}

func (e *Extract) WayCount() int {
	return len(e.ways)
}
