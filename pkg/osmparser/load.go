package osmparser

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/k0kubun/go-ansi"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/multierr"

	"github.com/lintang-b-s/osm-routing/pkg/geo"
)

// DetectFormat picks the extract format from the file name.
func DetectFormat(path string) Format {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(name, ".pbf"):
		return FormatPBF
	case strings.HasSuffix(name, ".osm"), strings.HasSuffix(name, ".xml"):
		return FormatXML
	case strings.HasSuffix(name, ".jsonl"), strings.HasSuffix(name, ".json"):
		return FormatJSONL
	default:
		return FormatUnknown
	}
}

// Load reads the extract at path.
func Load(ctx context.Context, path string, opts Options) (*Extract, error) {
	format := DetectFormat(path)
	if format == FormatUnknown {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open extract: %w", err)
	}
	defer f.Close()

	return LoadReader(ctx, f, format, opts)
}

// LoadReader streams an extract from r. Malformed records are skipped and
// reported in Extract.Report; only I/O, decode and ctx errors are returned.
func LoadReader(ctx context.Context, r io.Reader, format Format, opts Options) (*Extract, error) {
	bar := newProgressBar(opts.ShowProgress)
	bar.Describe("[cyan][1/2]Parsing osm objects...")

	c := newCollector()
	var err error
	switch format {
	case FormatPBF:
		procs := opts.Procs
		if procs <= 0 {
			procs = 1
		}
		scanner := osmpbf.New(ctx, r, procs)
		scanner.SkipRelations = true
		err = c.scan(ctx, scanner)
	case FormatXML:
		err = c.scan(ctx, osmxml.New(ctx, r))
	case FormatJSONL:
		err = c.scanJSONL(ctx, r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}
	bar.Add(1)

	bar.Describe("[cyan][2/2]Resolving way nodes...")
	extract := c.resolve()
	bar.Add(1)
	_ = bar.Finish()

	return extract, nil
}

func newProgressBar(show bool) *progressbar.ProgressBar {
	if !show {
		return progressbar.DefaultSilent(2)
	}
	return progressbar.NewOptions(2,
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(15),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

type rawWay struct {
	id      int64
	nodeIDs []int64
	tags    map[string]string
}

// collector buffers node positions by OSM id so ways may reference nodes
// declared after them.
type collector struct {
	nodeIndex map[int64]int
	nodes     []Node
	ways      []rawWay
	report    Report
	errCount  int
}

func newCollector() *collector {
	return &collector{
		nodeIndex: make(map[int64]int),
	}
}

func (c *collector) malformed(kind RecordKind, id int64, reason string) {
	switch kind {
	case KindWay:
		c.report.SkippedWays++
	case KindLine:
		c.report.SkippedLines++
	default:
		c.report.SkippedNodes++
	}
	c.errCount++
	if c.errCount <= MaxReportedErrors {
		c.report.Errors = multierr.Append(c.report.Errors, &MalformedInputError{Kind: kind, ID: id, Reason: reason})
	}
}

func (c *collector) addNode(id int64, coord geo.Coordinate) {
	c.report.NodesRead++
	if !coord.Valid() {
		c.malformed(KindNode, id, fmt.Sprintf("coordinate out of range: %s", coord))
		return
	}
	if idx, ok := c.nodeIndex[id]; ok {
		c.nodes[idx].Coord = coord
		return
	}
	c.nodeIndex[id] = len(c.nodes)
	c.nodes = append(c.nodes, Node{ID: id, Coord: coord})
}

func (c *collector) addWay(id int64, nodeIDs []int64, tags map[string]string) {
	c.report.WaysRead++
	if !isRoutable(tags) {
		c.report.WaysIgnored++
		return
	}
	if len(nodeIDs) < 2 {
		c.malformed(KindWay, id, fmt.Sprintf("way has %d nodes", len(nodeIDs)))
		return
	}
	c.ways = append(c.ways, rawWay{id: id, nodeIDs: nodeIDs, tags: tags})
}

func (c *collector) scan(ctx context.Context, scanner osm.Scanner) error {
	defer scanner.Close()

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch o := scanner.Object().(type) {
		case *osm.Node:
			// xml and pbf decode absent lat/lon as zero
			if o.Lat == 0 && o.Lon == 0 {
				c.report.NodesRead++
				c.malformed(KindNode, int64(o.ID), "missing coordinate")
				continue
			}
			c.addNode(int64(o.ID), geo.NewCoordinate(o.Lat, o.Lon))
		case *osm.Way:
			nodeIDs := make([]int64, len(o.Nodes))
			for i, wn := range o.Nodes {
				nodeIDs[i] = int64(wn.ID)
			}
			c.addWay(int64(o.ID), nodeIDs, o.Tags.Map())
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan extract: %w", err)
	}
	return nil
}

func (c *collector) resolve() *Extract {
	ways := make([]Way, 0, len(c.ways))
	for _, rw := range c.ways {
		nodes := make([]Node, 0, len(rw.nodeIDs))
		missing := int64(0)
		resolved := true
		for _, id := range rw.nodeIDs {
			idx, ok := c.nodeIndex[id]
			if !ok {
				missing = id
				resolved = false
				break
			}
			nodes = append(nodes, c.nodes[idx])
		}
		if !resolved {
			c.malformed(KindWay, rw.id, fmt.Sprintf("references unknown node %d", missing))
			continue
		}
		ways = append(ways, Way{ID: rw.id, Nodes: nodes, Tags: rw.tags})
	}

	return &Extract{
		nodes:  c.nodes,
		ways:   ways,
		Report: c.report,
	}
}

func isRoutable(tags map[string]string) bool {
	if _, ok := tags["highway"]; ok {
		return true
	}
	_, ok := tags["junction"]
	return ok
}
