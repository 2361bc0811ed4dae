package osmparser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

const lowertownXML = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="test">
  <way id="100">
    <nd ref="1"/>
    <nd ref="2"/>
    <nd ref="3"/>
    <tag k="highway" v="residential"/>
    <tag k="name" v="Clarence Street"/>
  </way>
  <way id="101">
    <nd ref="3"/>
    <nd ref="99"/>
    <tag k="highway" v="service"/>
  </way>
  <way id="102">
    <nd ref="1"/>
    <nd ref="2"/>
    <tag k="building" v="yes"/>
  </way>
  <node id="1" lat="45.4300" lon="-75.6900"/>
  <node id="2" lat="45.4310" lon="-75.6900"/>
  <node id="3" lat="45.4310" lon="-75.6890"/>
  <node id="4" lat="95.0" lon="-75.6890"/>
</osm>`

func TestLoadReaderXML(t *testing.T) {
	extract, err := LoadReader(context.Background(), strings.NewReader(lowertownXML), FormatXML, Options{})
	require.NoError(t, err)

	ways := slices.Collect(extract.Ways())
	require.Len(t, ways, 1)
	assert.Equal(t, int64(100), ways[0].ID)
	assert.Equal(t, "Clarence Street", ways[0].Tags["name"])
	require.Len(t, ways[0].Nodes, 3)
	assert.Equal(t, int64(3), ways[0].Nodes[2].ID)
	assert.InDelta(t, 45.431, ways[0].Nodes[2].Coord.Lat, 1e-9)

	nodes := slices.Collect(extract.Nodes())
	assert.Len(t, nodes, 3)

	report := extract.Report
	assert.Equal(t, 4, report.NodesRead)
	assert.Equal(t, 3, report.WaysRead)
	assert.Equal(t, 1, report.WaysIgnored)
	assert.Equal(t, 1, report.SkippedWays)
	assert.Equal(t, 1, report.SkippedNodes)
	assert.Equal(t, 2, report.Skipped())

	errs := multierr.Errors(report.Errors)
	require.Len(t, errs, 2)
	var malformed *MalformedInputError
	require.True(t, errors.As(errs[1], &malformed))
	assert.Equal(t, KindWay, malformed.Kind)
	assert.Equal(t, int64(101), malformed.ID)
}

const lowertownJSONL = `{"type":"way","data":{"id":7,"nd":[1,2,3],"tag":{"highway":"primary","oneway":"yes"}}}
{"type":"node","data":{"id":1,"lat":45.43,"lon":-75.69,"tag":{}}}
{"type":"node","data":{"id":2,"lat":45.431,"lon":-75.69}}
not json at all
{"type":"node","data":{"id":3,"lat":45.431}}
{"type":"node","data":{"id":4,"lat":45.432,"lon":-75.688}}
{"type":"way","data":{"id":8,"nd":[2,4],"tag":{"highway":"footway"}}}
{"type":"relation","data":{"id":9}}

{"type":"way","data":{"id":10,"nd":[4],"tag":{"highway":"footway"}}}
`

func TestLoadReaderJSONL(t *testing.T) {
	extract, err := LoadReader(context.Background(), strings.NewReader(lowertownJSONL), FormatJSONL, Options{})
	require.NoError(t, err)

	ways := slices.Collect(extract.Ways())
	require.Len(t, ways, 1)
	assert.Equal(t, int64(8), ways[0].ID)

	report := extract.Report
	// way 7 references node 3 which has no longitude
	assert.Equal(t, 2, report.SkippedWays)
	assert.Equal(t, 1, report.SkippedNodes)
	assert.Equal(t, 1, report.SkippedLines)
	assert.Equal(t, 4, report.Skipped())
	assert.Equal(t, 4, report.NodesRead)
	assert.Equal(t, 3, report.WaysRead)
	assert.Len(t, multierr.Errors(report.Errors), 4)
}

const lowertownTokens = `[{"type":"node","data":{"id":1,"lat":45.43,"lon":-75.69,"tag":{}}},{"type":"node","data":{"id":2,"lat":45.431,"lon":-75.69,"tag":{}}},{"type":"way","data":{"id":7,"nd":[1,2],"tag":{"highway":"residential"}}}]
[{"type":"node","data":{"id":3,"lat":45.432,"lon":-75.69}},{"type":"way","data":{"id":8,"nd":[2,3],"tag":{"highway":"service"}}}]
[{"type":"node","data":{"id":4,"lat":45.433,"lon":
`

func TestLoadReaderJSONArray(t *testing.T) {
	extract, err := LoadReader(context.Background(), strings.NewReader(lowertownTokens), FormatJSONL, Options{})
	require.NoError(t, err)

	ways := slices.Collect(extract.Ways())
	require.Len(t, ways, 2)
	assert.Equal(t, int64(7), ways[0].ID)
	assert.Equal(t, int64(8), ways[1].ID)
	require.Len(t, ways[1].Nodes, 2)
	assert.InDelta(t, 45.432, ways[1].Nodes[1].Coord.Lat, 1e-9)

	report := extract.Report
	assert.Equal(t, 3, report.NodesRead)
	assert.Equal(t, 2, report.WaysRead)
	assert.Equal(t, 0, report.SkippedNodes)
	assert.Equal(t, 1, report.SkippedLines)

	errs := multierr.Errors(report.Errors)
	require.Len(t, errs, 1)
	var malformed *MalformedInputError
	require.True(t, errors.As(errs[0], &malformed))
	assert.Equal(t, KindLine, malformed.Kind)
	assert.Equal(t, int64(3), malformed.ID)
}

const missingCoordinateXML = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="test">
  <node id="1" lat="45.4300" lon="-75.6900"/>
  <node id="2"/>
  <node id="3" lat="45.4310" lon="-75.6890"/>
  <way id="100">
    <nd ref="1"/>
    <nd ref="3"/>
    <tag k="highway" v="residential"/>
  </way>
  <way id="101">
    <nd ref="1"/>
    <nd ref="2"/>
    <tag k="highway" v="residential"/>
  </way>
</osm>`

func TestLoadReaderMissingCoordinate(t *testing.T) {
	extract, err := LoadReader(context.Background(), strings.NewReader(missingCoordinateXML), FormatXML, Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, extract.NodeCount())
	ways := slices.Collect(extract.Ways())
	require.Len(t, ways, 1)
	assert.Equal(t, int64(100), ways[0].ID)

	report := extract.Report
	assert.Equal(t, 3, report.NodesRead)
	assert.Equal(t, 1, report.SkippedNodes)
	assert.Equal(t, 1, report.SkippedWays)

	errs := multierr.Errors(report.Errors)
	require.Len(t, errs, 2)
	var malformed *MalformedInputError
	require.True(t, errors.As(errs[0], &malformed))
	assert.Equal(t, KindNode, malformed.Kind)
	assert.Equal(t, int64(2), malformed.ID)
	assert.Equal(t, "missing coordinate", malformed.Reason)
}

func TestLoadReaderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := LoadReader(ctx, strings.NewReader(lowertownJSONL), FormatJSONL, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lowertown.osm")
	require.NoError(t, os.WriteFile(path, []byte(lowertownXML), 0o644))

	extract, err := Load(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, extract.WayCount())

	_, err = Load(context.Background(), filepath.Join(dir, "lowertown.shp"), Options{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatPBF, DetectFormat("ottawa.osm.pbf"))
	assert.Equal(t, FormatXML, DetectFormat("lowertown.osm"))
	assert.Equal(t, FormatXML, DetectFormat("LOWERTOWN.XML"))
	assert.Equal(t, FormatJSONL, DetectFormat("/tmp/jsonTokens.jsonl"))
	assert.Equal(t, FormatUnknown, DetectFormat("lowertown.csv"))
}

func TestMalformedErrorsCapped(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < MaxReportedErrors+20; i++ {
		sb.WriteString(`{"type":"node","data":{"id":1,"lat":200,"lon":0}}` + "\n")
	}
	extract, err := LoadReader(context.Background(), strings.NewReader(sb.String()), FormatJSONL, Options{})
	require.NoError(t, err)
	assert.Equal(t, MaxReportedErrors+20, extract.Report.SkippedNodes)
	assert.Len(t, multierr.Errors(extract.Report.Errors), MaxReportedErrors)
}
