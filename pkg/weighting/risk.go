package weighting

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/lintang-b-s/osm-routing/pkg/graph"
)

// RiskScore holds the two risk values of an edge, weighted by alpha and
// beta respectively.
type RiskScore struct {
	Primary   float64
	Secondary float64
}

// RiskTable maps an OSM (from, to) node pair to its risk scores.
type RiskTable map[[2]int64]RiskScore

// LoadRiskFile reads a risk CSV from path.
func LoadRiskFile(path string) (RiskTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open risk file: %w", err)
	}
	defer f.Close()
	return LoadRiskCSV(f)
}

// LoadRiskCSV reads rows of from,to,risk or from,to,...,risk1,risk2. With four
// or more fields the last two are the primary and secondary risk. A
// non-numeric first row is taken as a header.
func LoadRiskCSV(r io.Reader) (RiskTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	table := make(RiskTable)
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("risk csv: %w", err)
		}
		if len(rec) < 3 {
			return nil, fmt.Errorf("risk csv row %d: want 3 fields, got %d", row, len(rec))
		}

		from, errFrom := strconv.ParseInt(strings.TrimSpace(rec[0]), 10, 64)
		to, errTo := strconv.ParseInt(strings.TrimSpace(rec[1]), 10, 64)
		if row == 1 && (errFrom != nil || errTo != nil) {
			continue
		}
		if errFrom != nil || errTo != nil {
			return nil, fmt.Errorf("risk csv row %d: bad node id", row)
		}
		var score RiskScore
		if len(rec) == 3 {
			score.Primary, err = parseRisk(rec[2])
		} else {
			score.Primary, err = parseRisk(rec[len(rec)-2])
			if err == nil {
				score.Secondary, err = parseRisk(rec[len(rec)-1])
			}
		}
		if err != nil {
			return nil, fmt.Errorf("risk csv row %d: %w", row, err)
		}
		table[[2]int64{from, to}] = score
	}
	return table, nil
}

func parseRisk(field string) (float64, error) {
	risk, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
	if err != nil || risk < 0 || math.IsNaN(risk) || math.IsInf(risk, 0) {
		return 0, fmt.Errorf("bad risk %q", field)
	}
	return risk, nil
}

// RiskOverlay is a RiskTable resolved against the dense ids of one graph.
type RiskOverlay struct {
	alpha float64
	beta  float64
	risk  map[[2]graph.NodeID]RiskScore
}

func NewRiskOverlay(g *graph.Graph, table RiskTable, alpha, beta float64) *RiskOverlay {
	byOSM := make(map[int64]graph.NodeID, g.NumNodes())
	for i := 0; i < g.NumNodes(); i++ {
		byOSM[g.Node(graph.NodeID(i)).OSMID] = graph.NodeID(i)
	}

	risk := make(map[[2]graph.NodeID]RiskScore, len(table))
	for pair, r := range table {
		from, okFrom := byOSM[pair[0]]
		to, okTo := byOSM[pair[1]]
		if okFrom && okTo {
			risk[[2]graph.NodeID{from, to}] = r
		}
	}
	return &RiskOverlay{alpha: alpha, beta: beta, risk: risk}
}

func (o *RiskOverlay) Len() int {
	return len(o.risk)
}

func (o *RiskOverlay) factor(e *graph.Edge) float64 {
	r := o.risk[[2]graph.NodeID{e.From, e.To}]
	return 1 + o.alpha*r.Primary + o.beta*r.Secondary
}

// Risk scales a base weighting by 1 + alpha*risk1 + beta*risk2 of the edge.
type Risk struct {
	base    Weighting
	overlay *RiskOverlay
}

func NewRisk(base Weighting, overlay *RiskOverlay) *Risk {
	return &Risk{base: base, overlay: overlay}
}

func (r *Risk) Name() string {
	return r.base.Name() + "_risk"
}

func (r *Risk) CostOf(e *graph.Edge, mode graph.Mode) (float64, bool) {
	cost, ok := r.base.CostOf(e, mode)
	if !ok {
		return 0, false
	}
	return cost * r.overlay.factor(e), true
}
