package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/lintang-b-s/osm-routing/pkg/di"
	"github.com/lintang-b-s/osm-routing/pkg/di/config"
	"github.com/lintang-b-s/osm-routing/pkg/engine"
	"github.com/lintang-b-s/osm-routing/pkg/geo"
	"github.com/lintang-b-s/osm-routing/pkg/graph"
	"github.com/lintang-b-s/osm-routing/pkg/routing"
	"github.com/lintang-b-s/osm-routing/pkg/weighting"
)

const (
	exitOther       = 1
	exitUsage       = 2
	exitNoRoute     = 3
	exitUnreachable = 4
	exitTimeout     = 5
)

var (
	mode          = pflag.String("mode", "car", "travel mode: car, bike or foot")
	weightingName = pflag.String("weighting", weighting.NameFastest, "fastest or shortest")
	format        = pflag.String("format", "lines", "output format: lines, polyline or json")
	batch         = pflag.String("batch", "", "file with one \"srcLat srcLon dstLat dstLon\" query per line, answered as JSON lines")
	workers       = pflag.Int("workers", runtime.GOMAXPROCS(0), "batch query goroutines")
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: route [flags] srcLat srcLon dstLat dstLon\n")
	pflag.PrintDefaults()
}

func main() {
	os.Exit(run())
}

func run() int {
	if err := config.RegisterFlags(pflag.CommandLine); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitOther
	}
	pflag.Usage = usage
	pflag.Parse()

	m, err := graph.ParseMode(*mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}
	if *format != "lines" && *format != "polyline" && *format != "json" {
		fmt.Fprintf(os.Stderr, "unknown format %q\n", *format)
		return exitUsage
	}

	var reqs []engine.Request
	if *batch != "" {
		reqs, err = readBatch(*batch, m)
	} else {
		var req engine.Request
		req, err = parseRequest(pflag.Args(), m)
		reqs = []engine.Request{req}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		usage()
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := di.InitializeApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitOther
	}
	defer cleanup()

	if *batch != "" {
		return writeBatch(os.Stdout, app.Engine.RouteBatch(ctx, reqs, *workers))
	}

	res, err := app.Engine.Route(ctx, reqs[0])
	if err != nil {
		app.Log.Debug("route failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		return exitCode(err)
	}
	if !res.Found() {
		fmt.Fprintln(os.Stderr, "no route between the given locations")
		return exitNoRoute
	}
	if err := write(os.Stdout, res); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitOther
	}
	return 0
}

func exitCode(err error) int {
	var unreachable *routing.UnreachableLocationError
	var timeout *routing.TimeoutError
	switch {
	case errors.As(err, &unreachable):
		return exitUnreachable
	case errors.As(err, &timeout), errors.Is(err, context.DeadlineExceeded):
		return exitTimeout
	case errors.Is(err, weighting.ErrUnknownWeighting), errors.Is(err, graph.ErrUnknownMode):
		return exitUsage
	default:
		return exitOther
	}
}

func parseRequest(args []string, m graph.Mode) (engine.Request, error) {
	if len(args) != 4 {
		return engine.Request{}, fmt.Errorf("want 4 coordinates, got %d", len(args))
	}
	var v [4]float64
	for i, a := range args {
		f, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
		if err != nil {
			return engine.Request{}, fmt.Errorf("coordinate %q: %w", a, err)
		}
		v[i] = f
	}

	src, dst := geo.NewCoordinate(v[0], v[1]), geo.NewCoordinate(v[2], v[3])
	if !src.Valid() || !dst.Valid() {
		return engine.Request{}, fmt.Errorf("coordinates out of range: %s -> %s", src, dst)
	}
	return engine.Request{Source: src, Destination: dst, Mode: m, Weighting: *weightingName}, nil
}

func readBatch(path string, m graph.Mode) ([]engine.Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var reqs []engine.Request
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
		req, err := parseRequest(fields, m)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		reqs = append(reqs, req)
	}
	return reqs, sc.Err()
}

func write(w io.Writer, res *routing.Result) error {
	switch *format {
	case "polyline":
		_, err := fmt.Fprintln(w, res.Polyline())
		return err
	case "json":
		return json.NewEncoder(w).Encode(res)
	default:
		bw := bufio.NewWriter(w)
		for _, p := range res.Points {
			fmt.Fprintf(bw, "%s,%s\n",
				strconv.FormatFloat(p.Lat, 'f', -1, 64),
				strconv.FormatFloat(p.Lon, 'f', -1, 64))
		}
		return bw.Flush()
	}
}

type batchLine struct {
	Index  int             `json:"index"`
	Result *routing.Result `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func writeBatch(w io.Writer, results []engine.BatchResult) int {
	enc := json.NewEncoder(w)
	for i, r := range results {
		line := batchLine{Index: i, Result: r.Result}
		if r.Err != nil {
			line.Error = r.Err.Error()
		}
		if err := enc.Encode(line); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitOther
		}
	}
	return 0
}
