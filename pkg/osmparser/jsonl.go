package osmparser

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/lintang-b-s/osm-routing/pkg/geo"
)

// a token dump may be one array on a single line
const maxLineSize = 1 << 30

// jsonRecord is one token of a dump. A line holds either a single record
//
//	{"type":"node","data":{"id":1,"lat":45.43,"lon":-75.69,"tag":{}}}
//	{"type":"way","data":{"id":7,"nd":[1,2],"tag":{"highway":"residential"}}}
//
// or an array of them.
type jsonRecord struct {
	Type string   `json:"type"`
	Data jsonData `json:"data"`
}

type jsonData struct {
	ID  *int64            `json:"id"`
	Lat *float64          `json:"lat"`
	Lon *float64          `json:"lon"`
	Nd  []int64           `json:"nd"`
	Tag map[string]string `json:"tag"`
}

func (c *collector) scanJSONL(ctx context.Context, r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo := int64(0)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		lineNo++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}

		if line[0] == '[' {
			var recs []jsonRecord
			if err := json.Unmarshal(line, &recs); err != nil {
				c.malformed(KindLine, lineNo, err.Error())
				continue
			}
			for _, rec := range recs {
				c.addRecord(rec, lineNo)
			}
			continue
		}

		var rec jsonRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			c.malformed(KindLine, lineNo, err.Error())
			continue
		}
		c.addRecord(rec, lineNo)
	}

	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan jsonl extract: %w", err)
	}
	return nil
}

func (c *collector) addRecord(rec jsonRecord, lineNo int64) {
	if rec.Data.ID == nil {
		if rec.Type == "node" || rec.Type == "way" {
			c.malformed(RecordKind(rec.Type), -lineNo, "missing id")
		}
		return
	}
	id := *rec.Data.ID

	switch rec.Type {
	case "node":
		if rec.Data.Lat == nil || rec.Data.Lon == nil {
			c.report.NodesRead++
			c.malformed(KindNode, id, "missing coordinate")
			return
		}
		c.addNode(id, geo.NewCoordinate(*rec.Data.Lat, *rec.Data.Lon))
	case "way":
		tags := rec.Data.Tag
		if tags == nil {
			tags = map[string]string{}
		}
		c.addWay(id, rec.Data.Nd, tags)
	}
}
