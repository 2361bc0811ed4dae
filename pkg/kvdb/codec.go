package kvdb

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/lintang-b-s/osm-routing/pkg/compress"
	"github.com/lintang-b-s/osm-routing/pkg/contractor"
	"github.com/lintang-b-s/osm-routing/pkg/graph"
)

var (
	zstdOnce    sync.Once
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdErr     error
)

// codecs returns shared zstd coders. EncodeAll and DecodeAll are safe for
// concurrent use.
func codecs() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		zstdEncoder, zstdErr = zstd.NewWriter(nil)
		if zstdErr != nil {
			return
		}
		zstdDecoder, zstdErr = zstd.NewReader(nil)
	})
	return zstdEncoder, zstdDecoder, zstdErr
}

func encode(v any) ([]byte, error) {
	raw, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("msgpack marshal: %w", err)
	}
	enc, _, err := codecs()
	if err != nil {
		return nil, err
	}
	return enc.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

func decode(buf []byte, v any) error {
	_, dec, err := codecs()
	if err != nil {
		return err
	}
	raw, err := dec.DecodeAll(buf, nil)
	if err != nil {
		return fmt.Errorf("zstd decode: %w", err)
	}
	if err := msgpack.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("msgpack unmarshal: %w", err)
	}
	return nil
}

// storedGraph keeps the sorted source column delta encoded.
type storedGraph struct {
	Snapshot *graph.Snapshot `msgpack:"snapshot"`
	EdgeFrom []byte          `msgpack:"edge_from"`
}

func encodeGraph(g *graph.Graph) ([]byte, error) {
	s := g.Snapshot()
	from, err := compress.EncodeColumn(s.EdgeFrom)
	if err != nil {
		return nil, fmt.Errorf("encode edge sources: %w", err)
	}
	s.EdgeFrom = nil
	return encode(storedGraph{Snapshot: s, EdgeFrom: from})
}

func decodeGraph(buf []byte) (*graph.Graph, error) {
	var sg storedGraph
	if err := decode(buf, &sg); err != nil {
		return nil, err
	}
	if sg.Snapshot == nil {
		return nil, fmt.Errorf("%w: empty record", graph.ErrInvalidSnapshot)
	}
	from, err := compress.DecodeColumn(sg.EdgeFrom)
	if err != nil {
		return nil, fmt.Errorf("decode edge sources: %w", err)
	}
	sg.Snapshot.EdgeFrom = from
	return graph.FromSnapshot(sg.Snapshot)
}

// storedHierarchy keeps both offset columns delta encoded.
type storedHierarchy struct {
	Snapshot    *contractor.Snapshot `msgpack:"snapshot"`
	UpOffsets   []byte               `msgpack:"up_offsets"`
	DownOffsets []byte               `msgpack:"down_offsets"`
	UpEdges     []byte               `msgpack:"up_edges"`
	DownEdges   []byte               `msgpack:"down_edges"`
}

func encodeHierarchy(h *contractor.Hierarchy) ([]byte, error) {
	s := h.Snapshot()
	up, err := compress.EncodeColumn(s.UpOffsets)
	if err != nil {
		return nil, fmt.Errorf("encode up offsets: %w", err)
	}
	down, err := compress.EncodeColumn(s.DownOffsets)
	if err != nil {
		return nil, fmt.Errorf("encode down offsets: %w", err)
	}
	// the snapshot shares its slices with h, so clear a copy
	detached := *s
	detached.UpOffsets, detached.DownOffsets, detached.UpEdges, detached.DownEdges = nil, nil, nil, nil
	return encode(storedHierarchy{
		Snapshot:    &detached,
		UpOffsets:   up,
		DownOffsets: down,
		UpEdges:     compress.EncodeValues(s.UpEdges),
		DownEdges:   compress.EncodeValues(s.DownEdges),
	})
}

func decodeHierarchy(buf []byte) (*contractor.Hierarchy, error) {
	var sh storedHierarchy
	if err := decode(buf, &sh); err != nil {
		return nil, err
	}
	if sh.Snapshot == nil {
		return nil, fmt.Errorf("%w: empty record", contractor.ErrInvalidHierarchy)
	}

	var err error
	s := sh.Snapshot
	if s.UpOffsets, err = compress.DecodeColumn(sh.UpOffsets); err != nil {
		return nil, fmt.Errorf("decode up offsets: %w", err)
	}
	if s.DownOffsets, err = compress.DecodeColumn(sh.DownOffsets); err != nil {
		return nil, fmt.Errorf("decode down offsets: %w", err)
	}
	if s.UpEdges, err = compress.DecodeValues(sh.UpEdges); err != nil {
		return nil, fmt.Errorf("decode up edges: %w", err)
	}
	if s.DownEdges, err = compress.DecodeValues(sh.DownEdges); err != nil {
		return nil, fmt.Errorf("decode down edges: %w", err)
	}
	return contractor.FromSnapshot(s)
}
