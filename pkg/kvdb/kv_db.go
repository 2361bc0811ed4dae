package kvdb

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"github.com/lintang-b-s/osm-routing/pkg/contractor"
	"github.com/lintang-b-s/osm-routing/pkg/graph"
)

var (
	ErrNotFound = errors.New("key not found")
)

const (
	DBFileName = "graph.db"

	BBOLTDB_BUCKET = "graph"

	keyFingerprint = "fingerprint"
	keyGraph       = "graph"
)

func hierarchyKey(mode graph.Mode, weighting string) []byte {
	return []byte(fmt.Sprintf("ch/%s/%s", mode, weighting))
}

// KVDB persists one imported graph and its hierarchies in a bbolt file.
type KVDB struct {
	db *bbolt.DB
	sync.Mutex
}

func NewKVDB(db *bbolt.DB) (*KVDB, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(BBOLTDB_BUCKET))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &KVDB{db: db}, nil
}

// Open opens or creates graph.db inside dir.
func Open(dir string) (*KVDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create graph dir: %w", err)
	}
	db, err := bbolt.Open(filepath.Join(dir, DBFileName), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open graph store: %w", err)
	}
	kv, err := NewKVDB(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return kv, nil
}

func (db *KVDB) Close() error {
	return db.db.Close()
}

func (db *KVDB) Path() string {
	return db.db.Path()
}

// SaveAll replaces the stored graph, its fingerprint and the given
// hierarchies in one transaction. Stale hierarchies are removed.
func (db *KVDB) SaveAll(fp Fingerprint, g *graph.Graph, hierarchies []*contractor.Hierarchy) error {
	fpBytes, err := encode(fp)
	if err != nil {
		return err
	}
	graphBytes, err := encodeGraph(g)
	if err != nil {
		return err
	}
	chBytes := make(map[string][]byte, len(hierarchies))
	for _, h := range hierarchies {
		b, err := encodeHierarchy(h)
		if err != nil {
			return err
		}
		chBytes[string(hierarchyKey(h.Mode(), h.Weighting()))] = b
	}

	db.Lock()
	defer db.Unlock()
	return db.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(BBOLTDB_BUCKET)); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		b, err := tx.CreateBucket([]byte(BBOLTDB_BUCKET))
		if err != nil {
			return err
		}
		if err := b.Put([]byte(keyGraph), graphBytes); err != nil {
			return err
		}
		for k, v := range chBytes {
			if err := b.Put([]byte(k), v); err != nil {
				return err
			}
		}
		// written last so a reader never sees a fingerprint without its graph
		return b.Put([]byte(keyFingerprint), fpBytes)
	})
}

func (db *KVDB) get(key []byte) ([]byte, error) {
	var out []byte
	err := db.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BBOLTDB_BUCKET))
		if b == nil {
			return ErrNotFound
		}
		v := b.Get(key)
		if v == nil {
			return ErrNotFound
		}
		// bbolt values are only valid inside the transaction
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return out, nil
}

func (db *KVDB) GetFingerprint() (Fingerprint, error) {
	var fp Fingerprint
	buf, err := db.get([]byte(keyFingerprint))
	if err != nil {
		return fp, err
	}
	err = decode(buf, &fp)
	return fp, err
}

func (db *KVDB) GetGraph() (*graph.Graph, error) {
	buf, err := db.get([]byte(keyGraph))
	if err != nil {
		return nil, err
	}
	return decodeGraph(buf)
}

func (db *KVDB) GetHierarchy(mode graph.Mode, weighting string) (*contractor.Hierarchy, error) {
	buf, err := db.get(hierarchyKey(mode, weighting))
	if err != nil {
		return nil, err
	}
	return decodeHierarchy(buf)
}
