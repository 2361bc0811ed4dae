package kvdb

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/minio/sha256-simd"
)

// Fingerprint identifies the extract a stored graph was imported from.
type Fingerprint struct {
	Size    int64  `msgpack:"size"`
	ModTime int64  `msgpack:"mod_time"`
	SHA256  string `msgpack:"sha256"`
}

func (f Fingerprint) String() string {
	return fmt.Sprintf("%d bytes, sha256 %s", f.Size, f.SHA256)
}

// FingerprintFile hashes the file at path.
func FingerprintFile(path string) (Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("fingerprint extract: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Fingerprint{}, fmt.Errorf("fingerprint extract: %w", err)
	}

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return Fingerprint{}, fmt.Errorf("fingerprint extract: %w", err)
	}
	return Fingerprint{
		Size:    info.Size(),
		ModTime: info.ModTime().UnixNano(),
		SHA256:  hex.EncodeToString(h.Sum(nil)),
	}, nil
}
