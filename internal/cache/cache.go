// Package cache persists detected content boxes between runs. Entries are
// keyed by a hash of the input file and the detection settings, so editing
// either invalidates them.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/crypto/blake2b"

	"github.com/factoidforrest/pdf-crop/internal/detect"
	"github.com/factoidforrest/pdf-crop/internal/geom"
)

// formatVersion is bumped whenever detection output changes meaning
const formatVersion = 1

// Key identifies one (file, settings) combination
type Key string

// KeyFor hashes the file at path together with the detection settings
func KeyFor(path string, zoom float64, opts detect.Options) (Key, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	for _, v := range []float64{zoom, opts.BackgroundThreshold, opts.FooterHeightRatio, opts.FooterGapRatio} {
		h.Write([]byte(strconv.FormatFloat(v, 'g', -1, 64)))
		h.Write([]byte{0})
	}
	h.Write([]byte(strconv.Itoa(formatVersion)))
	return Key(hex.EncodeToString(h.Sum(nil))), nil
}

type entry struct {
	Version int               `json:"version"`
	Boxes   map[int]geom.Rect `json:"boxes"`
}

// Store is a directory of cache entries
type Store struct {
	dir string
}

// Open creates dir if needed and returns a store rooted there
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(key Key) string {
	return filepath.Join(s.dir, string(key)+".json")
}

// Load returns the cached boxes by 0-based page index. A missing or stale
// entry yields an empty map.
func (s *Store) Load(key Key) (map[int]geom.Rect, error) {
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return map[int]geom.Rect{}, nil
	}
	if err != nil {
		return nil, err
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	if e.Version != formatVersion || e.Boxes == nil {
		return map[int]geom.Rect{}, nil
	}
	return e.Boxes, nil
}

// Save merges boxes into the entry for key
func (s *Store) Save(key Key, boxes map[int]geom.Rect) error {
	merged, err := s.Load(key)
	if err != nil {
		merged = map[int]geom.Rect{}
	}
	for i, b := range boxes {
		merged[i] = b
	}

	data, err := json.Marshal(entry{Version: formatVersion, Boxes: merged})
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".entry-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path(key))
}
