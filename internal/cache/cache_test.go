package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/factoidforrest/pdf-crop/internal/detect"
	"github.com/factoidforrest/pdf-crop/internal/geom"
)

func TestKeyForChangesWithInputs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.pdf")
	if err := os.WriteFile(path, []byte("one"), 0o644); err != nil {
		t.Fatal(err)
	}
	opts := detect.DefaultOptions()

	k1, err := KeyFor(path, 2, opts)
	if err != nil {
		t.Fatal(err)
	}
	k2, _ := KeyFor(path, 2, opts)
	if k1 != k2 {
		t.Fatal("key is not stable")
	}

	if k, _ := KeyFor(path, 3, opts); k == k1 {
		t.Error("zoom does not affect key")
	}
	opts.FooterHeightRatio = 0.15
	if k, _ := KeyFor(path, 2, opts); k == k1 {
		t.Error("footer ratio does not affect key")
	}

	if err := os.WriteFile(path, []byte("two"), 0o644); err != nil {
		t.Fatal(err)
	}
	if k, _ := KeyFor(path, 2, detect.DefaultOptions()); k == k1 {
		t.Error("file content does not affect key")
	}

	if _, err := KeyFor(filepath.Join(dir, "missing.pdf"), 2, opts); err == nil {
		t.Error("missing file hashed")
	}
}

func TestStoreRoundTripAndMerge(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "nested", "cache"))
	if err != nil {
		t.Fatal(err)
	}
	key := Key("abc")

	got, err := s.Load(key)
	if err != nil || len(got) != 0 {
		t.Fatalf("Load(missing) = %v, %v", got, err)
	}

	first := map[int]geom.Rect{0: {X0: 1, Y0: 2, X1: 3, Y1: 4}}
	if err := s.Save(key, first); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(key, map[int]geom.Rect{7: {X1: 10, Y1: 20}}); err != nil {
		t.Fatal(err)
	}

	got, err = s.Load(key)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != first[0] || got[7] != (geom.Rect{X1: 10, Y1: 20}) {
		t.Fatalf("Load = %v", got)
	}
}

func TestStoreIgnoresStaleVersion(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	stale := `{"version":0,"boxes":{"0":{"X0":1,"Y0":1,"X1":2,"Y1":2}}}`
	if err := os.WriteFile(filepath.Join(dir, "k.json"), []byte(stale), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := s.Load("k")
	if err != nil || len(got) != 0 {
		t.Fatalf("Load(stale) = %v, %v", got, err)
	}
}
