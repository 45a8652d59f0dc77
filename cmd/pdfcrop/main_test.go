package main

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestOptionalFloat(t *testing.T) {
	var f optionalFloat
	if f.v != nil || f.String() != "" {
		t.Fatal("zero value is set")
	}
	if err := f.Set("0.125"); err != nil {
		t.Fatal(err)
	}
	if f.v == nil || *f.v != 0.125 || f.String() != "0.125" {
		t.Fatalf("after Set: %v", f.String())
	}
	if err := f.Set("wide"); err == nil {
		t.Fatal("non-number accepted")
	}
}

func TestExpandDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.pdf", "B.PDF", "notes.txt", "a-cropped.pdf"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.pdf"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := expandDirectory(dir)
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(got)
	want := []string{filepath.Join(dir, "B.PDF"), filepath.Join(dir, "a.pdf")}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expandDirectory = %v, want %v", got, want)
	}

	if _, err := expandDirectory(filepath.Join(dir, "missing")); err == nil {
		t.Fatal("missing directory listed")
	}
}
