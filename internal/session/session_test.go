package session

import (
	"testing"

	"github.com/factoidforrest/pdf-crop/internal/bucket"
	"github.com/factoidforrest/pdf-crop/internal/geom"
)

func TestNavigationAllPages(t *testing.T) {
	s, err := New(3, 0)
	if err != nil {
		t.Fatal(err)
	}
	if s.CanPrev() {
		t.Fatal("CanPrev on first page")
	}
	if got := s.Prev(); got != 0 {
		t.Fatalf("Prev = %d", got)
	}
	s.Next()
	s.Next()
	if got := s.Next(); got != 2 {
		t.Fatalf("Next past end = %d", got)
	}
	if s.CanNext() {
		t.Fatal("CanNext on last page")
	}
}

func TestNavigationRangeOnly(t *testing.T) {
	s, _ := New(10, 2)
	s.SetRange(4, 6, true)

	if !s.TogglePreview() {
		t.Fatal("TogglePreview did not enable range-only mode")
	}
	if s.Current() != 3 {
		t.Fatalf("entering range-only mode: current = %d, want 3", s.Current())
	}
	if s.CanPrev() {
		t.Fatal("CanPrev at start of range")
	}
	s.Next()
	s.Next()
	if got := s.Next(); got != 5 {
		t.Fatalf("Next past range = %d, want 5", got)
	}

	s.TogglePreview()
	if got := s.Next(); got != 6 {
		t.Fatalf("Next in all-pages mode = %d, want 6", got)
	}
	if s.InCropRange(6) {
		t.Fatal("page 7 reported in range 4-6")
	}
}

func TestSetRangeKeepsOrder(t *testing.T) {
	s, _ := New(10, 2)
	s.SetRange(3, 8, true)

	if got := s.SetRange(9, 8, true); got != (bucket.PageRange{First: 9, Last: 9}) {
		t.Fatalf("editing first past last = %v", got)
	}
	if got := s.SetRange(9, 2, false); got != (bucket.PageRange{First: 2, Last: 2}) {
		t.Fatalf("editing last below first = %v", got)
	}
	if got := s.SetRange(0, 42, true); got != (bucket.PageRange{First: 1, Last: 10}) {
		t.Fatalf("out of bounds = %v", got)
	}
}

func TestSelectionPersistsAcrossPages(t *testing.T) {
	s, _ := New(5, 2)
	if _, ok := s.Selection(); ok {
		t.Fatal("selection before Select")
	}

	page := geom.Rect{X1: 600, Y1: 800}
	got := s.Select(geom.Rect{X0: 1100, Y0: 1500, X1: 100, Y1: 100}, page)
	want := geom.Rect{X0: 50, Y0: 50, X1: 550, Y1: 750}
	if got != want {
		t.Fatalf("Select = %v, want %v", got, want)
	}

	s.Next()
	s.Next()
	if sel, ok := s.Selection(); !ok || sel != want {
		t.Fatalf("selection after navigation = %v, %v", sel, ok)
	}

	clamped := s.Select(geom.Rect{X0: -40, Y0: 10, X1: 1400, Y1: 1700}, page)
	if clamped != (geom.Rect{X0: 0, Y0: 5, X1: 600, Y1: 800}) {
		t.Fatalf("clamped selection = %v", clamped)
	}

	s.ClearSelection()
	if _, ok := s.Selection(); ok {
		t.Fatal("selection survived ClearSelection")
	}
}

func TestNewRejectsEmptyDocument(t *testing.T) {
	if _, err := New(0, 2); err == nil {
		t.Fatal("New(0) succeeded")
	}
}
