// Package session holds interactive crop-selection state: the page being
// previewed, the crop range and the selection that persists across pages.
package session

import (
	"fmt"

	"github.com/factoidforrest/pdf-crop/internal/bucket"
	"github.com/factoidforrest/pdf-crop/internal/geom"
)

// DefaultZoom is the preview render zoom relative to document units.
const DefaultZoom = 2.0

// Session is the selection state threaded through navigation calls
type Session struct {
	pageCount int
	current   int
	rng       bucket.PageRange
	rangeOnly bool
	selection *geom.Rect
	zoom      float64
}

// New starts a session on the first page with the whole document in range
func New(pageCount int, zoom float64) (*Session, error) {
	if pageCount < 1 {
		return nil, fmt.Errorf("document has no pages")
	}
	if zoom <= 0 {
		zoom = DefaultZoom
	}
	return &Session{
		pageCount: pageCount,
		rng:       bucket.PageRange{First: 1, Last: pageCount},
		zoom:      zoom,
	}, nil
}

// Zoom returns the preview render zoom
func (s *Session) Zoom() float64 { return s.zoom }

// Current returns the 0-based index of the page on screen
func (s *Session) Current() int { return s.current }

// Range returns the crop range
func (s *Session) Range() bucket.PageRange { return s.rng }

// RangeOnly reports whether navigation is restricted to the crop range
func (s *Session) RangeOnly() bool { return s.rangeOnly }

// InCropRange reports whether the 0-based page will be cropped
func (s *Session) InCropRange(index int) bool {
	return s.rng.Contains(index + 1)
}

func (s *Session) allowed(index int) bool {
	return !s.rangeOnly || s.InCropRange(index)
}

// CanPrev reports whether Prev would move
func (s *Session) CanPrev() bool {
	for p := s.current - 1; p >= 0; p-- {
		if s.allowed(p) {
			return true
		}
	}
	return false
}

// CanNext reports whether Next would move
func (s *Session) CanNext() bool {
	for p := s.current + 1; p < s.pageCount; p++ {
		if s.allowed(p) {
			return true
		}
	}
	return false
}

// Prev moves to the nearest earlier page, skipping pages outside the crop
// range in range-only mode. It stays put when there is none.
func (s *Session) Prev() int {
	for p := s.current - 1; p >= 0; p-- {
		if s.allowed(p) {
			s.current = p
			break
		}
	}
	return s.current
}

// Next moves to the nearest later page; see Prev
func (s *Session) Next() int {
	for p := s.current + 1; p < s.pageCount; p++ {
		if s.allowed(p) {
			s.current = p
			break
		}
	}
	return s.current
}

// SetRange updates the crop range. When the bounds cross, the bound that
// was not edited follows the edited one.
func (s *Session) SetRange(first, last int, editedFirst bool) bucket.PageRange {
	first = clampInt(first, 1, s.pageCount)
	last = clampInt(last, 1, s.pageCount)
	if first > last {
		if editedFirst {
			last = first
		} else {
			first = last
		}
	}
	s.rng = bucket.PageRange{First: first, Last: last}
	return s.rng
}

// TogglePreview switches between browsing all pages and only the crop
// range. Entering range-only mode from outside the range jumps to its
// first page.
func (s *Session) TogglePreview() bool {
	s.rangeOnly = !s.rangeOnly
	if s.rangeOnly && !s.InCropRange(s.current) {
		s.current = s.rng.First - 1
	}
	return s.rangeOnly
}

// Select stores a selection drawn on the rendered preview of page. The
// rectangle is in preview pixels; it is converted to document units and
// clamped to the page.
func (s *Session) Select(view geom.Rect, page geom.Rect) geom.Rect {
	r := geom.NewRect(view.X0/s.zoom, view.Y0/s.zoom, view.X1/s.zoom, view.Y1/s.zoom)
	bounds := geom.Rect{X1: page.Width(), Y1: page.Height()}
	r = r.Clamp(bounds)
	s.selection = &r
	return r
}

// Selection returns the persistent selection, if any
func (s *Session) Selection() (geom.Rect, bool) {
	if s.selection == nil {
		return geom.Rect{}, false
	}
	return *s.selection, true
}

// ClearSelection drops the persistent selection
func (s *Session) ClearSelection() { s.selection = nil }

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
