// Package bucket groups pages by rounded size to find the document's majority
// page format, which gates explicit-rectangle cropping.
package bucket

import (
	"fmt"
	"math"

	"github.com/factoidforrest/pdf-crop/internal/geom"
)

// Size is a page size rounded to whole document units
type Size struct {
	Width  int64
	Height int64
}

func (s Size) String() string {
	return fmt.Sprintf("%d x %d", s.Width, s.Height)
}

// SizeOf rounds a page rectangle to its bucket
func SizeOf(page geom.Rect) Size {
	return Size{
		Width:  int64(math.Round(page.Width())),
		Height: int64(math.Round(page.Height())),
	}
}

// Result is the outcome of bucketing a document
type Result struct {
	MostCommon Size
	Count      int
	Total      int
	Counts     map[Size]int
	// Order lists the distinct sizes in order of first appearance.
	Order []Size
}

// Fraction is the share of pages in the majority bucket
func (r Result) Fraction() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Count) / float64(r.Total)
}

// Count buckets pages by rounded size. Ties go to the size seen first.
func Count(pages []geom.Rect) Result {
	r := Result{Counts: make(map[Size]int), Total: len(pages)}
	for _, p := range pages {
		s := SizeOf(p)
		if _, seen := r.Counts[s]; !seen {
			r.Order = append(r.Order, s)
		}
		r.Counts[s]++
	}
	for _, s := range r.Order {
		if r.Counts[s] > r.Count {
			r.MostCommon, r.Count = s, r.Counts[s]
		}
	}
	return r
}

// PageRange is a 1-based inclusive page range
type PageRange struct {
	First int
	Last  int
}

// Contains reports whether the 1-based page number lies in the range
func (r PageRange) Contains(pageNumber int) bool {
	return pageNumber >= r.First && pageNumber <= r.Last
}

// Validate checks the range against the document page count
func (r PageRange) Validate(pageCount int) error {
	if r.First < 1 || r.Last < r.First || r.Last > pageCount {
		return fmt.Errorf("page range %d-%d is not within 1-%d", r.First, r.Last, pageCount)
	}
	return nil
}

func (r PageRange) String() string {
	return fmt.Sprintf("%d-%d", r.First, r.Last)
}

// Eligible reports whether the page at 0-based index receives the explicit
// crop: its size must match the majority bucket and it must lie in the range.
func (r Result) Eligible(page geom.Rect, index int, pages PageRange) bool {
	return pages.Contains(index+1) && SizeOf(page) == r.MostCommon
}
