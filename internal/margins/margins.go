// Package margins reduces per-page content boxes to one document-wide margin estimate.
package margins

import (
	"math"
	"sort"

	"github.com/factoidforrest/pdf-crop/internal/geom"
)

// Aggregation settings
const (
	DefaultBuffer = 0.01
	// Percentile is taken per edge. A low percentile keeps one outlier page
	// from zeroing the margins while still erring toward under-cropping.
	Percentile = 25
)

// PageSample pairs a detected content box with the page it was found on
type PageSample struct {
	Content geom.Rect
	Page    geom.Rect
}

// Fractions returns the raw margins of one sample, each clamped to >= 0
func (s PageSample) Fractions() geom.MarginSet {
	w, h := s.Page.Width(), s.Page.Height()
	if w <= 0 || h <= 0 {
		return geom.MarginSet{}
	}
	return geom.MarginSet{
		Left:   math.Max(0, (s.Content.X0-s.Page.X0)/w),
		Top:    math.Max(0, (s.Content.Y0-s.Page.Y0)/h),
		Right:  math.Max(0, (s.Page.X1-s.Content.X1)/w),
		Bottom: math.Max(0, (s.Page.Y1-s.Content.Y1)/h),
	}
}

// Aggregate computes the suggested document margins: the 25th percentile of
// each edge independently, less buffer, floored so content always remains.
func Aggregate(samples []PageSample, buffer float64) geom.MarginSet {
	if len(samples) == 0 {
		return geom.MarginSet{}
	}

	left := make([]float64, len(samples))
	top := make([]float64, len(samples))
	right := make([]float64, len(samples))
	bottom := make([]float64, len(samples))
	for i, s := range samples {
		f := s.Fractions()
		left[i], top[i], right[i], bottom[i] = f.Left, f.Top, f.Right, f.Bottom
	}

	m := geom.MarginSet{
		Left:   math.Max(0, PercentileOf(left, Percentile)-buffer),
		Top:    math.Max(0, PercentileOf(top, Percentile)-buffer),
		Right:  math.Max(0, PercentileOf(right, Percentile)-buffer),
		Bottom: math.Max(0, PercentileOf(bottom, Percentile)-buffer),
	}
	m, _ = m.Floor(geom.MinRemaining)
	return m
}

// PercentileOf returns the p-th percentile of values using linear
// interpolation between closest ranks. values is not modified.
func PercentileOf(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo < 0 {
		lo = 0
	}
	if hi >= len(sorted) {
		hi = len(sorted) - 1
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// SampleIndices picks up to maxSamples evenly spaced 0-based page indices.
// A non-positive maxSamples selects every page.
func SampleIndices(pageCount, maxSamples int) []int {
	if pageCount <= 0 {
		return nil
	}
	if maxSamples <= 0 || pageCount <= maxSamples {
		out := make([]int, pageCount)
		for i := range out {
			out[i] = i
		}
		return out
	}
	step := pageCount / maxSamples
	out := make([]int, 0, maxSamples)
	for i := 0; i < pageCount && len(out) < maxSamples; i += step {
		out = append(out, i)
	}
	return out
}
