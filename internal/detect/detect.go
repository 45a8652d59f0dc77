// Package detect finds the printed-content box of a rendered page.
package detect

import (
	"github.com/factoidforrest/pdf-crop/internal/geom"
	"github.com/factoidforrest/pdf-crop/internal/raster"
)

// Detection settings
const (
	DefaultBackgroundThreshold = 0.95
	DefaultFooterHeightRatio   = 0.1
	DefaultFooterGapRatio      = 0.02
)

// Options tunes content classification and footer isolation
type Options struct {
	// BackgroundThreshold is the fraction of full white at or above which a
	// pixel counts as background.
	BackgroundThreshold float64
	// FooterHeightRatio is the bottom fraction of the page searched for an
	// isolated footer.
	FooterHeightRatio float64
	// FooterGapRatio is the minimum blank gap, as a fraction of page height,
	// separating a footer from the body.
	FooterGapRatio float64
}

// DefaultOptions returns the standard detection settings
func DefaultOptions() Options {
	return Options{
		BackgroundThreshold: DefaultBackgroundThreshold,
		FooterHeightRatio:   DefaultFooterHeightRatio,
		FooterGapRatio:      DefaultFooterGapRatio,
	}
}

// Bounds is a detected content range in pixel indices, inclusive on both ends
type Bounds struct {
	MinX, MaxX int
	MinY, MaxY int
	// FooterTop is the first row of the footer band.
	FooterTop int
	// FooterDropped is set when an isolated footer was cut off.
	FooterDropped bool
}

// FindBounds scans the grid for content pixels. ok is false for a blank page.
func FindBounds(g *raster.PixelGrid, opts Options) (b Bounds, ok bool) {
	limit := 255 * opts.BackgroundThreshold

	rows := make([]bool, g.Height)
	cols := make([]bool, g.Width)
	for y := 0; y < g.Height; y++ {
		row := g.Pix[y*g.Width : (y+1)*g.Width]
		for x, v := range row {
			if float64(v) < limit {
				rows[y] = true
				cols[x] = true
			}
		}
	}

	var contentRows []int
	for y, hit := range rows {
		if hit {
			contentRows = append(contentRows, y)
		}
	}
	if len(contentRows) == 0 {
		return Bounds{}, false
	}

	b.MinX, b.MaxX = -1, -1
	for x, hit := range cols {
		if !hit {
			continue
		}
		if b.MinX < 0 {
			b.MinX = x
		}
		b.MaxX = x
	}
	b.MinY = contentRows[0]
	b.MaxY = contentRows[len(contentRows)-1]

	b.FooterTop = int(float64(g.Height) * (1 - opts.FooterHeightRatio))
	if b.MaxY >= b.FooterTop {
		gap := int(float64(g.Height) * opts.FooterGapRatio)
		if end := footerCut(contentRows, b.FooterTop, gap); end < b.MaxY && end > b.MinY {
			b.MaxY = end
			b.FooterDropped = true
		}
	}
	return b, true
}

// footerCut walks the content rows bottom-up and returns the last body row
// before the first gap wider than gap that opens into the footer band. It
// returns the last content row when there is no such gap.
func footerCut(contentRows []int, footerTop, gap int) int {
	end := contentRows[len(contentRows)-1]
	for i := len(contentRows) - 1; i > 0; i-- {
		if contentRows[i] <= footerTop {
			break
		}
		if contentRows[i]-contentRows[i-1] > gap {
			return contentRows[i-1]
		}
	}
	return end
}

// Detect returns the tightest box around the page content in document units.
// A page without content pixels yields page unchanged.
func Detect(g *raster.PixelGrid, zoom float64, page geom.Rect, opts Options) geom.Rect {
	b, ok := FindBounds(g, opts)
	if !ok || zoom <= 0 {
		return page
	}
	return ToDocument(b, zoom, page)
}

// ToDocument maps pixel bounds rendered at zoom back to document units
func ToDocument(b Bounds, zoom float64, page geom.Rect) geom.Rect {
	r := geom.Rect{
		X0: page.X0 + float64(b.MinX)/zoom,
		Y0: page.Y0 + float64(b.MinY)/zoom,
		X1: page.X0 + float64(b.MaxX)/zoom,
		Y1: page.Y0 + float64(b.MaxY)/zoom,
	}
	return r.Clamp(page)
}
