// Package canvas plans the uniform output page size and the per-page
// transforms that fit each cropped page into it.
package canvas

import (
	"math"

	"github.com/factoidforrest/pdf-crop/internal/geom"
)

// Plan is the size shared by every output page
type Plan struct {
	Width  float64
	Height float64
}

// PageTransform maps the Source crop of one page onto Target on the canvas.
// Target's top-left corner is (OffsetX, OffsetY) and its size is the source
// size times Scale.
type PageTransform struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
	Source  geom.Rect
	Target  geom.Rect
	// Degenerate marks a zero-width or zero-height crop, drawn at scale 1.
	// Such a page comes out blank.
	Degenerate bool
}

// CropRects shrinks every page by the margins
func CropRects(pages []geom.Rect, m geom.MarginSet) []geom.Rect {
	out := make([]geom.Rect, len(pages))
	for i, p := range pages {
		out[i] = p.Shrink(m)
	}
	return out
}

// PlanPages computes the canvas bounding every cropped page and, for each
// page, the uniform scale and centering that fit its crop into the canvas.
func PlanPages(pages []geom.Rect, m geom.MarginSet) (Plan, []PageTransform) {
	crops := CropRects(pages, m)

	var plan Plan
	for _, c := range crops {
		plan.Width = math.Max(plan.Width, c.Width())
		plan.Height = math.Max(plan.Height, c.Height())
	}

	transforms := make([]PageTransform, len(crops))
	for i, c := range crops {
		transforms[i] = Fit(plan, c)
	}
	return plan, transforms
}

// Fit scales crop uniformly to fit within the canvas and centers it
func Fit(plan Plan, crop geom.Rect) PageTransform {
	w, h := math.Max(0, crop.Width()), math.Max(0, crop.Height())

	t := PageTransform{Source: crop, Scale: 1}
	if w > 0 && h > 0 {
		t.Scale = math.Min(plan.Width/w, plan.Height/h)
	} else {
		t.Degenerate = true
	}

	sw, sh := w*t.Scale, h*t.Scale
	t.OffsetX = math.Max(0, (plan.Width-sw)/2)
	t.OffsetY = math.Max(0, (plan.Height-sh)/2)
	t.Target = geom.Rect{
		X0: t.OffsetX,
		Y0: t.OffsetY,
		X1: math.Min(plan.Width, t.OffsetX+sw),
		Y1: math.Min(plan.Height, t.OffsetY+sh),
	}
	return t
}
