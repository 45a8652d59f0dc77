package canvas

import (
	"math"
	"math/rand"
	"testing"

	"github.com/factoidforrest/pdf-crop/internal/geom"
)

func TestPlanPagesCanvasIsMaxCrop(t *testing.T) {
	pages := []geom.Rect{
		{X1: 600, Y1: 800},
		{X1: 400, Y1: 900},
		{X1: 500, Y1: 500},
	}
	m := geom.MarginSet{Left: 0.1, Top: 0.1, Right: 0.1, Bottom: 0.1}
	plan, transforms := PlanPages(pages, m)

	if plan.Width != 480 || plan.Height != 720 {
		t.Fatalf("plan = %+v, want 480x720", plan)
	}
	if len(transforms) != len(pages) {
		t.Fatalf("got %d transforms", len(transforms))
	}

	var hitW, hitH bool
	for _, c := range CropRects(pages, m) {
		hitW = hitW || c.Width() == plan.Width
		hitH = hitH || c.Height() == plan.Height
	}
	if !hitW || !hitH {
		t.Fatalf("no page achieves the canvas maximum")
	}

	// page 0 crop is 480x640: width-bound at 1, centered vertically
	if tr := transforms[0]; tr.Scale != 1 || tr.OffsetX != 0 || tr.OffsetY != 40 {
		t.Errorf("page 0 transform = %+v", tr)
	}
	// page 1 crop is 320x720: height-bound, centered horizontally
	if tr := transforms[1]; tr.Scale != 1 || tr.OffsetX != 80 || tr.OffsetY != 0 {
		t.Errorf("page 1 transform = %+v", tr)
	}
	// page 2 crop is 400x400: width-bound at 1.2, centered vertically
	if tr := transforms[2]; math.Abs(tr.Scale-1.2) > 1e-12 || math.Abs(tr.OffsetX) > 1e-9 || math.Abs(tr.OffsetY-120) > 1e-9 {
		t.Errorf("page 2 transform = %+v", tr)
	}
}

func TestPlanPagesPreservesAspectAndContainment(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	var pages []geom.Rect
	for i := 0; i < 40; i++ {
		x0, y0 := rng.Float64()*50, rng.Float64()*50
		pages = append(pages, geom.Rect{X0: x0, Y0: y0, X1: x0 + 200 + rng.Float64()*600, Y1: y0 + 200 + rng.Float64()*900})
	}
	m := geom.MarginSet{Left: 0.07, Top: 0.12, Right: 0.03, Bottom: 0.2}
	plan, transforms := PlanPages(pages, m)
	canvasRect := geom.Rect{X1: plan.Width, Y1: plan.Height}

	for i, tr := range transforms {
		if !canvasRect.Contains(tr.Target, 0) {
			t.Fatalf("page %d target %v outside canvas %v", i, tr.Target, canvasRect)
		}
		src := tr.Source.Width() / tr.Source.Height()
		dst := tr.Target.Width() / tr.Target.Height()
		if math.Abs(src-dst) > 1e-6 {
			t.Fatalf("page %d aspect %g -> %g", i, src, dst)
		}
		// target is the scaled crop placed at the offsets
		if tr.Target.X0 != tr.OffsetX || tr.Target.Y0 != tr.OffsetY {
			t.Fatalf("page %d target %v not at offset (%g,%g)", i, tr.Target, tr.OffsetX, tr.OffsetY)
		}
		if math.Abs(tr.Target.Width()-tr.Source.Width()*tr.Scale) > 1e-6 ||
			math.Abs(tr.Target.Height()-tr.Source.Height()*tr.Scale) > 1e-6 {
			t.Fatalf("page %d target %v is not source %v at scale %g", i, tr.Target, tr.Source, tr.Scale)
		}
		// fits within and touches the canvas on at least one axis
		if math.Abs(tr.Target.Width()-plan.Width) > 1e-6 && math.Abs(tr.Target.Height()-plan.Height) > 1e-6 {
			t.Fatalf("page %d target %v does not fill either canvas axis", i, tr.Target)
		}
	}
}

func TestFitDegenerateCrop(t *testing.T) {
	plan := Plan{Width: 400, Height: 600}
	tr := Fit(plan, geom.Rect{X0: 100, Y0: 50, X1: 100, Y1: 350})
	if !tr.Degenerate || tr.Scale != 1 {
		t.Fatalf("transform = %+v, want degenerate at scale 1", tr)
	}
	if tr.OffsetX != 200 || tr.OffsetY != 150 {
		t.Fatalf("offsets = (%g,%g), want (200,150)", tr.OffsetX, tr.OffsetY)
	}
	if !(geom.Rect{X1: 400, Y1: 600}).Contains(tr.Target, 0) {
		t.Fatalf("target %v outside canvas", tr.Target)
	}
}
