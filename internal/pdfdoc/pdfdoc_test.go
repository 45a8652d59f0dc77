package pdfdoc

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/factoidforrest/pdf-crop/internal/detect"
	"github.com/factoidforrest/pdf-crop/internal/geom"
)

// box is a filled black rectangle on a synthetic page
type box struct{ x, y, w, h float64 }

type pageSpec struct {
	w, h float64
	box  box
}

func writeFixture(t *testing.T, pages ...pageSpec) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.pdf")
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: pages[0].w, Ht: pages[0].h},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFillColor(0, 0, 0)
	for _, p := range pages {
		pdf.AddPageFormat("P", gofpdf.SizeType{Wd: p.w, Ht: p.h})
		pdf.Rect(p.box.x, p.box.y, p.box.w, p.box.h, "F")
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestOpenReadsPageGeometry(t *testing.T) {
	path := writeFixture(t,
		pageSpec{600, 800, box{100, 150, 300, 400}},
		pageSpec{400, 400, box{50, 50, 100, 100}},
	)
	doc, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer doc.Close()

	if doc.PageCount() != 2 {
		t.Fatalf("PageCount = %d", doc.PageCount())
	}
	r, err := doc.PageRect(1)
	if err != nil {
		t.Fatal(err)
	}
	if !near(r.Width(), 400, 0.01) || !near(r.Height(), 400, 0.01) {
		t.Fatalf("PageRect(1) = %v", r)
	}
	if _, err := doc.PageRect(2); err == nil {
		t.Fatal("out of range page accepted")
	}
}

func TestOpenRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pdf")
	if err := os.WriteFile(path, []byte("not a pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Fatal("garbage opened")
	}
}

func TestRenderFindsContent(t *testing.T) {
	path := writeFixture(t, pageSpec{600, 800, box{100, 150, 300, 400}})
	doc, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer doc.Close()

	const zoom = 2.0
	g, err := doc.Render(0, zoom)
	if err != nil {
		t.Fatal(err)
	}
	if !near(float64(g.Width), 1200, 2) || !near(float64(g.Height), 1600, 2) {
		t.Fatalf("grid %dx%d, want about 1200x1600", g.Width, g.Height)
	}

	page, _ := doc.PageRect(0)
	got := detect.Detect(g, zoom, page, detect.DefaultOptions())
	want := geom.Rect{X0: 100, Y0: 150, X1: 400, Y1: 550}
	if !near(got.X0, want.X0, 1.5) || !near(got.Y0, want.Y0, 1.5) ||
		!near(got.X1, want.X1, 1.5) || !near(got.Y1, want.Y1, 1.5) {
		t.Fatalf("content box = %v, want about %v", got, want)
	}
}

func TestRenderConcurrent(t *testing.T) {
	path := writeFixture(t,
		pageSpec{300, 300, box{10, 10, 50, 50}},
		pageSpec{300, 300, box{100, 100, 50, 50}},
		pageSpec{300, 300, box{200, 200, 50, 50}},
	)
	doc, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer doc.Close()

	errs := make(chan error, 9)
	for i := 0; i < 9; i++ {
		go func(i int) {
			_, err := doc.Render(i%3, 1)
			errs <- err
		}(i)
	}
	for i := 0; i < 9; i++ {
		if err := <-errs; err != nil {
			t.Fatal(err)
		}
	}
}

func TestWriterCropsAndInserts(t *testing.T) {
	src := writeFixture(t,
		pageSpec{600, 800, box{100, 150, 300, 400}},
		pageSpec{500, 700, box{50, 50, 100, 100}},
	)
	doc, err := Open(src)
	if err != nil {
		t.Fatal(err)
	}
	defer doc.Close()

	w := NewWriter(src, doc.PageRects())
	if err := w.NewPage(300, 400); err != nil {
		t.Fatal(err)
	}
	if err := w.PastePageRegion(geom.Rect{X1: 300, Y1: 400}, 0, geom.Rect{X0: 100, Y0: 150, X1: 400, Y1: 550}); err != nil {
		t.Fatal(err)
	}
	if err := w.InsertPageVerbatim(1); err != nil {
		t.Fatal(err)
	}
	if w.PageCount() != 2 {
		t.Fatalf("PageCount = %d", w.PageCount())
	}

	out := filepath.Join(t.TempDir(), "out.pdf")
	if err := w.Save(out, true); err != nil {
		t.Fatal(err)
	}

	dims, err := api.PageDimsFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(dims) != 2 {
		t.Fatalf("output has %d pages", len(dims))
	}
	if !near(dims[0].Width, 300, 0.01) || !near(dims[0].Height, 400, 0.01) {
		t.Errorf("cropped page is %gx%g", dims[0].Width, dims[0].Height)
	}
	if !near(dims[1].Width, 500, 0.01) || !near(dims[1].Height, 700, 0.01) {
		t.Errorf("verbatim page is %gx%g", dims[1].Width, dims[1].Height)
	}

	// The cropped page is filled edge to edge by the source's box.
	res, err := Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()
	g, err := res.Render(0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if v := g.At(g.Width/2, g.Height/2); v > 10 {
		t.Errorf("center of cropped page is %d, want black", v)
	}
	if v := g.At(3, 3); v > 10 {
		t.Errorf("corner of cropped page is %d, want black", v)
	}
}

func TestWriterErrors(t *testing.T) {
	w := NewWriter("unused.pdf", []geom.Rect{{X1: 100, Y1: 100}})
	if err := w.PastePageRegion(geom.Rect{X1: 10, Y1: 10}, 0, geom.Rect{X1: 10, Y1: 10}); err == nil {
		t.Error("paste without a page accepted")
	}
	if err := w.NewPage(0, 10); err == nil {
		t.Error("empty page accepted")
	}
	if err := w.InsertPageVerbatim(5); err == nil {
		t.Error("missing source page accepted")
	}
	if err := w.Save(filepath.Join(t.TempDir(), "x.pdf"), false); err == nil {
		t.Error("empty document saved")
	}
}

func TestPageCount(t *testing.T) {
	path := writeFixture(t,
		pageSpec{300, 300, box{10, 10, 50, 50}},
		pageSpec{300, 300, box{10, 10, 50, 50}},
	)
	n, err := PageCount(path)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("PageCount = %d, want 2", n)
	}
	if _, err := PageCount(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Fatal("missing file counted")
	}
}
