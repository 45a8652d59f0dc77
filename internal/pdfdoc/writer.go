package pdfdoc

import (
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/jung-kurt/gofpdf/contrib/gofpdi"

	"github.com/factoidforrest/pdf-crop/internal/geom"
)

// importBox is the page box source pages are imported by
const importBox = "/MediaBox"

// Writer builds the output document from pages of one source PDF. Source
// pages are embedded as form templates, so text and vector content stay
// vectors in the output.
type Writer struct {
	source string
	pages  []geom.Rect

	pdf       *gofpdf.Fpdf
	imp       *gofpdi.Importer
	templates map[int]int
	count     int
}

// NewWriter starts an empty output document drawing from the PDF at
// sourcePath, whose page bounds are pages
func NewWriter(sourcePath string, pages []geom.Rect) *Writer {
	size := gofpdf.SizeType{Wd: 612, Ht: 792}
	if len(pages) > 0 && !pages[0].IsEmpty() {
		size = gofpdf.SizeType{Wd: pages[0].Width(), Ht: pages[0].Height()}
	}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           size,
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("pdfcrop", true)

	return &Writer{
		source:    sourcePath,
		pages:     pages,
		pdf:       pdf,
		imp:       gofpdi.NewImporter(),
		templates: make(map[int]int),
	}
}

// PageCount returns the number of pages added so far
func (w *Writer) PageCount() int { return w.count }

// NewPage appends a blank width x height page; later pastes draw onto it
func (w *Writer) NewPage(width, height float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("page size %gx%g has no area", width, height)
	}
	w.pdf.AddPageFormat("P", gofpdf.SizeType{Wd: width, Ht: height})
	w.count++
	return w.pdf.Error()
}

// PastePageRegion draws the clip region of source page srcIndex into target
// on the current page, scaled to fill target. Nothing outside target is
// painted.
func (w *Writer) PastePageRegion(target geom.Rect, srcIndex int, clip geom.Rect) error {
	if w.count == 0 {
		return fmt.Errorf("paste before any page was added")
	}
	page, err := w.sourcePage(srcIndex)
	if err != nil {
		return err
	}
	if target.IsEmpty() || clip.IsEmpty() {
		return nil
	}
	tpl, err := w.template(srcIndex)
	if err != nil {
		return err
	}

	sx := target.Width() / clip.Width()
	sy := target.Height() / clip.Height()

	w.pdf.ClipRect(target.X0, target.Y0, target.Width(), target.Height(), false)
	w.imp.UseImportedTemplate(w.pdf, tpl,
		target.X0-(clip.X0-page.X0)*sx,
		target.Y0-(clip.Y0-page.Y0)*sy,
		page.Width()*sx,
		page.Height()*sy)
	w.pdf.ClipEnd()
	return w.pdf.Error()
}

// InsertPageVerbatim appends source page srcIndex at its own size, unscaled
func (w *Writer) InsertPageVerbatim(srcIndex int) error {
	page, err := w.sourcePage(srcIndex)
	if err != nil {
		return err
	}
	if err := w.NewPage(page.Width(), page.Height()); err != nil {
		return err
	}
	tpl, err := w.template(srcIndex)
	if err != nil {
		return err
	}
	w.imp.UseImportedTemplate(w.pdf, tpl, 0, 0, page.Width(), page.Height())
	return w.pdf.Error()
}

// Save writes the document to path. With compress set, page streams are
// deflated and the file is then optimized.
func (w *Writer) Save(path string, compress bool) error {
	if w.count == 0 {
		return fmt.Errorf("no pages to save")
	}
	w.pdf.SetCompression(compress)
	if err := w.pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if compress {
		return Optimize(path)
	}
	return nil
}

func (w *Writer) sourcePage(index int) (geom.Rect, error) {
	if index < 0 || index >= len(w.pages) {
		return geom.Rect{}, fmt.Errorf("source page index %d out of range [0,%d)", index, len(w.pages))
	}
	return w.pages[index], nil
}

// template imports a source page once and returns its template id
func (w *Writer) template(index int) (tpl int, err error) {
	if tpl, ok := w.templates[index]; ok {
		return tpl, nil
	}
	// gofpdi panics on unreadable input instead of returning an error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("import page %d of %s: %v", index+1, w.source, r)
		}
	}()
	tpl = w.imp.ImportPage(w.pdf, w.source, index+1, importBox)
	w.templates[index] = tpl
	return tpl, w.pdf.Error()
}
