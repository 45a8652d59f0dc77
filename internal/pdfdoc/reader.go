// Package pdfdoc is the PDF backend: page geometry and validation through
// pdfcpu, rasterization through MuPDF, output through gofpdf.
package pdfdoc

import (
	"fmt"
	"image"
	"sync"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/factoidforrest/pdf-crop/internal/geom"
	"github.com/factoidforrest/pdf-crop/internal/raster"
)

const (
	// pointsPerInch converts render zoom to MuPDF's DPI
	pointsPerInch = 72.0

	// maxIdleHandles bounds the MuPDF handles kept open between renders
	maxIdleHandles = 64
)

// Document is an opened input PDF. Render may be called from several
// goroutines; each call borrows its own MuPDF handle since those are not
// safe for concurrent use.
type Document struct {
	path  string
	pages []geom.Rect

	mu     sync.Mutex
	idle   []*fitz.Document
	closed bool
}

// Open validates the PDF at path and reads its page geometry
func Open(path string) (*Document, error) {
	if err := api.ValidateFile(path, configuration()); err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}

	dims, err := api.PageDimsFile(path)
	if err != nil {
		return nil, fmt.Errorf("read page dimensions: %w", err)
	}
	if len(dims) == 0 {
		return nil, fmt.Errorf("%s has no pages", path)
	}

	pages := make([]geom.Rect, len(dims))
	for i, d := range dims {
		pages[i] = geom.Rect{X1: d.Width, Y1: d.Height}
	}

	d := &Document{path: path, pages: pages}

	// Fail early if MuPDF disagrees about the file.
	h, err := d.acquire()
	if err != nil {
		return nil, err
	}
	d.release(h)
	return d, nil
}

// PageCount returns the number of pages
func (d *Document) PageCount() int { return len(d.pages) }

// PageRect returns the bounds of the 0-based page in points
func (d *Document) PageRect(index int) (geom.Rect, error) {
	if index < 0 || index >= len(d.pages) {
		return geom.Rect{}, fmt.Errorf("page index %d out of range [0,%d)", index, len(d.pages))
	}
	return d.pages[index], nil
}

// PageRects returns the bounds of every page
func (d *Document) PageRects() []geom.Rect {
	out := make([]geom.Rect, len(d.pages))
	copy(out, d.pages)
	return out
}

// Render rasterizes the 0-based page at zoom times its size in points and
// returns the gray grid
func (d *Document) Render(index int, zoom float64) (*raster.PixelGrid, error) {
	if _, err := d.PageRect(index); err != nil {
		return nil, err
	}
	h, err := d.acquire()
	if err != nil {
		return nil, err
	}
	defer d.release(h)

	img, err := h.ImageDPI(index, pointsPerInch*zoom)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", index+1, err)
	}
	return raster.FromImage(flatten(img))
}

// Close releases every MuPDF handle
func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var first error
	for _, h := range d.idle {
		if err := h.Close(); err != nil && first == nil {
			first = err
		}
	}
	d.idle = nil
	d.closed = true
	return first
}

func (d *Document) acquire() (*fitz.Document, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, fmt.Errorf("%s is closed", d.path)
	}
	if n := len(d.idle); n > 0 {
		h := d.idle[n-1]
		d.idle = d.idle[:n-1]
		d.mu.Unlock()
		return h, nil
	}
	d.mu.Unlock()

	h, err := fitz.New(d.path)
	if err != nil {
		return nil, fmt.Errorf("open %s for rendering: %w", d.path, err)
	}
	if n := h.NumPage(); n != len(d.pages) {
		h.Close()
		return nil, fmt.Errorf("renderer sees %d pages, expected %d", n, len(d.pages))
	}
	return h, nil
}

func (d *Document) release(h *fitz.Document) {
	d.mu.Lock()
	if !d.closed && len(d.idle) < maxIdleHandles {
		d.idle = append(d.idle, h)
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()
	h.Close()
}

// flatten composites transparent pixels onto white so unpainted areas read
// as background rather than black.
func flatten(img *image.RGBA) *image.RGBA {
	for i := 0; i+3 < len(img.Pix); i += 4 {
		a := img.Pix[i+3]
		if a == 255 {
			continue
		}
		inv := 255 - uint16(a)
		img.Pix[i] = uint8(uint16(img.Pix[i]) + inv)
		img.Pix[i+1] = uint8(uint16(img.Pix[i+1]) + inv)
		img.Pix[i+2] = uint8(uint16(img.Pix[i+2]) + inv)
		img.Pix[i+3] = 255
	}
	return img
}
