// Package cropper runs the crop pipeline over whole documents: detect content
// on each page, aggregate margins, plan the canvas and write the output.
package cropper

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/factoidforrest/pdf-crop/internal/bucket"
	"github.com/factoidforrest/pdf-crop/internal/cache"
	"github.com/factoidforrest/pdf-crop/internal/canvas"
	"github.com/factoidforrest/pdf-crop/internal/detect"
	"github.com/factoidforrest/pdf-crop/internal/geom"
	"github.com/factoidforrest/pdf-crop/internal/pdfdoc"
	"github.com/factoidforrest/pdf-crop/internal/raster"
)

// ProgressEvery is how many pages pass between progress log lines
const ProgressEvery = 20

// Source is an opened input document. Render must be safe for concurrent use.
type Source interface {
	PageCount() int
	PageRect(index int) (geom.Rect, error)
	Render(index int, zoom float64) (*raster.PixelGrid, error)
	Close() error
}

// Sink accumulates output pages
type Sink interface {
	NewPage(width, height float64) error
	PastePageRegion(target geom.Rect, srcIndex int, clip geom.Rect) error
	InsertPageVerbatim(srcIndex int) error
	PageCount() int
	Save(path string, compress bool) error
}

// Config tunes a Cropper
type Config struct {
	// Workers bounds concurrent page renders
	Workers int
	// Zoom is the render scale used for detection
	Zoom float64
	// Sample caps the pages analyzed when cropping; 0 analyzes all
	Sample int
	// CacheDir enables the content box cache when set
	CacheDir string
	// DebugDir receives per-page analysis images when set
	DebugDir string
	// Detect holds the base detection settings; footer height is set per call
	Detect detect.Options
}

// Overrides are per-side margins given by the user. Nil sides are detected.
type Overrides struct {
	Left, Top, Right, Bottom *float64
}

// Complete reports whether every side is given
func (o Overrides) Complete() bool {
	return o.Left != nil && o.Top != nil && o.Right != nil && o.Bottom != nil
}

// Apply replaces the sides of m that are overridden
func (o Overrides) Apply(m geom.MarginSet) geom.MarginSet {
	if o.Left != nil {
		m.Left = *o.Left
	}
	if o.Top != nil {
		m.Top = *o.Top
	}
	if o.Right != nil {
		m.Right = *o.Right
	}
	if o.Bottom != nil {
		m.Bottom = *o.Bottom
	}
	return m
}

// CropResult summarizes a uniform crop
type CropResult struct {
	OriginalPageCount int
	OutputPageCount   int
	Margins           geom.MarginSet
	Canvas            canvas.Plan
	Transforms        []canvas.PageTransform
	// DegeneratePages lists 0-based pages whose crop had no area
	DegeneratePages []int
}

// ExplicitResult summarizes an explicit-rectangle crop
type ExplicitResult struct {
	Cropped         int
	Unchanged       int
	MostCommon      bucket.Size
	MostCommonCount int
	TotalPages      int
	// Rect is the crop rectangle after clamping to the reference page
	Rect geom.Rect
}

// Cropper runs crop operations with a fixed configuration
type Cropper struct {
	cfg   Config
	log   logrus.FieldLogger
	cache *cache.Store

	open    func(path string) (Source, error)
	newSink func(sourcePath string, pages []geom.Rect) Sink
}

// New creates a Cropper backed by the PDF backend
func New(cfg Config, log logrus.FieldLogger) (*Cropper, error) {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Zoom <= 0 {
		return nil, fmt.Errorf("zoom must be positive, got %g", cfg.Zoom)
	}
	if cfg.Detect == (detect.Options{}) {
		cfg.Detect = detect.DefaultOptions()
	}

	c := &Cropper{
		cfg:     cfg,
		log:     log,
		open:    openPDF,
		newSink: newPDFSink,
	}
	if cfg.CacheDir != "" {
		store, err := cache.Open(cfg.CacheDir)
		if err != nil {
			return nil, err
		}
		c.cache = store
	}
	return c, nil
}

func openPDF(path string) (Source, error) {
	doc, err := pdfdoc.Open(path)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func newPDFSink(sourcePath string, pages []geom.Rect) Sink {
	return pdfdoc.NewWriter(sourcePath, pages)
}

func pageRects(src Source) ([]geom.Rect, error) {
	pages := make([]geom.Rect, src.PageCount())
	for i := range pages {
		r, err := src.PageRect(i)
		if err != nil {
			return nil, err
		}
		pages[i] = r
	}
	return pages, nil
}
