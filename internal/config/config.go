/**
 * Configuration for pdfcrop
 *
 * Flag values are layered over defaults read from the environment
 * (optionally populated from a .env file by the caller).
 */

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/factoidforrest/pdf-crop/internal/bucket"
	"github.com/factoidforrest/pdf-crop/internal/detect"
	cerrors "github.com/factoidforrest/pdf-crop/internal/errors"
	"github.com/factoidforrest/pdf-crop/internal/geom"
	"github.com/factoidforrest/pdf-crop/internal/margins"
)

// Parameter bounds accepted on the command line
const (
	MaxBuffer       = 0.1
	MinFooterHeight = 0.05
	MaxFooterHeight = 0.2
	DefaultZoom     = 2.0
	MaxWorkers      = 64
)

// Options holds one pdfcrop run's configuration
type Options struct {
	Input  string
	Output string

	// Per-side manual margins; nil sides are auto-detected
	Left, Top, Right, Bottom *float64

	Buffer       float64
	FooterHeight float64
	Optimize     bool
	Sample       int

	// Explicit crop rectangle mode. Select is a rectangle in preview pixels
	// at Zoom, an alternative to Rect in document units.
	Rect       *geom.Rect
	Select     *geom.Rect
	Pages      *bucket.PageRange
	PreviewDir string

	AnalyzeOnly bool
	DebugDir    string
	ReportPath  string
	CacheDir    string

	Workers  int
	Zoom     float64
	LogLevel string
	LogJSON  bool
}

// Defaults returns options populated from the environment
func Defaults() Options {
	return Options{
		Buffer:       margins.DefaultBuffer,
		FooterHeight: detect.DefaultFooterHeightRatio,
		Optimize:     true,
		CacheDir:     getEnvOrDefault("PDFCROP_CACHE_DIR", ""),
		Workers:      getEnvAsIntOrDefault("PDFCROP_WORKERS", min(runtime.NumCPU(), MaxWorkers)),
		Zoom:         getEnvAsFloatOrDefault("PDFCROP_ZOOM", DefaultZoom),
		LogLevel:     getEnvOrDefault("PDFCROP_LOG_LEVEL", "info"),
	}
}

// Validate checks every option; failures are INVALID_INPUT errors
func (o *Options) Validate() error {
	info, err := os.Stat(o.Input)
	if err != nil {
		return cerrors.NewInvalidInput("input file '%s' not found", o.Input)
	}
	if info.IsDir() {
		return cerrors.NewInvalidInput("input '%s' is a directory", o.Input)
	}
	if !strings.EqualFold(filepath.Ext(o.Input), ".pdf") {
		return cerrors.NewInvalidInput("input file must be a PDF")
	}

	for _, p := range []*float64{o.Left, o.Top, o.Right, o.Bottom} {
		if p != nil && (*p < 0 || *p >= 1) {
			return cerrors.NewInvalidInput("crop values must be between 0.0 and 1.0")
		}
	}
	if o.Buffer < 0 || o.Buffer > MaxBuffer {
		return cerrors.NewInvalidInput("buffer value must be between 0.0 and %.1f", MaxBuffer)
	}
	if o.FooterHeight < MinFooterHeight || o.FooterHeight > MaxFooterHeight {
		return cerrors.NewInvalidInput("footer height must be between %.2f and %.1f", MinFooterHeight, MaxFooterHeight)
	}
	if o.Sample < 0 {
		return cerrors.NewInvalidInput("sample must be positive, got %d", o.Sample)
	}
	if o.Workers < 1 || o.Workers > MaxWorkers {
		return cerrors.NewInvalidInput("workers must be between 1 and %d, got %d", MaxWorkers, o.Workers)
	}
	if o.Zoom <= 0 || o.Zoom > 8 {
		return cerrors.NewInvalidInput("zoom must be in (0, 8], got %g", o.Zoom)
	}
	if o.Rect != nil && o.Select != nil {
		return cerrors.NewInvalidInput("give either a crop rectangle or a selection, not both")
	}
	for _, r := range []*geom.Rect{o.Rect, o.Select} {
		if r != nil && r.IsEmpty() {
			return cerrors.NewInvalidInput("crop rectangle %v has no area", *r)
		}
	}
	if (o.Pages != nil || o.PreviewDir != "") && !o.Explicit() {
		return cerrors.NewInvalidInput("a page range or preview needs a crop rectangle")
	}
	if o.Explicit() && o.HasManualMargins() {
		return cerrors.NewInvalidInput("margins and a crop rectangle cannot be combined")
	}
	if ext := strings.ToLower(filepath.Ext(o.ReportPath)); o.ReportPath != "" && ext != ".md" && ext != ".html" {
		return cerrors.NewInvalidInput("report must end in .md or .html")
	}
	return nil
}

// Explicit reports whether a crop rectangle or selection was given
func (o *Options) Explicit() bool {
	return o.Rect != nil || o.Select != nil
}

// HasManualMargins reports whether any side was given explicitly
func (o *Options) HasManualMargins() bool {
	return o.Left != nil || o.Top != nil || o.Right != nil || o.Bottom != nil
}

// OutputPath returns the configured output or <stem>-cropped.pdf next to the input
func (o *Options) OutputPath() string {
	if o.Output != "" {
		return o.Output
	}
	return DefaultOutputPath(o.Input)
}

// DefaultOutputPath places <stem>-cropped.pdf next to input
func DefaultOutputPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "-cropped.pdf"
}

// ParseRect parses "x0,y0,x1,y1" in document units
func ParseRect(s string) (geom.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geom.Rect{}, fmt.Errorf("rectangle %q: want x0,y0,x1,y1", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geom.Rect{}, fmt.Errorf("rectangle %q: %w", s, err)
		}
		v[i] = f
	}
	return geom.NewRect(v[0], v[1], v[2], v[3]), nil
}

// ParsePageRange parses "first-last" or a single page number, 1-based
func ParsePageRange(s string) (bucket.PageRange, error) {
	first, last, found := strings.Cut(strings.TrimSpace(s), "-")
	a, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil {
		return bucket.PageRange{}, fmt.Errorf("page range %q: %w", s, err)
	}
	if !found {
		return bucket.PageRange{First: a, Last: a}, nil
	}
	b, err := strconv.Atoi(strings.TrimSpace(last))
	if err != nil {
		return bucket.PageRange{}, fmt.Errorf("page range %q: %w", s, err)
	}
	return bucket.PageRange{First: a, Last: b}, nil
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault gets environment variable as int or returns default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloatOrDefault gets environment variable as float64 or returns default
func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}
