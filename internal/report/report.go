// Package report renders a summary of one crop run as Markdown or HTML.
package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/factoidforrest/pdf-crop/internal/bucket"
	"github.com/factoidforrest/pdf-crop/internal/canvas"
	"github.com/factoidforrest/pdf-crop/internal/geom"
)

// Mode names the kind of crop a report describes
type Mode string

const (
	ModeUniform  Mode = "uniform"
	ModeExplicit Mode = "explicit"
)

// Report collects what a run did
type Report struct {
	RunID       string
	Input       string
	Output      string
	GeneratedAt time.Time
	Mode        Mode

	OriginalPages int
	OutputPages   int

	// Uniform mode
	Margins    geom.MarginSet
	Canvas     canvas.Plan
	Transforms []canvas.PageTransform
	Degenerate []int

	// Explicit mode
	Rect            geom.Rect
	Range           bucket.PageRange
	MostCommon      bucket.Size
	MostCommonCount int
	Cropped         int
	Unchanged       int
}

// Markdown renders the report
func (r *Report) Markdown() []byte {
	var b bytes.Buffer

	fmt.Fprintf(&b, "# Crop report\n\n")
	fmt.Fprintf(&b, "| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Run | `%s` |\n", r.RunID)
	fmt.Fprintf(&b, "| Input | `%s` |\n", r.Input)
	fmt.Fprintf(&b, "| Output | `%s` |\n", r.Output)
	fmt.Fprintf(&b, "| Generated | %s |\n", r.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "| Mode | %s |\n", r.Mode)
	fmt.Fprintf(&b, "| Pages | %d in, %d out |\n\n", r.OriginalPages, r.OutputPages)

	switch r.Mode {
	case ModeExplicit:
		r.explicitSection(&b)
	default:
		r.uniformSection(&b)
	}
	return b.Bytes()
}

func (r *Report) uniformSection(b *bytes.Buffer) {
	m := r.Margins
	fmt.Fprintf(b, "## Margins\n\n")
	fmt.Fprintf(b, "| Left | Top | Right | Bottom |\n|---|---|---|---|\n")
	fmt.Fprintf(b, "| %.1f%% | %.1f%% | %.1f%% | %.1f%% |\n\n",
		m.Left*100, m.Top*100, m.Right*100, m.Bottom*100)

	fmt.Fprintf(b, "Output page size: **%.1f x %.1f** pt\n\n", r.Canvas.Width, r.Canvas.Height)

	if len(r.Degenerate) > 0 {
		pages := make([]string, len(r.Degenerate))
		for i, p := range r.Degenerate {
			pages[i] = fmt.Sprint(p + 1)
		}
		fmt.Fprintf(b, "Pages with no area left after cropping: %s\n\n", strings.Join(pages, ", "))
	}

	if len(r.Transforms) == 0 {
		return
	}
	fmt.Fprintf(b, "## Pages\n\n")
	fmt.Fprintf(b, "| Page | Crop | Scale | Offset |\n|---|---|---|---|\n")
	for i, t := range r.Transforms {
		fmt.Fprintf(b, "| %d | %s | %.3f | (%.1f, %.1f) |\n", i+1, t.Source, t.Scale, t.OffsetX, t.OffsetY)
	}
	b.WriteString("\n")
}

func (r *Report) explicitSection(b *bytes.Buffer) {
	fmt.Fprintf(b, "## Page sizes\n\n")
	fmt.Fprintf(b, "Most common size: **%s** pt (%d of %d pages, %.1f%%)\n\n",
		r.MostCommon, r.MostCommonCount, r.OriginalPages, percent(r.MostCommonCount, r.OriginalPages))

	fmt.Fprintf(b, "## Crop\n\n")
	fmt.Fprintf(b, "| | |\n|---|---|\n")
	fmt.Fprintf(b, "| Rectangle | %s |\n", r.Rect)
	fmt.Fprintf(b, "| Size | %.1f x %.1f pt |\n", r.Rect.Width(), r.Rect.Height())
	fmt.Fprintf(b, "| Pages | %s |\n", r.Range)
	fmt.Fprintf(b, "| Cropped | %d |\n", r.Cropped)
	fmt.Fprintf(b, "| Unchanged | %d |\n\n", r.Unchanged)
}

// HTML renders the Markdown report to a standalone HTML page
func (r *Report) HTML() ([]byte, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
		),
	)

	var body bytes.Buffer
	if err := md.Convert(r.Markdown(), &body); err != nil {
		return nil, err
	}

	var b bytes.Buffer
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>Crop report %s</title>\n", r.RunID)
	b.WriteString("</head>\n<body>\n")
	b.Write(body.Bytes())
	b.WriteString("</body>\n</html>\n")
	return b.Bytes(), nil
}

// Write saves the report to path, as HTML for .html and Markdown otherwise
func Write(path string, r *Report) error {
	data := r.Markdown()
	if strings.EqualFold(filepath.Ext(path), ".html") {
		var err error
		if data, err = r.HTML(); err != nil {
			return fmt.Errorf("render report: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
