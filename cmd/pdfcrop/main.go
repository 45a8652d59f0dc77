package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/factoidforrest/pdf-crop/internal/config"
	"github.com/factoidforrest/pdf-crop/internal/cropper"
	cerrors "github.com/factoidforrest/pdf-crop/internal/errors"
	"github.com/factoidforrest/pdf-crop/internal/geom"
	"github.com/factoidforrest/pdf-crop/internal/logging"
	"github.com/factoidforrest/pdf-crop/internal/margins"
	"github.com/factoidforrest/pdf-crop/internal/pdfdoc"
	"github.com/factoidforrest/pdf-crop/internal/report"
	"github.com/factoidforrest/pdf-crop/internal/session"
)

var verbose bool

func main() {
	// A missing .env is fine; the environment and flags still apply.
	_ = godotenv.Load()

	opts := config.Defaults()
	var left, top, right, bottom optionalFloat
	var rect, sel, pages string
	var outputDir string
	var noOptimize bool

	flag.BoolVar(&verbose, "verbose", false, "Print debug information")
	flag.Var(&left, "l", "Left margin as a fraction of page width (default: detected)")
	flag.Var(&left, "left", "Same as -l")
	flag.Var(&top, "t", "Top margin as a fraction of page height (default: detected)")
	flag.Var(&top, "top", "Same as -t")
	flag.Var(&right, "r", "Right margin as a fraction of page width (default: detected)")
	flag.Var(&right, "right", "Same as -r")
	flag.Var(&bottom, "b", "Bottom margin as a fraction of page height (default: detected)")
	flag.Var(&bottom, "bottom", "Same as -b")
	flag.Float64Var(&opts.Buffer, "buffer", opts.Buffer, "Safety buffer subtracted from detected margins (0.0-0.1)")
	flag.Float64Var(&opts.FooterHeight, "footer-height", opts.FooterHeight, "Bottom fraction of the page searched for an isolated footer (0.05-0.2)")
	flag.StringVar(&opts.Output, "o", "", "Output PDF (default: <input>-cropped.pdf)")
	flag.StringVar(&opts.Output, "output", "", "Same as -o")
	flag.StringVar(&outputDir, "output-dir", "", "Output directory when cropping several files")
	flag.BoolVar(&noOptimize, "no-optimize", false, "Skip compression and optimization of the output")
	flag.IntVar(&opts.Sample, "sample", 0, "Analyze at most this many evenly spaced pages (default: all)")
	flag.StringVar(&rect, "rect", "", "Crop every majority-size page to x0,y0,x1,y1 in points")
	flag.StringVar(&sel, "select", "", "Like -rect, but in preview pixels at -zoom")
	flag.StringVar(&pages, "pages", "", "Limit -rect to the page range first-last")
	flag.StringVar(&opts.PreviewDir, "preview-dir", "", "Write previews of the -pages range with the selection drawn")
	flag.BoolVar(&opts.AnalyzeOnly, "analyze", false, "Print the detected margins without writing output")
	flag.StringVar(&opts.DebugDir, "debug-dir", "", "Write per-page analysis images to this directory")
	flag.StringVar(&opts.ReportPath, "report", "", "Write a crop report (.md or .html)")
	flag.StringVar(&opts.CacheDir, "cache-dir", opts.CacheDir, "Cache detected content boxes in this directory")
	flag.IntVar(&opts.Workers, "workers", opts.Workers, "Pages rendered in parallel")
	flag.Float64Var(&opts.Zoom, "zoom", opts.Zoom, "Render scale used for detection")
	flag.BoolVar(&opts.LogJSON, "log-json", false, "Log JSON lines instead of text")

	flag.Parse()

	opts.Left, opts.Top, opts.Right, opts.Bottom = left.v, top.v, right.v, bottom.v
	opts.Optimize = !noOptimize
	if verbose {
		opts.LogLevel = "debug"
	}

	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] pdf_files...\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	if rect != "" {
		r, err := config.ParseRect(rect)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			os.Exit(2)
		}
		opts.Rect = &r
	}
	if sel != "" {
		r, err := config.ParseRect(sel)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			os.Exit(2)
		}
		opts.Select = &r
	}
	if pages != "" {
		pr, err := config.ParsePageRange(pages)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			os.Exit(2)
		}
		opts.Pages = &pr
	}

	logger, err := logging.New(opts.LogLevel, opts.LogJSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(2)
	}

	// Expand directories
	var inputFiles []string
	for _, file := range files {
		if isDir(file) {
			if outputDir == "" {
				fmt.Fprintf(os.Stderr, "ERROR: When passing a folder, provide --output-dir\n")
				os.Exit(2)
			}
			dirFiles, err := expandDirectory(file)
			if err != nil {
				fmt.Fprintf(os.Stderr, "ERROR: Failed to list directory '%s': %v\n", file, err)
				continue
			}
			inputFiles = append(inputFiles, dirFiles...)
		} else {
			inputFiles = append(inputFiles, file)
		}
	}

	total := len(inputFiles)
	if total > 1 && (opts.Output != "" || opts.ReportPath != "") {
		fmt.Fprintf(os.Stderr, "ERROR: -o and -report take a single input; use --output-dir for several\n")
		os.Exit(2)
	}
	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			os.Exit(2)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	runID := uuid.NewString()
	log := logger.WithField("run_id", runID)

	failed := 0
	for idx, filename := range inputFiles {
		status := fmt.Sprintf("[%d/%d] ", idx+1, total)

		o := opts
		o.Input = filename
		if outputDir != "" {
			o.Output = filepath.Join(outputDir, filepath.Base(config.DefaultOutputPath(filename)))
		}

		line, err := run(ctx, &o, runID, log.WithField("input", filepath.Base(filename)))
		if err != nil {
			fmt.Fprintf(os.Stderr, "%sERROR: %s: %v\n", status, filepath.Base(filename), err)
			failed++
			continue
		}
		fmt.Println(status + line)
	}

	stop()
	if failed > 0 {
		os.Exit(1)
	}
}

// run processes one input and returns its summary line
func run(ctx context.Context, o *config.Options, runID string, log logrus.FieldLogger) (string, error) {
	if err := o.Validate(); err != nil {
		return "", err
	}

	c, err := cropper.New(cropper.Config{
		Workers:  o.Workers,
		Zoom:     o.Zoom,
		Sample:   o.Sample,
		CacheDir: o.CacheDir,
		DebugDir: o.DebugDir,
	}, log)
	if err != nil {
		return "", err
	}

	switch {
	case o.AnalyzeOnly:
		return analyze(ctx, c, o)
	case o.Explicit():
		return cropExplicit(ctx, c, o, runID)
	default:
		return cropUniform(ctx, c, o, runID)
	}
}

func analyze(ctx context.Context, c *cropper.Cropper, o *config.Options) (string, error) {
	var indices []int
	if o.Sample > 0 {
		n, err := pdfdoc.PageCount(o.Input)
		if err != nil {
			return "", err
		}
		indices = margins.SampleIndices(n, o.Sample)
	}

	m, err := c.AnalyzeMargins(ctx, o.Input, indices, o.Buffer, o.FooterHeight)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("suggested margins %s (%s)", m, filepath.Base(o.Input)), nil
}

func cropUniform(ctx context.Context, c *cropper.Cropper, o *config.Options, runID string) (string, error) {
	overrides := cropper.Overrides{Left: o.Left, Top: o.Top, Right: o.Right, Bottom: o.Bottom}
	out := o.OutputPath()

	res, err := c.CropDocument(ctx, o.Input, out, overrides, o.Buffer, o.FooterHeight, o.Optimize)
	if err != nil {
		return "", err
	}

	if o.ReportPath != "" {
		r := &report.Report{
			RunID:         runID,
			Input:         o.Input,
			Output:        out,
			GeneratedAt:   time.Now(),
			Mode:          report.ModeUniform,
			OriginalPages: res.OriginalPageCount,
			OutputPages:   res.OutputPageCount,
			Margins:       res.Margins,
			Canvas:        res.Canvas,
			Transforms:    res.Transforms,
			Degenerate:    res.DegeneratePages,
		}
		if err := report.Write(o.ReportPath, r); err != nil {
			return "", fmt.Errorf("write report: %w", err)
		}
	}

	line := fmt.Sprintf("cropped %d pages to %.1f x %.1f pt (%s) -> %s",
		res.OutputPageCount, res.Canvas.Width, res.Canvas.Height, res.Margins, out)
	if n := len(res.DegeneratePages); n > 0 {
		line += fmt.Sprintf(", %d blank", n)
	}
	return line, nil
}

func cropExplicit(ctx context.Context, c *cropper.Cropper, o *config.Options, runID string) (string, error) {
	sess, err := newSession(o)
	if err != nil {
		return "", err
	}
	rng := sess.Range()
	sel, _ := sess.Selection()

	if o.PreviewDir != "" {
		if _, err := c.Preview(ctx, o.Input, sess, o.PreviewDir); err != nil {
			return "", err
		}
	}
	out := o.OutputPath()

	res, err := c.CropWithExplicitRect(ctx, o.Input, out, sel, rng, o.Optimize)
	if err != nil {
		return "", err
	}

	if o.ReportPath != "" {
		r := &report.Report{
			RunID:           runID,
			Input:           o.Input,
			Output:          out,
			GeneratedAt:     time.Now(),
			Mode:            report.ModeExplicit,
			OriginalPages:   res.TotalPages,
			OutputPages:     res.Cropped + res.Unchanged,
			Rect:            res.Rect,
			Range:           rng,
			MostCommon:      res.MostCommon,
			MostCommonCount: res.MostCommonCount,
			Cropped:         res.Cropped,
			Unchanged:       res.Unchanged,
		}
		if err := report.Write(o.ReportPath, r); err != nil {
			return "", fmt.Errorf("write report: %w", err)
		}
	}

	return fmt.Sprintf("cropped %d of %d pages to %.1f x %.1f pt, %d unchanged -> %s",
		res.Cropped, res.TotalPages, res.Rect.Width(), res.Rect.Height(), res.Unchanged, out), nil
}

// newSession sets up the selection the way the page previewer would: range
// applied, rectangle drawn on the first page of the range
func newSession(o *config.Options) (*session.Session, error) {
	doc, err := pdfdoc.Open(o.Input)
	if err != nil {
		return nil, cerrors.NewBackendFailure(cerrors.NoPage, "open", err)
	}
	defer doc.Close()

	sess, err := session.New(doc.PageCount(), o.Zoom)
	if err != nil {
		return nil, cerrors.NewInvalidInput("%v", err)
	}
	if o.Pages != nil {
		if err := o.Pages.Validate(doc.PageCount()); err != nil {
			return nil, cerrors.NewInvalidInput("%v", err)
		}
		sess.SetRange(o.Pages.First, o.Pages.Last, true)
	}

	page, err := doc.PageRect(sess.Range().First - 1)
	if err != nil {
		return nil, cerrors.NewBackendFailure(sess.Range().First-1, "read page bounds", err)
	}

	// Document-unit rectangles go through the same path as preview pixels.
	view := o.Select
	if view == nil {
		z := sess.Zoom()
		view = &geom.Rect{X0: o.Rect.X0 * z, Y0: o.Rect.Y0 * z, X1: o.Rect.X1 * z, Y1: o.Rect.Y1 * z}
	}
	if sel := sess.Select(*view, page); sel.IsEmpty() {
		return nil, cerrors.NewInvalidInput("crop rectangle lies outside page %d", sess.Range().First)
	}
	return sess, nil
}

// optionalFloat is a float flag that records whether it was given
type optionalFloat struct {
	v *float64
}

func (f *optionalFloat) String() string {
	if f == nil || f.v == nil {
		return ""
	}
	return strconv.FormatFloat(*f.v, 'g', -1, 64)
}

func (f *optionalFloat) Set(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	f.v = &v
	return nil
}

// Utility functions

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func expandDirectory(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var pdfFiles []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if isPDFFile(path) && !strings.HasSuffix(strings.TrimSuffix(path, filepath.Ext(path)), "-cropped") {
			pdfFiles = append(pdfFiles, path)
		}
	}

	return pdfFiles, nil
}

func isPDFFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}
