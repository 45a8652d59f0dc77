package cropper

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/factoidforrest/pdf-crop/internal/bucket"
	"github.com/factoidforrest/pdf-crop/internal/canvas"
	cerrors "github.com/factoidforrest/pdf-crop/internal/errors"
	"github.com/factoidforrest/pdf-crop/internal/geom"
	"github.com/factoidforrest/pdf-crop/internal/margins"
)

// CropDocument crops every page of the PDF at path by one set of margins and
// writes pages of a single uniform size to outputPath. Sides missing from
// overrides are detected.
func (c *Cropper) CropDocument(ctx context.Context, path, outputPath string, overrides Overrides, buffer, footerHeightRatio float64, optimize bool) (CropResult, error) {
	src, err := c.open(path)
	if err != nil {
		return CropResult{}, cerrors.NewBackendFailure(cerrors.NoPage, "open", err)
	}
	defer src.Close()

	pages, err := pageRects(src)
	if err != nil {
		return CropResult{}, cerrors.NewBackendFailure(cerrors.NoPage, "read page bounds", err)
	}

	var m geom.MarginSet
	if !overrides.Complete() {
		indices := margins.SampleIndices(len(pages), c.cfg.Sample)
		if m, err = c.analyze(ctx, src, path, indices, buffer, footerHeightRatio); err != nil {
			return CropResult{}, err
		}
	}
	m = overrides.Apply(m)
	if err := m.Validate(); err != nil {
		return CropResult{}, cerrors.NewInvalidInput("%v", err)
	}
	if floored, changed := m.Floor(geom.MinRemaining); changed {
		c.log.WithFields(logrus.Fields{
			"code":      cerrors.ErrorDegenerateCrop,
			"requested": m.String(),
			"applied":   floored.String(),
		}).Warn("Margins leave too little of the page, scaling them down")
		m = floored
	}

	plan, transforms := canvas.PlanPages(pages, m)
	c.log.WithFields(logrus.Fields{
		"width":  plan.Width,
		"height": plan.Height,
	}).Info("Uniform page size planned")

	if c.cfg.DebugDir != "" {
		opts := c.cfg.Detect
		opts.FooterHeightRatio = footerHeightRatio
		if err := c.writeOverlays(ctx, src, margins.SampleIndices(len(pages), c.cfg.Sample), m, opts); err != nil {
			c.log.WithError(err).Warn("Could not write analysis images")
		}
	}

	result := CropResult{
		OriginalPageCount: len(pages),
		Margins:           m,
		Canvas:            plan,
		Transforms:        transforms,
	}

	sink := c.newSink(path, pages)
	for i, t := range transforms {
		if err := ctx.Err(); err != nil {
			return CropResult{}, err
		}
		if err := sink.NewPage(plan.Width, plan.Height); err != nil {
			return CropResult{}, cerrors.NewBackendFailure(i, "add page", err)
		}
		if t.Degenerate {
			c.log.WithFields(logrus.Fields{
				"code": cerrors.ErrorDegenerateCrop,
				"page": i + 1,
			}).Warn(cerrors.NewDegenerateCrop(i).Message)
			result.DegeneratePages = append(result.DegeneratePages, i)
			continue
		}
		if err := sink.PastePageRegion(t.Target, i, t.Source); err != nil {
			return CropResult{}, cerrors.NewBackendFailure(i, "draw page", err)
		}
		if (i+1)%ProgressEvery == 0 {
			c.log.Infof("Processed %d/%d pages", i+1, len(transforms))
		}
	}

	if err := saveAtomic(sink, outputPath, optimize); err != nil {
		return CropResult{}, cerrors.NewBackendFailure(cerrors.NoPage, "save", err)
	}
	result.OutputPageCount = sink.PageCount()

	c.log.WithFields(logrus.Fields{
		"input":  result.OriginalPageCount,
		"output": result.OutputPageCount,
		"path":   outputPath,
	}).Info("Cropped document written")
	return result, nil
}

// CropWithExplicitRect crops the pages of the PDF at path that lie in pages
// and share the document's most common page size to rect. Every other page
// is copied unchanged. Cropped pages are exactly rect's size.
func (c *Cropper) CropWithExplicitRect(ctx context.Context, path, outputPath string, rect geom.Rect, pages bucket.PageRange, optimize bool) (ExplicitResult, error) {
	src, err := c.open(path)
	if err != nil {
		return ExplicitResult{}, cerrors.NewBackendFailure(cerrors.NoPage, "open", err)
	}
	defer src.Close()

	rects, err := pageRects(src)
	if err != nil {
		return ExplicitResult{}, cerrors.NewBackendFailure(cerrors.NoPage, "read page bounds", err)
	}
	if err := pages.Validate(len(rects)); err != nil {
		return ExplicitResult{}, cerrors.NewInvalidInput("%v", err)
	}

	sizes := bucket.Count(rects)
	c.logPageSizes(sizes)

	// Clamp to the first page of the majority size; that is the page the
	// rectangle was drawn on.
	var reference geom.Rect
	for _, r := range rects {
		if bucket.SizeOf(r) == sizes.MostCommon {
			reference = r
			break
		}
	}
	clip := geom.NewRect(rect.X0, rect.Y0, rect.X1, rect.Y1).Clamp(reference)
	if clip.IsEmpty() {
		return ExplicitResult{}, cerrors.NewInvalidInput("crop rectangle %v lies outside the %s page", rect, sizes.MostCommon)
	}

	c.log.WithFields(logrus.Fields{
		"rect":        clip.String(),
		"width":       clip.Width(),
		"height":      clip.Height(),
		"width_pct":   clip.Width() / reference.Width() * 100,
		"height_pct":  clip.Height() / reference.Height() * 100,
		"pages":       pages.String(),
		"target_size": sizes.MostCommon.String(),
	}).Info("Crop area")

	result := ExplicitResult{
		MostCommon:      sizes.MostCommon,
		MostCommonCount: sizes.Count,
		TotalPages:      len(rects),
		Rect:            clip,
	}
	target := geom.Rect{X1: clip.Width(), Y1: clip.Height()}

	sink := c.newSink(path, rects)
	for i, r := range rects {
		if err := ctx.Err(); err != nil {
			return ExplicitResult{}, err
		}
		if sizes.Eligible(r, i, pages) {
			if err := sink.NewPage(target.X1, target.Y1); err != nil {
				return ExplicitResult{}, cerrors.NewBackendFailure(i, "add page", err)
			}
			if err := sink.PastePageRegion(target, i, clip); err != nil {
				return ExplicitResult{}, cerrors.NewBackendFailure(i, "draw page", err)
			}
			result.Cropped++
		} else {
			if err := sink.InsertPageVerbatim(i); err != nil {
				return ExplicitResult{}, cerrors.NewBackendFailure(i, "copy page", err)
			}
			result.Unchanged++
		}
		if (i+1)%ProgressEvery == 0 {
			c.log.Infof("Processed %d/%d pages", i+1, len(rects))
		}
	}

	if err := saveAtomic(sink, outputPath, optimize); err != nil {
		return ExplicitResult{}, cerrors.NewBackendFailure(cerrors.NoPage, "save", err)
	}

	c.log.WithFields(logrus.Fields{
		"cropped":   result.Cropped,
		"unchanged": result.Unchanged,
		"total":     result.TotalPages,
		"path":      outputPath,
	}).Info("Processing summary")
	return result, nil
}

func (c *Cropper) logPageSizes(sizes bucket.Result) {
	c.log.WithFields(logrus.Fields{
		"size":    sizes.MostCommon.String(),
		"count":   sizes.Count,
		"total":   sizes.Total,
		"percent": fmt.Sprintf("%.1f", sizes.Fraction()*100),
	}).Info("Most common page size")
	for _, s := range sizes.Order {
		c.log.WithFields(logrus.Fields{
			"size":  s.String(),
			"count": sizes.Counts[s],
		}).Debug("Page size")
	}
}

// outputMode is the permission of written PDFs
const outputMode = 0o644

// saveAtomic saves through a temporary file next to path so a failed write
// never leaves a partial output behind
func saveAtomic(sink Sink, path string, compress bool) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".pdfcrop-*.pdf")
	if err != nil {
		return err
	}
	name := tmp.Name()
	tmp.Close()

	if err := sink.Save(name, compress); err != nil {
		os.Remove(name)
		return err
	}
	// CreateTemp makes the file 0600 and not every writer replaces it.
	if err := os.Chmod(name, outputMode); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}
