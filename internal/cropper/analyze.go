package cropper

import (
	"context"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/factoidforrest/pdf-crop/internal/cache"
	"github.com/factoidforrest/pdf-crop/internal/detect"
	cerrors "github.com/factoidforrest/pdf-crop/internal/errors"
	"github.com/factoidforrest/pdf-crop/internal/geom"
	"github.com/factoidforrest/pdf-crop/internal/margins"
	"github.com/factoidforrest/pdf-crop/internal/raster"
)

// AnalyzeMargins detects content on the given pages of the PDF at path and
// returns the suggested document margins. A nil sampleIndices analyzes every
// page.
func (c *Cropper) AnalyzeMargins(ctx context.Context, path string, sampleIndices []int, buffer, footerHeightRatio float64) (geom.MarginSet, error) {
	src, err := c.open(path)
	if err != nil {
		return geom.MarginSet{}, cerrors.NewBackendFailure(cerrors.NoPage, "open", err)
	}
	defer src.Close()

	return c.analyze(ctx, src, path, sampleIndices, buffer, footerHeightRatio)
}

func (c *Cropper) analyze(ctx context.Context, src Source, path string, indices []int, buffer, footerHeightRatio float64) (geom.MarginSet, error) {
	if indices == nil {
		indices = margins.SampleIndices(src.PageCount(), 0)
	}
	for _, i := range indices {
		if i < 0 || i >= src.PageCount() {
			return geom.MarginSet{}, cerrors.NewInvalidInput("sample page %d is outside 1-%d", i+1, src.PageCount())
		}
	}

	opts := c.cfg.Detect
	opts.FooterHeightRatio = footerHeightRatio

	samples, err := c.detectPages(ctx, src, path, indices, opts)
	if err != nil {
		return geom.MarginSet{}, err
	}

	m := margins.Aggregate(samples, buffer)
	c.log.WithFields(logrus.Fields{
		"pages":  len(samples),
		"left":   m.Left,
		"top":    m.Top,
		"right":  m.Right,
		"bottom": m.Bottom,
	}).Info("Margins detected")
	return m, nil
}

// detectPages finds the content box of every listed page, fanning renders out
// over the configured workers. Samples come back in the order of indices.
func (c *Cropper) detectPages(ctx context.Context, src Source, path string, indices []int, opts detect.Options) ([]margins.PageSample, error) {
	cached, key := c.loadCached(path, opts)

	samples := make([]margins.PageSample, len(indices))
	var (
		mu    sync.Mutex
		fresh = make(map[int]geom.Rect)
		done  atomic.Int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Workers)
	for k, idx := range indices {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			page, err := src.PageRect(idx)
			if err != nil {
				return cerrors.NewBackendFailure(idx, "read page bounds", err)
			}

			content, ok := cached[idx]
			if !ok {
				grid, err := src.Render(idx, c.cfg.Zoom)
				if err != nil {
					return cerrors.NewBackendFailure(idx, "render", err)
				}
				content = detect.Detect(grid, c.cfg.Zoom, page, opts)

				mu.Lock()
				fresh[idx] = content
				mu.Unlock()
			}
			samples[k] = margins.PageSample{Content: content, Page: page}

			c.log.WithFields(logrus.Fields{
				"page":    idx + 1,
				"content": content.String(),
				"cached":  ok,
			}).Debug("Content box detected")

			if n := done.Add(1); n%ProgressEvery == 0 {
				c.log.Infof("Analyzed %d/%d pages", n, len(indices))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if key != "" && len(fresh) > 0 {
		if err := c.cache.Save(key, fresh); err != nil {
			c.log.WithError(err).Warn("Could not update content box cache")
		}
	}
	return samples, nil
}

func (c *Cropper) loadCached(path string, opts detect.Options) (map[int]geom.Rect, cache.Key) {
	if c.cache == nil {
		return nil, ""
	}
	key, err := cache.KeyFor(path, c.cfg.Zoom, opts)
	if err != nil {
		c.log.WithError(err).WithField("input", path).Warn("Content box cache skipped for this input")
		return nil, ""
	}
	boxes, err := c.cache.Load(key)
	if err != nil {
		c.log.WithError(err).Warn("Ignoring unreadable cache entry")
		return nil, key
	}
	if len(boxes) > 0 {
		c.log.WithField("pages", len(boxes)).Debug("Loaded cached content boxes")
	}
	return boxes, key
}

// writeOverlays renders each listed page again and saves an analysis image
// with its content box, footer band and final crop drawn on it
func (c *Cropper) writeOverlays(ctx context.Context, src Source, indices []int, m geom.MarginSet, opts detect.Options) error {
	if err := os.MkdirAll(c.cfg.DebugDir, 0o755); err != nil {
		return fmt.Errorf("create debug dir: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Workers)
	for _, idx := range indices {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			page, err := src.PageRect(idx)
			if err != nil {
				return err
			}
			grid, err := src.Render(idx, c.cfg.Zoom)
			if err != nil {
				return err
			}

			o := Overlay(grid, page, m, c.cfg.Zoom, opts)
			o.Label = fmt.Sprintf("page %d", idx+1)
			out := filepath.Join(c.cfg.DebugDir, fmt.Sprintf("page-%04d-analysis.png", idx+1))
			if err := raster.WriteOverlay(out, grid, o); err != nil {
				return err
			}
			c.log.WithField("path", out).Debug("Wrote analysis image")
			return nil
		})
	}
	return g.Wait()
}

// Overlay computes the analysis boxes of one rendered page in pixels
func Overlay(grid *raster.PixelGrid, page geom.Rect, m geom.MarginSet, zoom float64, opts detect.Options) raster.Overlay {
	var o raster.Overlay
	if b, ok := detect.FindBounds(grid, opts); ok {
		o.Content = image.Rect(b.MinX, b.MinY, b.MaxX+1, b.MaxY+1)
		o.FooterTop = b.FooterTop
	}
	crop := page.Shrink(m)
	o.Crop = image.Rect(
		int(math.Round((crop.X0-page.X0)*zoom)),
		int(math.Round((crop.Y0-page.Y0)*zoom)),
		int(math.Round((crop.X1-page.X0)*zoom)),
		int(math.Round((crop.Y1-page.Y0)*zoom)),
	)
	return o
}
