package cropper

import (
	"context"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"

	cerrors "github.com/factoidforrest/pdf-crop/internal/errors"
	"github.com/factoidforrest/pdf-crop/internal/raster"
	"github.com/factoidforrest/pdf-crop/internal/session"
)

// Preview writes one image per page of the session's crop range to dir,
// with the session's selection drawn on it. It walks the range the way a
// reviewer would page through it and returns the number of images written.
func (c *Cropper) Preview(ctx context.Context, path string, s *session.Session, dir string) (int, error) {
	src, err := c.open(path)
	if err != nil {
		return 0, cerrors.NewBackendFailure(cerrors.NoPage, "open", err)
	}
	defer src.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create preview dir: %w", err)
	}

	if !s.RangeOnly() {
		s.TogglePreview()
	}
	sel, hasSel := s.Selection()

	written := 0
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		idx := s.Current()
		grid, err := src.Render(idx, s.Zoom())
		if err != nil {
			return written, cerrors.NewBackendFailure(idx, "render", err)
		}

		o := raster.Overlay{Label: fmt.Sprintf("page %d of %s", idx+1, s.Range())}
		if hasSel {
			z := s.Zoom()
			o.Crop = image.Rect(
				int(math.Round(sel.X0*z)), int(math.Round(sel.Y0*z)),
				int(math.Round(sel.X1*z)), int(math.Round(sel.Y1*z)),
			)
		}
		out := filepath.Join(dir, fmt.Sprintf("preview-%04d.png", idx+1))
		if err := raster.WriteOverlay(out, grid, o); err != nil {
			return written, err
		}
		written++

		if !s.CanNext() {
			break
		}
		s.Next()
	}

	c.log.WithField("images", written).Info("Previews written")
	return written, nil
}
