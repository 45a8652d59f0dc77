package raster

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Overlay describes the boxes drawn on a page analysis image, in pixels
type Overlay struct {
	Content   image.Rectangle
	Crop      image.Rectangle
	FooterTop int
	Label     string
}

// WriteOverlay writes the grid with the analysis boxes drawn on it to path.
// The file format follows the path extension.
func WriteOverlay(path string, g *PixelGrid, o Overlay) error {
	gray, err := gocv.NewMatFromBytes(g.Height, g.Width, gocv.MatTypeCV8UC1, g.Pix)
	if err != nil {
		return fmt.Errorf("grid to mat: %w", err)
	}
	defer gray.Close()

	img := gocv.NewMat()
	defer img.Close()
	gocv.CvtColor(gray, &img, gocv.ColorGrayToBGR)

	// Footer band in cyan
	if o.FooterTop > 0 && o.FooterTop < g.Height {
		gocv.Line(&img, image.Pt(0, o.FooterTop), image.Pt(g.Width-1, o.FooterTop), color.RGBA{255, 255, 0, 255}, 1)
	}

	// Detected content in blue
	if !o.Content.Empty() {
		gocv.Rectangle(&img, o.Content, color.RGBA{255, 0, 0, 255}, 1)
	}

	// Crop in green
	if !o.Crop.Empty() {
		gocv.Rectangle(&img, o.Crop, color.RGBA{0, 255, 0, 255}, 2)
	}

	if o.Label != "" {
		gocv.PutText(&img, o.Label, image.Pt(20, 30), gocv.FontHersheyPlain, 2,
			color.RGBA{0, 150, 255, 255}, 2)
	}

	if ok := gocv.IMWrite(path, img); !ok {
		return fmt.Errorf("failed to write %s", path)
	}
	return nil
}
