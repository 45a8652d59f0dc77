// Package raster holds the grayscale pixel grids the content detector works on.
package raster

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// PixelGrid is a row-major 8-bit grayscale image of one rendered page
type PixelGrid struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewPixelGrid returns a grid of the given size filled with value
func NewPixelGrid(width, height int, value uint8) *PixelGrid {
	pix := make([]uint8, width*height)
	if value != 0 {
		for i := range pix {
			pix[i] = value
		}
	}
	return &PixelGrid{Width: width, Height: height, Pix: pix}
}

// At returns the intensity at column x, row y
func (g *PixelGrid) At(x, y int) uint8 {
	return g.Pix[y*g.Width+x]
}

// Set writes the intensity at column x, row y
func (g *PixelGrid) Set(x, y int, v uint8) {
	g.Pix[y*g.Width+x] = v
}

// Fill paints the half-open pixel rectangle r with v, clipped to the grid
func (g *PixelGrid) Fill(r image.Rectangle, v uint8) {
	r = r.Intersect(image.Rect(0, 0, g.Width, g.Height))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := g.Pix[y*g.Width : (y+1)*g.Width]
		for x := r.Min.X; x < r.Max.X; x++ {
			row[x] = v
		}
	}
}

// FromImage converts a rendered page to a grayscale grid
func FromImage(img image.Image) (*PixelGrid, error) {
	src, err := gocv.ImageToMatRGBA(img)
	if err != nil {
		return nil, fmt.Errorf("convert image to mat: %w", err)
	}
	defer src.Close()
	if src.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorRGBAToGray)

	rows, cols := gray.Rows(), gray.Cols()
	pix := gray.ToBytes()
	if len(pix) != rows*cols {
		return nil, fmt.Errorf("unexpected gray buffer size %d for %dx%d", len(pix), cols, rows)
	}
	return &PixelGrid{Width: cols, Height: rows, Pix: pix}, nil
}
