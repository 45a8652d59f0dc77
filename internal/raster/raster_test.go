package raster

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func TestFill(t *testing.T) {
	g := NewPixelGrid(10, 8, 255)
	g.Fill(image.Rect(2, 3, 5, 20), 0)

	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			want := uint8(255)
			if x >= 2 && x < 5 && y >= 3 {
				want = 0
			}
			if got := g.At(x, y); got != want {
				t.Fatalf("At(%d,%d) = %d, want %d", x, y, got, want)
			}
		}
	}
}

func TestFromImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 6, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			img.Set(x, y, color.White)
		}
	}
	img.Set(4, 1, color.Black)

	g, err := FromImage(img)
	if err != nil {
		t.Fatalf("FromImage: %v", err)
	}
	if g.Width != 6 || g.Height != 4 {
		t.Fatalf("size = %dx%d, want 6x4", g.Width, g.Height)
	}
	if g.At(0, 0) != 255 {
		t.Errorf("white pixel = %d", g.At(0, 0))
	}
	if g.At(4, 1) != 0 {
		t.Errorf("black pixel = %d", g.At(4, 1))
	}
}

func TestWriteOverlay(t *testing.T) {
	g := NewPixelGrid(120, 160, 255)
	g.Fill(image.Rect(20, 20, 100, 120), 0)

	path := filepath.Join(t.TempDir(), "page-analysis.png")
	err := WriteOverlay(path, g, Overlay{
		Content:   image.Rect(20, 20, 99, 119),
		Crop:      image.Rect(18, 18, 102, 122),
		FooterTop: 144,
		Label:     "page 1",
	})
	if err != nil {
		t.Fatalf("WriteOverlay: %v", err)
	}
	if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
		t.Fatalf("overlay not written: %v", err)
	}
}
