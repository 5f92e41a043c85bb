package dither

import (
	"bytes"
	"image"
	"image/color"
	"testing"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func gradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(x * 255 / (w - 1))
			img.SetRGBA(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

func TestBayerMatrix(t *testing.T) {
	seen := [64]bool{}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			v := int(bayer8[y][x])
			if v < 0 || v > 63 {
				t.Fatalf("bayer8[%d][%d] = %d out of range", y, x, v)
			}
			if seen[v] {
				t.Fatalf("bayer8 value %d appears twice", v)
			}
			seen[v] = true
		}
	}
}

func TestDitherDeterministic(t *testing.T) {
	src := gradientImage(64, 48)
	opts := DefaultOptions()
	opts.Blur = 2
	opts.Contrast = 20
	opts.Brightness = -10

	a := Dither(src, opts)
	b := Dither(src, opts)
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Fatal("dither output differs across identical runs")
	}
}

func TestDitherWhiteAndBlack(t *testing.T) {
	opts := DefaultOptions()
	opts.Spacing = 1

	white := Dither(solid(16, 16, color.RGBA{255, 255, 255, 255}), opts)
	anyOn := false
	for i := 3; i < len(white.Pix); i += 4 {
		if white.Pix[i] != 0 {
			anyOn = true
			break
		}
	}
	if !anyOn {
		t.Error("a white image should light at least some cells")
	}

	black := Dither(solid(16, 16, color.RGBA{0, 0, 0, 255}), opts)
	for i := 3; i < len(black.Pix); i += 4 {
		if black.Pix[i] != 0 {
			t.Fatal("a black image should leave every cell transparent")
		}
	}
}

func TestDitherFlatThreshold(t *testing.T) {
	opts := DefaultOptions()
	opts.UseOrdered = false
	opts.Spacing = 1

	bright := Dither(solid(8, 8, color.RGBA{200, 200, 200, 255}), opts)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if bright.RGBAAt(x, y).A == 0 {
				t.Fatalf("luminance 200 over threshold 128 should be on at (%d,%d)", x, y)
			}
		}
	}

	dim := Dither(solid(8, 8, color.RGBA{100, 100, 100, 255}), opts)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if dim.RGBAAt(x, y).A != 0 {
				t.Fatalf("luminance 100 under threshold 128 should stay off at (%d,%d)", x, y)
			}
		}
	}
}

func TestDitherInvert(t *testing.T) {
	opts := DefaultOptions()
	opts.UseOrdered = false
	opts.Spacing = 1
	opts.Invert = true

	dark := Dither(solid(8, 8, color.RGBA{10, 10, 10, 255}), opts)
	if dark.RGBAAt(0, 0).A == 0 {
		t.Error("inverted dark pixels should read as bright and turn on")
	}
}

func TestDitherSpacingStride(t *testing.T) {
	opts := DefaultOptions()
	opts.UseOrdered = false
	opts.Spacing = 4
	opts.Resolution = 1

	out := Dither(solid(16, 16, color.RGBA{255, 255, 255, 255}), opts)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			on := out.RGBAAt(x, y).A != 0
			expected := x%4 == 0 && y%4 == 0
			if on != expected {
				t.Fatalf("cell (%d,%d): on=%v, want %v for stride 4", x, y, on, expected)
			}
		}
	}
}

func TestDitherPixelSize(t *testing.T) {
	opts := DefaultOptions()
	opts.UseOrdered = false
	opts.Spacing = 8
	opts.Resolution = 1
	opts.PixelSize = 2

	out := Dither(solid(16, 16, color.RGBA{255, 255, 255, 255}), opts)
	for _, p := range [][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		if out.RGBAAt(p[0], p[1]).A == 0 {
			t.Errorf("pixel size 2 should fill (%d,%d)", p[0], p[1])
		}
	}
	if out.RGBAAt(2, 2).A != 0 {
		t.Error("pixel size 2 should not reach (2,2)")
	}
}

func TestDitherOpacityFromGradient(t *testing.T) {
	opts := DefaultOptions()
	opts.UseOrdered = false
	opts.Spacing = 1
	opts.Gradient = Gradient{
		Angle: 0,
		Points: []GradientPoint{
			{Position: 0, Opacity: 50, Density: 100},
			{Position: 100, Opacity: 50, Density: 100},
		},
	}

	out := Dither(solid(8, 8, color.RGBA{255, 255, 255, 255}), opts)
	a := out.RGBAAt(0, 0).A
	if a == 0 || a == 255 {
		t.Errorf("half-opacity gradient should paint translucent cells, got alpha %d", a)
	}
}

func TestScale(t *testing.T) {
	src := gradientImage(64, 64)
	out := Scale(src, 16, 8)
	if got := out.Bounds(); got.Dx() != 16 || got.Dy() != 8 {
		t.Errorf("Scale bounds = %v", got)
	}
}
