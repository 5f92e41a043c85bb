// Package dither renders an image as a stylized halftone: ordered Bayer
// dithering with a gradient-driven, spatially varying threshold. It is used
// for decorative backgrounds and for drawing city images into terminal cells.
package dither

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// Options configures a dither pass.
type Options struct {
	Threshold  float64  // flat luminance threshold, default 128
	PixelSize  int      // side of each painted square, default 1
	Spacing    int      // nominal sample stride, default 2
	Blur       int      // pre-blur radius in pixels, default 0
	Resolution float64  // divides Spacing to control density, default 2
	Invert     bool     // invert luminance before thresholding
	Brightness float64  // added to luminance after contrast
	Contrast   float64  // non-linear contrast amount, -100..100
	UseOrdered bool     // Bayer dithering; plain threshold when false
	Gradient   Gradient // spatial opacity/density mask
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		Threshold:  128,
		PixelSize:  1,
		Spacing:    2,
		Resolution: 2,
		UseOrdered: true,
		Gradient:   FlatGradient(),
	}
}

// bayer8 is the fixed 8x8 ordered-dither threshold matrix, values 0-63.
var bayer8 = [8][8]float64{
	{0, 48, 12, 60, 3, 51, 15, 63},
	{32, 16, 44, 28, 35, 19, 47, 31},
	{8, 56, 4, 52, 11, 59, 7, 55},
	{40, 24, 36, 20, 43, 27, 39, 23},
	{2, 50, 14, 62, 1, 49, 13, 61},
	{34, 18, 46, 30, 33, 17, 45, 29},
	{10, 58, 6, 54, 9, 57, 5, 53},
	{42, 26, 38, 22, 41, 25, 37, 21},
}

// Dither renders src as a halftone overlay. Selected cells are painted as
// white squares with the gradient's local opacity as alpha; everything else
// stays transparent. Deterministic: same pixels and options, same bytes.
func Dither(src image.Image, opts Options) *image.RGBA {
	bounds := src.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	source := toRGBA(src)
	if opts.Blur > 0 {
		source = boxBlur(source, opts.Blur)
	}

	out := image.NewRGBA(image.Rect(0, 0, width, height))

	resolution := opts.Resolution
	if resolution <= 0 {
		resolution = 1
	}
	spacing := int(float64(opts.Spacing) / resolution)
	if spacing < 1 {
		spacing = 1
	}
	pixelSize := opts.PixelSize
	if pixelSize < 1 {
		pixelSize = 1
	}

	for y := 0; y < height; y += spacing {
		for x := 0; x < width; x += spacing {
			i := source.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
			r := float64(source.Pix[i])
			g := float64(source.Pix[i+1])
			b := float64(source.Pix[i+2])

			luma := r*0.299 + g*0.587 + b*0.114
			luma = luma*(1+opts.Contrast/100) + luma*(luma/255)*(opts.Contrast/100)
			luma += opts.Brightness
			if opts.Invert {
				luma = 255 - luma
			}

			mask := MaskAt(x, y, width, height, opts.Gradient)

			var on bool
			if opts.UseOrdered {
				bayer := bayer8[y%8][x%8] / 64
				threshold := opts.Threshold + (bayer-0.5)*255*mask.Density
				on = luma > threshold
			} else {
				on = luma > opts.Threshold
			}

			if on {
				paintSquare(out, x, y, pixelSize, mask.Opacity)
			}
		}
	}
	return out
}

// paintSquare fills a pixelSize square of white at the given alpha.
func paintSquare(img *image.RGBA, x, y, size int, opacity float64) {
	a := uint8(opacity*255 + 0.5)
	// White premultiplied by alpha: all channels equal the alpha value.
	c := color.RGBA{a, a, a, a}
	maxX := img.Rect.Max.X
	maxY := img.Rect.Max.Y
	for dy := 0; dy < size && y+dy < maxY; dy++ {
		for dx := 0; dx < size && x+dx < maxX; dx++ {
			img.SetRGBA(x+dx, y+dy, c)
		}
	}
}

func toRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok {
		return rgba
	}
	out := image.NewRGBA(src.Bounds())
	draw.Draw(out, out.Bounds(), src, src.Bounds().Min, draw.Src)
	return out
}

// boxBlur approximates a Gaussian soften with a single box pass per axis.
// Visual equivalence is all the pre-blur needs.
func boxBlur(src *image.RGBA, radius int) *image.RGBA {
	horizontal := blurAxis(src, radius, true)
	return blurAxis(horizontal, radius, false)
}

func blurAxis(src *image.RGBA, radius int, horizontal bool) *image.RGBA {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	out := image.NewRGBA(bounds)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var rSum, gSum, bSum, aSum, count int
			for d := -radius; d <= radius; d++ {
				sx, sy := x, y
				if horizontal {
					sx += d
				} else {
					sy += d
				}
				if sx < 0 || sx >= w || sy < 0 || sy >= h {
					continue
				}
				i := src.PixOffset(bounds.Min.X+sx, bounds.Min.Y+sy)
				rSum += int(src.Pix[i])
				gSum += int(src.Pix[i+1])
				bSum += int(src.Pix[i+2])
				aSum += int(src.Pix[i+3])
				count++
			}
			i := out.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
			out.Pix[i] = uint8(rSum / count)
			out.Pix[i+1] = uint8(gSum / count)
			out.Pix[i+2] = uint8(bSum / count)
			out.Pix[i+3] = uint8(aSum / count)
		}
	}
	return out
}

// Scale resamples src to width x height. Used to fit city images to the
// terminal cell grid before dithering.
func Scale(src image.Image, width, height int) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.ApproxBiLinear.Scale(out, out.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return out
}
