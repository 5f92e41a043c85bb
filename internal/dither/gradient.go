package dither

import (
	"math"
	"sort"
)

// GradientPoint is a control point along the gradient axis. Position,
// Opacity and Density are all expressed 0-100.
type GradientPoint struct {
	Position float64
	Opacity  float64
	Density  float64
}

// Gradient is an oriented 1-D gradient: an angle in degrees and a sequence
// of control points along the rotated axis.
type Gradient struct {
	Angle  float64
	Points []GradientPoint
}

// FlatGradient covers the whole surface at full opacity and density.
func FlatGradient() Gradient {
	return Gradient{
		Angle: 0,
		Points: []GradientPoint{
			{Position: 0, Opacity: 100, Density: 100},
			{Position: 100, Opacity: 100, Density: 100},
		},
	}
}

// Mask is the locally evaluated gradient, both fields in [0,1].
type Mask struct {
	Opacity float64
	Density float64
}

// cubicInterpolate is the Catmull-Rom-style cubic through y1..y2 with y0 and
// y3 as neighbors, evaluated at mu in [0,1].
func cubicInterpolate(y0, y1, y2, y3, mu float64) float64 {
	mu2 := mu * mu
	mu3 := mu2 * mu
	a0 := y3 - y2 - y0 + y1
	a1 := y0 - y1 - a0
	a2 := y2 - y0
	a3 := y1
	return a0*mu3 + a1*mu2 + a2*mu + a3
}

// noise is a small deterministic jitter, a pure function of position. It
// breaks up banding without introducing any randomness source.
func noise(x, y float64) float64 {
	v := math.Sin(x*12.9898+y*78.233) * 43758.5453123
	return (v - math.Floor(v)) * 0.015
}

// MaskAt projects (x,y) onto the gradient axis and interpolates opacity and
// density between the bracketing control points. Pure: identical inputs give
// identical outputs.
func MaskAt(x, y, width, height int, g Gradient) Mask {
	if len(g.Points) == 0 {
		return Mask{Opacity: 1, Density: 1}
	}

	rad := g.Angle * math.Pi / 180
	cos := math.Cos(rad)
	sin := math.Sin(rad)
	nx := float64(x)/float64(width) - 0.5
	ny := float64(y)/float64(height) - 0.5
	position := (nx*cos + ny*sin + 0.5) * 100
	position += noise(float64(x), float64(y)) * 100

	points := make([]GradientPoint, len(g.Points))
	copy(points, g.Points)
	sort.SliceStable(points, func(i, j int) bool { return points[i].Position < points[j].Position })

	i := 1
	for i < len(points)-1 && points[i].Position < position {
		i++
	}

	p0 := points[clampIndex(i-2, len(points))]
	p1 := points[clampIndex(i-1, len(points))]
	p2 := points[clampIndex(i, len(points))]
	p3 := points[clampIndex(i+1, len(points))]

	mu := 0.0
	if r := p2.Position - p1.Position; r != 0 {
		mu = (position - p1.Position) / r
		if mu < 0 {
			mu = 0
		}
		if mu > 1 {
			mu = 1
		}
	}

	return Mask{
		Opacity: clampUnit(cubicInterpolate(p0.Opacity, p1.Opacity, p2.Opacity, p3.Opacity, mu) / 100),
		Density: clampUnit(cubicInterpolate(p0.Density, p1.Density, p2.Density, p3.Density, mu) / 100),
	}
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
