package dither

import (
	"math"
	"testing"
)

func TestMaskAtFlatGradient(t *testing.T) {
	g := FlatGradient()
	for _, p := range [][2]int{{0, 0}, {17, 43}, {99, 99}, {50, 0}} {
		mask := MaskAt(p[0], p[1], 100, 100, g)
		if mask.Opacity != 1 || mask.Density != 1 {
			t.Errorf("flat gradient at (%d,%d) = %+v, want full opacity and density", p[0], p[1], mask)
		}
	}
}

func TestMaskAtDeterministic(t *testing.T) {
	g := Gradient{
		Angle: 45,
		Points: []GradientPoint{
			{Position: 0, Opacity: 100, Density: 20},
			{Position: 60, Opacity: 40, Density: 90},
			{Position: 100, Opacity: 0, Density: 0},
		},
	}
	for y := 0; y < 32; y += 3 {
		for x := 0; x < 32; x += 3 {
			a := MaskAt(x, y, 32, 32, g)
			b := MaskAt(x, y, 32, 32, g)
			if a != b {
				t.Fatalf("MaskAt(%d,%d) not deterministic: %+v vs %+v", x, y, a, b)
			}
		}
	}
}

func TestMaskAtRange(t *testing.T) {
	g := Gradient{
		Angle: 30,
		Points: []GradientPoint{
			{Position: 20, Opacity: 0, Density: 100},
			{Position: 80, Opacity: 100, Density: 0},
		},
	}
	for y := 0; y < 64; y += 5 {
		for x := 0; x < 64; x += 5 {
			mask := MaskAt(x, y, 64, 64, g)
			if mask.Opacity < 0 || mask.Opacity > 1 || mask.Density < 0 || mask.Density > 1 {
				t.Fatalf("mask out of unit range at (%d,%d): %+v", x, y, mask)
			}
		}
	}
}

func TestMaskAtUnsortedPoints(t *testing.T) {
	sorted := Gradient{
		Angle: 0,
		Points: []GradientPoint{
			{Position: 0, Opacity: 0, Density: 0},
			{Position: 100, Opacity: 100, Density: 100},
		},
	}
	shuffled := Gradient{
		Angle: 0,
		Points: []GradientPoint{
			{Position: 100, Opacity: 100, Density: 100},
			{Position: 0, Opacity: 0, Density: 0},
		},
	}
	for x := 0; x < 50; x += 7 {
		a := MaskAt(x, 10, 50, 50, sorted)
		b := MaskAt(x, 10, 50, 50, shuffled)
		if a != b {
			t.Fatalf("point order changed the result at x=%d: %+v vs %+v", x, a, b)
		}
	}
}

func TestMaskAtSinglePoint(t *testing.T) {
	g := Gradient{
		Angle:  0,
		Points: []GradientPoint{{Position: 50, Opacity: 70, Density: 30}},
	}
	mask := MaskAt(10, 10, 100, 100, g)
	if math.Abs(mask.Opacity-0.7) > 1e-9 || math.Abs(mask.Density-0.3) > 1e-9 {
		t.Errorf("single control point should be constant: %+v", mask)
	}
}

func TestMaskAtNoPoints(t *testing.T) {
	mask := MaskAt(5, 5, 10, 10, Gradient{})
	if mask.Opacity != 1 || mask.Density != 1 {
		t.Errorf("empty gradient should be fully on: %+v", mask)
	}
}
