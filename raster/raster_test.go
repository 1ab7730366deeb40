// seehuhn.de/go/pdfrender - render PDF pages to raster images
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package raster

import (
	"math"
	"testing"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/pdfrender/raster/testcases"
)

// renderCase renders a test case into a float32 coverage grid.
// The threshold parameter controls the Approach A/B cutoff for testing.
func renderCase(tc testcases.TestCase, threshold int) []float32 {
	w, h := tc.Width, tc.Height
	buf := make([]float32, w*h)

	clip := rect.Rect{URx: float64(w), URy: float64(h)}
	r := NewRasterizer(clip)
	r.smallPathThreshold = threshold

	if tc.CTM != (matrix.Matrix{}) {
		r.CTM = tc.CTM
	}

	emit := func(y, xMin int, coverage []float32) {
		row := buf[y*w:]
		for i, c := range coverage {
			row[xMin+i] = c
		}
	}

	switch op := tc.Op.(type) {
	case testcases.Fill:
		r.Fill(tc.Path, op.Rule == testcases.EvenOdd, emit)
	case testcases.Stroke:
		r.Width = op.Width
		r.Cap = op.Cap
		r.Join = op.Join
		r.MiterLimit = op.MiterLimit
		r.Dash = op.Dash
		r.DashPhase = op.DashPhase
		r.Stroke(tc.Path, emit)
	}
	return buf
}

// TestApproachConsistency renders each test case with both rasterization
// strategies and checks that the results agree:
//   - Approach A (2D buffers): threshold = 1<<30 (always use A)
//   - Approach B (active edge list): threshold = 0 (always use B)
func TestApproachConsistency(t *testing.T) {
	for _, tc := range testcases.All {
		t.Run(tc.Name, func(t *testing.T) {
			a := renderCase(tc, 1<<30)
			b := renderCase(tc, 0)

			const epsilon = 2e-3
			bad := 0
			for i := range a {
				if math.Abs(float64(a[i]-b[i])) > epsilon {
					bad++
				}
			}
			if bad > 0 {
				t.Errorf("%d of %d pixels differ between approaches", bad, len(a))
			}
		})
	}
}

// TestTriangleCoverage verifies exact coverage values for a simple triangle.
// The triangle (0,0)→(10,0)→(10,1)→close has a diagonal edge y = x/10.
// Each pixel X should have coverage (2X+1)/20: 0.05, 0.15, ..., 0.95.
func TestTriangleCoverage(t *testing.T) {
	trianglePath := (&path.Data{}).
		MoveTo(vec.Vec2{X: 0, Y: 0}).
		LineTo(vec.Vec2{X: 10, Y: 0}).
		LineTo(vec.Vec2{X: 10, Y: 1}).
		Close()

	clip := rect.Rect{LLx: 0, LLy: 0, URx: 10, URy: 1}
	r := NewRasterizer(clip)

	coverage := make([]float32, 10)
	emit := func(y, xMin int, cov []float32) {
		if y == 0 {
			for i, c := range cov {
				coverage[xMin+i] = c
			}
		}
	}

	r.FillNonZero(trianglePath, emit)

	const epsilon = 1e-6
	for x := range 10 {
		expected := float32(2*x+1) / 20.0
		actual := coverage[x]
		if math.Abs(float64(actual-expected)) > epsilon {
			t.Errorf("pixel %d: expected coverage %.4f, got %.4f", x, expected, actual)
		}
	}
}

// TestRectangleCoverage checks total coverage of axis-aligned rectangles,
// including a subpixel-aligned one where boundary pixels have partial
// coverage.
func TestRectangleCoverage(t *testing.T) {
	cases := []struct {
		name           string
		x1, y1, x2, y2 float64
	}{
		{"aligned", 2, 2, 12, 8},
		{"subpixel", 2.5, 2.5, 11.5, 7.5},
		{"quarter", 3.25, 3.25, 9.75, 6.75},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := (&path.Data{}).
				MoveTo(vec.Vec2{X: c.x1, Y: c.y1}).
				LineTo(vec.Vec2{X: c.x2, Y: c.y1}).
				LineTo(vec.Vec2{X: c.x2, Y: c.y2}).
				LineTo(vec.Vec2{X: c.x1, Y: c.y2}).
				Close()

			r := NewRasterizer(rect.Rect{URx: 16, URy: 16})
			var sum float64
			r.FillNonZero(p, func(y, xMin int, cov []float32) {
				for _, v := range cov {
					sum += float64(v)
				}
			})

			want := (c.x2 - c.x1) * (c.y2 - c.y1)
			if math.Abs(sum-want) > 1e-4 {
				t.Errorf("total coverage %.4f, want %.4f", sum, want)
			}
		})
	}
}

// TestEvenOddStar checks that the center of a self-intersecting star is
// empty under the even-odd rule but filled under the nonzero rule.
func TestEvenOddStar(t *testing.T) {
	var nonzero, evenodd testcases.TestCase
	for _, tc := range testcases.All {
		switch tc.Name {
		case "star_nonzero":
			nonzero = tc
		case "star_evenodd":
			evenodd = tc
		}
	}
	if nonzero.Path == nil || evenodd.Path == nil {
		t.Fatal("star test cases missing")
	}

	nz := renderCase(nonzero, 1<<30)
	eo := renderCase(evenodd, 1<<30)

	center := 32*nonzero.Width + 32
	if nz[center] < 0.99 {
		t.Errorf("nonzero center coverage %.4f, want 1", nz[center])
	}
	if eo[center] > 0.01 {
		t.Errorf("even-odd center coverage %.4f, want 0", eo[center])
	}
}

// TestImplicitClose checks that a fill treats an open subpath as if it
// were closed.
func TestImplicitClose(t *testing.T) {
	closed := (&path.Data{}).
		MoveTo(vec.Vec2{X: 2, Y: 14}).
		LineTo(vec.Vec2{X: 8, Y: 2}).
		LineTo(vec.Vec2{X: 14, Y: 14}).
		Close()
	open := (&path.Data{}).
		MoveTo(vec.Vec2{X: 2, Y: 14}).
		LineTo(vec.Vec2{X: 8, Y: 2}).
		LineTo(vec.Vec2{X: 14, Y: 14})

	render := func(p *path.Data) []float32 {
		buf := make([]float32, 16*16)
		r := NewRasterizer(rect.Rect{URx: 16, URy: 16})
		r.FillNonZero(p, func(y, xMin int, cov []float32) {
			copy(buf[y*16+xMin:], cov)
		})
		return buf
	}

	a := render(closed)
	b := render(open)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("pixel %d: closed %.4f, open %.4f", i, a[i], b[i])
		}
	}
}

// TestEmitWithinClip checks that no coverage is reported outside the clip
// rectangle, even when the path extends past it.
func TestEmitWithinClip(t *testing.T) {
	p := (&path.Data{}).
		MoveTo(vec.Vec2{X: -20, Y: -20}).
		LineTo(vec.Vec2{X: 40, Y: -20}).
		LineTo(vec.Vec2{X: 40, Y: 40}).
		LineTo(vec.Vec2{X: -20, Y: 40}).
		Close()

	clip := rect.Rect{LLx: 4, LLy: 4, URx: 20, URy: 20}
	r := NewRasterizer(clip)
	r.FillNonZero(p, func(y, xMin int, cov []float32) {
		if y < 4 || y >= 20 {
			t.Errorf("row %d outside clip", y)
		}
		if xMin < 4 || xMin+len(cov) > 20 {
			t.Errorf("row %d: columns [%d,%d) outside clip", y, xMin, xMin+len(cov))
		}
	})
}

// TestReset checks that a reused Rasterizer gives the same results as a
// fresh one.
func TestReset(t *testing.T) {
	tc := testcases.All[0]
	r := NewRasterizer(rect.Rect{URx: float64(tc.Width), URy: float64(tc.Height)})

	render := func() []float32 {
		buf := make([]float32, tc.Width*tc.Height)
		r.FillNonZero(tc.Path, func(y, xMin int, cov []float32) {
			copy(buf[y*tc.Width+xMin:], cov)
		})
		return buf
	}

	first := render()

	// pollute state, then reset
	r.CTM = matrix.Scale(3, 3)
	r.Width = 17
	r.Reset(rect.Rect{URx: float64(tc.Width), URy: float64(tc.Height)})

	second := render()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("pixel %d: %.4f before reset, %.4f after", i, first[i], second[i])
		}
	}
}

// BenchmarkRasterizeAll measures steady-state performance by reusing a
// single Rasterizer across all test cases.
func BenchmarkRasterizeAll(b *testing.B) {
	r := NewRasterizer(rect.Rect{})
	emit := func(y, xMin int, coverage []float32) {}

	b.ResetTimer()
	for b.Loop() {
		for _, tc := range testcases.All {
			r.Clip = rect.Rect{URx: float64(tc.Width), URy: float64(tc.Height)}
			if tc.CTM != (matrix.Matrix{}) {
				r.CTM = tc.CTM
			} else {
				r.CTM = matrix.Identity
			}

			switch op := tc.Op.(type) {
			case testcases.Fill:
				r.Fill(tc.Path, op.Rule == testcases.EvenOdd, emit)
			case testcases.Stroke:
				r.Width = op.Width
				r.Cap = op.Cap
				r.Join = op.Join
				r.MiterLimit = op.MiterLimit
				r.Dash = op.Dash
				r.DashPhase = op.DashPhase
				r.Stroke(tc.Path, emit)
			}
		}
	}
}
