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

	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/pdf/graphics"
)

// strokeSum strokes a path with the given parameters and returns the total
// coverage over a 64x64 canvas.
func strokeSum(p *path.Data, width float64, cap graphics.LineCapStyle, dash []float64, phase float64) float64 {
	r := NewRasterizer(rect.Rect{URx: 64, URy: 64})
	r.Width = width
	r.Cap = cap
	r.Dash = dash
	r.DashPhase = phase

	var sum float64
	r.Stroke(p, func(y, xMin int, cov []float32) {
		for _, v := range cov {
			sum += float64(v)
		}
	})
	return sum
}

func hLine(x1, y, x2 float64) *path.Data {
	return (&path.Data{}).
		MoveTo(vec.Vec2{X: x1, Y: y}).
		LineTo(vec.Vec2{X: x2, Y: y})
}

// TestStrokeArea checks the painted area of a horizontal line with butt
// caps, which is an exact axis-aligned rectangle.
func TestStrokeArea(t *testing.T) {
	sum := strokeSum(hLine(4, 32, 60), 4, graphics.LineCapButt, nil, 0)
	want := 56.0 * 4.0
	if math.Abs(sum-want) > 0.5 {
		t.Errorf("stroke area %.3f, want %.3f", sum, want)
	}
}

// TestStrokeCaps checks that caps add the expected area beyond the line
// endpoints: square caps add a half-width box on each end, round caps a
// half disc.
func TestStrokeCaps(t *testing.T) {
	const w = 6.0
	base := 40.0 * w // line from 12 to 52

	cases := []struct {
		name  string
		cap   graphics.LineCapStyle
		extra float64
		tol   float64
	}{
		// Round caps are flattened to inscribed polygons, so the painted
		// area falls a little short of the exact half-discs.
		{"butt", graphics.LineCapButt, 0, 0.5},
		{"square", graphics.LineCapSquare, w * w, 0.5},
		{"round", graphics.LineCapRound, math.Pi * w * w / 4, 4.0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			sum := strokeSum(hLine(12, 32, 52), w, c.cap, nil, 0)
			want := base + c.extra
			if math.Abs(sum-want) > c.tol {
				t.Errorf("stroke area %.3f, want %.3f", sum, want)
			}
		})
	}
}

// TestDashArea checks the painted area of a dashed horizontal line.
// Pattern {8, 4} on a length-56 line gives four full cycles plus a final
// 8-unit dash: 40 units on.
func TestDashArea(t *testing.T) {
	sum := strokeSum(hLine(4, 32, 60), 4, graphics.LineCapButt, []float64{8, 4}, 0)
	want := 40.0 * 4.0
	if math.Abs(sum-want) > 1.0 {
		t.Errorf("dashed stroke area %.3f, want %.3f", sum, want)
	}
}

// TestDashPhase checks that the phase shifts the pattern: with pattern
// {8, 4} and phase 8 the line starts in a gap.
func TestDashPhase(t *testing.T) {
	r := NewRasterizer(rect.Rect{URx: 64, URy: 64})
	r.Width = 4
	r.Dash = []float64{8, 4}
	r.DashPhase = 8

	painted := make(map[int]bool)
	r.Stroke(hLine(4, 32, 60), func(y, xMin int, cov []float32) {
		for i, v := range cov {
			if v > 0.5 {
				painted[xMin+i] = true
			}
		}
	})

	// phase 8 consumes the first dash, so [4,8) is a gap and [8,16) is on
	if painted[5] {
		t.Error("pixel 5 painted, expected gap at line start")
	}
	if !painted[10] {
		t.Error("pixel 10 not painted, expected dash")
	}
}

// TestMiterVersusBevel checks that a miter join paints more area than a
// bevel join at the same corner, and that exceeding the miter limit
// falls back to the bevel area.
func TestMiterVersusBevel(t *testing.T) {
	corner := (&path.Data{}).
		MoveTo(vec.Vec2{X: 8, Y: 48}).
		LineTo(vec.Vec2{X: 32, Y: 16}).
		LineTo(vec.Vec2{X: 56, Y: 48})

	render := func(join graphics.LineJoinStyle, miterLimit float64) float64 {
		r := NewRasterizer(rect.Rect{URx: 64, URy: 64})
		r.Width = 8
		r.Join = join
		r.MiterLimit = miterLimit

		var sum float64
		r.Stroke(corner, func(y, xMin int, cov []float32) {
			for _, v := range cov {
				sum += float64(v)
			}
		})
		return sum
	}

	miter := render(graphics.LineJoinMiter, 10)
	bevel := render(graphics.LineJoinBevel, 10)
	if miter <= bevel {
		t.Errorf("miter area %.3f not larger than bevel area %.3f", miter, bevel)
	}

	limited := render(graphics.LineJoinMiter, 1.05)
	if math.Abs(limited-bevel) > 0.5 {
		t.Errorf("limited miter area %.3f, want bevel area %.3f", limited, bevel)
	}
}

// TestClosedStrokeRing checks that stroking a closed rectangle paints a
// frame: the outline area minus the hole.
func TestClosedStrokeRing(t *testing.T) {
	p := (&path.Data{}).
		MoveTo(vec.Vec2{X: 16, Y: 16}).
		LineTo(vec.Vec2{X: 48, Y: 16}).
		LineTo(vec.Vec2{X: 48, Y: 48}).
		LineTo(vec.Vec2{X: 16, Y: 48}).
		Close()

	r := NewRasterizer(rect.Rect{URx: 64, URy: 64})
	r.Width = 4

	var sum float64
	r.Stroke(p, func(y, xMin int, cov []float32) {
		for _, v := range cov {
			sum += float64(v)
		}
	})

	// outer square 36x36 minus inner hole 28x28
	want := 36.0*36.0 - 28.0*28.0
	if math.Abs(sum-want) > 1.0 {
		t.Errorf("stroke area %.3f, want %.3f", sum, want)
	}
}

// TestZeroLengthDot checks degenerate subpath handling: with round caps a
// zero-length subpath paints a dot, with butt caps nothing.
func TestZeroLengthDot(t *testing.T) {
	p := (&path.Data{}).
		MoveTo(vec.Vec2{X: 32, Y: 32}).
		LineTo(vec.Vec2{X: 32, Y: 32})

	// the flattened circle is an inscribed polygon, slightly smaller
	// than the exact disc
	round := strokeSum(p, 8, graphics.LineCapRound, nil, 0)
	wantDisc := math.Pi * 16.0
	if math.Abs(round-wantDisc) > 5.0 {
		t.Errorf("round dot area %.3f, want %.3f", round, wantDisc)
	}

	butt := strokeSum(p, 8, graphics.LineCapButt, nil, 0)
	if butt != 0 {
		t.Errorf("butt cap painted area %.3f for zero-length subpath", butt)
	}
}

// TestStrokeMask checks the alpha mask helper: bounds cover the clip and
// coverage appears only along the stroked line.
func TestStrokeMask(t *testing.T) {
	r := NewRasterizer(rect.Rect{URx: 64, URy: 64})
	r.Width = 4

	mask := r.StrokeMask(hLine(8, 32, 56))

	if got := mask.Bounds(); got.Dx() != 64 || got.Dy() != 64 {
		t.Fatalf("mask bounds %v, want 64x64", got)
	}
	if a := mask.AlphaAt(32, 32).A; a != 255 {
		t.Errorf("alpha at line center is %d, want 255", a)
	}
	if a := mask.AlphaAt(32, 8).A; a != 0 {
		t.Errorf("alpha off the line is %d, want 0", a)
	}
}
