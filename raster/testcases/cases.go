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

package testcases

import (
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/pdf/graphics"
)

// All contains every test case, in a stable order.
var All = []TestCase{
	{
		Name:   "rect_fill",
		Path:   rectangle(10, 10, 54, 54),
		Width:  64,
		Height: 64,
		Op:     Fill{Rule: NonZero},
	},
	{
		Name:   "rect_subpixel",
		Path:   rectangle(10.3, 10.7, 53.3, 53.7),
		Width:  64,
		Height: 64,
		Op:     Fill{Rule: NonZero},
	},
	{
		Name:   "triangle_fill",
		Path:   triangle(8, 56, 32, 8, 56, 56),
		Width:  64,
		Height: 64,
		Op:     Fill{Rule: NonZero},
	},
	{
		Name:   "star_nonzero",
		Path:   star(32, 32, 26),
		Width:  64,
		Height: 64,
		Op:     Fill{Rule: NonZero},
	},
	{
		Name:   "star_evenodd",
		Path:   star(32, 32, 26),
		Width:  64,
		Height: 64,
		Op:     Fill{Rule: EvenOdd},
	},
	{
		Name:   "ring_evenodd",
		Path:   ring(32, 32, 26, 14),
		Width:  64,
		Height: 64,
		Op:     Fill{Rule: EvenOdd},
	},
	{
		Name:   "circle_cubic",
		Path:   circle(32, 32, 24),
		Width:  64,
		Height: 64,
		Op:     Fill{Rule: NonZero},
	},
	{
		Name:   "wave_quad",
		Path:   wave(4, 32, 60, 20),
		Width:  64,
		Height: 64,
		Op:     Fill{Rule: NonZero},
	},
	{
		Name:   "open_subpath_fill",
		Path:   openTriangle(8, 56, 32, 8, 56, 56),
		Width:  64,
		Height: 64,
		Op:     Fill{Rule: NonZero},
	},
	{
		Name:   "two_subpaths",
		Path:   twoRects(6, 6, 28, 28, 36, 36, 58, 58),
		Width:  64,
		Height: 64,
		Op:     Fill{Rule: NonZero},
	},
	{
		Name:   "rect_rotated",
		Path:   rectangle(-12, -12, 12, 12),
		Width:  64,
		Height: 64,
		Op:     Fill{Rule: NonZero},
		CTM:    matrix.RotateDeg(30).Translate(32, 32),
	},
	{
		Name:   "rect_scaled",
		Path:   rectangle(-10, -10, 10, 10),
		Width:  64,
		Height: 64,
		Op:     Fill{Rule: NonZero},
		CTM:    matrix.Scale(2, 1.5).Translate(32, 32),
	},
	{
		Name:   "line_butt_miter",
		Path:   zigzag(8, 48, 32, 16, 56, 48),
		Width:  64,
		Height: 64,
		Op: Stroke{
			Width:      6,
			Cap:        graphics.LineCapButt,
			Join:       graphics.LineJoinMiter,
			MiterLimit: 10,
		},
	},
	{
		Name:   "line_round_round",
		Path:   zigzag(8, 48, 32, 16, 56, 48),
		Width:  64,
		Height: 64,
		Op: Stroke{
			Width:      6,
			Cap:        graphics.LineCapRound,
			Join:       graphics.LineJoinRound,
			MiterLimit: 10,
		},
	},
	{
		Name:   "line_square_bevel",
		Path:   zigzag(8, 48, 32, 16, 56, 48),
		Width:  64,
		Height: 64,
		Op: Stroke{
			Width:      6,
			Cap:        graphics.LineCapSquare,
			Join:       graphics.LineJoinBevel,
			MiterLimit: 10,
		},
	},
	{
		Name:   "closed_stroke",
		Path:   triangle(12, 52, 32, 12, 52, 52),
		Width:  64,
		Height: 64,
		Op: Stroke{
			Width:      4,
			Cap:        graphics.LineCapButt,
			Join:       graphics.LineJoinMiter,
			MiterLimit: 10,
		},
	},
	{
		Name:   "dashed_line",
		Path:   (&path.Data{}).MoveTo(pt(4, 32)).LineTo(pt(60, 32)),
		Width:  64,
		Height: 64,
		Op: Stroke{
			Width:      4,
			Cap:        graphics.LineCapButt,
			Join:       graphics.LineJoinMiter,
			MiterLimit: 10,
			Dash:       []float64{8, 4},
		},
	},
	{
		Name:   "dashed_circle",
		Path:   circle(32, 32, 22),
		Width:  64,
		Height: 64,
		Op: Stroke{
			Width:      3,
			Cap:        graphics.LineCapRound,
			Join:       graphics.LineJoinRound,
			MiterLimit: 10,
			Dash:       []float64{6, 6},
			DashPhase:  3,
		},
	},
	{
		Name:   "large_rect",
		Path:   rectangle(20, 20, 480, 480),
		Width:  500,
		Height: 500,
		Op:     Fill{Rule: NonZero},
	},
	{
		Name:   "large_star",
		Path:   star(250, 250, 230),
		Width:  500,
		Height: 500,
		Op:     Fill{Rule: NonZero},
	},
}

func rectangle(x1, y1, x2, y2 float64) *path.Data {
	return (&path.Data{}).
		MoveTo(pt(x1, y1)).
		LineTo(pt(x2, y1)).
		LineTo(pt(x2, y2)).
		LineTo(pt(x1, y2)).
		Close()
}

func triangle(x1, y1, x2, y2, x3, y3 float64) *path.Data {
	return (&path.Data{}).
		MoveTo(pt(x1, y1)).
		LineTo(pt(x2, y2)).
		LineTo(pt(x3, y3)).
		Close()
}

// openTriangle is like triangle but leaves the final segment implicit.
func openTriangle(x1, y1, x2, y2, x3, y3 float64) *path.Data {
	return (&path.Data{}).
		MoveTo(pt(x1, y1)).
		LineTo(pt(x2, y2)).
		LineTo(pt(x3, y3))
}

// star builds a self-intersecting five-pointed star, so that the nonzero
// and even-odd rules give different results in the center.
func star(cx, cy, r float64) *path.Data {
	p := &path.Data{}
	for i := range 5 {
		angle := float64(i*4)*math.Pi/5 - math.Pi/2
		v := pt(cx+r*math.Cos(angle), cy+r*math.Sin(angle))
		if i == 0 {
			p.MoveTo(v)
		} else {
			p.LineTo(v)
		}
	}
	return p.Close()
}

// ring builds two concentric circles with the same orientation. Under the
// even-odd rule this fills an annulus.
func ring(cx, cy, rOuter, rInner float64) *path.Data {
	p := circle(cx, cy, rOuter)
	inner := circle(cx, cy, rInner)
	p.Cmds = append(p.Cmds, inner.Cmds...)
	p.Coords = append(p.Coords, inner.Coords...)
	return p
}

// circle approximates a circle with four cubic Bézier segments.
func circle(cx, cy, r float64) *path.Data {
	const k = 0.5522847498 // 4/3 * (sqrt(2) - 1)
	h := k * r
	return (&path.Data{}).
		MoveTo(pt(cx+r, cy)).
		CubeTo(pt(cx+r, cy+h), pt(cx+h, cy+r), pt(cx, cy+r)).
		CubeTo(pt(cx-h, cy+r), pt(cx-r, cy+h), pt(cx-r, cy)).
		CubeTo(pt(cx-r, cy-h), pt(cx-h, cy-r), pt(cx, cy-r)).
		CubeTo(pt(cx+h, cy-r), pt(cx+r, cy-h), pt(cx+r, cy)).
		Close()
}

// wave builds a closed region bounded above by a quadratic arc.
func wave(x1, y, x2, amp float64) *path.Data {
	mid := (x1 + x2) / 2
	return (&path.Data{}).
		MoveTo(pt(x1, y)).
		QuadTo(pt(mid, y-2*amp), pt(x2, y)).
		LineTo(pt(x2, y+10)).
		LineTo(pt(x1, y+10)).
		Close()
}

func zigzag(x1, y1, x2, y2, x3, y3 float64) *path.Data {
	return (&path.Data{}).
		MoveTo(pt(x1, y1)).
		LineTo(pt(x2, y2)).
		LineTo(pt(x3, y3))
}

func twoRects(ax1, ay1, ax2, ay2, bx1, by1, bx2, by2 float64) *path.Data {
	p := rectangle(ax1, ay1, ax2, ay2)
	q := rectangle(bx1, by1, bx2, by2)
	p.Cmds = append(p.Cmds, q.Cmds...)
	p.Coords = append(p.Coords, q.Coords...)
	return p
}
