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

package pdfrender

import (
	"image"
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/path"

	"seehuhn.de/go/pdfrender/colorspace"
	"seehuhn.de/go/pdfrender/raster"
)

// paintPath executes a path painting operator: fill, stroke, both, or
// neither (n). Afterwards a pending clip is committed and the path is
// cleared.
func (ip *interp) paintPath(fill, stroke, evenOdd bool) {
	if fill && len(ip.path.Cmds) > 0 {
		if pat := ip.state.FillPattern; pat != "" && ip.state.FillSpace.Family() == colorspace.FamilyPattern {
			region := ip.fillRasterizer().Mask(&ip.path, evenOdd)
			ip.paintPattern(pat, region, ip.state.FillSpace, ip.state.FillColor, ip.state.FillAlpha)
		} else if marksVisible(ip.state.FillSpace) {
			r, g, b := ip.state.FillSpace.RGB(ip.state.FillColor)
			rast := ip.fillRasterizer()
			rast.Fill(&ip.path, evenOdd, func(y, xMin int, cov []float32) {
				ip.paintRow(y, xMin, cov, r, g, b, ip.state.FillAlpha)
			})
		}
	}

	if stroke && len(ip.path.Cmds) > 0 {
		if pat := ip.state.StrokePattern; pat != "" && ip.state.StrokeSpace.Family() == colorspace.FamilyPattern {
			region := ip.strokeRasterizer().StrokeMask(&ip.path)
			ip.paintPattern(pat, region, ip.state.StrokeSpace, ip.state.StrokeColor, ip.state.StrokeAlpha)
		} else if marksVisible(ip.state.StrokeSpace) {
			r, g, b := ip.state.StrokeSpace.RGB(ip.state.StrokeColor)
			rast := ip.strokeRasterizer()
			rast.Stroke(&ip.path, func(y, xMin int, cov []float32) {
				ip.paintRow(y, xMin, cov, r, g, b, ip.state.StrokeAlpha)
			})
		}
	}

	ip.commitClip()

	ip.path.Cmds = ip.path.Cmds[:0]
	ip.path.Coords = ip.path.Coords[:0]
}

// marksVisible reports whether painting in the given color space makes
// marks on the page. A /None separation makes none.
func marksVisible(s colorspace.Space) bool {
	if sep, ok := s.(*colorspace.SpaceSeparation); ok && sep.IsNone() {
		return false
	}
	return true
}

func (ip *interp) fillRasterizer() *raster.Rasterizer {
	r := ip.rast
	r.CTM = ip.state.CTM
	r.Clip = ip.page
	return r
}

func (ip *interp) strokeRasterizer() *raster.Rasterizer {
	r := ip.fillRasterizer()
	r.Width = ip.state.LineWidth
	if r.Width <= 0 {
		// zero-width lines are one device pixel wide
		det := math.Abs(ip.state.CTM[0]*ip.state.CTM[3] - ip.state.CTM[1]*ip.state.CTM[2])
		if det > 0 {
			r.Width = 1 / math.Sqrt(det)
		} else {
			r.Width = 1
		}
	}
	r.Cap = ip.state.LineCap
	r.Join = ip.state.LineJoin
	r.MiterLimit = ip.state.MiterLimit
	r.Dash = ip.state.Dash
	r.DashPhase = ip.state.DashPhase
	return r
}

// commitClip intersects the pending clip path, if any, into the
// committed clip region.
func (ip *interp) commitClip() {
	if ip.pendingClip == clipNone {
		return
	}
	mask := ip.fillRasterizer().Mask(&ip.path, ip.pendingClip == clipEvenOdd)
	ip.state.Clip = intersectMasks(ip.state.Clip, mask)
	ip.pendingClip = clipNone
}

// commitTextClip intersects the glyph coverage accumulated by clipping
// text rendering modes into the clip region. Called at ET.
func (ip *interp) commitTextClip() {
	if ip.textClip == nil {
		return
	}
	ip.state.Clip = intersectMasks(ip.state.Clip, ip.textClip)
	ip.textClip = nil
}

// intersectMasks multiplies two alpha masks. Either mask may be nil,
// meaning fully opaque.
func intersectMasks(a, b *image.Alpha) *image.Alpha {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	res := image.NewAlpha(a.Rect)
	for i := range res.Pix {
		res.Pix[i] = uint8(uint32(a.Pix[i]) * uint32(b.Pix[i]) / 255)
	}
	return res
}

// alphaAt returns the mask value at a device pixel as a fraction.
// Pixels outside the mask are transparent.
func alphaAt(m *image.Alpha, x, y int) float64 {
	if x < m.Rect.Min.X || x >= m.Rect.Max.X || y < m.Rect.Min.Y || y >= m.Rect.Max.Y {
		return 0
	}
	return float64(m.Pix[(y-m.Rect.Min.Y)*m.Stride+(x-m.Rect.Min.X)]) / 255
}

// paintRow composites one row of coverage onto the canvas with the
// given color, respecting clip, soft mask, alpha and blend mode. The
// canvas holds premultiplied alpha, so the same code paints the opaque
// page and transparent group buffers.
func (ip *interp) paintRow(y, xMin int, cov []float32, cr, cg, cb, alpha float64) {
	clip := ip.state.Clip
	sm := ip.state.SoftMask
	canvas := ip.canvas

	for i, c := range cov {
		x := xMin + i
		a := float64(c) * alpha
		if clip != nil {
			a *= alphaAt(clip, x, y)
		}
		if sm != nil {
			a *= alphaAt(sm, x, y)
		}
		if a <= 0 {
			continue
		}
		if a > 1 {
			a = 1
		}

		off := (y-canvas.Rect.Min.Y)*canvas.Stride + (x-canvas.Rect.Min.X)*4
		pix := canvas.Pix[off : off+4 : off+4]

		dr := float64(pix[0]) / 255 // premultiplied backdrop
		dg := float64(pix[1]) / 255
		db := float64(pix[2]) / 255
		da := float64(pix[3]) / 255

		br, bg, bb := cr, cg, cb
		if ip.state.Blend != BlendNormal && da > 0 {
			// blend against the un-premultiplied backdrop, weighted by
			// the backdrop alpha
			ur, ug, ub := dr/da, dg/da, db/da
			switch ip.state.Blend {
			case BlendMultiply:
				br, bg, bb = cr*ur, cg*ug, cb*ub
			case BlendScreen:
				br = cr + ur - cr*ur
				bg = cg + ug - cg*ug
				bb = cb + ub - cb*ub
			}
			br = (1-da)*cr + da*br
			bg = (1-da)*cg + da*bg
			bb = (1-da)*cb + da*bb
		}

		pix[0] = uint8((br*a+dr*(1-a))*255 + 0.5)
		pix[1] = uint8((bg*a+dg*(1-a))*255 + 0.5)
		pix[2] = uint8((bb*a+db*(1-a))*255 + 0.5)
		pix[3] = uint8((a+da*(1-a))*255 + 0.5)
	}
}

// accumulateRow adds coverage into an alpha mask, keeping the maximum
// per pixel. Used for text clip accumulation.
func accumulateRow(mask *image.Alpha, y, xMin int, cov []float32) {
	if y < mask.Rect.Min.Y || y >= mask.Rect.Max.Y {
		return
	}
	row := mask.Pix[(y-mask.Rect.Min.Y)*mask.Stride:]
	for i, c := range cov {
		x := xMin + i - mask.Rect.Min.X
		if x < 0 || x >= mask.Rect.Dx() {
			continue
		}
		v := uint8(c*255 + 0.5)
		if v > row[x] {
			row[x] = v
		}
	}
}

// fillWith fills an arbitrary path under an explicit transformation,
// used for glyph outlines where the transform is the combined glyph,
// text and device matrix rather than the CTM alone.
func (ip *interp) fillWith(p *path.Data, m matrix.Matrix, cr, cg, cb, alpha float64) {
	rast := ip.rast
	rast.CTM = m
	rast.Clip = ip.page
	rast.Fill(p, false, func(y, xMin int, cov []float32) {
		ip.paintRow(y, xMin, cov, cr, cg, cb, alpha)
	})
}
