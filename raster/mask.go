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
	"image"

	"seehuhn.de/go/geom/path"
)

// Mask rasterizes the path into an alpha mask covering the clip rectangle.
// The mask bounds equal the integer clip bounds; pixels outside the path
// are zero. This is used for clip regions and soft masks, where coverage
// must be retained rather than composited immediately.
func (r *Rasterizer) Mask(p *path.Data, evenOdd bool) *image.Alpha {
	bounds := image.Rect(int(r.Clip.LLx), int(r.Clip.LLy), int(r.Clip.URx), int(r.Clip.URy))
	mask := image.NewAlpha(bounds)
	r.Fill(p, evenOdd, func(y, xMin int, coverage []float32) {
		writeAlphaRow(mask, y, xMin, coverage)
	})
	return mask
}

// StrokeMask rasterizes the stroked path into an alpha mask covering the
// clip rectangle, using the rasterizer's stroke parameters.
func (r *Rasterizer) StrokeMask(p *path.Data) *image.Alpha {
	bounds := image.Rect(int(r.Clip.LLx), int(r.Clip.LLy), int(r.Clip.URx), int(r.Clip.URy))
	mask := image.NewAlpha(bounds)
	r.Stroke(p, func(y, xMin int, coverage []float32) {
		writeAlphaRow(mask, y, xMin, coverage)
	})
	return mask
}

func writeAlphaRow(mask *image.Alpha, y, xMin int, coverage []float32) {
	row := mask.Pix[(y-mask.Rect.Min.Y)*mask.Stride:]
	for i, c := range coverage {
		x := xMin + i - mask.Rect.Min.X
		v := uint8(c*255 + 0.5)
		if v > row[x] {
			row[x] = v
		}
	}
}
