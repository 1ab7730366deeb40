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
	"fmt"
	"image"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/pdf"

	"seehuhn.de/go/pdfrender/colorspace"
)

// paintPattern paints a rasterized path region with the named pattern.
// Shading patterns render their gradient through the region mask; tiling
// patterns are approximated by a uniform color.
func (ip *interp) paintPattern(name pdf.Name, region *image.Alpha, space colorspace.Space, comps []float64, alpha float64) {
	obj, err := ip.resource("Pattern", name)
	if err != nil {
		ip.diag(err)
		return
	}
	resolved, err := pdf.Resolve(ip.r, obj)
	if err != nil {
		ip.diag(err)
		return
	}

	var dict pdf.Dict
	switch x := resolved.(type) {
	case pdf.Dict:
		dict = x
	case *pdf.Stream:
		dict = x.Dict
	default:
		ip.diag(&StructuralOperandError{Op: "scn", Reason: "pattern is not a dictionary"})
		return
	}

	patType, err := pdf.GetInteger(ip.r, dict["PatternType"])
	if err != nil {
		ip.diag(err)
		return
	}

	switch patType {
	case 1:
		// tiling patterns paint a uniform approximation of their cell
		ip.diag(&UnsupportedError{Feature: "tiling pattern"})
		if !marksVisible(space) {
			return
		}
		r, g, b := space.RGB(comps)
		ip.paintRegion(region, r, g, b, alpha)

	case 2:
		// the pattern matrix maps pattern space to the default
		// coordinate space of the surrounding stream
		m := matrix.Identity
		if pm, err := getMatrix(ip.r, dict["Matrix"]); err == nil && pm != nil {
			m = *pm
		}
		ip.paintShadingObject(dict["Shading"], m.Mul(ip.baseCTM), region, alpha)

	default:
		ip.diag(&StructuralOperandError{Op: "scn", Reason: fmt.Sprintf("bad pattern type %d", patType)})
	}
}

// paintRegion paints a constant color through an alpha mask.
func (ip *interp) paintRegion(region *image.Alpha, r, g, b, alpha float64) {
	bounds := region.Rect
	w := bounds.Dx()
	cov := make([]float32, w)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := region.Pix[(y-bounds.Min.Y)*region.Stride:][:w]
		any := false
		for i, v := range row {
			cov[i] = float32(v) / 255
			if v != 0 {
				any = true
			}
		}
		if !any {
			continue
		}
		ip.paintRow(y, bounds.Min.X, cov, r, g, b, alpha)
	}
}
