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
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/pdf"

	"seehuhn.de/go/pdfrender/colorspace"
	"seehuhn.de/go/pdfrender/function"
)

// shadingPaint collects the parameters of one shading paint operation.
// The region mask restricts painting to a path for shading patterns; it
// is nil for the sh operator, which paints the whole clip region.
type shadingPaint struct {
	space      colorspace.Space
	eval       func(t float64) []float64
	domain     []float64
	ext0, ext1 bool
	inv        matrix.Matrix // device pixels to shading space
	region     *image.Alpha
	alpha      float64
}

// paintShading implements the sh operator. Axial (type 2) and radial
// (type 3) shadings are painted; other shading types are skipped with a
// diagnostic.
func (ip *interp) paintShading(name pdf.Name) error {
	obj, err := ip.resource("Shading", name)
	if err != nil {
		ip.diag(err)
		return nil
	}
	ip.paintShadingObject(obj, ip.state.CTM, nil, ip.state.FillAlpha)
	return nil
}

// paintShadingObject paints a shading dictionary or stream under the
// given transformation, optionally restricted to a region mask. This is
// the common core of the sh operator and of shading pattern fills.
func (ip *interp) paintShadingObject(obj pdf.Object, ctm matrix.Matrix, region *image.Alpha, alpha float64) {
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
		ip.diag(&StructuralOperandError{Op: "sh", Reason: "shading is not a dictionary"})
		return
	}

	shType, err := pdf.GetInteger(ip.r, dict["ShadingType"])
	if err != nil {
		ip.diag(err)
		return
	}

	switch shType {
	case 2, 3:
		// handled below
	default:
		ip.diag(&UnsupportedError{Feature: fmt.Sprintf("shading type %d", shType)})
		return
	}

	space, err := colorspace.Read(ip.r, dict["ColorSpace"])
	if err != nil {
		ip.diag(err)
		return
	}

	eval, err := ip.shadingFunction(dict["Function"], space.Channels())
	if err != nil {
		ip.diag(err)
		return
	}

	sp := shadingPaint{
		space:  space,
		eval:   eval,
		domain: []float64{0, 1},
		region: region,
		alpha:  alpha,
	}
	if d, err := ip.floatArray(dict["Domain"], 2); err == nil && d != nil {
		sp.domain = d
	}
	if arr, err := pdf.GetArray(ip.r, dict["Extend"]); err == nil && len(arr) == 2 {
		if b, ok := arr[0].(pdf.Bool); ok {
			sp.ext0 = bool(b)
		}
		if b, ok := arr[1].(pdf.Bool); ok {
			sp.ext1 = bool(b)
		}
	}

	inv, ok := invertMatrix(ctm)
	if !ok {
		return
	}
	sp.inv = inv

	if shType == 2 {
		ip.paintAxial(dict, sp)
	} else {
		ip.paintRadial(dict, sp)
	}
}

// shadingFunction reads the Function entry of a shading dictionary and
// returns an evaluator mapping a parameter value to n color components.
// The entry is either a single n-output function or an array of n
// single-output functions.
func (ip *interp) shadingFunction(obj pdf.Object, n int) (func(t float64) []float64, error) {
	resolved, err := pdf.Resolve(ip.r, obj)
	if err != nil {
		return nil, err
	}
	if resolved == nil {
		return nil, &StructuralOperandError{Op: "sh", Reason: "shading without function"}
	}

	if arr, ok := resolved.(pdf.Array); ok {
		if len(arr) != n {
			return nil, &StructuralOperandError{Op: "sh", Reason: "wrong number of shading functions"}
		}
		fns := make([]function.Func, n)
		for i, elem := range arr {
			fn, err := function.Read(ip.r, elem)
			if err != nil {
				return nil, err
			}
			if m, out := fn.Shape(); m != 1 || out != 1 {
				return nil, &StructuralOperandError{Op: "sh", Reason: "shading function must map one value to one component"}
			}
			fns[i] = fn
		}
		return func(t float64) []float64 {
			comps := make([]float64, n)
			for i, fn := range fns {
				out := fn.Apply(t)
				if len(out) > 0 {
					comps[i] = out[0]
				}
			}
			return comps
		}, nil
	}

	fn, err := function.Read(ip.r, resolved)
	if err != nil {
		return nil, err
	}
	if m, _ := fn.Shape(); m != 1 {
		return nil, &StructuralOperandError{Op: "sh", Reason: "shading function must take a single input"}
	}
	return func(t float64) []float64 {
		out := fn.Apply(t)
		if len(out) >= n {
			return out[:n]
		}
		comps := make([]float64, n)
		copy(comps, out)
		return comps
	}, nil
}

// paintAxial paints an axial shading: color varies linearly between two
// points, constant on lines perpendicular to the axis.
func (ip *interp) paintAxial(dict pdf.Dict, sp shadingPaint) {
	coords, err := ip.floatArray(dict["Coords"], 4)
	if err != nil || coords == nil {
		ip.diag(&StructuralOperandError{Op: "sh", Reason: "bad Coords for axial shading"})
		return
	}
	x0, y0, x1, y1 := coords[0], coords[1], coords[2], coords[3]
	dx, dy := x1-x0, y1-y0
	len2 := dx*dx + dy*dy
	if len2 == 0 {
		return
	}

	ip.paintShadingPixels(sp, func(ux, uy float64) (float64, bool) {
		s := ((ux-x0)*dx + (uy-y0)*dy) / len2
		return clampShadingParam(s, sp.ext0, sp.ext1)
	})
}

// paintRadial paints a radial shading: a blend between two circles.
func (ip *interp) paintRadial(dict pdf.Dict, sp shadingPaint) {
	coords, err := ip.floatArray(dict["Coords"], 6)
	if err != nil || coords == nil {
		ip.diag(&StructuralOperandError{Op: "sh", Reason: "bad Coords for radial shading"})
		return
	}
	x0, y0, r0 := coords[0], coords[1], coords[2]
	x1, y1, r1 := coords[3], coords[4], coords[5]
	cdx, cdy := x1-x0, y1-y0
	rd := r1 - r0

	a := cdx*cdx + cdy*cdy - rd*rd

	ip.paintShadingPixels(sp, func(ux, uy float64) (float64, bool) {
		pdx, pdy := ux-x0, uy-y0
		b := pdx*cdx + pdy*cdy + r0*rd
		c := pdx*pdx + pdy*pdy - r0*r0

		// solve |p - c(s)|^2 = r(s)^2, preferring the larger root
		var s float64
		if math.Abs(a) < 1e-9 {
			if b == 0 {
				return 0, false
			}
			s = c / (2 * b)
			if r0+s*rd < 0 {
				return 0, false
			}
		} else {
			disc := b*b - a*c
			if disc < 0 {
				return 0, false
			}
			sq := math.Sqrt(disc)
			s = (b + sq) / a
			if r0+s*rd < 0 {
				s = (b - sq) / a
				if r0+s*rd < 0 {
					return 0, false
				}
			}
		}
		return clampShadingParam(s, sp.ext0, sp.ext1)
	})
}

// clampShadingParam applies the Extend flags to a raw blend parameter.
func clampShadingParam(s float64, ext0, ext1 bool) (float64, bool) {
	if s < 0 {
		if !ext0 {
			return 0, false
		}
		return 0, true
	}
	if s > 1 {
		if !ext1 {
			return 0, false
		}
		return 1, true
	}
	return s, true
}

// paintShadingPixels walks every device pixel, maps it back to shading
// space, and paints the shading color where the parameter function
// yields a value.
func (ip *interp) paintShadingPixels(sp shadingPaint, param func(ux, uy float64) (float64, bool)) {
	bounds := ip.canvas.Bounds()
	cov := []float32{1}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if sp.region != nil {
				c := alphaAt(sp.region, x, y)
				if c <= 0 {
					continue
				}
				cov[0] = float32(c)
			}
			ux, uy := sp.inv.Apply(float64(x)+0.5, float64(y)+0.5)
			s, ok := param(ux, uy)
			if !ok {
				continue
			}
			t := sp.domain[0] + s*(sp.domain[1]-sp.domain[0])
			r, g, b := sp.space.RGB(sp.eval(t))
			ip.paintRow(y, x, cov, r, g, b, sp.alpha)
		}
	}
}

// floatArray reads an array of n numbers. A missing entry returns nil
// without error.
func (ip *interp) floatArray(obj pdf.Object, n int) ([]float64, error) {
	arr, err := pdf.GetArray(ip.r, obj)
	if err != nil {
		return nil, err
	}
	if arr == nil {
		return nil, nil
	}
	if len(arr) != n {
		return nil, &pdf.MalformedFileError{
			Err: fmt.Errorf("expected %d numbers, got %d", n, len(arr)),
		}
	}
	res := make([]float64, n)
	for i, elem := range arr {
		x, err := pdf.GetNumber(ip.r, elem)
		if err != nil {
			return nil, err
		}
		res[i] = float64(x)
	}
	return res, nil
}

// invertMatrix returns the inverse of an affine transformation, or
// false for a degenerate matrix.
func invertMatrix(m matrix.Matrix) (matrix.Matrix, bool) {
	det := m[0]*m[3] - m[1]*m[2]
	if det == 0 {
		return matrix.Matrix{}, false
	}
	id := 1 / det
	return matrix.Matrix{
		m[3] * id, -m[1] * id,
		-m[2] * id, m[0] * id,
		(m[2]*m[5] - m[3]*m[4]) * id,
		(m[1]*m[4] - m[0]*m[5]) * id,
	}, true
}
