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

package function

import (
	"fmt"
	"math"

	"seehuhn.de/go/pdf"
)

// Type2 is a power interpolation function of the form
// y = C0 + x^N × (C1 - C0). The PDF specification calls this
// "exponential interpolation".
type Type2 struct {
	// XMin, XMax define the input range. Inputs are clipped to it.
	XMin, XMax float64

	// Range (optional) defines clipping ranges for the outputs.
	Range []float64

	// C0 is the function result for x = 0. Default: [0.0].
	C0 []float64

	// C1 is the function result for x = 1. Default: [1.0].
	C1 []float64

	// N is the interpolation exponent.
	N float64
}

// Shape returns the number of input and output values of the function.
func (f *Type2) Shape() (int, int) {
	n := len(f.C0)
	if n == 0 {
		n = 1
	}
	return 1, n
}

// Apply applies the function to the given input value.
func (f *Type2) Apply(inputs ...float64) []float64 {
	if len(inputs) != 1 {
		panic(fmt.Sprintf("Type 2 function expects 1 input, got %d", len(inputs)))
	}
	x := clip(inputs[0], f.XMin, f.XMax)

	c0 := f.C0
	if c0 == nil {
		c0 = []float64{0}
	}
	c1 := f.C1
	if c1 == nil {
		c1 = []float64{1}
	}

	var xN float64
	switch f.N {
	case 0:
		xN = 1
	case 1:
		xN = x
	default:
		xN = math.Pow(x, f.N)
	}

	_, n := f.Shape()
	outputs := make([]float64, n)
	for i := range n {
		outputs[i] = c0[i] + xN*(c1[i]-c0[i])
	}

	if len(f.Range) >= 2*n {
		for i := range n {
			outputs[i] = clip(outputs[i], f.Range[2*i], f.Range[2*i+1])
		}
	}
	return outputs
}

func readType2(r pdf.Getter, d pdf.Dict) (*Type2, error) {
	domain, err := readFloats(r, d["Domain"])
	if err != nil {
		return nil, err
	}
	if len(domain) < 2 || domain[0] > domain[1] {
		domain = []float64{0, 1}
	}

	gamma, err := pdf.GetNumber(r, d["N"])
	if err != nil {
		return nil, err
	}

	f := &Type2{
		XMin: domain[0],
		XMax: domain[1],
		N:    float64(gamma),
	}

	if obj, ok := d["Range"]; ok {
		f.Range, err = readFloats(r, obj)
		if err != nil {
			return nil, err
		}
	}
	if obj, ok := d["C0"]; ok {
		f.C0, err = readFloats(r, obj)
		if err != nil {
			return nil, err
		}
	}
	if obj, ok := d["C1"]; ok {
		f.C1, err = readFloats(r, obj)
		if err != nil {
			return nil, err
		}
	}

	if f.C0 != nil && f.C1 != nil && len(f.C0) != len(f.C1) {
		return nil, &pdf.MalformedFileError{
			Err: fmt.Errorf("inconsistent length of /C0 and /C1 arrays"),
		}
	}
	if f.C0 == nil && f.C1 != nil && len(f.C1) != 1 {
		return nil, &pdf.MalformedFileError{
			Err: fmt.Errorf("inconsistent length of /C1 array"),
		}
	}
	if f.C1 == nil && f.C0 != nil && len(f.C0) != 1 {
		return nil, &pdf.MalformedFileError{
			Err: fmt.Errorf("inconsistent length of /C0 array"),
		}
	}

	return f, nil
}
