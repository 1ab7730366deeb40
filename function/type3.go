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

	"seehuhn.de/go/pdf"
)

// Type3 is a piecewise defined function with a single input. The PDF
// specification calls this a "stitching function".
type Type3 struct {
	// Domain defines the overall input range as [min, max].
	Domain []float64

	// Range (optional) defines clipping ranges for the outputs.
	Range []float64

	// Functions is the array of k functions to be combined. All must have
	// one input and the same number of outputs.
	Functions []Func

	// Bounds are the k-1 boundaries between subdomains, in increasing
	// order within the domain.
	Bounds []float64

	// Encode maps each subdomain to the corresponding function's domain
	// as [min0, max0, min1, max1, ...].
	Encode []float64
}

// Shape returns the number of input and output values of the function.
func (f *Type3) Shape() (int, int) {
	_, n := f.Functions[0].Shape()
	return 1, n
}

// Apply applies the function to the given input value.
func (f *Type3) Apply(inputs ...float64) []float64 {
	if len(inputs) != 1 {
		panic(fmt.Sprintf("Type 3 function expects 1 input, got %d", len(inputs)))
	}
	x := clip(inputs[0], f.Domain[0], f.Domain[1])

	// Subdomains are half-open [a, b), except the last which is closed.
	k := len(f.Functions)
	idx := 0
	for idx < len(f.Bounds) && x >= f.Bounds[idx] {
		idx++
	}
	if idx >= k {
		idx = k - 1
	}

	lo := f.Domain[0]
	if idx > 0 {
		lo = f.Bounds[idx-1]
	}
	hi := f.Domain[1]
	if idx < len(f.Bounds) {
		hi = f.Bounds[idx]
	}

	encoded := interpolate(x, lo, hi, f.Encode[2*idx], f.Encode[2*idx+1])
	outputs := f.Functions[idx].Apply(encoded)

	_, n := f.Shape()
	if len(f.Range) >= 2*n {
		for i := range n {
			outputs[i] = clip(outputs[i], f.Range[2*i], f.Range[2*i+1])
		}
	}
	return outputs
}

func readType3(r pdf.Getter, d pdf.Dict, cc *pdf.CycleChecker) (*Type3, error) {
	domain, err := readFloats(r, d["Domain"])
	if err != nil {
		return nil, err
	}
	if len(domain) < 2 {
		domain = []float64{0, 1}
	}

	bounds, err := readFloats(r, d["Bounds"])
	if err != nil {
		return nil, err
	}
	encode, err := readFloats(r, d["Encode"])
	if err != nil {
		return nil, err
	}

	fnArray, err := pdf.GetArray(r, d["Functions"])
	if err != nil {
		return nil, err
	}
	if len(fnArray) == 0 {
		return nil, &pdf.MalformedFileError{
			Err: fmt.Errorf("Type 3 function has no child functions"),
		}
	}
	functions := make([]Func, len(fnArray))
	for i, obj := range fnArray {
		fn, err := read(r, obj, cc)
		if err != nil {
			return nil, fmt.Errorf("child function %d: %w", i, err)
		}
		functions[i] = fn
	}

	k := len(functions)
	if len(bounds) != k-1 || len(encode) != 2*k {
		return nil, &pdf.MalformedFileError{
			Err: fmt.Errorf("inconsistent Type 3 function arrays"),
		}
	}
	for i := 1; i < len(bounds); i++ {
		if bounds[i] <= bounds[i-1] {
			return nil, &pdf.MalformedFileError{
				Err: fmt.Errorf("Bounds not increasing"),
			}
		}
	}

	f := &Type3{
		Domain:    domain[:2],
		Functions: functions,
		Bounds:    bounds,
		Encode:    encode,
	}
	if obj, ok := d["Range"]; ok {
		f.Range, err = readFloats(r, obj)
		if err != nil {
			return nil, err
		}
	}
	return f, nil
}
