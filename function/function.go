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

// Package function evaluates PDF functions, the parameterized numerical
// transformations used for tint transforms, soft-mask transfer functions
// and smooth shadings.
//
// All four PDF function types are supported:
//
//   - [Type0]: sampled functions with multilinear interpolation
//   - [Type2]: power interpolation functions y = C0 + x^N × (C1 - C0)
//   - [Type3]: stitching functions combining 1-input functions
//   - [Type4]: PostScript calculator functions
package function

import (
	"fmt"

	"seehuhn.de/go/pdf"
)

// Func is a PDF function.
type Func interface {
	// Shape returns the number of input and output values of the function.
	Shape() (int, int)

	// Apply applies the function to the given input values and returns
	// the output values. Inputs are clipped to the function's domain,
	// outputs to its range.
	Apply(inputs ...float64) []float64
}

// Read extracts a function from a PDF file.
func Read(r pdf.Getter, obj pdf.Object) (Func, error) {
	return read(r, obj, pdf.NewCycleChecker())
}

func read(r pdf.Getter, obj pdf.Object, cc *pdf.CycleChecker) (Func, error) {
	if err := cc.Check(obj); err != nil {
		return nil, err
	}

	obj, err := pdf.Resolve(r, obj)
	if err != nil {
		return nil, err
	}

	var d pdf.Dict
	var stream *pdf.Stream
	switch x := obj.(type) {
	case pdf.Dict:
		d = x
	case *pdf.Stream:
		stream = x
		d = x.Dict
	default:
		return nil, &pdf.MalformedFileError{
			Err: fmt.Errorf("expected function dict or stream, got %T", obj),
		}
	}

	ft, err := pdf.GetInteger(r, d["FunctionType"])
	if err != nil {
		return nil, err
	}

	switch ft {
	case 0:
		if stream == nil {
			return nil, &pdf.MalformedFileError{
				Err: fmt.Errorf("Type 0 function must be a stream"),
			}
		}
		return readType0(r, stream)
	case 2:
		return readType2(r, d)
	case 3:
		return readType3(r, d, cc)
	case 4:
		if stream == nil {
			return nil, &pdf.MalformedFileError{
				Err: fmt.Errorf("Type 4 function must be a stream"),
			}
		}
		return readType4(r, stream)
	default:
		return nil, &pdf.MalformedFileError{
			Err: fmt.Errorf("unsupported function type %d", ft),
		}
	}
}

// clip clips a value to the given range [min, max].
func clip(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// interpolate performs linear interpolation.
func interpolate(x, xMin, xMax, yMin, yMax float64) float64 {
	if xMax <= xMin {
		return yMin
	}
	return yMin + (x-xMin)*(yMax-yMin)/(xMax-xMin)
}

// readFloats converts a PDF array to a slice of float64.
func readFloats(r pdf.Getter, obj pdf.Object) ([]float64, error) {
	arr, err := pdf.GetArray(r, obj)
	if err != nil {
		return nil, err
	}
	if arr == nil {
		return nil, nil
	}
	res := make([]float64, len(arr))
	for i, elem := range arr {
		x, err := pdf.GetNumber(r, elem)
		if err != nil {
			return nil, err
		}
		res[i] = float64(x)
	}
	return res, nil
}

// readInts converts a PDF array to a slice of int.
func readInts(r pdf.Getter, obj pdf.Object) ([]int, error) {
	arr, err := pdf.GetArray(r, obj)
	if err != nil {
		return nil, err
	}
	res := make([]int, len(arr))
	for i, elem := range arr {
		x, err := pdf.GetInteger(r, elem)
		if err != nil {
			return nil, err
		}
		res[i] = int(x)
	}
	return res, nil
}
