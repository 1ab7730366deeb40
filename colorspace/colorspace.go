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

// Package colorspace reads PDF color spaces and converts color values
// to device RGB for rasterization.
//
// All color space families of the PDF specification are supported.  The
// CIE-based families (CalGray, CalRGB, Lab, ICCBased) are approximated
// by conversion through CIE XYZ to sRGB.
package colorspace

import (
	"fmt"

	"seehuhn.de/go/pdf"
)

// Space is a PDF color space.
type Space interface {
	// Family returns the color space family name.
	Family() pdf.Name

	// Channels returns the number of color components.
	// This is 0 for colored tiling patterns.
	Channels() int

	// Default returns the initial color of the color space, as set at the
	// start of each content stream.
	Default() []float64

	// RGB converts a color to device RGB. Components outside the valid
	// range are clamped, never rejected. The result components are in the
	// range [0, 1].
	RGB(comps []float64) (r, g, b float64)
}

// Color space families supported by PDF.
const (
	FamilyDeviceGray pdf.Name = "DeviceGray"
	FamilyDeviceRGB  pdf.Name = "DeviceRGB"
	FamilyDeviceCMYK pdf.Name = "DeviceCMYK"
	FamilyCalGray    pdf.Name = "CalGray"
	FamilyCalRGB     pdf.Name = "CalRGB"
	FamilyLab        pdf.Name = "Lab"
	FamilyICCBased   pdf.Name = "ICCBased"
	FamilyPattern    pdf.Name = "Pattern"
	FamilyIndexed    pdf.Name = "Indexed"
	FamilySeparation pdf.Name = "Separation"
	FamilyDeviceN    pdf.Name = "DeviceN"
)

// Read extracts a color space from a PDF file.
//
// The argument desc is typically a value from the ColorSpace
// sub-dictionary of a resource dictionary.
func Read(r pdf.Getter, desc pdf.Object) (Space, error) {
	return read(r, desc, pdf.NewCycleChecker())
}

func read(r pdf.Getter, desc pdf.Object, cc *pdf.CycleChecker) (Space, error) {
	if err := cc.Check(desc); err != nil {
		return nil, err
	}

	desc, err := pdf.Resolve(r, desc)
	if err != nil {
		return nil, err
	}

	switch desc := desc.(type) {
	case pdf.Name:
		switch desc {
		case FamilyDeviceGray, "G":
			return DeviceGray, nil
		case FamilyDeviceRGB, "RGB":
			return DeviceRGB, nil
		case FamilyDeviceCMYK, "CMYK":
			return DeviceCMYK, nil
		case FamilyPattern:
			return PatternColored, nil
		case "I", FamilyIndexed:
			// abbreviated form only valid for inline images, and only
			// with parameters; a bare name is malformed
		}

	case pdf.Array:
		if len(desc) == 0 {
			break
		}
		name, err := pdf.GetName(r, desc[0])
		if err != nil {
			return nil, err
		}

		switch name {
		case FamilyDeviceGray, "G":
			return DeviceGray, nil
		case FamilyDeviceRGB, "RGB":
			return DeviceRGB, nil
		case FamilyDeviceCMYK, "CMYK":
			return DeviceCMYK, nil
		case "CalCMYK": // deprecated
			return DeviceCMYK, nil
		case FamilyCalGray:
			return readCalGray(r, desc)
		case FamilyCalRGB:
			return readCalRGB(r, desc)
		case FamilyLab:
			return readLab(r, desc)
		case FamilyICCBased:
			return readICCBased(r, desc, cc)
		case FamilyIndexed, "I":
			return readIndexed(r, desc, cc)
		case FamilySeparation:
			return readSeparation(r, desc, cc)
		case FamilyDeviceN:
			return readDeviceN(r, desc, cc)
		case FamilyPattern:
			if len(desc) < 2 {
				return PatternColored, nil
			}
			base, err := read(r, desc[1], cc)
			if err != nil {
				return nil, err
			}
			return &PatternUncolored{Base: base}, nil
		}
	}

	return nil, &pdf.MalformedFileError{
		Err: fmt.Errorf("invalid color space: %s", pdf.AsString(desc)),
	}
}

func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}

// component returns comps[i] clamped to [0, 1], or def if the slice is
// too short.
func component(comps []float64, i int, def float64) float64 {
	if i >= len(comps) {
		return def
	}
	return clamp(comps[i], 0, 1)
}

func getArrayN(r pdf.Getter, obj pdf.Object, n int) ([]float64, error) {
	arr, err := pdf.GetArray(r, obj)
	if err != nil {
		return nil, err
	}
	if arr == nil {
		return nil, nil
	}

	if len(arr) != n {
		return nil, &pdf.MalformedFileError{
			Err: fmt.Errorf("expected array of length %d, got %d", n, len(arr)),
		}
	}

	res := make([]float64, n)
	for i, elem := range arr {
		x, err := pdf.GetNumber(r, elem)
		if err != nil {
			return nil, err
		}
		res[i] = float64(x)
	}
	return res, nil
}
