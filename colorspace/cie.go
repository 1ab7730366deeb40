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

package colorspace

import (
	"fmt"
	"math"

	"seehuhn.de/go/pdf"
)

// deviceGamma is the transfer function exponent assumed for the output
// device when converting CIE-based colors to device RGB.
const deviceGamma = 2.2

// == CalGray ================================================================

// SpaceCalGray is a CalGray color space: a single-component color space
// based on CIE luminance with a gamma transfer function.
type SpaceCalGray struct {
	WhitePoint []float64
	BlackPoint []float64
	Gamma      float64
}

func readCalGray(r pdf.Getter, desc pdf.Array) (*SpaceCalGray, error) {
	if len(desc) < 2 {
		return nil, &pdf.MalformedFileError{
			Err: fmt.Errorf("CalGray color space without parameter dict"),
		}
	}
	dict, err := pdf.GetDict(r, desc[1])
	if err != nil {
		return nil, err
	}

	whitePoint, err := getArrayN(r, dict["WhitePoint"], 3)
	if err != nil {
		return nil, err
	}
	if whitePoint == nil {
		whitePoint = []float64{1, 1, 1}
	}
	blackPoint, err := getArrayN(r, dict["BlackPoint"], 3)
	if err != nil {
		return nil, err
	}

	gamma := 1.0
	if obj, ok := dict["Gamma"]; ok {
		x, err := pdf.GetNumber(r, obj)
		if err != nil {
			return nil, err
		}
		if x > 0 {
			gamma = float64(x)
		}
	}

	return &SpaceCalGray{
		WhitePoint: whitePoint,
		BlackPoint: blackPoint,
		Gamma:      gamma,
	}, nil
}

func (s *SpaceCalGray) Family() pdf.Name   { return FamilyCalGray }
func (s *SpaceCalGray) Channels() int      { return 1 }
func (s *SpaceCalGray) Default() []float64 { return []float64{0} }

func (s *SpaceCalGray) RGB(comps []float64) (r, g, b float64) {
	a := component(comps, 0, 0)
	y := math.Pow(a, s.Gamma)
	v := math.Pow(clamp(y, 0, 1), 1/deviceGamma)
	return v, v, v
}

// == CalRGB =================================================================

// SpaceCalRGB is a CalRGB color space: a three-component color space
// defined by per-channel gamma values and a linear map to CIE XYZ.
type SpaceCalRGB struct {
	WhitePoint []float64
	BlackPoint []float64
	Gamma      []float64
	Matrix     []float64
}

func readCalRGB(r pdf.Getter, desc pdf.Array) (*SpaceCalRGB, error) {
	if len(desc) < 2 {
		return nil, &pdf.MalformedFileError{
			Err: fmt.Errorf("CalRGB color space without parameter dict"),
		}
	}
	dict, err := pdf.GetDict(r, desc[1])
	if err != nil {
		return nil, err
	}

	whitePoint, err := getArrayN(r, dict["WhitePoint"], 3)
	if err != nil {
		return nil, err
	}
	if whitePoint == nil {
		whitePoint = []float64{1, 1, 1}
	}
	blackPoint, err := getArrayN(r, dict["BlackPoint"], 3)
	if err != nil {
		return nil, err
	}
	gamma, err := getArrayN(r, dict["Gamma"], 3)
	if err != nil {
		return nil, err
	}
	if gamma == nil {
		gamma = []float64{1, 1, 1}
	}
	matrix, err := getArrayN(r, dict["Matrix"], 9)
	if err != nil {
		return nil, err
	}
	if matrix == nil {
		matrix = []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
	}

	return &SpaceCalRGB{
		WhitePoint: whitePoint,
		BlackPoint: blackPoint,
		Gamma:      gamma,
		Matrix:     matrix,
	}, nil
}

func (s *SpaceCalRGB) Family() pdf.Name   { return FamilyCalRGB }
func (s *SpaceCalRGB) Channels() int      { return 3 }
func (s *SpaceCalRGB) Default() []float64 { return []float64{0, 0, 0} }

func (s *SpaceCalRGB) RGB(comps []float64) (r, g, b float64) {
	a := math.Pow(component(comps, 0, 0), s.Gamma[0])
	bb := math.Pow(component(comps, 1, 0), s.Gamma[1])
	c := math.Pow(component(comps, 2, 0), s.Gamma[2])

	// the Matrix columns give the XYZ coordinates of the three primaries
	x := s.Matrix[0]*a + s.Matrix[3]*bb + s.Matrix[6]*c
	y := s.Matrix[1]*a + s.Matrix[4]*bb + s.Matrix[7]*c
	z := s.Matrix[2]*a + s.Matrix[5]*bb + s.Matrix[8]*c

	return xyzToRGB(x, y, z)
}

// == Lab ====================================================================

// SpaceLab is a CIE 1976 L*a*b* color space.
type SpaceLab struct {
	WhitePoint []float64
	BlackPoint []float64
	Ranges     []float64
}

func readLab(r pdf.Getter, desc pdf.Array) (*SpaceLab, error) {
	if len(desc) < 2 {
		return nil, &pdf.MalformedFileError{
			Err: fmt.Errorf("Lab color space without parameter dict"),
		}
	}
	dict, err := pdf.GetDict(r, desc[1])
	if err != nil {
		return nil, err
	}

	whitePoint, err := getArrayN(r, dict["WhitePoint"], 3)
	if err != nil {
		return nil, err
	}
	if whitePoint == nil || whitePoint[0] <= 0 || whitePoint[1] <= 0 || whitePoint[2] <= 0 {
		whitePoint = []float64{0.9505, 1, 1.089}
	}
	blackPoint, err := getArrayN(r, dict["BlackPoint"], 3)
	if err != nil {
		return nil, err
	}
	ranges, err := getArrayN(r, dict["Range"], 4)
	if err != nil {
		return nil, err
	}
	if ranges == nil || ranges[0] >= ranges[1] || ranges[2] >= ranges[3] {
		ranges = []float64{-100, 100, -100, 100}
	}

	return &SpaceLab{
		WhitePoint: whitePoint,
		BlackPoint: blackPoint,
		Ranges:     ranges,
	}, nil
}

func (s *SpaceLab) Family() pdf.Name { return FamilyLab }
func (s *SpaceLab) Channels() int    { return 3 }

func (s *SpaceLab) Default() []float64 {
	a := clamp(0, s.Ranges[0], s.Ranges[1])
	b := clamp(0, s.Ranges[2], s.Ranges[3])
	return []float64{0, a, b}
}

func (s *SpaceLab) RGB(comps []float64) (r, g, b float64) {
	var L, A, B float64
	if len(comps) > 0 {
		L = clamp(comps[0], 0, 100)
	}
	if len(comps) > 1 {
		A = clamp(comps[1], s.Ranges[0], s.Ranges[1])
	}
	if len(comps) > 2 {
		B = clamp(comps[2], s.Ranges[2], s.Ranges[3])
	}

	fy := (L + 16) / 116
	fx := A/500 + fy
	fz := fy - B/200

	x := labFInv(fx) * s.WhitePoint[0]
	y := labFInv(fy) * s.WhitePoint[1]
	z := labFInv(fz) * s.WhitePoint[2]

	return xyzToRGB(x, y, z)
}

func labFInv(t float64) float64 {
	const delta = 6.0 / 29.0
	if t > delta {
		return t * t * t
	}
	return 3 * delta * delta * (t - 4.0/29.0)
}

// xyzToRGB converts CIE XYZ coordinates to device RGB, using the sRGB
// primaries and a simple power-law transfer function.
func xyzToRGB(x, y, z float64) (r, g, b float64) {
	r = 3.2404542*x - 1.5371385*y - 0.4985314*z
	g = -0.9692660*x + 1.8760108*y + 0.0415560*z
	b = 0.0556434*x - 0.2040259*y + 1.0572252*z

	r = math.Pow(clamp(r, 0, 1), 1/deviceGamma)
	g = math.Pow(clamp(g, 0, 1), 1/deviceGamma)
	b = math.Pow(clamp(b, 0, 1), 1/deviceGamma)
	return r, g, b
}
