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
	"io"

	"seehuhn.de/go/icc"
	"seehuhn.de/go/pdf"
)

// SpaceICCBased is an ICC-based color space.
//
// Full ICC rendering is not implemented. The profile header is used to
// classify the color space, and colors are then approximated by the
// corresponding device color space (or by Lab for Lab profiles). If the
// profile cannot be decoded, the Alternate color space is used, falling
// back to the device color space matching the component count.
type SpaceICCBased struct {
	N      int
	Ranges []float64

	// approx does the actual conversion.
	approx Space
}

func readICCBased(r pdf.Getter, desc pdf.Array, cc *pdf.CycleChecker) (*SpaceICCBased, error) {
	if len(desc) < 2 {
		return nil, &pdf.MalformedFileError{
			Err: fmt.Errorf("ICCBased color space without stream"),
		}
	}
	stream, err := pdf.GetStream(r, desc[1])
	if err != nil {
		return nil, err
	}
	if stream == nil {
		return nil, &pdf.MalformedFileError{
			Err: fmt.Errorf("ICCBased color space without stream"),
		}
	}

	n, err := pdf.GetInteger(r, stream.Dict["N"])
	if err != nil {
		return nil, err
	}
	switch n {
	case 1, 3, 4:
		// ok
	default:
		return nil, &pdf.MalformedFileError{
			Err: fmt.Errorf("ICCBased: invalid number of components %d", n),
		}
	}

	s := &SpaceICCBased{N: int(n)}

	if ranges, err := getArrayN(r, stream.Dict["Range"], 2*int(n)); err == nil && ranges != nil {
		s.Ranges = ranges
	}

	body, err := pdf.DecodeStream(r, stream, 0)
	if err == nil {
		data, readErr := io.ReadAll(body)
		body.Close()
		if readErr == nil {
			s.approx = classifyProfile(data, int(n))
		}
	}

	if s.approx == nil {
		if alt, ok := stream.Dict["Alternate"]; ok {
			s.approx, _ = read(r, alt, cc)
		}
	}
	if s.approx == nil {
		switch n {
		case 1:
			s.approx = DeviceGray
		case 3:
			s.approx = DeviceRGB
		case 4:
			s.approx = DeviceCMYK
		}
	}
	if s.approx.Channels() != int(n) {
		return nil, &pdf.MalformedFileError{
			Err: fmt.Errorf("ICCBased: alternate color space has %d components, expected %d",
				s.approx.Channels(), n),
		}
	}

	if s.Ranges == nil {
		s.Ranges = make([]float64, 2*int(n))
		for i := range int(n) {
			s.Ranges[2*i+1] = 1
		}
		if lab, ok := s.approx.(*SpaceLab); ok {
			s.Ranges = []float64{0, 100, lab.Ranges[0], lab.Ranges[1], lab.Ranges[2], lab.Ranges[3]}
		}
	}

	return s, nil
}

// classifyProfile maps an ICC profile to an approximating color space,
// or nil if the profile cannot be used.
func classifyProfile(data []byte, n int) Space {
	p, err := icc.Decode(data)
	if err != nil {
		return nil
	}
	if p.ColorSpace.NumComponents() != n {
		return nil
	}
	switch p.ColorSpace {
	case icc.GraySpace:
		return DeviceGray
	case icc.RGBSpace:
		return DeviceRGB
	case icc.CMYKSpace:
		return DeviceCMYK
	case icc.CIELabSpace:
		return &SpaceLab{
			// ICC profile connection space white point (D50)
			WhitePoint: []float64{0.9642, 1, 0.8249},
			Ranges:     []float64{-128, 127, -128, 127},
		}
	default:
		return nil
	}
}

func (s *SpaceICCBased) Family() pdf.Name { return FamilyICCBased }
func (s *SpaceICCBased) Channels() int    { return s.N }

func (s *SpaceICCBased) Default() []float64 {
	comps := make([]float64, s.N)
	for i := range comps {
		comps[i] = clamp(0, s.Ranges[2*i], s.Ranges[2*i+1])
	}
	return comps
}

func (s *SpaceICCBased) RGB(comps []float64) (r, g, b float64) {
	clamped := make([]float64, s.N)
	for i := range clamped {
		if i < len(comps) {
			clamped[i] = clamp(comps[i], s.Ranges[2*i], s.Ranges[2*i+1])
		} else {
			clamped[i] = s.Ranges[2*i]
		}
	}
	return s.approx.RGB(clamped)
}
