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
	"math"

	"seehuhn.de/go/pdf"

	"seehuhn.de/go/pdfrender/function"
)

// == Indexed ================================================================

// SpaceIndexed is an indexed color space: single-component colors which
// select entries in a lookup table of base color space values.
type SpaceIndexed struct {
	Base   Space
	NumCol int
	lookup []byte
}

func readIndexed(r pdf.Getter, desc pdf.Array, cc *pdf.CycleChecker) (*SpaceIndexed, error) {
	if len(desc) < 4 {
		return nil, &pdf.MalformedFileError{
			Err: fmt.Errorf("indexed color space needs 4 parameters, got %d", len(desc)),
		}
	}

	base, err := read(r, desc[1], cc)
	if err != nil {
		return nil, err
	}
	if base.Channels() == 0 || base.Family() == FamilyIndexed || base.Family() == FamilyPattern {
		return nil, &pdf.MalformedFileError{
			Err: fmt.Errorf("invalid base color space %q", base.Family()),
		}
	}

	hiVal, err := pdf.GetInteger(r, desc[2])
	if err != nil {
		return nil, err
	}
	if hiVal < 0 || hiVal > 255 {
		return nil, &pdf.MalformedFileError{
			Err: fmt.Errorf("invalid hival %d", hiVal),
		}
	}

	var lookup []byte
	lookupObj, err := pdf.Resolve(r, desc[3])
	if err != nil {
		return nil, err
	}
	switch obj := lookupObj.(type) {
	case pdf.String:
		lookup = []byte(obj)
	case *pdf.Stream:
		body, err := pdf.DecodeStream(r, obj, 0)
		if err != nil {
			return nil, err
		}
		lookup, err = io.ReadAll(body)
		body.Close()
		if err != nil {
			return nil, err
		}
	default:
		return nil, &pdf.MalformedFileError{
			Err: fmt.Errorf("invalid lookup table type %T", lookupObj),
		}
	}

	return &SpaceIndexed{
		Base:   base,
		NumCol: int(hiVal) + 1,
		lookup: lookup,
	}, nil
}

func (s *SpaceIndexed) Family() pdf.Name   { return FamilyIndexed }
func (s *SpaceIndexed) Channels() int      { return 1 }
func (s *SpaceIndexed) Default() []float64 { return []float64{0} }

func (s *SpaceIndexed) RGB(comps []float64) (r, g, b float64) {
	idx := 0
	if len(comps) > 0 {
		idx = int(math.Round(comps[0]))
	}
	if idx < 0 {
		idx = 0
	} else if idx >= s.NumCol {
		idx = s.NumCol - 1
	}

	return s.Base.RGB(s.Lookup(idx))
}

// Lookup returns the base color space components for the given table
// index. Missing table bytes read as zero.
func (s *SpaceIndexed) Lookup(idx int) []float64 {
	n := s.Base.Channels()
	ranges := baseRanges(s.Base)

	comps := make([]float64, n)
	for i := range n {
		var v byte
		if pos := idx*n + i; pos < len(s.lookup) {
			v = s.lookup[pos]
		}
		comps[i] = ranges[2*i] + float64(v)/255*(ranges[2*i+1]-ranges[2*i])
	}
	return comps
}

// baseRanges returns the component ranges of a color space, used to
// decode lookup table bytes and image samples.
func baseRanges(s Space) []float64 {
	switch s := s.(type) {
	case *SpaceLab:
		return []float64{0, 100, s.Ranges[0], s.Ranges[1], s.Ranges[2], s.Ranges[3]}
	case *SpaceICCBased:
		return s.Ranges
	default:
		ranges := make([]float64, 2*s.Channels())
		for i := range s.Channels() {
			ranges[2*i+1] = 1
		}
		return ranges
	}
}

// == Separation =============================================================

// SpaceSeparation is a Separation color space: a single colorant whose
// tint values are mapped to an alternate color space by a tint
// transform function.
type SpaceSeparation struct {
	Colorant  pdf.Name
	Alternate Space
	Transform function.Func
}

func readSeparation(r pdf.Getter, desc pdf.Array, cc *pdf.CycleChecker) (*SpaceSeparation, error) {
	if len(desc) < 4 {
		return nil, &pdf.MalformedFileError{
			Err: fmt.Errorf("separation color space needs 4 parameters, got %d", len(desc)),
		}
	}

	colorant, err := pdf.GetName(r, desc[1])
	if err != nil {
		return nil, err
	}

	alternate, err := read(r, desc[2], cc)
	if err != nil {
		return nil, err
	}

	trfm, err := function.Read(r, desc[3])
	if err != nil {
		return nil, err
	}
	if m, n := trfm.Shape(); m != 1 || n != alternate.Channels() {
		return nil, &pdf.MalformedFileError{
			Err: fmt.Errorf("tint transform has shape (%d, %d), expected (1, %d)",
				m, n, alternate.Channels()),
		}
	}

	return &SpaceSeparation{
		Colorant:  colorant,
		Alternate: alternate,
		Transform: trfm,
	}, nil
}

func (s *SpaceSeparation) Family() pdf.Name   { return FamilySeparation }
func (s *SpaceSeparation) Channels() int      { return 1 }
func (s *SpaceSeparation) Default() []float64 { return []float64{1} }

// IsNone reports whether the colorant is /None. Painting operations in a
// /None separation make no marks.
func (s *SpaceSeparation) IsNone() bool { return s.Colorant == "None" }

func (s *SpaceSeparation) RGB(comps []float64) (r, g, b float64) {
	tint := component(comps, 0, 1)

	switch s.Colorant {
	case "None":
		return 1, 1, 1
	case "All":
		// full coverage of all device colorants
		v := 1 - tint
		return v, v, v
	}

	return s.Alternate.RGB(s.Transform.Apply(tint))
}

// == DeviceN ================================================================

// SpaceDeviceN is a DeviceN color space: a set of colorants whose tint
// values are mapped to an alternate color space by a tint transform
// function.
type SpaceDeviceN struct {
	Colorants []pdf.Name
	Alternate Space
	Transform function.Func
}

func readDeviceN(r pdf.Getter, desc pdf.Array, cc *pdf.CycleChecker) (*SpaceDeviceN, error) {
	if len(desc) < 4 {
		return nil, &pdf.MalformedFileError{
			Err: fmt.Errorf("DeviceN color space needs at least 4 parameters, got %d", len(desc)),
		}
	}

	namesArr, err := pdf.GetArray(r, desc[1])
	if err != nil {
		return nil, err
	}
	if len(namesArr) == 0 {
		return nil, &pdf.MalformedFileError{
			Err: fmt.Errorf("DeviceN color space without colorants"),
		}
	}
	colorants := make([]pdf.Name, len(namesArr))
	for i, obj := range namesArr {
		name, err := pdf.GetName(r, obj)
		if err != nil {
			return nil, err
		}
		colorants[i] = name
	}

	alternate, err := read(r, desc[2], cc)
	if err != nil {
		return nil, err
	}

	trfm, err := function.Read(r, desc[3])
	if err != nil {
		return nil, err
	}
	if m, n := trfm.Shape(); m != len(colorants) || n != alternate.Channels() {
		return nil, &pdf.MalformedFileError{
			Err: fmt.Errorf("tint transform has shape (%d, %d), expected (%d, %d)",
				m, n, len(colorants), alternate.Channels()),
		}
	}

	return &SpaceDeviceN{
		Colorants: colorants,
		Alternate: alternate,
		Transform: trfm,
	}, nil
}

func (s *SpaceDeviceN) Family() pdf.Name { return FamilyDeviceN }
func (s *SpaceDeviceN) Channels() int    { return len(s.Colorants) }

func (s *SpaceDeviceN) Default() []float64 {
	comps := make([]float64, len(s.Colorants))
	for i := range comps {
		comps[i] = 1
	}
	return comps
}

func (s *SpaceDeviceN) RGB(comps []float64) (r, g, b float64) {
	tints := make([]float64, len(s.Colorants))
	for i := range tints {
		tints[i] = component(comps, i, 1)
	}
	return s.Alternate.RGB(s.Transform.Apply(tints...))
}
