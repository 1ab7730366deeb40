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
	"bytes"
	"math"
	"testing"

	"seehuhn.de/go/pdf"
)

func checkRGB(t *testing.T, s Space, comps []float64, wantR, wantG, wantB, tol float64) {
	t.Helper()
	r, g, b := s.RGB(comps)
	if math.Abs(r-wantR) > tol || math.Abs(g-wantG) > tol || math.Abs(b-wantB) > tol {
		t.Errorf("RGB(%v) = (%g, %g, %g), want (%g, %g, %g)",
			comps, r, g, b, wantR, wantG, wantB)
	}
}

func TestDeviceSpaces(t *testing.T) {
	checkRGB(t, DeviceGray, []float64{0.5}, 0.5, 0.5, 0.5, 0)
	checkRGB(t, DeviceRGB, []float64{0.1, 0.2, 0.3}, 0.1, 0.2, 0.3, 0)

	// out-of-range components are clamped, not rejected
	checkRGB(t, DeviceRGB, []float64{-1, 2, 0.5}, 0, 1, 0.5, 0)
	checkRGB(t, DeviceGray, []float64{1.5}, 1, 1, 1, 0)
}

func TestCMYK(t *testing.T) {
	checkRGB(t, DeviceCMYK, []float64{0, 0, 0, 0}, 1, 1, 1, 0)
	checkRGB(t, DeviceCMYK, []float64{0, 0, 0, 1}, 0, 0, 0, 0)
	checkRGB(t, DeviceCMYK, []float64{1, 0, 0, 0}, 0, 1, 1, 0)
	checkRGB(t, DeviceCMYK, []float64{0.5, 0, 0, 0.5}, 0.25, 0.5, 0.5, 1e-12)

	// the initial CMYK color is black
	def := DeviceCMYK.Default()
	checkRGB(t, DeviceCMYK, def, 0, 0, 0, 0)
}

func TestRGBToCMYK(t *testing.T) {
	c, m, y, k := RGBToCMYK(0, 0, 0)
	if c != 0 || m != 0 || y != 0 || k != 1 {
		t.Errorf("black: got (%g, %g, %g, %g)", c, m, y, k)
	}
	c, m, y, k = RGBToCMYK(1, 0, 0)
	if c != 0 || m != 1 || y != 1 || k != 0 {
		t.Errorf("red: got (%g, %g, %g, %g)", c, m, y, k)
	}
}

func TestReadByName(t *testing.T) {
	for _, test := range []struct {
		obj    pdf.Object
		family pdf.Name
	}{
		{pdf.Name("DeviceGray"), FamilyDeviceGray},
		{pdf.Name("DeviceRGB"), FamilyDeviceRGB},
		{pdf.Name("DeviceCMYK"), FamilyDeviceCMYK},
		{pdf.Name("Pattern"), FamilyPattern},
		{pdf.Array{pdf.Name("DeviceRGB")}, FamilyDeviceRGB},
		{pdf.Array{pdf.Name("CalCMYK")}, FamilyDeviceCMYK},
	} {
		s, err := Read(nil, test.obj)
		if err != nil {
			t.Errorf("%v: %v", test.obj, err)
			continue
		}
		if s.Family() != test.family {
			t.Errorf("%v: got family %q, want %q", test.obj, s.Family(), test.family)
		}
	}

	_, err := Read(nil, pdf.Name("NoSuchSpace"))
	if err == nil {
		t.Error("expected error for unknown color space name")
	}
}

func TestCalGray(t *testing.T) {
	desc := pdf.Array{
		pdf.Name("CalGray"),
		pdf.Dict{
			"WhitePoint": pdf.Array{pdf.Number(0.9505), pdf.Number(1), pdf.Number(1.089)},
			"Gamma":      pdf.Number(2.2),
		},
	}
	s, err := Read(nil, desc)
	if err != nil {
		t.Fatal(err)
	}
	if s.Channels() != 1 {
		t.Errorf("Channels() = %d, want 1", s.Channels())
	}
	checkRGB(t, s, []float64{0}, 0, 0, 0, 1e-9)
	checkRGB(t, s, []float64{1}, 1, 1, 1, 1e-9)
	// gamma 2.2 cancels against the assumed device gamma
	checkRGB(t, s, []float64{0.5}, 0.5, 0.5, 0.5, 1e-9)
}

func TestLab(t *testing.T) {
	desc := pdf.Array{
		pdf.Name("Lab"),
		pdf.Dict{
			"WhitePoint": pdf.Array{pdf.Number(0.9505), pdf.Number(1), pdf.Number(1.089)},
			"Range":      pdf.Array{pdf.Number(-100), pdf.Number(100), pdf.Number(-100), pdf.Number(100)},
		},
	}
	s, err := Read(nil, desc)
	if err != nil {
		t.Fatal(err)
	}

	checkRGB(t, s, []float64{100, 0, 0}, 1, 1, 1, 0.01)
	checkRGB(t, s, []float64{0, 0, 0}, 0, 0, 0, 0.01)

	// the default color clamps a* and b* into the Range
	desc[1].(pdf.Dict)["Range"] = pdf.Array{
		pdf.Number(10), pdf.Number(20), pdf.Number(-20), pdf.Number(-10),
	}
	s, err = Read(nil, desc)
	if err != nil {
		t.Fatal(err)
	}
	def := s.Default()
	want := []float64{0, 10, -10}
	for i := range want {
		if def[i] != want[i] {
			t.Errorf("Default() = %v, want %v", def, want)
			break
		}
	}
}

func TestIndexed(t *testing.T) {
	desc := pdf.Array{
		pdf.Name("Indexed"),
		pdf.Name("DeviceRGB"),
		pdf.Integer(1),
		pdf.String([]byte{255, 0, 0, 0, 255, 0}),
	}
	s, err := Read(nil, desc)
	if err != nil {
		t.Fatal(err)
	}
	if s.Channels() != 1 {
		t.Errorf("Channels() = %d, want 1", s.Channels())
	}

	checkRGB(t, s, []float64{0}, 1, 0, 0, 1e-9)
	checkRGB(t, s, []float64{1}, 0, 1, 0, 1e-9)

	// out-of-range indices are clamped
	checkRGB(t, s, []float64{7}, 0, 1, 0, 1e-9)
	checkRGB(t, s, []float64{-2}, 1, 0, 0, 1e-9)
}

func TestIndexedInvalid(t *testing.T) {
	desc := pdf.Array{
		pdf.Name("Indexed"),
		pdf.Name("DeviceRGB"),
		pdf.Integer(300),
		pdf.String([]byte{0}),
	}
	_, err := Read(nil, desc)
	if err == nil {
		t.Error("expected error for hival > 255")
	}
}

func sepTransform(c0, c1 pdf.Array) pdf.Dict {
	return pdf.Dict{
		"FunctionType": pdf.Integer(2),
		"Domain":       pdf.Array{pdf.Number(0), pdf.Number(1)},
		"C0":           c0,
		"C1":           c1,
		"N":            pdf.Number(1),
	}
}

func TestSeparation(t *testing.T) {
	desc := pdf.Array{
		pdf.Name("Separation"),
		pdf.Name("Spot1"),
		pdf.Name("DeviceGray"),
		sepTransform(pdf.Array{pdf.Number(1)}, pdf.Array{pdf.Number(0)}),
	}
	s, err := Read(nil, desc)
	if err != nil {
		t.Fatal(err)
	}

	// full tint maps to black, zero tint to white
	checkRGB(t, s, []float64{1}, 0, 0, 0, 1e-9)
	checkRGB(t, s, []float64{0}, 1, 1, 1, 1e-9)

	// the initial tint is 1
	def := s.Default()
	if len(def) != 1 || def[0] != 1 {
		t.Errorf("Default() = %v, want [1]", def)
	}
}

func TestSeparationShapeMismatch(t *testing.T) {
	// three outputs do not match the one-channel alternate space
	desc := pdf.Array{
		pdf.Name("Separation"),
		pdf.Name("Spot1"),
		pdf.Name("DeviceGray"),
		sepTransform(
			pdf.Array{pdf.Number(0), pdf.Number(0), pdf.Number(0)},
			pdf.Array{pdf.Number(1), pdf.Number(1), pdf.Number(1)},
		),
	}
	_, err := Read(nil, desc)
	if err == nil {
		t.Error("expected error for tint transform shape mismatch")
	}
}

func TestSeparationAllNone(t *testing.T) {
	all := pdf.Array{
		pdf.Name("Separation"),
		pdf.Name("All"),
		pdf.Name("DeviceGray"),
		sepTransform(pdf.Array{pdf.Number(1)}, pdf.Array{pdf.Number(0)}),
	}
	s, err := Read(nil, all)
	if err != nil {
		t.Fatal(err)
	}
	checkRGB(t, s, []float64{1}, 0, 0, 0, 1e-9)

	none := pdf.Array{
		pdf.Name("Separation"),
		pdf.Name("None"),
		pdf.Name("DeviceGray"),
		sepTransform(pdf.Array{pdf.Number(1)}, pdf.Array{pdf.Number(0)}),
	}
	s, err = Read(nil, none)
	if err != nil {
		t.Fatal(err)
	}
	sep := s.(*SpaceSeparation)
	if !sep.IsNone() {
		t.Error("IsNone() = false for /None colorant")
	}
}

func TestDeviceN(t *testing.T) {
	trfm := &pdf.Stream{
		Dict: pdf.Dict{
			"FunctionType": pdf.Integer(4),
			"Domain": pdf.Array{
				pdf.Number(0), pdf.Number(1),
				pdf.Number(0), pdf.Number(1),
			},
			"Range": pdf.Array{
				pdf.Number(0), pdf.Number(1),
				pdf.Number(0), pdf.Number(1),
				pdf.Number(0), pdf.Number(1),
			},
		},
		R: bytes.NewReader([]byte("{ pop pop 1 0 0 }")),
	}
	desc := pdf.Array{
		pdf.Name("DeviceN"),
		pdf.Array{pdf.Name("SpotA"), pdf.Name("SpotB")},
		pdf.Name("DeviceRGB"),
		trfm,
	}
	s, err := Read(nil, desc)
	if err != nil {
		t.Fatal(err)
	}
	if s.Channels() != 2 {
		t.Errorf("Channels() = %d, want 2", s.Channels())
	}
	checkRGB(t, s, []float64{0.5, 0.5}, 1, 0, 0, 1e-9)
}

func TestICCBasedFallback(t *testing.T) {
	// an unreadable profile falls back to the Alternate color space
	stream := &pdf.Stream{
		Dict: pdf.Dict{
			"N":         pdf.Integer(3),
			"Alternate": pdf.Name("DeviceRGB"),
		},
		R: bytes.NewReader([]byte("not an ICC profile")),
	}
	desc := pdf.Array{pdf.Name("ICCBased"), stream}
	s, err := Read(nil, desc)
	if err != nil {
		t.Fatal(err)
	}
	if s.Family() != FamilyICCBased {
		t.Errorf("Family() = %q, want ICCBased", s.Family())
	}
	if s.Channels() != 3 {
		t.Errorf("Channels() = %d, want 3", s.Channels())
	}
	checkRGB(t, s, []float64{0.2, 0.4, 0.6}, 0.2, 0.4, 0.6, 1e-9)
}

func TestICCBasedNoAlternate(t *testing.T) {
	stream := &pdf.Stream{
		Dict: pdf.Dict{"N": pdf.Integer(4)},
		R:    bytes.NewReader([]byte("junk")),
	}
	desc := pdf.Array{pdf.Name("ICCBased"), stream}
	s, err := Read(nil, desc)
	if err != nil {
		t.Fatal(err)
	}
	checkRGB(t, s, []float64{0, 0, 0, 1}, 0, 0, 0, 1e-9)
}

func TestPatternUncolored(t *testing.T) {
	desc := pdf.Array{pdf.Name("Pattern"), pdf.Name("DeviceRGB")}
	s, err := Read(nil, desc)
	if err != nil {
		t.Fatal(err)
	}
	if s.Family() != FamilyPattern {
		t.Errorf("Family() = %q, want Pattern", s.Family())
	}
	if s.Channels() != 3 {
		t.Errorf("Channels() = %d, want 3", s.Channels())
	}
}
