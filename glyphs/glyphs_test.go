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

package glyphs

import (
	"bytes"
	"log"
	"math"
	"strings"
	"testing"

	"seehuhn.de/go/pdf"
)

func TestStandardEncodingDefault(t *testing.T) {
	data := pdf.NewData(pdf.V1_7)
	p := NewProvider(data, nil)

	f, err := p.Font(pdf.Dict{
		"Type":     pdf.Name("Font"),
		"Subtype":  pdf.Name("Type1"),
		"BaseFont": pdf.Name("Helvetica"),
	})
	if err != nil {
		t.Fatal(err)
	}

	if got := f.GlyphName('A'); got != "A" {
		t.Errorf("GlyphName('A') = %q, want %q", got, "A")
	}
	if got := f.GlyphName('a'); got != "a" {
		t.Errorf("GlyphName('a') = %q, want %q", got, "a")
	}
}

func TestEncodingDifferences(t *testing.T) {
	data := pdf.NewData(pdf.V1_7)
	p := NewProvider(data, nil)

	f, err := p.Font(pdf.Dict{
		"Type":     pdf.Name("Font"),
		"Subtype":  pdf.Name("Type1"),
		"BaseFont": pdf.Name("Test"),
		"Encoding": pdf.Dict{
			"BaseEncoding": pdf.Name("WinAnsiEncoding"),
			"Differences": pdf.Array{
				pdf.Integer(65),
				pdf.Name("alpha"),
				pdf.Name("beta"),
				pdf.Integer(90),
				pdf.Name("gamma"),
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		code byte
		want string
	}{
		{65, "alpha"},
		{66, "beta"},
		{67, "C"}, // from the base encoding
		{90, "gamma"},
	}
	for _, c := range cases {
		if got := f.GlyphName(c.code); got != c.want {
			t.Errorf("GlyphName(%d) = %q, want %q", c.code, got, c.want)
		}
	}
}

func TestSimpleWidths(t *testing.T) {
	data := pdf.NewData(pdf.V1_7)
	p := NewProvider(data, nil)

	f, err := p.Font(pdf.Dict{
		"Type":      pdf.Name("Font"),
		"Subtype":   pdf.Name("Type1"),
		"BaseFont":  pdf.Name("Test"),
		"FirstChar": pdf.Integer(65),
		"Widths":    pdf.Array{pdf.Integer(500), pdf.Integer(600)},
	})
	if err != nil {
		t.Fatal(err)
	}

	codes := f.Codes(pdf.String("AB"))
	if len(codes) != 2 {
		t.Fatalf("got %d codes, want 2", len(codes))
	}
	if codes[0].CID != 'A' || codes[1].CID != 'B' {
		t.Errorf("got CIDs %d, %d", codes[0].CID, codes[1].CID)
	}
	if codes[0].Width != 0.5 || codes[1].Width != 0.6 {
		t.Errorf("got widths %g, %g, want 0.5, 0.6", codes[0].Width, codes[1].Width)
	}

	// codes outside the Widths array fall back to a default
	codes = f.Codes(pdf.String("Z"))
	if codes[0].Width != 0.5 {
		t.Errorf("fallback width = %g, want 0.5", codes[0].Width)
	}
}

func TestCompositeCodes(t *testing.T) {
	data := pdf.NewData(pdf.V1_7)
	p := NewProvider(data, nil)

	f, err := p.Font(pdf.Dict{
		"Type":     pdf.Name("Font"),
		"Subtype":  pdf.Name("Type0"),
		"BaseFont": pdf.Name("Test"),
		"Encoding": pdf.Name("Identity-H"),
		"DescendantFonts": pdf.Array{
			pdf.Dict{
				"Type":     pdf.Name("Font"),
				"Subtype":  pdf.Name("CIDFontType2"),
				"BaseFont": pdf.Name("Test"),
				"DW":       pdf.Integer(800),
				"W": pdf.Array{
					pdf.Integer(1), pdf.Array{pdf.Integer(500), pdf.Integer(600)},
					pdf.Integer(10), pdf.Integer(20), pdf.Integer(250),
				},
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if f.Kind != Composite {
		t.Fatalf("Kind = %d, want Composite", f.Kind)
	}
	if f.WritingMode() != 0 {
		t.Errorf("WritingMode = %d, want 0", f.WritingMode())
	}

	codes := f.Codes(pdf.String{0, 1, 0, 2, 0, 15, 0, 99})
	wantCID := []uint32{1, 2, 15, 99}
	wantW := []float64{0.5, 0.6, 0.25, 0.8}
	if len(codes) != len(wantCID) {
		t.Fatalf("got %d codes, want %d", len(codes), len(wantCID))
	}
	for i, c := range codes {
		if c.CID != wantCID[i] {
			t.Errorf("code %d: CID = %d, want %d", i, c.CID, wantCID[i])
		}
		if math.Abs(c.Width-wantW[i]) > 1e-9 {
			t.Errorf("code %d: Width = %g, want %g", i, c.Width, wantW[i])
		}
	}

	// a lone trailing byte still yields a code
	codes = f.Codes(pdf.String{0, 1, 7})
	if len(codes) != 2 || codes[1].CID != 7 {
		t.Errorf("trailing byte: got %v", codes)
	}
}

func TestVerticalWritingMode(t *testing.T) {
	data := pdf.NewData(pdf.V1_7)
	p := NewProvider(data, nil)

	f, err := p.Font(pdf.Dict{
		"Type":     pdf.Name("Font"),
		"Subtype":  pdf.Name("Type0"),
		"BaseFont": pdf.Name("Test"),
		"Encoding": pdf.Name("Identity-V"),
		"DescendantFonts": pdf.Array{
			pdf.Dict{
				"Type":     pdf.Name("Font"),
				"Subtype":  pdf.Name("CIDFontType2"),
				"BaseFont": pdf.Name("Test"),
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if f.WritingMode() != 1 {
		t.Errorf("WritingMode = %d, want 1", f.WritingMode())
	}
}

func TestType3Font(t *testing.T) {
	data := pdf.NewData(pdf.V1_7)
	var buf bytes.Buffer
	p := NewProvider(data, log.New(&buf, "", 0))

	proc := &pdf.Stream{
		Dict: pdf.Dict{},
		R:    bytes.NewReader([]byte("0 0 100 100 re f")),
	}
	f, err := p.Font(pdf.Dict{
		"Type":       pdf.Name("Font"),
		"Subtype":    pdf.Name("Type3"),
		"FontMatrix": pdf.Array{pdf.Real(0.01), pdf.Integer(0), pdf.Integer(0), pdf.Real(0.01), pdf.Integer(0), pdf.Integer(0)},
		"CharProcs": pdf.Dict{
			"square": proc,
		},
		"Encoding": pdf.Dict{
			"Differences": pdf.Array{pdf.Integer(97), pdf.Name("square")},
		},
		"FirstChar": pdf.Integer(97),
		"Widths":    pdf.Array{pdf.Integer(100)},
	})
	if err != nil {
		t.Fatal(err)
	}

	if f.Kind != Type3 {
		t.Fatalf("Kind = %d, want Type3", f.Kind)
	}
	if f.FontMatrix[0] != 0.01 {
		t.Errorf("FontMatrix[0] = %g, want 0.01", f.FontMatrix[0])
	}

	codes := f.Codes(pdf.String("a"))
	if math.Abs(codes[0].Width-1.0) > 1e-9 {
		t.Errorf("Width = %g, want 1.0", codes[0].Width)
	}

	if f.CharProc('a') == nil {
		t.Error("CharProc('a') = nil")
	}
	if f.CharProc('b') != nil {
		t.Error("CharProc('b') != nil")
	}

	// Type 3 glyphs have no outlines and must not produce diagnostics
	if g := p.Outline(f, 'a'); g != nil {
		t.Errorf("Outline = %v, want nil", g)
	}
	if buf.Len() != 0 {
		t.Errorf("unexpected diagnostics: %q", buf.String())
	}
}

func TestMissDiagnosticOnce(t *testing.T) {
	data := pdf.NewData(pdf.V1_7)
	var buf bytes.Buffer
	p := NewProvider(data, log.New(&buf, "", 0))

	// a simple font without an embedded font program has no outlines
	f, err := p.Font(pdf.Dict{
		"Type":     pdf.Name("Font"),
		"Subtype":  pdf.Name("Type1"),
		"BaseFont": pdf.Name("Missing"),
	})
	if err != nil {
		t.Fatal(err)
	}

	for range 3 {
		if g := p.Outline(f, 'A'); g != nil {
			t.Fatalf("Outline = %v, want nil", g)
		}
	}
	if n := strings.Count(buf.String(), "\n"); n != 1 {
		t.Errorf("got %d diagnostics, want 1:\n%s", n, buf.String())
	}

	// a different code gets its own diagnostic
	p.Outline(f, 'B')
	if n := strings.Count(buf.String(), "\n"); n != 2 {
		t.Errorf("got %d diagnostics, want 2:\n%s", n, buf.String())
	}

	// Flush clears the miss records, so the diagnostic repeats
	p.Flush()
	p.Outline(f, 'A')
	if n := strings.Count(buf.String(), "\n"); n != 3 {
		t.Errorf("got %d diagnostics after flush, want 3:\n%s", n, buf.String())
	}
}

func TestFontCaching(t *testing.T) {
	data := pdf.NewData(pdf.V1_7)
	p := NewProvider(data, nil)

	ref := data.Alloc()
	err := data.Put(ref, pdf.Dict{
		"Type":     pdf.Name("Font"),
		"Subtype":  pdf.Name("Type1"),
		"BaseFont": pdf.Name("Test"),
	})
	if err != nil {
		t.Fatal(err)
	}

	f1, err := p.Font(ref)
	if err != nil {
		t.Fatal(err)
	}
	f2, err := p.Font(ref)
	if err != nil {
		t.Fatal(err)
	}
	if f1 != f2 {
		t.Error("font loaded twice")
	}
}
