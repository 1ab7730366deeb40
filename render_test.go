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
	"bytes"
	"image"
	"io"
	"log"
	"strings"
	"testing"

	"seehuhn.de/go/pdf"
)

// renderSnippet renders a single content stream on a page of the given
// size, at the default resolution of one pixel per PDF unit.
func renderSnippet(t *testing.T, width, height float64, res pdf.Dict, content string, opt *Options) *image.RGBA {
	t.Helper()

	data := pdf.NewData(pdf.V1_7)
	contRef := data.Alloc()
	err := data.Put(contRef, &pdf.Stream{
		Dict: pdf.Dict{},
		R:    bytes.NewReader([]byte(content)),
	})
	if err != nil {
		t.Fatal(err)
	}

	pageDict := pdf.Dict{
		"Type":     pdf.Name("Page"),
		"MediaBox": pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Real(width), pdf.Real(height)},
		"Contents": contRef,
	}
	if res != nil {
		pageDict["Resources"] = res
	}

	if opt == nil {
		opt = &Options{}
	}
	if opt.Logger == nil {
		opt.Logger = log.New(io.Discard, "", 0)
	}
	img, err := RenderPage(data, pageDict, opt)
	if err != nil {
		t.Fatal(err)
	}
	return img
}

func pixel(img *image.RGBA, x, y int) (r, g, b, a uint8) {
	off := img.PixOffset(x, y)
	return img.Pix[off], img.Pix[off+1], img.Pix[off+2], img.Pix[off+3]
}

func TestFillSquare(t *testing.T) {
	content := "0 0 1 rg 100 100 50 50 re f"
	img := renderSnippet(t, 200, 200, nil, content, nil)

	// the square covers user space 100..150, i.e. device rows 50..100
	r, g, b, _ := pixel(img, 125, 75)
	if r != 0 || g != 0 || b != 255 {
		t.Errorf("inside square: got (%d, %d, %d), want blue", r, g, b)
	}
	r, g, b, _ = pixel(img, 125, 125)
	if r != 255 || g != 255 || b != 255 {
		t.Errorf("outside square: got (%d, %d, %d), want white", r, g, b)
	}
	r, g, b, _ = pixel(img, 25, 75)
	if r != 255 || g != 255 || b != 255 {
		t.Errorf("outside square: got (%d, %d, %d), want white", r, g, b)
	}
}

func TestGraphicsStateRestore(t *testing.T) {
	content := "0 0 1 rg q 1 0 0 rg Q 100 100 50 50 re f"
	img := renderSnippet(t, 200, 200, nil, content, nil)

	r, g, b, _ := pixel(img, 125, 75)
	if r != 0 || g != 0 || b != 255 {
		t.Errorf("got (%d, %d, %d), want blue from restored state", r, g, b)
	}
}

func TestRestoreOnEmptyStack(t *testing.T) {
	// unbalanced Q must not abort rendering
	content := "Q Q 0 0 1 rg 100 100 50 50 re f"
	img := renderSnippet(t, 200, 200, nil, content, nil)

	r, g, b, _ := pixel(img, 125, 75)
	if r != 0 || g != 0 || b != 255 {
		t.Errorf("got (%d, %d, %d), want blue", r, g, b)
	}
}

func TestConcatMatrix(t *testing.T) {
	content := "1 0 0 1 50 0 cm 0 0 1 rg 50 100 50 50 re f"
	img := renderSnippet(t, 200, 200, nil, content, nil)

	r, g, b, _ := pixel(img, 125, 75)
	if r != 0 || g != 0 || b != 255 {
		t.Errorf("got (%d, %d, %d), want blue after translation", r, g, b)
	}
}

func TestClipPath(t *testing.T) {
	content := "0 0 100 100 re W n 1 0 0 rg 0 0 200 200 re f"
	img := renderSnippet(t, 200, 200, nil, content, nil)

	// inside the clip region (user 0..100 is device rows 100..200)
	r, g, b, _ := pixel(img, 50, 150)
	if r != 255 || g != 0 || b != 0 {
		t.Errorf("inside clip: got (%d, %d, %d), want red", r, g, b)
	}
	// outside the clip region
	r, g, b, _ = pixel(img, 150, 50)
	if r != 255 || g != 255 || b != 255 {
		t.Errorf("outside clip: got (%d, %d, %d), want white", r, g, b)
	}
}

func TestOperandErrorSkipped(t *testing.T) {
	var buf bytes.Buffer
	opt := &Options{Logger: log.New(&buf, "", 0)}

	// the w operator with a string operand is skipped with a diagnostic
	content := "(zap) w 0 0 1 rg 100 100 50 50 re f"
	img := renderSnippet(t, 200, 200, nil, content, opt)

	r, g, b, _ := pixel(img, 125, 75)
	if r != 0 || g != 0 || b != 255 {
		t.Errorf("got (%d, %d, %d), want blue after skipped operator", r, g, b)
	}
	if buf.Len() == 0 {
		t.Error("expected a diagnostic for the bad operand")
	}
}

func TestMissingResourceSkipped(t *testing.T) {
	var buf bytes.Buffer
	opt := &Options{Logger: log.New(&buf, "", 0)}

	content := "/NoSuch Do 0 0 1 rg 100 100 50 50 re f"
	img := renderSnippet(t, 200, 200, nil, content, opt)

	r, g, b, _ := pixel(img, 125, 75)
	if r != 0 || g != 0 || b != 255 {
		t.Errorf("got (%d, %d, %d), want blue after missing XObject", r, g, b)
	}
	if !strings.Contains(buf.String(), "NoSuch") {
		t.Errorf("diagnostic does not name the missing resource: %q", buf.String())
	}
}

func TestTextOperatorsOutsideTextObject(t *testing.T) {
	// positioning operators outside BT/ET have no effect but must not
	// abort rendering
	content := "100 100 Td (abc) Tj T* 0 0 1 rg 100 100 50 50 re f"
	img := renderSnippet(t, 200, 200, nil, content, nil)

	r, g, b, _ := pixel(img, 125, 75)
	if r != 0 || g != 0 || b != 255 {
		t.Errorf("got (%d, %d, %d), want blue", r, g, b)
	}
}

func TestCMYKColor(t *testing.T) {
	// pure cyan: r = 1 - min(1, c*(1-k)+k) = 0, g = b = 1
	content := "1 0 0 0 k 0 0 200 200 re f"
	img := renderSnippet(t, 200, 200, nil, content, nil)

	r, g, b, _ := pixel(img, 100, 100)
	if r != 0 || g != 255 || b != 255 {
		t.Errorf("got (%d, %d, %d), want cyan", r, g, b)
	}
}

func TestFormXObject(t *testing.T) {
	data := pdf.NewData(pdf.V1_7)

	formRef := data.Alloc()
	data.Put(formRef, &pdf.Stream{
		Dict: pdf.Dict{
			"Type":    pdf.Name("XObject"),
			"Subtype": pdf.Name("Form"),
			"BBox":    pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Integer(50), pdf.Integer(50)},
			"Matrix": pdf.Array{
				pdf.Integer(1), pdf.Integer(0), pdf.Integer(0),
				pdf.Integer(1), pdf.Integer(100), pdf.Integer(100),
			},
		},
		R: bytes.NewReader([]byte("0 0 1 rg 0 0 50 50 re f")),
	})

	contRef := data.Alloc()
	data.Put(contRef, &pdf.Stream{
		Dict: pdf.Dict{},
		R:    bytes.NewReader([]byte("/Fm Do")),
	})

	pageDict := pdf.Dict{
		"Type":     pdf.Name("Page"),
		"MediaBox": pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Integer(200), pdf.Integer(200)},
		"Contents": contRef,
		"Resources": pdf.Dict{
			"XObject": pdf.Dict{"Fm": formRef},
		},
	}

	img, err := RenderPage(data, pageDict, &Options{Logger: log.New(io.Discard, "", 0)})
	if err != nil {
		t.Fatal(err)
	}

	r, g, b, _ := pixel(img, 125, 75)
	if r != 0 || g != 0 || b != 255 {
		t.Errorf("inside form: got (%d, %d, %d), want blue", r, g, b)
	}
	r, g, b, _ = pixel(img, 25, 25)
	if r != 255 || g != 255 || b != 255 {
		t.Errorf("outside form: got (%d, %d, %d), want white", r, g, b)
	}
}

func TestFormRecursionLimit(t *testing.T) {
	data := pdf.NewData(pdf.V1_7)

	formRef := data.Alloc()
	data.Put(formRef, &pdf.Stream{
		Dict: pdf.Dict{
			"Type":    pdf.Name("XObject"),
			"Subtype": pdf.Name("Form"),
			"BBox":    pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Integer(200), pdf.Integer(200)},
			"Resources": pdf.Dict{
				"XObject": pdf.Dict{"Fm": formRef},
			},
		},
		R: bytes.NewReader([]byte("/Fm Do")),
	})

	contRef := data.Alloc()
	data.Put(contRef, &pdf.Stream{
		Dict: pdf.Dict{},
		R:    bytes.NewReader([]byte("/Fm Do")),
	})

	pageDict := pdf.Dict{
		"Type":     pdf.Name("Page"),
		"MediaBox": pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Integer(200), pdf.Integer(200)},
		"Contents": contRef,
		"Resources": pdf.Dict{
			"XObject": pdf.Dict{"Fm": formRef},
		},
	}

	var buf bytes.Buffer
	opt := &Options{
		MaxFormDepth: 8,
		Logger:       log.New(&buf, "", 0),
	}
	_, err := RenderPage(data, pageDict, opt)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "nesting") {
		t.Errorf("expected a nesting depth diagnostic, got %q", buf.String())
	}
}

func TestType3Text(t *testing.T) {
	data := pdf.NewData(pdf.V1_7)

	procRef := data.Alloc()
	data.Put(procRef, &pdf.Stream{
		Dict: pdf.Dict{},
		R:    bytes.NewReader([]byte("500 0 d0 0 0 500 700 re f")),
	})

	fontRef := data.Alloc()
	data.Put(fontRef, pdf.Dict{
		"Type":    pdf.Name("Font"),
		"Subtype": pdf.Name("Type3"),
		"FontMatrix": pdf.Array{
			pdf.Real(0.001), pdf.Integer(0), pdf.Integer(0),
			pdf.Real(0.001), pdf.Integer(0), pdf.Integer(0),
		},
		"CharProcs": pdf.Dict{"square": procRef},
		"Encoding": pdf.Dict{
			"Differences": pdf.Array{pdf.Integer(97), pdf.Name("square")},
		},
		"FirstChar": pdf.Integer(97),
		"LastChar":  pdf.Integer(97),
		"Widths":    pdf.Array{pdf.Integer(500)},
	})

	contRef := data.Alloc()
	content := "1 0 0 rg BT /F1 10 Tf 100 100 Td (a) Tj ET"
	data.Put(contRef, &pdf.Stream{
		Dict: pdf.Dict{},
		R:    bytes.NewReader([]byte(content)),
	})

	pageDict := pdf.Dict{
		"Type":     pdf.Name("Page"),
		"MediaBox": pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Integer(200), pdf.Integer(200)},
		"Contents": contRef,
		"Resources": pdf.Dict{
			"Font": pdf.Dict{"F1": fontRef},
		},
	}

	img, err := RenderPage(data, pageDict, &Options{Logger: log.New(io.Discard, "", 0)})
	if err != nil {
		t.Fatal(err)
	}

	// the glyph covers user space x 100..105, y 100..107
	r, g, b, _ := pixel(img, 102, 96)
	if r != 255 || g != 0 || b != 0 {
		t.Errorf("inside glyph: got (%d, %d, %d), want red", r, g, b)
	}
	r, g, b, _ = pixel(img, 110, 96)
	if r != 255 || g != 255 || b != 255 {
		t.Errorf("outside glyph: got (%d, %d, %d), want white", r, g, b)
	}
}

func TestLuminositySoftMask(t *testing.T) {
	data := pdf.NewData(pdf.V1_7)

	maskRef := data.Alloc()
	data.Put(maskRef, &pdf.Stream{
		Dict: pdf.Dict{
			"Type":    pdf.Name("XObject"),
			"Subtype": pdf.Name("Form"),
			"BBox":    pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Integer(100), pdf.Integer(100)},
			"Group": pdf.Dict{
				"S":  pdf.Name("Transparency"),
				"CS": pdf.Name("DeviceGray"),
			},
		},
		R: bytes.NewReader([]byte("0.5 g 0 0 100 100 re f")),
	})

	contRef := data.Alloc()
	data.Put(contRef, &pdf.Stream{
		Dict: pdf.Dict{},
		R:    bytes.NewReader([]byte("/GS1 gs 1 0 0 rg 0 0 100 100 re f")),
	})

	pageDict := pdf.Dict{
		"Type":     pdf.Name("Page"),
		"MediaBox": pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Integer(100), pdf.Integer(100)},
		"Contents": contRef,
		"Resources": pdf.Dict{
			"ExtGState": pdf.Dict{
				"GS1": pdf.Dict{
					"Type": pdf.Name("ExtGState"),
					"SMask": pdf.Dict{
						"S": pdf.Name("Luminosity"),
						"G": maskRef,
					},
				},
			},
		},
	}

	img, err := RenderPage(data, pageDict, &Options{Logger: log.New(io.Discard, "", 0)})
	if err != nil {
		t.Fatal(err)
	}

	// a 50% gray mask lets half of the red paint through over white
	r, g, b, _ := pixel(img, 50, 50)
	if r != 255 {
		t.Errorf("red channel: got %d, want 255", r)
	}
	if g < 117 || g > 137 || b < 117 || b > 137 {
		t.Errorf("got green %d, blue %d, want about 127", g, b)
	}
}

func TestConstantAlpha(t *testing.T) {
	res := pdf.Dict{
		"ExtGState": pdf.Dict{
			"GS1": pdf.Dict{
				"Type": pdf.Name("ExtGState"),
				"ca":   pdf.Real(0.5),
			},
		},
	}
	content := "/GS1 gs 1 0 0 rg 0 0 200 200 re f"
	img := renderSnippet(t, 200, 200, res, content, nil)

	r, g, b, _ := pixel(img, 100, 100)
	if r != 255 {
		t.Errorf("red channel: got %d, want 255", r)
	}
	if g < 117 || g > 137 || b < 117 || b > 137 {
		t.Errorf("got green %d, blue %d, want about 127", g, b)
	}
}

func TestAxialShading(t *testing.T) {
	res := pdf.Dict{
		"Shading": pdf.Dict{
			"Sh0": pdf.Dict{
				"ShadingType": pdf.Integer(2),
				"ColorSpace":  pdf.Name("DeviceRGB"),
				"Coords": pdf.Array{
					pdf.Integer(0), pdf.Integer(0),
					pdf.Integer(200), pdf.Integer(0),
				},
				"Function": pdf.Dict{
					"FunctionType": pdf.Integer(2),
					"Domain":       pdf.Array{pdf.Integer(0), pdf.Integer(1)},
					"C0":           pdf.Array{pdf.Integer(1), pdf.Integer(0), pdf.Integer(0)},
					"C1":           pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Integer(1)},
					"N":            pdf.Integer(1),
				},
				"Extend": pdf.Array{pdf.Bool(true), pdf.Bool(true)},
			},
		},
	}
	img := renderSnippet(t, 200, 200, res, "/Sh0 sh", nil)

	r, _, b, _ := pixel(img, 5, 100)
	if r < 200 || b > 60 {
		t.Errorf("left edge: got red %d, blue %d, want mostly red", r, b)
	}
	r, _, b, _ = pixel(img, 195, 100)
	if b < 200 || r > 60 {
		t.Errorf("right edge: got red %d, blue %d, want mostly blue", r, b)
	}
}

func TestShadingFunctionArity(t *testing.T) {
	data := pdf.NewData(pdf.V1_7)

	// a calculator function with two inputs cannot drive a shading
	fnRef := data.Alloc()
	data.Put(fnRef, &pdf.Stream{
		Dict: pdf.Dict{
			"FunctionType": pdf.Integer(4),
			"Domain": pdf.Array{
				pdf.Integer(0), pdf.Integer(1),
				pdf.Integer(0), pdf.Integer(1),
			},
			"Range": pdf.Array{pdf.Integer(0), pdf.Integer(1)},
		},
		R: bytes.NewReader([]byte("{ add }")),
	})

	contRef := data.Alloc()
	data.Put(contRef, &pdf.Stream{
		Dict: pdf.Dict{},
		R:    bytes.NewReader([]byte("/Sh0 sh 0 0 1 rg 100 100 50 50 re f")),
	})

	pageDict := pdf.Dict{
		"Type":     pdf.Name("Page"),
		"MediaBox": pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Integer(200), pdf.Integer(200)},
		"Contents": contRef,
		"Resources": pdf.Dict{
			"Shading": pdf.Dict{
				"Sh0": pdf.Dict{
					"ShadingType": pdf.Integer(2),
					"ColorSpace":  pdf.Name("DeviceGray"),
					"Coords": pdf.Array{
						pdf.Integer(0), pdf.Integer(0),
						pdf.Integer(200), pdf.Integer(0),
					},
					"Function": fnRef,
				},
			},
		},
	}

	var buf bytes.Buffer
	img, err := RenderPage(data, pageDict, &Options{Logger: log.New(&buf, "", 0)})
	if err != nil {
		t.Fatal(err)
	}

	// the shading is skipped with a diagnostic; rendering continues
	r, g, b, _ := pixel(img, 125, 75)
	if r != 0 || g != 0 || b != 255 {
		t.Errorf("got (%d, %d, %d), want blue after skipped shading", r, g, b)
	}
	r, g, b, _ = pixel(img, 25, 25)
	if r != 255 || g != 255 || b != 255 {
		t.Errorf("got (%d, %d, %d), want untouched white page", r, g, b)
	}
	if buf.Len() == 0 {
		t.Error("expected a diagnostic for the unusable shading function")
	}
}

func TestShadingPatternFill(t *testing.T) {
	res := pdf.Dict{
		"Pattern": pdf.Dict{
			"P0": pdf.Dict{
				"PatternType": pdf.Integer(2),
				"Shading": pdf.Dict{
					"ShadingType": pdf.Integer(2),
					"ColorSpace":  pdf.Name("DeviceRGB"),
					"Coords": pdf.Array{
						pdf.Integer(0), pdf.Integer(0),
						pdf.Integer(200), pdf.Integer(0),
					},
					"Function": pdf.Dict{
						"FunctionType": pdf.Integer(2),
						"Domain":       pdf.Array{pdf.Integer(0), pdf.Integer(1)},
						"C0":           pdf.Array{pdf.Integer(1), pdf.Integer(0), pdf.Integer(0)},
						"C1":           pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Integer(1)},
						"N":            pdf.Integer(1),
					},
					"Extend": pdf.Array{pdf.Bool(true), pdf.Bool(true)},
				},
			},
		},
	}
	content := "/Pattern cs /P0 scn 20 50 160 100 re f"
	img := renderSnippet(t, 200, 200, res, content, nil)

	// inside the rectangle the gradient runs from red to blue
	r, _, b, _ := pixel(img, 30, 100)
	if r < 200 || b > 60 {
		t.Errorf("left of gradient: got red %d, blue %d, want mostly red", r, b)
	}
	r, _, b, _ = pixel(img, 170, 100)
	if b < 200 || r > 60 {
		t.Errorf("right of gradient: got red %d, blue %d, want mostly blue", r, b)
	}

	// outside the rectangle the page stays white
	r, g, b, _ := pixel(img, 10, 100)
	if r != 255 || g != 255 || b != 255 {
		t.Errorf("left of rect: got (%d, %d, %d), want white", r, g, b)
	}
	r, g, b, _ = pixel(img, 100, 25)
	if r != 255 || g != 255 || b != 255 {
		t.Errorf("above rect: got (%d, %d, %d), want white", r, g, b)
	}
}

func TestTextShowOutsideTextObject(t *testing.T) {
	var buf bytes.Buffer
	opt := &Options{Logger: log.New(&buf, "", 0)}

	content := "(abc) Tj 0 0 1 rg 100 100 50 50 re f"
	img := renderSnippet(t, 200, 200, nil, content, opt)

	r, g, b, _ := pixel(img, 125, 75)
	if r != 0 || g != 0 || b != 255 {
		t.Errorf("got (%d, %d, %d), want blue", r, g, b)
	}

	msg := buf.String()
	if !strings.Contains(msg, "text object") {
		t.Errorf("diagnostic does not name the condition: %q", msg)
	}
	if strings.Contains(msg, "missing string") {
		t.Errorf("wrong diagnostic for a well-formed operand: %q", msg)
	}
}

func TestInlineImage(t *testing.T) {
	var content bytes.Buffer
	content.WriteString("q 100 0 0 100 50 50 cm ")
	content.WriteString("BI /W 2 /H 2 /CS /RGB /BPC 8 ID ")
	for range 4 {
		content.Write([]byte{0xFF, 0x00, 0x00})
	}
	content.WriteString("\nEI Q")

	img := renderSnippet(t, 200, 200, nil, content.String(), nil)

	// the image covers user space 50..150 in both directions
	r, g, b, _ := pixel(img, 100, 100)
	if r != 255 || g != 0 || b != 0 {
		t.Errorf("inside image: got (%d, %d, %d), want red", r, g, b)
	}
	r, g, b, _ = pixel(img, 25, 25)
	if r != 255 || g != 255 || b != 255 {
		t.Errorf("outside image: got (%d, %d, %d), want white", r, g, b)
	}
}

func TestPageRotation(t *testing.T) {
	data := pdf.NewData(pdf.V1_7)
	contRef := data.Alloc()
	data.Put(contRef, &pdf.Stream{
		Dict: pdf.Dict{},
		R:    bytes.NewReader([]byte("0 0 1 rg 0 0 10 10 re f")),
	})
	pageDict := pdf.Dict{
		"Type":     pdf.Name("Page"),
		"MediaBox": pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Integer(100), pdf.Integer(200)},
		"Rotate":   pdf.Integer(90),
		"Contents": contRef,
	}

	img, err := RenderPage(data, pageDict, &Options{Logger: log.New(io.Discard, "", 0)})
	if err != nil {
		t.Fatal(err)
	}

	bounds := img.Bounds()
	if bounds.Dx() != 200 || bounds.Dy() != 100 {
		t.Fatalf("got %dx%d canvas, want 200x100", bounds.Dx(), bounds.Dy())
	}

	// user space origin maps to the top left corner for Rotate 90
	r, g, b, _ := pixel(img, 5, 5)
	if r != 0 || g != 0 || b != 255 {
		t.Errorf("got (%d, %d, %d), want blue at rotated origin", r, g, b)
	}
}

func TestDPIScaling(t *testing.T) {
	content := "0 0 1 rg 0 0 50 50 re f"
	img := renderSnippet(t, 100, 100, nil, content, &Options{DPI: 144})

	bounds := img.Bounds()
	if bounds.Dx() != 200 || bounds.Dy() != 200 {
		t.Fatalf("got %dx%d canvas, want 200x200", bounds.Dx(), bounds.Dy())
	}

	// the square covers device pixels 0..100 horizontally, 100..200
	// vertically
	r, g, b, _ := pixel(img, 50, 150)
	if r != 0 || g != 0 || b != 255 {
		t.Errorf("got (%d, %d, %d), want blue", r, g, b)
	}
}

func TestEmptyPage(t *testing.T) {
	data := pdf.NewData(pdf.V1_7)
	pageDict := pdf.Dict{
		"Type":     pdf.Name("Page"),
		"MediaBox": pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Integer(50), pdf.Integer(50)},
	}
	img, err := RenderPage(data, pageDict, &Options{Logger: log.New(io.Discard, "", 0)})
	if err != nil {
		t.Fatal(err)
	}
	r, g, b, a := pixel(img, 25, 25)
	if r != 255 || g != 255 || b != 255 || a != 255 {
		t.Errorf("got (%d, %d, %d, %d), want opaque white", r, g, b, a)
	}
}
