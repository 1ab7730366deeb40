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
	"errors"
	"fmt"
	"image"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/graphics"
	"seehuhn.de/go/pdf/graphics/content"

	"seehuhn.de/go/pdfrender/glyphs"
)

func (ip *interp) setFont(op content.Operator) {
	if len(op.Args) < 2 {
		ip.diag(&StructuralOperandError{Op: "Tf", Reason: "too few operands"})
		return
	}
	name, ok1 := op.Args[0].(pdf.Name)
	size, ok2 := getNumber(op.Args[1])
	if !ok1 || !ok2 {
		ip.diag(&StructuralOperandError{Op: "Tf", Reason: "bad operands"})
		return
	}

	obj, err := ip.resource("Font", name)
	if err != nil {
		ip.diag(err)
		return
	}
	f, err := ip.fonts.Font(obj)
	if err != nil {
		ip.diag(fmt.Errorf("font %q: %w", name, err))
		return
	}
	ip.state.Font = f
	ip.state.FontSize = size
}

// nextLine moves to the start of the next text line (T*, ' and ").
func (ip *interp) nextLine() {
	ip.tlm = matrix.Translate(0, -ip.state.Leading).Mul(ip.tlm)
	ip.tm = ip.tlm
}

// showText paints the glyphs of one string and advances the text
// matrix.
func (ip *interp) showText(s pdf.String) error {
	f := ip.state.Font
	if f == nil {
		ip.diag(errors.New("text shown with no font selected"))
		return nil
	}

	fs := ip.state.FontSize
	th := ip.state.HorizScaling

	for _, code := range f.Codes(s) {
		if err := ip.drawGlyph(f, code); err != nil {
			return err
		}

		w := code.Width*fs + ip.state.CharSpacing
		if f.Kind != glyphs.Composite && code.CID == 32 {
			w += ip.state.WordSpacing
		}
		if f.WritingMode() == 0 {
			ip.tm = matrix.Translate(w*th, 0).Mul(ip.tm)
		} else {
			ip.tm = matrix.Translate(0, w).Mul(ip.tm)
		}
	}
	return nil
}

// showTextArray implements TJ: strings paint glyphs, numbers adjust the
// text position by thousandths of the font size.
func (ip *interp) showTextArray(arr pdf.Array) error {
	for _, elem := range arr {
		switch elem := elem.(type) {
		case pdf.String:
			if err := ip.showText(elem); err != nil {
				return err
			}
		default:
			d, ok := getNumber(elem)
			if !ok {
				continue
			}
			d = d / 1000 * ip.state.FontSize
			if f := ip.state.Font; f != nil && f.WritingMode() == 1 {
				ip.tm = matrix.Translate(0, -d).Mul(ip.tm)
			} else {
				ip.tm = matrix.Translate(-d*ip.state.HorizScaling, 0).Mul(ip.tm)
			}
		}
	}
	return nil
}

// drawGlyph paints a single glyph according to the text rendering mode.
func (ip *interp) drawGlyph(f *glyphs.Font, code glyphs.Code) error {
	mode := ip.state.RenderMode
	if mode == graphics.TextRenderingModeInvisible {
		return nil
	}

	if f.Kind == glyphs.Type3 {
		return ip.drawType3Glyph(f, code)
	}

	outline := ip.fonts.Outline(f, code.CID)
	if outline == nil {
		return nil
	}

	fs := ip.state.FontSize
	// glyph space is 1000 units per em
	m0 := matrix.Matrix{
		fs * ip.state.HorizScaling / 1000, 0,
		0, fs / 1000,
		0, ip.state.Rise,
	}
	m := m0.Mul(ip.tm).Mul(ip.state.CTM)

	doFill := mode == graphics.TextRenderingModeFill ||
		mode == graphics.TextRenderingModeFillStroke ||
		mode == graphics.TextRenderingModeFillClip ||
		mode == graphics.TextRenderingModeFillStrokeClip
	doStroke := mode == graphics.TextRenderingModeStroke ||
		mode == graphics.TextRenderingModeFillStroke ||
		mode == graphics.TextRenderingModeStrokeClip ||
		mode == graphics.TextRenderingModeFillStrokeClip
	doClip := mode >= graphics.TextRenderingModeFillClip

	if doFill && marksVisible(ip.state.FillSpace) {
		r, g, b := ip.state.FillSpace.RGB(ip.state.FillColor)
		ip.fillWith(outline, m, r, g, b, ip.state.FillAlpha)
	}

	if doStroke && marksVisible(ip.state.StrokeSpace) && fs > 0 {
		r, g, b := ip.state.StrokeSpace.RGB(ip.state.StrokeColor)
		rast := ip.rast
		rast.CTM = m
		rast.Clip = ip.page
		// the line width is given in text space, the outline in glyph space
		rast.Width = ip.state.LineWidth * 1000 / fs
		if rast.Width <= 0 {
			rast.Width = 1
		}
		rast.Cap = ip.state.LineCap
		rast.Join = ip.state.LineJoin
		rast.MiterLimit = ip.state.MiterLimit
		rast.Dash = nil
		rast.Stroke(outline, func(y, xMin int, cov []float32) {
			ip.paintRow(y, xMin, cov, r, g, b, ip.state.StrokeAlpha)
		})
	}

	if doClip {
		if ip.textClip == nil {
			ip.textClip = image.NewAlpha(ip.canvas.Bounds())
		}
		rast := ip.rast
		rast.CTM = m
		rast.Clip = ip.page
		rast.Fill(outline, false, func(y, xMin int, cov []float32) {
			accumulateRow(ip.textClip, y, xMin, cov)
		})
	}
	return nil
}

// drawType3Glyph executes the glyph description of a Type 3 glyph as a
// nested content stream.
func (ip *interp) drawType3Glyph(f *glyphs.Font, code glyphs.Code) error {
	proc := f.CharProc(byte(code.CID))
	if proc == nil {
		return nil
	}
	stm, err := pdf.GetStream(ip.r, proc)
	if err != nil {
		ip.diag(err)
		return nil
	}
	if stm == nil {
		return nil
	}
	body, err := pdf.DecodeStream(ip.r, stm, 0)
	if err != nil {
		ip.diag(err)
		return nil
	}
	defer body.Close()

	fs := ip.state.FontSize
	m := f.FontMatrix.
		Mul(matrix.Matrix{fs * ip.state.HorizScaling, 0, 0, fs, 0, ip.state.Rise}).
		Mul(ip.tm).
		Mul(ip.state.CTM)

	res := f.Resources
	if res == nil {
		res = ip.res
	}
	return ip.runNested(body, res, m)
}
