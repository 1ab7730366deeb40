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
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/graphics"

	"seehuhn.de/go/pdfrender/function"
)

// nestedSnapshot captures the interpreter state which nested content
// streams (forms, Type 3 glyphs, soft mask groups) must not leak.
type nestedSnapshot struct {
	state       State
	stackLen    int
	cmds        []path.Command
	coords      []vec.Vec2
	pendingClip clipRule
	inText      bool
	tm, tlm     matrix.Matrix
	textClip    *image.Alpha
	baseCTM     matrix.Matrix
}

func (ip *interp) snapshot() nestedSnapshot {
	return nestedSnapshot{
		state:       ip.state.Clone(),
		stackLen:    len(ip.stack),
		cmds:        ip.path.Cmds,
		coords:      ip.path.Coords,
		pendingClip: ip.pendingClip,
		inText:      ip.inText,
		tm:          ip.tm,
		tlm:         ip.tlm,
		textClip:    ip.textClip,
		baseCTM:     ip.baseCTM,
	}
}

func (ip *interp) restore(s nestedSnapshot) {
	ip.state = s.state
	if len(ip.stack) > s.stackLen {
		ip.stack = ip.stack[:s.stackLen]
	}
	ip.path.Cmds = s.cmds
	ip.path.Coords = s.coords
	ip.pendingClip = s.pendingClip
	ip.inText = s.inText
	ip.tm = s.tm
	ip.tlm = s.tlm
	ip.textClip = s.textClip
	ip.baseCTM = s.baseCTM
}

// runNested executes a nested content stream under the given CTM,
// guarding against unbounded recursion and restoring interpreter state
// afterwards.
func (ip *interp) runNested(body io.Reader, res pdf.Dict, ctm matrix.Matrix) error {
	if ip.depth >= ip.maxDepth {
		ip.diag(&RecursionLimitError{Depth: ip.maxDepth})
		return nil
	}
	ip.depth++
	defer func() { ip.depth-- }()

	saved := ip.snapshot()
	defer ip.restore(saved)

	ip.state.CTM = ctm
	ip.baseCTM = ctm
	ip.path.Cmds = nil
	ip.path.Coords = nil
	ip.pendingClip = clipNone
	ip.inText = false
	ip.textClip = nil

	return ip.run(body, res)
}

// doXObject implements the Do operator.
func (ip *interp) doXObject(name pdf.Name) error {
	obj, err := ip.resource("XObject", name)
	if err != nil {
		ip.diag(err)
		return nil
	}
	stm, err := pdf.GetStream(ip.r, obj)
	if err != nil {
		ip.diag(err)
		return nil
	}
	if stm == nil {
		ip.diag(&ResourceMissingError{Kind: "XObject", Name: string(name)})
		return nil
	}

	subtype, err := pdf.GetName(ip.r, stm.Dict["Subtype"])
	if err != nil {
		ip.diag(err)
		return nil
	}
	switch subtype {
	case "Image":
		return ip.drawImage(stm)
	case "Form":
		return ip.drawForm(stm)
	default:
		ip.diag(&UnsupportedError{Feature: fmt.Sprintf("XObject subtype %q", subtype)})
		return nil
	}
}

// drawForm executes a Form XObject. Forms with a transparency group
// render into an isolated buffer which is composited with the current
// alpha and soft mask.
func (ip *interp) drawForm(stm *pdf.Stream) error {
	m := matrix.Identity
	if fm, err := getMatrix(ip.r, stm.Dict["Matrix"]); err == nil && fm != nil {
		m = *fm
	}
	ctm := m.Mul(ip.state.CTM)

	res, err := pdf.GetDict(ip.r, stm.Dict["Resources"])
	if err != nil {
		ip.diag(err)
		return nil
	}
	if res == nil {
		res = ip.res
	}

	bboxClip, err := ip.formBBoxMask(stm.Dict["BBox"], ctm)
	if err != nil {
		ip.diag(err)
		return nil
	}

	group, err := pdf.GetDict(ip.r, stm.Dict["Group"])
	if err != nil {
		ip.diag(err)
		group = nil
	}
	groupType, _ := pdf.GetName(ip.r, group["S"])
	isolate := groupType == "Transparency" &&
		(ip.state.SoftMask != nil || ip.state.FillAlpha < 1 || ip.state.Blend != BlendNormal)

	body, err := pdf.DecodeStream(ip.r, stm, 0)
	if err != nil {
		ip.diag(err)
		return nil
	}
	defer body.Close()

	if !isolate {
		saved := ip.snapshot()
		ip.state.Clip = intersectMasks(ip.state.Clip, bboxClip)
		err := ip.runNested(body, res, ctm)
		ip.restore(saved)
		return err
	}

	// isolated transparency group: transparent backdrop, neutral
	// group-local state, composite the result as a whole
	buf := image.NewRGBA(ip.canvas.Bounds())
	savedCanvas := ip.canvas
	saved := ip.snapshot()

	ip.canvas = buf
	ip.state.Clip = intersectMasks(ip.state.Clip, bboxClip)
	ip.state.FillAlpha = 1
	ip.state.StrokeAlpha = 1
	ip.state.Blend = BlendNormal
	sm := ip.state.SoftMask
	alpha := saved.state.FillAlpha
	ip.state.SoftMask = nil

	runErr := ip.runNested(body, res, ctm)

	ip.canvas = savedCanvas
	ip.restore(saved)
	if runErr != nil {
		return runErr
	}

	ip.compositeGroup(buf, alpha, sm)
	return nil
}

// formBBoxMask rasterizes the form bounding box under the given matrix
// into a clip mask. A missing BBox yields no extra clipping.
func (ip *interp) formBBoxMask(obj pdf.Object, ctm matrix.Matrix) (*image.Alpha, error) {
	arr, err := pdf.GetArray(ip.r, obj)
	if err != nil {
		return nil, err
	}
	if len(arr) != 4 {
		return nil, nil
	}
	var v [4]float64
	for i, elem := range arr {
		x, err := pdf.GetNumber(ip.r, elem)
		if err != nil {
			return nil, err
		}
		v[i] = float64(x)
	}

	box := &path.Data{}
	box.Cmds = []path.Command{path.CmdMoveTo, path.CmdLineTo, path.CmdLineTo, path.CmdLineTo, path.CmdClose}
	box.Coords = []vec.Vec2{
		{X: v[0], Y: v[1]}, {X: v[2], Y: v[1]},
		{X: v[2], Y: v[3]}, {X: v[0], Y: v[3]},
	}

	rast := ip.rast
	rast.CTM = ctm
	rast.Clip = ip.page
	return rast.Mask(box, false), nil
}

// compositeGroup paints a premultiplied group buffer onto the canvas,
// modulated by a constant alpha and an optional soft mask.
func (ip *interp) compositeGroup(group *image.RGBA, alpha float64, sm *image.Alpha) {
	b := group.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			off := (y-b.Min.Y)*group.Stride + (x-b.Min.X)*4
			src := group.Pix[off : off+4 : off+4]
			if src[3] == 0 {
				continue
			}

			a := alpha
			if sm != nil {
				a *= alphaAt(sm, x, y)
			}
			if a <= 0 {
				continue
			}

			dst := ip.canvas.Pix[off : off+4 : off+4]
			for i := range 4 {
				s := float64(src[i]) / 255 * a
				d := float64(dst[i]) / 255
				sa := float64(src[3]) / 255 * a
				dst[i] = uint8((s+d*(1-sa))*255 + 0.5)
			}
		}
	}
}

// applyExtGState implements the gs operator.
func (ip *interp) applyExtGState(name pdf.Name) error {
	obj, err := ip.resource("ExtGState", name)
	if err != nil {
		ip.diag(err)
		return nil
	}
	dict, err := pdf.GetDict(ip.r, obj)
	if err != nil {
		ip.diag(err)
		return nil
	}

	if x, err := pdf.GetNumber(ip.r, dict["LW"]); err == nil && dict["LW"] != nil {
		ip.state.LineWidth = float64(x)
	}
	if x, err := pdf.GetInteger(ip.r, dict["LC"]); err == nil && dict["LC"] != nil && x >= 0 && x <= 2 {
		ip.state.LineCap = graphics.LineCapStyle(x)
	}
	if x, err := pdf.GetInteger(ip.r, dict["LJ"]); err == nil && dict["LJ"] != nil && x >= 0 && x <= 2 {
		ip.state.LineJoin = graphics.LineJoinStyle(x)
	}
	if x, err := pdf.GetNumber(ip.r, dict["ML"]); err == nil && dict["ML"] != nil {
		ip.state.MiterLimit = float64(x)
	}
	if arr, err := pdf.GetArray(ip.r, dict["D"]); err == nil && len(arr) == 2 {
		dashArr, err1 := pdf.GetArray(ip.r, arr[0])
		phase, err2 := pdf.GetNumber(ip.r, arr[1])
		if err1 == nil && err2 == nil {
			dash := make([]float64, 0, len(dashArr))
			ok := true
			for _, elem := range dashArr {
				x, err := pdf.GetNumber(ip.r, elem)
				if err != nil || x < 0 {
					ok = false
					break
				}
				dash = append(dash, float64(x))
			}
			if ok {
				ip.state.Dash = dash
				ip.state.DashPhase = float64(phase)
			}
		}
	}
	if arr, err := pdf.GetArray(ip.r, dict["Font"]); err == nil && len(arr) == 2 {
		size, err2 := pdf.GetNumber(ip.r, arr[1])
		f, err1 := ip.fonts.Font(arr[0])
		if err1 == nil && err2 == nil {
			ip.state.Font = f
			ip.state.FontSize = float64(size)
		} else {
			ip.diag(fmt.Errorf("gs %q: bad /Font entry", name))
		}
	}
	if x, err := pdf.GetNumber(ip.r, dict["CA"]); err == nil && dict["CA"] != nil {
		ip.state.StrokeAlpha = clamp01(float64(x))
	}
	if x, err := pdf.GetNumber(ip.r, dict["ca"]); err == nil && dict["ca"] != nil {
		ip.state.FillAlpha = clamp01(float64(x))
	}
	if dict["BM"] != nil {
		ip.setBlendMode(dict["BM"])
	}
	if dict["SMask"] != nil {
		if err := ip.setSoftMask(dict["SMask"]); err != nil {
			return err
		}
	}
	return nil
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// setBlendMode maps a /BM entry to a blend mode. Unsupported modes fall
// back to Normal with a diagnostic.
func (ip *interp) setBlendMode(obj pdf.Object) {
	name, err := pdf.GetName(ip.r, obj)
	if err != nil {
		if arr, err := pdf.GetArray(ip.r, obj); err == nil && len(arr) > 0 {
			name, _ = pdf.GetName(ip.r, arr[0])
		}
	}
	switch name {
	case "Normal", "Compatible", "":
		ip.state.Blend = BlendNormal
	case "Multiply":
		ip.state.Blend = BlendMultiply
	case "Screen":
		ip.state.Blend = BlendScreen
	default:
		ip.diag(&UnsupportedError{Feature: fmt.Sprintf("blend mode %q", name)})
		ip.state.Blend = BlendNormal
	}
}

// setSoftMask implements the /SMask entry of an ExtGState dictionary:
// either the name None, or a luminosity/alpha group mask.
func (ip *interp) setSoftMask(obj pdf.Object) error {
	resolved, err := pdf.Resolve(ip.r, obj)
	if err != nil {
		ip.diag(err)
		return nil
	}
	if name, ok := resolved.(pdf.Name); ok {
		if name != "None" {
			ip.diag(&StructuralOperandError{Op: "gs", Reason: fmt.Sprintf("bad SMask name %q", name)})
		}
		ip.state.SoftMask = nil
		return nil
	}

	dict, ok := resolved.(pdf.Dict)
	if !ok {
		ip.diag(&StructuralOperandError{Op: "gs", Reason: "SMask is not a dictionary"})
		return nil
	}

	maskType, _ := pdf.GetName(ip.r, dict["S"])
	if maskType != "Luminosity" && maskType != "Alpha" {
		ip.diag(&UnsupportedError{Feature: fmt.Sprintf("soft mask type %q", maskType)})
		ip.state.SoftMask = nil
		return nil
	}

	form, err := pdf.GetStream(ip.r, dict["G"])
	if err != nil || form == nil {
		ip.diag(&StructuralOperandError{Op: "gs", Reason: "SMask without group"})
		return nil
	}

	mask, err := ip.renderMaskGroup(form, maskType == "Luminosity")
	if err != nil {
		return err
	}
	if mask == nil {
		return nil
	}

	if trObj := dict["TR"]; trObj != nil {
		if name, err := pdf.GetName(ip.r, trObj); err != nil || name != "Identity" {
			if fn, err := function.Read(ip.r, trObj); err == nil {
				if m, n := fn.Shape(); m == 1 && n == 1 {
					applyTransfer(mask, fn)
				}
			} else {
				ip.diag(err)
			}
		}
	}

	ip.state.SoftMask = mask
	return nil
}

// renderMaskGroup renders a soft mask group and converts it to an alpha
// mask, using either the group's luminosity over a black backdrop or
// its alpha channel.
func (ip *interp) renderMaskGroup(form *pdf.Stream, luminosity bool) (*image.Alpha, error) {
	buf := image.NewRGBA(ip.canvas.Bounds())
	if luminosity {
		draw.Draw(buf, buf.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	}

	m := matrix.Identity
	if fm, err := getMatrix(ip.r, form.Dict["Matrix"]); err == nil && fm != nil {
		m = *fm
	}
	ctm := m.Mul(ip.state.CTM)

	res, err := pdf.GetDict(ip.r, form.Dict["Resources"])
	if err != nil {
		ip.diag(err)
		return nil, nil
	}
	if res == nil {
		res = ip.res
	}

	bboxClip, err := ip.formBBoxMask(form.Dict["BBox"], ctm)
	if err != nil {
		ip.diag(err)
		return nil, nil
	}

	body, err := pdf.DecodeStream(ip.r, form, 0)
	if err != nil {
		ip.diag(err)
		return nil, nil
	}
	defer body.Close()

	savedCanvas := ip.canvas
	saved := ip.snapshot()
	ip.canvas = buf
	ip.state.Clip = bboxClip
	ip.state.SoftMask = nil
	ip.state.FillAlpha = 1
	ip.state.StrokeAlpha = 1
	ip.state.Blend = BlendNormal

	runErr := ip.runNested(body, res, ctm)

	ip.canvas = savedCanvas
	ip.restore(saved)
	if runErr != nil {
		return nil, runErr
	}

	mask := image.NewAlpha(buf.Bounds())
	n := len(mask.Pix)
	for i := range n {
		src := buf.Pix[4*i : 4*i+4]
		if luminosity {
			// Rec. 601 luminosity of the premultiplied group color
			y := 0.299*float64(src[0]) + 0.587*float64(src[1]) + 0.114*float64(src[2])
			mask.Pix[i] = uint8(y + 0.5)
		} else {
			mask.Pix[i] = src[3]
		}
	}
	return mask, nil
}

// applyTransfer maps mask values through a transfer function.
func applyTransfer(mask *image.Alpha, fn function.Func) {
	var lut [256]uint8
	for i := range lut {
		out := fn.Apply(float64(i) / 255)
		lut[i] = uint8(clamp01(out[0])*255 + 0.5)
	}
	for i, v := range mask.Pix {
		mask.Pix[i] = lut[v]
	}
}

func getMatrix(r pdf.Getter, obj pdf.Object) (*matrix.Matrix, error) {
	arr, err := pdf.GetArray(r, obj)
	if err != nil {
		return nil, err
	}
	if arr == nil {
		return nil, nil
	}
	if len(arr) != 6 {
		return nil, &pdf.MalformedFileError{
			Err: fmt.Errorf("expected matrix of length 6, got %d", len(arr)),
		}
	}
	var m matrix.Matrix
	for i, elem := range arr {
		x, err := pdf.GetNumber(r, elem)
		if err != nil {
			return nil, err
		}
		m[i] = float64(x)
	}
	return &m, nil
}
