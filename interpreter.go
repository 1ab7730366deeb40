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
	"image"
	"io"
	"log"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/graphics"
	"seehuhn.de/go/pdf/graphics/content"

	"seehuhn.de/go/pdfrender/colorspace"
	"seehuhn.de/go/pdfrender/glyphs"
	"seehuhn.de/go/pdfrender/raster"
)

type clipRule int

const (
	clipNone clipRule = iota
	clipNonZero
	clipEvenOdd
)

// interp executes content streams against a canvas. Broken constructs
// are skipped with a diagnostic; only I/O errors abort execution.
type interp struct {
	r      pdf.Getter
	canvas *image.RGBA
	page   rect.Rect // canvas bounds in device pixels

	state State
	stack []State

	res pdf.Dict // resource dictionary of the current stream

	// baseCTM is the transformation at the start of the current content
	// stream. Pattern matrices are relative to this space.
	baseCTM matrix.Matrix

	// current path construction state
	path           path.Data
	curX, curY     float64
	startX, startY float64
	pendingClip    clipRule

	// text object state
	inText   bool
	tm, tlm  matrix.Matrix
	textClip *image.Alpha // glyph coverage for clipping render modes

	fonts *glyphs.Provider
	rast  *raster.Rasterizer

	depth    int
	maxDepth int

	logger   *log.Logger
	reported map[string]bool
}

func newInterp(r pdf.Getter, canvas *image.RGBA, ctm matrix.Matrix, opt *Options) *interp {
	b := canvas.Bounds()
	page := rect.Rect{
		LLx: float64(b.Min.X), LLy: float64(b.Min.Y),
		URx: float64(b.Max.X), URy: float64(b.Max.Y),
	}
	ip := &interp{
		r:        r,
		canvas:   canvas,
		page:     page,
		state:    newState(ctm),
		baseCTM:  ctm,
		fonts:    glyphs.NewProvider(r, opt.Logger),
		rast:     raster.NewRasterizer(page),
		maxDepth: opt.MaxFormDepth,
		logger:   opt.Logger,
		reported: make(map[string]bool),
	}
	return ip
}

// diag reports a non-fatal rendering problem, at most once per unique
// message.
func (ip *interp) diag(err error) {
	if err == nil || ip.logger == nil {
		return
	}
	msg := err.Error()
	if ip.reported[msg] {
		return
	}
	ip.reported[msg] = true
	ip.logger.Print(msg)
}

// run parses and executes one content stream with the given resource
// dictionary.
func (ip *interp) run(body io.Reader, res pdf.Dict) error {
	ops, err := content.ReadStream(body)
	if err != nil {
		return err
	}
	return ip.exec(ops, res)
}

// exec executes a parsed operator sequence. The resource dictionary is
// restored when the stream ends.
func (ip *interp) exec(ops content.Stream, res pdf.Dict) error {
	savedRes := ip.res
	ip.res = res
	defer func() { ip.res = savedRes }()

	for _, op := range ops {
		if err := ip.do(op); err != nil {
			return err
		}
	}
	return nil
}

// resource looks up a named resource in the current resource dictionary.
func (ip *interp) resource(kind, name pdf.Name) (pdf.Object, error) {
	sub, err := pdf.GetDict(ip.r, ip.res[kind])
	if err != nil {
		return nil, err
	}
	obj, ok := sub[name]
	if !ok {
		return nil, &ResourceMissingError{Kind: string(kind), Name: string(name)}
	}
	return obj, nil
}

func getNumber(x pdf.Object) (float64, bool) {
	switch x := x.(type) {
	case pdf.Real:
		return float64(x), true
	case pdf.Integer:
		return float64(x), true
	case pdf.Number:
		return float64(x), true
	default:
		return 0, false
	}
}

// numbers converts the first n operands to float64, or reports a
// structural operand error.
func (ip *interp) numbers(op content.Operator, n int) ([]float64, bool) {
	if len(op.Args) < n {
		ip.diag(&StructuralOperandError{Op: string(op.Name), Reason: "too few operands"})
		return nil, false
	}
	res := make([]float64, n)
	for i := range n {
		x, ok := getNumber(op.Args[i])
		if !ok {
			ip.diag(&StructuralOperandError{Op: string(op.Name), Reason: "operand is not a number"})
			return nil, false
		}
		res[i] = x
	}
	return res, true
}

// diagOutsideText reports a text showing operator which appears outside
// of a BT .. ET text object. The operator is ignored.
func (ip *interp) diagOutsideText(op string) {
	ip.diag(&StructuralOperandError{Op: op, Reason: "text shown outside a text object"})
}

func (ip *interp) nameArg(op content.Operator) (pdf.Name, bool) {
	if len(op.Args) < 1 {
		ip.diag(&StructuralOperandError{Op: string(op.Name), Reason: "too few operands"})
		return "", false
	}
	name, ok := op.Args[0].(pdf.Name)
	if !ok {
		ip.diag(&StructuralOperandError{Op: string(op.Name), Reason: "operand is not a name"})
		return "", false
	}
	return name, true
}

// do executes a single operator. Operands are consumed whether or not
// the operator succeeds.
func (ip *interp) do(op content.Operator) error {
	switch op.Name {

	// == General graphics state =========================================

	case "q":
		ip.stack = append(ip.stack, ip.state.Clone())

	case "Q":
		if len(ip.stack) > 0 {
			ip.state = ip.stack[len(ip.stack)-1]
			ip.stack = ip.stack[:len(ip.stack)-1]
		}

	case "cm":
		if x, ok := ip.numbers(op, 6); ok {
			m := matrix.Matrix{x[0], x[1], x[2], x[3], x[4], x[5]}
			ip.state.CTM = m.Mul(ip.state.CTM)
		}

	case "w":
		if x, ok := ip.numbers(op, 1); ok && x[0] >= 0 {
			ip.state.LineWidth = x[0]
		}

	case "J":
		if x, ok := ip.numbers(op, 1); ok {
			c := graphics.LineCapStyle(x[0])
			if c > 2 {
				c = 0
			}
			ip.state.LineCap = c
		}

	case "j":
		if x, ok := ip.numbers(op, 1); ok {
			j := graphics.LineJoinStyle(x[0])
			if j > 2 {
				j = 0
			}
			ip.state.LineJoin = j
		}

	case "M":
		if x, ok := ip.numbers(op, 1); ok {
			ip.state.MiterLimit = x[0]
		}

	case "d":
		ip.setDash(op)

	case "ri", "i":
		// rendering intent and flatness have no effect here

	case "gs":
		if name, ok := ip.nameArg(op); ok {
			if err := ip.applyExtGState(name); err != nil {
				return err
			}
		}

	// == Path construction ==============================================

	case "m":
		if x, ok := ip.numbers(op, 2); ok {
			ip.moveTo(x[0], x[1])
		}

	case "l":
		if x, ok := ip.numbers(op, 2); ok {
			ip.lineTo(x[0], x[1])
		}

	case "c":
		if x, ok := ip.numbers(op, 6); ok {
			ip.curveTo(x[0], x[1], x[2], x[3], x[4], x[5])
		}

	case "v":
		if x, ok := ip.numbers(op, 4); ok {
			ip.curveTo(ip.curX, ip.curY, x[0], x[1], x[2], x[3])
		}

	case "y":
		if x, ok := ip.numbers(op, 4); ok {
			ip.curveTo(x[0], x[1], x[2], x[3], x[2], x[3])
		}

	case "h":
		ip.closePath()

	case "re":
		if x, ok := ip.numbers(op, 4); ok {
			ip.moveTo(x[0], x[1])
			ip.lineTo(x[0]+x[2], x[1])
			ip.lineTo(x[0]+x[2], x[1]+x[3])
			ip.lineTo(x[0], x[1]+x[3])
			ip.closePath()
		}

	// == Path painting ==================================================

	case "S":
		ip.paintPath(false, true, false)
	case "s":
		ip.closePath()
		ip.paintPath(false, true, false)
	case "f", "F":
		ip.paintPath(true, false, false)
	case "f*":
		ip.paintPath(true, false, true)
	case "B":
		ip.paintPath(true, true, false)
	case "B*":
		ip.paintPath(true, true, true)
	case "b":
		ip.closePath()
		ip.paintPath(true, true, false)
	case "b*":
		ip.closePath()
		ip.paintPath(true, true, true)
	case "n":
		ip.paintPath(false, false, false)

	// == Clipping =======================================================

	case "W":
		ip.pendingClip = clipNonZero
	case "W*":
		ip.pendingClip = clipEvenOdd

	// == Color ==========================================================

	case "CS":
		if name, ok := ip.nameArg(op); ok {
			ip.setColorSpace(name, true)
		}
	case "cs":
		if name, ok := ip.nameArg(op); ok {
			ip.setColorSpace(name, false)
		}
	case "SC", "SCN":
		ip.setColor(op, true)
	case "sc", "scn":
		ip.setColor(op, false)

	case "G":
		if x, ok := ip.numbers(op, 1); ok {
			ip.state.StrokeSpace = colorspace.DeviceGray
			ip.state.StrokeColor = x
		}
	case "g":
		if x, ok := ip.numbers(op, 1); ok {
			ip.state.FillSpace = colorspace.DeviceGray
			ip.state.FillColor = x
		}
	case "RG":
		if x, ok := ip.numbers(op, 3); ok {
			ip.state.StrokeSpace = colorspace.DeviceRGB
			ip.state.StrokeColor = x
		}
	case "rg":
		if x, ok := ip.numbers(op, 3); ok {
			ip.state.FillSpace = colorspace.DeviceRGB
			ip.state.FillColor = x
		}
	case "K":
		if x, ok := ip.numbers(op, 4); ok {
			ip.state.StrokeSpace = colorspace.DeviceCMYK
			ip.state.StrokeColor = x
		}
	case "k":
		if x, ok := ip.numbers(op, 4); ok {
			ip.state.FillSpace = colorspace.DeviceCMYK
			ip.state.FillColor = x
		}

	// == Text ===========================================================

	case "BT":
		ip.inText = true
		ip.tm = matrix.Identity
		ip.tlm = matrix.Identity

	case "ET":
		ip.inText = false
		ip.commitTextClip()

	case "Tc":
		if x, ok := ip.numbers(op, 1); ok {
			ip.state.CharSpacing = x[0]
		}
	case "Tw":
		if x, ok := ip.numbers(op, 1); ok {
			ip.state.WordSpacing = x[0]
		}
	case "Tz":
		if x, ok := ip.numbers(op, 1); ok {
			ip.state.HorizScaling = x[0] / 100
		}
	case "TL":
		if x, ok := ip.numbers(op, 1); ok {
			ip.state.Leading = x[0]
		}
	case "Ts":
		if x, ok := ip.numbers(op, 1); ok {
			ip.state.Rise = x[0]
		}
	case "Tr":
		if x, ok := ip.numbers(op, 1); ok {
			ip.state.RenderMode = graphics.TextRenderingMode(x[0])
		}
	case "Tf":
		ip.setFont(op)

	case "Td":
		if x, ok := ip.numbers(op, 2); ok && ip.inText {
			ip.tlm = matrix.Translate(x[0], x[1]).Mul(ip.tlm)
			ip.tm = ip.tlm
		}
	case "TD":
		if x, ok := ip.numbers(op, 2); ok && ip.inText {
			ip.state.Leading = -x[1]
			ip.tlm = matrix.Translate(x[0], x[1]).Mul(ip.tlm)
			ip.tm = ip.tlm
		}
	case "Tm":
		if x, ok := ip.numbers(op, 6); ok && ip.inText {
			ip.tm = matrix.Matrix{x[0], x[1], x[2], x[3], x[4], x[5]}
			ip.tlm = ip.tm
		}
	case "T*":
		if ip.inText {
			ip.nextLine()
		}

	case "Tj":
		if len(op.Args) >= 1 {
			if s, ok := op.Args[0].(pdf.String); ok {
				if !ip.inText {
					ip.diagOutsideText("Tj")
					return nil
				}
				return ip.showText(s)
			}
		}
		ip.diag(&StructuralOperandError{Op: "Tj", Reason: "missing string operand"})

	case "'":
		if len(op.Args) >= 1 {
			if s, ok := op.Args[0].(pdf.String); ok {
				if !ip.inText {
					ip.diagOutsideText("'")
					return nil
				}
				ip.nextLine()
				return ip.showText(s)
			}
		}
		ip.diag(&StructuralOperandError{Op: "'", Reason: "missing string operand"})

	case "\"":
		if len(op.Args) >= 3 {
			aw, ok1 := getNumber(op.Args[0])
			ac, ok2 := getNumber(op.Args[1])
			s, ok3 := op.Args[2].(pdf.String)
			if ok1 && ok2 && ok3 {
				if !ip.inText {
					ip.diagOutsideText("\"")
					return nil
				}
				ip.state.WordSpacing = aw
				ip.state.CharSpacing = ac
				ip.nextLine()
				return ip.showText(s)
			}
		}
		ip.diag(&StructuralOperandError{Op: "\"", Reason: "bad operands"})

	case "TJ":
		if len(op.Args) >= 1 {
			if arr, ok := op.Args[0].(pdf.Array); ok {
				if !ip.inText {
					ip.diagOutsideText("TJ")
					return nil
				}
				return ip.showTextArray(arr)
			}
		}
		ip.diag(&StructuralOperandError{Op: "TJ", Reason: "missing array operand"})

	case "d0", "d1":
		// Type 3 glyph metrics are taken from the font dictionary

	// == Shading ========================================================

	case "sh":
		if name, ok := ip.nameArg(op); ok {
			return ip.paintShading(name)
		}

	// == XObjects and images ============================================

	case "Do":
		if name, ok := ip.nameArg(op); ok {
			return ip.doXObject(name)
		}

	case content.OpInlineImage:
		if len(op.Args) >= 2 {
			dict, _ := op.Args[0].(pdf.Dict)
			data, _ := op.Args[1].(pdf.String)
			if dict != nil {
				return ip.drawInlineImage(dict, []byte(data))
			}
		}
		ip.diag(&StructuralOperandError{Op: "BI", Reason: "bad inline image"})

	// == Marked content and compatibility ===============================

	case "MP", "DP", "BMC", "BDC", "EMC", "BX", "EX":
		// no rendering effect

	default:
		// unknown operators are skipped
	}
	return nil
}

func (ip *interp) setDash(op content.Operator) {
	if len(op.Args) < 2 {
		ip.diag(&StructuralOperandError{Op: "d", Reason: "too few operands"})
		return
	}
	arr, ok := op.Args[0].(pdf.Array)
	if !ok {
		ip.diag(&StructuralOperandError{Op: "d", Reason: "operand is not an array"})
		return
	}
	phase, ok := getNumber(op.Args[1])
	if !ok {
		ip.diag(&StructuralOperandError{Op: "d", Reason: "phase is not a number"})
		return
	}
	var dash []float64
	for _, obj := range arr {
		x, ok := getNumber(obj)
		if !ok || x < 0 {
			ip.diag(&StructuralOperandError{Op: "d", Reason: "bad dash array"})
			return
		}
		dash = append(dash, x)
	}
	ip.state.Dash = dash
	ip.state.DashPhase = phase
}

// == path construction =====================================================

func (ip *interp) moveTo(x, y float64) {
	ip.path.Cmds = append(ip.path.Cmds, path.CmdMoveTo)
	ip.path.Coords = append(ip.path.Coords, vec.Vec2{X: x, Y: y})
	ip.curX, ip.curY = x, y
	ip.startX, ip.startY = x, y
}

func (ip *interp) lineTo(x, y float64) {
	ip.path.Cmds = append(ip.path.Cmds, path.CmdLineTo)
	ip.path.Coords = append(ip.path.Coords, vec.Vec2{X: x, Y: y})
	ip.curX, ip.curY = x, y
}

func (ip *interp) curveTo(x1, y1, x2, y2, x3, y3 float64) {
	ip.path.Cmds = append(ip.path.Cmds, path.CmdCubeTo)
	ip.path.Coords = append(ip.path.Coords,
		vec.Vec2{X: x1, Y: y1}, vec.Vec2{X: x2, Y: y2}, vec.Vec2{X: x3, Y: y3})
	ip.curX, ip.curY = x3, y3
}

func (ip *interp) closePath() {
	ip.path.Cmds = append(ip.path.Cmds, path.CmdClose)
	ip.curX, ip.curY = ip.startX, ip.startY
}

// == color operators =======================================================

func (ip *interp) setColorSpace(name pdf.Name, stroking bool) {
	var desc pdf.Object = name
	switch name {
	case "DeviceGray", "DeviceRGB", "DeviceCMYK", "Pattern":
		// device and pattern spaces are used directly by name
	default:
		obj, err := ip.resource("ColorSpace", name)
		if err != nil {
			ip.diag(err)
			return
		}
		desc = obj
	}

	s, err := colorspace.Read(ip.r, desc)
	if err != nil {
		ip.diag(err)
		return
	}
	if stroking {
		ip.state.StrokeSpace = s
		ip.state.StrokeColor = s.Default()
		ip.state.StrokePattern = ""
	} else {
		ip.state.FillSpace = s
		ip.state.FillColor = s.Default()
		ip.state.FillPattern = ""
	}
}

// setColor implements sc, scn, SC and SCN. The operands are the color
// components in the current color space; for pattern spaces the last
// operand is the pattern name.
func (ip *interp) setColor(op content.Operator, stroking bool) {
	space := ip.state.FillSpace
	if stroking {
		space = ip.state.StrokeSpace
	}

	args := op.Args
	if space.Family() == colorspace.FamilyPattern {
		// the trailing operand names the pattern to paint with
		if len(args) > 0 {
			if name, ok := args[len(args)-1].(pdf.Name); ok {
				args = args[:len(args)-1]
				if stroking {
					ip.state.StrokePattern = name
				} else {
					ip.state.FillPattern = name
				}
			}
		}
	}

	n := space.Channels()
	if len(args) != n {
		ip.diag(&StructuralOperandError{
			Op:     string(op.Name),
			Reason: "wrong number of color components",
		})
		return
	}
	comps := make([]float64, n)
	for i, obj := range args {
		x, ok := getNumber(obj)
		if !ok {
			ip.diag(&StructuralOperandError{
				Op:     string(op.Name),
				Reason: "component is not a number",
			})
			return
		}
		comps[i] = x
	}

	if stroking {
		ip.state.StrokeColor = comps
	} else {
		ip.state.FillColor = comps
	}
}
