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
	"slices"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/graphics"

	"seehuhn.de/go/pdfrender/colorspace"
	"seehuhn.de/go/pdfrender/glyphs"
)

// BlendMode selects how painted colors combine with the backdrop.
// Modes beyond these fall back to BlendNormal.
type BlendMode int

const (
	BlendNormal BlendMode = iota
	BlendMultiply
	BlendScreen
)

// State is the PDF graphics state. Values of this type are saved and
// restored by the q and Q operators.
type State struct {
	CTM matrix.Matrix // user space to device pixels

	StrokeSpace colorspace.Space
	StrokeColor []float64
	FillSpace   colorspace.Space
	FillColor   []float64

	// StrokePattern and FillPattern name the current pattern when the
	// corresponding color space is a pattern space. Empty means no
	// pattern has been selected.
	StrokePattern pdf.Name
	FillPattern   pdf.Name

	LineWidth  float64
	LineCap    graphics.LineCapStyle
	LineJoin   graphics.LineJoinStyle
	MiterLimit float64
	Dash       []float64
	DashPhase  float64

	StrokeAlpha float64
	FillAlpha   float64
	Blend       BlendMode

	// SoftMask modulates all painting per pixel. Nil means no mask.
	SoftMask *image.Alpha

	// Clip is the committed clip region as a device-space alpha mask.
	// Nil clips to the page only.
	Clip *image.Alpha

	// text state, kept across BT/ET
	CharSpacing  float64
	WordSpacing  float64
	HorizScaling float64 // Tz value / 100
	Leading      float64
	Rise         float64
	RenderMode   graphics.TextRenderingMode
	Font         *glyphs.Font
	FontSize     float64
}

// newState returns the graphics state at the start of a content stream.
func newState(ctm matrix.Matrix) State {
	return State{
		CTM: ctm,

		StrokeSpace: colorspace.DeviceGray,
		StrokeColor: []float64{0},
		FillSpace:   colorspace.DeviceGray,
		FillColor:   []float64{0},

		LineWidth:  1,
		LineCap:    graphics.LineCapButt,
		LineJoin:   graphics.LineJoinMiter,
		MiterLimit: 10,

		StrokeAlpha: 1,
		FillAlpha:   1,

		HorizScaling: 1,
	}
}

// Clone returns an independent copy of the state. Masks are shared;
// they are immutable once committed.
func (s *State) Clone() State {
	res := *s
	res.StrokeColor = slices.Clone(s.StrokeColor)
	res.FillColor = slices.Clone(s.FillColor)
	res.Dash = slices.Clone(s.Dash)
	return res
}
