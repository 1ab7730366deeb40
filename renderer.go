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

// Package pdfrender renders PDF pages to raster images.
//
// The renderer is deliberately forgiving: damaged or unsupported
// constructs in a content stream are skipped with a diagnostic and
// rendering continues, so that as much of a page as possible appears in
// the output. Only I/O errors abort rendering.
package pdfrender

import (
	"image"
	"image/draw"
	"log"
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/pagetree"
)

// Options control page rendering. The zero value selects sensible
// defaults.
type Options struct {
	// DPI is the output resolution in pixels per inch. Zero means 72,
	// i.e. one pixel per PDF unit.
	DPI float64

	// MaxFormDepth limits the nesting depth of form XObjects and
	// Type 3 glyph descriptions. Zero means 50.
	MaxFormDepth int

	// Logger receives diagnostics for skipped constructs. If nil, the
	// standard logger is used.
	Logger *log.Logger
}

const (
	defaultDPI          = 72.0
	defaultMaxFormDepth = 50
)

func (opt *Options) fill() *Options {
	res := &Options{}
	if opt != nil {
		*res = *opt
	}
	if res.DPI <= 0 {
		res.DPI = defaultDPI
	}
	if res.MaxFormDepth <= 0 {
		res.MaxFormDepth = defaultMaxFormDepth
	}
	if res.Logger == nil {
		res.Logger = log.Default()
	}
	return res
}

// RenderPage renders one page of a PDF document onto a white canvas.
// The page dictionary is typically obtained via [pagetree.GetPage].
func RenderPage(r pdf.Getter, pageDict pdf.Dict, opt *Options) (*image.RGBA, error) {
	opt = opt.fill()

	box := pageBox(r, pageDict)
	rotate := pageRotation(r, pageDict)

	scale := opt.DPI / 72
	pw := (box.URx - box.LLx) * scale
	ph := (box.URy - box.LLy) * scale

	var width, height int
	if rotate == 90 || rotate == 270 {
		width, height = pixelSize(ph), pixelSize(pw)
	} else {
		width, height = pixelSize(pw), pixelSize(ph)
	}

	ctm := deviceMatrix(box, scale, rotate)

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	res, err := pdf.GetDict(r, pageDict["Resources"])
	if err != nil {
		return nil, err
	}

	body, err := pagetree.ContentStream(r, pageDict)
	if err != nil {
		return nil, err
	}

	ip := newInterp(r, canvas, ctm, opt)
	if err := ip.run(body, res); err != nil {
		return nil, err
	}
	return canvas, nil
}

// pageBox determines the visible region of the page in PDF units: the
// CropBox intersected with the MediaBox, or the MediaBox alone if there
// is no usable CropBox. A page without a MediaBox is US Letter.
func pageBox(r pdf.Getter, pageDict pdf.Dict) *pdf.Rectangle {
	media, err := pdf.GetRectangle(r, pageDict["MediaBox"])
	if err != nil || media == nil || media.URx <= media.LLx || media.URy <= media.LLy {
		media = &pdf.Rectangle{LLx: 0, LLy: 0, URx: 612, URy: 792}
	}

	crop, err := pdf.GetRectangle(r, pageDict["CropBox"])
	if err != nil || crop == nil {
		return media
	}

	box := &pdf.Rectangle{
		LLx: math.Max(media.LLx, crop.LLx),
		LLy: math.Max(media.LLy, crop.LLy),
		URx: math.Min(media.URx, crop.URx),
		URy: math.Min(media.URy, crop.URy),
	}
	if box.URx <= box.LLx || box.URy <= box.LLy {
		return media
	}
	return box
}

func pageRotation(r pdf.Getter, pageDict pdf.Dict) int {
	rot, err := pdf.GetInteger(r, pageDict["Rotate"])
	if err != nil {
		return 0
	}
	x := int(rot) % 360
	if x < 0 {
		x += 360
	}
	switch x {
	case 90, 180, 270:
		return x
	}
	return 0
}

func pixelSize(x float64) int {
	n := int(math.Ceil(x))
	if n < 1 {
		n = 1
	}
	return n
}

// deviceMatrix maps user space (y up, origin at the page box corner) to
// device pixels (y down, origin at the top left), applying the page
// rotation.
func deviceMatrix(box *pdf.Rectangle, s float64, rotate int) matrix.Matrix {
	switch rotate {
	case 90:
		return matrix.Matrix{
			0, s,
			s, 0,
			-box.LLy * s, -box.LLx * s,
		}
	case 180:
		return matrix.Matrix{
			-s, 0,
			0, s,
			box.URx * s, -box.LLy * s,
		}
	case 270:
		return matrix.Matrix{
			0, -s,
			-s, 0,
			box.URy * s, box.URx * s,
		}
	default:
		return matrix.Matrix{
			s, 0,
			0, -s,
			-box.LLx * s, box.URy * s,
		}
	}
}
