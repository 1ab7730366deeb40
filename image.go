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
	"image/jpeg"
	"io"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"seehuhn.de/go/pdf"

	"seehuhn.de/go/pdfrender/colorspace"
)

// inlineImageKeys maps the abbreviated inline image dictionary keys to
// their full names.
var inlineImageKeys = map[pdf.Name]pdf.Name{
	"W":   "Width",
	"H":   "Height",
	"BPC": "BitsPerComponent",
	"CS":  "ColorSpace",
	"D":   "Decode",
	"DP":  "DecodeParms",
	"F":   "Filter",
	"IM":  "ImageMask",
	"I":   "Interpolate",
	"L":   "Length",
}

// drawInlineImage paints an image given by the BI/ID/EI operators. The
// image data is wrapped in a stream so that the normal filter chain
// applies.
func (ip *interp) drawInlineImage(dict pdf.Dict, data []byte) error {
	full := make(pdf.Dict, len(dict))
	for key, val := range dict {
		if long, ok := inlineImageKeys[key]; ok {
			key = long
		}
		full[key] = val
	}
	stm := &pdf.Stream{
		Dict: full,
		R:    bytes.NewReader(data),
	}
	return ip.drawImage(stm)
}

// drawImage paints an image XObject under the current transformation
// matrix, mapping the image onto the unit square in user space.
func (ip *interp) drawImage(stm *pdf.Stream) error {
	dict := stm.Dict

	width, err1 := pdf.GetInteger(ip.r, dict["Width"])
	height, err2 := pdf.GetInteger(ip.r, dict["Height"])
	if err1 != nil || err2 != nil || width <= 0 || height <= 0 {
		ip.diag(&StructuralOperandError{Op: "Do", Reason: "bad image dimensions"})
		return nil
	}
	w, h := int(width), int(height)

	isMask, _ := pdf.GetBool(ip.r, dict["ImageMask"])
	if isMask {
		return ip.drawStencil(stm, w, h)
	}

	src, err := ip.decodeImage(stm, w, h)
	if err != nil {
		ip.diag(err)
		return nil
	}
	if src == nil {
		return nil
	}

	if smObj := dict["SMask"]; smObj != nil {
		if sm, err := pdf.GetStream(ip.r, smObj); err == nil && sm != nil {
			if alpha := ip.decodeImageAlpha(sm); alpha != nil {
				applyImageAlpha(src, alpha)
			}
		} else if err != nil {
			ip.diag(err)
		}
	}

	ip.compositeImage(src)
	return nil
}

// compositeImage maps src onto the unit square under the CTM and draws
// it onto the canvas through clip, soft mask and the fill alpha.
func (ip *interp) compositeImage(src *image.RGBA) {
	m := ip.state.CTM
	w := float64(src.Bounds().Dx())
	h := float64(src.Bounds().Dy())

	// image row 0 is the top of the unit square
	aff := f64.Aff3{
		m[0] / w, -m[2] / h, m[2] + m[4],
		m[1] / w, -m[3] / h, m[3] + m[5],
	}

	mask := ip.paintMask(ip.state.FillAlpha)
	var opts *xdraw.Options
	if mask != nil {
		opts = &xdraw.Options{DstMask: mask, DstMaskP: image.Point{}}
	}
	xdraw.BiLinear.Transform(ip.canvas, aff, src, src.Bounds(), xdraw.Over, opts)
}

// paintMask combines the committed clip, the soft mask and a constant
// alpha into a single device-space mask. Nil means fully opaque.
func (ip *interp) paintMask(alpha float64) *image.Alpha {
	clip := ip.state.Clip
	sm := ip.state.SoftMask
	if clip == nil && sm == nil && alpha >= 1 {
		return nil
	}

	mask := image.NewAlpha(ip.canvas.Bounds())
	for y := mask.Rect.Min.Y; y < mask.Rect.Max.Y; y++ {
		for x := mask.Rect.Min.X; x < mask.Rect.Max.X; x++ {
			a := alpha
			if clip != nil {
				a *= alphaAt(clip, x, y)
			}
			if sm != nil {
				a *= alphaAt(sm, x, y)
			}
			mask.Pix[(y-mask.Rect.Min.Y)*mask.Stride+(x-mask.Rect.Min.X)] = uint8(clamp01(a)*255 + 0.5)
		}
	}
	return mask
}

// decodeImage converts the image stream into a premultiplied RGBA
// image. DCT-compressed data is decoded with image/jpeg; everything
// else is sampled per component through the image color space.
func (ip *interp) decodeImage(stm *pdf.Stream, w, h int) (*image.RGBA, error) {
	data, err := ip.imageBytes(stm)
	if err != nil {
		return nil, err
	}

	if len(data) >= 2 && data[0] == 0xFF && data[1] == 0xD8 && hasDCTFilter(ip.r, stm.Dict) {
		decoded, err := jpeg.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		rgba := image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.BiLinear.Scale(rgba, rgba.Bounds(), decoded, decoded.Bounds(), xdraw.Src, nil)
		return rgba, nil
	}

	space, err := ip.imageColorSpace(stm.Dict)
	if err != nil {
		return nil, err
	}

	bpc, err := pdf.GetInteger(ip.r, stm.Dict["BitsPerComponent"])
	if err != nil || !validBPC(int(bpc)) {
		return nil, &StructuralOperandError{Op: "Do", Reason: "bad BitsPerComponent"}
	}

	n := space.Channels()
	decode, err := ip.decodeArray(stm.Dict["Decode"], space, int(bpc))
	if err != nil {
		return nil, err
	}

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	comps := make([]float64, n)
	for y := range h {
		for x := range w {
			readImageSamples(data, w, n, int(bpc), x, y, decode, comps)
			r, g, b := space.RGB(comps)
			off := y*rgba.Stride + x*4
			rgba.Pix[off+0] = uint8(clamp01(r)*255 + 0.5)
			rgba.Pix[off+1] = uint8(clamp01(g)*255 + 0.5)
			rgba.Pix[off+2] = uint8(clamp01(b)*255 + 0.5)
			rgba.Pix[off+3] = 255
		}
	}
	return rgba, nil
}

// decodeImageAlpha decodes an image soft mask (a DeviceGray image whose
// samples are alpha values).
func (ip *interp) decodeImageAlpha(stm *pdf.Stream) *image.Alpha {
	width, err1 := pdf.GetInteger(ip.r, stm.Dict["Width"])
	height, err2 := pdf.GetInteger(ip.r, stm.Dict["Height"])
	bpc, err3 := pdf.GetInteger(ip.r, stm.Dict["BitsPerComponent"])
	if err1 != nil || err2 != nil || err3 != nil ||
		width <= 0 || height <= 0 || !validBPC(int(bpc)) {
		ip.diag(&StructuralOperandError{Op: "Do", Reason: "bad image soft mask"})
		return nil
	}
	w, h := int(width), int(height)

	data, err := ip.imageBytes(stm)
	if err != nil {
		ip.diag(err)
		return nil
	}

	decode := []float64{0, 1}
	if arr, err := pdf.GetArray(ip.r, stm.Dict["Decode"]); err == nil && len(arr) == 2 {
		d0, ok1 := getNumber(arr[0])
		d1, ok2 := getNumber(arr[1])
		if ok1 && ok2 {
			decode = []float64{d0, d1}
		}
	}

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	val := make([]float64, 1)
	for y := range h {
		for x := range w {
			readImageSamples(data, w, 1, int(bpc), x, y, decode, val)
			mask.Pix[y*mask.Stride+x] = uint8(clamp01(val[0])*255 + 0.5)
		}
	}
	return mask
}

// applyImageAlpha multiplies a soft mask into the image, premultiplying
// the color channels. The mask is resampled if its size differs.
func applyImageAlpha(img *image.RGBA, mask *image.Alpha) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	mw, mh := mask.Rect.Dx(), mask.Rect.Dy()
	for y := range h {
		my := y * mh / h
		for x := range w {
			mx := x * mw / w
			a := uint32(mask.Pix[my*mask.Stride+mx])
			off := y*img.Stride + x*4
			pix := img.Pix[off : off+4 : off+4]
			pix[0] = uint8(uint32(pix[0]) * a / 255)
			pix[1] = uint8(uint32(pix[1]) * a / 255)
			pix[2] = uint8(uint32(pix[2]) * a / 255)
			pix[3] = uint8(uint32(pix[3]) * a / 255)
		}
	}
}

// drawStencil paints a stencil mask image: 1-bit samples select where
// the current fill color is applied.
func (ip *interp) drawStencil(stm *pdf.Stream, w, h int) error {
	data, err := ip.imageBytes(stm)
	if err != nil {
		ip.diag(err)
		return nil
	}

	// with the default decode array, sample value 0 paints
	paintValue := uint8(0)
	if arr, err := pdf.GetArray(ip.r, stm.Dict["Decode"]); err == nil && len(arr) == 2 {
		if d0, ok := getNumber(arr[0]); ok && d0 == 1 {
			paintValue = 1
		}
	}

	stencil := image.NewAlpha(image.Rect(0, 0, w, h))
	rowBytes := (w + 7) / 8
	for y := range h {
		for x := range w {
			idx := y*rowBytes + x/8
			var bit uint8
			if idx < len(data) {
				bit = data[idx] >> (7 - x%8) & 1
			}
			if bit == paintValue {
				stencil.Pix[y*stencil.Stride+x] = 255
			}
		}
	}

	if !marksVisible(ip.state.FillSpace) {
		return nil
	}

	// map the stencil onto the page and paint the fill color through it
	m := ip.state.CTM
	aff := f64.Aff3{
		m[0] / float64(w), -m[2] / float64(h), m[2] + m[4],
		m[1] / float64(w), -m[3] / float64(h), m[3] + m[5],
	}
	pageMask := image.NewAlpha(ip.canvas.Bounds())
	xdraw.BiLinear.Transform(pageMask, aff, stencil, stencil.Bounds(), xdraw.Src, nil)

	r, g, b := ip.state.FillSpace.RGB(ip.state.FillColor)
	cov := make([]float32, pageMask.Rect.Dx())
	for y := pageMask.Rect.Min.Y; y < pageMask.Rect.Max.Y; y++ {
		row := pageMask.Pix[(y-pageMask.Rect.Min.Y)*pageMask.Stride:]
		for i := range cov {
			cov[i] = float32(row[i]) / 255
		}
		ip.paintRow(y, pageMask.Rect.Min.X, cov, r, g, b, ip.state.FillAlpha)
	}
	return nil
}

// imageBytes reads the decoded image data.
func (ip *interp) imageBytes(stm *pdf.Stream) ([]byte, error) {
	body, err := pdf.DecodeStream(ip.r, stm, 0)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
}

// imageColorSpace resolves the color space of an image, looking up
// named spaces in the resource dictionary if needed.
func (ip *interp) imageColorSpace(dict pdf.Dict) (colorspace.Space, error) {
	obj := dict["ColorSpace"]
	if obj == nil {
		return nil, &StructuralOperandError{Op: "Do", Reason: "image without color space"}
	}

	if name, err := pdf.GetName(ip.r, obj); err == nil {
		switch name {
		case "DeviceGray", "DeviceRGB", "DeviceCMYK", "G", "RGB", "CMYK":
			// handled directly below
		default:
			if res, err := ip.resource("ColorSpace", name); err == nil {
				obj = res
			}
		}
	}

	space, err := colorspace.Read(ip.r, obj)
	if err != nil {
		return nil, err
	}
	if space.Channels() == 0 {
		return nil, &StructuralOperandError{Op: "Do", Reason: "invalid image color space"}
	}
	return space, nil
}

// decodeArray returns the component decode ranges of an image, using
// the color space defaults when the dictionary has none.
func (ip *interp) decodeArray(obj pdf.Object, space colorspace.Space, bpc int) ([]float64, error) {
	n := space.Channels()

	arr, err := pdf.GetArray(ip.r, obj)
	if err != nil {
		return nil, err
	}
	if len(arr) == 2*n {
		decode := make([]float64, 2*n)
		for i, elem := range arr {
			x, ok := getNumber(elem)
			if !ok {
				return nil, &StructuralOperandError{Op: "Do", Reason: "bad Decode array"}
			}
			decode[i] = x
		}
		return decode, nil
	}

	switch s := space.(type) {
	case *colorspace.SpaceIndexed:
		return []float64{0, float64(int(1)<<bpc - 1)}, nil
	case *colorspace.SpaceLab:
		return []float64{0, 100, s.Ranges[0], s.Ranges[1], s.Ranges[2], s.Ranges[3]}, nil
	case *colorspace.SpaceICCBased:
		return append([]float64(nil), s.Ranges...), nil
	default:
		decode := make([]float64, 2*n)
		for i := range n {
			decode[2*i+1] = 1
		}
		return decode, nil
	}
}

func validBPC(bpc int) bool {
	switch bpc {
	case 1, 2, 4, 8, 16:
		return true
	}
	return false
}

// hasDCTFilter reports whether the final stream filter is DCTDecode.
func hasDCTFilter(r pdf.Getter, dict pdf.Dict) bool {
	obj, err := pdf.Resolve(r, dict["Filter"])
	if err != nil {
		return false
	}
	switch x := obj.(type) {
	case pdf.Name:
		return x == "DCTDecode" || x == "DCT"
	case pdf.Array:
		if len(x) == 0 {
			return false
		}
		name, err := pdf.GetName(r, x[len(x)-1])
		return err == nil && (name == "DCTDecode" || name == "DCT")
	}
	return false
}

// readImageSamples reads the color components of pixel (x, y) from
// packed sample data, applying the decode ranges.
func readImageSamples(data []byte, width, n, bpc, x, y int, decode, values []float64) {
	switch bpc {
	case 8:
		pixStart := (y*width + x) * n
		for c := range n {
			idx := pixStart + c
			var s float64
			if idx < len(data) {
				s = float64(data[idx]) / 255
			}
			values[c] = decode[2*c] + s*(decode[2*c+1]-decode[2*c])
		}
	case 16:
		pixStart := (y*width + x) * n * 2
		for c := range n {
			idx := pixStart + c*2
			var s float64
			if idx+1 < len(data) {
				s = float64(uint16(data[idx])<<8|uint16(data[idx+1])) / 65535
			}
			values[c] = decode[2*c] + s*(decode[2*c+1]-decode[2*c])
		}
	default: // 1, 2 or 4 bits
		samplesPerByte := 8 / bpc
		mask := uint8(1<<bpc - 1)
		maxVal := float64(mask)
		rowBytes := (width*n*bpc + 7) / 8
		rowStart := y * rowBytes
		for c := range n {
			sampleIdx := x*n + c
			byteIdx := rowStart + sampleIdx/samplesPerByte
			bitOffset := (samplesPerByte - 1 - sampleIdx%samplesPerByte) * bpc
			var s float64
			if byteIdx < len(data) {
				s = float64(data[byteIdx]>>bitOffset&mask) / maxVal
			}
			values[c] = decode[2*c] + s*(decode[2*c+1]-decode[2*c])
		}
	}
}
