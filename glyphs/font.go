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
	"fmt"
	"io"
	"sync"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/font/pdfenc"
	"seehuhn.de/go/postscript/type1"
	"seehuhn.de/go/sfnt"
	"seehuhn.de/go/sfnt/cff"
	"seehuhn.de/go/sfnt/glyph"
)

// Kind describes how character codes in a font are interpreted.
type Kind int

const (
	// Simple fonts use one-byte codes mapped through an encoding.
	Simple Kind = iota

	// Composite fonts use two-byte codes which select CIDs.
	Composite

	// Type3 fonts draw glyphs using small content streams.
	Type3
)

// Font is a loaded PDF font.
type Font struct {
	Kind Kind
	Name pdf.Name // the BaseFont name, for diagnostics

	// glyph sources, at most one is non-nil
	sfnt *sfnt.Font
	cff  *cff.Font
	t1   *type1.Font

	// lazily built glyph lookup tables
	lookupOnce sync.Once
	cffByName  map[string]glyph.ID
	t1ByRune   map[rune]string

	encoding *[256]string    // simple and Type 3 fonts
	cid2gid  []glyph.ID      // composite fonts, nil for the identity mapping
	wmode    int             // composite fonts, 0 horizontal or 1 vertical

	// widths, in text space units for font size 1
	firstChar    int
	widths       []float64
	missingWidth float64
	cidWidths    map[uint32]float64
	defaultWidth float64

	// Type 3 fonts
	CharProcs  pdf.Dict
	FontMatrix matrix.Matrix
	Resources  pdf.Dict
}

// Code is one decoded character code of a string argument.
type Code struct {
	// CID selects the glyph. For simple and Type 3 fonts this is the
	// byte code.
	CID uint32

	// Width is the glyph advance in text space units for font size 1.
	Width float64
}

// Codes splits a PDF string into character codes according to the
// font's encoding.
func (f *Font) Codes(s pdf.String) []Code {
	var codes []Code
	if f.Kind == Composite {
		for i := 0; i < len(s); i += 2 {
			var cid uint32
			if i+1 < len(s) {
				cid = uint32(s[i])<<8 | uint32(s[i+1])
			} else {
				cid = uint32(s[i])
			}
			codes = append(codes, Code{CID: cid, Width: f.cidWidth(cid)})
		}
		return codes
	}

	for _, c := range s {
		codes = append(codes, Code{CID: uint32(c), Width: f.codeWidth(int(c))})
	}
	return codes
}

// WritingMode returns 0 for horizontal and 1 for vertical writing.
func (f *Font) WritingMode() int { return f.wmode }

// GlyphName returns the glyph name a one-byte code is mapped to, or
// ".notdef".
func (f *Font) GlyphName(code byte) string {
	if f.encoding == nil {
		return ".notdef"
	}
	name := f.encoding[code]
	if name == "" {
		return ".notdef"
	}
	return name
}

// CharProc returns the glyph description stream of a Type 3 glyph, or
// nil.
func (f *Font) CharProc(code byte) pdf.Object {
	if f.Kind != Type3 || f.CharProcs == nil {
		return nil
	}
	name := f.GlyphName(code)
	return f.CharProcs[pdf.Name(name)]
}

func (f *Font) codeWidth(code int) float64 {
	if idx := code - f.firstChar; idx >= 0 && idx < len(f.widths) {
		return f.widths[idx]
	}
	if f.missingWidth != 0 {
		return f.missingWidth
	}
	return f.metricWidth(uint32(code))
}

func (f *Font) cidWidth(cid uint32) float64 {
	if w, ok := f.cidWidths[cid]; ok {
		return w
	}
	if f.defaultWidth != 0 {
		return f.defaultWidth
	}
	return f.metricWidth(cid)
}

// metricWidth falls back to the font program's own metrics.
func (f *Font) metricWidth(cid uint32) float64 {
	switch {
	case f.sfnt != nil:
		gid, ok := f.gid(cid)
		if !ok {
			gid = 0
		}
		return f.sfnt.GlyphWidthPDF(gid) / 1000
	case f.cff != nil:
		gid, ok := f.cffGID(cid)
		if !ok {
			gid = 0
		}
		return f.cff.GlyphWidthPDF(gid) / 1000
	case f.t1 != nil:
		name, ok := f.t1Name(cid)
		if !ok {
			name = ".notdef"
		}
		return f.t1.GlyphWidthPDF(name) / 1000
	}
	return 0.5
}

func (p *Provider) loadFont(dict pdf.Dict) (*Font, error) {
	subtype, err := pdf.GetName(p.r, dict["Subtype"])
	if err != nil {
		return nil, err
	}

	baseFont, _ := pdf.GetName(p.r, dict["BaseFont"])

	switch subtype {
	case "Type0":
		return p.loadComposite(dict, baseFont)
	case "Type3":
		return p.loadType3(dict)
	case "Type1", "MMType1", "TrueType", "":
		return p.loadSimple(dict, baseFont)
	default:
		return nil, &pdf.MalformedFileError{
			Err: fmt.Errorf("unsupported font subtype %q", subtype),
		}
	}
}

func (p *Provider) loadSimple(dict pdf.Dict, baseFont pdf.Name) (*Font, error) {
	f := &Font{
		Kind: Simple,
		Name: baseFont,
	}

	desc, err := pdf.GetDict(p.r, dict["FontDescriptor"])
	if err != nil {
		return nil, err
	}
	if desc != nil {
		if err := p.loadFontProgram(f, desc); err != nil {
			return nil, err
		}
		if w, err := pdf.GetNumber(p.r, desc["MissingWidth"]); err == nil && w != 0 {
			f.missingWidth = float64(w) / 1000
		}
	}

	if err := p.loadSimpleEncoding(f, dict["Encoding"]); err != nil {
		return nil, err
	}
	if err := p.loadSimpleWidths(f, dict); err != nil {
		return nil, err
	}
	return f, nil
}

// loadSimpleEncoding resolves the effective encoding of a simple font:
// the font's builtin encoding (or the standard encoding), possibly
// replaced by a named base encoding, with Differences applied on top.
func (p *Provider) loadSimpleEncoding(f *Font, obj pdf.Object) error {
	enc := f.builtinEncoding()

	obj, err := pdf.Resolve(p.r, obj)
	if err != nil {
		return err
	}

	switch x := obj.(type) {
	case pdf.Name:
		if named := namedEncoding(x); named != nil {
			enc = *named
		}
	case pdf.Dict:
		if name, err := pdf.GetName(p.r, x["BaseEncoding"]); err == nil {
			if named := namedEncoding(name); named != nil {
				enc = *named
			}
		}
		diff, err := pdf.GetArray(p.r, x["Differences"])
		if err != nil {
			return err
		}
		code := 0
		for _, elem := range diff {
			elem, err := pdf.Resolve(p.r, elem)
			if err != nil {
				return err
			}
			switch elem := elem.(type) {
			case pdf.Integer:
				code = int(elem)
			case pdf.Name:
				if code >= 0 && code < 256 {
					enc[code] = string(elem)
				}
				code++
			}
		}
	}

	f.encoding = &enc
	return nil
}

func (f *Font) builtinEncoding() [256]string {
	if f.t1 != nil && len(f.t1.Encoding) == 256 {
		var enc [256]string
		copy(enc[:], f.t1.Encoding)
		return enc
	}
	return pdfenc.Standard.Encoding
}

func namedEncoding(name pdf.Name) *[256]string {
	switch name {
	case "WinAnsiEncoding":
		return &pdfenc.WinAnsi.Encoding
	case "MacRomanEncoding":
		return &pdfenc.MacRoman.Encoding
	case "MacExpertEncoding":
		return &pdfenc.MacExpert.Encoding
	case "StandardEncoding":
		return &pdfenc.Standard.Encoding
	default:
		return nil
	}
}

func (p *Provider) loadSimpleWidths(f *Font, dict pdf.Dict) error {
	first, err := pdf.GetInteger(p.r, dict["FirstChar"])
	if err != nil {
		return err
	}
	f.firstChar = int(first)

	arr, err := pdf.GetArray(p.r, dict["Widths"])
	if err != nil {
		return err
	}
	f.widths = make([]float64, len(arr))
	for i, elem := range arr {
		w, err := pdf.GetNumber(p.r, elem)
		if err != nil {
			return err
		}
		f.widths[i] = float64(w) / 1000
	}
	return nil
}

func (p *Provider) loadComposite(dict pdf.Dict, baseFont pdf.Name) (*Font, error) {
	f := &Font{
		Kind: Composite,
		Name: baseFont,
	}

	// only the Identity CMaps are supported; everything else degrades
	// to two-byte identity codes
	if encName, err := pdf.GetName(p.r, dict["Encoding"]); err == nil {
		switch encName {
		case "Identity-H", "":
			// horizontal
		case "Identity-V":
			f.wmode = 1
		default:
			if p.logger != nil {
				p.logger.Printf("font %q: unsupported CMap %q, using Identity", baseFont, encName)
			}
		}
	}

	descFonts, err := pdf.GetArray(p.r, dict["DescendantFonts"])
	if err != nil {
		return nil, err
	}
	if len(descFonts) == 0 {
		return nil, &pdf.MalformedFileError{
			Err: fmt.Errorf("Type 0 font without descendant font"),
		}
	}
	cidFont, err := pdf.GetDict(p.r, descFonts[0])
	if err != nil {
		return nil, err
	}
	if cidFont == nil {
		return nil, &pdf.MalformedFileError{
			Err: fmt.Errorf("Type 0 font without descendant font"),
		}
	}

	desc, err := pdf.GetDict(p.r, cidFont["FontDescriptor"])
	if err != nil {
		return nil, err
	}
	if desc != nil {
		if err := p.loadFontProgram(f, desc); err != nil {
			return nil, err
		}
	}

	if err := p.loadCIDToGID(f, cidFont["CIDToGIDMap"]); err != nil {
		return nil, err
	}
	if err := p.loadCIDWidths(f, cidFont); err != nil {
		return nil, err
	}
	return f, nil
}

func (p *Provider) loadCIDToGID(f *Font, obj pdf.Object) error {
	obj, err := pdf.Resolve(p.r, obj)
	if err != nil {
		return err
	}

	switch x := obj.(type) {
	case nil:
		// identity
	case pdf.Name:
		if x != "Identity" {
			return &pdf.MalformedFileError{
				Err: fmt.Errorf("unsupported CIDToGIDMap %q", x),
			}
		}
	case *pdf.Stream:
		in, err := pdf.DecodeStream(p.r, x, 0)
		if err != nil {
			return err
		}
		data, err := io.ReadAll(in)
		in.Close()
		if err != nil {
			return err
		}
		f.cid2gid = make([]glyph.ID, len(data)/2)
		for i := range f.cid2gid {
			f.cid2gid[i] = glyph.ID(data[2*i])<<8 | glyph.ID(data[2*i+1])
		}
	default:
		return &pdf.MalformedFileError{
			Err: fmt.Errorf("invalid CIDToGIDMap type %T", obj),
		}
	}
	return nil
}

// loadCIDWidths parses the /W and /DW entries of a CIDFont dictionary.
func (p *Provider) loadCIDWidths(f *Font, cidFont pdf.Dict) error {
	f.defaultWidth = 1.0
	if dw, err := pdf.GetNumber(p.r, cidFont["DW"]); err == nil && dw != 0 {
		f.defaultWidth = float64(dw) / 1000
	}

	arr, err := pdf.GetArray(p.r, cidFont["W"])
	if err != nil {
		return err
	}
	if len(arr) == 0 {
		return nil
	}

	f.cidWidths = make(map[uint32]float64)
	for i := 0; i < len(arr); {
		c1, err := pdf.GetInteger(p.r, arr[i])
		if err != nil {
			return err
		}
		i++
		if i >= len(arr) {
			break
		}

		next, err := pdf.Resolve(p.r, arr[i])
		if err != nil {
			return err
		}
		if sub, ok := next.(pdf.Array); ok {
			// c [w1 w2 ... wn]
			for j, elem := range sub {
				w, err := pdf.GetNumber(p.r, elem)
				if err != nil {
					return err
				}
				f.cidWidths[uint32(int(c1)+j)] = float64(w) / 1000
			}
			i++
			continue
		}

		// c1 c2 w
		if i+1 >= len(arr) {
			break
		}
		c2, err := pdf.GetInteger(p.r, arr[i])
		if err != nil {
			return err
		}
		w, err := pdf.GetNumber(p.r, arr[i+1])
		if err != nil {
			return err
		}
		i += 2
		for c := c1; c <= c2; c++ {
			f.cidWidths[uint32(c)] = float64(w) / 1000
		}
	}
	return nil
}

func (p *Provider) loadType3(dict pdf.Dict) (*Font, error) {
	f := &Font{
		Kind: Type3,
		Name: "Type3",
	}

	mat, err := getArrayN6(p.r, dict["FontMatrix"])
	if err != nil {
		return nil, err
	}
	if mat == nil {
		mat = &matrix.Matrix{0.001, 0, 0, 0.001, 0, 0}
	}
	f.FontMatrix = *mat

	charProcs, err := pdf.GetDict(p.r, dict["CharProcs"])
	if err != nil {
		return nil, err
	}
	f.CharProcs = charProcs

	resources, err := pdf.GetDict(p.r, dict["Resources"])
	if err != nil {
		return nil, err
	}
	f.Resources = resources

	if err := p.loadSimpleEncoding(f, dict["Encoding"]); err != nil {
		return nil, err
	}

	// Type 3 widths are given in glyph space and must be mapped to text
	// space by the font matrix.
	first, err := pdf.GetInteger(p.r, dict["FirstChar"])
	if err != nil {
		return nil, err
	}
	f.firstChar = int(first)
	arr, err := pdf.GetArray(p.r, dict["Widths"])
	if err != nil {
		return nil, err
	}
	f.widths = make([]float64, len(arr))
	for i, elem := range arr {
		w, err := pdf.GetNumber(p.r, elem)
		if err != nil {
			return nil, err
		}
		f.widths[i] = float64(w) * f.FontMatrix[0]
	}

	return f, nil
}

// loadFontProgram reads the embedded font program from a font
// descriptor. Fonts without an embedded program keep all glyph sources
// nil; every outline lookup is then a miss.
func (p *Provider) loadFontProgram(f *Font, desc pdf.Dict) error {
	if obj, ok := desc["FontFile2"]; ok {
		data, err := p.readStream(obj)
		if err != nil {
			return err
		}
		f.sfnt, err = sfnt.Read(bytes.NewReader(data))
		return err
	}

	if obj, ok := desc["FontFile3"]; ok {
		stm, err := pdf.GetStream(p.r, obj)
		if err != nil || stm == nil {
			return err
		}
		subtype, _ := pdf.GetName(p.r, stm.Dict["Subtype"])
		data, err := p.readStream(stm)
		if err != nil {
			return err
		}
		if subtype == "OpenType" {
			f.sfnt, err = sfnt.Read(bytes.NewReader(data))
		} else {
			f.cff, err = cff.Read(bytes.NewReader(data))
		}
		return err
	}

	if obj, ok := desc["FontFile"]; ok {
		data, err := p.readStream(obj)
		if err != nil {
			return err
		}
		f.t1, err = type1.Read(bytes.NewReader(data))
		return err
	}

	return nil
}

func (p *Provider) readStream(obj pdf.Object) ([]byte, error) {
	stm, err := pdf.GetStream(p.r, obj)
	if err != nil {
		return nil, err
	}
	if stm == nil {
		return nil, &pdf.MalformedFileError{
			Err: fmt.Errorf("missing font file stream"),
		}
	}
	body, err := pdf.DecodeStream(p.r, stm, 0)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
}

func getArrayN6(r pdf.Getter, obj pdf.Object) (*matrix.Matrix, error) {
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
