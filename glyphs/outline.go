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
	"fmt"

	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/postscript/type1/names"
	"seehuhn.de/go/sfnt/glyph"
)

// outline returns the glyph outline for a character code, in PDF glyph
// space (1000 units per em). Type 3 fonts and fonts without an embedded
// font program have no outlines.
func (f *Font) outline(cid uint32) (*path.Data, error) {
	switch {
	case f.sfnt != nil:
		gid, ok := f.gid(cid)
		if !ok {
			return nil, fmt.Errorf("no glyph ID for code %d", cid)
		}
		if f.sfnt.Outlines == nil {
			return nil, nil
		}
		upem := float64(f.sfnt.UnitsPerEm)
		if upem == 0 {
			upem = 1000
		}
		return collect(f.sfnt.Outlines.Path(gid), 1000/upem), nil

	case f.cff != nil:
		gid, ok := f.cffGID(cid)
		if !ok {
			return nil, fmt.Errorf("no glyph ID for code %d", cid)
		}
		scale := 1.0
		if f.cff.FontInfo != nil && f.cff.FontInfo.FontMatrix[0] != 0 {
			scale = f.cff.FontInfo.FontMatrix[0] * 1000
		}
		return collect(f.cff.Path(gid), scale), nil

	case f.t1 != nil:
		name, ok := f.t1Name(cid)
		if !ok {
			return nil, fmt.Errorf("no glyph for code %d", cid)
		}
		g := f.t1.Glyphs[name]
		if g == nil || g.IsBlank() {
			return nil, nil
		}
		scale := 1.0
		if f.t1.FontMatrix[0] != 0 {
			scale = f.t1.FontMatrix[0] * 1000
		}
		return collect(g.Path(), scale), nil
	}

	return nil, nil
}

// collect copies a path sequence into a path.Data, scaling all
// coordinates.
func collect(seq path.Path, scale float64) *path.Data {
	res := &path.Data{}
	for cmd, pts := range seq {
		res.Cmds = append(res.Cmds, cmd)
		for _, p := range pts {
			res.Coords = append(res.Coords, vec.Vec2{X: p.X * scale, Y: p.Y * scale})
		}
	}
	return res
}

// gid maps a character code to a glyph ID in the sfnt font.
func (f *Font) gid(cid uint32) (glyph.ID, bool) {
	if f.Kind == Composite {
		if f.cid2gid != nil {
			if int(cid) >= len(f.cid2gid) {
				return 0, false
			}
			return f.cid2gid[cid], true
		}
		return glyph.ID(cid), true
	}

	// Simple fonts address glyphs by encoding name. TrueType fonts have
	// no glyph name table, so the name is mapped to Unicode and looked
	// up in the font's character map.
	name := f.GlyphName(byte(cid))
	subtable, err := f.sfnt.CMapTable.GetBest()
	if err == nil && subtable != nil {
		if name != ".notdef" {
			if rr := []rune(names.ToUnicode(name, "")); len(rr) == 1 {
				if gid := subtable.Lookup(rr[0]); gid != 0 {
					return gid, true
				}
			}
		}
		// symbolic fonts map codes into the private use area
		if gid := subtable.Lookup(rune(0xF000 + cid)); gid != 0 {
			return gid, true
		}
		if gid := subtable.Lookup(rune(cid)); gid != 0 {
			return gid, true
		}
	}
	return glyph.ID(cid), true
}

// cffGID maps a character code to a glyph ID in the bare CFF font.
func (f *Font) cffGID(cid uint32) (glyph.ID, bool) {
	if f.Kind == Composite || f.cff.IsCIDKeyed() {
		if int(cid) < len(f.cff.Glyphs) {
			return glyph.ID(cid), true
		}
		return 0, false
	}

	f.buildLookups()
	name := f.GlyphName(byte(cid))
	if gid, ok := f.cffByName[name]; ok {
		return gid, true
	}
	return 0, false
}

// t1Name maps a character code to a glyph name present in the Type 1
// font.
func (f *Font) t1Name(cid uint32) (string, bool) {
	name := f.GlyphName(byte(cid))
	if _, ok := f.t1.Glyphs[name]; ok {
		return name, true
	}

	// Try to find a glyph with the same meaning under a different name.
	f.buildLookups()
	if rr := []rune(names.ToUnicode(name, "")); len(rr) == 1 {
		if alt, ok := f.t1ByRune[rr[0]]; ok {
			return alt, true
		}
	}

	if _, ok := f.t1.Glyphs[".notdef"]; ok {
		return ".notdef", true
	}
	return "", false
}

func (f *Font) buildLookups() {
	f.lookupOnce.Do(func() {
		if f.cff != nil {
			f.cffByName = make(map[string]glyph.ID)
			for i, g := range f.cff.Glyphs {
				if g != nil && g.Name != "" {
					f.cffByName[g.Name] = glyph.ID(i)
				}
			}
		}
		if f.t1 != nil {
			f.t1ByRune = make(map[rune]string)
			for name := range f.t1.Glyphs {
				if rr := []rune(names.ToUnicode(name, "")); len(rr) == 1 {
					if _, seen := f.t1ByRune[rr[0]]; !seen {
						f.t1ByRune[rr[0]] = name
					}
				}
			}
		}
	})
}
