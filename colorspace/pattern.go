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

package colorspace

import "seehuhn.de/go/pdf"

// PatternColored is the color space of colored (paint type 1) tiling
// patterns and shading patterns. It carries no color components; the
// current color is selected by name with the scn/SCN operators.
var PatternColored Space = spacePatternColored{}

type spacePatternColored struct{}

func (spacePatternColored) Family() pdf.Name   { return FamilyPattern }
func (spacePatternColored) Channels() int      { return 0 }
func (spacePatternColored) Default() []float64 { return nil }

func (spacePatternColored) RGB(comps []float64) (r, g, b float64) {
	// patterns have no intrinsic color; paint mid-gray if a pattern
	// color is used where a plain color is needed
	return 0.5, 0.5, 0.5
}

// PatternUncolored is the color space of uncolored (paint type 2)
// tiling patterns. The color components are interpreted in the base
// color space.
type PatternUncolored struct {
	Base Space
}

func (s *PatternUncolored) Family() pdf.Name   { return FamilyPattern }
func (s *PatternUncolored) Channels() int      { return s.Base.Channels() }
func (s *PatternUncolored) Default() []float64 { return s.Base.Default() }

func (s *PatternUncolored) RGB(comps []float64) (r, g, b float64) {
	return s.Base.RGB(comps)
}
