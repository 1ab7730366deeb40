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

import (
	"math"

	"seehuhn.de/go/pdf"
)

// Singleton objects for the device color spaces.
var (
	DeviceGray Space = spaceDeviceGray{}
	DeviceRGB  Space = spaceDeviceRGB{}
	DeviceCMYK Space = spaceDeviceCMYK{}
)

type spaceDeviceGray struct{}

func (spaceDeviceGray) Family() pdf.Name   { return FamilyDeviceGray }
func (spaceDeviceGray) Channels() int      { return 1 }
func (spaceDeviceGray) Default() []float64 { return []float64{0} }

func (spaceDeviceGray) RGB(comps []float64) (r, g, b float64) {
	v := component(comps, 0, 0)
	return v, v, v
}

type spaceDeviceRGB struct{}

func (spaceDeviceRGB) Family() pdf.Name   { return FamilyDeviceRGB }
func (spaceDeviceRGB) Channels() int      { return 3 }
func (spaceDeviceRGB) Default() []float64 { return []float64{0, 0, 0} }

func (spaceDeviceRGB) RGB(comps []float64) (r, g, b float64) {
	r = component(comps, 0, 0)
	g = component(comps, 1, 0)
	b = component(comps, 2, 0)
	return r, g, b
}

type spaceDeviceCMYK struct{}

func (spaceDeviceCMYK) Family() pdf.Name   { return FamilyDeviceCMYK }
func (spaceDeviceCMYK) Channels() int      { return 4 }
func (spaceDeviceCMYK) Default() []float64 { return []float64{0, 0, 0, 1} }

func (spaceDeviceCMYK) RGB(comps []float64) (r, g, b float64) {
	c := component(comps, 0, 0)
	m := component(comps, 1, 0)
	y := component(comps, 2, 0)
	k := component(comps, 3, 1)
	return CMYKToRGB(c, m, y, k)
}

// CMYKToRGB converts a DeviceCMYK color to device RGB.
func CMYKToRGB(c, m, y, k float64) (r, g, b float64) {
	r = 1 - math.Min(1, c*(1-k)+k)
	g = 1 - math.Min(1, m*(1-k)+k)
	b = 1 - math.Min(1, y*(1-k)+k)
	return r, g, b
}

// RGBToCMYK converts a device RGB color to DeviceCMYK, using black
// generation k = min(1-r, 1-g, 1-b) and no undercolor removal beyond it.
func RGBToCMYK(r, g, b float64) (c, m, y, k float64) {
	k = math.Min(1-r, math.Min(1-g, 1-b))
	if k < 1 {
		c = (1 - r - k) / (1 - k)
		m = (1 - g - k) / (1 - k)
		y = (1 - b - k) / (1 - k)
	}
	return c, m, y, k
}
