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

import "fmt"

// StructuralOperandError indicates that an operator was used with
// missing or mistyped operands. The operator is skipped and rendering
// continues.
type StructuralOperandError struct {
	Op     string
	Reason string
}

func (e *StructuralOperandError) Error() string {
	return fmt.Sprintf("operator %q: %s", e.Op, e.Reason)
}

// ResourceMissingError indicates that a named resource could not be
// found in the resource dictionary. The operation using the resource is
// skipped and rendering continues.
type ResourceMissingError struct {
	Kind string // "Font", "XObject", "ExtGState", ...
	Name string
}

func (e *ResourceMissingError) Error() string {
	return fmt.Sprintf("%s resource %q not found", e.Kind, e.Name)
}

// RecursionLimitError indicates that nested content streams (Form
// XObjects, patterns, Type 3 glyph procedures) exceeded the configured
// nesting depth. The innermost stream is not executed and rendering
// continues.
type RecursionLimitError struct {
	Depth int
}

func (e *RecursionLimitError) Error() string {
	return fmt.Sprintf("content stream nesting deeper than %d levels", e.Depth)
}

// UnsupportedError indicates a PDF feature the renderer does not
// implement. A neutral fallback is used and rendering continues.
type UnsupportedError struct {
	Feature string
}

func (e *UnsupportedError) Error() string {
	return "unsupported: " + e.Feature
}
