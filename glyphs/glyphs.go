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

// Package glyphs loads fonts from PDF files and provides glyph outlines
// for rendering.
//
// Outlines are returned in PDF glyph space, scaled so that 1000 units
// correspond to one em. Outline lookups are cached per font and
// character code; a failed lookup is reported once per unique
// (font, code) pair and then silently maps to no outline.
package glyphs

import (
	"fmt"
	"log"
	"sync"

	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/pdf"
)

// Provider loads fonts and caches glyph outlines.
//
// A Provider is safe for concurrent use.
type Provider struct {
	r      pdf.Getter
	logger *log.Logger

	mu       sync.Mutex
	fonts    map[pdf.Reference]*Font
	outlines map[outlineKey]*path.Data
	missed   map[outlineKey]bool
}

type outlineKey struct {
	font *Font
	cid  uint32
}

// NewProvider creates a new glyph provider reading fonts from r.
// If logger is nil, diagnostics are discarded.
func NewProvider(r pdf.Getter, logger *log.Logger) *Provider {
	return &Provider{
		r:        r,
		logger:   logger,
		fonts:    make(map[pdf.Reference]*Font),
		outlines: make(map[outlineKey]*path.Data),
		missed:   make(map[outlineKey]bool),
	}
}

// Font loads the font described by the given font dictionary.
// Fonts given by reference are loaded only once.
func (p *Provider) Font(obj pdf.Object) (*Font, error) {
	ref, isRef := obj.(pdf.Reference)
	if isRef {
		p.mu.Lock()
		f, ok := p.fonts[ref]
		p.mu.Unlock()
		if ok {
			return f, nil
		}
	}

	dict, err := pdf.GetDict(p.r, obj)
	if err != nil {
		return nil, err
	}
	if dict == nil {
		return nil, &pdf.MalformedFileError{
			Err: fmt.Errorf("missing font dictionary"),
		}
	}

	f, err := p.loadFont(dict)
	if err != nil {
		return nil, err
	}

	if isRef {
		p.mu.Lock()
		p.fonts[ref] = f
		p.mu.Unlock()
	}
	return f, nil
}

// Outline returns the glyph outline for the given character code, in
// PDF glyph space (1000 units per em). The result is nil if the font
// has no outline for the code; this includes all Type 3 fonts, whose
// glyphs are content streams rather than outlines.
func (p *Provider) Outline(f *Font, cid uint32) *path.Data {
	key := outlineKey{font: f, cid: cid}

	p.mu.Lock()
	if g, ok := p.outlines[key]; ok {
		p.mu.Unlock()
		return g
	}
	p.mu.Unlock()

	g, err := f.outline(cid)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.outlines[key] = g
	if g == nil && f.Kind != Type3 && !p.missed[key] {
		p.missed[key] = true
		if p.logger != nil {
			if err != nil {
				p.logger.Printf("font %q: no glyph for code %d: %v", f.Name, cid, err)
			} else {
				p.logger.Printf("font %q: no glyph for code %d", f.Name, cid)
			}
		}
	}
	return g
}

// Flush drops all cached outlines and miss records. Loaded fonts are
// kept.
func (p *Provider) Flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outlines = make(map[outlineKey]*path.Data)
	p.missed = make(map[outlineKey]bool)
}
