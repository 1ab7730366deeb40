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

// Command pdfrender renders a page of a PDF file to a PNG image.
package main

import (
	"flag"
	"fmt"
	"image/png"
	"log"
	"os"

	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/pagetree"

	"seehuhn.de/go/pdfrender"
)

func main() {
	pageNo := flag.Int("page", 1, "page number to render (1-based)")
	dpi := flag.Float64("dpi", 72, "output resolution in pixels per inch")
	outName := flag.String("o", "out.png", "output file name")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [options] file.pdf\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	err := run(flag.Arg(0), *pageNo, *dpi, *outName)
	if err != nil {
		log.Fatal(err)
	}
}

func run(fname string, pageNo int, dpi float64, outName string) error {
	r, err := pdf.Open(fname)
	if err != nil {
		return err
	}
	defer r.Close()

	numPages, err := pagetree.NumPages(r)
	if err != nil {
		return err
	}
	if pageNo < 1 || pageNo > numPages {
		return fmt.Errorf("page %d out of range (document has %d pages)", pageNo, numPages)
	}

	pageDict, err := pagetree.GetPage(r, pageNo-1)
	if err != nil {
		return err
	}

	opt := &pdfrender.Options{
		DPI: dpi,
	}
	img, err := pdfrender.RenderPage(r, pageDict, opt)
	if err != nil {
		return err
	}

	out, err := os.Create(outName)
	if err != nil {
		return err
	}
	defer out.Close()
	return png.Encode(out, img)
}
