// seehuhn.de/go/pdfcompare - visual and byte-level comparison of PDF files
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

// Package render turns the pages of PDF files into images.
//
// Two renderers are provided.  [Native] interprets the page content streams
// directly and draws them with the anti-aliased rasteriser from
// seehuhn.de/go/pdfcompare/raster.  [Ghostscript] runs an external gs
// process.  Both produce images with one pixel per 1/dpi inch and the
// origin in the top-left corner of the page.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"

	"seehuhn.de/go/pdfcompare/region"
)

// Renderer opens PDF files for rendering.
type Renderer interface {
	Open(ctx context.Context, path string) (Document, error)
}

// Document is an open PDF file.
type Document interface {
	// NumPages returns the number of pages in the document.
	NumPages() int

	// RenderPage renders the page with the given zero-based index.
	RenderPage(ctx context.Context, index int, dpi float64) (image.Image, error)

	Close() error
}

// Page is a rendered page, after crops and masks have been applied.
type Page struct {
	Index int
	Image *image.NRGBA

	// Ignored lists the masked rectangles, in image coordinates.
	Ignored []image.Rectangle
}

// PageCount returns the number of pages of a PDF file.
// Errors are returned as *RenderError.
func PageCount(ctx context.Context, r Renderer, path string) (int, error) {
	doc, err := r.Open(ctx, path)
	if err != nil {
		return 0, &RenderError{Path: path, Page: -1, Err: err}
	}
	defer doc.Close()
	return doc.NumPages(), nil
}

// RenderPages renders the given pages of a PDF file, in order.
// The regions from set are applied to every page, with masks painted in the
// fill colour.  A nil set leaves the pages unchanged.
//
// Errors from the renderer are returned as *RenderError.
func RenderPages(ctx context.Context, r Renderer, path string, indexes []int, set *region.Set, dpi float64, fill color.Color) ([]Page, error) {
	doc, err := r.Open(ctx, path)
	if err != nil {
		return nil, &RenderError{Path: path, Page: -1, Err: err}
	}
	defer doc.Close()

	n := doc.NumPages()
	res := make([]Page, 0, len(indexes))
	for _, i := range indexes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i < 0 || i >= n {
			return nil, &RenderError{Path: path, Page: i, Err: errPageRange}
		}

		img, err := doc.RenderPage(ctx, i, dpi)
		if err != nil {
			return nil, &RenderError{Path: path, Page: i, Err: err}
		}

		out, ignored, err := region.Apply(img, set.Regions(i), fill)
		if err != nil {
			return nil, fmt.Errorf("%s: page %d: %w", path, i, err)
		}
		res = append(res, Page{Index: i, Image: out, Ignored: ignored})
	}
	return res, nil
}

// RenderError is returned when a page cannot be rendered.
type RenderError struct {
	Path string

	// Page is the zero-based page index, or -1 if the file could not be
	// opened.
	Page int

	Err error
}

func (err *RenderError) Error() string {
	if err.Page < 0 {
		return fmt.Sprintf("%s: cannot render: %v", err.Path, err.Err)
	}
	return fmt.Sprintf("%s: cannot render page %d: %v", err.Path, err.Page, err.Err)
}

func (err *RenderError) Unwrap() error {
	return err.Err
}

var errPageRange = errors.New("page index out of range")
