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

package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/graphics/content"
	"seehuhn.de/go/pdf/pagetree"

	"seehuhn.de/go/pdfcompare/raster"
)

// Native renders pages by interpreting their content streams.
//
// Paths, colours in the device colour spaces, form XObjects and the
// line parameters are fully supported.  Text is drawn with a fixed
// substitute face, scaled to the glyph widths of the PDF font.  Images are
// drawn as grey rectangles.  Clipping paths, shadings and patterns are
// ignored.
type Native struct{}

// Open implements the [Renderer] interface.
func (Native) Open(ctx context.Context, path string) (Document, error) {
	r, err := pdf.Open(path, nil)
	if err != nil {
		return nil, err
	}
	n, err := pagetree.NumPages(r)
	if err != nil {
		r.Close()
		return nil, err
	}
	return &nativeDoc{r: r, numPages: n}, nil
}

type nativeDoc struct {
	r        *pdf.Reader
	numPages int
	ras      *raster.Rasteriser
}

func (d *nativeDoc) NumPages() int {
	return d.numPages
}

func (d *nativeDoc) Close() error {
	return d.r.Close()
}

func (d *nativeDoc) RenderPage(ctx context.Context, index int, dpi float64) (image.Image, error) {
	if dpi <= 0 || math.IsNaN(dpi) || math.IsInf(dpi, 0) {
		return nil, fmt.Errorf("invalid resolution %g", dpi)
	}
	_, pageDict, err := pagetree.GetPage(d.r, index)
	if err != nil {
		return nil, err
	}

	box, err := d.pageBox(pageDict)
	if err != nil {
		return nil, err
	}

	s := dpi / 72
	w := max(int(math.Round((box.URx-box.LLx)*s)), 1)
	h := max(int(math.Round((box.URy-box.LLy)*s)), 1)
	if w*h > maxPixels {
		return nil, fmt.Errorf("page too large (%dx%d pixels)", w, h)
	}

	c := newCanvas(w, h)
	clip := rect.Rect{URx: float64(w), URy: float64(h)}
	if d.ras == nil {
		d.ras = raster.NewRasteriser(clip)
	}

	stm, err := pagetree.ContentStream(d.r, pageDict)
	if err != nil {
		return nil, err
	}
	ops, err := content.ReadStream(stm, pdf.GetVersion(d.r), content.Page, &content.Resources{})
	if err != nil {
		return nil, err
	}

	res, err := pdf.GetDict(d.r, pageDict["Resources"])
	if err != nil {
		return nil, err
	}

	ip := newInterpreter(ctx, d.r, d.ras, c, clip)
	ctm := matrix.Matrix{s, 0, 0, -s, -s * box.LLx, s * box.URy}
	if err := ip.run(ops, res, ctm); err != nil {
		return nil, err
	}
	return c.img, nil
}

// pageBox returns the visible area of the page.  The CropBox is used if
// present, otherwise the MediaBox.
func (d *nativeDoc) pageBox(pageDict pdf.Dict) (rect.Rect, error) {
	for _, key := range []pdf.Name{"CropBox", "MediaBox"} {
		if pageDict[key] == nil {
			continue
		}
		box, err := d.getRect(pageDict[key])
		if err != nil {
			return rect.Rect{}, err
		}
		if box.URx > box.LLx && box.URy > box.LLy {
			return box, nil
		}
	}
	return rect.Rect{}, errNoPageBox
}

func (d *nativeDoc) getRect(obj pdf.Object) (rect.Rect, error) {
	a, err := pdf.GetArray(d.r, obj)
	if err != nil {
		return rect.Rect{}, err
	}
	if len(a) != 4 {
		return rect.Rect{}, errNoPageBox
	}
	var v [4]float64
	for i, o := range a {
		x, err := pdf.GetNumber(d.r, o)
		if err != nil {
			return rect.Rect{}, err
		}
		v[i] = float64(x)
	}
	return rect.Rect{
		LLx: min(v[0], v[2]), LLy: min(v[1], v[3]),
		URx: max(v[0], v[2]), URy: max(v[1], v[3]),
	}, nil
}

// readStream decodes and parses the content stream of a form XObject.
func readStream(r pdf.Getter, stm *pdf.Stream) (content.Stream, error) {
	body, err := pdf.DecodeStream(r, stm, 0)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return content.ReadStream(body, pdf.GetVersion(r), content.Form, &content.Resources{})
}

var errNoPageBox = errors.New("missing or invalid page box")

// maxPixels limits the size of rendered pages.
const maxPixels = 1 << 28
