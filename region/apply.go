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

package region

import (
	"errors"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// ErrEmptyCrop is returned by [Apply] if the crop rectangle lies outside
// the page.
var ErrEmptyCrop = errors.New("crop rectangle does not intersect the page")

// Apply crops img and then paints all masks with the fill colour.
// Mask coordinates refer to the uncropped page.  The result always has its
// origin at (0, 0), and the masked rectangles are returned in the
// coordinates of the result.  img is not modified.
func Apply(img image.Image, rg Regions, fill color.Color) (*image.NRGBA, []image.Rectangle, error) {
	b := img.Bounds()

	src := b
	if rg.Crop != nil {
		src = rg.Crop.Rect().Add(b.Min).Intersect(b)
		if src.Empty() {
			return nil, nil, ErrEmptyCrop
		}
	}

	out := image.NewNRGBA(image.Rect(0, 0, src.Dx(), src.Dy()))
	draw.Draw(out, out.Bounds(), img, src.Min, draw.Src)

	offset := src.Min.Sub(b.Min)
	paint := image.NewUniform(fill)
	var ignored []image.Rectangle
	for _, m := range rg.Masks {
		r := m.Rect().Sub(offset).Intersect(out.Bounds())
		if r.Empty() {
			continue
		}
		draw.Draw(out, r, paint, image.Point{}, draw.Src)
		ignored = append(ignored, r)
	}
	return out, ignored, nil
}
