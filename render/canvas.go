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
	"image"
	"image/color"

	"seehuhn.de/go/pdfcompare/raster"
)

// canvas is an opaque page image, initially white.
type canvas struct {
	img *image.NRGBA
}

func newCanvas(w, h int) *canvas {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return &canvas{img: img}
}

// painter returns an emit function which composites col, with the given
// constant opacity, onto the canvas.
func (c *canvas) painter(col color.NRGBA, alpha float64) raster.EmitFunc {
	r, g, b := float64(col.R), float64(col.G), float64(col.B)
	return func(y, xMin int, coverage []float32) {
		row := c.img.Pix[y*c.img.Stride+4*xMin:]
		for i, v := range coverage {
			a := float64(v) * alpha
			if a <= 0 {
				continue
			}
			p := row[4*i : 4*i+3]
			p[0] = blend(p[0], r, a)
			p[1] = blend(p[1], g, a)
			p[2] = blend(p[2], b, a)
		}
	}
}

func blend(dst uint8, src, a float64) uint8 {
	if a >= 1 {
		return uint8(src)
	}
	return uint8(float64(dst)*(1-a) + src*a + 0.5)
}
