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

package imagediff

import (
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Perceptual compares images pixel by pixel, using the CIEDE2000 colour
// difference.
type Perceptual struct {
	// Threshold is the largest colour distance which still counts as
	// equal.  CIEDE2000 distances of about 0.01 are barely visible.
	Threshold float64
}

// Diff implements the [Differ] interface.
func (p *Perceptual) Diff(a, b image.Image, ignored []image.Rectangle) (Result, error) {
	if !sameSize(a, b) {
		return sizeMismatch(a, b), nil
	}

	fa, fb := flatten(a), flatten(b)
	blank(fa, fb, ignored)

	bounds := fa.Bounds()
	out := image.NewNRGBA(bounds)
	n := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			ca, cb := fa.NRGBAAt(x, y), fb.NRGBAAt(x, y)
			if ca == cb || toColorful(ca).DistanceCIEDE2000(toColorful(cb)) <= p.Threshold {
				out.SetNRGBA(x, y, fade(ca))
				continue
			}
			out.SetNRGBA(x, y, mismatchColor)
			n++
		}
	}
	shade(out, ignored)
	return Result{Mismatch: n, Image: out}, nil
}

func toColorful(c color.NRGBA) colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}
}

