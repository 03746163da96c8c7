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

// Package imagediff counts the differing pixels of two rendered pages.
package imagediff

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Differ compares two images of the same size.
//
// Pixels inside the ignored rectangles never count as mismatched.
// The rectangles are given relative to the image bounds.
type Differ interface {
	Diff(a, b image.Image, ignored []image.Rectangle) (Result, error)
}

// Result describes the outcome of a comparison.
type Result struct {
	// Mismatch is the number of differing pixels.
	Mismatch int

	// Image visualises the differences.  Mismatched pixels are red,
	// all other pixels show a faded copy of the first image.
	Image image.Image
}

var (
	mismatchColor = color.NRGBA{R: 255, A: 255}
	ignoredColor  = color.NRGBA{R: 255, G: 255, B: 0, A: 64}
)

// flatten returns img as an opaque NRGBA image with origin (0, 0),
// composited over white.
func flatten(img image.Image) *image.NRGBA {
	b := img.Bounds()
	res := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(res, res.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(res, res.Bounds(), img, b.Min, draw.Over)
	return res
}

// sameSize reports whether a and b have the same dimensions.
func sameSize(a, b image.Image) bool {
	return a.Bounds().Size() == b.Bounds().Size()
}

// sizeMismatch is the result for images of different sizes: every pixel of
// the larger area counts as mismatched.
func sizeMismatch(a, b image.Image) Result {
	sa, sb := a.Bounds().Size(), b.Bounds().Size()
	w, h := max(sa.X, sb.X), max(sa.Y, sb.Y)
	n := max(sa.X*sa.Y, sb.X*sb.Y)

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(mismatchColor), image.Point{}, draw.Src)
	return Result{Mismatch: n, Image: img}
}

// blank copies the ignored rectangles of a into b, so that they compare
// equal.
func blank(a, b *image.NRGBA, ignored []image.Rectangle) {
	for _, r := range ignored {
		r = r.Intersect(a.Bounds())
		if r.Empty() {
			continue
		}
		draw.Draw(b, r, a, r.Min, draw.Src)
	}
}

// shade marks the ignored rectangles on a diff image.
func shade(img draw.Image, ignored []image.Rectangle) {
	for _, r := range ignored {
		draw.Draw(img, r.Intersect(img.Bounds()), image.NewUniform(ignoredColor), image.Point{}, draw.Over)
	}
}

// fade returns a light grey version of c.
func fade(c color.NRGBA) color.NRGBA {
	y := (299*uint32(c.R) + 587*uint32(c.G) + 114*uint32(c.B)) / 1000
	v := uint8(255 - (255-y)/10)
	return color.NRGBA{R: v, G: v, B: v, A: 255}
}

func faded(img *image.NRGBA) *image.NRGBA {
	b := img.Bounds()
	res := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			res.SetNRGBA(x, y, fade(img.NRGBAAt(x, y)))
		}
	}
	return res
}
