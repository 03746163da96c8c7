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
	"fmt"
	"image"

	"github.com/orisano/pixelmatch"
	"golang.org/x/image/draw"
)

// Pixelmatch compares images using the pixelmatch algorithm, which
// measures colour differences in YIQ space.
type Pixelmatch struct {
	// Threshold is the matching threshold in the range [0, 1].
	// Zero means that every colour difference is reported.
	Threshold float64

	// SkipAntiAliased excludes pixels which look like anti-aliased edges
	// from the mismatch count.  By default these are counted like any
	// other difference.
	SkipAntiAliased bool
}

// Diff implements the [Differ] interface.
func (p *Pixelmatch) Diff(a, b image.Image, ignored []image.Rectangle) (Result, error) {
	if !sameSize(a, b) {
		return sizeMismatch(a, b), nil
	}
	if p.Threshold < 0 || p.Threshold > 1 {
		return Result{}, fmt.Errorf("pixelmatch: threshold %g not in [0, 1]", p.Threshold)
	}

	fa, fb := flatten(a), flatten(b)
	blank(fa, fb, ignored)

	var out image.Image
	opts := []pixelmatch.MatchOption{
		pixelmatch.Threshold(p.Threshold),
		pixelmatch.WriteTo(&out),
	}
	if !p.SkipAntiAliased {
		opts = append(opts, pixelmatch.IncludeAntiAlias)
	}
	n, err := pixelmatch.MatchPixel(fa, fb, opts...)
	if err != nil {
		return Result{}, fmt.Errorf("pixelmatch: %w", err)
	}

	if out == nil {
		out = faded(fa)
	}
	if d, ok := out.(draw.Image); ok {
		shade(d, ignored)
	}
	return Result{Mismatch: n, Image: out}, nil
}
