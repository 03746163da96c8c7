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

package raster

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/pdf/graphics"
)

// canvas collects coverage into a width×height buffer.
type canvas struct {
	w, h int
	pix  []float32
}

func newCanvas(w, h int) *canvas {
	return &canvas{w: w, h: h, pix: make([]float32, w*h)}
}

func (c *canvas) emit(y, xMin int, coverage []float32) {
	copy(c.pix[y*c.w+xMin:], coverage)
}

func (c *canvas) at(x, y int) float32 {
	return c.pix[y*c.w+x]
}

func (c *canvas) sum() float64 {
	var s float64
	for _, v := range c.pix {
		s += float64(v)
	}
	return s
}

func rectPath(x0, y0, x1, y1 float64) *path.Data {
	return (&path.Data{}).
		MoveTo(vec.Vec2{X: x0, Y: y0}).
		LineTo(vec.Vec2{X: x1, Y: y0}).
		LineTo(vec.Vec2{X: x1, Y: y1}).
		LineTo(vec.Vec2{X: x0, Y: y1}).
		Close()
}

// TestTriangleCoverage checks exact coverage values for the triangle
// (0,0)→(10,0)→(10,1).  Pixel x is covered to (2x+1)/20.
func TestTriangleCoverage(t *testing.T) {
	p := (&path.Data{}).
		MoveTo(vec.Vec2{X: 0, Y: 0}).
		LineTo(vec.Vec2{X: 10, Y: 0}).
		LineTo(vec.Vec2{X: 10, Y: 1}).
		Close()

	c := newCanvas(10, 1)
	r := NewRasteriser(rect.Rect{URx: 10, URy: 1})
	r.FillNonZero(p, c.emit)

	for x := range 10 {
		want := float32(2*x+1) / 20
		if got := c.at(x, 0); math.Abs(float64(got-want)) > 1e-6 {
			t.Errorf("pixel %d: got %.4f, want %.4f", x, got, want)
		}
	}
}

func TestFillApproaches(t *testing.T) {
	star := (&path.Data{}).
		MoveTo(vec.Vec2{X: 32, Y: 4}).
		LineTo(vec.Vec2{X: 48, Y: 60}).
		LineTo(vec.Vec2{X: 4, Y: 24}).
		LineTo(vec.Vec2{X: 60, Y: 24}).
		LineTo(vec.Vec2{X: 16, Y: 60}).
		Close()

	for _, evenOdd := range []bool{false, true} {
		var results [2]*canvas
		for i, threshold := range []int{1 << 30, 0} {
			c := newCanvas(64, 64)
			r := NewRasteriser(rect.Rect{URx: 64, URy: 64})
			r.smallPathThreshold = threshold
			if evenOdd {
				r.FillEvenOdd(star, c.emit)
			} else {
				r.FillNonZero(star, c.emit)
			}
			results[i] = c
		}
		opt := cmpopts.EquateApprox(0, 1e-5)
		if d := cmp.Diff(results[0].pix, results[1].pix, opt); d != "" {
			t.Errorf("evenOdd=%t: approaches differ (-small +large):\n%s", evenOdd, d)
		}
	}
}

func TestEvenOddHole(t *testing.T) {
	p := rectPath(0, 0, 10, 10)
	inner := rectPath(3, 3, 7, 7)
	p.Cmds = append(p.Cmds, inner.Cmds...)
	p.Coords = append(p.Coords, inner.Coords...)

	c := newCanvas(10, 10)
	r := NewRasteriser(rect.Rect{URx: 10, URy: 10})
	r.FillEvenOdd(p, c.emit)

	if got := c.at(5, 5); got != 0 {
		t.Errorf("hole covered: %g", got)
	}
	if got := c.at(1, 1); got != 1 {
		t.Errorf("ring not covered: %g", got)
	}
}

func TestClip(t *testing.T) {
	c := newCanvas(8, 8)
	r := NewRasteriser(rect.Rect{URx: 8, URy: 8})
	r.FillNonZero(rectPath(-20, -20, 20, 20), c.emit)
	if got := c.sum(); got != 64 {
		t.Errorf("clipped fill covers %g pixels, want 64", got)
	}
}

func TestCTM(t *testing.T) {
	c := newCanvas(20, 20)
	r := NewRasteriser(rect.Rect{URx: 20, URy: 20})
	r.CTM = matrix.Matrix{2, 0, 0, -2, 0, 20} // scale and flip
	r.FillNonZero(rectPath(0, 0, 5, 5), c.emit)

	if got := c.sum(); math.Abs(got-100) > 1e-3 {
		t.Errorf("covered area %g, want 100", got)
	}
	if c.at(5, 15) != 1 || c.at(5, 5) != 0 {
		t.Error("rectangle not mapped to the bottom left quarter")
	}
}

func TestStrokeWidth(t *testing.T) {
	line := (&path.Data{}).
		MoveTo(vec.Vec2{X: 2, Y: 10}).
		LineTo(vec.Vec2{X: 18, Y: 10})

	cases := []struct {
		cap  graphics.LineCapStyle
		area float64
	}{
		{graphics.LineCapButt, 16 * 4},
		{graphics.LineCapSquare, 20 * 4},
		{graphics.LineCapRound, 16*4 + math.Pi*4},
	}
	for _, tc := range cases {
		c := newCanvas(24, 24)
		r := NewRasteriser(rect.Rect{URx: 24, URy: 24})
		r.Width = 4
		r.Cap = tc.cap
		r.Stroke(line, c.emit)

		// the polygonal approximation of round caps is slightly smaller
		if got := c.sum(); math.Abs(got-tc.area) > 0.5 {
			t.Errorf("cap %v: covered area %g, want %g", tc.cap, got, tc.area)
		}
	}
}

func TestStrokeJoinUnion(t *testing.T) {
	// an L shape: the corner must not be painted twice or left out
	l := (&path.Data{}).
		MoveTo(vec.Vec2{X: 4, Y: 4}).
		LineTo(vec.Vec2{X: 16, Y: 4}).
		LineTo(vec.Vec2{X: 16, Y: 16})

	for _, join := range []graphics.LineJoinStyle{graphics.LineJoinMiter, graphics.LineJoinRound, graphics.LineJoinBevel} {
		c := newCanvas(24, 24)
		r := NewRasteriser(rect.Rect{URx: 24, URy: 24})
		r.Width = 2
		r.Join = join
		r.Stroke(l, c.emit)

		for i, v := range c.pix {
			if v > 1 {
				t.Fatalf("join %v: pixel %d has coverage %g", join, i, v)
			}
		}
		if join == graphics.LineJoinMiter && c.at(16, 3) != 1 {
			t.Errorf("miter corner not filled: %g", c.at(16, 3))
		}
	}
}

func TestDash(t *testing.T) {
	line := (&path.Data{}).
		MoveTo(vec.Vec2{X: 0, Y: 5}).
		LineTo(vec.Vec2{X: 20, Y: 5})

	c := newCanvas(20, 10)
	r := NewRasteriser(rect.Rect{URx: 20, URy: 10})
	r.Width = 2
	r.Dash = []float64{5, 5}
	r.Stroke(line, c.emit)

	if got := c.sum(); math.Abs(got-20) > 1e-3 {
		t.Errorf("dashed area %g, want 20", got)
	}
	if c.at(2, 5) != 1 {
		t.Error("first dash missing")
	}
	if c.at(7, 5) != 0 {
		t.Error("first gap painted")
	}

	// the phase shifts the pattern
	c = newCanvas(20, 10)
	r.DashPhase = 5
	r.Stroke(line, c.emit)
	if c.at(2, 5) != 0 || c.at(7, 5) != 1 {
		t.Error("dash phase ignored")
	}
}

func TestReset(t *testing.T) {
	r := NewRasteriser(rect.Rect{URx: 4, URy: 4})
	r.Width = 7
	r.Dash = []float64{1}
	r.CTM = matrix.Matrix{2, 0, 0, 2, 0, 0}

	r.Reset(rect.Rect{URx: 8, URy: 8})
	if r.Width != 1 || r.Dash != nil || r.CTM != matrix.Identity {
		t.Error("parameters not reset")
	}
	if r.Clip.URx != 8 {
		t.Error("clip not updated")
	}
}

func TestDashLongLine(t *testing.T) {
	cases := []struct {
		name   string
		x0, x1 float64
		dash   []float64
		area   float64
	}{
		// the period is far below one pixel: the line is drawn solid
		{"fine", 0, 1e5, []float64{0.001}, 100},
		{"coarse", 0, 1e7, []float64{1}, 50},
		// the pattern is advanced over the invisible part
		{"offscreen start", -1e7, 50, []float64{5, 5}, 50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			line := (&path.Data{}).
				MoveTo(vec.Vec2{X: tc.x0, Y: 25}).
				LineTo(vec.Vec2{X: tc.x1, Y: 25})

			c := newCanvas(50, 50)
			r := NewRasteriser(rect.Rect{URx: 50, URy: 50})
			r.Width = 2
			r.Dash = tc.dash
			r.Stroke(line, c.emit)

			if got := c.sum(); math.Abs(got-tc.area) > 1e-3 {
				t.Errorf("covered area %g, want %g", got, tc.area)
			}
			if len(r.polyEnds) > 1000 {
				t.Errorf("%d polygons generated", len(r.polyEnds))
			}
		})
	}
}

func TestDashOffscreenPhase(t *testing.T) {
	line := (&path.Data{}).
		MoveTo(vec.Vec2{X: -1e7, Y: 25}).
		LineTo(vec.Vec2{X: 50, Y: 25})

	c := newCanvas(50, 50)
	r := NewRasteriser(rect.Rect{URx: 50, URy: 50})
	r.Width = 2
	r.Dash = []float64{5, 5}
	r.Stroke(line, c.emit)

	// 1e7 is a multiple of the period, so a dash starts at x=0
	if c.at(2, 25) != 1 || c.at(7, 25) != 0 || c.at(12, 25) != 1 {
		t.Error("dash pattern out of phase")
	}
}

func TestDashLimit(t *testing.T) {
	// 2^17 dashes would be visible; the rest of the line is drawn solid
	const size = 1 << 14
	line := (&path.Data{}).
		MoveTo(vec.Vec2{X: 0, Y: 2}).
		LineTo(vec.Vec2{X: size, Y: 2})

	c := newCanvas(size, 4)
	r := NewRasteriser(rect.Rect{URx: size, URy: 4})
	r.Width = 2
	r.Dash = []float64{1.0 / 16}
	r.Stroke(line, c.emit)

	if n := len(r.polyEnds); n > maxDashes+10 {
		t.Errorf("%d polygons generated", n)
	}
	if c.at(size-2, 2) < 0.99 {
		t.Errorf("end of line not drawn solid: %g", c.at(size-2, 2))
	}
}
