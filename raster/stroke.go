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

	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/pdf/graphics"
)

// segment is a flattened piece of a stroked path, in user space.
type segment struct {
	a, b   vec.Vec2
	t, n   vec.Vec2 // unit tangent, and unit normal 90° CCW from t
	length float64
}

func newSegment(a, b vec.Vec2) (segment, bool) {
	d := b.Sub(a)
	l := d.Length()
	if l < zeroLengthThreshold {
		return segment{}, false
	}
	t := d.Mul(1 / l)
	return segment{a: a, b: b, t: t, n: vec.Vec2{X: -t.Y, Y: t.X}, length: l}, true
}

// sub returns the part of s between the arc lengths from and to.
func (s segment) sub(from, to float64) segment {
	res := s
	res.a = s.a.Add(s.t.Mul(from))
	res.b = s.a.Add(s.t.Mul(to))
	res.length = to - from
	return res
}

// subpath describes a range of r.segs.
type subpath struct {
	start, end int
	closed     bool
	dot        bool // the subpath has no extent
	at         vec.Vec2
}

// Stroke strokes the path using the line parameters of r.
//
// The stroke outline is built from one polygon per segment, plus polygons
// for joins and caps.  All polygons have the same orientation, so that
// filling them with the nonzero rule paints the union.
func (r *Rasteriser) Stroke(p *path.Data, emit EmitFunc) {
	r.flattenStroke(p)

	r.polys = r.polys[:0]
	r.polyEnds = r.polyEnds[:0]
	d := r.halfWidth()
	for _, sp := range r.subpaths {
		if sp.dot {
			r.dot(sp.at, vec.Vec2{X: 1}, d)
			continue
		}
		segs := r.segs[sp.start:sp.end]
		if len(r.Dash) > 0 {
			r.dash(segs, d)
		} else {
			r.outline(segs, sp.closed, d)
		}
	}

	r.beginEdges()
	start := 0
	for _, end := range r.polyEnds {
		poly := r.polys[start:end]
		for i := range poly {
			r.addEdge(poly[i], poly[(i+1)%len(poly)])
		}
		start = end
	}
	r.rasterise(fillNonZero, emit)
}

// halfWidth returns half the line width in user space.  A zero line width
// selects the thinnest line the device can show, one pixel wide.
func (r *Rasteriser) halfWidth() float64 {
	if r.Width > 0 {
		return r.Width / 2
	}
	det := math.Abs(r.CTM[0]*r.CTM[3] - r.CTM[1]*r.CTM[2])
	if det == 0 {
		return 0.5
	}
	return 0.5 / math.Sqrt(det)
}

// flattenStroke splits p into subpaths of straight segments.
func (r *Rasteriser) flattenStroke(p *path.Data) {
	r.segs = r.segs[:0]
	r.subpaths = r.subpaths[:0]

	var current, start vec.Vec2
	open := false
	drawn := false
	first := 0
	add := func(a, b vec.Vec2) {
		if s, ok := newSegment(a, b); ok {
			r.segs = append(r.segs, s)
		}
	}
	finish := func(closed bool) {
		switch {
		case len(r.segs) > first:
			r.subpaths = append(r.subpaths, subpath{start: first, end: len(r.segs), closed: closed})
		case drawn || closed:
			r.subpaths = append(r.subpaths, subpath{dot: true, at: start})
		}
		first = len(r.segs)
		drawn = false
	}

	k := 0
	for _, cmd := range p.Cmds {
		switch cmd {
		case path.CmdMoveTo:
			if open {
				finish(false)
			}
			current = p.Coords[k]
			start = current
			open = true
			k++
		case path.CmdLineTo:
			add(current, p.Coords[k])
			current = p.Coords[k]
			drawn = true
			k++
		case path.CmdQuadTo:
			r.flattenQuadratic(current, p.Coords[k], p.Coords[k+1], add)
			current = p.Coords[k+1]
			drawn = true
			k += 2
		case path.CmdCubeTo:
			r.flattenCubic(current, p.Coords[k], p.Coords[k+1], p.Coords[k+2], add)
			current = p.Coords[k+2]
			drawn = true
			k += 3
		case path.CmdClose:
			if open {
				add(current, start)
				finish(true)
				current = start
				open = false
			}
		}
	}
	if open {
		finish(false)
	}
}

// outline adds the stroke polygons for a connected run of segments.
func (r *Rasteriser) outline(segs []segment, closed bool, d float64) {
	if len(segs) == 0 {
		return
	}
	squareCaps := !closed && r.Cap == graphics.LineCapSquare
	for i, s := range segs {
		a, b := s.a, s.b
		if squareCaps && i == 0 {
			a = a.Sub(s.t.Mul(d))
		}
		if squareCaps && i == len(segs)-1 {
			b = b.Add(s.t.Mul(d))
		}
		off := s.n.Mul(d)
		r.addPolygon(a.Add(off), b.Add(off), b.Sub(off), a.Sub(off))
	}

	for i := 1; i < len(segs); i++ {
		r.join(segs[i-1], segs[i], d)
	}
	if closed && len(segs) > 1 {
		r.join(segs[len(segs)-1], segs[0], d)
	}

	if !closed && r.Cap == graphics.LineCapRound {
		r.circle(segs[0].a, d)
		r.circle(segs[len(segs)-1].b, d)
	}
}

// join adds the corner geometry where s1 ends and s2 starts.
func (r *Rasteriser) join(s1, s2 segment, d float64) {
	p := s2.a
	cross := s1.t.X*s2.t.Y - s1.t.Y*s2.t.X
	dot := s1.t.Dot(s2.t)
	if math.Abs(cross) < collinearThreshold && dot > 0 {
		return
	}

	if r.Join == graphics.LineJoinRound {
		r.circle(p, d)
		return
	}

	// the outer side of a left turn is on the right
	side := 1.0
	if cross > 0 {
		side = -1
	}
	n1 := s1.n.Mul(side)
	n2 := s2.n.Mul(side)
	o1 := p.Add(n1.Mul(d))
	o2 := p.Add(n2.Mul(d))

	if r.Join == graphics.LineJoinMiter {
		cosHalf := math.Sqrt(max(0, (1+dot)/2))
		if cosHalf > 0 && 1/cosHalf <= r.MiterLimit {
			bis := n1.Add(n2)
			if l := bis.Length(); l > 0 {
				tip := p.Add(bis.Mul(d / (l * cosHalf)))
				r.addPolygon(p, o1, tip, o2)
				return
			}
		}
	}
	r.addPolygon(p, o1, o2)
}

// dot draws the cap geometry for a subpath or dash of length zero.
// The direction t orients square caps.
func (r *Rasteriser) dot(at, t vec.Vec2, d float64) {
	switch r.Cap {
	case graphics.LineCapRound:
		r.circle(at, d)
	case graphics.LineCapSquare:
		n := vec.Vec2{X: -t.Y, Y: t.X}
		tx, nx := t.Mul(d), n.Mul(d)
		r.addPolygon(
			at.Add(tx).Add(nx),
			at.Add(tx).Sub(nx),
			at.Sub(tx).Sub(nx),
			at.Sub(tx).Add(nx),
		)
	}
}

// dash splits segs according to the dash pattern and outlines every dash.
//
// Only the parts of segments near the clip rectangle are split into
// dashes.  Where the dash period is shorter than minDashPeriod device
// pixels, or once maxDashes dashes have been generated, the line is drawn
// solid.
func (r *Rasteriser) dash(segs []segment, d float64) {
	pattern := r.Dash
	total := 0.0
	for _, v := range pattern {
		if v < 0 {
			r.outline(segs, false, d)
			return
		}
		total += v
	}
	if len(pattern)%2 == 1 {
		total *= 2
	}
	if total <= 0 {
		r.outline(segs, false, d)
		return
	}

	ds := &dasher{r: r, pattern: pattern, total: total, d: d}
	phase := math.Mod(r.DashPhase, total)
	if phase < 0 {
		phase += total
	}
	for phase >= ds.at(ds.idx) && phase > 0 {
		phase -= ds.at(ds.idx)
		ds.idx++
	}
	ds.left = ds.at(ds.idx) - phase
	ds.on = ds.idx%2 == 0

	margin := r.strokeMargin(d)
	for i, s := range segs {
		if ds.count >= maxDashes {
			ds.flush()
			r.outline(segs[i:], false, d)
			return
		}

		from, to, ok := r.visible(s, margin)
		if !ok {
			ds.skip(s.length)
			continue
		}
		ds.skip(from)
		if r.transformLinear(s.t).Length()*total < minDashPeriod {
			r.outline([]segment{s.sub(from, to)}, false, d)
		} else {
			ds.run(s, from, to)
		}
		ds.skip(s.length - to)
	}
	ds.flush()
}

const (
	// minDashPeriod is the shortest dash period, in device pixels, for
	// which individual dashes are drawn.
	minDashPeriod = 1.0 / 16

	// maxDashes limits the number of dashes per stroke.
	maxDashes = 1 << 16
)

// dasher holds the position within a dash pattern.
type dasher struct {
	r       *Rasteriser
	pattern []float64
	total   float64
	d       float64

	idx   int
	left  float64 // remaining length of the current pattern element
	on    bool
	piece []segment
	count int
}

func (ds *dasher) at(i int) float64 {
	return ds.pattern[i%len(ds.pattern)]
}

func (ds *dasher) next() {
	ds.idx++
	ds.left = ds.at(ds.idx)
	ds.on = ds.idx%2 == 0
}

// flush outlines the dash collected so far.
func (ds *dasher) flush() {
	if len(ds.piece) > 0 {
		ds.r.outline(ds.piece, false, ds.d)
		ds.count++
	}
	ds.piece = ds.piece[:0]
}

// run generates the dashes on s between the arc lengths from and to.
func (ds *dasher) run(s segment, from, to float64) {
	pos := from
	for {
		if ds.count >= maxDashes {
			ds.flush()
			ds.r.outline([]segment{s.sub(pos, to)}, false, ds.d)
			return
		}
		step := min(ds.left, to-pos)
		if ds.on && step > 0 {
			ds.piece = append(ds.piece, s.sub(pos, pos+step))
		}
		pos += step
		ds.left -= step
		if ds.left > 0 {
			return
		}
		if ds.on {
			if len(ds.piece) == 0 {
				ds.r.dot(s.a.Add(s.t.Mul(pos)), s.t, ds.d)
				ds.count++
			} else {
				ds.flush()
			}
		}
		ds.next()
		if pos >= to && ds.left > 0 {
			return
		}
	}
}

// skip advances the pattern by l without drawing anything.
func (ds *dasher) skip(l float64) {
	if l <= 0 {
		return
	}
	ds.flush()
	if l < ds.left {
		ds.left -= l
		return
	}
	l -= ds.left
	ds.next()
	l = math.Mod(l, ds.total)
	for l >= ds.left && ds.left+l > 0 {
		l -= ds.left
		ds.next()
	}
	ds.left -= l
}

// strokeMargin returns how far, in device pixels, the outline of a stroke
// with half width d can extend beyond its centre line.
func (r *Rasteriser) strokeMargin(d float64) float64 {
	dev := max(
		r.transformLinear(vec.Vec2{X: d}).Length(),
		r.transformLinear(vec.Vec2{Y: d}).Length(),
	)
	ext := 1.5 // square caps reach sqrt(2) times the half width
	if r.Join == graphics.LineJoinMiter {
		ext = max(ext, r.MiterLimit)
	}
	return dev*ext + 1
}

// visible returns the range of arc lengths along s for which the stroke
// can touch the clip rectangle, widened by margin device pixels.
func (r *Rasteriser) visible(s segment, margin float64) (float64, float64, bool) {
	a := r.transformLinear(s.a)
	a.X += r.CTM[4]
	a.Y += r.CTM[5]
	d := r.transformLinear(s.b.Sub(s.a))

	p := [2]float64{a.X, a.Y}
	q := [2]float64{d.X, d.Y}
	lo := [2]float64{r.Clip.LLx - margin, r.Clip.LLy - margin}
	hi := [2]float64{r.Clip.URx + margin, r.Clip.URy + margin}
	t0, t1 := 0.0, 1.0
	for k := range 2 {
		if q[k] == 0 {
			if p[k] < lo[k] || p[k] > hi[k] {
				return 0, 0, false
			}
			continue
		}
		u0 := (lo[k] - p[k]) / q[k]
		u1 := (hi[k] - p[k]) / q[k]
		if u0 > u1 {
			u0, u1 = u1, u0
		}
		t0 = max(t0, u0)
		t1 = min(t1, u1)
	}
	if t0 > t1 {
		return 0, 0, false
	}
	return t0 * s.length, t1 * s.length, true
}

// circle adds a clockwise polygon approximating a circle.
func (r *Rasteriser) circle(center vec.Vec2, radius float64) {
	dev := max(
		r.transformLinear(vec.Vec2{X: radius}).Length(),
		r.transformLinear(vec.Vec2{Y: radius}).Length(),
	)
	n := 16
	if dev > r.Flatness {
		step := 2 * math.Acos(1-r.Flatness/dev)
		if step > 0 && !math.IsNaN(step) {
			n = max(n, int(math.Ceil(2*math.Pi/step)))
		}
	}
	start := len(r.polys)
	for i := range n {
		phi := -2 * math.Pi * float64(i) / float64(n)
		r.polys = append(r.polys, center.Add(vec.Vec2{X: math.Cos(phi), Y: math.Sin(phi)}.Mul(radius)))
	}
	r.polyEnds = append(r.polyEnds, start+n)
}

// addPolygon appends a polygon, reversing it if needed so that it is
// oriented clockwise in user space.  Polygons without area are dropped.
func (r *Rasteriser) addPolygon(pts ...vec.Vec2) {
	var a float64
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		a += p.X*q.Y - q.X*p.Y
	}
	if a == 0 {
		return
	}
	if a > 0 {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	r.polys = append(r.polys, pts...)
	r.polyEnds = append(r.polyEnds, len(r.polys))
}
