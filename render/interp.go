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
	"fmt"
	"image/color"
	"math"
	"slices"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/graphics"
	"seehuhn.de/go/pdf/graphics/content"

	"seehuhn.de/go/pdfcompare/raster"
)

// graphicsState holds the parameters saved by q and restored by Q.
type graphicsState struct {
	ctm matrix.Matrix

	fill, stroke           color.NRGBA
	fillAlpha, strokeAlpha float64

	lineWidth  float64
	cap        graphics.LineCapStyle
	join       graphics.LineJoinStyle
	miterLimit float64
	dash       []float64
	dashPhase  float64

	charSpace float64
	wordSpace float64
	hScale    float64
	leading   float64
	rise      float64
	font      *fontInfo
	fontSize  float64
	textMode  int
}

func defaultState(ctm matrix.Matrix) graphicsState {
	return graphicsState{
		ctm:         ctm,
		fill:        color.NRGBA{A: 255},
		stroke:      color.NRGBA{A: 255},
		fillAlpha:   1,
		strokeAlpha: 1,
		lineWidth:   1,
		miterLimit:  10,
		hScale:      1,
	}
}

// interpreter executes content streams, drawing onto a canvas.
type interpreter struct {
	ctx    context.Context
	r      pdf.Getter
	ras    *raster.Rasteriser
	canvas *canvas
	clip   rect.Rect

	gs    graphicsState
	stack []graphicsState

	path           path.Data
	current, start vec.Vec2

	tm, tlm matrix.Matrix

	fonts map[pdf.Reference]*fontInfo
	depth int
	ops   int
}

func newInterpreter(ctx context.Context, r pdf.Getter, ras *raster.Rasteriser, c *canvas, clip rect.Rect) *interpreter {
	return &interpreter{
		ctx:    ctx,
		r:      r,
		ras:    ras,
		canvas: c,
		clip:   clip,
		fonts:  make(map[pdf.Reference]*fontInfo),
	}
}

// run executes a page content stream.
func (ip *interpreter) run(ops content.Stream, res pdf.Dict, ctm matrix.Matrix) error {
	ip.gs = defaultState(ctm)
	ip.stack = ip.stack[:0]
	ip.tm, ip.tlm = matrix.Identity, matrix.Identity
	return ip.exec(ops, res)
}

func (ip *interpreter) exec(ops content.Stream, res pdf.Dict) error {
	for _, op := range ops {
		ip.ops++
		if ip.ops%checkInterval == 0 || paintOps[op.Name] {
			if err := ip.ctx.Err(); err != nil {
				return err
			}
		}

		if err := ip.do(string(op.Name), op.Args, res); err != nil {
			return err
		}
	}
	return nil
}

// paintOps are the operators which can take a long time to execute.
var paintOps = map[content.OpName]bool{
	"f": true, "F": true, "f*": true,
	"S": true, "s": true,
	"B": true, "B*": true, "b": true, "b*": true,
	"Tj": true, "'": true, "\"": true, "TJ": true,
	"Do": true,
}

// do executes a single operator.  Operators with missing or malformed
// operands are skipped.
func (ip *interpreter) do(op string, args []pdf.Object, res pdf.Dict) error {
	gs := &ip.gs
	switch op {
	// graphics state
	case "q":
		saved := *gs
		saved.dash = slices.Clone(gs.dash)
		ip.stack = append(ip.stack, saved)
	case "Q":
		if n := len(ip.stack); n > 0 {
			ip.gs = ip.stack[n-1]
			ip.stack = ip.stack[:n-1]
		}
	case "cm":
		if x, ok := numbers(args, 6); ok {
			m := matrix.Matrix{x[0], x[1], x[2], x[3], x[4], x[5]}
			gs.ctm = m.Mul(gs.ctm)
		}
	case "w":
		if x, ok := numbers(args, 1); ok {
			gs.lineWidth = math.Abs(x[0])
		}
	case "J":
		if x, ok := numbers(args, 1); ok && x[0] >= 0 && x[0] <= 2 {
			gs.cap = graphics.LineCapStyle(x[0])
		}
	case "j":
		if x, ok := numbers(args, 1); ok && x[0] >= 0 && x[0] <= 2 {
			gs.join = graphics.LineJoinStyle(x[0])
		}
	case "M":
		if x, ok := numbers(args, 1); ok {
			gs.miterLimit = max(x[0], 1)
		}
	case "d":
		if len(args) >= 2 {
			pattern, isArray := args[len(args)-2].(pdf.Array)
			phase, isNum := toNumber(args[len(args)-1])
			if isArray && isNum {
				gs.dash = dashArray(pattern)
				gs.dashPhase = phase
			}
		}
	case "gs":
		if name, ok := lastName(args); ok {
			ip.extGState(name, res)
		}

	// path construction
	case "m":
		if x, ok := numbers(args, 2); ok {
			ip.moveTo(vec.Vec2{X: x[0], Y: x[1]})
		}
	case "l":
		if x, ok := numbers(args, 2); ok {
			ip.ensureStart()
			p := vec.Vec2{X: x[0], Y: x[1]}
			ip.path.LineTo(p)
			ip.current = p
		}
	case "c":
		if x, ok := numbers(args, 6); ok {
			ip.curveTo(vec.Vec2{X: x[0], Y: x[1]}, vec.Vec2{X: x[2], Y: x[3]}, vec.Vec2{X: x[4], Y: x[5]})
		}
	case "v":
		if x, ok := numbers(args, 4); ok {
			ip.curveTo(ip.current, vec.Vec2{X: x[0], Y: x[1]}, vec.Vec2{X: x[2], Y: x[3]})
		}
	case "y":
		if x, ok := numbers(args, 4); ok {
			end := vec.Vec2{X: x[2], Y: x[3]}
			ip.curveTo(vec.Vec2{X: x[0], Y: x[1]}, end, end)
		}
	case "h":
		ip.closePath()
	case "re":
		if x, ok := numbers(args, 4); ok {
			ip.moveTo(vec.Vec2{X: x[0], Y: x[1]})
			ip.path.LineTo(vec.Vec2{X: x[0] + x[2], Y: x[1]})
			ip.path.LineTo(vec.Vec2{X: x[0] + x[2], Y: x[1] + x[3]})
			ip.path.LineTo(vec.Vec2{X: x[0], Y: x[1] + x[3]})
			ip.closePath()
		}

	// path painting
	case "f", "F":
		ip.fillPath(false)
		ip.endPath()
	case "f*":
		ip.fillPath(true)
		ip.endPath()
	case "S":
		ip.strokePath()
		ip.endPath()
	case "s":
		ip.closePath()
		ip.strokePath()
		ip.endPath()
	case "B":
		ip.fillPath(false)
		ip.strokePath()
		ip.endPath()
	case "B*":
		ip.fillPath(true)
		ip.strokePath()
		ip.endPath()
	case "b":
		ip.closePath()
		ip.fillPath(false)
		ip.strokePath()
		ip.endPath()
	case "b*":
		ip.closePath()
		ip.fillPath(true)
		ip.strokePath()
		ip.endPath()
	case "n":
		ip.endPath()
	case "W", "W*":
		// clipping is not implemented

	// colour
	case "g":
		if x, ok := numbers(args, 1); ok {
			gs.fill = gray(x[0])
		}
	case "G":
		if x, ok := numbers(args, 1); ok {
			gs.stroke = gray(x[0])
		}
	case "rg":
		if x, ok := numbers(args, 3); ok {
			gs.fill = rgb(x[0], x[1], x[2])
		}
	case "RG":
		if x, ok := numbers(args, 3); ok {
			gs.stroke = rgb(x[0], x[1], x[2])
		}
	case "k":
		if x, ok := numbers(args, 4); ok {
			gs.fill = cmyk(x[0], x[1], x[2], x[3])
		}
	case "K":
		if x, ok := numbers(args, 4); ok {
			gs.stroke = cmyk(x[0], x[1], x[2], x[3])
		}
	case "cs":
		// the initial colour of all supported spaces is black
		gs.fill = color.NRGBA{A: 255}
	case "CS":
		gs.stroke = color.NRGBA{A: 255}
	case "sc", "scn":
		if c, ok := anyColor(args); ok {
			gs.fill = c
		}
	case "SC", "SCN":
		if c, ok := anyColor(args); ok {
			gs.stroke = c
		}

	// text
	case "BT":
		ip.tm, ip.tlm = matrix.Identity, matrix.Identity
	case "ET":
	case "Tc":
		if x, ok := numbers(args, 1); ok {
			gs.charSpace = x[0]
		}
	case "Tw":
		if x, ok := numbers(args, 1); ok {
			gs.wordSpace = x[0]
		}
	case "Tz":
		if x, ok := numbers(args, 1); ok {
			gs.hScale = x[0] / 100
		}
	case "TL":
		if x, ok := numbers(args, 1); ok {
			gs.leading = x[0]
		}
	case "Ts":
		if x, ok := numbers(args, 1); ok {
			gs.rise = x[0]
		}
	case "Tr":
		if x, ok := numbers(args, 1); ok && x[0] >= 0 && x[0] <= 7 {
			gs.textMode = int(x[0])
		}
	case "Tf":
		if name, ok := lastName(args[:max(len(args)-1, 0)]); ok {
			if size, ok := toNumber(args[len(args)-1]); ok {
				gs.font = ip.loadFont(name, res)
				gs.fontSize = size
			}
		}
	case "Td":
		if x, ok := numbers(args, 2); ok {
			ip.textMove(x[0], x[1])
		}
	case "TD":
		if x, ok := numbers(args, 2); ok {
			gs.leading = -x[1]
			ip.textMove(x[0], x[1])
		}
	case "Tm":
		if x, ok := numbers(args, 6); ok {
			ip.tlm = matrix.Matrix{x[0], x[1], x[2], x[3], x[4], x[5]}
			ip.tm = ip.tlm
		}
	case "T*":
		ip.textMove(0, -gs.leading)
	case "Tj":
		if s, ok := lastString(args); ok {
			ip.showText(s)
		}
	case "'":
		if s, ok := lastString(args); ok {
			ip.textMove(0, -gs.leading)
			ip.showText(s)
		}
	case "\"":
		if x, ok := numbers(args[:max(len(args)-1, 0)], 2); ok {
			if s, ok := lastString(args); ok {
				gs.wordSpace = x[0]
				gs.charSpace = x[1]
				ip.textMove(0, -gs.leading)
				ip.showText(s)
			}
		}
	case "TJ":
		if len(args) > 0 {
			if a, ok := args[len(args)-1].(pdf.Array); ok {
				ip.showTextArray(a)
			}
		}

	// XObjects
	case "Do":
		if name, ok := lastName(args); ok {
			return ip.xObject(name, res)
		}
	}
	return nil
}

func (ip *interpreter) moveTo(p vec.Vec2) {
	ip.path.MoveTo(p)
	ip.current = p
	ip.start = p
}

// ensureStart begins a new subpath at the current point, if needed.
func (ip *interpreter) ensureStart() {
	if len(ip.path.Cmds) == 0 {
		ip.moveTo(ip.current)
	}
}

func (ip *interpreter) curveTo(p1, p2, p3 vec.Vec2) {
	ip.ensureStart()
	ip.path.CubeTo(p1, p2, p3)
	ip.current = p3
}

func (ip *interpreter) closePath() {
	if len(ip.path.Cmds) == 0 {
		return
	}
	ip.path.Close()
	ip.current = ip.start
}

func (ip *interpreter) endPath() {
	ip.path.Cmds = ip.path.Cmds[:0]
	ip.path.Coords = ip.path.Coords[:0]
}

// prepare resets the rasteriser for a paint operation with the given
// transformation.  It returns false if nothing can be drawn.
func (ip *interpreter) prepare(ctm matrix.Matrix) bool {
	if ctm[0]*ctm[3]-ctm[1]*ctm[2] == 0 {
		return false
	}
	ip.ras.Reset(ip.clip)
	ip.ras.CTM = ctm
	return true
}

func (ip *interpreter) fillPath(evenOdd bool) {
	if len(ip.path.Cmds) == 0 || !ip.prepare(ip.gs.ctm) {
		return
	}
	emit := ip.canvas.painter(ip.gs.fill, ip.gs.fillAlpha)
	if evenOdd {
		ip.ras.FillEvenOdd(&ip.path, emit)
	} else {
		ip.ras.FillNonZero(&ip.path, emit)
	}
}

func (ip *interpreter) strokePath() {
	if len(ip.path.Cmds) == 0 || !ip.prepare(ip.gs.ctm) {
		return
	}
	gs := &ip.gs
	ip.ras.Width = gs.lineWidth
	ip.ras.Cap = gs.cap
	ip.ras.Join = gs.join
	ip.ras.MiterLimit = gs.miterLimit
	ip.ras.Dash = gs.dash
	ip.ras.DashPhase = gs.dashPhase
	ip.ras.Stroke(&ip.path, ip.canvas.painter(gs.stroke, gs.strokeAlpha))
}

// extGState applies the supported entries of a graphics state parameter
// dictionary.
func (ip *interpreter) extGState(name string, res pdf.Dict) {
	all, _ := pdf.GetDict(ip.r, res["ExtGState"])
	dict, _ := pdf.GetDict(ip.r, all[pdf.Name(name)])
	if dict == nil {
		return
	}
	num := func(key pdf.Name) (float64, bool) {
		if dict[key] == nil {
			return 0, false
		}
		x, err := pdf.GetNumber(ip.r, dict[key])
		return float64(x), err == nil
	}

	gs := &ip.gs
	if x, ok := num("LW"); ok {
		gs.lineWidth = math.Abs(x)
	}
	if x, ok := num("LC"); ok && x >= 0 && x <= 2 {
		gs.cap = graphics.LineCapStyle(x)
	}
	if x, ok := num("LJ"); ok && x >= 0 && x <= 2 {
		gs.join = graphics.LineJoinStyle(x)
	}
	if x, ok := num("ML"); ok {
		gs.miterLimit = max(x, 1)
	}
	if x, ok := num("CA"); ok {
		gs.strokeAlpha = min(max(x, 0), 1)
	}
	if x, ok := num("ca"); ok {
		gs.fillAlpha = min(max(x, 0), 1)
	}
	if d, _ := pdf.GetArray(ip.r, dict["D"]); len(d) == 2 {
		pattern, _ := pdf.GetArray(ip.r, d[0])
		phase, _ := pdf.GetNumber(ip.r, d[1])
		gs.dash = gs.dash[:0]
		for _, o := range pattern {
			x, err := pdf.GetNumber(ip.r, o)
			if err != nil {
				gs.dash = nil
				break
			}
			gs.dash = append(gs.dash, float64(x))
		}
		if len(gs.dash) == 0 {
			gs.dash = nil
		}
		gs.dashPhase = float64(phase)
	}
}

// xObject draws a form or image XObject.
func (ip *interpreter) xObject(name string, res pdf.Dict) error {
	all, err := pdf.GetDict(ip.r, res["XObject"])
	if err != nil {
		return err
	}
	stm, err := pdf.GetStream(ip.r, all[pdf.Name(name)])
	if err != nil {
		return err
	}
	if stm == nil {
		return nil
	}

	subtype, _ := pdf.GetName(ip.r, stm.Dict["Subtype"])
	switch subtype {
	case "Image":
		col := placeholderColor
		if ip.isTrue(stm.Dict["ImageMask"]) {
			col = ip.gs.fill
		}
		if !ip.prepare(ip.gs.ctm) {
			return nil
		}
		unit := (&path.Data{}).
			MoveTo(vec.Vec2{X: 0, Y: 0}).
			LineTo(vec.Vec2{X: 1, Y: 0}).
			LineTo(vec.Vec2{X: 1, Y: 1}).
			LineTo(vec.Vec2{X: 0, Y: 1}).
			Close()
		ip.ras.FillNonZero(unit, ip.canvas.painter(col, ip.gs.fillAlpha))

	case "Form":
		if ip.depth >= maxFormDepth {
			return nil
		}
		ops, err := readStream(ip.r, stm)
		if err != nil {
			return err
		}

		m := matrix.Identity
		if a, _ := pdf.GetArray(ip.r, stm.Dict["Matrix"]); len(a) == 6 {
			for i, o := range a {
				x, err := pdf.GetNumber(ip.r, o)
				if err != nil {
					m = matrix.Identity
					break
				}
				m[i] = float64(x)
			}
		}
		formRes, _ := pdf.GetDict(ip.r, stm.Dict["Resources"])
		if formRes == nil {
			formRes = res
		}

		saved := ip.gs
		saved.dash = slices.Clone(ip.gs.dash)
		stackLen := len(ip.stack)
		ip.gs.ctm = m.Mul(ip.gs.ctm)
		ip.endPath()

		ip.depth++
		err = ip.exec(ops, formRes)
		ip.depth--

		ip.gs = saved
		ip.stack = ip.stack[:min(stackLen, len(ip.stack))]
		ip.endPath()
		return err
	}
	return nil
}

func (ip *interpreter) isTrue(obj pdf.Object) bool {
	obj, _ = pdf.Resolve(ip.r, obj)
	return obj != nil && fmt.Sprint(obj) == "true"
}

// toNumber converts a numeric operand.
func toNumber(obj pdf.Object) (float64, bool) {
	switch x := obj.(type) {
	case pdf.Integer:
		return float64(x), true
	case pdf.Real:
		return float64(x), true
	case pdf.Number:
		return float64(x), true
	}
	return 0, false
}

// numbers returns the last n operands, which must all be numbers.
func numbers(args []pdf.Object, n int) ([]float64, bool) {
	if len(args) < n {
		return nil, false
	}
	var buf [6]float64
	res := buf[:0]
	for _, a := range args[len(args)-n:] {
		x, ok := toNumber(a)
		if !ok {
			return nil, false
		}
		res = append(res, x)
	}
	return res, true
}

func lastString(args []pdf.Object) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	s, ok := args[len(args)-1].(pdf.String)
	return string(s), ok
}

func lastName(args []pdf.Object) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	n, ok := args[len(args)-1].(pdf.Name)
	return string(n), ok
}

// dashArray converts a dash pattern.  Invalid patterns give a solid line.
func dashArray(arr pdf.Array) []float64 {
	if len(arr) == 0 {
		return nil
	}
	res := make([]float64, len(arr))
	for i, a := range arr {
		x, ok := toNumber(a)
		if !ok || x < 0 {
			return nil
		}
		res[i] = x
	}
	return res
}

func clamp01(x float64) float64 {
	return min(max(x, 0), 1)
}

func gray(g float64) color.NRGBA {
	v := uint8(math.Round(clamp01(g) * 255))
	return color.NRGBA{R: v, G: v, B: v, A: 255}
}

func rgb(r, g, b float64) color.NRGBA {
	return color.NRGBA{
		R: uint8(math.Round(clamp01(r) * 255)),
		G: uint8(math.Round(clamp01(g) * 255)),
		B: uint8(math.Round(clamp01(b) * 255)),
		A: 255,
	}
}

func cmyk(c, m, y, k float64) color.NRGBA {
	k = clamp01(k)
	return rgb((1-clamp01(c))*(1-k), (1-clamp01(m))*(1-k), (1-clamp01(y))*(1-k))
}

// anyColor interprets the numeric operands of sc and scn, using their count
// to determine the colour space.
func anyColor(args []pdf.Object) (color.NRGBA, bool) {
	var x []float64
	for _, a := range args {
		if v, ok := toNumber(a); ok {
			x = append(x, v)
		}
	}
	switch len(x) {
	case 1:
		return gray(x[0]), true
	case 3:
		return rgb(x[0], x[1], x[2]), true
	case 4:
		return cmyk(x[0], x[1], x[2], x[3]), true
	}
	return color.NRGBA{}, false
}

var placeholderColor = color.NRGBA{R: 128, G: 128, B: 128, A: 255}

const (
	// checkInterval is the number of operators between checks for
	// cancellation.
	checkInterval = 1024

	maxFormDepth = 16
)
