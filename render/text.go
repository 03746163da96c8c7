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
	"sync"

	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/pdf"
)

// fontInfo holds the glyph widths of a PDF font, in text space units.
type fontInfo struct {
	twoByte   bool
	firstChar int
	widths    []float64
	cidWidths map[int]float64
	missing   float64
}

// defaultFont is used when no font has been selected, or when the font
// dictionary cannot be read.
var defaultFont = &fontInfo{missing: 0.6}

func (f *fontInfo) width(code int) float64 {
	if f.twoByte {
		if w, ok := f.cidWidths[code]; ok {
			return w
		}
		return f.missing
	}
	if i := code - f.firstChar; i >= 0 && i < len(f.widths) {
		return f.widths[i]
	}
	return f.missing
}

// loadFont reads the widths of the named font resource.
func (ip *interpreter) loadFont(name string, res pdf.Dict) *fontInfo {
	fonts, _ := pdf.GetDict(ip.r, res["Font"])
	obj := fonts[pdf.Name(name)]
	ref, isRef := obj.(pdf.Reference)
	if isRef {
		if f, ok := ip.fonts[ref]; ok {
			return f
		}
	}

	dict, err := pdf.GetDict(ip.r, obj)
	if err != nil || dict == nil {
		return defaultFont
	}

	f := &fontInfo{missing: 0.6}
	subtype, _ := pdf.GetName(ip.r, dict["Subtype"])
	if subtype == "Type0" {
		f.twoByte = true
		f.missing = 1
		desc, _ := pdf.GetArray(ip.r, dict["DescendantFonts"])
		if len(desc) > 0 {
			cidFont, _ := pdf.GetDict(ip.r, desc[0])
			if x, ok := ip.number(cidFont["DW"]); ok {
				f.missing = x / 1000
			}
			f.cidWidths = ip.cidWidths(cidFont["W"])
		}
	} else {
		if x, ok := ip.number(dict["FirstChar"]); ok {
			f.firstChar = int(x)
		}
		ww, _ := pdf.GetArray(ip.r, dict["Widths"])
		for _, o := range ww {
			x, _ := ip.number(o)
			f.widths = append(f.widths, x/1000)
		}
		desc, _ := pdf.GetDict(ip.r, dict["FontDescriptor"])
		if x, ok := ip.number(desc["MissingWidth"]); ok && x > 0 {
			f.missing = x / 1000
		}
	}

	if isRef {
		ip.fonts[ref] = f
	}
	return f
}

// cidWidths decodes the W array of a CIDFont.
func (ip *interpreter) cidWidths(obj pdf.Object) map[int]float64 {
	w, _ := pdf.GetArray(ip.r, obj)
	if len(w) == 0 {
		return nil
	}
	res := make(map[int]float64)
	for i := 0; i < len(w); {
		first, ok := ip.number(w[i])
		if !ok || i+1 >= len(w) {
			break
		}
		if list, err := pdf.GetArray(ip.r, w[i+1]); err == nil && list != nil {
			for k, o := range list {
				x, _ := ip.number(o)
				res[int(first)+k] = x / 1000
			}
			i += 2
			continue
		}
		if i+2 >= len(w) {
			break
		}
		last, ok1 := ip.number(w[i+1])
		x, ok2 := ip.number(w[i+2])
		if !ok1 || !ok2 || last-first > maxCIDRange {
			break
		}
		for c := int(first); c <= int(last); c++ {
			res[c] = x / 1000
		}
		i += 3
	}
	return res
}

func (ip *interpreter) number(obj pdf.Object) (float64, bool) {
	if obj == nil {
		return 0, false
	}
	x, err := pdf.GetNumber(ip.r, obj)
	if err != nil {
		return 0, false
	}
	return float64(x), true
}

func (ip *interpreter) textMove(tx, ty float64) {
	ip.tlm = matrix.Matrix{1, 0, 0, 1, tx, ty}.Mul(ip.tlm)
	ip.tm = ip.tlm
}

func (ip *interpreter) showText(s string) {
	gs := &ip.gs
	f := gs.font
	if f == nil {
		f = defaultFont
	}
	visible := gs.textMode%4 != 3

	step := 1
	if f.twoByte {
		step = 2
	}
	for i := 0; i+step <= len(s); i += step {
		code := int(s[i])
		if step == 2 {
			code = code<<8 | int(s[i+1])
		}
		w := f.width(code)
		if visible {
			ip.drawGlyph(code, w, f.twoByte)
		}

		tx := w*gs.fontSize + gs.charSpace
		if step == 1 && code == ' ' {
			tx += gs.wordSpace
		}
		ip.tm = matrix.Matrix{1, 0, 0, 1, tx * gs.hScale, 0}.Mul(ip.tm)
	}
}

func (ip *interpreter) showTextArray(arr pdf.Array) {
	gs := &ip.gs
	for _, a := range arr {
		if s, ok := a.(pdf.String); ok {
			ip.showText(string(s))
		} else if x, ok := toNumber(a); ok {
			tx := -x / 1000 * gs.fontSize * gs.hScale
			ip.tm = matrix.Matrix{1, 0, 0, 1, tx, 0}.Mul(ip.tm)
		}
	}
}

// drawGlyph draws the substitute glyph for a character code at the current
// text position.  The glyph is stretched horizontally to the width w.
func (ip *interpreter) drawGlyph(code int, w float64, cid bool) {
	r := rune(code)
	if cid || code < 32 || code > 126 {
		r = '?'
	}
	runs := glyphRuns()[r]
	if len(runs) == 0 {
		return
	}

	gs := &ip.gs
	trm := matrix.Matrix{gs.fontSize * gs.hScale, 0, 0, gs.fontSize, 0, gs.rise}.Mul(ip.tm).Mul(gs.ctm)
	if !ip.prepare(trm) {
		return
	}

	face := basicfont.Face7x13
	sy := 1 / float64(face.Height)
	sx := w / float64(face.Advance)
	if w <= 0 {
		sx = sy
	}

	p := &path.Data{}
	for _, run := range runs {
		x0, x1 := float64(run.Min.X)*sx, float64(run.Max.X)*sx
		y0, y1 := -float64(run.Max.Y)*sy, -float64(run.Min.Y)*sy
		p.MoveTo(vec.Vec2{X: x0, Y: y0}).
			LineTo(vec.Vec2{X: x1, Y: y0}).
			LineTo(vec.Vec2{X: x1, Y: y1}).
			LineTo(vec.Vec2{X: x0, Y: y1}).
			Close()
	}

	col, alpha := gs.fill, gs.fillAlpha
	if gs.textMode%4 == 1 {
		col, alpha = gs.stroke, gs.strokeAlpha
	}
	ip.ras.FillNonZero(p, ip.canvas.painter(col, alpha))
}

// glyphRuns maps the printable ASCII characters to the horizontal pixel
// runs of their glyphs in the substitute face.  Coordinates are relative to
// the glyph origin on the baseline, with y pointing down.
var glyphRuns = sync.OnceValue(func() map[rune][]image.Rectangle {
	face := basicfont.Face7x13
	res := make(map[rune][]image.Rectangle)
	for r := rune(32); r <= 126; r++ {
		dr, mask, maskp, _, ok := face.Glyph(fixed.Point26_6{}, r)
		if !ok {
			continue
		}
		var runs []image.Rectangle
		for y := dr.Min.Y; y < dr.Max.Y; y++ {
			start := -1
			for x := dr.Min.X; x <= dr.Max.X; x++ {
				on := false
				if x < dr.Max.X {
					_, _, _, a := mask.At(maskp.X+x-dr.Min.X, maskp.Y+y-dr.Min.Y).RGBA()
					on = a >= 0x8000
				}
				switch {
				case on && start < 0:
					start = x
				case !on && start >= 0:
					runs = append(runs, image.Rect(start, y, x, y+1))
					start = -1
				}
			}
		}
		res[r] = runs
	}
	return res
})

// maxCIDRange limits the size of ranges in CIDFont width arrays.
const maxCIDRange = 65535
