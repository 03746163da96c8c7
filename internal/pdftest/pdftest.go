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

// Package pdftest writes small PDF files for use in tests.
//
// The files are written object by object, so that tests have full control
// over the bytes in the file.  All content streams are uncompressed.
package pdftest

import (
	"bytes"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
)

// DefaultWidth and DefaultHeight give the MediaBox of the page tree root,
// which is inherited by all pages without their own size.
const (
	DefaultWidth  = 200
	DefaultHeight = 100
)

// Page describes one page of a test file.
type Page struct {
	// Width and Height give the page size in PDF units.  If zero, the page
	// inherits the MediaBox of the page tree root.
	Width, Height float64

	// Content is the content stream of the page.
	Content string

	// Forms maps XObject names to the content streams of form XObjects.
	// The forms have a BBox of [0 0 1000 1000].
	Forms map[string]string
}

// Doc describes a test file.
type Doc struct {
	Pages []Page

	// Producer is stored in the document information dictionary.
	// Files which differ only in the producer render identically.
	Producer string
}

// Bytes returns the file contents.
//
// Every page can use the font /F1 (Helvetica, with widths for the
// characters 32 to 126) and the image XObject /Im1 (a 1x1 grey pixel).
func (d *Doc) Bytes() []byte {
	w := &writer{}
	w.buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	const (
		catalogRef = 1
		pagesRef   = 2
		fontRef    = 3
		infoRef    = 4
		imageRef   = 5
	)
	next := 6

	var kids []int
	type pageObjs struct {
		page, content int
		forms         map[string]int
	}
	objs := make([]pageObjs, len(d.Pages))
	for i, p := range d.Pages {
		objs[i].page = next
		objs[i].content = next + 1
		next += 2
		objs[i].forms = make(map[string]int)
		for _, name := range sortedKeys(p.Forms) {
			objs[i].forms[name] = next
			next++
		}
		kids = append(kids, objs[i].page)
	}

	w.object(catalogRef, fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesRef))

	var kidRefs bytes.Buffer
	for i, k := range kids {
		if i > 0 {
			kidRefs.WriteByte(' ')
		}
		fmt.Fprintf(&kidRefs, "%d 0 R", k)
	}
	w.object(pagesRef, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 %d %d] >>",
		kidRefs.String(), len(kids), DefaultWidth, DefaultHeight))

	var widths bytes.Buffer
	for c := 32; c <= 126; c++ {
		if c > 32 {
			widths.WriteByte(' ')
		}
		widths.WriteString("600")
	}
	w.object(fontRef, fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /FirstChar 32 /LastChar 126 /Widths [%s] >>", widths.String()))

	producer := d.Producer
	if producer == "" {
		producer = "pdftest"
	}
	w.object(infoRef, fmt.Sprintf("<< /Producer (%s) >>", producer))
	w.stream(imageRef, "/Type /XObject /Subtype /Image /Width 1 /Height 1 /ColorSpace /DeviceGray /BitsPerComponent 8", "\x80")

	for i, p := range d.Pages {
		o := objs[i]

		var xobj bytes.Buffer
		fmt.Fprintf(&xobj, "/Im1 %d 0 R", imageRef)
		for _, name := range sortedKeys(o.forms) {
			fmt.Fprintf(&xobj, " /%s %d 0 R", name, o.forms[name])
		}
		res := fmt.Sprintf("<< /Font << /F1 %d 0 R >> /XObject << %s >> >>", fontRef, xobj.String())

		box := ""
		if p.Width > 0 && p.Height > 0 {
			box = fmt.Sprintf(" /MediaBox [0 0 %g %g]", p.Width, p.Height)
		}
		w.object(o.page, fmt.Sprintf("<< /Type /Page /Parent %d 0 R%s /Resources %s /Contents %d 0 R >>",
			pagesRef, box, res, o.content))
		w.stream(o.content, "", p.Content)

		for _, name := range sortedKeys(o.forms) {
			w.stream(o.forms[name], "/Type /XObject /Subtype /Form /BBox [0 0 1000 1000]", p.Forms[name])
		}
	}

	return w.finish(next, catalogRef, infoRef)
}

// Write writes the file to path.
func (d *Doc) Write(path string) error {
	return os.WriteFile(path, d.Bytes(), 0o644)
}

// WriteTemp writes the file into dir and returns the full path.
func (d *Doc) WriteTemp(dir, name string) (string, error) {
	p := filepath.Join(dir, name)
	if err := d.Write(p); err != nil {
		return "", err
	}
	return p, nil
}

type writer struct {
	buf     bytes.Buffer
	offsets map[int]int
}

func (w *writer) object(ref int, body string) {
	if w.offsets == nil {
		w.offsets = make(map[int]int)
	}
	w.offsets[ref] = w.buf.Len()
	fmt.Fprintf(&w.buf, "%d 0 obj\n%s\nendobj\n", ref, body)
}

func (w *writer) stream(ref int, dict, data string) {
	if w.offsets == nil {
		w.offsets = make(map[int]int)
	}
	w.offsets[ref] = w.buf.Len()
	fmt.Fprintf(&w.buf, "%d 0 obj\n<< %s /Length %d >>\nstream\n%s\nendstream\nendobj\n",
		ref, dict, len(data), data)
}

func (w *writer) finish(size, root, info int) []byte {
	xref := w.buf.Len()
	fmt.Fprintf(&w.buf, "xref\n0 %d\n", size)
	w.buf.WriteString("0000000000 65535 f \n")
	for ref := 1; ref < size; ref++ {
		fmt.Fprintf(&w.buf, "%010d 00000 n \n", w.offsets[ref])
	}
	fmt.Fprintf(&w.buf, "trailer\n<< /Size %d /Root %d 0 R /Info %d 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		size, root, info, xref)
	return w.buf.Bytes()
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
