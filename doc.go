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

// Package pdfcompare checks whether two PDF files are equivalent.
//
// Files can be compared byte by byte, via the base64 encoding of their
// contents, or visually, by rendering the pages and comparing the pixels.
// Visual comparisons can be restricted to selected pages, and parts of a
// page can be masked out or cropped to.
//
// A typical use in a test is
//
//	v, err := pdfcompare.New(pdfcompare.DefaultConfig()).
//		ActualPDF("invoice.pdf").
//		BaselinePDF("invoice.pdf").
//		AddMask(0, region.Mask{X0: 35, Y0: 70, X1: 145, Y1: 95}).
//		Compare(ctx, pdfcompare.Auto)
//	if err != nil {
//		t.Fatal(err)
//	}
//	if !v.Passed() {
//		t.Error(v.Message)
//	}
//
// A mismatch between the files is not an error: it is reported through
// the returned [Verdict].  Errors indicate invalid configuration or files
// which cannot be rendered.
package pdfcompare
