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

package pdfcompare

import "image"

// Status is the outcome of a comparison.
type Status string

// These are the possible outcomes.
const (
	Passed Status = "passed"
	Failed Status = "failed"
)

// Verdict is the result of a comparison.
//
// A failed verdict always has a message.  Details are only present if a
// visual comparison failed, and then list every compared page.
type Verdict struct {
	Status  Status     `json:"status"`
	Message string     `json:"message,omitempty"`
	Details []PageDiff `json:"details,omitempty"`
}

// Passed reports whether the files were found to be equivalent.
func (v Verdict) Passed() bool {
	return v.Status == Passed
}

// PageDiff describes the comparison of one pair of pages.
type PageDiff struct {
	PageIndex     int `json:"pageIndex"`
	MismatchCount int `json:"mismatchCount"`

	// DiffPath is the location of the diff image, if it was written to
	// disk.
	DiffPath string `json:"diffImage,omitempty"`

	DiffImage image.Image `json:"-"`
}

func failed(msg string) Verdict {
	return Verdict{Status: Failed, Message: msg}
}
