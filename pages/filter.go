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

// Package pages selects the pages which take part in a comparison.
package pages

import (
	"fmt"
	"slices"
)

// Filter restricts a comparison to a subset of the pages of a document.
// Page indexes are zero-based.  At most one of the two lists may be
// non-empty.
type Filter struct {
	Only []int
	Skip []int
}

// Resolve returns the selected page indexes for a document with the given
// number of pages, in increasing order and without duplicates.
//
// If Only is set, exactly the listed pages are selected.  Otherwise all
// pages except the ones listed in Skip are selected.  Indexes outside the
// document are an error.
func (f Filter) Resolve(total int) ([]int, error) {
	if len(f.Only) > 0 && len(f.Skip) > 0 {
		return nil, &Error{Reason: "only and skip cannot be combined"}
	}
	if err := checkRange("only", f.Only, total); err != nil {
		return nil, err
	}
	if err := checkRange("skip", f.Skip, total); err != nil {
		return nil, err
	}

	if len(f.Only) > 0 {
		res := slices.Clone(f.Only)
		slices.Sort(res)
		return slices.Compact(res), nil
	}

	res := make([]int, 0, total)
	for i := range total {
		if !slices.Contains(f.Skip, i) {
			res = append(res, i)
		}
	}
	return res, nil
}

func checkRange(list string, idx []int, total int) error {
	for _, i := range idx {
		if i < 0 || i >= total {
			return &Error{
				Reason: fmt.Sprintf("%s: page index %d out of range [0, %d)", list, i, total),
			}
		}
	}
	return nil
}

// Error indicates a page filter which cannot be applied to a document.
type Error struct {
	Reason string
}

func (err *Error) Error() string {
	return "invalid page filter: " + err.Reason
}
