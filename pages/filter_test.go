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

package pages

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResolve(t *testing.T) {
	cases := []struct {
		name   string
		filter Filter
		total  int
		want   []int
	}{
		{"all", Filter{}, 3, []int{0, 1, 2}},
		{"empty document", Filter{}, 0, []int{}},
		{"only", Filter{Only: []int{1}}, 3, []int{1}},
		{"only unsorted", Filter{Only: []int{2, 0, 2}}, 3, []int{0, 2}},
		{"skip", Filter{Skip: []int{0}}, 3, []int{1, 2}},
		{"skip everything", Filter{Skip: []int{1, 0}}, 2, []int{}},
		{"skip duplicates", Filter{Skip: []int{1, 1}}, 3, []int{0, 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.filter.Resolve(tc.total)
			if err != nil {
				t.Fatal(err)
			}
			if d := cmp.Diff(tc.want, got); d != "" {
				t.Errorf("(-want +got):\n%s", d)
			}
		})
	}
}

func TestResolveErrors(t *testing.T) {
	cases := []struct {
		name   string
		filter Filter
		total  int
	}{
		{"both lists", Filter{Only: []int{0}, Skip: []int{1}}, 3},
		{"only out of range", Filter{Only: []int{3}}, 3},
		{"skip out of range", Filter{Skip: []int{5}}, 3},
		{"negative", Filter{Only: []int{-1}}, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.filter.Resolve(tc.total)
			var filterErr *Error
			if !errors.As(err, &filterErr) {
				t.Errorf("got %v, want *Error", err)
			}
		})
	}
}

func TestResolveIdempotent(t *testing.T) {
	f := Filter{Only: []int{2, 1}}
	a, _ := f.Resolve(4)
	b, _ := f.Resolve(4)
	if d := cmp.Diff(a, b); d != "" {
		t.Errorf("results differ:\n%s", d)
	}
	if d := cmp.Diff([]int{2, 1}, f.Only); d != "" {
		t.Errorf("input modified:\n%s", d)
	}
}
