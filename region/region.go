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

// Package region describes the parts of a rendered page which take part in
// a visual comparison.
//
// A [Mask] marks a rectangle which is ignored, a [Crop] restricts the
// comparison to a rectangle.  All coordinates are in pixels of the rendered
// page, with the origin in the top-left corner and y pointing down.
package region

import (
	"fmt"
	"image"
	"maps"
	"math"
	"slices"
)

// Mask is a rectangle which is excluded from the comparison.
// The corners are (X0, Y0) and (X1, Y1).
type Mask struct {
	X0, Y0, X1, Y1 float64
}

// Valid reports whether m describes a non-empty rectangle in the
// non-negative quadrant.
func (m Mask) Valid() bool {
	return finite(m.X0, m.Y0, m.X1, m.Y1) &&
		m.X0 >= 0 && m.Y0 >= 0 && m.X1 > m.X0 && m.Y1 > m.Y0
}

// Rect returns the smallest pixel rectangle which contains m.
func (m Mask) Rect() image.Rectangle {
	return pixelRect(m.X0, m.Y0, m.X1, m.Y1)
}

// Crop is the rectangle a page is reduced to before comparison.
type Crop struct {
	X, Y          float64
	Width, Height float64
}

// Valid reports whether c describes a non-empty rectangle in the
// non-negative quadrant.
func (c Crop) Valid() bool {
	return finite(c.X, c.Y, c.Width, c.Height) &&
		c.X >= 0 && c.Y >= 0 && c.Width > 0 && c.Height > 0
}

// Rect returns the smallest pixel rectangle which contains c.
func (c Crop) Rect() image.Rectangle {
	return pixelRect(c.X, c.Y, c.X+c.Width, c.Y+c.Height)
}

func pixelRect(x0, y0, x1, y1 float64) image.Rectangle {
	return image.Rect(
		int(math.Floor(x0)), int(math.Floor(y0)),
		int(math.Ceil(x1)), int(math.Ceil(y1)),
	)
}

func finite(xx ...float64) bool {
	for _, x := range xx {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// PageMask assigns a mask to a zero-based page index.
type PageMask struct {
	Page int
	Mask Mask
}

// PageCrop assigns a crop to a zero-based page index.
type PageCrop struct {
	Page int
	Crop Crop
}

// Regions are the masks and the crop which apply to one page.
type Regions struct {
	Masks []Mask

	// Crop is nil if the whole page is compared.
	Crop *Crop
}

// Set collects the masks and crops for all pages of a document.
// The zero value is an empty set, ready to use.
type Set struct {
	masks map[int][]Mask
	crops map[int]Crop
}

// AddMask appends a mask for the given page.  Masks accumulate.
func (s *Set) AddMask(page int, m Mask) error {
	if err := checkMask(page, m); err != nil {
		return err
	}
	if s.masks == nil {
		s.masks = make(map[int][]Mask)
	}
	s.masks[page] = append(s.masks[page], m)
	return nil
}

// AddMasks adds several masks.  If one of them is invalid, none of the
// masks are added.
func (s *Set) AddMasks(mm []PageMask) error {
	for _, pm := range mm {
		if err := checkMask(pm.Page, pm.Mask); err != nil {
			return err
		}
	}
	for _, pm := range mm {
		s.AddMask(pm.Page, pm.Mask)
	}
	return nil
}

func checkMask(page int, m Mask) error {
	if page < 0 {
		return &InvalidError{Page: page, Kind: "mask", Reason: "negative page index"}
	}
	if !m.Valid() {
		return &InvalidError{Page: page, Kind: "mask", Reason: fmt.Sprintf("bad rectangle %v", m)}
	}
	return nil
}

// CropPage sets the crop for the given page.  A second crop for the same
// page replaces the first one.
func (s *Set) CropPage(page int, c Crop) error {
	if err := checkCrop(page, c); err != nil {
		return err
	}
	if s.crops == nil {
		s.crops = make(map[int]Crop)
	}
	s.crops[page] = c
	return nil
}

// CropPages sets several crops.  If one of them is invalid, none of the
// crops are set.
func (s *Set) CropPages(cc []PageCrop) error {
	for _, pc := range cc {
		if err := checkCrop(pc.Page, pc.Crop); err != nil {
			return err
		}
	}
	for _, pc := range cc {
		s.CropPage(pc.Page, pc.Crop)
	}
	return nil
}

func checkCrop(page int, c Crop) error {
	if page < 0 {
		return &InvalidError{Page: page, Kind: "crop", Reason: "negative page index"}
	}
	if !c.Valid() {
		return &InvalidError{Page: page, Kind: "crop", Reason: fmt.Sprintf("bad rectangle %v", c)}
	}
	return nil
}

// Regions returns the masks and the crop for a page.
// The returned values must not be modified.
func (s *Set) Regions(page int) Regions {
	var rg Regions
	if s == nil {
		return rg
	}
	rg.Masks = s.masks[page]
	if c, ok := s.crops[page]; ok {
		rg.Crop = &c
	}
	return rg
}

// Pages returns the sorted list of pages which have a mask or a crop.
func (s *Set) Pages() []int {
	if s == nil {
		return nil
	}
	pp := slices.Collect(maps.Keys(s.masks))
	for p := range s.crops {
		if _, dup := s.masks[p]; !dup {
			pp = append(pp, p)
		}
	}
	slices.Sort(pp)
	return pp
}

// Clone returns an independent copy of s.
func (s *Set) Clone() *Set {
	res := &Set{}
	if s == nil {
		return res
	}
	if s.masks != nil {
		res.masks = make(map[int][]Mask, len(s.masks))
		for p, mm := range s.masks {
			res.masks[p] = slices.Clone(mm)
		}
	}
	res.crops = maps.Clone(s.crops)
	return res
}

// InvalidError is returned when a mask or crop cannot be used.
type InvalidError struct {
	Page   int
	Kind   string // "mask" or "crop"
	Reason string
}

func (err *InvalidError) Error() string {
	return fmt.Sprintf("invalid %s for page %d: %s", err.Kind, err.Page, err.Reason)
}
