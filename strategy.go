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

import "fmt"

// Strategy selects how two files are compared.
type Strategy int

const (
	// Auto first compares the file contents.  If they differ, the
	// rendered pages decide.
	Auto Strategy = iota

	// ByBase64 compares the base64 encoding of the file contents.
	ByBase64

	// ByImage compares the rendered pages.
	ByImage
)

func (s Strategy) String() string {
	switch s {
	case Auto:
		return "auto"
	case ByBase64:
		return "byBase64"
	case ByImage:
		return "byImage"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy converts a strategy name to a Strategy.
// The empty string selects [Auto].
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "", "auto":
		return Auto, nil
	case "byBase64":
		return ByBase64, nil
	case "byImage":
		return ByImage, nil
	}
	return Auto, fmt.Errorf("unknown comparison strategy %q", name)
}

// MarshalText implements the encoding.TextMarshaler interface.
func (s Strategy) MarshalText() ([]byte, error) {
	if s < Auto || s > ByImage {
		return nil, fmt.Errorf("invalid strategy %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (s *Strategy) UnmarshalText(text []byte) error {
	v, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
