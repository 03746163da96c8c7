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

import (
	"encoding/base64"
	"os"
)

// CompareByEncoding compares the base64 encodings of two files.
func CompareByEncoding(actual, baseline DocRef) (Verdict, error) {
	a, err := encodeFile(actual.Path)
	if err != nil {
		return Verdict{}, err
	}
	b, err := encodeFile(baseline.Path)
	if err != nil {
		return Verdict{}, err
	}
	if a != b {
		return failed(actual.Name + " is not the same as " + baseline.Name + " compared by their base64 values."), nil
	}
	return Verdict{Status: Passed}, nil
}

func encodeFile(fname string) (string, error) {
	data, err := os.ReadFile(fname)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
