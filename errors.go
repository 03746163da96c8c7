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

// Role distinguishes the two files of a comparison.
type Role string

// These are the two roles.
const (
	RoleActual   Role = "Actual"
	RoleBaseline Role = "Baseline"
)

// PathNotSetError indicates that no file name was given.
type PathNotSetError struct {
	Role Role
}

func (err *PathNotSetError) Error() string {
	return string(err.Role) + " pdf file path was not set. Please define correctly then try again."
}

// PathNotFoundError indicates that a file does not exist.
type PathNotFoundError struct {
	Role Role
	Path string
}

func (err *PathNotFoundError) Error() string {
	return string(err.Role) + " pdf file path does not exists. Please define correctly then try again."
}

// ConfigurationError indicates invalid masks, crops, page filters or
// settings.
type ConfigurationError struct {
	Op  string
	Err error
}

func (err *ConfigurationError) Error() string {
	return fmt.Sprintf("pdfcompare: %s: %v", err.Op, err.Err)
}

func (err *ConfigurationError) Unwrap() error {
	return err.Err
}
