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
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strconv"
	"strings"

	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/pagetree"
)

// Ghostscript renders pages by running the gs command.
type Ghostscript struct {
	// Command is the name or path of the Ghostscript executable.
	// If empty, "gs" is used.
	Command string

	// GraphicsAlphaBits sets the anti-aliasing for graphics (1, 2 or 4).
	// Zero means 4.
	GraphicsAlphaBits int
}

// Open implements the [Renderer] interface.
// The page count is read from the file, so that Open fails early for
// malformed files.
func (g *Ghostscript) Open(ctx context.Context, path string) (Document, error) {
	if _, err := exec.LookPath(g.command()); err != nil {
		return nil, err
	}
	r, err := pdf.Open(path, nil)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	n, err := pagetree.NumPages(r)
	if err != nil {
		return nil, err
	}
	return &gsDoc{gs: g, path: path, numPages: n}, nil
}

func (g *Ghostscript) command() string {
	if g.Command != "" {
		return g.Command
	}
	return "gs"
}

type gsDoc struct {
	gs       *Ghostscript
	path     string
	numPages int
}

func (d *gsDoc) NumPages() int {
	return d.numPages
}

func (d *gsDoc) Close() error {
	return nil
}

func (d *gsDoc) RenderPage(ctx context.Context, index int, dpi float64) (image.Image, error) {
	if index < 0 || index >= d.numPages {
		return nil, errPageRange
	}
	cmd := exec.CommandContext(ctx, d.gs.command(), d.gs.args(d.path, index, dpi)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}

	img, err := png.Decode(&stdout)
	if err != nil {
		return nil, errors.Join(errNoImage, err)
	}
	return img, nil
}

// args returns the command line arguments which render one page of the
// file at path to a PNG image on standard output.  The CropBox is used as
// the page area, matching the native renderer.
func (g *Ghostscript) args(path string, index int, dpi float64) []string {
	alphaBits := g.GraphicsAlphaBits
	if alphaBits == 0 {
		alphaBits = 4
	}
	pageNo := strconv.Itoa(index + 1)
	return []string{
		"-q", "-dSAFER", "-dBATCH", "-dNOPAUSE",
		"-dUseCropBox",
		"-sDEVICE=png16m",
		"-r" + strconv.FormatFloat(dpi, 'f', -1, 64),
		"-dGraphicsAlphaBits=" + strconv.Itoa(alphaBits),
		"-dTextAlphaBits=4",
		"-dFirstPage=" + pageNo,
		"-dLastPage=" + pageNo,
		"-sOutputFile=-",
		"-f", path,
	}
}

var errNoImage = errors.New("ghostscript produced no image")
