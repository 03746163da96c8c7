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
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"

	"seehuhn.de/go/pdfcompare/region"
)

// fakeRenderer produces solid grey pages of 10x10 pixels, with the grey
// level given by the page index.
type fakeRenderer struct {
	pages    int
	failPage int
	openErr  error
	closed   bool
	rendered []int
}

func (f *fakeRenderer) Open(ctx context.Context, path string) (Document, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f, nil
}

func (f *fakeRenderer) NumPages() int { return f.pages }

func (f *fakeRenderer) Close() error {
	f.closed = true
	return nil
}

var errFake = errors.New("broken page")

func (f *fakeRenderer) RenderPage(ctx context.Context, index int, dpi float64) (image.Image, error) {
	if index == f.failPage {
		return nil, errFake
	}
	f.rendered = append(f.rendered, index)
	img := image.NewGray(image.Rect(0, 0, 10, 10))
	for i := range img.Pix {
		img.Pix[i] = uint8(10 * index)
	}
	return img, nil
}

func TestRenderPages(t *testing.T) {
	f := &fakeRenderer{pages: 4, failPage: -1}
	set := &region.Set{}
	set.AddMask(2, region.Mask{X0: 0, Y0: 0, X1: 2, Y1: 2})
	set.CropPage(3, region.Crop{X: 5, Y: 5, Width: 10, Height: 10})

	pages, err := RenderPages(context.Background(), f, "doc.pdf", []int{3, 0, 2}, set, 72, color.White)
	if err != nil {
		t.Fatal(err)
	}
	if !f.closed {
		t.Error("document not closed")
	}
	if d := cmp.Diff([]int{3, 0, 2}, f.rendered); d != "" {
		t.Errorf("render order (-want +got):\n%s", d)
	}

	if len(pages) != 3 {
		t.Fatalf("got %d pages", len(pages))
	}
	for k, i := range []int{3, 0, 2} {
		if pages[k].Index != i {
			t.Errorf("page %d has index %d, want %d", k, pages[k].Index, i)
		}
	}
	byIndex := make(map[int]Page)
	for _, p := range pages {
		byIndex[p.Index] = p
	}

	// page 2 is masked
	masked := byIndex[2]
	if d := cmp.Diff([]image.Rectangle{image.Rect(0, 0, 2, 2)}, masked.Ignored); d != "" {
		t.Errorf("ignored (-want +got):\n%s", d)
	}
	if got := masked.Image.NRGBAAt(1, 1); got != (color.NRGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("mask not painted: %v", got)
	}
	if got := masked.Image.NRGBAAt(5, 5); got.R != 20 {
		t.Errorf("page 2 has grey value %d outside the mask", got.R)
	}

	// page 0 is untouched
	plain := byIndex[0]
	if got := plain.Image.NRGBAAt(1, 1); got.R != 0 {
		t.Errorf("page 0 has grey value %d", got.R)
	}
	if got := plain.Image.Bounds(); got != image.Rect(0, 0, 10, 10) {
		t.Errorf("page 0 bounds %v", got)
	}
	if len(plain.Ignored) != 0 {
		t.Errorf("page 0 has ignored areas %v", plain.Ignored)
	}

	// page 3 is cropped
	cropped := byIndex[3]
	if got := cropped.Image.Bounds(); got != image.Rect(0, 0, 5, 5) {
		t.Errorf("cropped page 3 bounds %v", got)
	}
	if got := cropped.Image.NRGBAAt(0, 0); got.R != 30 {
		t.Errorf("page 3 has grey value %d", got.R)
	}
}

func TestRenderPagesErrors(t *testing.T) {
	ctx := context.Background()
	var renderErr *RenderError

	f := &fakeRenderer{openErr: errFake}
	_, err := RenderPages(ctx, f, "a.pdf", []int{0}, nil, 72, color.Black)
	if !errors.As(err, &renderErr) || renderErr.Page != -1 || !errors.Is(err, errFake) {
		t.Errorf("open failure: got %v", err)
	}

	f = &fakeRenderer{pages: 3, failPage: 1}
	_, err = RenderPages(ctx, f, "b.pdf", []int{0, 1}, nil, 72, color.Black)
	if !errors.As(err, &renderErr) || renderErr.Page != 1 || renderErr.Path != "b.pdf" {
		t.Errorf("page failure: got %v", err)
	}
	if !f.closed {
		t.Error("document not closed after failure")
	}

	f = &fakeRenderer{pages: 1, failPage: -1}
	_, err = RenderPages(ctx, f, "c.pdf", []int{1}, nil, 72, color.Black)
	if !errors.As(err, &renderErr) || !errors.Is(err, errPageRange) {
		t.Errorf("page out of range: got %v", err)
	}

	f = &fakeRenderer{pages: 1, failPage: -1}
	set := &region.Set{}
	set.CropPage(0, region.Crop{X: 1e6, Y: 1e6, Width: 1, Height: 1})
	_, err = RenderPages(ctx, f, "d.pdf", []int{0}, set, 72, color.Black)
	if !errors.Is(err, region.ErrEmptyCrop) {
		t.Errorf("empty crop: got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	f = &fakeRenderer{pages: 1, failPage: -1}
	_, err = RenderPages(cancelled, f, "e.pdf", []int{0}, nil, 72, color.Black)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled: got %v", err)
	}
}
