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
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"seehuhn.de/go/pdfcompare/pages"
	"seehuhn.de/go/pdfcompare/region"
	"seehuhn.de/go/pdfcompare/render"
)

// CompareByImage renders the selected pages of both files and compares
// the resulting images.  The regions from set are applied to the pages
// of both files before the comparison.
func CompareByImage(ctx context.Context, cfg *Config, actual, baseline DocRef, filter pages.Filter, set *region.Set) (Verdict, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.check(); err != nil {
		return Verdict{}, err
	}
	log := cfg.logger()
	r := cfg.renderer()

	nActual, err := render.PageCount(ctx, r, actual.Path)
	if err != nil {
		return Verdict{}, err
	}
	nBaseline, err := render.PageCount(ctx, r, baseline.Path)
	if err != nil {
		return Verdict{}, err
	}
	if nActual != nBaseline && cfg.MatchPageCount {
		msg := fmt.Sprintf("Actual pdf page count (%d) is not the same as Baseline pdf page count (%d).",
			nActual, nBaseline)
		return failed(msg), nil
	}

	indexes, err := filter.Resolve(min(nActual, nBaseline))
	if err != nil {
		return Verdict{}, &ConfigurationError{Op: "select pages", Err: err}
	}
	log.Debug("rendering", "pages", indexes, "dpi", cfg.Resolution)

	var actualPages, baselinePages []render.Page
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		actualPages, err = render.RenderPages(gctx, r, actual.Path, indexes, set, cfg.Resolution, cfg.MaskColor)
		return err
	})
	g.Go(func() error {
		var err error
		baselinePages, err = render.RenderPages(gctx, r, baseline.Path, indexes, set, cfg.Resolution, cfg.MaskColor)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, region.ErrEmptyCrop) {
			return Verdict{}, &ConfigurationError{Op: "crop", Err: err}
		}
		return Verdict{}, err
	}

	if cfg.PNGRoot != "" {
		for _, p := range actualPages {
			fname := filepath.Join(cfg.PNGRoot, "actual", pageFileName(actual, "", p.Index))
			if err := writePNG(fname, p.Image); err != nil {
				return Verdict{}, err
			}
		}
		for _, p := range baselinePages {
			fname := filepath.Join(cfg.PNGRoot, "baseline", pageFileName(baseline, "", p.Index))
			if err := writePNG(fname, p.Image); err != nil {
				return Verdict{}, err
			}
		}
	}

	d := cfg.differ()
	details := make([]PageDiff, len(indexes))
	pass := true
	for k, i := range indexes {
		a, b := actualPages[k], baselinePages[k]
		res, err := d.Diff(a.Image, b.Image, a.Ignored)
		if err != nil {
			return Verdict{}, fmt.Errorf("page %d: %w", i, err)
		}
		log.Debug("compared page", "page", i, "mismatch", res.Mismatch)
		details[k] = PageDiff{
			PageIndex:     i,
			MismatchCount: res.Mismatch,
			DiffImage:     res.Image,
		}
		if res.Mismatch > cfg.Tolerance {
			pass = false
		}
	}
	if pass {
		return Verdict{Status: Passed}, nil
	}

	if cfg.DiffRoot != "" {
		for k := range details {
			pd := &details[k]
			if pd.DiffImage == nil {
				continue
			}
			fname := filepath.Join(cfg.DiffRoot, pageFileName(actual, "_diff", pd.PageIndex))
			if err := writePNG(fname, pd.DiffImage); err != nil {
				return Verdict{}, err
			}
			pd.DiffPath = fname
		}
	}

	v := failed(actual.Name + " is not the same as " + baseline.Name + " compared by their images.")
	v.Details = details
	return v, nil
}

// pageFileName returns the name of an image file for one page of doc.
func pageFileName(doc DocRef, tag string, page int) string {
	stem := strings.TrimSuffix(doc.Name, filepath.Ext(doc.Name))
	return fmt.Sprintf("%s%s_%d.png", stem, tag, page)
}

func writePNG(fname string, img image.Image) (err error) {
	if err := os.MkdirAll(filepath.Dir(fname), 0o755); err != nil {
		return err
	}
	fd, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, fd.Close())
	}()
	return png.Encode(fd, img)
}
