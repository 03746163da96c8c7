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
	"os"
	"path/filepath"
	"slices"

	"seehuhn.de/go/pdfcompare/pages"
	"seehuhn.de/go/pdfcompare/region"
)

// DocRef identifies one of the two files of a comparison.
type DocRef struct {
	// Name is the base name of the file, used in messages.
	Name string

	// Path is the location of the file.
	Path string
}

// ResolveDoc locates the file with the given name.
//
// The extension ".pdf" is added if name has no extension.  If the file
// cannot be found relative to the working directory, it is looked up in
// root.
func ResolveDoc(role Role, name, root string) (DocRef, error) {
	if name == "" {
		return DocRef{}, &PathNotSetError{Role: role}
	}
	if filepath.Ext(name) == "" {
		name += ".pdf"
	}

	fname := name
	if !exists(fname) && !filepath.IsAbs(name) && root != "" {
		fname = filepath.Join(root, name)
	}
	if !exists(fname) {
		return DocRef{}, &PathNotFoundError{Role: role, Path: fname}
	}
	return DocRef{Name: filepath.Base(name), Path: fname}, nil
}

func exists(fname string) bool {
	fi, err := os.Stat(fname)
	return err == nil && fi.Mode().IsRegular()
}

// Request describes a single comparison.
type Request struct {
	Actual   string
	Baseline string
	Regions  *region.Set
	Pages    pages.Filter
	Strategy Strategy
}

func (req *Request) clone() *Request {
	res := *req
	res.Regions = req.Regions.Clone()
	res.Pages.Only = slices.Clone(req.Pages.Only)
	res.Pages.Skip = slices.Clone(req.Pages.Skip)
	return &res
}

// Comparer collects the settings for a comparison.
//
// The builder methods return the receiver, so that calls can be chained.
// Invalid arguments are recorded and reported by [Comparer.Compare].
// A Comparer must not be used by more than one goroutine at a time.
type Comparer struct {
	cfg *Config
	req Request
	err error
}

// New creates a Comparer which uses the settings from cfg.
// If cfg is nil, [DefaultConfig] is used.
func New(cfg *Config) *Comparer {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		c := *cfg
		cfg = &c
	}
	return &Comparer{
		cfg: cfg,
		req: Request{Regions: &region.Set{}},
	}
}

// Config gives access to the settings of c.
// Changes take effect for the next call to [Comparer.Compare].
func (c *Comparer) Config() *Config {
	return c.cfg
}

// ActualPDF sets the name of the file under test.
func (c *Comparer) ActualPDF(name string) *Comparer {
	c.req.Actual = name
	return c
}

// BaselinePDF sets the name of the reference file.
func (c *Comparer) BaselinePDF(name string) *Comparer {
	c.req.Baseline = name
	return c
}

// AddMask hides a rectangle on the given page from the visual comparison.
func (c *Comparer) AddMask(page int, m region.Mask) *Comparer {
	c.record("mask", c.req.Regions.AddMask(page, m))
	return c
}

// AddMasks adds several masks at once.  If any of the masks is invalid,
// none of them is added.
func (c *Comparer) AddMasks(mm []region.PageMask) *Comparer {
	c.record("mask", c.req.Regions.AddMasks(mm))
	return c
}

// CropPage restricts the visual comparison of a page to a rectangle.
// Only one crop per page is kept; a later crop for the same page replaces
// an earlier one.
func (c *Comparer) CropPage(page int, cr region.Crop) *Comparer {
	c.record("crop", c.req.Regions.CropPage(page, cr))
	return c
}

// CropPages sets crops for several pages at once.
func (c *Comparer) CropPages(cc []region.PageCrop) *Comparer {
	c.record("crop", c.req.Regions.CropPages(cc))
	return c
}

// OnlyPageIndexes restricts the visual comparison to the given pages.
// Page indexes start at 0.
func (c *Comparer) OnlyPageIndexes(idx ...int) *Comparer {
	c.req.Pages.Only = append(c.req.Pages.Only, idx...)
	return c
}

// SkipPageIndexes excludes the given pages from the visual comparison.
func (c *Comparer) SkipPageIndexes(idx ...int) *Comparer {
	c.req.Pages.Skip = append(c.req.Pages.Skip, idx...)
	return c
}

func (c *Comparer) record(op string, err error) {
	if err != nil && c.err == nil {
		c.err = &ConfigurationError{Op: op, Err: err}
	}
}

// Request returns a snapshot of the comparison described by c.
// Later calls to builder methods do not affect the returned value.
func (c *Comparer) Request() *Request {
	return c.req.clone()
}

// Compare runs the comparison.  If s is [Auto], the strategy from the
// configuration is used.
//
// Differences between the files are reported through the returned
// Verdict, not as errors.  Missing file paths are reported before any
// error recorded by the builder methods.
func (c *Comparer) Compare(ctx context.Context, s Strategy) (Verdict, error) {
	if c.err != nil {
		_, _, err := resolvePair(c.cfg, &c.req)
		if v, ok := pathVerdict(err); ok {
			return v, nil
		}
		return Verdict{}, c.err
	}
	req := c.Request()
	req.Strategy = s
	if s == Auto {
		req.Strategy = c.cfg.Strategy
	}
	return Run(ctx, c.cfg, req)
}

// Run executes the comparison described by req.
func Run(ctx context.Context, cfg *Config, req *Request) (Verdict, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	log := cfg.logger()

	actual, baseline, err := resolvePair(cfg, req)
	if v, ok := pathVerdict(err); ok {
		return v, nil
	} else if err != nil {
		return Verdict{}, err
	}
	log.Debug("comparing",
		"actual", actual.Path,
		"baseline", baseline.Path,
		"strategy", req.Strategy)

	switch req.Strategy {
	case ByBase64:
		return CompareByEncoding(actual, baseline)
	case ByImage:
		return CompareByImage(ctx, cfg, actual, baseline, req.Pages, req.Regions)
	case Auto:
		v, err := CompareByEncoding(actual, baseline)
		if err != nil || v.Passed() {
			return v, err
		}
		log.Debug("contents differ, comparing images")
		return CompareByImage(ctx, cfg, actual, baseline, req.Pages, req.Regions)
	}
	return Verdict{}, &ConfigurationError{Op: "compare", Err: errInvalidStrategy}
}

var errInvalidStrategy = errors.New("invalid strategy")

// resolvePair locates the actual and the baseline file, in this order.
func resolvePair(cfg *Config, req *Request) (actual, baseline DocRef, err error) {
	actual, err = ResolveDoc(RoleActual, req.Actual, cfg.ActualRoot)
	if err != nil {
		return DocRef{}, DocRef{}, err
	}
	baseline, err = ResolveDoc(RoleBaseline, req.Baseline, cfg.BaselineRoot)
	if err != nil {
		return DocRef{}, DocRef{}, err
	}
	return actual, baseline, nil
}

// pathVerdict turns errors about missing files into failed verdicts.
func pathVerdict(err error) (Verdict, bool) {
	var notSet *PathNotSetError
	var notFound *PathNotFoundError
	if errors.As(err, &notSet) || errors.As(err, &notFound) {
		return failed(err.Error()), true
	}
	return Verdict{}, false
}
