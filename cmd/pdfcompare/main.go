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

// Pdfcompare compares two PDF files and prints the verdict as JSON.
//
// Usage:
//
//	pdfcompare [options] actual.pdf baseline.pdf
//
// The exit status is 0 if the files are equivalent, 1 if they differ, and
// 2 if the comparison could not be carried out.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"golang.org/x/term"

	"seehuhn.de/go/pdfcompare"
	"seehuhn.de/go/pdfcompare/imagediff"
	"seehuhn.de/go/pdfcompare/region"
)

const (
	exitPassed = 0
	exitFailed = 1
	exitError  = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	config    string
	strategy  string
	dpi       float64
	tolerance int
	threshold float64
	masks     maskList
	crops     cropList
	only      intList
	skip      intList
	diffDir   string
	pngDir    string
	renderer  string
	metric    string
	verbose   bool

	actual, baseline string

	// set records which flags were given on the command line
	set map[string]bool
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	opt := &options{}
	fs := flag.NewFlagSet("pdfcompare", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: pdfcompare [options] actual.pdf baseline.pdf\n")
		fs.PrintDefaults()
	}
	fs.StringVar(&opt.config, "config", "", "read settings from this JSON `file`")
	fs.StringVar(&opt.strategy, "strategy", "auto", "comparison strategy: auto, byBase64 or byImage")
	fs.Float64Var(&opt.dpi, "dpi", 100, "rendering resolution")
	fs.IntVar(&opt.tolerance, "tolerance", 0, "number of mismatched pixels allowed per page")
	fs.Float64Var(&opt.threshold, "threshold", 0, "per-pixel colour threshold, between 0 and 1")
	fs.Var(&opt.masks, "mask", "mask a region, as `page:x0,y0,x1,y1` (repeatable)")
	fs.Var(&opt.crops, "crop", "crop a page, as `page:x,y,w,h` (repeatable)")
	fs.Var(&opt.only, "only", "comma-separated page indexes to compare")
	fs.Var(&opt.skip, "skip", "comma-separated page indexes to leave out")
	fs.StringVar(&opt.diffDir, "diff-dir", "", "write diff images to this `directory`")
	fs.StringVar(&opt.pngDir, "png-dir", "", "write the rendered pages to this `directory`")
	fs.StringVar(&opt.renderer, "renderer", "native", "page renderer: native or gs")
	fs.StringVar(&opt.metric, "metric", "pixelmatch", "image metric: pixelmatch or ciede2000")
	fs.BoolVar(&opt.verbose, "v", false, "print debug output")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return nil, errors.New("expected two file names")
	}
	opt.actual = fs.Arg(0)
	opt.baseline = fs.Arg(1)

	opt.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		opt.set[f.Name] = true
	})
	return opt, nil
}

// configure merges the settings from the configuration file and the
// command line.
func (opt *options) configure() (*pdfcompare.Config, error) {
	cfg := pdfcompare.DefaultConfig()
	if opt.config != "" {
		var err error
		cfg, err = pdfcompare.LoadConfig(opt.config)
		if err != nil {
			return nil, err
		}
	}

	if opt.set["strategy"] {
		s, err := pdfcompare.ParseStrategy(opt.strategy)
		if err != nil {
			return nil, err
		}
		cfg.Strategy = s
	}
	if opt.set["dpi"] {
		cfg.Resolution = opt.dpi
	}
	if opt.set["tolerance"] {
		cfg.Tolerance = opt.tolerance
	}
	if opt.set["threshold"] {
		cfg.Threshold = opt.threshold
	}
	if opt.set["diff-dir"] {
		cfg.DiffRoot = opt.diffDir
	}
	if opt.set["png-dir"] {
		cfg.PNGRoot = opt.pngDir
	}
	if opt.set["renderer"] {
		r, err := pdfcompare.NewRenderer(opt.renderer)
		if err != nil {
			return nil, err
		}
		cfg.Renderer = r
	}
	if opt.set["metric"] {
		d, err := pdfcompare.NewDiffer(opt.metric, cfg.Threshold)
		if err != nil {
			return nil, err
		}
		cfg.Differ = d
	} else if opt.set["threshold"] {
		switch d := cfg.Differ.(type) {
		case *imagediff.Pixelmatch:
			d.Threshold = cfg.Threshold
		case *imagediff.Perceptual:
			d.Threshold = cfg.Threshold
		}
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) int {
	opt, err := parseArgs(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitPassed
	} else if err != nil {
		fmt.Fprintln(stderr, "pdfcompare:", err)
		return exitError
	}

	cfg, err := opt.configure()
	if err != nil {
		fmt.Fprintln(stderr, "pdfcompare:", err)
		return exitError
	}
	level := slog.LevelWarn
	if opt.verbose {
		level = slog.LevelDebug
	}
	cfg.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	c := pdfcompare.New(cfg).
		ActualPDF(opt.actual).
		BaselinePDF(opt.baseline).
		AddMasks(opt.masks).
		CropPages(opt.crops)
	if len(opt.only) > 0 {
		c.OnlyPageIndexes(opt.only...)
	}
	if len(opt.skip) > 0 {
		c.SkipPageIndexes(opt.skip...)
	}

	v, err := c.Compare(ctx, pdfcompare.Auto)
	if err != nil {
		fmt.Fprintln(stderr, "pdfcompare:", err)
		return exitError
	}

	enc := json.NewEncoder(stdout)
	if f, ok := stdout.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(stderr, "pdfcompare:", err)
		return exitError
	}

	if !v.Passed() {
		return exitFailed
	}
	return exitPassed
}

// maskList collects the -mask flags.
type maskList []region.PageMask

func (l *maskList) String() string {
	var parts []string
	for _, m := range *l {
		parts = append(parts, fmt.Sprintf("%d:%g,%g,%g,%g", m.Page, m.Mask.X0, m.Mask.Y0, m.Mask.X1, m.Mask.Y1))
	}
	return strings.Join(parts, " ")
}

func (l *maskList) Set(s string) error {
	page, v, err := parsePageRect(s)
	if err != nil {
		return err
	}
	*l = append(*l, region.PageMask{
		Page: page,
		Mask: region.Mask{X0: v[0], Y0: v[1], X1: v[2], Y1: v[3]},
	})
	return nil
}

// cropList collects the -crop flags.
type cropList []region.PageCrop

func (l *cropList) String() string {
	var parts []string
	for _, c := range *l {
		parts = append(parts, fmt.Sprintf("%d:%g,%g,%g,%g", c.Page, c.Crop.X, c.Crop.Y, c.Crop.Width, c.Crop.Height))
	}
	return strings.Join(parts, " ")
}

func (l *cropList) Set(s string) error {
	page, v, err := parsePageRect(s)
	if err != nil {
		return err
	}
	*l = append(*l, region.PageCrop{
		Page: page,
		Crop: region.Crop{X: v[0], Y: v[1], Width: v[2], Height: v[3]},
	})
	return nil
}

// parsePageRect parses a string of the form "page:a,b,c,d".
func parsePageRect(s string) (int, [4]float64, error) {
	var v [4]float64
	pageStr, rest, ok := strings.Cut(s, ":")
	if !ok {
		return 0, v, fmt.Errorf("missing page index in %q", s)
	}
	page, err := strconv.Atoi(strings.TrimSpace(pageStr))
	if err != nil {
		return 0, v, fmt.Errorf("invalid page index in %q", s)
	}
	fields := strings.Split(rest, ",")
	if len(fields) != 4 {
		return 0, v, fmt.Errorf("expected four coordinates in %q", s)
	}
	for i, f := range fields {
		v[i], err = strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return 0, v, fmt.Errorf("invalid coordinate %q", f)
		}
	}
	return page, v, nil
}

// intList is a comma-separated list of integers.
type intList []int

func (l *intList) String() string {
	parts := make([]string, len(*l))
	for i, x := range *l {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ",")
}

func (l *intList) Set(s string) error {
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		x, err := strconv.Atoi(f)
		if err != nil {
			return fmt.Errorf("invalid page index %q", f)
		}
		*l = append(*l, x)
	}
	return nil
}
