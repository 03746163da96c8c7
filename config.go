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
	"encoding/json"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"

	"seehuhn.de/go/pdfcompare/imagediff"
	"seehuhn.de/go/pdfcompare/render"
)

// Config holds the settings of a comparison.
type Config struct {
	// ActualRoot and BaselineRoot are the folders in which file names
	// are looked up, if they cannot be found relative to the working
	// directory.
	ActualRoot   string
	BaselineRoot string

	// DiffRoot, if set, is the folder where diff images of failed
	// visual comparisons are stored.
	DiffRoot string

	// PNGRoot, if set, is the folder where the rendered pages are stored,
	// after cropping and masking.
	PNGRoot string

	// Strategy is used when [Comparer.Compare] is called with [Auto].
	Strategy Strategy

	// Resolution is the rendering resolution in dots per inch.
	Resolution float64

	// Tolerance is the number of mismatched pixels per page which is
	// still accepted.
	Tolerance int

	// Threshold is the per-pixel colour tolerance of the default image
	// metric, between 0 and 1.
	Threshold float64

	// MatchPageCount makes documents with different page counts fail
	// the visual comparison.  If this is false, the pages both documents
	// have in common are compared.
	MatchPageCount bool

	// MaskColor is painted over masked regions.
	MaskColor color.NRGBA

	Renderer render.Renderer

	// Differ compares rendered pages.  If this is nil, a
	// [imagediff.Pixelmatch] with the configured Threshold is used.
	Differ imagediff.Differ

	// Logger receives debug output.  If this is nil, nothing is logged.
	Logger *slog.Logger
}

// DefaultConfig returns the default settings.
func DefaultConfig() *Config {
	return &Config{
		Resolution:     100,
		MatchPageCount: true,
		MaskColor:      color.NRGBA{A: 255},
		Renderer:       render.Native{},
	}
}

func (cfg *Config) differ() imagediff.Differ {
	if cfg.Differ != nil {
		return cfg.Differ
	}
	return &imagediff.Pixelmatch{Threshold: cfg.Threshold}
}

func (cfg *Config) renderer() render.Renderer {
	if cfg.Renderer != nil {
		return cfg.Renderer
	}
	return render.Native{}
}

func (cfg *Config) logger() *slog.Logger {
	if cfg.Logger != nil {
		return cfg.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (cfg *Config) check() error {
	if !(cfg.Resolution > 0) {
		return &ConfigurationError{Op: "config", Err: fmt.Errorf("invalid resolution %g", cfg.Resolution)}
	}
	if cfg.Tolerance < 0 {
		return &ConfigurationError{Op: "config", Err: fmt.Errorf("negative tolerance %d", cfg.Tolerance)}
	}
	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return &ConfigurationError{Op: "config", Err: fmt.Errorf("threshold %g outside [0, 1]", cfg.Threshold)}
	}
	return nil
}

// fileConfig is the JSON form of a Config.
// Absent fields keep their default values.
type fileConfig struct {
	Paths struct {
		ActualRoot   *string `json:"actualRoot"`
		BaselineRoot *string `json:"baselineRoot"`
		DiffRoot     *string `json:"diffRoot"`
		PNGRoot      *string `json:"pngRoot"`
	} `json:"paths"`
	Strategy       *Strategy `json:"strategy"`
	Resolution     *float64  `json:"resolution"`
	Tolerance      *int      `json:"tolerance"`
	Threshold      *float64  `json:"threshold"`
	MatchPageCount *bool     `json:"matchPageCount"`
	MaskColor      *string   `json:"maskColor"`
	Renderer       *string   `json:"renderer"`
	Metric         *string   `json:"metric"`
}

// LoadConfig reads settings from a JSON file.  Settings missing from the
// file keep their default values.  Relative folder names are interpreted
// relative to the directory containing the file.
func LoadConfig(fname string) (*Config, error) {
	data, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}

	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, &ConfigurationError{Op: "load " + fname, Err: err}
	}

	cfg := DefaultConfig()
	dir := filepath.Dir(fname)
	setPath := func(dst *string, src *string) {
		if src == nil {
			return
		}
		*dst = *src
		if *dst != "" && !filepath.IsAbs(*dst) {
			*dst = filepath.Join(dir, *dst)
		}
	}
	setPath(&cfg.ActualRoot, fc.Paths.ActualRoot)
	setPath(&cfg.BaselineRoot, fc.Paths.BaselineRoot)
	setPath(&cfg.DiffRoot, fc.Paths.DiffRoot)
	setPath(&cfg.PNGRoot, fc.Paths.PNGRoot)

	if fc.Strategy != nil {
		cfg.Strategy = *fc.Strategy
	}
	if fc.Resolution != nil {
		cfg.Resolution = *fc.Resolution
	}
	if fc.Tolerance != nil {
		cfg.Tolerance = *fc.Tolerance
	}
	if fc.Threshold != nil {
		cfg.Threshold = *fc.Threshold
	}
	if fc.MatchPageCount != nil {
		cfg.MatchPageCount = *fc.MatchPageCount
	}
	if fc.MaskColor != nil {
		c, err := ParseColor(*fc.MaskColor)
		if err != nil {
			return nil, &ConfigurationError{Op: "load " + fname, Err: err}
		}
		cfg.MaskColor = c
	}
	if fc.Renderer != nil {
		r, err := NewRenderer(*fc.Renderer)
		if err != nil {
			return nil, &ConfigurationError{Op: "load " + fname, Err: err}
		}
		cfg.Renderer = r
	}
	if fc.Metric != nil {
		d, err := NewDiffer(*fc.Metric, cfg.Threshold)
		if err != nil {
			return nil, &ConfigurationError{Op: "load " + fname, Err: err}
		}
		cfg.Differ = d
	}

	if err := cfg.check(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewRenderer returns the renderer with the given name.
// Valid names are "native" and "gs".
func NewRenderer(name string) (render.Renderer, error) {
	switch name {
	case "", "native":
		return render.Native{}, nil
	case "gs", "ghostscript":
		return &render.Ghostscript{}, nil
	}
	return nil, fmt.Errorf("unknown renderer %q", name)
}

// NewDiffer returns the image metric with the given name.
// Valid names are "pixelmatch" and "ciede2000".
func NewDiffer(name string, threshold float64) (imagediff.Differ, error) {
	switch name {
	case "", "pixelmatch":
		return &imagediff.Pixelmatch{Threshold: threshold}, nil
	case "ciede2000":
		return &imagediff.Perceptual{Threshold: threshold}, nil
	}
	return nil, fmt.Errorf("unknown image metric %q", name)
}

// ParseColor parses a colour in the form "#rrggbb".
func ParseColor(s string) (color.NRGBA, error) {
	var r, g, b uint8
	if len(s) != 7 {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	_, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}
