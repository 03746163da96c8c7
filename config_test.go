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
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"seehuhn.de/go/pdfcompare/imagediff"
	"seehuhn.de/go/pdfcompare/render"
)

func TestParseStrategy(t *testing.T) {
	cases := []struct {
		in   string
		want Strategy
		ok   bool
	}{
		{"", Auto, true},
		{"auto", Auto, true},
		{"byBase64", ByBase64, true},
		{"byImage", ByImage, true},
		{"byimage", Auto, false},
		{"pixels", Auto, false},
	}
	for _, tc := range cases {
		got, err := ParseStrategy(tc.in)
		if !tc.ok {
			require.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, got)
	}
}

func TestStrategyText(t *testing.T) {
	for _, s := range []Strategy{Auto, ByBase64, ByImage} {
		text, err := s.MarshalText()
		require.NoError(t, err)
		var back Strategy
		require.NoError(t, back.UnmarshalText(text))
		require.Equal(t, s, back)
	}

	_, err := Strategy(17).MarshalText()
	require.Error(t, err)
	require.Equal(t, "Strategy(17)", Strategy(17).String())

	var req struct {
		S Strategy `json:"s"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"s": "byImage"}`), &req))
	require.Equal(t, ByImage, req.S)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	fname := filepath.Join(dir, "pdfcompare.json")
	body := `{
		"paths": {
			"actualRoot": "actual",
			"baselineRoot": "/srv/baseline",
			"diffRoot": "out/diff"
		},
		"strategy": "byImage",
		"resolution": 150,
		"tolerance": 3,
		"threshold": 0.1,
		"maskColor": "#ff8000",
		"renderer": "gs",
		"metric": "ciede2000"
	}`
	require.NoError(t, os.WriteFile(fname, []byte(body), 0o644))

	cfg, err := LoadConfig(fname)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "actual"), cfg.ActualRoot)
	require.Equal(t, "/srv/baseline", cfg.BaselineRoot)
	require.Equal(t, filepath.Join(dir, "out", "diff"), cfg.DiffRoot)
	require.Empty(t, cfg.PNGRoot)
	require.Equal(t, ByImage, cfg.Strategy)
	require.Equal(t, 150.0, cfg.Resolution)
	require.Equal(t, 3, cfg.Tolerance)
	require.Equal(t, 0.1, cfg.Threshold)
	require.True(t, cfg.MatchPageCount)
	require.Equal(t, color.NRGBA{R: 255, G: 128, A: 255}, cfg.MaskColor)
	require.IsType(t, &render.Ghostscript{}, cfg.Renderer)
	require.Equal(t, &imagediff.Perceptual{Threshold: 0.1}, cfg.Differ)
}

func TestLoadConfigDefaults(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(fname, []byte(`{"matchPageCount": false}`), 0o644))

	cfg, err := LoadConfig(fname)
	require.NoError(t, err)

	want := DefaultConfig()
	want.MatchPageCount = false
	require.Equal(t, want, cfg)
}

func TestLoadConfigErrors(t *testing.T) {
	cases := []string{
		`{"strategy": "sometimes"}`,
		`{"resolution": 0}`,
		`{"tolerance": -5}`,
		`{"threshold": 2}`,
		`{"maskColor": "black"}`,
		`{"renderer": "cairo"}`,
		`{"metric": "psnr"}`,
		`{"paths": [1, 2]}`,
	}
	dir := t.TempDir()
	for i, body := range cases {
		fname := filepath.Join(dir, "bad"+string(rune('a'+i))+".json")
		require.NoError(t, os.WriteFile(fname, []byte(body), 0o644))
		_, err := LoadConfig(fname)
		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr, body)
	}

	_, err := LoadConfig(filepath.Join(dir, "missing.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#0a0B0c")
	require.NoError(t, err)
	require.Equal(t, color.NRGBA{R: 10, G: 11, B: 12, A: 255}, c)

	for _, bad := range []string{"", "#fff", "0a0b0c0", "#gg0000"} {
		_, err := ParseColor(bad)
		require.Error(t, err, bad)
	}
}

func TestNewDiffer(t *testing.T) {
	d, err := NewDiffer("", 0.2)
	require.NoError(t, err)
	require.Equal(t, &imagediff.Pixelmatch{Threshold: 0.2}, d)

	_, err = NewRenderer("native")
	require.NoError(t, err)
}
