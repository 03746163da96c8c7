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

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"seehuhn.de/go/pdfcompare"
	"seehuhn.de/go/pdfcompare/imagediff"
	"seehuhn.de/go/pdfcompare/internal/pdftest"
	"seehuhn.de/go/pdfcompare/region"
)

func TestParsePageRect(t *testing.T) {
	page, v, err := parsePageRect("2: 1.5,2,30, 40")
	if err != nil {
		t.Fatal(err)
	}
	if page != 2 || v != [4]float64{1.5, 2, 30, 40} {
		t.Errorf("got %d %v", page, v)
	}

	for _, bad := range []string{"1,2,3,4", "x:1,2,3,4", "0:1,2,3", "0:1,2,3,z"} {
		if _, _, err := parsePageRect(bad); err == nil {
			t.Errorf("%q: no error", bad)
		}
	}
}

func TestFlagStrings(t *testing.T) {
	var masks maskList
	for _, s := range []string{"0:1,2,3,4", "2:0.5,10,20.25,30"} {
		if err := masks.Set(s); err != nil {
			t.Fatal(err)
		}
	}
	if got, want := masks.String(), "0:1,2,3,4 2:0.5,10,20.25,30"; got != want {
		t.Errorf("masks: got %q, want %q", got, want)
	}
	var masks2 maskList
	for _, s := range strings.Fields(masks.String()) {
		if err := masks2.Set(s); err != nil {
			t.Fatal(err)
		}
	}
	if d := cmp.Diff(masks, masks2); d != "" {
		t.Errorf("masks round trip (-want +got):\n%s", d)
	}

	var crops cropList
	for _, s := range []string{"1:5,6,70,80", "3:0,0,1.5,2"} {
		if err := crops.Set(s); err != nil {
			t.Fatal(err)
		}
	}
	if got, want := crops.String(), "1:5,6,70,80 3:0,0,1.5,2"; got != want {
		t.Errorf("crops: got %q, want %q", got, want)
	}
	var crops2 cropList
	for _, s := range strings.Fields(crops.String()) {
		if err := crops2.Set(s); err != nil {
			t.Fatal(err)
		}
	}
	if d := cmp.Diff(crops, crops2); d != "" {
		t.Errorf("crops round trip (-want +got):\n%s", d)
	}
}

func TestParseArgs(t *testing.T) {
	args := []string{
		"-mask", "0:1,2,3,4",
		"-mask", "1:5,6,7,8",
		"-crop", "1:0,0,50,60",
		"-only", "0, 2",
		"-dpi", "72",
		"a.pdf", "b.pdf",
	}
	opt, err := parseArgs(args, io.Discard)
	if err != nil {
		t.Fatal(err)
	}

	wantMasks := maskList{
		{Page: 0, Mask: region.Mask{X0: 1, Y0: 2, X1: 3, Y1: 4}},
		{Page: 1, Mask: region.Mask{X0: 5, Y0: 6, X1: 7, Y1: 8}},
	}
	if d := cmp.Diff(wantMasks, opt.masks); d != "" {
		t.Errorf("masks (-want +got):\n%s", d)
	}
	wantCrops := cropList{{Page: 1, Crop: region.Crop{Width: 50, Height: 60}}}
	if d := cmp.Diff(wantCrops, opt.crops); d != "" {
		t.Errorf("crops (-want +got):\n%s", d)
	}
	if d := cmp.Diff(intList{0, 2}, opt.only); d != "" {
		t.Errorf("only (-want +got):\n%s", d)
	}
	if opt.actual != "a.pdf" || opt.baseline != "b.pdf" {
		t.Errorf("files: %q %q", opt.actual, opt.baseline)
	}
	if !opt.set["dpi"] || opt.set["tolerance"] {
		t.Errorf("wrong flags recorded: %v", opt.set)
	}

	for _, bad := range [][]string{
		{"a.pdf"},
		{"-mask", "0:1,2", "a.pdf", "b.pdf"},
		{"-only", "one", "a.pdf", "b.pdf"},
	} {
		if _, err := parseArgs(bad, io.Discard); err == nil {
			t.Errorf("%q: no error", bad)
		}
	}
}

func TestConfigure(t *testing.T) {
	dir := t.TempDir()
	fname := filepath.Join(dir, "cfg.json")
	body := `{"resolution": 50, "tolerance": 4, "metric": "ciede2000"}`
	if err := os.WriteFile(fname, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	opt, err := parseArgs([]string{"-config", fname, "-tolerance", "9", "-threshold", "0.5", "a", "b"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := opt.configure()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Resolution != 50 {
		t.Errorf("resolution %g, want 50", cfg.Resolution)
	}
	if cfg.Tolerance != 9 {
		t.Errorf("tolerance %d, want 9", cfg.Tolerance)
	}
	if d := cmp.Diff(&imagediff.Perceptual{Threshold: 0.5}, cfg.Differ); d != "" {
		t.Errorf("differ (-want +got):\n%s", d)
	}

	opt, err = parseArgs([]string{"-strategy", "never", "a", "b"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := opt.configure(); err == nil {
		t.Error("invalid strategy accepted")
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		t.Helper()
		doc := &pdftest.Doc{Pages: []pdftest.Page{{Content: content}}}
		p, err := doc.WriteTemp(dir, name)
		if err != nil {
			t.Fatal(err)
		}
		return p
	}
	baseline := write("baseline.pdf", "0 0 1 rg 20 20 40 40 re f\n")
	same := write("same.pdf", "0 0 1 rg 20 20 40 40 re f\n")
	other := write("other.pdf", "0 0 1 rg 120 20 40 40 re f\n")

	cases := []struct {
		args   []string
		code   int
		status pdfcompare.Status
	}{
		{[]string{same, baseline}, exitPassed, pdfcompare.Passed},
		{[]string{"-dpi", "72", other, baseline}, exitFailed, pdfcompare.Failed},
		{[]string{"-dpi", "72", "-crop", "0:0,0,10,10", other, baseline}, exitPassed, pdfcompare.Passed},
		{[]string{"-strategy", "byBase64", filepath.Join(dir, "missing.pdf"), baseline}, exitFailed, pdfcompare.Failed},
		{[]string{"-only", "3", other, baseline}, exitError, ""},
		{[]string{"-mask", "0:-1,0,1,1", other, baseline}, exitError, ""},
	}
	for _, tc := range cases {
		var stdout, stderr bytes.Buffer
		code := run(context.Background(), tc.args, &stdout, &stderr)
		if code != tc.code {
			t.Errorf("%q: exit code %d, want %d\n%s", tc.args, code, tc.code, stderr.String())
			continue
		}
		if tc.status == "" {
			continue
		}
		var v pdfcompare.Verdict
		if err := json.Unmarshal(stdout.Bytes(), &v); err != nil {
			t.Fatalf("%q: %v", tc.args, err)
		}
		if v.Status != tc.status {
			t.Errorf("%q: status %q, want %q", tc.args, v.Status, tc.status)
		}
	}
}
