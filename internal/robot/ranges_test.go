// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package robot

import "testing"

func TestParseDepSpecifier(t *testing.T) {
	cases := []struct {
		tok     string
		name    string
		exact   string
		rng     string // expected Range.String(), empty when none
		wantErr bool
	}{
		{tok: "zlib", name: "zlib"},
		{tok: "zlib=1.2.11", name: "zlib", exact: "1.2.11"},
		{tok: "GCC=[6.4.0:7.0[", name: "GCC", rng: "[6.4.0:7.0["},
		{tok: "GCC=]6.4.0:7.0]", name: "GCC", rng: "]6.4.0:7.0]"},
		{tok: "GCC=(6.4.0:7.0)", name: "GCC", rng: "]6.4.0:7.0["},
		{tok: "GCC=[6.4.0:]", name: "GCC", rng: "[6.4.0:]"},
		{tok: "GCC=[:7.0]", name: "GCC", rng: "[:7.0]"},
		{tok: "", wantErr: true},
		{tok: "=1.0", wantErr: true},
		{tok: "zlib=", wantErr: true},
		{tok: "zlib=[1.0]", wantErr: true},
		{tok: "zlib=[:]", wantErr: true},
		{tok: "zlib=[2.0:1.0]", wantErr: true},
		{tok: "zlib=1.0:2.0", wantErr: true},
		{tok: "zlib=)1.0:2.0]", wantErr: true},
	}
	for _, c := range cases {
		ds, err := ParseDepSpecifier(c.tok)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseDepSpecifier(%q) succeeded, want error", c.tok)
			} else if _, ok := err.(*VersionRangeSyntaxError); !ok {
				t.Errorf("ParseDepSpecifier(%q) error type %T, want *VersionRangeSyntaxError", c.tok, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDepSpecifier(%q) failed: %v", c.tok, err)
			continue
		}
		if ds.Name != c.name || ds.Exact != c.exact {
			t.Errorf("ParseDepSpecifier(%q) = %v, want name %q exact %q", c.tok, ds, c.name, c.exact)
		}
		switch {
		case c.rng == "" && ds.Range != nil:
			t.Errorf("ParseDepSpecifier(%q) parsed range %s, want none", c.tok, ds.Range)
		case c.rng != "" && ds.Range == nil:
			t.Errorf("ParseDepSpecifier(%q) parsed no range, want %s", c.tok, c.rng)
		case c.rng != "" && ds.Range.String() != c.rng:
			t.Errorf("ParseDepSpecifier(%q) range %s, want %s", c.tok, ds.Range, c.rng)
		}
	}
}

func TestVersionRangeContains(t *testing.T) {
	cases := []struct {
		tok     string
		version string
		want    bool
	}{
		{"GCC=[3.0:4.0[", "3.0", true},
		{"GCC=[3.0:4.0[", "3.5", true},
		{"GCC=[3.0:4.0[", "4.0", false},
		{"GCC=]3.0:4.0]", "3.0", false},
		{"GCC=]3.0:4.0]", "4.0", true},
		{"GCC=[6.4.0:]", "6.4.0", true},
		{"GCC=[6.4.0:]", "12.1", true},
		{"GCC=[6.4.0:]", "6.3.0", false},
		{"GCC=[:7.0]", "7.0", true},
		{"GCC=[:7.0]", "7.0.1", false},
		{"GCC=[3.0:4.0[", "3.10", true},
	}
	for _, c := range cases {
		ds, err := ParseDepSpecifier(c.tok)
		if err != nil {
			t.Fatalf("ParseDepSpecifier(%q) failed: %v", c.tok, err)
		}
		if got := ds.Matches("GCC", c.version); got != c.want {
			t.Errorf("%q matches %q = %t, want %t", c.tok, c.version, got, c.want)
		}
	}
}

func TestDepSpecifierMatchesName(t *testing.T) {
	ds, err := ParseDepSpecifier("zlib")
	if err != nil {
		t.Fatal(err)
	}
	if !ds.Matches("zlib", "1.2.11") {
		t.Error("bare name specifier should match any version")
	}
	if ds.Matches("bzip2", "1.0.6") {
		t.Error("specifier matched a different name")
	}
}

func TestParseDepSpecifiers(t *testing.T) {
	got, err := ParseDepSpecifiers("zlib, GCC=[6.4.0:7.0[ ,bzip2=1.0.6")
	if err != nil {
		t.Fatalf("ParseDepSpecifiers failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d specifiers, want 3", len(got))
	}
	if got[0].Name != "zlib" || got[1].Name != "GCC" || got[2].Exact != "1.0.6" {
		t.Errorf("unexpected specifiers: %v", got)
	}

	if _, err := ParseDepSpecifiers("zlib,,bzip2"); err == nil {
		t.Error("empty token in list should fail")
	}
	if out, err := ParseDepSpecifiers("  "); err != nil || out != nil {
		t.Errorf("blank list = (%v, %v), want (nil, nil)", out, err)
	}
}
