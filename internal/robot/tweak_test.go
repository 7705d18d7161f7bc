// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package robot

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/goeb/goeb/internal/recipe"
	"github.com/goeb/goeb/internal/test"
	"github.com/goeb/goeb/internal/toolchain"
)

func newTestTweaker(t *testing.T, h *test.Helper) *Tweaker {
	tw, err := NewTweaker(h.TempDir("tweak"), recipe.TOMLParser{}, recipe.TOMLParser{}, discardLogger())
	if err != nil {
		t.Fatalf("NewTweaker failed: %v", err)
	}
	return tw
}

func TestSwitchToolchain(t *testing.T) {
	h := test.NewHelper(t)
	defer h.Cleanup()

	dir := h.TempDir("recipes")
	base := h.WriteRecipe(dir, "zlib", "1.2.11", "foss", "2018a", "bzip2/1.0.6")

	tw := newTestTweaker(t, h)
	defer tw.Cleanup()

	gcc := toolchain.Spec{Name: "GCC", Version: "6.4.0-2.28"}
	r, err := tw.SwitchToolchain(base, gcc, false)
	if err != nil {
		t.Fatalf("SwitchToolchain failed: %v", err)
	}
	if !r.Toolchain.Equal(gcc) {
		t.Errorf("toolchain = %s, want %s", r.Toolchain, gcc)
	}
	if filepath.Base(r.Path) != "zlib-1.2.11-GCC-6.4.0-2.28.eb" {
		t.Errorf("synthesized filename %s", filepath.Base(r.Path))
	}
	if filepath.Dir(r.Path) != tw.Dir {
		t.Errorf("synthesized outside the scratch dir: %s", r.Path)
	}

	// the written file must parse back with everything but the toolchain intact
	again, err := recipe.TOMLParser{}.ParseFile(r.Path)
	if err != nil {
		t.Fatalf("reparse failed: %v", err)
	}
	if again.Name != "zlib" || again.Version != "1.2.11" || !again.Toolchain.Equal(gcc) {
		t.Errorf("reparsed identity %s", again.ModuleName())
	}
	if len(again.Dependencies) != 1 || again.Dependencies[0].Name != "bzip2" {
		t.Errorf("dependencies lost in synthesis: %v", again.Dependencies)
	}
}

func TestSwitchToolchainDropsSuffix(t *testing.T) {
	h := test.NewHelper(t)
	defer h.Cleanup()

	dir := h.TempDir("recipes")
	base := h.WriteFile(dir, "p/Python/Python-2.7.14-foss-2018a-bare.eb",
		"name = \"Python\"\nversion = \"2.7.14\"\nversionsuffix = \"-bare\"\n\n"+
			"[toolchain]\nname = \"foss\"\nversion = \"2018a\"\n")

	tw := newTestTweaker(t, h)
	defer tw.Cleanup()

	gcc := toolchain.Spec{Name: "GCC", Version: "6.4.0-2.28"}

	r, err := tw.SwitchToolchain(base, gcc, false)
	if err != nil {
		t.Fatal(err)
	}
	if r.VersionSuffix != "-bare" {
		t.Errorf("suffix dropped without ignore-versionsuffixes: %q", r.VersionSuffix)
	}

	r, err = tw.SwitchToolchain(base, gcc, true)
	if err != nil {
		t.Fatal(err)
	}
	if r.VersionSuffix != "" {
		t.Errorf("suffix kept despite ignore-versionsuffixes: %q", r.VersionSuffix)
	}
	if filepath.Base(r.Path) != "Python-2.7.14-GCC-6.4.0-2.28.eb" {
		t.Errorf("filename %s", filepath.Base(r.Path))
	}
}

func TestSwitchVersion(t *testing.T) {
	h := test.NewHelper(t)
	defer h.Cleanup()

	dir := h.TempDir("recipes")
	base := h.WriteRecipe(dir, "zlib", "1.2.8", "GCC", "6.4.0-2.28")

	tw := newTestTweaker(t, h)
	defer tw.Cleanup()

	r, err := tw.SwitchVersion(base, "1.2.11")
	if err != nil {
		t.Fatalf("SwitchVersion failed: %v", err)
	}
	if r.Version != "1.2.11" {
		t.Errorf("version = %q", r.Version)
	}
	if filepath.Base(r.Path) != "zlib-1.2.11-GCC-6.4.0-2.28.eb" {
		t.Errorf("filename %s", filepath.Base(r.Path))
	}
}

func TestAmendListSemantics(t *testing.T) {
	h := test.NewHelper(t)
	defer h.Cleanup()

	dir := h.TempDir("recipes")
	base := h.WriteFile(dir, "t/toy/toy-0.0.eb",
		"name = \"toy\"\nversion = \"0.0\"\n\n[toolchain]\nname = \"system\"\n\n"+
			"[params]\nconfigopts = [\"--a\", \"--b\"]\n")

	tw := newTestTweaker(t, h)
	defer tw.Cleanup()

	cases := []struct {
		raw  string
		want []interface{}
	}{
		{",--c", []interface{}{"--a", "--b", "--c"}},
		{"--c,", []interface{}{"--c", "--a", "--b"}},
		{"--x,--y", []interface{}{"--x", "--y"}},
	}
	for _, c := range cases {
		r, err := tw.Apply(base, &TryOpts{Amend: map[string]string{"configopts": c.raw}}, nil)
		if err != nil {
			t.Fatalf("Apply(%q) failed: %v", c.raw, err)
		}
		if got := r.Params["configopts"]; !reflect.DeepEqual(got, c.want) {
			t.Errorf("amend %q -> %v, want %v", c.raw, got, c.want)
		}
	}

	// scalar override, no list syntax involved
	r, err := tw.Apply(base, &TryOpts{Amend: map[string]string{"parallel": "4"}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.Params["parallel"] != "4" {
		t.Errorf("parallel = %v", r.Params["parallel"])
	}

	// identity parameters route to typed fields
	r, err = tw.Apply(base, &TryOpts{Amend: map[string]string{"versionsuffix": "-test"}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if r.VersionSuffix != "-test" {
		t.Errorf("versionsuffix = %q", r.VersionSuffix)
	}
	if _, ok := r.Params["versionsuffix"]; ok {
		t.Error("identity parameter leaked into params")
	}

	if _, err := tw.Apply(base, &TryOpts{Amend: map[string]string{"toolchain": "GCC"}}, nil); err == nil {
		t.Error("amending the toolchain through params should fail")
	}
}
