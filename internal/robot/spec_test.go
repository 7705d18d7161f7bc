// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package robot

import (
	"testing"

	"github.com/goeb/goeb/internal/toolchain"
)

func TestBuildSpecIdentity(t *testing.T) {
	gcc := toolchain.Spec{Name: "GCC", Version: "6.4.0-2.28"}
	a := BuildSpec{Name: "zlib", Version: "1.2.11", Toolchain: gcc}
	b := BuildSpec{Name: "zlib", Version: "1.2.11", Toolchain: gcc}
	c := a.WithToolchain(toolchain.System())

	if a.Key() != b.Key() {
		t.Errorf("equal specs have different keys: %q vs %q", a.Key(), b.Key())
	}
	if a.Key() == c.Key() {
		t.Errorf("specs under different toolchains share key %q", a.Key())
	}
	if got, want := a.ModuleName(), "zlib/1.2.11-GCC-6.4.0-2.28"; got != want {
		t.Errorf("ModuleName = %q, want %q", got, want)
	}
	if got, want := c.ModuleName(), "zlib/1.2.11"; got != want {
		t.Errorf("system ModuleName = %q, want %q", got, want)
	}
	if got, want := a.Filename(), "zlib-1.2.11-GCC-6.4.0-2.28.eb"; got != want {
		t.Errorf("Filename = %q, want %q", got, want)
	}
}

func TestVersionFromFilename(t *testing.T) {
	gcc := toolchain.Spec{Name: "GCC", Version: "6.4.0-2.28"}
	cases := []struct {
		spec BuildSpec
		base string
		want string
		ok   bool
	}{
		{BuildSpec{Name: "zlib", Toolchain: gcc}, "zlib-1.2.11-GCC-6.4.0-2.28.eb", "1.2.11", true},
		{BuildSpec{Name: "zlib", Toolchain: toolchain.System()}, "zlib-1.2.8.eb", "1.2.8", true},
		{BuildSpec{Name: "zlib", Toolchain: gcc}, "zlib-1.2.11.eb", "", false},
		{BuildSpec{Name: "zlib", Toolchain: gcc}, "zlib-1.2.11-GCC-6.4.0-2.28", "", false},
		{BuildSpec{Name: "bzip2", Toolchain: gcc}, "zlib-1.2.11-GCC-6.4.0-2.28.eb", "", false},
		// a dash-joined sibling name shares the prefix but is not a version
		{BuildSpec{Name: "zlib", Toolchain: gcc}, "zlib-ng-2.0.5-GCC-6.4.0-2.28.eb", "", false},
		{BuildSpec{Name: "Python", VersionSuffix: "-bare", Toolchain: gcc}, "Python-2.7.14-GCC-6.4.0-2.28-bare.eb", "2.7.14", true},
		{BuildSpec{Name: "Python", VersionSuffix: "-bare", Toolchain: gcc}, "Python-2.7.14-GCC-6.4.0-2.28.eb", "", false},
	}
	for _, c := range cases {
		got, ok := c.spec.versionFromFilename(c.base)
		if got != c.want || ok != c.ok {
			t.Errorf("versionFromFilename(%q) for %s = (%q, %t), want (%q, %t)",
				c.base, c.spec.Name, got, ok, c.want, c.ok)
		}
	}
}
