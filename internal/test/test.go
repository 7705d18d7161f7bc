// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package test holds the shared test harness: tempdir management and fixture
// helpers used by the resolution engine's tests.
package test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Helper with utilities for testing.
type Helper struct {
	t     *testing.T
	temps []string
}

// NewHelper initializes a new helper for testing.
func NewHelper(t *testing.T) *Helper {
	return &Helper{t: t}
}

// Must gives a fatal error if err is not nil.
func (h *Helper) Must(err error) {
	if err != nil {
		h.t.Fatalf("%+v", err)
	}
}

// Cleanup removes every tempdir the helper created. Call it in a defer.
func (h *Helper) Cleanup() {
	for _, d := range h.temps {
		os.RemoveAll(d)
	}
	h.temps = nil
}

// TempDir creates a fresh temporary directory owned by the helper.
func (h *Helper) TempDir(prefix string) string {
	d, err := ioutil.TempDir("", "goeb-"+prefix)
	if err != nil {
		h.t.Fatalf("failed to create tempdir: %v", err)
	}
	h.temps = append(h.temps, d)
	return d
}

// WriteFile writes content to a file under dir, creating any intermediate
// directories named in rel.
func (h *Helper) WriteFile(dir, rel, content string) string {
	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		h.t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := ioutil.WriteFile(path, []byte(content), 0644); err != nil {
		h.t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// WriteRecipe writes a minimal TOML recipe under dir using the canonical
// filename layout (letter/name subdirectories, as recipe repositories use).
// deps are "name/version" pairs inheriting the parent toolchain.
func (h *Helper) WriteRecipe(dir, name, version, tcName, tcVersion string, deps ...string) string {
	var b strings.Builder
	b.WriteString("name = \"" + name + "\"\n")
	b.WriteString("version = \"" + version + "\"\n\n")
	b.WriteString("[toolchain]\nname = \"" + tcName + "\"\n")
	if tcName != "system" {
		b.WriteString("version = \"" + tcVersion + "\"\n")
	}
	for _, d := range deps {
		parts := strings.SplitN(d, "/", 2)
		if len(parts) != 2 {
			h.t.Fatalf("bad dep spec %q, want name/version", d)
		}
		b.WriteString("\n[[dependencies]]\nname = \"" + parts[0] + "\"\nversion = \"" + parts[1] + "\"\n")
	}

	fn := name + "-" + version
	if tcName != "system" {
		fn += "-" + tcName + "-" + tcVersion
	}
	fn += ".eb"
	rel := filepath.Join(strings.ToLower(name[:1]), name, fn)
	return h.WriteFile(dir, rel, b.String())
}
