// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package robot

import (
	"strings"
	"testing"
	"time"

	"github.com/goeb/goeb/internal/test"
)

func TestCreateAndLoadIndex(t *testing.T) {
	h := test.NewHelper(t)
	defer h.Cleanup()

	root := h.TempDir("index")
	h.WriteRecipe(root, "zlib", "1.2.11", "GCC", "6.4.0-2.28")
	h.WriteRecipe(root, "zlib", "1.2.8", "system", "")
	h.WriteRecipe(root, "bzip2", "1.0.6", "GCC", "6.4.0-2.28")
	h.WriteFile(root, "z/zlib/README", "not a recipe")

	created, err := CreateIndex(root, DefaultIndexValidity, false)
	if err != nil {
		t.Fatalf("CreateIndex failed: %v", err)
	}
	if created.Len() != 3 {
		t.Errorf("created index has %d entries, want 3", created.Len())
	}

	loaded, err := LoadIndex(root)
	if err != nil {
		t.Fatalf("LoadIndex failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("LoadIndex returned nil for a root with an index")
	}
	if loaded.Stale() {
		t.Error("fresh index reported stale")
	}
	if loaded.Len() != created.Len() {
		t.Errorf("loaded %d entries, created %d", loaded.Len(), created.Len())
	}

	rels := loaded.Lookup("zlib-1.2.11-GCC-6.4.0-2.28.eb")
	if len(rels) != 1 || !strings.HasSuffix(rels[0], "zlib-1.2.11-GCC-6.4.0-2.28.eb") {
		t.Errorf("Lookup returned %v", rels)
	}
	if got := loaded.Lookup("README"); got != nil {
		t.Errorf("non-recipe file indexed: %v", got)
	}

	byPrefix := loaded.LookupPrefix("zlib-")
	if len(byPrefix) != 2 {
		t.Errorf("LookupPrefix(zlib-) returned %d entries, want 2: %v", len(byPrefix), byPrefix)
	}
}

func TestCreateIndexRefusesFresh(t *testing.T) {
	h := test.NewHelper(t)
	defer h.Cleanup()

	root := h.TempDir("index")
	h.WriteRecipe(root, "zlib", "1.2.11", "system", "")

	if _, err := CreateIndex(root, DefaultIndexValidity, false); err != nil {
		t.Fatalf("initial CreateIndex failed: %v", err)
	}
	if _, err := CreateIndex(root, DefaultIndexValidity, false); err == nil {
		t.Error("recreating a fresh index without force should fail")
	}
	if _, err := CreateIndex(root, DefaultIndexValidity, true); err != nil {
		t.Errorf("forced recreate failed: %v", err)
	}
}

func TestLoadIndexAbsentAndMalformed(t *testing.T) {
	h := test.NewHelper(t)
	defer h.Cleanup()

	root := h.TempDir("index")
	x, err := LoadIndex(root)
	if err != nil || x != nil {
		t.Errorf("LoadIndex on indexless root = (%v, %v), want (nil, nil)", x, err)
	}

	h.WriteFile(root, IndexFilename, "z/zlib/zlib-1.2.11.eb\n")
	if _, err := LoadIndex(root); err == nil {
		t.Error("index without a 'valid until' header should fail to load")
	}
}

func TestIndexStaleness(t *testing.T) {
	h := test.NewHelper(t)
	defer h.Cleanup()

	root := h.TempDir("index")
	past := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	h.WriteFile(root, IndexFilename,
		"# created at: "+past+"\n# valid until: "+past+"\nz/zlib/zlib-1.2.11.eb\n")

	x, err := LoadIndex(root)
	if err != nil {
		t.Fatalf("LoadIndex failed: %v", err)
	}
	if !x.Stale() {
		t.Error("expired index not reported stale")
	}
	if x.Len() != 1 {
		t.Errorf("stale index lost entries: %d", x.Len())
	}
}
