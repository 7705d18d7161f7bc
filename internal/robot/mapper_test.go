// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package robot

import (
	"testing"

	"github.com/goeb/goeb/internal/recipe"
	"github.com/goeb/goeb/internal/test"
	"github.com/goeb/goeb/internal/toolchain"
)

// writeLattice populates root with the toolchain recipes that pin the
// concrete versions of the 2018a generation: foss composes gompi composes
// GCC, intel composes iimpi composes iccifort. The component recipes are
// included so the closures of the toolchain recipes themselves resolve.
func writeLattice(h *test.Helper, root string) {
	h.WriteRecipe(root, "GCC", "6.4.0-2.28", "system", "")
	h.WriteRecipe(root, "gompi", "2018a", "system", "", "GCC/6.4.0-2.28", "OpenMPI/2.1.2")
	h.WriteRecipe(root, "foss", "2018a", "system", "", "gompi/2018a", "OpenBLAS/0.2.20", "FFTW/3.3.7")
	h.WriteRecipe(root, "iccifort", "2018.1.163", "system", "")
	h.WriteRecipe(root, "iimpi", "2018a", "system", "", "iccifort/2018.1.163", "impi/2018.1.163")
	h.WriteRecipe(root, "intel", "2018a", "system", "", "iimpi/2018a", "imkl/2018.1.163")
	h.WriteRecipe(root, "OpenMPI", "2.1.2", "system", "")
	h.WriteRecipe(root, "OpenBLAS", "0.2.20", "system", "")
	h.WriteRecipe(root, "FFTW", "3.3.7", "system", "")
	h.WriteRecipe(root, "impi", "2018.1.163", "system", "")
	h.WriteRecipe(root, "imkl", "2018.1.163", "system", "")
}

func newTestMapper(t *testing.T, h *test.Helper, roots ...string) *Mapper {
	return &Mapper{
		Hier:  toolchain.Default(),
		Loc:   NewLocator(roots, false, discardLogger()),
		Store: &Store{Parser: recipe.TOMLParser{}},
		Log:   discardLogger(),
	}
}

func TestHierarchyOf(t *testing.T) {
	h := test.NewHelper(t)
	defer h.Cleanup()

	root := h.TempDir("lattice")
	writeLattice(h, root)
	m := newTestMapper(t, h, root)

	chain, err := m.HierarchyOf(toolchain.Spec{Name: "foss", Version: "2018a"})
	if err != nil {
		t.Fatalf("HierarchyOf failed: %v", err)
	}
	want := []string{"system", "GCC/6.4.0-2.28", "gompi/2018a", "foss/2018a"}
	if len(chain) != len(want) {
		t.Fatalf("chain %v, want %v", chain, want)
	}
	for i, tc := range chain {
		if tc.String() != want[i] {
			t.Errorf("chain[%d] = %s, want %s", i, tc, want[i])
		}
	}

	chain, err = m.HierarchyOf(toolchain.System())
	if err != nil || len(chain) != 1 || !chain[0].IsSystem() {
		t.Errorf("system chain = (%v, %v)", chain, err)
	}

	if _, err := m.HierarchyOf(toolchain.Spec{Name: "clangy", Version: "1.0"}); err == nil {
		t.Error("unknown toolchain accepted")
	}
}

func TestMapOntoMinimalAncestor(t *testing.T) {
	h := test.NewHelper(t)
	defer h.Cleanup()

	root := h.TempDir("lattice")
	writeLattice(h, root)
	m := newTestMapper(t, h, root)

	// a system-toolchain recipe exercises only a compiler, so mapping onto
	// gompi lands on its GCC ancestor rather than full gompi
	required, err := m.RequiredCapabilities(toolchain.System(), nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := m.Map(toolchain.System(), required, toolchain.Spec{Name: "gompi", Version: "2018a"})
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if got.String() != "GCC/6.4.0-2.28" {
		t.Errorf("mapped to %s, want GCC/6.4.0-2.28", got)
	}
}

func TestMapKeepsFullTarget(t *testing.T) {
	h := test.NewHelper(t)
	defer h.Cleanup()

	root := h.TempDir("lattice")
	writeLattice(h, root)
	m := newTestMapper(t, h, root)

	orig := toolchain.Spec{Name: "foss", Version: "2017b"}
	target := toolchain.Spec{Name: "foss", Version: "2018a"}
	required, err := m.RequiredCapabilities(orig, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := m.Map(orig, required, target)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if !got.Equal(target) {
		t.Errorf("mapped to %s, want %s", got, target)
	}
}

func TestMapAcrossFamilies(t *testing.T) {
	h := test.NewHelper(t)
	defer h.Cleanup()

	root := h.TempDir("lattice")
	writeLattice(h, root)
	m := newTestMapper(t, h, root)

	// compiler+MPI usage maps onto the intel family's iimpi layer even
	// though the component names differ completely
	orig := toolchain.Spec{Name: "gompi", Version: "2018a"}
	required, err := m.RequiredCapabilities(orig, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := m.Map(orig, required, toolchain.Spec{Name: "intel", Version: "2018a"})
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if got.String() != "iimpi/2018a" {
		t.Errorf("mapped to %s, want iimpi/2018a", got)
	}
}

func TestMapIncompatible(t *testing.T) {
	h := test.NewHelper(t)
	defer h.Cleanup()

	root := h.TempDir("lattice")
	writeLattice(h, root)
	m := newTestMapper(t, h, root)

	orig := toolchain.Spec{Name: "gompi", Version: "2017b"}
	required, err := m.RequiredCapabilities(orig, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = m.Map(orig, required, toolchain.Spec{Name: "GCC", Version: "6.4.0-2.28"})
	if err == nil {
		t.Fatal("mapping an MPI user onto a plain compiler succeeded")
	}
	if _, ok := err.(*ToolchainIncompatibleError); !ok {
		t.Errorf("error type %T, want *ToolchainIncompatibleError", err)
	}
}

func TestRequiredCapabilitiesRestricted(t *testing.T) {
	h := test.NewHelper(t)
	defer h.Cleanup()

	root := h.TempDir("lattice")
	writeLattice(h, root)
	m := newTestMapper(t, h, root)

	orig := toolchain.Spec{Name: "foss", Version: "2018a"}
	caps, err := m.RequiredCapabilities(orig, []toolchain.Axis{toolchain.Compiler})
	if err != nil {
		t.Fatal(err)
	}
	if len(caps) != 1 || caps[toolchain.Compiler] != "GCC" {
		t.Errorf("restricted capabilities = %s", caps)
	}

	caps, err = m.RequiredCapabilities(orig, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(caps) != 4 {
		t.Errorf("full capability set = %s, want all four axes", caps)
	}
}
