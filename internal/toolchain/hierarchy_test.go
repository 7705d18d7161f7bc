// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package toolchain

import (
	"reflect"
	"testing"
)

func TestAncestorsOf(t *testing.T) {
	h := Default()

	cases := []struct {
		name string
		want []string
	}{
		{SystemName, []string{SystemName}},
		{"GCC", []string{SystemName, "GCC"}},
		{"foss", []string{SystemName, "GCC", "gompi", "foss"}},
		{"intel", []string{SystemName, "iccifort", "iimpi", "intel"}},
	}
	for _, c := range cases {
		got, err := h.AncestorsOf(c.name)
		if err != nil {
			t.Fatalf("AncestorsOf(%q): %v", c.name, err)
		}
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("AncestorsOf(%q) = %v, want %v", c.name, got, c.want)
		}
	}

	if _, err := h.AncestorsOf("bogus"); err == nil {
		t.Error("AncestorsOf(bogus) did not fail")
	}
}

func TestCapabilitiesAccumulate(t *testing.T) {
	h := Default()

	caps, err := h.CapabilitiesOf("foss")
	if err != nil {
		t.Fatal(err)
	}
	want := CapabilitySet{Compiler: "GCC", MPI: "OpenMPI", LinAlg: "OpenBLAS", FFT: "FFTW"}
	if !reflect.DeepEqual(caps, want) {
		t.Errorf("CapabilitiesOf(foss) = %v, want %v", caps, want)
	}

	caps, err = h.CapabilitiesOf(SystemName)
	if err != nil {
		t.Fatal(err)
	}
	if len(caps) != 0 {
		t.Errorf("system toolchain has capabilities: %v", caps)
	}
}

func TestMinimalAncestorProviding(t *testing.T) {
	h := Default()

	cases := []struct {
		tc       string
		required CapabilitySet
		want     string
		ok       bool
	}{
		// a compiler-only requirement against the full MPI toolchain must
		// land on the compiler subtoolchain, not gompi itself
		{"gompi", CapabilitySet{Compiler: "GCC"}, "GCC", true},
		{"gompi", CapabilitySet{Compiler: "GCC", MPI: "OpenMPI"}, "gompi", true},
		{"foss", CapabilitySet{Compiler: "GCC", FFT: "FFTW"}, "foss", true},
		{"foss", CapabilitySet{}, SystemName, true},
		// compiler+MPI cannot be satisfied anywhere in a pure-compiler chain
		{"GCC", CapabilitySet{Compiler: "GCC", MPI: "OpenMPI"}, "", false},
		// cross-family requirements match by axis, not by component
		{"iimpi", CapabilitySet{Compiler: "GCC", MPI: "OpenMPI"}, "iimpi", true},
	}
	for _, c := range cases {
		got, ok, err := h.MinimalAncestorProviding(c.tc, c.required)
		if err != nil {
			t.Fatalf("MinimalAncestorProviding(%q, %v): %v", c.tc, c.required, err)
		}
		if ok != c.ok || got != c.want {
			t.Errorf("MinimalAncestorProviding(%q, %v) = %q, %v; want %q, %v",
				c.tc, c.required, got, ok, c.want, c.ok)
		}
	}
}

func TestNewRejectsBrokenLattices(t *testing.T) {
	cases := []struct {
		desc string
		defs []Definition
	}{
		{"no root", []Definition{{Name: "GCC", Subtoolchain: "missing"}}},
		{"root with capabilities", []Definition{
			{Name: SystemName, Provides: CapabilitySet{Compiler: "cc"}},
		}},
		{"dangling ancestor", []Definition{
			{Name: SystemName},
			{Name: "GCC", Subtoolchain: "nope"},
		}},
		{"cycle", []Definition{
			{Name: SystemName},
			{Name: "a", Subtoolchain: "b"},
			{Name: "b", Subtoolchain: "a"},
		}},
		{"duplicate", []Definition{
			{Name: SystemName},
			{Name: "GCC", Subtoolchain: SystemName},
			{Name: "GCC", Subtoolchain: SystemName},
		}},
	}
	for _, c := range cases {
		if _, err := New(c.defs); err == nil {
			t.Errorf("New(%s) did not fail", c.desc)
		}
	}
}
