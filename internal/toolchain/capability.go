// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package toolchain

import "strings"

// An Axis is one of the capability dimensions a toolchain may provide.
type Axis string

const (
	Compiler Axis = "compiler"
	MPI      Axis = "mpi"
	LinAlg   Axis = "linalg"
	FFT      Axis = "fft"
)

// Axes lists every known capability axis, in a stable order.
func Axes() []Axis {
	return []Axis{Compiler, MPI, LinAlg, FFT}
}

// A CapabilitySet maps each provided axis to the component module supplying
// it (e.g. compiler -> "GCC", mpi -> "OpenMPI"). An absent axis means the
// capability is not provided at all.
//
// Subsumption between capability sets is decided per axis, not per component:
// a set providing {compiler: intel} covers a requirement of {compiler: GCC},
// because mapping across compiler families is exactly what toolchain
// substitution is for. The component names are carried for diagnostics.
type CapabilitySet map[Axis]string

// Clone returns an independent copy of the set.
func (cs CapabilitySet) Clone() CapabilitySet {
	out := make(CapabilitySet, len(cs))
	for a, m := range cs {
		out[a] = m
	}
	return out
}

// Axes returns the provided axes in the canonical order.
func (cs CapabilitySet) Axes() []Axis {
	var out []Axis
	for _, a := range Axes() {
		if _, ok := cs[a]; ok {
			out = append(out, a)
		}
	}
	return out
}

// Subsumes reports whether cs provides every axis that req provides.
func (cs CapabilitySet) Subsumes(req CapabilitySet) bool {
	for a := range req {
		if _, ok := cs[a]; !ok {
			return false
		}
	}
	return true
}

// Restrict returns the subset of cs limited to the given axes.
func (cs CapabilitySet) Restrict(axes []Axis) CapabilitySet {
	out := make(CapabilitySet)
	for _, a := range axes {
		if m, ok := cs[a]; ok {
			out[a] = m
		}
	}
	return out
}

func (cs CapabilitySet) String() string {
	if len(cs) == 0 {
		return "(none)"
	}
	var parts []string
	for _, a := range cs.Axes() {
		parts = append(parts, string(a)+":"+cs[a])
	}
	return strings.Join(parts, ",")
}
