// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package toolchain

import (
	"github.com/pkg/errors"
)

// A Definition declares one toolchain in the lattice: the toolchain it
// extends and the capabilities it adds on top of that ancestor. The full
// capability set of a toolchain is the union along its ancestor chain.
type Definition struct {
	Name         string
	Subtoolchain string        // ancestor name; empty only for the system root
	Provides     CapabilitySet // capabilities added at this level
}

// A Hierarchy is the set of known toolchain definitions, validated into an
// ancestor lattice rooted at the system toolchain. It is built once per
// invocation and read-only afterwards.
type Hierarchy struct {
	defs map[string]Definition
}

// New validates a set of definitions into a Hierarchy. Exactly one root named
// "system" with no capabilities is required; every other definition must name
// an existing ancestor, and ancestor chains must terminate at the root.
func New(defs []Definition) (*Hierarchy, error) {
	h := &Hierarchy{defs: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		if _, dup := h.defs[d.Name]; dup {
			return nil, errors.Errorf("duplicate toolchain definition %q", d.Name)
		}
		if d.Name == SystemName {
			if d.Subtoolchain != "" || len(d.Provides) != 0 {
				return nil, errors.New("system toolchain must not extend anything or provide capabilities")
			}
		} else if d.Subtoolchain == "" {
			return nil, errors.Errorf("toolchain %q has no subtoolchain and is not %q", d.Name, SystemName)
		}
		h.defs[d.Name] = d
	}
	if _, ok := h.defs[SystemName]; !ok {
		return nil, errors.Errorf("no %q root toolchain defined", SystemName)
	}
	// Walking every chain here both validates ancestry and rejects cycles.
	for name := range h.defs {
		if _, err := h.AncestorsOf(name); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// Default returns the built-in toolchain lattice: the GCC-based family
// (GCC -> gompi -> foss) and the Intel family (iccifort -> iimpi -> intel),
// both rooted at system.
func Default() *Hierarchy {
	h, err := New([]Definition{
		{Name: SystemName},
		{Name: "GCC", Subtoolchain: SystemName, Provides: CapabilitySet{Compiler: "GCC"}},
		{Name: "gompi", Subtoolchain: "GCC", Provides: CapabilitySet{MPI: "OpenMPI"}},
		{Name: "foss", Subtoolchain: "gompi", Provides: CapabilitySet{LinAlg: "OpenBLAS", FFT: "FFTW"}},
		{Name: "iccifort", Subtoolchain: SystemName, Provides: CapabilitySet{Compiler: "iccifort"}},
		{Name: "iimpi", Subtoolchain: "iccifort", Provides: CapabilitySet{MPI: "impi"}},
		{Name: "intel", Subtoolchain: "iimpi", Provides: CapabilitySet{LinAlg: "imkl", FFT: "imkl"}},
	})
	if err != nil {
		panic(err) // static table, cannot fail
	}
	return h
}

// Known reports whether name is a defined toolchain.
func (h *Hierarchy) Known(name string) bool {
	if name == "" {
		return false
	}
	_, ok := h.defs[name]
	return ok
}

// Names returns every defined toolchain name, unordered.
func (h *Hierarchy) Names() []string {
	out := make([]string, 0, len(h.defs))
	for name := range h.defs {
		out = append(out, name)
	}
	return out
}

// SubtoolchainOf returns the declared ancestor of the named toolchain.
func (h *Hierarchy) SubtoolchainOf(name string) (string, error) {
	d, ok := h.defs[name]
	if !ok {
		return "", errors.Errorf("unknown toolchain %q", name)
	}
	return d.Subtoolchain, nil
}

// AncestorsOf returns the ancestor chain of the named toolchain, ordered from
// the system root up to and including the toolchain itself.
func (h *Hierarchy) AncestorsOf(name string) ([]string, error) {
	var chain []string
	seen := make(map[string]bool)
	for cur := name; cur != ""; {
		if seen[cur] {
			return nil, errors.Errorf("toolchain ancestry of %q contains a cycle at %q", name, cur)
		}
		seen[cur] = true
		d, ok := h.defs[cur]
		if !ok {
			return nil, errors.Errorf("unknown toolchain %q in ancestry of %q", cur, name)
		}
		chain = append(chain, cur)
		cur = d.Subtoolchain
	}
	// Reverse into root-first order.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	if chain[0] != SystemName {
		return nil, errors.Errorf("toolchain %q does not descend from %q", name, SystemName)
	}
	return chain, nil
}

// CapabilitiesOf returns the full capability set of the named toolchain: the
// union of everything provided along its ancestor chain.
func (h *Hierarchy) CapabilitiesOf(name string) (CapabilitySet, error) {
	chain, err := h.AncestorsOf(name)
	if err != nil {
		return nil, err
	}
	caps := make(CapabilitySet)
	for _, anc := range chain {
		for a, m := range h.defs[anc].Provides {
			caps[a] = m
		}
	}
	return caps, nil
}

// MinimalAncestorProviding returns the closest-to-root ancestor of the named
// toolchain (possibly the toolchain itself) whose capability set subsumes
// required. The second return is false when no ancestor qualifies.
func (h *Hierarchy) MinimalAncestorProviding(name string, required CapabilitySet) (string, bool, error) {
	chain, err := h.AncestorsOf(name)
	if err != nil {
		return "", false, err
	}
	caps := make(CapabilitySet)
	for _, anc := range chain {
		for a, m := range h.defs[anc].Provides {
			caps[a] = m
		}
		if caps.Subsumes(required) {
			return anc, true, nil
		}
	}
	return "", false, nil
}
