// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package robot

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/goeb/goeb/internal/toolchain"
)

// A Mapper computes, for a dependency built under one toolchain, the minimal
// toolchain within a target toolchain's ancestor lattice that still provides
// every capability the dependency actually exercises. "Minimal" means closest
// to the system root: mapping a compiler-only dependency onto a compiler+MPI
// toolchain yields the compiler subtoolchain, never the full target.
//
// The lattice only knows toolchain names; concrete versions of ancestors are
// discovered by reading the toolchain recipes themselves. A toolchain recipe
// is built with the system toolchain and declares its components as
// dependencies, so gompi-2018a.eb carries a GCC/6.4.0-2.28 dependency that
// fixes the version of gompi/2018a's GCC ancestor.
type Mapper struct {
	Hier  *toolchain.Hierarchy
	Loc   *Locator
	Store *Store
	Log   *logrus.Logger
}

// HierarchyOf returns the concrete ancestor chain of tc, ordered from the
// system root up to tc itself, with every ancestor's version resolved.
func (m *Mapper) HierarchyOf(tc toolchain.Spec) ([]toolchain.Spec, error) {
	if tc.IsSystem() {
		return []toolchain.Spec{toolchain.System()}, nil
	}
	if !m.Hier.Known(tc.Name) {
		return nil, errors.Errorf("toolchain %q is not a known toolchain", tc.Name)
	}

	var chain []toolchain.Spec
	cur := tc
	for !cur.IsSystem() {
		chain = append(chain, cur)
		sub, err := m.Hier.SubtoolchainOf(cur.Name)
		if err != nil {
			return nil, err
		}
		if sub == toolchain.SystemName {
			chain = append(chain, toolchain.System())
			break
		}

		subVersion, err := m.subtoolchainVersion(cur, sub)
		if err != nil {
			return nil, err
		}
		cur = toolchain.Spec{Name: sub, Version: subVersion}
	}

	// reverse into root-first order
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// subtoolchainVersion determines which version of the sub toolchain a
// concrete toolchain composes, by reading the toolchain's own recipe.
func (m *Mapper) subtoolchainVersion(tc toolchain.Spec, sub string) (string, error) {
	spec := BuildSpec{Name: tc.Name, Version: tc.Version, Toolchain: toolchain.System()}
	path, err := m.Loc.FindRecipe(spec)
	if err != nil {
		return "", errors.Wrapf(err, "cannot determine version of subtoolchain %s of %s", sub, tc)
	}
	r, err := m.Store.Load(path)
	if err != nil {
		return "", err
	}
	for _, d := range r.AllDependencies() {
		if d.Name == sub {
			return d.Version + d.VersionSuffix, nil
		}
	}
	return "", errors.Errorf("recipe of toolchain %s declares no dependency on its subtoolchain %s", tc, sub)
}

// RequiredCapabilities derives the capabilities a recipe actually exercises
// from its original toolchain: the toolchain's full capability set restricted
// to the recipe's used axes. An empty uses list means every provided axis.
// Anything built with the system toolchain still exercises a compiler.
func (m *Mapper) RequiredCapabilities(orig toolchain.Spec, uses []toolchain.Axis) (toolchain.CapabilitySet, error) {
	if orig.IsSystem() {
		return toolchain.CapabilitySet{toolchain.Compiler: toolchain.SystemName}, nil
	}
	caps, err := m.Hier.CapabilitiesOf(orig.Name)
	if err != nil {
		return nil, err
	}
	if len(uses) > 0 {
		caps = caps.Restrict(uses)
	}
	return caps, nil
}

// Map returns the minimal ancestor of target whose capability set subsumes
// required. It fails with ToolchainIncompatibleError when no ancestor
// qualifies; orig is only used to report that failure.
func (m *Mapper) Map(orig toolchain.Spec, required toolchain.CapabilitySet, target toolchain.Spec) (toolchain.Spec, error) {
	name, ok, err := m.Hier.MinimalAncestorProviding(target.Name, required)
	if err != nil {
		return toolchain.Spec{}, err
	}
	if !ok {
		return toolchain.Spec{}, &ToolchainIncompatibleError{Orig: orig, Target: target, Required: required}
	}
	if name == toolchain.SystemName {
		return toolchain.System(), nil
	}
	if name == target.Name {
		return target, nil
	}

	chain, err := m.HierarchyOf(target)
	if err != nil {
		return toolchain.Spec{}, err
	}
	for _, tc := range chain {
		if tc.Name == name {
			if m.Log.Level >= logrus.DebugLevel {
				m.Log.WithFields(logrus.Fields{
					"orig":     orig.String(),
					"target":   target.String(),
					"required": required.String(),
					"mapped":   tc.String(),
				}).Debug("Mapped toolchain onto minimal capable ancestor")
			}
			return tc, nil
		}
	}
	return toolchain.Spec{}, errors.Errorf("ancestor %q of %s has no resolvable version", name, target)
}
