// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package robot is the dependency resolution engine: given one or more target
// build specs it computes the transitive dependency closure, locates or
// synthesizes a recipe for every node, reconciles toolchain mismatches by
// mapping onto capability-equivalent subtoolchains, and emits a deduplicated,
// dependency-first build plan.
package robot

import (
	"fmt"
	"strings"

	"github.com/goeb/goeb/internal/recipe"
	"github.com/goeb/goeb/internal/toolchain"
)

// A BuildSpec identifies one resolution target: a software name and version,
// an optional version suffix, and the toolchain to build with. Version may be
// empty when the spec is search-driven (newest available wins).
type BuildSpec struct {
	Name          string
	Version       string
	VersionSuffix string
	Toolchain     toolchain.Spec
}

// SpecFor returns the build spec identifying a parsed recipe.
func SpecFor(r *recipe.Recipe) BuildSpec {
	return BuildSpec{
		Name:          r.Name,
		Version:       r.Version,
		VersionSuffix: r.VersionSuffix,
		Toolchain:     r.Toolchain,
	}
}

// Key returns the dedup key of the spec: two specs with equal keys denote the
// same resolved node.
func (s BuildSpec) Key() string {
	return strings.Join([]string{s.Name, s.Version, s.VersionSuffix, s.Toolchain.String()}, ";")
}

// ModuleName returns the module identity the spec would install as.
func (s BuildSpec) ModuleName() string {
	return s.Name + "/" + recipe.FullVersion(s.Version, s.Toolchain, s.VersionSuffix)
}

// Filename returns the canonical recipe filename for a fully specified spec.
func (s BuildSpec) Filename() string {
	return recipe.Filename(s.Name, s.Version, s.Toolchain, s.VersionSuffix)
}

// FilenamePrefix returns the filename prefix shared by all recipes of this
// name and version, regardless of toolchain and suffix.
func (s BuildSpec) FilenamePrefix() string {
	return s.Name + "-" + s.Version
}

func (s BuildSpec) String() string {
	if s.Version == "" {
		return fmt.Sprintf("%s (any version, toolchain %s)", s.Name, s.Toolchain)
	}
	return s.ModuleName()
}

// WithToolchain returns a copy of the spec pinned to the given toolchain.
func (s BuildSpec) WithToolchain(tc toolchain.Spec) BuildSpec {
	s.Toolchain = tc
	return s
}

// versionFromFilename extracts the version of a recipe filename known to
// belong to this spec's name, toolchain and suffix. The second return is
// false when the filename does not have the expected shape.
func (s BuildSpec) versionFromFilename(base string) (string, bool) {
	trimmed := strings.TrimSuffix(base, recipe.Ext)
	if trimmed == base {
		return "", false
	}
	prefix := s.Name + "-"
	if !strings.HasPrefix(trimmed, prefix) {
		return "", false
	}
	rest := strings.TrimPrefix(trimmed, prefix)
	suffix := s.VersionSuffix
	if !s.Toolchain.IsSystem() {
		suffix = "-" + s.Toolchain.Name + "-" + s.Toolchain.Version + suffix
	}
	if suffix != "" {
		if !strings.HasSuffix(rest, suffix) {
			return "", false
		}
		rest = strings.TrimSuffix(rest, suffix)
	}
	// versions start with a digit; a dash-joined sibling name (zlib-ng)
	// must never parse as a zlib version
	if rest == "" || rest[0] < '0' || rest[0] > '9' {
		return "", false
	}
	return rest, true
}
