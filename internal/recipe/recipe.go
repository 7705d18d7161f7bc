// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package recipe defines the parsed representation of build recipes (.eb
// files) and the parser boundary through which they are read. A recipe is a
// structured build specification for one software unit: name, version,
// toolchain, version suffix and declared dependencies, plus an open-ended
// bag of build parameters this engine carries along untouched.
package recipe

import (
	"fmt"
	"path"

	"github.com/goeb/goeb/internal/toolchain"
)

// Ext is the file extension of recipe files.
const Ext = ".eb"

// A Dependency is one declared dependency of a recipe. A nil Toolchain means
// the dependency inherits the toolchain of the recipe that declares it
// (post-mapping, when toolchain mapping is active); a non-nil Toolchain pins
// it explicitly. The system toolchain must be pinned explicitly via
// toolchain.System().
type Dependency struct {
	Name          string
	Version       string
	VersionSuffix string
	Toolchain     *toolchain.Spec
	Build         bool // build-time only dependency
}

func (d Dependency) String() string {
	s := d.Name + "/" + d.Version + d.VersionSuffix
	if d.Toolchain != nil {
		s += " (" + d.Toolchain.String() + ")"
	}
	return s
}

// A Recipe is one parsed recipe record.
type Recipe struct {
	Name          string
	Version       string
	VersionSuffix string
	Toolchain     toolchain.Spec

	// Uses names the capability axes this software actually exercises from
	// its toolchain. Empty means "all axes the toolchain provides" (or just
	// the compiler, for the system toolchain: every build needs one).
	Uses []toolchain.Axis

	Dependencies      []Dependency
	BuildDependencies []Dependency

	// Params carries every other recipe parameter (sources, patches, build
	// options...) opaquely, so synthesized recipes do not lose anything the
	// build executor needs.
	Params map[string]interface{}

	// Path is where the recipe was found or synthesized; provenance only.
	Path string
}

// AllDependencies returns runtime then build dependencies, in declaration
// order.
func (r *Recipe) AllDependencies() []Dependency {
	out := make([]Dependency, 0, len(r.Dependencies)+len(r.BuildDependencies))
	out = append(out, r.Dependencies...)
	out = append(out, r.BuildDependencies...)
	return out
}

// FullVersion returns the complete version string as it appears in module
// identities and filenames: version, toolchain part (omitted for system),
// then version suffix.
func (r *Recipe) FullVersion() string {
	return FullVersion(r.Version, r.Toolchain, r.VersionSuffix)
}

// ModuleName returns the module identity of the built recipe, name/fullversion.
func (r *Recipe) ModuleName() string {
	return r.Name + "/" + r.FullVersion()
}

// HiddenModuleName returns the module identity with the version segment
// hidden by a leading dot, the convention for modules kept out of listings.
func (r *Recipe) HiddenModuleName() string {
	return r.Name + "/." + r.FullVersion()
}

// Filename returns the canonical recipe filename,
// Name-Version[-ToolchainName-ToolchainVersion][Suffix].eb.
func (r *Recipe) Filename() string {
	return Filename(r.Name, r.Version, r.Toolchain, r.VersionSuffix)
}

func (r *Recipe) String() string {
	return fmt.Sprintf("%s (%s)", r.ModuleName(), path.Base(r.Path))
}

// FullVersion builds the full version string for the given identity parts.
func FullVersion(version string, tc toolchain.Spec, suffix string) string {
	fv := version
	if !tc.IsSystem() {
		fv += "-" + tc.Name + "-" + tc.Version
	}
	return fv + suffix
}

// Filename builds the canonical recipe filename for the given identity parts.
func Filename(name, version string, tc toolchain.Spec, suffix string) string {
	return name + "-" + FullVersion(version, tc, suffix) + Ext
}
