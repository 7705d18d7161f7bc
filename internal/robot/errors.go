// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package robot

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/goeb/goeb/internal/toolchain"
)

// All failures below are terminal for the invocation: resolution never hands
// a partial plan to the build executor.

// NotFoundError indicates no recipe file could be located for a spec and none
// could be synthesized.
type NotFoundError struct {
	Spec BuildSpec
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no recipe file found for %s", e.Spec)
}

// IsNotFound reports whether err is a *NotFoundError.
func IsNotFound(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// ToolchainIncompatibleError indicates that no ancestor of the target
// toolchain provides the capabilities a dependency requires.
type ToolchainIncompatibleError struct {
	Orig     toolchain.Spec
	Target   toolchain.Spec
	Required toolchain.CapabilitySet
}

func (e *ToolchainIncompatibleError) Error() string {
	return fmt.Sprintf("toolchain %s is not compatible with target toolchain %s: no ancestor of %s provides %s"+
		" (--disable-map-toolchains keeps original toolchains and only prints a warning)",
		e.Orig, e.Target, e.Target.Name, e.Required)
}

// DependencyMissingError indicates dependencies whose modules are not
// installed while dependency resolution is disabled, or that remained
// unresolvable with resolution enabled.
type DependencyMissingError struct {
	Missing []string // module names
}

func (e *DependencyMissingError) Error() string {
	return fmt.Sprintf("Missing modules for dependencies: %s", strings.Join(e.Missing, ", "))
}

// DependencyCycleError indicates a cycle in the dependency graph; graphs are
// required to be acyclic.
type DependencyCycleError struct {
	Nodes []string // module names participating in the cycle
}

func (e *DependencyCycleError) Error() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "dependency graph contains a cycle involving:")
	for _, n := range e.Nodes {
		fmt.Fprintf(&buf, "\n\t%s", n)
	}
	return buf.String()
}

// SearchQuerySyntaxError indicates a malformed search pattern.
type SearchQuerySyntaxError struct {
	Query string
	Cause error
}

func (e *SearchQuerySyntaxError) Error() string {
	return fmt.Sprintf("invalid search query %q: %v", e.Query, e.Cause)
}

// VersionRangeSyntaxError indicates a malformed Name[=range] token.
type VersionRangeSyntaxError struct {
	Token  string
	Reason string
}

func (e *VersionRangeSyntaxError) Error() string {
	return fmt.Sprintf("invalid version range %q: %s", e.Token, e.Reason)
}
