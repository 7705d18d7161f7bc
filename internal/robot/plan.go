// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package robot

import (
	"github.com/goeb/goeb/internal/recipe"
)

// Status classifies a resolved node for the downstream build executor.
type Status int

const (
	// ToBuild means no module satisfies the node yet; it is scheduled.
	ToBuild Status = iota
	// Installed means a module already satisfies the node.
	Installed
	// Forced means a module satisfies the node but it was explicitly listed
	// on the command line, so it is scheduled anyway.
	Forced
)

// Marker returns the single-character status marker used in plan listings.
func (s Status) Marker() string {
	switch s {
	case Installed:
		return "x"
	case Forced:
		return "F"
	}
	return " "
}

// A ResolvedNode is one entry of a build plan: a located (or synthesized)
// recipe, its effective identity after toolchain mapping, and its status.
type ResolvedNode struct {
	Spec   BuildSpec
	Recipe *recipe.Recipe
	Path   string
	Status Status

	// Hidden nodes participate fully in resolution and building; only
	// their exposed module identity changes.
	Hidden bool

	// Requested marks nodes that were named on the command line.
	Requested bool

	deps  []string // dedup keys of dependencies, for ordering
	order int      // first-enqueued sequence, for deterministic ties
}

// ModuleName returns the module identity the node installs as, accounting
// for hiding.
func (n *ResolvedNode) ModuleName() string {
	if n.Hidden {
		return n.Recipe.HiddenModuleName()
	}
	return n.Recipe.ModuleName()
}

// A BuildPlan is a deduplicated, dependency-first ordered sequence of
// resolved nodes: every dependency of a node appears strictly earlier.
type BuildPlan struct {
	Nodes []*ResolvedNode
}

// ToBuildCount returns how many nodes are scheduled for building.
func (p *BuildPlan) ToBuildCount() int {
	n := 0
	for _, node := range p.Nodes {
		if node.Status != Installed {
			n++
		}
	}
	return n
}
