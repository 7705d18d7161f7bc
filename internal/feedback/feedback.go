// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package feedback renders resolution results for human consumption: dry-run
// plan listings, missing-module reports and search results.
package feedback

import (
	"log"
	"path/filepath"
	"strings"

	"github.com/goeb/goeb/internal/robot"
)

// CfgsVar is the placeholder substituted for the common path prefix in short
// listings.
const CfgsVar = "$CFGS"

// DryRun prints the build status of every node in the plan, dependency-first.
// With short set, the common directory prefix of all recipe paths is replaced
// by $CFGS and announced up front.
func DryRun(plan *robot.BuildPlan, out *log.Logger, short bool) {
	out.Println("Dry run: printing build status of easyconfigs and dependencies")

	shorten := func(p string) string { return p }
	if short {
		if prefix := commonDir(planPaths(plan)); prefix != "" {
			out.Printf("CFGS=%s", prefix)
			shorten = func(p string) string {
				return CfgsVar + strings.TrimPrefix(p, prefix)
			}
		}
	}
	for _, n := range plan.Nodes {
		out.Printf(" * [%s] %s (module: %s)", n.Status.Marker(), shorten(n.Path), n.ModuleName())
	}
}

// Missing prints only the modules that still need building, or a note that
// everything is installed already.
func Missing(plan *robot.BuildPlan, out *log.Logger) {
	var absent []*robot.ResolvedNode
	for _, n := range plan.Nodes {
		if n.Status != robot.Installed {
			absent = append(absent, n)
		}
	}
	if len(absent) == 0 {
		out.Printf("No missing modules!")
		return
	}
	out.Printf("%d out of %d required modules missing:", len(absent), len(plan.Nodes))
	for _, n := range absent {
		out.Printf("* %s (%s)", n.ModuleName(), filepath.Base(n.Path))
	}
}

// SearchResults prints found recipe paths, one per line. With short set, the
// common directory prefix is replaced by $CFGS.
func SearchResults(paths []string, out *log.Logger, short bool) {
	if len(paths) == 0 {
		return
	}
	shorten := func(p string) string { return p }
	if short {
		if prefix := commonDir(paths); prefix != "" {
			out.Printf("CFGS=%s", prefix)
			shorten = func(p string) string {
				return CfgsVar + strings.TrimPrefix(p, prefix)
			}
		}
	}
	for _, p := range paths {
		out.Printf(" * %s", shorten(p))
	}
}

// Plan prints the one-line summary after a successful resolution.
func Plan(plan *robot.BuildPlan, out *log.Logger) {
	out.Printf("Resolved %d easyconfigs, %d scheduled for building", len(plan.Nodes), plan.ToBuildCount())
}

func planPaths(plan *robot.BuildPlan) []string {
	paths := make([]string, 0, len(plan.Nodes))
	for _, n := range plan.Nodes {
		paths = append(paths, n.Path)
	}
	return paths
}

// commonDir returns the longest directory prefix shared by all paths, without
// a trailing separator. Empty when the paths share nothing useful.
func commonDir(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	prefix := filepath.Dir(paths[0])
	for _, p := range paths[1:] {
		dir := filepath.Dir(p)
		for prefix != "" && prefix != "." && prefix != string(filepath.Separator) {
			if dir == prefix || strings.HasPrefix(dir, prefix+string(filepath.Separator)) {
				break
			}
			prefix = filepath.Dir(prefix)
		}
	}
	if prefix == "." || prefix == string(filepath.Separator) {
		return ""
	}
	return prefix
}
