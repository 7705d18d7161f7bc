// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package robot

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/goeb/goeb/internal/recipe"
	"github.com/goeb/goeb/internal/toolchain"
)

// Params is the immutable per-invocation configuration of a resolution pass.
// It is threaded explicitly; the resolver keeps no ambient state.
type Params struct {
	// Robot enables dependency resolution. When disabled, every dependency
	// of a target must already be installed (or be a target itself) and
	// anything else fails fast.
	Robot bool

	// MinimalToolchains maps every inherited dependency onto the minimal
	// capable ancestor of its parent's toolchain.
	MinimalToolchains bool

	// DisableMapToolchains bypasses toolchain mapping entirely: inherited
	// dependencies take the parent toolchain when a recipe exists for it,
	// and otherwise keep their original toolchain with a warning.
	DisableMapToolchains bool

	Filter         []DepSpecifier // dependencies to drop from the closure
	Hide           []DepSpecifier // dependencies to install as hidden modules
	HideToolchains []DepSpecifier // toolchains whose nodes install hidden

	Try *TryOpts // user-directed overrides; nil when none
}

func (p *Params) tryActive() bool { return p.Try.Active() }

func (p *Params) mappingActive() bool {
	return p.MinimalToolchains || (p.Try != nil && p.Try.Toolchain != nil)
}

// A Resolver computes the transitive dependency closure of a set of target
// recipes and orders it into a build plan. Resolution is single-threaded and
// iterative; the work queue guards against unbounded recursion on deep
// dependency chains.
type Resolver struct {
	Loc     *Locator
	Hier    *toolchain.Hierarchy
	Mapper  *Mapper
	Store   *Store
	Tweaker *Tweaker // required when Params.Try is active
	Modules ModuleTool
	Log     *logrus.Logger
	Params  Params
}

type workItem struct {
	spec      BuildSpec
	path      string // already-resolved recipe path, empty to locate
	requested bool
}

// Resolve expands the recipes at targetPaths into a full build plan. All
// failures are terminal: no partial plan is ever returned alongside an error.
func (r *Resolver) Resolve(targetPaths []string) (*BuildPlan, error) {
	if r.Params.Try.Active() {
		// Synthesized recipes must be discoverable by every later lookup
		// in this same pass.
		r.Loc.PrependRoot(r.Tweaker.Dir)
	}

	targets, err := r.prepareTargets(targetPaths)
	if err != nil {
		return nil, err
	}

	if !r.Params.Robot {
		return r.resolveWithoutRobot(targets)
	}

	nodes := make(map[string]*ResolvedNode)
	queued := make(map[string]bool)
	var queue []workItem
	for _, t := range targets {
		queue = append(queue, t)
		queued[t.spec.Key()] = true
	}

	seq := 0
	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]

		key := it.spec.Key()
		if _, done := nodes[key]; done {
			continue
		}

		path := it.path
		if path == "" {
			path, err = r.Loc.FindRecipe(it.spec)
			if err != nil {
				return nil, err
			}
		}
		rec, err := r.Store.Load(path)
		if err != nil {
			return nil, err
		}

		node := &ResolvedNode{
			Spec:      it.spec,
			Recipe:    rec,
			Path:      path,
			Requested: it.requested,
			order:     seq,
		}
		seq++
		nodes[key] = node

		if r.Log.Level >= logrus.DebugLevel {
			r.Log.WithFields(logrus.Fields{
				"module": it.spec.ModuleName(),
				"path":   path,
				"queued": len(queue),
			}).Debug("Resolved node, expanding dependencies")
		}

		// the toolchain is the first dependency of every non-system node:
		// its module must load before anything built with it
		if tc := it.spec.Toolchain; !tc.IsSystem() {
			d := recipe.Dependency{Name: tc.Name, Version: tc.Version}
			if !r.filtered(d) {
				tcSpec := BuildSpec{Name: tc.Name, Version: tc.Version}.WithToolchain(toolchain.System())
				tcPath, err := r.Loc.FindRecipe(tcSpec)
				if err != nil {
					return nil, err
				}
				tk := tcSpec.Key()
				node.deps = append(node.deps, tk)
				if _, done := nodes[tk]; !done && !queued[tk] {
					queued[tk] = true
					queue = append(queue, workItem{spec: tcSpec, path: tcPath})
				}
			}
		}

		for _, d := range rec.AllDependencies() {
			if r.filtered(d) {
				continue
			}
			depSpec, depPath, err := r.dependencySpec(d, it.spec.Toolchain)
			if err != nil {
				return nil, err
			}
			dk := depSpec.Key()
			node.deps = append(node.deps, dk)
			if _, done := nodes[dk]; done || queued[dk] {
				continue
			}
			queued[dk] = true
			queue = append(queue, workItem{spec: depSpec, path: depPath})
		}
	}

	plan, err := r.order(nodes)
	if err != nil {
		return nil, err
	}
	r.assignStatus(plan)
	return plan, nil
}

// prepareTargets loads each target recipe and applies any try overrides,
// synthesizing tweaked targets into the overlay.
func (r *Resolver) prepareTargets(paths []string) ([]workItem, error) {
	var out []workItem
	for _, path := range paths {
		rec, err := r.Store.Load(path)
		if err != nil {
			return nil, err
		}

		if r.Params.tryActive() {
			var mappedTC *toolchain.Spec
			if r.Params.Try.Toolchain != nil {
				tc, err := r.targetToolchain(rec)
				if err != nil {
					return nil, err
				}
				mappedTC = &tc
			}
			rec, err = r.Tweaker.Apply(path, r.Params.Try, mappedTC)
			if err != nil {
				return nil, err
			}
			path = rec.Path
		}

		out = append(out, workItem{spec: SpecFor(rec), path: path, requested: true})
	}
	return out, nil
}

// targetToolchain maps a target recipe onto the try toolchain: minimally by
// default, verbatim when mapping is disabled.
func (r *Resolver) targetToolchain(rec *recipe.Recipe) (toolchain.Spec, error) {
	try := *r.Params.Try.Toolchain
	if r.Params.DisableMapToolchains {
		return try, nil
	}
	required, err := r.Mapper.RequiredCapabilities(rec.Toolchain, rec.Uses)
	if err != nil {
		return toolchain.Spec{}, err
	}
	return r.Mapper.Map(rec.Toolchain, required, try)
}

// dependencySpec determines the effective build spec of one declared
// dependency, given the parent's effective toolchain, applying toolchain
// mapping and on-the-fly synthesis as configured. The returned path is empty
// when the recipe still needs to be located (never the case today, but the
// queue tolerates it).
func (r *Resolver) dependencySpec(d recipe.Dependency, parentTC toolchain.Spec) (BuildSpec, string, error) {
	base := BuildSpec{Name: d.Name, Version: d.Version, VersionSuffix: d.VersionSuffix}

	// explicit toolchain pins are honored as-is, never mapped
	if d.Toolchain != nil {
		spec := base.WithToolchain(*d.Toolchain)
		path, err := r.Loc.FindRecipe(spec)
		if err != nil {
			return BuildSpec{}, "", err
		}
		return spec, path, nil
	}

	if r.Params.DisableMapToolchains {
		return r.dependencyUnmapped(base, parentTC)
	}
	// a system-toolchain parent has no ancestor lattice to map onto; its
	// dependencies (toolchain components, mostly) resolve verbatim
	if r.Params.mappingActive() && !parentTC.IsSystem() {
		return r.dependencyMapped(base, parentTC)
	}

	spec := base.WithToolchain(parentTC)
	spec, path, err := r.maybeUpdateVersion(spec)
	if err != nil {
		return BuildSpec{}, "", err
	}
	if path == "" {
		path, err = r.Loc.FindRecipe(spec)
		if err != nil {
			return BuildSpec{}, "", err
		}
	}
	return spec, path, nil
}

// dependencyUnmapped implements the mapping bypass: prefer a recipe for the
// parent toolchain, else keep the dependency's original toolchain and warn.
func (r *Resolver) dependencyUnmapped(base BuildSpec, parentTC toolchain.Spec) (BuildSpec, string, error) {
	spec := base.WithToolchain(parentTC)
	path, err := r.Loc.FindRecipe(spec)
	if err == nil {
		return spec, path, nil
	}
	if !IsNotFound(err) {
		return BuildSpec{}, "", err
	}

	refPath, err := r.Loc.FindAnyToolchain(base)
	if err != nil {
		if IsNotFound(err) {
			return BuildSpec{}, "", &NotFoundError{Spec: spec}
		}
		return BuildSpec{}, "", err
	}
	ref, err := r.Store.Load(refPath)
	if err != nil {
		return BuildSpec{}, "", err
	}
	r.Log.WithFields(logrus.Fields{
		"dependency": ref.ModuleName(),
		"toolchain":  ref.Toolchain.String(),
		"target":     parentTC.String(),
	}).Warn("Toolchain mapping is disabled; dependency keeps its original toolchain")
	return SpecFor(ref), refPath, nil
}

// dependencyMapped maps an inherited dependency onto the minimal capable
// ancestor of the parent toolchain, locating an existing recipe there or
// synthesizing one when a recursive try request allows it.
func (r *Resolver) dependencyMapped(base BuildSpec, parentTC toolchain.Spec) (BuildSpec, string, error) {
	ref, err := r.referenceRecipe(base, parentTC)
	if err != nil {
		return BuildSpec{}, "", err
	}

	required, err := r.Mapper.RequiredCapabilities(ref.Toolchain, ref.Uses)
	if err != nil {
		return BuildSpec{}, "", err
	}
	mapped, err := r.Mapper.Map(ref.Toolchain, required, parentTC)
	if err != nil {
		return BuildSpec{}, "", err
	}

	spec := base.WithToolchain(mapped)
	spec, path, err := r.maybeUpdateVersion(spec)
	if err != nil {
		return BuildSpec{}, "", err
	}
	if path != "" {
		return spec, path, nil
	}
	if path, err = r.Loc.FindRecipe(spec); err == nil {
		return spec, path, nil
	}
	if !IsNotFound(err) {
		return BuildSpec{}, "", err
	}

	if r.Params.Try.Recursive() {
		opts := &TryOpts{IgnoreVersionSuffixes: r.Params.Try.IgnoreVersionSuffixes}
		if spec.Version != ref.Version {
			opts.SoftwareVersion = spec.Version
		}
		tweaked, err := r.Tweaker.Apply(ref.Path, opts, &mapped)
		if err != nil {
			return BuildSpec{}, "", err
		}
		return SpecFor(tweaked), tweaked.Path, nil
	}

	// minimal-toolchains without synthesis: walk up from the minimal
	// ancestor toward the parent toolchain until a recipe exists
	chain, cerr := r.Mapper.HierarchyOf(parentTC)
	if cerr != nil {
		return BuildSpec{}, "", cerr
	}
	past := false
	for _, tc := range chain {
		if !past {
			if tc.Equal(mapped) {
				past = true
			}
			continue
		}
		cand := base.WithToolchain(tc)
		if path, err := r.Loc.FindRecipe(cand); err == nil {
			return cand, path, nil
		} else if !IsNotFound(err) {
			return BuildSpec{}, "", err
		}
	}
	return BuildSpec{}, "", &NotFoundError{Spec: spec}
}

// referenceRecipe finds the recipe that documents a dependency's original
// shape: preferably one already on the parent toolchain, else the first one
// under any toolchain.
func (r *Resolver) referenceRecipe(base BuildSpec, parentTC toolchain.Spec) (*recipe.Recipe, error) {
	spec := base.WithToolchain(parentTC)
	path, err := r.Loc.FindRecipe(spec)
	if err == nil {
		return r.Store.Load(path)
	}
	if !IsNotFound(err) {
		return nil, err
	}
	path, err = r.Loc.FindAnyToolchain(base)
	if err != nil {
		if IsNotFound(err) {
			return nil, &NotFoundError{Spec: spec}
		}
		return nil, err
	}
	return r.Store.Load(path)
}

// maybeUpdateVersion bumps the spec to the newest recipe available for its
// toolchain when a try-update-deps request is active. Only upgrades are
// taken; the declared version stays when nothing newer exists. The returned
// path is non-empty when the newest recipe was located along the way.
func (r *Resolver) maybeUpdateVersion(spec BuildSpec) (BuildSpec, string, error) {
	if r.Params.Try == nil || !r.Params.Try.UpdateDeps {
		return spec, "", nil
	}
	path, v, err := r.Loc.FindNewest(spec)
	if err != nil {
		if IsNotFound(err) {
			return spec, "", nil
		}
		return spec, "", err
	}
	if CompareVersions(v, spec.Version) <= 0 {
		return spec, "", nil
	}
	if r.Log.Level >= logrus.DebugLevel {
		r.Log.WithFields(logrus.Fields{
			"dependency": spec.Name,
			"from":       spec.Version,
			"to":         v,
		}).Debug("Updating dependency to newest available version")
	}
	spec.Version = v
	return spec, path, nil
}

// filtered reports whether a dependency is dropped by the filter list.
// Filtering removes only that node, never its siblings, and stops recursion
// into it entirely.
func (r *Resolver) filtered(d recipe.Dependency) bool {
	for _, ds := range r.Params.Filter {
		if ds.Matches(d.Name, d.Version) {
			if r.Log.Level >= logrus.DebugLevel {
				r.Log.WithFields(logrus.Fields{
					"dependency": d.String(),
					"filter":     ds.String(),
				}).Debug("Dependency dropped by filter")
			}
			return true
		}
	}
	return false
}

// resolveWithoutRobot handles the resolution-disabled mode: targets only,
// every dependency must already be satisfied by an installed module or by
// another target, and anything missing fails before any search or mapping
// work happens.
func (r *Resolver) resolveWithoutRobot(targets []workItem) (*BuildPlan, error) {
	nodes := make(map[string]*ResolvedNode)
	byModule := make(map[string]string) // module name -> key
	for i, t := range targets {
		rec, err := r.Store.Load(t.path)
		if err != nil {
			return nil, err
		}
		node := &ResolvedNode{Spec: t.spec, Recipe: rec, Path: t.path, Requested: true, order: i}
		nodes[t.spec.Key()] = node
		byModule[t.spec.ModuleName()] = t.spec.Key()
	}

	var missing []string
	seen := make(map[string]bool)
	report := func(mod string) {
		if !seen[mod] {
			seen[mod] = true
			missing = append(missing, mod)
		}
	}
	for _, t := range targets {
		node := nodes[t.spec.Key()]
		if tc := t.spec.Toolchain; !tc.IsSystem() && !r.filtered(recipe.Dependency{Name: tc.Name, Version: tc.Version}) {
			mod := tc.Name + "/" + tc.Version
			if key, ok := byModule[mod]; ok {
				node.deps = append(node.deps, key)
			} else if !r.Modules.Available(tc.Name, tc.Version) {
				report(mod)
			}
		}
		for _, d := range node.Recipe.AllDependencies() {
			if r.filtered(d) {
				continue
			}
			tc := t.spec.Toolchain
			if d.Toolchain != nil {
				tc = *d.Toolchain
			}
			mod := d.Name + "/" + recipe.FullVersion(d.Version, tc, d.VersionSuffix)
			if key, ok := byModule[mod]; ok {
				node.deps = append(node.deps, key)
				continue
			}
			if r.Modules.Available(d.Name, recipe.FullVersion(d.Version, tc, d.VersionSuffix)) {
				continue
			}
			report(mod)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &DependencyMissingError{Missing: missing}
	}

	plan, err := r.order(nodes)
	if err != nil {
		return nil, err
	}
	r.assignStatus(plan)
	return plan, nil
}

// order topologically sorts the resolved nodes, dependency-first. Ties are
// broken by discovery order, which follows the original request order, then
// by name. A cycle is fatal.
func (r *Resolver) order(nodes map[string]*ResolvedNode) (*BuildPlan, error) {
	emitted := make(map[string]bool, len(nodes))
	remaining := make([]*ResolvedNode, 0, len(nodes))
	byKey := make(map[*ResolvedNode]string, len(nodes))
	for key, n := range nodes {
		remaining = append(remaining, n)
		byKey[n] = key
	}

	plan := &BuildPlan{}
	for len(remaining) > 0 {
		var ready []*ResolvedNode
		var blocked []*ResolvedNode
		for _, n := range remaining {
			ok := true
			for _, dk := range n.deps {
				if !emitted[dk] {
					ok = false
					break
				}
			}
			if ok {
				ready = append(ready, n)
			} else {
				blocked = append(blocked, n)
			}
		}
		if len(ready) == 0 {
			var mods []string
			for _, n := range blocked {
				mods = append(mods, n.Spec.ModuleName())
			}
			sort.Strings(mods)
			return nil, &DependencyCycleError{Nodes: mods}
		}
		sort.Slice(ready, func(i, j int) bool {
			if ready[i].order != ready[j].order {
				return ready[i].order < ready[j].order
			}
			return ready[i].Recipe.Name < ready[j].Recipe.Name
		})
		for _, n := range ready {
			plan.Nodes = append(plan.Nodes, n)
			emitted[byKey[n]] = true
		}
		remaining = blocked
	}
	return plan, nil
}

// assignStatus marks each node installed, forced or to-build, and applies
// hiding. Hidden nodes stay fully in the plan; only their exposed identity
// changes.
func (r *Resolver) assignStatus(plan *BuildPlan) {
	for _, n := range plan.Nodes {
		rec := n.Recipe
		installed := r.Modules.Available(rec.Name, rec.FullVersion())
		switch {
		case installed && n.Requested:
			n.Status = Forced
		case installed:
			n.Status = Installed
		default:
			n.Status = ToBuild
		}

		for _, ds := range r.Params.Hide {
			if ds.Matches(rec.Name, rec.Version) {
				n.Hidden = true
			}
		}
		if !rec.Toolchain.IsSystem() {
			for _, ds := range r.Params.HideToolchains {
				if ds.Matches(rec.Toolchain.Name, rec.Toolchain.Version) {
					n.Hidden = true
				}
			}
		}
	}
}
