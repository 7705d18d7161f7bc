// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/goeb/goeb"
	"github.com/goeb/goeb/internal/feedback"
	"github.com/goeb/goeb/internal/fs"
	"github.com/goeb/goeb/internal/recipe"
	"github.com/goeb/goeb/internal/robot"
)

// robotPathsEnv names the environment variable holding the default recipe
// search roots, as a path list.
const robotPathsEnv = "GOEB_ROBOT_PATHS"

const buildShortHelp = `Resolve easyconfigs into an ordered build plan`
const buildLongHelp = `
Build resolves the given easyconfig files into a deduplicated, dependency-first
ordered build plan. With -robot, the transitive dependency closure is computed
across the search roots; without it, every dependency must already be
installed.

Easyconfigs may be given as file paths or as bare filenames to be located in
the search roots. Search roots come from -robot-paths or the GOEB_ROBOT_PATHS
environment variable, as a colon-separated list, highest priority first.

The try-* family resolves a speculative variant: -try-toolchain NAME,VERSION
retargets the whole closure onto another toolchain (each dependency mapped
onto the minimal capable subtoolchain), -try-software-version picks another
version of the top target, and -try-amend KEY=VALUE overrides arbitrary recipe
parameters. Recipes missing for the tweaked variant are synthesized on the
fly.
`

type buildCommand struct {
	robot                bool
	robotPaths           string
	dryRun               bool
	dryRunShort          bool
	missing              bool
	filterDeps           string
	hideDeps             string
	hideToolchains       string
	minimalToolchains    bool
	disableMapToolchains bool
	ignoreIndex          bool

	trySoftwareName    string
	trySoftwareVersion string
	tryToolchain       string
	tryAmend           amendFlag
	tryUpdateDeps      bool
	ignoreVersionsuffs bool

	modulesRoot string
	cachePath   string
	tmpdir      string
}

func (cmd *buildCommand) Name() string      { return "build" }
func (cmd *buildCommand) Args() string      { return "<easyconfig> [easyconfig...]" }
func (cmd *buildCommand) ShortHelp() string { return buildShortHelp }
func (cmd *buildCommand) LongHelp() string  { return buildLongHelp }
func (cmd *buildCommand) Hidden() bool      { return false }

func (cmd *buildCommand) Register(fs *flag.FlagSet) {
	fs.BoolVar(&cmd.robot, "robot", false, "enable dependency resolution")
	fs.StringVar(&cmd.robotPaths, "robot-paths", "", "recipe search roots, colon-separated (default: $GOEB_ROBOT_PATHS)")
	fs.BoolVar(&cmd.dryRun, "dry-run", false, "print the build plan instead of handing it to the build executor")
	fs.BoolVar(&cmd.dryRunShort, "dry-run-short", false, "like -dry-run, with common path prefixes shortened to $CFGS")
	fs.BoolVar(&cmd.missing, "missing", false, "print only modules that are not installed yet")
	fs.StringVar(&cmd.filterDeps, "filter-deps", "", "dependencies to drop, as comma-separated Name[=version-or-range] tokens")
	fs.StringVar(&cmd.hideDeps, "hide-deps", "", "dependencies to install as hidden modules, same token syntax")
	fs.StringVar(&cmd.hideToolchains, "hide-toolchains", "", "toolchains whose modules install hidden, same token syntax")
	fs.BoolVar(&cmd.minimalToolchains, "minimal-toolchains", false, "map every dependency onto the minimal capable subtoolchain")
	fs.BoolVar(&cmd.disableMapToolchains, "disable-map-toolchains", false, "keep original toolchains instead of mapping; only warn on mismatch")
	fs.BoolVar(&cmd.ignoreIndex, "ignore-index", false, "ignore path index files, always walk the search roots")
	fs.StringVar(&cmd.trySoftwareName, "try-software-name", "", "resolve the target under another software name")
	fs.StringVar(&cmd.trySoftwareVersion, "try-software-version", "", "resolve the target at another software version")
	fs.StringVar(&cmd.tryToolchain, "try-toolchain", "", "retarget the closure onto toolchain NAME,VERSION")
	fs.Var(&cmd.tryAmend, "try-amend", "override a recipe parameter as KEY=VALUE; repeatable, lists use ',extra'/'extra,' to append/prepend")
	fs.BoolVar(&cmd.tryUpdateDeps, "try-update-deps", false, "bump dependencies to the newest recipe available for their toolchain")
	fs.BoolVar(&cmd.ignoreVersionsuffs, "ignore-versionsuffixes", false, "drop version suffixes when synthesizing toolchain-tweaked recipes")
	fs.StringVar(&cmd.modulesRoot, "modules-root", "", "installed-modules tree consulted for build status")
	fs.StringVar(&cmd.cachePath, "cache", "", "parsed-recipe cache file; empty disables caching")
	fs.StringVar(&cmd.tmpdir, "tmpdir", "", "directory hosting synthesized recipes (default: system temp)")
}

func (cmd *buildCommand) Run(ctx *goeb.Ctx, args []string) error {
	if len(args) == 0 {
		return errors.New("no easyconfig files specified")
	}

	cfg, err := cmd.config()
	if err != nil {
		return err
	}
	resolver, cleanup, err := cfg.NewResolver(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	targets := make([]string, 0, len(args))
	for _, arg := range args {
		path, err := locateTarget(ctx, resolver.Loc, arg)
		if err != nil {
			return err
		}
		targets = append(targets, path)
	}

	plan, err := resolver.Resolve(targets)
	if err != nil {
		return err
	}

	switch {
	case cmd.missing:
		feedback.Missing(plan, ctx.Out)
	case cmd.dryRun || cmd.dryRunShort:
		feedback.DryRun(plan, ctx.Out, cmd.dryRunShort)
	default:
		// the build executor consuming the plan is an external collaborator
		feedback.Plan(plan, ctx.Out)
	}
	return nil
}

func (cmd *buildCommand) config() (*goeb.Config, error) {
	paths := cmd.robotPaths
	if paths == "" {
		paths = os.Getenv(robotPathsEnv)
	}
	cfg := &goeb.Config{
		RobotPaths:            filepath.SplitList(paths),
		Robot:                 cmd.robot,
		IgnoreIndex:           cmd.ignoreIndex,
		MinimalToolchains:     cmd.minimalToolchains,
		DisableMapToolchains:  cmd.disableMapToolchains,
		FilterDeps:            cmd.filterDeps,
		HideDeps:              cmd.hideDeps,
		HideToolchains:        cmd.hideToolchains,
		TrySoftwareName:       cmd.trySoftwareName,
		TrySoftwareVersion:    cmd.trySoftwareVersion,
		TryAmend:              cmd.tryAmend,
		TryUpdateDeps:         cmd.tryUpdateDeps,
		IgnoreVersionSuffixes: cmd.ignoreVersionsuffs,
		ModulesRoot:           cmd.modulesRoot,
		CachePath:             cmd.cachePath,
		TmpDir:                cmd.tmpdir,
	}
	if cmd.tryToolchain != "" {
		parts := strings.SplitN(cmd.tryToolchain, ",", 2)
		cfg.TryToolchainName = parts[0]
		if len(parts) == 2 {
			cfg.TryToolchainVersion = parts[1]
		}
	}
	return cfg, nil
}

// locateTarget turns a command line argument into a recipe file path: an
// existing path is taken as-is, a bare filename is searched across the roots.
func locateTarget(ctx *goeb.Ctx, loc *robot.Locator, arg string) (string, error) {
	path := arg
	if !filepath.IsAbs(path) {
		path = filepath.Join(ctx.WorkingDir, arg)
	}
	if ok, err := fs.IsRegular(path); err == nil && ok {
		return path, nil
	}
	if strings.ContainsRune(arg, filepath.Separator) {
		return "", errors.Errorf("easyconfig file %s not found", arg)
	}
	base := arg
	if !strings.HasSuffix(base, recipe.Ext) {
		base += recipe.Ext
	}
	return loc.FindFile(base)
}

// amendFlag collects repeated KEY=VALUE overrides.
type amendFlag map[string]string

func (a *amendFlag) String() string {
	if a == nil || len(*a) == 0 {
		return ""
	}
	parts := make([]string, 0, len(*a))
	for k, v := range *a {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, " ")
}

func (a *amendFlag) Set(s string) error {
	i := strings.Index(s, "=")
	if i <= 0 {
		return fmt.Errorf("amend must be KEY=VALUE, got %q", s)
	}
	if *a == nil {
		*a = make(map[string]string)
	}
	(*a)[s[:i]] = s[i+1:]
	return nil
}
