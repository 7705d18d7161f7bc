// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package goeb

import (
	"github.com/pkg/errors"

	"github.com/goeb/goeb/internal/recipe"
	"github.com/goeb/goeb/internal/robot"
	"github.com/goeb/goeb/internal/toolchain"
)

// A Config is the full configuration of one resolution run, assembled by the
// CLI from flags and threaded explicitly. It is treated as immutable once
// built.
type Config struct {
	// RobotPaths are the recipe search roots, highest priority first.
	RobotPaths []string

	Robot                bool // enable dependency resolution
	IgnoreIndex          bool // bypass per-root path indexes
	MinimalToolchains    bool
	DisableMapToolchains bool

	// Raw Name[=spec] token lists, as given on the command line.
	FilterDeps     string
	HideDeps       string
	HideToolchains string

	// try-* overrides
	TrySoftwareName       string
	TrySoftwareVersion    string
	TryToolchainName      string
	TryToolchainVersion   string
	TryAmend              map[string]string
	TryUpdateDeps         bool
	IgnoreVersionSuffixes bool

	// ModulesRoot is the installed-modules tree consulted for status
	// assignment; empty means nothing is considered installed.
	ModulesRoot string

	// CachePath enables the parsed-recipe cache at the given file; empty
	// disables caching.
	CachePath string

	// TmpDir hosts the synthesized-recipe scratch directory
	// (os.TempDir() when empty).
	TmpDir string
}

// Params translates the configuration into resolver parameters, validating
// the filter/hide token lists and the try overrides.
func (c *Config) Params() (robot.Params, error) {
	p := robot.Params{
		Robot:                c.Robot,
		MinimalToolchains:    c.MinimalToolchains,
		DisableMapToolchains: c.DisableMapToolchains,
	}

	var err error
	if p.Filter, err = robot.ParseDepSpecifiers(c.FilterDeps); err != nil {
		return robot.Params{}, err
	}
	if p.Hide, err = robot.ParseDepSpecifiers(c.HideDeps); err != nil {
		return robot.Params{}, err
	}
	if p.HideToolchains, err = robot.ParseDepSpecifiers(c.HideToolchains); err != nil {
		return robot.Params{}, err
	}

	try := &robot.TryOpts{
		SoftwareName:          c.TrySoftwareName,
		SoftwareVersion:       c.TrySoftwareVersion,
		Amend:                 c.TryAmend,
		UpdateDeps:            c.TryUpdateDeps,
		IgnoreVersionSuffixes: c.IgnoreVersionSuffixes,
	}
	switch {
	case c.TryToolchainName != "" && c.TryToolchainVersion != "":
		try.Toolchain = &toolchain.Spec{Name: c.TryToolchainName, Version: c.TryToolchainVersion}
	case c.TryToolchainName == toolchain.SystemName:
		tc := toolchain.System()
		try.Toolchain = &tc
	case c.TryToolchainName != "" || c.TryToolchainVersion != "":
		return robot.Params{}, errors.Errorf("try-toolchain needs both a name and a version, got name %q version %q",
			c.TryToolchainName, c.TryToolchainVersion)
	}
	if try.Active() {
		p.Try = try
	}
	return p, nil
}

// NewResolver assembles the resolution engine for this configuration. The
// returned cleanup tears down the synthesized-recipe scratch directory and
// closes the recipe cache; call it when the run is over.
func (c *Config) NewResolver(ctx *Ctx) (*robot.Resolver, func(), error) {
	params, err := c.Params()
	if err != nil {
		return nil, nil, err
	}

	log := ctx.ResolverLogger()
	loc := robot.NewLocator(c.RobotPaths, c.IgnoreIndex, log)

	store := &robot.Store{Parser: recipe.TOMLParser{}}
	var cache *robot.Cache
	if c.CachePath != "" {
		cache, err = robot.OpenCache(c.CachePath, log)
		if err != nil {
			return nil, nil, err
		}
		store.Cache = cache
	}

	tweaker, err := robot.NewTweaker(c.TmpDir, recipe.TOMLParser{}, recipe.TOMLParser{}, log)
	if err != nil {
		if cache != nil {
			cache.Close()
		}
		return nil, nil, err
	}

	var mods robot.ModuleTool = robot.NoModuleTool{}
	if c.ModulesRoot != "" {
		mods = robot.DirModuleTool{Root: c.ModulesRoot}
	}

	hier := toolchain.Default()
	r := &robot.Resolver{
		Loc:     loc,
		Hier:    hier,
		Mapper:  &robot.Mapper{Hier: hier, Loc: loc, Store: store, Log: log},
		Store:   store,
		Tweaker: tweaker,
		Modules: mods,
		Log:     log,
		Params:  params,
	}
	cleanup := func() {
		if err := tweaker.Cleanup(); err != nil {
			log.WithField("err", err).Warn("Failed to clean up tweak directory")
		}
		if cache != nil {
			cache.Close()
		}
	}
	return r, cleanup, nil
}
