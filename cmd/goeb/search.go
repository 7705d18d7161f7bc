// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/goeb/goeb"
	"github.com/goeb/goeb/internal/feedback"
	"github.com/goeb/goeb/internal/robot"
)

const searchShortHelp = `Search recipes by filename pattern`
const searchLongHelp = `
Search prints every recipe file across the search roots whose filename matches
the given pattern. The pattern is a case-insensitive regular expression.

Search roots come from -robot-paths or the GOEB_ROBOT_PATHS environment
variable, as a colon-separated list. Roots carrying a fresh path index are
searched through the index without touching the filesystem.
`

type searchCommand struct {
	robotPaths  string
	short       bool
	ignoreIndex bool
}

func (cmd *searchCommand) Name() string      { return "search" }
func (cmd *searchCommand) Args() string      { return "<pattern>" }
func (cmd *searchCommand) ShortHelp() string { return searchShortHelp }
func (cmd *searchCommand) LongHelp() string  { return searchLongHelp }
func (cmd *searchCommand) Hidden() bool      { return false }

func (cmd *searchCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.robotPaths, "robot-paths", "", "recipe search roots, colon-separated (default: $GOEB_ROBOT_PATHS)")
	fs.BoolVar(&cmd.short, "short", false, "shorten common path prefixes to $CFGS")
	fs.BoolVar(&cmd.ignoreIndex, "ignore-index", false, "ignore path index files, always walk the search roots")
}

func (cmd *searchCommand) Run(ctx *goeb.Ctx, args []string) error {
	if len(args) != 1 {
		return errors.New("search takes exactly one pattern")
	}

	paths := cmd.robotPaths
	if paths == "" {
		paths = os.Getenv(robotPathsEnv)
	}
	roots := filepath.SplitList(paths)
	if len(roots) == 0 {
		return errors.New("no search roots configured; set -robot-paths or " + robotPathsEnv)
	}

	loc := robot.NewLocator(roots, cmd.ignoreIndex, ctx.ResolverLogger())
	found, err := loc.Search(args[0])
	if err != nil {
		return err
	}
	feedback.SearchResults(found, ctx.Out, cmd.short)
	return nil
}
