// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"time"

	"github.com/pkg/errors"

	"github.com/goeb/goeb"
	"github.com/goeb/goeb/internal/robot"
)

const indexShortHelp = `Precompute the path index of a search root`
const indexLongHelp = `
Index walks a recipe search root and writes its path index file
(.eb-path-index), listing every recipe file relative to the root. Later
lookups in that root use the index instead of walking, and trust it even over
the filesystem until it expires.

An existing index that has not expired yet is left alone unless -force is
given.
`

type indexCommand struct {
	force  bool
	maxAge time.Duration
}

func (cmd *indexCommand) Name() string      { return "index" }
func (cmd *indexCommand) Args() string      { return "<root>" }
func (cmd *indexCommand) ShortHelp() string { return indexShortHelp }
func (cmd *indexCommand) LongHelp() string  { return indexLongHelp }
func (cmd *indexCommand) Hidden() bool      { return false }

func (cmd *indexCommand) Register(fs *flag.FlagSet) {
	fs.BoolVar(&cmd.force, "force", false, "recreate the index even if a fresh one exists")
	fs.DurationVar(&cmd.maxAge, "max-age", robot.DefaultIndexValidity, "how long the index stays trusted")
}

func (cmd *indexCommand) Run(ctx *goeb.Ctx, args []string) error {
	if len(args) != 1 {
		return errors.New("index takes exactly one search root")
	}
	x, err := robot.CreateIndex(args[0], cmd.maxAge, cmd.force)
	if err != nil {
		return err
	}
	ctx.Out.Printf("Indexed %d recipe files under %s (valid until %s)",
		x.Len(), args[0], x.ValidUntil.Format(time.RFC3339))
	return nil
}
