// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package goeb holds the execution context and build configuration shared by
// the goeb commands. The resolution engine itself lives under internal.
package goeb

import (
	"log"

	"github.com/sirupsen/logrus"
)

// Ctx defines the supporting context of the tool: where it runs and where it
// talks. Commands receive a Ctx and thread it explicitly; there is no global
// state.
type Ctx struct {
	WorkingDir string      // where to execute
	Out        *log.Logger // standard output
	Err        *log.Logger // error output
	Verbose    bool        // enables verbose resolver tracing
}

// ResolverLogger returns the leveled logger the resolution engine traces to.
// Verbose runs get debug-level detail, quiet runs only warnings.
func (c *Ctx) ResolverLogger() *logrus.Logger {
	log := logrus.New()
	log.Out = c.Err.Writer()
	if c.Verbose {
		log.Level = logrus.DebugLevel
	} else {
		log.Level = logrus.WarnLevel
	}
	return log
}
