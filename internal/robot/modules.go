// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package robot

import (
	"os"
	"path/filepath"
)

// A ModuleTool answers whether a module satisfying a resolved node is
// already installed. The environment-modules tool itself is an external
// collaborator; the resolution engine only ever asks for availability.
type ModuleTool interface {
	// Available reports whether the module name/version is installed.
	// Hidden installs (a dot-prefixed version) count as available.
	Available(name, version string) bool
}

// DirModuleTool reports availability from a module tree laid out as
// <root>/<name>/<version>, the flat naming scheme.
type DirModuleTool struct {
	Root string
}

func (d DirModuleTool) Available(name, version string) bool {
	if d.Root == "" {
		return false
	}
	for _, v := range []string{version, "." + version} {
		if fi, err := os.Stat(filepath.Join(d.Root, name, v)); err == nil && !fi.IsDir() {
			return true
		}
	}
	return false
}

// NoModuleTool is the ModuleTool used when no module tree is configured:
// nothing is ever installed.
type NoModuleTool struct{}

func (NoModuleTool) Available(string, string) bool { return false }
