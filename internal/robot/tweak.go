// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package robot

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/goeb/goeb/internal/fs"
	"github.com/goeb/goeb/internal/recipe"
	"github.com/goeb/goeb/internal/toolchain"
)

// TryOpts collects the user-directed overrides of a "try" request. When the
// request is recursive (a toolchain or version try), the same override
// propagates to every dependency in the closure, not just the top target.
type TryOpts struct {
	SoftwareName    string
	SoftwareVersion string
	Toolchain       *toolchain.Spec // target toolchain for the whole closure

	// Amend maps parameter names to raw override values. List parameters
	// use an empty-slot convention: "field=,extra" appends, "field=extra,"
	// prepends, "field=a,b" replaces.
	Amend map[string]string

	UpdateDeps            bool
	IgnoreVersionSuffixes bool
}

// Active reports whether any override is requested at all.
func (o *TryOpts) Active() bool {
	return o != nil && (o.SoftwareName != "" || o.SoftwareVersion != "" ||
		o.Toolchain != nil || len(o.Amend) > 0 || o.UpdateDeps)
}

// Recursive reports whether the override propagates through the closure.
func (o *TryOpts) Recursive() bool {
	return o != nil && (o.Toolchain != nil || o.UpdateDeps)
}

// A Tweaker materializes derived recipes. Synthesized files land in a
// process-scoped temporary directory which is prepended to the locator's
// search roots, so nested dependencies of the same resolution pass discover
// them like any other recipe.
type Tweaker struct {
	Dir string

	parser recipe.Parser
	enc    recipe.Encoder
	log    *logrus.Logger
}

// NewTweaker creates the synthesizer and its scratch directory under tmpBase
// (os.TempDir() when empty).
func NewTweaker(tmpBase string, parser recipe.Parser, enc recipe.Encoder, log *logrus.Logger) (*Tweaker, error) {
	if tmpBase == "" {
		tmpBase = os.TempDir()
	}
	dir, err := ioutil.TempDir(tmpBase, "goeb-tweaked-")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create tweak directory")
	}
	return &Tweaker{Dir: dir, parser: parser, enc: enc, log: log}, nil
}

// Cleanup removes the scratch directory and everything synthesized into it.
func (t *Tweaker) Cleanup() error {
	return errors.Wrapf(os.RemoveAll(t.Dir), "failed to remove tweak directory %s", t.Dir)
}

// Apply synthesizes a recipe derived from the one at basePath with the given
// overrides applied, and returns the parsed result pointing at the new file.
// The toolchain override is taken from tc (already mapped by the caller), not
// from opts; nil tc keeps the base recipe's toolchain.
func (t *Tweaker) Apply(basePath string, opts *TryOpts, tc *toolchain.Spec) (*recipe.Recipe, error) {
	// Parse the source file directly: the cached form drops build params,
	// and a synthesized recipe must not lose them.
	r, err := t.parser.ParseFile(basePath)
	if err != nil {
		return nil, err
	}

	if opts != nil && opts.SoftwareName != "" {
		r.Name = opts.SoftwareName
	}
	if opts != nil && opts.SoftwareVersion != "" {
		r.Version = opts.SoftwareVersion
	}
	if tc != nil {
		r.Toolchain = *tc
		if opts != nil && opts.IgnoreVersionSuffixes {
			r.VersionSuffix = ""
		}
	}
	if opts != nil {
		for key, raw := range opts.Amend {
			if err := t.amend(r, key, raw); err != nil {
				return nil, err
			}
		}
	}

	path, err := t.write(r)
	if err != nil {
		return nil, err
	}
	r.Path = path

	if t.log.Level >= logrus.DebugLevel {
		t.log.WithFields(logrus.Fields{
			"base":    basePath,
			"tweaked": path,
			"module":  r.ModuleName(),
		}).Debug("Synthesized tweaked recipe")
	}
	return r, nil
}

// SwitchToolchain synthesizes a copy of the recipe at basePath built with
// toolchain tc instead of its own.
func (t *Tweaker) SwitchToolchain(basePath string, tc toolchain.Spec, ignoreSuffix bool) (*recipe.Recipe, error) {
	opts := &TryOpts{IgnoreVersionSuffixes: ignoreSuffix}
	return t.Apply(basePath, opts, &tc)
}

// SwitchVersion synthesizes a copy of the recipe at basePath with a
// different software version.
func (t *Tweaker) SwitchVersion(basePath, version string) (*recipe.Recipe, error) {
	return t.Apply(basePath, &TryOpts{SoftwareVersion: version}, nil)
}

// amend applies one parameter override. Identity parameters route to their
// typed fields; everything else lands in the opaque params with list
// prepend/append semantics.
func (t *Tweaker) amend(r *recipe.Recipe, key, raw string) error {
	switch key {
	case "name":
		r.Name = raw
		return nil
	case "version":
		r.Version = raw
		return nil
	case "versionsuffix":
		r.VersionSuffix = raw
		return nil
	case "toolchain", "dependencies", "builddependencies":
		return errors.Errorf("parameter %q cannot be amended; use the dedicated override", key)
	}

	if r.Params == nil {
		r.Params = make(map[string]interface{})
	}
	if !strings.Contains(raw, ",") {
		r.Params[key] = raw
		return nil
	}

	parts := strings.Split(raw, ",")
	switch {
	case parts[0] == "":
		// ",extra" appends to the existing list
		r.Params[key] = append(paramList(r.Params[key]), toIfaces(parts[1:])...)
	case parts[len(parts)-1] == "":
		// "extra," prepends to the existing list
		r.Params[key] = append(toIfaces(parts[:len(parts)-1]), paramList(r.Params[key])...)
	default:
		r.Params[key] = toIfaces(parts)
	}
	return nil
}

func paramList(v interface{}) []interface{} {
	switch x := v.(type) {
	case nil:
		return nil
	case []interface{}:
		return x
	default:
		return []interface{}{x}
	}
}

func toIfaces(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// write encodes the recipe into the scratch directory under its canonical
// filename.
func (t *Tweaker) write(r *recipe.Recipe) (string, error) {
	data, err := t.enc.Encode(r)
	if err != nil {
		return "", err
	}
	path := filepath.Join(t.Dir, r.Filename())
	if err := fs.WriteFileAtomic(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}
