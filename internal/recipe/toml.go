// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recipe

import (
	"io/ioutil"
	"sort"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"

	"github.com/goeb/goeb/internal/toolchain"
)

// A Parser turns a recipe file into a Recipe record. The concrete grammar of
// recipe files belongs to the parser, not to the resolution engine; TOMLParser
// is the shipped implementation.
type Parser interface {
	ParseFile(path string) (*Recipe, error)
}

// An Encoder renders a Recipe record back into file content, used when
// synthesizing tweaked recipes.
type Encoder interface {
	Encode(r *Recipe) ([]byte, error)
}

// TOMLParser reads and writes recipes as TOML payloads.
type TOMLParser struct{}

var _ Parser = TOMLParser{}
var _ Encoder = TOMLParser{}

// rawRecipe mirrors the TOML document; it is converted into the validated
// Recipe form after decoding.
type rawRecipe struct {
	Name              string                 `toml:"name"`
	Version           string                 `toml:"version"`
	VersionSuffix     string                 `toml:"versionsuffix,omitempty"`
	Toolchain         rawToolchain           `toml:"toolchain"`
	Uses              []string               `toml:"uses,omitempty"`
	Dependencies      []rawDependency        `toml:"dependencies,omitempty"`
	BuildDependencies []rawDependency        `toml:"builddependencies,omitempty"`
	Params            map[string]interface{} `toml:"params,omitempty"`
}

type rawToolchain struct {
	Name    string `toml:"name"`
	Version string `toml:"version,omitempty"`
}

type rawDependency struct {
	Name          string        `toml:"name"`
	Version       string        `toml:"version"`
	VersionSuffix string        `toml:"versionsuffix,omitempty"`
	Toolchain     *rawToolchain `toml:"toolchain,omitempty"`
}

// ParseFile reads and validates one recipe file.
func (TOMLParser) ParseFile(path string) (*Recipe, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read recipe %s", path)
	}
	raw := rawRecipe{}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrapf(err, "failed to parse recipe %s", path)
	}
	r, err := fromRaw(&raw)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid recipe %s", path)
	}
	r.Path = path
	return r, nil
}

// Encode renders the recipe as TOML.
func (TOMLParser) Encode(r *Recipe) ([]byte, error) {
	raw := toRaw(r)
	data, err := toml.Marshal(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode recipe %s", r.ModuleName())
	}
	return data, nil
}

func fromRaw(raw *rawRecipe) (*Recipe, error) {
	if raw.Name == "" {
		return nil, errors.New("recipe has no name")
	}
	if raw.Version == "" {
		return nil, errors.Errorf("recipe %q has no version", raw.Name)
	}
	tc, err := specFromRaw(raw.Toolchain)
	if err != nil {
		return nil, err
	}
	r := &Recipe{
		Name:          raw.Name,
		Version:       raw.Version,
		VersionSuffix: raw.VersionSuffix,
		Toolchain:     tc,
		Params:        raw.Params,
	}
	for _, u := range raw.Uses {
		r.Uses = append(r.Uses, toolchain.Axis(u))
	}
	for _, rd := range raw.Dependencies {
		d, err := depFromRaw(rd, false)
		if err != nil {
			return nil, err
		}
		r.Dependencies = append(r.Dependencies, d)
	}
	for _, rd := range raw.BuildDependencies {
		d, err := depFromRaw(rd, true)
		if err != nil {
			return nil, err
		}
		r.BuildDependencies = append(r.BuildDependencies, d)
	}
	return r, nil
}

func specFromRaw(raw rawToolchain) (toolchain.Spec, error) {
	if raw.Name == "" || raw.Name == toolchain.SystemName {
		return toolchain.System(), nil
	}
	if raw.Version == "" {
		return toolchain.Spec{}, errors.Errorf("toolchain %q has no version", raw.Name)
	}
	return toolchain.Spec{Name: raw.Name, Version: raw.Version}, nil
}

func depFromRaw(raw rawDependency, build bool) (Dependency, error) {
	if raw.Name == "" || raw.Version == "" {
		return Dependency{}, errors.Errorf("dependency %q/%q is missing name or version", raw.Name, raw.Version)
	}
	d := Dependency{
		Name:          raw.Name,
		Version:       raw.Version,
		VersionSuffix: raw.VersionSuffix,
		Build:         build,
	}
	if raw.Toolchain != nil {
		tc, err := specFromRaw(*raw.Toolchain)
		if err != nil {
			return Dependency{}, err
		}
		d.Toolchain = &tc
	}
	return d, nil
}

func toRaw(r *Recipe) *rawRecipe {
	raw := &rawRecipe{
		Name:          r.Name,
		Version:       r.Version,
		VersionSuffix: r.VersionSuffix,
		Params:        r.Params,
	}
	if r.Toolchain.IsSystem() {
		raw.Toolchain = rawToolchain{Name: toolchain.SystemName}
	} else {
		raw.Toolchain = rawToolchain{Name: r.Toolchain.Name, Version: r.Toolchain.Version}
	}
	for _, u := range r.Uses {
		raw.Uses = append(raw.Uses, string(u))
	}
	sort.Strings(raw.Uses)
	for _, d := range r.Dependencies {
		raw.Dependencies = append(raw.Dependencies, depToRaw(d))
	}
	for _, d := range r.BuildDependencies {
		raw.BuildDependencies = append(raw.BuildDependencies, depToRaw(d))
	}
	return raw
}

func depToRaw(d Dependency) rawDependency {
	raw := rawDependency{
		Name:          d.Name,
		Version:       d.Version,
		VersionSuffix: d.VersionSuffix,
	}
	if d.Toolchain != nil {
		if d.Toolchain.IsSystem() {
			raw.Toolchain = &rawToolchain{Name: toolchain.SystemName}
		} else {
			raw.Toolchain = &rawToolchain{Name: d.Toolchain.Name, Version: d.Toolchain.Version}
		}
	}
	return raw
}
