// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package robot

import (
	"encoding/json"
	"os"
	"time"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/goeb/goeb/internal/recipe"
	"github.com/goeb/goeb/internal/toolchain"
)

// A Cache is a persistent store of parsed recipe metadata, keyed by absolute
// file path and invalidated by file size and mtime, so repeated resolutions
// do not reparse every recipe on the robot path.
//
// Layout: one bucket "recipes"; keys are absolute paths, values are JSON
// cacheEntry records carrying the file fingerprint and the parts of the
// parsed recipe the resolver needs. Opaque build params are deliberately not
// cached: anything that synthesizes a new recipe reparses the source file.
type Cache struct {
	db  *bolt.DB
	log *logrus.Logger
}

var cacheBucket = []byte("recipes")

// OpenCache opens (or creates) the cache database at path.
func OpenCache(path string, log *logrus.Logger) (*Cache, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open recipe cache %s", path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(cacheBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "failed to initialize recipe cache %s", path)
	}
	return &Cache{db: db, log: log}, nil
}

// Close releases the cache database. Not safe to call concurrently with any
// other method.
func (c *Cache) Close() error {
	return errors.Wrap(c.db.Close(), "error closing recipe cache")
}

type cacheEntry struct {
	Mtime int64 `json:"mtime"`
	Size  int64 `json:"size"`

	Name          string     `json:"name"`
	Version       string     `json:"version"`
	VersionSuffix string     `json:"versionsuffix,omitempty"`
	TCName        string     `json:"tc_name"`
	TCVersion     string     `json:"tc_version,omitempty"`
	Uses          []string   `json:"uses,omitempty"`
	Deps          []cacheDep `json:"deps,omitempty"`
	BuildDeps     []cacheDep `json:"builddeps,omitempty"`
}

type cacheDep struct {
	Name          string `json:"name"`
	Version       string `json:"version"`
	VersionSuffix string `json:"versionsuffix,omitempty"`
	TCName        string `json:"tc_name,omitempty"`
	TCVersion     string `json:"tc_version,omitempty"`
}

// get returns the cached recipe for path if the entry matches the current
// file fingerprint.
func (c *Cache) get(path string, fi os.FileInfo) (*recipe.Recipe, bool) {
	var entry *cacheEntry
	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(cacheBucket).Get([]byte(path))
		if v == nil {
			return nil
		}
		e := cacheEntry{}
		if err := json.Unmarshal(v, &e); err != nil {
			return err
		}
		entry = &e
		return nil
	})
	if err != nil {
		c.log.WithFields(logrus.Fields{"path": path, "err": err}).Warn("Dropping unreadable recipe cache entry")
		return nil, false
	}
	if entry == nil || entry.Mtime != fi.ModTime().UnixNano() || entry.Size != fi.Size() {
		return nil, false
	}
	return entry.toRecipe(path), true
}

// put stores the parsed recipe for path under the current file fingerprint.
// Failures are logged and swallowed; the cache is an accelerator, not a
// source of truth.
func (c *Cache) put(path string, fi os.FileInfo, r *recipe.Recipe) {
	entry := entryFromRecipe(fi, r)
	data, err := json.Marshal(entry)
	if err == nil {
		err = c.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(cacheBucket).Put([]byte(path), data)
		})
	}
	if err != nil {
		c.log.WithFields(logrus.Fields{"path": path, "err": err}).Warn("Failed to write recipe cache entry")
	}
}

func entryFromRecipe(fi os.FileInfo, r *recipe.Recipe) cacheEntry {
	e := cacheEntry{
		Mtime:         fi.ModTime().UnixNano(),
		Size:          fi.Size(),
		Name:          r.Name,
		Version:       r.Version,
		VersionSuffix: r.VersionSuffix,
		TCName:        r.Toolchain.Name,
		TCVersion:     r.Toolchain.Version,
	}
	for _, u := range r.Uses {
		e.Uses = append(e.Uses, string(u))
	}
	for _, d := range r.Dependencies {
		e.Deps = append(e.Deps, depToCache(d))
	}
	for _, d := range r.BuildDependencies {
		e.BuildDeps = append(e.BuildDeps, depToCache(d))
	}
	return e
}

func depToCache(d recipe.Dependency) cacheDep {
	cd := cacheDep{Name: d.Name, Version: d.Version, VersionSuffix: d.VersionSuffix}
	if d.Toolchain != nil {
		cd.TCName = d.Toolchain.Name
		cd.TCVersion = d.Toolchain.Version
	}
	return cd
}

func (e *cacheEntry) toRecipe(path string) *recipe.Recipe {
	r := &recipe.Recipe{
		Name:          e.Name,
		Version:       e.Version,
		VersionSuffix: e.VersionSuffix,
		Toolchain:     toolchain.Spec{Name: e.TCName, Version: e.TCVersion},
		Path:          path,
	}
	if e.TCName == "" || e.TCName == toolchain.SystemName {
		r.Toolchain = toolchain.System()
	}
	for _, u := range e.Uses {
		r.Uses = append(r.Uses, toolchain.Axis(u))
	}
	for _, cd := range e.Deps {
		r.Dependencies = append(r.Dependencies, depFromCache(cd, false))
	}
	for _, cd := range e.BuildDeps {
		r.BuildDependencies = append(r.BuildDependencies, depFromCache(cd, true))
	}
	return r
}

func depFromCache(cd cacheDep, build bool) recipe.Dependency {
	d := recipe.Dependency{Name: cd.Name, Version: cd.Version, VersionSuffix: cd.VersionSuffix, Build: build}
	if cd.TCName != "" {
		tc := toolchain.Spec{Name: cd.TCName, Version: cd.TCVersion}
		if tc.IsSystem() {
			tc = toolchain.System()
		}
		d.Toolchain = &tc
	}
	return d
}

// A Store loads parsed recipes, consulting the optional cache first. The
// cached form drops opaque params, which the resolver never reads; code that
// needs the full record (the tweak synthesizer) parses the file directly.
type Store struct {
	Parser recipe.Parser
	Cache  *Cache // may be nil
}

// Load returns the parsed recipe at path.
func (s *Store) Load(path string) (*recipe.Recipe, error) {
	if s.Cache == nil {
		return s.Parser.ParseFile(path)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat recipe %s", path)
	}
	if r, ok := s.Cache.get(path, fi); ok {
		return r, nil
	}
	r, err := s.Parser.ParseFile(path)
	if err != nil {
		return nil, err
	}
	s.Cache.put(path, fi, r)
	return r, nil
}
