// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package robot

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	radix "github.com/armon/go-radix"
	"github.com/gofrs/flock"
	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"

	"github.com/goeb/goeb/internal/fs"
	"github.com/goeb/goeb/internal/recipe"
)

// IndexFilename is the name of the per-root path index file.
const IndexFilename = ".eb-path-index"

// DefaultIndexValidity is how long a freshly created index stays trusted.
const DefaultIndexValidity = 7 * 24 * time.Hour

// A PathIndex is the precomputed list of recipe paths under one search root.
// When present and fresh it is trusted over the filesystem: a listed file is
// reported even if it has since been removed, and unlisted files are
// invisible to the locator.
type PathIndex struct {
	Root       string
	CreatedAt  time.Time
	ValidUntil time.Time

	names *nameTrie // basename -> relative paths
	count int
}

// Stale reports whether the index has outlived its validity window.
func (x *PathIndex) Stale() bool {
	return time.Now().After(x.ValidUntil)
}

// Len returns the number of indexed paths.
func (x *PathIndex) Len() int {
	return x.count
}

// Lookup returns the relative paths of indexed files with the given basename.
func (x *PathIndex) Lookup(base string) []string {
	return x.names.get(base)
}

// LookupPrefix returns the relative paths of indexed files whose basename
// starts with prefix, sorted.
func (x *PathIndex) LookupPrefix(prefix string) []string {
	var out []string
	x.names.walkPrefix(prefix, func(rels []string) {
		out = append(out, rels...)
	})
	sort.Strings(out)
	return out
}

// Walk visits every indexed relative path, sorted.
func (x *PathIndex) Walk(fn func(rel string)) {
	var all []string
	x.names.walkPrefix("", func(rels []string) {
		all = append(all, rels...)
	})
	sort.Strings(all)
	for _, rel := range all {
		fn(rel)
	}
}

// nameTrie is a typed radix tree keyed by recipe basename. Just a thin
// wrapper so nothing else needs type assertions.
type nameTrie struct {
	t *radix.Tree
}

func newNameTrie() *nameTrie {
	return &nameTrie{t: radix.New()}
}

func (nt *nameTrie) insert(base, rel string) {
	if v, ok := nt.t.Get(base); ok {
		nt.t.Insert(base, append(v.([]string), rel))
		return
	}
	nt.t.Insert(base, []string{rel})
}

func (nt *nameTrie) get(base string) []string {
	if v, ok := nt.t.Get(base); ok {
		return v.([]string)
	}
	return nil
}

func (nt *nameTrie) walkPrefix(prefix string, fn func(rels []string)) {
	nt.t.WalkPrefix(prefix, func(_ string, v interface{}) bool {
		fn(v.([]string))
		return false
	})
}

// LoadIndex reads the index of a search root. It returns (nil, nil) when the
// root has no index file; a stale index is returned with Stale() true and the
// caller decides whether to trust it.
func LoadIndex(root string) (*PathIndex, error) {
	path := filepath.Join(root, IndexFilename)
	ok, err := fs.IsRegular(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open index %s", path)
	}
	defer f.Close()

	x := &PathIndex{Root: root, names: newNameTrie()}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
		case strings.HasPrefix(line, "# created at:"):
			x.CreatedAt, err = parseIndexTime(line)
			if err != nil {
				return nil, errors.Wrapf(err, "malformed index %s", path)
			}
		case strings.HasPrefix(line, "# valid until:"):
			x.ValidUntil, err = parseIndexTime(line)
			if err != nil {
				return nil, errors.Wrapf(err, "malformed index %s", path)
			}
		case strings.HasPrefix(line, "#"):
			// other comments are tolerated
		default:
			x.names.insert(filepath.Base(line), line)
			x.count++
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read index %s", path)
	}
	if x.ValidUntil.IsZero() {
		return nil, errors.Errorf("malformed index %s: no 'valid until' header", path)
	}
	return x, nil
}

func parseIndexTime(line string) (time.Time, error) {
	i := strings.LastIndex(line, ": ")
	if i < 0 {
		return time.Time{}, errors.Errorf("no timestamp in header %q", line)
	}
	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(line[i+2:]))
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "bad timestamp in header %q", line)
	}
	return ts, nil
}

// CreateIndex walks a search root and writes its index file, valid for the
// given duration. An existing fresh index is left alone unless force is set.
// Creation is serialized with an advisory lock so concurrent runs do not
// interleave writes.
func CreateIndex(root string, validity time.Duration, force bool) (*PathIndex, error) {
	isDir, err := fs.IsDir(root)
	if err != nil {
		return nil, err
	}
	if !isDir {
		return nil, errors.Errorf("search root %s is not a directory", root)
	}

	lock := flock.New(filepath.Join(root, IndexFilename+".lock"))
	if err := lock.Lock(); err != nil {
		return nil, errors.Wrapf(err, "failed to lock index of %s", root)
	}
	defer lock.Unlock()

	if !force {
		existing, err := LoadIndex(root)
		if err == nil && existing != nil && !existing.Stale() {
			return nil, errors.Errorf("index for %s already exists and is still valid (until %s); use force to recreate",
				root, existing.ValidUntil.Format(time.RFC3339))
		}
	}

	var rels []string
	err = godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			if de.IsDir() || !strings.HasSuffix(de.Name(), recipe.Ext) {
				return nil
			}
			rel, err := filepath.Rel(root, osPathname)
			if err != nil {
				return err
			}
			rels = append(rels, rel)
			return nil
		},
		Unsorted: true,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to walk %s", root)
	}
	sort.Strings(rels)

	now := time.Now().UTC().Truncate(time.Second)
	until := now.Add(validity)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# created at: %s\n", now.Format(time.RFC3339))
	fmt.Fprintf(&buf, "# valid until: %s\n", until.Format(time.RFC3339))
	for _, rel := range rels {
		buf.WriteString(rel)
		buf.WriteByte('\n')
	}
	if err := fs.WriteFileAtomic(filepath.Join(root, IndexFilename), buf.Bytes(), 0644); err != nil {
		return nil, err
	}

	x := &PathIndex{Root: root, CreatedAt: now, ValidUntil: until, names: newNameTrie()}
	for _, rel := range rels {
		x.names.insert(filepath.Base(rel), rel)
		x.count++
	}
	return x, nil
}
