// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package robot

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/goeb/goeb/internal/fs"
	"github.com/goeb/goeb/internal/recipe"
)

// A Locator resolves build specs to recipe files across an ordered list of
// search roots. Roots earlier in the list shadow later ones; on identical
// filenames in several roots the first root always wins. Each root may carry
// a path index, which is trusted when fresh unless explicitly ignored.
//
// The root list grows only at the front, via PrependRoot, which is how
// synthesized recipes become discoverable later in the same resolution pass.
type Locator struct {
	roots       []string
	indexes     map[string]*PathIndex
	ignoreIndex bool
	log         *logrus.Logger
}

// NewLocator builds a locator over the given roots, loading each root's path
// index up front. Stale or unreadable indexes are skipped with a warning.
func NewLocator(roots []string, ignoreIndex bool, log *logrus.Logger) *Locator {
	l := &Locator{
		roots:       append([]string(nil), roots...),
		indexes:     make(map[string]*PathIndex),
		ignoreIndex: ignoreIndex,
		log:         log,
	}
	if ignoreIndex {
		return l
	}
	for _, root := range l.roots {
		x, err := LoadIndex(root)
		if err != nil {
			l.log.WithFields(logrus.Fields{"root": root, "err": err}).Warn("Skipping unreadable path index")
			continue
		}
		if x == nil {
			continue
		}
		if x.Stale() {
			l.log.WithFields(logrus.Fields{"root": root, "validUntil": x.ValidUntil}).Warn("Ignoring stale path index")
			continue
		}
		if l.log.Level >= logrus.DebugLevel {
			l.log.WithFields(logrus.Fields{"root": root, "entries": x.Len()}).Debug("Loaded path index")
		}
		l.indexes[root] = x
	}
	return l
}

// PrependRoot puts dir in front of every existing root. Indexes are never
// consulted for prepended roots; they hold synthesized recipes that change
// within the pass.
func (l *Locator) PrependRoot(dir string) {
	l.roots = append([]string{dir}, l.roots...)
}

// Roots returns the current search root list, highest priority first.
func (l *Locator) Roots() []string {
	return append([]string(nil), l.roots...)
}

// FindRecipe locates the recipe file for a fully specified build spec.
func (l *Locator) FindRecipe(spec BuildSpec) (string, error) {
	return l.findFilename(spec, spec.Filename())
}

// FindFile locates a recipe by exact basename across the roots, used for
// command line arguments given as bare filenames.
func (l *Locator) FindFile(base string) (string, error) {
	return l.findFilename(BuildSpec{Name: strings.TrimSuffix(base, recipe.Ext)}, base)
}

func (l *Locator) findFilename(spec BuildSpec, base string) (string, error) {
	for _, root := range l.roots {
		if x, ok := l.indexes[root]; ok {
			// The index is authoritative for its root, even if a listed
			// file is physically absent.
			if rels := x.Lookup(base); len(rels) > 0 {
				return filepath.Join(root, rels[0]), nil
			}
			continue
		}
		path, found, err := walkForBasename(root, func(name string) bool { return name == base })
		if err != nil {
			return "", err
		}
		if found {
			return path, nil
		}
	}
	if l.log.Level >= logrus.DebugLevel {
		l.log.WithField("filename", base).Debug("No recipe file found in any search root")
	}
	return "", &NotFoundError{Spec: spec}
}

// FindNewest locates the recipe with the highest version for the spec's
// name, toolchain and suffix. The spec's own version is ignored.
func (l *Locator) FindNewest(spec BuildSpec) (string, string, error) {
	prefix := spec.Name + "-"
	bestVersion := ""
	bestPath := ""
	consider := func(root, rel string) {
		v, ok := spec.versionFromFilename(filepath.Base(rel))
		if !ok {
			return
		}
		if bestVersion == "" || CompareVersions(v, bestVersion) > 0 {
			bestVersion = v
			bestPath = filepath.Join(root, rel)
		}
	}
	for _, root := range l.roots {
		if x, ok := l.indexes[root]; ok {
			for _, rel := range x.LookupPrefix(prefix) {
				consider(root, rel)
			}
			continue
		}
		matches, err := walkCollect(root, func(name string) bool { return strings.HasPrefix(name, prefix) })
		if err != nil {
			return "", "", err
		}
		for _, rel := range matches {
			consider(root, rel)
		}
	}
	if bestPath == "" {
		return "", "", &NotFoundError{Spec: BuildSpec{Name: spec.Name, Toolchain: spec.Toolchain}}
	}
	return bestPath, bestVersion, nil
}

// FindAnyToolchain locates a recipe for the spec's name, version and suffix
// under any toolchain, preferring earlier roots and lexically smaller
// filenames. It is the fallback used when propagating a toolchain tweak to a
// dependency that has no recipe for the target toolchain yet.
func (l *Locator) FindAnyToolchain(spec BuildSpec) (string, error) {
	prefix := spec.FilenamePrefix()
	for _, root := range l.roots {
		var rels []string
		if x, ok := l.indexes[root]; ok {
			rels = x.LookupPrefix(prefix)
		} else {
			var err error
			rels, err = walkCollect(root, func(name string) bool { return strings.HasPrefix(name, prefix) })
			if err != nil {
				return "", err
			}
			sort.Strings(rels)
		}
		for _, rel := range rels {
			base := filepath.Base(rel)
			// require an exact version match: gzip-1.4 must not pick up
			// gzip-1.4.1-GCC-4.6.3.eb
			rest := strings.TrimPrefix(strings.TrimSuffix(base, recipe.Ext), prefix)
			if rest == "" || strings.HasPrefix(rest, "-") {
				return filepath.Join(root, rel), nil
			}
		}
	}
	return "", &NotFoundError{Spec: spec}
}

// Search returns all recipe paths whose filename matches the query, across
// every root, in root order. The query is a case-insensitive regular
// expression; a malformed query fails with SearchQuerySyntaxError. Roots are
// searched concurrently, results stay deterministic.
func (l *Locator) Search(query string) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &SearchQuerySyntaxError{Query: query, Cause: errors.New("empty query")}
	}
	re, err := regexp.Compile("(?i)" + query)
	if err != nil {
		return nil, &SearchQuerySyntaxError{Query: query, Cause: err}
	}

	perRoot := make([][]string, len(l.roots))
	var g errgroup.Group
	for i, root := range l.roots {
		i, root := i, root
		g.Go(func() error {
			var rels []string
			if x, ok := l.indexes[root]; ok {
				x.Walk(func(rel string) {
					if re.MatchString(filepath.Base(rel)) {
						rels = append(rels, rel)
					}
				})
			} else {
				var err error
				rels, err = walkCollect(root, func(name string) bool { return re.MatchString(name) })
				if err != nil {
					return err
				}
				sort.Strings(rels)
			}
			for _, rel := range rels {
				perRoot[i] = append(perRoot[i], filepath.Join(root, rel))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []string
	for _, paths := range perRoot {
		out = append(out, paths...)
	}
	return out, nil
}

func walkForBasename(root string, match func(string) bool) (string, bool, error) {
	if ok, err := fs.IsDir(root); err != nil || !ok {
		return "", false, err
	}
	found := ""
	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			if strings.HasSuffix(de.Name(), recipe.Ext) && match(de.Name()) {
				found = osPathname
				return errStopWalk
			}
			return nil
		},
		// sorted walk keeps "first match" deterministic within a root
		Unsorted: false,
	})
	if err != nil && err != errStopWalk && errors.Cause(err) != errStopWalk {
		return "", false, errors.Wrapf(err, "failed to walk %s", root)
	}
	return found, found != "", nil
}

func walkCollect(root string, match func(string) bool) ([]string, error) {
	if ok, err := fs.IsDir(root); err != nil || !ok {
		return nil, err
	}
	var rels []string
	err := godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			if de.IsDir() || !strings.HasSuffix(de.Name(), recipe.Ext) || !match(de.Name()) {
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
	return rels, nil
}

var errStopWalk = errors.New("stop walk")
