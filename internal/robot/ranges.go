// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package robot

import (
	"fmt"
	"strings"
)

// A VersionRange is a half-open or closed interval over version strings,
// with either bound omittable for an unbounded side.
type VersionRange struct {
	Lower, Upper                   string
	LowerInclusive, UpperInclusive bool
}

// Contains reports whether v lies within the range.
func (r VersionRange) Contains(v string) bool {
	if r.Lower != "" {
		c := CompareVersions(v, r.Lower)
		if c < 0 || (c == 0 && !r.LowerInclusive) {
			return false
		}
	}
	if r.Upper != "" {
		c := CompareVersions(v, r.Upper)
		if c > 0 || (c == 0 && !r.UpperInclusive) {
			return false
		}
	}
	return true
}

func (r VersionRange) String() string {
	lb, ub := "]", "["
	if r.LowerInclusive {
		lb = "["
	}
	if r.UpperInclusive {
		ub = "]"
	}
	return fmt.Sprintf("%s%s:%s%s", lb, r.Lower, r.Upper, ub)
}

// A DepSpecifier is a parsed Name[=Spec] token, as accepted by filter-deps,
// hide-deps and hide-toolchains. Spec is either an exact version or a version
// interval; with no Spec at all, every version matches.
type DepSpecifier struct {
	Name  string
	Exact string        // exact-version qualifier, mutually exclusive with Range
	Range *VersionRange // interval qualifier
}

// Matches reports whether the specifier selects the given name and version.
func (ds DepSpecifier) Matches(name, version string) bool {
	if ds.Name != name {
		return false
	}
	switch {
	case ds.Exact != "":
		return CompareVersions(version, ds.Exact) == 0
	case ds.Range != nil:
		return ds.Range.Contains(version)
	}
	return true
}

func (ds DepSpecifier) String() string {
	switch {
	case ds.Exact != "":
		return ds.Name + "=" + ds.Exact
	case ds.Range != nil:
		return ds.Name + "=" + ds.Range.String()
	}
	return ds.Name
}

// ParseDepSpecifiers parses a comma-separated list of Name[=Spec] tokens.
func ParseDepSpecifiers(list string) ([]DepSpecifier, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	var out []DepSpecifier
	for _, tok := range strings.Split(list, ",") {
		ds, err := ParseDepSpecifier(strings.TrimSpace(tok))
		if err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	return out, nil
}

// ParseDepSpecifier parses one Name[=Spec] token.
func ParseDepSpecifier(tok string) (DepSpecifier, error) {
	if tok == "" {
		return DepSpecifier{}, &VersionRangeSyntaxError{Token: tok, Reason: "empty token"}
	}
	eq := strings.Index(tok, "=")
	if eq < 0 {
		return DepSpecifier{Name: tok}, nil
	}
	name, spec := tok[:eq], tok[eq+1:]
	if name == "" {
		return DepSpecifier{}, &VersionRangeSyntaxError{Token: tok, Reason: "missing name before '='"}
	}
	if spec == "" {
		return DepSpecifier{}, &VersionRangeSyntaxError{Token: tok, Reason: "missing version spec after '='"}
	}
	if !isBracket(spec[0]) {
		// exact version, no interval syntax allowed anywhere in it
		if strings.ContainsAny(spec, "[]():") {
			return DepSpecifier{}, &VersionRangeSyntaxError{Token: tok, Reason: "interval must start with an opening bracket"}
		}
		return DepSpecifier{Name: name, Exact: spec}, nil
	}
	r, err := parseRange(tok, spec)
	if err != nil {
		return DepSpecifier{}, err
	}
	return DepSpecifier{Name: name, Range: r}, nil
}

func isBracket(c byte) bool {
	switch c {
	case '[', ']', '(', ')':
		return true
	}
	return false
}

// parseRange parses an interval spec. '[' and ']' in their usual positions
// are inclusive; a reversed bracket (']lo', 'hi[') or parenthesis marks an
// exclusive bound, e.g. [3.0:4.0[ includes 3.0 and excludes 4.0.
func parseRange(tok, spec string) (*VersionRange, error) {
	if len(spec) < 3 {
		return nil, &VersionRangeSyntaxError{Token: tok, Reason: "interval too short"}
	}
	ob, cb := spec[0], spec[len(spec)-1]
	if !isBracket(ob) || !isBracket(cb) {
		return nil, &VersionRangeSyntaxError{Token: tok, Reason: "interval must be enclosed in brackets"}
	}

	var r VersionRange
	switch ob {
	case '[':
		r.LowerInclusive = true
	case ']', '(':
		r.LowerInclusive = false
	case ')':
		return nil, &VersionRangeSyntaxError{Token: tok, Reason: fmt.Sprintf("invalid opening bracket %q", ob)}
	}
	switch cb {
	case ']':
		r.UpperInclusive = true
	case '[', ')':
		r.UpperInclusive = false
	case '(':
		return nil, &VersionRangeSyntaxError{Token: tok, Reason: fmt.Sprintf("invalid closing bracket %q", cb)}
	}

	body := spec[1 : len(spec)-1]
	parts := strings.Split(body, ":")
	if len(parts) != 2 {
		return nil, &VersionRangeSyntaxError{Token: tok, Reason: "interval must contain exactly one ':'"}
	}
	r.Lower, r.Upper = parts[0], parts[1]
	if r.Lower == "" && r.Upper == "" {
		return nil, &VersionRangeSyntaxError{Token: tok, Reason: "interval has neither bound"}
	}
	if strings.ContainsAny(r.Lower, "[]()") || strings.ContainsAny(r.Upper, "[]()") {
		return nil, &VersionRangeSyntaxError{Token: tok, Reason: "nested brackets in bound"}
	}
	if r.Lower != "" && r.Upper != "" && CompareVersions(r.Lower, r.Upper) > 0 {
		return nil, &VersionRangeSyntaxError{Token: tok, Reason: "lower bound is greater than upper bound"}
	}
	return &r, nil
}
