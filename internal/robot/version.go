// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package robot

import (
	"strconv"
	"strings"
)

// CompareVersions orders two dotted version strings. Segments are compared
// numerically when both parse as integers and lexicographically otherwise;
// a shorter version is padded with implicit zero segments ("3.0" == "3.0.0").
//
// HPC software versions are not semver ("2018a", "6.4.0-2.28", "1.0.2k"), so
// semver libraries reject them outright; this comparator matches how version
// ordering behaves across the recipe ecosystem.
func CompareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		var sa, sb string
		if i < len(as) {
			sa = as[i]
		} else {
			sa = "0"
		}
		if i < len(bs) {
			sb = bs[i]
		} else {
			sb = "0"
		}
		if c := compareSegment(sa, sb); c != 0 {
			return c
		}
	}
	return 0
}

func compareSegment(a, b string) int {
	na, erra := strconv.Atoi(a)
	nb, errb := strconv.Atoi(b)
	if erra == nil && errb == nil {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	}
	return strings.Compare(a, b)
}
