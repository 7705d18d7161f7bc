// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package robot

import "testing"

func TestCompareVersions(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"1.0", "1.0", 0},
		{"1.0", "2.0", -1},
		{"2.0", "1.0", 1},
		{"1.2", "1.10", -1},
		{"1.10", "1.9", 1},
		{"3.0", "3.0.1", -1},
		{"6.4.0", "6.4.0", 0},
		{"2018a", "2018b", -1},
		{"2018b", "2019a", -1},
		{"1.0rc1", "1.0", 1},
		{"1.8.0_144", "1.8.0_152", -1},
		{"0.0", "0.0", 0},
		{"10", "9", 1},
	}
	for _, c := range cases {
		if got := CompareVersions(c.a, c.b); got != c.want {
			t.Errorf("CompareVersions(%q, %q) = %d, want %d", c.a, c.b, got, c.want)
		}
		if got := CompareVersions(c.b, c.a); got != -c.want {
			t.Errorf("CompareVersions(%q, %q) = %d, want %d", c.b, c.a, got, -c.want)
		}
	}
}
