// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import "testing"

func TestParseArgs(t *testing.T) {
	cases := []struct {
		args          []string
		cmdName       string
		printCmdUsage bool
		exit          bool
	}{
		{[]string{"goeb"}, "", false, true},
		{[]string{"goeb", "help"}, "", false, true},
		{[]string{"goeb", "build"}, "build", false, false},
		{[]string{"goeb", "build", "toy-0.0.eb"}, "build", false, false},
		{[]string{"goeb", "help", "build"}, "build", true, false},
		{[]string{"goeb", "-h", "search"}, "search", true, false},
	}
	for _, c := range cases {
		cmdName, printCmdUsage, exit := parseArgs(c.args)
		if cmdName != c.cmdName || printCmdUsage != c.printCmdUsage || exit != c.exit {
			t.Errorf("parseArgs(%v) = (%q, %t, %t), want (%q, %t, %t)",
				c.args, cmdName, printCmdUsage, exit, c.cmdName, c.printCmdUsage, c.exit)
		}
	}
}

func TestAmendFlag(t *testing.T) {
	var a amendFlag
	if err := a.Set("configopts=,--with-x"); err != nil {
		t.Fatal(err)
	}
	if err := a.Set("parallel=4"); err != nil {
		t.Fatal(err)
	}
	if a["configopts"] != ",--with-x" || a["parallel"] != "4" {
		t.Errorf("amend map = %v", a)
	}
	if err := a.Set("novalue"); err == nil {
		t.Error("KEY without '=' accepted")
	}
	if err := a.Set("=value"); err == nil {
		t.Error("empty KEY accepted")
	}
}
