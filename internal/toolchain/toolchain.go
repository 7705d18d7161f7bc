// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package toolchain models compiler toolchains as a capability lattice.
//
// A toolchain is a named, versioned bundle of build capabilities (compiler,
// MPI, linear algebra, FFT). Toolchains extend one another: gompi is GCC plus
// OpenMPI, foss is gompi plus OpenBLAS/ScaLAPACK and FFTW. The lattice is
// rooted at the capability-less "system" toolchain.
package toolchain

import "fmt"

// SystemName is the name of the root toolchain, which provides no
// capabilities of its own.
const SystemName = "system"

// A Spec identifies one concrete toolchain: a name plus a version.
type Spec struct {
	Name    string
	Version string
}

// System returns the spec for the capability-less root toolchain.
func System() Spec {
	return Spec{Name: SystemName, Version: SystemName}
}

// IsSystem reports whether the spec names the root toolchain.
func (s Spec) IsSystem() bool {
	return s.Name == SystemName || s.Name == ""
}

func (s Spec) String() string {
	if s.IsSystem() {
		return SystemName
	}
	return fmt.Sprintf("%s/%s", s.Name, s.Version)
}

// Equal reports whether two specs denote the same toolchain.
func (s Spec) Equal(o Spec) bool {
	if s.IsSystem() && o.IsSystem() {
		return true
	}
	return s.Name == o.Name && s.Version == o.Version
}
