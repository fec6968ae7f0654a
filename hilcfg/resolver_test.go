// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hilcfg

import (
	"path/filepath"
	"testing"

	"github.com/go-lpc/hil/errs"
)

func TestBuildResolver(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "harness.json"), `{
		"dut_connections": {
			"B1": {"harness_connections": [
				{"dut": {"connector": "J1", "pin": 3}, "hil": {"device": "X", "port": "DO1"}}
			]}
		}
	}`)
	writeFile(t, filepath.Join(dir, "netmap.csv"), "Board,Net,Component,Pin\nB1,NET1,J1,3\n")

	resolver, err := BuildResolver(
		filepath.Join(dir, "harness.json"),
		filepath.Join(dir, "netmap.csv"),
		func(name string) bool { return false },
	)
	if err != nil {
		t.Fatalf("BuildResolver: %v", err)
	}

	con, err := resolver.Resolve("B1", "NET1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if con.Device != "X" || con.Port != "DO1" {
		t.Fatalf("Resolve(B1, NET1) = %+v, want {X DO1}", con)
	}
}

func TestBuildResolverSkipsEmptyPaths(t *testing.T) {
	resolver, err := BuildResolver("", "", func(name string) bool { return name == "X" })
	if err != nil {
		t.Fatalf("BuildResolver: %v", err)
	}
	con, err := resolver.Resolve("X", "DO1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if con.Device != "X" || con.Port != "DO1" {
		t.Fatalf("Resolve(X, DO1) = %+v, want {X DO1}", con)
	}
}

func TestBuildResolverMissingHarnessFileIsConfigurationError(t *testing.T) {
	_, err := BuildResolver(
		filepath.Join(t.TempDir(), "nope.json"),
		"",
		func(name string) bool { return false },
	)
	if !errs.Is(err, errs.Configuration) {
		t.Fatalf("BuildResolver(missing harness file) error = %v, want a Configuration error", err)
	}
}
