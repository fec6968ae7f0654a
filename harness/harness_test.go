// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package harness

import (
	"strings"
	"testing"

	"github.com/go-lpc/hil/errs"
)

func devices(names ...string) func(string) bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(name string) bool { return set[name] }
}

func TestDirectResolution(t *testing.T) {
	r := NewResolver(devices("RACK1"))
	con, err := r.Resolve("RACK1", "DO1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if con != (HilDutCon{Device: "RACK1", Port: "DO1"}) {
		t.Fatalf("Resolve = %+v", con)
	}
}

func TestNetMapResolution(t *testing.T) {
	r := NewResolver(devices("RACK1"))
	if err := r.AddNetMap("BOARD1", "CLK", DutCon{Connector: "J1", Pin: 3}); err != nil {
		t.Fatalf("AddNetMap: %v", err)
	}
	r.AddHarness("BOARD1", []Entry{
		{Dut: DutCon{Connector: "J1", Pin: 3}, Hil: HilDutCon{Device: "RACK1", Port: "DI1"}},
	})

	con, err := r.Resolve("BOARD1", "CLK")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if con != (HilDutCon{Device: "RACK1", Port: "DI1"}) {
		t.Fatalf("Resolve = %+v", con)
	}
}

func TestResolutionAmbiguous(t *testing.T) {
	r := NewResolver(devices("BOARD1"))
	if err := r.AddNetMap("BOARD1", "CLK", DutCon{Connector: "J1", Pin: 3}); err != nil {
		t.Fatalf("AddNetMap: %v", err)
	}
	r.AddHarness("BOARD1", []Entry{
		{Dut: DutCon{Connector: "J1", Pin: 3}, Hil: HilDutCon{Device: "RACK1", Port: "DI1"}},
	})

	_, err := r.Resolve("BOARD1", "CLK")
	if !errs.Is(err, errs.Connection) || !strings.Contains(err.Error(), "ambiguous") {
		t.Fatalf("expected an ambiguous Connection error, got %v", err)
	}
}

func TestResolutionMissing(t *testing.T) {
	r := NewResolver(devices("RACK1"))
	_, err := r.Resolve("BOARD1", "CLK")
	if !errs.Is(err, errs.Connection) {
		t.Fatalf("expected a Connection error, got %v", err)
	}
}

func TestNetMapMissingHarnessEntryFails(t *testing.T) {
	r := NewResolver(devices("RACK1"))
	if err := r.AddNetMap("BOARD1", "CLK", DutCon{Connector: "J1", Pin: 3}); err != nil {
		t.Fatalf("AddNetMap: %v", err)
	}
	// No AddHarness call: the net-map route has no harness entry to land on.
	_, err := r.Resolve("BOARD1", "CLK")
	if !errs.Is(err, errs.Connection) {
		t.Fatalf("expected a Connection error, got %v", err)
	}
}

func TestDuplicateNetMapRejected(t *testing.T) {
	r := NewResolver(nil)
	if err := r.AddNetMap("BOARD1", "CLK", DutCon{Connector: "J1", Pin: 3}); err != nil {
		t.Fatalf("first AddNetMap: %v", err)
	}
	err := r.AddNetMap("BOARD1", "CLK", DutCon{Connector: "J2", Pin: 1})
	if !errs.Is(err, errs.Configuration) {
		t.Fatalf("expected a Configuration error, got %v", err)
	}
}

func TestLoadNetMapCSV(t *testing.T) {
	r := NewResolver(devices("RACK1"))
	csvData := "Board,Net,Component,Designator,Connector Name\n" +
		"BOARD1,CLK,U3,3,J1\n" +
		"BOARD1,RST,U3,4,\n"
	if err := LoadNetMapCSV(r, strings.NewReader(csvData)); err != nil {
		t.Fatalf("LoadNetMapCSV: %v", err)
	}
	r.AddHarness("BOARD1", []Entry{
		{Dut: DutCon{Connector: "J1", Pin: 3}, Hil: HilDutCon{Device: "RACK1", Port: "DI1"}},
		{Dut: DutCon{Connector: "U3", Pin: 4}, Hil: HilDutCon{Device: "RACK1", Port: "DI2"}},
	})

	if con, err := r.Resolve("BOARD1", "CLK"); err != nil || con.Port != "DI1" {
		t.Fatalf("Resolve(CLK) = %+v, %v", con, err)
	}
	if con, err := r.Resolve("BOARD1", "RST"); err != nil || con.Port != "DI2" {
		t.Fatalf("Resolve(RST) = %+v, %v", con, err)
	}
}

func TestLoadHarnessJSON(t *testing.T) {
	r := NewResolver(devices("RACK1"))
	raw := `{
		"BOARD1": { "harness_connections": [
			{"dut":{"connector":"J1","pin":3},"hil":{"device":"RACK1","port":"DI1"}}
		]}
	}`
	if err := LoadHarnessJSON(r, strings.NewReader(raw)); err != nil {
		t.Fatalf("LoadHarnessJSON: %v", err)
	}
	if err := r.AddNetMap("BOARD1", "CLK", DutCon{Connector: "J1", Pin: 3}); err != nil {
		t.Fatalf("AddNetMap: %v", err)
	}
	con, err := r.Resolve("BOARD1", "CLK")
	if err != nil || con.Port != "DI1" {
		t.Fatalf("Resolve = %+v, %v", con, err)
	}
}
