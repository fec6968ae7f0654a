// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package harness resolves a (board, net) pair named by a test into the
// (hil_device, hil_port) it is wired to, either directly or through a
// net-map plus harness-connections lookup.
package harness // import "github.com/go-lpc/hil/harness"

import "github.com/go-lpc/hil/errs"

// HilDutCon names a port (or mux channel) on a HIL device.
type HilDutCon struct {
	Device string
	Port   string
}

func (c HilDutCon) String() string { return c.Device + "." + c.Port }

// DutCon names a pin on a connector of the device under test. It is used
// only as a key for harness lookup.
type DutCon struct {
	Connector string
	Pin       int
}

// Entry is one harness-connections row: a DUT connector/pin wired to a HIL
// device port.
type Entry struct {
	Dut DutCon
	Hil HilDutCon
}

type netKey struct {
	Board, Net string
}

// Resolver answers (board, net) -> HilDutCon queries by combining direct
// device-name matches with a net-map + per-board harness-connections table.
type Resolver struct {
	isDevice func(name string) bool
	harness  map[string][]Entry // board -> entries
	netmap   map[netKey]DutCon
}

// NewResolver builds an empty Resolver. isDevice reports whether a name
// directly names a managed HIL device; typically devmgr.Manager.ByName's ok
// return, wrapped.
func NewResolver(isDevice func(name string) bool) *Resolver {
	return &Resolver{
		isDevice: isDevice,
		harness:  make(map[string][]Entry),
		netmap:   make(map[netKey]DutCon),
	}
}

// AddHarness registers board's harness-connections entries, replacing any
// previously registered for the same board.
func (r *Resolver) AddHarness(board string, entries []Entry) {
	r.harness[board] = entries
}

// AddNetMap registers a net-map row, failing with a Configuration error if
// (board, net) is already mapped.
func (r *Resolver) AddNetMap(board, net string, dut DutCon) error {
	key := netKey{board, net}
	if _, dup := r.netmap[key]; dup {
		return errs.Configurationf("harness: duplicate net-map entry for board %q net %q", board, net)
	}
	r.netmap[key] = dut
	return nil
}

// viaNetMap resolves (board, net) through the net-map and harness-entries
// table. It reports ok=false, with no error, when either step has no match:
// a "not found" net-map route is not itself a ConnectionError, only a failed
// leg of the two candidate routes Resolve considers.
func (r *Resolver) viaNetMap(board, net string) (HilDutCon, bool) {
	dut, ok := r.netmap[netKey{board, net}]
	if !ok {
		return HilDutCon{}, false
	}
	for _, e := range r.harness[board] {
		if e.Dut == dut {
			return e.Hil, true
		}
	}
	return HilDutCon{}, false
}

// Resolve maps (board, net) to a HilDutCon. It fails with a Connection
// error if and only if neither the direct-device route nor the
// net-map-plus-harness route succeeds, or both do.
func (r *Resolver) Resolve(board, net string) (HilDutCon, error) {
	direct := r.isDevice != nil && r.isDevice(board)
	mapped, mappedOK := r.viaNetMap(board, net)

	switch {
	case direct && mappedOK:
		return HilDutCon{}, errs.Connectionf("harness: resolution of (%s, %s) is ambiguous: both a direct device match and a net-map match succeed", board, net)
	case direct:
		return HilDutCon{Device: board, Port: net}, nil
	case mappedOK:
		return mapped, nil
	default:
		return HilDutCon{}, errs.Connectionf("harness: no resolution for (%s, %s)", board, net)
	}
}
