// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package harness

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/go-lpc/hil/errs"
)

type dutJSON struct {
	Connector string `json:"connector"`
	Pin       int    `json:"pin"`
}

type hilJSON struct {
	Device string `json:"device"`
	Port   string `json:"port"`
}

type entryJSON struct {
	Dut dutJSON `json:"dut"`
	Hil hilJSON `json:"hil"`
}

type boardJSON struct {
	HarnessConnections []entryJSON `json:"harness_connections"`
}

// dutConnectionsJSON mirrors the "dut_connections" section of the test
// configuration file (spec §6): one board name to its harness-connections
// list.
type dutConnectionsJSON map[string]boardJSON

// LoadHarnessJSON decodes a test configuration's "dut_connections" object
// and registers every board's harness entries on r.
func LoadHarnessJSON(r *Resolver, raw io.Reader) error {
	var cfg dutConnectionsJSON
	if err := json.NewDecoder(raw).Decode(&cfg); err != nil {
		return errs.Configurationf("harness: could not decode dut_connections: %w", err)
	}
	for board, b := range cfg {
		entries := make([]Entry, len(b.HarnessConnections))
		for i, e := range b.HarnessConnections {
			entries[i] = Entry{
				Dut: DutCon{Connector: e.Dut.Connector, Pin: e.Dut.Pin},
				Hil: HilDutCon{Device: e.Hil.Device, Port: e.Hil.Port},
			}
		}
		r.AddHarness(board, entries)
	}
	return nil
}

// LoadNetMapCSV reads a net-map CSV with header
// "Board,Net,Component,Designator[,Connector Name]" and registers every row
// on r. The connector name used for harness lookup is the optional
// "Connector Name" column when present, else Component. Designator is the
// connector pin number. Duplicate (Board,Net) rows are a Configuration
// error.
func LoadNetMapCSV(r *Resolver, raw io.Reader) error {
	cr := csv.NewReader(raw)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return errs.Configurationf("harness: could not read net-map header: %w", err)
	}
	if len(header) < 4 {
		return errs.Configurationf("harness: net-map header has %d columns, want at least 4", len(header))
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errs.Configurationf("harness: could not read net-map row: %w", err)
		}
		if len(rec) < 4 {
			return errs.Configurationf("harness: net-map row %v has %d columns, want at least 4", rec, len(rec))
		}

		board, net, component := rec[0], rec[1], rec[2]
		pin, err := strconv.Atoi(rec[3])
		if err != nil {
			return errs.Configurationf("harness: net-map row for (%s,%s): designator %q is not an integer: %w", board, net, rec[3], err)
		}

		connector := component
		if len(rec) >= 5 && rec[4] != "" {
			connector = rec[4]
		}

		if err := r.AddNetMap(board, net, DutCon{Connector: connector, Pin: pin}); err != nil {
			return err
		}
	}
}
