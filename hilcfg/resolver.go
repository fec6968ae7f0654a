// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hilcfg

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/go-lpc/hil/errs"
	"github.com/go-lpc/hil/harness"
)

// BuildResolver builds a harness.Resolver around isDevice, optionally
// loading the "dut_connections" section of a test-configuration JSON file
// and a net-map CSV file. Either path may be empty to skip that source.
func BuildResolver(harnessPath, netmapPath string, isDevice func(name string) bool) (*harness.Resolver, error) {
	resolver := harness.NewResolver(isDevice)

	if harnessPath != "" {
		f, err := os.Open(harnessPath)
		if err != nil {
			return nil, errs.Configurationf("could not open harness file %q: %w", harnessPath, err)
		}
		defer f.Close()
		var cfg struct {
			DutConnections json.RawMessage `json:"dut_connections"`
		}
		if err := json.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, errs.Configurationf("could not decode harness file %q: %w", harnessPath, err)
		}
		if err := harness.LoadHarnessJSON(resolver, bytes.NewReader(cfg.DutConnections)); err != nil {
			return nil, errs.Configurationf("could not load harness file %q: %w", harnessPath, err)
		}
	}

	if netmapPath != "" {
		f, err := os.Open(netmapPath)
		if err != nil {
			return nil, errs.Configurationf("could not open net-map file %q: %w", netmapPath, err)
		}
		defer f.Close()
		if err := harness.LoadNetMapCSV(resolver, f); err != nil {
			return nil, errs.Configurationf("could not load net-map file %q: %w", netmapPath, err)
		}
	}

	return resolver, nil
}
