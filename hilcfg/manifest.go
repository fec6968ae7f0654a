// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hilcfg loads the files a HIL front-end (cmd/hil-srv,
// cmd/hil-console) needs to boot: the device manifest, the net-map CSV,
// and the harness-connections JSON, shared here so neither command
// duplicates the other's file-loading logic.
package hilcfg // import "github.com/go-lpc/hil/hilcfg"

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/go-lpc/hil/dbc"
	"github.com/go-lpc/hil/device"
	"github.com/go-lpc/hil/errs"
)

// DeviceEntry names one expected device: its id, name, and the config
// file that describes it.
type DeviceEntry struct {
	ID     uint8  `json:"id"`
	Name   string `json:"name"`
	Config string `json:"config"`
	DBC    string `json:"dbc"` // reserved: real DBC loading is out of scope
}

// DeviceManifest is a flat list of expected devices, resolved relative to
// the manifest file's own directory.
type DeviceManifest struct {
	dir     string
	entries map[uint8]DeviceEntry
}

type deviceManifestJSON struct {
	Devices []DeviceEntry `json:"devices"`
}

// LoadDeviceManifest reads a device manifest JSON file.
func LoadDeviceManifest(path string) (DeviceManifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return DeviceManifest{}, errs.Configurationf("could not open %q: %w", path, err)
	}
	defer f.Close()

	var raw deviceManifestJSON
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return DeviceManifest{}, errs.Configurationf("could not decode %q: %w", path, err)
	}

	m := DeviceManifest{dir: filepath.Dir(path), entries: make(map[uint8]DeviceEntry, len(raw.Devices))}
	for _, e := range raw.Devices {
		if _, dup := m.entries[e.ID]; dup {
			return DeviceManifest{}, errs.Configurationf("%q: duplicate device id %d", path, e.ID)
		}
		m.entries[e.ID] = e
	}
	return m, nil
}

// ExpectedIDs returns the device ids the manifest names, for discovery.
func (m DeviceManifest) ExpectedIDs() []uint8 {
	ids := make([]uint8, 0, len(m.entries))
	for id := range m.entries {
		ids = append(ids, id)
	}
	return ids
}

// DevFor resolves a discovered device id to its Device model and DBC
// codec, reading the manifest entry's config file relative to the
// manifest's own directory. It satisfies devmgr.Manager.AttachAll's
// devFor parameter.
func (m DeviceManifest) DevFor(id uint8) (*device.Device, dbc.Codec, error) {
	e, ok := m.entries[id]
	if !ok {
		return nil, nil, errs.Configurationf("device id %d is not named in the manifest", id)
	}
	path := e.Config
	if !filepath.IsAbs(path) {
		path = filepath.Join(m.dir, path)
	}
	dev, err := device.LoadConfigFile(id, e.Name, path)
	if err != nil {
		return nil, nil, errs.Configurationf("device %q (id=%d): %w", e.Name, id, err)
	}
	// DBC file parsing is out of scope; an empty codec answers "unknown
	// signal" for every CAN operation until a richer Codec is wired in.
	return dev, dbc.NewStatic(nil), nil
}
