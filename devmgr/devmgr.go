// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package devmgr owns the set of HIL devices attached to one process:
// binding discovery results to serial engines and device descriptions,
// keeping a registry by device id, and closing everything down together.
package devmgr // import "github.com/go-lpc/hil/devmgr"

import (
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/go-lpc/hil/dbc"
	"github.com/go-lpc/hil/device"
	"github.com/go-lpc/hil/dispatch"
	"github.com/go-lpc/hil/discovery"
	"github.com/go-lpc/hil/errs"
	"github.com/go-lpc/hil/serialengine"
)

// Entry is one attached device: its static description, its live serial
// engine, and the dispatcher built on top of both.
type Entry struct {
	Device     *device.Device
	Engine     *serialengine.Engine
	Dispatcher *dispatch.Dispatcher
}

// Manager is the registry of every attached device, keyed by device id.
// It mirrors rpi/server.go's srv.rdos map[uint32]*Readout registry.
type Manager struct {
	msg     *log.Logger
	devices map[uint8]*Entry
}

// New returns an empty Manager. msg receives lifecycle log lines; a nil
// logger discards them.
func New(msg *log.Logger) *Manager {
	if msg == nil {
		msg = log.New(discardWriter{}, "", 0)
	}
	return &Manager{msg: msg, devices: make(map[uint8]*Entry)}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// Attach binds one already-claimed serial link to its static device
// description, starts its serial engine and dispatcher, and registers it.
// It fails if a device with the same id is already attached.
func (m *Manager) Attach(claim discovery.Claimed, dev *device.Device, codec dbc.Codec) (*Entry, error) {
	if _, dup := m.devices[claim.ID]; dup {
		return nil, errs.Configurationf("devmgr: device id %d already attached", claim.ID)
	}
	eng := serialengine.New(claim.Link, claim.Preload, m.msg)
	entry := &Entry{
		Device:     dev,
		Engine:     eng,
		Dispatcher: dispatch.New(dev, eng, codec),
	}
	m.devices[claim.ID] = entry
	m.msg.Printf("attached device id=%d port=%s name=%s", claim.ID, claim.Port, dev.Name)
	return entry, nil
}

// AttachAll discovers expected device ids on the host and attaches each one,
// looking up its static description via devFor. It fails without attaching
// anything if discovery itself fails to claim every expected id.
func (m *Manager) AttachAll(expected []uint8, list discovery.Lister, open discovery.Opener, devFor func(id uint8) (*device.Device, dbc.Codec, error)) error {
	claims, err := discovery.Discover(expected, list, open, m.msg)
	if err != nil {
		return err
	}
	for id, claim := range claims {
		dev, codec, err := devFor(id)
		if err != nil {
			return errs.Configurationf("devmgr: no device description for id %d: %w", id, err)
		}
		if _, err := m.Attach(claim, dev, codec); err != nil {
			return err
		}
	}
	return nil
}

// Entry looks up the attached entry for a device id.
func (m *Manager) Entry(id uint8) (*Entry, bool) {
	e, ok := m.devices[id]
	return e, ok
}

// ByName looks up the attached entry whose device name matches name.
func (m *Manager) ByName(name string) (*Entry, bool) {
	for _, e := range m.devices {
		if e.Device.Name == name {
			return e, true
		}
	}
	return nil, false
}

// IDs returns every attached device id.
func (m *Manager) IDs() []uint8 {
	ids := make([]uint8, 0, len(m.devices))
	for id := range m.devices {
		ids = append(ids, id)
	}
	return ids
}

// CloseAll stops every attached device's serial engine concurrently,
// mirroring cmd/daq-boot's errgroup fan-out/fan-in shutdown shape, and
// removes them all from the registry.
func (m *Manager) CloseAll() {
	var grp errgroup.Group
	for id, e := range m.devices {
		e := e
		id := id
		grp.Go(func() error {
			e.Engine.Stop()
			m.msg.Printf("closed device id=%d name=%s", id, e.Device.Name)
			return nil
		})
	}
	_ = grp.Wait()
	m.devices = make(map[uint8]*Entry)
}
