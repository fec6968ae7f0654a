// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hil is the user-facing entry point: it resolves (board, net)
// pairs to dispatcher calls via harness.Resolver and devmgr.Manager, and
// tracks touched outputs so Close can HiZ every one of them, at most once,
// on the way out.
package hil // import "github.com/go-lpc/hil/hil"

import (
	"fmt"
	"log"

	"github.com/go-lpc/hil/canstore"
	"github.com/go-lpc/hil/devmgr"
	"github.com/go-lpc/hil/dispatch"
	"github.com/go-lpc/hil/errs"
	"github.com/go-lpc/hil/harness"
)

// outputKind distinguishes the two port categories that own a HiZ opcode.
type outputKind int

const (
	outputDO outputKind = iota
	outputAO
)

type shutdownEntry struct {
	entry  *devmgr.Entry
	target dispatch.Target
	kind   outputKind
}

// Facade is the top-level object a test holds for the duration of a run.
// It is not safe for concurrent use from more than one goroutine (spec §5:
// the shutdown registry is single-threaded, owned by the test runner).
type Facade struct {
	mgr      *devmgr.Manager
	resolver *harness.Resolver
	msg      *log.Logger

	shutdown map[harness.HilDutCon]shutdownEntry
	onCloseErr func(error)
}

// New builds a Facade around an already-populated device manager and
// harness resolver.
func New(mgr *devmgr.Manager, resolver *harness.Resolver, msg *log.Logger) *Facade {
	return &Facade{
		mgr:      mgr,
		resolver: resolver,
		msg:      msg,
		shutdown: make(map[harness.HilDutCon]shutdownEntry),
	}
}

// resolveTarget resolves (board, net) to the device entry and dispatch
// target for a port or mux-channel operation (DO/DI/AO/AI/POT).
func (f *Facade) resolveTarget(board, net string) (*devmgr.Entry, dispatch.Target, harness.HilDutCon, error) {
	con, err := f.resolver.Resolve(board, net)
	if err != nil {
		return nil, dispatch.Target{}, harness.HilDutCon{}, err
	}
	entry, ok := f.mgr.ByName(con.Device)
	if !ok {
		return nil, dispatch.Target{}, con, errs.Connectionf("hil: device %q is not managed", con.Device)
	}
	port, mux, ok := entry.Device.Resolve(con.Port)
	if !ok {
		return nil, dispatch.Target{}, con, errs.Connectionf("hil: device %q has no port or mux channel %q", con.Device, con.Port)
	}
	return entry, dispatch.Target{Port: port, Mux: mux}, con, nil
}

// resolveBus resolves (board, net) to the device entry and dispatch target
// for a CAN bus operation.
func (f *Facade) resolveBus(board, net string) (*devmgr.Entry, dispatch.Target, error) {
	con, err := f.resolver.Resolve(board, net)
	if err != nil {
		return nil, dispatch.Target{}, err
	}
	entry, ok := f.mgr.ByName(con.Device)
	if !ok {
		return nil, dispatch.Target{}, errs.Connectionf("hil: device %q is not managed", con.Device)
	}
	bus, ok := entry.Device.CANBus(con.Port)
	if !ok {
		return nil, dispatch.Target{}, errs.Connectionf("hil: device %q has no CAN bus %q", con.Device, con.Port)
	}
	return entry, dispatch.Target{Bus: &bus}, nil
}

func (f *Facade) track(con harness.HilDutCon, entry *devmgr.Entry, target dispatch.Target, kind outputKind) {
	if _, seen := f.shutdown[con]; seen {
		return
	}
	f.shutdown[con] = shutdownEntry{entry: entry, target: target, kind: kind}
}

// SetDo drives a digital output.
func (f *Facade) SetDo(board, net string, level bool) error {
	entry, target, con, err := f.resolveTarget(board, net)
	if err != nil {
		return err
	}
	f.track(con, entry, target, outputDO)
	_, err = entry.Dispatcher.Do(target, dispatch.SetDo{Level: level})
	return err
}

// HiZDo releases a digital output to high impedance.
func (f *Facade) HiZDo(board, net string) error {
	entry, target, con, err := f.resolveTarget(board, net)
	if err != nil {
		return err
	}
	f.track(con, entry, target, outputDO)
	_, err = entry.Dispatcher.Do(target, dispatch.HiZDo{})
	return err
}

// GetDi reads a digital input.
func (f *Facade) GetDi(board, net string) (bool, error) {
	entry, target, _, err := f.resolveTarget(board, net)
	if err != nil {
		return false, err
	}
	v, err := entry.Dispatcher.Do(target, dispatch.GetDi{})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// SetAo drives an analog output, in volts.
func (f *Facade) SetAo(board, net string, volts float64) error {
	entry, target, con, err := f.resolveTarget(board, net)
	if err != nil {
		return err
	}
	f.track(con, entry, target, outputAO)
	_, err = entry.Dispatcher.Do(target, dispatch.SetAo{Volts: volts})
	return err
}

// HiZAo releases an analog output to high impedance.
func (f *Facade) HiZAo(board, net string) error {
	entry, target, con, err := f.resolveTarget(board, net)
	if err != nil {
		return err
	}
	f.track(con, entry, target, outputAO)
	_, err = entry.Dispatcher.Do(target, dispatch.HiZAo{})
	return err
}

// GetAi reads an analog input, in volts.
func (f *Facade) GetAi(board, net string) (float64, error) {
	entry, target, _, err := f.resolveTarget(board, net)
	if err != nil {
		return 0, err
	}
	v, err := entry.Dispatcher.Do(target, dispatch.GetAi{})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

// SetPot drives a digital potentiometer, in ohms.
func (f *Facade) SetPot(board, net string, ohms float64) error {
	entry, target, _, err := f.resolveTarget(board, net)
	if err != nil {
		return err
	}
	_, err = entry.Dispatcher.Do(target, dispatch.SetPot{Ohms: ohms})
	return err
}

// SendCan transmits a named CAN signal on the bus resolved from (board, net).
func (f *Facade) SendCan(board, net string, signal canstore.Signal, data map[string]float64) error {
	entry, target, err := f.resolveBus(board, net)
	if err != nil {
		return err
	}
	_, err = entry.Dispatcher.Do(target, dispatch.SendCan{Signal: signal, Data: data})
	return err
}

// GetLastCan returns the most recently received CAN message matching
// filter on the bus resolved from (board, net), or nil if none match.
func (f *Facade) GetLastCan(board, net string, filter canstore.Filter) (*canstore.Message, error) {
	entry, target, err := f.resolveBus(board, net)
	if err != nil {
		return nil, err
	}
	v, err := entry.Dispatcher.Do(target, dispatch.GetLastCan{Filter: filter})
	if err != nil {
		return nil, err
	}
	msg, _ := v.(*canstore.Message)
	return msg, nil
}

// GetAllCan returns every received CAN message matching filter on the bus
// resolved from (board, net).
func (f *Facade) GetAllCan(board, net string, filter canstore.Filter) ([]canstore.Message, error) {
	entry, target, err := f.resolveBus(board, net)
	if err != nil {
		return nil, err
	}
	v, err := entry.Dispatcher.Do(target, dispatch.GetAllCan{Filter: filter})
	if err != nil {
		return nil, err
	}
	return v.([]canstore.Message), nil
}

// ClearCan discards stored CAN messages matching filter on the bus resolved
// from (board, net).
func (f *Facade) ClearCan(board, net string, filter canstore.Filter) error {
	entry, target, err := f.resolveBus(board, net)
	if err != nil {
		return err
	}
	_, err = entry.Dispatcher.Do(target, dispatch.ClearCan{Filter: filter})
	return err
}

// OnCloseError registers a callback invoked for every HiZ failure Close
// swallows, in addition to the usual log line. It lets an operator-facing
// wrapper (e.g. cmd/hil-srv's mail alert) learn about a failed shutdown
// without Close itself having to fail a test run over it.
func (f *Facade) OnCloseError(fn func(error)) { f.onCloseErr = fn }

// Close HiZ's every output touched during the session, at most once each,
// then clears the registry. Errors during HiZ are logged and swallowed so
// every output gets a chance to release, per spec §5/§7.
func (f *Facade) Close() {
	for con, se := range f.shutdown {
		var err error
		switch se.kind {
		case outputDO:
			_, err = se.entry.Dispatcher.Do(se.target, dispatch.HiZDo{})
		case outputAO:
			_, err = se.entry.Dispatcher.Do(se.target, dispatch.HiZAo{})
		}
		if err != nil {
			f.logf("close: could not HiZ %s: %v", con, err)
			if f.onCloseErr != nil {
				f.onCloseErr(fmt.Errorf("hil: could not HiZ %s: %w", con, err))
			}
		}
	}
	f.shutdown = make(map[harness.HilDutCon]shutdownEntry)
}

// describe renders (board, net) as "<board>.<net> (<hil_device>.<hil_port>)"
// for operator-facing logs, falling back to the bare (board, net) pair when
// resolution fails.
func (f *Facade) describe(board, net string) string {
	con, err := f.resolver.Resolve(board, net)
	if err != nil {
		return board + "." + net
	}
	return board + "." + net + " (" + con.String() + ")"
}

func (f *Facade) logf(format string, args ...any) {
	if f.msg != nil {
		f.msg.Printf(format, args...)
	}
}
