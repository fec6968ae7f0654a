// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hil

import "github.com/go-lpc/hil/canstore"

// DoHandle is a bound reference to one digital output.
type DoHandle struct {
	f          *Facade
	Board, Net string
}

// Do returns a handle to the digital output at (board, net). Resolution is
// deferred to first use, matching Set/HiZ/Get's own error reporting.
func (f *Facade) Do(board, net string) DoHandle { return DoHandle{f: f, Board: board, Net: net} }

func (h DoHandle) Set(level bool) error { return h.f.SetDo(h.Board, h.Net, level) }
func (h DoHandle) HiZ() error           { return h.f.HiZDo(h.Board, h.Net) }
func (h DoHandle) String() string       { return h.f.describe(h.Board, h.Net) }

// DiHandle is a bound reference to one digital input.
type DiHandle struct {
	f          *Facade
	Board, Net string
}

func (f *Facade) Di(board, net string) DiHandle { return DiHandle{f: f, Board: board, Net: net} }

func (h DiHandle) Get() (bool, error) { return h.f.GetDi(h.Board, h.Net) }
func (h DiHandle) String() string     { return h.f.describe(h.Board, h.Net) }

// AoHandle is a bound reference to one analog output.
type AoHandle struct {
	f          *Facade
	Board, Net string
}

func (f *Facade) Ao(board, net string) AoHandle { return AoHandle{f: f, Board: board, Net: net} }

func (h AoHandle) Set(volts float64) error { return h.f.SetAo(h.Board, h.Net, volts) }
func (h AoHandle) HiZ() error              { return h.f.HiZAo(h.Board, h.Net) }
func (h AoHandle) String() string          { return h.f.describe(h.Board, h.Net) }

// AiHandle is a bound reference to one analog input.
type AiHandle struct {
	f          *Facade
	Board, Net string
}

func (f *Facade) Ai(board, net string) AiHandle { return AiHandle{f: f, Board: board, Net: net} }

func (h AiHandle) Get() (float64, error) { return h.f.GetAi(h.Board, h.Net) }
func (h AiHandle) String() string        { return h.f.describe(h.Board, h.Net) }

// PotHandle is a bound reference to one digital potentiometer.
type PotHandle struct {
	f          *Facade
	Board, Net string
}

func (f *Facade) Pot(board, net string) PotHandle { return PotHandle{f: f, Board: board, Net: net} }

func (h PotHandle) Set(ohms float64) error { return h.f.SetPot(h.Board, h.Net, ohms) }
func (h PotHandle) String() string         { return h.f.describe(h.Board, h.Net) }

// CanHandle is a bound reference to one CAN bus.
type CanHandle struct {
	f          *Facade
	Board, Net string
}

func (f *Facade) Can(board, net string) CanHandle { return CanHandle{f: f, Board: board, Net: net} }

func (h CanHandle) Send(signal canstore.Signal, data map[string]float64) error {
	return h.f.SendCan(h.Board, h.Net, signal, data)
}
func (h CanHandle) Last(filter canstore.Filter) (*canstore.Message, error) {
	return h.f.GetLastCan(h.Board, h.Net, filter)
}
func (h CanHandle) All(filter canstore.Filter) ([]canstore.Message, error) {
	return h.f.GetAllCan(h.Board, h.Net, filter)
}
func (h CanHandle) Clear(filter canstore.Filter) error {
	return h.f.ClearCan(h.Board, h.Net, filter)
}
func (h CanHandle) String() string { return h.f.describe(h.Board, h.Net) }
