// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dispatch resolves a tagged Action and a resolved device target
// into concrete wire calls: GPIO/DAC/ADC/POT commands, MUX channel
// programming, unit conversion, and CAN send/receive/store operations.
package dispatch // import "github.com/go-lpc/hil/dispatch"

import "github.com/go-lpc/hil/canstore"

// Action is a closed tagged variant of the operations the dispatcher can
// perform. Concrete variants are defined below; isAction is unexported so
// no type outside this package can implement Action.
type Action interface {
	isAction()
}

type SetDo struct{ Level bool }
type HiZDo struct{}
type GetDi struct{}

type SetAo struct{ Volts float64 }
type HiZAo struct{}
type GetAi struct{}

type SetPot struct{ Ohms float64 }

type SendCan struct {
	Signal canstore.Signal
	Data   map[string]float64
}
type GetLastCan struct{ Filter canstore.Filter }
type GetAllCan struct{ Filter canstore.Filter }
type ClearCan struct{ Filter canstore.Filter }

func (SetDo) isAction()      {}
func (HiZDo) isAction()      {}
func (GetDi) isAction()      {}
func (SetAo) isAction()      {}
func (HiZAo) isAction()      {}
func (GetAi) isAction()      {}
func (SetPot) isAction()     {}
func (SendCan) isAction()    {}
func (GetLastCan) isAction() {}
func (GetAllCan) isAction()  {}
func (ClearCan) isAction()   {}
