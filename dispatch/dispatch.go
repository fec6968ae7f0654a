// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dispatch

import (
	"sync"

	"github.com/go-lpc/hil/canstore"
	"github.com/go-lpc/hil/dbc"
	"github.com/go-lpc/hil/device"
	"github.com/go-lpc/hil/errs"
	"github.com/go-lpc/hil/serialengine"
	"github.com/go-lpc/hil/wire"
)

// Target is the resolved destination of an Action: exactly one of Port,
// Mux, or Bus is set.
type Target struct {
	Port *device.Port
	Mux  *device.MuxChannel
	Bus  *device.CANBus
}

// Dispatcher pattern-matches an (Action, Target) pair into wire calls
// against one device. Foreground operations on the same device are
// serialized by mu, so that commands sharing a response opcode never race
// (spec §4.2's ordering limitation).
type Dispatcher struct {
	mu    sync.Mutex
	dev   *device.Device
	eng   *serialengine.Engine
	codec dbc.Codec
}

// New builds a Dispatcher for one device.
func New(dev *device.Device, eng *serialengine.Engine, codec dbc.Codec) *Dispatcher {
	return &Dispatcher{dev: dev, eng: eng, codec: codec}
}

// Do executes action against target, returning whatever value the action
// shape produces (bool for GetDi, float64 for GetAi, *canstore.Message for
// GetLastCan, []canstore.Message for GetAllCan, nil otherwise).
func (d *Dispatcher) Do(target Target, action Action) (any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch a := action.(type) {
	case SetDo:
		return nil, d.writeDigital(target, a.Level)
	case HiZDo:
		return nil, d.hiZDigital(target)
	case GetDi:
		return d.readDigital(target)
	case SetAo:
		return nil, d.writeAnalogOut(target, a.Volts)
	case HiZAo:
		return nil, d.hiZAnalogOut(target)
	case GetAi:
		return d.readAnalogIn(target)
	case SetPot:
		return nil, d.writePot(target, a.Ohms)
	case SendCan:
		return nil, d.sendCan(target, a.Signal, a.Data)
	case GetLastCan:
		return d.getLastCan(target, a.Filter)
	case GetAllCan:
		return d.getAllCan(target, a.Filter)
	case ClearCan:
		return nil, d.clearCan(target, a.Filter)
	default:
		return nil, errs.Enginef("dispatch: unsupported action %T", action)
	}
}

func pin(target Target) (uint8, device.Mode, bool) {
	if target.Port != nil {
		return target.Port.Pin, target.Port.Mode, true
	}
	if target.Mux != nil {
		return target.Mux.Mux.DataPin, target.Mux.Mux.Mode, true
	}
	return 0, "", false
}

func (d *Dispatcher) programMux(target Target) error {
	if target.Mux == nil {
		return nil
	}
	mc := *target.Mux
	for i, sel := range mc.Mux.SelectPins {
		bit := (mc.Channel >> i) & 1
		if err := d.writeGPIO(sel, bit != 0); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) writeGPIO(p uint8, v bool) error {
	return d.eng.Write(wire.EncodeWriteGPIO(p, v))
}

func (d *Dispatcher) writeDigital(target Target, level bool) error {
	p, mode, ok := pin(target)
	if !ok || mode != device.DO {
		return errs.Enginef("dispatch: action not supported on port")
	}
	if err := d.programMux(target); err != nil {
		return err
	}
	return d.writeGPIO(p, level)
}

func (d *Dispatcher) hiZDigital(target Target) error {
	p, mode, ok := pin(target)
	if !ok || mode != device.DO {
		return errs.Enginef("dispatch: action not supported on port")
	}
	if err := d.programMux(target); err != nil {
		return err
	}
	return d.eng.Write(wire.EncodeHiZGPIO(p))
}

func (d *Dispatcher) readDigital(target Target) (bool, error) {
	p, mode, ok := pin(target)
	if !ok || mode != device.DI {
		return false, errs.Enginef("dispatch: action not supported on port")
	}
	if err := d.programMux(target); err != nil {
		return false, err
	}
	if err := d.eng.Write(wire.EncodeReadGPIO(p)); err != nil {
		return false, err
	}
	body, err := d.eng.AwaitResponse(wire.ReadGPIO, 0)
	if err != nil {
		return false, err
	}
	return wire.DecodeGPIO(body)
}

func (d *Dispatcher) writeAnalogOut(target Target, volts float64) error {
	if target.Port == nil || target.Port.Mode != device.AO {
		return errs.Enginef("dispatch: action not supported on port")
	}
	if d.dev.DAC == nil {
		return errs.Enginef("dispatch: device %s has no DAC configured", d.dev.Name)
	}
	raw, err := d.dev.DAC.VToRaw(volts)
	if err != nil {
		return err
	}
	return d.eng.Write(wire.EncodeWriteDAC(target.Port.Pin, raw))
}

func (d *Dispatcher) hiZAnalogOut(target Target) error {
	if target.Port == nil || target.Port.Mode != device.AO {
		return errs.Enginef("dispatch: action not supported on port")
	}
	return d.eng.Write(wire.EncodeHiZDAC(target.Port.Pin))
}

func (d *Dispatcher) readAnalogIn(target Target) (float64, error) {
	p, mode, ok := pin(target)
	if !ok || (mode != device.AI && mode != device.AI5 && mode != device.AI24) {
		return 0, errs.Enginef("dispatch: action not supported on port")
	}
	if err := d.programMux(target); err != nil {
		return 0, err
	}
	if err := d.eng.Write(wire.EncodeReadADC(p)); err != nil {
		return 0, err
	}
	body, err := d.eng.AwaitResponse(wire.ReadADC, 0)
	if err != nil {
		return 0, err
	}
	raw, err := wire.DecodeADC(body)
	if err != nil {
		return 0, err
	}
	switch mode {
	case device.AI:
		return d.dev.ADC.RawToV(raw), nil
	case device.AI5:
		return d.dev.ADC.RawTo5V(raw)
	case device.AI24:
		return d.dev.ADC.RawTo24V(raw)
	default:
		return 0, errs.Enginef("dispatch: unreachable AI mode %s", mode)
	}
}

func (d *Dispatcher) writePot(target Target, ohms float64) error {
	if target.Port == nil || target.Port.Mode != device.POT {
		return errs.Enginef("dispatch: action not supported on port")
	}
	if d.dev.Pot == nil {
		return errs.Enginef("dispatch: device %s has no POT configured", d.dev.Name)
	}
	raw, err := d.dev.Pot.OhmsToRaw(ohms)
	if err != nil {
		return err
	}
	return d.eng.Write(wire.EncodeWritePOT(target.Port.Pin, raw))
}

// drainCAN decodes every queued RECV_CAN frame for bus into the device's
// store, using the codec to resolve each frame id back to a signal name
// when the codec recognizes it.
func (d *Dispatcher) drainCAN(bus device.CANBus) error {
	store := d.dev.CANStore(bus.Bus)
	for _, body := range d.eng.DrainCAN(bus.Bus) {
		frame, err := wire.DecodeCAN(body)
		if err != nil {
			return err
		}
		fields, err := d.codec.Decode(frame.ID, frame.Data)
		if err != nil {
			// An undecodable frame (unknown id) is still recorded, keyed by id.
			store.Append(canstore.Message{Signal: canstore.ByFrameID(frame.ID)})
			continue
		}
		name, err := d.codec.NameByFrame(frame.ID)
		if err != nil {
			// Decoded but the codec can't name the frame; keep it queryable
			// by id at least.
			store.Append(canstore.Message{Signal: canstore.ByFrameID(frame.ID), Fields: fields})
			continue
		}
		store.Append(canstore.Message{Signal: canstore.Resolved(name, frame.ID), Fields: fields})
	}
	return nil
}

func (d *Dispatcher) sendCan(target Target, sig canstore.Signal, data map[string]float64) error {
	if target.Bus == nil {
		return errs.Enginef("dispatch: action not supported on port")
	}
	if err := d.drainCAN(*target.Bus); err != nil {
		return err
	}

	var (
		id   uint32
		name string
		err  error
	)
	if sig.ByID {
		id, err = d.codec.IDByFrame(sig.ID)
		if err != nil {
			return err
		}
		name, err = d.codec.NameByFrame(sig.ID)
	} else {
		name = sig.Name
		id, err = d.codec.IDByName(name)
	}
	if err != nil {
		return err
	}

	payload, err := d.codec.Encode(name, data)
	if err != nil {
		return err
	}

	return d.eng.Write(wire.EncodeSendCAN(target.Bus.Bus, id, payload))
}

func (d *Dispatcher) getLastCan(target Target, filter canstore.Filter) (*canstore.Message, error) {
	if target.Bus == nil {
		return nil, errs.Enginef("dispatch: action not supported on port")
	}
	if err := d.drainCAN(*target.Bus); err != nil {
		return nil, err
	}
	msg, ok := d.dev.CANStore(target.Bus.Bus).Last(filter)
	if !ok {
		return nil, nil
	}
	return &msg, nil
}

func (d *Dispatcher) getAllCan(target Target, filter canstore.Filter) ([]canstore.Message, error) {
	if target.Bus == nil {
		return nil, errs.Enginef("dispatch: action not supported on port")
	}
	if err := d.drainCAN(*target.Bus); err != nil {
		return nil, err
	}
	return d.dev.CANStore(target.Bus.Bus).All(filter), nil
}

func (d *Dispatcher) clearCan(target Target, filter canstore.Filter) error {
	if target.Bus == nil {
		return errs.Enginef("dispatch: action not supported on port")
	}
	if err := d.drainCAN(*target.Bus); err != nil {
		return err
	}
	d.dev.CANStore(target.Bus.Bus).Clear(filter)
	return nil
}
