// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package device holds the static description of a single HIL device:
// its ports, muxes, CAN buses, and ADC/DAC/POT calibration, plus the JSON
// config loader that builds one.
package device // import "github.com/go-lpc/hil/device"

import (
	"strconv"
	"strings"

	"github.com/go-lpc/hil/canstore"
	"github.com/go-lpc/hil/errs"
)

// Mode names the electrical role of a Port.
type Mode string

const (
	DO  Mode = "DO"
	DI  Mode = "DI"
	AO  Mode = "AO"
	AI  Mode = "AI"
	AI5 Mode = "AI5"
	AI24 Mode = "AI24"
	POT Mode = "POT"
)

// Port is one addressable pin on a device.
type Port struct {
	Name string
	Pin  uint8
	Mode Mode
}

// Mux is a select-pin-addressed analog/digital multiplexer attached to a
// device. Channel selection is encoded in binary across SelectPins, LSB
// first.
type Mux struct {
	Name       string
	Mode       Mode
	SelectPins []uint8
	DataPin    uint8
}

// Channels returns the number of addressable channels on m.
func (m Mux) Channels() int { return 1 << len(m.SelectPins) }

// MuxChannel names one channel of a Mux.
type MuxChannel struct {
	Mux     Mux
	Channel int
}

// CANBus is one numbered physical CAN bus on a device.
type CANBus struct {
	Name string
	Bus  uint8
}

// Device is the static description of one HIL device plus its live CAN
// message stores (one per configured bus).
type Device struct {
	ID   uint8
	Name string

	ports map[string]Port
	muxes map[string]Mux
	buses map[string]CANBus

	ADC ADCCalibration
	DAC *DACCalibration
	Pot *POTCalibration

	canStores map[uint8]*canstore.Store
}

// New builds a Device from its static configuration.
func New(id uint8, name string, ports []Port, muxes []Mux, buses []CANBus, adc ADCCalibration, dac *DACCalibration, pot *POTCalibration) (*Device, error) {
	d := &Device{
		ID:        id,
		Name:      name,
		ports:     make(map[string]Port, len(ports)),
		muxes:     make(map[string]Mux, len(muxes)),
		buses:     make(map[string]CANBus, len(buses)),
		ADC:       adc,
		DAC:       dac,
		Pot:       pot,
		canStores: make(map[uint8]*canstore.Store, len(buses)),
	}
	for _, p := range ports {
		if _, dup := d.ports[p.Name]; dup {
			return nil, errs.Configurationf("device %s: duplicate port name %q", name, p.Name)
		}
		d.ports[p.Name] = p
	}
	for _, m := range muxes {
		if _, dup := d.muxes[m.Name]; dup {
			return nil, errs.Configurationf("device %s: duplicate mux name %q", name, m.Name)
		}
		d.muxes[m.Name] = m
	}
	for _, b := range buses {
		if _, dup := d.buses[b.Name]; dup {
			return nil, errs.Configurationf("device %s: duplicate CAN bus name %q", name, b.Name)
		}
		d.buses[b.Name] = b
		d.canStores[b.Bus] = canstore.New()
	}
	return d, nil
}

// Port looks up a direct port by name.
func (d *Device) Port(name string) (Port, bool) {
	p, ok := d.ports[name]
	return p, ok
}

// CANBus looks up a CAN bus by name.
func (d *Device) CANBus(name string) (CANBus, bool) {
	b, ok := d.buses[name]
	return b, ok
}

// CANStore returns the message store for bus, creating one if necessary.
func (d *Device) CANStore(bus uint8) *canstore.Store {
	s, ok := d.canStores[bus]
	if !ok {
		s = canstore.New()
		d.canStores[bus] = s
	}
	return s
}

// MuxChannel parses name as "MUXNAME_n" and resolves it against the
// device's known muxes. It returns ok=false, not an error, when name does
// not look like a mux-channel reference at all.
func (d *Device) MuxChannel(name string) (MuxChannel, bool) {
	idx := strings.LastIndex(name, "_")
	if idx < 0 {
		return MuxChannel{}, false
	}
	prefix, suffix := name[:idx], name[idx+1:]
	mux, ok := d.muxes[prefix]
	if !ok {
		return MuxChannel{}, false
	}
	n, err := strconv.Atoi(suffix)
	if err != nil || n < 0 || n >= mux.Channels() {
		return MuxChannel{}, false
	}
	return MuxChannel{Mux: mux, Channel: n}, true
}

// Resolve looks up name as either a direct port or a mux channel. A direct
// port match wins when both are possible.
func (d *Device) Resolve(name string) (port *Port, mux *MuxChannel, ok bool) {
	if p, found := d.Port(name); found {
		return &p, nil, true
	}
	if mc, found := d.MuxChannel(name); found {
		return nil, &mc, true
	}
	return nil, nil, false
}
