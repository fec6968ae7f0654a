// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package device

import (
	"encoding/json"
	"io"
	"os"

	"github.com/go-lpc/hil/errs"
)

// portJSON mirrors one entry of a device config file's "ports" array.
type portJSON struct {
	Name string `json:"name"`
	Port uint8  `json:"port"`
	Mode string `json:"mode"`
}

type muxJSON struct {
	Name        string  `json:"name"`
	Mode        string  `json:"mode"`
	SelectPorts []uint8 `json:"select_ports"`
	Port        uint8   `json:"port"`
}

type canJSON struct {
	Name string `json:"name"`
	Bus  uint8  `json:"bus"`
}

type adcJSON struct {
	BitResolution uint     `json:"bit_resolution"`
	RefV          float64  `json:"adc_reference_v"`
	V5Ref         *float64 `json:"5v_reference_v"`
	V24Ref        *float64 `json:"24v_reference_v"`
}

type dacJSON struct {
	BitResolution uint    `json:"bit_resolution"`
	RefV          float64 `json:"reference_v"`
}

type potJSON struct {
	BitResolution uint    `json:"bit_resolution"`
	RefOhms       float64 `json:"reference_ohms"`
	WiperOhms     float64 `json:"wiper_ohms"`
}

// configJSON mirrors spec §6's per-device JSON config file.
type configJSON struct {
	Ports []portJSON `json:"ports"`
	Muxs  []muxJSON  `json:"muxs"`
	CAN   []canJSON  `json:"can"`
	ADC   adcJSON    `json:"adc_config"`
	DAC   *dacJSON   `json:"dac_config"`
	Pot   *potJSON   `json:"pot_config"`
}

// LoadConfig reads a per-device JSON config file (spec §6) and builds the
// Device it describes.
func LoadConfig(id uint8, name string, r io.Reader) (*Device, error) {
	var cfg configJSON
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, errs.Configurationf("device %s: could not decode config: %w", name, err)
	}

	ports := make([]Port, len(cfg.Ports))
	for i, p := range cfg.Ports {
		ports[i] = Port{Name: p.Name, Pin: p.Port, Mode: Mode(p.Mode)}
	}

	muxes := make([]Mux, len(cfg.Muxs))
	for i, m := range cfg.Muxs {
		muxes[i] = Mux{Name: m.Name, Mode: Mode(m.Mode), SelectPins: m.SelectPorts, DataPin: m.Port}
	}

	buses := make([]CANBus, len(cfg.CAN))
	for i, b := range cfg.CAN {
		buses[i] = CANBus{Name: b.Name, Bus: b.Bus}
	}

	adc := ADCCalibration{BitResolution: cfg.ADC.BitResolution, RefV: cfg.ADC.RefV}
	if cfg.ADC.V5Ref != nil {
		adc.V5Ref = *cfg.ADC.V5Ref
	}
	if cfg.ADC.V24Ref != nil {
		adc.V24Ref = *cfg.ADC.V24Ref
	}

	var dac *DACCalibration
	if cfg.DAC != nil {
		dac = &DACCalibration{BitResolution: cfg.DAC.BitResolution, RefV: cfg.DAC.RefV}
	}

	var pot *POTCalibration
	if cfg.Pot != nil {
		pot = &POTCalibration{BitResolution: cfg.Pot.BitResolution, RefOhms: cfg.Pot.RefOhms, WiperOhms: cfg.Pot.WiperOhms}
	}

	return New(id, name, ports, muxes, buses, adc, dac, pot)
}

// LoadConfigFile opens path and loads a device config from it.
func LoadConfigFile(id uint8, name, path string) (*Device, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Configurationf("device %s: could not open config %q: %w", name, path, err)
	}
	defer f.Close()
	return LoadConfig(id, name, f)
}
