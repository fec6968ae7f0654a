// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package device

import (
	"math"

	"github.com/go-lpc/hil/errs"
)

// ADCCalibration converts raw ADC readings to volts, with optional 5V/24V
// divider references for AI5/AI24 port modes.
type ADCCalibration struct {
	BitResolution uint
	RefV          float64
	V5Ref         float64 // 0 if unset
	V24Ref        float64 // 0 if unset
}

func (c ADCCalibration) full() float64 { return float64(uint64(1)<<c.BitResolution) - 1 }

// RawToV converts a raw ADC code to volts at the ADC pin.
func (c ADCCalibration) RawToV(raw uint16) float64 {
	return float64(raw) / c.full() * c.RefV
}

// RawTo5V converts a raw ADC code through the 5V divider reference.
func (c ADCCalibration) RawTo5V(raw uint16) (float64, error) {
	if c.V5Ref == 0 {
		return 0, errs.Enginef("device: ADC has no 5v_reference_v configured")
	}
	return c.RawToV(raw) / c.V5Ref * 5, nil
}

// RawTo24V converts a raw ADC code through the 24V divider reference.
func (c ADCCalibration) RawTo24V(raw uint16) (float64, error) {
	if c.V24Ref == 0 {
		return 0, errs.Enginef("device: ADC has no 24v_reference_v configured")
	}
	return c.RawToV(raw) / c.V24Ref * 24, nil
}

// DACCalibration converts a requested output voltage to a raw DAC code.
type DACCalibration struct {
	BitResolution uint
	RefV          float64
}

func (c DACCalibration) full() float64 { return float64(uint64(1)<<c.BitResolution) - 1 }

// VToRaw converts volts to a raw DAC code, failing a Range error outside
// [0, RefV].
func (c DACCalibration) VToRaw(v float64) (uint8, error) {
	if v < 0 || v > c.RefV {
		return 0, errs.Rangef("device: voltage %g out of DAC range [0, %g]", v, c.RefV)
	}
	raw := math.Floor(v / c.RefV * c.full())
	return uint8(raw), nil
}

// RawToV is the inverse of VToRaw, used by round-trip tests.
func (c DACCalibration) RawToV(raw uint8) float64 {
	return float64(raw) / c.full() * c.RefV
}

// POTCalibration converts a requested resistance to a raw wiper code.
type POTCalibration struct {
	BitResolution uint
	RefOhms       float64
	WiperOhms     float64
}

func (c POTCalibration) full() float64 { return float64(uint64(1)<<c.BitResolution) - 1 }

// OhmsToRaw converts ohms to a raw wiper code, failing a Range error
// outside [WiperOhms, WiperOhms+RefOhms].
func (c POTCalibration) OhmsToRaw(ohms float64) (uint8, error) {
	lo, hi := c.WiperOhms, c.WiperOhms+c.RefOhms
	if ohms < lo || ohms > hi {
		return 0, errs.Rangef("device: resistance %g out of POT range [%g, %g]", ohms, lo, hi)
	}
	raw := math.Floor(c.full() * (ohms - c.WiperOhms) / c.RefOhms)
	return uint8(raw), nil
}
