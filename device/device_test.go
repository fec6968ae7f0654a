// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package device

import (
	"strings"
	"testing"

	"github.com/go-lpc/hil/errs"
)

func newTestDevice(t *testing.T) *Device {
	t.Helper()
	dev, err := New(1, "X",
		[]Port{
			{Name: "DO1", Pin: 1, Mode: DO},
			{Name: "DI1", Pin: 2, Mode: DI},
		},
		[]Mux{
			{Name: "DMUX", Mode: DI, SelectPins: []uint8{5, 6, 7}, DataPin: 8},
		},
		[]CANBus{{Name: "BUS0", Bus: 1}},
		ADCCalibration{BitResolution: 12, RefV: 3.3},
		nil, nil,
	)
	if err != nil {
		t.Fatalf("could not build device: %v", err)
	}
	return dev
}

func TestPortLookup(t *testing.T) {
	dev := newTestDevice(t)
	p, ok := dev.Port("DO1")
	if !ok || p.Pin != 1 || p.Mode != DO {
		t.Fatalf("unexpected port lookup result: %+v, %v", p, ok)
	}
	if _, ok := dev.Port("nope"); ok {
		t.Fatalf("expected lookup miss")
	}
}

func TestMuxChannelParsing(t *testing.T) {
	dev := newTestDevice(t)
	for _, tc := range []struct {
		name string
		ok   bool
		ch   int
	}{
		{"DMUX_0", true, 0},
		{"DMUX_7", true, 7},
		{"DMUX_8", false, 0},  // out of range: only 3 select pins -> 8 channels [0,8)
		{"DMUX_-1", false, 0}, // not a valid non-negative integer
		{"OTHER_0", false, 0},
	} {
		mc, ok := dev.MuxChannel(tc.name)
		if ok != tc.ok {
			t.Fatalf("%s: ok=%v, want %v", tc.name, ok, tc.ok)
		}
		if ok && mc.Channel != tc.ch {
			t.Fatalf("%s: channel=%d, want %d", tc.name, mc.Channel, tc.ch)
		}
	}
}

func TestResolveDirectPortWinsOverMux(t *testing.T) {
	dev, err := New(1, "X",
		[]Port{{Name: "DMUX_0", Pin: 9, Mode: DO}},
		[]Mux{{Name: "DMUX", Mode: DO, SelectPins: []uint8{1}, DataPin: 2}},
		nil, ADCCalibration{BitResolution: 8, RefV: 3.3}, nil, nil,
	)
	if err != nil {
		t.Fatalf("could not build device: %v", err)
	}

	port, mux, ok := dev.Resolve("DMUX_0")
	if !ok || port == nil || mux != nil {
		t.Fatalf("expected direct port match to win, got port=%v mux=%v ok=%v", port, mux, ok)
	}
}

func TestDuplicatePortNameRejected(t *testing.T) {
	_, err := New(1, "X",
		[]Port{{Name: "DO1", Pin: 1, Mode: DO}, {Name: "DO1", Pin: 2, Mode: DO}},
		nil, nil, ADCCalibration{BitResolution: 8, RefV: 3.3}, nil, nil,
	)
	if !errs.Is(err, errs.Configuration) {
		t.Fatalf("expected a Configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "duplicate port") {
		t.Fatalf("unexpected error message: %v", err)
	}
}

func TestRoundTripCalibration(t *testing.T) {
	dac := DACCalibration{BitResolution: 8, RefV: 5.0}
	for v := 0.0; v <= 5.0; v += 0.1 {
		raw, err := dac.VToRaw(v)
		if err != nil {
			t.Fatalf("VToRaw(%g): %v", v, err)
		}
		got := dac.RawToV(raw)
		lsb := dac.RefV / 255
		if diff := got - v; diff > lsb || diff < -lsb {
			t.Fatalf("VToRaw/RawToV(%g) = %g, outside one LSB (%g)", v, got, lsb)
		}
	}

	if _, err := dac.VToRaw(-0.1); !errs.Is(err, errs.Range) {
		t.Fatalf("expected Range error below 0, got %v", err)
	}
	if _, err := dac.VToRaw(5.1); !errs.Is(err, errs.Range) {
		t.Fatalf("expected Range error above ref_v, got %v", err)
	}
}

func TestPOTMonotonic(t *testing.T) {
	pot := POTCalibration{BitResolution: 8, RefOhms: 10000, WiperOhms: 100}
	prev := -1
	for o := pot.WiperOhms; o <= pot.WiperOhms+pot.RefOhms; o += 100 {
		raw, err := pot.OhmsToRaw(o)
		if err != nil {
			t.Fatalf("OhmsToRaw(%g): %v", o, err)
		}
		if int(raw) < prev {
			t.Fatalf("OhmsToRaw not monotonic at %g: got %d after %d", o, raw, prev)
		}
		prev = int(raw)
	}
}

func TestADCConversion(t *testing.T) {
	adc := ADCCalibration{BitResolution: 12, RefV: 3.3}
	got := adc.RawToV(2048)
	want := 3.3 * 2048 / 4095
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("RawToV(2048) = %g, want %g", got, want)
	}
}
