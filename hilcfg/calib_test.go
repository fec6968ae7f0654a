// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hilcfg

import (
	"context"
	"testing"

	"github.com/go-lpc/hil/calibdb"
	"github.com/go-lpc/hil/dbc"
	"github.com/go-lpc/hil/device"
	"github.com/go-lpc/hil/errs"
)

type fakeCalibSource struct {
	rec calibdb.Record
	err error
}

func (f fakeCalibSource) LatestCalibration(ctx context.Context, deviceID uint8) (calibdb.Record, error) {
	return f.rec, f.err
}

func newTestDevice(t *testing.T) *device.Device {
	t.Helper()
	dev, err := device.New(1, "X", nil, nil, nil,
		device.ADCCalibration{BitResolution: 10, RefV: 3.3}, nil, nil)
	if err != nil {
		t.Fatalf("device.New: %v", err)
	}
	return dev
}

func TestWithCalibDBOverridesOnRecord(t *testing.T) {
	base := newTestDevice(t)
	devFor := func(id uint8) (*device.Device, dbc.Codec, error) {
		return base, dbc.NewStatic(nil), nil
	}

	src := fakeCalibSource{rec: calibdb.Record{
		DeviceID: 1,
		ADC:      device.ADCCalibration{BitResolution: 12, RefV: 5.0},
	}}

	dev, _, err := WithCalibDB(devFor, src)(1)
	if err != nil {
		t.Fatalf("WithCalibDB: %v", err)
	}
	if dev.ADC.BitResolution != 12 || dev.ADC.RefV != 5.0 {
		t.Fatalf("ADC not overridden: %+v", dev.ADC)
	}
}

func TestWithCalibDBKeepsStaticOnNoRecord(t *testing.T) {
	base := newTestDevice(t)
	devFor := func(id uint8) (*device.Device, dbc.Codec, error) {
		return base, dbc.NewStatic(nil), nil
	}

	src := fakeCalibSource{err: errs.Configurationf("calibdb: no calibration record for device %d", 1)}

	dev, _, err := WithCalibDB(devFor, src)(1)
	if err != nil {
		t.Fatalf("WithCalibDB: %v", err)
	}
	if dev.ADC.BitResolution != 10 || dev.ADC.RefV != 3.3 {
		t.Fatalf("static calibration should be kept, got %+v", dev.ADC)
	}
}

func TestWithCalibDBPropagatesConnectionError(t *testing.T) {
	devFor := func(id uint8) (*device.Device, dbc.Codec, error) {
		return newTestDevice(t), dbc.NewStatic(nil), nil
	}
	src := fakeCalibSource{err: errs.Connectionf("calibdb: could not query calibration for device %d", 1)}

	if _, _, err := WithCalibDB(devFor, src)(1); err == nil {
		t.Fatalf("expected a propagated connection error")
	}
}

func TestWithCalibDBPropagatesDevForError(t *testing.T) {
	wantErr := errs.Connectionf("no such device")
	devFor := func(id uint8) (*device.Device, dbc.Codec, error) { return nil, nil, wantErr }
	src := fakeCalibSource{}

	if _, _, err := WithCalibDB(devFor, src)(1); err == nil {
		t.Fatalf("expected devFor's error to be propagated")
	}
}
