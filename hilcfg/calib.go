// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hilcfg // import "github.com/go-lpc/hil/hilcfg"

import (
	"context"

	"github.com/go-lpc/hil/calibdb"
	"github.com/go-lpc/hil/dbc"
	"github.com/go-lpc/hil/device"
	"github.com/go-lpc/hil/errs"
)

// CalibSource retrieves a device's latest calibration record. *calibdb.DB
// satisfies it; tests may substitute a fake.
type CalibSource interface {
	LatestCalibration(ctx context.Context, deviceID uint8) (calibdb.Record, error)
}

// WithCalibDB wraps devFor so that, after loading a device's static JSON
// calibration, a calibdb record (if any) overrides it. A missing record is
// not an error: the static config stands. Any other calibdb failure (e.g. a
// lost database connection) is propagated.
func WithCalibDB(devFor func(id uint8) (*device.Device, dbc.Codec, error), db CalibSource) func(id uint8) (*device.Device, dbc.Codec, error) {
	return func(id uint8) (*device.Device, dbc.Codec, error) {
		dev, codec, err := devFor(id)
		if err != nil {
			return nil, nil, err
		}

		rec, err := db.LatestCalibration(context.Background(), id)
		switch {
		case err != nil && errs.Is(err, errs.Configuration):
			return dev, codec, nil
		case err != nil:
			return nil, nil, err
		}

		dev.ADC = rec.ADC
		dev.DAC = rec.DAC
		dev.Pot = rec.POT
		return dev, codec, nil
	}
}
