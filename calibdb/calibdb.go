// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package calibdb holds an optional MySQL-backed store of per-device
// ADC/DAC/POT calibration records, queried by device id. When a record is
// present it overrides the static calibration loaded from a device's JSON
// config file.
package calibdb // import "github.com/go-lpc/hil/calibdb"

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/go-lpc/hil/device"
	"github.com/go-lpc/hil/errs"
)

const host = "localhost"

var (
	usr = "username"
	pwd = "s3cr3t"

	drvName = "mysql"
)

// DB exposes convenience methods to retrieve calibration records from the
// HIL calibration database.
type DB struct {
	db   *sql.DB
	name string
}

// Open opens a connection to the calibration database dbname.
func Open(dbname string) (*DB, error) {
	db, err := sql.Open(drvName, dsn(dbname))
	if err != nil {
		return nil, errs.Connectionf("calibdb: could not open %q db: %w", dbname, err)
	}

	if err := ping(db, dbname); err != nil {
		return nil, err
	}

	return &DB{db: db, name: dbname}, nil
}

func dsn(db string) string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s", usr, pwd, host, db)
}

func ping(db *sql.DB, dbname string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return errs.Connectionf("calibdb: could not ping %q db: %w", dbname, err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (db *DB) Close() error {
	return db.db.Close()
}

// Record is one device's calibration, as stored in the database. DAC and
// POT are nil when the device has no such port configured.
type Record struct {
	DeviceID uint8
	ADC      device.ADCCalibration
	DAC      *device.DACCalibration
	POT      *device.POTCalibration
}

// LatestCalibration returns the most recently updated calibration record
// for deviceID, or a Configuration error if none exists.
func (db *DB) LatestCalibration(ctx context.Context, deviceID uint8) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var (
		rec        = Record{DeviceID: deviceID}
		adcBits    uint
		adcRefV    float64
		adcV5Ref   sql.NullFloat64
		adcV24Ref  sql.NullFloat64
		dacBits    sql.NullInt64
		dacRefV    sql.NullFloat64
		potBits    sql.NullInt64
		potRefOhms sql.NullFloat64
		potWiperOhms sql.NullFloat64
	)

	row := db.db.QueryRowContext(ctx, `
SELECT adc_bit_resolution, adc_reference_v, adc_5v_reference_v, adc_24v_reference_v,
       dac_bit_resolution, dac_reference_v,
       pot_bit_resolution, pot_reference_ohms, pot_wiper_ohms
FROM calibrations
WHERE device_id = ?
ORDER BY updated_at DESC
LIMIT 1
`, deviceID)

	err := row.Scan(
		&adcBits, &adcRefV, &adcV5Ref, &adcV24Ref,
		&dacBits, &dacRefV,
		&potBits, &potRefOhms, &potWiperOhms,
	)
	switch {
	case err == sql.ErrNoRows:
		return Record{}, errs.Configurationf("calibdb: no calibration record for device %d", deviceID)
	case err != nil:
		return Record{}, errs.Connectionf("calibdb: could not query calibration for device %d: %w", deviceID, err)
	}

	rec.ADC = device.ADCCalibration{BitResolution: adcBits, RefV: adcRefV}
	if adcV5Ref.Valid {
		rec.ADC.V5Ref = adcV5Ref.Float64
	}
	if adcV24Ref.Valid {
		rec.ADC.V24Ref = adcV24Ref.Float64
	}
	if dacBits.Valid && dacRefV.Valid {
		rec.DAC = &device.DACCalibration{BitResolution: uint(dacBits.Int64), RefV: dacRefV.Float64}
	}
	if potBits.Valid && potRefOhms.Valid && potWiperOhms.Valid {
		rec.POT = &device.POTCalibration{
			BitResolution: uint(potBits.Int64),
			RefOhms:       potRefOhms.Float64,
			WiperOhms:     potWiperOhms.Float64,
		}
	}

	if err := ctx.Err(); err != nil {
		return Record{}, errs.Connectionf("calibdb: context error while retrieving calibration for device %d: %w", deviceID, err)
	}

	return rec, nil
}
