// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/go-daq/tdaq"

	"github.com/go-lpc/hil/calibdb"
	"github.com/go-lpc/hil/devmgr"
	"github.com/go-lpc/hil/hil"
	"github.com/go-lpc/hil/hilcfg"
)

// hilDevice adapts a hil.Facade to the TDAQ command surface, the same way
// rpi.Server adapts a set of FTDI readouts: /config discovers and attaches
// the expected devices, /init is a no-op, and /quit releases
// every touched output via Facade.Close.
type hilDevice struct {
	facade   *hil.Facade
	mgr      *devmgr.Manager
	manifest hilcfg.DeviceManifest
	calib    *calibdb.DB
}

func (dev *hilDevice) OnConfig(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /config command...")

	expected := dev.manifest.ExpectedIDs()
	if len(expected) == 0 {
		ctx.Msg.Infof("no devices named in the manifest; nothing to discover")
		return nil
	}

	devFor := dev.manifest.DevFor
	if dev.calib != nil {
		devFor = hilcfg.WithCalibDB(devFor, dev.calib)
	}

	err := dev.mgr.AttachAll(expected, hilcfg.ListPorts, hilcfg.OpenPort, devFor)
	if err != nil {
		ctx.Msg.Errorf("could not discover/attach devices: %+v", err)
		alertMail("device discovery failed", fmt.Sprintf("%+v", err))
		return fmt.Errorf("could not discover/attach devices: %w", err)
	}

	dev.facade.OnCloseError(func(err error) {
		alertMail("shutdown HiZ failed", fmt.Sprintf("%+v", err))
	})

	return nil
}

func (dev *hilDevice) OnInit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /init command...")
	return nil
}

func (dev *hilDevice) OnReset(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /reset command...")
	return nil
}

func (dev *hilDevice) OnStart(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /start command...")
	return nil
}

func (dev *hilDevice) OnStop(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /stop command...")
	dev.facade.Close()
	return nil
}

func (dev *hilDevice) OnQuit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /quit command...")
	dev.facade.Close()
	dev.mgr.CloseAll()
	if dev.calib != nil {
		if err := dev.calib.Close(); err != nil {
			ctx.Msg.Errorf("could not close calibration database: %+v", err)
		}
	}
	return nil
}
