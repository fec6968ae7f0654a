// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command hil-srv starts a TDAQ server that exposes a HIL engine's Facade
// over the /config, /init, /reset, /start, /stop, /quit command surface,
// the same way rpi.Server exposes a DIF readout.
package main // import "github.com/go-lpc/hil/cmd/hil-srv"

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-daq/tdaq"
	"github.com/go-daq/tdaq/flags"
	"github.com/sbinet/pmon"

	"github.com/go-lpc/hil/calibdb"
	"github.com/go-lpc/hil/devmgr"
	"github.com/go-lpc/hil/hil"
	"github.com/go-lpc/hil/hilcfg"
)

var (
	doMon   = flag.Bool("pmon", false, "enable self-process resource monitoring")
	monFreq = flag.Duration("pmon-freq", 1*time.Second, "pmon sampling frequency")

	devicesManifest = flag.String("devices", "", "path to a device manifest JSON file")
	netmapCSV       = flag.String("netmap", "", "path to a net-map CSV file")
	harnessJSON     = flag.String("harness", "", "path to a harness-connections JSON file")
	calibDBName     = flag.String("calibdb", "", "name of a MySQL calibration database overriding static JSON calibration")
)

func main() {
	cmd := flags.New()

	log.SetPrefix("hil-srv: ")
	log.SetFlags(0)

	dev, err := newHilDevice()
	if err != nil {
		log.Fatalf("could not create server: %+v", err)
	}

	if *doMon {
		startSelfMonitoring(*monFreq)
	}

	tsrv := tdaq.New(cmd, os.Stdout)
	tsrv.CmdHandle("/config", dev.OnConfig)
	tsrv.CmdHandle("/init", dev.OnInit)
	tsrv.CmdHandle("/reset", dev.OnReset)
	tsrv.CmdHandle("/start", dev.OnStart)
	tsrv.CmdHandle("/stop", dev.OnStop)
	tsrv.CmdHandle("/quit", dev.OnQuit)

	if err := tsrv.Run(context.Background()); err != nil {
		log.Panicf("error: %+v", err)
	}
}

// newHilDevice builds the hilDevice that backs the TDAQ command handlers,
// loading the net-map/harness/device-manifest files named on the command
// line, if any.
func newHilDevice() (*hilDevice, error) {
	msg := log.New(os.Stderr, "hil-srv: ", 0)

	mgr := devmgr.New(msg)
	resolver, err := hilcfg.BuildResolver(*harnessJSON, *netmapCSV, func(name string) bool {
		_, ok := mgr.ByName(name)
		return ok
	})
	if err != nil {
		return nil, err
	}

	var manifest hilcfg.DeviceManifest
	if *devicesManifest != "" {
		manifest, err = hilcfg.LoadDeviceManifest(*devicesManifest)
		if err != nil {
			return nil, fmt.Errorf("could not load device manifest %q: %w", *devicesManifest, err)
		}
	}

	var calib *calibdb.DB
	if *calibDBName != "" {
		calib, err = calibdb.Open(*calibDBName)
		if err != nil {
			return nil, fmt.Errorf("could not open calibration database %q: %w", *calibDBName, err)
		}
	}

	facade := hil.New(mgr, resolver, msg)
	return &hilDevice{facade: facade, mgr: mgr, manifest: manifest, calib: calib}, nil
}

// startSelfMonitoring runs pmon against the current process for the
// lifetime of the server, logging samples the way daq-boot logs its
// monitored children.
func startSelfMonitoring(freq time.Duration) {
	p, err := pmon.Monitor(os.Getpid())
	if err != nil {
		log.Printf("could not start self-monitoring: %+v", err)
		return
	}
	p.W = os.Stderr
	p.Freq = freq
	go func() {
		if err := p.Run(); err != nil {
			log.Printf("self-monitoring stopped: %+v", err)
		}
	}()
}
