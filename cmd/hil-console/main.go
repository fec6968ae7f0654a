// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command hil-console is an interactive, line-edited console for driving a
// HIL engine's Facade by hand during fixture bring-up.
package main // import "github.com/go-lpc/hil/cmd/hil-console"

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/go-lpc/hil/calibdb"
	"github.com/go-lpc/hil/devmgr"
	"github.com/go-lpc/hil/hil"
	"github.com/go-lpc/hil/hilcfg"
)

func main() {
	log.SetPrefix("hil-console: ")
	log.SetFlags(0)

	if err := xmain(os.Args[1:]); err != nil {
		log.Fatalf("%+v", err)
	}
}

func xmain(args []string) error {
	var (
		fset = flag.NewFlagSet("hil-console", flag.ContinueOnError)

		devicesManifest = fset.String("devices", "", "path to a device manifest JSON file")
		netmapCSV       = fset.String("netmap", "", "path to a net-map CSV file")
		harnessJSON     = fset.String("harness", "", "path to a harness-connections JSON file")
		historyFile     = fset.String("history", "", "path to a line-history file")
		calibDBName     = fset.String("calibdb", "", "name of a MySQL calibration database overriding static JSON calibration")
	)

	if err := fset.Parse(args); err != nil {
		return fmt.Errorf("could not parse input arguments: %w", err)
	}

	msg := log.New(os.Stderr, "hil-console: ", 0)
	mgr := devmgr.New(msg)
	defer mgr.CloseAll()

	resolver, err := hilcfg.BuildResolver(*harnessJSON, *netmapCSV, func(name string) bool {
		_, ok := mgr.ByName(name)
		return ok
	})
	if err != nil {
		return err
	}

	if *devicesManifest != "" {
		manifest, err := hilcfg.LoadDeviceManifest(*devicesManifest)
		if err != nil {
			return fmt.Errorf("could not load device manifest %q: %w", *devicesManifest, err)
		}

		devFor := manifest.DevFor
		if *calibDBName != "" {
			calib, err := calibdb.Open(*calibDBName)
			if err != nil {
				return fmt.Errorf("could not open calibration database %q: %w", *calibDBName, err)
			}
			defer calib.Close()
			devFor = hilcfg.WithCalibDB(devFor, calib)
		}

		expected := manifest.ExpectedIDs()
		if len(expected) > 0 {
			if err := mgr.AttachAll(expected, hilcfg.ListPorts, hilcfg.OpenPort, devFor); err != nil {
				return fmt.Errorf("could not discover/attach devices: %w", err)
			}
		}
	}

	facade := hil.New(mgr, resolver, msg)
	defer facade.Close()

	return runREPL(facade, *historyFile)
}

func runREPL(facade *hil.Facade, historyFile string) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	if historyFile != "" {
		if f, err := os.Open(historyFile); err == nil {
			_, _ = line.ReadHistory(f)
			f.Close()
		}
	}

	for {
		input, err := line.Prompt("hil> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				break
			}
			return fmt.Errorf("could not read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if quit := dispatch(facade, input); quit {
			break
		}
	}

	if historyFile != "" {
		if f, err := os.Create(historyFile); err == nil {
			_, _ = line.WriteHistory(f)
			f.Close()
		}
	}
	return nil
}
