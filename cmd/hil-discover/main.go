// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command hil-discover probes the host's serial ports for HIL devices and
// reports which of an expected id list answered, and on which port.
package main // import "github.com/go-lpc/hil/cmd/hil-discover"

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/go-lpc/hil/discovery"
	"github.com/go-lpc/hil/hilcfg"
)

func main() {
	log.SetPrefix("hil-discover: ")
	log.SetFlags(0)

	if err := xmain(os.Args[1:]); err != nil {
		log.Fatalf("%+v", err)
	}
}

func xmain(args []string) error {
	var (
		fset = flag.NewFlagSet("hil-discover", flag.ContinueOnError)

		ids     = fset.String("ids", "", "comma-separated list of expected device ids (decimal)")
		verbose = fset.Bool("v", false, "log probing attempts")
	)

	if err := fset.Parse(args); err != nil {
		return fmt.Errorf("could not parse input arguments: %w", err)
	}

	expected, err := parseIDs(*ids)
	if err != nil {
		return fmt.Errorf("could not parse -ids: %w", err)
	}
	if len(expected) == 0 {
		return fmt.Errorf("no expected device ids given (use -ids)")
	}

	msg := log.New(os.Stderr, "hil-discover: ", 0)
	if !*verbose {
		msg = log.New(discardWriter{}, "", 0)
	}

	claimed, err := discovery.Discover(expected, hilcfg.ListPorts, hilcfg.OpenPort, msg)
	report(claimed)
	if err != nil {
		return err
	}
	return nil
}

// parseIDs parses a comma-separated list of decimal device ids.
func parseIDs(s string) ([]uint8, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []uint8
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		n, err := strconv.ParseUint(tok, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid device id %q: %w", tok, err)
		}
		out = append(out, uint8(n))
	}
	return out, nil
}

func report(claimed map[uint8]discovery.Claimed) {
	ids := make([]int, 0, len(claimed))
	for id := range claimed {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	for _, id := range ids {
		c := claimed[uint8(id)]
		fmt.Printf("device %d: %s\n", c.ID, c.Port)
	}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
