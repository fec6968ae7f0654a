// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hilcfg

import (
	"fmt"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/go-lpc/hil/discovery"
)

// ListPorts adapts go.bug.st/serial/enumerator to discovery.Lister.
func ListPorts() ([]discovery.Candidate, error) {
	infos, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("could not list serial ports: %w", err)
	}
	out := make([]discovery.Candidate, len(infos))
	for i, info := range infos {
		out[i] = discovery.Candidate{Name: info.Name, Description: info.Product, IsUSB: info.IsUSB}
	}
	return out, nil
}

// OpenPort adapts go.bug.st/serial.Open to discovery.Opener.
func OpenPort(name string, baud int) (discovery.Port, error) {
	p, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("could not open %q: %w", name, err)
	}
	return serialPort{p}, nil
}

// serialPort adapts *serial.Port's method set to discovery.Port.
type serialPort struct{ p serial.Port }

func (s serialPort) SetReadTimeout(t time.Duration) error { return s.p.SetReadTimeout(t) }
func (s serialPort) SetDTR(dtr bool) error                { return s.p.SetDTR(dtr) }
func (s serialPort) ResetInputBuffer() error              { return s.p.ResetInputBuffer() }
func (s serialPort) Read(p []byte) (int, error)           { return s.p.Read(p) }
func (s serialPort) Write(p []byte) (int, error)          { return s.p.Write(p) }
func (s serialPort) Close() error                         { return s.p.Close() }
