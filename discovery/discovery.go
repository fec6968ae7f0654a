// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package discovery enumerates candidate serial ports, probes each for a
// HIL device id, and claims the ports matching an expected id list.
package discovery // import "github.com/go-lpc/hil/discovery"

import (
	"bytes"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/go-lpc/hil/errs"
	"github.com/go-lpc/hil/wire"
)

const (
	baudRate        = 115200
	openReadTimeout = 100 * time.Millisecond
	resetDwell      = 1 * time.Second
	probeAttempts   = 5
	probeInterval   = 1 * time.Second
	probeDeadline   = 2 * time.Second
)

// Port is the subset of go.bug.st/serial's *serial.Port this package needs,
// kept as an interface so tests can fake a device without a real link.
type Port interface {
	SetReadTimeout(t time.Duration) error
	SetDTR(dtr bool) error
	ResetInputBuffer() error
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// Candidate is one enumerable serial port, as reported by the host's port
// lister (go.bug.st/serial/enumerator in production).
type Candidate struct {
	Name        string
	Description string
	IsUSB       bool
}

// Opener opens a named port at the given baud rate; go.bug.st/serial.Open
// satisfies this after a small adapter (see OpenPort in hilcfg).
type Opener func(name string, baud int) (Port, error)

// Lister returns the candidate ports worth probing.
type Lister func() ([]Candidate, error)

// Claimed is one successfully identified and claimed device.
type Claimed struct {
	ID      uint8
	Port    string
	Link    io.ReadWriteCloser
	Preload []byte // bytes already read past the sync preamble
}

// Discover enumerates candidates via list, opens each port whose
// description mentions "USB Serial", probes it for a READ_ID response, and
// claims ports whose id is in expected and not already claimed. It fails
// with a Serial-kind error if any expected id remains unclaimed once every
// port has been tried.
func Discover(expected []uint8, list Lister, open Opener, msg *log.Logger) (map[uint8]Claimed, error) {
	if msg == nil {
		msg = log.New(io.Discard, "", 0)
	}
	cands, err := list()
	if err != nil {
		return nil, errs.Serialf("discovery: could not list ports: %w", err)
	}

	want := make(map[uint8]bool, len(expected))
	for _, id := range expected {
		want[id] = true
	}

	var (
		mu      sync.Mutex
		claimed = make(map[uint8]Claimed, len(expected))
		grp     errgroup.Group
	)

	for _, c := range cands {
		c := c
		if !strings.Contains(c.Description, "USB Serial") {
			continue
		}
		grp.Go(func() error {
			id, link, preload, ok, err := probe(c.Name, open)
			if err != nil {
				msg.Printf("probe %s: %v", c.Name, err)
				return nil
			}
			if !ok {
				return nil
			}

			mu.Lock()
			_, dup := claimed[id]
			need := want[id] && !dup
			if need {
				claimed[id] = Claimed{ID: id, Port: c.Name, Link: link, Preload: preload}
			}
			mu.Unlock()

			if !need {
				_ = link.Close()
			}
			return nil
		})
	}
	_ = grp.Wait()

	var missing []uint8
	for _, id := range expected {
		if _, ok := claimed[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return claimed, errs.Serialf("discovery: expected ids %v unclaimed after probing all ports", missing)
	}
	return claimed, nil
}

// probe opens name, performs the DTR-toggle reset, and issues up to
// probeAttempts READ_ID requests, scanning for the sync preamble. It
// returns ok=false (no error) for a port that simply never answered.
func probe(name string, open Opener) (id uint8, link Port, preload []byte, ok bool, err error) {
	p, err := open(name, baudRate)
	if err != nil {
		return 0, nil, nil, false, errs.Serialf("discovery: could not open %s: %w", name, err)
	}

	if err := p.SetReadTimeout(openReadTimeout); err != nil {
		_ = p.Close()
		return 0, nil, nil, false, errs.Serialf("discovery: could not set read timeout on %s: %w", name, err)
	}
	if err := p.SetDTR(false); err != nil {
		_ = p.Close()
		return 0, nil, nil, false, errs.Serialf("discovery: could not lower DTR on %s: %w", name, err)
	}
	time.Sleep(resetDwell)
	_ = p.ResetInputBuffer()
	if err := p.SetDTR(true); err != nil {
		_ = p.Close()
		return 0, nil, nil, false, errs.Serialf("discovery: could not raise DTR on %s: %w", name, err)
	}

	var buf []byte
	for attempt := 0; attempt < probeAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(probeInterval)
		}
		if _, err := p.Write(wire.EncodeReadID()); err != nil {
			_ = p.Close()
			return 0, nil, nil, false, errs.Serialf("discovery: could not write READ_ID to %s: %w", name, err)
		}

		deadline := time.Now().Add(probeDeadline)
		chunk := make([]byte, 64)
		for time.Now().Before(deadline) {
			n, _ := p.Read(chunk) // a per-byte read timeout is expected and not fatal
			if n > 0 {
				buf = append(buf, chunk[:n]...)
			}
			if idx := bytes.Index(buf, wire.SyncPreamble[:]); idx >= 0 && len(buf) >= idx+6 {
				devID := buf[idx+5]
				rest := append([]byte(nil), buf[idx+6:]...)
				return devID, p, rest, true, nil
			}
		}
	}

	_ = p.Close()
	return 0, nil, nil, false, nil
}
