// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hil

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/go-lpc/hil/dbc"
	"github.com/go-lpc/hil/device"
	"github.com/go-lpc/hil/devmgr"
	"github.com/go-lpc/hil/discovery"
	"github.com/go-lpc/hil/harness"
	"github.com/go-lpc/hil/wire"
)

// fakeLink mirrors dispatch's test fake: it answers WRITE_GPIO/READ_GPIO
// synchronously and records every GPIO write for shutdown-coverage checks.
type fakeLink struct {
	in     chan byte
	closed chan struct{}
	once   sync.Once

	mu      sync.Mutex
	digital map[uint8]bool
	writes  []struct {
		Pin uint8
		Val bool
	}
}

func newFakeLink() *fakeLink {
	return &fakeLink{in: make(chan byte, 4096), closed: make(chan struct{}), digital: make(map[uint8]bool)}
}

func (f *fakeLink) push(b []byte) {
	for _, c := range b {
		select {
		case f.in <- c:
		case <-f.closed:
			return
		}
	}
}

func (f *fakeLink) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch wire.Opcode(p[0]) {
	case wire.WriteGPIO:
		pin, v := p[1], p[2] != 0
		f.digital[pin] = v
		f.writes = append(f.writes, struct {
			Pin uint8
			Val bool
		}{pin, v})
	case wire.HiZGPIO:
		f.writes = append(f.writes, struct {
			Pin uint8
			Val bool
		}{p[1], false})
	case wire.ReadGPIO:
		f.push([]byte{byte(wire.ReadGPIO), boolByte(f.digital[p[1]])})
	}
	return len(p), nil
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

func (f *fakeLink) Read(p []byte) (int, error) {
	select {
	case b := <-f.in:
		p[0] = b
		return 1, nil
	case <-f.closed:
		return 0, io.EOF
	}
}

func (f *fakeLink) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func newTestFacade(t *testing.T) (*Facade, *fakeLink) {
	t.Helper()
	link := newFakeLink()
	dev, err := device.New(1, "X",
		[]device.Port{
			{Name: "DO1", Pin: 1, Mode: device.DO},
			{Name: "DI1", Pin: 2, Mode: device.DI},
		},
		nil, nil,
		device.ADCCalibration{BitResolution: 12, RefV: 3.3},
		nil, nil,
	)
	if err != nil {
		t.Fatalf("could not build device: %v", err)
	}

	mgr := devmgr.New(nil)
	t.Cleanup(mgr.CloseAll)
	if _, err := mgr.Attach(discovery.Claimed{ID: 1, Link: link}, dev, dbc.NewStatic(nil)); err != nil {
		t.Fatalf("could not attach device: %v", err)
	}

	resolver := harness.NewResolver(func(name string) bool { return name == "X" })
	return New(mgr, resolver, nil), link
}

// S1: the facade's digital-output set/get round-trips through the dispatcher.
func TestFacadeDigitalLoopback(t *testing.T) {
	f, link := newTestFacade(t)
	link.mu.Lock()
	link.digital[2] = false
	link.mu.Unlock()

	if err := f.SetDo("X", "DO1", true); err != nil {
		t.Fatalf("SetDo: %v", err)
	}
	link.mu.Lock()
	link.digital[2] = link.digital[1] // jumpered in this test harness
	link.mu.Unlock()

	got, err := f.GetDi("X", "DI1")
	if err != nil {
		t.Fatalf("GetDi: %v", err)
	}
	if !got {
		t.Fatalf("GetDi = %v, want true", got)
	}
}

// S6: any output touched via SetDo receives a HiZ call by the time Close
// returns.
func TestFacadeShutdownCoverage(t *testing.T) {
	f, link := newTestFacade(t)
	if err := f.SetDo("X", "DO1", true); err != nil {
		t.Fatalf("SetDo: %v", err)
	}
	f.Close()

	link.mu.Lock()
	defer link.mu.Unlock()
	// SetDo records one WRITE_GPIO; Close's HiZ records a second write on
	// the same pin.
	if len(link.writes) != 2 || link.writes[1].Pin != 1 {
		t.Fatalf("expected a HiZ write on pin 1 after Close, got %+v", link.writes)
	}
}

// Handles describe themselves with the resolved hil device/port.
func TestHandleString(t *testing.T) {
	f, _ := newTestFacade(t)
	h := f.Do("X", "DO1")
	want := "X.DO1 (X.DO1)"
	if got := h.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestTestRunnerClosesOnSetupFailure(t *testing.T) {
	f, link := newTestFacade(t)
	if err := f.SetDo("X", "DO1", true); err != nil {
		t.Fatalf("SetDo: %v", err)
	}

	setupErr := errTestSetup
	r := NewTestRunner(f, func(*Facade) error { return setupErr }, nil)
	if err := r.Run(func(*Facade) error { return nil }); err != setupErr {
		t.Fatalf("Run() = %v, want %v", err, setupErr)
	}

	time.Sleep(10 * time.Millisecond)
	link.mu.Lock()
	defer link.mu.Unlock()
	if len(link.writes) < 2 {
		t.Fatalf("expected Close (via defer) to still HiZ outputs touched before setup failed")
	}
}

var errTestSetup = testSetupError("setup failed")

type testSetupError string

func (e testSetupError) Error() string { return string(e) }
