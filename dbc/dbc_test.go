// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dbc

import (
	"testing"

	"github.com/go-lpc/hil/errs"
)

func testStatic() *Static {
	return NewStatic([]Message{
		{Name: "Msg1", FrameID: 0x100, Fields: []string{"f1", "f2"}},
	})
}

func TestNameByFrame(t *testing.T) {
	s := testStatic()

	name, err := s.NameByFrame(0x100)
	if err != nil {
		t.Fatalf("NameByFrame: %v", err)
	}
	if name != "Msg1" {
		t.Fatalf("NameByFrame(0x100) = %q, want Msg1", name)
	}

	if _, err := s.NameByFrame(0xdead); !errs.Is(err, errs.Configuration) {
		t.Fatalf("NameByFrame(unknown) error = %v, want a Configuration error", err)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	s := testStatic()

	data, err := s.Encode("Msg1", map[string]float64{"f1": 10, "f2": 20})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	fields, err := s.Decode(0x100, data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if fields["f1"] != 10 || fields["f2"] != 20 {
		t.Fatalf("unexpected decoded fields: %+v", fields)
	}
}

func TestIDByNameAndIDByFrame(t *testing.T) {
	s := testStatic()

	id, err := s.IDByName("Msg1")
	if err != nil || id != 0x100 {
		t.Fatalf("IDByName(Msg1) = %#x, %v, want 0x100, nil", id, err)
	}

	if _, err := s.IDByFrame(0x100); err != nil {
		t.Fatalf("IDByFrame(0x100): %v", err)
	}
	if _, err := s.IDByFrame(0xdead); !errs.Is(err, errs.Configuration) {
		t.Fatalf("IDByFrame(unknown) error = %v, want a Configuration error", err)
	}
}
