// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dbc declares the interface the HIL engine uses to encode and
// decode CAN signals. Loading and parsing actual DBC files is explicitly
// out of scope (spec §1); this package only defines the boundary and a
// small in-memory fake useful for tests.
package dbc // import "github.com/go-lpc/hil/dbc"

import "github.com/go-lpc/hil/errs"

// Codec encodes and decodes CAN signals against a loaded DBC database.
type Codec interface {
	// Encode packs fields into the wire bytes for the named signal.
	Encode(signal string, fields map[string]float64) ([]byte, error)
	// Decode unpacks the wire bytes of a frame with the given id into
	// named fields.
	Decode(frameID uint32, data []byte) (map[string]float64, error)
	// IDByName returns the frame id of a message, by name.
	IDByName(name string) (uint32, error)
	// IDByFrame validates that a frame id is known, returning it back.
	IDByFrame(id uint32) (uint32, error)
	// NameByFrame returns the signal name of a message, by frame id.
	NameByFrame(id uint32) (string, error)
}

// Message is one minimal DBC message definition, enough to drive Static.
type Message struct {
	Name    string
	FrameID uint32
	// Fields lists the signal names packed into this message, in
	// little-endian byte order, one byte per field, clamped to [0,255].
	// This is a deliberately simple encoding: Static exists to exercise
	// the Codec boundary in tests, not to parse real DBC arithmetic.
	Fields []string
}

// Static is a minimal in-memory Codec fake, analogous in spirit to
// internal/fakedb's "tiny fake behind the real interface" shape, adapted
// here from a database/sql driver fake to a DBC codec fake.
type Static struct {
	byName  map[string]Message
	byFrame map[uint32]Message
}

// NewStatic builds a Static codec from a fixed message list.
func NewStatic(msgs []Message) *Static {
	s := &Static{byName: make(map[string]Message), byFrame: make(map[uint32]Message)}
	for _, m := range msgs {
		s.byName[m.Name] = m
		s.byFrame[m.FrameID] = m
	}
	return s
}

func (s *Static) Encode(signal string, fields map[string]float64) ([]byte, error) {
	m, ok := s.byName[signal]
	if !ok {
		return nil, errs.Configurationf("dbc: unknown signal %q", signal)
	}
	data := make([]byte, len(m.Fields))
	for i, f := range m.Fields {
		v, ok := fields[f]
		if !ok {
			return nil, errs.Configurationf("dbc: message %q missing field %q", signal, f)
		}
		switch {
		case v < 0:
			v = 0
		case v > 255:
			v = 255
		}
		data[i] = byte(uint8(v))
	}
	return data, nil
}

func (s *Static) Decode(frameID uint32, data []byte) (map[string]float64, error) {
	m, ok := s.byFrame[frameID]
	if !ok {
		return nil, errs.Configurationf("dbc: unknown frame id 0x%x", frameID)
	}
	out := make(map[string]float64, len(m.Fields))
	for i, f := range m.Fields {
		if i >= len(data) {
			break
		}
		out[f] = float64(data[i])
	}
	return out, nil
}

func (s *Static) IDByName(name string) (uint32, error) {
	m, ok := s.byName[name]
	if !ok {
		return 0, errs.Configurationf("dbc: unknown signal %q", name)
	}
	return m.FrameID, nil
}

func (s *Static) IDByFrame(id uint32) (uint32, error) {
	if _, ok := s.byFrame[id]; !ok {
		return 0, errs.Configurationf("dbc: unknown frame id 0x%x", id)
	}
	return id, nil
}

func (s *Static) NameByFrame(id uint32) (string, error) {
	m, ok := s.byFrame[id]
	if !ok {
		return "", errs.Configurationf("dbc: unknown frame id 0x%x", id)
	}
	return m.Name, nil
}
