// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package canstore holds the per-bus ordered buffer of decoded CAN frames
// that the action dispatcher drains asynchronous RECV_CAN traffic into.
package canstore // import "github.com/go-lpc/hil/canstore"

import "sync"

// Signal names a CAN message either by its DBC signal name or by its raw
// frame id.
type Signal struct {
	Name string // empty if Name is unset and ID should be used
	ID   uint32
	ByID bool
}

// ByName builds a Signal that identifies a message by DBC name.
func ByName(name string) Signal { return Signal{Name: name} }

// ByFrameID builds a Signal that identifies a message by raw frame id.
func ByFrameID(id uint32) Signal { return Signal{ID: id, ByID: true} }

// Resolved builds a Signal for a received frame whose id was decoded back to
// a DBC name: it carries both, so the message matches a filter built either
// way (ByName or ByFrameID).
func Resolved(name string, id uint32) Signal { return Signal{Name: name, ID: id} }

// Message is a decoded CAN message appended to a Store.
type Message struct {
	Signal Signal
	Fields map[string]float64
}

// Filter optionally narrows Store queries to messages matching a Signal.
// A nil Filter matches every message.
type Filter = *Signal

func same(a, b Signal) bool {
	if a.ByID || b.ByID {
		return a.ID == b.ID
	}
	return a.Name == b.Name
}

// Store is an append-only, per-bus sequence of decoded CAN messages.
// Insertion is append; queries never mutate order.
type Store struct {
	mu  sync.Mutex
	msg []Message
}

// New returns an empty Store.
func New() *Store { return &Store{} }

// Append adds msg to the end of the store.
func (s *Store) Append(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msg = append(s.msg, msg)
}

// All returns every stored message matching filter, oldest first.
func (s *Store) All(filter Filter) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	if filter == nil {
		out := make([]Message, len(s.msg))
		copy(out, s.msg)
		return out
	}
	var out []Message
	for _, m := range s.msg {
		if same(m.Signal, *filter) {
			out = append(out, m)
		}
	}
	return out
}

// Last returns the most recently appended message matching filter, or
// false if none match.
func (s *Store) Last(filter Filter) (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.msg) - 1; i >= 0; i-- {
		if filter == nil || same(s.msg[i].Signal, *filter) {
			return s.msg[i], true
		}
	}
	return Message{}, false
}

// Clear removes messages matching filter, preserving the order of the
// rest. A nil filter empties the store entirely.
func (s *Store) Clear(filter Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if filter == nil {
		s.msg = s.msg[:0]
		return
	}
	kept := s.msg[:0]
	for _, m := range s.msg {
		if !same(m.Signal, *filter) {
			kept = append(kept, m)
		}
	}
	s.msg = kept
}
