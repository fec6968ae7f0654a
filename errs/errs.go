// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package errs holds the error taxonomy shared by the HIL engine.
package errs // import "github.com/go-lpc/hil/errs"

import (
	"errors"
	"fmt"
)

// Kind identifies which class of failure a wrapped error belongs to.
type Kind int

const (
	// Configuration marks malformed JSON/CSV, duplicate ids, or missing
	// required fields.
	Configuration Kind = iota
	// Connection marks a name-resolution failure: no answer, an ambiguous
	// answer, or a reference to a device that is not managed.
	Connection
	// Serial marks a failure of the wire link: discovery failure, a
	// device-reported ERROR frame, desynchronization, or a missing
	// response after timeout.
	Serial
	// Engine marks an invariant violation: an action unsupported on a
	// port's mode, an unattached serial handle, or a malformed response.
	Engine
	// Range marks a value outside a calibrated DAC/POT range.
	Range
)

func (k Kind) String() string {
	switch k {
	case Configuration:
		return "configuration"
	case Connection:
		return "connection"
	case Serial:
		return "serial"
	case Engine:
		return "engine"
	case Range:
		return "range"
	default:
		return "unknown"
	}
}

// Error is a HIL-engine error tagged with a Kind.
type Error struct {
	Kind Kind
	err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.err)
}

func (e *Error) Unwrap() error { return e.err }

func newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, err: fmt.Errorf(format, args...)}
}

// Configurationf builds a Configuration-kind error.
func Configurationf(format string, args ...any) error { return newf(Configuration, format, args...) }

// Connectionf builds a Connection-kind error.
func Connectionf(format string, args ...any) error { return newf(Connection, format, args...) }

// Serialf builds a Serial-kind error.
func Serialf(format string, args ...any) error { return newf(Serial, format, args...) }

// Enginef builds an Engine-kind error.
func Enginef(format string, args ...any) error { return newf(Engine, format, args...) }

// Rangef builds a Range-kind error.
func Rangef(format string, args ...any) error { return newf(Range, format, args...) }

// Is reports whether err (or an error it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
