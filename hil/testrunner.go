// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hil

// TestRunner owns one test's setup/teardown pair and the Facade it drives,
// replacing the global setup/teardown function-pointer singletons called
// out in the REDESIGN FLAGS: ownership of the lifecycle is explicit and
// scoped to one TestRunner value instead of leaking across the module as
// package-level state.
type TestRunner struct {
	Facade *Facade

	setup    func(*Facade) error
	teardown func(*Facade) error
}

// NewTestRunner builds a TestRunner around facade. setup and teardown may be
// nil.
func NewTestRunner(facade *Facade, setup, teardown func(*Facade) error) *TestRunner {
	return &TestRunner{Facade: facade, setup: setup, teardown: teardown}
}

// Run calls setup, then fn, then teardown, and always calls Facade.Close —
// even if setup or fn returns an error — so that outputs touched during a
// failed run are still released. If setup fails, neither fn nor teardown
// runs; if fn fails, teardown still runs.
func (r *TestRunner) Run(fn func(*Facade) error) error {
	defer r.Facade.Close()

	if r.setup != nil {
		if err := r.setup(r.Facade); err != nil {
			return err
		}
	}

	runErr := fn(r.Facade)

	var teardownErr error
	if r.teardown != nil {
		teardownErr = r.teardown(r.Facade)
	}

	if runErr != nil {
		return runErr
	}
	return teardownErr
}
