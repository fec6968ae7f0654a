// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import "testing"

func TestParseFieldList(t *testing.T) {
	got, err := parseFieldList([]string{"a=1", "b=2.5"})
	if err != nil {
		t.Fatalf("parseFieldList: %v", err)
	}
	if got["a"] != 1 || got["b"] != 2.5 {
		t.Fatalf("parseFieldList = %v, want a=1 b=2.5", got)
	}

	if _, err := parseFieldList([]string{"nope"}); err == nil {
		t.Fatalf("expected an error for a field with no '='")
	}
	if _, err := parseFieldList([]string{"a=x"}); err == nil {
		t.Fatalf("expected an error for a non-numeric value")
	}
}

func TestSignalFilterEmptyIsNil(t *testing.T) {
	if f := signalFilter(nil); f != nil {
		t.Fatalf("signalFilter(nil) = %v, want nil", f)
	}
	if f := signalFilter([]string{""}); f != nil {
		t.Fatalf("signalFilter(\"\") = %v, want nil", f)
	}
}

func TestSignalFilterByName(t *testing.T) {
	f := signalFilter([]string{"Msg1"})
	if f == nil || f.Name != "Msg1" {
		t.Fatalf("signalFilter([Msg1]) = %+v, want Name=Msg1", f)
	}
}

func TestDispatchQuitAndHelp(t *testing.T) {
	if quit := dispatch(nil, "quit"); !quit {
		t.Fatalf("dispatch(quit) = false, want true")
	}
	if quit := dispatch(nil, "exit"); !quit {
		t.Fatalf("dispatch(exit) = false, want true")
	}
	if quit := dispatch(nil, "help"); quit {
		t.Fatalf("dispatch(help) = true, want false")
	}
	if quit := dispatch(nil, "bogus"); quit {
		t.Fatalf("dispatch(bogus) = true, want false")
	}
}

func TestDispatchShortArgsDoesNotPanic(t *testing.T) {
	if quit := dispatch(nil, "set_do X"); quit {
		t.Fatalf("dispatch(set_do X) = true, want false")
	}
}
