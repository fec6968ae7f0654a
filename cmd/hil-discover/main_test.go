// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import "testing"

func TestParseIDs(t *testing.T) {
	for _, tc := range []struct {
		in      string
		want    []uint8
		wantErr bool
	}{
		{in: "", want: nil},
		{in: "1", want: []uint8{1}},
		{in: "1,2,3", want: []uint8{1, 2, 3}},
		{in: " 1 , 2 ", want: []uint8{1, 2}},
		{in: "1,,2", want: []uint8{1, 2}},
		{in: "nope", wantErr: true},
		{in: "256", wantErr: true},
	} {
		got, err := parseIDs(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseIDs(%q): expected error, got none", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseIDs(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if len(got) != len(tc.want) {
			t.Errorf("parseIDs(%q) = %v, want %v", tc.in, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("parseIDs(%q) = %v, want %v", tc.in, got, tc.want)
				break
			}
		}
	}
}
