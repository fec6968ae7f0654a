// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import "testing"

func TestSplitNonEmpty(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want []string
	}{
		{in: "", want: nil},
		{in: "a", want: []string{"a"}},
		{in: "a,b,c", want: []string{"a", "b", "c"}},
		{in: "a,,b", want: []string{"a", "b"}},
	} {
		got := splitNonEmpty(tc.in)
		if len(got) != len(tc.want) {
			t.Errorf("splitNonEmpty(%q) = %v, want %v", tc.in, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("splitNonEmpty(%q) = %v, want %v", tc.in, got, tc.want)
				break
			}
		}
	}
}

func TestAtoi(t *testing.T) {
	if v := atoi("587"); v != 587 {
		t.Errorf("atoi(587) = %d, want 587", v)
	}
	if v := atoi("not-a-number"); v != 0 {
		t.Errorf("atoi(garbage) = %d, want 0", v)
	}
}
