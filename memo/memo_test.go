// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package memo

import "testing"

func TestInput(t *testing.T) {
	var in Input
	if v := in.Version(); v != 0 {
		t.Errorf("zero Input version should be 0; got %v", v)
	}
	in.Bump()
	in.Bump()
	if v := in.Version(); v != 2 {
		t.Errorf("version after two bumps should be 2; got %v", v)
	}
}

func TestKey(t *testing.T) {
	if Key(1, 2) == Key(1) {
		t.Errorf("Key(1, 2) and Key(1) should differ")
	}
	// The separator must keep adjacent versions from running
	// together.
	if Key(0x12, 0x34) == Key(0x123, 0x4) {
		t.Errorf("Key(0x12, 0x34) and Key(0x123, 0x4) should differ")
	}
	if Key(7, 9) != Key(7, 9) {
		t.Errorf("equal versions should produce equal fingerprints")
	}
}

func TestCell(t *testing.T) {
	var in Input
	var c Cell
	calls := 0
	get := func() interface{} {
		return c.Get(Key(in.Version()), func() interface{} {
			calls++
			return calls
		})
	}

	if v := get(); v != 1 {
		t.Errorf("first Get should compute; got %v", v)
	}
	if v := get(); v != 1 {
		t.Errorf("second Get at same fingerprint should be cached; got %v", v)
	}
	in.Bump()
	if v := get(); v != 2 {
		t.Errorf("Get after Bump should recompute; got %v", v)
	}
	if v := get(); v != 2 {
		t.Errorf("Get should be cached again; got %v", v)
	}
	c.Invalidate()
	if v := get(); v != 3 {
		t.Errorf("Get after Invalidate should recompute; got %v", v)
	}
}
