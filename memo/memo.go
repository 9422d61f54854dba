// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package memo provides explicit, versioned memoization of derived
// values.
//
// Chart state holds many values that are cheap to describe but
// expensive to derive, such as resolved scales and grouped frames.
// Rather than tracking reads through an ambient dependency graph,
// producers of source state carry an Input whose version is bumped on
// every change, and consumers store derived values in Cells keyed by
// a Fingerprint of the input versions they read. A Cell recomputes
// its value only when the fingerprint it is asked for differs from
// the one it holds, so invalidation is explicit and derivations stay
// plain functions.
package memo

import (
	"strconv"
	"sync"
)

// An Input is a version counter for a unit of source state. The zero
// value is ready to use.
type Input struct {
	mu      sync.Mutex
	version uint64
}

// Bump records a change to the state this Input covers, invalidating
// any derived value whose fingerprint includes it.
func (in *Input) Bump() {
	in.mu.Lock()
	in.version++
	in.mu.Unlock()
}

// Version returns the current version.
func (in *Input) Version() uint64 {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.version
}

// A Fingerprint identifies the versions of all inputs a derived
// value was computed from.
type Fingerprint string

// Key builds a Fingerprint from input versions. Callers must pass
// versions in a fixed order so that equal fingerprints mean equal
// inputs.
func Key(versions ...uint64) Fingerprint {
	b := make([]byte, 0, 8*len(versions))
	for i, v := range versions {
		if i > 0 {
			b = append(b, ':')
		}
		b = strconv.AppendUint(b, v, 16)
	}
	return Fingerprint(b)
}

// A Cell holds one derived value and the Fingerprint it was computed
// at. The zero value is an empty cell.
type Cell struct {
	mu    sync.Mutex
	valid bool
	fp    Fingerprint
	value interface{}
}

// Get returns the cell's value, calling compute to fill it if the
// cell is empty or holds a value computed at a different fingerprint.
// compute runs with the cell locked and must not use the cell.
func (c *Cell) Get(fp Fingerprint, compute func() interface{}) interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid || c.fp != fp {
		c.value = compute()
		c.fp, c.valid = fp, true
	}
	return c.value
}

// Invalidate empties the cell, forcing the next Get to recompute.
func (c *Cell) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.value = nil
	c.mu.Unlock()
}
