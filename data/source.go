// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package data

import (
	"reflect"
	"sync"

	"github.com/aclements/go-gg/generic/slice"
	"github.com/aclements/go-gg/table"

	"github.com/jheeffer/vizabi-reactive/memo"
)

// A Source provides tabular data and the concepts describing its
// columns. Implementations must be safe for concurrent use.
type Source interface {
	// State reports where loading stands. Data, Domain, and
	// IsConstant return usable results only in the Fulfilled
	// state.
	State() State

	// Version is a counter that increases whenever the source's
	// data or state changes. Derived values are cached against
	// it.
	Version() uint64

	// Concept returns the concept declared for a column, or nil
	// if the column has none.
	Concept(column string) *Concept

	// Data returns the loaded rows.
	Data() table.Grouping

	// Domain returns the observed values of a column across all
	// groups, in row order, or nil if the column is unknown.
	// Scales and step scales train on the result.
	Domain(column string) table.Slice

	// IsConstant reports whether a column holds the same value in
	// every row. It is false if no rows are loaded.
	IsConstant(column string) bool
}

// A TableSource is a Source over an in-memory table. It starts in
// the Pending state; SetData and Fail move it to Fulfilled or
// Failed.
type TableSource struct {
	mu       sync.Mutex
	state    State
	err      error
	data     table.Grouping
	concepts map[string]*Concept
	version  memo.Input
}

// NewTableSource returns a Pending TableSource with the given column
// concepts.
func NewTableSource(concepts ...*Concept) *TableSource {
	s := &TableSource{concepts: make(map[string]*Concept)}
	for _, c := range concepts {
		s.concepts[c.ID] = c
	}
	return s
}

// SetData installs g as the source's data and moves the source to
// the Fulfilled state.
func (s *TableSource) SetData(g table.Grouping) {
	s.mu.Lock()
	s.data, s.state, s.err = g, Fulfilled, nil
	s.mu.Unlock()
	s.version.Bump()
}

// Fail records a load error and moves the source to the Failed
// state.
func (s *TableSource) Fail(err error) {
	s.mu.Lock()
	s.state, s.err = Failed, err
	s.mu.Unlock()
	s.version.Bump()
}

// Err returns the load error, or nil unless the source has Failed.
func (s *TableSource) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *TableSource) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *TableSource) Version() uint64 {
	return s.version.Version()
}

func (s *TableSource) Concept(column string) *Concept {
	return s.concepts[column]
}

func (s *TableSource) Data() table.Grouping {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

func (s *TableSource) Domain(column string) table.Slice {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Fulfilled || s.data == nil {
		return nil
	}
	var parts []slice.T
	for _, gid := range s.data.Tables() {
		col := s.data.Table(gid).Column(column)
		if col == nil {
			return nil
		}
		parts = append(parts, col)
	}
	if parts == nil {
		return nil
	}
	return slice.Concat(parts...)
}

func (s *TableSource) IsConstant(column string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Fulfilled || s.data == nil {
		return false
	}
	seen := false
	var first interface{}
	for _, gid := range s.data.Tables() {
		t := s.data.Table(gid)
		if t.Len() == 0 {
			continue
		}
		if cv, ok := t.Const(column); ok {
			if !seen {
				first, seen = cv, true
			} else if !reflect.DeepEqual(cv, first) {
				return false
			}
			continue
		}
		col := t.Column(column)
		if col == nil {
			return false
		}
		cv := reflect.ValueOf(col)
		for i, n := 0, cv.Len(); i < n; i++ {
			v := cv.Index(i).Interface()
			if !seen {
				first, seen = v, true
			} else if !reflect.DeepEqual(v, first) {
				return false
			}
		}
	}
	return seen
}
