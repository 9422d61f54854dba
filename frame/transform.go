// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package frame

import (
	"math"
	"reflect"
	"time"

	"github.com/aclements/go-gg/generic/slice"
	"github.com/aclements/go-gg/table"
)

// A Stat is one step of a frame transform pipeline. Stats are pure:
// they derive a new Grouping and leave their input alone.
type Stat interface {
	F(table.Grouping) table.Grouping
}

// Pipeline applies stats to g in order and returns the result.
func Pipeline(g table.Grouping, stats ...Stat) table.Grouping {
	for _, s := range stats {
		g = s.F(g)
	}
	return g
}

// FrameMap slices a dataset into one group per frame value.
//
// The input is grouped by the frame column, then reindexed against
// the declared domain: the output has exactly one group per domain
// value, in domain order, with an empty table standing in for frames
// the data never mentions. This fixed, ordered frame set is what the
// other frame stats and fractional steps are defined over.
type FrameMap struct {
	// Column is the frame dimension column.
	Column string

	// Domain is the full frame domain, in frame order. Rows whose
	// frame value is not in Domain are dropped.
	Domain table.Slice
}

func (f FrameMap) F(g table.Grouping) table.Grouping {
	flat := table.Flatten(g)
	grouped := table.GroupBy(flat, f.Column)

	byLabel := make(map[interface{}]table.GroupID, len(grouped.Tables()))
	for _, gid := range grouped.Tables() {
		byLabel[labelKey(gid.Label())] = gid
	}

	dv := reflect.ValueOf(f.Domain)
	var out table.GroupingBuilder
	for i, n := 0, dv.Len(); i < n; i++ {
		v := dv.Index(i).Interface()
		if gid, ok := byLabel[labelKey(v)]; ok {
			out.Add(gid, grouped.Table(gid))
			continue
		}
		out.Add(table.RootGroupID.Extend(v), emptyFrame(flat, f.Column, v))
	}
	return out.Done()
}

// emptyFrame returns a zero-row table with the column shape of t,
// standing in for frame value v.
func emptyFrame(t *table.Table, column string, v interface{}) *table.Table {
	var b table.Builder
	for _, col := range t.Columns() {
		if col == column {
			b.AddConst(col, v)
			continue
		}
		if cv, ok := t.Const(col); ok {
			b.AddConst(col, cv)
			continue
		}
		b.Add(col, slice.Select(t.Column(col), []int{}))
	}
	return b.Done()
}

// emptyLike returns a zero-row table with the column shape of t.
func emptyLike(t *table.Table) *table.Table {
	var b table.Builder
	for _, col := range t.Columns() {
		cv := t.Column(col)
		b.Add(col, reflect.MakeSlice(reflect.TypeOf(cv), 0, 0).Interface())
	}
	return b.Done()
}

// CurrentFrame selects the one frame to display from a frame-sliced
// grouping.
//
// If Value names a frame that exists, that frame is the result. A
// value between two frames synthesizes one: each row of the earlier
// frame has its float64 columns blended toward the matching row of
// the later frame by the fractional step, keeping everything else
// from the earlier row. A value off the scale entirely, as happens
// while data is being refiltered, yields an empty frame of the same
// shape.
type CurrentFrame struct {
	// Column is the frame dimension column.
	Column string

	// Value is the frame value to display.
	Value interface{}

	// Steps is the step scale the input grouping is indexed by.
	Steps *StepScale

	// By are the entity key columns used to match rows between
	// two frames being blended.
	By []string
}

func (c CurrentFrame) F(g table.Grouping) table.Grouping {
	gids := g.Tables()
	if len(gids) == 0 {
		return new(table.Table)
	}

	step, ok := c.Steps.Step(c.Value)
	k0 := int(math.Floor(step))
	if !ok || k0 < 0 || k0 >= len(gids) {
		return emptyLike(g.Table(gids[0]))
	}
	frac := step - float64(k0)
	if frac == 0 || k0+1 >= len(gids) {
		return g.Table(gids[k0])
	}
	return blendFrames(g.Table(gids[k0]), g.Table(gids[k0+1]), frac, c.Column, c.Value, c.By)
}

// blendFrames interpolates between two frames at fraction frac in
// [0, 1). Rows are matched by entity key; a row with no counterpart
// in t1 keeps its t0 values, and rows only in t1 are left for the
// step that reaches them.
func blendFrames(t0, t1 *table.Table, frac float64, column string, value interface{}, by []string) *table.Table {
	idx1 := rowIndex(t1, by)
	keyCols := keyColumns(t0, by)

	match := make([]int, t0.Len())
	for i := range match {
		j, ok := idx1[entityKey(keyCols, i)]
		if !ok {
			j = -1
		}
		match[i] = j
	}

	var b table.Builder
	for _, col := range t0.Columns() {
		if col == column {
			b.AddConst(col, value)
			continue
		}
		if cv, ok := t0.Const(col); ok {
			b.AddConst(col, cv)
			continue
		}
		v0 := t0.Column(col)
		xs0, ok := v0.([]float64)
		if !ok {
			b.Add(col, v0)
			continue
		}
		xs1, _ := t1.Column(col).([]float64)
		out := make([]float64, len(xs0))
		for i, x := range xs0 {
			j := match[i]
			if j < 0 || xs1 == nil || math.IsNaN(xs1[j]) {
				out[i] = x
				continue
			}
			out[i] = x + (xs1[j]-x)*frac
		}
		b.Add(col, out)
	}
	return b.Done()
}

// FilterRequired drops rows that are missing any of the named
// fields. This is the filter the extrapolation extent is computed
// against, so it must run after Extrapolate.
type FilterRequired struct {
	Fields []string
}

func (f FilterRequired) F(g table.Grouping) table.Grouping {
	if len(f.Fields) == 0 {
		return g
	}
	return table.MapTables(g, func(_ table.GroupID, t *table.Table) *table.Table {
		if t.Len() == 0 {
			return t
		}
		cols := make([]reflect.Value, 0, len(f.Fields))
		for _, field := range f.Fields {
			if _, ok := t.Const(field); ok {
				continue
			}
			cols = append(cols, reflect.ValueOf(t.MustColumn(field)))
		}
		keep := make([]int, 0, t.Len())
		for i := 0; i < t.Len(); i++ {
			if rowComplete(cols, i) {
				keep = append(keep, i)
			}
		}
		if len(keep) == t.Len() {
			return t
		}
		var b table.Builder
		for _, col := range t.Columns() {
			if cv, ok := t.Const(col); ok {
				b.AddConst(col, cv)
				continue
			}
			b.Add(col, slice.Select(t.Column(col), keep))
		}
		return b.Done()
	})
}

// missingAt reports whether row i of a column holds a missing value:
// NaN, an empty string, a zero time, or nil.
func missingAt(col reflect.Value, i int) bool {
	switch v := col.Index(i).Interface().(type) {
	case float64:
		return math.IsNaN(v)
	case string:
		return v == ""
	case time.Time:
		return v.IsZero()
	case nil:
		return true
	}
	return false
}

// rowComplete reports whether row i has a value in every column.
func rowComplete(cols []reflect.Value, i int) bool {
	for _, col := range cols {
		if missingAt(col, i) {
			return false
		}
	}
	return true
}
