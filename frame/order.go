// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package frame

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"time"

	"github.com/aclements/go-gg/generic/slice"
	"github.com/aclements/go-gg/table"
)

// A Direction orders a sort key.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "descending"
	}
	return "ascending"
}

// ParseDirection converts a direction name to a Direction. It
// accepts "ascending" and "descending" as well as the shorthands
// "asc" and "desc".
func ParseDirection(name string) (Direction, error) {
	switch name {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	}
	return Ascending, fmt.Errorf("unknown sort direction %q", name)
}

// A SortKey names one column to order records by.
type SortKey struct {
	Field     string
	Direction Direction
}

// Order sorts the rows within each frame by an ordered list of keys.
//
// Rows are compared key by key; ties fall through to the next key,
// and rows that compare equal on every key keep their original
// relative order, so sorting the same data twice gives the same
// result.
type Order struct {
	// Keys are the sort keys, most significant first.
	Keys []SortKey
}

// OrderBy returns an Order over the named fields, all ascending.
func OrderBy(fields ...string) Order {
	keys := make([]SortKey, len(fields))
	for i, f := range fields {
		keys[i] = SortKey{Field: f}
	}
	return Order{keys}
}

func (o Order) F(g table.Grouping) table.Grouping {
	if len(o.Keys) == 0 {
		return g
	}
	return table.MapTables(g, func(_ table.GroupID, t *table.Table) *table.Table {
		if t.Len() == 0 {
			return t
		}

		// Compare through a permutation so the sort is stable
		// regardless of the column types.
		cmps := make([]func(i, j int) int, 0, len(o.Keys))
		for _, key := range o.Keys {
			if _, ok := t.Const(key.Field); ok {
				// Constant columns cannot affect the order.
				continue
			}
			cmp := comparer(t.MustColumn(key.Field))
			if key.Direction == Descending {
				fwd := cmp
				cmp = func(i, j int) int { return -fwd(i, j) }
			}
			cmps = append(cmps, cmp)
		}
		if len(cmps) == 0 {
			return t
		}
		perm := make([]int, t.Len())
		for i := range perm {
			perm[i] = i
		}
		sort.SliceStable(perm, func(i, j int) bool {
			for _, cmp := range cmps {
				if c := cmp(perm[i], perm[j]); c != 0 {
					return c < 0
				}
			}
			return false
		})

		var nt table.Builder
		for _, name := range t.Columns() {
			if cv, ok := t.Const(name); ok {
				nt.AddConst(name, cv)
				continue
			}
			nt.Add(name, slice.Select(t.Column(name), perm))
		}
		return nt.Done()
	})
}

// comparer returns a three-way comparison over the rows of column
// col. Numeric columns compare numerically with NaN ordered first,
// times chronologically, and strings lexically. Any other element
// type compares by its formatted value.
func comparer(col table.Slice) func(i, j int) int {
	switch c := col.(type) {
	case []float64:
		return func(i, j int) int { return cmpFloat(c[i], c[j]) }
	case []int:
		return func(i, j int) int {
			switch {
			case c[i] < c[j]:
				return -1
			case c[i] > c[j]:
				return 1
			}
			return 0
		}
	case []string:
		return func(i, j int) int { return cmpString(c[i], c[j]) }
	case []time.Time:
		return func(i, j int) int {
			switch {
			case c[i].Before(c[j]):
				return -1
			case c[j].Before(c[i]):
				return 1
			}
			return 0
		}
	}
	cv := reflect.ValueOf(col)
	if k := cv.Type().Elem().Kind(); canFloatKind[k] {
		return func(i, j int) int {
			return cmpFloat(cv.Index(i).Convert(float64Type).Float(), cv.Index(j).Convert(float64Type).Float())
		}
	}
	return func(i, j int) int {
		return cmpString(fmt.Sprint(cv.Index(i).Interface()), fmt.Sprint(cv.Index(j).Interface()))
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b || (math.IsNaN(a) && !math.IsNaN(b)):
		return -1
	case a > b || (math.IsNaN(b) && !math.IsNaN(a)):
		return 1
	}
	return 0
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
