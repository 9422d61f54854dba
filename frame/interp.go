// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package frame

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/aclements/go-gg/table"
)

// FilledCol returns the name of the bool column that marks which
// rows of field were synthesized by Interpolate or Extrapolate
// rather than observed.
func FilledCol(field string) string {
	return field + " filled"
}

// FilledLoCol and FilledHiCol return the names of the int columns
// recording where a filled cell of field came from: the indices of
// the two frames an interpolated value lies between, or twice the
// frame an extrapolated value was copied from. Cells not marked by
// FilledCol hold -1.
func FilledLoCol(field string) string {
	return field + " filled lo"
}

func FilledHiCol(field string) string {
	return field + " filled hi"
}

// Interpolate fills missing values of the frame fields by linear
// interpolation along the frame dimension, independently per entity
// and per field.
//
// A field value is missing when it is NaN, or when the entity has no
// row at all in a frame between two frames where it does. Interior
// gaps are filled at evenly spaced fractions between the known
// endpoints; a row synthesized for a frame the entity was absent
// from copies its remaining columns from the entity's row at the
// gap's left edge. Values before an entity's first known frame or
// after its last are left alone; Extrapolate handles those.
//
// Every field gets companion columns: FilledCol marks the
// synthesized cells, and FilledLoCol and FilledHiCol hold the frame
// indices of the known endpoints each one was computed between.
type Interpolate struct {
	// Column is the frame dimension column.
	Column string

	// Fields are the value columns to fill. They must be
	// []float64 columns.
	Fields []string

	// By are the entity key columns. Interpolation never crosses
	// rows whose By values differ.
	By []string
}

func (in Interpolate) F(g table.Grouping) table.Grouping {
	f := newFiller(g, in.Column, in.Fields, in.By)
	for _, ent := range f.ents {
		for _, field := range in.Fields {
			xs := f.series(field, ent)
			for _, gap := range FillGaps(xs) {
				for k := gap.Lo + 1; k < gap.Hi; k++ {
					f.set(k, ent, field, xs[k], gap.Lo, gap.Hi)
				}
			}
		}
	}
	return f.done()
}

// Extrapolate extends each entity's first and last known field
// values outward, so entities whose series start late or end early
// hold their edge value instead of disappearing.
//
// The extension stops at the data extent: the first and last frame
// with at least one row that has every Required field. The extent
// comes from Extrapolate's own input, so Extrapolate must run
// before any stat that drops incomplete rows, such as
// FilterRequired. Filled cells get the same companion columns as
// Interpolate, with both bounds naming the frame the edge value was
// copied from.
type Extrapolate struct {
	// Column is the frame dimension column.
	Column string

	// Fields are the value columns to extend. They must be
	// []float64 columns.
	Fields []string

	// By are the entity key columns.
	By []string

	// Required are the columns that define the data extent.
	// Empty means any row counts.
	Required []string

	// Limit, if positive, caps how many frames are extended on
	// each side of an entity's known values.
	Limit int
}

func (ex Extrapolate) F(g table.Grouping) table.Grouping {
	f := newFiller(g, ex.Column, ex.Fields, ex.By)
	lo, hi, ok := frameExtent(f.tabs, ex.Required)
	if !ok {
		return f.done()
	}
	for _, ent := range f.ents {
		for _, field := range ex.Fields {
			xs := f.series(field, ent)
			k0, k1 := knownRange(xs)
			if k0 < 0 {
				continue
			}
			start, end := lo, hi
			if ex.Limit > 0 {
				if s := k0 - ex.Limit; s > start {
					start = s
				}
				if e := k1 + ex.Limit; e < end {
					end = e
				}
			}
			for k := start; k < k0; k++ {
				f.set(k, ent, field, xs[k0], k0, k0)
			}
			for k := k1 + 1; k <= end; k++ {
				f.set(k, ent, field, xs[k1], k1, k1)
			}
		}
	}
	return f.done()
}

// knownRange returns the first and last non-NaN index of xs, or
// (-1, -1) if xs has no known values.
func knownRange(xs []float64) (lo, hi int) {
	lo, hi = -1, -1
	for i, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		if lo < 0 {
			lo = i
		}
		hi = i
	}
	return
}

// frameExtent returns the indices of the first and last frame with
// at least one row that has every required field. ok is false when
// no frame qualifies.
func frameExtent(tabs []*table.Table, required []string) (lo, hi int, ok bool) {
	lo, hi = -1, -1
	for k, t := range tabs {
		if !frameHasComplete(t, required) {
			continue
		}
		if lo < 0 {
			lo = k
		}
		hi = k
	}
	return lo, hi, lo >= 0
}

// frameHasComplete reports whether t has a row with all of the
// required fields present.
func frameHasComplete(t *table.Table, required []string) bool {
	if t.Len() == 0 {
		return false
	}
	cols := make([]reflect.Value, 0, len(required))
	for _, field := range required {
		col := t.Column(field)
		if col == nil {
			return false
		}
		cols = append(cols, reflect.ValueOf(col))
	}
	for i := 0; i < t.Len(); i++ {
		if rowComplete(cols, i) {
			return true
		}
	}
	return false
}

// Differentiate replaces a field with its change since the previous
// frame: in each frame, an entity's value becomes its value here
// minus its value in the frame before, and the first frame an
// entity has data in becomes 0.
//
// Every entity should have a value in every frame from its first to
// its last, which is what Interpolate produces; gaps are not
// rechecked here.
type Differentiate struct {
	// Field is the value column to differentiate, a []float64
	// column.
	Field string

	// By are the entity key columns.
	By []string
}

func (d Differentiate) F(g table.Grouping) table.Grouping {
	prev := make(map[string]float64)
	var out table.GroupingBuilder
	for _, gid := range g.Tables() {
		t := g.Table(gid)
		if t.Len() == 0 {
			out.Add(gid, t)
			continue
		}
		xs := floatColumn(t, d.Field)
		cols := keyColumns(t, d.By)
		nxs := make([]float64, len(xs))
		cur := make(map[string]float64, len(xs))
		for i, x := range xs {
			key := entityKey(cols, i)
			if pv, ok := prev[key]; ok {
				nxs[i] = x - pv
			}
			cur[key] = x
		}
		prev = cur

		var nb table.Builder
		for _, name := range t.Columns() {
			if name == d.Field {
				nb.Add(name, nxs)
				continue
			}
			if cv, ok := t.Const(name); ok {
				nb.AddConst(name, cv)
				continue
			}
			nb.Add(name, t.Column(name))
		}
		out.Add(gid, nb.Done())
	}
	return out.Done()
}

// A filler is the machinery shared by Interpolate and Extrapolate.
// It indexes a frame grouping by entity, accumulates cell fills and
// synthesized rows, and rebuilds the grouping with companion columns
// recording what it made up and which frames it made it up from.
type filler struct {
	column string
	fields []string

	gids []table.GroupID
	tabs []*table.Table
	idx  []map[string]int // entity key to row, per frame
	ents []string         // entity keys in first-appearance order

	vals map[string][][]float64  // field columns, copied, per frame
	mark map[string][][]fillMark // fill provenance per frame

	added []map[string]*filledRow
}

// A fillMark is the provenance of one cell: whether its value was
// synthesized, and the indices of the frames it was derived from.
type fillMark struct {
	filled bool
	lo, hi int
}

// A filledRow is a row synthesized for an entity in a frame where it
// had none. Columns other than the filled fields are copied from the
// entity's row in frame src.
type filledRow struct {
	src   int
	vals  map[string]float64
	marks map[string]fillMark
}

func newFiller(g table.Grouping, column string, fields, by []string) *filler {
	gids := g.Tables()
	f := &filler{
		column: column,
		fields: fields,
		gids:   gids,
		tabs:   make([]*table.Table, len(gids)),
		idx:    make([]map[string]int, len(gids)),
		vals:   make(map[string][][]float64),
		mark:   make(map[string][][]fillMark),
		added:  make([]map[string]*filledRow, len(gids)),
	}
	seen := make(map[string]bool)
	for k, gid := range gids {
		t := g.Table(gid)
		f.tabs[k] = t
		cols := keyColumns(t, by)
		idx := make(map[string]int, t.Len())
		for i := 0; i < t.Len(); i++ {
			key := entityKey(cols, i)
			if _, ok := idx[key]; !ok {
				idx[key] = i
			}
			if !seen[key] {
				seen[key] = true
				f.ents = append(f.ents, key)
			}
		}
		f.idx[k] = idx
	}
	for _, field := range fields {
		vals := make([][]float64, len(gids))
		marks := make([][]fillMark, len(gids))
		for k, t := range f.tabs {
			vals[k] = append([]float64(nil), floatColumn(t, field)...)
			marks[k] = readMarks(t, field)
		}
		f.vals[field] = vals
		f.mark[field] = marks
	}
	return f
}

// readMarks reads field's companion columns of t, if present, so a
// second fill pass keeps the provenance recorded by an earlier one.
func readMarks(t *table.Table, field string) []fillMark {
	ms := make([]fillMark, t.Len())
	bs, ok := t.Column(FilledCol(field)).([]bool)
	if !ok {
		return ms
	}
	los, _ := t.Column(FilledLoCol(field)).([]int)
	his, _ := t.Column(FilledHiCol(field)).([]int)
	for i, b := range bs {
		if !b {
			continue
		}
		m := fillMark{filled: true, lo: -1, hi: -1}
		if los != nil {
			m.lo = los[i]
		}
		if his != nil {
			m.hi = his[i]
		}
		ms[i] = m
	}
	return ms
}

// series returns ent's values for field across all frames, NaN
// where the entity has no row.
func (f *filler) series(field, ent string) []float64 {
	vals := f.vals[field]
	xs := make([]float64, len(f.tabs))
	for k := range f.tabs {
		if i, ok := f.idx[k][ent]; ok {
			xs[k] = vals[k][i]
		} else {
			xs[k] = math.NaN()
		}
	}
	return xs
}

// set records value v for ent's field in frame k, derived from
// frames lo and hi. If ent has no row in frame k, the rest of its
// synthesized row is copied from its row in frame lo.
func (f *filler) set(k int, ent, field string, v float64, lo, hi int) {
	if i, ok := f.idx[k][ent]; ok {
		f.vals[field][k][i] = v
		f.mark[field][k][i] = fillMark{filled: true, lo: lo, hi: hi}
		return
	}
	if f.added[k] == nil {
		f.added[k] = make(map[string]*filledRow)
	}
	row := f.added[k][ent]
	if row == nil {
		row = &filledRow{src: lo, vals: make(map[string]float64), marks: make(map[string]fillMark)}
		f.added[k][ent] = row
	}
	row.vals[field] = v
	row.marks[field] = fillMark{filled: true, lo: lo, hi: hi}
}

// done rebuilds the grouping with the recorded fills applied.
func (f *filler) done() table.Grouping {
	var out table.GroupingBuilder
	for k, gid := range f.gids {
		out.Add(gid, f.rebuild(k, gid))
	}
	return out.Done()
}

func (f *filler) rebuild(k int, gid table.GroupID) *table.Table {
	t := f.tabs[k]

	// Synthesized rows, in entity first-appearance order.
	var adds []string
	for _, ent := range f.ents {
		if f.added[k][ent] != nil {
			adds = append(adds, ent)
		}
	}

	isField := make(map[string]bool, len(f.fields))
	for _, field := range f.fields {
		isField[field] = true
	}

	var b table.Builder
	for _, name := range t.Columns() {
		switch {
		case isField[name]:
			xs := f.vals[name][k]
			for _, ent := range adds {
				row := f.added[k][ent]
				v, ok := row.vals[name]
				if !ok {
					v = f.vals[name][row.src][f.idx[row.src][ent]]
				}
				xs = append(xs, v)
			}
			b.Add(name, xs)

		case name == f.column:
			// Synthesized rows belong to this frame, so a
			// constant frame column can stay constant.
			if cv, ok := t.Const(name); ok {
				b.AddConst(name, cv)
				continue
			}
			cv := reflect.ValueOf(t.Column(name))
			out := reflect.MakeSlice(cv.Type(), 0, cv.Len()+len(adds))
			out = reflect.AppendSlice(out, cv)
			label := reflect.ValueOf(gid.Label())
			for range adds {
				out = reflect.Append(out, label)
			}
			b.Add(name, out.Interface())

		default:
			if cv, ok := t.Const(name); ok && len(adds) == 0 {
				b.AddConst(name, cv)
				continue
			}
			cv := reflect.ValueOf(t.Column(name))
			out := reflect.MakeSlice(cv.Type(), 0, cv.Len()+len(adds))
			out = reflect.AppendSlice(out, cv)
			for _, ent := range adds {
				row := f.added[k][ent]
				src := reflect.ValueOf(f.tabs[row.src].Column(name))
				out = reflect.Append(out, src.Index(f.idx[row.src][ent]))
			}
			b.Add(name, out.Interface())
		}
	}
	for _, field := range f.fields {
		ms := f.mark[field][k]
		for _, ent := range adds {
			ms = append(ms, f.added[k][ent].marks[field])
		}
		filled := make([]bool, len(ms))
		los := make([]int, len(ms))
		his := make([]int, len(ms))
		for i, m := range ms {
			filled[i] = m.filled
			los[i], his[i] = m.lo, m.hi
			if !m.filled {
				los[i], his[i] = -1, -1
			}
		}
		b.Add(FilledCol(field), filled)
		b.Add(FilledLoCol(field), los)
		b.Add(FilledHiCol(field), his)
	}
	return b.Done()
}

// floatColumn returns column name of t as a []float64, panicking in
// the manner of MustColumn if it is missing or not a float column.
func floatColumn(t *table.Table, name string) []float64 {
	xs, ok := t.MustColumn(name).([]float64)
	if !ok {
		panic(fmt.Sprintf("column %q is not a []float64", name))
	}
	return xs
}

// keyColumns returns the materialized By columns of t.
func keyColumns(t *table.Table, by []string) []reflect.Value {
	cols := make([]reflect.Value, len(by))
	for i, col := range by {
		cols[i] = reflect.ValueOf(t.MustColumn(col))
	}
	return cols
}

// entityKey returns the entity key of row i over the By columns.
// Rows with equal By values get equal keys.
func entityKey(cols []reflect.Value, i int) string {
	if len(cols) == 0 {
		return ""
	}
	var b strings.Builder
	for _, col := range cols {
		fmt.Fprintf(&b, "%v\x00", labelKey(col.Index(i).Interface()))
	}
	return b.String()
}

// rowIndex maps each entity key in t to its first row.
func rowIndex(t *table.Table, by []string) map[string]int {
	cols := keyColumns(t, by)
	idx := make(map[string]int, t.Len())
	for i := 0; i < t.Len(); i++ {
		key := entityKey(cols, i)
		if _, ok := idx[key]; !ok {
			idx[key] = i
		}
	}
	return idx
}
