// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package frame

import (
	"math"
	"reflect"
	"sort"
	"time"

	"github.com/aclements/go-gg/generic/slice"
	"github.com/aclements/go-gg/table"

	"github.com/jheeffer/vizabi-reactive/scale"
)

// A StepScale maps the ordered distinct values of the frame
// dimension to integer step indices 0 through Count()-1 and back.
// Values between two adjacent frame values map to fractional steps
// when the values are numeric or times, so 3.4 means 40% of the way
// from step 3 to step 4.
//
// A StepScale is immutable; build a new one when the underlying
// domain changes.
type StepScale struct {
	values reflect.Value
	index  map[interface{}]int
	xs     []float64 // numeric positions, nil for unordered values
	isTime bool
}

// NewStepScale returns a StepScale over values, which must be a
// slice ordered the way the frames play. Values may be empty.
func NewStepScale(values table.Slice) *StepScale {
	s := &StepScale{values: reflect.ValueOf(values)}
	if values == nil {
		s.values = reflect.ValueOf([]interface{}{})
	}
	n := s.values.Len()
	s.index = make(map[interface{}]int, n)
	xs := make([]float64, n)
	numeric := n > 0
	for i := 0; i < n; i++ {
		v := s.values.Index(i).Interface()
		key := labelKey(v)
		if _, dup := s.index[key]; !dup {
			s.index[key] = i
		}
		if x, ok := valueToFloat(v); ok {
			xs[i] = x
		} else {
			numeric = false
		}
		if _, ok := v.(time.Time); ok {
			s.isTime = true
		}
	}
	if numeric {
		s.xs = xs
	}
	return s
}

// Count returns the number of steps.
func (s *StepScale) Count() int {
	return s.values.Len()
}

// Values returns the frame values in step order.
func (s *StepScale) Values() table.Slice {
	return s.values.Interface()
}

// Value returns the frame value at integer step i, or nil if i is
// out of range.
func (s *StepScale) Value(i int) interface{} {
	if i < 0 || i >= s.values.Len() {
		return nil
	}
	return s.values.Index(i).Interface()
}

// Step maps a frame value to its step index. Values between two
// adjacent numeric or time frame values map to a fractional step.
// ok is false if v is not on the scale: it is nil, it is outside the
// value range, or the values have no order to interpolate in and v
// is not one of them.
func (s *StepScale) Step(v interface{}) (step float64, ok bool) {
	if v == nil || s.values.Len() == 0 {
		return 0, false
	}
	if i, ok := s.index[labelKey(v)]; ok {
		return float64(i), true
	}
	if s.xs == nil {
		return 0, false
	}
	x, ok := valueToFloat(v)
	if !ok || math.IsNaN(x) {
		return 0, false
	}
	if x < s.xs[0] || x > s.xs[len(s.xs)-1] {
		return 0, false
	}
	// Find the surrounding steps and interpolate between them.
	for i := len(s.xs) - 1; i > 0; i-- {
		if x >= s.xs[i-1] {
			span := s.xs[i] - s.xs[i-1]
			if span == 0 {
				return float64(i - 1), true
			}
			return float64(i-1) + (x-s.xs[i-1])/span, true
		}
	}
	return 0, true
}

// Invert maps a step index back to a frame value. The step is
// clamped to the scale; a fractional step between two numeric or
// time values inverts to the value at that fraction, and otherwise
// rounds to the nearest whole step. Invert returns nil only when the
// scale is empty or the step is NaN.
func (s *StepScale) Invert(step float64) interface{} {
	n := s.values.Len()
	if n == 0 || math.IsNaN(step) {
		return nil
	}
	if step <= 0 {
		return s.values.Index(0).Interface()
	}
	if step >= float64(n-1) {
		return s.values.Index(n - 1).Interface()
	}
	i := int(step)
	frac := step - float64(i)
	if frac == 0 {
		return s.values.Index(i).Interface()
	}
	if s.xs == nil {
		return s.values.Index(int(math.Round(step))).Interface()
	}
	x := s.xs[i] + (s.xs[i+1]-s.xs[i])*frac
	if s.isTime {
		return time.UnixMilli(int64(math.Round(x))).UTC()
	}
	return x
}

// stepDomain returns the playable frame values for a resolved frame
// scale: the scale's own level set when it is discrete, else the
// distinct observed values inside the scale's domain, ascending.
func stepDomain(sc *scale.Scale, observed table.Slice) table.Slice {
	if sc.Discrete() {
		return sc.Levels()
	}
	if observed == nil || sc.Domain == nil {
		return nil
	}
	nub := slice.Nub(observed)
	sortFrameValues(nub)
	dv := reflect.ValueOf(sc.Domain)
	if dv.Len() < 2 {
		return nub
	}
	lo, ok0 := valueToFloat(dv.Index(0).Interface())
	hi, ok1 := valueToFloat(dv.Index(1).Interface())
	if !ok0 || !ok1 {
		return nub
	}
	if hi < lo {
		lo, hi = hi, lo
	}
	nv := reflect.ValueOf(nub)
	keep := make([]int, 0, nv.Len())
	for i := 0; i < nv.Len(); i++ {
		if x, ok := valueToFloat(nv.Index(i).Interface()); ok && lo <= x && x <= hi {
			keep = append(keep, i)
		}
	}
	if len(keep) == nv.Len() {
		return nub
	}
	return slice.Select(nub, keep)
}

// sortFrameValues orders frame values ascending, times
// chronologically.
func sortFrameValues(sl table.Slice) {
	if ts, ok := sl.([]time.Time); ok {
		sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })
		return
	}
	if slice.CanSort(sl) {
		slice.Sort(sl)
	}
}
