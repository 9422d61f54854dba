// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scale resolves chart scale configurations into concrete
// mappings from data values to visual values.
//
// A scale starts life as a Config: a partial, user-written
// description that may name a type, a domain, or a range, or none of
// them. Resolve combines the config with the column's concept and
// the observed data into a Scale, filling every gap with a fixed
// sequence of inference rules. The Scale is derived state: rebuild
// it when its inputs change rather than mutating it.
package scale

import (
	"math"
	"reflect"
	"time"

	"github.com/aclements/go-gg/table"
	mscale "github.com/aclements/go-moremath/scale"

	"github.com/jheeffer/vizabi-reactive/data"
)

// Type names a scale type.
type Type string

const (
	Linear  Type = "linear"
	Log     Type = "log"
	SymLog  Type = "symlog"
	Sqrt    Type = "sqrt"
	Pow     Type = "pow"
	Time    Type = "time"
	Ordinal Type = "ordinal"
	Point   Type = "point"
	Band    Type = "band"
)

var types = map[Type]bool{
	Linear: true, Log: true, SymLog: true, Sqrt: true, Pow: true,
	Time: true, Ordinal: true, Point: true, Band: true,
}

// Valid reports whether t names a known scale type.
func (t Type) Valid() bool {
	return types[t]
}

// Discrete reports whether t maps a set of levels rather than a
// continuous interval.
func (t Type) Discrete() bool {
	return t == Ordinal || t == Point || t == Band
}

// Config is a user-written scale configuration. Every field is
// optional; Resolve fills the rest from the concept and the observed
// data.
type Config struct {
	// Type names the scale type. An empty or unknown name leaves
	// the type to inference.
	Type Type

	// Domain fixes the scale's domain. For continuous types the
	// resolved domain is the bounds of these values; for discrete
	// types it is the values themselves, in this order. String
	// elements are parsed by the column's concept kind, so a time
	// concept may give Domain as []string{"1990", "2015"}.
	Domain table.Slice

	// Range fixes the output range. []float64{lo, hi} ranges
	// continuous values; a slice of colors or other values ranges
	// discrete ones.
	Range table.Slice

	// Zoomed restricts the visible window of the domain. It is
	// parsed like Domain, clamped to the resolved domain, and
	// defaults to it. Zooming does not change Map.
	Zoomed table.Slice

	// Constant pins the column to a single literal value. The
	// scale resolves to the profile's ordinal default with an
	// identity range, so Map returns the value itself. Callers
	// typically set it when the source reports the column
	// constant.
	Constant interface{}

	// ZeroBaseline extends one-sided continuous domains to start
	// or end at zero so areas stay proportional to values. Log
	// scales cannot reach zero and ignore it.
	ZeroBaseline bool

	// Clamp makes Map clamp its input to the domain.
	Clamp bool

	// Exponent is the exponent of Pow scales. Zero means 1.
	Exponent float64

	// AllowedTypes, when non-nil, restricts which types may be
	// resolved. A config or concept asking for a type outside
	// the list resolves to an undefined scale.
	AllowedTypes []Type
}

// A Scale maps domain values to range values. Build one with
// Resolve; the zero Scale and a Scale with Type "" map everything to
// nil.
type Scale struct {
	// Type is the resolved scale type. It is "" when the
	// configured type is not among the allowed ones.
	Type Type

	// Domain is the resolved domain: two elements for continuous
	// types, the ordered level set for discrete ones.
	Domain table.Slice

	// Range is the resolved output range, where one is
	// representable as a slice. Palette-backed color ranges leave
	// it as the palette's swatch or nil.
	Range table.Slice

	// Zoomed is the visible window of the domain.
	Zoomed table.Slice

	// Clamp reports whether Map clamps input to the domain.
	Clamp bool

	kind      data.Kind
	exponent  float64
	fwd, inv  func(float64) float64
	lin       mscale.Linear
	ranger    ranger
	levels    reflect.Value
	index     map[interface{}]int
	bandwidth float64
}

// Discrete reports whether the scale maps a level set.
func (s *Scale) Discrete() bool {
	return s.Type.Discrete()
}

// Levels returns the discrete domain levels, or nil for continuous
// scales.
func (s *Scale) Levels() table.Slice {
	if !s.Discrete() || !s.levels.IsValid() {
		return nil
	}
	return s.levels.Interface()
}

// Bandwidth returns the width of one band in output units. It is 0
// for every type but Band.
func (s *Scale) Bandwidth() float64 {
	return s.bandwidth
}

// Map maps a domain value to the range. Values outside a discrete
// domain, NaN, and missing values map to nil, as does any value on
// an undefined scale.
func (s *Scale) Map(x interface{}) interface{} {
	if s.Type == "" || !s.Type.Valid() || x == nil {
		return nil
	}
	if s.Discrete() {
		i, ok := s.levelIndex(x)
		if !ok {
			return nil
		}
		return s.mapLevel(i)
	}
	u, ok := s.normalize(x)
	if !ok {
		return nil
	}
	switch r := s.ranger.(type) {
	case continuousRanger:
		return r.rangeMap(u)
	case discreteRanger:
		// Bin the continuous value into the range's levels.
		_, n := r.levelCount()
		i := int(u * float64(n))
		if i < 0 {
			i = 0
		} else if i >= n {
			i = n - 1
		}
		return r.mapLevel(i, n)
	}
	return nil
}

// Invert maps a range value back to the domain. Ordinal scales and
// ranges without an inverse report ok false.
func (s *Scale) Invert(y interface{}) (interface{}, bool) {
	if s.Type == "" || !s.Type.Valid() {
		return nil, false
	}
	cr, ok := s.ranger.(continuousRanger)
	if !ok {
		return nil, false
	}
	u, ok := cr.rangeUnmap(y)
	if !ok {
		return nil, false
	}
	if s.Discrete() {
		// A native inverse does not exist for point and band
		// scales, so synthesize one by looking up the nearest
		// level.
		n := s.levels.Len()
		if n == 0 || s.Type == Ordinal {
			return nil, false
		}
		var i int
		switch s.Type {
		case Point:
			i = int(math.Round(u * float64(n-1)))
		case Band:
			i = int(u * float64(n))
		}
		if i < 0 {
			i = 0
		} else if i >= n {
			i = n - 1
		}
		return s.levels.Index(i).Interface(), true
	}
	if u < 0 && s.Clamp {
		u = 0
	} else if u > 1 && s.Clamp {
		u = 1
	}
	if s.lin.Min == s.lin.Max {
		// Degenerate domain: everything maps to its one value.
		lo, _ := s.bounds()
		return s.fromFloat(lo), true
	}
	v := s.inv(s.lin.Min + u*(s.lin.Max-s.lin.Min))
	return s.fromFloat(v), true
}

// ClampToDomain clamps v to the scale's domain. Continuous scales
// move v to the nearest domain bound; discrete scales keep members
// of the level set and reject everything else. Clamping an already
// in-domain value returns it unchanged.
func (s *Scale) ClampToDomain(v interface{}) (interface{}, bool) {
	if s.Type == "" || !s.Type.Valid() || v == nil {
		return nil, false
	}
	if s.Discrete() {
		if _, ok := s.levelIndex(v); ok {
			return v, true
		}
		return nil, false
	}
	f, ok := s.toFloat(v)
	if !ok || math.IsNaN(f) {
		return nil, false
	}
	lo, hi := s.bounds()
	if f < lo {
		f = lo
	} else if f > hi {
		f = hi
	}
	return s.fromFloat(f), true
}

// bounds returns the continuous domain bounds in float form, with
// times as epoch milliseconds.
func (s *Scale) bounds() (lo, hi float64) {
	dv := reflect.ValueOf(s.Domain)
	lo, _ = s.toFloat(dv.Index(0).Interface())
	hi, _ = s.toFloat(dv.Index(1).Interface())
	if hi < lo {
		lo, hi = hi, lo
	}
	return
}

// normalize maps a continuous domain value to [0, 1].
func (s *Scale) normalize(x interface{}) (float64, bool) {
	v, ok := s.toFloat(x)
	if !ok || math.IsNaN(v) {
		return 0, false
	}
	if s.lin.Min == s.lin.Max {
		// A degenerate domain maps everything to the middle of
		// the range.
		return 0.5, true
	}
	u := s.lin.Map(s.fwd(v))
	if s.Clamp {
		if u < 0 {
			u = 0
		} else if u > 1 {
			u = 1
		}
	}
	return u, true
}

// mapLevel maps a level index into the range.
func (s *Scale) mapLevel(i int) interface{} {
	n := s.levels.Len()
	if dr, ok := s.ranger.(discreteRanger); ok {
		return dr.mapLevel(i, n)
	}
	cr, ok := s.ranger.(continuousRanger)
	if !ok {
		return nil
	}
	var u float64
	switch s.Type {
	case Point:
		if n <= 1 {
			u = 0.5
		} else {
			u = float64(i) / float64(n-1)
		}
	case Band:
		u = float64(i) / float64(n)
	default:
		// Center each level in its share of the range.
		u = (float64(i) + 0.5) / float64(n)
	}
	return cr.rangeMap(u)
}

func (s *Scale) levelIndex(x interface{}) (int, bool) {
	if s.index == nil {
		return 0, false
	}
	i, ok := s.index[normKey(x)]
	return i, ok
}

// normKey normalizes a value for level lookup so that, for example,
// int 3 and float64 3 name the same level.
func normKey(x interface{}) interface{} {
	switch v := x.(type) {
	case time.Time:
		return v.UTC()
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case float64:
		return v
	}
	rv := reflect.ValueOf(x)
	if rv.IsValid() && canFloat[rv.Kind()] {
		return rv.Convert(float64Type).Float()
	}
	return x
}

var float64Type = reflect.TypeOf(float64(0))

var canFloat = map[reflect.Kind]bool{
	reflect.Float32: true,
	reflect.Float64: true,
	reflect.Int:     true,
	reflect.Int8:    true,
	reflect.Int16:   true,
	reflect.Int32:   true,
	reflect.Int64:   true,
	reflect.Uint:    true,
	reflect.Uintptr: true,
	reflect.Uint8:   true,
	reflect.Uint16:  true,
	reflect.Uint32:  true,
	reflect.Uint64:  true,
}

// toFloat converts a continuous domain value to its float form.
// Times become epoch milliseconds.
func (s *Scale) toFloat(x interface{}) (float64, bool) {
	switch v := x.(type) {
	case float64:
		return v, true
	case time.Time:
		return float64(v.UnixMilli()), true
	case string:
		parsed, err := data.ParseValue(s.kind, v)
		if err != nil || parsed == nil {
			return 0, false
		}
		return s.toFloat(parsed)
	}
	rv := reflect.ValueOf(x)
	if rv.IsValid() && canFloat[rv.Kind()] {
		return rv.Convert(float64Type).Float(), true
	}
	return 0, false
}

// fromFloat converts a float in domain units back to the domain
// type.
func (s *Scale) fromFloat(v float64) interface{} {
	if s.kind == data.KindTime {
		return time.UnixMilli(int64(math.Round(v))).UTC()
	}
	return v
}
