// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package frame

import (
	"math"
	"reflect"
	"time"
)

var float64Type = reflect.TypeOf(float64(0))

var canFloatKind = map[reflect.Kind]bool{
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

// labelKey normalizes a frame or entity value for use as a map key,
// so that a group label compares equal to the same value read from a
// column. Times key by instant and integers by their float value.
func labelKey(v interface{}) interface{} {
	switch v := v.(type) {
	case time.Time:
		return v.UnixNano()
	case float64:
		return v
	case string:
		return v
	}
	rv := reflect.ValueOf(v)
	if rv.IsValid() && canFloatKind[rv.Kind()] {
		return rv.Convert(float64Type).Float()
	}
	return v
}

// valueToFloat converts a frame value to a position on a numeric
// axis. Times convert to epoch milliseconds.
func valueToFloat(v interface{}) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case time.Time:
		return float64(v.UnixMilli()), true
	}
	rv := reflect.ValueOf(v)
	if rv.IsValid() && canFloatKind[rv.Kind()] {
		return rv.Convert(float64Type).Float(), true
	}
	return 0, false
}

// sameValue reports whether two frame values are the same, comparing
// times by instant and numbers by value.
func sameValue(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == b
	}
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		return ok && at.Equal(bt)
	}
	af, aok := valueToFloat(a)
	bf, bok := valueToFloat(b)
	if aok && bok {
		return af == bf || (math.IsNaN(af) && math.IsNaN(bf))
	}
	return a == b
}
