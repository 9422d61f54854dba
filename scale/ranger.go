// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scale

import (
	"image/color"
	"reflect"

	"github.com/aclements/go-gg/palette"
)

// A ranger is the output side of a scale. It is either a
// continuousRanger or a discreteRanger, or both.
type ranger interface{}

type continuousRanger interface {
	// rangeMap maps u in [0, 1] into the range.
	rangeMap(u float64) interface{}

	// rangeUnmap maps a range value back to [0, 1].
	rangeUnmap(y interface{}) (float64, bool)
}

type discreteRanger interface {
	// levelCount returns the smallest and largest number of
	// levels the range can represent.
	levelCount() (min, max int)

	// mapLevel maps level i of n into the range.
	mapLevel(i, n int) interface{}
}

// floatRanger ranges over a continuous [lo, lo+w] interval.
type floatRanger struct {
	lo, w float64
}

func newFloatRanger(lo, hi float64) *floatRanger {
	return &floatRanger{lo, hi - lo}
}

func (r *floatRanger) rangeMap(u float64) interface{} {
	return u*r.w + r.lo
}

func (r *floatRanger) rangeUnmap(y interface{}) (float64, bool) {
	v, ok := y.(float64)
	if !ok || r.w == 0 {
		return 0, false
	}
	return (v - r.lo) / r.w, true
}

// gradientRanger ranges over a continuous color palette.
type gradientRanger struct {
	p palette.Continuous
}

func (r *gradientRanger) rangeMap(u float64) interface{} {
	if u < 0 {
		u = 0
	} else if u > 1 {
		u = 1
	}
	return r.p.Map(u)
}

func (r *gradientRanger) rangeUnmap(y interface{}) (float64, bool) {
	return 0, false
}

// swatchRanger ranges over a fixed list of colors, one per level.
type swatchRanger struct {
	colors []color.Color
}

func (r *swatchRanger) levelCount() (min, max int) {
	return len(r.colors), len(r.colors)
}

func (r *swatchRanger) mapLevel(i, n int) interface{} {
	if len(r.colors) == 0 {
		return nil
	}
	return r.colors[i%len(r.colors)]
}

// sliceRanger ranges over an arbitrary slice of values, cycling when
// there are more levels than values.
type sliceRanger struct {
	vals reflect.Value
}

func (r *sliceRanger) levelCount() (min, max int) {
	return r.vals.Len(), r.vals.Len()
}

func (r *sliceRanger) mapLevel(i, n int) interface{} {
	if r.vals.Len() == 0 {
		return nil
	}
	return r.vals.Index(i % r.vals.Len()).Interface()
}

// identityRanger maps each level to itself. Constant columns use it
// so a configured literal passes through the scale unchanged.
type identityRanger struct {
	levels reflect.Value
}

func (r *identityRanger) levelCount() (min, max int) {
	return r.levels.Len(), r.levels.Len()
}

func (r *identityRanger) mapLevel(i, n int) interface{} {
	if i < 0 || i >= r.levels.Len() {
		return nil
	}
	return r.levels.Index(i).Interface()
}

// Category10 is the default discrete color palette, in the order
// levels are assigned.
var Category10 = []color.Color{
	color.RGBA{0x1f, 0x77, 0xb4, 0xff},
	color.RGBA{0xff, 0x7f, 0x0e, 0xff},
	color.RGBA{0x2c, 0xa0, 0x2c, 0xff},
	color.RGBA{0xd6, 0x27, 0x28, 0xff},
	color.RGBA{0x94, 0x67, 0xbd, 0xff},
	color.RGBA{0x8c, 0x56, 0x4b, 0xff},
	color.RGBA{0xe3, 0x77, 0xc2, 0xff},
	color.RGBA{0x7f, 0x7f, 0x7f, 0xff},
	color.RGBA{0xbc, 0xbd, 0x22, 0xff},
	color.RGBA{0x17, 0xbe, 0xcf, 0xff},
}
