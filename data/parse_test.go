// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package data

import (
	"math"
	"reflect"
	"testing"
	"time"
)

func utc(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestParseValue(t *testing.T) {
	for _, test := range []struct {
		kind Kind
		raw  string
		want interface{}
		err  bool
	}{
		{KindMeasure, "3.25", 3.25, false},
		{KindMeasure, "-12", -12.0, false},
		{KindMeasure, "", nil, false},
		{KindMeasure, "abc", nil, true},

		{KindTime, "2012", utc(2012, time.January, 1), false},
		{KindTime, "2012-03", utc(2012, time.March, 1), false},
		{KindTime, "2012-03-15", utc(2012, time.March, 15), false},
		// 2012-W05-1 is January 30th.
		{KindTime, "2012w05", utc(2012, time.January, 30), false},
		{KindTime, "2012q1", utc(2012, time.January, 1), false},
		{KindTime, "2012q4", utc(2012, time.October, 1), false},
		{KindTime, "2012w54", nil, true},
		{KindTime, "March 2012", nil, true},
		{KindTime, "", nil, false},

		{KindBoolean, "TRUE", true, false},
		{KindBoolean, "false", false, false},
		{KindBoolean, "yes", nil, true},

		{KindString, "se", "se", false},
		{KindEntityDomain, "usa", "usa", false},
	} {
		got, err := ParseValue(test.kind, test.raw)
		if (err != nil) != test.err {
			t.Errorf("ParseValue(%v, %q) error = %v; want error = %v", test.kind, test.raw, err, test.err)
			continue
		}
		if err == nil && !reflect.DeepEqual(got, test.want) {
			t.Errorf("ParseValue(%v, %q) = %v; want %v", test.kind, test.raw, got, test.want)
		}
	}
}

func TestFormatValue(t *testing.T) {
	for _, test := range []struct {
		val  interface{}
		want string
	}{
		{nil, ""},
		{math.NaN(), ""},
		{1000.0, "1000"},
		{0.5, "0.5"},
		{true, "true"},
		{"se", "se"},
		{utc(2012, time.January, 1), "2012"},
		{utc(2012, time.March, 1), "2012-03"},
		{utc(2012, time.March, 15), "2012-03-15"},
	} {
		if got := FormatValue(test.val); got != test.want {
			t.Errorf("FormatValue(%v) = %q; want %q", test.val, got, test.want)
		}
	}

	// Times at year, month, and day granularity must round-trip.
	for _, s := range []string{"2012", "2012-03", "2012-03-15"} {
		v, err := ParseValue(KindTime, s)
		if err != nil {
			t.Fatalf("ParseValue(time, %q): %v", s, err)
		}
		if got := FormatValue(v); got != s {
			t.Errorf("FormatValue(ParseValue(%q)) = %q", s, got)
		}
	}
}

func TestFloats(t *testing.T) {
	got := Floats([]string{"1", "", "abc", "2.5"})
	want := []float64{1, math.NaN(), math.NaN(), 2.5}
	if len(got) != len(want) {
		t.Fatalf("want %v; got %v", want, got)
	}
	for i := range want {
		if math.IsNaN(want[i]) != math.IsNaN(got[i]) || (!math.IsNaN(want[i]) && want[i] != got[i]) {
			t.Errorf("Floats[%d] = %v; want %v", i, got[i], want[i])
		}
	}
}

func TestTimes(t *testing.T) {
	got, err := Times([]string{"1990", "1995"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []time.Time{utc(1990, time.January, 1), utc(1995, time.January, 1)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("want %v; got %v", want, got)
	}

	if _, err := Times([]string{"1990", ""}); err == nil {
		t.Errorf("Times with a missing value should fail")
	}
}

func TestParseKind(t *testing.T) {
	for _, test := range []struct {
		name string
		want Kind
	}{
		{"measure", KindMeasure},
		{"time", KindTime},
		{"entity_domain", KindEntityDomain},
		{"entity_set", KindEntitySet},
		{"boolean", KindBoolean},
		{"string", KindString},
		{"mystery", KindString},
	} {
		if got := ParseKind(test.name); got != test.want {
			t.Errorf("ParseKind(%q) = %v; want %v", test.name, got, test.want)
		}
		if test.name != "mystery" && test.want.String() != test.name {
			t.Errorf("%v.String() = %q; want %q", test.want, test.want.String(), test.name)
		}
	}
}
