// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package data

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

// A ValueParser converts a string from a data file into a structured
// value, or returns an error if the string cannot be parsed.
type ValueParser func(string) (interface{}, error)

var (
	quarterRe = regexp.MustCompile(`^(\d{4})q([1-4])$`)
	weekRe    = regexp.MustCompile(`^(\d{4})w(\d{1,2})$`)
)

// TimeParsers is the sequence of parsers tried, in order, for values
// of time concepts: year ("2012"), month ("2012-03"), day
// ("2012-03-15"), ISO week ("2012w05"), and quarter ("2012q1"). All
// times are UTC.
var TimeParsers = []ValueParser{
	func(s string) (interface{}, error) { return time.ParseInLocation("2006", s, time.UTC) },
	func(s string) (interface{}, error) { return time.ParseInLocation("2006-01", s, time.UTC) },
	func(s string) (interface{}, error) { return time.ParseInLocation("2006-01-02", s, time.UTC) },
	parseWeek,
	parseQuarter,
}

// parseWeek parses an ISO 8601 year and week number, like "2012w05",
// to the Monday starting that week.
func parseWeek(s string) (interface{}, error) {
	m := weekRe.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("not a week: %q", s)
	}
	year, _ := strconv.Atoi(m[1])
	week, _ := strconv.Atoi(m[2])
	if week < 1 || week > 53 {
		return nil, fmt.Errorf("week %d out of range in %q", week, s)
	}
	// January 4th is always in ISO week 1.
	jan4 := time.Date(year, 1, 4, 0, 0, 0, 0, time.UTC)
	wd := int(jan4.Weekday())
	if wd == 0 {
		wd = 7
	}
	monday := jan4.AddDate(0, 0, 1-wd)
	return monday.AddDate(0, 0, (week-1)*7), nil
}

// parseQuarter parses a year and quarter, like "2012q1", to the
// first day of that quarter.
func parseQuarter(s string) (interface{}, error) {
	m := quarterRe.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("not a quarter: %q", s)
	}
	year, _ := strconv.Atoi(m[1])
	q, _ := strconv.Atoi(m[2])
	return time.Date(year, time.Month((q-1)*3+1), 1, 0, 0, 0, 0, time.UTC), nil
}

// ParseValue converts a raw string to the natural Go type for a
// concept of kind k: float64 for measures, time.Time for times, bool
// for booleans, and the string itself otherwise. An empty string is
// a missing value and parses to nil.
func ParseValue(k Kind, raw string) (interface{}, error) {
	if raw == "" {
		return nil, nil
	}
	switch k {
	case KindMeasure:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot parse %q as measure", raw)
		}
		return v, nil

	case KindTime:
		for _, p := range TimeParsers {
			if v, err := p(raw); err == nil {
				return v, nil
			}
		}
		return nil, fmt.Errorf("cannot parse %q as time", raw)

	case KindBoolean:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("cannot parse %q as boolean", raw)
		}
		return v, nil
	}
	return raw, nil
}

// FormatValue renders a value parsed by ParseValue back to a string.
// Times are formatted at the coarsest granularity that round-trips
// through ParseValue: years as "2012", months as "2012-03", and
// anything finer as a full date. Weeks and quarters are not
// distinguished from days.
func FormatValue(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case float64:
		if math.IsNaN(v) {
			return ""
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return FormatTime(v)
	case string:
		return v
	}
	return fmt.Sprintf("%v", v)
}

// FormatTime renders t like FormatValue does.
func FormatTime(t time.Time) string {
	if t.Day() == 1 && t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		if t.Month() == time.January {
			return t.Format("2006")
		}
		return t.Format("2006-01")
	}
	return t.Format("2006-01-02")
}

// Floats converts a column of raw strings to float64s, mapping
// missing and unparseable values to NaN.
func Floats(raw []string) []float64 {
	out := make([]float64, len(raw))
	for i, s := range raw {
		v, err := ParseValue(KindMeasure, s)
		if err != nil || v == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = v.(float64)
	}
	return out
}

// Times converts a column of raw strings to time.Times. Unlike
// measures, a time column has no missing-value representation, so
// empty or unparseable values are an error.
func Times(raw []string) ([]time.Time, error) {
	out := make([]time.Time, len(raw))
	for i, s := range raw {
		v, err := ParseValue(KindTime, s)
		if err != nil {
			return nil, err
		}
		t, ok := v.(time.Time)
		if !ok {
			return nil, fmt.Errorf("missing time value at row %d", i)
		}
		out[i] = t
	}
	return out, nil
}
