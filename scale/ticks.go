// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scale

import (
	"math"
	"time"

	"github.com/aclements/go-gg/table"
	mscale "github.com/aclements/go-moremath/scale"

	"github.com/jheeffer/vizabi-reactive/data"
)

// Ticks returns axis tick positions in domain space, plus a label
// per major tick. At most max major ticks are returned. Discrete
// scales return their levels; Log scales tick at powers of ten;
// time scales tick at year boundaries when the domain spans years.
// An undefined scale has no ticks.
func (s *Scale) Ticks(max int) (major, minor table.Slice, labels []string) {
	if s.Type == "" || !s.Type.Valid() || max < 1 {
		return nil, nil, nil
	}

	if s.Discrete() {
		levels := s.Levels()
		if levels == nil {
			return nil, nil, nil
		}
		n := s.levels.Len()
		labels = make([]string, n)
		for i := 0; i < n; i++ {
			labels[i] = data.FormatValue(s.levels.Index(i).Interface())
		}
		return levels, nil, labels
	}

	lo, hi := s.bounds()
	if lo == hi {
		return s.tickSlice([]float64{lo}), nil, []string{s.tickLabel(lo)}
	}

	switch s.Type {
	case Log:
		return s.logTicks(lo, hi, max)
	case Time:
		if s.kind == data.KindTime {
			return s.timeTicks(lo, hi, max)
		}
	}

	ls := mscale.Linear{Min: lo, Max: hi}
	mj, mn := ls.Ticks(mscale.TickOptions{Max: max})
	labels = make([]string, len(mj))
	for i, v := range mj {
		labels[i] = s.tickLabel(v)
	}
	return s.tickSlice(mj), s.tickSlice(mn), labels
}

// logTicks places ticks at powers of ten, thinning to every nth
// decade when the domain spans more than max of them.
func (s *Scale) logTicks(lo, hi float64, max int) (major, minor table.Slice, labels []string) {
	neg := lo < 0 && hi < 0
	if neg {
		lo, hi = -hi, -lo
	}
	if lo <= 0 {
		return nil, nil, nil
	}
	k0 := int(math.Ceil(math.Log10(lo) - 1e-9))
	k1 := int(math.Floor(math.Log10(hi) + 1e-9))
	if k1 < k0 {
		k0, k1 = k1, k0
	}
	stride := 1
	for (k1-k0)/stride+1 > max {
		stride++
	}
	var mj []float64
	for k := k0; k <= k1; k += stride {
		v := math.Pow(10, float64(k))
		if neg {
			v = -v
		}
		mj = append(mj, v)
	}
	labels = make([]string, len(mj))
	for i, v := range mj {
		labels[i] = s.tickLabel(v)
	}
	return mj, nil, labels
}

// timeTicks places ticks at year boundaries for multi-year domains
// and falls back to evenly spaced instants for shorter ones.
func (s *Scale) timeTicks(lo, hi float64, max int) (major, minor table.Slice, labels []string) {
	t0 := time.UnixMilli(int64(lo)).UTC()
	t1 := time.UnixMilli(int64(hi)).UTC()
	var mj, mn []float64
	if t1.Year()-t0.Year() >= 2 {
		ls := mscale.Linear{Min: float64(t0.Year()), Max: float64(t1.Year())}
		mj, mn = ls.Ticks(mscale.TickOptions{Max: max, MinLevel: 0, MaxLevel: 1000})
		toTime := func(years []float64) []time.Time {
			ts := make([]time.Time, len(years))
			for i, y := range years {
				ts[i] = time.Date(int(y), time.January, 1, 0, 0, 0, 0, time.UTC)
			}
			return ts
		}
		majorT := toTime(mj)
		labels = make([]string, len(majorT))
		for i, t := range majorT {
			labels[i] = data.FormatTime(t)
		}
		return majorT, toTime(mn), labels
	}
	ls := mscale.Linear{Min: lo, Max: hi}
	mj, mn = ls.Ticks(mscale.TickOptions{Max: max})
	toTime := func(ms []float64) []time.Time {
		ts := make([]time.Time, len(ms))
		for i, v := range ms {
			ts[i] = time.UnixMilli(int64(v)).UTC()
		}
		return ts
	}
	majorT := toTime(mj)
	labels = make([]string, len(majorT))
	for i, t := range majorT {
		labels[i] = data.FormatTime(t)
	}
	return majorT, toTime(mn), labels
}

func (s *Scale) tickSlice(vs []float64) table.Slice {
	if s.kind != data.KindTime {
		return vs
	}
	ts := make([]time.Time, len(vs))
	for i, v := range vs {
		ts[i] = time.UnixMilli(int64(v)).UTC()
	}
	return ts
}

func (s *Scale) tickLabel(v float64) string {
	return data.FormatValue(s.fromFloat(v))
}
