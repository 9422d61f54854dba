// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scale

import (
	"errors"
	"fmt"
	"image/color"
	"log"
	"math"
	"reflect"
	"sort"
	"time"

	"github.com/aclements/go-gg/generic/slice"
	"github.com/aclements/go-gg/palette"
	"github.com/aclements/go-gg/table"
	mscale "github.com/aclements/go-moremath/scale"

	"github.com/jheeffer/vizabi-reactive/data"
)

// ErrTypeNotAllowed is returned by Resolve when the decided scale
// type is not among Config.AllowedTypes. The scale returned with it
// has Type "" and maps everything to nil.
var ErrTypeNotAllowed = errors.New("scale type not allowed")

// A Profile carries the per-channel defaults Resolve falls back on
// when the config and the concept decide nothing. The zero Profile
// behaves like XY.
type Profile struct {
	// Fallback is the type used when no inference rule picks one.
	Fallback Type

	// OrdinalDefault is the discrete type used for entity,
	// string, boolean, and constant columns.
	OrdinalDefault Type

	// Range is the default output range. nil means the unit
	// interval for continuous, point, and band scales; an Ordinal
	// scale with no range cycles a swatch instead.
	Range []float64

	// PointRange overrides Range for Point scales.
	PointRange []float64

	// Gradient is the default continuous color palette. When set
	// and the config names no range, continuous scales map into
	// it instead of the unit interval.
	Gradient palette.Continuous

	// Swatch is the discrete color list Ordinal scales cycle when
	// the config names no range. nil means Category10.
	Swatch []color.Color
}

// Channel profiles.
var (
	// XY resolves like a position channel.
	XY = Profile{Fallback: Linear, OrdinalDefault: Point}

	// Color resolves like a color channel: discrete levels cycle
	// a swatch and continuous values sample viridis.
	Color = Profile{Fallback: Linear, OrdinalDefault: Ordinal, Gradient: palette.Viridis, Swatch: Category10}

	// Size resolves like an area channel. The sqrt fallback keeps
	// areas proportional to values, and the point range keeps the
	// smallest symbol visible.
	Size = Profile{Fallback: Sqrt, OrdinalDefault: Point, Range: []float64{0, 20}, PointRange: []float64{1, 20}}

	// Frame resolves the playback axis of an animation.
	Frame = Profile{Fallback: Linear, OrdinalDefault: Point}
)

// Resolve resolves cfg like a position channel. See Profile.Resolve.
func Resolve(cfg Config, c *data.Concept, domain table.Slice) (*Scale, error) {
	return XY.Resolve(cfg, c, domain)
}

// Resolve combines a scale config, a column concept, and the
// column's observed values into a Scale. c may be nil, in which case
// the column's kind is taken from the data; domain may be nil when
// nothing is loaded yet.
//
// The scale type is decided by the first rule that applies:
//
//  1. a valid Config.Type;
//  2. the first valid entry of the concept's declared scales;
//  3. Time for time concepts;
//  4. the profile's fallback for measures;
//  5. the profile's ordinal default for everything else;
//  6. except that a constant column always gets the ordinal
//     default, so a configured literal renders at a fixed place;
//  7. and Log over a domain that touches zero or spans both signs
//     silently becomes SymLog.
//
// If the decided type is not among Config.AllowedTypes, the scale
// resolves undefined: its Type is "" and Resolve returns
// ErrTypeNotAllowed.
func (p Profile) Resolve(cfg Config, c *data.Concept, domain table.Slice) (*Scale, error) {
	if p.Fallback == "" {
		p.Fallback = Linear
	}
	if p.OrdinalDefault == "" {
		p.OrdinalDefault = Point
	}
	kind := kindOf(c, domain)

	// Rules 1 and 2: explicit config, then concept preference.
	typ := cfg.Type
	if !typ.Valid() {
		typ = ""
	}
	if typ == "" && c != nil {
		for _, name := range c.Scales {
			if t := Type(name); t.Valid() {
				typ = t
				break
			}
		}
	}

	// Rules 3 to 5: by kind.
	if typ == "" {
		switch kind {
		case data.KindTime:
			typ = Time
		case data.KindMeasure:
			typ = p.Fallback
		default:
			typ = p.OrdinalDefault
		}
	}

	// Rule 6: constants pin to a single level.
	if cfg.Constant != nil {
		typ = p.OrdinalDefault
	}

	s := &Scale{Clamp: cfg.Clamp, kind: kind}

	if typ.Discrete() {
		if err := p.resolveDiscrete(s, cfg, typ, domain); err != nil {
			return nil, err
		}
	} else {
		if err := p.resolveContinuous(s, cfg, &typ, domain); err != nil {
			return nil, err
		}
	}

	// The allowed-types check runs on the final type so that a
	// substituted SymLog is judged, not the Log it replaced.
	if cfg.AllowedTypes != nil && !typeAllowed(cfg.AllowedTypes, typ) {
		name := "column"
		if c != nil {
			name = c.ID
		}
		log.Printf("scale: type %s for %s is not in allowed types %v", typ, name, cfg.AllowedTypes)
		return &Scale{kind: kind}, ErrTypeNotAllowed
	}

	s.Type = typ
	if err := p.resolveZoomed(s, cfg); err != nil {
		return nil, err
	}
	return s, nil
}

func typeAllowed(allowed []Type, t Type) bool {
	for _, a := range allowed {
		if a == t {
			return true
		}
	}
	return false
}

// kindOf returns the concept's kind, or infers one from the data
// when the column has no concept.
func kindOf(c *data.Concept, domain table.Slice) data.Kind {
	if c != nil {
		return c.Kind
	}
	if domain == nil {
		return data.KindString
	}
	switch domain.(type) {
	case []time.Time:
		return data.KindTime
	case []bool:
		return data.KindBoolean
	}
	et := reflect.TypeOf(domain).Elem()
	if canFloat[et.Kind()] {
		return data.KindMeasure
	}
	return data.KindString
}

// resolveContinuous fills in the domain, transform, and range of a
// continuous scale. It may rewrite *typ per rule 7.
func (p Profile) resolveContinuous(s *Scale, cfg Config, typ *Type, domain table.Slice) error {
	lo, hi, ok := 0.0, 1.0, false
	if cfg.Domain != nil {
		parsed, err := parseSlice(s.kind, cfg.Domain)
		if err != nil {
			return fmt.Errorf("bad scale domain: %v", err)
		}
		lo, hi, ok = boundsOf(s, parsed)
		if !ok {
			return fmt.Errorf("scale domain %v has no usable bounds", cfg.Domain)
		}
	} else if domain != nil {
		lo, hi, ok = boundsOf(s, reflect.ValueOf(domain))
	}
	if !ok {
		// Nothing to train on. Default to a small, valid
		// domain so mapping stays well defined.
		switch {
		case *typ == Log:
			lo, hi = 1, 10
		case s.kind == data.KindTime:
			lo = float64(time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli())
			hi = float64(time.Date(1971, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli())
		default:
			lo, hi = 0, 1
		}
	}

	// Zero baseline: grow one-sided domains to start at zero.
	// Log domains cannot contain zero.
	if cfg.ZeroBaseline && *typ != Log {
		if lo > 0 {
			lo = 0
		} else if hi < 0 {
			hi = 0
		}
	}

	// Rule 7: Log cannot represent zero or a sign change.
	if *typ == Log && lo <= 0 && hi >= 0 {
		*typ = SymLog
	}

	s.exponent = cfg.Exponent
	if s.exponent == 0 {
		s.exponent = 1
	}
	s.fwd, s.inv = transform(*typ, s.exponent, lo < 0 && hi < 0)
	s.lin = mscale.Linear{Min: s.fwd(lo), Max: s.fwd(hi)}
	if s.kind == data.KindTime {
		s.Domain = []time.Time{s.fromFloat(lo).(time.Time), s.fromFloat(hi).(time.Time)}
	} else {
		s.Domain = []float64{lo, hi}
	}

	return p.resolveContinuousRange(s, cfg)
}

// transform returns the forward and inverse transforms that
// straighten a continuous scale type. neg marks an all-negative
// domain, which Log handles mirrored.
func transform(t Type, exponent float64, neg bool) (fwd, inv func(float64) float64) {
	switch t {
	case Log:
		if neg {
			return func(x float64) float64 { return -math.Log(-x) },
				func(y float64) float64 { return -math.Exp(-y) }
		}
		return math.Log, math.Exp
	case SymLog:
		return func(x float64) float64 { return math.Copysign(math.Log1p(math.Abs(x)), x) },
			func(y float64) float64 { return math.Copysign(math.Expm1(math.Abs(y)), y) }
	case Sqrt:
		return func(x float64) float64 { return math.Copysign(math.Sqrt(math.Abs(x)), x) },
			func(y float64) float64 { return math.Copysign(y*y, y) }
	case Pow:
		return func(x float64) float64 { return math.Copysign(math.Pow(math.Abs(x), exponent), x) },
			func(y float64) float64 { return math.Copysign(math.Pow(math.Abs(y), 1/exponent), y) }
	}
	ident := func(x float64) float64 { return x }
	return ident, ident
}

func (p Profile) resolveContinuousRange(s *Scale, cfg Config) error {
	switch rng := cfg.Range.(type) {
	case nil:
		if p.Gradient != nil {
			s.ranger = &gradientRanger{p.Gradient}
			return nil
		}
		lo, hi := 0.0, 1.0
		if p.Range != nil {
			lo, hi = p.Range[0], p.Range[1]
		}
		s.Range = []float64{lo, hi}
		s.ranger = newFloatRanger(lo, hi)
	case []float64:
		if len(rng) < 2 {
			return fmt.Errorf("scale range %v needs two bounds", rng)
		}
		s.Range = rng
		s.ranger = newFloatRanger(rng[0], rng[len(rng)-1])
	case []color.RGBA:
		s.Range = rng
		s.ranger = &gradientRanger{palette.RGBGradient{Colors: rng}}
	case []color.Color:
		rgba := make([]color.RGBA, len(rng))
		for i, c := range rng {
			rgba[i] = color.RGBAModel.Convert(c).(color.RGBA)
		}
		s.Range = rng
		s.ranger = &gradientRanger{palette.RGBGradient{Colors: rgba}}
	default:
		rv := reflect.ValueOf(cfg.Range)
		if rv.Kind() != reflect.Slice {
			return fmt.Errorf("scale range must be a slice; got %T", cfg.Range)
		}
		s.Range = cfg.Range
		s.ranger = &sliceRanger{rv}
	}
	return nil
}

// resolveDiscrete fills in the level set and range of a discrete
// scale. An explicit domain keeps its configured order; levels
// trained from data are deduplicated and sorted.
func (p Profile) resolveDiscrete(s *Scale, cfg Config, typ Type, domain table.Slice) error {
	var levels reflect.Value
	switch {
	case cfg.Domain != nil:
		parsed, err := parseSlice(s.kind, cfg.Domain)
		if err != nil {
			return fmt.Errorf("bad scale domain: %v", err)
		}
		levels = reflect.ValueOf(slice.Nub(parsed.Interface()))
	case cfg.Constant != nil:
		levels = reflect.MakeSlice(reflect.SliceOf(reflect.TypeOf(cfg.Constant)), 0, 1)
		levels = reflect.Append(levels, reflect.ValueOf(cfg.Constant))
	case domain != nil:
		nub := slice.Nub(domain)
		sortLevels(nub)
		levels = reflect.ValueOf(nub)
	}
	s.levels = levels
	if levels.IsValid() {
		s.Domain = levels.Interface()
	}
	s.buildIndex()

	switch rng := cfg.Range.(type) {
	case nil:
		if cfg.Constant != nil {
			s.Range = s.Domain
			s.ranger = &identityRanger{s.levels}
			return nil
		}
		// An ordinal scale with no range cycles a color swatch,
		// unless the profile declares its own numeric range.
		if typ == Ordinal {
			swatch := p.Swatch
			if swatch == nil && p.Range == nil {
				swatch = Category10
			}
			if swatch != nil {
				s.Range = swatch
				s.ranger = &swatchRanger{swatch}
				return nil
			}
		}
		var rangeDefault []float64
		if typ == Point {
			rangeDefault = p.PointRange
		}
		if rangeDefault == nil {
			rangeDefault = p.Range
		}
		lo, hi := 0.0, 1.0
		if rangeDefault != nil {
			lo, hi = rangeDefault[0], rangeDefault[1]
		}
		s.Range = []float64{lo, hi}
		s.ranger = newFloatRanger(lo, hi)
	case []float64:
		if len(rng) < 2 {
			return fmt.Errorf("scale range %v needs two bounds", rng)
		}
		s.Range = rng
		s.ranger = newFloatRanger(rng[0], rng[len(rng)-1])
	case []color.Color:
		s.Range = rng
		s.ranger = &swatchRanger{rng}
	case []color.RGBA:
		cs := make([]color.Color, len(rng))
		for i, c := range rng {
			cs[i] = c
		}
		s.Range = rng
		s.ranger = &swatchRanger{cs}
	default:
		rv := reflect.ValueOf(cfg.Range)
		if rv.Kind() != reflect.Slice {
			return fmt.Errorf("scale range must be a slice; got %T", cfg.Range)
		}
		s.Range = cfg.Range
		s.ranger = &sliceRanger{rv}
	}

	if typ == Band {
		if fr, ok := s.ranger.(*floatRanger); ok && s.levels.IsValid() && s.levels.Len() > 0 {
			s.bandwidth = fr.w / float64(s.levels.Len())
		}
	}
	return nil
}

func (s *Scale) buildIndex() {
	if !s.levels.IsValid() {
		s.index = nil
		return
	}
	s.index = make(map[interface{}]int, s.levels.Len())
	for i, n := 0, s.levels.Len(); i < n; i++ {
		key := normKey(s.levels.Index(i).Interface())
		if _, dup := s.index[key]; !dup {
			s.index[key] = i
		}
	}
}

// sortLevels orders a level slice in place: times chronologically,
// everything else by slice.Sort when the element type supports it.
func sortLevels(sl table.Slice) {
	if ts, ok := sl.([]time.Time); ok {
		sort.Slice(ts, func(i, j int) bool { return ts[i].Before(ts[j]) })
		return
	}
	if slice.CanSort(sl) {
		slice.Sort(sl)
	}
}

// parseSlice converts an explicit config slice to domain values,
// parsing strings by the concept kind.
func parseSlice(kind data.Kind, sl table.Slice) (reflect.Value, error) {
	ss, ok := sl.([]string)
	if !ok || kind == data.KindString || kind.IsEntity() {
		rv := reflect.ValueOf(sl)
		if rv.Kind() != reflect.Slice {
			return reflect.Value{}, fmt.Errorf("%T is not a slice", sl)
		}
		return rv, nil
	}
	var out reflect.Value
	switch kind {
	case data.KindTime:
		out = reflect.ValueOf(make([]time.Time, 0, len(ss)))
	case data.KindMeasure:
		out = reflect.ValueOf(make([]float64, 0, len(ss)))
	case data.KindBoolean:
		out = reflect.ValueOf(make([]bool, 0, len(ss)))
	}
	for _, raw := range ss {
		v, err := data.ParseValue(kind, raw)
		if err != nil {
			return reflect.Value{}, err
		}
		if v == nil {
			continue
		}
		out = reflect.Append(out, reflect.ValueOf(v))
	}
	return out, nil
}

// boundsOf finds the finite bounds of a value slice, ignoring NaN,
// infinities, and unparseable values.
func boundsOf(s *Scale, sl reflect.Value) (lo, hi float64, ok bool) {
	lo, hi = math.NaN(), math.NaN()
	for i, n := 0, sl.Len(); i < n; i++ {
		v, valid := s.toFloat(sl.Index(i).Interface())
		if !valid || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v < lo || math.IsNaN(lo) {
			lo = v
		}
		if v > hi || math.IsNaN(hi) {
			hi = v
		}
	}
	if math.IsNaN(lo) {
		return 0, 0, false
	}
	return lo, hi, true
}

// resolveZoomed parses the zoom window, clamping it to the domain.
func (p Profile) resolveZoomed(s *Scale, cfg Config) error {
	if cfg.Zoomed == nil {
		s.Zoomed = s.Domain
		return nil
	}
	parsed, err := parseSlice(s.kind, cfg.Zoomed)
	if err != nil {
		return fmt.Errorf("bad zoomed domain: %v", err)
	}
	if s.Discrete() {
		// Keep only zoom levels present in the domain.
		keep := reflect.MakeSlice(parsed.Type(), 0, parsed.Len())
		for i, n := 0, parsed.Len(); i < n; i++ {
			if _, ok := s.levelIndex(parsed.Index(i).Interface()); ok {
				keep = reflect.Append(keep, parsed.Index(i))
			}
		}
		s.Zoomed = keep.Interface()
		return nil
	}
	zlo, zhi, ok := boundsOf(s, parsed)
	if !ok {
		s.Zoomed = s.Domain
		return nil
	}
	lo, hi := s.bounds()
	zlo = math.Max(zlo, lo)
	zhi = math.Min(zhi, hi)
	if s.kind == data.KindTime {
		s.Zoomed = []time.Time{s.fromFloat(zlo).(time.Time), s.fromFloat(zhi).(time.Time)}
	} else {
		s.Zoomed = []float64{zlo, zhi}
	}
	return nil
}
