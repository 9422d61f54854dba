// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package frame animates a dataset along one of its dimensions.
//
// An Engine owns the playback state of a frame dimension such as
// time: it resolves the dimension's scale, derives the ordered step
// scale of its distinct values, advances the current value on a
// ticker, and slices grouped data into one table per frame through a
// pipeline of pure transform stats.
package frame

import (
	"errors"
	"fmt"
	"log"
	"math"
	"reflect"
	"strconv"
	"sync"
	"time"

	"github.com/aclements/go-gg/table"

	"github.com/jheeffer/vizabi-reactive/data"
	"github.com/jheeffer/vizabi-reactive/memo"
	"github.com/jheeffer/vizabi-reactive/scale"
)

// An Engine drives playback of one frame dimension over a data
// source. All methods are safe for concurrent use.
//
// The engine is the only writer of its config's Value field.
// Everything it derives is cached against the source version and
// recomputed lazily, so reads are cheap until data or config
// changes.
type Engine struct {
	src  data.Source
	opts Options

	mu        sync.Mutex
	cfg       *Config
	playing   bool
	immediate bool
	closed    bool
	stop      chan struct{}
	done      chan struct{}

	structIn memo.Input
	valueIn  memo.Input

	scaleCell memo.Cell
	stepCell  memo.Cell
	valueCell memo.Cell
	frameCell memo.Cell
	curCell   memo.Cell
}

// New returns an Engine playing opts.Column of src. cfg may be nil
// for the defaults; the engine keeps the pointer and writes the
// current frame value back to it as playback advances.
func New(cfg *Config, src data.Source, opts Options) (*Engine, error) {
	if opts.Column == "" {
		return nil, errors.New("frame: no frame column")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	e := &Engine{src: src, opts: opts, cfg: cfg}
	if cfg.Value != nil {
		if _, err := parseFrameValue(src.Concept(opts.Column), NewStepScale(nil), cfg.Value); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Close stops playback, waits for the ticker to exit, and detaches
// the engine from its config. A closed engine no longer writes
// Value back, and ticks that fire during Close are no-ops.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.playing = false
	e.immediate = false
	stop, done := e.stop, e.done
	e.stop, e.done = nil, nil
	e.mu.Unlock()
	if stop != nil {
		close(stop)
		<-done
	}
}

// Play starts playback. When the current step is already the last
// one, playback rewinds to the first frame; the rewind is marked
// immediate when the engine was already playing, so observers skip
// animating the wrap-around.
func (e *Engine) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if steps := e.stepsLocked(); steps.Count() > 0 {
		cur, err := e.currentStepLocked()
		if err == nil && !math.IsNaN(cur) && int(math.Floor(cur)) >= steps.Count()-1 {
			e.immediate = e.playing
			if v := steps.Value(0); v != nil {
				e.assignLocked(v)
			}
		}
	}
	if e.playing {
		return
	}
	e.playing = true
	stop := make(chan struct{})
	done := make(chan struct{})
	e.stop, e.done = stop, done
	go e.run(stop, done)
}

// Pause stops playback and synchronously waits for the ticker to
// exit. The current value stays where it is.
func (e *Engine) Pause() {
	e.mu.Lock()
	e.playing = false
	stop, done := e.stop, e.done
	e.stop, e.done = nil, nil
	e.mu.Unlock()
	if stop != nil {
		close(stop)
		<-done
	}
}

// Toggle pauses a playing engine and plays a paused one.
func (e *Engine) Toggle() {
	e.mu.Lock()
	playing := e.playing
	e.mu.Unlock()
	if playing {
		e.Pause()
	} else {
		e.Play()
	}
}

// run is the playback ticker. It re-reads the speed every tick, so
// SetSpeed takes effect without restarting playback.
func (e *Engine) run(stop, done chan struct{}) {
	defer close(done)
	for {
		t := time.NewTimer(e.interval())
		select {
		case <-t.C:
			if !e.tick() {
				return
			}
		case <-stop:
			t.Stop()
			return
		}
	}
}

func (e *Engine) interval() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return tickInterval(e.cfg.Speed)
}

// tickInterval returns the timer interval for a playback speed.
// Speed 0 means as fast as possible, which the timer bounds at one
// millisecond.
func tickInterval(speed time.Duration) time.Duration {
	if speed < time.Millisecond {
		return time.Millisecond
	}
	return speed
}

// tick runs one playback step and reports whether the ticker should
// keep going. A tick that fails stops playback rather than looping
// a broken timer.
func (e *Engine) tick() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.playing {
		return false
	}
	if err := e.nextStepLocked(); err != nil {
		log.Printf("frame: stopping playback: %v", err)
		e.playing = false
		return false
	}
	return e.playing
}

// nextStepLocked advances the current value by one playback step.
// It does nothing until the source is fulfilled.
func (e *Engine) nextStepLocked() error {
	if !e.playing || e.src.State() != data.Fulfilled {
		return nil
	}
	e.immediate = false
	cur, err := e.currentStepLocked()
	if err != nil {
		return err
	}
	k := 0
	if !math.IsNaN(cur) {
		k = int(math.Floor(cur))
	}
	steps := e.stepsLocked()
	next, stopped := advance(k, steps.Count(), playbackSteps(e.cfg), e.cfg.Loop)
	if stopped {
		e.playing = false
	}
	if v := steps.Value(next); v != nil {
		e.assignLocked(v)
	}
	return nil
}

// advance computes the step a playback tick moves to. Advancing
// from the last step wraps to 0 when looping and otherwise stops;
// advancing past the last step from inside the range lands on the
// last step.
func advance(step, count, by int, loop bool) (next int, stopped bool) {
	last := count - 1
	switch {
	case count <= 0:
		return 0, true
	case step >= last:
		if loop {
			return 0, false
		}
		return last, true
	case step+by <= last:
		return step + by, false
	}
	return last, false
}

// SetStep moves the current value to the frame at the given step,
// which may be fractional. Steps outside the scale clamp to its
// ends. Playback state is unaffected.
func (e *Engine) SetStep(step float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if v := e.stepsLocked().Invert(step); v != nil {
		e.assignLocked(v)
	}
}

// SetValue moves the current value to v. Strings are parsed by the
// frame column; parse failures are returned and leave the value
// alone. Values outside a continuous domain clamp to it; values a
// discrete domain does not contain are kept as given, making the
// current frame empty until the domain catches up.
func (e *Engine) SetValue(v interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	pv, err := e.parseLocked(v)
	if err != nil {
		return err
	}
	e.assignLocked(e.canonicalLocked(pv))
	return nil
}

// SetStepAndStop stops playback and then moves to the given step,
// for direct scrubbing.
func (e *Engine) SetStepAndStop(step float64) {
	e.Pause()
	e.SetStep(step)
}

// SetValueAndStop stops playback and then moves to v.
func (e *Engine) SetValueAndStop(v interface{}) error {
	e.Pause()
	return e.SetValue(v)
}

// Snap rounds a fractional current step to the nearest whole frame
// and moves there.
func (e *Engine) Snap() {
	e.mu.Lock()
	defer e.mu.Unlock()
	cur, err := e.currentStepLocked()
	if err != nil || math.IsNaN(cur) {
		return
	}
	if v := e.stepsLocked().Invert(math.Round(cur)); v != nil {
		e.assignLocked(v)
	}
}

// SetSpeed sets the delay between playback steps. Negative speeds
// are treated as 0, meaning as fast as possible. A playing ticker
// picks the new speed up on its next tick.
func (e *Engine) SetSpeed(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if d < 0 {
		d = 0
	}
	e.cfg.Speed = d
}

// Invalidate flushes derived state after a direct config edit, such
// as toggling Loop or Interpolate without going through an engine
// operation.
func (e *Engine) Invalidate() {
	e.structIn.Bump()
}

// Playing reports whether playback is running.
func (e *Engine) Playing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

// Immediate reports whether the last frame change should skip its
// transition animation. It is set by the rewind in Play and cleared
// by the next tick.
func (e *Engine) Immediate() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.immediate
}

// Speed returns the configured delay between playback steps.
func (e *Engine) Speed() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cfg.Speed < 0 {
		return 0
	}
	return e.cfg.Speed
}

// Value returns the resolved current frame value: the configured
// value parsed and clamped to the frame domain, or the domain's
// first value when none is configured. It is nil when nothing is
// loaded or the configured value does not parse.
func (e *Engine) Value() interface{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.valueLocked().value
}

// Step returns the current step, possibly fractional, or NaN when
// there is no current value on the step scale.
func (e *Engine) Step() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	step, err := e.currentStepLocked()
	if err != nil {
		return math.NaN()
	}
	return step
}

// StepCount returns the number of playable frames.
func (e *Engine) StepCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stepsLocked().Count()
}

// Steps returns the step scale over the playable frame values. It
// is empty until the source is fulfilled and the frame scale
// resolves.
func (e *Engine) Steps() *StepScale {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stepsLocked()
}

// Scale returns the resolved frame scale.
func (e *Engine) Scale() (*scale.Scale, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scaleLocked()
}

// Frames returns the source data sliced into one table per frame
// value, interpolated, extrapolated, filtered, and ordered as the
// config and options ask. It is empty until the source is
// fulfilled.
func (e *Engine) Frames() table.Grouping {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.framesLocked()
}

// Current returns the frame to display: the frame at the current
// value, a blend of the two frames around a fractional step, or an
// empty frame when the current value is off the scale.
func (e *Engine) Current() (table.Grouping, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cv := e.valueLocked()
	if cv.err != nil {
		return nil, cv.err
	}
	g := e.curCell.Get(e.valueKeyLocked(), func() interface{} {
		cf := CurrentFrame{Column: e.opts.Column, Value: cv.value, Steps: e.stepsLocked(), By: e.opts.By}
		return cf.F(e.framesLocked())
	}).(table.Grouping)
	return g, nil
}

// SplashFilter returns a predicate matching only the current frame
// value, for callers that restrict their initial load to one frame,
// or nil when splash loading is off.
func (e *Engine) SplashFilter() func(v interface{}) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.cfg.Splash {
		return nil
	}
	cur := e.valueLocked().value
	if cur == nil {
		return nil
	}
	return func(v interface{}) bool { return sameValue(v, cur) }
}

// FrameMap returns the engine's frame-slicing stat, for composing
// custom pipelines over the same frame domain.
func (e *Engine) FrameMap() FrameMap {
	e.mu.Lock()
	defer e.mu.Unlock()
	return FrameMap{Column: e.opts.Column, Domain: e.stepsLocked().Values()}
}

// Interpolate returns the engine's gap-filling stat.
func (e *Engine) Interpolate() Interpolate {
	return Interpolate{Column: e.opts.Column, Fields: e.opts.Fields, By: e.opts.By}
}

// Extrapolate returns the engine's edge-extension stat.
func (e *Engine) Extrapolate() Extrapolate {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Extrapolate{
		Column:   e.opts.Column,
		Fields:   e.opts.Fields,
		By:       e.opts.By,
		Required: e.opts.Required,
		Limit:    e.cfg.ExtrapolateLimit,
	}
}

// FilterRequired returns the stat dropping rows with missing
// required fields.
func (e *Engine) FilterRequired() FilterRequired {
	return FilterRequired{Fields: e.opts.Required}
}

// Order returns the engine's row-ordering stat.
func (e *Engine) Order() Order {
	return Order{Keys: e.opts.Order}
}

// CurrentFrame returns the engine's frame-selection stat at the
// current value.
func (e *Engine) CurrentFrame() CurrentFrame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return CurrentFrame{Column: e.opts.Column, Value: e.valueLocked().value, Steps: e.stepsLocked(), By: e.opts.By}
}

// Differentiate returns a stat replacing field with its per-frame
// change.
func (e *Engine) Differentiate(field string) Differentiate {
	return Differentiate{Field: field, By: e.opts.By}
}

// structKeyLocked fingerprints the inputs of structural derivations:
// the source data and the engine config.
func (e *Engine) structKeyLocked() memo.Fingerprint {
	return memo.Key(e.src.Version(), e.structIn.Version())
}

// valueKeyLocked additionally covers the current frame value.
func (e *Engine) valueKeyLocked() memo.Fingerprint {
	return memo.Key(e.src.Version(), e.structIn.Version(), e.valueIn.Version())
}

type resolvedScale struct {
	s   *scale.Scale
	err error
}

func (e *Engine) scaleLocked() (*scale.Scale, error) {
	r := e.scaleCell.Get(e.structKeyLocked(), func() interface{} {
		cfg := e.opts.Scale
		if cfg.Constant == nil && e.src.IsConstant(e.opts.Column) {
			if dom := reflect.ValueOf(e.src.Domain(e.opts.Column)); dom.IsValid() && dom.Len() > 0 {
				cfg.Constant = dom.Index(0).Interface()
			}
		}
		s, err := scale.Frame.Resolve(cfg, e.src.Concept(e.opts.Column), e.src.Domain(e.opts.Column))
		if s == nil {
			s = new(scale.Scale)
		}
		return resolvedScale{s, err}
	}).(resolvedScale)
	return r.s, r.err
}

func (e *Engine) stepsLocked() *StepScale {
	return e.stepCell.Get(e.structKeyLocked(), func() interface{} {
		sc, err := e.scaleLocked()
		if err != nil {
			return NewStepScale(nil)
		}
		return NewStepScale(stepDomain(sc, e.src.Domain(e.opts.Column)))
	}).(*StepScale)
}

// A currentValue is the resolved current frame value.
type currentValue struct {
	value interface{}
	err   error
}

func (e *Engine) valueLocked() currentValue {
	cv := e.valueCell.Get(e.valueKeyLocked(), func() interface{} {
		return e.deriveValueLocked()
	}).(currentValue)

	// Config loopback: keep an explicitly configured value in
	// sync with what it resolved to, so outside observers of the
	// config see the canonical value. Skipped when equal, so the
	// write converges.
	if !e.closed && cv.err == nil && cv.value != nil &&
		e.cfg.Value != nil && e.src.State() == data.Fulfilled &&
		!sameValue(e.cfg.Value, cv.value) {
		e.cfg.Value = cv.value
	}
	return cv
}

func (e *Engine) deriveValueLocked() currentValue {
	if e.cfg.Value != nil {
		raw, err := parseFrameValue(e.src.Concept(e.opts.Column), e.stepsLocked(), e.cfg.Value)
		if err != nil {
			return currentValue{err: err}
		}
		if raw != nil {
			return currentValue{value: e.canonicalLocked(raw)}
		}
	}
	if v := e.stepsLocked().Value(0); v != nil {
		return currentValue{value: v}
	}
	return currentValue{}
}

// canonicalLocked clamps a parsed frame value to the frame domain.
// A value the domain does not contain at all is kept as given; its
// current frame stays empty until the domain grows to include it.
// Clamping works in floats, so values landing on a whole step snap
// back to the domain's own element and an []int frame column yields
// ints.
func (e *Engine) canonicalLocked(raw interface{}) interface{} {
	value := raw
	sc, _ := e.scaleLocked()
	if cv, ok := sc.ClampToDomain(raw); ok {
		value = cv
	}
	steps := e.stepsLocked()
	if step, ok := steps.Step(value); ok && step == math.Floor(step) {
		if v := steps.Value(int(step)); v != nil {
			value = v
		}
	}
	return value
}

func (e *Engine) currentStepLocked() (float64, error) {
	cv := e.valueLocked()
	if cv.err != nil {
		return math.NaN(), cv.err
	}
	if cv.value == nil {
		return math.NaN(), nil
	}
	if step, ok := e.stepsLocked().Step(cv.value); ok {
		return step, nil
	}
	return math.NaN(), nil
}

func (e *Engine) framesLocked() table.Grouping {
	return e.frameCell.Get(e.structKeyLocked(), func() interface{} {
		if e.src.State() != data.Fulfilled {
			return table.Grouping(new(table.Table))
		}
		g := e.src.Data()
		steps := e.stepsLocked()
		if g == nil || steps.Count() == 0 {
			return table.Grouping(new(table.Table))
		}
		out := FrameMap{Column: e.opts.Column, Domain: steps.Values()}.F(g)
		if e.cfg.Interpolate {
			out = e.Interpolate().F(out)
		}
		if e.cfg.Extrapolate {
			out = Extrapolate{
				Column:   e.opts.Column,
				Fields:   e.opts.Fields,
				By:       e.opts.By,
				Required: e.opts.Required,
				Limit:    e.cfg.ExtrapolateLimit,
			}.F(out)
		}
		if len(e.opts.Required) > 0 {
			out = e.FilterRequired().F(out)
		}
		if len(e.opts.Order) > 0 {
			out = e.Order().F(out)
		}
		return out
	}).(table.Grouping)
}

// parseLocked converts a value for SetValue.
func (e *Engine) parseLocked(v interface{}) (interface{}, error) {
	return parseFrameValue(e.src.Concept(e.opts.Column), e.stepsLocked(), v)
}

// assignLocked writes v to the config as the current frame value.
// The write is skipped when the config already holds it.
func (e *Engine) assignLocked(v interface{}) {
	if sameValue(e.cfg.Value, v) {
		return
	}
	e.cfg.Value = v
	e.valueIn.Bump()
}

// playbackSteps returns how many steps a tick advances, at least 1.
func playbackSteps(cfg *Config) int {
	if cfg.PlaybackSteps < 1 {
		return 1
	}
	return cfg.PlaybackSteps
}

// parseFrameValue converts a configured frame value to the frame
// column's value space. Strings parse by the column's element type
// once data is loaded, else by its concept, so "1990" can mean the
// int 1990, the float 1990, or the year depending on the column.
func parseFrameValue(c *data.Concept, steps *StepScale, v interface{}) (interface{}, error) {
	s, ok := v.(string)
	if !ok {
		return v, nil
	}
	if steps.Count() > 0 {
		switch steps.Values().(type) {
		case []string:
			return s, nil
		case []int:
			n, err := strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("bad frame value %q: %v", s, err)
			}
			return n, nil
		case []float64:
			n, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("bad frame value %q: %v", s, err)
			}
			return n, nil
		case []time.Time:
			return data.ParseValue(data.KindTime, s)
		}
	}
	if c != nil {
		return data.ParseValue(c.Kind, s)
	}
	return s, nil
}
