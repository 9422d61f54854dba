// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package frame

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/aclements/go-gg/table"

	"github.com/jheeffer/vizabi-reactive/data"
	"github.com/jheeffer/vizabi-reactive/scale"
)

// testSource returns a fulfilled source with years 1990 to 1992,
// where nor is missing its 1991 row.
func testSource() *data.TableSource {
	s := data.NewTableSource(&data.Concept{ID: "year", Kind: data.KindMeasure})
	s.SetData(popTable(
		[]int{1990, 1990, 1991, 1992, 1992},
		[]string{"swe", "nor", "swe", "swe", "nor"},
		[]float64{8, 4, 9, 10, 6}))
	return s
}

// slowConfig returns a config whose ticker will not fire on its own
// during a test, so tests drive ticks by hand.
func slowConfig() *Config {
	cfg := DefaultConfig()
	cfg.Speed = time.Hour
	return cfg
}

func testEngine(t *testing.T, cfg *Config) *Engine {
	e, err := New(cfg, testSource(), Options{
		Column: "year",
		By:     []string{"geo"},
		Fields: []string{"pop"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestNewErrors(t *testing.T) {
	if _, err := New(nil, testSource(), Options{}); err == nil {
		t.Errorf("New without a frame column should fail")
	}
	cfg := DefaultConfig()
	cfg.Value = "20x5"
	if _, err := New(cfg, testSource(), Options{Column: "year"}); err == nil {
		t.Errorf("New with an unparseable value should fail")
	}
}

func TestAdvance(t *testing.T) {
	for _, test := range []struct {
		step, count, by int
		loop            bool
		next            int
		stopped         bool
	}{
		{0, 3, 1, false, 1, false},
		{1, 3, 1, false, 2, false},
		// Advancing from the last step stops, or wraps when
		// looping.
		{2, 3, 1, false, 2, true},
		{2, 3, 1, true, 0, false},
		{5, 3, 1, false, 2, true},
		// Overshooting from inside the range lands on the
		// last step.
		{0, 3, 5, false, 2, false},
		{0, 0, 1, false, 0, true},
		{0, 1, 1, false, 0, true},
		{0, 1, 1, true, 0, false},
	} {
		next, stopped := advance(test.step, test.count, test.by, test.loop)
		if next != test.next || stopped != test.stopped {
			t.Errorf("advance(%d, %d, %d, %v) = %d, %v; want %d, %v",
				test.step, test.count, test.by, test.loop, next, stopped, test.next, test.stopped)
		}
	}
}

func TestEngineSteps(t *testing.T) {
	e := testEngine(t, nil)
	if got := e.StepCount(); got != 3 {
		t.Fatalf("StepCount = %v; want 3", got)
	}
	if got, want := e.Steps().Values(), []int{1990, 1991, 1992}; !reflect.DeepEqual(got, want) {
		t.Errorf("step values = %v; want %v", got, want)
	}
	sc, err := e.Scale()
	if err != nil {
		t.Fatalf("Scale: %v", err)
	}
	if sc.Type != scale.Linear {
		t.Errorf("scale type = %v; want linear", sc.Type)
	}
}

func TestEngineValue(t *testing.T) {
	e := testEngine(t, nil)

	// No configured value selects the first frame.
	if got := e.Value(); got != 1990 {
		t.Fatalf("Value = %v; want 1990", got)
	}
	if got := e.Step(); got != 0 {
		t.Errorf("Step = %v; want 0", got)
	}

	// Strings parse by the frame column's element type.
	if err := e.SetValue("1991"); err != nil {
		t.Fatalf("SetValue(1991): %v", err)
	}
	if got := e.Value(); got != 1991 {
		t.Errorf("Value = %v; want 1991", got)
	}

	// Parse failures leave the value alone.
	if err := e.SetValue("abc"); err == nil {
		t.Errorf("SetValue(abc) should fail")
	}
	if got := e.Value(); got != 1991 {
		t.Errorf("Value after failed set = %v; want 1991", got)
	}

	// Out-of-domain values clamp to the nearest end.
	e.SetValue(1985)
	if got := e.Value(); got != 1990 {
		t.Errorf("Value = %v; want 1990", got)
	}
	e.SetValue(2005)
	if got := e.Value(); got != 1992 {
		t.Errorf("Value = %v; want 1992", got)
	}

	// In-domain values between frames give fractional steps.
	e.SetValue(1990.5)
	if got := e.Step(); got != 0.5 {
		t.Errorf("Step = %v; want 0.5", got)
	}
}

func TestEngineValueLoopback(t *testing.T) {
	cfg := slowConfig()
	cfg.Value = "1991"
	e := testEngine(t, cfg)

	// Reading the value writes the canonical form back to the
	// config, and does so only once.
	if got := e.Value(); got != 1991 {
		t.Fatalf("Value = %v; want 1991", got)
	}
	if cfg.Value != 1991 {
		t.Errorf("cfg.Value = %v (%T); want 1991", cfg.Value, cfg.Value)
	}
	e.Value()
	if cfg.Value != 1991 {
		t.Errorf("cfg.Value changed on second read: %v", cfg.Value)
	}
}

func TestEngineSetStep(t *testing.T) {
	e := testEngine(t, nil)
	e.SetStep(2)
	if got := e.Value(); got != 1992 {
		t.Errorf("Value = %v; want 1992", got)
	}
	e.SetStep(0.5)
	if got := e.Value(); got != 1990.5 {
		t.Errorf("Value = %v; want 1990.5", got)
	}
	// Steps beyond the scale clamp to its ends.
	e.SetStep(12)
	if got := e.Value(); got != 1992 {
		t.Errorf("Value = %v; want 1992", got)
	}
}

func TestEngineSnap(t *testing.T) {
	e := testEngine(t, nil)
	e.SetStep(1.3)
	e.Snap()
	if got := e.Step(); got != 1 {
		t.Errorf("Step after snap = %v; want 1", got)
	}
	e.SetStep(1.5)
	e.Snap()
	if got := e.Step(); got != 2 {
		t.Errorf("Step after snap = %v; want 2", got)
	}
}

func TestEngineProgression(t *testing.T) {
	e := testEngine(t, slowConfig())
	defer e.Close()
	e.Play()
	if !e.Playing() {
		t.Fatalf("engine should be playing")
	}

	// Each tick advances one step until the last frame; the tick
	// after that stops playback and stays put.
	for i, want := range []float64{1, 2} {
		if !e.tick() {
			t.Fatalf("tick %d stopped playback early", i)
		}
		if got := e.Step(); got != want {
			t.Errorf("step after tick %d = %v; want %v", i, got, want)
		}
	}
	if e.tick() {
		t.Errorf("tick at the last step should stop playback")
	}
	if e.Playing() {
		t.Errorf("engine should have stopped")
	}
	if got := e.Step(); got != 2 {
		t.Errorf("step after stopping = %v; want 2", got)
	}
}

func TestEngineLoop(t *testing.T) {
	cfg := slowConfig()
	cfg.Loop = true
	e := testEngine(t, cfg)
	defer e.Close()
	e.Play()

	for i, want := range []float64{1, 2, 0, 1} {
		if !e.tick() {
			t.Fatalf("tick %d stopped a looping engine", i)
		}
		if got := e.Step(); got != want {
			t.Errorf("step after tick %d = %v; want %v", i, got, want)
		}
	}
}

func TestEnginePlaybackSteps(t *testing.T) {
	cfg := slowConfig()
	cfg.PlaybackSteps = 2
	e := testEngine(t, cfg)
	defer e.Close()
	e.Play()

	e.tick()
	if got := e.Step(); got != 2 {
		t.Errorf("step = %v; want 2", got)
	}
}

func TestEngineImmediate(t *testing.T) {
	e := testEngine(t, slowConfig())
	defer e.Close()

	// Starting at the last step rewinds, but a rewind from a
	// stopped engine animates normally.
	e.SetValue(1992)
	e.Play()
	if e.Immediate() {
		t.Errorf("first play should not be immediate")
	}
	if got := e.Step(); got != 0 {
		t.Fatalf("step after play = %v; want 0", got)
	}

	// A rewind while already playing is immediate, so the
	// wrap-around does not animate backwards.
	e.SetValue(1992)
	e.Play()
	if !e.Immediate() {
		t.Errorf("rewind while playing should be immediate")
	}
	if got := e.Step(); got != 0 {
		t.Fatalf("step after replay = %v; want 0", got)
	}

	// The next tick clears the flag.
	e.tick()
	if e.Immediate() {
		t.Errorf("tick should clear the immediate flag")
	}
}

func TestEnginePauseClose(t *testing.T) {
	e := testEngine(t, slowConfig())
	e.Play()
	e.Pause()
	if e.Playing() {
		t.Fatalf("engine should be paused")
	}
	e.Pause() // pausing twice is fine

	e.Toggle()
	if !e.Playing() {
		t.Errorf("toggle should resume")
	}
	e.Toggle()
	if e.Playing() {
		t.Errorf("toggle should pause")
	}

	e.Play()
	e.Close()
	if e.Playing() {
		t.Errorf("engine should stop on close")
	}
	e.Play()
	if e.Playing() {
		t.Errorf("a closed engine should not play")
	}
}

func TestEngineStopSetters(t *testing.T) {
	e := testEngine(t, slowConfig())
	defer e.Close()

	e.Play()
	e.SetStepAndStop(2)
	if e.Playing() {
		t.Errorf("SetStepAndStop should stop playback")
	}
	if got := e.Step(); got != 2 {
		t.Errorf("Step = %v; want 2", got)
	}

	e.Play()
	if err := e.SetValueAndStop(1991); err != nil {
		t.Fatalf("SetValueAndStop: %v", err)
	}
	if e.Playing() {
		t.Errorf("SetValueAndStop should stop playback")
	}
	if got := e.Value(); got != 1991 {
		t.Errorf("Value = %v; want 1991", got)
	}
}

func TestEngineCurrent(t *testing.T) {
	e := testEngine(t, nil)

	g, err := e.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	tt := g.Table(g.Tables()[0])
	if want := []float64{8, 4}; !reflect.DeepEqual(tt.Column("pop"), want) {
		t.Errorf("pop = %v; want %v", tt.Column("pop"), want)
	}

	// A fractional step blends the surrounding frames. nor's
	// 1991 row was interpolated to 5, so it blends 4 toward 5.
	e.SetStep(0.5)
	g, err = e.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	tt = g.Table(g.Tables()[0])
	if want := []float64{8.5, 4.5}; !reflect.DeepEqual(tt.Column("pop"), want) {
		t.Errorf("blended pop = %v; want %v", tt.Column("pop"), want)
	}
	if cv, ok := tt.Const("year"); !ok || cv != 1990.5 {
		t.Errorf("year = %v, %v; want 1990.5, true", cv, ok)
	}
}

func TestEngineFrames(t *testing.T) {
	e := testEngine(t, nil)

	g := e.Frames()
	if n := len(g.Tables()); n != 3 {
		t.Fatalf("got %d frames; want 3", n)
	}
	t1 := g.Table(g.Tables()[1])
	if want := []string{"swe", "nor"}; !reflect.DeepEqual(t1.Column("geo"), want) {
		t.Errorf("1991 geo = %v; want %v", t1.Column("geo"), want)
	}
	if want := []bool{false, true}; !reflect.DeepEqual(t1.Column(FilledCol("pop")), want) {
		t.Errorf("1991 filled = %v; want %v", t1.Column(FilledCol("pop")), want)
	}

	// Frames are cached until something changes.
	if e.Frames() != g {
		t.Errorf("Frames should be cached")
	}
}

func TestEngineInvalidate(t *testing.T) {
	cfg := slowConfig()
	e := testEngine(t, cfg)

	g := e.Frames()
	if e.Frames() != g {
		t.Fatalf("Frames should be cached")
	}

	// A direct config edit takes effect after Invalidate.
	cfg.Interpolate = false
	e.Invalidate()
	t1 := e.Frames().Table(e.Frames().Tables()[1])
	if want := []string{"swe"}; !reflect.DeepEqual(t1.Column("geo"), want) {
		t.Errorf("1991 geo without interpolation = %v; want %v", t1.Column("geo"), want)
	}
}

func TestEngineDiscrete(t *testing.T) {
	s := data.NewTableSource()
	s.SetData(new(table.Builder).
		Add("quarter", []string{"q2", "q1", "q2"}).
		Add("pop", []float64{4, 3, 5}).
		Done())
	e, err := New(nil, s, Options{Column: "quarter"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if got := e.StepCount(); got != 2 {
		t.Fatalf("StepCount = %v; want 2", got)
	}
	if err := e.SetValue("q2"); err != nil {
		t.Fatalf("SetValue(q2): %v", err)
	}
	if got := e.Step(); got != 1 {
		t.Errorf("Step = %v; want 1", got)
	}

	// A value the domain does not contain is kept, leaving the
	// current frame empty until the domain catches up.
	if err := e.SetValue("q9"); err != nil {
		t.Fatalf("SetValue(q9): %v", err)
	}
	if got := e.Value(); got != "q9" {
		t.Errorf("Value = %v; want q9", got)
	}
	if got := e.Step(); !math.IsNaN(got) {
		t.Errorf("Step = %v; want NaN", got)
	}
	g, err := e.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if n := g.Table(g.Tables()[0]).Len(); n != 0 {
		t.Errorf("off-domain frame has %d rows; want 0", n)
	}
}

func TestEngineTimes(t *testing.T) {
	t90 := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	t91 := time.Date(1991, 1, 1, 0, 0, 0, 0, time.UTC)
	s := data.NewTableSource(&data.Concept{ID: "time", Kind: data.KindTime})
	s.SetData(new(table.Builder).
		Add("time", []time.Time{t91, t90}).
		Add("pop", []float64{2, 1}).
		Done())
	e, err := New(nil, s, Options{Column: "time"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if got := e.StepCount(); got != 2 {
		t.Fatalf("StepCount = %v; want 2", got)
	}
	if err := e.SetValue("1991"); err != nil {
		t.Fatalf("SetValue(1991): %v", err)
	}
	got, ok := e.Value().(time.Time)
	if !ok || !got.Equal(t91) {
		t.Errorf("Value = %v; want %v", e.Value(), t91)
	}
	if got := e.Step(); got != 1 {
		t.Errorf("Step = %v; want 1", got)
	}
}

func TestEngineConstant(t *testing.T) {
	s := data.NewTableSource(&data.Concept{ID: "year", Kind: data.KindMeasure})
	s.SetData(popTable([]int{1990, 1990}, []string{"swe", "nor"}, []float64{8, 4}))
	e, err := New(nil, s, Options{Column: "year"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// A constant frame column resolves to a single pinned level.
	sc, err := e.Scale()
	if err != nil {
		t.Fatalf("Scale: %v", err)
	}
	if sc.Type != scale.Point {
		t.Errorf("scale type = %v; want point", sc.Type)
	}
	if got := e.StepCount(); got != 1 {
		t.Errorf("StepCount = %v; want 1", got)
	}
	if got := e.Value(); got != 1990 {
		t.Errorf("Value = %v; want 1990", got)
	}
}

func TestEnginePending(t *testing.T) {
	s := data.NewTableSource(&data.Concept{ID: "year", Kind: data.KindMeasure})
	e, err := New(slowConfig(), s, Options{Column: "year", By: []string{"geo"}, Fields: []string{"pop"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()

	if got := e.StepCount(); got != 0 {
		t.Errorf("StepCount before load = %v; want 0", got)
	}
	if got := e.Value(); got != nil {
		t.Errorf("Value before load = %v; want nil", got)
	}
	if got := e.Step(); !math.IsNaN(got) {
		t.Errorf("Step before load = %v; want NaN", got)
	}
	g, err := e.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if n := len(g.Tables()); n != 0 {
		t.Errorf("Current before load has %d groups; want 0", n)
	}

	// Playback idles until data arrives, then advances.
	e.Play()
	if !e.tick() {
		t.Fatalf("tick on a pending source should keep playing")
	}
	if got := e.Step(); !math.IsNaN(got) {
		t.Errorf("tick on a pending source moved to step %v", got)
	}
	s.SetData(popTable(
		[]int{1990, 1991, 1992},
		[]string{"swe", "swe", "swe"},
		[]float64{8, 9, 10}))
	if !e.tick() {
		t.Fatalf("tick after load should keep playing")
	}
	if got := e.Step(); got != 1 {
		t.Errorf("step after load and tick = %v; want 1", got)
	}
}

func TestEngineSplash(t *testing.T) {
	e := testEngine(t, nil)
	if f := e.SplashFilter(); f != nil {
		t.Errorf("SplashFilter without splash should be nil")
	}

	cfg := DefaultConfig()
	cfg.Splash = true
	e = testEngine(t, cfg)
	f := e.SplashFilter()
	if f == nil {
		t.Fatalf("SplashFilter should not be nil")
	}
	if !f(1990) {
		t.Errorf("filter should match the current frame value")
	}
	if f(1991) {
		t.Errorf("filter should not match other frame values")
	}
}

func TestEngineSpeed(t *testing.T) {
	e := testEngine(t, nil)
	e.SetSpeed(-time.Second)
	if got := e.Speed(); got != 0 {
		t.Errorf("Speed = %v; want 0", got)
	}
	e.SetSpeed(50 * time.Millisecond)
	if got := e.Speed(); got != 50*time.Millisecond {
		t.Errorf("Speed = %v; want 50ms", got)
	}

	if got := tickInterval(0); got != time.Millisecond {
		t.Errorf("tickInterval(0) = %v; want 1ms", got)
	}
	if got := tickInterval(2 * time.Second); got != 2*time.Second {
		t.Errorf("tickInterval(2s) = %v; want 2s", got)
	}
}
