// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package frame

import (
	"time"

	"github.com/jheeffer/vizabi-reactive/scale"
)

// Config is the persisted playback configuration of a frame
// dimension. The Engine reads it on every derivation and is the only
// writer of Value, so owners that edit other fields directly should
// call Engine.Invalidate afterwards.
type Config struct {
	// Value is the current frame value. nil selects the first
	// value of the frame domain. A string is parsed by the frame
	// column's concept, so a time frame may give Value as "1990".
	// The engine writes the resolved value back here as playback
	// advances, keeping outside observers of the config in sync.
	Value interface{}

	// Loop makes playback wrap to the first frame after the last
	// one instead of stopping.
	Loop bool

	// Speed is the delay between playback steps. 0 plays as fast
	// as the ticker allows; negative speeds are treated as 0.
	Speed time.Duration

	// PlaybackSteps is how many steps each tick advances. Values
	// below 1 are treated as 1.
	PlaybackSteps int

	// Interpolate fills gaps in the frame fields between known
	// values, so entities with sparse data still move smoothly.
	Interpolate bool

	// Extrapolate extends each entity's first and last known
	// values outward to the frames where the rest of the data
	// ends, so entities do not pop in and out at their data
	// edges.
	Extrapolate bool

	// ExtrapolateLimit bounds how many frames Extrapolate may
	// extend on each side. 0 means no bound.
	ExtrapolateLimit int

	// Splash restricts initial data loads to the current frame
	// value. See Engine.SplashFilter.
	Splash bool
}

// DefaultConfig returns a Config with the playback defaults: a new
// frame every 100ms, one step per tick, and interpolation on.
func DefaultConfig() *Config {
	return &Config{
		Speed:         100 * time.Millisecond,
		PlaybackSteps: 1,
		Interpolate:   true,
	}
}

// Options fixes how an Engine reads its data source. Unlike Config,
// Options cannot change over the Engine's life.
type Options struct {
	// Column is the frame dimension column. Required.
	Column string

	// By are the columns that identify one entity across frames,
	// such as a country code. Interpolation and extrapolation
	// never mix rows with different By values.
	By []string

	// Fields are the value columns interpolation and
	// extrapolation fill. They must hold float64s with NaN for
	// missing values.
	Fields []string

	// Required are the columns a row must have for downstream
	// consumers to keep it. Extrapolation extends no further than
	// the first and last frame with at least one complete row.
	Required []string

	// Order sorts the rows within each frame, most significant
	// key first. Empty leaves rows in data order.
	Order []SortKey

	// Scale configures the frame dimension's scale. The zero
	// value infers everything from the data.
	Scale scale.Config
}
