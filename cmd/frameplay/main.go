// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command frameplay plays a CSV dataset as an animation over one of
// its columns.
//
// frameplay reads a CSV file whose first row names its columns,
// slices the rows into one frame per distinct value of the frame
// column, and steps through the frames the way an animated chart
// would. On a terminal it redraws a one line summary of the current
// frame in place as playback advances. When the output is not a
// terminal, or with -o or -summary, it writes the frames as tables
// instead.
//
// The input is expected in tidy form, one row per entity per frame
// value:
//
//	year,geo,pop
//	1990,swe,8.56
//	1990,nor,4.24
//	1992,swe,8.67
//
// Missing values may be left empty. With interpolation on (the
// default), gaps between an entity's known values are filled
// linearly, so entities with sparse data still move smoothly. With
// -loop, playback restarts after the last frame and runs until
// interrupted.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strings"
	"time"

	"github.com/aclements/go-gg/generic/slice"
	"github.com/aclements/go-gg/ggstat"
	"github.com/aclements/go-gg/table"
	"github.com/aclements/go-moremath/stats"
	"golang.org/x/crypto/ssh/terminal"

	"github.com/jheeffer/vizabi-reactive/data"
	"github.com/jheeffer/vizabi-reactive/frame"
)

func main() {
	log.SetPrefix("frameplay: ")
	log.SetFlags(0)

	var (
		flagFrame   = flag.String("frame", "", "animate over `column` (default: the first column)")
		flagBy      = flag.String("by", "", "entity key `columns`, comma-separated")
		flagFields  = flag.String("fields", "", "numeric `columns` to fill and summarize, comma-separated (default: all numeric columns)")
		flagSpeed   = flag.Duration("speed", 500*time.Millisecond, "play one step per `interval`")
		flagSteps   = flag.Int("steps", 1, "advance `n` steps per interval")
		flagLoop    = flag.Bool("loop", false, "restart from the first frame after the last")
		flagSummary = flag.Bool("summary", false, "print one row of per-frame means instead of the frames")
		flagOut     = flag.String("o", "", "write output to `file` (default: stdout)")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [input.csv]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() > 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := "-"
	if flag.NArg() == 1 {
		path = flag.Arg(0)
	}

	tab := readCSV(path)
	if tab.Len() == 0 {
		log.Fatal("no data rows")
	}
	frameCol := *flagFrame
	if frameCol == "" {
		frameCol = tab.Columns()[0]
	}
	if tab.Column(frameCol) == nil {
		log.Fatalf("no column %q in %s", frameCol, path)
	}
	tab = timeFrame(tab, frameCol)
	by := splitCols(*flagBy)
	for _, col := range by {
		if tab.Column(col) == nil {
			log.Fatalf("no column %q in %s", col, path)
		}
	}
	fields := splitCols(*flagFields)
	if fields == nil {
		fields = numericCols(tab, frameCol, by)
	}
	for _, col := range fields {
		if tab.Column(col) == nil {
			log.Fatalf("no column %q in %s", col, path)
		}
	}
	if *flagSummary && len(fields) == 0 {
		log.Fatal("-summary needs at least one numeric column")
	}
	tab = floatFields(tab, fields)

	src := data.NewTableSource()
	src.SetData(tab)

	cfg := frame.DefaultConfig()
	cfg.Speed = *flagSpeed
	cfg.PlaybackSteps = *flagSteps
	cfg.Loop = *flagLoop
	eng, err := frame.New(cfg, src, frame.Options{
		Column: frameCol,
		By:     by,
		Fields: fields,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Close()

	if *flagSummary || *flagOut != "" || os.Getenv("TERM") == "dumb" || !terminal.IsTerminal(1) {
		f := os.Stdout
		if *flagOut != "" {
			f, err = os.Create(*flagOut)
			if err != nil {
				log.Fatal(err)
			}
			defer f.Close()
		}
		dump(f, eng, frameCol, fields, *flagSummary)
		return
	}
	play(eng, fields)
}

// readCSV loads path, or stdin for "-", coercing numeric-looking
// columns to ints and floats.
func readCSV(path string) *table.Table {
	f := os.Stdin
	if path != "-" {
		var err error
		f, err = os.Open(path)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
	}
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		log.Fatal(err)
	}
	if len(rows) == 0 {
		log.Fatal("empty input")
	}
	return table.TableFromStrings(rows[0], rows[1:], true)
}

// timeFrame converts a string frame column to times when every value
// parses as one, so month and quarter columns play on a time scale.
// Plain year columns coerce to ints in readCSV and never get here.
func timeFrame(t *table.Table, frameCol string) *table.Table {
	c, ok := t.Column(frameCol).([]string)
	if !ok {
		return t
	}
	ts, err := data.Times(c)
	if err != nil {
		return t
	}
	var b table.Builder
	for _, col := range t.Columns() {
		b.Add(col, t.Column(col))
	}
	b.Add(frameCol, ts)
	return b.Done()
}

// splitCols splits a comma-separated flag value into column names.
func splitCols(s string) []string {
	if s == "" {
		return nil
	}
	cols := strings.Split(s, ",")
	for i := range cols {
		cols[i] = strings.TrimSpace(cols[i])
	}
	return cols
}

// numericCols returns the columns that parsed as numbers. -fields
// defaults to these.
func numericCols(t *table.Table, frameCol string, by []string) []string {
	var cols []string
outer:
	for _, col := range t.Columns() {
		if col == frameCol {
			continue
		}
		for _, b := range by {
			if col == b {
				continue outer
			}
		}
		switch t.Column(col).(type) {
		case []int, []float64:
			cols = append(cols, col)
		}
	}
	return cols
}

// floatFields rebuilds the field columns as float64s with NaN for
// missing values, the form the fill transforms work on. A column
// with any empty cell arrives as strings, since the empty cells
// inhibit coercion, so those parse cell by cell.
func floatFields(t *table.Table, fields []string) *table.Table {
	var b table.Builder
	for _, col := range t.Columns() {
		b.Add(col, t.Column(col))
	}
	for _, col := range fields {
		switch c := t.Column(col).(type) {
		case []float64:
			// Already in place.
		case []string:
			xs := make([]float64, len(c))
			for i, s := range c {
				v, err := data.ParseValue(data.KindMeasure, s)
				if err != nil {
					log.Fatalf("column %q: bad value %q: %v", col, s, err)
				}
				if v == nil {
					xs[i] = math.NaN()
				} else {
					xs[i] = v.(float64)
				}
			}
			b.Add(col, xs)
		default:
			var xs []float64
			slice.Convert(&xs, c)
			b.Add(col, xs)
		}
	}
	return b.Done()
}

// dump writes every frame as a table, or with summary one row of
// means per frame value.
func dump(w io.Writer, eng *frame.Engine, frameCol string, fields []string, summary bool) {
	g := eng.Frames()
	if summary {
		aggs := make([]ggstat.Aggregator, len(fields))
		for i, field := range fields {
			aggs[i] = ggstat.AggMean(field)
		}
		g = ggstat.Agg(frameCol)(aggs...).F(table.Flatten(g))
	}
	table.Fprint(w, g)
}

// play animates the frames in place on the terminal until playback
// stops.
func play(eng *frame.Engine, fields []string) {
	const resetLine = "\r\x1b[2K"

	bounds := fieldBounds(eng.Frames(), fields)
	eng.Play()
	tick := time.NewTicker(time.Second / 4)
	defer tick.Stop()
	for {
		fmt.Print(resetLine, statusLine(eng, fields, bounds))
		if !eng.Playing() {
			fmt.Println()
			return
		}
		<-tick.C
	}
}

// statusLine renders the current frame as one line: the frame value,
// the row count, and per field a gauge of the frame's mean against
// the field's bounds over the whole dataset.
func statusLine(eng *frame.Engine, fields []string, bounds map[string][2]float64) string {
	cur, err := eng.Current()
	if err != nil {
		return err.Error()
	}
	flat := table.Flatten(cur)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s  %d rows", data.FormatValue(eng.Value()), flat.Len())
	for _, field := range fields {
		mean := frameMean(flat, field)
		b := bounds[field]
		fmt.Fprintf(&sb, "  %s %s %s", field, gauge(mean, b[0], b[1]), data.FormatValue(mean))
	}
	return sb.String()
}

// frameMean is the mean of the field over the frame's rows, ignoring
// missing values.
func frameMean(t *table.Table, field string) float64 {
	var xs []float64
	for _, x := range t.Column(field).([]float64) {
		if !math.IsNaN(x) {
			xs = append(xs, x)
		}
	}
	if len(xs) == 0 {
		return math.NaN()
	}
	return stats.Mean(xs)
}

// fieldBounds finds each field's bounds across every frame, so the
// gauges keep a stable scale while the animation runs.
func fieldBounds(g table.Grouping, fields []string) map[string][2]float64 {
	flat := table.Flatten(g)
	bounds := make(map[string][2]float64, len(fields))
	for _, field := range fields {
		var xs []float64
		for _, x := range flat.Column(field).([]float64) {
			if !math.IsNaN(x) {
				xs = append(xs, x)
			}
		}
		lo, hi := stats.Bounds(xs)
		bounds[field] = [2]float64{lo, hi}
	}
	return bounds
}

// gauge draws a fixed-width bar of x between lo and hi.
func gauge(x, lo, hi float64) string {
	const width = 20
	frac := 0.0
	if !math.IsNaN(x) && hi > lo {
		frac = (x - lo) / (hi - lo)
	}
	n := int(frac*width + 0.5)
	if n < 0 {
		n = 0
	} else if n > width {
		n = width
	}
	return "[" + strings.Repeat("#", n) + strings.Repeat(" ", width-n) + "]"
}
