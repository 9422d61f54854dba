// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package frame

import (
	"reflect"
	"testing"
	"time"

	"github.com/aclements/go-gg/table"
)

func TestParseDirection(t *testing.T) {
	for _, test := range []struct {
		name string
		want Direction
		err  bool
	}{
		{"", Ascending, false},
		{"asc", Ascending, false},
		{"ascending", Ascending, false},
		{"desc", Descending, false},
		{"descending", Descending, false},
		{"up", Ascending, true},
	} {
		got, err := ParseDirection(test.name)
		if (err != nil) != test.err || got != test.want {
			t.Errorf("ParseDirection(%q) = %v, %v; want %v, error = %v", test.name, got, err, test.want, test.err)
		}
	}
}

func TestOrder(t *testing.T) {
	tab := new(table.Builder).
		Add("geo", []string{"c", "a", "b"}).
		Add("pop", []float64{3, 1, 2}).
		Done()

	got := OrderBy("pop").F(tab)
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(got.Table(table.RootGroupID).Column("geo"), want) {
		t.Errorf("ascending geo = %v; want %v", got.Table(table.RootGroupID).Column("geo"), want)
	}

	got = Order{[]SortKey{{"pop", Descending}}}.F(tab)
	if want := []string{"c", "b", "a"}; !reflect.DeepEqual(got.Table(table.RootGroupID).Column("geo"), want) {
		t.Errorf("descending geo = %v; want %v", got.Table(table.RootGroupID).Column("geo"), want)
	}
}

func TestOrderMissingFirst(t *testing.T) {
	tab := new(table.Builder).
		Add("geo", []string{"a", "b", "c"}).
		Add("pop", []float64{2, nan, 1}).
		Done()
	got := OrderBy("pop").F(tab).Table(table.RootGroupID)
	if want := []string{"b", "c", "a"}; !reflect.DeepEqual(got.Column("geo"), want) {
		t.Errorf("geo = %v; want %v", got.Column("geo"), want)
	}
}

func TestOrderStable(t *testing.T) {
	tab := new(table.Builder).
		Add("key", []int{1, 1, 0}).
		Add("tag", []string{"a", "b", "c"}).
		Done()
	got := OrderBy("key").F(tab).Table(table.RootGroupID)
	// Ties keep their original relative order.
	if want := []string{"c", "a", "b"}; !reflect.DeepEqual(got.Column("tag"), want) {
		t.Errorf("tag = %v; want %v", got.Column("tag"), want)
	}

	// Sorting already sorted data changes nothing.
	again := OrderBy("key").F(got).Table(table.RootGroupID)
	if !reflect.DeepEqual(again.Column("tag"), got.Column("tag")) {
		t.Errorf("second sort changed the order: %v", again.Column("tag"))
	}
}

func TestOrderMultiKey(t *testing.T) {
	tab := new(table.Builder).
		Add("k1", []string{"b", "a", "b", "a"}).
		Add("k2", []float64{2, 9, 1, 1}).
		Done()
	got := OrderBy("k1", "k2").F(tab).Table(table.RootGroupID)
	if want := []string{"a", "a", "b", "b"}; !reflect.DeepEqual(got.Column("k1"), want) {
		t.Errorf("k1 = %v; want %v", got.Column("k1"), want)
	}
	if want := []float64{1, 9, 1, 2}; !reflect.DeepEqual(got.Column("k2"), want) {
		t.Errorf("k2 = %v; want %v", got.Column("k2"), want)
	}
}

func TestOrderTimes(t *testing.T) {
	t0, t1, t2 := utc(1990, 1), utc(1995, 1), utc(2000, 1)
	tab := new(table.Builder).
		Add("year", []time.Time{t1, t2, t0}).
		Done()
	got := OrderBy("year").F(tab).Table(table.RootGroupID)
	if want := []time.Time{t0, t1, t2}; !reflect.DeepEqual(got.Column("year"), want) {
		t.Errorf("year = %v; want %v", got.Column("year"), want)
	}
}

func TestOrderConsts(t *testing.T) {
	tab := new(table.Builder).
		AddConst("unit", "pct").
		Add("pop", []float64{2, 1}).
		Done()

	// A constant column cannot affect the order and is skipped.
	got := OrderBy("unit", "pop").F(tab).Table(table.RootGroupID)
	if want := []float64{1, 2}; !reflect.DeepEqual(got.Column("pop"), want) {
		t.Errorf("pop = %v; want %v", got.Column("pop"), want)
	}
	if cv, ok := got.Const("unit"); !ok || cv != "pct" {
		t.Errorf("Const(unit) = %v, %v; want pct, true", cv, ok)
	}

	// Ordering by nothing but constants leaves the table alone.
	same := OrderBy("unit").F(tab).Table(table.RootGroupID)
	if want := []float64{2, 1}; !reflect.DeepEqual(same.Column("pop"), want) {
		t.Errorf("pop = %v; want %v", same.Column("pop"), want)
	}
}

func TestOrderGroups(t *testing.T) {
	g := table.GroupBy(new(table.Builder).
		Add("geo", []string{"swe", "swe", "nor", "nor"}).
		Add("pop", []float64{9, 8, 4, 5}).
		Done(), "geo")
	got := OrderBy("pop").F(g)

	// Each group sorts independently.
	wants := map[string][]float64{"swe": {8, 9}, "nor": {4, 5}}
	for _, gid := range got.Tables() {
		want := wants[gid.Label().(string)]
		if col := got.Table(gid).Column("pop"); !reflect.DeepEqual(col, want) {
			t.Errorf("group %v pop = %v; want %v", gid.Label(), col, want)
		}
	}
}

func TestOrderNoKeys(t *testing.T) {
	tab := new(table.Builder).Add("pop", []float64{2, 1}).Done()
	if got := (Order{}).F(tab); got != table.Grouping(tab) {
		t.Errorf("Order with no keys should return its input")
	}
}
