// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package data defines the contract between chart state and the
// tabular data that backs it.
//
// A dataset hands out columns of a go-gg table together with their
// concepts: the named role a column plays, such as a time axis, a
// numeric measure, or an entity key. The rest of this module consumes
// datasets through the narrow Source interface and never sees how
// loading happens; only the source's load State is observable.
package data

// A Kind classifies a concept, the role a column plays in a dataset.
type Kind int

const (
	// KindString is the default for concepts with no declared
	// kind. String columns are categorical.
	KindString Kind = iota

	// KindMeasure marks numeric indicator columns.
	KindMeasure

	// KindTime marks columns holding points in time.
	KindTime

	// KindEntityDomain marks columns identifying entities, such
	// as countries.
	KindEntityDomain

	// KindEntitySet marks columns naming subsets of an entity
	// domain, such as world regions.
	KindEntitySet

	// KindBoolean marks true/false columns.
	KindBoolean
)

var kindNames = []string{"string", "measure", "time", "entity_domain", "entity_set", "boolean"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "string"
	}
	return kindNames[k]
}

// ParseKind converts a dataset's concept type name to a Kind.
// Unknown names are treated as string concepts.
func ParseKind(name string) Kind {
	for i, n := range kindNames {
		if n == name {
			return Kind(i)
		}
	}
	return KindString
}

// IsEntity reports whether k identifies entities rather than values.
func (k Kind) IsEntity() bool {
	return k == KindEntityDomain || k == KindEntitySet
}

// A Concept describes one column of source data.
type Concept struct {
	// ID is the column name.
	ID string

	// Kind is the role the column plays.
	Kind Kind

	// Scales lists the scale type names the dataset declares for
	// this concept in preference order, such as "log", "linear".
	// It may be nil.
	Scales []string
}

// State reports where an asynchronous data load stands.
type State int

const (
	// Pending means the load has not completed yet.
	Pending State = iota

	// Fulfilled means data is loaded and usable.
	Fulfilled

	// Failed means the load stopped with an error.
	Failed
)

var stateNames = []string{"pending", "fulfilled", "failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "invalid"
	}
	return stateNames[s]
}
