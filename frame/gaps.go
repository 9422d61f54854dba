// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package frame

import "math"

// A Gap is a run of missing values that FillGaps closed, identified
// by the indices of the known values on either side of the run. The
// filled rows are Lo+1 through Hi-1.
type Gap struct {
	Lo, Hi int
}

// FillGaps closes interior runs of NaN in xs by linear interpolation
// between the nearest known neighbors, in place. A run of g missing
// values between known values a and b is filled at the fractional
// positions i/(g+1) along [a, b]. Runs with no known value on one
// side (leading and trailing NaNs) are left as they are.
//
// FillGaps returns one Gap per filled run so callers can tell filled
// cells from observed ones.
func FillGaps(xs []float64) []Gap {
	var gaps []Gap
	lo := -1
	for i, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		if lo >= 0 && i-lo > 1 {
			fillGap(xs, lo, i)
			gaps = append(gaps, Gap{lo, i})
		}
		lo = i
	}
	return gaps
}

// fillGap fills xs[lo+1:hi] between the known values at lo and hi.
func fillGap(xs []float64, lo, hi int) {
	a, b := xs[lo], xs[hi]
	n := hi - lo
	for i := lo + 1; i < hi; i++ {
		f := float64(i-lo) / float64(n)
		xs[i] = a + (b-a)*f
	}
}
