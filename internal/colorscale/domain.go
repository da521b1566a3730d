// Package colorscale computes color-scale domains from map data and maps
// values in those domains to colors.
package colorscale

import (
	"math"

	"github.com/aclements/go-moremath/stats"

	"github.com/sells-group/choropleth/internal/join"
)

// Domain is the input range a scale is calibrated against: [min, max] for
// sequential scales, [min, mid, max] for diverging ones.
type Domain []float64

// Diverging reports whether d has a midpoint.
func (d Domain) Diverging() bool {
	return len(d) == 3
}

// Flat reports whether every stop is equal, which maps all values to the
// middle of the palette.
func (d Domain) Flat() bool {
	if len(d) == 0 {
		return true
	}
	return d[0] == d[len(d)-1]
}

// Extent returns the minimum and maximum of the finite values. NaN and
// infinities are skipped; ok is false when nothing is left.
func Extent(values []float64) (lo, hi float64, ok bool) {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		finite = append(finite, v)
	}
	if len(finite) == 0 {
		return 0, 0, false
	}
	lo, hi = stats.Bounds(finite)
	return lo, hi, true
}

// SequentialDomain returns [min, max] over values.
func SequentialDomain(values []float64) (Domain, bool) {
	lo, hi, ok := Extent(values)
	if !ok {
		return nil, false
	}
	return Domain{lo, hi}, true
}

// DivergingDomain returns [min, 0, max] over deltas. The midpoint stays at
// zero however skewed the data is, so one side of the palette may be
// stretched more than the other.
func DivergingDomain(deltas []float64) (Domain, bool) {
	lo, hi, ok := Extent(deltas)
	if !ok {
		return nil, false
	}
	return Domain{lo, 0, hi}, true
}

// LookupDomain returns [min, max] over the joined values. Regions without
// a joined value play no part; NaN entries are skipped.
func LookupDomain(l join.Lookup) (Domain, bool) {
	return SequentialDomain(l.Values())
}
