package audit

import (
	"errors"
	"math"
	"sort"

	"github.com/shahul3595/SFCAudit/pkg/models/domain"
)

// Minimum cohort sizes below which bounds are never fabricated.
const (
	MinSampleIQR    = 4
	MinSampleZScore = 3
)

// ErrInsufficientSample is returned when a cohort is smaller than the
// method's minimum; the cohort is skipped, not estimated.
var ErrInsufficientSample = errors.New("sample below method minimum")

// IQRBounds computes the interquartile acceptance interval
// [Q1 - multiplier*IQR, Q3 + multiplier*IQR] over the sample. Quartiles use
// linearly interpolated percentiles. Requires at least MinSampleIQR values.
func IQRBounds(values []float64, multiplier float64) (domain.Bounds, error) {
	if len(values) < MinSampleIQR {
		return domain.Bounds{}, ErrInsufficientSample
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	q1 := percentile(sorted, 25)
	q3 := percentile(sorted, 75)
	iqr := q3 - q1

	return domain.Bounds{
		Method: domain.MethodIQR,
		Lower:  q1 - multiplier*iqr,
		Upper:  q3 + multiplier*iqr,
		Param:  multiplier,
		N:      len(values),
		Q1:     q1,
		Q3:     q3,
		IQR:    iqr,
	}, nil
}

// ZScoreBounds computes [mean - limit*std, mean + limit*std] using the
// sample standard deviation (N-1 divisor). Requires at least
// MinSampleZScore values. An all-identical sample yields std 0 and bounds
// collapsed onto the common value, so nothing can be flagged.
func ZScoreBounds(values []float64, limit float64) (domain.Bounds, error) {
	if len(values) < MinSampleZScore {
		return domain.Bounds{}, ErrInsufficientSample
	}

	n := float64(len(values))
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / n

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	std := math.Sqrt(sq / (n - 1))

	return domain.Bounds{
		Method: domain.MethodZScore,
		Lower:  mean - limit*std,
		Upper:  mean + limit*std,
		Param:  limit,
		N:      len(values),
		Mean:   mean,
		Std:    std,
	}, nil
}

// percentile returns the p-th percentile of a sorted sample using linear
// interpolation between closest ranks.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
