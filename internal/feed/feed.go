package feed

import (
	"iter"
	"math"
	"slices"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Feed is a validated, read-only bar sequence. Every call to All starts a new
// replay from the first bar, so one Feed can serve concurrent runs.
type Feed struct {
	bars []types.Bar
}

// New validates bars once and copies them into a Feed.
// Timestamps must be strictly increasing; prices must be finite and non-negative.
func New(bars []types.Bar) (*Feed, error) {
	if len(bars) == 0 {
		return nil, errors.New(errors.ErrCodeNoDataFound, "feed requires at least one bar")
	}

	for i, bar := range bars {
		if err := validateBar(i, bar); err != nil {
			return nil, err
		}

		if i == 0 {
			continue
		}

		prev := bars[i-1].Time
		switch {
		case bar.Time.Equal(prev):
			return nil, errors.Newf(errors.ErrCodeDuplicateTimestamp, "duplicate timestamp %s at index %d", bar.Time.Format(time.RFC3339), i)
		case bar.Time.Before(prev):
			return nil, errors.Newf(errors.ErrCodeNonMonotonicData, "timestamp %s at index %d is before %s", bar.Time.Format(time.RFC3339), i, prev.Format(time.RFC3339))
		}
	}

	return &Feed{bars: slices.Clone(bars)}, nil
}

func validateBar(i int, bar types.Bar) error {
	for _, v := range []float64{bar.Open, bar.High, bar.Low, bar.Close, bar.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return errors.Newf(errors.ErrCodeInvalidBar, "bar %d has a missing, infinite or negative value", i)
		}
	}

	if bar.High < bar.Low {
		return errors.Newf(errors.ErrCodeInvalidBar, "bar %d has high %f below low %f", i, bar.High, bar.Low)
	}

	return nil
}

// All yields (index, bar) pairs in time order.
func (f *Feed) All() iter.Seq2[int, types.Bar] {
	return func(yield func(int, types.Bar) bool) {
		for i, bar := range f.bars {
			if !yield(i, bar) {
				return
			}
		}
	}
}

// Len returns the number of bars.
func (f *Feed) Len() int {
	return len(f.bars)
}

// At returns the bar at index i.
func (f *Feed) At(i int) (types.Bar, error) {
	if i < 0 || i >= len(f.bars) {
		return types.Bar{}, errors.Newf(errors.ErrCodeIndexOutOfRange, "index %d out of range [0, %d)", i, len(f.bars))
	}

	return f.bars[i], nil
}

// First returns the earliest bar.
func (f *Feed) First() types.Bar {
	return f.bars[0]
}

// Last returns the latest bar.
func (f *Feed) Last() types.Bar {
	return f.bars[len(f.bars)-1]
}

// Between returns a new feed restricted to bars with start <= time <= end.
// A zero start or end leaves that side open.
func (f *Feed) Between(start, end time.Time) (*Feed, error) {
	lo, _ := slices.BinarySearchFunc(f.bars, start, func(b types.Bar, t time.Time) int {
		return b.Time.Compare(t)
	})

	if start.IsZero() {
		lo = 0
	}

	hi := len(f.bars)
	if !end.IsZero() {
		hi, _ = slices.BinarySearchFunc(f.bars, end, func(b types.Bar, t time.Time) int {
			return b.Time.Compare(t)
		})

		if hi < len(f.bars) && f.bars[hi].Time.Equal(end) {
			hi++
		}
	}

	if lo >= hi {
		return nil, errors.Newf(errors.ErrCodeNoDataFound, "no bars between %s and %s", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	return &Feed{bars: f.bars[lo:hi:hi]}, nil
}
