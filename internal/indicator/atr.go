package indicator

import (
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// ATR is the simple rolling mean of the true range. The first bar has no
// previous close, so the first true range comes from the second bar.
type ATR struct {
	period    int
	prevClose optional.Option[float64]
	ranges    *Window[float64]
	value     optional.Option[float64]
}

// NewATR creates a new ATR indicator.
func NewATR(period int) (*ATR, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "atr period must be a positive integer, got %d", period)
	}

	a := &ATR{period: period}
	a.ranges = NewWindow[float64](a.Key(), period)

	return a, nil
}

func (a *ATR) Key() string {
	return fmt.Sprintf("atr_%d", a.period)
}

func (a *ATR) Type() types.IndicatorType {
	return types.IndicatorTypeATR
}

func (a *ATR) Update(bar types.Bar) {
	if a.prevClose.IsSome() {
		a.ranges.Push(trueRange(bar, a.prevClose.Unwrap()))
	}

	a.prevClose = optional.Some(bar.Close)

	if a.ranges.Full() {
		a.value = optional.Some(mean(a.ranges.Values()))
	}
}

func (a *ATR) Value() optional.Option[float64] {
	return a.value
}

func (a *ATR) Values() map[string]optional.Option[float64] {
	return single(a.Key(), a.value)
}

func (a *ATR) WarmupPeriod() int {
	return a.period + 1
}

func (a *ATR) Reset() {
	a.prevClose = optional.None[float64]()
	a.ranges.Reset()
	a.value = optional.None[float64]()
}
