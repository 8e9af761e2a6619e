package indicator

import (
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// BollingerBands places bands k population standard deviations around an SMA of the close.
// Outputs are keyed "<key>_upper", "<key>_middle" (also "<key>") and "<key>_lower".
type BollingerBands struct {
	period     int
	multiplier float64
	window     *Window[float64]
	upper      optional.Option[float64]
	middle     optional.Option[float64]
	lower      optional.Option[float64]
}

// NewBollingerBands creates a new Bollinger Bands indicator.
func NewBollingerBands(period int, multiplier float64) (*BollingerBands, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "bollinger period must be a positive integer, got %d", period)
	}

	if multiplier <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidMultiplier, "bollinger multiplier must be positive, got %f", multiplier)
	}

	b := &BollingerBands{period: period, multiplier: multiplier}
	b.window = NewWindow[float64](b.Key(), period)

	return b, nil
}

func (b *BollingerBands) Key() string {
	return fmt.Sprintf("bb_%d_%g", b.period, b.multiplier)
}

func (b *BollingerBands) Type() types.IndicatorType {
	return types.IndicatorTypeBollingerBands
}

func (b *BollingerBands) Update(bar types.Bar) {
	b.window.Push(bar.Close)
	if !b.window.Full() {
		return
	}

	values := b.window.Values()
	m := mean(values)
	sd := populationStd(values, m)

	b.middle = optional.Some(m)
	b.upper = optional.Some(m + b.multiplier*sd)
	b.lower = optional.Some(m - b.multiplier*sd)
}

func (b *BollingerBands) Value() optional.Option[float64] {
	return b.middle
}

func (b *BollingerBands) Bands() (upper, middle, lower optional.Option[float64]) {
	return b.upper, b.middle, b.lower
}

func (b *BollingerBands) Values() map[string]optional.Option[float64] {
	return map[string]optional.Option[float64]{
		b.Key():             b.middle,
		b.Key() + "_upper":  b.upper,
		b.Key() + "_middle": b.middle,
		b.Key() + "_lower":  b.lower,
	}
}

func (b *BollingerBands) WarmupPeriod() int {
	return b.period
}

func (b *BollingerBands) Reset() {
	b.window.Reset()
	b.upper = optional.None[float64]()
	b.middle = optional.None[float64]()
	b.lower = optional.None[float64]()
}
