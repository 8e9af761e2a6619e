package indicator

import (
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// RSI is the Relative Strength Index with Wilder smoothing.
// The first averages are simple means of the first period changes.
type RSI struct {
	period    int
	prevClose optional.Option[float64]
	gains     []float64
	losses    []float64
	avgGain   float64
	avgLoss   float64
	seeded    bool
	value     optional.Option[float64]
}

// NewRSI creates a new RSI indicator.
func NewRSI(period int) (*RSI, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "rsi period must be a positive integer, got %d", period)
	}

	return &RSI{
		period: period,
		gains:  make([]float64, 0, period),
		losses: make([]float64, 0, period),
	}, nil
}

func (r *RSI) Key() string {
	return fmt.Sprintf("rsi_%d", r.period)
}

func (r *RSI) Type() types.IndicatorType {
	return types.IndicatorTypeRSI
}

func (r *RSI) Update(bar types.Bar) {
	if r.prevClose.IsNone() {
		r.prevClose = optional.Some(bar.Close)

		return
	}

	gain, loss := splitChange(bar.Close - r.prevClose.Unwrap())
	r.prevClose = optional.Some(bar.Close)

	if !r.seeded {
		r.gains = append(r.gains, gain)
		r.losses = append(r.losses, loss)

		if len(r.gains) < r.period {
			return
		}

		r.avgGain = mean(r.gains)
		r.avgLoss = mean(r.losses)
		r.seeded = true
	} else {
		p := float64(r.period)
		r.avgGain = (r.avgGain*(p-1) + gain) / p
		r.avgLoss = (r.avgLoss*(p-1) + loss) / p
	}

	r.value = rsiFromAverages(r.avgGain, r.avgLoss)
}

func (r *RSI) Value() optional.Option[float64] {
	return r.value
}

func (r *RSI) Values() map[string]optional.Option[float64] {
	return single(r.Key(), r.value)
}

// WarmupPeriod is period+1 bars because the first bar has no change.
func (r *RSI) WarmupPeriod() int {
	return r.period + 1
}

func (r *RSI) Reset() {
	r.prevClose = optional.None[float64]()
	r.gains = r.gains[:0]
	r.losses = r.losses[:0]
	r.avgGain = 0
	r.avgLoss = 0
	r.seeded = false
	r.value = optional.None[float64]()
}

func splitChange(change float64) (gain, loss float64) {
	if change > 0 {
		return change, 0
	}

	return 0, -change
}
