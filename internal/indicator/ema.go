package indicator

import (
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// emaState is the recursive smoother shared by EMA and the MACD lines.
// It is seeded with the mean of the first period inputs and undefined before that.
type emaState struct {
	period int
	alpha  float64
	seed   []float64
	value  optional.Option[float64]
}

func newEMAState(period int) *emaState {
	return &emaState{
		period: period,
		alpha:  2.0 / float64(period+1),
		seed:   make([]float64, 0, period),
	}
}

func (s *emaState) push(v float64) {
	if s.value.IsSome() {
		s.value = optional.Some(emaStep(s.value.Unwrap(), v, s.alpha))

		return
	}

	s.seed = append(s.seed, v)
	if len(s.seed) == s.period {
		s.value = optional.Some(mean(s.seed))
	}
}

func (s *emaState) reset() {
	s.seed = s.seed[:0]
	s.value = optional.None[float64]()
}

// EMA is the exponential moving average of the close with alpha = 2/(period+1).
type EMA struct {
	period int
	state  *emaState
}

// NewEMA creates a new EMA indicator.
func NewEMA(period int) (*EMA, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "ema period must be a positive integer, got %d", period)
	}

	return &EMA{period: period, state: newEMAState(period)}, nil
}

func (e *EMA) Key() string {
	return fmt.Sprintf("ema_%d", e.period)
}

func (e *EMA) Type() types.IndicatorType {
	return types.IndicatorTypeEMA
}

func (e *EMA) Update(bar types.Bar) {
	e.state.push(bar.Close)
}

func (e *EMA) Value() optional.Option[float64] {
	return e.state.value
}

func (e *EMA) Values() map[string]optional.Option[float64] {
	return single(e.Key(), e.state.value)
}

func (e *EMA) WarmupPeriod() int {
	return e.period
}

func (e *EMA) Reset() {
	e.state.reset()
}
