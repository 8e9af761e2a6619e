package indicator

import (
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// SMA is the mean of the trailing period values of a bar field, the close by default.
type SMA struct {
	period int
	source types.PriceSource
	window *Window[float64]
	value  optional.Option[float64]
}

// NewSMA creates a simple moving average over the close.
func NewSMA(period int) (*SMA, error) {
	return NewSMAOf(period, types.PriceSourceClose)
}

// NewSMAOf creates a simple moving average over the given bar field.
func NewSMAOf(period int, source types.PriceSource) (*SMA, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "sma period must be a positive integer, got %d", period)
	}

	if source == "" {
		source = types.PriceSourceClose
	}

	s := &SMA{period: period, source: source}
	s.window = NewWindow[float64](s.Key(), period)

	return s, nil
}

func (s *SMA) Key() string {
	if s.source == types.PriceSourceClose {
		return fmt.Sprintf("sma_%d", s.period)
	}

	return fmt.Sprintf("sma_%d_%s", s.period, s.source)
}

func (s *SMA) Type() types.IndicatorType {
	return types.IndicatorTypeSMA
}

func (s *SMA) Update(bar types.Bar) {
	s.window.Push(s.source.Value(bar))
	if s.window.Full() {
		s.value = optional.Some(mean(s.window.Values()))
	}
}

func (s *SMA) Value() optional.Option[float64] {
	return s.value
}

func (s *SMA) Values() map[string]optional.Option[float64] {
	return single(s.Key(), s.value)
}

func (s *SMA) WarmupPeriod() int {
	return s.period
}

func (s *SMA) Reset() {
	s.window.Reset()
	s.value = optional.None[float64]()
}

// NewMovingAverage builds an SMA or EMA over the close.
func NewMovingAverage(kind types.IndicatorType, period int) (Indicator, error) {
	switch kind {
	case types.IndicatorTypeSMA:
		return NewSMA(period)
	case types.IndicatorTypeEMA:
		return NewEMA(period)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "unsupported moving average type %q", kind)
	}
}
