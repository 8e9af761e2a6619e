package strategy

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// FilteredCrossoverParams configures a FilteredCrossoverStrategy.
type FilteredCrossoverParams struct {
	Fast indicator.Indicator
	Slow indicator.Indicator
	// RSIPeriod of the momentum filter.
	RSIPeriod    int
	RSIThreshold float64
	// VolumePeriod of the volume average the current volume must exceed.
	VolumePeriod int
	ATRPeriod    int
	// StopMultiplier places the stop this many ATRs below the entry price.
	StopMultiplier float64
	Sizer          Sizer
}

// FilteredCrossoverStrategy enters on a golden cross confirmed by RSI above
// the threshold and volume above its average. It exits on a death cross
// confirmed by RSI below the threshold and the same volume filter, or as
// soon as the close falls under the stop set at entry.
type FilteredCrossoverStrategy struct {
	cross     *indicator.CrossOver
	rsi       *indicator.RSI
	volume    *indicator.SMA
	atr       *indicator.ATR
	threshold float64
	stopMult  float64
	sizer     Sizer

	// ATR seen when the entry was signalled; the stop is derived from it
	// and the fill price once the position is open.
	entryATR  optional.Option[float64]
	stopPrice optional.Option[float64]
}

func NewFilteredCrossoverStrategy(params FilteredCrossoverParams) (*FilteredCrossoverStrategy, error) {
	if params.Fast == nil || params.Slow == nil {
		return nil, errors.New(errors.ErrCodeStrategyConfigError, "filtered crossover needs a fast and a slow line")
	}

	if params.Fast.Key() == params.Slow.Key() {
		return nil, errors.Newf(errors.ErrCodeStrategyConfigError, "fast and slow lines are both %s", params.Fast.Key())
	}

	if params.Sizer == nil {
		return nil, errors.New(errors.ErrCodeStrategyConfigError, "filtered crossover needs a sizer")
	}

	if params.StopMultiplier <= 0 {
		return nil, errors.Newf(errors.ErrCodeStrategyConfigError, "stop multiplier must be positive, got %f", params.StopMultiplier)
	}

	rsi, err := indicator.NewRSI(params.RSIPeriod)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid rsi period", err)
	}

	volume, err := indicator.NewSMAOf(params.VolumePeriod, types.PriceSourceVolume)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid volume period", err)
	}

	atr, err := indicator.NewATR(params.ATRPeriod)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid atr period", err)
	}

	return &FilteredCrossoverStrategy{
		cross:     indicator.NewCrossOver(params.Fast, params.Slow),
		rsi:       rsi,
		volume:    volume,
		atr:       atr,
		threshold: params.RSIThreshold,
		stopMult:  params.StopMultiplier,
		sizer:     params.Sizer,
	}, nil
}

func (s *FilteredCrossoverStrategy) Name() string {
	return "filtered_crossover(" + s.cross.FastKey() + "," + s.cross.SlowKey() + ")"
}

func (s *FilteredCrossoverStrategy) Indicators() []indicator.Indicator {
	return []indicator.Indicator{s.cross, s.rsi, s.volume, s.atr}
}

// ATRKey is the snapshot key of the stop-distance ATR, for sizers that share it.
func (s *FilteredCrossoverStrategy) ATRKey() string {
	return s.atr.Key()
}

// StopPrice is the active stop, None while flat or before the entry fill is seen.
func (s *FilteredCrossoverStrategy) StopPrice() optional.Option[float64] {
	return s.stopPrice
}

func (s *FilteredCrossoverStrategy) Evaluate(in Input) (optional.Option[types.OrderIntent], error) {
	if in.HasOutstandingOrder {
		return hold()
	}

	s.trackStop(in.Position)

	values, err := s.lookup(in.Indicators, s.cross.Key(), s.rsi.Key(), s.volume.Key())
	if err != nil {
		return optional.None[types.OrderIntent](), err
	}

	if in.Position.IsLong() && s.stopPrice.IsSome() && in.Bar.Close < s.stopPrice.Unwrap() {
		return sellAll(in.Position, types.OrderReasonStopLoss)
	}

	signal, rsi, volumeAverage := values[0], values[1], values[2]
	if signal.IsNone() || rsi.IsNone() || volumeAverage.IsNone() {
		return hold()
	}

	volumeConfirmed := in.Bar.Volume > volumeAverage.Unwrap()

	if in.Position.IsFlat() {
		if signal.Unwrap() != indicator.CrossUp || rsi.Unwrap() <= s.threshold || !volumeConfirmed {
			return hold()
		}

		atr := in.Indicators.Current(s.atr.Key())
		if atr.IsNone() {
			return hold()
		}

		s.entryATR = atr

		return buyIntent(s.sizer.Size(in), types.OrderReasonEntry)
	}

	if signal.Unwrap() == indicator.CrossDown && rsi.Unwrap() < s.threshold && volumeConfirmed {
		return sellAll(in.Position, types.OrderReasonExit)
	}

	return hold()
}

// trackStop arms the stop once the entry has filled and clears it when flat.
func (s *FilteredCrossoverStrategy) trackStop(position types.Position) {
	if position.IsFlat() {
		s.stopPrice = optional.None[float64]()
		s.entryATR = optional.None[float64]()

		return
	}

	if s.stopPrice.IsNone() && s.entryATR.IsSome() {
		s.stopPrice = optional.Some(position.AverageEntryPrice - s.stopMult*s.entryATR.Unwrap())
	}
}

func (s *FilteredCrossoverStrategy) lookup(snapshot indicator.Snapshot, keys ...string) ([]optional.Option[float64], error) {
	values := make([]optional.Option[float64], len(keys))
	for i, key := range keys {
		v, err := snapshot.Lookup(key)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeStrategyRuntimeError, err, "filtered crossover input %s unavailable", key)
		}

		values[i] = v
	}

	return values, nil
}
