package strategy

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// CrossoverStrategy buys on a golden cross while flat and sells the whole
// position on a death cross while long.
type CrossoverStrategy struct {
	cross *indicator.CrossOver
	sizer Sizer
	extra []indicator.Indicator
}

// NewCrossoverStrategy trades the crossing of fast over slow. Extra indicators,
// such as the ATR a RiskSizer reads, are registered alongside.
func NewCrossoverStrategy(fast, slow indicator.Indicator, sizer Sizer, extra ...indicator.Indicator) (*CrossoverStrategy, error) {
	if fast == nil || slow == nil {
		return nil, errors.New(errors.ErrCodeStrategyConfigError, "crossover needs a fast and a slow line")
	}

	if fast.Key() == slow.Key() {
		return nil, errors.Newf(errors.ErrCodeStrategyConfigError, "fast and slow lines are both %s", fast.Key())
	}

	if sizer == nil {
		return nil, errors.New(errors.ErrCodeStrategyConfigError, "crossover needs a sizer")
	}

	return &CrossoverStrategy{
		cross: indicator.NewCrossOver(fast, slow),
		sizer: sizer,
		extra: extra,
	}, nil
}

func (s *CrossoverStrategy) Name() string {
	return "crossover(" + s.cross.FastKey() + "," + s.cross.SlowKey() + ")"
}

func (s *CrossoverStrategy) Indicators() []indicator.Indicator {
	return append([]indicator.Indicator{s.cross}, s.extra...)
}

func (s *CrossoverStrategy) Evaluate(in Input) (optional.Option[types.OrderIntent], error) {
	if in.HasOutstandingOrder {
		return hold()
	}

	signal, err := in.Indicators.Lookup(s.cross.Key())
	if err != nil {
		return optional.None[types.OrderIntent](), errors.Wrap(errors.ErrCodeStrategyRuntimeError, "crossover signal unavailable", err)
	}

	if signal.IsNone() {
		return hold()
	}

	switch {
	case signal.Unwrap() == indicator.CrossUp && in.Position.IsFlat():
		return buyIntent(s.sizer.Size(in), types.OrderReasonEntry)
	case signal.Unwrap() == indicator.CrossDown && in.Position.IsLong():
		return sellAll(in.Position, types.OrderReasonExit)
	default:
		return hold()
	}
}
