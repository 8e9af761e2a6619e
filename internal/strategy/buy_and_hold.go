package strategy

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// DefaultPositionFraction keeps 5% of cash aside as a commission buffer.
const DefaultPositionFraction = 0.95

// BuyAndHoldStrategy buys cash * fraction / close on the first bar and sells
// everything on the last bar. It is the baseline other strategies are scored against.
// A feed of one bar has no room for both, so it stays flat.
type BuyAndHoldStrategy struct {
	fraction float64
}

func NewBuyAndHoldStrategy(fraction float64) (*BuyAndHoldStrategy, error) {
	if fraction <= 0 || fraction > 1 {
		return nil, errors.Newf(errors.ErrCodeStrategyConfigError, "position fraction must be in (0, 1], got %f", fraction)
	}

	return &BuyAndHoldStrategy{fraction: fraction}, nil
}

func (s *BuyAndHoldStrategy) Name() string {
	return "buy_and_hold"
}

func (s *BuyAndHoldStrategy) Indicators() []indicator.Indicator {
	return nil
}

func (s *BuyAndHoldStrategy) Evaluate(in Input) (optional.Option[types.OrderIntent], error) {
	if in.HasOutstandingOrder {
		return hold()
	}

	if in.IsLastBar() {
		return sellAll(in.Position, types.OrderReasonFinalBar)
	}

	if in.Index == 0 {
		if in.Bar.Close <= 0 {
			return hold()
		}

		return buyIntent(in.Cash*s.fraction/in.Bar.Close, types.OrderReasonEntry)
	}

	return hold()
}
