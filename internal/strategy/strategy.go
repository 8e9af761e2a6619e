package strategy

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// Input is everything a strategy may look at when deciding on one bar.
// The orchestrator builds a fresh Input per bar; strategies never reach
// into the broker or the indicator engine directly.
type Input struct {
	Bar types.Bar
	// Index of Bar in the feed, starting at 0.
	Index int
	// Total number of bars in the feed.
	Total               int
	Indicators          indicator.Snapshot
	Position            types.Position
	Cash                float64
	Equity              float64
	HasOutstandingOrder bool
}

// IsLastBar reports whether Bar is the final bar of the feed.
func (in Input) IsLastBar() bool {
	return in.Index == in.Total-1
}

// Strategy decides, bar by bar, whether to trade.
// A strategy instance belongs to one run at a time.
type Strategy interface {
	// Name identifies the strategy in results and logs.
	Name() string
	// Indicators returns the indicators the strategy reads. The orchestrator
	// registers and resets them before the first bar.
	Indicators() []indicator.Indicator
	// Evaluate returns an order intent, or None to do nothing on this bar.
	// Undefined indicator values must lead to None, never to a trade.
	Evaluate(in Input) (optional.Option[types.OrderIntent], error)
}

func hold() (optional.Option[types.OrderIntent], error) {
	return optional.None[types.OrderIntent](), nil
}

func buyIntent(size float64, reason string) (optional.Option[types.OrderIntent], error) {
	if size <= 0 {
		return hold()
	}

	return optional.Some(types.OrderIntent{Side: types.OrderSideBuy, Size: size, Reason: reason}), nil
}

func sellAll(position types.Position, reason string) (optional.Option[types.OrderIntent], error) {
	if !position.IsLong() {
		return hold()
	}

	return optional.Some(types.OrderIntent{Side: types.OrderSideSell, Size: position.Size, Reason: reason}), nil
}
