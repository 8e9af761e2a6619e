package indicator

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

const (
	CrossUp   = 1.0
	CrossDown = -1.0
	CrossNone = 0.0
)

// CrossOver owns a fast and a slow line and reports +1 on the bar where fast
// moves above slow, -1 where it moves below and 0 otherwise. The sign of
// (fast - slow) is compared with the last non-zero sign, so a bar where the
// lines are equal never fires and each change of side fires exactly once.
// Values also exposes the two underlying lines under their own keys.
type CrossOver struct {
	fast     Indicator
	slow     Indicator
	lastSign int
	value    optional.Option[float64]
}

// NewCrossOver creates a crossover over two indicators it takes ownership of.
func NewCrossOver(fast, slow Indicator) *CrossOver {
	return &CrossOver{fast: fast, slow: slow}
}

func (c *CrossOver) Key() string {
	return "crossover_" + c.fast.Key() + "_" + c.slow.Key()
}

func (c *CrossOver) FastKey() string {
	return c.fast.Key()
}

func (c *CrossOver) SlowKey() string {
	return c.slow.Key()
}

func (c *CrossOver) Type() types.IndicatorType {
	return types.IndicatorTypeCrossOver
}

func (c *CrossOver) Update(bar types.Bar) {
	c.fast.Update(bar)
	c.slow.Update(bar)
	c.value = crossStep(c.fast.Value(), c.slow.Value(), &c.lastSign)
}

// crossStep is shared by the incremental and batch paths.
func crossStep(fast, slow optional.Option[float64], lastSign *int) optional.Option[float64] {
	if fast.IsNone() || slow.IsNone() {
		return optional.None[float64]()
	}

	sign := signOf(fast.Unwrap() - slow.Unwrap())
	if sign == 0 {
		return optional.Some(CrossNone)
	}

	previous := *lastSign
	*lastSign = sign

	if previous == 0 || previous == sign {
		return optional.Some(CrossNone)
	}

	return optional.Some(float64(sign))
}

func signOf(d float64) int {
	switch {
	case d > 0:
		return 1
	case d < 0:
		return -1
	default:
		return 0
	}
}

func (c *CrossOver) Value() optional.Option[float64] {
	return c.value
}

func (c *CrossOver) Values() map[string]optional.Option[float64] {
	values := map[string]optional.Option[float64]{c.Key(): c.value}
	for k, v := range c.fast.Values() {
		values[k] = v
	}

	for k, v := range c.slow.Values() {
		values[k] = v
	}

	return values
}

func (c *CrossOver) WarmupPeriod() int {
	return max(c.fast.WarmupPeriod(), c.slow.WarmupPeriod()) + 1
}

func (c *CrossOver) Reset() {
	c.fast.Reset()
	c.slow.Reset()
	c.lastSign = 0
	c.value = optional.None[float64]()
}
