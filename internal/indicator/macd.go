package indicator

import (
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// MACD is EMA(fast) - EMA(slow) with a signal EMA over the MACD line.
// Outputs are keyed "<key>", "<key>_signal" and "<key>_histogram".
type MACD struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
	fast         *emaState
	slow         *emaState
	signal       *emaState
	macd         optional.Option[float64]
	histogram    optional.Option[float64]
}

// NewMACD creates a new MACD indicator. fast must be shorter than slow.
func NewMACD(fast, slow, signal int) (*MACD, error) {
	if fast <= 0 || slow <= 0 || signal <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "macd periods must be positive, got %d/%d/%d", fast, slow, signal)
	}

	if fast >= slow {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "macd fast period %d must be shorter than slow period %d", fast, slow)
	}

	return &MACD{
		fastPeriod:   fast,
		slowPeriod:   slow,
		signalPeriod: signal,
		fast:         newEMAState(fast),
		slow:         newEMAState(slow),
		signal:       newEMAState(signal),
	}, nil
}

func (m *MACD) Key() string {
	return fmt.Sprintf("macd_%d_%d_%d", m.fastPeriod, m.slowPeriod, m.signalPeriod)
}

func (m *MACD) SignalKey() string {
	return m.Key() + "_signal"
}

func (m *MACD) HistogramKey() string {
	return m.Key() + "_histogram"
}

func (m *MACD) Type() types.IndicatorType {
	return types.IndicatorTypeMACD
}

func (m *MACD) Update(bar types.Bar) {
	m.fast.push(bar.Close)
	m.slow.push(bar.Close)

	if m.fast.value.IsNone() || m.slow.value.IsNone() {
		return
	}

	line := m.fast.value.Unwrap() - m.slow.value.Unwrap()
	m.macd = optional.Some(line)

	m.signal.push(line)
	if m.signal.value.IsSome() {
		m.histogram = optional.Some(line - m.signal.value.Unwrap())
	}
}

func (m *MACD) Value() optional.Option[float64] {
	return m.macd
}

func (m *MACD) Signal() optional.Option[float64] {
	return m.signal.value
}

func (m *MACD) Histogram() optional.Option[float64] {
	return m.histogram
}

func (m *MACD) Values() map[string]optional.Option[float64] {
	return map[string]optional.Option[float64]{
		m.Key():          m.macd,
		m.SignalKey():    m.signal.value,
		m.HistogramKey(): m.histogram,
	}
}

func (m *MACD) WarmupPeriod() int {
	return m.slowPeriod + m.signalPeriod - 1
}

func (m *MACD) Reset() {
	m.fast.reset()
	m.slow.reset()
	m.signal.reset()
	m.macd = optional.None[float64]()
	m.histogram = optional.None[float64]()
}
