package indicator

import (
	"slices"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// DefaultHistorySize is the lookback kept per output when none is configured.
const DefaultHistorySize = 64

// Engine advances a set of indicators bar by bar and hands out immutable snapshots.
// It is owned by a single run and is not safe for concurrent use.
type Engine struct {
	registry    IndicatorRegistry
	historySize int
	history     map[string]*Window[optional.Option[float64]]
	owners      map[string]string
	index       int
}

// NewEngine creates an engine that keeps historySize values per output (at least 2).
func NewEngine(historySize int) *Engine {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}

	return &Engine{
		registry:    NewIndicatorRegistry(),
		historySize: max(historySize, 2),
		history:     make(map[string]*Window[optional.Option[float64]]),
		owners:      make(map[string]string),
		index:       -1,
	}
}

// Register adds indicators. Two indicators may not publish the same output key.
func (e *Engine) Register(indicators ...Indicator) error {
	for _, ind := range indicators {
		for key := range ind.Values() {
			if owner, taken := e.owners[key]; taken {
				return errors.Newf(errors.ErrCodeIndicatorAlreadyExists, "output %s of %s is already published by %s", key, ind.Key(), owner)
			}
		}

		if err := e.registry.RegisterIndicator(ind); err != nil {
			return err
		}

		for key := range ind.Values() {
			e.owners[key] = ind.Key()
			e.history[key] = NewWindow[optional.Option[float64]](key, e.historySize)
		}
	}

	return nil
}

// Registry exposes the registered indicators.
func (e *Engine) Registry() IndicatorRegistry {
	return e.registry
}

// Advance feeds bar to every indicator in registration order and returns the snapshot for it.
func (e *Engine) Advance(bar types.Bar) Snapshot {
	e.index++

	for _, key := range e.registry.ListIndicators() {
		ind, err := e.registry.GetIndicator(key)
		if err != nil {
			continue
		}

		ind.Update(bar)

		for out, v := range ind.Values() {
			if w, ok := e.history[out]; ok {
				w.Push(v)
			}
		}
	}

	history := make(map[string][]optional.Option[float64], len(e.history))
	for key, w := range e.history {
		history[key] = w.Values()
	}

	return Snapshot{index: e.index, time: bar.Time, history: history}
}

// Reset clears every indicator and the stored history.
func (e *Engine) Reset() {
	for _, key := range e.registry.ListIndicators() {
		if ind, err := e.registry.GetIndicator(key); err == nil {
			ind.Reset()
		}
	}

	for _, w := range e.history {
		w.Reset()
	}

	e.index = -1
}

// Snapshot is the read-only view of every indicator output at one bar index.
type Snapshot struct {
	index   int
	time    time.Time
	history map[string][]optional.Option[float64]
}

// NewSnapshot builds a snapshot holding only current values.
func NewSnapshot(index int, t time.Time, values map[string]optional.Option[float64]) Snapshot {
	history := make(map[string][]optional.Option[float64], len(values))
	for k, v := range values {
		history[k] = []optional.Option[float64]{v}
	}

	return Snapshot{index: index, time: t, history: history}
}

func (s Snapshot) Index() int {
	return s.index
}

func (s Snapshot) Time() time.Time {
	return s.time
}

// Current returns the value of key at this bar, None if undefined or unknown.
func (s Snapshot) Current(key string) optional.Option[float64] {
	v, err := s.Previous(key, 0)
	if err != nil {
		return optional.None[float64]()
	}

	return v
}

// Lookup is Current with an error for unknown keys.
func (s Snapshot) Lookup(key string) (optional.Option[float64], error) {
	if _, ok := s.history[key]; !ok {
		return optional.None[float64](), errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator output %s not found", key)
	}

	return s.Previous(key, 0)
}

// Previous returns the value of key n bars ago. Asking beyond the stored
// history returns an InsufficientDataError instead of a stale value.
func (s Snapshot) Previous(key string, n int) (optional.Option[float64], error) {
	values, ok := s.history[key]
	if !ok {
		return optional.None[float64](), errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator output %s not found", key)
	}

	if n < 0 {
		return optional.None[float64](), errors.Newf(errors.ErrCodeInvalidParameter, "lookback must be non-negative, got %d", n)
	}

	if n >= len(values) {
		return optional.None[float64](), errors.NewInsufficientDataErrorf(n+1, len(values), key, "%s: lookback %d needs %d values, have %d", key, n, n+1, len(values))
	}

	return values[len(values)-1-n], nil
}

// Keys returns the output keys in sorted order.
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s.history))
	for k := range s.history {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}
