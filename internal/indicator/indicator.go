package indicator

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// Indicator is a causal technical indicator advanced one bar at a time.
// Update must only read the bar it is given and state built from earlier bars.
type Indicator interface {
	// Key returns the unique name of the primary output, e.g. "sma_20".
	Key() string
	// Type returns the indicator family.
	Type() types.IndicatorType
	// Update advances the indicator by one bar.
	Update(bar types.Bar)
	// Value returns the primary output for the last bar. None during warm-up.
	Value() optional.Option[float64]
	// Values returns every output keyed by its snapshot name.
	Values() map[string]optional.Option[float64]
	// WarmupPeriod is the number of bars needed before Value is defined.
	WarmupPeriod() int
	// Reset clears all state so the indicator can replay a feed from the start.
	Reset()
}

// mean is the shared averaging kernel. Incremental and batch paths both sum
// oldest to newest so their results are bit-identical.
func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// populationStd is the standard deviation over the whole window (divide by n).
func populationStd(values []float64, m float64) float64 {
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}

	return math.Sqrt(sum / float64(len(values)))
}

func emaStep(prev, value, alpha float64) float64 {
	return alpha*value + (1-alpha)*prev
}

func trueRange(bar types.Bar, prevClose float64) float64 {
	return math.Max(bar.High-bar.Low, math.Max(math.Abs(bar.High-prevClose), math.Abs(bar.Low-prevClose)))
}

func rsiFromAverages(avgGain, avgLoss float64) optional.Option[float64] {
	if avgLoss == 0 {
		if avgGain > 0 {
			return optional.Some(100.0)
		}

		return optional.None[float64]()
	}

	rs := avgGain / avgLoss

	return optional.Some(100 - 100/(1+rs))
}

func single(key string, value optional.Option[float64]) map[string]optional.Option[float64] {
	return map[string]optional.Option[float64]{key: value}
}
