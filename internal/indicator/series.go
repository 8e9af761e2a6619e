package indicator

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// Batch computations over a whole bar series. Undefined positions are NaN.
// They walk the full history at every position and must match the
// incremental indicators exactly.

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}

	return out
}

func sourceValues(bars []types.Bar, source types.PriceSource) []float64 {
	values := make([]float64, len(bars))
	for i, b := range bars {
		values[i] = source.Value(b)
	}

	return values
}

// SMASeries computes the simple moving average of source over bars.
func SMASeries(bars []types.Bar, period int, source types.PriceSource) []float64 {
	values := sourceValues(bars, source)
	out := nanSeries(len(values))
	if period <= 0 {
		return out
	}

	for i := period - 1; i < len(values); i++ {
		out[i] = mean(values[i-period+1 : i+1])
	}

	return out
}

// emaOf smooths values, treating NaN as not yet available.
func emaOf(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	alpha := 2.0 / float64(period+1)

	first := -1
	for i, v := range values {
		if !math.IsNaN(v) {
			first = i

			break
		}
	}

	if period <= 0 || first < 0 || len(values)-first < period {
		return out
	}

	seedEnd := first + period - 1
	out[seedEnd] = mean(values[first : seedEnd+1])

	for i := seedEnd + 1; i < len(values); i++ {
		out[i] = emaStep(out[i-1], values[i], alpha)
	}

	return out
}

// EMASeries computes the exponential moving average of the close.
func EMASeries(bars []types.Bar, period int) []float64 {
	return emaOf(sourceValues(bars, types.PriceSourceClose), period)
}

// RSISeries computes the Wilder RSI of the close.
func RSISeries(bars []types.Bar, period int) []float64 {
	out := nanSeries(len(bars))
	if period <= 0 || len(bars) <= period {
		return out
	}

	gains := make([]float64, len(bars)-1)
	losses := make([]float64, len(bars)-1)

	for i := 1; i < len(bars); i++ {
		gains[i-1], losses[i-1] = splitChange(bars[i].Close - bars[i-1].Close)
	}

	avgGain := mean(gains[:period])
	avgLoss := mean(losses[:period])
	out[period] = orNaN(rsiFromAverages(avgGain, avgLoss))

	p := float64(period)
	for i := period + 1; i < len(bars); i++ {
		avgGain = (avgGain*(p-1) + gains[i-1]) / p
		avgLoss = (avgLoss*(p-1) + losses[i-1]) / p
		out[i] = orNaN(rsiFromAverages(avgGain, avgLoss))
	}

	return out
}

// MACDLines holds the three MACD outputs.
type MACDLines struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACDSeries computes MACD, signal and histogram of the close.
func MACDSeries(bars []types.Bar, fast, slow, signal int) MACDLines {
	fastLine := EMASeries(bars, fast)
	slowLine := EMASeries(bars, slow)

	line := nanSeries(len(bars))
	for i := range bars {
		if !math.IsNaN(fastLine[i]) && !math.IsNaN(slowLine[i]) {
			line[i] = fastLine[i] - slowLine[i]
		}
	}

	signalLine := emaOf(line, signal)

	histogram := nanSeries(len(bars))
	for i := range bars {
		if !math.IsNaN(signalLine[i]) {
			histogram[i] = line[i] - signalLine[i]
		}
	}

	return MACDLines{MACD: line, Signal: signalLine, Histogram: histogram}
}

// Bands holds the three Bollinger outputs.
type Bands struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// BollingerSeries computes Bollinger Bands of the close.
func BollingerSeries(bars []types.Bar, period int, multiplier float64) Bands {
	closes := sourceValues(bars, types.PriceSourceClose)
	bands := Bands{Upper: nanSeries(len(bars)), Middle: nanSeries(len(bars)), Lower: nanSeries(len(bars))}
	if period <= 0 {
		return bands
	}

	for i := period - 1; i < len(closes); i++ {
		window := closes[i-period+1 : i+1]
		m := mean(window)
		sd := populationStd(window, m)
		bands.Middle[i] = m
		bands.Upper[i] = m + multiplier*sd
		bands.Lower[i] = m - multiplier*sd
	}

	return bands
}

// ATRSeries computes the average true range.
func ATRSeries(bars []types.Bar, period int) []float64 {
	out := nanSeries(len(bars))
	if period <= 0 {
		return out
	}

	ranges := make([]float64, 0, len(bars))
	for i := 1; i < len(bars); i++ {
		ranges = append(ranges, trueRange(bars[i], bars[i-1].Close))
		if len(ranges) >= period {
			out[i] = mean(ranges[len(ranges)-period:])
		}
	}

	return out
}

// CrossOverSeries computes crossover signals between two precomputed lines.
func CrossOverSeries(fast, slow []float64) []float64 {
	out := nanSeries(len(fast))
	lastSign := 0

	for i := range fast {
		out[i] = orNaN(crossStep(fromNaN(fast[i]), fromNaN(slow[i]), &lastSign))
	}

	return out
}

func orNaN(v optional.Option[float64]) float64 {
	if v.IsNone() {
		return math.NaN()
	}

	return v.Unwrap()
}

func fromNaN(v float64) optional.Option[float64] {
	if math.IsNaN(v) {
		return optional.None[float64]()
	}

	return optional.Some(v)
}
