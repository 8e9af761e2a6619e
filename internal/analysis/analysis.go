package analysis

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"gonum.org/v1/gonum/stat"
)

// DefaultBarsPerYear assumes daily equity bars.
const DefaultBarsPerYear = 252

// zeroVariance is the return deviation below which the Sharpe ratio is undefined.
const zeroVariance = 1e-12

type Options struct {
	// InitialCash is the equity before the first bar. Returns, drawdown and
	// total return are measured from it, so costs paid on the first bar count.
	// Zero measures from the first curve point.
	InitialCash float64
	// RiskFreeRate is annual and compounded down to one bar.
	RiskFreeRate float64
	BarsPerYear  int
}

// Analyze derives performance metrics from a finished run. It is pure: the
// same curve and trades always give the same metrics. Metrics that cannot be
// computed are None.
func Analyze(curve types.EquityCurve, trades []types.Trade, opts Options) types.PerformanceMetrics {
	if opts.BarsPerYear <= 0 {
		opts.BarsPerYear = DefaultBarsPerYear
	}

	metrics := types.PerformanceMetrics{
		Bars:             len(curve),
		AnnualizedReturn: optional.None[float64](),
		SharpeRatio:      optional.None[float64](),
		Trades:           SummarizeTrades(trades),
	}

	if len(curve) == 0 {
		return metrics
	}

	equity := curve.Values()
	if opts.InitialCash > 0 {
		equity = append([]float64{opts.InitialCash}, equity...)
	}

	metrics.InitialEquity = equity[0]
	metrics.FinalEquity = equity[len(equity)-1]
	metrics.MaxDrawdown = MaxDrawdown(equity)

	if metrics.InitialEquity > 0 {
		metrics.TotalReturn = (metrics.FinalEquity - metrics.InitialEquity) / metrics.InitialEquity
	}

	returns := Returns(equity)
	if len(curve) >= 2 {
		metrics.AnnualizedReturn = AnnualizedReturn(metrics.TotalReturn, len(returns), opts.BarsPerYear)
	}

	metrics.SharpeRatio = SharpeRatio(returns, opts.RiskFreeRate, opts.BarsPerYear)

	return metrics
}

// Returns gives the per-bar simple returns e[t]/e[t-1] - 1. A bar following
// non-positive equity has no defined return and is skipped.
func Returns(equity []float64) []float64 {
	if len(equity) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1] <= 0 {
			continue
		}

		returns = append(returns, equity[i]/equity[i-1]-1)
	}

	return returns
}

// SharpeRatio is mean(r - rf) / std(r) * sqrt(barsPerYear), where rf is the
// per-bar equivalent of the annual risk-free rate and std is the sample
// deviation. It is None with fewer than two returns or no variance.
func SharpeRatio(returns []float64, riskFreeRate float64, barsPerYear int) optional.Option[float64] {
	if len(returns) < 2 || barsPerYear <= 0 {
		return optional.None[float64]()
	}

	mean, std := stat.MeanStdDev(returns, nil)
	if math.IsNaN(std) || std <= zeroVariance {
		return optional.None[float64]()
	}

	perBar := math.Pow(1+riskFreeRate, 1/float64(barsPerYear)) - 1

	return optional.Some((mean - perBar) / std * math.Sqrt(float64(barsPerYear)))
}

// AnnualizedReturn compounds totalReturn earned over periods bars to one year.
func AnnualizedReturn(totalReturn float64, periods, barsPerYear int) optional.Option[float64] {
	if periods < 1 || barsPerYear <= 0 || totalReturn <= -1 {
		return optional.None[float64]()
	}

	return optional.Some(math.Pow(1+totalReturn, float64(barsPerYear)/float64(periods)) - 1)
}

// MaxDrawdown is the largest (peak - e) / peak over the running peak, in [0, 1].
func MaxDrawdown(equity []float64) float64 {
	var peak, drawdown float64

	for i, e := range equity {
		if i == 0 || e > peak {
			peak = e
		}

		if peak <= 0 {
			continue
		}

		drawdown = max(drawdown, (peak-e)/peak)
	}

	return drawdown
}
