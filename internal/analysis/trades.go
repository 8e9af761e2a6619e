package analysis

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/shopspring/decimal"
)

// SummarizeTrades computes trade statistics over closed trades only. A trade
// with a positive net pnl is a win; everything else counts as a loss.
func SummarizeTrades(trades []types.Trade) types.TradeSummary {
	summary := types.TradeSummary{
		NumberOfTrades: len(trades),
		ProfitFactor:   optional.None[float64](),
	}

	if len(trades) == 0 {
		return summary
	}

	grossWin := decimal.Zero
	grossLoss := decimal.Zero
	totalNet := decimal.Zero
	totalCommission := decimal.Zero
	barsHeld := 0

	for _, trade := range trades {
		net := decimal.NewFromFloat(trade.NetPnL)
		totalNet = totalNet.Add(net)
		totalCommission = totalCommission.Add(decimal.NewFromFloat(trade.Commission))
		barsHeld += trade.BarsHeld

		if trade.NetPnL > summary.MaxWin {
			summary.MaxWin = trade.NetPnL
		}

		if trade.NetPnL < summary.MaxLoss {
			summary.MaxLoss = trade.NetPnL
		}

		if trade.IsWin() {
			summary.NumberOfWinningTrades++
			grossWin = grossWin.Add(net)
		} else {
			summary.NumberOfLosingTrades++
			grossLoss = grossLoss.Add(net.Abs())
		}
	}

	summary.WinRate = float64(summary.NumberOfWinningTrades) / float64(len(trades))
	summary.TotalNetPnL = totalNet.InexactFloat64()
	summary.TotalCommission = totalCommission.InexactFloat64()
	summary.AverageBarsHeld = float64(barsHeld) / float64(len(trades))

	if summary.NumberOfWinningTrades > 0 {
		summary.AverageWin = grossWin.Div(decimal.NewFromInt(int64(summary.NumberOfWinningTrades))).InexactFloat64()
	}

	if summary.NumberOfLosingTrades > 0 {
		summary.AverageLoss = grossLoss.Neg().Div(decimal.NewFromInt(int64(summary.NumberOfLosingTrades))).InexactFloat64()
	}

	if grossLoss.IsPositive() {
		summary.ProfitFactor = optional.Some(grossWin.Div(grossLoss).InexactFloat64())
	}

	return summary
}

// Compare scores a strategy run against its baseline. The excess annualized
// return is None when either side's annualized return is undefined.
func Compare(strategy, baseline types.Result) types.ComparisonReport {
	report := types.ComparisonReport{
		Strategy:               strategy,
		Baseline:               baseline,
		ExcessAnnualizedReturn: optional.None[float64](),
		ExcessTotalReturn:      strategy.Metrics.TotalReturn - baseline.Metrics.TotalReturn,
	}

	s, b := strategy.Metrics.AnnualizedReturn, baseline.Metrics.AnnualizedReturn
	if s.IsSome() && b.IsSome() {
		report.ExcessAnnualizedReturn = optional.Some(s.Unwrap() - b.Unwrap())
	}

	return report
}
