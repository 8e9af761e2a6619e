package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Faint(true)
)

const undefined = "n/a"

type summaryRow struct {
	label    string
	strategy string
	baseline string
}

// Summary renders the comparison as a small terminal table.
func Summary(report types.ComparisonReport) string {
	s, b := report.Strategy.Metrics, report.Baseline.Metrics

	rows := []summaryRow{
		{"initial equity", formatMoney(s.InitialEquity), formatMoney(b.InitialEquity)},
		{"final equity", formatMoney(s.FinalEquity), formatMoney(b.FinalEquity)},
		{"total return", formatPercent(s.TotalReturn), formatPercent(b.TotalReturn)},
		{"annualized return", formatOptionalPercent(s.AnnualizedReturn), formatOptionalPercent(b.AnnualizedReturn)},
		{"max drawdown", formatPercent(s.MaxDrawdown), formatPercent(b.MaxDrawdown)},
		{"sharpe ratio", formatOptional(s.SharpeRatio), formatOptional(b.SharpeRatio)},
		{"trades", fmt.Sprint(s.Trades.NumberOfTrades), fmt.Sprint(b.Trades.NumberOfTrades)},
		{"win rate", formatPercent(s.Trades.WinRate), formatPercent(b.Trades.WinRate)},
		{"profit factor", formatOptional(s.Trades.ProfitFactor), formatOptional(b.Trades.ProfitFactor)},
		{"commission", formatMoney(s.Trades.TotalCommission), formatMoney(b.Trades.TotalCommission)},
	}

	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("%-20s %16s %16s", "", report.Strategy.StrategyName, report.Baseline.StrategyName)))
	sb.WriteString("\n")

	for _, r := range rows {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("%-20s", r.label)))
		sb.WriteString(fmt.Sprintf(" %16s %16s\n", r.strategy, r.baseline))
	}

	sb.WriteString(titleStyle.Render(fmt.Sprintf("%-20s", "excess return")))
	sb.WriteString(fmt.Sprintf(" %16s\n", formatPercent(report.ExcessTotalReturn)))
	sb.WriteString(titleStyle.Render(fmt.Sprintf("%-20s", "excess annualized")))
	sb.WriteString(fmt.Sprintf(" %16s\n", formatOptionalPercent(report.ExcessAnnualizedReturn)))

	return sb.String()
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

func formatMoney(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func formatOptional(v optional.Option[float64]) string {
	if v.IsNone() {
		return undefined
	}

	return fmt.Sprintf("%.4f", v.Unwrap())
}

func formatOptionalPercent(v optional.Option[float64]) string {
	if v.IsNone() {
		return undefined
	}

	return formatPercent(v.Unwrap())
}
