package types

import (
	"fmt"
	"os"
	"time"

	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v3"
)

type TradeSummary struct {
	// Count of closed trades.
	NumberOfTrades int `yaml:"number_of_trades" json:"number_of_trades"`
	// Count of trades with positive net pnl.
	NumberOfWinningTrades int `yaml:"number_of_winning_trades" json:"number_of_winning_trades"`
	// Count of trades with zero or negative net pnl.
	NumberOfLosingTrades int `yaml:"number_of_losing_trades" json:"number_of_losing_trades"`
	// Won trades over all trades. 0 when there are no trades.
	WinRate float64 `yaml:"win_rate" json:"win_rate"`
	// Mean net pnl of winning trades.
	AverageWin float64 `yaml:"average_win" json:"average_win"`
	// Mean net pnl of losing trades, a non-positive number.
	AverageLoss float64 `yaml:"average_loss" json:"average_loss"`
	MaxWin      float64 `yaml:"max_win" json:"max_win"`
	MaxLoss     float64 `yaml:"max_loss" json:"max_loss"`
	// Gross won over gross lost; undefined with no losing trades.
	ProfitFactor    optional.Option[float64] `yaml:"-" json:"-"`
	TotalNetPnL     float64                  `yaml:"total_net_pnl" json:"total_net_pnl"`
	TotalCommission float64                  `yaml:"total_commission" json:"total_commission"`
	AverageBarsHeld float64                  `yaml:"average_bars_held" json:"average_bars_held"`
}

// PerformanceMetrics is derived from an equity curve and trade log and never mutated in place.
// Metrics that cannot be computed are None rather than a misleading zero.
type PerformanceMetrics struct {
	InitialEquity    float64
	FinalEquity      float64
	TotalReturn      float64
	AnnualizedReturn optional.Option[float64]
	MaxDrawdown      float64
	SharpeRatio      optional.Option[float64]
	Bars             int
	Trades           TradeSummary
}

type performanceMetricsYAML struct {
	InitialEquity    float64      `yaml:"initial_equity"`
	FinalEquity      float64      `yaml:"final_equity"`
	TotalReturn      float64      `yaml:"total_return"`
	AnnualizedReturn *float64     `yaml:"annualized_return"`
	MaxDrawdown      float64      `yaml:"max_drawdown"`
	SharpeRatio      *float64     `yaml:"sharpe_ratio"`
	Bars             int          `yaml:"bars"`
	Trades           TradeSummary `yaml:"trades"`
	ProfitFactor     *float64     `yaml:"profit_factor"`
}

// OptionPtr converts an optional value into a nil-able pointer for encoders.
func OptionPtr(o optional.Option[float64]) *float64 {
	if o.IsNone() {
		return nil
	}

	v := o.Unwrap()

	return &v
}

// MarshalYAML renders undefined metrics as null.
func (m PerformanceMetrics) MarshalYAML() (any, error) {
	return performanceMetricsYAML{
		InitialEquity:    m.InitialEquity,
		FinalEquity:      m.FinalEquity,
		TotalReturn:      m.TotalReturn,
		AnnualizedReturn: OptionPtr(m.AnnualizedReturn),
		MaxDrawdown:      m.MaxDrawdown,
		SharpeRatio:      OptionPtr(m.SharpeRatio),
		Bars:             m.Bars,
		Trades:           m.Trades,
		ProfitFactor:     OptionPtr(m.Trades.ProfitFactor),
	}, nil
}

// Result is everything a single run produces.
type Result struct {
	ID           string
	StrategyName string
	StartedAt    time.Time
	Metrics      PerformanceMetrics
	EquityCurve  EquityCurve
	Trades       []Trade
	Orders       []Order
	Marks        []Mark
}

// ComparisonReport scores a strategy run against its Buy&Hold baseline.
type ComparisonReport struct {
	Strategy Result
	Baseline Result
	// ExcessAnnualizedReturn is strategy minus baseline; None if either side is undefined.
	ExcessAnnualizedReturn optional.Option[float64]
	ExcessTotalReturn      float64
}

// RunStats is the on-disk summary of one run.
type RunStats struct {
	ID           string             `yaml:"id"`
	Timestamp    time.Time          `yaml:"timestamp"`
	StrategyName string             `yaml:"strategy_name"`
	Symbol       string             `yaml:"symbol"`
	Metrics      PerformanceMetrics `yaml:"metrics"`
}

// ComparisonStats is the on-disk summary of a strategy run and its baseline.
type ComparisonStats struct {
	Strategy               RunStats `yaml:"strategy"`
	Baseline               RunStats `yaml:"baseline"`
	ExcessAnnualizedReturn *float64 `yaml:"excess_annualized_return"`
	ExcessTotalReturn      float64  `yaml:"excess_total_return"`
}

func WriteComparisonStats(path string, stats ComparisonStats) error {
	data, err := yaml.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal comparison stats to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write comparison stats to file: %w", err)
	}

	return nil
}
