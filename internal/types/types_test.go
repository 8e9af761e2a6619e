package types

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type TypesTestSuite struct {
	suite.Suite
}

func TestTypesSuite(t *testing.T) {
	suite.Run(t, new(TypesTestSuite))
}

func (suite *TypesTestSuite) TestOrderTransitions() {
	tests := []struct {
		name        string
		path        []OrderStatus
		expectError bool
	}{
		{"submit then complete", []OrderStatus{OrderStatusSubmitted, OrderStatusCompleted}, false},
		{"submit then margin rejected", []OrderStatus{OrderStatusSubmitted, OrderStatusMarginRejected}, false},
		{"submit then cancel", []OrderStatus{OrderStatusSubmitted, OrderStatusCanceled}, false},
		{"complete without submit", []OrderStatus{OrderStatusCompleted}, true},
		{"leave completed", []OrderStatus{OrderStatusSubmitted, OrderStatusCompleted, OrderStatusCanceled}, true},
		{"leave canceled", []OrderStatus{OrderStatusCanceled, OrderStatusSubmitted}, true},
		{"leave margin rejected", []OrderStatus{OrderStatusSubmitted, OrderStatusMarginRejected, OrderStatusCompleted}, true},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			order := &Order{ID: "o-1", Status: OrderStatusCreated}

			var err error
			for _, next := range tc.path {
				if err = order.Transition(next); err != nil {
					break
				}
			}

			if tc.expectError {
				suite.Error(err)
				suite.True(errors.HasCode(err, errors.ErrCodeInvalidOrderTransition))
			} else {
				suite.NoError(err)
				suite.Equal(tc.path[len(tc.path)-1], order.Status)
			}
		})
	}
}

func (suite *TypesTestSuite) TestTerminalStatuses() {
	suite.False(OrderStatusCreated.IsTerminal())
	suite.False(OrderStatusSubmitted.IsTerminal())
	suite.True(OrderStatusCompleted.IsTerminal())
	suite.True(OrderStatusCanceled.IsTerminal())
	suite.True(OrderStatusMarginRejected.IsTerminal())
	suite.True(OrderStatusRejected.IsTerminal())
}

func (suite *TypesTestSuite) TestNewTrade() {
	trade := NewTrade(100, 110, 10, 2.1)
	suite.Equal(100.0, trade.GrossPnL)
	suite.InDelta(97.9, trade.NetPnL, 1e-12)
	suite.True(trade.IsWin())

	losing := NewTrade(100, 100.5, 2, 1.5)
	suite.Equal(1.0, losing.GrossPnL)
	suite.InDelta(-0.5, losing.NetPnL, 1e-12)
	suite.False(losing.IsWin())
}

func (suite *TypesTestSuite) TestPriceSource() {
	bar := Bar{Open: 1, High: 4, Low: 0.5, Close: 2, Volume: 1000}
	suite.Equal(2.0, PriceSourceClose.Value(bar))
	suite.Equal(1.0, PriceSourceOpen.Value(bar))
	suite.Equal(4.0, PriceSourceHigh.Value(bar))
	suite.Equal(0.5, PriceSourceLow.Value(bar))
	suite.Equal(1000.0, PriceSourceVolume.Value(bar))
	suite.Equal(2.0, PriceSource("").Value(bar))
}

func (suite *TypesTestSuite) TestEquityCurve() {
	curve := EquityCurve{{Equity: 100}, {Equity: 105}, {Equity: 99}}
	suite.Equal([]float64{100, 105, 99}, curve.Values())
	suite.Equal(99.0, curve.Final())
	suite.Equal(0.0, EquityCurve{}.Final())
}

func (suite *TypesTestSuite) TestMetricsYAMLRendersUndefinedAsNull() {
	metrics := PerformanceMetrics{
		InitialEquity:    100,
		FinalEquity:      100,
		AnnualizedReturn: optional.Some(0.25),
		SharpeRatio:      optional.None[float64](),
	}

	data, err := yaml.Marshal(metrics)
	suite.Require().NoError(err)

	var decoded map[string]any
	suite.Require().NoError(yaml.Unmarshal(data, &decoded))
	suite.Contains(decoded, "sharpe_ratio")
	suite.Nil(decoded["sharpe_ratio"])
	suite.Equal(0.25, decoded["annualized_return"])
}

func (suite *TypesTestSuite) TestWriteComparisonStats() {
	path := filepath.Join(suite.T().TempDir(), "stats.yaml")
	excess := 0.05
	err := WriteComparisonStats(path, ComparisonStats{
		Strategy:               RunStats{ID: "a", StrategyName: "crossover"},
		Baseline:               RunStats{ID: "b", StrategyName: "buy_and_hold"},
		ExcessAnnualizedReturn: &excess,
	})
	suite.Require().NoError(err)

	data, err := os.ReadFile(path)
	suite.Require().NoError(err)
	suite.Contains(string(data), "excess_annualized_return: 0.05")
	suite.Contains(string(data), "strategy_name: buy_and_hold")
}
