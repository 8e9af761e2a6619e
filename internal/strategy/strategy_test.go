package strategy

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/broker/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type StrategyTestSuite struct {
	suite.Suite
	now time.Time
}

func TestStrategySuite(t *testing.T) {
	suite.Run(t, new(StrategyTestSuite))
}

func (suite *StrategyTestSuite) SetupTest() {
	suite.now = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (suite *StrategyTestSuite) snapshot(values map[string]optional.Option[float64]) indicator.Snapshot {
	return indicator.NewSnapshot(0, suite.now, values)
}

func (suite *StrategyTestSuite) input(close float64, values map[string]optional.Option[float64]) Input {
	return Input{
		Bar:        types.Bar{Time: suite.now, Open: close, High: close, Low: close, Close: close, Volume: 1000},
		Index:      5,
		Total:      10,
		Indicators: suite.snapshot(values),
		Cash:       1000,
		Equity:     1000,
	}
}

func (suite *StrategyTestSuite) newCrossover() *CrossoverStrategy {
	fast, err := indicator.NewSMA(2)
	suite.Require().NoError(err)
	slow, err := indicator.NewSMA(3)
	suite.Require().NoError(err)

	s, err := NewCrossoverStrategy(fast, slow, FixedFractionSizer{Fraction: 0.5})
	suite.Require().NoError(err)

	return s
}

func (suite *StrategyTestSuite) TestCrossover() {
	s := suite.newCrossover()
	key := s.cross.Key()
	suite.Equal("crossover_sma_2_sma_3", key)
	suite.Len(s.Indicators(), 1)

	long := types.Position{Size: 7, AverageEntryPrice: 9}

	tests := []struct {
		name     string
		signal   optional.Option[float64]
		position types.Position
		pending  bool
		expected optional.Option[types.OrderIntent]
	}{
		{
			name:     "golden cross while flat buys",
			signal:   optional.Some(indicator.CrossUp),
			expected: optional.Some(types.OrderIntent{Side: types.OrderSideBuy, Size: 50, Reason: types.OrderReasonEntry}),
		},
		{
			name:     "golden cross while long holds",
			signal:   optional.Some(indicator.CrossUp),
			position: long,
			expected: optional.None[types.OrderIntent](),
		},
		{
			name:     "death cross while long sells everything",
			signal:   optional.Some(indicator.CrossDown),
			position: long,
			expected: optional.Some(types.OrderIntent{Side: types.OrderSideSell, Size: 7, Reason: types.OrderReasonExit}),
		},
		{
			name:     "death cross while flat holds",
			signal:   optional.Some(indicator.CrossDown),
			expected: optional.None[types.OrderIntent](),
		},
		{
			name:     "no cross holds",
			signal:   optional.Some(indicator.CrossNone),
			expected: optional.None[types.OrderIntent](),
		},
		{
			name:     "undefined signal holds",
			signal:   optional.None[float64](),
			expected: optional.None[types.OrderIntent](),
		},
		{
			name:     "outstanding order holds",
			signal:   optional.Some(indicator.CrossUp),
			pending:  true,
			expected: optional.None[types.OrderIntent](),
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			in := suite.input(10, map[string]optional.Option[float64]{key: tc.signal})
			in.Position = tc.position
			in.HasOutstandingOrder = tc.pending

			intent, err := s.Evaluate(in)
			suite.NoError(err)
			suite.Equal(tc.expected, intent)
		})
	}
}

func (suite *StrategyTestSuite) TestCrossoverMissingIndicator() {
	s := suite.newCrossover()

	_, err := s.Evaluate(suite.input(10, nil))
	suite.True(errors.HasCode(err, errors.ErrCodeStrategyRuntimeError))
}

func (suite *StrategyTestSuite) TestCrossoverRejectsSameLines() {
	fast, _ := indicator.NewEMA(5)
	slow, _ := indicator.NewEMA(5)

	_, err := NewCrossoverStrategy(fast, slow, FixedFractionSizer{Fraction: 1})
	suite.True(errors.HasCode(err, errors.ErrCodeStrategyConfigError))

	_, err = NewCrossoverStrategy(fast, nil, FixedFractionSizer{Fraction: 1})
	suite.True(errors.HasCode(err, errors.ErrCodeStrategyConfigError))
}

func (suite *StrategyTestSuite) newFiltered() *FilteredCrossoverStrategy {
	fast, _ := indicator.NewEMA(12)
	slow, _ := indicator.NewEMA(26)

	s, err := NewFilteredCrossoverStrategy(FilteredCrossoverParams{
		Fast:           fast,
		Slow:           slow,
		RSIPeriod:      14,
		RSIThreshold:   50,
		VolumePeriod:   20,
		ATRPeriod:      14,
		StopMultiplier: 2,
		Sizer:          FixedFractionSizer{Fraction: 1},
	})
	suite.Require().NoError(err)

	return s
}

func filteredValues(s *FilteredCrossoverStrategy, cross, rsi, volume, atr float64) map[string]optional.Option[float64] {
	return map[string]optional.Option[float64]{
		s.cross.Key():  optional.Some(cross),
		s.rsi.Key():    optional.Some(rsi),
		s.volume.Key(): optional.Some(volume),
		s.atr.Key():    optional.Some(atr),
	}
}

func (suite *StrategyTestSuite) TestFilteredCrossoverEntryFilters() {
	tests := []struct {
		name   string
		cross  float64
		rsi    float64
		volume float64
		buys   bool
	}{
		{"all confirmations", indicator.CrossUp, 60, 500, true},
		{"rsi at threshold", indicator.CrossUp, 50, 500, false},
		{"rsi below threshold", indicator.CrossUp, 40, 500, false},
		{"volume at average", indicator.CrossUp, 60, 1000, false},
		{"no cross", indicator.CrossNone, 60, 500, false},
		{"death cross", indicator.CrossDown, 60, 500, false},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			s := suite.newFiltered()

			intent, err := s.Evaluate(suite.input(100, filteredValues(s, tc.cross, tc.rsi, tc.volume, 2)))
			suite.Require().NoError(err)
			suite.Equal(tc.buys, intent.IsSome())

			if tc.buys {
				suite.Equal(types.OrderSideBuy, intent.Unwrap().Side)
				suite.Equal(10.0, intent.Unwrap().Size)
			}
		})
	}
}

func (suite *StrategyTestSuite) TestFilteredCrossoverUndefinedInputsHold() {
	s := suite.newFiltered()
	values := filteredValues(s, indicator.CrossUp, 60, 500, 2)
	values[s.rsi.Key()] = optional.None[float64]()

	intent, err := s.Evaluate(suite.input(100, values))
	suite.NoError(err)
	suite.True(intent.IsNone())

	values = filteredValues(s, indicator.CrossUp, 60, 500, 2)
	values[s.atr.Key()] = optional.None[float64]()

	intent, err = s.Evaluate(suite.input(100, values))
	suite.NoError(err)
	suite.True(intent.IsNone())
}

func (suite *StrategyTestSuite) TestFilteredCrossoverStopLoss() {
	s := suite.newFiltered()

	intent, err := s.Evaluate(suite.input(100, filteredValues(s, indicator.CrossUp, 60, 500, 2)))
	suite.Require().NoError(err)
	suite.Require().True(intent.IsSome())
	suite.True(s.StopPrice().IsNone())

	long := types.Position{Size: 10, AverageEntryPrice: 100}

	in := suite.input(97, filteredValues(s, indicator.CrossNone, 45, 500, 5))
	in.Position = long
	intent, err = s.Evaluate(in)
	suite.Require().NoError(err)
	suite.True(intent.IsNone())
	suite.Equal(optional.Some(96.0), s.StopPrice())

	// stop stays where it was armed even when ATR moves
	in = suite.input(95.5, map[string]optional.Option[float64]{
		s.cross.Key():  optional.None[float64](),
		s.rsi.Key():    optional.None[float64](),
		s.volume.Key(): optional.None[float64](),
		s.atr.Key():    optional.Some(10.0),
	})
	in.Position = long
	intent, err = s.Evaluate(in)
	suite.Require().NoError(err)
	suite.Require().True(intent.IsSome())
	suite.Equal(types.OrderIntent{Side: types.OrderSideSell, Size: 10, Reason: types.OrderReasonStopLoss}, intent.Unwrap())

	in = suite.input(95.5, filteredValues(s, indicator.CrossNone, 45, 500, 5))
	_, err = s.Evaluate(in)
	suite.Require().NoError(err)
	suite.True(s.StopPrice().IsNone(), "stop is cleared once flat")
}

func (suite *StrategyTestSuite) TestFilteredCrossoverExit() {
	s := suite.newFiltered()
	long := types.Position{Size: 4, AverageEntryPrice: 100}

	tests := []struct {
		name  string
		rsi   float64
		vol   float64
		sells bool
	}{
		{"confirmed death cross", 40, 500, true},
		{"rsi still strong", 55, 500, false},
		{"volume too low", 40, 2000, false},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			in := suite.input(110, filteredValues(s, indicator.CrossDown, tc.rsi, tc.vol, 2))
			in.Position = long

			intent, err := s.Evaluate(in)
			suite.Require().NoError(err)
			suite.Equal(tc.sells, intent.IsSome())

			if tc.sells {
				suite.Equal(types.OrderIntent{Side: types.OrderSideSell, Size: 4, Reason: types.OrderReasonExit}, intent.Unwrap())
			}
		})
	}
}

func (suite *StrategyTestSuite) TestBuyAndHold() {
	s, err := NewBuyAndHoldStrategy(0.95)
	suite.Require().NoError(err)
	suite.Empty(s.Indicators())

	in := suite.input(100, nil)
	in.Index = 0
	in.Cash = 10000

	intent, err := s.Evaluate(in)
	suite.Require().NoError(err)
	suite.Equal(types.OrderIntent{Side: types.OrderSideBuy, Size: 95, Reason: types.OrderReasonEntry}, intent.Unwrap())

	in.Index = 4
	in.Position = types.Position{Size: 95, AverageEntryPrice: 100}
	intent, _ = s.Evaluate(in)
	suite.True(intent.IsNone())

	in.Index = 9
	suite.True(in.IsLastBar())
	intent, _ = s.Evaluate(in)
	suite.Equal(types.OrderIntent{Side: types.OrderSideSell, Size: 95, Reason: types.OrderReasonFinalBar}, intent.Unwrap())

	in.HasOutstandingOrder = true
	intent, _ = s.Evaluate(in)
	suite.True(intent.IsNone())

	single := suite.input(100, nil)
	single.Index = 0
	single.Total = 1
	single.Cash = 10000
	intent, err = s.Evaluate(single)
	suite.Require().NoError(err)
	suite.True(intent.IsNone(), "a single bar feed stays flat")

	_, err = NewBuyAndHoldStrategy(0)
	suite.True(errors.HasCode(err, errors.ErrCodeStrategyConfigError))
	_, err = NewBuyAndHoldStrategy(1.5)
	suite.True(errors.HasCode(err, errors.ErrCodeStrategyConfigError))
}

func (suite *StrategyTestSuite) TestFixedFractionSizer() {
	in := suite.input(100, nil)
	in.Cash = 10000

	suite.Equal(50.0, FixedFractionSizer{Fraction: 0.5}.Size(in))

	fee := commission_fee.NewPercentageCommissionFee(0.001)
	size := FixedFractionSizer{Fraction: 1, Fee: fee}.Size(in)
	suite.Less(size, 100.0)
	suite.LessOrEqual(size*100+fee.Calculate(100, size), 10000.0)
	suite.InDelta(10000/100.1, size, 1e-9)

	suite.Equal(33.33, FixedFractionSizer{Fraction: 1.0 / 3, Precision: optional.Some(2)}.Size(in))
	suite.Equal(0.0, FixedFractionSizer{Fraction: 0}.Size(in))
}

func (suite *StrategyTestSuite) TestRiskSizer() {
	sizer := RiskSizer{RiskRatio: 0.02, StopMultiplier: 2, MaxFraction: 0.5, MinSize: 0.001, ATRKey: "atr_14"}

	tests := []struct {
		name     string
		atr      optional.Option[float64]
		expected float64
	}{
		{"risk based", optional.Some(5.0), 20},
		{"capped by max fraction", optional.Some(0.1), 50},
		{"undefined atr does not trade", optional.None[float64](), 0},
		{"zero atr falls back to min size", optional.Some(0.0), 0.001},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			in := suite.input(100, map[string]optional.Option[float64]{"atr_14": tc.atr})
			in.Equity = 10000

			suite.InDelta(tc.expected, sizer.Size(in), 1e-12)
		})
	}

	sizer.MinSize = 80
	in := suite.input(100, map[string]optional.Option[float64]{"atr_14": optional.Some(5.0)})
	in.Equity = 10000
	suite.Equal(50.0, sizer.Size(in), "max fraction wins over the floor")
}

func (suite *StrategyTestSuite) TestNew() {
	two := 2

	tests := []struct {
		name       string
		config     Config
		code       errors.ErrorCode
		indicators int
	}{
		{name: "missing name", config: Config{}, code: errors.ErrCodeMissingParameter},
		{name: "unknown name", config: Config{Name: "mean_reversion"}, code: errors.ErrCodeUnsupportedStrategy},
		{name: "default crossover", config: Config{Name: StrategyTypeCrossover}, indicators: 1},
		{
			name:       "mixed crossover with risk sizing",
			config:     Config{Name: StrategyTypeCrossover, Fast: MovingAverageConfig{Type: "sma", Period: 5}, Slow: MovingAverageConfig{Type: "ema", Period: 20}, Sizing: SizingConfig{Mode: SizingModeRisk, DecimalPrecision: &two}},
			indicators: 2,
		},
		{name: "filtered crossover", config: Config{Name: StrategyTypeFilteredCrossover}, indicators: 4},
		{name: "buy and hold", config: Config{Name: StrategyTypeBuyAndHold, PositionFraction: ptr(1.0)}, indicators: 0},
		{name: "bad line type", config: Config{Name: StrategyTypeCrossover, Fast: MovingAverageConfig{Type: "wma"}}, code: errors.ErrCodeStrategyConfigError},
		{name: "bad threshold", config: Config{Name: StrategyTypeFilteredCrossover, RSIThreshold: ptr(150.0)}, code: errors.ErrCodeStrategyConfigError},
		{name: "bad fraction", config: Config{Name: StrategyTypeBuyAndHold, PositionFraction: ptr(1.5)}, code: errors.ErrCodeStrategyConfigError},
		{name: "zero fraction", config: Config{Name: StrategyTypeBuyAndHold, PositionFraction: ptr(0.0)}, code: errors.ErrCodeStrategyConfigError},
		{name: "zero sizing fraction", config: Config{Name: StrategyTypeCrossover, Sizing: SizingConfig{Fraction: ptr(0.0)}}, code: errors.ErrCodeStrategyConfigError},
		{name: "bad sizing mode", config: Config{Name: StrategyTypeCrossover, Sizing: SizingConfig{Mode: "kelly"}}, code: errors.ErrCodeStrategyConfigError},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			s, err := New(tc.config, commission_fee.NewZeroCommissionFee())
			if tc.code != 0 {
				suite.Error(err)
				suite.True(errors.HasCode(err, tc.code), "got %v", err)

				return
			}

			suite.Require().NoError(err)
			suite.Len(s.Indicators(), tc.indicators)
		})
	}
}

func (suite *StrategyTestSuite) TestWithDefaultsKeepsExplicitZero() {
	config := Config{Name: StrategyTypeFilteredCrossover, RSIThreshold: ptr(0.0)}.WithDefaults()
	suite.Equal(0.0, *config.RSIThreshold)
	suite.Equal(DefaultPositionFraction, *config.PositionFraction)
	suite.Equal(DefaultPositionFraction, *config.Sizing.Fraction)

	s, err := New(Config{Name: StrategyTypeFilteredCrossover, RSIThreshold: ptr(0.0)}, nil)
	suite.Require().NoError(err)

	filtered, ok := s.(*FilteredCrossoverStrategy)
	suite.Require().True(ok)
	suite.Equal(0.0, filtered.threshold)

	defaulted := Config{Name: StrategyTypeFilteredCrossover}.WithDefaults()
	suite.Equal(50.0, *defaulted.RSIThreshold)
}

func (suite *StrategyTestSuite) TestNewWiresRiskSizerToStrategyATR() {
	s, err := New(Config{Name: StrategyTypeFilteredCrossover, ATRPeriod: 10, Sizing: SizingConfig{Mode: SizingModeRisk}}, nil)
	suite.Require().NoError(err)

	filtered, ok := s.(*FilteredCrossoverStrategy)
	suite.Require().True(ok)

	sizer, ok := filtered.sizer.(RiskSizer)
	suite.Require().True(ok)
	suite.Equal("atr_10", sizer.ATRKey)
	suite.Equal(2.0, sizer.StopMultiplier)
	suite.Equal("filtered_crossover(ema_12,ema_26)", s.Name())
}
