package backtest

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/broker"
	"github.com/rxtech-lab/argo-backtest/internal/broker/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/feed"
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/marker"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/mocks"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type BacktestTestSuite struct {
	suite.Suite
	ctrl  *gomock.Controller
	start time.Time
}

func TestBacktestSuite(t *testing.T) {
	suite.Run(t, new(BacktestTestSuite))
}

func (suite *BacktestTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

// feedOf builds daily bars whose open equals the previous close.
func (suite *BacktestTestSuite) feedOf(closes ...float64) *feed.Feed {
	bars := make([]types.Bar, len(closes))
	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}

		bars[i] = types.Bar{
			Symbol: "TEST",
			Time:   suite.start.Add(time.Duration(i) * 24 * time.Hour),
			Open:   open,
			High:   max(open, c),
			Low:    min(open, c),
			Close:  c,
			Volume: 1000,
		}
	}

	f, err := feed.New(bars)
	suite.Require().NoError(err)

	return f
}

func (suite *BacktestTestSuite) backtester(config Config) *Backtester {
	b, err := New(config, nil)
	suite.Require().NoError(err)

	return b
}

func (suite *BacktestTestSuite) mockStrategy(name string, indicators ...indicator.Indicator) *mocks.MockStrategy {
	s := mocks.NewMockStrategy(suite.ctrl)
	s.EXPECT().Name().Return(name).AnyTimes()
	s.EXPECT().Indicators().Return(indicators).AnyTimes()

	return s
}

func fraction(v float64) *float64 {
	return &v
}

func buy(size float64) optional.Option[types.OrderIntent] {
	return optional.Some(types.OrderIntent{Side: types.OrderSideBuy, Size: size, Reason: types.OrderReasonEntry})
}

func (suite *BacktestTestSuite) TestNewRejectsInvalidConfig() {
	_, err := New(Config{}, nil)
	suite.Error(err)
	suite.Equal(errors.ErrCodeInvalidConfiguration, errors.GetCode(err))

	config := TestConfig()
	config.FillPolicy = "whenever"
	_, err = New(config, nil)
	suite.Error(err)
	suite.Equal(errors.ErrCodeInvalidConfiguration, errors.GetCode(err))
}

func (suite *BacktestTestSuite) TestRunRequiresStrategyAndFeed() {
	b := suite.backtester(TestConfig())

	_, err := b.Run(context.Background(), suite.feedOf(100), nil, LifecycleCallbacks{})
	suite.Equal(errors.ErrCodeBacktestNoStrategy, errors.GetCode(err))

	_, err = b.Run(context.Background(), nil, suite.mockStrategy("noop"), LifecycleCallbacks{})
	suite.Equal(errors.ErrCodeNoDataFound, errors.GetCode(err))
}

func (suite *BacktestTestSuite) TestBuyAndHoldLosesTenPercent() {
	config := TestConfig()
	config.Baseline.PositionFraction = fraction(1)

	s, err := strategy.NewBuyAndHoldStrategy(1)
	suite.Require().NoError(err)

	result, err := suite.backtester(config).Run(context.Background(), suite.feedOf(100, 110, 90), s, LifecycleCallbacks{})
	suite.Require().NoError(err)

	suite.Equal(-0.1, result.Metrics.TotalReturn)
	suite.Equal(10000.0, result.Metrics.InitialEquity)
	suite.Equal(9000.0, result.Metrics.FinalEquity)
	suite.Equal([]float64{10000, 11000, 9000}, result.EquityCurve.Values())
	suite.InDelta(2000.0/11000.0, result.Metrics.MaxDrawdown, 1e-12)

	suite.Require().Len(result.Trades, 1)
	suite.Equal(100.0, result.Trades[0].Size)
	suite.Equal(-1000.0, result.Trades[0].NetPnL)
	suite.Equal(2, result.Trades[0].BarsHeld)

	suite.Len(result.Orders, 2)
	suite.Len(result.Marks, 2)
	suite.Equal("buy_and_hold", result.StrategyName)
	suite.NotEmpty(result.ID)
}

func (suite *BacktestTestSuite) TestBuyAndHoldKeepsUnusedCash() {
	s, err := strategy.NewBuyAndHoldStrategy(0.95)
	suite.Require().NoError(err)

	result, err := suite.backtester(TestConfig()).Run(context.Background(), suite.feedOf(100, 110, 90), s, LifecycleCallbacks{})
	suite.Require().NoError(err)

	suite.InDelta(-0.095, result.Metrics.TotalReturn, 1e-9)
	suite.InDelta(9050.0, result.Metrics.FinalEquity, 1e-9)

	suite.Require().Len(result.EquityCurve, 3)
	for _, point := range result.EquityCurve[:2] {
		suite.InDelta(500.0, point.Cash, 1e-9)
		suite.InDelta(95.0, point.PositionSize, 1e-9)
	}
	suite.InDelta(10950.0, result.EquityCurve[1].Equity, 1e-9)

	suite.Require().Len(result.Trades, 1)
	suite.InDelta(-950.0, result.Trades[0].NetPnL, 1e-9)
}

func (suite *BacktestTestSuite) TestReturnsMeasuredFromInitialCash() {
	config := TestConfig()
	config.Broker = commission_fee.BrokerPercentage
	config.CommissionRate = 0.001

	s, err := strategy.NewBuyAndHoldStrategy(0.95)
	suite.Require().NoError(err)

	result, err := suite.backtester(config).Run(context.Background(), suite.feedOf(100, 100, 100), s, LifecycleCallbacks{})
	suite.Require().NoError(err)

	// 9.5 commission on the entry and 9.5 on the exit
	suite.InDelta(9990.5, result.EquityCurve[0].Equity, 1e-9)
	suite.Equal(10000.0, result.Metrics.InitialEquity)
	suite.InDelta(9981.0, result.Metrics.FinalEquity, 1e-9)
	suite.InDelta(-0.0019, result.Metrics.TotalReturn, 1e-12)
	suite.InDelta(1-9981.0/10000, result.Metrics.MaxDrawdown, 1e-12)

	// the first bar's commission is part of the return series
	suite.Require().True(result.Metrics.SharpeRatio.IsSome())
	suite.Less(result.Metrics.SharpeRatio.Unwrap(), 0.0)
	suite.Require().True(result.Metrics.AnnualizedReturn.IsSome())
	suite.InDelta(math.Pow(1-0.0019, 252.0/3)-1, result.Metrics.AnnualizedReturn.Unwrap(), 1e-9)
}

func (suite *BacktestTestSuite) TestBuyAndHoldSingleBarStaysFlat() {
	s, err := strategy.NewBuyAndHoldStrategy(0.95)
	suite.Require().NoError(err)

	result, err := suite.backtester(TestConfig()).Run(context.Background(), suite.feedOf(100), s, LifecycleCallbacks{})
	suite.Require().NoError(err)

	suite.Empty(result.Orders)
	suite.Empty(result.Trades)
	suite.Equal(0.0, result.Metrics.TotalReturn)
	suite.Equal(10000.0, result.Metrics.FinalEquity)
	suite.True(result.Metrics.AnnualizedReturn.IsNone())
}

func (suite *BacktestTestSuite) TestEquityRecordedOnIdleBars() {
	s := suite.mockStrategy("idle")
	s.EXPECT().Evaluate(gomock.Any()).Return(optional.None[types.OrderIntent](), nil).Times(4)

	result, err := suite.backtester(TestConfig()).Run(context.Background(), suite.feedOf(10, 11, 12, 13), s, LifecycleCallbacks{})
	suite.Require().NoError(err)

	suite.Len(result.EquityCurve, 4)
	suite.Equal(4, result.Metrics.Bars)
	suite.Equal(0.0, result.Metrics.TotalReturn)
	suite.True(result.Metrics.SharpeRatio.IsNone())
	suite.Empty(result.Orders)
	suite.Empty(result.Marks)
}

func (suite *BacktestTestSuite) TestIndicatorsAdvanceBeforeEvaluate() {
	f := suite.feedOf(10, 11, 12)

	ind := mocks.NewMockIndicator(suite.ctrl)
	ind.EXPECT().Key().Return("mock").AnyTimes()
	ind.EXPECT().Values().Return(map[string]optional.Option[float64]{"mock": optional.Some(1.0)}).AnyTimes()

	s := suite.mockStrategy("ordered", ind)

	calls := []any{ind.EXPECT().Reset()}
	for i, bar := range f.All() {
		calls = append(calls,
			ind.EXPECT().Update(bar),
			s.EXPECT().Evaluate(gomock.Any()).DoAndReturn(func(in strategy.Input) (optional.Option[types.OrderIntent], error) {
				suite.Equal(i, in.Index)
				suite.Equal(3, in.Total)
				suite.Equal(bar, in.Bar)
				suite.Equal(i, in.Indicators.Index())
				suite.Equal(optional.Some(1.0), in.Indicators.Current("mock"))

				return optional.None[types.OrderIntent](), nil
			}),
		)
	}

	gomock.InOrder(calls...)

	_, err := suite.backtester(TestConfig()).Run(context.Background(), f, s, LifecycleCallbacks{})
	suite.NoError(err)
}

func (suite *BacktestTestSuite) TestStrategySeesBrokerState() {
	s := suite.mockStrategy("state")

	gomock.InOrder(
		s.EXPECT().Evaluate(gomock.Any()).DoAndReturn(func(in strategy.Input) (optional.Option[types.OrderIntent], error) {
			suite.Equal(10000.0, in.Cash)
			suite.True(in.Position.IsFlat())

			return buy(50), nil
		}),
		s.EXPECT().Evaluate(gomock.Any()).DoAndReturn(func(in strategy.Input) (optional.Option[types.OrderIntent], error) {
			suite.Equal(5000.0, in.Cash)
			suite.Equal(50.0, in.Position.Size)
			suite.Equal(100.0, in.Position.AverageEntryPrice)
			suite.Equal(5000.0+50*120, in.Equity)
			suite.False(in.HasOutstandingOrder)

			return optional.None[types.OrderIntent](), nil
		}),
	)

	result, err := suite.backtester(TestConfig()).Run(context.Background(), suite.feedOf(100, 120), s, LifecycleCallbacks{})
	suite.Require().NoError(err)
	suite.Equal(11000.0, result.Metrics.FinalEquity)
	suite.Empty(result.Trades)
}

func (suite *BacktestTestSuite) TestOneOrderPerBarUnderNextBarOpen() {
	config := TestConfig()
	config.FillPolicy = broker.FillPolicyNextBarOpen

	s := suite.mockStrategy("eager")
	s.EXPECT().Evaluate(gomock.Any()).DoAndReturn(func(in strategy.Input) (optional.Option[types.OrderIntent], error) {
		suite.False(in.HasOutstandingOrder)

		return buy(1), nil
	}).Times(3)

	result, err := suite.backtester(config).Run(context.Background(), suite.feedOf(10, 11, 12), s, LifecycleCallbacks{})
	suite.Require().NoError(err)

	suite.Require().Len(result.Orders, 3)

	submitted := map[int]int{}
	for _, o := range result.Orders {
		submitted[o.SubmittedBarIndex]++
	}

	suite.Equal(map[int]int{0: 1, 1: 1, 2: 1}, submitted)

	suite.Equal(types.OrderStatusCompleted, result.Orders[0].Status)
	suite.Equal(1, result.Orders[0].ExecutedBarIndex)
	suite.Equal(10.0, result.Orders[0].ExecutedPrice)

	suite.Equal(types.OrderStatusCompleted, result.Orders[1].Status)
	suite.Equal(2, result.Orders[1].ExecutedBarIndex)
	suite.Equal(11.0, result.Orders[1].ExecutedPrice)

	suite.Equal(types.OrderStatusCanceled, result.Orders[2].Status)
	suite.Equal(types.OrderReasonEndOfData, result.Orders[2].StatusReason)

	suite.Equal(2.0, result.EquityCurve[2].PositionSize)
	suite.Len(result.Marks, 6)
}

func (suite *BacktestTestSuite) TestSecondSignalIgnoredWhileOrderOutstanding() {
	s := suite.mockStrategy("gated")

	// The simulator keeps the first order pending, so a strategy that does not
	// gate itself still cannot submit twice.
	sim, err := broker.NewSimulator(broker.Config{InitialCash: 1000, FillPolicy: broker.FillPolicyNextBarOpen}, nil, nil)
	suite.Require().NoError(err)

	bar := suite.feedOf(10).First()

	s.EXPECT().Evaluate(gomock.Any()).Return(buy(1), nil).Times(2)

	first, _ := s.Evaluate(strategy.Input{Bar: bar})
	second, _ := s.Evaluate(strategy.Input{Bar: bar, HasOutstandingOrder: true})

	suite.Equal(types.OrderStatusSubmitted, sim.Submit(first.Unwrap(), bar, 0).Status())

	ignored := sim.Submit(second.Unwrap(), bar, 0)
	suite.Equal(types.OrderStatusCanceled, ignored.Status())
	suite.Equal(types.OrderReasonOutstanding, ignored.Order.StatusReason)
	suite.Equal(errors.ErrCodeOrderOutstanding, errors.GetCode(ignored.Err))
	suite.True(sim.HasOutstandingOrder())
	suite.Equal(1000.0, sim.Cash())
}

func (suite *BacktestTestSuite) TestStrategyErrorAbortsRun() {
	s := suite.mockStrategy("broken")
	s.EXPECT().Evaluate(gomock.Any()).Return(optional.None[types.OrderIntent](), fmt.Errorf("boom"))

	var ended atomic.Bool
	onEnd := OnRunEndCallback(func(runID, name string, result *types.Result, err error) {
		ended.Store(true)
		suite.Nil(result)
		suite.Equal(errors.ErrCodeStrategyRuntimeError, errors.GetCode(err))
	})

	_, err := suite.backtester(TestConfig()).Run(context.Background(), suite.feedOf(10, 11), s, LifecycleCallbacks{OnRunEnd: &onEnd})
	suite.Equal(errors.ErrCodeStrategyRuntimeError, errors.GetCode(err))
	suite.True(ended.Load())
}

func (suite *BacktestTestSuite) TestCanceledContext() {
	s := suite.mockStrategy("canceled")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := suite.backtester(TestConfig()).Run(ctx, suite.feedOf(10, 11), s, LifecycleCallbacks{})
	suite.Equal(errors.ErrCodeBacktestCanceled, errors.GetCode(err))
	suite.ErrorIs(err, context.Canceled)
}

func (suite *BacktestTestSuite) TestCallbacks() {
	s := suite.mockStrategy("observed")
	s.EXPECT().Evaluate(gomock.Any()).Return(optional.None[types.OrderIntent](), nil).Times(3)

	var (
		startedWith int
		progress    []int
		endedID     string
	)

	onStart := OnRunStartCallback(func(runID, name string, total int) error {
		suite.Equal("observed", name)
		startedWith = total

		return nil
	})
	onData := OnProcessDataCallback(func(current, total int) error {
		suite.Equal(3, total)
		progress = append(progress, current)

		return nil
	})
	onEnd := OnRunEndCallback(func(runID, name string, result *types.Result, err error) {
		suite.NoError(err)
		suite.Require().NotNil(result)
		suite.Equal(runID, result.ID)
		endedID = runID
	})

	result, err := suite.backtester(TestConfig()).Run(context.Background(), suite.feedOf(10, 11, 12), s, LifecycleCallbacks{
		OnRunStart:    &onStart,
		OnProcessData: &onData,
		OnRunEnd:      &onEnd,
	})
	suite.Require().NoError(err)

	suite.Equal(3, startedWith)
	suite.Equal([]int{1, 2, 3}, progress)
	suite.Equal(result.ID, endedID)
}

func (suite *BacktestTestSuite) TestCallbackErrorAbortsRun() {
	testCases := []struct {
		name      string
		callbacks func() LifecycleCallbacks
		evaluated int
	}{
		{
			name: "run start",
			callbacks: func() LifecycleCallbacks {
				cb := OnRunStartCallback(func(string, string, int) error { return fmt.Errorf("stop") })

				return LifecycleCallbacks{OnRunStart: &cb}
			},
			evaluated: 0,
		},
		{
			name: "process data",
			callbacks: func() LifecycleCallbacks {
				cb := OnProcessDataCallback(func(current, _ int) error {
					if current == 2 {
						return fmt.Errorf("stop")
					}

					return nil
				})

				return LifecycleCallbacks{OnProcessData: &cb}
			},
			evaluated: 2,
		},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			s := mocks.NewMockStrategy(suite.ctrl)
			s.EXPECT().Name().Return("aborted").AnyTimes()
			s.EXPECT().Indicators().Return(nil).AnyTimes()
			s.EXPECT().Evaluate(gomock.Any()).Return(optional.None[types.OrderIntent](), nil).Times(tc.evaluated)

			_, err := suite.backtester(TestConfig()).Run(context.Background(), suite.feedOf(10, 11, 12), s, tc.callbacks())
			suite.Equal(errors.ErrCodeCallbackFailed, errors.GetCode(err))
		})
	}
}

func (suite *BacktestTestSuite) TestTimeWindow() {
	config := TestConfig()
	config.StartTime = optional.Some(suite.start.Add(24 * time.Hour))
	config.EndTime = optional.Some(suite.start.Add(2 * 24 * time.Hour))

	s := suite.mockStrategy("windowed")
	s.EXPECT().Evaluate(gomock.Any()).Return(optional.None[types.OrderIntent](), nil).Times(2)

	result, err := suite.backtester(config).Run(context.Background(), suite.feedOf(10, 11, 12, 13), s, LifecycleCallbacks{})
	suite.Require().NoError(err)
	suite.Len(result.EquityCurve, 2)
	suite.Equal(11.0, result.EquityCurve[0].Close)

	config.StartTime = optional.Some(suite.start.Add(30 * 24 * time.Hour))
	config.EndTime = optional.None[time.Time]()
	_, err = suite.backtester(config).Run(context.Background(), suite.feedOf(10, 11), s, LifecycleCallbacks{})
	suite.Equal(errors.ErrCodeNoDataFound, errors.GetCode(err))
}

func (suite *BacktestTestSuite) TestMarkerFactory() {
	b := suite.backtester(TestConfig())

	m := mocks.NewMockMarker(suite.ctrl)
	m.EXPECT().Mark(gomock.Any()).DoAndReturn(func(mark types.Mark) error {
		suite.Equal(types.MarkColorGreen, mark.Color)
		suite.Equal(0, mark.BarIndex)

		return nil
	})
	m.EXPECT().Marks().Return([]types.Mark{{Title: "BUY"}}, nil)

	b.SetMarkerFactory(func() (marker.Marker, error) { return m, nil })

	s := suite.mockStrategy("marked")
	s.EXPECT().Evaluate(gomock.Any()).Return(buy(1), nil)

	result, err := b.Run(context.Background(), suite.feedOf(10), s, LifecycleCallbacks{})
	suite.Require().NoError(err)
	suite.Equal([]types.Mark{{Title: "BUY"}}, result.Marks)
}

func (suite *BacktestTestSuite) TestMarkerFailure() {
	b := suite.backtester(TestConfig())

	m := mocks.NewMockMarker(suite.ctrl)
	m.EXPECT().Mark(gomock.Any()).Return(fmt.Errorf("disk full"))
	b.SetMarkerFactory(func() (marker.Marker, error) { return m, nil })

	s := suite.mockStrategy("marked")
	s.EXPECT().Evaluate(gomock.Any()).Return(buy(1), nil)

	_, err := b.Run(context.Background(), suite.feedOf(10, 11), s, LifecycleCallbacks{})
	suite.Equal(errors.ErrCodeResultWriteFailed, errors.GetCode(err))
}

func (suite *BacktestTestSuite) TestRunWithBaseline() {
	config := TestConfig()
	config.Baseline.PositionFraction = fraction(1)

	s := suite.mockStrategy("idle")
	s.EXPECT().Evaluate(gomock.Any()).Return(optional.None[types.OrderIntent](), nil).Times(3)

	var starts atomic.Int32
	onStart := OnRunStartCallback(func(string, string, int) error {
		starts.Add(1)

		return nil
	})

	report, err := suite.backtester(config).RunWithBaseline(context.Background(), suite.feedOf(100, 110, 90), s, LifecycleCallbacks{OnRunStart: &onStart})
	suite.Require().NoError(err)

	suite.Equal("idle", report.Strategy.StrategyName)
	suite.Equal("buy_and_hold", report.Baseline.StrategyName)
	suite.Equal(0.0, report.Strategy.Metrics.TotalReturn)
	suite.Equal(-0.1, report.Baseline.Metrics.TotalReturn)
	suite.InDelta(0.1, report.ExcessTotalReturn, 1e-12)
	suite.NotEqual(report.Strategy.ID, report.Baseline.ID)
	suite.Equal(int32(1), starts.Load())
}

func (suite *BacktestTestSuite) TestRunWithBaselineFailsWithStrategy() {
	s := suite.mockStrategy("broken")
	s.EXPECT().Evaluate(gomock.Any()).Return(optional.None[types.OrderIntent](), fmt.Errorf("boom"))

	_, err := suite.backtester(TestConfig()).RunWithBaseline(context.Background(), suite.feedOf(100, 110, 90), s, LifecycleCallbacks{})
	suite.Equal(errors.ErrCodeStrategyRuntimeError, errors.GetCode(err))
}

func (suite *BacktestTestSuite) TestCrossoverOnGeneratedData() {
	config := TestConfig()
	config.Broker = commission_fee.BrokerPercentage
	config.CommissionRate = 0.001

	b := suite.backtester(config)

	s, err := strategy.New(strategy.Config{
		Name: strategy.StrategyTypeCrossover,
		Fast: strategy.MovingAverageConfig{Type: types.IndicatorTypeSMA, Period: 5},
		Slow: strategy.MovingAverageConfig{Type: types.IndicatorTypeSMA, Period: 20},
	}, b.CommissionFee())
	suite.Require().NoError(err)

	f, err := feed.New(mocks.GenerateBars("SPY", 500))
	suite.Require().NoError(err)

	report, err := b.RunWithBaseline(context.Background(), f, s, LifecycleCallbacks{})
	suite.Require().NoError(err)

	for _, result := range []types.Result{report.Strategy, report.Baseline} {
		suite.Len(result.EquityCurve, 500)

		for _, p := range result.EquityCurve {
			suite.GreaterOrEqual(p.Cash, 0.0)
			suite.GreaterOrEqual(p.PositionSize, 0.0)
			suite.InDelta(p.Cash+p.PositionSize*p.Close, p.Equity, 1e-6)
		}

		for _, trade := range result.Trades {
			suite.Greater(trade.Commission, 0.0)
			suite.InDelta(trade.GrossPnL-trade.Commission, trade.NetPnL, 1e-6)
			suite.GreaterOrEqual(trade.ExitBarIndex, trade.EntryBarIndex)
		}
	}

	suite.NotEmpty(report.Strategy.Trades)
	suite.Len(report.Baseline.Trades, 1)
}
