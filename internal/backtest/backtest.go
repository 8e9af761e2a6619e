package backtest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-backtest/internal/analysis"
	"github.com/rxtech-lab/argo-backtest/internal/broker"
	"github.com/rxtech-lab/argo-backtest/internal/broker/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/feed"
	"github.com/rxtech-lab/argo-backtest/internal/indicator"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/marker"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MarkerFactory creates the marker of one run.
type MarkerFactory func() (marker.Marker, error)

// Backtester drives strategies over a feed. Every run owns its own broker,
// indicator engine and marker, so runs over the same feed may proceed concurrently.
type Backtester struct {
	config    Config
	fee       commission_fee.CommissionFee
	logger    *logger.Logger
	newMarker MarkerFactory
}

func New(config Config, log *logger.Logger) (*Backtester, error) {
	config = config.WithDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if err := config.BrokerConfig().WithDefaults().Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Backtester{
		config: config,
		fee:    config.CommissionFee(),
		logger: log,
		newMarker: func() (marker.Marker, error) {
			return marker.NewMemoryMarker(), nil
		},
	}, nil
}

// SetMarkerFactory replaces the in-memory marker used by each run.
func (b *Backtester) SetMarkerFactory(factory MarkerFactory) {
	if factory != nil {
		b.newMarker = factory
	}
}

func (b *Backtester) Config() Config {
	return b.config
}

// CommissionFee is the fee model every run's broker charges.
func (b *Backtester) CommissionFee() commission_fee.CommissionFee {
	return b.fee
}

// Run replays the feed through s. For every bar, in order: the outstanding
// order fills at the open, indicators advance, the strategy evaluates, its
// intent goes to the broker and equity is marked at the close. Orders still
// outstanding after the last bar are canceled; open positions are kept.
func (b *Backtester) Run(ctx context.Context, f *feed.Feed, s strategy.Strategy, callbacks LifecycleCallbacks) (result *types.Result, err error) {
	if s == nil {
		return nil, errors.New(errors.ErrCodeBacktestNoStrategy, "no strategy to run")
	}

	if f == nil {
		return nil, errors.New(errors.ErrCodeNoDataFound, "no feed to run on")
	}

	f, err = b.window(f)
	if err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	name := s.Name()
	log := b.logger.Named(name)

	if callbacks.OnRunEnd != nil {
		defer func() {
			(*callbacks.OnRunEnd)(runID, name, result, err)
		}()
	}

	sim, err := broker.NewSimulator(b.config.BrokerConfig(), b.fee, log)
	if err != nil {
		return nil, err
	}

	engine := indicator.NewEngine(b.config.HistorySize)
	if err := engine.Register(s.Indicators()...); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStrategyConfigError, "failed to register strategy indicators", err)
	}

	engine.Reset()

	marks, err := b.newMarker()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to create marker", err)
	}

	total := f.Len()

	if callbacks.OnRunStart != nil {
		if err := (*callbacks.OnRunStart)(runID, name, total); err != nil {
			return nil, errors.Wrap(errors.ErrCodeCallbackFailed, "run start callback failed", err)
		}
	}

	log.Info("Backtest started",
		zap.String("run_id", runID),
		zap.Int("bars", total),
		zap.Float64("initial_cash", b.config.InitialCash),
	)

	startedAt := time.Now()

	for i, bar := range f.All() {
		if err := ctx.Err(); err != nil {
			log.Info("Backtest canceled", zap.Int("bar_index", i))

			return nil, errors.Wrap(errors.ErrCodeBacktestCanceled, "backtest canceled", err)
		}

		if filled := sim.ProcessPending(bar, i); filled.IsSome() {
			if err := b.record(log, marks, filled.Unwrap(), bar, i); err != nil {
				return nil, err
			}
		}

		snapshot := engine.Advance(bar)

		intent, err := s.Evaluate(strategy.Input{
			Bar:                 bar,
			Index:               i,
			Total:               total,
			Indicators:          snapshot,
			Position:            sim.Position(),
			Cash:                sim.Cash(),
			Equity:              sim.Equity(bar.Close),
			HasOutstandingOrder: sim.HasOutstandingOrder(),
		})
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeStrategyRuntimeError, err, "strategy %s failed on bar %d", name, i)
		}

		if intent.IsSome() {
			if err := b.record(log, marks, sim.Submit(intent.Unwrap(), bar, i), bar, i); err != nil {
				return nil, err
			}
		}

		sim.MarkToMarket(bar, i)

		if callbacks.OnProcessData != nil {
			if err := (*callbacks.OnProcessData)(i+1, total); err != nil {
				return nil, errors.Wrap(errors.ErrCodeCallbackFailed, "process data callback failed", err)
			}
		}
	}

	if canceled := sim.CancelPending(types.OrderReasonEndOfData); canceled.IsSome() {
		last := f.Last()
		if err := b.record(log, marks, canceled.Unwrap(), last, total-1); err != nil {
			return nil, err
		}
	}

	allMarks, err := marks.Marks()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to read marks", err)
	}

	curve := sim.EquityCurve()
	trades := sim.Trades()

	result = &types.Result{
		ID:           runID,
		StrategyName: name,
		StartedAt:    startedAt,
		Metrics: analysis.Analyze(curve, trades, analysis.Options{
			InitialCash:  b.config.InitialCash,
			RiskFreeRate: b.config.RiskFreeRate,
			BarsPerYear:  b.config.BarsPerYear,
		}),
		EquityCurve: curve,
		Trades:      trades,
		Orders:      sim.Orders(),
		Marks:       allMarks,
	}

	log.Info("Backtest finished",
		zap.String("run_id", runID),
		zap.Float64("final_equity", result.Metrics.FinalEquity),
		zap.Float64("total_return", result.Metrics.TotalReturn),
		zap.Int("trades", len(trades)),
		zap.Duration("elapsed", time.Since(startedAt)),
	)

	return result, nil
}

// RunWithBaseline runs s and an isolated Buy&Hold baseline concurrently over
// the same feed and compares them. Callbacks only observe the strategy run.
func (b *Backtester) RunWithBaseline(ctx context.Context, f *feed.Feed, s strategy.Strategy, callbacks LifecycleCallbacks) (*types.ComparisonReport, error) {
	baseline, err := strategy.NewBuyAndHoldStrategy(*b.config.Baseline.PositionFraction)
	if err != nil {
		return nil, err
	}

	var strategyResult, baselineResult *types.Result

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		result, err := b.Run(gctx, f, s, callbacks)
		strategyResult = result

		return err
	})

	g.Go(func() error {
		result, err := b.Run(gctx, f, baseline, LifecycleCallbacks{})
		baselineResult = result

		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := analysis.Compare(*strategyResult, *baselineResult)

	return &report, nil
}

// window narrows the feed to the configured start and end times.
func (b *Backtester) window(f *feed.Feed) (*feed.Feed, error) {
	if b.config.StartTime.IsNone() && b.config.EndTime.IsNone() {
		return f, nil
	}

	var start, end time.Time
	if b.config.StartTime.IsSome() {
		start = b.config.StartTime.Unwrap()
	}

	if b.config.EndTime.IsSome() {
		end = b.config.EndTime.Unwrap()
	}

	return f.Between(start, end)
}

func (b *Backtester) record(log *logger.Logger, marks marker.Marker, result types.OrderResult, bar types.Bar, index int) error {
	if result.Err != nil {
		log.Debug("Order not filled",
			zap.String("order_id", result.Order.ID),
			zap.String("status", string(result.Status())),
			zap.Int("bar_index", index),
			zap.Error(result.Err),
		)
	}

	if err := marks.Mark(marker.FromOrder(result, bar, index)); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to record mark", err)
	}

	return nil
}
