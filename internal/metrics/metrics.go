// Package metrics provides Prometheus instrumentation for backtest runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Recorder owns its own registry so runs in tests do not share global state.
type Recorder struct {
	registry *prometheus.Registry

	runsTotal     *prometheus.CounterVec
	barsProcessed *prometheus.CounterVec
	ordersTotal   *prometheus.CounterVec
	tradesTotal   *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	finalEquity   *prometheus.GaugeVec
	totalReturn   *prometheus.GaugeVec
}

func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "argo_backtest_runs_total",
			Help: "Total number of backtest runs by outcome",
		}, []string{"strategy", "status"}),
		barsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "argo_backtest_bars_processed_total",
			Help: "Bars fully processed by the orchestrator",
		}, []string{"strategy"}),
		ordersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "argo_backtest_orders_total",
			Help: "Orders by final status",
		}, []string{"strategy", "status"}),
		tradesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "argo_backtest_trades_total",
			Help: "Closed round-trip trades by outcome",
		}, []string{"strategy", "outcome"}),
		runDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "argo_backtest_run_duration_seconds",
			Help:    "Wall time of a backtest run in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}, []string{"strategy"}),
		finalEquity: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "argo_backtest_final_equity",
			Help: "Equity after the last bar of the most recent run",
		}, []string{"strategy"}),
		totalReturn: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "argo_backtest_total_return",
			Help: "Total return of the most recent run",
		}, []string{"strategy"}),
	}
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// BarProcessed counts one processed bar.
func (r *Recorder) BarProcessed(strategy string) {
	r.barsProcessed.WithLabelValues(strategy).Inc()
}

// ObserveRun records the outcome of a run. result is nil when err is set.
func (r *Recorder) ObserveRun(strategy string, result *types.Result, err error) {
	if err != nil || result == nil {
		r.runsTotal.WithLabelValues(strategy, StatusFailed).Inc()

		return
	}

	r.runsTotal.WithLabelValues(strategy, StatusSucceeded).Inc()
	r.runDuration.WithLabelValues(strategy).Observe(time.Since(result.StartedAt).Seconds())
	r.finalEquity.WithLabelValues(strategy).Set(result.Metrics.FinalEquity)
	r.totalReturn.WithLabelValues(strategy).Set(result.Metrics.TotalReturn)

	for _, order := range result.Orders {
		r.ordersTotal.WithLabelValues(strategy, string(order.Status)).Inc()
	}

	for _, trade := range result.Trades {
		outcome := "loss"
		if trade.NetPnL > 0 {
			outcome = "win"
		}

		r.tradesTotal.WithLabelValues(strategy, outcome).Inc()
	}
}

// WriteToTextfile writes every metric in the Prometheus text format, for the
// node exporter textfile collector.
func (r *Recorder) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
