package report

import (
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/marker"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
)

const (
	StatsFile  = "stats.yaml"
	EquityFile = "equity.csv"
	TradesFile = "trades.csv"
	OrdersFile = "orders.csv"
	MarksFile  = "marks.parquet"

	StrategyDir = "strategy"
	BaselineDir = "baseline"
)

// Stats converts a comparison into its on-disk summary.
func Stats(report types.ComparisonReport, symbol string) types.ComparisonStats {
	return types.ComparisonStats{
		Strategy:               runStats(report.Strategy, symbol),
		Baseline:               runStats(report.Baseline, symbol),
		ExcessAnnualizedReturn: types.OptionPtr(report.ExcessAnnualizedReturn),
		ExcessTotalReturn:      report.ExcessTotalReturn,
	}
}

func runStats(result types.Result, symbol string) types.RunStats {
	return types.RunStats{
		ID:           result.ID,
		Timestamp:    result.StartedAt,
		StrategyName: result.StrategyName,
		Symbol:       symbol,
		Metrics:      result.Metrics,
	}
}

// Write stores stats.yaml in dir and the equity curve, trades, orders and
// marks of each run under dir/strategy and dir/baseline.
func Write(dir string, report types.ComparisonReport, symbol string, log *logger.Logger) error {
	if log == nil {
		log = logger.NewNopLogger()
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(errors.ErrCodeResultWriteFailed, err, "failed to create %s", dir)
	}

	if err := types.WriteComparisonStats(filepath.Join(dir, StatsFile), Stats(report, symbol)); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to write stats", err)
	}

	for name, result := range map[string]types.Result{StrategyDir: report.Strategy, BaselineDir: report.Baseline} {
		if err := WriteResult(filepath.Join(dir, name), result, log); err != nil {
			return err
		}
	}

	log.Info("Results written", zap.String("dir", dir))

	return nil
}

// WriteResult stores one run's equity curve, trades, orders and marks in dir.
func WriteResult(dir string, result types.Result, log *logger.Logger) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(errors.ErrCodeResultWriteFailed, err, "failed to create %s", dir)
	}

	if err := writeCSV(filepath.Join(dir, EquityFile), &result.EquityCurve); err != nil {
		return err
	}

	if err := writeCSV(filepath.Join(dir, TradesFile), &result.Trades); err != nil {
		return err
	}

	if err := writeCSV(filepath.Join(dir, OrdersFile), &result.Orders); err != nil {
		return err
	}

	return writeMarks(dir, result.Marks, log)
}

func writeMarks(dir string, marks []types.Mark, log *logger.Logger) error {
	m, err := marker.NewDuckDBMarker(log)
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to open marks store", err)
	}
	defer m.Close()

	for _, mark := range marks {
		if err := m.Mark(mark); err != nil {
			return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to store mark", err)
		}
	}

	if err := m.Write(dir); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to write marks", err)
	}

	return nil
}

// writeCSV marshals rows, a slice of csv-tagged structs, to path.
func writeCSV(path string, rows any) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeResultWriteFailed, err, "failed to create %s", path)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(rows, file); err != nil {
		return errors.Wrapf(errors.ErrCodeResultWriteFailed, err, "failed to write %s", path)
	}

	return nil
}
