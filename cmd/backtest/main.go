package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/backtest"
	"github.com/rxtech-lab/argo-backtest/internal/datasource"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/metrics"
	"github.com/rxtech-lab/argo-backtest/internal/report"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/internal/version"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

const metricsFile = "metrics.prom"

func backtestAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("schema") {
		config := backtest.EmptyConfig()

		schema, err := config.GenerateSchemaJSON()
		if err != nil {
			return err
		}

		fmt.Println(schema)

		return nil
	}

	configPath := cmd.String("config")
	dataPath := cmd.String("data")

	if configPath == "" || dataPath == "" {
		return fmt.Errorf("--config and --data are required")
	}

	lg, err := logger.NewLoggerWithLevel(cmd.String("log-level"))
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer lg.Sync() //nolint:errcheck

	config, err := backtest.LoadConfig(configPath)
	if err != nil {
		return err
	}

	ds, err := datasource.NewDataSource(":memory:", lg.Named("datasource"))
	if err != nil {
		return err
	}
	defer ds.Close()

	if err := ds.Initialize(dataPath); err != nil {
		return err
	}

	f, err := ds.Load(ctx, config.StartTime, config.EndTime)
	if err != nil {
		return err
	}

	bt, err := backtest.New(config, lg.Named("backtest"))
	if err != nil {
		return err
	}

	s, err := strategy.New(config.Strategy, bt.CommissionFee())
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(f.Len(),
		progressbar.OptionSetDescription(s.Name()),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)

	recorder := metrics.NewRecorder()

	onProcessData := backtest.OnProcessDataCallback(func(current, total int) error {
		recorder.BarProcessed(s.Name())

		return bar.Set(current)
	})
	onRunEnd := backtest.OnRunEndCallback(func(runID, strategyName string, result *types.Result, err error) {
		recorder.ObserveRun(strategyName, result, err)

		if err != nil {
			lg.Error("Run failed", zap.String("run_id", runID), zap.String("strategy", strategyName), zap.Error(err))

			return
		}

		_ = bar.Finish()
	})

	comparison, err := bt.RunWithBaseline(ctx, f, s, backtest.LifecycleCallbacks{
		OnProcessData: &onProcessData,
		OnRunEnd:      &onRunEnd,
	})
	if err != nil {
		return err
	}

	outputDir := filepath.Join(cmd.String("output"), time.Now().Format("20060102_150405"))
	if err := report.Write(outputDir, *comparison, f.First().Symbol, lg.Named("report")); err != nil {
		return err
	}

	if err := recorder.WriteToTextfile(filepath.Join(outputDir, metricsFile)); err != nil {
		lg.Warn("Failed to write metrics", zap.Error(err))
	}

	fmt.Println(report.Summary(*comparison))
	fmt.Printf("results written to %s\n", outputDir)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "backtest",
		Usage:   "Backtest a strategy on OHLCV bars against a Buy&Hold baseline",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the backtest config `FILE` (YAML)",
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Path to the market data `FILE` (.csv or .parquet)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Directory the results are written to",
				Value:   "results",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
				Value: "warn",
			},
			&cli.BoolFlag{
				Name:  "schema",
				Usage: "Print the JSON schema of the config file and exit",
			},
		},
		Action: backtestAction,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
