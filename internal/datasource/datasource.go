package datasource

import (
	"context"
	"iter"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/feed"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// DataSource loads OHLCV bars from storage.
type DataSource interface {
	// Initialize points the data source at a CSV or Parquet file.
	Initialize(path string) error
	// Count returns the number of bars in the optional time range.
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// ReadAll yields bars in ascending time order within the optional time range.
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) iter.Seq2[types.Bar, error]
	// Load reads the range into a validated feed.
	Load(ctx context.Context, start optional.Option[time.Time], end optional.Option[time.Time]) (*feed.Feed, error)
	Close() error
}
