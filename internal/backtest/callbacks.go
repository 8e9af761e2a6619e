package backtest

import "github.com/rxtech-lab/argo-backtest/internal/types"

// Lifecycle callback types for one run.
// Callbacks returning an error abort the run.

// OnRunStartCallback is called before the first bar.
type OnRunStartCallback func(runID string, strategyName string, totalBars int) error

// OnProcessDataCallback is called after each bar has been fully processed.
type OnProcessDataCallback func(current int, total int) error

// OnRunEndCallback is called when the run ends, successfully or not (always called via defer).
type OnRunEndCallback func(runID string, strategyName string, result *types.Result, err error)

// LifecycleCallbacks holds the callbacks of a run.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnRunStart    *OnRunStartCallback
	OnProcessData *OnProcessDataCallback
	OnRunEnd      *OnRunEndCallback
}
