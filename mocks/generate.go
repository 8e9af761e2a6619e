package mocks

//go:generate mockgen -destination=./mock_strategy.go -package=mocks github.com/rxtech-lab/argo-backtest/internal/strategy Strategy
//go:generate mockgen -destination=./mock_indicator.go -package=mocks github.com/rxtech-lab/argo-backtest/internal/indicator Indicator
//go:generate mockgen -destination=./mock_marker.go -package=mocks github.com/rxtech-lab/argo-backtest/internal/marker Marker
