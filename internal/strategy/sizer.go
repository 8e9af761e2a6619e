package strategy

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/broker/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/utils"
)

// Sizer decides how many units an entry buys. A non-positive size means no trade.
type Sizer interface {
	Size(in Input) float64
}

// FixedFractionSizer spends a fixed share of available cash.
type FixedFractionSizer struct {
	Fraction float64
	// Fee makes the sizer leave room for commission, so the order is never margin rejected.
	// Nil sizes on price alone.
	Fee commission_fee.CommissionFee
	// Precision floors the size to this many decimals when set.
	Precision optional.Option[int]
}

func (s FixedFractionSizer) Size(in Input) float64 {
	price := in.Bar.Close
	if price <= 0 || s.Fraction <= 0 {
		return 0
	}

	var size float64
	if s.Fee != nil {
		size = utils.CalculateOrderQuantityByPercentage(in.Cash, price, s.Fee, s.Fraction)
	} else {
		size = in.Cash * s.Fraction / price
	}

	return roundSize(size, s.Precision)
}

// RiskSizer risks RiskRatio of equity against a stop StopMultiplier ATRs away:
//
//	size = clamp(equity * RiskRatio / (StopMultiplier * ATR), MinSize, equity * MaxFraction / price)
//
// The upper bound wins when it is below MinSize. A zero ATR sizes at MinSize;
// an undefined ATR sizes at 0 so nothing trades during warm-up.
type RiskSizer struct {
	RiskRatio      float64
	StopMultiplier float64
	MaxFraction    float64
	MinSize        float64
	// ATRKey is the snapshot key of the ATR the stop distance is read from.
	ATRKey    string
	Precision optional.Option[int]
}

func (s RiskSizer) Size(in Input) float64 {
	price := in.Bar.Close
	if price <= 0 {
		return 0
	}

	atr := in.Indicators.Current(s.ATRKey)
	if atr.IsNone() {
		return 0
	}

	size := s.MinSize
	if distance := s.StopMultiplier * atr.Unwrap(); distance > 0 {
		size = max(in.Equity*s.RiskRatio/distance, s.MinSize)
	}

	size = min(size, in.Equity*s.MaxFraction/price)
	if math.IsNaN(size) || size <= 0 {
		return 0
	}

	return roundSize(size, s.Precision)
}

func roundSize(size float64, precision optional.Option[int]) float64 {
	if precision.IsNone() {
		return size
	}

	return utils.RoundToDecimalPrecision(size, precision.Unwrap())
}
