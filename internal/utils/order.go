package utils

import (
	"math"

	"github.com/rxtech-lab/argo-backtest/internal/broker/commission_fee"
)

// CalculateMaxQuantity returns the largest quantity whose cost plus commission fits in balance.
func CalculateMaxQuantity(balance float64, price float64, commissionFee commission_fee.CommissionFee) float64 {
	if price <= 0 || balance <= 0 {
		return 0
	}

	totalCost := func(qty float64) float64 {
		return qty*price + commissionFee.Calculate(price, qty)
	}

	maxQty := balance / price

	// Usually converges in one or two passes for proportional fees.
	for i := 0; i < 10 && totalCost(maxQty) > balance; i++ {
		maxQty *= balance / totalCost(maxQty)
	}

	// Settle the last few ulps of rounding so the result never overspends.
	for i := 0; i < 1000 && maxQty > 0 && totalCost(maxQty) > balance; i++ {
		maxQty = math.Nextafter(maxQty, 0)
	}

	return maxQty
}

// RoundToDecimalPrecision floors quantity to decimalPrecision places.
// A negative precision leaves the quantity unchanged.
func RoundToDecimalPrecision(quantity float64, decimalPrecision int) float64 {
	if decimalPrecision < 0 {
		return quantity
	}

	multiplier := math.Pow10(decimalPrecision)

	return math.Floor(quantity*multiplier) / multiplier
}

// CalculateOrderQuantityByPercentage sizes an order from a share of balance, leaving room for commission.
func CalculateOrderQuantityByPercentage(balance float64, price float64, commissionFee commission_fee.CommissionFee, percentage float64) float64 {
	return CalculateMaxQuantity(balance*percentage, price, commissionFee)
}
