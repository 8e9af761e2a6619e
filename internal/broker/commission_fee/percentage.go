package commission_fee

// PercentageCommissionFee charges a flat share of the traded notional.
type PercentageCommissionFee struct {
	Rate float64
}

func NewPercentageCommissionFee(rate float64) CommissionFee {
	return &PercentageCommissionFee{Rate: rate}
}

// Calculate returns rate * price * quantity.
func (c *PercentageCommissionFee) Calculate(price float64, quantity float64) float64 {
	return c.Rate * price * quantity
}
