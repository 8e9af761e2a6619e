package types

import "time"

// EquityPoint is the marked-to-market portfolio value after one bar.
type EquityPoint struct {
	BarIndex     int       `yaml:"bar_index" json:"bar_index" csv:"bar_index"`
	Time         time.Time `yaml:"time" json:"time" csv:"time"`
	Equity       float64   `yaml:"equity" json:"equity" csv:"equity"`
	Cash         float64   `yaml:"cash" json:"cash" csv:"cash"`
	PositionSize float64   `yaml:"position_size" json:"position_size" csv:"position_size"`
	Close        float64   `yaml:"close" json:"close" csv:"close"`
}

// EquityCurve holds one point per processed bar, in bar order.
type EquityCurve []EquityPoint

// Values returns the equity column.
func (c EquityCurve) Values() []float64 {
	values := make([]float64, len(c))
	for i, p := range c {
		values[i] = p.Equity
	}

	return values
}

// Final returns the last equity value, or 0 for an empty curve.
func (c EquityCurve) Final() float64 {
	if len(c) == 0 {
		return 0
	}

	return c[len(c)-1].Equity
}
