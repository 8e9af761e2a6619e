package types

// Position is the long-only holding owned by the broker. Size is never negative.
type Position struct {
	Size              float64 `yaml:"size" json:"size" csv:"size"`
	AverageEntryPrice float64 `yaml:"average_entry_price" json:"average_entry_price" csv:"average_entry_price"`
}

// IsFlat reports whether there is no open position.
func (p Position) IsFlat() bool {
	return p.Size <= 0
}

// IsLong reports whether a long position is open.
func (p Position) IsLong() bool {
	return p.Size > 0
}

// MarketValue values the position at price.
func (p Position) MarketValue(price float64) float64 {
	return p.Size * price
}
