package types

import "time"

// Bar is one OHLCV sample for a fixed interval. Bars are immutable once ingested.
type Bar struct {
	Symbol string    `yaml:"symbol" json:"symbol" csv:"symbol"`
	Time   time.Time `yaml:"time" json:"time" csv:"time"`
	Open   float64   `yaml:"open" json:"open" csv:"open"`
	High   float64   `yaml:"high" json:"high" csv:"high"`
	Low    float64   `yaml:"low" json:"low" csv:"low"`
	Close  float64   `yaml:"close" json:"close" csv:"close"`
	Volume float64   `yaml:"volume" json:"volume" csv:"volume"`
}

// PriceSource selects which field of a bar an indicator reads.
type PriceSource string

const (
	PriceSourceClose  PriceSource = "close"
	PriceSourceOpen   PriceSource = "open"
	PriceSourceHigh   PriceSource = "high"
	PriceSourceLow    PriceSource = "low"
	PriceSourceVolume PriceSource = "volume"
)

// Value returns the field of b selected by s. Unknown sources read the close.
func (s PriceSource) Value(b Bar) float64 {
	switch s {
	case PriceSourceOpen:
		return b.Open
	case PriceSourceHigh:
		return b.High
	case PriceSourceLow:
		return b.Low
	case PriceSourceVolume:
		return b.Volume
	default:
		return b.Close
	}
}
