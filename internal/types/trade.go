package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is a closed round trip, recorded when the position returns to flat.
type Trade struct {
	EntryTime     time.Time `yaml:"entry_time" json:"entry_time" csv:"entry_time"`
	ExitTime      time.Time `yaml:"exit_time" json:"exit_time" csv:"exit_time"`
	EntryBarIndex int       `yaml:"entry_bar_index" json:"entry_bar_index" csv:"entry_bar_index"`
	ExitBarIndex  int       `yaml:"exit_bar_index" json:"exit_bar_index" csv:"exit_bar_index"`
	EntryPrice    float64   `yaml:"entry_price" json:"entry_price" csv:"entry_price"`
	ExitPrice     float64   `yaml:"exit_price" json:"exit_price" csv:"exit_price"`
	Size          float64   `yaml:"size" json:"size" csv:"size"`
	// GrossPnL is (exit - entry) * size before commissions.
	GrossPnL float64 `yaml:"gross_pnl" json:"gross_pnl" csv:"gross_pnl"`
	// NetPnL is GrossPnL minus every commission paid on the round trip.
	NetPnL     float64 `yaml:"net_pnl" json:"net_pnl" csv:"net_pnl"`
	Commission float64 `yaml:"commission" json:"commission" csv:"commission"`
	BarsHeld   int     `yaml:"bars_held" json:"bars_held" csv:"bars_held"`
}

// IsWin reports whether the trade made money after commissions.
func (t Trade) IsWin() bool {
	return t.NetPnL > 0
}

// NewTrade builds a closed trade. PnL is computed in decimal so that
// small commissions on large notionals do not drift.
func NewTrade(entryPrice, exitPrice, size, commission float64) Trade {
	entry := decimal.NewFromFloat(entryPrice)
	exit := decimal.NewFromFloat(exitPrice)
	qty := decimal.NewFromFloat(size)

	gross := exit.Sub(entry).Mul(qty)
	net := gross.Sub(decimal.NewFromFloat(commission))

	return Trade{
		EntryPrice: entryPrice,
		ExitPrice:  exitPrice,
		Size:       size,
		GrossPnL:   gross.InexactFloat64(),
		NetPnL:     net.InexactFloat64(),
		Commission: commission,
	}
}
