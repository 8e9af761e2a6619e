package marker

import (
	"fmt"

	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// Marker records annotations on bars, one per order decision.
type Marker interface {
	// Mark records a mark.
	Mark(mark types.Mark) error
	// Marks returns all marks in the order they were recorded.
	Marks() ([]types.Mark, error)
}

// FromOrder builds the mark for an order result on the bar at index.
// Fills are green (buy) or red (sell) triangles; anything that did not fill is a yellow square.
func FromOrder(result types.OrderResult, bar types.Bar, index int) types.Mark {
	order := result.Order
	mark := types.Mark{
		BarIndex: index,
		Time:     bar.Time,
		Title:    string(order.Side),
		Category: order.Reason,
	}

	switch {
	case result.Filled() && order.Side == types.OrderSideBuy:
		mark.Color = types.MarkColorGreen
		mark.Shape = types.MarkShapeTriangle
		mark.Message = fmt.Sprintf("bought %g at %g", order.ExecutedSize, order.ExecutedPrice)
	case result.Filled():
		mark.Color = types.MarkColorRed
		mark.Shape = types.MarkShapeTriangle
		mark.Message = fmt.Sprintf("sold %g at %g", order.ExecutedSize, order.ExecutedPrice)
	case order.Status == types.OrderStatusSubmitted:
		mark.Color = types.MarkColorBlue
		mark.Shape = types.MarkShapeCircle
		mark.Message = fmt.Sprintf("submitted %g", order.RequestedSize)
	default:
		mark.Color = types.MarkColorYellow
		mark.Shape = types.MarkShapeSquare
		mark.Message = fmt.Sprintf("%s: %s", order.Status, order.StatusReason)
	}

	return mark
}
