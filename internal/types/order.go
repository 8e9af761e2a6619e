package types

import (
	"slices"
	"time"

	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

type OrderSide string

type OrderStatus string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

const (
	OrderStatusCreated        OrderStatus = "CREATED"
	OrderStatusSubmitted      OrderStatus = "SUBMITTED"
	OrderStatusCompleted      OrderStatus = "COMPLETED"
	OrderStatusCanceled       OrderStatus = "CANCELED"
	OrderStatusMarginRejected OrderStatus = "MARGIN_REJECTED"
	// OrderStatusRejected is used for orders that fail validation, such as a sell larger than the position.
	OrderStatusRejected OrderStatus = "REJECTED"
)

const (
	OrderReasonStrategy     string = "strategy"
	OrderReasonEntry        string = "entry"
	OrderReasonExit         string = "exit"
	OrderReasonStopLoss     string = "stop_loss"
	OrderReasonFinalBar     string = "final_bar"
	OrderReasonInsufficient string = "insufficient_buying_power"
	OrderReasonInvalidSize  string = "invalid_quantity"
	OrderReasonOversell     string = "sell_exceeds_position"
	OrderReasonOutstanding  string = "order_outstanding"
	OrderReasonReplaced     string = "replaced"
	OrderReasonEndOfData    string = "end_of_data"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusCreated: {OrderStatusSubmitted, OrderStatusCanceled, OrderStatusRejected},
	OrderStatusSubmitted: {
		OrderStatusCompleted,
		OrderStatusCanceled,
		OrderStatusMarginRejected,
		OrderStatusRejected,
	},
}

// IsTerminal reports whether no further transition is allowed out of s.
func (s OrderStatus) IsTerminal() bool {
	_, ok := orderTransitions[s]

	return !ok
}

// OrderIntent is what a strategy asks the broker to do on the current bar.
type OrderIntent struct {
	Side   OrderSide `yaml:"side" json:"side" validate:"required,oneof=BUY SELL"`
	Size   float64   `yaml:"size" json:"size"`
	Reason string    `yaml:"reason" json:"reason"`
}

// Order is created and transitioned by the broker from an OrderIntent.
type Order struct {
	ID                string      `yaml:"id" json:"id" csv:"id" validate:"required,uuid"`
	Symbol            string      `yaml:"symbol" json:"symbol" csv:"symbol"`
	Side              OrderSide   `yaml:"side" json:"side" csv:"side" validate:"required,oneof=BUY SELL"`
	RequestedSize     float64     `yaml:"requested_size" json:"requested_size" csv:"requested_size" validate:"gt=0"`
	Status            OrderStatus `yaml:"status" json:"status" csv:"status"`
	SubmittedBarIndex int         `yaml:"submitted_bar_index" json:"submitted_bar_index" csv:"submitted_bar_index"`
	SubmittedAt       time.Time   `yaml:"submitted_at" json:"submitted_at" csv:"submitted_at"`
	// ExecutedBarIndex is -1 until the order completes.
	ExecutedBarIndex int       `yaml:"executed_bar_index" json:"executed_bar_index" csv:"executed_bar_index"`
	ExecutedAt       time.Time `yaml:"executed_at" json:"executed_at" csv:"executed_at"`
	ExecutedPrice    float64   `yaml:"executed_price" json:"executed_price" csv:"executed_price"`
	ExecutedSize     float64   `yaml:"executed_size" json:"executed_size" csv:"executed_size"`
	CommissionPaid   float64   `yaml:"commission_paid" json:"commission_paid" csv:"commission_paid"`
	Reason           string    `yaml:"reason" json:"reason" csv:"reason"`
	// StatusReason explains why an order ended Canceled or rejected.
	StatusReason string `yaml:"status_reason" json:"status_reason" csv:"status_reason"`
}

// Transition moves the order to next. Leaving a terminal state is an error.
func (o *Order) Transition(next OrderStatus) error {
	allowed, ok := orderTransitions[o.Status]
	if !ok {
		return errors.Newf(errors.ErrCodeInvalidOrderTransition, "order %s is terminal in %s, cannot move to %s", o.ID, o.Status, next)
	}

	if !slices.Contains(allowed, next) {
		return errors.Newf(errors.ErrCodeInvalidOrderTransition, "order %s cannot move from %s to %s", o.ID, o.Status, next)
	}

	o.Status = next

	return nil
}

// OrderResult is the synchronous outcome of submitting or filling an order.
// Err carries the coded rejection (margin, invalid order, outstanding order) and is nil on success.
type OrderResult struct {
	Order Order
	Err   error
}

// Status returns the status of the resolved order.
func (r OrderResult) Status() OrderStatus {
	return r.Order.Status
}

// Filled reports whether the order completed.
func (r OrderResult) Filled() bool {
	return r.Order.Status == OrderStatusCompleted
}
