package broker

import (
	"math"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/broker/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
)

// openTrade accumulates a round trip until the position returns to flat.
type openTrade struct {
	entryBarIndex int
	entryTime     time.Time
	commission    float64
	exitNotional  float64
	exitSize      float64
	exits         int
	lastExitPrice float64
}

// exitPrice is the size-weighted exit price, or the fill price for a single exit.
func (t *openTrade) exitPrice() float64 {
	if t.exits == 1 {
		return t.lastExitPrice
	}

	return t.exitNotional / t.exitSize
}

// Simulator is the simulated broker of a single run. It owns cash, the long
// position, the order log, the trade log and the equity curve.
// It is not safe for concurrent use; each run owns its own Simulator.
type Simulator struct {
	config   Config
	fee      commission_fee.CommissionFee
	logger   *logger.Logger
	validate *validator.Validate

	cash     float64
	position types.Position
	pending  *types.Order
	orders   []*types.Order
	trades   []types.Trade
	equity   types.EquityCurve
	open     *openTrade
}

// NewSimulator creates a broker holding config.InitialCash and no position.
func NewSimulator(config Config, fee commission_fee.CommissionFee, log *logger.Logger) (*Simulator, error) {
	config = config.WithDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if fee == nil {
		fee = commission_fee.NewZeroCommissionFee()
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Simulator{
		config:   config,
		fee:      fee,
		logger:   log,
		validate: validator.New(),
		cash:     config.InitialCash,
	}, nil
}

// Submit turns an intent into an order. Under the same-bar-close policy the
// order is resolved immediately against bar; otherwise it stays Submitted
// until ProcessPending is called with the next bar.
func (s *Simulator) Submit(intent types.OrderIntent, bar types.Bar, index int) types.OrderResult {
	order := &types.Order{
		ID:                uuid.New().String(),
		Symbol:            bar.Symbol,
		Side:              intent.Side,
		RequestedSize:     intent.Size,
		Status:            types.OrderStatusCreated,
		SubmittedBarIndex: index,
		SubmittedAt:       bar.Time,
		ExecutedBarIndex:  -1,
		Reason:            intent.Reason,
	}
	s.orders = append(s.orders, order)

	if s.pending != nil {
		if s.config.OutstandingPolicy == OutstandingPolicyIgnore {
			s.logger.Debug("Intent ignored while an order is outstanding",
				zap.String("outstanding_order_id", s.pending.ID),
				zap.Int("bar_index", index),
			)

			return s.finish(order, types.OrderStatusCanceled, types.OrderReasonOutstanding,
				errors.Newf(errors.ErrCodeOrderOutstanding, "order %s is still outstanding", s.pending.ID))
		}

		s.finish(s.pending, types.OrderStatusCanceled, types.OrderReasonReplaced, nil)
		s.pending = nil
	}

	if math.IsNaN(intent.Size) || math.IsInf(intent.Size, 0) || intent.Size <= 0 {
		return s.finish(order, types.OrderStatusRejected, types.OrderReasonInvalidSize,
			errors.Newf(errors.ErrCodeInvalidQuantity, "order size must be positive, got %f", intent.Size))
	}

	if err := s.validate.Struct(order); err != nil {
		return s.finish(order, types.OrderStatusRejected, err.Error(),
			errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order", err))
	}

	if err := order.Transition(types.OrderStatusSubmitted); err != nil {
		return types.OrderResult{Order: *order, Err: err}
	}

	if s.config.FillPolicy == FillPolicyNextBarOpen {
		s.pending = order

		return types.OrderResult{Order: *order}
	}

	return s.fill(order, bar.Close, bar, index)
}

// ProcessPending fills the outstanding order, if any, at the open of bar.
func (s *Simulator) ProcessPending(bar types.Bar, index int) optional.Option[types.OrderResult] {
	if s.pending == nil {
		return optional.None[types.OrderResult]()
	}

	order := s.pending
	s.pending = nil

	return optional.Some(s.fill(order, bar.Open, bar, index))
}

// CancelPending cancels the outstanding order, if any.
func (s *Simulator) CancelPending(reason string) optional.Option[types.OrderResult] {
	if s.pending == nil {
		return optional.None[types.OrderResult]()
	}

	order := s.pending
	s.pending = nil

	return optional.Some(s.finish(order, types.OrderStatusCanceled, reason, nil))
}

func (s *Simulator) fill(order *types.Order, price float64, bar types.Bar, index int) types.OrderResult {
	if order.Side == types.OrderSideBuy {
		return s.fillBuy(order, price, bar, index)
	}

	return s.fillSell(order, price, bar, index)
}

func (s *Simulator) fillBuy(order *types.Order, price float64, bar types.Bar, index int) types.OrderResult {
	size := order.RequestedSize
	cost := price * size
	commission := s.fee.Calculate(price, size)

	if s.cash-cost-commission < 0 {
		s.logger.Warn("Buy order margin rejected",
			zap.String("order_id", order.ID),
			zap.Float64("price", price),
			zap.Float64("size", size),
			zap.Float64("commission", commission),
			zap.Float64("cash", s.cash),
		)

		return s.finish(order, types.OrderStatusMarginRejected, types.OrderReasonInsufficient,
			errors.Newf(errors.ErrCodeMarginRejected, "buy of %f at %f plus commission %f exceeds cash %f", size, price, commission, s.cash))
	}

	s.cash = s.cash - cost - commission

	if s.position.IsFlat() {
		s.position = types.Position{Size: size, AverageEntryPrice: price}
	} else {
		newSize := s.position.Size + size
		s.position.AverageEntryPrice = (s.position.Size*s.position.AverageEntryPrice + cost) / newSize
		s.position.Size = newSize
	}

	if s.open == nil {
		s.open = &openTrade{entryBarIndex: index, entryTime: bar.Time}
	}

	s.open.commission += commission

	return s.complete(order, price, size, commission, bar, index)
}

func (s *Simulator) fillSell(order *types.Order, price float64, bar types.Bar, index int) types.OrderResult {
	size := order.RequestedSize

	if size > s.position.Size {
		if s.config.SellPolicy != SellPolicyClamp || s.position.IsFlat() {
			s.logger.Warn("Sell order exceeds position",
				zap.String("order_id", order.ID),
				zap.Float64("size", size),
				zap.Float64("position", s.position.Size),
			)

			return s.finish(order, types.OrderStatusRejected, types.OrderReasonOversell,
				errors.Newf(errors.ErrCodeInvalidOrder, "sell of %f exceeds position of %f", size, s.position.Size))
		}

		s.logger.Warn("Sell order clamped to position",
			zap.String("order_id", order.ID),
			zap.Float64("requested", size),
			zap.Float64("position", s.position.Size),
		)

		size = s.position.Size
	}

	proceeds := price * size
	commission := s.fee.Calculate(price, size)
	s.cash = s.cash + proceeds - commission

	s.open.commission += commission
	s.open.exitNotional += proceeds
	s.open.exitSize += size
	s.open.exits++
	s.open.lastExitPrice = price

	if size == s.position.Size {
		s.closeTrade(bar, index)
		s.position = types.Position{}
	} else {
		s.position.Size -= size
	}

	return s.complete(order, price, size, commission, bar, index)
}

func (s *Simulator) closeTrade(bar types.Bar, index int) {
	trade := types.NewTrade(s.position.AverageEntryPrice, s.open.exitPrice(), s.open.exitSize, s.open.commission)
	trade.EntryTime = s.open.entryTime
	trade.EntryBarIndex = s.open.entryBarIndex
	trade.ExitTime = bar.Time
	trade.ExitBarIndex = index
	trade.BarsHeld = index - s.open.entryBarIndex

	s.trades = append(s.trades, trade)
	s.open = nil

	s.logger.Debug("Trade closed",
		zap.Float64("entry_price", trade.EntryPrice),
		zap.Float64("exit_price", trade.ExitPrice),
		zap.Float64("net_pnl", trade.NetPnL),
		zap.Int("bars_held", trade.BarsHeld),
	)
}

func (s *Simulator) complete(order *types.Order, price, size, commission float64, bar types.Bar, index int) types.OrderResult {
	order.ExecutedPrice = price
	order.ExecutedSize = size
	order.CommissionPaid = commission
	order.ExecutedBarIndex = index
	order.ExecutedAt = bar.Time

	result := s.finish(order, types.OrderStatusCompleted, "", nil)

	s.logger.Debug("Order filled",
		zap.String("order_id", order.ID),
		zap.String("side", string(order.Side)),
		zap.Float64("price", price),
		zap.Float64("size", size),
		zap.Float64("commission", commission),
		zap.Float64("cash", s.cash),
	)

	return result
}

func (s *Simulator) finish(order *types.Order, status types.OrderStatus, reason string, cause error) types.OrderResult {
	if err := order.Transition(status); err != nil {
		return types.OrderResult{Order: *order, Err: err}
	}

	order.StatusReason = reason

	return types.OrderResult{Order: *order, Err: cause}
}

// MarkToMarket appends cash + size * close to the equity curve. It is called once per bar.
func (s *Simulator) MarkToMarket(bar types.Bar, index int) types.EquityPoint {
	point := types.EquityPoint{
		BarIndex:     index,
		Time:         bar.Time,
		Equity:       s.Equity(bar.Close),
		Cash:         s.cash,
		PositionSize: s.position.Size,
		Close:        bar.Close,
	}
	s.equity = append(s.equity, point)

	return point
}

// Equity values the portfolio at price.
func (s *Simulator) Equity(price float64) float64 {
	return s.cash + s.position.MarketValue(price)
}

func (s *Simulator) Cash() float64 {
	return s.cash
}

func (s *Simulator) Position() types.Position {
	return s.position
}

func (s *Simulator) HasOutstandingOrder() bool {
	return s.pending != nil
}

// Orders returns a copy of every order in submission order.
func (s *Simulator) Orders() []types.Order {
	out := make([]types.Order, len(s.orders))
	for i, o := range s.orders {
		out[i] = *o
	}

	return out
}

func (s *Simulator) Trades() []types.Trade {
	return slices.Clone(s.trades)
}

func (s *Simulator) EquityCurve() types.EquityCurve {
	return slices.Clone(s.equity)
}
