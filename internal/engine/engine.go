package engine

import (
	"errors"
	"fmt"
	"math/bits"
	. "orderbook/internal/common"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidOrder       = errors.New("invalid order")
	ErrNotEnoughLiquidity = errors.New("not enough liquidity")
	ErrAuctionClosed      = errors.New("call auction is closed")
)

// MarketPolicy decides what happens to the part of a market order the book
// cannot fill. Market orders never rest.
type MarketPolicy int

const (
	// DropRemainder fills what it can and cancels the rest.
	DropRemainder MarketPolicy = iota
	// RejectInsufficient rejects the order up front when the opposite side does
	// not hold enough liquidity to fill it completely.
	RejectInsufficient
)

// Reporter receives every trade the engine executes, in execution order.
type Reporter interface {
	ReportTrade(trade Trade) error
}

// ReporterFunc adapts a plain function to a Reporter.
type ReporterFunc func(trade Trade) error

func (f ReporterFunc) ReportTrade(trade Trade) error { return f(trade) }

type nopReporter struct{}

func (nopReporter) ReportTrade(Trade) error { return nil }

// Result is the outcome of submitting one order.
type Result struct {
	OrderID uint64
	Trades  []Trade
	// Resting is the quantity left waiting: in the book, or in the call auction
	// before the open.
	Resting uint64
	// Cancelled is the market order quantity dropped for lack of liquidity.
	Cancelled uint64
}

// Filled sums the quantity executed across the trades.
func (r Result) Filled() uint64 {
	var filled uint64
	for _, trade := range r.Trades {
		filled += trade.Quantity
	}
	return filled
}

type Option func(*Engine)

// WithTickSize only accepts limit prices that are whole multiples of tick. A zero
// or negative tick leaves prices unchecked.
func WithTickSize(tick decimal.Decimal) Option {
	return func(engine *Engine) {
		if !tick.IsPositive() {
			engine.tickSize = decimal.Zero
			return
		}
		engine.tickSize = tick
	}
}

func WithMarketPolicy(policy MarketPolicy) Option {
	return func(engine *Engine) {
		engine.marketPolicy = policy
	}
}

// WithCallAuction starts the engine pre-open. Orders are collected until Open.
func WithCallAuction() Option {
	return func(engine *Engine) {
		engine.phase = PreOpen
		engine.auction = &Auction{}
	}
}

func WithClock(now func() time.Time) Option {
	return func(engine *Engine) {
		engine.now = now
	}
}

// Engine is the matching engine for a single book. It is a plain logic object:
// calls must be serialised by the owner, see Worker.
type Engine struct {
	book     *OrderBook
	auction  *Auction
	phase    Phase
	reporter Reporter

	lastID       uint64
	lastSequence uint64

	tickSize     decimal.Decimal
	marketPolicy MarketPolicy
	now          func() time.Time
}

func New(opts ...Option) *Engine {
	engine := &Engine{
		book:     NewOrderBook(),
		phase:    Continuous,
		reporter: nopReporter{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

func (engine *Engine) SetReporter(reporter Reporter) {
	if reporter == nil {
		reporter = nopReporter{}
	}
	engine.reporter = reporter
}

// Book exposes the order book for read-only inspection.
func (engine *Engine) Book() *OrderBook { return engine.book }

func (engine *Engine) Phase() Phase { return engine.phase }

// Submit accepts an order and matches it against the book in price-time
// priority. The submitted size is order.Quantity; identifiers, sequencing and
// timestamps are assigned here and any caller supplied values are overwritten.
//
// An invalid order is rejected before anything is mutated, and does not consume
// an order id.
func (engine *Engine) Submit(order Order) (Result, error) {
	if err := engine.validate(order); err != nil {
		log.Warn().
			Err(err).
			Stringer("side", order.Side).
			Stringer("type", order.OrderType).
			Uint64("quantity", order.Quantity).
			Msg("order rejected")
		return Result{}, err
	}

	o := engine.sequence(order)
	if engine.phase == PreOpen {
		engine.auction.add(o)
		return Result{OrderID: o.ID, Resting: o.Quantity}, nil
	}

	trades, rested := engine.book.place(o, o.Timestamp)
	result := Result{OrderID: o.ID, Trades: trades}
	if rested {
		result.Resting = o.Quantity
	} else if o.Quantity > 0 {
		result.Cancelled = o.Quantity
		log.Info().
			Uint64("order_id", o.ID).
			Uint64("cancelled", o.Quantity).
			Msg("market order remainder cancelled")
	}
	engine.report(trades)
	return result, nil
}

func (engine *Engine) validate(order Order) error {
	if !order.Side.Valid() {
		return fmt.Errorf("%w: unknown side %d", ErrInvalidOrder, int(order.Side))
	}
	if order.Quantity == 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidOrder)
	}

	switch order.OrderType {
	case LimitOrder:
		if !order.LimitPrice.IsPositive() {
			return fmt.Errorf("%w: limit price must be positive, got %s", ErrInvalidOrder, order.LimitPrice)
		}
		if engine.tickSize.IsPositive() && !order.LimitPrice.Mod(engine.tickSize).IsZero() {
			return fmt.Errorf("%w: price %s is not a multiple of tick size %s",
				ErrInvalidOrder, order.LimitPrice, engine.tickSize)
		}
		// Level volumes and side totals are bounded by the side's resting quantity.
		if _, carry := bits.Add64(engine.restingQuantity(order.Side), order.Quantity, 0); carry != 0 {
			return fmt.Errorf("%w: quantity %d overflows the %s side total",
				ErrInvalidOrder, order.Quantity, order.Side)
		}
	case MarketOrder:
		if engine.phase == PreOpen {
			return fmt.Errorf("%w: market orders cannot join the call auction", ErrInvalidOrder)
		}
		if engine.marketPolicy == RejectInsufficient &&
			engine.book.Liquidity(order.Side.Opposite()) < order.Quantity {
			return ErrNotEnoughLiquidity
		}
	default:
		return fmt.Errorf("%w: unknown order type %d", ErrInvalidOrder, int(order.OrderType))
	}
	return nil
}

// restingQuantity is the quantity already waiting on a side, in the auction
// before the open and in the book after it.
func (engine *Engine) restingQuantity(side Side) uint64 {
	if engine.phase == PreOpen {
		return engine.auction.total(side)
	}
	return engine.book.Liquidity(side)
}

// sequence stamps an accepted order with its id, arrival sequence and time.
func (engine *Engine) sequence(order Order) *Order {
	engine.lastID++
	engine.lastSequence++

	order.ID = engine.lastID
	order.Sequence = engine.lastSequence
	order.TotalQuantity = order.Quantity
	order.Timestamp = engine.now()
	if order.OrderType == MarketOrder {
		order.LimitPrice = decimal.Zero
	}
	return &order
}

func (engine *Engine) report(trades []Trade) {
	for _, trade := range trades {
		log.Debug().
			Str("trade_id", trade.ID).
			Stringer("side", trade.Side).
			Str("price", trade.Price.String()).
			Uint64("quantity", trade.Quantity).
			Uint64("incoming_id", trade.IncomingID).
			Uint64("resting_id", trade.RestingID).
			Msg("trade")
		if err := engine.reporter.ReportTrade(trade); err != nil {
			log.Error().Err(err).Str("trade_id", trade.ID).Msg("unable to report trade")
		}
	}
}

// ---- Queries ----

func (engine *Engine) BestBid() (Quote, bool) { return engine.book.BestBid() }
func (engine *Engine) BestAsk() (Quote, bool) { return engine.book.BestAsk() }
func (engine *Engine) Spread() decimal.NullDecimal { return engine.book.Spread() }
func (engine *Engine) Top() Top { return engine.book.Top() }
func (engine *Engine) Depth(maxLevels int) Depth { return engine.book.Depth(maxLevels) }

// ---- Call auction ----

// Indicative returns the price the book would open at if Open were called now.
func (engine *Engine) Indicative() (AuctionResult, error) {
	if engine.phase != PreOpen {
		return AuctionResult{}, ErrAuctionClosed
	}
	return engine.auction.Indicative(), nil
}

// Open uncrosses the call auction at its equilibrium price and moves the engine
// to continuous matching. Orders left over enter the book in arrival order.
func (engine *Engine) Open() (AuctionResult, error) {
	if engine.phase != PreOpen {
		return AuctionResult{}, ErrAuctionClosed
	}

	now := engine.now()
	collected := engine.auction.Len()
	result, residual := engine.auction.uncross(now)
	engine.auction = nil
	engine.phase = Continuous

	for _, order := range residual {
		trades, _ := engine.book.place(order, now)
		result.Trades = append(result.Trades, trades...)
	}
	engine.report(result.Trades)

	log.Info().
		Int("orders", collected).
		Str("price", result.Price.String()).
		Uint64("volume", result.Volume).
		Int("trades", len(result.Trades)).
		Msg("call auction opened")
	return result, nil
}
