package engine

import (
	. "orderbook/internal/common"
	"time"
)

type OrderBook struct {
	// Price levels to orders sat on the price level, sorted by time added
	// as they will be push-back'd.
	bids *PriceLevels
	asks *PriceLevels

	// Some book keeping
	nBuyOrders   uint64 // Track the number of bids in the book.
	nSellOrders  uint64 // Track the number of asks in the book.
	buyQuantity  uint64 // Track the bid-side liquidity of the book.
	sellQuantity uint64 // Track the ask-side liquidity of the book.
}

func NewOrderBook() *OrderBook {
	return &OrderBook{
		bids: newPriceLevels(Buy),
		asks: newPriceLevels(Sell),
	}
}

// Bids returns the bid levels, best (highest) first.
func (book *OrderBook) Bids() []*PriceLevel { return book.bids.Items() }

// Asks returns the ask levels, best (lowest) first.
func (book *OrderBook) Asks() []*PriceLevel { return book.asks.Items() }

func (book *OrderBook) levels(side Side) *PriceLevels {
	if side == Buy {
		return book.bids
	}
	return book.asks
}

// Liquidity is the total resting quantity on a side.
func (book *OrderBook) Liquidity(side Side) uint64 {
	if side == Buy {
		return book.buyQuantity
	}
	return book.sellQuantity
}

// OrderCount is the number of resting orders on a side.
func (book *OrderBook) OrderCount(side Side) uint64 {
	if side == Buy {
		return book.nBuyOrders
	}
	return book.nSellOrders
}

// place runs a matching pass for the incoming order and rests any limit
// remainder on its own side. It reports whether the order now rests in the book.
//
// The order must already be validated and sequenced. A market order remainder is
// left on the order for the caller to account for; it never rests.
func (book *OrderBook) place(order *Order, now time.Time) ([]Trade, bool) {
	trades := book.match(order, now)
	if order.Quantity == 0 || order.OrderType == MarketOrder {
		return trades, false
	}
	book.rest(order)
	return trades, true
}

// match consumes the opposite side best level first while it crosses the incoming
// order. Within a level resting orders are filled oldest first, and every fill
// executes at the resting order's price.
func (book *OrderBook) match(order *Order, now time.Time) []Trade {
	var trades []Trade
	levels := book.levels(order.Side.Opposite())
	for order.Quantity > 0 {
		// Min here accounts for bids and asks being in inverse order, based on
		// their comparison method.
		level, ok := levels.MinMut()
		if !ok || !order.Crosses(level.priceLevel) {
			break
		}

		for order.Quantity > 0 && !level.Empty() {
			resting := level.head()
			matchQty := min(order.Quantity, resting.Quantity)
			order.Quantity -= matchQty

			trades = append(trades, NewTrade(order, resting, level.priceLevel, matchQty, now))
			level.fill(matchQty)
			book.lift(resting.Side, matchQty, resting.Quantity == 0)
		}

		// Full consumption case (i.e. empty level).
		if level.Empty() {
			levels.Delete(level)
		}
	}
	return trades
}

// rest appends the order to the tail of its price level, creating the level if
// it does not exist.
func (book *OrderBook) rest(order *Order) {
	levels := book.levels(order.Side)

	// Levels comparator only accounts for price levels, so we create a dummy price
	// level for the search.
	level, ok := levels.GetMut(&PriceLevel{priceLevel: order.LimitPrice})
	if !ok {
		level = newPriceLevel(order.LimitPrice)
		levels.Set(level)
	}
	level.push(order)

	switch order.Side {
	case Buy:
		book.nBuyOrders++
		book.buyQuantity += order.Quantity
	case Sell:
		book.nSellOrders++
		book.sellQuantity += order.Quantity
	}
}

// lift takes filled quantity off a side's bookkeeping.
func (book *OrderBook) lift(side Side, quantity uint64, consumed bool) {
	switch side {
	case Buy:
		book.buyQuantity -= quantity
		if consumed {
			book.nBuyOrders--
		}
	case Sell:
		book.sellQuantity -= quantity
		if consumed {
			book.nSellOrders--
		}
	}
}
