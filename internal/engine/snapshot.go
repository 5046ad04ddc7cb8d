package engine

import (
	"fmt"
	. "orderbook/internal/common"
	"strings"

	"github.com/shopspring/decimal"
)

// Quote is a price and the aggregate resting size at that price.
type Quote struct {
	Price decimal.Decimal
	Size  uint64
}

// Top is the top of book. A nil quote means the side is empty, and the spread is
// only valid when both sides are present.
type Top struct {
	BestBid *Quote
	BestAsk *Quote
	Spread  decimal.NullDecimal
}

type DepthLevel struct {
	Price  decimal.Decimal
	Size   uint64 // Aggregate resting size.
	Orders int    // Number of resting orders.
}

// Depth holds both sides of the book in priority order.
type Depth struct {
	Bids []DepthLevel
	Asks []DepthLevel
}

func (book *OrderBook) best(side Side) (Quote, bool) {
	level, ok := book.levels(side).Min()
	if !ok {
		return Quote{}, false
	}
	return Quote{Price: level.priceLevel, Size: level.volume}, true
}

// BestBid returns the highest bid, or false when there are no bids.
func (book *OrderBook) BestBid() (Quote, bool) { return book.best(Buy) }

// BestAsk returns the lowest ask, or false when there are no asks.
func (book *OrderBook) BestAsk() (Quote, bool) { return book.best(Sell) }

// Spread is best ask minus best bid. It is not valid if either side is empty.
func (book *OrderBook) Spread() decimal.NullDecimal {
	bid, bidOk := book.BestBid()
	ask, askOk := book.BestAsk()
	if !bidOk || !askOk {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(ask.Price.Sub(bid.Price))
}

func (book *OrderBook) Top() Top {
	var top Top
	if bid, ok := book.BestBid(); ok {
		top.BestBid = &bid
	}
	if ask, ok := book.BestAsk(); ok {
		top.BestAsk = &ask
	}
	top.Spread = book.Spread()
	return top
}

// Depth aggregates up to maxLevels price levels per side. A non-positive
// maxLevels returns every level.
func (book *OrderBook) Depth(maxLevels int) Depth {
	return Depth{
		Bids: depthOf(book.bids, maxLevels),
		Asks: depthOf(book.asks, maxLevels),
	}
}

func depthOf(levels *PriceLevels, maxLevels int) []DepthLevel {
	n := levels.Len()
	if maxLevels > 0 {
		n = min(n, maxLevels)
	}
	depth := make([]DepthLevel, 0, n)
	levels.Scan(func(level *PriceLevel) bool {
		if len(depth) == n {
			return false
		}
		depth = append(depth, DepthLevel{
			Price:  level.priceLevel,
			Size:   level.volume,
			Orders: len(level.orders),
		})
		return true
	})
	return depth
}

// String renders the ladder with the sell side on top, worst ask first, so the
// two best prices meet in the middle.
func (d Depth) String() string {
	var sb strings.Builder

	sb.WriteString("Sell side:\n")
	if len(d.Asks) == 0 {
		sb.WriteString("EMPTY\n")
	}
	for i := len(d.Asks) - 1; i >= 0; i-- {
		fmt.Fprintf(&sb, "%d) Price=%s, Total units=%d\n", i+1, d.Asks[i].Price, d.Asks[i].Size)
	}

	sb.WriteString("Buy side:\n")
	if len(d.Bids) == 0 {
		sb.WriteString("EMPTY\n")
	}
	for i, level := range d.Bids {
		fmt.Fprintf(&sb, "%d) Price=%s, Total units=%d\n", i+1, level.Price, level.Size)
	}

	return sb.String()
}
