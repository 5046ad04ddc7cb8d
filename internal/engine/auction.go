package engine

import (
	"cmp"
	. "orderbook/internal/common"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type Phase int

const (
	// Continuous matches every order on arrival.
	Continuous Phase = iota
	// PreOpen collects orders for the opening call auction without matching.
	PreOpen
)

func (p Phase) String() string {
	switch p {
	case Continuous:
		return "CONTINUOUS"
	case PreOpen:
		return "PRE_OPEN"
	}
	return "UNKNOWN"
}

// AuctionResult describes the uncrossing of a call auction. A zero Volume means
// no buy and sell interest overlapped and Price is meaningless.
type AuctionResult struct {
	Price      decimal.Decimal
	Volume     uint64 // Executable volume at Price.
	BuyVolume  uint64 // Buy interest priced at or above Price.
	SellVolume uint64 // Sell interest priced at or below Price.
	Trades     []Trade
}

// Imbalance is the unmatched interest at the auction price and the side it sits on.
func (r AuctionResult) Imbalance() (uint64, Side) {
	if r.BuyVolume >= r.SellVolume {
		return r.BuyVolume - r.SellVolume, Buy
	}
	return r.SellVolume - r.BuyVolume, Sell
}

// Auction holds the limit orders collected before the open, in arrival order.
type Auction struct {
	orders []*Order
}

func (auction *Auction) add(order *Order) {
	auction.orders = append(auction.orders, order)
}

func (auction *Auction) Len() int { return len(auction.orders) }

// total sums the quantity collected on a side.
func (auction *Auction) total(side Side) uint64 {
	var total uint64
	for _, order := range auction.orders {
		if order.Side == side {
			total += order.Quantity
		}
	}
	return total
}

// interest sums the buy quantity priced at or above price and the sell quantity
// priced at or below it.
func (auction *Auction) interest(price decimal.Decimal) (buy, sell uint64) {
	for _, order := range auction.orders {
		switch order.Side {
		case Buy:
			if order.LimitPrice.GreaterThanOrEqual(price) {
				buy += order.Quantity
			}
		case Sell:
			if order.LimitPrice.LessThanOrEqual(price) {
				sell += order.Quantity
			}
		}
	}
	return buy, sell
}

// Indicative finds the equilibrium price without executing anything: the price
// that maximises executable volume, then minimises imbalance, then is highest.
func (auction *Auction) Indicative() AuctionResult {
	prices := make([]decimal.Decimal, 0, len(auction.orders))
	for _, order := range auction.orders {
		prices = append(prices, order.LimitPrice)
	}
	slices.SortFunc(prices, func(a, b decimal.Decimal) int { return b.Cmp(a) })
	prices = slices.CompactFunc(prices, decimal.Decimal.Equal)

	var best AuctionResult
	var bestImbalance uint64
	for _, price := range prices {
		buy, sell := auction.interest(price)
		volume := min(buy, sell)
		if volume == 0 {
			continue
		}
		candidate := AuctionResult{Price: price, Volume: volume, BuyVolume: buy, SellVolume: sell}
		imbalance, _ := candidate.Imbalance()
		if volume > best.Volume || (volume == best.Volume && imbalance < bestImbalance) {
			best = candidate
			bestImbalance = imbalance
		}
	}
	return best
}

// uncross executes the equilibrium volume at a single price and returns the
// orders left with quantity, in arrival order. Executable volume is allocated in
// price-time priority on both sides; the later arrival of each pair is treated as
// the aggressor.
func (auction *Auction) uncross(now time.Time) (AuctionResult, []*Order) {
	result := auction.Indicative()
	if result.Volume > 0 {
		buys := auction.eligible(Buy, result.Price)
		sells := auction.eligible(Sell, result.Price)

		var i, j int
		for remaining := result.Volume; remaining > 0; {
			buy, sell := buys[i], sells[j]
			matchQty := min(buy.Quantity, sell.Quantity, remaining)

			incoming, resting := buy, sell
			if sell.Sequence > buy.Sequence {
				incoming, resting = sell, buy
			}
			result.Trades = append(result.Trades, NewTrade(incoming, resting, result.Price, matchQty, now))

			buy.Quantity -= matchQty
			sell.Quantity -= matchQty
			remaining -= matchQty
			if buy.Quantity == 0 {
				i++
			}
			if sell.Quantity == 0 {
				j++
			}
		}
	}

	residual := make([]*Order, 0, len(auction.orders))
	for _, order := range auction.orders {
		if order.Quantity > 0 {
			residual = append(residual, order)
		}
	}
	auction.orders = nil
	return result, residual
}

// eligible returns the orders on a side that can execute at price, best price
// first and oldest first within a price.
func (auction *Auction) eligible(side Side, price decimal.Decimal) []*Order {
	var orders []*Order
	for _, order := range auction.orders {
		if order.Side == side && order.Crosses(price) {
			orders = append(orders, order)
		}
	}
	slices.SortFunc(orders, func(a, b *Order) int {
		byPrice := a.LimitPrice.Cmp(b.LimitPrice)
		if side == Buy {
			byPrice = -byPrice
		}
		if byPrice != 0 {
			return byPrice
		}
		return cmp.Compare(a.Sequence, b.Sequence)
	})
	return orders
}
