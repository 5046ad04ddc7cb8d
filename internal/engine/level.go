package engine

import (
	. "orderbook/internal/common"

	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"
)

// PriceLevel is the FIFO queue of resting orders sharing one price. Orders are
// push-back'd on arrival, so the head is always the oldest.
type PriceLevel struct {
	priceLevel decimal.Decimal
	orders     []*Order
	volume     uint64 // Sum of the remaining quantity of orders.
}

func newPriceLevel(price decimal.Decimal) *PriceLevel {
	return &PriceLevel{priceLevel: price}
}

func (level *PriceLevel) Price() decimal.Decimal { return level.priceLevel }
func (level *PriceLevel) Volume() uint64 { return level.volume }
func (level *PriceLevel) Len() int { return len(level.orders) }
func (level *PriceLevel) Empty() bool { return len(level.orders) == 0 }

func (level *PriceLevel) push(order *Order) {
	level.orders = append(level.orders, order)
	level.volume += order.Quantity
}

// head returns the oldest resting order.
func (level *PriceLevel) head() *Order {
	if len(level.orders) == 0 {
		return nil
	}
	return level.orders[0]
}

// fill takes quantity off the head order and pops it once it is exhausted.
func (level *PriceLevel) fill(quantity uint64) {
	head := level.orders[0]
	head.Quantity -= quantity
	level.volume -= quantity
	if head.Quantity == 0 {
		level.orders[0] = nil
		level.orders = level.orders[1:]
	}
}

// PriceLevels is one side of the book, sorted best price first.
type PriceLevels = btree.BTreeG[*PriceLevel]

func newPriceLevels(side Side) *PriceLevels {
	opts := btree.Options{NoLocks: true}
	if side == Buy {
		// Sorted greatest first.
		return btree.NewBTreeGOptions(func(a, b *PriceLevel) bool {
			return a.priceLevel.GreaterThan(b.priceLevel)
		}, opts)
	}
	// Sorted least first.
	return btree.NewBTreeGOptions(func(a, b *PriceLevel) bool {
		return a.priceLevel.LessThan(b.priceLevel)
	}, opts)
}

// FlatPriceLevel is a detached copy of a price level, used to inspect book
// state without holding references into it.
type FlatPriceLevel struct {
	PriceLevel decimal.Decimal
	Orders     []Order
}

// FlattenLevels copies levels into their flat representation, keeping order.
func FlattenLevels(levels []*PriceLevel) []FlatPriceLevel {
	flat := make([]FlatPriceLevel, 0, len(levels))
	for _, level := range levels {
		orders := make([]Order, len(level.orders))
		for i, order := range level.orders {
			orders[i] = *order
		}
		flat = append(flat, FlatPriceLevel{
			PriceLevel: level.priceLevel,
			Orders:     orders,
		})
	}
	return flat
}
