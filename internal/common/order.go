package common

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID            uint64          // Engine assigned, strictly increasing
	Sequence      uint64          // Arrival sequence used for time priority
	OrderType     OrderType       //
	Side          Side            // Order side
	LimitPrice    decimal.Decimal // Limiting price, unused by market orders
	Quantity      uint64          // Remaining quantity
	TotalQuantity uint64          // Total volume requested
	Timestamp     time.Time       // Time of arrival of order into the engine
}

// NewLimit builds an unsequenced limit order ready for submission.
func NewLimit(side Side, price decimal.Decimal, quantity uint64) Order {
	return Order{
		OrderType:     LimitOrder,
		Side:          side,
		LimitPrice:    price,
		Quantity:      quantity,
		TotalQuantity: quantity,
	}
}

// NewMarket builds an unsequenced market order ready for submission.
func NewMarket(side Side, quantity uint64) Order {
	return Order{
		OrderType:     MarketOrder,
		Side:          side,
		Quantity:      quantity,
		TotalQuantity: quantity,
	}
}

// Crosses reports whether the order is marketable against a resting price on
// the opposite side. Market orders cross any price.
func (order *Order) Crosses(price decimal.Decimal) bool {
	if order.OrderType == MarketOrder {
		return true
	}
	switch order.Side {
	case Buy:
		return order.LimitPrice.GreaterThanOrEqual(price)
	case Sell:
		return order.LimitPrice.LessThanOrEqual(price)
	}
	return false
}

// Filled is the quantity executed so far.
func (order *Order) Filled() uint64 {
	return order.TotalQuantity - order.Quantity
}

func (order Order) String() string {
	price := "MarketPrice"
	if order.OrderType == LimitOrder {
		price = order.LimitPrice.String()
	}
	return fmt.Sprintf(
		`ID:            %d
Sequence:      %d
OrderType:     %v
Side:          %v
LimitPrice:    %s
Quantity:      %d (Total: %d)
Timestamp:     %v`,
		order.ID,
		order.Sequence,
		order.OrderType,
		order.Side,
		price,
		order.Quantity,
		order.TotalQuantity,
		order.Timestamp.Format(time.RFC3339Nano),
	)
}
