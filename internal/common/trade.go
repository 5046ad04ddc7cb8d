package common

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Trade records one execution between an incoming (aggressor) order and a
// resting order. Trades are values and are never mutated after creation.
type Trade struct {
	ID         string
	Side       Side // Side of the aggressor
	Price      decimal.Decimal
	Quantity   uint64
	IncomingID uint64
	RestingID  uint64
	Timestamp  time.Time
}

// NewTrade stamps a trade with a fresh identifier.
func NewTrade(incoming, resting *Order, price decimal.Decimal, quantity uint64, at time.Time) Trade {
	return Trade{
		ID:         uuid.New().String(),
		Side:       incoming.Side,
		Price:      price,
		Quantity:   quantity,
		IncomingID: incoming.ID,
		RestingID:  resting.ID,
		Timestamp:  at,
	}
}

func (t Trade) String() string {
	return fmt.Sprintf("Executed: %v %d units at %s (incoming: %d, resting: %d)",
		t.Side,
		t.Quantity,
		t.Price.String(),
		t.IncomingID,
		t.RestingID,
	)
}
