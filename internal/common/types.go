package common

type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) Valid() bool {
	switch s {
	case Buy, Sell:
		return true
	}
	return false
}

// Opposite returns the side an order of this side matches against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	}
	return "UNKNOWN"
}

type OrderType int

const (
	// Limit orders are an order to buy or sell at a specified price or better.
	// Limit orders may rest on the order book until filled.
	LimitOrder OrderType = iota
	// Market orders are instructions to buy or sell immediately at the best
	// available opposite prices. They never rest on the book.
	MarketOrder
)

func (t OrderType) Valid() bool {
	switch t {
	case LimitOrder, MarketOrder:
		return true
	}
	return false
}

func (t OrderType) String() string {
	switch t {
	case LimitOrder:
		return "LIMIT"
	case MarketOrder:
		return "MARKET"
	}
	return "UNKNOWN"
}
