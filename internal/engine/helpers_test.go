package engine_test

import (
	. "orderbook/internal/common"
	"orderbook/internal/engine"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Setup & Helpers --------------------------------------------------------

var testEpoch = time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)

type MockReporter struct {
	trades []Trade
}

func (r *MockReporter) ReportTrade(trade Trade) error {
	r.trades = append(r.trades, trade)
	return nil
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// createTestEngine builds an engine on a clock that ticks one microsecond per
// read, so timestamps are deterministic.
func createTestEngine(opts ...engine.Option) (*engine.Engine, *MockReporter) {
	now := testEpoch
	clock := func() time.Time {
		now = now.Add(time.Microsecond)
		return now
	}
	eng := engine.New(append([]engine.Option{engine.WithClock(clock)}, opts...)...)
	reporter := &MockReporter{}
	eng.SetReporter(reporter)
	return eng, reporter
}

func placeTestOrders(t *testing.T, eng *engine.Engine, limit string, side Side, quantities ...uint64) []engine.Result {
	t.Helper()
	results := make([]engine.Result, 0, len(quantities))
	for _, qty := range quantities {
		result, err := eng.Submit(NewLimit(side, price(limit), qty))
		require.NoError(t, err)
		results = append(results, result)
	}
	return results
}

type Quantity struct {
	quantity      uint64
	totalQuantity uint64
}

// newQuantity creates a quantity with regular and total the same value.
func newQuantity(quantity uint64) Quantity {
	return Quantity{quantity, quantity}
}

type expectedLevel struct {
	Price      string
	Quantities []Quantity
}

func buildExpectedLevel(limit string, quantities ...Quantity) expectedLevel {
	return expectedLevel{Price: price(limit).String(), Quantities: quantities}
}

// levelsOf reduces book levels to prices and order quantities so they can be
// compared against expectations.
func levelsOf(levels []*engine.PriceLevel) []expectedLevel {
	summary := []expectedLevel{}
	for _, level := range engine.FlattenLevels(levels) {
		quantities := make([]Quantity, len(level.Orders))
		for i, order := range level.Orders {
			quantities[i] = Quantity{order.Quantity, order.TotalQuantity}
		}
		summary = append(summary, expectedLevel{
			Price:      level.PriceLevel.String(),
			Quantities: quantities,
		})
	}
	return summary
}

// assertBookConsistent checks the invariants that must hold between any two
// submissions: the book is not crossed, every level is non-empty with positive
// orders summing to its volume, and side bookkeeping matches the levels.
func assertBookConsistent(t *testing.T, book *engine.OrderBook) {
	t.Helper()

	bid, bidOk := book.BestBid()
	ask, askOk := book.BestAsk()
	if bidOk && askOk {
		assert.True(t, bid.Price.LessThan(ask.Price), "book crossed: bid %s ask %s", bid.Price, ask.Price)
	}

	for side, levels := range map[Side][]*engine.PriceLevel{Buy: book.Bids(), Sell: book.Asks()} {
		var liquidity, orders uint64
		for _, level := range engine.FlattenLevels(levels) {
			require.NotEmpty(t, level.Orders, "empty %v level %s retained", side, level.PriceLevel)
			var sum uint64
			for i, order := range level.Orders {
				assert.Positive(t, order.Quantity, "filled order retained at %s", level.PriceLevel)
				assert.True(t, order.LimitPrice.Equal(level.PriceLevel))
				assert.Equal(t, side, order.Side)
				if i > 0 {
					assert.Less(t, level.Orders[i-1].Sequence, order.Sequence, "level not in arrival order")
				}
				sum += order.Quantity
			}
			liquidity += sum
			orders += uint64(len(level.Orders))
		}
		assert.Equal(t, liquidity, book.Liquidity(side))
		assert.Equal(t, orders, book.OrderCount(side))
	}

	depth := book.Depth(0)
	for i, level := range book.Bids() {
		assert.Equal(t, level.Volume(), depth.Bids[i].Size)
	}
	for i, level := range book.Asks() {
		assert.Equal(t, level.Volume(), depth.Asks[i].Size)
	}
}
