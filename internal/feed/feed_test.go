package feed

import (
	"strings"
	"testing"

	"orderbook/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	order, err := ParseLine("buy limit 10 12.23")
	require.NoError(t, err)
	assert.Equal(t, common.Buy, order.Side)
	assert.Equal(t, common.LimitOrder, order.OrderType)
	assert.Equal(t, uint64(10), order.Quantity)
	assert.Equal(t, "12.23", order.LimitPrice.String())

	order, err = ParseLine("  SELL   Market 5 ")
	require.NoError(t, err)
	assert.Equal(t, common.Sell, order.Side)
	assert.Equal(t, common.MarketOrder, order.OrderType)
	assert.Equal(t, uint64(5), order.Quantity)
	assert.True(t, order.LimitPrice.IsZero())

	// Numeric sides as the original prompt accepted them.
	order, err = ParseLine("1 l 3 99.5")
	require.NoError(t, err)
	assert.Equal(t, common.Sell, order.Side)

	// Range checks belong to the engine; a zero quantity still parses.
	order, err = ParseLine("buy limit 0 50")
	require.NoError(t, err)
	assert.Zero(t, order.Quantity)
}

func TestParseLine_Malformed(t *testing.T) {
	for _, line := range []string{
		"",
		"buy limit",
		"hold limit 10 12",
		"buy stop 10 12",
		"buy limit ten 12",
		"buy limit -5 12",
		"buy limit 10",
		"buy limit 10 twelve",
		"buy limit 10 12.23 junk",
		"sell market 5 10",
	} {
		_, err := ParseLine(line)
		assert.ErrorIs(t, err, ErrMalformedLine, "line %q", line)
	}
}

func TestReadCSV(t *testing.T) {
	input := `side,type,quantity,price
buy,limit,10,12.23
# comment rows are skipped
sell, limit, 5, 13.55
buy,market,4,
`
	orders, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, orders, 3)

	assert.Equal(t, common.NewLimit(common.Buy, orders[0].LimitPrice, 10), orders[0])
	assert.Equal(t, "12.23", orders[0].LimitPrice.String())
	assert.Equal(t, common.Sell, orders[1].Side)
	assert.Equal(t, "13.55", orders[1].LimitPrice.String())
	assert.Equal(t, common.NewMarket(common.Buy, 4), orders[2])
}

func TestReadCSV_WithoutHeader(t *testing.T) {
	orders, err := ReadCSV(strings.NewReader("sell,market,3\n"))
	require.NoError(t, err)
	assert.Equal(t, []common.Order{common.NewMarket(common.Sell, 3)}, orders)
}

func TestReadCSV_ReportsLine(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("buy,limit,1,10\nbuy,limit,2\n"))
	assert.ErrorIs(t, err, ErrMalformedLine)
	assert.ErrorContains(t, err, "line 2")
}

func TestReadCSV_RejectsExtraColumns(t *testing.T) {
	for _, input := range []string{
		"buy,limit,10,12.23,extra\n",
		"sell,market,3,9.5\n",
	} {
		_, err := ReadCSV(strings.NewReader(input))
		assert.ErrorIs(t, err, ErrMalformedLine, "input %q", input)
		assert.ErrorContains(t, err, "line 1")
	}
}
