// Package feed turns caller input into orders for the engine: order files in CSV
// form and single command lines typed at a prompt.
package feed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"orderbook/internal/common"

	"github.com/shopspring/decimal"
)

var ErrMalformedLine = errors.New("malformed order line")

// ParseSide accepts "buy"/"sell" (any case) as well as the numeric 0/1 form.
func ParseSide(s string) (common.Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy", "b", "0":
		return common.Buy, nil
	case "sell", "s", "1":
		return common.Sell, nil
	}
	return 0, fmt.Errorf("%w: unknown side %q", ErrMalformedLine, s)
}

func ParseOrderType(s string) (common.OrderType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "limit", "l":
		return common.LimitOrder, nil
	case "market", "m":
		return common.MarketOrder, nil
	}
	return 0, fmt.Errorf("%w: unknown order type %q", ErrMalformedLine, s)
}

// parseFields builds an order from side, type, quantity and a price. The price
// is required for limit orders and must be empty or absent for market orders.
// Range checks (positive quantity, positive price) are left to the engine.
func parseFields(fields []string) (common.Order, error) {
	if len(fields) < 3 || len(fields) > 4 {
		return common.Order{}, fmt.Errorf("%w: want side, type, quantity [, price], got %d fields",
			ErrMalformedLine, len(fields))
	}

	side, err := ParseSide(fields[0])
	if err != nil {
		return common.Order{}, err
	}
	orderType, err := ParseOrderType(fields[1])
	if err != nil {
		return common.Order{}, err
	}
	qty, err := strconv.ParseUint(strings.TrimSpace(fields[2]), 10, 64)
	if err != nil {
		return common.Order{}, fmt.Errorf("%w: quantity %q: %w", ErrMalformedLine, fields[2], err)
	}

	if orderType == common.MarketOrder {
		if len(fields) == 4 && strings.TrimSpace(fields[3]) != "" {
			return common.Order{}, fmt.Errorf("%w: market order takes no price", ErrMalformedLine)
		}
		return common.NewMarket(side, qty), nil
	}

	if len(fields) < 4 || strings.TrimSpace(fields[3]) == "" {
		return common.Order{}, fmt.Errorf("%w: limit order needs a price", ErrMalformedLine)
	}
	price, err := decimal.NewFromString(strings.TrimSpace(fields[3]))
	if err != nil {
		return common.Order{}, fmt.Errorf("%w: price %q: %w", ErrMalformedLine, fields[3], err)
	}
	return common.NewLimit(side, price, qty), nil
}

// ParseLine reads a whitespace separated order, e.g. "buy limit 10 12.23" or
// "sell market 5".
func ParseLine(line string) (common.Order, error) {
	return parseFields(strings.Fields(line))
}

// ReadCSV reads orders with the columns side,type,quantity,price. A header row
// is skipped when present, and price may be left empty for market orders.
func ReadCSV(r io.Reader) ([]common.Order, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	var orders []common.Order
	for first := true; ; first = false {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return orders, nil
		}
		if err != nil {
			return nil, err
		}
		if first && isHeader(record) {
			continue
		}

		order, err := parseFields(record)
		if err != nil {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		orders = append(orders, order)
	}
}

func isHeader(record []string) bool {
	return len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "side")
}
