// Package parser turns raw feed messages into orders.
//
// Message format, one order per line:
//
//	SIDE,KIND,PRICE,QTY
//	BUY,LIMIT,100.25,10
//	SELL,MARKET,,5
//
// Fields are case-insensitive and may carry surrounding whitespace. The
// price field is a decimal string converted to integer ticks at the
// market's price scale; for MARKET orders it may be empty or 0. Blank
// lines and lines starting with '#' are not orders (Skippable reports
// them) so feeds can carry comments.
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/uhyunpark/marketsim/pkg/core/market"
	"github.com/uhyunpark/marketsim/pkg/core/orderbook"
)

// ErrParse marks a malformed message. The submission boundary discards the
// message and keeps going; it never aborts the feed.
var ErrParse = errors.New("malformed message")

type Parser struct {
	mkt *market.Market
}

func New(mkt *market.Market) *Parser {
	return &Parser{mkt: mkt}
}

// Skippable reports lines that carry no order at all.
func Skippable(line string) bool {
	t := strings.TrimSpace(line)
	return t == "" || strings.HasPrefix(t, "#")
}

// Parse converts one raw message into an order. The returned order has no
// sequence number; the book assigns it at acceptance.
func (p *Parser) Parse(line string) (orderbook.Order, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 4 {
		return orderbook.Order{}, fmt.Errorf("%w: want 4 fields, got %d in %q", ErrParse, len(fields), line)
	}

	side, err := parseSide(strings.TrimSpace(fields[0]))
	if err != nil {
		return orderbook.Order{}, fmt.Errorf("%w: %v in %q", ErrParse, err, line)
	}
	kind, err := parseKind(strings.TrimSpace(fields[1]))
	if err != nil {
		return orderbook.Order{}, fmt.Errorf("%w: %v in %q", ErrParse, err, line)
	}

	var price int64
	if raw := strings.TrimSpace(fields[2]); kind == orderbook.Limit {
		price, err = p.mkt.ParsePrice(raw)
		if err != nil {
			return orderbook.Order{}, fmt.Errorf("%w: %v in %q", ErrParse, err, line)
		}
	} else if raw != "" && raw != "0" {
		// Tolerate a price on market orders but refuse garbage there.
		if _, err := p.mkt.ParsePrice(raw); err != nil {
			return orderbook.Order{}, fmt.Errorf("%w: %v in %q", ErrParse, err, line)
		}
	}

	qty, err := strconv.ParseInt(strings.TrimSpace(fields[3]), 10, 64)
	if err != nil {
		return orderbook.Order{}, fmt.Errorf("%w: bad quantity %q in %q", ErrParse, fields[3], line)
	}

	return orderbook.Order{Side: side, Kind: kind, Price: price, Qty: qty}, nil
}

func parseSide(s string) (orderbook.Side, error) {
	switch strings.ToUpper(s) {
	case "BUY", "B":
		return orderbook.Buy, nil
	case "SELL", "S":
		return orderbook.Sell, nil
	default:
		return 0, fmt.Errorf("unknown side %q", s)
	}
}

func parseKind(s string) (orderbook.Kind, error) {
	switch strings.ToUpper(s) {
	case "LIMIT", "L":
		return orderbook.Limit, nil
	case "MARKET", "M":
		return orderbook.Market, nil
	default:
		return 0, fmt.Errorf("unknown order kind %q", s)
	}
}
