package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uhyunpark/marketsim/pkg/core/market"
	"github.com/uhyunpark/marketsim/pkg/core/orderbook"
)

func TestParseValidMessages(t *testing.T) {
	p := New(market.NewWithDefaults("SIM-USD"))

	tests := []struct {
		line string
		want orderbook.Order
	}{
		{"BUY,LIMIT,100.25,10", orderbook.Order{Side: orderbook.Buy, Kind: orderbook.Limit, Price: 10025, Qty: 10}},
		{"SELL,LIMIT,99,3", orderbook.Order{Side: orderbook.Sell, Kind: orderbook.Limit, Price: 9900, Qty: 3}},
		{"SELL,MARKET,,5", orderbook.Order{Side: orderbook.Sell, Kind: orderbook.Market, Qty: 5}},
		{"BUY,MARKET,0,7", orderbook.Order{Side: orderbook.Buy, Kind: orderbook.Market, Qty: 7}},
		{"buy,limit,100.25,10", orderbook.Order{Side: orderbook.Buy, Kind: orderbook.Limit, Price: 10025, Qty: 10}},
		{" B , L , 100.25 , 10 ", orderbook.Order{Side: orderbook.Buy, Kind: orderbook.Limit, Price: 10025, Qty: 10}},
		{"S,M,,2", orderbook.Order{Side: orderbook.Sell, Kind: orderbook.Market, Qty: 2}},
	}
	for _, tt := range tests {
		got, err := p.Parse(tt.line)
		require.NoErrorf(t, err, "line %q", tt.line)
		assert.Equalf(t, tt.want, got, "line %q", tt.line)
	}
}

func TestParseMalformedMessages(t *testing.T) {
	p := New(market.NewWithDefaults("SIM-USD"))

	lines := []string{
		"BUY,LIMIT,100.25",        // missing qty
		"BUY,LIMIT,100.25,10,xx",  // extra field
		"HOLD,LIMIT,100.25,10",    // bad side
		"BUY,STOP,100.25,10",      // bad kind
		"BUY,LIMIT,abc,10",        // bad price
		"BUY,LIMIT,100.255,10",    // sub-tick price
		"BUY,LIMIT,,10",           // limit without price
		"BUY,LIMIT,100.25,ten",    // bad qty
		"BUY,MARKET,garbage,5",    // garbage price on market order
	}
	for _, line := range lines {
		_, err := p.Parse(line)
		assert.ErrorIsf(t, err, ErrParse, "line %q", line)
	}
}

func TestParseDoesNotValidateSemantics(t *testing.T) {
	// Negative quantity is syntactically fine; the book rejects it.
	p := New(market.NewWithDefaults("SIM-USD"))
	got, err := p.Parse("BUY,LIMIT,100.25,-4")
	require.NoError(t, err)
	assert.Equal(t, int64(-4), got.Qty)
}

func TestSkippable(t *testing.T) {
	assert.True(t, Skippable(""))
	assert.True(t, Skippable("   "))
	assert.True(t, Skippable("# a comment"))
	assert.True(t, Skippable("  # indented comment"))
	assert.False(t, Skippable("BUY,LIMIT,100.25,10"))
}
