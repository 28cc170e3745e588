package market

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Status defines the trading status of a market
type Status int8

const (
	Active Status = iota // Trading enabled
	Paused               // Trading halted
)

func (s Status) String() string {
	switch s {
	case Active:
		return "Active"
	case Paused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// Market defines the parameters of one simulated instrument.
//
// Prices are stored as integer ticks: a price of 100.25 with PriceScale=2
// is the tick value 10025. Quantities are plain integer lots.
type Market struct {
	Symbol string
	Status Status

	// PriceScale: decimal digits of the minor unit (2 = cents).
	// All prices are stored as integer multiples of 10^-PriceScale.
	PriceScale int32

	// Order size bounds in lots. MaxQty guards against fat-finger feeds.
	MinQty int64
	MaxQty int64
}

// New creates a market with validation.
func New(symbol string, priceScale int32, minQty, maxQty int64) (*Market, error) {
	m := &Market{
		Symbol:     symbol,
		Status:     Active,
		PriceScale: priceScale,
		MinQty:     minQty,
		MaxQty:     maxQty,
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid market params: %w", err)
	}
	return m, nil
}

// NewWithDefaults creates a market with sensible simulator defaults.
func NewWithDefaults(symbol string) *Market {
	m, err := New(symbol, 2, 1, 1_000_000)
	if err != nil {
		panic(err) // defaults are statically valid
	}
	return m
}

// Validate checks market parameter sanity
func (m *Market) Validate() error {
	if m.Symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if m.PriceScale < 0 || m.PriceScale > 12 {
		return fmt.Errorf("price scale must be in [0,12], got %d", m.PriceScale)
	}
	if m.MinQty <= 0 {
		return fmt.Errorf("min order size must be positive")
	}
	if m.MaxQty < m.MinQty {
		return fmt.Errorf("max order size %d below min order size %d", m.MaxQty, m.MinQty)
	}
	return nil
}

// ValidateOrder is the engine's precondition gate. priced is false for
// market orders, whose price field is ignored.
func (m *Market) ValidateOrder(price, qty int64, priced bool) error {
	if m.Status != Active {
		return fmt.Errorf("market %s is %s", m.Symbol, m.Status)
	}
	if priced && price <= 0 {
		return fmt.Errorf("price must be positive, got %d", price)
	}
	if qty <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", qty)
	}
	if qty < m.MinQty {
		return fmt.Errorf("quantity %d below minimum order size %d", qty, m.MinQty)
	}
	if qty > m.MaxQty {
		return fmt.Errorf("quantity %d exceeds maximum order size %d", qty, m.MaxQty)
	}
	return nil
}

// ParsePrice converts a decimal price string ("100.25") to integer ticks.
// Sub-tick precision is rejected rather than rounded: the feed is the
// authority on prices and a sub-tick price means a malformed message.
func (m *Market) ParsePrice(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("bad price %q: %w", s, err)
	}
	scaled := d.Shift(m.PriceScale)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("price %s has sub-tick precision (scale %d)", s, m.PriceScale)
	}
	if !scaled.BigInt().IsInt64() {
		return 0, fmt.Errorf("price %s out of range", s)
	}
	return scaled.IntPart(), nil
}

// FormatPrice renders integer ticks back to the decimal price string.
func (m *Market) FormatPrice(ticks int64) string {
	return decimal.New(ticks, -m.PriceScale).StringFixed(m.PriceScale)
}
