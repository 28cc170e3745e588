package orderbook

import "time"

type Side int8

const (
	Buy  Side = 1
	Sell Side = -1
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Opposite returns the side an incoming order matches against.
func (s Side) Opposite() Side { return -s }

type Kind int8

const (
	Limit Kind = iota
	Market
)

func (k Kind) String() string {
	switch k {
	case Limit:
		return "LIMIT"
	case Market:
		return "MARKET"
	default:
		return "UNKNOWN"
	}
}

// Order is one instruction submitted to the book. Seq and OrigQty are
// assigned by the book at acceptance; Qty is decremented as it matches.
// The embedded links make a resting order a node of its level's FIFO queue.
type Order struct {
	Seq     uint64 // acceptance sequence, the time-priority tie-breaker
	Side    Side
	Kind    Kind
	Price   int64 // integer ticks, ignored for market orders
	Qty     int64 // remaining quantity in lots
	OrigQty int64

	next *Order
	prev *Order
}

// Outcome classifies what Submit did with an order.
type Outcome int8

const (
	// Filled: fully matched, nothing rested.
	Filled Outcome = iota
	// PartiallyFilled: some quantity matched; a limit remainder rested,
	// a market remainder was discarded.
	PartiallyFilled
	// Rested: nothing matched, the full quantity now rests (limit only).
	Rested
	// Rejected: market order that found no liquidity at all.
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Filled:
		return "FILLED"
	case PartiallyFilled:
		return "PARTIALLY_FILLED"
	case Rested:
		return "RESTED"
	case Rejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

// Trade is one execution between the incoming (taker) order and a resting
// (maker) order. Emitted transiently per match; the book does not retain it.
type Trade struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Price     int64     `json:"price"` // maker's price: price improvement goes to the taker
	Qty       int64     `json:"qty"`
	TakerSeq  uint64    `json:"taker_seq"`
	MakerSeq  uint64    `json:"maker_seq"`
	TakerSide Side      `json:"taker_side"`
	At        time.Time `json:"at"`
}

// SubmitResult reports the trades generated by one Submit call and what
// happened to the remainder.
type SubmitResult struct {
	Seq     uint64
	Outcome Outcome
	Trades  []Trade
}
