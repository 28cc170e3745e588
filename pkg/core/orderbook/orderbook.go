package orderbook

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/uhyunpark/marketsim/pkg/core/market"
	"github.com/uhyunpark/marketsim/pkg/util"
)

// ErrInvalidOrder rejects a semantically invalid order before any state is
// touched. The submission boundary skips the message and continues; it must
// not retry.
var ErrInvalidOrder = errors.New("invalid order")

// ErrHalted is returned once the book has detected internal corruption and
// refuses all further mutation.
var ErrHalted = errors.New("order book halted after invariant violation")

// OrderBook is the matching engine: both sides, the acceptance sequence
// counter and the last trade price, all guarded by one mutex. Every Submit
// and Snapshot runs under exclusive access for its full duration; a partial
// update would transiently cross the book and be observable by a concurrent
// caller. Acceptance order under that mutex is the definition of "time" for
// price-time priority, not the order messages were read from their feeds.
type OrderBook struct {
	mu sync.Mutex

	mkt  *market.Market
	bids *BookSide
	asks *BookSide

	seq       uint64
	lastPrice int64
	halted    bool

	clock util.Clock
}

// New constructs an empty book for one market. The orchestration layer owns
// the instance and shares it with the feed workers; there is no package
// singleton, so tests build a fresh book each.
func New(mkt *market.Market) *OrderBook {
	return &OrderBook{
		mkt:   mkt,
		bids:  NewBookSide(Buy),
		asks:  NewBookSide(Sell),
		clock: util.RealClock{},
	}
}

// NewWithClock is New with an injected clock for deterministic trade
// timestamps in tests.
func NewWithClock(mkt *market.Market, clk util.Clock) *OrderBook {
	b := New(mkt)
	b.clock = clk
	return b
}

// Submit validates, matches and possibly rests one incoming order,
// atomically. The returned trades are not retained by the book.
func (b *OrderBook) Submit(o Order) (SubmitResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.halted {
		return SubmitResult{}, ErrHalted
	}
	if err := b.mkt.ValidateOrder(o.Price, o.Qty, o.Kind == Limit); err != nil {
		return SubmitResult{}, fmt.Errorf("%w: %v", ErrInvalidOrder, err)
	}

	b.seq++
	o.Seq = b.seq
	o.OrigQty = o.Qty

	trades := b.match(&o)

	var outcome Outcome
	switch {
	case o.Qty == 0:
		outcome = Filled
	case o.Kind == Limit:
		rest := o
		b.sideOf(o.Side).InsertOrAppend(&rest)
		if len(trades) > 0 {
			outcome = PartiallyFilled
		} else {
			outcome = Rested
		}
	default:
		// Market orders never rest; the remainder is discarded.
		if len(trades) > 0 {
			outcome = PartiallyFilled
		} else {
			outcome = Rejected
		}
	}

	b.verifyIntegrity(&o, trades)

	return SubmitResult{Seq: o.Seq, Outcome: outcome, Trades: trades}, nil
}

// match executes the incoming order against the opposite side while it
// remains crossable. Counterparty is always the FIFO head of the best
// level; execution price is always the resting order's price.
func (b *OrderBook) match(taker *Order) []Trade {
	var trades []Trade
	opp := b.sideOf(taker.Side.Opposite())

	for taker.Qty > 0 {
		best := opp.Best()
		if best == nil {
			break
		}
		if taker.Kind != Market && !crosses(taker.Side, taker.Price, best.Price) {
			break
		}

		maker := best.front()
		fill := min(taker.Qty, maker.Qty)
		if fill <= 0 {
			b.corrupt("non-positive fill %d at price %d", fill, best.Price)
		}
		taker.Qty -= fill
		maker.Qty -= fill
		best.reduce(fill)
		b.lastPrice = best.Price

		trades = append(trades, Trade{
			ID:        uuid.NewString(),
			Symbol:    b.mkt.Symbol,
			Price:     best.Price,
			Qty:       fill,
			TakerSeq:  taker.Seq,
			MakerSeq:  maker.Seq,
			TakerSide: taker.Side,
			At:        b.clock.Now(),
		})

		if maker.Qty == 0 {
			best.unlinkFront()
			if best.empty() {
				opp.RemoveLevel(best.Price)
			}
		}
	}
	return trades
}

// crosses reports whether a limit price is marketable against the best
// opposite price.
func crosses(side Side, limit, best int64) bool {
	if side == Buy {
		return limit >= best
	}
	return limit <= best
}

func (b *OrderBook) sideOf(s Side) *BookSide {
	if s == Buy {
		return b.bids
	}
	return b.asks
}

// Snapshot renders both sides best-price-first with per-level aggregate
// quantity. Read-only and idempotent; takes the same mutex as Submit so it
// never observes a level mid-mutation.
func (b *OrderBook) Snapshot() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, "book %s\n", b.mkt.Symbol)
	sb.WriteString("asks:\n")
	b.writeSide(&sb, b.asks)
	sb.WriteString("bids:\n")
	b.writeSide(&sb, b.bids)
	if b.lastPrice != 0 {
		fmt.Fprintf(&sb, "last trade: %s\n", b.mkt.FormatPrice(b.lastPrice))
	}
	return sb.String()
}

func (b *OrderBook) writeSide(sb *strings.Builder, side *BookSide) {
	if side.Len() == 0 {
		sb.WriteString("  (empty)\n")
		return
	}
	side.EachBestFirst(func(lvl *PriceLevel) bool {
		fmt.Fprintf(sb, "  %s x %d (%d orders)\n",
			b.mkt.FormatPrice(lvl.Price), lvl.TotalQty, lvl.Count)
		return true
	})
}

// LevelInfo is an aggregate view of one price level, for depth queries.
type LevelInfo struct {
	Price  int64
	Qty    int64
	Orders int
}

// BidLevels returns bid levels best-first (highest price first).
func (b *OrderBook) BidLevels() []LevelInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return collectLevels(b.bids)
}

// AskLevels returns ask levels best-first (lowest price first).
func (b *OrderBook) AskLevels() []LevelInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return collectLevels(b.asks)
}

func collectLevels(side *BookSide) []LevelInfo {
	out := make([]LevelInfo, 0, side.Len())
	side.EachBestFirst(func(lvl *PriceLevel) bool {
		out = append(out, LevelInfo{Price: lvl.Price, Qty: lvl.TotalQty, Orders: lvl.Count})
		return true
	})
	return out
}

// BestBid returns the highest bid price, false when no bids rest.
func (b *OrderBook) BestBid() (int64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if lvl := b.bids.Best(); lvl != nil {
		return lvl.Price, true
	}
	return 0, false
}

// BestAsk returns the lowest ask price, false when no asks rest.
func (b *OrderBook) BestAsk() (int64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if lvl := b.asks.Best(); lvl != nil {
		return lvl.Price, true
	}
	return 0, false
}

// LastPrice returns the most recent execution price, 0 before any trade.
func (b *OrderBook) LastPrice() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastPrice
}

// LastSeq returns the acceptance sequence of the most recent valid order.
func (b *OrderBook) LastSeq() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seq
}

// verifyIntegrity runs after every mutation, still under the mutex.
// A failure here is a matching bug, not an input problem: the book halts
// and the process dies rather than keep trading on corrupt state.
func (b *OrderBook) verifyIntegrity(o *Order, trades []Trade) {
	bid, ask := b.bids.Best(), b.asks.Best()
	if bid != nil && ask != nil && bid.Price >= ask.Price {
		b.corrupt("crossed book: best bid %d >= best ask %d", bid.Price, ask.Price)
	}
	var traded int64
	for _, t := range trades {
		if t.Qty <= 0 {
			b.corrupt("trade with non-positive qty %d", t.Qty)
		}
		traded += t.Qty
	}
	if o.Qty < 0 || traded+o.Qty != o.OrigQty {
		b.corrupt("quantity not conserved for seq %d: orig %d, traded %d, remaining %d",
			o.Seq, o.OrigQty, traded, o.Qty)
	}
	if o.Kind == Limit && o.Qty > 0 {
		lvl := b.sideOf(o.Side).Level(o.Price)
		if lvl == nil {
			b.corrupt("resting order seq %d has no level at price %d", o.Seq, o.Price)
		} else if lvl.TotalQty != lvl.restingSum() {
			b.corrupt("level %d aggregate %d != resting sum %d", lvl.Price, lvl.TotalQty, lvl.restingSum())
		}
	}
}

func (b *OrderBook) corrupt(format string, args ...any) {
	b.halted = true
	panic(fmt.Sprintf("orderbook: "+format, args...))
}

func min(a, c int64) int64 {
	if a < c {
		return a
	}
	return c
}
