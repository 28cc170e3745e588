// Package journal persists executed trades to a Pebble store. It records
// execution history only; the book itself is never persisted or restored
// from here.
package journal

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/uhyunpark/marketsim/pkg/core/orderbook"
)

type Journal struct {
	db *pebble.DB
}

func Open(dir string) (*Journal, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open trade journal: %w", err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error { return j.db.Close() }

// keys: t:<20-digit taker seq>:<trade id>
// Zero-padded taker sequence keeps the iteration order equal to the
// engine's serialization order.
func tradeKey(t orderbook.Trade) []byte {
	return []byte(fmt.Sprintf("t:%020d:%s", t.TakerSeq, t.ID))
}

var tradePrefix = []byte("t:")

func keyUpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

// Append writes one trade. NoSync: the journal is an audit trail, losing
// the tail on a crash is acceptable while blocking matching is not.
func (j *Journal) Append(t orderbook.Trade) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal trade: %w", err)
	}
	if err := j.db.Set(tradeKey(t), data, pebble.NoSync); err != nil {
		return fmt.Errorf("append trade: %w", err)
	}
	return nil
}

// Recent returns up to limit trades, newest first.
func (j *Journal) Recent(limit int) ([]orderbook.Trade, error) {
	iter, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: tradePrefix,
		UpperBound: keyUpperBound(tradePrefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var trades []orderbook.Trade
	for valid := iter.Last(); valid && len(trades) < limit; valid = iter.Prev() {
		var t orderbook.Trade
		if err := json.Unmarshal(iter.Value(), &t); err != nil {
			continue // skip undecodable entries
		}
		trades = append(trades, t)
	}
	return trades, iter.Error()
}

// Count returns the total number of journaled trades.
func (j *Journal) Count() (int, error) {
	iter, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: tradePrefix,
		UpperBound: keyUpperBound(tradePrefix),
	})
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	n := 0
	for valid := iter.First(); valid; valid = iter.Next() {
		n++
	}
	return n, iter.Error()
}
