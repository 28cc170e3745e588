// Package sim is the orchestration boundary around the matching core: it
// drains feeds into the shared book, decides skip-vs-continue per message,
// fans trades out to the journal and broadcaster, and produces the final
// report after all feeds have joined.
package sim

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/uhyunpark/marketsim/pkg/broadcast"
	"github.com/uhyunpark/marketsim/pkg/core/orderbook"
	"github.com/uhyunpark/marketsim/pkg/feed"
	"github.com/uhyunpark/marketsim/pkg/journal"
	"github.com/uhyunpark/marketsim/pkg/parser"
)

// FeedStats counts what happened to one feed's messages.
type FeedStats struct {
	Feed      string
	Messages  int
	Submitted int
	Trades    int
	Skipped   int
	Failed    bool // feed terminated on a read error
}

// Runner owns one book and its sinks. Journal and Broadcaster are optional.
type Runner struct {
	Book        *orderbook.OrderBook
	Parser      *parser.Parser
	Journal     *journal.Journal
	Broadcaster *broadcast.Broadcaster
	Log         *zap.SugaredLogger
}

// RunFeed drains a single feed into the book. Parse errors and order
// rejections discard that message only; the feed keeps going. A read
// error terminates this feed alone.
func (r *Runner) RunFeed(f feed.Feed) FeedStats {
	stats := FeedStats{Feed: f.Name()}
	defer f.Close()

	for {
		line, ok := f.Next()
		if !ok {
			break
		}
		if parser.Skippable(line) {
			continue
		}
		stats.Messages++

		order, err := r.Parser.Parse(line)
		if err != nil {
			stats.Skipped++
			r.Log.Warnw("message_skipped", "feed", f.Name(), "line", line, "err", err)
			continue
		}

		res, err := r.Book.Submit(order)
		if err != nil {
			if errors.Is(err, orderbook.ErrInvalidOrder) {
				// Never retried: the offending message is dropped and
				// processing continues.
				stats.Skipped++
				r.Log.Warnw("order_rejected", "feed", f.Name(), "line", line, "err", err)
				continue
			}
			// ErrHalted or another engine-fatal condition.
			stats.Failed = true
			r.Log.Errorw("feed_aborted", "feed", f.Name(), "err", err)
			return stats
		}

		stats.Submitted++
		stats.Trades += len(res.Trades)
		r.sinkTrades(res.Trades)
	}

	if err := f.Err(); err != nil {
		stats.Failed = true
		r.Log.Errorw("feed_read_failed", "feed", f.Name(), "err", err)
	}
	return stats
}

// sinkTrades runs outside the book's critical section, so journal and
// broker latency never extend lock hold time.
func (r *Runner) sinkTrades(trades []orderbook.Trade) {
	for _, t := range trades {
		if r.Journal != nil {
			if err := r.Journal.Append(t); err != nil {
				r.Log.Errorw("journal_append_failed", "trade_id", t.ID, "err", err)
			}
		}
		if r.Broadcaster != nil {
			r.Broadcaster.Publish(t)
		}
	}
}

// Run processes all feeds concurrently, one worker per feed, joins them,
// and returns the per-feed stats plus the book's final snapshot. The
// snapshot is taken exactly once, after the join barrier.
func (r *Runner) Run(feeds []feed.Feed) ([]FeedStats, string) {
	stats := make([]FeedStats, len(feeds))

	var wg sync.WaitGroup
	for i, f := range feeds {
		wg.Add(1)
		go func(i int, f feed.Feed) {
			defer wg.Done()
			stats[i] = r.RunFeed(f)
		}(i, f)
	}
	wg.Wait()

	return stats, r.Book.Snapshot()
}
