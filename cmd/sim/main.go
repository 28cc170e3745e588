package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/uhyunpark/marketsim/params"
	"github.com/uhyunpark/marketsim/pkg/broadcast"
	"github.com/uhyunpark/marketsim/pkg/core/market"
	"github.com/uhyunpark/marketsim/pkg/core/orderbook"
	"github.com/uhyunpark/marketsim/pkg/feed"
	"github.com/uhyunpark/marketsim/pkg/journal"
	"github.com/uhyunpark/marketsim/pkg/parser"
	"github.com/uhyunpark/marketsim/pkg/sim"
	"github.com/uhyunpark/marketsim/pkg/util"
)

// Usage: sim [feed-file ...]
// Each feed file runs on its own worker against the one shared book.
// With no arguments, messages are read from stdin until EOF.
func main() {
	cfg := params.LoadFromEnv("") // "" means load from .env in current directory

	logger := mustLogger(cfg)
	defer logger.Sync()
	sugar := logger.Sugar()

	mkt, err := market.New(cfg.Market.Symbol, cfg.Market.PriceScale, cfg.Market.MinQty, cfg.Market.MaxQty)
	if err != nil {
		sugar.Fatalw("bad_market_config", "err", err)
	}
	book := orderbook.New(mkt)

	runner := &sim.Runner{
		Book:   book,
		Parser: parser.New(mkt),
		Log:    sugar,
	}

	if cfg.Sinks.JournalDir != "" {
		j, err := journal.Open(cfg.Sinks.JournalDir)
		if err != nil {
			sugar.Fatalw("journal_open_failed", "dir", cfg.Sinks.JournalDir, "err", err)
		}
		defer j.Close()
		runner.Journal = j
		sugar.Infow("journal_enabled", "dir", cfg.Sinks.JournalDir)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if len(cfg.Sinks.KafkaBrokers) > 0 {
		bc, err := broadcast.New(cfg.Sinks.KafkaBrokers, cfg.Sinks.KafkaTopic, sugar)
		if err != nil {
			sugar.Fatalw("broadcaster_init_failed", "brokers", cfg.Sinks.KafkaBrokers, "err", err)
		}
		defer bc.Close()
		go bc.Run(ctx)
		runner.Broadcaster = bc
	}

	// argv = feed files; none means interactive stdin, like the classic
	// simulator drivers.
	var feeds []feed.Feed
	if args := os.Args[1:]; len(args) > 0 {
		for _, path := range args {
			f, err := feed.OpenFile(path)
			if err != nil {
				// Fatal for this feed only; the rest proceed.
				sugar.Errorw("feed_open_failed", "path", path, "err", err)
				continue
			}
			feeds = append(feeds, f)
		}
		if len(feeds) == 0 {
			sugar.Fatalw("no_usable_feeds", "args", args)
		}
	} else {
		feeds = append(feeds, feed.Stdin())
	}

	sugar.Infow("simulator_starting", "symbol", mkt.Symbol, "feeds", len(feeds))

	stats, report := runner.Run(feeds)
	cancel()
	if runner.Broadcaster != nil {
		// Let the flush loop finish before the deferred Close tears the
		// producer down.
		runner.Broadcaster.Wait()
	}

	for _, s := range stats {
		sugar.Infow("feed_done",
			"feed", s.Feed,
			"messages", s.Messages,
			"submitted", s.Submitted,
			"trades", s.Trades,
			"skipped", s.Skipped,
			"failed", s.Failed)
	}
	if runner.Broadcaster != nil && runner.Broadcaster.Dropped() > 0 {
		sugar.Warnw("broadcast_drops", "count", runner.Broadcaster.Dropped())
	}

	fmt.Println(report)
	sugar.Infow("simulator_stopped", "last_seq", book.LastSeq())
}

func mustLogger(cfg params.Config) *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)
	if cfg.LogFile != "" {
		l, err = util.NewLoggerWithFile(cfg.LogFile, cfg.Verbose)
	} else {
		l, err = util.NewLogger(cfg.Verbose)
	}
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	return l
}
