package broadcast

import (
	"context"
	"testing"

	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/uhyunpark/marketsim/pkg/core/orderbook"
)

func newMockBroadcaster(t *testing.T, buffer int) (*Broadcaster, *mocks.SyncProducer) {
	t.Helper()
	producer := mocks.NewSyncProducer(t, nil)
	b := &Broadcaster{
		producer: producer,
		topic:    "marketsim.trades",
		ch:       make(chan orderbook.Trade, buffer),
		done:     make(chan struct{}),
		log:      zap.NewNop().Sugar(),
	}
	return b, producer
}

func TestShutdownFlushesQueuedTrades(t *testing.T) {
	b, producer := newMockBroadcaster(t, 16)
	producer.ExpectSendMessageAndSucceed()
	producer.ExpectSendMessageAndSucceed()

	b.Publish(orderbook.Trade{ID: "a", Symbol: "SIM-USD", Price: 10000, Qty: 1})
	b.Publish(orderbook.Trade{ID: "b", Symbol: "SIM-USD", Price: 10000, Qty: 2})

	// Already-cancelled context: Run must still deliver everything queued
	// before signalling done, so Close never races the flush.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	go b.Run(ctx)
	b.Wait()

	require.NoError(t, b.Close())
	assert.Zero(t, b.Dropped())
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b, _ := newMockBroadcaster(t, 4)

	for i := 0; i < 10; i++ {
		b.Publish(orderbook.Trade{ID: "x", Symbol: "SIM-USD", Price: 10000, Qty: 1})
	}
	assert.Equal(t, uint64(6), b.Dropped())
}
