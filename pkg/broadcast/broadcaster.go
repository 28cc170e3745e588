// Package broadcast publishes executed trades to Kafka. It is optional:
// the simulator runs fine with no brokers configured, and a slow or dead
// broker must never block matching, so Publish drops on a full buffer.
package broadcast

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/uhyunpark/marketsim/pkg/core/orderbook"
)

type Broadcaster struct {
	producer sarama.SyncProducer
	topic    string
	ch       chan orderbook.Trade
	done     chan struct{}
	dropped  atomic.Uint64
	log      *zap.SugaredLogger
}

func New(brokers []string, topic string, log *zap.SugaredLogger) (*Broadcaster, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}

	return &Broadcaster{
		producer: producer,
		topic:    topic,
		ch:       make(chan orderbook.Trade, 1024),
		done:     make(chan struct{}),
		log:      log,
	}, nil
}

// Publish queues a trade for delivery. Non-blocking: a full buffer counts
// a drop instead of stalling the submission path.
func (b *Broadcaster) Publish(t orderbook.Trade) {
	select {
	case b.ch <- t:
	default:
		b.dropped.Add(1)
	}
}

// Dropped returns how many trades were discarded on a full buffer.
func (b *Broadcaster) Dropped() uint64 { return b.dropped.Load() }

// Run drains the buffer until ctx is cancelled and the channel is empty.
// Returning closes the done channel; callers must Wait before Close so the
// flush never races a closed producer.
func (b *Broadcaster) Run(ctx context.Context) {
	defer close(b.done)
	b.log.Infow("broadcaster_started", "topic", b.topic)
	for {
		select {
		case <-ctx.Done():
			// Flush whatever is already queued before returning.
			for {
				select {
				case t := <-b.ch:
					b.send(t)
				default:
					return
				}
			}
		case t := <-b.ch:
			b.send(t)
		}
	}
}

func (b *Broadcaster) send(t orderbook.Trade) {
	payload, err := json.Marshal(t)
	if err != nil {
		b.log.Errorw("trade_marshal_failed", "trade_id", t.ID, "err", err)
		return
	}
	msg := &sarama.ProducerMessage{
		Topic: b.topic,
		Key:   sarama.StringEncoder(t.Symbol),
		Value: sarama.ByteEncoder(payload),
	}
	if _, _, err := b.producer.SendMessage(msg); err != nil {
		b.log.Errorw("trade_publish_failed", "trade_id", t.ID, "err", err)
	}
}

// Wait blocks until Run has flushed and returned.
func (b *Broadcaster) Wait() {
	<-b.done
}

func (b *Broadcaster) Close() error {
	return b.producer.Close()
}
