// Package broadcaster drains the trade outbox to Kafka. Trades reach
// the outbox inside the same batch as the fills that produced them, so
// everything published here is durable; at-least-once delivery is the
// contract, consumers dedupe on (maker, taker) order ids.
package broadcaster

import (
	"context"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"ledgerbook/infra/storage"
)

const maxRetries = 5

type Broadcaster struct {
	store    *storage.Store
	producer sarama.SyncProducer
	topic    string
	interval time.Duration
	log      *slog.Logger
}

func New(store *storage.Store, brokers []string, topic string, interval time.Duration, log *slog.Logger) (*Broadcaster, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return newWithProducer(store, producer, topic, interval, log), nil
}

func newWithProducer(store *storage.Store, producer sarama.SyncProducer, topic string, interval time.Duration, log *slog.Logger) *Broadcaster {
	return &Broadcaster{
		store:    store,
		producer: producer,
		topic:    topic,
		interval: interval,
		log:      log,
	}
}

func (b *Broadcaster) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				b.flushOnce()
			}
		}
	}()
}

// flushOnce walks pending records in commit order and publishes each.
// A send failure bumps the retry counter and stops the sweep so later
// trades never overtake an earlier one.
func (b *Broadcaster) flushOnce() {
	err := b.store.ScanPending(func(key []byte, rec storage.OutboxRecord) error {
		if rec.Retries >= maxRetries {
			b.log.Error("trade exceeded retry budget, parking", "key", key, "retries", rec.Retries)
			return b.store.MarkDead(key)
		}

		msg := &sarama.ProducerMessage{
			Topic: b.topic,
			Key:   sarama.ByteEncoder(key),
			Value: sarama.ByteEncoder(rec.Payload),
		}
		if _, _, err := b.producer.SendMessage(msg); err != nil {
			b.log.Warn("trade publish failed, will retry", "key", key, "err", err)
			if markErr := b.store.MarkFailed(key); markErr != nil {
				return markErr
			}
			return errStopSweep
		}

		if err := b.store.MarkSent(key); err != nil {
			return err
		}
		return b.store.DeleteOutbox(key)
	})
	if err != nil && err != errStopSweep {
		b.log.Error("outbox sweep failed", "err", err)
	}
}

var errStopSweep = stopSweep{}

type stopSweep struct{}

func (stopSweep) Error() string { return "stop sweep" }

func (b *Broadcaster) Close() error {
	return b.producer.Close()
}
