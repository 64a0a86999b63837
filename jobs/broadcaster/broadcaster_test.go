package broadcaster

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/require"

	"ledgerbook/domain/orderbook"
	"ledgerbook/infra/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mockConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	return cfg
}

// stageTrade runs a crossing pair through the engine so a real trade
// lands in the outbox.
func stageTrade(t *testing.T, store *storage.Store) {
	t.Helper()
	e := orderbook.NewEngine()

	b := store.NewBatch(1)
	_, _, err := e.Place(b, "alice", orderbook.Bid, 10, 5)
	require.NoError(t, err)
	require.NoError(t, b.Commit())
	require.NoError(t, b.Close())

	b = store.NewBatch(2)
	_, trades, err := e.Place(b, "bob", orderbook.Ask, 10, 5)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	require.NoError(t, b.Commit())
	require.NoError(t, b.Close())
}

func countPending(t *testing.T, store *storage.Store) int {
	t.Helper()
	n := 0
	require.NoError(t, store.ScanPending(func([]byte, storage.OutboxRecord) error {
		n++
		return nil
	}))
	return n
}

func TestFlushPublishesAndClears(t *testing.T) {
	store, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	stageTrade(t, store)
	require.Equal(t, 1, countPending(t, store))

	producer := mocks.NewSyncProducer(t, mockConfig())
	producer.ExpectSendMessageAndSucceed()

	b := newWithProducer(store, producer, "trades", time.Second, testLogger())
	b.flushOnce()

	require.Equal(t, 0, countPending(t, store))
	require.NoError(t, b.Close())
}

func TestFlushRetriesOnFailure(t *testing.T) {
	store, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	stageTrade(t, store)

	producer := mocks.NewSyncProducer(t, mockConfig())
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	producer.ExpectSendMessageAndSucceed()

	b := newWithProducer(store, producer, "trades", time.Second, testLogger())

	b.flushOnce()
	require.Equal(t, 1, countPending(t, store), "failed trade stays pending")

	b.flushOnce()
	require.Equal(t, 0, countPending(t, store))
	require.NoError(t, b.Close())
}

func TestExhaustedRetriesPark(t *testing.T) {
	store, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	stageTrade(t, store)

	producer := mocks.NewSyncProducer(t, mockConfig())
	for i := 0; i < maxRetries; i++ {
		producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	}

	b := newWithProducer(store, producer, "trades", time.Second, testLogger())
	for i := 0; i < maxRetries; i++ {
		b.flushOnce()
	}

	// Retry budget spent, next sweep parks it and never sends.
	b.flushOnce()
	require.Equal(t, 0, countPending(t, store), "parked trade must leave the pending set")
	require.NoError(t, b.Close())
}
