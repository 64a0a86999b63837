package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all server configuration.
type Config struct {
	// Server
	ListenAddr string

	// Storage
	DataDir        string
	WALDir         string
	WALSegmentSize int64

	// Kafka
	Brokers       []string
	TradeTopic    string
	OrderTopic    string
	ConsumerGroup string
	IngestEnabled bool

	// Jobs
	BroadcastInterval time.Duration
	TruncateInterval  time.Duration

	// Logging
	LogLevel string
}

func Load() *Config {
	c := &Config{}

	flag.StringVar(&c.ListenAddr, "listen", envStr("BOOK_LISTEN", ":8080"), "HTTP listen address")

	flag.StringVar(&c.DataDir, "data-dir", envStr("BOOK_DATA_DIR", "./data/state"), "Pebble state directory")
	flag.StringVar(&c.WALDir, "wal-dir", envStr("BOOK_WAL_DIR", "./data/wal"), "Request journal directory")
	flag.Int64Var(&c.WALSegmentSize, "wal-segment-size", envInt64("BOOK_WAL_SEGMENT_SIZE", 2*1024*1024), "Journal segment size in bytes")

	var brokers string
	flag.StringVar(&brokers, "brokers", envStr("BOOK_BROKERS", "localhost:9092"), "Kafka brokers, comma separated")
	flag.StringVar(&c.TradeTopic, "trade-topic", envStr("BOOK_TRADE_TOPIC", "trades"), "Topic for executed trades")
	flag.StringVar(&c.OrderTopic, "order-topic", envStr("BOOK_ORDER_TOPIC", "orders"), "Topic for inbound order requests")
	flag.StringVar(&c.ConsumerGroup, "consumer-group", envStr("BOOK_CONSUMER_GROUP", "ledgerbook"), "Consumer group for order ingest")
	flag.BoolVar(&c.IngestEnabled, "ingest", envBool("BOOK_INGEST", false), "Consume orders from Kafka as well as HTTP")

	broadcastMs := flag.Int("broadcast-interval-ms", envInt("BOOK_BROADCAST_INTERVAL_MS", 250), "Outbox sweep interval in ms")
	truncateSec := flag.Int("truncate-interval-sec", envInt("BOOK_TRUNCATE_INTERVAL_SEC", 60), "Journal truncation interval in seconds")

	flag.StringVar(&c.LogLevel, "log-level", envStr("BOOK_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")

	flag.Parse()

	c.Brokers = splitList(brokers)
	c.BroadcastInterval = time.Duration(*broadcastMs) * time.Millisecond
	c.TruncateInterval = time.Duration(*truncateSec) * time.Second

	return c
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
