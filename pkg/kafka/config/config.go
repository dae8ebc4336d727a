package kafka_config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"
)

const (
	AcksAll    = -1
	AcksNone   = 0
	AcksLeader = 1
)

var codecs = map[string]compress.Compression{
	"none":   compress.None,
	"gzip":   compress.Gzip,
	"snappy": compress.Snappy,
	"lz4":    compress.Lz4,
	"zstd":   compress.Zstd,
}

var acks = map[int]kafka.RequiredAcks{
	AcksAll:    kafka.RequireAll,
	AcksNone:   kafka.RequireNone,
	AcksLeader: kafka.RequireOne,
}

type Config struct {
	Brokers  []string
	Producer Producer
	Topics   Topics

	// LogPublishes adds a per-message log line to every producer.
	LogPublishes bool
}

type Producer struct {
	MaxAttempts  int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
	Async        bool
}

type Topics struct {
	Bookings  string
	Schedules string
}

func Load() (*Config, error) {
	cfg := &Config{
		Brokers: splitList(os.Getenv(EnvBrokers)),
		Producer: Producer{
			MaxAttempts:  envInt(EnvMaxAttempts, DefaultMaxAttempts),
			BatchTimeout: envDuration(EnvBatchTimeout, DefaultBatchTimeout),
			RequiredAcks: envInt(EnvRequiredAcks, DefaultRequiredAcks),
			Compression:  envStr(EnvCompression, DefaultCompression),
			Async:        envBool(EnvAsync, false),
		},
		Topics: Topics{
			Bookings:  envStr(EnvTopicBookings, DefaultTopicBookings),
			Schedules: envStr(EnvTopicSchedule, DefaultTopicSchedule),
		},
		LogPublishes: envBool(EnvLogPublishes, true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Enabled() bool {
	return len(cfg.Brokers) > 0
}

// Codec resolves the configured compression; Validate rejects unknown names.
func (p Producer) Codec() compress.Compression {
	if c, ok := codecs[p.Compression]; ok {
		return c
	}
	return compress.Snappy
}

func (p Producer) Acks() kafka.RequiredAcks {
	if a, ok := acks[p.RequiredAcks]; ok {
		return a
	}
	return kafka.RequireAll
}

func (cfg *Config) Validate() error {
	var problems []string

	if cfg.Producer.MaxAttempts <= 0 {
		problems = append(problems, fmt.Sprintf("max attempts must be positive, got %d", cfg.Producer.MaxAttempts))
	}
	if cfg.Producer.BatchTimeout <= 0 {
		problems = append(problems, fmt.Sprintf("batch timeout must be positive, got %s", cfg.Producer.BatchTimeout))
	}
	if _, ok := codecs[cfg.Producer.Compression]; !ok {
		problems = append(problems, fmt.Sprintf("unknown compression %q", cfg.Producer.Compression))
	}
	if _, ok := acks[cfg.Producer.RequiredAcks]; !ok {
		problems = append(problems, fmt.Sprintf("required acks must be -1, 0 or 1, got %d", cfg.Producer.RequiredAcks))
	}
	if cfg.Enabled() && (cfg.Topics.Bookings == "" || cfg.Topics.Schedules == "") {
		problems = append(problems, "both topics must be named when brokers are configured")
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid kafka configuration: %s", strings.Join(problems, "; "))
}

func (cfg *Config) LogConfiguration(logFunc func(msg string, keysAndValues ...any)) {
	if logFunc == nil {
		return
	}
	logFunc("Kafka configuration loaded",
		"enabled", cfg.Enabled(),
		"brokers", cfg.Brokers,
		"max_attempts", cfg.Producer.MaxAttempts,
		"batch_timeout", cfg.Producer.BatchTimeout,
		"required_acks", cfg.Producer.RequiredAcks,
		"compression", cfg.Producer.Compression,
		"async", cfg.Producer.Async,
		"topic_bookings", cfg.Topics.Bookings,
		"topic_schedules", cfg.Topics.Schedules,
	)
}

// splitList drops blank entries, so "a, ,b" is two brokers.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envStr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return fallback
}
