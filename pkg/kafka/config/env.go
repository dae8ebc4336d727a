package kafka_config

import "time"

// Environment variables and their defaults. An empty broker list keeps
// publishing off.
const (
	EnvBrokers       = "KAFKA_BROKERS"
	EnvMaxAttempts   = "KAFKA_PRODUCER_MAX_ATTEMPTS"
	EnvBatchTimeout  = "KAFKA_PRODUCER_BATCH_TIMEOUT"
	EnvRequiredAcks  = "KAFKA_PRODUCER_REQUIRE_ACKS"
	EnvCompression   = "KAFKA_PRODUCER_COMPRESSION"
	EnvAsync         = "KAFKA_PRODUCER_ASYNC"
	EnvTopicBookings = "KAFKA_TOPIC_BOOKINGS"
	EnvTopicSchedule = "KAFKA_TOPIC_SCHEDULES"
	EnvLogPublishes  = "KAFKA_LOG_PUBLISHES"
)

const (
	DefaultMaxAttempts   = 3
	DefaultBatchTimeout  = 10 * time.Millisecond
	DefaultRequiredAcks  = AcksAll
	DefaultCompression   = "snappy"
	DefaultTopicBookings = "slotbook.bookings"
	DefaultTopicSchedule = "slotbook.schedules"
)
