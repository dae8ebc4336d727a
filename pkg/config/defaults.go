package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "slotbook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort = "8080"

	DefaultSlotsBaseURL    = "http://localhost:8081"
	DefaultBookingsBaseURL = "http://localhost:8082"

	DefaultSlotFetchTimeout     = 5 * time.Second
	DefaultSubmitTimeout        = 15 * time.Second
	DefaultBookingHorizonMonths = 3
	DefaultWizardSessionTTL     = 30 * time.Minute

	DefaultRequestTimeout = 20 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB, also caps ICS uploads

	DefaultRateLimitRequests = 20
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 25 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	MaxBookingHorizonMonths = 24
)
