package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "courtbook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisAddr = "localhost:6379"
	DefaultRedisDB   = 0

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100

	DefaultTimeZone      = "Asia/Ho_Chi_Minh"
	DefaultOpeningTime   = "05:00"
	DefaultClosingTime   = "23:00"
	DefaultNightStart    = "18:00"
	DefaultNightEnd      = "06:00"
	DefaultWeekendDays   = "Saturday,Sunday"
	DefaultCurrencyScale = 0

	DefaultMonthlyPricingMode = MonthlyPricingPerOccurrence

	DefaultLockBackend    = LockBackendMongo
	// Must outlive DefaultRequestTimeout: a booking transaction never runs
	// past the lock it was started under.
	DefaultLockTTL        = 45 * time.Second
	DefaultLockRetries    = 3
	DefaultLockRetryDelay = 150 * time.Millisecond

	DefaultEventsEnabled  = false
	DefaultEventsTopic    = "court-bookings"
	DefaultEventsDLQTopic = "court-bookings-dlq"

	DefaultSweepCron      = "*/10 * * * *"
	DefaultSweepBatchSize = 200
)

const (
	MonthlyPricingPerOccurrence = "per_occurrence"
	MonthlyPricingFrozen        = "frozen"

	LockBackendMongo = "mongo"
	LockBackendRedis = "redis"
)
