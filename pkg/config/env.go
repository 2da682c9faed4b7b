package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvTimeZone      = "TIME_ZONE"
	EnvOpeningTime   = "OPENING_TIME"
	EnvClosingTime   = "CLOSING_TIME"
	EnvNightStart    = "NIGHT_START"
	EnvNightEnd      = "NIGHT_END"
	EnvWeekendDays   = "WEEKEND_DAYS"
	EnvHolidays      = "HOLIDAYS"
	EnvCurrencyScale = "CURRENCY_SCALE"

	EnvMonthlyPricingMode = "MONTHLY_PRICING_MODE"

	EnvLockBackend    = "LOCK_BACKEND"
	EnvLockTTL        = "LOCK_TTL"
	EnvLockRetries    = "LOCK_RETRIES"
	EnvLockRetryDelay = "LOCK_RETRY_DELAY"

	EnvEventsEnabled  = "EVENTS_ENABLED"
	EnvEventsTopic    = "EVENTS_TOPIC"
	EnvEventsDLQTopic = "EVENTS_DLQ_TOPIC"

	EnvSweepCron      = "SWEEP_CRON"
	EnvSweepBatchSize = "SWEEP_BATCH_SIZE"
)
