package config

import (
	"courtbook/pkg/client"
	"courtbook/pkg/logger"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	clockRegex   = regexp.MustCompile(`^(([01][0-9]|2[0-3]):[0-5][0-9]|24:00)$`)
	holidayRegex = regexp.MustCompile(`^(\d{4}-)?(0[1-9]|1[0-2])-(0[1-9]|[12][0-9]|3[01])$`)

	weekdayNames = map[string]time.Weekday{
		"sunday":    time.Sunday,
		"monday":    time.Monday,
		"tuesday":   time.Tuesday,
		"wednesday": time.Wednesday,
		"thursday":  time.Thursday,
		"friday":    time.Friday,
		"saturday":  time.Saturday,
	}
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	TimeZone      string
	Location      *time.Location
	OpeningTime   string
	ClosingTime   string
	NightStart    string
	NightEnd      string
	WeekendDays   []string
	Holidays      []string
	CurrencyScale int

	MonthlyPricingMode string

	LockBackend    string
	LockTTL        time.Duration
	LockRetries    int
	LockRetryDelay time.Duration

	EventsEnabled  bool
	EventsTopic    string
	EventsDLQTopic string

	SweepCron      string
	SweepBatchSize int

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	// .env is optional; real deployments inject the environment directly.
	envFileErr := godotenv.Load()

	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		RedisAddr:     getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, DefaultRedisDB),

		Port: getEnvStr(EnvPort, DefaultPort),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		TimeZone:      getEnvStr(EnvTimeZone, DefaultTimeZone),
		OpeningTime:   getEnvStr(EnvOpeningTime, DefaultOpeningTime),
		ClosingTime:   getEnvStr(EnvClosingTime, DefaultClosingTime),
		NightStart:    getEnvStr(EnvNightStart, DefaultNightStart),
		NightEnd:      getEnvStr(EnvNightEnd, DefaultNightEnd),
		WeekendDays:   getEnvList(EnvWeekendDays, DefaultWeekendDays),
		Holidays:      getEnvList(EnvHolidays, ""),
		CurrencyScale: getEnvNum(EnvCurrencyScale, DefaultCurrencyScale),

		MonthlyPricingMode: getEnvStr(EnvMonthlyPricingMode, DefaultMonthlyPricingMode),

		LockBackend:    getEnvStr(EnvLockBackend, DefaultLockBackend),
		LockTTL:        getEnvDuration(EnvLockTTL, DefaultLockTTL),
		LockRetries:    getEnvNum(EnvLockRetries, DefaultLockRetries),
		LockRetryDelay: getEnvDuration(EnvLockRetryDelay, DefaultLockRetryDelay),

		EventsEnabled:  getEnvBool(EnvEventsEnabled, DefaultEventsEnabled),
		EventsTopic:    getEnvStr(EnvEventsTopic, DefaultEventsTopic),
		EventsDLQTopic: getEnvStr(EnvEventsDLQTopic, DefaultEventsDLQTopic),

		SweepCron:      getEnvStr(EnvSweepCron, DefaultSweepCron),
		SweepBatchSize: getEnvNum(EnvSweepBatchSize, DefaultSweepBatchSize),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}
	if loc, err := time.LoadLocation(cfg.TimeZone); err == nil {
		cfg.Location = loc
	}
	if envFileErr == nil {
		cfg.Log.Debug("Loaded environment overrides from .env")
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

// SetRedis connects the lock store. It is a no-op unless the redis lock backend is selected.
func (cfg *Config) SetRedis() {
	if cfg.LockBackend != LockBackendRedis {
		return
	}
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	for name, d := range map[string]time.Duration{
		"MongoConnTimeout": cfg.MongoConnTimeout,
		"RateLimitWindow":  cfg.RateLimitWindow,
		"RequestTimeout":   cfg.RequestTimeout,
		"IdempotencyTTL":   cfg.IdempotencyTTL,
		"ReadTimeout":      cfg.ReadTimeout,
		"WriteTimeout":     cfg.WriteTimeout,
		"IdleTimeout":      cfg.IdleTimeout,
		"ShutdownTimeout":  cfg.ShutdownTimeout,
		"LockTTL":          cfg.LockTTL,
	} {
		if d <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", name, d))
		}
	}
	if cfg.LockTTL > 0 && cfg.LockTTL <= cfg.RequestTimeout {
		errors = append(errors, fmt.Sprintf("LockTTL must be greater than RequestTimeout (%s), got: %s", cfg.RequestTimeout, cfg.LockTTL))
	}
	if cfg.LockRetryDelay < 0 {
		errors = append(errors, fmt.Sprintf("LockRetryDelay cannot be negative, got: %s", cfg.LockRetryDelay))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.LockRetries < 1 || cfg.LockRetries > 10 {
		errors = append(errors, fmt.Sprintf("LockRetries must be between 1 and 10, got: %d", cfg.LockRetries))
	}
	if cfg.CurrencyScale < 0 || cfg.CurrencyScale > 4 {
		errors = append(errors, fmt.Sprintf("CurrencyScale must be between 0 and 4, got: %d", cfg.CurrencyScale))
	}

	if cfg.Location == nil {
		errors = append(errors, fmt.Sprintf("TimeZone must be a valid IANA zone, got: %s", cfg.TimeZone))
	}

	for name, v := range map[string]string{
		"OpeningTime": cfg.OpeningTime,
		"ClosingTime": cfg.ClosingTime,
		"NightStart":  cfg.NightStart,
		"NightEnd":    cfg.NightEnd,
	} {
		if !clockRegex.MatchString(v) {
			errors = append(errors, fmt.Sprintf("%s must be in HH:MM format (00:00-24:00), got: %s", name, v))
		}
	}
	if clockRegex.MatchString(cfg.OpeningTime) && clockRegex.MatchString(cfg.ClosingTime) && cfg.OpeningTime >= cfg.ClosingTime {
		errors = append(errors, fmt.Sprintf("OpeningTime (%s) must be before ClosingTime (%s)", cfg.OpeningTime, cfg.ClosingTime))
	}

	if _, err := cfg.Weekend(); err != nil {
		errors = append(errors, err.Error())
	}
	for _, h := range cfg.Holidays {
		if !holidayRegex.MatchString(h) {
			errors = append(errors, fmt.Sprintf("Holidays entries must be YYYY-MM-DD or MM-DD, got: %s", h))
		}
	}

	if cfg.MonthlyPricingMode != MonthlyPricingPerOccurrence && cfg.MonthlyPricingMode != MonthlyPricingFrozen {
		errors = append(errors, fmt.Sprintf("MonthlyPricingMode must be one of [%s, %s], got: %s", MonthlyPricingPerOccurrence, MonthlyPricingFrozen, cfg.MonthlyPricingMode))
	}
	if cfg.LockBackend != LockBackendMongo && cfg.LockBackend != LockBackendRedis {
		errors = append(errors, fmt.Sprintf("LockBackend must be one of [%s, %s], got: %s", LockBackendMongo, LockBackendRedis, cfg.LockBackend))
	}
	if cfg.LockBackend == LockBackendRedis && cfg.RedisAddr == "" {
		errors = append(errors, "RedisAddr cannot be empty when LockBackend is redis")
	}
	if cfg.EventsEnabled && cfg.EventsTopic == "" {
		errors = append(errors, "EventsTopic cannot be empty when events are enabled")
	}
	if cfg.SweepBatchSize <= 0 {
		errors = append(errors, fmt.Sprintf("SweepBatchSize must be positive, got: %d", cfg.SweepBatchSize))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

// Weekend resolves WeekendDays into time.Weekday values.
func (cfg *Config) Weekend() ([]time.Weekday, error) {
	days := make([]time.Weekday, 0, len(cfg.WeekendDays))
	for _, name := range cfg.WeekendDays {
		d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("WeekendDays contains an unknown weekday: %s", name)
		}
		days = append(days, d)
	}
	return days, nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"time_zone", cfg.TimeZone,
		"opening_time", cfg.OpeningTime,
		"closing_time", cfg.ClosingTime,
		"night_window", cfg.NightStart+"-"+cfg.NightEnd,
		"weekend_days", cfg.WeekendDays,
		"static_holidays", len(cfg.Holidays),
		"currency_scale", cfg.CurrencyScale,
		"monthly_pricing_mode", cfg.MonthlyPricingMode,
		"lock_backend", cfg.LockBackend,
		"lock_ttl", cfg.LockTTL,
		"lock_retries", cfg.LockRetries,
		"redis_addr", cfg.RedisAddr,
		"redis_password_set", cfg.RedisPassword != "",
		"events_enabled", cfg.EventsEnabled,
		"events_topic", cfg.EventsTopic,
		"sweep_cron", cfg.SweepCron,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	raw := getEnvStr(key, fallback)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log, cfg.ShutdownTimeout)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
