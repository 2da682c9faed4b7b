// Package bootstrap wires repositories, the calendar and pricing collaborators
// and the event publisher into the services each binary runs.
package bootstrap

import (
	"fmt"

	"courtbook/internal/availability"
	bookingshandler "courtbook/internal/bookings/handler"
	bookingsrepo "courtbook/internal/bookings/repository"
	bookingsservice "courtbook/internal/bookings/service"
	bookingsvalidator "courtbook/internal/bookings/validator"
	"courtbook/internal/calendar"
	cataloghandler "courtbook/internal/catalog/handler"
	catalogrepo "courtbook/internal/catalog/repository"
	catalogservice "courtbook/internal/catalog/service"
	"courtbook/internal/events"
	"courtbook/internal/pricing"
	sbhandler "courtbook/internal/servicebookings/handler"
	sbrepo "courtbook/internal/servicebookings/repository"
	sbservice "courtbook/internal/servicebookings/service"
	sbvalidator "courtbook/internal/servicebookings/validator"
	"courtbook/pkg/config"
	"courtbook/pkg/contracts"
	"courtbook/pkg/kafka"
	kafka_config "courtbook/pkg/kafka/config"
	kafka_middleware "courtbook/pkg/kafka/middleware"
)

type Components struct {
	Bookings        bookingsservice.BookingService
	ServiceBookings sbservice.ServiceBookingService
	Catalog         catalogservice.CatalogService
	Publisher       events.Publisher

	producer *kafka.Producer
	cfg      *config.Config
}

// Build expects cfg.SetMongo, and cfg.SetRedis for the redis lock backend,
// to have been called.
func Build(cfg *config.Config, source string) (*Components, error) {
	grid, err := calendar.NewGrid(cfg.OpeningTime, cfg.ClosingTime)
	if err != nil {
		return nil, fmt.Errorf("invalid opening hours: %w", err)
	}
	night, err := calendar.NewNightWindow(cfg.NightStart, cfg.NightEnd)
	if err != nil {
		return nil, fmt.Errorf("invalid night window: %w", err)
	}
	weekend, err := cfg.Weekend()
	if err != nil {
		return nil, err
	}
	static, err := calendar.NewStaticHolidays(cfg.Holidays)
	if err != nil {
		return nil, fmt.Errorf("invalid holidays: %w", err)
	}

	holidays := calendar.Oracles{static, catalogrepo.NewMongoHolidayRepository(cfg)}
	days := calendar.NewClassifier(weekend, holidays)
	engine := pricing.NewEngine(night, int32(cfg.CurrencyScale))

	locks, err := newLockRepository(cfg)
	if err != nil {
		return nil, err
	}

	c := &Components{cfg: cfg}
	if err := c.setPublisher(source); err != nil {
		return nil, err
	}

	c.Catalog = catalogservice.NewCatalogService(
		catalogrepo.NewMongoCourtRepository(cfg),
		catalogrepo.NewMongoBranchRepository(cfg),
		catalogrepo.NewMongoCustomerRepository(cfg),
		cfg.Log,
	)

	bookingRepo := bookingsrepo.NewMongoBookingRepository(cfg)
	serviceBookingRepo := sbrepo.NewMongoServiceBookingRepository(cfg)

	c.Bookings = bookingsservice.NewBookingService(bookingsservice.Dependencies{
		Repo:      bookingRepo,
		Locks:     locks,
		Invoices:  bookingsrepo.NewMongoInvoiceRepository(cfg),
		Services:  serviceBookingRepo,
		Catalog:   c.Catalog,
		Checker:   availability.NewChecker(grid, bookingRepo),
		Pricing:   engine,
		Days:      days,
		Clock:     calendar.SystemClock{},
		Publisher: c.Publisher,
		Validator: bookingsvalidator.NewBookingValidator(cfg.Log),
		Config:    cfg,
	})

	c.ServiceBookings = sbservice.NewServiceBookingService(
		serviceBookingRepo,
		sbrepo.NewMongoBranchServiceRepository(cfg),
		bookingRepo,
		sbvalidator.NewServiceBookingValidator(cfg.Log),
		calendar.SystemClock{},
		c.Publisher,
		cfg,
	)

	cfg.Log.Info("Services initialized",
		"database", cfg.MongoDatabaseName,
		"lock_backend", cfg.LockBackend,
		"events_enabled", cfg.EventsEnabled,
	)
	return c, nil
}

// Handlers returns the HTTP surface of the bookings API.
func (c *Components) Handlers() []contracts.Handler {
	return []contracts.Handler{
		bookingshandler.NewBookingHandler(c.Bookings, c.cfg.Location, c.cfg.Log),
		sbhandler.NewServiceBookingHandler(c.ServiceBookings, c.cfg.Log),
		cataloghandler.NewCatalogHandler(c.Catalog, c.cfg.Log),
	}
}

// Close flushes pending events.
func (c *Components) Close() {
	if c.producer == nil {
		return
	}
	if err := c.producer.Close(); err != nil {
		c.cfg.Log.Error("Failed to close event producer", "error", err)
	}
}

func (c *Components) setPublisher(source string) error {
	if !c.cfg.EventsEnabled {
		c.Publisher = events.NopPublisher{}
		return nil
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		return fmt.Errorf("invalid kafka configuration: %w", err)
	}
	kafkaCfg.LogConfiguration(c.cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, c.cfg.EventsTopic, c.cfg.EventsDLQTopic, c.cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to create event producer: %w", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(c.cfg.Log))
	}

	c.producer = producer
	c.Publisher = events.NewKafkaPublisher(producer, source)
	return nil
}

func newLockRepository(cfg *config.Config) (bookingsrepo.LockRepository, error) {
	switch cfg.LockBackend {
	case config.LockBackendRedis:
		if cfg.Client.Redis == nil {
			return nil, fmt.Errorf("redis lock backend selected but no redis client is connected")
		}
		return bookingsrepo.NewRedisLockRepository(cfg.Client.Redis), nil
	default:
		return bookingsrepo.NewMongoLockRepository(cfg), nil
	}
}
