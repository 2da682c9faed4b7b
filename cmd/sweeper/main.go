package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"courtbook/internal/bookings/service"
	"courtbook/internal/bootstrap"
	"courtbook/pkg/config"

	"github.com/go-co-op/gocron/v2"
)

const JobName = "booking-sweeper"

func main() {
	cfg := config.Load(JobName)
	cfg.SetMongo()
	cfg.SetRedis()
	defer cfg.GracefulShutdown()

	components, err := bootstrap.Build(cfg, JobName)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize services", "error", err)
	}
	defer components.Close()

	scheduler, err := gocron.NewScheduler(gocron.WithLocation(cfg.Location))
	if err != nil {
		cfg.Log.Fatal("Failed to create scheduler", "error", err)
	}

	_, err = scheduler.NewJob(
		gocron.CronJob(cfg.SweepCron, false),
		gocron.NewTask(sweep, cfg, components.Bookings),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		cfg.Log.Fatal("Failed to schedule sweep job", "error", err, "cron", cfg.SweepCron)
	}

	scheduler.Start()
	cfg.Log.Info("Booking sweeper started", "cron", cfg.SweepCron, "batch_size", cfg.SweepBatchSize)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	sig := <-shutdown
	cfg.Log.Info("Shutdown signal received", "signal", sig)

	if err := scheduler.Shutdown(); err != nil {
		cfg.Log.Error("Scheduler shutdown failed", "error", err)
	}
}

// sweep completes Confirmed bookings whose end time has passed.
func sweep(cfg *config.Config, bookings service.BookingService) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	completed, err := bookings.CompleteElapsed(ctx, cfg.SweepBatchSize)
	if err != nil {
		cfg.Log.Error("Sweep failed", "error", err, "completed", completed)
		return
	}
	if completed > 0 {
		cfg.Log.Info("Sweep completed elapsed bookings", "completed", completed)
	}
}
