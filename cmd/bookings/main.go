package main

import (
	"courtbook/internal/bootstrap"
	"courtbook/pkg/app"
	"courtbook/pkg/config"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Bookings service")
	components, err := bootstrap.Build(cfg, ServiceName)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize services", "error", err)
	}

	serverApp := app.NewApplication(cfg)
	serverApp.OnShutdown(components.Close)
	serverApp.SetApp(components.Handlers()...)
	serverApp.Run()
}
