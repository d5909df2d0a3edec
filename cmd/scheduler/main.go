package main

import (
	"tourdesk/pkg/app"
	"tourdesk/pkg/config"
	"tourdesk/pkg/metrics"
)

const ServiceName = "scheduler"

func main() {
	cfg := config.Load(ServiceName)
	m := metrics.New(ServiceName)

	cfg.Log.Info("Starting Scheduler service",
		"storage", cfg.StorageBackend,
		"events", cfg.EventsBackend,
		"delivery", cfg.NotificationDelivery,
	)

	c, err := build(cfg, m)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize services", "error", err)
	}

	serverApp := app.NewApplication(cfg, m)
	serverApp.SetApp(c.handlers...)
	for _, s := range c.stoppers {
		serverApp.OnStop(s)
	}
	serverApp.Run()
}
