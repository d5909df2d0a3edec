package main

import (
	"context"
	"errors"
	"tourdesk/internal/events"
	notificationsservice "tourdesk/internal/notifications/service"
	"tourdesk/internal/storage"
	utilizationservice "tourdesk/internal/utilization/service"
	"tourdesk/pkg/app"
	"tourdesk/pkg/config"
	"tourdesk/pkg/contracts"
	"tourdesk/pkg/kafka"
	kafka_config "tourdesk/pkg/kafka/config"
	kafkamiddleware "tourdesk/pkg/kafka/middleware"
	"tourdesk/pkg/metrics"
)

const ServiceName = "notifier"

// The notifier consumes booking events published by the scheduler and runs
// the notification and utilization subscribers against the shared store.
// It serves only /health, /ready and /metrics.
func main() {
	cfg := config.Load(ServiceName)
	m := metrics.New(ServiceName)

	if !cfg.UsesMongo() {
		cfg.Log.Warn("Notifier is running on the memory backend; nothing it writes is visible to the scheduler")
	}

	stores, err := storage.New(cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize storage", "error", err)
	}

	kcfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kcfg.LogConfiguration(cfg.Log)

	serverApp := app.NewApplication(cfg, m)

	deliverer, err := newDeliverer(cfg, kcfg, m, serverApp)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize notification delivery", "error", err)
	}

	dispatcher := events.NewDispatcher(cfg.Log.WithComponent("events"), m)
	dispatcher.Subscribe("notifications", notificationsservice.NewNotificationService(stores.Notifications, deliverer, cfg).Handle)
	dispatcher.Subscribe("utilization", utilizationservice.NewUtilizationService(stores.Utilization, stores.Bookings, cfg).Handle)

	consumer, err := kafka.NewConsumer(kcfg, cfg.BookingsTopic, cfg.ConsumerGroupID, cfg.BookingsDLQTopic, events.KafkaHandler(dispatcher), cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	if kcfg.EnableMiddleware {
		consumer.Use(kafkamiddleware.LoggingConsumerMiddleware(cfg.Log))
		consumer.Use(kafkamiddleware.MetricsConsumerMiddleware(m))
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			cfg.Log.Error("Kafka consumer stopped", "error", err)
		}
	}()
	serverApp.OnStop(contracts.StopFunc(func(context.Context) error {
		cancel()
		return consumer.Close()
	}))

	serverApp.SetApp()
	serverApp.Run()
}

func newDeliverer(cfg *config.Config, kcfg *kafka_config.Config, m *metrics.Metrics, serverApp *app.Application) (notificationsservice.Deliverer, error) {
	if cfg.NotificationDelivery != config.DeliveryKafka {
		return notificationsservice.NewLogDeliverer(cfg.Log.WithComponent("notifications")), nil
	}

	producer, err := kafka.NewProducer(kcfg, cfg.NotificationsTopic, "", cfg.Log)
	if err != nil {
		return nil, err
	}
	if kcfg.EnableMiddleware {
		producer.Use(kafkamiddleware.LoggingProducerMiddleware(cfg.Log))
		producer.Use(kafkamiddleware.MetricsProducerMiddleware(m))
	}
	serverApp.OnStop(contracts.StopFunc(func(context.Context) error {
		return producer.Close()
	}))
	return notificationsservice.NewKafkaDeliverer(producer), nil
}
