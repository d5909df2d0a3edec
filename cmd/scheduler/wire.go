package main

import (
	"context"
	"fmt"
	bookingshandler "tourdesk/internal/bookings/handler"
	bookingsservice "tourdesk/internal/bookings/service"
	"tourdesk/internal/bookings/validator"
	crewhandler "tourdesk/internal/crew/handler"
	crewservice "tourdesk/internal/crew/service"
	"tourdesk/internal/events"
	notificationshandler "tourdesk/internal/notifications/handler"
	notificationsservice "tourdesk/internal/notifications/service"
	resourceshandler "tourdesk/internal/resources/handler"
	resourcesservice "tourdesk/internal/resources/service"
	"tourdesk/internal/storage"
	utilizationhandler "tourdesk/internal/utilization/handler"
	utilizationservice "tourdesk/internal/utilization/service"
	"tourdesk/pkg/config"
	"tourdesk/pkg/contracts"
	"tourdesk/pkg/kafka"
	kafka_config "tourdesk/pkg/kafka/config"
	kafkamiddleware "tourdesk/pkg/kafka/middleware"
	"tourdesk/pkg/metrics"
)

type components struct {
	stores        *storage.Stores
	bookings      bookingsservice.BookingService
	resources     resourcesservice.ResourceService
	crew          crewservice.CrewService
	notifications notificationsservice.NotificationService
	utilization   utilizationservice.UtilizationService
	handlers      []contracts.Handler
	stoppers      []contracts.Stopper
}

// build assembles the whole scheduler for the configured backends. On
// error, whatever was already started has been stopped.
func build(cfg *config.Config, m *metrics.Metrics) (c *components, err error) {
	c = &components{}
	defer func() {
		if err != nil {
			c.stop(context.Background())
		}
	}()

	c.stores, err = storage.New(cfg)
	if err != nil {
		return nil, err
	}

	bookingValidator := validator.NewBookingValidator(cfg.Log)
	c.resources = resourcesservice.NewResourceService(
		c.stores.Resources,
		c.stores.Calendar,
		c.stores.Bookings,
		c.stores.Locker,
		c.stores.TxManager,
		bookingValidator,
		cfg,
	)
	c.crew = crewservice.NewCrewService(c.stores.Crew, c.stores.Schedules, bookingValidator, cfg)
	c.utilization = utilizationservice.NewUtilizationService(c.stores.Utilization, c.stores.Bookings, cfg)

	var kcfg *kafka_config.Config
	if cfg.UsesKafka() || cfg.NotificationDelivery == config.DeliveryKafka {
		kcfg, err = kafka_config.Load()
		if err != nil {
			return nil, fmt.Errorf("load kafka config: %w", err)
		}
		kcfg.LogConfiguration(cfg.Log)
	}

	deliverer, err := c.deliverer(cfg, kcfg, m)
	if err != nil {
		return nil, err
	}
	c.notifications = notificationsservice.NewNotificationService(c.stores.Notifications, deliverer, cfg)

	publisher, err := c.publisher(cfg, kcfg, m)
	if err != nil {
		return nil, err
	}

	c.bookings = bookingsservice.NewBookingService(bookingsservice.Dependencies{
		Bookings:  c.stores.Bookings,
		Resources: c.stores.Resources,
		Calendar:  c.stores.Calendar,
		Crew:      c.stores.Crew,
		Schedules: c.stores.Schedules,
		Locker:    c.stores.Locker,
		TxManager: c.stores.TxManager,
		Publisher: publisher,
		Validator: bookingValidator,
		Metrics:   m,
		Config:    cfg,
	})

	if cfg.SeedFile != "" {
		seed, err := config.LoadSeed(cfg.SeedFile)
		if err != nil {
			return nil, err
		}
		if err := applySeed(context.Background(), seed, c.resources, c.crew, cfg); err != nil {
			return nil, err
		}
	}

	c.handlers = []contracts.Handler{
		bookingshandler.NewBookingHandler(c.bookings, cfg),
		resourceshandler.NewResourceHandler(c.resources, cfg),
		crewhandler.NewCrewHandler(c.crew, cfg),
		notificationshandler.NewNotificationHandler(c.notifications, cfg),
		utilizationhandler.NewUtilizationHandler(c.utilization, cfg.Log),
	}
	return c, nil
}

// publisher returns where booking events go. In-process events run the
// notification and utilization subscribers on a worker pool; with Kafka
// they are consumed by the notifier instead.
func (c *components) publisher(cfg *config.Config, kcfg *kafka_config.Config, m *metrics.Metrics) (events.Publisher, error) {
	if cfg.UsesKafka() {
		producer, err := newProducer(kcfg, cfg.BookingsTopic, cfg.BookingsDLQTopic, cfg, m)
		if err != nil {
			return nil, err
		}
		c.stoppers = append(c.stoppers, closer(producer.Close))
		return events.NewKafkaPublisher(producer, cfg.Log.WithComponent("events")), nil
	}

	dispatcher := events.NewDispatcher(cfg.Log.WithComponent("events"), m)
	dispatcher.Subscribe("notifications", c.notifications.Handle)
	dispatcher.Subscribe("utilization", c.utilization.Handle)

	bus := events.NewBus(dispatcher, cfg.EventWorkers, cfg.EventBufferSize, cfg.Log.WithComponent("event-bus"))
	bus.SetEnqueueWait(cfg.EventEnqueueWait)
	bus.OnDrop(func(e *events.BookingEvent) { c.utilization.Invalidate(e.Dates()...) })
	bus.Start()
	c.stoppers = append(c.stoppers, bus)
	return bus, nil
}

func (c *components) deliverer(cfg *config.Config, kcfg *kafka_config.Config, m *metrics.Metrics) (notificationsservice.Deliverer, error) {
	if cfg.NotificationDelivery != config.DeliveryKafka {
		return notificationsservice.NewLogDeliverer(cfg.Log.WithComponent("notifications")), nil
	}

	producer, err := newProducer(kcfg, cfg.NotificationsTopic, "", cfg, m)
	if err != nil {
		return nil, err
	}
	c.stoppers = append(c.stoppers, closer(producer.Close))
	return notificationsservice.NewKafkaDeliverer(producer), nil
}

func (c *components) stop(ctx context.Context) {
	for i := len(c.stoppers) - 1; i >= 0; i-- {
		_ = c.stoppers[i].Stop(ctx)
	}
}

func newProducer(kcfg *kafka_config.Config, topic, dlqTopic string, cfg *config.Config, m *metrics.Metrics) (*kafka.Producer, error) {
	producer, err := kafka.NewProducer(kcfg, topic, dlqTopic, cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("create producer for %s: %w", topic, err)
	}
	if kcfg.EnableMiddleware {
		producer.Use(kafkamiddleware.LoggingProducerMiddleware(cfg.Log))
		producer.Use(kafkamiddleware.MetricsProducerMiddleware(m))
	}
	return producer, nil
}

func closer(closeFn func() error) contracts.StopFunc {
	return func(context.Context) error {
		return closeFn()
	}
}
