package config

import (
	"time"
	"tourdesk/pkg/client"
	"tourdesk/pkg/logger"
)

const (
	StorageMemory = "memory"
	StorageMongo  = "mongo"

	EventsInProcess = "inprocess"
	EventsKafka     = "kafka"

	DeliveryLog   = "log"
	DeliveryKafka = "kafka"
)

const (
	DefaultStorageBackend    = StorageMemory
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "tourdesk"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultEventsBackend        = EventsInProcess
	DefaultNotificationDelivery = DeliveryLog
	DefaultBookingsTopic        = "tourdesk.bookings"
	DefaultBookingsDLQTopic     = "tourdesk.bookings.dlq"
	DefaultNotificationsTopic   = "tourdesk.notifications"
	DefaultConsumerGroupID      = "tourdesk-notifier"
	DefaultEventWorkers         = 4
	DefaultEventBufferSize      = 1024
	DefaultEventEnqueueWait     = 100 * time.Millisecond

	DefaultPort           = "8080"
	DefaultIdentityHeader = "X-User-ID"
	DefaultLogLevel       = "info"

	DefaultRateLimitRequests = 120
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultLockTimeout       = 5 * time.Second
	DefaultLockTTL           = 30 * time.Second
	DefaultLockRetryInterval = 25 * time.Millisecond
	DefaultUpdateMaxAttempts = 3

	DefaultTimeZone = "UTC"

	DefaultPaginationLimit       = 100
	DefaultMaxPaginationLimit    = 500
	DefaultNotificationsLimit    = 20
	DefaultMaxNotificationsLimit = 100
)

// Default returns a configuration built from the defaults alone, with an
// in-memory backend and UTC. Tests and tools use it instead of Load.
func Default(log *logger.Logger) *Config {
	return &Config{
		StorageBackend:    DefaultStorageBackend,
		MongoURI:          DefaultMongoURI,
		MongoDatabaseName: DefaultMongoDatabaseName,
		MongoConnTimeout:  DefaultMongoConnTimeout,

		EventsBackend:        DefaultEventsBackend,
		NotificationDelivery: DefaultNotificationDelivery,
		BookingsTopic:        DefaultBookingsTopic,
		BookingsDLQTopic:     DefaultBookingsDLQTopic,
		NotificationsTopic:   DefaultNotificationsTopic,
		ConsumerGroupID:      DefaultConsumerGroupID,
		EventWorkers:         DefaultEventWorkers,
		EventBufferSize:      DefaultEventBufferSize,
		EventEnqueueWait:     DefaultEventEnqueueWait,

		Port:           DefaultPort,
		IdentityHeader: DefaultIdentityHeader,

		RateLimitRequests: DefaultRateLimitRequests,
		RateLimitWindow:   DefaultRateLimitWindow,

		RequestTimeout: DefaultRequestTimeout,
		IdempotencyTTL: DefaultIdempotencyTTL,
		MaxRequestSize: DefaultMaxRequestSize,

		ReadTimeout:     DefaultReadTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		IdleTimeout:     DefaultIdleTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,

		LockTimeout:       DefaultLockTimeout,
		LockTTL:           DefaultLockTTL,
		LockRetryInterval: DefaultLockRetryInterval,
		UpdateMaxAttempts: DefaultUpdateMaxAttempts,

		TimeZone: DefaultTimeZone,
		Location: time.UTC,

		DefaultPaginationLimit:    DefaultPaginationLimit,
		MaxPaginationLimit:        DefaultMaxPaginationLimit,
		DefaultNotificationsLimit: DefaultNotificationsLimit,
		MaxNotificationsLimit:     DefaultMaxNotificationsLimit,

		Log:    log,
		Client: client.NewClient(),
	}
}
