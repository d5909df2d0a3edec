package config

const (
	EnvStorageBackend    = "STORAGE_BACKEND"
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvEventsBackend        = "EVENTS_BACKEND"
	EnvNotificationDelivery = "NOTIFICATION_DELIVERY"
	EnvBookingsTopic        = "BOOKINGS_TOPIC"
	EnvBookingsDLQTopic     = "BOOKINGS_DLQ_TOPIC"
	EnvNotificationsTopic   = "NOTIFICATIONS_TOPIC"
	EnvConsumerGroupID      = "CONSUMER_GROUP_ID"
	EnvEventWorkers         = "EVENT_WORKERS"
	EnvEventBufferSize      = "EVENT_BUFFER_SIZE"
	EnvEventEnqueueWait     = "EVENT_ENQUEUE_WAIT"

	EnvPort           = "PORT"
	EnvLogLevel       = "LOG_LEVEL"
	EnvIdentityHeader = "IDENTITY_HEADER"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvLockTimeout       = "LOCK_TIMEOUT"
	EnvLockTTL           = "LOCK_TTL"
	EnvLockRetryInterval = "LOCK_RETRY_INTERVAL"
	EnvUpdateMaxAttempts = "UPDATE_MAX_ATTEMPTS"

	EnvTimeZone = "TIME_ZONE"

	EnvDefaultPaginationLimit    = "DEFAULT_PAGINATION_LIMIT"
	EnvMaxPaginationLimit        = "MAX_PAGINATION_LIMIT"
	EnvDefaultNotificationsLimit = "DEFAULT_NOTIFICATIONS_LIMIT"
	EnvMaxNotificationsLimit     = "MAX_NOTIFICATIONS_LIMIT"

	EnvSeedFile = "SEED_FILE"
)
