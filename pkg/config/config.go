package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"
	"tourdesk/pkg/client"
	"tourdesk/pkg/logger"
)

type Config struct {
	StorageBackend    string
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	EventsBackend        string
	NotificationDelivery string
	BookingsTopic        string
	BookingsDLQTopic     string
	NotificationsTopic   string
	ConsumerGroupID      string
	EventWorkers         int
	EventBufferSize      int
	EventEnqueueWait     time.Duration

	Port           string
	IdentityHeader string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	LockTimeout       time.Duration
	LockTTL           time.Duration
	LockRetryInterval time.Duration
	UpdateMaxAttempts int

	TimeZone string
	Location *time.Location

	DefaultPaginationLimit    int
	MaxPaginationLimit        int
	DefaultNotificationsLimit int
	MaxNotificationsLimit     int

	SeedFile string

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		StorageBackend:    getEnvStr(EnvStorageBackend, DefaultStorageBackend),
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		EventsBackend:        getEnvStr(EnvEventsBackend, DefaultEventsBackend),
		NotificationDelivery: getEnvStr(EnvNotificationDelivery, DefaultNotificationDelivery),
		BookingsTopic:        getEnvStr(EnvBookingsTopic, DefaultBookingsTopic),
		BookingsDLQTopic:     getEnvStr(EnvBookingsDLQTopic, DefaultBookingsDLQTopic),
		NotificationsTopic:   getEnvStr(EnvNotificationsTopic, DefaultNotificationsTopic),
		ConsumerGroupID:      getEnvStr(EnvConsumerGroupID, DefaultConsumerGroupID),
		EventWorkers:         getEnvNum(EnvEventWorkers, DefaultEventWorkers),
		EventBufferSize:      getEnvNum(EnvEventBufferSize, DefaultEventBufferSize),
		EventEnqueueWait:     getEnvDuration(EnvEventEnqueueWait, DefaultEventEnqueueWait),

		Port:           getEnvStr(EnvPort, DefaultPort),
		IdentityHeader: getEnvStr(EnvIdentityHeader, DefaultIdentityHeader),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		LockTimeout:       getEnvDuration(EnvLockTimeout, DefaultLockTimeout),
		LockTTL:           getEnvDuration(EnvLockTTL, DefaultLockTTL),
		LockRetryInterval: getEnvDuration(EnvLockRetryInterval, DefaultLockRetryInterval),
		UpdateMaxAttempts: getEnvNum(EnvUpdateMaxAttempts, DefaultUpdateMaxAttempts),

		TimeZone: getEnvStr(EnvTimeZone, DefaultTimeZone),

		DefaultPaginationLimit:    getEnvNum(EnvDefaultPaginationLimit, DefaultPaginationLimit),
		MaxPaginationLimit:        getEnvNum(EnvMaxPaginationLimit, DefaultMaxPaginationLimit),
		DefaultNotificationsLimit: getEnvNum(EnvDefaultNotificationsLimit, DefaultNotificationsLimit),
		MaxNotificationsLimit:     getEnvNum(EnvMaxNotificationsLimit, DefaultMaxNotificationsLimit),

		SeedFile: getEnvStr(EnvSeedFile, ""),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	err := cfg.Validate()
	if err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) UsesMongo() bool {
	return cfg.StorageBackend == StorageMongo
}

func (cfg *Config) UsesKafka() bool {
	return cfg.EventsBackend == EventsKafka
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

// Validate checks every setting and reports all problems at once.
// It also resolves TimeZone into Location.
func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	switch cfg.StorageBackend {
	case StorageMemory:
	case StorageMongo:
		if cfg.MongoURI == "" {
			errors = append(errors, "MongoURI cannot be empty")
		} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty")
		}
		if cfg.MongoConnTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
		}
	default:
		errors = append(errors, fmt.Sprintf("StorageBackend must be one of [%s, %s], got: %s", StorageMemory, StorageMongo, cfg.StorageBackend))
	}

	switch cfg.EventsBackend {
	case EventsInProcess:
	case EventsKafka:
		if cfg.BookingsTopic == "" {
			errors = append(errors, "BookingsTopic cannot be empty when events backend is kafka")
		}
		if cfg.ConsumerGroupID == "" {
			errors = append(errors, "ConsumerGroupID cannot be empty when events backend is kafka")
		}
	default:
		errors = append(errors, fmt.Sprintf("EventsBackend must be one of [%s, %s], got: %s", EventsInProcess, EventsKafka, cfg.EventsBackend))
	}

	switch cfg.NotificationDelivery {
	case DeliveryLog:
	case DeliveryKafka:
		if cfg.NotificationsTopic == "" {
			errors = append(errors, "NotificationsTopic cannot be empty when notification delivery is kafka")
		}
	default:
		errors = append(errors, fmt.Sprintf("NotificationDelivery must be one of [%s, %s], got: %s", DeliveryLog, DeliveryKafka, cfg.NotificationDelivery))
	}

	if cfg.IdentityHeader == "" {
		errors = append(errors, "IdentityHeader cannot be empty")
	}

	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.LockTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("LockTimeout must be positive, got: %s", cfg.LockTimeout))
	}
	if cfg.LockTTL <= cfg.LockTimeout {
		errors = append(errors, fmt.Sprintf("LockTTL (%s) must be longer than LockTimeout (%s)", cfg.LockTTL, cfg.LockTimeout))
	}
	if cfg.LockRetryInterval <= 0 {
		errors = append(errors, fmt.Sprintf("LockRetryInterval must be positive, got: %s", cfg.LockRetryInterval))
	}
	if cfg.RequestTimeout <= cfg.LockTimeout {
		errors = append(errors, fmt.Sprintf("RequestTimeout (%s) must be longer than LockTimeout (%s)", cfg.RequestTimeout, cfg.LockTimeout))
	}
	if cfg.UpdateMaxAttempts <= 0 {
		errors = append(errors, fmt.Sprintf("UpdateMaxAttempts must be positive, got: %d", cfg.UpdateMaxAttempts))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.EventWorkers <= 0 {
		errors = append(errors, fmt.Sprintf("EventWorkers must be positive, got: %d", cfg.EventWorkers))
	}
	if cfg.EventBufferSize <= 0 {
		errors = append(errors, fmt.Sprintf("EventBufferSize must be positive, got: %d", cfg.EventBufferSize))
	}
	if cfg.EventEnqueueWait < 0 {
		errors = append(errors, fmt.Sprintf("EventEnqueueWait cannot be negative, got: %s", cfg.EventEnqueueWait))
	}

	if cfg.DefaultPaginationLimit <= 0 || cfg.DefaultPaginationLimit > cfg.MaxPaginationLimit {
		errors = append(errors, fmt.Sprintf("DefaultPaginationLimit (%d) must be between 1 and MaxPaginationLimit (%d)", cfg.DefaultPaginationLimit, cfg.MaxPaginationLimit))
	}
	if cfg.DefaultNotificationsLimit <= 0 || cfg.DefaultNotificationsLimit > cfg.MaxNotificationsLimit {
		errors = append(errors, fmt.Sprintf("DefaultNotificationsLimit (%d) must be between 1 and MaxNotificationsLimit (%d)", cfg.DefaultNotificationsLimit, cfg.MaxNotificationsLimit))
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		errors = append(errors, fmt.Sprintf("TimeZone must be a valid IANA zone, got: %s", cfg.TimeZone))
	} else {
		cfg.Location = loc
	}

	if cfg.SeedFile != "" {
		if _, err := os.Stat(cfg.SeedFile); err != nil {
			errors = append(errors, fmt.Sprintf("SeedFile %s is not readable: %v", cfg.SeedFile, err))
		}
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

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"storage_backend", cfg.StorageBackend,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"events_backend", cfg.EventsBackend,
		"notification_delivery", cfg.NotificationDelivery,
		"bookings_topic", cfg.BookingsTopic,
		"notifications_topic", cfg.NotificationsTopic,
		"event_workers", cfg.EventWorkers,
		"event_enqueue_wait", cfg.EventEnqueueWait,
		"port", cfg.Port,
		"identity_header", cfg.IdentityHeader,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"lock_timeout", cfg.LockTimeout,
		"lock_ttl", cfg.LockTTL,
		"update_max_attempts", cfg.UpdateMaxAttempts,
		"time_zone", cfg.TimeZone,
		"seed_file", cfg.SeedFile,
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

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log, cfg.ShutdownTimeout)
}

func NormalizePaginationLimit(limit, defaultLimit, maxLimit int) int {
	if limit <= 0 {
		limit = defaultLimit
	} else if limit > maxLimit {
		limit = maxLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
