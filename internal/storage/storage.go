// Package storage assembles the repositories, scheduling locker and
// transaction manager of one storage backend.
package storage

import (
	"fmt"
	"tourdesk/internal/bookings/locking"
	bookingsrepository "tourdesk/internal/bookings/repository"
	crewrepository "tourdesk/internal/crew/repository"
	notificationsrepository "tourdesk/internal/notifications/repository"
	resourcesrepository "tourdesk/internal/resources/repository"
	utilizationrepository "tourdesk/internal/utilization/repository"
	"tourdesk/pkg/config"
	"tourdesk/pkg/db"
	"tourdesk/pkg/db/memory"
	mongotx "tourdesk/pkg/db/mongo"
)

type Stores struct {
	Bookings      bookingsrepository.BookingRepository
	Resources     resourcesrepository.ResourceRepository
	Calendar      resourcesrepository.CalendarRepository
	Crew          crewrepository.CrewRepository
	Schedules     crewrepository.ScheduleRepository
	Notifications notificationsrepository.NotificationRepository
	Utilization   utilizationrepository.UtilizationRepository
	Locker        locking.Locker
	TxManager     db.TransactionManager
}

// New picks the backend named by cfg.StorageBackend. The Mongo backend
// connects through cfg.SetMongo when no client is set yet.
func New(cfg *config.Config) (*Stores, error) {
	switch cfg.StorageBackend {
	case config.StorageMemory:
		return NewMemory(), nil
	case config.StorageMongo:
		if cfg.Client.Mongo == nil {
			cfg.SetMongo()
		}
		return NewMongo(cfg), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// NewMemory keeps everything in one process. Writes made inside one
// transaction become visible together.
func NewMemory() *Stores {
	store := memory.NewStore()
	return &Stores{
		Bookings:      bookingsrepository.NewMemoryBookingRepository(store),
		Resources:     resourcesrepository.NewMemoryResourceRepository(store),
		Calendar:      resourcesrepository.NewMemoryCalendarRepository(store),
		Crew:          crewrepository.NewMemoryCrewRepository(store),
		Schedules:     crewrepository.NewMemoryScheduleRepository(store),
		Notifications: notificationsrepository.NewMemoryNotificationRepository(store),
		Utilization:   utilizationrepository.NewMemoryUtilizationRepository(store),
		Locker:        locking.NewMemoryLocker(),
		TxManager:     store,
	}
}

func NewMongo(cfg *config.Config) *Stores {
	return &Stores{
		Bookings:      bookingsrepository.NewMongoBookingRepository(cfg),
		Resources:     resourcesrepository.NewMongoResourceRepository(cfg),
		Calendar:      resourcesrepository.NewMongoCalendarRepository(cfg),
		Crew:          crewrepository.NewMongoCrewRepository(cfg),
		Schedules:     crewrepository.NewMongoScheduleRepository(cfg),
		Notifications: notificationsrepository.NewMongoNotificationRepository(cfg),
		Utilization:   utilizationrepository.NewMongoUtilizationRepository(cfg),
		Locker: locking.NewMongoLocker(
			bookingsrepository.NewBookingLockRepository(cfg),
			cfg.LockTTL,
			cfg.LockRetryInterval,
			cfg.Log.WithComponent("locker"),
		),
		TxManager: mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}
