package service

import (
	"context"
	"sync"
	"time"
	"tourdesk/internal/events"
	"tourdesk/internal/utilization/repository"
	"tourdesk/pkg/config"
	apperrors "tourdesk/pkg/errors"
	"tourdesk/pkg/model"
)

type UtilizationService interface {
	Recompute(ctx context.Context, date string) (*model.UtilizationRecord, error)
	Get(ctx context.Context, date string) (*model.UtilizationRecord, error)
	// Handle recomputes every date a booking event touched.
	Handle(ctx context.Context, event *events.BookingEvent) error
	// Invalidate marks dates whose stored record may be stale; the next Get
	// recomputes them.
	Invalidate(dates ...string)
}

// BookingsByDate lists the active bookings on a date.
type BookingsByDate interface {
	FindActiveByDate(ctx context.Context, date string) ([]*model.Booking, error)
}

type utilizationService struct {
	// mu serializes recomputes so a slower one never overwrites a record
	// built from newer bookings.
	mu sync.Mutex

	dirtyMu sync.Mutex
	dirty   map[string]struct{}

	repo     repository.UtilizationRepository
	bookings BookingsByDate
	cfg      *config.Config
}

func NewUtilizationService(repo repository.UtilizationRepository, bookings BookingsByDate, cfg *config.Config) UtilizationService {
	return &utilizationService{
		repo:     repo,
		bookings: bookings,
		cfg:      cfg,
		dirty:    make(map[string]struct{}),
	}
}

// Recompute rebuilds the record for date from scratch, so replaying an event
// or missing one never leaves a drifted total behind.
func (s *utilizationService) Recompute(ctx context.Context, date string) (*model.UtilizationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// An invalidation arriving while this recompute runs stays set.
	s.clearDirty(date)

	active, err := s.bookings.FindActiveByDate(ctx, date)
	if err != nil {
		s.cfg.Log.Error("Failed to load bookings for utilization", "date", date, "error", err)
		s.Invalidate(date)
		return nil, apperrors.Internal("Failed to compute utilization", err)
	}

	record := Aggregate(date, active)
	record.ComputedAt = time.Now().UTC().Truncate(time.Millisecond)

	if err := s.repo.Put(ctx, record); err != nil {
		s.cfg.Log.Error("Failed to store utilization", "date", date, "error", err)
		s.Invalidate(date)
		return nil, apperrors.Internal("Failed to store utilization", err)
	}

	s.cfg.Log.Debug("Utilization recomputed",
		"date", date,
		"active_bookings", record.TotalActiveBookings,
	)
	return record, nil
}

func (s *utilizationService) Get(ctx context.Context, date string) (*model.UtilizationRecord, error) {
	if s.isDirty(date) {
		return s.Recompute(ctx, date)
	}

	record, err := s.repo.FindByDate(ctx, date)
	if err != nil {
		return nil, apperrors.Internal("Failed to retrieve utilization", err)
	}
	if record != nil {
		return record, nil
	}
	return s.Recompute(ctx, date)
}

func (s *utilizationService) Handle(ctx context.Context, event *events.BookingEvent) error {
	for _, date := range event.Dates() {
		if _, err := s.Recompute(ctx, date); err != nil {
			return err
		}
	}
	return nil
}

func (s *utilizationService) Invalidate(dates ...string) {
	s.dirtyMu.Lock()
	defer s.dirtyMu.Unlock()
	for _, date := range dates {
		s.dirty[date] = struct{}{}
	}
	if len(dates) > 0 {
		s.cfg.Log.Debug("Utilization marked stale", "dates", dates)
	}
}

func (s *utilizationService) isDirty(date string) bool {
	s.dirtyMu.Lock()
	defer s.dirtyMu.Unlock()
	_, ok := s.dirty[date]
	return ok
}

func (s *utilizationService) clearDirty(date string) {
	s.dirtyMu.Lock()
	defer s.dirtyMu.Unlock()
	delete(s.dirty, date)
}

// Aggregate sums booked hours per resource and per crew member over the
// active bookings of one date.
func Aggregate(date string, bookings []*model.Booking) *model.UtilizationRecord {
	record := &model.UtilizationRecord{
		Date:          date,
		ResourceHours: make(map[string]float64),
		CrewHours:     make(map[string]float64),
	}

	for _, b := range bookings {
		if !b.IsActive() || b.Window.Date != date {
			continue
		}
		hours := b.Window.Hours()
		record.ResourceHours[b.Resource.ID] += hours
		for _, c := range b.Crew {
			record.CrewHours[c.ID] += hours
		}
		record.TotalActiveBookings++
	}
	return record
}
