package service

import (
	"context"
	"errors"
	"sync"
	"time"
	"tourdesk/internal/bookings/conflicts"
	bookingserrors "tourdesk/internal/bookings/errors"
	"tourdesk/internal/bookings/locking"
	"tourdesk/internal/bookings/validator"
	resourceserrors "tourdesk/internal/resources/errors"
	"tourdesk/internal/resources/repository"
	"tourdesk/pkg/config"
	"tourdesk/pkg/db"
	apperrors "tourdesk/pkg/errors"
	"tourdesk/pkg/model"
	"tourdesk/pkg/sanitizer"
)

type ResourceService interface {
	List(ctx context.Context, limit int, offset int64) ([]*model.Resource, int64, error)
	GetByID(ctx context.Context, id string) (*model.Resource, error)
	Create(ctx context.Context, resource *model.Resource) error
	Upsert(ctx context.Context, resource *model.Resource) error
	Calendar(ctx context.Context, resourceID, date string) (*model.CalendarDay, error)
	DeclareMaintenance(ctx context.Context, resourceID string, req *model.MaintenanceRequest, actor string) (*model.CalendarDay, error)
	RemoveMaintenance(ctx context.Context, resourceID string, window model.TimeWindow, actor string) (*model.CalendarDay, error)
}

// ActiveBookingFinder lists the active bookings of a resource on a date.
type ActiveBookingFinder interface {
	FindActiveByResourceDate(ctx context.Context, resourceID, date string) ([]*model.Booking, error)
}

type resourceService struct {
	repo      repository.ResourceRepository
	calendar  repository.CalendarRepository
	bookings  ActiveBookingFinder
	locker    locking.Locker
	txManager db.TransactionManager
	validator *validator.BookingValidator
	cfg       *config.Config
}

func NewResourceService(
	repo repository.ResourceRepository,
	calendar repository.CalendarRepository,
	bookings ActiveBookingFinder,
	locker locking.Locker,
	txManager db.TransactionManager,
	validator *validator.BookingValidator,
	cfg *config.Config,
) ResourceService {
	return &resourceService{
		repo:      repo,
		calendar:  calendar,
		bookings:  bookings,
		locker:    locker,
		txManager: txManager,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *resourceService) List(ctx context.Context, limit int, offset int64) ([]*model.Resource, int64, error) {
	var count int64
	var resources []*model.Resource
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
	}()

	go func() {
		defer wg.Done()
		resources, errFind = s.repo.FindAll(ctx, limit, offset)
	}()

	wg.Wait()
	if errCount != nil {
		s.cfg.Log.Error("Failed to count resources", "error", errCount)
		return nil, 0, apperrors.Internal("Failed to count resources", errCount)
	}
	if errFind != nil {
		s.cfg.Log.Error("Failed to list resources", "error", errFind)
		return nil, 0, apperrors.Internal("Failed to retrieve resources", errFind)
	}

	return resources, count, nil
}

func (s *resourceService) GetByID(ctx context.Context, id string) (*model.Resource, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Resource ID cannot be empty")
	}

	resource, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, resourceserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Resource", id)
		}
		return nil, apperrors.Internal("Failed to retrieve resource", err)
	}
	return resource, nil
}

func (s *resourceService) Create(ctx context.Context, resource *model.Resource) error {
	s.sanitize(resource)
	if err := s.validator.ValidateResource(resource); err != nil {
		s.cfg.Log.Warn("Resource validation failed", "id", resource.ID, "error", err)
		return validator.ToAppError("Invalid resource input", err)
	}

	if err := s.repo.Create(ctx, resource); err != nil {
		if errors.Is(err, resourceserrors.ErrDuplicateID) {
			return apperrors.Conflict("Resource with id " + resource.ID + " already exists")
		}
		s.cfg.Log.Error("Failed to create resource", "id", resource.ID, "error", err)
		return apperrors.Internal("Failed to create resource", err)
	}

	s.cfg.Log.Info("Resource created successfully", "id", resource.ID, "kind", resource.Kind)
	return nil
}

func (s *resourceService) Upsert(ctx context.Context, resource *model.Resource) error {
	s.sanitize(resource)
	if err := s.validator.ValidateResource(resource); err != nil {
		return validator.ToAppError("Invalid resource input", err)
	}

	if err := s.repo.Upsert(ctx, resource); err != nil {
		s.cfg.Log.Error("Failed to upsert resource", "id", resource.ID, "error", err)
		return apperrors.Internal("Failed to store resource", err)
	}
	return nil
}

// Calendar returns the unavailable windows of a resource on one date. A day
// with nothing stored yields an empty calendar.
func (s *resourceService) Calendar(ctx context.Context, resourceID, date string) (*model.CalendarDay, error) {
	if _, err := s.GetByID(ctx, resourceID); err != nil {
		return nil, err
	}

	day, err := s.calendar.FindDay(ctx, resourceID, date)
	if err != nil {
		return nil, apperrors.Internal("Failed to retrieve calendar", err)
	}
	if day == nil {
		day = model.NewCalendarDay(resourceID, date)
	}
	return day, nil
}

// DeclareMaintenance blocks a window on the resource calendar. It holds the
// resource-day lock so no booking can be committed into the window meanwhile,
// and refuses windows that overlap an active booking or earlier maintenance.
func (s *resourceService) DeclareMaintenance(ctx context.Context, resourceID string, req *model.MaintenanceRequest, actor string) (*model.CalendarDay, error) {
	resource, err := s.GetByID(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	req.Note = sanitizer.SanitizeString(req.Note)
	if err := s.validator.ValidateMaintenance(req); err != nil {
		return nil, validator.ToAppError("Invalid maintenance window", err)
	}

	release, err := s.lock(ctx, resourceID, req.Window.Date)
	if err != nil {
		return nil, err
	}
	defer release()

	day, err := s.calendar.FindDay(ctx, resourceID, req.Window.Date)
	if err != nil {
		return nil, apperrors.Internal("Failed to retrieve calendar", err)
	}
	if day == nil {
		day = model.NewCalendarDay(resourceID, req.Window.Date)
	}

	active, err := s.bookings.FindActiveByResourceDate(ctx, resourceID, req.Window.Date)
	if err != nil {
		return nil, apperrors.Internal("Failed to load bookings", err)
	}

	candidate := &model.Booking{Resource: resource.Ref(), Window: req.Window}
	found := conflicts.Detect(candidate, active, nil, day.EntriesByReason(model.ReasonMaintenance), "")
	if len(found) > 0 {
		s.cfg.Log.Warn("Maintenance window rejected",
			"resource_id", resourceID,
			"window", req.Window.String(),
			"conflicts", len(found),
		)
		return nil, apperrors.Conflict("Maintenance window overlaps existing reservations").
			WithDetails(map[string]any{"conflicts": found})
	}

	day.Entries = append(day.Entries, model.CalendarEntry{
		Window: req.Window,
		Reason: model.ReasonMaintenance,
		Note:   req.Note,
	})
	model.SortCalendarEntries(day.Entries)

	err = s.txManager.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		return s.calendar.Put(txCtx, day)
	})
	if err != nil {
		return nil, s.writeError("Failed to store maintenance window", err)
	}

	s.cfg.Log.Info("Maintenance window declared",
		"resource_id", resourceID,
		"window", req.Window.String(),
		"actor", actor,
	)
	return day, nil
}

func (s *resourceService) RemoveMaintenance(ctx context.Context, resourceID string, window model.TimeWindow, actor string) (*model.CalendarDay, error) {
	if _, err := s.GetByID(ctx, resourceID); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateWindow(window); err != nil {
		return nil, validator.ToAppError("Invalid maintenance window", err)
	}

	release, err := s.lock(ctx, resourceID, window.Date)
	if err != nil {
		return nil, err
	}
	defer release()

	day, err := s.calendar.FindDay(ctx, resourceID, window.Date)
	if err != nil {
		return nil, apperrors.Internal("Failed to retrieve calendar", err)
	}
	if day == nil {
		return nil, apperrors.NotFound("Maintenance window")
	}

	kept := make([]model.CalendarEntry, 0, len(day.Entries))
	removed := false
	for _, e := range day.Entries {
		if !removed && e.Reason == model.ReasonMaintenance && e.Window.Equal(window) {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	if !removed {
		return nil, apperrors.NotFound("Maintenance window")
	}
	day.Entries = kept

	err = s.txManager.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		return s.calendar.Put(txCtx, day)
	})
	if err != nil {
		return nil, s.writeError("Failed to remove maintenance window", err)
	}

	s.cfg.Log.Info("Maintenance window removed",
		"resource_id", resourceID,
		"window", window.String(),
		"actor", actor,
	)
	return day, nil
}

func (s *resourceService) lock(ctx context.Context, resourceID, date string) (locking.ReleaseFunc, error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.cfg.LockTimeout)
	defer cancel()

	release, err := s.locker.Acquire(lockCtx, []string{locking.ResourceKey(resourceID, date)})
	if err != nil {
		s.cfg.Log.Warn("Failed to acquire resource lock", "resource_id", resourceID, "date", date, "error", err)
		return nil, apperrors.Transient("Resource is busy, please retry", err)
	}
	return release, nil
}

func (s *resourceService) writeError(message string, err error) error {
	if apperrors.IsAppError(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.Is(err, bookingserrors.ErrLockTimeout) {
		return apperrors.Transient(message, err)
	}
	s.cfg.Log.Error(message, "error", err)
	return apperrors.Internal(message, err)
}

func (s *resourceService) sanitize(resource *model.Resource) {
	resource.ID = sanitizer.SanitizeIdentifier(resource.ID)
	resource.Name = sanitizer.SanitizeString(resource.Name)
	resource.Kind = model.ResourceKind(sanitizer.SanitizeLabel(string(resource.Kind)))
	resource.CreatedAt = time.Time{}
}
