package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"
	"tourdesk/internal/bookings/conflicts"
	bookingserrors "tourdesk/internal/bookings/errors"
	"tourdesk/internal/bookings/locking"
	"tourdesk/internal/bookings/repository"
	"tourdesk/internal/bookings/validator"
	crewerrors "tourdesk/internal/crew/errors"
	crewrepository "tourdesk/internal/crew/repository"
	"tourdesk/internal/events"
	resourceserrors "tourdesk/internal/resources/errors"
	resourcesrepository "tourdesk/internal/resources/repository"
	"tourdesk/pkg/config"
	"tourdesk/pkg/db"
	apperrors "tourdesk/pkg/errors"
	"tourdesk/pkg/metrics"
	"tourdesk/pkg/middleware"
	"tourdesk/pkg/model"
	"tourdesk/pkg/sanitizer"

	"github.com/google/uuid"
)

type BookingService interface {
	Create(ctx context.Context, draft *model.BookingDraft, actor string) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	List(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error)
	Update(ctx context.Context, id string, patch *model.BookingPatch, actor string) (*model.Booking, error)
	Cancel(ctx context.Context, id string, actor string) (*model.Booking, error)
	Purge(ctx context.Context, id string, actor string) (*model.Booking, error)
}

type Dependencies struct {
	Bookings  repository.BookingRepository
	Resources resourcesrepository.ResourceRepository
	Calendar  resourcesrepository.CalendarRepository
	Crew      crewrepository.CrewRepository
	Schedules crewrepository.ScheduleRepository
	Locker    locking.Locker
	TxManager db.TransactionManager
	Publisher events.Publisher
	Validator *validator.BookingValidator
	Metrics   *metrics.Metrics
	Config    *config.Config
	// Now defaults to time.Now.
	Now func() time.Time
}

type bookingService struct {
	repo      repository.BookingRepository
	resources resourcesrepository.ResourceRepository
	calendar  resourcesrepository.CalendarRepository
	crew      crewrepository.CrewRepository
	schedules crewrepository.ScheduleRepository
	checker   *conflicts.Checker
	locker    locking.Locker
	txManager db.TransactionManager
	publisher events.Publisher
	validator *validator.BookingValidator
	metrics   *metrics.Metrics
	cfg       *config.Config
	now       func() time.Time
}

func NewBookingService(deps Dependencies) BookingService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &bookingService{
		repo:      deps.Bookings,
		resources: deps.Resources,
		calendar:  deps.Calendar,
		crew:      deps.Crew,
		schedules: deps.Schedules,
		checker:   conflicts.NewChecker(deps.Bookings, deps.Calendar),
		locker:    deps.Locker,
		txManager: deps.TxManager,
		publisher: deps.Publisher,
		validator: deps.Validator,
		metrics:   deps.Metrics,
		cfg:       deps.Config,
		now:       now,
	}
}

const (
	opCreate = "create"
	opUpdate = "update"
	opCancel = "cancel"
	opPurge  = "purge"
)

func (s *bookingService) Create(ctx context.Context, draft *model.BookingDraft, actor string) (*model.Booking, error) {
	booking, err := s.create(ctx, draft, actor)
	s.metrics.RecordMutation(opCreate, outcome(err))
	if err != nil {
		return nil, err
	}

	s.publish(ctx, model.ActionCreated, booking, nil, actor)
	return booking, nil
}

func (s *bookingService) create(ctx context.Context, draft *model.BookingDraft, actor string) (*model.Booking, error) {
	s.sanitizeDraft(draft)
	if err := s.validator.ValidateDraft(draft); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "resource_id", draft.ResourceID, "error", err)
		return nil, validator.ToAppError("Invalid booking input", err)
	}

	resource, crew, err := s.resolve(ctx, draft.ResourceID, draft.CrewIDs)
	if err != nil {
		return nil, err
	}
	if draft.Guests > resource.Capacity {
		return nil, validator.Invalid("guests", fmt.Sprintf("guests must not exceed the capacity of %s (%d)", resource.ID, resource.Capacity))
	}

	status := draft.Status
	if status == "" {
		status = model.StatusPending
	}

	booking := &model.Booking{
		ID:        uuid.NewString(),
		Resource:  resource.Ref(),
		Crew:      crew,
		Partner:   draft.Partner,
		Window:    draft.Window,
		Status:    status,
		Guests:    draft.Guests,
		Price:     draft.Price,
		Notes:     draft.Notes,
		CreatedBy: actor,
	}

	err = s.withLocks(ctx, locking.KeysFor(booking), func() error {
		if err := s.rejectConflicts(ctx, booking, ""); err != nil {
			return err
		}
		return s.txManager.ExecuteTransaction(ctx, func(txCtx context.Context) error {
			if err := s.repo.Create(txCtx, booking); err != nil {
				return err
			}
			return s.project(txCtx, booking, nil)
		})
	})
	if err != nil {
		return nil, s.mutationError("create", "", err)
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"resource_id", booking.Resource.ID,
		"window", booking.Window.String(),
		"crew", booking.CrewIDs(),
		"status", booking.Status,
		"actor", actor,
	)
	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	return booking, nil
}

// List never takes scheduling locks. Results are ordered by date, then start.
func (s *bookingService) List(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error) {
	if filter.DateFrom != "" && filter.DateTo != "" && filter.DateFrom > filter.DateTo {
		return nil, 0, apperrors.InvalidInput("date_from must not be after date_to")
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, 0, apperrors.InvalidInput("unknown status: " + string(filter.Status))
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.List(ctx, filter, limit, offset)
	}()

	wg.Wait()
	if errCount != nil {
		s.cfg.Log.Error("Failed to count bookings", "error", errCount)
		return nil, 0, apperrors.Internal("Failed to count bookings", errCount)
	}
	if errFind != nil {
		s.cfg.Log.Error("Failed to list bookings", "error", errFind)
		return nil, 0, apperrors.Internal("Failed to retrieve bookings", errFind)
	}

	return bookings, count, nil
}

func (s *bookingService) Update(ctx context.Context, id string, patch *model.BookingPatch, actor string) (*model.Booking, error) {
	op := opUpdate
	if patch.Status != nil && *patch.Status == model.StatusCancelled {
		op = opCancel
	}

	current, previous, err := s.update(ctx, id, patch, actor)
	s.metrics.RecordMutation(op, outcome(err))
	if err != nil {
		return nil, err
	}
	if previous == nil {
		return current, nil
	}

	action := model.ActionUpdated
	if current.Status == model.StatusCancelled {
		action = model.ActionCancelled
	}
	s.publish(ctx, action, current, previous, actor)
	return current, nil
}

// update returns the stored booking and, when something changed, the state
// it replaced.
func (s *bookingService) update(ctx context.Context, id string, patch *model.BookingPatch, actor string) (*model.Booking, *model.Booking, error) {
	if id == "" {
		return nil, nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	s.sanitizePatch(patch)
	if err := s.validator.ValidatePatch(patch); err != nil {
		s.cfg.Log.Warn("Booking update validation failed", "id", id, "error", err)
		return nil, nil, validator.ToAppError("Invalid update input", err)
	}

	for attempt := 1; attempt <= s.cfg.UpdateMaxAttempts; attempt++ {
		existing, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, nil, err
		}

		merged, err := s.merge(ctx, existing, patch, actor)
		if err != nil {
			return nil, nil, err
		}
		if sameState(existing, merged) {
			return existing, nil, nil
		}

		stale := false
		err = s.withLocks(ctx, locking.KeysFor(existing, merged), func() error {
			fresh, err := s.repo.FindByID(ctx, id)
			if err != nil {
				return err
			}
			if fresh.Version != existing.Version {
				stale = true
				return nil
			}

			if merged.IsActive() && schedulingChanged(existing, merged) {
				if err := s.rejectConflicts(ctx, merged, id); err != nil {
					return err
				}
			}

			return s.txManager.ExecuteTransaction(ctx, func(txCtx context.Context) error {
				if err := s.repo.Update(txCtx, merged, existing.Version); err != nil {
					return err
				}
				return s.project(txCtx, merged, existing)
			})
		})
		if errors.Is(err, bookingserrors.ErrVersionConflict) {
			stale = true
			err = nil
		}
		if err != nil {
			return nil, nil, s.mutationError("update", id, err)
		}
		if stale {
			s.cfg.Log.Debug("Booking changed while updating, retrying", "id", id, "attempt", attempt)
			continue
		}

		s.cfg.Log.Info("Booking updated successfully",
			"id", id,
			"status", merged.Status,
			"window", merged.Window.String(),
			"version", merged.Version,
			"actor", actor,
		)
		return merged, existing, nil
	}

	return nil, nil, apperrors.Transient("Booking is being modified concurrently, please retry", bookingserrors.ErrVersionConflict)
}

// Cancel is idempotent: cancelling a cancelled booking returns it unchanged
// and publishes nothing.
func (s *bookingService) Cancel(ctx context.Context, id string, actor string) (*model.Booking, error) {
	cancelled := model.StatusCancelled
	return s.Update(ctx, id, &model.BookingPatch{Status: &cancelled}, actor)
}

// Purge cancels the booking if it is still active and deletes the record in
// the same critical section. Afterwards the id is unknown.
func (s *bookingService) Purge(ctx context.Context, id string, actor string) (*model.Booking, error) {
	purged, wasActive, err := s.purge(ctx, id, actor)
	s.metrics.RecordMutation(opPurge, outcome(err))
	if err != nil {
		return nil, err
	}

	if wasActive != nil {
		s.publish(ctx, model.ActionCancelled, purged, wasActive, actor)
	}
	return purged, nil
}

func (s *bookingService) purge(ctx context.Context, id string, actor string) (*model.Booking, *model.Booking, error) {
	if id == "" {
		return nil, nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	for attempt := 1; attempt <= s.cfg.UpdateMaxAttempts; attempt++ {
		existing, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, nil, err
		}

		stale := false
		err = s.withLocks(ctx, locking.KeysFor(existing), func() error {
			fresh, err := s.repo.FindByID(ctx, id)
			if err != nil {
				return err
			}
			if fresh.Version != existing.Version {
				stale = true
				return nil
			}
			return s.txManager.ExecuteTransaction(ctx, func(txCtx context.Context) error {
				if err := s.repo.Delete(txCtx, id); err != nil {
					return err
				}
				return s.project(txCtx, nil, existing)
			})
		})
		if err != nil {
			return nil, nil, s.mutationError("purge", id, err)
		}
		if stale {
			continue
		}

		purged := existing.Clone()
		var previous *model.Booking
		if existing.Status.CanTransitionTo(model.StatusCancelled) && existing.Status != model.StatusCancelled {
			purged.Status = model.StatusCancelled
			purged.UpdatedBy = actor
			purged.UpdatedAt = s.now().UTC()
			previous = existing
		}

		s.cfg.Log.Info("Booking purged successfully", "id", id, "previous_status", existing.Status, "actor", actor)
		return purged, previous, nil
	}

	return nil, nil, apperrors.Transient("Booking is being modified concurrently, please retry", bookingserrors.ErrVersionConflict)
}

// merge applies patch to a copy of existing and enforces the lifecycle rules.
func (s *bookingService) merge(ctx context.Context, existing *model.Booking, patch *model.BookingPatch, actor string) (*model.Booking, error) {
	merged := existing.Clone()
	merged.UpdatedBy = actor

	if patch.Status != nil && *patch.Status != existing.Status {
		next := *patch.Status
		if !existing.Status.CanTransitionTo(next) {
			return nil, validator.Invalid("status", fmt.Sprintf("cannot change status from %s to %s", existing.Status, next))
		}
		merged.Status = next
	}

	if patch.Window != nil {
		merged.Window = *patch.Window
	}
	if patch.Partner != nil {
		merged.Partner = patch.Partner
	}
	if patch.Guests != nil {
		merged.Guests = *patch.Guests
	}
	if patch.Price != nil {
		merged.Price = *patch.Price
	}
	if patch.Notes != nil {
		merged.Notes = *patch.Notes
	}

	if patch.ResourceID != nil || patch.CrewIDs != nil {
		resourceID := existing.Resource.ID
		if patch.ResourceID != nil {
			resourceID = *patch.ResourceID
		}
		crewIDs := existing.CrewIDs()
		if patch.CrewIDs != nil {
			crewIDs = *patch.CrewIDs
		}
		resource, crew, err := s.resolve(ctx, resourceID, crewIDs)
		if err != nil {
			return nil, err
		}
		merged.Resource = resource.Ref()
		merged.Crew = crew
	}

	if existing.Status.IsTerminal() && !sameState(existing, merged) {
		return nil, validator.Invalid("status", fmt.Sprintf("booking is %s and can no longer be changed", existing.Status))
	}

	if merged.Status == model.StatusCompleted && existing.Status != model.StatusCompleted {
		ends, err := merged.Window.EndsAt(s.cfg.Location)
		if err != nil {
			return nil, validator.Invalid("window", err.Error())
		}
		if s.now().Before(ends) {
			return nil, validator.Invalid("status", fmt.Sprintf("booking cannot be completed before its window ends at %s", ends.Format(time.RFC3339)))
		}
	}

	if patch.Guests != nil || patch.ResourceID != nil {
		resource, err := s.resources.FindByID(ctx, merged.Resource.ID)
		if err != nil {
			return nil, s.mutationError("load resource", merged.Resource.ID, err)
		}
		if merged.Guests > resource.Capacity {
			return nil, validator.Invalid("guests", fmt.Sprintf("guests must not exceed the capacity of %s (%d)", resource.ID, resource.Capacity))
		}
	}

	return merged, nil
}

// resolve looks up the resource and crew members a booking refers to. Unknown
// ids are reported together as one validation error.
func (s *bookingService) resolve(ctx context.Context, resourceID string, crewIDs []string) (*model.Resource, []model.CrewRef, error) {
	var problems validator.ValidationErrors

	resource, err := s.resources.FindByID(ctx, resourceID)
	if err != nil {
		if !errors.Is(err, resourceserrors.ErrNotFound) {
			return nil, nil, apperrors.Internal("Failed to load resource", err)
		}
		problems = append(problems, validator.ValidationError{
			Field:   "resource_id",
			Message: fmt.Sprintf("unknown resource %q", resourceID),
		})
	}

	seen := make(map[string]bool, len(crewIDs))
	crew := make([]model.CrewRef, 0, len(crewIDs))
	for i, crewID := range crewIDs {
		field := fmt.Sprintf("crew_ids[%d]", i)
		if seen[crewID] {
			problems = append(problems, validator.ValidationError{
				Field:   field,
				Message: fmt.Sprintf("crew member %q is listed more than once", crewID),
			})
			continue
		}
		seen[crewID] = true

		member, err := s.crew.FindByID(ctx, crewID)
		if err != nil {
			if !errors.Is(err, crewerrors.ErrNotFound) {
				return nil, nil, apperrors.Internal("Failed to load crew member", err)
			}
			problems = append(problems, validator.ValidationError{
				Field:   field,
				Message: fmt.Sprintf("unknown crew member %q", crewID),
			})
			continue
		}
		crew = append(crew, member.Ref())
	}

	if len(problems) > 0 {
		return nil, nil, validator.ToAppError("Invalid booking input", problems)
	}
	return resource, crew, nil
}

func (s *bookingService) rejectConflicts(ctx context.Context, candidate *model.Booking, excludeID string) error {
	found, err := s.checker.CheckConflicts(ctx, candidate, excludeID)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return nil
	}

	for _, c := range found {
		s.metrics.RecordConflict(string(c.Type))
	}
	s.cfg.Log.Warn("Booking rejected due to conflicts",
		"id", candidate.ID,
		"resource_id", candidate.Resource.ID,
		"window", candidate.Window.String(),
		"conflicts", len(found),
	)
	return apperrors.BookingConflict("Booking conflicts with existing reservations", found)
}

// withLocks runs fn while holding keys. Waiting is bounded by LockTimeout and
// a timeout surfaces as ErrLockTimeout.
func (s *bookingService) withLocks(ctx context.Context, keys []string, fn func() error) error {
	lockCtx, cancel := context.WithTimeout(ctx, s.cfg.LockTimeout)
	defer cancel()

	started := time.Now()
	release, err := s.locker.Acquire(lockCtx, keys)
	if err != nil {
		s.metrics.ObserveLockWait(metrics.OutcomeTransient, time.Since(started))
		return err
	}
	s.metrics.ObserveLockWait(metrics.OutcomeSuccess, time.Since(started))
	defer release()

	return fn()
}

// publish runs after the locks are released. The request context may be
// cancelled by then, so the event gets a detached one.
func (s *bookingService) publish(ctx context.Context, action model.BookingAction, current, previous *model.Booking, actor string) {
	if s.publisher == nil {
		return
	}

	event := events.NewBookingEvent(action, current, previous, actor)
	event.CorrelationID = middleware.RequestIDFromContext(ctx)

	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.metrics.RecordEvent(string(action), metrics.OutcomeError)
		s.cfg.Log.Warn("Failed to publish booking event",
			"event_id", event.ID,
			"event_type", event.Type(),
			"booking_id", current.ID,
			"error", err,
		)
	}
}

func (s *bookingService) mutationError(op, id string, err error) error {
	switch {
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, bookingserrors.ErrLockTimeout):
		s.cfg.Log.Warn("Timed out waiting for scheduling lock", "operation", op, "id", id, "error", err)
		return apperrors.Transient("Scheduling is busy, please retry", err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		s.cfg.Log.Warn("Booking mutation abandoned", "operation", op, "id", id, "error", err)
		return apperrors.Transient("Request timed out before the change was committed", err)
	case errors.Is(err, bookingserrors.ErrVersionConflict):
		return apperrors.Transient("Booking is being modified concurrently, please retry", err)
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id)
	default:
		s.cfg.Log.Error("Booking mutation failed", "operation", op, "id", id, "error", err)
		return apperrors.Internal("Failed to "+op+" booking", err)
	}
}

func outcome(err error) string {
	if err == nil {
		return metrics.OutcomeSuccess
	}
	switch apperrors.AsAppError(err).Code {
	case apperrors.CodeBookingConflict:
		return metrics.OutcomeConflict
	case apperrors.CodeValidation, apperrors.CodeInvalidInput, apperrors.CodeNotFound:
		return metrics.OutcomeInvalid
	case apperrors.CodeTransient:
		return metrics.OutcomeTransient
	default:
		return metrics.OutcomeError
	}
}

func schedulingChanged(a, b *model.Booking) bool {
	return a.Resource.ID != b.Resource.ID ||
		!a.Window.Equal(b.Window) ||
		!slices.Equal(a.CrewIDs(), b.CrewIDs())
}

// sameState ignores bookkeeping fields such as UpdatedBy.
func sameState(a, b *model.Booking) bool {
	if schedulingChanged(a, b) {
		return false
	}
	if (a.Partner == nil) != (b.Partner == nil) || (a.Partner != nil && *a.Partner != *b.Partner) {
		return false
	}
	return a.Status == b.Status &&
		a.Guests == b.Guests &&
		a.Price == b.Price &&
		a.Notes == b.Notes
}

func (s *bookingService) sanitizeDraft(draft *model.BookingDraft) {
	draft.ResourceID = sanitizer.SanitizeIdentifier(draft.ResourceID)
	draft.CrewIDs = sanitizer.NormalizeIDs(draft.CrewIDs)
	draft.Notes = sanitizer.SanitizeString(draft.Notes)
	draft.Partner = sanitizePartner(draft.Partner)
}

func (s *bookingService) sanitizePatch(patch *model.BookingPatch) {
	if patch.ResourceID != nil {
		id := sanitizer.SanitizeIdentifier(*patch.ResourceID)
		patch.ResourceID = &id
	}
	if patch.CrewIDs != nil {
		ids := sanitizer.NormalizeIDs(*patch.CrewIDs)
		if ids == nil {
			ids = []string{}
		}
		patch.CrewIDs = &ids
	}
	if patch.Notes != nil {
		notes := sanitizer.SanitizeString(*patch.Notes)
		patch.Notes = &notes
	}
	patch.Partner = sanitizePartner(patch.Partner)
}

func sanitizePartner(p *model.PartnerRef) *model.PartnerRef {
	if p == nil {
		return nil
	}
	return &model.PartnerRef{
		ID:   sanitizer.SanitizeIdentifier(p.ID),
		Name: sanitizer.SanitizeString(p.Name),
	}
}
