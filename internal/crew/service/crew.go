package service

import (
	"context"
	"errors"
	"sync"
	"time"
	"tourdesk/internal/bookings/validator"
	crewerrors "tourdesk/internal/crew/errors"
	"tourdesk/internal/crew/repository"
	"tourdesk/pkg/config"
	apperrors "tourdesk/pkg/errors"
	"tourdesk/pkg/model"
	"tourdesk/pkg/sanitizer"
)

type CrewService interface {
	List(ctx context.Context, limit int, offset int64) ([]*model.CrewMember, int64, error)
	GetByID(ctx context.Context, id string) (*model.CrewMember, error)
	Create(ctx context.Context, member *model.CrewMember) error
	Upsert(ctx context.Context, member *model.CrewMember) error
	Schedule(ctx context.Context, crewID, date string) (*model.CrewDay, error)
}

type crewService struct {
	repo      repository.CrewRepository
	schedules repository.ScheduleRepository
	validator *validator.BookingValidator
	cfg       *config.Config
}

func NewCrewService(
	repo repository.CrewRepository,
	schedules repository.ScheduleRepository,
	validator *validator.BookingValidator,
	cfg *config.Config,
) CrewService {
	return &crewService{
		repo:      repo,
		schedules: schedules,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *crewService) List(ctx context.Context, limit int, offset int64) ([]*model.CrewMember, int64, error) {
	var count int64
	var members []*model.CrewMember
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
	}()

	go func() {
		defer wg.Done()
		members, errFind = s.repo.FindAll(ctx, limit, offset)
	}()

	wg.Wait()
	if errCount != nil {
		s.cfg.Log.Error("Failed to count crew", "error", errCount)
		return nil, 0, apperrors.Internal("Failed to count crew", errCount)
	}
	if errFind != nil {
		s.cfg.Log.Error("Failed to list crew", "error", errFind)
		return nil, 0, apperrors.Internal("Failed to retrieve crew", errFind)
	}

	return members, count, nil
}

func (s *crewService) GetByID(ctx context.Context, id string) (*model.CrewMember, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Crew member ID cannot be empty")
	}

	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, crewerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Crew member", id)
		}
		return nil, apperrors.Internal("Failed to retrieve crew member", err)
	}
	return member, nil
}

func (s *crewService) Create(ctx context.Context, member *model.CrewMember) error {
	s.sanitize(member)
	if err := s.validator.ValidateCrewMember(member); err != nil {
		s.cfg.Log.Warn("Crew member validation failed", "id", member.ID, "error", err)
		return validator.ToAppError("Invalid crew member input", err)
	}

	if err := s.repo.Create(ctx, member); err != nil {
		if errors.Is(err, crewerrors.ErrDuplicateID) {
			return apperrors.Conflict("Crew member with id " + member.ID + " already exists")
		}
		s.cfg.Log.Error("Failed to create crew member", "id", member.ID, "error", err)
		return apperrors.Internal("Failed to create crew member", err)
	}

	s.cfg.Log.Info("Crew member created successfully", "id", member.ID)
	return nil
}

func (s *crewService) Upsert(ctx context.Context, member *model.CrewMember) error {
	s.sanitize(member)
	if err := s.validator.ValidateCrewMember(member); err != nil {
		return validator.ToAppError("Invalid crew member input", err)
	}

	if err := s.repo.Upsert(ctx, member); err != nil {
		s.cfg.Log.Error("Failed to upsert crew member", "id", member.ID, "error", err)
		return apperrors.Internal("Failed to store crew member", err)
	}
	return nil
}

func (s *crewService) Schedule(ctx context.Context, crewID, date string) (*model.CrewDay, error) {
	if _, err := s.GetByID(ctx, crewID); err != nil {
		return nil, err
	}

	day, err := s.schedules.FindDay(ctx, crewID, date)
	if err != nil {
		return nil, apperrors.Internal("Failed to retrieve crew schedule", err)
	}
	if day == nil {
		day = model.NewCrewDay(crewID, date)
	}
	return day, nil
}

func (s *crewService) sanitize(member *model.CrewMember) {
	member.ID = sanitizer.SanitizeIdentifier(member.ID)
	member.Name = sanitizer.SanitizeString(member.Name)
	member.Qualifications = sanitizer.NormalizeQualifications(member.Qualifications)
	member.CreatedAt = time.Time{}
}
