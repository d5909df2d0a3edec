package service

import (
	"context"
	"fmt"
	"time"
	"tourdesk/internal/events"
	"tourdesk/internal/notifications/repository"
	"tourdesk/pkg/config"
	apperrors "tourdesk/pkg/errors"
	"tourdesk/pkg/model"

	"github.com/google/uuid"
)

type NotificationService interface {
	Notify(ctx context.Context, booking *model.Booking, action model.BookingAction, previous *model.Booking, actor string) (*model.Notification, error)
	List(ctx context.Context, recipient string, limit int) ([]*model.Notification, error)
	// Handle subscribes the service to booking events.
	Handle(ctx context.Context, event *events.BookingEvent) error
}

type notificationService struct {
	repo      repository.NotificationRepository
	deliverer Deliverer
	cfg       *config.Config
}

func NewNotificationService(repo repository.NotificationRepository, deliverer Deliverer, cfg *config.Config) NotificationService {
	return &notificationService{
		repo:      repo,
		deliverer: deliverer,
		cfg:       cfg,
	}
}

func (s *notificationService) Handle(ctx context.Context, event *events.BookingEvent) error {
	_, err := s.Notify(ctx, event.Booking, event.Action, event.Previous, event.Actor)
	return err
}

// Notify stores one notification for the change and delivers it to every
// recipient. Delivery failures are logged per recipient; only a failure to
// store the notification is returned.
func (s *notificationService) Notify(ctx context.Context, booking *model.Booking, action model.BookingAction, previous *model.Booking, actor string) (*model.Notification, error) {
	rescheduled := isRescheduled(action, booking, previous)

	n := &model.Notification{
		ID:              uuid.NewString(),
		BookingID:       booking.ID,
		Action:          action,
		Rescheduled:     rescheduled,
		Message:         message(booking, action, previous, rescheduled),
		Recipients:      Recipients(booking, previous, actor),
		CreatedAt:       time.Now().UTC().Truncate(time.Millisecond),
		BookingSnapshot: *booking.Clone(),
	}
	if previous != nil {
		n.PreviousSnapshot = previous.Clone()
	}

	if err := s.repo.Create(ctx, n); err != nil {
		s.cfg.Log.Error("Failed to store notification", "booking_id", booking.ID, "action", action, "error", err)
		return nil, err
	}

	failed := 0
	for _, recipient := range n.Recipients {
		if err := s.deliverer.Deliver(ctx, recipient, n); err != nil {
			failed++
			s.cfg.Log.Warn("Failed to deliver notification",
				"notification_id", n.ID,
				"recipient", recipient,
				"error", err,
			)
		}
	}

	s.cfg.Log.Info("Notification sent",
		"notification_id", n.ID,
		"booking_id", booking.ID,
		"action", action,
		"recipients", len(n.Recipients),
		"failed", failed,
	)
	return n, nil
}

func (s *notificationService) List(ctx context.Context, recipient string, limit int) ([]*model.Notification, error) {
	if recipient == "" {
		return nil, apperrors.Unauthorized("Missing caller identity")
	}

	notifications, err := s.repo.ListByRecipient(ctx, recipient, limit)
	if err != nil {
		s.cfg.Log.Error("Failed to list notifications", "recipient", recipient, "error", err)
		return nil, apperrors.Internal("Failed to retrieve notifications", err)
	}
	return notifications, nil
}

// Recipients lists who hears about a change: assigned crew, crew removed by
// the change, the creator, the caller who made the change and the partner.
// Order is stable and ids are unique.
func Recipients(booking, previous *model.Booking, actor string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(booking.Crew)+3)
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	for _, c := range booking.Crew {
		add(c.ID)
	}
	if previous != nil {
		for _, c := range previous.Crew {
			add(c.ID)
		}
	}
	add(booking.CreatedBy)
	add(actor)
	if booking.Partner != nil {
		add(booking.Partner.ID)
	}
	return out
}

func isRescheduled(action model.BookingAction, booking, previous *model.Booking) bool {
	if action != model.ActionUpdated || previous == nil {
		return false
	}
	return !previous.Window.Equal(booking.Window) || previous.Resource.ID != booking.Resource.ID
}

func message(booking *model.Booking, action model.BookingAction, previous *model.Booking, rescheduled bool) string {
	resource := booking.Resource.Name
	if resource == "" {
		resource = booking.Resource.ID
	}

	switch {
	case action == model.ActionCreated:
		return fmt.Sprintf("Booking %s on %s for %s was created (%s)", booking.ID, resource, booking.Window, booking.Status)
	case action == model.ActionCancelled:
		return fmt.Sprintf("Booking %s on %s for %s was cancelled", booking.ID, resource, booking.Window)
	case rescheduled:
		return fmt.Sprintf("Booking %s was rescheduled from %s on %s to %s on %s",
			booking.ID, previous.Window, previous.Resource.ID, booking.Window, booking.Resource.ID)
	default:
		return fmt.Sprintf("Booking %s on %s for %s was updated (%s)", booking.ID, resource, booking.Window, booking.Status)
	}
}
