package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"tourdesk/internal/events"
	"tourdesk/pkg/config"
	apperrors "tourdesk/pkg/errors"
	"tourdesk/pkg/logger"
	"tourdesk/pkg/middleware"
	"tourdesk/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
)

type mockNotificationService struct {
	listFunc func(ctx context.Context, recipient string, limit int) ([]*model.Notification, error)
}

func (m *mockNotificationService) Notify(ctx context.Context, booking *model.Booking, action model.BookingAction, previous *model.Booking, actor string) (*model.Notification, error) {
	return nil, nil
}

func (m *mockNotificationService) List(ctx context.Context, recipient string, limit int) ([]*model.Notification, error) {
	return m.listFunc(ctx, recipient, limit)
}

func (m *mockNotificationService) Handle(ctx context.Context, event *events.BookingEvent) error {
	return nil
}

func TestNotificationHandler_List(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		identity   string
		wantStatus int
		wantLimit  int
	}{
		{name: "default limit", target: "/notifications", identity: "C1", wantStatus: http.StatusOK, wantLimit: config.DefaultNotificationsLimit},
		{name: "explicit limit", target: "/notifications?limit=5", identity: "C1", wantStatus: http.StatusOK, wantLimit: 5},
		{name: "clamped limit", target: "/notifications?limit=5000", identity: "C1", wantStatus: http.StatusOK, wantLimit: config.DefaultMaxNotificationsLimit},
		{name: "bad limit", target: "/notifications?limit=-1", identity: "C1", wantStatus: http.StatusBadRequest},
		{name: "anonymous", target: "/notifications", wantStatus: http.StatusUnauthorized, wantLimit: config.DefaultNotificationsLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotLimit int
			var gotRecipient string
			svc := &mockNotificationService{
				listFunc: func(ctx context.Context, recipient string, limit int) ([]*model.Notification, error) {
					gotLimit, gotRecipient = limit, recipient
					if recipient == "" {
						return nil, apperrors.Unauthorized("Missing caller identity")
					}
					return []*model.Notification{{ID: "n1", Recipients: []string{recipient}}}, nil
				},
			}
			router := httprouter.New()
			NewNotificationHandler(svc, config.Default(logger.Discard())).RegisterRoutes(router)

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.identity != "" {
				req = req.WithContext(middleware.WithIdentity(req.Context(), tt.identity))
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantLimit, gotLimit)
			assert.Equal(t, tt.identity, gotRecipient)
		})
	}
}
