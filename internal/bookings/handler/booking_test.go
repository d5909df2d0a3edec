package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"tourdesk/pkg/config"
	apperrors "tourdesk/pkg/errors"
	"tourdesk/pkg/logger"
	"tourdesk/pkg/middleware"
	"tourdesk/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockBookingService struct {
	createFunc  func(ctx context.Context, draft *model.BookingDraft, actor string) (*model.Booking, error)
	getByIDFunc func(ctx context.Context, id string) (*model.Booking, error)
	listFunc    func(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error)
	updateFunc  func(ctx context.Context, id string, patch *model.BookingPatch, actor string) (*model.Booking, error)
	cancelFunc  func(ctx context.Context, id string, actor string) (*model.Booking, error)
	purgeFunc   func(ctx context.Context, id string, actor string) (*model.Booking, error)
}

func (m *mockBookingService) Create(ctx context.Context, draft *model.BookingDraft, actor string) (*model.Booking, error) {
	return m.createFunc(ctx, draft, actor)
}

func (m *mockBookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockBookingService) List(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error) {
	return m.listFunc(ctx, filter, limit, offset)
}

func (m *mockBookingService) Update(ctx context.Context, id string, patch *model.BookingPatch, actor string) (*model.Booking, error) {
	return m.updateFunc(ctx, id, patch, actor)
}

func (m *mockBookingService) Cancel(ctx context.Context, id string, actor string) (*model.Booking, error) {
	return m.cancelFunc(ctx, id, actor)
}

func (m *mockBookingService) Purge(ctx context.Context, id string, actor string) (*model.Booking, error) {
	return m.purgeFunc(ctx, id, actor)
}

func newRouter(svc *mockBookingService) *httprouter.Router {
	router := httprouter.New()
	NewBookingHandler(svc, config.Default(logger.Discard())).RegisterRoutes(router)
	return router
}

func serve(router http.Handler, method, target, body, identity string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if identity != "" {
		req = req.WithContext(middleware.WithIdentity(req.Context(), identity))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestBookingHandler_Create(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		createErr  error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "created",
			body:       `{"resource_id":"R1","window":{"date":"2025-09-20","start":"10:00","end":"12:00"}}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "malformed body",
			body:       `{"resource_id":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.CodeInvalidInput,
		},
		{
			name: "conflict",
			body: `{"resource_id":"R1","window":{"date":"2025-09-20","start":"11:00","end":"13:00"}}`,
			createErr: apperrors.BookingConflict("Booking conflicts with existing reservations", []model.Conflict{
				{Type: model.ConflictResourceOverlap, BookingID: "x"},
			}),
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.CodeBookingConflict,
		},
		{
			name:       "lock timeout",
			body:       `{"resource_id":"R1","window":{"date":"2025-09-20","start":"11:00","end":"13:00"}}`,
			createErr:  apperrors.Transient("Scheduling is busy, please retry", nil),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   apperrors.CodeTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotActor string
			svc := &mockBookingService{
				createFunc: func(ctx context.Context, draft *model.BookingDraft, actor string) (*model.Booking, error) {
					gotActor = actor
					if tt.createErr != nil {
						return nil, tt.createErr
					}
					return &model.Booking{ID: "b1", Resource: model.ResourceRef{ID: draft.ResourceID}, Window: draft.Window}, nil
				},
			}

			rec := serve(newRouter(svc), http.MethodPost, "/bookings", tt.body, "alice")

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeBody(t, rec)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["code"])
				return
			}
			assert.Equal(t, "alice", gotActor)
			data := body["data"].(map[string]any)
			assert.Equal(t, "b1", data["id"])
		})
	}
}

func TestBookingHandler_ConflictListInBody(t *testing.T) {
	svc := &mockBookingService{
		createFunc: func(ctx context.Context, draft *model.BookingDraft, actor string) (*model.Booking, error) {
			return nil, apperrors.BookingConflict("Booking conflicts with existing reservations", []model.Conflict{
				{Type: model.ConflictResourceOverlap, BookingID: "x"},
				{Type: model.ConflictCrewOverlap, BookingID: "y", CrewID: "C1"},
			})
		},
	}

	rec := serve(newRouter(svc), http.MethodPost, "/bookings", `{}`, "alice")

	body := decodeBody(t, rec)
	details := body["details"].(map[string]any)
	conflicts := details["conflicts"].([]any)
	require.Len(t, conflicts, 2)
	assert.Equal(t, "crew_overlap", conflicts[1].(map[string]any)["type"])
}

func TestBookingHandler_List(t *testing.T) {
	var got model.BookingFilter
	var gotLimit int
	svc := &mockBookingService{
		listFunc: func(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error) {
			got = filter
			gotLimit = limit
			return []*model.Booking{{ID: "b1"}}, 1, nil
		},
	}
	router := newRouter(svc)

	rec := serve(router, http.MethodGet, "/bookings?resource_id=R1&crew_id=C1&date_from=2025-09-01&date_to=2025-09-30&status=confirmed&limit=5", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.BookingFilter{
		ResourceID: "R1",
		CrewID:     "C1",
		DateFrom:   "2025-09-01",
		DateTo:     "2025-09-30",
		Status:     model.StatusConfirmed,
	}, got)
	assert.Equal(t, 5, gotLimit)
	assert.Equal(t, float64(1), decodeBody(t, rec)["total_count"])

	rec = serve(router, http.MethodGet, "/bookings?date_from=20-09-2025", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingHandler_GetByID(t *testing.T) {
	svc := &mockBookingService{
		getByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			if id == "b1" {
				return &model.Booking{ID: "b1"}, nil
			}
			return nil, apperrors.NotFoundWithID("Booking", id)
		},
	}
	router := newRouter(svc)

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/bookings/b1", "", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/bookings/nope", "", "").Code)
}

func TestBookingHandler_Update(t *testing.T) {
	var gotPatch *model.BookingPatch
	svc := &mockBookingService{
		updateFunc: func(ctx context.Context, id string, patch *model.BookingPatch, actor string) (*model.Booking, error) {
			gotPatch = patch
			return &model.Booking{ID: id, Status: *patch.Status, UpdatedBy: actor}, nil
		},
	}

	rec := serve(newRouter(svc), http.MethodPut, "/bookings/b1", `{"status":"confirmed"}`, "bob")

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotPatch.Status)
	assert.Equal(t, model.StatusConfirmed, *gotPatch.Status)
	assert.Nil(t, gotPatch.Window)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, "bob", data["updated_by"])
}

func TestBookingHandler_Delete(t *testing.T) {
	var called string
	svc := &mockBookingService{
		cancelFunc: func(ctx context.Context, id string, actor string) (*model.Booking, error) {
			called = "cancel"
			return &model.Booking{ID: id, Status: model.StatusCancelled}, nil
		},
		purgeFunc: func(ctx context.Context, id string, actor string) (*model.Booking, error) {
			called = "purge"
			return nil, apperrors.NotFoundWithID("Booking", id)
		},
	}
	router := newRouter(svc)

	rec := serve(router, http.MethodDelete, "/bookings/b1", "", "alice")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cancel", called)

	rec = serve(router, http.MethodDelete, "/bookings/b1?purge=true", "", "alice")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "purge", called)

	rec = serve(router, http.MethodDelete, "/bookings/b1?purge=maybe", "", "alice")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
