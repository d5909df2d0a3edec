package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"tourdesk/internal/bookings/locking"
	bookingsrepository "tourdesk/internal/bookings/repository"
	"tourdesk/internal/bookings/validator"
	"tourdesk/internal/resources/repository"
	"tourdesk/internal/resources/service"
	"tourdesk/pkg/config"
	"tourdesk/pkg/db/memory"
	"tourdesk/pkg/logger"
	"tourdesk/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*httprouter.Router, bookingsrepository.BookingRepository) {
	t.Helper()

	cfg := config.Default(logger.Discard())
	store := memory.NewStore()
	bookings := bookingsrepository.NewMemoryBookingRepository(store)
	svc := service.NewResourceService(
		repository.NewMemoryResourceRepository(store),
		repository.NewMemoryCalendarRepository(store),
		bookings,
		locking.NewMemoryLocker(),
		store,
		validator.NewBookingValidator(cfg.Log),
		cfg,
	)

	router := httprouter.New()
	NewResourceHandler(svc, cfg).RegisterRoutes(router)
	return router, bookings
}

func do(t *testing.T, router http.Handler, method, target, body string) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec.Code, decoded
}

const boat = `{"id":"R1","name":"Sea Breeze","kind":"Boat","capacity":12}`

func TestResourceHandler_CreateAndGet(t *testing.T) {
	router, _ := setup(t)

	status, body := do(t, router, http.MethodPost, "/resources", boat)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "boat", body["data"].(map[string]any)["kind"])

	status, _ = do(t, router, http.MethodPost, "/resources", boat)
	assert.Equal(t, http.StatusConflict, status)

	status, body = do(t, router, http.MethodGet, "/resources/R1", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Sea Breeze", body["data"].(map[string]any)["name"])

	status, _ = do(t, router, http.MethodGet, "/resources/R9", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, body = do(t, router, http.MethodGet, "/resources?limit=10", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["total_count"])
}

func TestResourceHandler_CreateInvalid(t *testing.T) {
	router, _ := setup(t)

	status, body := do(t, router, http.MethodPost, "/resources", `{"id":"R1","name":"X","kind":"submarine","capacity":0}`)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	errs := body["details"].(map[string]any)["errors"].([]any)
	assert.Len(t, errs, 3)
}

func TestResourceHandler_Maintenance(t *testing.T) {
	router, bookings := setup(t)
	status, _ := do(t, router, http.MethodPost, "/resources", boat)
	require.Equal(t, http.StatusCreated, status)

	require.NoError(t, bookings.Create(context.Background(), &model.Booking{
		ID:       "b1",
		Resource: model.ResourceRef{ID: "R1"},
		Window:   model.TimeWindow{Date: "2025-09-20", Start: "10:00", End: "12:00"},
		Status:   model.StatusConfirmed,
	}))

	t.Run("overlapping a booking is refused", func(t *testing.T) {
		status, body := do(t, router, http.MethodPost, "/resources/R1/maintenance",
			`{"window":{"date":"2025-09-20","start":"11:00","end":"13:00"},"note":"hull check"}`)

		assert.Equal(t, http.StatusConflict, status)
		found := body["details"].(map[string]any)["conflicts"].([]any)
		assert.Equal(t, "b1", found[0].(map[string]any)["booking_id"])
	})

	t.Run("declared", func(t *testing.T) {
		status, body := do(t, router, http.MethodPost, "/resources/R1/maintenance",
			`{"window":{"date":"2025-09-20","start":"12:00","end":"14:00"},"note":"  hull   check "}`)

		require.Equal(t, http.StatusCreated, status)
		entries := body["data"].(map[string]any)["entries"].([]any)
		require.Len(t, entries, 1)
		assert.Equal(t, "hull check", entries[0].(map[string]any)["note"])
	})

	t.Run("calendar shows the window", func(t *testing.T) {
		status, body := do(t, router, http.MethodGet, "/resources/R1/calendar?date=2025-09-20", "")

		require.Equal(t, http.StatusOK, status)
		entries := body["data"].(map[string]any)["entries"].([]any)
		assert.Len(t, entries, 1)
	})

	t.Run("calendar requires a date", func(t *testing.T) {
		status, _ := do(t, router, http.MethodGet, "/resources/R1/calendar", "")
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("removing an unknown window", func(t *testing.T) {
		status, _ := do(t, router, http.MethodDelete, "/resources/R1/maintenance?date=2025-09-20&start=08:00&end=09:00", "")
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("removed", func(t *testing.T) {
		status, body := do(t, router, http.MethodDelete, "/resources/R1/maintenance?date=2025-09-20&start=12:00&end=14:00", "")

		require.Equal(t, http.StatusOK, status)
		assert.Empty(t, body["data"].(map[string]any)["entries"])
	})
}
