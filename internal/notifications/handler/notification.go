package handler

import (
	"net/http"
	"strconv"
	"tourdesk/internal/notifications/service"
	"tourdesk/pkg/config"
	apperrors "tourdesk/pkg/errors"
	httputil "tourdesk/pkg/http"
	"tourdesk/pkg/logger"
	"tourdesk/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

type NotificationHandler struct {
	service service.NotificationService
	cfg     *config.Config
	log     *logger.Logger
}

func NewNotificationHandler(service service.NotificationService, cfg *config.Config) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		cfg:     cfg,
		log:     cfg.Log,
	}
}

// List returns the newest notifications addressed to the caller.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit := h.cfg.DefaultNotificationsLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			if writeErr := httputil.WriteError(w, apperrors.InvalidInput("invalid limit parameter: "+s)); writeErr != nil {
				h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
			}
			return
		}
		limit = min(v, h.cfg.MaxNotificationsLimit)
	}

	notifications, err := h.service.List(r.Context(), middleware.IdentityFromContext(r.Context()), limit)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, notifications); err != nil {
		h.log.Error("failed to write success response", "handler", "List", "operation", "WriteSuccess", "error", err)
	}
}

func (h *NotificationHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/notifications", h.List)
}
