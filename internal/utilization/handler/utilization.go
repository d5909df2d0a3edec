package handler

import (
	"net/http"
	"tourdesk/internal/utilization/service"
	httputil "tourdesk/pkg/http"
	"tourdesk/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type UtilizationHandler struct {
	service service.UtilizationService
	log     *logger.Logger
}

func NewUtilizationHandler(service service.UtilizationService, log *logger.Logger) *UtilizationHandler {
	return &UtilizationHandler{
		service: service,
		log:     log,
	}
}

func (h *UtilizationHandler) Get(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	date, err := httputil.ExtractDate(r, "date", true)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Get", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	record, err := h.service.Get(r.Context(), date)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Get", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, record); err != nil {
		h.log.Error("failed to write success response", "handler", "Get", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UtilizationHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/analytics/utilization", h.Get)
}
