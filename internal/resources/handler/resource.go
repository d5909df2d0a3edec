package handler

import (
	"encoding/json"
	"net/http"
	"tourdesk/internal/resources/service"
	"tourdesk/pkg/config"
	apperrors "tourdesk/pkg/errors"
	httputil "tourdesk/pkg/http"
	"tourdesk/pkg/logger"
	"tourdesk/pkg/middleware"
	"tourdesk/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ResourceHandler struct {
	service service.ResourceService
	cfg     *config.Config
	log     *logger.Logger
}

func NewResourceHandler(service service.ResourceService, cfg *config.Config) *ResourceHandler {
	return &ResourceHandler{
		service: service,
		cfg:     cfg,
		log:     cfg.Log,
	}
}

func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r, h.cfg.DefaultPaginationLimit, h.cfg.MaxPaginationLimit)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	resources, total, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, resources, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *ResourceHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	resource, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, resource); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var resource model.Resource
	if err := json.NewDecoder(r.Body).Decode(&resource); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	if err := h.service.Create(r.Context(), &resource); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, resource); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ResourceHandler) Calendar(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	date, err := httputil.ExtractDate(r, "date", true)
	if err != nil {
		h.writeError(w, "Calendar", err)
		return
	}

	day, err := h.service.Calendar(r.Context(), ps.ByName("id"), date)
	if err != nil {
		h.writeError(w, "Calendar", err)
		return
	}

	if err := httputil.WriteSuccess(w, day); err != nil {
		h.log.Error("failed to write success response", "handler", "Calendar", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ResourceHandler) DeclareMaintenance(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.MaintenanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "DeclareMaintenance", apperrors.InvalidInput("Invalid request body"))
		return
	}

	day, err := h.service.DeclareMaintenance(r.Context(), ps.ByName("id"), &req, middleware.IdentityFromContext(r.Context()))
	if err != nil {
		h.writeError(w, "DeclareMaintenance", err)
		return
	}

	if err := httputil.WriteCreated(w, day); err != nil {
		h.log.Error("failed to write created response", "handler", "DeclareMaintenance", "operation", "WriteCreated", "error", err)
	}
}

// RemoveMaintenance identifies the window by ?date=&start=&end=.
func (h *ResourceHandler) RemoveMaintenance(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	date, err := httputil.ExtractDate(r, "date", true)
	if err != nil {
		h.writeError(w, "RemoveMaintenance", err)
		return
	}
	query := r.URL.Query()
	window := model.TimeWindow{Date: date, Start: query.Get("start"), End: query.Get("end")}

	day, err := h.service.RemoveMaintenance(r.Context(), ps.ByName("id"), window, middleware.IdentityFromContext(r.Context()))
	if err != nil {
		h.writeError(w, "RemoveMaintenance", err)
		return
	}

	if err := httputil.WriteSuccess(w, day); err != nil {
		h.log.Error("failed to write success response", "handler", "RemoveMaintenance", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ResourceHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ResourceHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/resources", h.List)
	router.POST("/resources", h.Create)
	router.GET("/resources/:id", h.GetByID)
	router.GET("/resources/:id/calendar", h.Calendar)
	router.POST("/resources/:id/maintenance", h.DeclareMaintenance)
	router.DELETE("/resources/:id/maintenance", h.RemoveMaintenance)
}
