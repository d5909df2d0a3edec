package handler

import (
	"encoding/json"
	"net/http"
	"tourdesk/internal/crew/service"
	"tourdesk/pkg/config"
	apperrors "tourdesk/pkg/errors"
	httputil "tourdesk/pkg/http"
	"tourdesk/pkg/logger"
	"tourdesk/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type CrewHandler struct {
	service service.CrewService
	cfg     *config.Config
	log     *logger.Logger
}

func NewCrewHandler(service service.CrewService, cfg *config.Config) *CrewHandler {
	return &CrewHandler{
		service: service,
		cfg:     cfg,
		log:     cfg.Log,
	}
}

func (h *CrewHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r, h.cfg.DefaultPaginationLimit, h.cfg.MaxPaginationLimit)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	members, total, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, members, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *CrewHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	member, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, member); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CrewHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var member model.CrewMember
	if err := json.NewDecoder(r.Body).Decode(&member); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	if err := h.service.Create(r.Context(), &member); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, member); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *CrewHandler) Schedule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	date, err := httputil.ExtractDate(r, "date", true)
	if err != nil {
		h.writeError(w, "Schedule", err)
		return
	}

	day, err := h.service.Schedule(r.Context(), ps.ByName("id"), date)
	if err != nil {
		h.writeError(w, "Schedule", err)
		return
	}

	if err := httputil.WriteSuccess(w, day); err != nil {
		h.log.Error("failed to write success response", "handler", "Schedule", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CrewHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *CrewHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/crew", h.List)
	router.POST("/crew", h.Create)
	router.GET("/crew/:id", h.GetByID)
	router.GET("/crew/:id/schedule", h.Schedule)
}
