package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"slotbook/internal/schedules/service"
	apperrors "slotbook/pkg/errors"
	httputil "slotbook/pkg/http"
	"slotbook/pkg/logger"
	"slotbook/pkg/model"
)

type CalendarHandler struct {
	service service.EventService
	log     *logger.Logger
}

func NewCalendarHandler(service service.EventService, log *logger.Logger) *CalendarHandler {
	return &CalendarHandler{
		service: service,
		log:     log,
	}
}

func (h *CalendarHandler) Month(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	year, err := strconv.Atoi(ps.ByName("year"))
	if err != nil || year < 1 || year > 9999 {
		h.writeError(w, "Month", apperrors.InvalidInput("invalid year parameter: "+ps.ByName("year")))
		return
	}
	month, err := strconv.Atoi(ps.ByName("month"))
	if err != nil {
		h.writeError(w, "Month", apperrors.InvalidInput("invalid month parameter: "+ps.ByName("month")))
		return
	}

	view, err := h.service.MonthView(r.Context(), ps.ByName("vendor"), year, time.Month(month))
	if err != nil {
		h.writeError(w, "Month", err)
		return
	}

	if err := httputil.WriteSuccess(w, view); err != nil {
		h.log.Error("failed to write success response", "handler", "Month", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CalendarHandler) CreateEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var ev model.ScheduledEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		if writeErr := httputil.WriteBadRequest(w, "Invalid request body"); writeErr != nil {
			h.log.Error("failed to write bad request response", "handler", "CreateEvent", "operation", "WriteBadRequest", "error", writeErr)
		}
		return
	}
	ev.ID = ""
	ev.VendorID = ps.ByName("vendor")

	if err := h.service.CreateEvent(r.Context(), &ev); err != nil {
		h.writeError(w, "CreateEvent", err)
		return
	}

	if err := httputil.WriteCreated(w, ev); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateEvent", "operation", "WriteCreated", "error", err)
	}
}

func (h *CalendarHandler) GetEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ev, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetEvent", err)
		return
	}

	if err := httputil.WriteSuccess(w, ev); err != nil {
		h.log.Error("failed to write success response", "handler", "GetEvent", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CalendarHandler) DeleteEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "DeleteEvent", err)
		return
	}

	httputil.WriteNoContent(w)
}

// Import takes the raw text/calendar body. Its size is capped by the
// request size middleware.
func (h *CalendarHandler) Import(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		if writeErr := httputil.WriteBadRequest(w, "Failed to read request body"); writeErr != nil {
			h.log.Error("failed to write bad request response", "handler", "Import", "operation", "WriteBadRequest", "error", writeErr)
		}
		return
	}

	res, err := h.service.ImportICS(r.Context(), ps.ByName("vendor"), body)
	if err != nil {
		h.writeError(w, "Import", err)
		return
	}

	if err := httputil.WriteCreated(w, res); err != nil {
		h.log.Error("failed to write created response", "handler", "Import", "operation", "WriteCreated", "error", err)
	}
}

func (h *CalendarHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *CalendarHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/vendors/:vendor/calendar/:year/:month", h.Month)
	router.POST("/api/v1/vendors/:vendor/events", h.CreateEvent)
	router.POST("/api/v1/vendors/:vendor/import", h.Import)
	router.GET("/api/v1/events/:id", h.GetEvent)
	router.DELETE("/api/v1/events/:id", h.DeleteEvent)
}
