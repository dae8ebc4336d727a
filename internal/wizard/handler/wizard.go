package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"slotbook/internal/slots"
	wizarderrors "slotbook/internal/wizard/errors"
	"slotbook/internal/wizard/service"
	"slotbook/internal/wizard/validator"
	apperrors "slotbook/pkg/errors"
	httputil "slotbook/pkg/http"
	"slotbook/pkg/logger"
	"slotbook/pkg/model"
)

type Sessions interface {
	Open(target model.Target) (string, *service.Wizard, error)
	Get(id string) (*service.Wizard, error)
	Close(id string)
}

type WizardHandler struct {
	sessions Sessions
	log      *logger.Logger
}

func NewWizardHandler(sessions Sessions, log *logger.Logger) *WizardHandler {
	return &WizardHandler{
		sessions: sessions,
		log:      log,
	}
}

type openResponse struct {
	SessionID string       `json:"session_id"`
	Wizard    service.View `json:"wizard"`
}

type dateRequest struct {
	BookingDate *model.CalendarDate `json:"booking_date"`
}

type slotRequest struct {
	TimeSlot string `json:"time_slot"`
}

type dismissResponse struct {
	Outcome service.DismissOutcome `json:"outcome"`
}

func (h *WizardHandler) Open(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var target model.Target
	if err := json.NewDecoder(r.Body).Decode(&target); err != nil {
		h.writeBadRequest(w, "Open", "Invalid request body")
		return
	}

	id, wiz, err := h.sessions.Open(target)
	if err != nil {
		h.writeError(w, "Open", toAppError(err, ""))
		return
	}

	if err := httputil.WriteCreated(w, openResponse{SessionID: id, Wizard: wiz.View()}); err != nil {
		h.log.Error("failed to write created response", "handler", "Open", "operation", "WriteCreated", "error", err)
	}
}

func (h *WizardHandler) View(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	wiz, ok := h.lookup(w, "View", ps)
	if !ok {
		return
	}
	h.writeView(w, "View", wiz)
}

func (h *WizardHandler) UpdateDraft(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	wiz, ok := h.lookup(w, "UpdateDraft", ps)
	if !ok {
		return
	}

	var patch service.DraftPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.writeBadRequest(w, "UpdateDraft", "Invalid request body")
		return
	}

	if err := wiz.ApplyPatch(patch); err != nil {
		h.writeError(w, "UpdateDraft", toAppError(err, ps.ByName("id")))
		return
	}
	h.writeView(w, "UpdateDraft", wiz)
}

// SetDate changes the booking date. With ?wait=true the response is held
// until the new date's slots have settled.
func (h *WizardHandler) SetDate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	wiz, ok := h.lookup(w, "SetDate", ps)
	if !ok {
		return
	}

	var body dateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeBadRequest(w, "SetDate", "booking_date must be a YYYY-MM-DD date or null")
		return
	}

	done, err := wiz.SetBookingDate(r.Context(), body.BookingDate)
	if err != nil {
		h.writeError(w, "SetDate", toAppError(err, ps.ByName("id")))
		return
	}

	h.maybeWait(r, done)
	h.writeView(w, "SetDate", wiz)
}

func (h *WizardHandler) RetrySlots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	wiz, ok := h.lookup(w, "RetrySlots", ps)
	if !ok {
		return
	}

	done, err := wiz.RetrySlots(r.Context())
	if err != nil {
		h.writeError(w, "RetrySlots", toAppError(err, ps.ByName("id")))
		return
	}

	h.maybeWait(r, done)
	h.writeView(w, "RetrySlots", wiz)
}

func (h *WizardHandler) SelectSlot(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	wiz, ok := h.lookup(w, "SelectSlot", ps)
	if !ok {
		return
	}

	var body slotRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeBadRequest(w, "SelectSlot", "Invalid request body")
		return
	}

	if err := wiz.SelectTimeSlot(body.TimeSlot); err != nil {
		h.writeError(w, "SelectSlot", toAppError(err, ps.ByName("id")))
		return
	}
	h.writeView(w, "SelectSlot", wiz)
}

func (h *WizardHandler) Submit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	wiz, ok := h.lookup(w, "Submit", ps)
	if !ok {
		return
	}

	_, err := wiz.Submit(r.Context())
	if err != nil {
		var verrs validator.ValidationErrors
		var subErr *service.SubmissionError
		switch {
		case errors.As(err, &verrs):
			first, _ := verrs.First()
			h.writeError(w, "Submit", apperrors.Validation("Please correct the highlighted fields", map[string]any{
				"fields":      verrs.Map(),
				"focus_field": first.Field,
				"wizard":      wiz.View(),
			}))
		case errors.As(err, &subErr):
			h.writeError(w, "Submit", apperrors.BadGateway(subErr.Message, subErr.Err).WithDetails(map[string]any{
				"wizard": wiz.View(),
			}))
		default:
			h.writeError(w, "Submit", toAppError(err, ps.ByName("id")))
		}
		return
	}

	if err := httputil.WriteCreated(w, wiz.View()); err != nil {
		h.log.Error("failed to write created response", "handler", "Submit", "operation", "WriteCreated", "error", err)
	}
}

// Dismiss leaves the wizard. A non-empty form in entry answers
// confirmation_required unless ?force=true.
func (h *WizardHandler) Dismiss(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	wiz, ok := h.lookup(w, "Dismiss", ps)
	if !ok {
		return
	}

	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

	outcome, err := wiz.Dismiss(force)
	if err != nil {
		h.writeError(w, "Dismiss", toAppError(err, id))
		return
	}
	if outcome == service.Dismissed {
		h.sessions.Close(id)
	}

	if err := httputil.WriteSuccess(w, dismissResponse{Outcome: outcome}); err != nil {
		h.log.Error("failed to write success response", "handler", "Dismiss", "operation", "WriteSuccess", "error", err)
	}
}

func (h *WizardHandler) lookup(w http.ResponseWriter, handler string, ps httprouter.Params) (*service.Wizard, bool) {
	id := ps.ByName("id")
	if id == "" {
		h.writeBadRequest(w, handler, "ID parameter is required")
		return nil, false
	}

	wiz, err := h.sessions.Get(id)
	if err != nil {
		h.writeError(w, handler, toAppError(err, id))
		return nil, false
	}
	return wiz, true
}

func (h *WizardHandler) maybeWait(r *http.Request, done <-chan slots.Snapshot) {
	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); !wait {
		return
	}
	select {
	case <-done:
	case <-r.Context().Done():
	}
}

func (h *WizardHandler) writeView(w http.ResponseWriter, handler string, wiz *service.Wizard) {
	if err := httputil.WriteSuccess(w, wiz.View()); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *WizardHandler) writeBadRequest(w http.ResponseWriter, handler, message string) {
	if err := httputil.WriteBadRequest(w, message); err != nil {
		h.log.Error("failed to write bad request response", "handler", handler, "operation", "WriteBadRequest", "error", err)
	}
}

func (h *WizardHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func toAppError(err error, sessionID string) error {
	switch {
	case errors.Is(err, wizarderrors.ErrSessionNotFound):
		return apperrors.NotFoundWithID("Wizard session", sessionID)
	case errors.Is(err, wizarderrors.ErrMissingServiceID):
		return apperrors.InvalidInput("service_id is required")
	case errors.Is(err, wizarderrors.ErrUnknownField),
		errors.Is(err, wizarderrors.ErrUnknownTimeSlot):
		return apperrors.InvalidInput(err.Error())
	case errors.Is(err, wizarderrors.ErrSubmissionInFlight),
		errors.Is(err, wizarderrors.ErrDismissWhileSubmitting),
		errors.Is(err, wizarderrors.ErrWizardClosed),
		errors.Is(err, wizarderrors.ErrNotEditable),
		errors.Is(err, wizarderrors.ErrIllegalTransition):
		return apperrors.Conflict(err.Error())
	}
	return apperrors.Internal("Booking wizard failure", err)
}

func (h *WizardHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/wizards", h.Open)
	router.GET("/api/v1/wizards/:id", h.View)
	router.PATCH("/api/v1/wizards/:id/draft", h.UpdateDraft)
	router.PUT("/api/v1/wizards/:id/date", h.SetDate)
	router.POST("/api/v1/wizards/:id/slots/retry", h.RetrySlots)
	router.PUT("/api/v1/wizards/:id/slot", h.SelectSlot)
	router.POST("/api/v1/wizards/:id/submit", h.Submit)
	router.DELETE("/api/v1/wizards/:id", h.Dismiss)
}
