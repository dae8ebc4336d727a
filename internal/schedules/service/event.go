package service

import (
	"context"
	"errors"
	"time"

	scheduleserrors "slotbook/internal/schedules/errors"
	"slotbook/internal/schedules/repository"
	"slotbook/internal/schedules/validator"
	"slotbook/pkg/calendar"
	"slotbook/pkg/config"
	apperrors "slotbook/pkg/errors"
	"slotbook/pkg/ics"
	"slotbook/pkg/model"
	"slotbook/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

const SourceManual = "manual"

// EventPublisher announces stored events. Several events go out as one batch.
type EventPublisher interface {
	ScheduleCreated(ctx context.Context, events ...model.ScheduledEvent) error
}

type EventService interface {
	CreateEvent(ctx context.Context, ev *model.ScheduledEvent) error
	GetByID(ctx context.Context, id string) (*model.ScheduledEvent, error)
	MonthView(ctx context.Context, vendorID string, year int, month time.Month) (*calendar.MonthView, error)
	ImportICS(ctx context.Context, vendorID string, body []byte) (*ImportResult, error)
	Delete(ctx context.Context, id string) error
}

type ImportResult struct {
	Imported int           `json:"imported"`
	IDs      []string      `json:"ids"`
	Skipped  []ics.Skipped `json:"skipped,omitempty"`
}

type eventService struct {
	repo      repository.EventRepository
	validator *validator.EventValidator
	publisher EventPublisher
	cfg       *config.Config
	now       func() time.Time
}

func NewEventService(
	repo repository.EventRepository,
	validator *validator.EventValidator,
	publisher EventPublisher,
	cfg *config.Config,
) EventService {
	return &eventService{
		repo:      repo,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, ev *model.ScheduledEvent) error {
	s.sanitize(ev)
	if ev.Source == "" {
		ev.Source = SourceManual
	}

	if err := s.validator.Validate(ev); err != nil {
		s.cfg.Log.Warn("Scheduled event validation failed",
			"vendor_id", ev.VendorID,
			"title", ev.Title,
			"error", err,
		)
		return apperrors.Validation("Scheduled event validation failed", validationDetails(err))
	}

	if err := s.repo.Create(ctx, ev); err != nil {
		s.cfg.Log.Error("Failed to create scheduled event",
			"vendor_id", ev.VendorID,
			"error", err,
		)
		return apperrors.FromStore("Failed to create scheduled event", err)
	}

	s.cfg.Log.Info("Scheduled event created successfully",
		"id", ev.ID,
		"vendor_id", ev.VendorID,
		"date", ev.Date().String(),
	)
	s.publish(ctx, *ev)
	return nil
}

func (s *eventService) GetByID(ctx context.Context, id string) (*model.ScheduledEvent, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Scheduled event ID cannot be empty")
	}

	ev, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError("Failed to retrieve scheduled event", id, err)
	}
	return ev, nil
}

// MonthView covers the whole grid, filler days included, so events on the
// neighbouring months' days show up in their cells.
func (s *eventService) MonthView(ctx context.Context, vendorID string, year int, month time.Month) (*calendar.MonthView, error) {
	if vendorID == "" {
		return nil, apperrors.InvalidInput("Vendor ID cannot be empty")
	}
	if month < time.January || month > time.December {
		return nil, apperrors.InvalidInput("Month must be between 1 and 12")
	}

	from, to := calendar.Bounds(year, month)
	events, err := s.repo.FindByVendorInRange(ctx, vendorID, from, to)
	if err != nil {
		s.cfg.Log.Error("Failed to load scheduled events",
			"vendor_id", vendorID,
			"from", from.String(),
			"to", to.String(),
			"error", err,
		)
		return nil, apperrors.FromStore("Failed to load scheduled events", err)
	}

	calendar.SortByOccurrence(events)
	view := calendar.BuildMonth(year, month, events)
	view.MarkToday(model.DateOf(s.now()))
	return &view, nil
}

// ImportICS stores every importable VEVENT in one transaction; a calendar
// with no valid events is rejected as a whole.
func (s *eventService) ImportICS(ctx context.Context, vendorID string, body []byte) (*ImportResult, error) {
	vendorID = sanitizer.TrimAndNormalize(vendorID)
	if vendorID == "" {
		return nil, apperrors.InvalidInput("Vendor ID cannot be empty")
	}

	parsed, err := ics.Parse(vendorID, body)
	if err != nil {
		s.cfg.Log.Warn("Failed to parse ICS payload", "vendor_id", vendorID, "error", err)
		return nil, apperrors.InvalidInput("Invalid ICS payload: " + err.Error())
	}

	result := &ImportResult{Skipped: parsed.Skipped}
	var events []model.ScheduledEvent
	for _, ev := range parsed.Events {
		s.sanitize(&ev)
		if err := s.validator.Validate(&ev); err != nil {
			result.Skipped = append(result.Skipped, ics.Skipped{UID: ev.ExternalRef, Reason: err.Error()})
			continue
		}
		events = append(events, ev)
	}
	if len(events) == 0 {
		return nil, apperrors.Validation(scheduleserrors.ErrNothingToImport.Error(), map[string]any{
			"skipped": result.Skipped,
		})
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		ids, err := s.repo.InsertMany(sessCtx, events)
		if err != nil {
			return err
		}
		result.IDs = ids
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to import scheduled events",
			"vendor_id", vendorID,
			"count", len(events),
			"error", err,
		)
		return nil, apperrors.FromStore("Failed to import scheduled events", err)
	}

	result.Imported = len(result.IDs)
	s.cfg.Log.Info("Calendar imported",
		"vendor_id", vendorID,
		"imported", result.Imported,
		"skipped", len(result.Skipped),
	)
	for i := range events {
		if i < len(result.IDs) {
			events[i].ID = result.IDs[i]
		}
	}
	s.publish(ctx, events...)
	return result, nil
}

func (s *eventService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Scheduled event ID cannot be empty")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapRepoError("Failed to delete scheduled event", id, err)
	}

	s.cfg.Log.Info("Scheduled event deleted successfully", "id", id)
	return nil
}

// publish never fails the request; the event is already stored.
func (s *eventService) publish(ctx context.Context, events ...model.ScheduledEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.ScheduleCreated(ctx, events...); err != nil {
		s.cfg.Log.Error("Failed to publish schedule events",
			"vendor_id", events[0].VendorID,
			"count", len(events),
			"error", err,
		)
	}
}

func (s *eventService) mapRepoError(msg, id string, err error) error {
	switch {
	case errors.Is(err, scheduleserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Scheduled event", id)
	case errors.Is(err, scheduleserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid scheduled event ID format")
	}
	s.cfg.Log.Error(msg, "id", id, "error", err)
	return apperrors.FromStore(msg, err)
}

func (s *eventService) sanitize(ev *model.ScheduledEvent) {
	ev.VendorID = sanitizer.TrimAndNormalize(ev.VendorID)
	ev.Title = sanitizer.TrimAndNormalize(ev.Title)
	ev.ServiceName = sanitizer.NormalizeName(ev.ServiceName)
	ev.ClientName = sanitizer.NormalizeName(ev.ClientName)
	ev.Notes = sanitizer.NormalizeNotes(ev.Notes)
	ev.Source = sanitizer.TrimAndNormalize(ev.Source)
	ev.ExternalRef = sanitizer.TrimAndNormalize(ev.ExternalRef)
}

func validationDetails(err error) map[string]any {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return map[string]any{"fields": verrs.Map()}
	}
	return map[string]any{"error": err.Error()}
}
