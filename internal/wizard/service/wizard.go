package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"slotbook/internal/slots"
	wizarderrors "slotbook/internal/wizard/errors"
	"slotbook/internal/wizard/validator"
	"slotbook/pkg/client"
	"slotbook/pkg/logger"
	"slotbook/pkg/model"
	"slotbook/pkg/sanitizer"
)

const (
	GenericSubmitFailure = "Network error. Please try again."
	NoSlotsMessage       = "No available times for this date."

	DefaultSlotTimeout   = 5 * time.Second
	DefaultSubmitTimeout = 15 * time.Second
)

type Submitter interface {
	Submit(ctx context.Context, req model.BookingRequest, idempotencyKey string) (*model.BookingConfirmation, error)
}

type Notifier interface {
	BookingConfirmed(ctx context.Context, target model.Target, req model.BookingRequest, conf model.BookingConfirmation) error
}

// Deps are shared by every wizard a process opens. Only the per-wizard state
// (draft, errors, slot resolver) is private to a wizard.
type Deps struct {
	Submitter     Submitter
	Slots         slots.Fetcher
	Validator     *validator.DraftValidator
	Notifier      Notifier
	Log           *logger.Logger
	Clock         func() time.Time
	SlotTimeout   time.Duration
	SubmitTimeout time.Duration
}

// check reports the first collaborator that was left unset.
func (d Deps) check() error {
	switch {
	case d.Submitter == nil:
		return fmt.Errorf("%w: submitter", wizarderrors.ErrMissingDependency)
	case d.Slots == nil:
		return fmt.Errorf("%w: slot fetcher", wizarderrors.ErrMissingDependency)
	case d.Validator == nil:
		return fmt.Errorf("%w: validator", wizarderrors.ErrMissingDependency)
	}
	return nil
}

func (d Deps) withDefaults() Deps {
	if d.Log == nil {
		d.Log = logger.Discard()
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.SlotTimeout <= 0 {
		d.SlotTimeout = DefaultSlotTimeout
	}
	if d.SubmitTimeout <= 0 {
		d.SubmitTimeout = DefaultSubmitTimeout
	}
	return d
}

type DismissOutcome string

const (
	Dismissed            DismissOutcome = "dismissed"
	ConfirmationRequired DismissOutcome = "confirmation_required"
)

// SubmissionError is a failed booking submission. Message is what the user
// should see.
type SubmissionError struct {
	Message string
	Err     error
}

func (e *SubmissionError) Error() string {
	return e.Message
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// DraftPatch carries the text fields a client wants to change. Nil fields
// are left alone.
type DraftPatch struct {
	FullName     *string `json:"full_name"`
	Email        *string `json:"email"`
	Phone        *string `json:"phone"`
	Address      *string `json:"address"`
	Instructions *string `json:"instructions"`
}

// View is an immutable copy of everything a booking form renders.
type View struct {
	State           State                      `json:"state"`
	Target          model.Target               `json:"target"`
	Draft           model.BookingDraft         `json:"draft"`
	FieldErrors     validator.ValidationErrors `json:"field_errors,omitempty"`
	FocusField      string                     `json:"focus_field,omitempty"`
	SubmissionError string                     `json:"submission_error,omitempty"`
	Slots           slots.Snapshot             `json:"slots"`
	SlotNotice      string                     `json:"slot_notice,omitempty"`
	Confirmation    *model.BookingConfirmation `json:"confirmation,omitempty"`
	CanSubmit       bool                       `json:"can_submit"`
	MinDate         model.CalendarDate         `json:"min_date"`
	MaxDate         model.CalendarDate         `json:"max_date"`
}

// Wizard drives one booking form for one target. All methods are safe for
// concurrent use; at most one submission is ever in flight.
type Wizard struct {
	target   model.Target
	deps     Deps
	resolver *slots.Resolver

	mu           sync.Mutex
	state        State
	draft        model.BookingDraft
	fieldErrs    validator.ValidationErrors
	submitErr    string
	submitKey    string
	confirmation *model.BookingConfirmation
}

func New(target model.Target, deps Deps) (*Wizard, error) {
	if target.ServiceID == "" {
		return nil, wizarderrors.ErrMissingServiceID
	}
	if err := deps.check(); err != nil {
		return nil, err
	}
	deps = deps.withDefaults()

	return &Wizard{
		target:   target,
		deps:     deps,
		resolver: slots.NewResolver(deps.Slots, deps.SlotTimeout, deps.Log),
		state:    StateFormEntry,
	}, nil
}

func (w *Wizard) Target() model.Target {
	return w.target
}

func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// transition must be called with mu held.
func (w *Wizard) transition(to State) error {
	if err := checkTransition(w.state, to); err != nil {
		return err
	}
	w.deps.Log.Debug("Booking wizard transition",
		"service_id", w.target.ServiceID,
		"from", w.state,
		"to", to,
	)
	w.state = to
	return nil
}

func (w *Wizard) checkEditable() error {
	switch {
	case w.state.Editable():
		return nil
	case w.state == StateSubmitting:
		return wizarderrors.ErrSubmissionInFlight
	case w.state.Closed():
		return wizarderrors.ErrWizardClosed
	}
	return wizarderrors.ErrNotEditable
}

// edited clears the errors of the touched fields. Once no field error is
// left an errored form is back in entry, still showing any submission error.
func (w *Wizard) edited(fields ...string) error {
	w.submitKey = ""
	w.fieldErrs = w.fieldErrs.Without(fields...)
	if w.state == StateError && len(w.fieldErrs) == 0 {
		return w.transition(StateFormEntry)
	}
	return nil
}

func (w *Wizard) SetField(field, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkEditable(); err != nil {
		return err
	}
	if err := w.setField(field, value); err != nil {
		return err
	}
	return w.edited(field)
}

func (w *Wizard) ApplyPatch(p DraftPatch) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkEditable(); err != nil {
		return err
	}

	var touched []string
	for field, value := range map[string]*string{
		validator.FieldFullName:     p.FullName,
		validator.FieldEmail:        p.Email,
		validator.FieldPhone:        p.Phone,
		validator.FieldAddress:      p.Address,
		validator.FieldInstructions: p.Instructions,
	} {
		if value == nil {
			continue
		}
		if err := w.setField(field, *value); err != nil {
			return err
		}
		touched = append(touched, field)
	}

	if len(touched) == 0 {
		return nil
	}
	return w.edited(touched...)
}

func (w *Wizard) setField(field, value string) error {
	switch field {
	case validator.FieldFullName:
		w.draft.FullName = value
	case validator.FieldEmail:
		w.draft.Email = value
	case validator.FieldPhone:
		w.draft.Phone = value
	case validator.FieldAddress:
		w.draft.Address = value
	case validator.FieldInstructions:
		w.draft.Instructions = value
	default:
		return fmt.Errorf("%w: %q", wizarderrors.ErrUnknownField, field)
	}
	return nil
}

// SetBookingDate changes the date, always dropping the chosen time slot, and
// starts resolving the slots for the new date. A nil date clears it.
// The returned channel reports when that resolution settles.
func (w *Wizard) SetBookingDate(ctx context.Context, date *model.CalendarDate) (<-chan slots.Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkEditable(); err != nil {
		return nil, err
	}

	if date != nil {
		d := *date
		date = &d
	}
	w.draft.BookingDate = date
	w.draft.TimeSlot = ""

	done := w.resolver.Request(ctx, w.target.ServiceID, date)

	if err := w.edited(validator.FieldBookingDate, validator.FieldTimeSlot); err != nil {
		return nil, err
	}
	return done, nil
}

// RetrySlots re-runs the last slot resolution.
func (w *Wizard) RetrySlots(ctx context.Context) (<-chan slots.Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkEditable(); err != nil {
		return nil, err
	}
	return w.resolver.Retry(ctx), nil
}

// SelectTimeSlot picks one of the resolved labels. An empty label clears the
// selection.
func (w *Wizard) SelectTimeSlot(label string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkEditable(); err != nil {
		return err
	}

	if label != "" {
		snap := w.resolver.Snapshot()
		if snap.Status != slots.StatusResolved || !snap.Contains(label) {
			return fmt.Errorf("%w: %q", wizarderrors.ErrUnknownTimeSlot, label)
		}
	}

	w.draft.TimeSlot = label
	return w.edited(validator.FieldTimeSlot)
}

func (w *Wizard) today() model.CalendarDate {
	return model.DateOf(w.deps.Clock())
}

// Submit validates the draft and, if it passes, hands it to the booking
// collaborator. Validation failures come back as validator.ValidationErrors,
// remote failures as *SubmissionError. Either way the draft is kept.
func (w *Wizard) Submit(ctx context.Context) (*model.BookingConfirmation, error) {
	w.mu.Lock()

	switch {
	case w.state == StateSubmitting || w.state == StateValidating:
		w.mu.Unlock()
		return nil, wizarderrors.ErrSubmissionInFlight
	case w.state.Closed():
		w.mu.Unlock()
		return nil, wizarderrors.ErrWizardClosed
	}

	if err := w.transition(StateValidating); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	w.submitErr = ""

	errs := w.deps.Validator.Validate(w.draft, w.resolver.Snapshot(), w.today())
	if len(errs) > 0 {
		w.fieldErrs = errs
		err := w.transition(StateError)
		w.mu.Unlock()
		if err != nil {
			return nil, err
		}
		w.deps.Log.Info("Booking draft failed validation",
			"service_id", w.target.ServiceID,
			"error_count", len(errs),
		)
		return nil, errs
	}

	w.fieldErrs = nil
	req := buildRequest(w.target, w.draft)
	if w.submitKey == "" {
		w.submitKey = uuid.NewString()
	}
	key := w.submitKey

	if err := w.transition(StateSubmitting); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	w.mu.Unlock()

	// The submission outlives the caller; only the watchdog ends it early.
	submitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.deps.SubmitTimeout)
	conf, err := w.deps.Submitter.Submit(submitCtx, req, key)
	cancel()

	w.mu.Lock()
	if err != nil {
		message := submissionMessage(err)
		w.submitErr = message
		terr := w.transition(StateError)
		w.mu.Unlock()
		if terr != nil {
			return nil, terr
		}
		w.deps.Log.Warn("Booking submission failed",
			"service_id", w.target.ServiceID,
			"idempotency_key", key,
			"error", err,
		)
		return nil, &SubmissionError{Message: message, Err: err}
	}

	w.confirmation = conf
	terr := w.transition(StateConfirmed)
	w.mu.Unlock()
	if terr != nil {
		return nil, terr
	}

	w.deps.Log.Info("Booking confirmed",
		"service_id", w.target.ServiceID,
		"vendor_id", w.target.VendorID,
		"order_id", conf.OrderID,
	)

	if w.deps.Notifier != nil {
		if nerr := w.deps.Notifier.BookingConfirmed(context.WithoutCancel(ctx), w.target, req, *conf); nerr != nil {
			w.deps.Log.Error("Failed to publish booking confirmation",
				"order_id", conf.OrderID,
				"error", nerr,
			)
		}
	}

	out := *conf
	return &out, nil
}

// submissionMessage prefers what the booking service said over the generic
// fallback. Timeouts get the fallback like any other transport failure.
func submissionMessage(err error) string {
	var remote *client.RemoteError
	if errors.As(err, &remote) && remote.Message != "" {
		return remote.Message
	}
	return GenericSubmitFailure
}

func buildRequest(target model.Target, draft model.BookingDraft) model.BookingRequest {
	req := model.BookingRequest{
		ServiceID:    target.ServiceID,
		VendorID:     target.VendorID,
		FullName:     sanitizer.NormalizeName(draft.FullName),
		Email:        sanitizer.NormalizeEmail(draft.Email),
		Phone:        sanitizer.WirePhone(draft.Phone),
		Address:      sanitizer.TrimAndNormalize(draft.Address),
		TimeSlot:     draft.TimeSlot,
		Instructions: sanitizer.NormalizeNotes(draft.Instructions),
	}
	if draft.BookingDate != nil {
		req.BookingDate = draft.BookingDate.String()
	}
	return req
}

// Dismiss closes the wizard. An unsubmitted, non-empty form asks for
// confirmation first unless force is set.
func (w *Wizard) Dismiss(force bool) (DismissOutcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.state {
	case StateSubmitting, StateValidating:
		return "", wizarderrors.ErrDismissWhileSubmitting
	case StateDismissed:
		return Dismissed, nil
	case StateFormEntry:
		if !force && !w.draft.IsEmpty() {
			return ConfirmationRequired, nil
		}
	}

	if err := w.transition(StateDismissed); err != nil {
		return "", err
	}
	w.resolver.Reset()
	return Dismissed, nil
}

func (w *Wizard) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()

	today := w.today()
	snap := w.resolver.Snapshot()

	v := View{
		State:           w.state,
		Target:          w.target,
		Draft:           w.draft.Clone(),
		FieldErrors:     append(validator.ValidationErrors(nil), w.fieldErrs...),
		SubmissionError: w.submitErr,
		Slots:           snap,
		CanSubmit:       w.state.Editable(),
		MinDate:         today,
		MaxDate:         w.deps.Validator.Horizon(today),
	}

	if first, ok := w.fieldErrs.First(); ok {
		v.FocusField = first.Field
	}

	switch {
	case snap.Status == slots.StatusFailed:
		v.SlotNotice = snap.Message
	case snap.Empty():
		v.SlotNotice = NoSlotsMessage
	}

	if w.confirmation != nil {
		c := *w.confirmation
		v.Confirmation = &c
	}
	return v
}
