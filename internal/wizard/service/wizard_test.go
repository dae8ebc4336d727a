package service

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"slotbook/internal/slots"
	wizarderrors "slotbook/internal/wizard/errors"
	"slotbook/internal/wizard/validator"
	"slotbook/pkg/client"
	"slotbook/pkg/logger"
	"slotbook/pkg/model"
)

var fixedNow = time.Date(2025, time.April, 10, 9, 30, 0, 0, time.UTC)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:  logger.ERROR,
		Format: logger.JSON,
		Output: io.Discard,
	})
}

type mockFetcher struct {
	fetchFunc func(ctx context.Context, serviceID string, date model.CalendarDate) ([]string, error)
}

func (m *mockFetcher) FetchSlots(ctx context.Context, serviceID string, date model.CalendarDate) ([]string, error) {
	if m.fetchFunc != nil {
		return m.fetchFunc(ctx, serviceID, date)
	}
	return []string{"9AM-11AM", "11AM-1PM"}, nil
}

type submitCall struct {
	req model.BookingRequest
	key string
}

type mockSubmitter struct {
	mu         sync.Mutex
	calls      []submitCall
	submitFunc func(ctx context.Context, req model.BookingRequest, key string) (*model.BookingConfirmation, error)
}

func (m *mockSubmitter) Submit(ctx context.Context, req model.BookingRequest, key string) (*model.BookingConfirmation, error) {
	m.mu.Lock()
	m.calls = append(m.calls, submitCall{req: req, key: key})
	m.mu.Unlock()

	if m.submitFunc != nil {
		return m.submitFunc(ctx, req, key)
	}
	return &model.BookingConfirmation{
		OrderID:       "ord-1",
		ScheduledDate: req.BookingDate,
		ScheduledTime: req.TimeSlot,
		Status:        "confirmed",
	}, nil
}

func (m *mockSubmitter) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockSubmitter) call(i int) submitCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[i]
}

type mockNotifier struct {
	count  atomic.Int32
	err    error
	lastID atomic.Value
}

func (m *mockNotifier) BookingConfirmed(ctx context.Context, target model.Target, req model.BookingRequest, conf model.BookingConfirmation) error {
	m.count.Add(1)
	m.lastID.Store(conf.OrderID)
	return m.err
}

type fixture struct {
	wizard    *Wizard
	fetcher   *mockFetcher
	submitter *mockSubmitter
	notifier  *mockNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := testLogger()

	f := &fixture{
		fetcher:   &mockFetcher{},
		submitter: &mockSubmitter{},
		notifier:  &mockNotifier{},
	}

	w, err := New(model.Target{VendorID: "vendor-1", ServiceID: "svc-1"}, Deps{
		Submitter:     f.submitter,
		Slots:         f.fetcher,
		Validator:     validator.NewDraftValidator(log, validator.DefaultHorizonMonths),
		Notifier:      f.notifier,
		Log:           log,
		Clock:         func() time.Time { return fixedNow },
		SlotTimeout:   time.Second,
		SubmitTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	f.wizard = w
	return f
}

func waitSlots(t *testing.T, ch <-chan slots.Snapshot) slots.Snapshot {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for slot resolution")
	}
	return slots.Snapshot{}
}

func day(d int) *model.CalendarDate {
	date := model.NewCalendarDate(2025, time.April, d)
	return &date
}

// fillValid enters a valid draft for April 12th with its first slot chosen.
func (f *fixture) fillValid(t *testing.T) {
	t.Helper()
	w := f.wizard

	for field, value := range map[string]string{
		validator.FieldFullName: "Jane Doe",
		validator.FieldEmail:    "jane@example.com",
		validator.FieldPhone:    "(212) 555-1234",
		validator.FieldAddress:  "12 Main St",
	} {
		if err := w.SetField(field, value); err != nil {
			t.Fatalf("SetField(%s) error = %v", field, err)
		}
	}

	done, err := w.SetBookingDate(context.Background(), day(12))
	if err != nil {
		t.Fatalf("SetBookingDate() error = %v", err)
	}
	snap := waitSlots(t, done)
	if len(snap.Slots) > 0 {
		if err := w.SelectTimeSlot(snap.Slots[0]); err != nil {
			t.Fatalf("SelectTimeSlot() error = %v", err)
		}
	}
}

func TestNew_RequiresServiceID(t *testing.T) {
	_, err := New(model.Target{VendorID: "vendor-1"}, Deps{Log: testLogger()})
	if !errors.Is(err, wizarderrors.ErrMissingServiceID) {
		t.Fatalf("expected ErrMissingServiceID, got %v", err)
	}
}

func TestNew_RequiresDependencies(t *testing.T) {
	log := testLogger()
	complete := Deps{
		Submitter: &mockSubmitter{},
		Slots:     &mockFetcher{},
		Validator: validator.NewDraftValidator(log, validator.DefaultHorizonMonths),
		Log:       log,
	}

	tests := []struct {
		name    string
		mutate  func(*Deps)
		missing string
	}{
		{name: "submitter", mutate: func(d *Deps) { d.Submitter = nil }, missing: "submitter"},
		{name: "slot fetcher", mutate: func(d *Deps) { d.Slots = nil }, missing: "slot fetcher"},
		{name: "validator", mutate: func(d *Deps) { d.Validator = nil }, missing: "validator"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := complete
			tt.mutate(&deps)

			w, err := New(model.Target{VendorID: "vendor-1", ServiceID: "svc-1"}, deps)
			if !errors.Is(err, wizarderrors.ErrMissingDependency) {
				t.Fatalf("expected ErrMissingDependency, got %v", err)
			}
			if w != nil {
				t.Error("no wizard should be returned")
			}
			if !strings.Contains(err.Error(), tt.missing) {
				t.Errorf("error %q should name %q", err, tt.missing)
			}
		})
	}

	if _, err := New(model.Target{VendorID: "vendor-1", ServiceID: "svc-1"}, complete); err != nil {
		t.Fatalf("New() with all dependencies error = %v", err)
	}
}

func TestSubmit_Success(t *testing.T) {
	f := newFixture(t)
	f.fillValid(t)

	conf, err := f.wizard.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if conf.OrderID != "ord-1" {
		t.Errorf("OrderID = %q", conf.OrderID)
	}

	view := f.wizard.View()
	if view.State != StateConfirmed {
		t.Errorf("state = %s, want confirmed", view.State)
	}
	if view.Confirmation == nil || view.Confirmation.OrderID != "ord-1" {
		t.Errorf("view confirmation = %+v", view.Confirmation)
	}
	if view.CanSubmit {
		t.Errorf("confirmed wizard must not offer submit")
	}

	req := f.submitter.call(0).req
	want := model.BookingRequest{
		ServiceID:   "svc-1",
		VendorID:    "vendor-1",
		FullName:    "Jane Doe",
		Email:       "jane@example.com",
		Phone:       "+12125551234",
		Address:     "12 Main St",
		BookingDate: "2025-04-12",
		TimeSlot:    "9AM-11AM",
	}
	if !reflect.DeepEqual(req, want) {
		t.Errorf("request = %+v\nwant %+v", req, want)
	}

	if f.notifier.count.Load() != 1 {
		t.Errorf("notifier called %d times, want 1", f.notifier.count.Load())
	}

	if _, err := f.wizard.Submit(context.Background()); !errors.Is(err, wizarderrors.ErrWizardClosed) {
		t.Errorf("second Submit() error = %v, want ErrWizardClosed", err)
	}
}

func TestSubmit_ValidationFailure(t *testing.T) {
	f := newFixture(t)
	w := f.wizard

	_ = w.SetField(validator.FieldFullName, "Jane Doe")
	_ = w.SetField(validator.FieldEmail, "x@")
	_ = w.SetField(validator.FieldPhone, "123")

	_, err := w.Submit(context.Background())

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}

	want := []string{validator.FieldEmail, validator.FieldPhone, validator.FieldAddress, validator.FieldBookingDate}
	var got []string
	for _, e := range verrs {
		got = append(got, e.Field)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("failing fields = %v, want %v", got, want)
	}

	view := w.View()
	if view.State != StateError {
		t.Errorf("state = %s, want error", view.State)
	}
	if view.FocusField != validator.FieldEmail {
		t.Errorf("focus = %q, want email", view.FocusField)
	}
	if f.submitter.callCount() != 0 {
		t.Errorf("validation failure must not reach the network")
	}
}

func TestEditing_ClearsFieldErrorsAndReturnsToEntry(t *testing.T) {
	f := newFixture(t)
	w := f.wizard

	_ = w.SetField(validator.FieldFullName, "Jane Doe")
	_ = w.SetField(validator.FieldPhone, "2125551234")
	_ = w.SetField(validator.FieldAddress, "12 Main St")
	_, _ = w.SetBookingDate(context.Background(), nil)
	_ = w.SetField(validator.FieldEmail, "bad")

	if _, err := w.Submit(context.Background()); err == nil {
		t.Fatal("expected validation failure")
	}

	if err := w.SetField(validator.FieldEmail, "jane@example.com"); err != nil {
		t.Fatalf("SetField() error = %v", err)
	}
	view := w.View()
	if view.State != StateError {
		t.Errorf("state = %s, want error while booking_date is still failing", view.State)
	}
	for _, e := range view.FieldErrors {
		if e.Field == validator.FieldEmail {
			t.Errorf("email error should be cleared once edited")
		}
	}

	done, err := w.SetBookingDate(context.Background(), day(12))
	if err != nil {
		t.Fatalf("SetBookingDate() error = %v", err)
	}
	waitSlots(t, done)

	if got := w.State(); got != StateFormEntry {
		t.Errorf("state = %s, want form_entry after every error is cleared", got)
	}
}

func TestScenarioC_NoSlotsIsNotAnError(t *testing.T) {
	f := newFixture(t)
	f.fetcher.fetchFunc = func(ctx context.Context, serviceID string, date model.CalendarDate) ([]string, error) {
		return []string{}, nil
	}
	f.fillValid(t)

	view := f.wizard.View()
	if view.Slots.Status != slots.StatusResolved || !view.Slots.Empty() {
		t.Fatalf("slots = %+v, want resolved and empty", view.Slots)
	}
	if view.SlotNotice != NoSlotsMessage {
		t.Errorf("slot notice = %q, want %q", view.SlotNotice, NoSlotsMessage)
	}

	if _, err := f.wizard.Submit(context.Background()); err != nil {
		t.Fatalf("Submit() without slots should succeed, got %v", err)
	}
	if f.submitter.call(0).req.TimeSlot != "" {
		t.Errorf("no time slot should be sent")
	}
}

func TestSlotFailureIsDistinctFromEmpty(t *testing.T) {
	f := newFixture(t)
	f.fetcher.fetchFunc = func(ctx context.Context, serviceID string, date model.CalendarDate) ([]string, error) {
		return nil, errors.New("connection reset")
	}
	f.fillValid(t)

	view := f.wizard.View()
	if view.Slots.Status != slots.StatusFailed {
		t.Fatalf("status = %s, want failed", view.Slots.Status)
	}
	if view.Slots.Empty() {
		t.Errorf("a failed resolution must not read as empty")
	}
	if view.SlotNotice != slots.FailedMessage {
		t.Errorf("slot notice = %q", view.SlotNotice)
	}

	f.fetcher.fetchFunc = nil
	done, err := f.wizard.RetrySlots(context.Background())
	if err != nil {
		t.Fatalf("RetrySlots() error = %v", err)
	}
	if snap := waitSlots(t, done); snap.Status != slots.StatusResolved || len(snap.Slots) != 2 {
		t.Errorf("retry snapshot = %+v", snap)
	}
}

func TestScenarioD_ServerMessageKeptAndDraftUnchanged(t *testing.T) {
	f := newFixture(t)
	f.submitter.submitFunc = func(ctx context.Context, req model.BookingRequest, key string) (*model.BookingConfirmation, error) {
		return nil, &client.RemoteError{StatusCode: 409, Message: "Slot no longer available"}
	}
	f.fillValid(t)
	before := f.wizard.View().Draft

	_, err := f.wizard.Submit(context.Background())

	var subErr *SubmissionError
	if !errors.As(err, &subErr) {
		t.Fatalf("expected SubmissionError, got %v", err)
	}
	if subErr.Message != "Slot no longer available" {
		t.Errorf("message = %q", subErr.Message)
	}

	view := f.wizard.View()
	if view.State != StateError {
		t.Errorf("state = %s, want error", view.State)
	}
	if view.SubmissionError != "Slot no longer available" {
		t.Errorf("submission error = %q", view.SubmissionError)
	}
	if !reflect.DeepEqual(view.Draft, before) {
		t.Errorf("draft changed:\n%+v\n%+v", view.Draft, before)
	}
	if !view.CanSubmit {
		t.Errorf("errored wizard must allow resubmission")
	}

	if err := f.wizard.SetField(validator.FieldInstructions, "ring twice"); err != nil {
		t.Fatalf("SetField() error = %v", err)
	}
	view = f.wizard.View()
	if view.State != StateFormEntry {
		t.Errorf("state = %s, want form_entry after editing", view.State)
	}
	if view.SubmissionError != "Slot no longer available" {
		t.Errorf("submission error should stay visible in entry, got %q", view.SubmissionError)
	}
}

func TestSubmit_FailureMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "server message", err: &client.RemoteError{StatusCode: 400, Message: "Vendor is closed"}, want: "Vendor is closed"},
		{name: "server without message", err: &client.RemoteError{StatusCode: 502}, want: GenericSubmitFailure},
		{name: "transport failure", err: errors.New("dial tcp: connection refused"), want: GenericSubmitFailure},
		{name: "timeout", err: context.DeadlineExceeded, want: GenericSubmitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.submitter.submitFunc = func(ctx context.Context, req model.BookingRequest, key string) (*model.BookingConfirmation, error) {
				return nil, tt.err
			}
			f.fillValid(t)

			_, err := f.wizard.Submit(context.Background())

			var subErr *SubmissionError
			if !errors.As(err, &subErr) {
				t.Fatalf("expected SubmissionError, got %v", err)
			}
			if subErr.Message != tt.want {
				t.Errorf("message = %q, want %q", subErr.Message, tt.want)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("SubmissionError should wrap the cause")
			}
		})
	}
}

func TestSubmit_RejectsSecondSubmissionInFlight(t *testing.T) {
	f := newFixture(t)
	started := make(chan struct{})
	release := make(chan struct{})
	f.submitter.submitFunc = func(ctx context.Context, req model.BookingRequest, key string) (*model.BookingConfirmation, error) {
		close(started)
		<-release
		return &model.BookingConfirmation{OrderID: "ord-7", Status: "confirmed"}, nil
	}
	f.fillValid(t)

	result := make(chan error, 1)
	go func() {
		_, err := f.wizard.Submit(context.Background())
		result <- err
	}()
	<-started

	if _, err := f.wizard.Submit(context.Background()); !errors.Is(err, wizarderrors.ErrSubmissionInFlight) {
		t.Errorf("second Submit() error = %v, want ErrSubmissionInFlight", err)
	}
	if _, err := f.wizard.Dismiss(true); !errors.Is(err, wizarderrors.ErrDismissWhileSubmitting) {
		t.Errorf("Dismiss() error = %v, want ErrDismissWhileSubmitting", err)
	}
	if err := f.wizard.SetField(validator.FieldFullName, "Other"); !errors.Is(err, wizarderrors.ErrSubmissionInFlight) {
		t.Errorf("SetField() error = %v, want ErrSubmissionInFlight", err)
	}
	if got := f.wizard.State(); got != StateSubmitting {
		t.Errorf("state = %s, want submitting", got)
	}

	close(release)
	if err := <-result; err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}
	if f.submitter.callCount() != 1 {
		t.Errorf("submitter called %d times, want 1", f.submitter.callCount())
	}
	if got := f.wizard.State(); got != StateConfirmed {
		t.Errorf("state = %s, want confirmed", got)
	}
}

func TestSubmit_WatchdogTimeout(t *testing.T) {
	f := newFixture(t)
	f.wizard.deps.SubmitTimeout = 20 * time.Millisecond
	f.submitter.submitFunc = func(ctx context.Context, req model.BookingRequest, key string) (*model.BookingConfirmation, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	f.fillValid(t)

	_, err := f.wizard.Submit(context.Background())

	var subErr *SubmissionError
	if !errors.As(err, &subErr) || subErr.Message != GenericSubmitFailure {
		t.Fatalf("expected generic submission failure, got %v", err)
	}
	if got := f.wizard.State(); got != StateError {
		t.Errorf("state = %s, want error", got)
	}
}

func TestSubmit_OutlivesCallerCancellation(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	f.submitter.submitFunc = func(subCtx context.Context, req model.BookingRequest, key string) (*model.BookingConfirmation, error) {
		cancel()
		if subCtx.Err() != nil {
			return nil, subCtx.Err()
		}
		return &model.BookingConfirmation{OrderID: "ord-2"}, nil
	}
	f.fillValid(t)

	if _, err := f.wizard.Submit(ctx); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
}

func TestSubmit_IdempotencyKeyFollowsDraft(t *testing.T) {
	f := newFixture(t)
	var fail atomic.Bool
	fail.Store(true)
	f.submitter.submitFunc = func(ctx context.Context, req model.BookingRequest, key string) (*model.BookingConfirmation, error) {
		if fail.Load() {
			return nil, errors.New("timeout")
		}
		return &model.BookingConfirmation{OrderID: "ord-3"}, nil
	}
	f.fillValid(t)

	_, _ = f.wizard.Submit(context.Background())
	_, _ = f.wizard.Submit(context.Background())
	if f.submitter.call(0).key == "" || f.submitter.call(0).key != f.submitter.call(1).key {
		t.Errorf("retrying an unchanged draft should reuse the key")
	}

	_ = f.wizard.SetField(validator.FieldInstructions, "leave at the door")
	fail.Store(false)
	if _, err := f.wizard.Submit(context.Background()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if f.submitter.call(2).key == f.submitter.call(1).key {
		t.Errorf("an edited draft should get a new key")
	}
}

func TestSubmit_NotifierFailureDoesNotUndoConfirmation(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("kafka unavailable")
	f.fillValid(t)

	if _, err := f.wizard.Submit(context.Background()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if got := f.wizard.State(); got != StateConfirmed {
		t.Errorf("state = %s, want confirmed", got)
	}
	if id, _ := f.notifier.lastID.Load().(string); id != "ord-1" {
		t.Errorf("notified order = %q", id)
	}
}

func TestSubmit_WhileSlotsLoading(t *testing.T) {
	f := newFixture(t)
	release := make(chan struct{})
	f.fetcher.fetchFunc = func(ctx context.Context, serviceID string, date model.CalendarDate) ([]string, error) {
		<-release
		return []string{"9AM-11AM"}, nil
	}
	defer close(release)

	_ = f.wizard.SetField(validator.FieldFullName, "Jane Doe")
	_ = f.wizard.SetField(validator.FieldEmail, "jane@example.com")
	_ = f.wizard.SetField(validator.FieldPhone, "2125551234")
	_ = f.wizard.SetField(validator.FieldAddress, "12 Main St")
	if _, err := f.wizard.SetBookingDate(context.Background(), day(12)); err != nil {
		t.Fatalf("SetBookingDate() error = %v", err)
	}

	_, err := f.wizard.Submit(context.Background())
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || !verrs.Has(validator.FieldTimeSlot) {
		t.Fatalf("expected a time slot error while loading, got %v", err)
	}
}

func TestSetBookingDate_ClearsTimeSlot(t *testing.T) {
	f := newFixture(t)
	f.fillValid(t)

	if got := f.wizard.View().Draft.TimeSlot; got != "9AM-11AM" {
		t.Fatalf("precondition: slot = %q", got)
	}

	if _, err := f.wizard.SetBookingDate(context.Background(), day(13)); err != nil {
		t.Fatalf("SetBookingDate() error = %v", err)
	}

	draft := f.wizard.View().Draft
	if draft.TimeSlot != "" {
		t.Errorf("slot = %q, want cleared on date change", draft.TimeSlot)
	}
	if draft.BookingDate == nil || *draft.BookingDate != *day(13) {
		t.Errorf("date = %v, want 2025-04-13", draft.BookingDate)
	}
}

func TestSelectTimeSlot(t *testing.T) {
	f := newFixture(t)

	if err := f.wizard.SelectTimeSlot("9AM-11AM"); !errors.Is(err, wizarderrors.ErrUnknownTimeSlot) {
		t.Errorf("selecting before resolution: got %v, want ErrUnknownTimeSlot", err)
	}

	f.fillValid(t)

	if err := f.wizard.SelectTimeSlot("3PM-5PM"); !errors.Is(err, wizarderrors.ErrUnknownTimeSlot) {
		t.Errorf("unknown label: got %v, want ErrUnknownTimeSlot", err)
	}
	if err := f.wizard.SelectTimeSlot("11AM-1PM"); err != nil {
		t.Errorf("SelectTimeSlot() error = %v", err)
	}
	if err := f.wizard.SelectTimeSlot(""); err != nil {
		t.Errorf("clearing the slot: %v", err)
	}
	if got := f.wizard.View().Draft.TimeSlot; got != "" {
		t.Errorf("slot = %q, want cleared", got)
	}
}

func TestSetField_Unknown(t *testing.T) {
	f := newFixture(t)
	if err := f.wizard.SetField("nickname", "JD"); !errors.Is(err, wizarderrors.ErrUnknownField) {
		t.Errorf("got %v, want ErrUnknownField", err)
	}
}

func TestApplyPatch(t *testing.T) {
	f := newFixture(t)
	name, email := "Jane Doe", "jane@example.com"

	if err := f.wizard.ApplyPatch(DraftPatch{FullName: &name, Email: &email}); err != nil {
		t.Fatalf("ApplyPatch() error = %v", err)
	}

	draft := f.wizard.View().Draft
	if draft.FullName != name || draft.Email != email || draft.Phone != "" {
		t.Errorf("draft = %+v", draft)
	}
}

func TestDismiss(t *testing.T) {
	t.Run("empty form closes directly", func(t *testing.T) {
		f := newFixture(t)
		outcome, err := f.wizard.Dismiss(false)
		if err != nil || outcome != Dismissed {
			t.Fatalf("Dismiss() = %s, %v", outcome, err)
		}
	})

	t.Run("non-empty form asks first", func(t *testing.T) {
		f := newFixture(t)
		_ = f.wizard.SetField(validator.FieldFullName, "Jane")

		outcome, err := f.wizard.Dismiss(false)
		if err != nil || outcome != ConfirmationRequired {
			t.Fatalf("Dismiss() = %s, %v", outcome, err)
		}
		if got := f.wizard.State(); got != StateFormEntry {
			t.Errorf("state = %s, want form_entry", got)
		}

		outcome, err = f.wizard.Dismiss(true)
		if err != nil || outcome != Dismissed {
			t.Fatalf("forced Dismiss() = %s, %v", outcome, err)
		}
		if err := f.wizard.SetField(validator.FieldFullName, "x"); !errors.Is(err, wizarderrors.ErrWizardClosed) {
			t.Errorf("editing a dismissed wizard: %v", err)
		}
		if _, err := f.wizard.Submit(context.Background()); !errors.Is(err, wizarderrors.ErrWizardClosed) {
			t.Errorf("submitting a dismissed wizard: %v", err)
		}
	})

	t.Run("errored form closes without prompt", func(t *testing.T) {
		f := newFixture(t)
		_ = f.wizard.SetField(validator.FieldFullName, "Jane")
		_, _ = f.wizard.Submit(context.Background())

		outcome, err := f.wizard.Dismiss(false)
		if err != nil || outcome != Dismissed {
			t.Fatalf("Dismiss() = %s, %v", outcome, err)
		}
	})

	t.Run("confirmed wizard can be left", func(t *testing.T) {
		f := newFixture(t)
		f.fillValid(t)
		_, _ = f.wizard.Submit(context.Background())

		outcome, err := f.wizard.Dismiss(false)
		if err != nil || outcome != Dismissed {
			t.Fatalf("Dismiss() = %s, %v", outcome, err)
		}
	})
}

func TestView_DateBounds(t *testing.T) {
	f := newFixture(t)
	view := f.wizard.View()

	if view.MinDate != model.NewCalendarDate(2025, time.April, 10) {
		t.Errorf("min date = %s", view.MinDate)
	}
	if view.MaxDate != model.NewCalendarDate(2025, time.July, 10) {
		t.Errorf("max date = %s", view.MaxDate)
	}
}
