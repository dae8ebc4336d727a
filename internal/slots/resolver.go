// Package slots resolves the bookable time labels of a (service, date) pair.
//
// Only the latest request is ever honoured: every call to Request takes a new
// token, cancels the previous in-flight fetch, and results carrying an older
// token are dropped when they arrive.
package slots

import (
	"context"
	"slices"
	"sync"
	"time"

	"slotbook/pkg/logger"
	"slotbook/pkg/model"
	"slotbook/pkg/sanitizer"
)

const FailedMessage = "Couldn't load available times. Please try again."

type Status string

const (
	StatusIdle     Status = "idle"
	StatusLoading  Status = "loading"
	StatusResolved Status = "resolved"
	StatusFailed   Status = "failed"
)

type Fetcher interface {
	FetchSlots(ctx context.Context, serviceID string, date model.CalendarDate) ([]string, error)
}

// Snapshot is a copy of the resolver state at one point in time.
type Snapshot struct {
	Status    Status              `json:"status"`
	ServiceID string              `json:"service_id,omitempty"`
	Date      *model.CalendarDate `json:"date,omitempty"`
	Slots     []string            `json:"slots"`
	Message   string              `json:"message,omitempty"`
	Token     uint64              `json:"token"`
}

// Empty reports a successful resolution that found no slots. A failed
// resolution is never Empty.
func (s Snapshot) Empty() bool {
	return s.Status == StatusResolved && len(s.Slots) == 0
}

func (s Snapshot) Pending() bool {
	return s.Status == StatusLoading
}

func (s Snapshot) Contains(label string) bool {
	return slices.Contains(s.Slots, label)
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Slots = slices.Clone(s.Slots)
	if out.Slots == nil {
		out.Slots = []string{}
	}
	if s.Date != nil {
		d := *s.Date
		out.Date = &d
	}
	return out
}

type Resolver struct {
	fetcher Fetcher
	timeout time.Duration
	log     *logger.Logger

	mu          sync.Mutex
	token       uint64
	state       Snapshot
	cancel      context.CancelFunc
	lastService string
	lastDate    *model.CalendarDate
}

func NewResolver(fetcher Fetcher, timeout time.Duration, log *logger.Logger) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		timeout: timeout,
		log:     log,
		state:   Snapshot{Status: StatusIdle, Slots: []string{}},
	}
}

// Request supersedes whatever was in flight and starts resolving the slots
// for serviceID on date. Without both a service and a date the slot set is
// forced empty and nothing is fetched.
//
// The returned channel yields the snapshot current when this request
// finished (which is not this request's own result if it was superseded)
// and is then closed.
func (r *Resolver) Request(ctx context.Context, serviceID string, date *model.CalendarDate) <-chan Snapshot {
	done := make(chan Snapshot, 1)

	r.mu.Lock()
	r.token++
	token := r.token
	r.stopInFlight()
	r.lastService = serviceID
	r.lastDate = copyDate(date)

	if serviceID == "" || date == nil {
		r.state = Snapshot{Status: StatusIdle, Slots: []string{}, Token: token}
		done <- r.state.clone()
		r.mu.Unlock()
		close(done)
		return done
	}

	// The fetch outlives the caller's request, so it keeps ctx values but
	// not its cancellation.
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	r.cancel = cancel
	r.state = Snapshot{
		Status:    StatusLoading,
		ServiceID: serviceID,
		Date:      copyDate(date),
		Slots:     []string{},
		Token:     token,
	}
	r.mu.Unlock()

	r.log.Debug("Resolving time slots", "service_id", serviceID, "date", date.String(), "token", token)
	go r.run(callCtx, cancel, token, serviceID, *date, done)
	return done
}

// Retry re-issues the most recent request.
func (r *Resolver) Retry(ctx context.Context) <-chan Snapshot {
	r.mu.Lock()
	serviceID, date := r.lastService, copyDate(r.lastDate)
	r.mu.Unlock()
	return r.Request(ctx, serviceID, date)
}

// Reset drops the current state and invalidates any in-flight fetch.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.token++
	r.stopInFlight()
	r.lastService, r.lastDate = "", nil
	r.state = Snapshot{Status: StatusIdle, Slots: []string{}, Token: r.token}
}

func (r *Resolver) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.clone()
}

func (r *Resolver) run(ctx context.Context, cancel context.CancelFunc, token uint64, serviceID string, date model.CalendarDate, done chan<- Snapshot) {
	defer close(done)
	defer cancel()

	labels, err := r.fetcher.FetchSlots(ctx, serviceID, date)

	r.mu.Lock()
	defer r.mu.Unlock()

	if token != r.token {
		r.log.Debug("Discarding stale time slot result",
			"service_id", serviceID,
			"date", date.String(),
			"token", token,
			"latest_token", r.token,
		)
		done <- r.state.clone()
		return
	}
	r.cancel = nil

	if err != nil {
		r.log.Warn("Time slot resolution failed",
			"service_id", serviceID,
			"date", date.String(),
			"error", err,
		)
		r.state = Snapshot{
			Status:    StatusFailed,
			ServiceID: serviceID,
			Date:      &date,
			Slots:     []string{},
			Message:   FailedMessage,
			Token:     token,
		}
	} else {
		r.state = Snapshot{
			Status:    StatusResolved,
			ServiceID: serviceID,
			Date:      &date,
			Slots:     sanitizer.NormalizeSlotLabels(labels),
			Token:     token,
		}
		r.log.Debug("Time slots resolved", "service_id", serviceID, "date", date.String(), "count", len(labels))
	}
	done <- r.state.clone()
}

// stopInFlight must be called with mu held.
func (r *Resolver) stopInFlight() {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

func copyDate(d *model.CalendarDate) *model.CalendarDate {
	if d == nil {
		return nil
	}
	out := *d
	return &out
}
