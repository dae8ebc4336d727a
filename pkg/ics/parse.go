// Package ics turns an iCalendar payload into scheduled events for a vendor.
package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"slotbook/pkg/model"
)

const (
	SourceICS = "ics"

	DefaultServiceName = "Imported event"
	DefaultClientName  = "External calendar"

	maxNotesLength = 1000
)

var (
	ErrEmptyCalendar = errors.New("empty ICS body")
	ErrNotCalendar   = errors.New("body is not a VCALENDAR")
)

// Skipped records a VEVENT that did not become an event.
type Skipped struct {
	UID    string `json:"uid,omitempty"`
	Reason string `json:"reason"`
}

type Result struct {
	Events  []model.ScheduledEvent `json:"events"`
	Skipped []Skipped              `json:"skipped,omitempty"`
}

// Parse reads every VEVENT in body. Recurring events keep only their first
// occurrence. Events without a start time are skipped, not fatal.
func Parse(vendorID string, body []byte) (Result, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Result{}, ErrEmptyCalendar
	}
	if !bytes.Contains(bytes.ToUpper(body), []byte("BEGIN:VCALENDAR")) {
		return Result{}, ErrNotCalendar
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("failed to parse calendar: %w", err)
	}

	var res Result
	for _, ve := range cal.Events() {
		ev, err := toEvent(vendorID, ve)
		if err != nil {
			res.Skipped = append(res.Skipped, Skipped{UID: propValue(ve, ical.ComponentPropertyUniqueId), Reason: err.Error()})
			continue
		}
		res.Events = append(res.Events, ev)
	}
	return res, nil
}

func toEvent(vendorID string, ve *ical.VEvent) (model.ScheduledEvent, error) {
	start, err := startOf(ve)
	if err != nil {
		return model.ScheduledEvent{}, err
	}

	title := strings.TrimSpace(propValue(ve, ical.ComponentPropertySummary))
	if title == "" {
		return model.ScheduledEvent{}, errors.New("missing SUMMARY")
	}

	service := strings.TrimSpace(propValue(ve, ical.ComponentPropertyCategories))
	if i := strings.IndexByte(service, ','); i >= 0 {
		service = strings.TrimSpace(service[:i])
	}
	if service == "" {
		service = DefaultServiceName
	}

	client := organizerName(ve)
	if client == "" {
		client = DefaultClientName
	}

	notes := strings.TrimSpace(propValue(ve, ical.ComponentPropertyDescription))
	if loc := strings.TrimSpace(propValue(ve, ical.ComponentPropertyLocation)); loc != "" {
		if notes != "" {
			notes += "\n"
		}
		notes += loc
	}
	if r := []rune(notes); len(r) > maxNotesLength {
		notes = string(r[:maxNotesLength])
	}

	return model.ScheduledEvent{
		VendorID:    vendorID,
		Title:       title,
		ServiceName: service,
		ClientName:  client,
		OccursAt:    start,
		Notes:       notes,
		Source:      SourceICS,
		ExternalRef: strings.TrimSpace(propValue(ve, ical.ComponentPropertyUniqueId)),
	}, nil
}

// startOf keeps all-day events on their own date at midnight UTC so the day
// index does not shift them across a day boundary.
func startOf(ve *ical.VEvent) (time.Time, error) {
	prop := ve.GetProperty(ical.ComponentPropertyDtStart)
	if prop == nil || strings.TrimSpace(prop.Value) == "" {
		return time.Time{}, errors.New("missing DTSTART")
	}

	if isAllDay(prop) {
		t, err := time.Parse("20060102", strings.TrimSpace(prop.Value))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid DTSTART %q: %w", prop.Value, err)
		}
		return t, nil
	}

	t, err := ve.GetStartAt()
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid DTSTART %q: %w", prop.Value, err)
	}
	return t, nil
}

func isAllDay(prop *ical.IANAProperty) bool {
	if vs, ok := prop.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(prop.Value, "T")
}

func organizerName(ve *ical.VEvent) string {
	prop := ve.GetProperty(ical.ComponentPropertyOrganizer)
	if prop == nil {
		return ""
	}
	if cn, ok := prop.ICalParameters["CN"]; ok && len(cn) > 0 {
		return strings.Trim(strings.TrimSpace(cn[0]), `"`)
	}
	return strings.TrimPrefix(strings.TrimSpace(prop.Value), "mailto:")
}

// propValue returns the property value; TEXT values arrive unescaped.
func propValue(ve *ical.VEvent, p ical.ComponentProperty) string {
	if prop := ve.GetProperty(p); prop != nil {
		return prop.Value
	}
	return ""
}
