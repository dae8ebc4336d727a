package model

import "time"

// ScheduledEvent is a booking placed on a vendor's calendar. The persistence
// layer owns it; the calendar only reads and indexes it by date.
// ExternalRef is the identifier the event had where it came from, such as
// an ICS UID.
type ScheduledEvent struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	VendorID    string    `json:"vendor_id" bson:"vendor_id" validate:"required,min=1,max=64"`
	Title       string    `json:"title" bson:"title" validate:"required,min=2,max=120"`
	ServiceName string    `json:"service_name" bson:"service_name" validate:"required,min=2,max=100"`
	ClientName  string    `json:"client_name" bson:"client_name" validate:"required,min=2,max=100"`
	OccursAt    time.Time `json:"occurs_at" bson:"occurs_at" validate:"required"`
	Notes       string    `json:"notes,omitempty" bson:"notes,omitempty" validate:"omitempty,max=1000"`
	Source      string    `json:"source,omitempty" bson:"source,omitempty" validate:"omitempty,oneof=manual ics booking"`
	ExternalRef string    `json:"external_ref,omitempty" bson:"external_ref,omitempty" validate:"omitempty,max=255"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// Date is the calendar day the event falls on, in OccursAt's own location.
func (e ScheduledEvent) Date() CalendarDate {
	return DateOf(e.OccursAt)
}
