package model

import "strings"

// Target identifies what a wizard session books. A new target always gets a
// fresh draft.
type Target struct {
	VendorID  string `json:"vendor_id"`
	ServiceID string `json:"service_id"`
}

// BookingDraft is the working state of the booking form.
type BookingDraft struct {
	FullName     string        `json:"full_name" validate:"required"`
	Email        string        `json:"email" validate:"required,email"`
	Phone        string        `json:"phone" validate:"required,phone_digits"`
	Address      string        `json:"address" validate:"required"`
	BookingDate  *CalendarDate `json:"booking_date"`
	TimeSlot     string        `json:"time_slot"`
	Instructions string        `json:"instructions"`
}

// IsEmpty reports whether the user has entered anything at all.
func (d BookingDraft) IsEmpty() bool {
	return strings.TrimSpace(d.FullName) == "" &&
		strings.TrimSpace(d.Email) == "" &&
		strings.TrimSpace(d.Phone) == "" &&
		strings.TrimSpace(d.Address) == "" &&
		strings.TrimSpace(d.Instructions) == "" &&
		d.BookingDate == nil &&
		d.TimeSlot == ""
}

// Clone returns a copy that shares no pointers with d.
func (d BookingDraft) Clone() BookingDraft {
	out := d
	if d.BookingDate != nil {
		date := *d.BookingDate
		out.BookingDate = &date
	}
	return out
}

// BookingRequest is the wire form handed to the booking collaborator.
type BookingRequest struct {
	ServiceID    string `json:"serviceId"`
	VendorID     string `json:"vendorId,omitempty"`
	FullName     string `json:"fullName"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	BookingDate  string `json:"bookingDate"`
	TimeSlot     string `json:"timeSlot"`
	Instructions string `json:"instructions"`
}

// BookingConfirmation is produced only by a successful submission.
type BookingConfirmation struct {
	OrderID       string `json:"orderId"`
	ScheduledDate string `json:"scheduledDate"`
	ScheduledTime string `json:"scheduledTime"`
	Status        string `json:"status"`
}
