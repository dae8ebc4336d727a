package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"slotbook/internal/slots"
	"slotbook/pkg/logger"
	"slotbook/pkg/model"
	"slotbook/pkg/sanitizer"
	"slotbook/pkg/validation"
)

const (
	FieldFullName     = "full_name"
	FieldEmail        = "email"
	FieldPhone        = "phone"
	FieldAddress      = "address"
	FieldBookingDate  = "booking_date"
	FieldTimeSlot     = "time_slot"
	FieldInstructions = "instructions"

	DefaultHorizonMonths = 3
)

// formOrder is the top-to-bottom order of the booking form. Errors are
// always reported in this order so the first one is the field to focus.
var formOrder = []string{
	FieldFullName,
	FieldEmail,
	FieldPhone,
	FieldAddress,
	FieldBookingDate,
	FieldTimeSlot,
}

var rePhoneDigits = regexp.MustCompile(`^\d{10,14}$`)

type (
	ValidationError  = validation.FieldError
	ValidationErrors = validation.FieldErrors
)

type DraftValidator struct {
	validate      *validator.Validate
	horizonMonths int
	logger        *logger.Logger
}

func NewDraftValidator(log *logger.Logger, horizonMonths int) *DraftValidator {
	v := validation.New()
	if err := v.RegisterValidation("phone_digits", validatePhoneDigits); err != nil {
		log.Fatal("Failed to register 'phone_digits' validator", "error", err)
	}

	if horizonMonths <= 0 {
		horizonMonths = DefaultHorizonMonths
	}

	log.Info("Booking draft validator initialized successfully", "horizon_months", horizonMonths)

	return &DraftValidator{
		validate:      v,
		horizonMonths: horizonMonths,
		logger:        log,
	}
}

func validatePhoneDigits(fl validator.FieldLevel) bool {
	return IsValidPhone(fl.Field().String())
}

// IsValidPhone strips common punctuation and accepts 10 to 14 digits.
func IsValidPhone(phone string) bool {
	return rePhoneDigits.MatchString(sanitizer.StripPhonePunctuation(strings.TrimSpace(phone)))
}

// Validate checks draft against the slot set resolved for its date, with
// today as the first bookable day. It does not mutate anything, so the same
// inputs always produce the same errors.
func (v *DraftValidator) Validate(draft model.BookingDraft, resolved slots.Snapshot, today model.CalendarDate) ValidationErrors {
	byField := make(map[string]string)

	trimmed := draft
	trimmed.FullName = strings.TrimSpace(draft.FullName)
	trimmed.Email = strings.TrimSpace(draft.Email)
	trimmed.Phone = strings.TrimSpace(draft.Phone)
	trimmed.Address = strings.TrimSpace(draft.Address)

	if err := v.validate.Struct(trimmed); err != nil {
		translated, ok := validation.Translate(err, fieldMessage)
		if !ok {
			v.logger.Error("Unexpected draft validation failure", "error", err)
			return ValidationErrors{{Field: FieldFullName, Message: "Booking details could not be validated"}}
		}
		for _, fe := range translated {
			if _, seen := byField[fe.Field]; !seen {
				byField[fe.Field] = fe.Message
			}
		}
	}

	if msg := v.dateMessage(draft.BookingDate, today); msg != "" {
		byField[FieldBookingDate] = msg
	}

	if draft.BookingDate != nil {
		if msg := timeSlotMessage(draft.TimeSlot, resolved); msg != "" {
			byField[FieldTimeSlot] = msg
		}
	}

	var out ValidationErrors
	for _, field := range formOrder {
		if msg, ok := byField[field]; ok {
			out = append(out, ValidationError{Field: field, Message: msg})
		}
	}
	return out
}

// Horizon is the last bookable day when today is the first.
func (v *DraftValidator) Horizon(today model.CalendarDate) model.CalendarDate {
	return today.AddMonths(v.horizonMonths)
}

func (v *DraftValidator) dateMessage(date *model.CalendarDate, today model.CalendarDate) string {
	switch {
	case date == nil:
		return "Please choose a booking date"
	case date.Before(today):
		return "Booking date cannot be in the past"
	case date.After(v.Horizon(today)):
		return fmt.Sprintf("Booking date must be within %d months from today", v.horizonMonths)
	}
	return ""
}

// timeSlotMessage only demands a slot when the resolved set for the date has
// something to choose from. A failed resolution does not block submission.
func timeSlotMessage(slot string, resolved slots.Snapshot) string {
	switch {
	case resolved.Pending():
		return "Available times are still loading"
	case resolved.Status != slots.StatusResolved || len(resolved.Slots) == 0:
		return ""
	case slot == "":
		return "Please select a time slot"
	case !resolved.Contains(slot):
		return "Selected time slot is no longer available"
	}
	return ""
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case FieldFullName:
		return "Full name is required"
	case FieldAddress:
		return "Address is required"
	case FieldEmail:
		if fe.Tag() == "required" {
			return "Email is required"
		}
		return "Please enter a valid email address"
	case FieldPhone:
		if fe.Tag() == "required" {
			return "Phone number is required"
		}
		return "Please enter a valid phone number (10-14 digits)"
	}

	return validation.DefaultMessage(fe)
}
