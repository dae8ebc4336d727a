package validator

import (
	"github.com/go-playground/validator/v10"

	"slotbook/pkg/logger"
	"slotbook/pkg/model"
	"slotbook/pkg/validation"
)

type ValidationErrors = validation.FieldErrors

type EventValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewEventValidator(log *logger.Logger) *EventValidator {
	log.Debug("Scheduled event validator ready")
	return &EventValidator{
		validate: validation.New(),
		logger:   log,
	}
}

// Validate returns ValidationErrors for rule violations and the raw error
// for anything the validator itself could not handle.
func (v *EventValidator) Validate(ev *model.ScheduledEvent) error {
	err := v.validate.Struct(ev)
	if err == nil {
		return nil
	}
	if errs, ok := validation.Translate(err, eventMessage); ok {
		return errs
	}
	v.logger.Error("Unexpected scheduled event validation failure", "error", err)
	return err
}

func eventMessage(fe validator.FieldError) string {
	if fe.Field() == "occurs_at" && fe.Tag() == "required" {
		return "occurs_at must be a date and time"
	}
	return validation.DefaultMessage(fe)
}
