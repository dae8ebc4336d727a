// Package validation holds the field-error shape shared by every validator
// and the go-playground setup they build on.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// FieldErrors keeps the order the errors were found in.
type FieldErrors []FieldError

func (v FieldErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	parts := make([]string, len(v))
	for i, err := range v {
		parts[i] = err.Error()
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(parts, "; "))
}

func (v FieldErrors) First() (FieldError, bool) {
	if len(v) == 0 {
		return FieldError{}, false
	}
	return v[0], true
}

func (v FieldErrors) Has(field string) bool {
	return slices.ContainsFunc(v, func(e FieldError) bool { return e.Field == field })
}

func (v FieldErrors) Map() map[string]string {
	out := make(map[string]string, len(v))
	for _, err := range v {
		out[err.Field] = err.Message
	}
	return out
}

// Without returns a copy minus the errors of the given fields.
func (v FieldErrors) Without(fields ...string) FieldErrors {
	var out FieldErrors
	for _, err := range v {
		if !slices.Contains(fields, err.Field) {
			out = append(out, err)
		}
	}
	return out
}

// New returns a validator that reports fields by their json names.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Translate converts go-playground errors with message. Any other error is
// returned as is with ok false.
func Translate(err error, message func(validator.FieldError) string) (FieldErrors, bool) {
	var fes validator.ValidationErrors
	if !errors.As(err, &fes) {
		return nil, false
	}
	out := make(FieldErrors, 0, len(fes))
	for _, fe := range fes {
		out = append(out, FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out, true
}

// DefaultMessage covers the generic tags in plain words.
func DefaultMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "mongodb":
		return fmt.Sprintf("%s must be a valid object ID", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	}
	return fe.Error()
}
