package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a single validation error for a field or key.
type ValidationError struct {
	Field   string         // JSON field name, empty for request-level errors
	Rule    string         // Rule that was violated (e.g., "required", "max")
	Message string         // Human-readable message
	Params  map[string]any // Rule parameters (e.g., {"max": 100})
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors that can be accumulated.
type ValidationErrors []ValidationError

// Error implements the error interface, combining all error messages.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}

	var messages []string
	for _, err := range e {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Add appends a validation error to the collection.
func (e *ValidationErrors) Add(field, message string) {
	*e = append(*e, ValidationError{Field: field, Message: message})
}

// ByField returns the first error message for a specific field, or empty string.
func (e ValidationErrors) ByField(field string) string {
	for _, err := range e {
		if err.Field == field {
			return err.Message
		}
	}
	return ""
}

// NewError creates a ValidationErrors with a single general error.
func NewError(message string) ValidationErrors {
	return ValidationErrors{{Message: message}}
}

// NewSingleError creates a ValidationErrors with a single field error.
func NewSingleError(field, message string) ValidationErrors {
	return ValidationErrors{{Field: field, Message: message}}
}

// IsValidation reports whether err is, or wraps, a validation failure.
func IsValidation(err error) bool {
	var many ValidationErrors
	if errors.As(err, &many) {
		return true
	}
	var one ValidationError
	return errors.As(err, &one)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report JSON names rather than Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Struct validates s using its `validate` tags and converts failures into
// ValidationErrors. It returns nil when s is valid.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	var out ValidationErrors
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: messageFor(fe),
			Params:  map[string]any{"param": fe.Param()},
		})
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without_all":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
