package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError describes a rejected payload. Message is safe to return to clients.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// emailAddressPattern is the accepted address grammar: an ASCII local part of
// word characters and "%+.-", and a dotted domain ending in an alphabetic TLD
// of at least two letters. Quoted local parts and non-ASCII addresses are rejected.
var emailAddressPattern = regexp.MustCompile(`^[\w%+.-]+@[\d.A-Za-z-]+\.[A-Za-z]{2,}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names rather than Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	if err := v.RegisterValidation("email_address", isEmailAddress); err != nil {
		panic(fmt.Sprintf("register email_address validation: %v", err))
	}
	return v
}

func isEmailAddress(fl validator.FieldLevel) bool {
	return emailAddressPattern.MatchString(fl.Field().String())
}

// Validate checks a struct against its validate tags and returns the first
// failure as a *ValidationError.
func Validate(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validate input: %w", err)
	}

	fe := fieldErrs[0]
	return &ValidationError{Field: fe.Field(), Message: fieldMessage(fe)}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email", "email_address":
		return fe.Field() + " must be a valid email address"
	default:
		return fe.Field() + " is invalid"
	}
}
