// Package validation checks request shapes with validator/v10 struct tags and holds the
// business rules that do not fit a tag: password complexity and date/time handling.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"eventhub/apperror"
)

var (
	once     sync.Once
	validate *validator.Validate

	lowerRe   = regexp.MustCompile(`[a-z]`)
	upperRe   = regexp.MustCompile(`[A-Z]`)
	specialRe = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{}|;:,.<>?/~]`)
)

// Validator returns the shared instance. Field names in errors follow the json tags.
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = validate.RegisterValidation("password_policy", func(fl validator.FieldLevel) bool {
			return PasswordProblem(fl.Field().String()) == ""
		})
		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
	return validate
}

// PasswordProblem returns the first complexity rule the password breaks, or "".
func PasswordProblem(pw string) string {
	switch {
	case !lowerRe.MatchString(pw):
		return "This password must contain at least one lowercase letter."
	case !upperRe.MatchString(pw):
		return "This password must contain at least one uppercase letter."
	case !specialRe.MatchString(pw):
		return "This password must contain at least one special character."
	}
	return ""
}

// Struct validates s and converts tag failures into a Validation error listing each field.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.NewInternal(err)
	}
	fields := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperror.FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return apperror.NewValidation("Invalid input.", fields...)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "password_policy":
		return PasswordProblem(fe.Value().(string))
	case "eqfield":
		return "Passwords do not match."
	default:
		return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
	}
}

// Field builds a single-field validation error.
func Field(field, msg string) error {
	return apperror.NewValidation("Invalid input.", apperror.FieldError{Field: field, Message: msg})
}
