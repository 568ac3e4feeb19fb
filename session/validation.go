package session

import (
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/jrsteele09/go-blog-admin/internal/errors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator used for login, blog and admin input.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateCredentials checks the login form before any request is made.
func ValidateCredentials(c Credentials) error {
	return ValidateStruct(c)
}

// ValidateStruct runs the validate tags on v and reports the first failing field as a ValidationError.
func ValidateStruct(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !apperrors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &apperrors.ValidationError{Message: err.Error()}
	}
	fe := fieldErrs[0]
	return &apperrors.ValidationError{Field: strings.ToLower(fe.Field()), Message: fieldMessage(fe)}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "is invalid"
	}
}
