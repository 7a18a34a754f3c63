package dto

import (
	"errors"
	"strings"

	"bookmaker/domain/apperr"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct tags of v and reports failures as a validation error
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperr.Validation("%s", err.Error())
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return apperr.Validation("%s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Namespace() + " is required"
	case "max":
		return fe.Namespace() + " must be at most " + fe.Param() + " characters"
	case "min":
		return fe.Namespace() + " needs at least " + fe.Param() + " entries"
	case "oneof":
		return fe.Namespace() + " must be one of " + fe.Param()
	default:
		return fe.Namespace() + " failed " + fe.Tag()
	}
}
