package usecase

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every failing field of one request.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func IsValidationError(err error) bool {
	var single ValidationError
	var many ValidationErrors
	return errors.As(err, &single) || errors.As(err, &many)
}

// ValidateStruct runs the struct tags of s and folds the result into
// ValidationErrors. Field names come from the json tag when present.
func ValidateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := jsonName(fe)
		param := fe.Param()

		switch fe.Tag() {
		case "required":
			out = append(out, ValidationError{field, "is required"})
		case "min":
			out = append(out, ValidationError{field, "must have at least " + param + " entries"})
		case "max":
			out = append(out, ValidationError{field, "must not exceed " + param})
		case "email":
			out = append(out, ValidationError{field, "must be a valid email"})
		case "oneof":
			out = append(out, ValidationError{field, "must be one of: " + param})
		case "gt", "gte":
			out = append(out, ValidationError{field, "must be greater than " + param})
		default:
			out = append(out, ValidationError{field, "is invalid"})
		}
	}
	return out
}

func init() {
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func jsonName(fe validator.FieldError) string {
	if fe.Field() != "" {
		return fe.Field()
	}
	return strings.ToLower(fe.StructField())
}

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{field, "is required"}
	}
	return nil
}
