// Package validator adapts go-playground/validator to echo's Validator.
package validator

import (
	"reflect"
	"strings"

	domainerrors "attrschema/internal/domain/errors"
	"attrschema/internal/errors"

	"github.com/go-playground/validator/v10"
)

// EchoValidator validates bound request bodies using `validate` tags.
type EchoValidator struct {
	validate *validator.Validate
}

// New creates a validator that reports fields by their JSON names.
func New() *EchoValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return &EchoValidator{validate: v}
}

// Validate implements echo.Validator. Tag failures come back as a
// ValidationError listing every offending field.
func (v *EchoValidator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	fieldErrs, ok := errors.AsType[validator.ValidationErrors](err)
	if !ok {
		return errors.Wrap(err, "failed to validate request")
	}

	messages := make([]domainerrors.FieldMessage, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, domainerrors.FieldMessage{
			Field:   fieldPath(fe),
			Code:    fe.Tag(),
			Message: describe(fe),
		})
	}

	return domainerrors.NewValidationError(messages)
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	if _, rest, ok := strings.Cut(fe.Namespace(), "."); ok {
		return rest
	}

	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "uuid", "uuid4":
		return "must be a UUID"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
