package serverutils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"littlesteps-be/internal/apperror"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
}

// ValidateRequest runs the `validate` tags of req and reports the first
// failing field as a validation error.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperror.Validation("invalid request")
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required", "notblank":
		return apperror.MissingField(fe.Field())
	case "max":
		return apperror.Validation(fmt.Sprintf("%s must be at most %s%s", fe.Field(), fe.Param(), unit(fe))).
			WithDetail("field", fe.Field())
	case "min":
		return apperror.Validation(fmt.Sprintf("%s must be at least %s%s", fe.Field(), fe.Param(), unit(fe))).
			WithDetail("field", fe.Field())
	case "uuid", "uuid4":
		return apperror.Validation(fmt.Sprintf("%s must be a valid id", fe.Field())).
			WithDetail("field", fe.Field())
	case "email":
		return apperror.Validation(fmt.Sprintf("%s must be a valid email", fe.Field())).
			WithDetail("field", fe.Field())
	}
	return apperror.Validation(fmt.Sprintf("%s is invalid", fe.Field())).WithDetail("field", fe.Field())
}

func unit(fe validator.FieldError) string {
	if fe.Kind() == reflect.String {
		return " characters"
	}
	return ""
}

// RequireField fails when value is empty or only whitespace.
func RequireField(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperror.MissingField(field)
	}
	return nil
}
