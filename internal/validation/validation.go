package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON name, which is what callers sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	})
	return v
}

// Struct validates s against its `validate` tags and returns a single error
// whose message lists every failing field.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe.Field(), fe))
	}
	return errors.New(strings.Join(msgs, ", "))
}

// Var validates a single value, naming it field in the error message.
func Var(field string, value any, tag string) error {
	err := validate.Var(value, tag)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	return errors.New(describe(field, verrs[0]))
}

func describe(field string, fe validator.FieldError) string {
	param := fe.Param()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return field + " must be at least " + param + " characters"
	case "max":
		return field + " must be at most " + param + " characters"
	case "uuid", "uuid4":
		return field + " must be a valid id"
	case "email":
		return field + " must be a valid email"
	default:
		return field + " is invalid"
	}
}
