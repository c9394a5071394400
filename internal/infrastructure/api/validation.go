package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	if err := validate.RegisterValidation("xrl_safe", validateXRLSafe); err != nil {
		panic(err)
	}

	// Report fields by their JSON names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// validateXRLSafe accepts only characters that can be placed inside a
// double-quoted XRL argument without changing the call: letters, digits and "-_./:"
func validateXRLSafe(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("-_./:", r):
		default:
			return false
		}
	}
	return true
}

// getValidationMessage returns a human-readable message for a validation error
func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "field is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	case "startswith":
		return fmt.Sprintf("must start with %q", e.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", e.Param())
	case "xrl_safe":
		return "may only contain letters, digits and -_./:"
	default:
		return fmt.Sprintf("validation failed: %s", e.Tag())
	}
}

// validationDetails maps each failing field to its message
func validationDetails(err error) map[string]interface{} {
	details := map[string]interface{}{}

	var validatorErrs validator.ValidationErrors
	if errors.As(err, &validatorErrs) {
		for _, e := range validatorErrs {
			details[e.Field()] = getValidationMessage(e)
		}
		return details
	}

	details["error"] = err.Error()
	return details
}
