package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// DecodeAndValidate reads the JSON request body into v and checks its
// `validate` struct tags. A decode failure and a tag violation are both
// returned as errors; callers use FormatValidationErrors to tell them apart.
func DecodeAndValidate(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return validate.Struct(v)
}

// ValidationError is a single field failure in a client-facing shape.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FormatValidationErrors flattens validator errors into field/message pairs.
// Non-validator errors (e.g. malformed JSON) produce an empty slice.
func FormatValidationErrors(err error) []ValidationError {
	var fieldErrors []ValidationError

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			fieldErrors = append(fieldErrors, ValidationError{
				Field:   e.Field(),
				Message: messageForTag(e),
			})
		}
	}

	return fieldErrors
}

func messageForTag(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "alphanum":
		return "Only letters and digits are allowed"
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	case "gt":
		return "Value must be greater than " + e.Param()
	case "gte":
		return "Value must be at least " + e.Param()
	default:
		return "Invalid value"
	}
}
