package handlers

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mingle-social/server/internal/api/apierr"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields under their wire names, not Go struct names.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// checkValid validates the payload and writes the field-map 400 response
// itself on failure.
func checkValid(w http.ResponseWriter, r *http.Request, payload any) bool {
	err := validate.Struct(payload)
	if err == nil {
		return true
	}

	invalid, ok := err.(validator.ValidationErrors)
	if !ok {
		apierr.Write(w, r, http.StatusBadRequest, "Invalid request body", err)
		return false
	}

	fields := make(map[string]string, len(invalid))
	for _, fieldErr := range invalid {
		fields[fieldErr.Field()] = fieldMessage(fieldErr)
	}
	apierr.WriteFields(w, r, http.StatusBadRequest, fields)
	return false
}

func fieldMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min":
		return "Must be at least " + err.Param() + " characters"
	case "max":
		return "Must be at most " + err.Param() + " characters"
	case "gt":
		return "Must be greater than " + err.Param()
	default:
		return "Invalid value"
	}
}
