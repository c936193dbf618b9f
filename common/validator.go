package common

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateAndDecode decodes a JSON body into payload and runs struct validation.
// An empty body decodes to the zero payload so optional-only requests work.
func ValidateAndDecode(r *http.Request, payload interface{}) *AppError {
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(payload); err != nil && !errors.Is(err, io.EOF) {
			return NewAppError(http.StatusBadRequest, "Invalid request body", nil)
		}
	}

	if err := validate.Struct(payload); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return NewAppError(http.StatusBadRequest, validationErrors.Error(), nil)
		}
		return NewAppError(http.StatusBadRequest, "Invalid request body", err)
	}

	return nil
}
