package common

import (
	"encoding/json"
	"go-access-gate/logger"
	"net/http"

	"github.com/sirupsen/logrus"
)

type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func (e *AppError) log() {
	if e.Err != nil {
		logger.Log.WithFields(logrus.Fields{
			"status_code":    e.Code,
			"internal_error": e.Err.Error(),
		}).Error(e.Message)
	}
}

// Send writes the error as a JSON body.
func (e *AppError) Send(w http.ResponseWriter) {
	e.log()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(e.Code)
	json.NewEncoder(w).Encode(e)
}

// SendText writes only the message as plain text, for browser-facing pages.
func (e *AppError) SendText(w http.ResponseWriter) {
	e.log()
	http.Error(w, e.Message, e.Code)
}
