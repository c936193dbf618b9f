package handler

import (
	"go-access-gate/common"
	"go-access-gate/logger"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs one line per request.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		logger.Log.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        logPath(r.URL.Path),
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("Request handled")
	})
}

const accessPrefix = "/access/"

// logPath keeps access tokens out of request logs.
func logPath(path string) string {
	if strings.HasPrefix(path, accessPrefix) && len(path) > len(accessPrefix) {
		return accessPrefix + "{token}"
	}
	return path
}

func RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Log.WithFields(logrus.Fields{
					"panic": rec,
					"stack": string(debug.Stack()),
				}).Error("Recovered from panic")
				common.NewAppError(http.StatusInternalServerError, "Internal server error", nil).Send(w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
