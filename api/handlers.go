package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// getRoot handles GET /
func (a *API) getRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, rootMessage); err != nil {
		LogWithRequestID(r.Context(), a.logger).Debugw("Failed to write response", "error", err)
	}
}

// respondJSON writes data as a JSON response with the given status
func respondJSON(w http.ResponseWriter, data interface{}, statusCode int, logger *zap.SugaredLogger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Response already started, can't send error to client
		logger.Errorw("Failed to encode JSON response",
			"error", err,
			"data_type", fmt.Sprintf("%T", data))
	}
}

// writeError logs the full error and sends the short message to the client
func writeError(w http.ResponseWriter, statusCode int, message string, err error, logger *zap.SugaredLogger) {
	if logger != nil {
		if err != nil {
			logger.Warnw(message, "error", err.Error(), "status_code", statusCode)
		} else {
			logger.Warnw(message, "status_code", statusCode)
		}
	}
	http.Error(w, message, statusCode)
}
