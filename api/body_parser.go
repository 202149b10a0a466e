package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"backend/metrics"
)

// jsonBodyMiddleware parses application/json request bodies for every route.
//
// Behavior:
//   - Requests without a body, or with another content type, pass through untouched
//   - Bodies over api.max_body_bytes are rejected with 413
//   - Bodies that are not a JSON object or array are rejected with 400
//   - The raw document is stored in the context (see JSONBody) and the body is
//     rewound so handlers can decode it again into their own types
func (a *API) jsonBodyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body == nil || r.Body == http.NoBody || !isJSONContentType(r.Header.Get("Content-Type")) {
			next.ServeHTTP(w, r)
			return
		}

		logger := LogWithRequestID(r.Context(), a.logger)

		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, a.config.API.MaxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				metrics.JSONBodyRejections.WithLabelValues("too_large").Inc()
				writeError(w, http.StatusRequestEntityTooLarge, "request entity too large", err, logger)
				return
			}
			writeError(w, http.StatusBadRequest, "failed to read request body", err, logger)
			return
		}

		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 {
			r.Body = io.NopCloser(bytes.NewReader(raw))
			next.ServeHTTP(w, r)
			return
		}

		if err := validateJSONDocument(trimmed); err != nil {
			metrics.JSONBodyRejections.WithLabelValues("invalid").Inc()
			writeError(w, http.StatusBadRequest, "invalid JSON body", err, logger)
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(raw))
		ctx := withJSONBody(r.Context(), json.RawMessage(trimmed))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

var errNotObjectOrArray = errors.New("JSON body must be an object or an array")

// validateJSONDocument accepts only top-level objects and arrays, like the strict
// mode of common JSON body parsers.
func validateJSONDocument(doc []byte) error {
	if doc[0] != '{' && doc[0] != '[' {
		return errNotObjectOrArray
	}
	var v interface{}
	if err := json.Unmarshal(doc, &v); err != nil {
		return err
	}
	return nil
}

// isJSONContentType reports whether the header names application/json.
func isJSONContentType(header string) bool {
	if header == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return false
	}
	return mediaType == "application/json"
}
