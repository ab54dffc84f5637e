package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/objrelay/pkg/storage"
)

// statusClientClosedRequest is the non-standard status used when the client
// disconnects before the relay finishes.
const statusClientClosedRequest = 499

// Error codes returned in the "code" field of error responses.
const (
	CodeInvalidRequest     = "invalid_request"
	CodePayloadTooLarge    = "payload_too_large"
	CodeConfiguration      = "configuration_error"
	CodeInvalidURL         = "invalid_url"
	CodeDownloadTooLarge   = "download_too_large"
	CodeRemoteFetchFailed  = "remote_fetch_failed"
	CodeStorageWriteFailed = "storage_write_failed"
	CodeCanceled           = "canceled"
	CodeTimeout            = "timeout"
	CodeInternal           = "internal_error"
)

// HTTPError is an error with everything needed to render an error response.
type HTTPError struct {
	// Err is the underlying error (for logging, not exposed to users).
	Err error

	// Message is the user-facing error message.
	Message string

	// ErrorCode is the machine-readable error code.
	ErrorCode string

	// Code is the HTTP status code.
	Code int
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func newHTTPError(code int, errorCode, message string, err error) *HTTPError {
	return &HTTPError{Code: code, ErrorCode: errorCode, Message: message, Err: err}
}

// errorResponse is the JSON body of every error response.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// httpErrorFrom maps a relay failure onto an HTTP status and error code.
func httpErrorFrom(err error) *HTTPError {
	var (
		httpErr  *HTTPError
		maxErr   *http.MaxBytesError
		cfgErr   *storage.ConfigurationError
		fetchErr *storage.RemoteFetchError
		writeErr *storage.StorageWriteError
	)

	switch {
	case errors.As(err, &httpErr):
		return httpErr
	case errors.As(err, &maxErr):
		return newHTTPError(http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "request body too large", err)
	case errors.Is(err, storage.ErrEmptyKey), errors.Is(err, storage.ErrInvalidDisposition):
		return newHTTPError(http.StatusBadRequest, CodeInvalidRequest, err.Error(), err)
	case errors.As(err, &cfgErr):
		return newHTTPError(http.StatusUnprocessableEntity, CodeConfiguration, cfgErr.Error(), err)
	case errors.As(err, &fetchErr):
		switch {
		case errors.Is(err, storage.ErrInvalidURL):
			return newHTTPError(http.StatusBadRequest, CodeInvalidURL, fetchErr.Error(), err)
		case errors.Is(err, storage.ErrDownloadTooLarge):
			return newHTTPError(http.StatusRequestEntityTooLarge, CodeDownloadTooLarge, fetchErr.Error(), err)
		default:
			return newHTTPError(http.StatusBadGateway, CodeRemoteFetchFailed, fetchErr.Error(), err)
		}
	case errors.As(err, &writeErr):
		// Backend details stay in the logs.
		return newHTTPError(http.StatusBadGateway, CodeStorageWriteFailed, writeErr.Reason.Error(), err)
	case errors.Is(err, context.DeadlineExceeded):
		return newHTTPError(http.StatusGatewayTimeout, CodeTimeout, "request timed out", err)
	case errors.Is(err, context.Canceled):
		return newHTTPError(statusClientClosedRequest, CodeCanceled, "request canceled", err)
	default:
		return newHTTPError(http.StatusInternalServerError, CodeInternal, http.StatusText(http.StatusInternalServerError), err)
	}
}

// writeError logs err and renders it as a JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	httpErr := httpErrorFrom(err)

	level := slog.LevelWarn
	if httpErr.Code >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	log.Log(r.Context(), level, "request failed",
		slog.Int("status", httpErr.Code),
		slog.String("code", httpErr.ErrorCode),
		slog.Any("error", err),
	)

	renderError(w, r, httpErr)
}

func renderError(w http.ResponseWriter, r *http.Request, httpErr *HTTPError) {
	writeJSON(w, httpErr.Code, errorResponse{Error: errorBody{
		Code:      httpErr.ErrorCode,
		Message:   httpErr.Message,
		RequestID: RequestIDFromContext(r.Context()),
	}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
