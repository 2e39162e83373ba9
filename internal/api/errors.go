// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sheet-uploader/backend/internal/ingest"
	"github.com/sheet-uploader/backend/internal/logging"
	"github.com/sheet-uploader/backend/internal/upload"
)

// APIError represents a structured API error response
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Type    string `json:"-"`
	Title   string `json:"-"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithType tags the error with the operation it belongs to.
func (e *APIError) WithType(typ string) *APIError {
	e.Type = typ
	return e
}

// Error constructors for consistent error handling

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Title:   "Invalid request",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewValidationError creates a 400 validation error for a specific field
func NewValidationError(field string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Title:   "Invalid request",
		Message: fmt.Sprintf("validation failed for field: %s", field),
	}
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(resource string, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Title:   "Not found",
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Title:   "Server error",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewServiceUnavailableError creates a 503 Service Unavailable error
func NewServiceUnavailableError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusServiceUnavailable,
		Code:    "SERVICE_UNAVAILABLE",
		Title:   "Service unavailable",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// fromDomainError maps service errors onto API errors. Anything not
// recognised becomes a 500 carrying message.
func fromDomainError(err error, id string, message string) *APIError {
	switch {
	case errors.Is(err, ingest.ErrFileNotFound), errors.Is(err, upload.ErrFileNotFound):
		return NewNotFoundError("file", id)
	case errors.Is(err, ingest.ErrUnreadableFile):
		return NewBadRequestError("error reading workbook", err)
	case errors.Is(err, upload.ErrExtensionNotAllowed):
		return NewBadRequestError("file extension not allowed", err)
	case errors.Is(err, upload.ErrFileTooLarge):
		return NewBadRequestError("file exceeds the maximum allowed size", err)
	default:
		return NewInternalError(message, err)
	}
}

// NewErrorHandler returns an echo error handler that renders every error
// inside the response envelope. Details of unexpected errors are only
// exposed when showDetails is set.
func NewErrorHandler(showDetails bool, log logging.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var apiErr *APIError
		var httpErr *echo.HTTPError

		switch {
		case errors.As(err, &apiErr):
		case errors.As(err, &httpErr):
			apiErr = &APIError{
				Status:  httpErr.Code,
				Code:    "HTTP_ERROR",
				Title:   http.StatusText(httpErr.Code),
				Message: fmt.Sprintf("%v", httpErr.Message),
			}
		default:
			apiErr = &APIError{
				Status:  http.StatusInternalServerError,
				Code:    "UNKNOWN_ERROR",
				Title:   "Server error",
				Message: "An unexpected error occurred",
			}
			if showDetails {
				apiErr.Details = err.Error()
			}
		}

		if apiErr.Status >= http.StatusInternalServerError && log != nil {
			log.Error("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
		}

		typ := apiErr.Type
		if typ == "" {
			typ = "error"
		}

		errs := map[string]string{"code": apiErr.Code}
		if apiErr.Details != "" {
			errs["details"] = apiErr.Details
		}

		resp := Response{
			Status:  StatusError,
			Type:    typ,
			Title:   apiErr.Title,
			Message: apiErr.Message,
			Errors:  errs,
		}

		if c.Request().Method == http.MethodHead {
			c.NoContent(apiErr.Status)
			return
		}
		if wantsMsgpack(c) {
			respondMsgpack(c, apiErr.Status, resp)
			return
		}
		c.JSON(apiErr.Status, resp)
	}
}

func wantsMsgpack(c echo.Context) bool {
	return strings.HasSuffix(c.Request().URL.Path, "/msgpack")
}
