package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rehab-hub/rehab-adherence/internal/domain/shared"
	"github.com/rehab-hub/rehab-adherence/pkg/logger"
	"github.com/rehab-hub/rehab-adherence/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// Error codes returned in ErrorEnvelope.
const (
	codeNotFound         = "not_found"
	codeForbidden        = "forbidden"
	codeUnauthorized     = "unauthorized"
	codeAlreadyCompleted = "already_completed"
	codeInvalidReference = "invalid_reference"
	codeInvalidInput     = "invalid_input"
	codeRateLimited      = "rate_limit_exceeded"
	codeInternal         = "internal_error"
)

// APIError is the body of every failed response.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorEnvelope wraps APIError.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func abortError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: APIError{
		Code:      code,
		Message:   message,
		RequestID: c.GetString(ctxKeyRequestID),
	}})
}

// classify maps an error to its HTTP status and code. Anything outside the
// business taxonomy is a 500.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden, codeForbidden
	case errors.Is(err, shared.ErrAlreadyCompleted):
		return http.StatusConflict, codeAlreadyCompleted
	case errors.Is(err, shared.ErrInvalidReference):
		return http.StatusUnprocessableEntity, codeInvalidReference
	case errors.Is(err, shared.ErrInvalidInput):
		return http.StatusBadRequest, codeInvalidInput
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

// respondError writes err. Internal details are logged, never returned.
func respondError(c *gin.Context, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error("request failed",
			logger.String("path", c.FullPath()),
			logger.Err(err),
		)
		abortError(c, status, code, "internal server error")
		return
	}

	message := err.Error()
	var de *shared.DomainError
	if errors.As(err, &de) && de.Message != "" {
		message = de.Message
	}
	abortError(c, status, code, message)
}

func badRequest(c *gin.Context, message string) {
	abortError(c, http.StatusBadRequest, codeInvalidInput, message)
}

// ══════════════════════════════════════════════════════════════════════════════
// PARAMETER PARSING
// ══════════════════════════════════════════════════════════════════════════════

// firstQuery returns the first non-empty value among keys.
func firstQuery(c *gin.Context, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(c.Query(k)); v != "" {
			return v
		}
	}
	return ""
}

// intQuery parses an optional integer. Absent means 0.
func intQuery(c *gin.Context, keys ...string) (int, bool) {
	raw := firstQuery(c, keys...)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, keys[0]+" must be an integer")
		return 0, false
	}
	return n, true
}

// boolQuery parses an optional boolean.
func boolQuery(c *gin.Context, key string) (*bool, bool) {
	raw := firstQuery(c, key)
	if raw == "" {
		return nil, true
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		badRequest(c, key+" must be true or false")
		return nil, false
	}
	return &b, true
}

// dateQuery parses an optional date bound. A bare date used as an upper
// bound covers the whole day.
func dateQuery(c *gin.Context, upper bool, keys ...string) (*time.Time, bool) {
	raw := firstQuery(c, keys...)
	if raw == "" {
		return nil, true
	}
	t, err := timeutil.ParseDate(raw)
	if err != nil {
		badRequest(c, keys[0]+" must be a date (YYYY-MM-DD) or RFC3339 timestamp")
		return nil, false
	}
	if upper && len(raw) == len(timeutil.DateLayout) {
		t = timeutil.EndOfDay(t)
	}
	return &t, true
}

// parseBodyDate parses an optional date from a request body.
func parseBodyDate(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, nil
	}
	return timeutil.ParseDate(strings.TrimSpace(raw))
}
