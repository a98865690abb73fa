package common

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNoActiveSync    = fmt.Errorf("no active sync")
	ErrNoJobIDReturned = fmt.Errorf("no export job id returned")
	ErrJobPollBudget   = fmt.Errorf("export job poll budget exhausted")
	ErrSyncInterrupted = fmt.Errorf("sync was interrupted by the operating system")
)

// APIError is a typed error for non-2xx API replies. Code carries the
// backend's structured error code when the reply contains one.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error: status=%d code=%s: %s", e.StatusCode, e.Code, e.Message)
	}

	return fmt.Sprintf("api error: status=%d: %s", e.StatusCode, e.Message)
}

// legacyIgnorableMessages are backend failures that still have no structured
// error code and can only be recognized by message. Remove entries once the
// backend starts reporting codes for them.
var legacyIgnorableMessages = map[string]struct{}{
	"failed to save base content":             {},
	"tab is hidden or disabled for this course": {},
}

// IsIgnorableTabError reports whether a tab or module fetch failure means the
// hidden tab legitimately cannot be fetched. Some courses hide every tab
// except e.g. Modules; fetching such a tab's content yields 401/403/404 or a
// known backend message. These map to a downloaded terminal state instead of
// an error so the course download can continue.
func IsIgnorableTabError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	switch apiErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, 0:
		return true
	}

	_, exists := legacyIgnorableMessages[apiErr.Message]

	return exists
}
