package notifiers

import (
	"errors"
	"fmt"
	"net/http"
)

var ErrEmptyImage = errors.New("image is empty")

// APIError is a failed Bot API call as reported by Telegram.
type APIError struct {
	ErrorCode   int
	Description string
	// RetryAfter is set on 429 responses, in seconds.
	RetryAfter int
}

func (e *APIError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("telegram API error %d: %s (retry_after=%ds)", e.ErrorCode, e.Description, e.RetryAfter)
	}
	return fmt.Sprintf("telegram API error %d: %s", e.ErrorCode, e.Description)
}

// IsRetryAfter reports whether err asks the caller to back off.
func IsRetryAfter(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode == http.StatusTooManyRequests && apiErr.RetryAfter > 0
	}
	return false
}

// GetRetryAfter returns the back-off in seconds carried by err, or 0.
func GetRetryAfter(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.RetryAfter
	}
	return 0
}
