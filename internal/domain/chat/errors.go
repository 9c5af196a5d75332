package chat

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Reason is the diagnostic code attached to a fallback response.
type Reason string

const (
	ReasonEmptyInput      Reason = "empty_input"
	ReasonNetwork         Reason = "network"
	ReasonInvalidResponse Reason = "invalid_response"
	ReasonQuota           Reason = "quota"
	ReasonPermission      Reason = "permission"
	ReasonUnavailable     Reason = "unavailable"
)

var (
	ErrEmptyInput      = errors.New("empty input")
	ErrNetwork         = errors.New("network failure")
	ErrInvalidResponse = errors.New("invalid external response")
	ErrQuota           = errors.New("quota exceeded")
	ErrPermission      = errors.New("permission denied")
	ErrUnavailable     = errors.New("provider unavailable")
)

// Sentinel returns the sentinel error for the reason.
func (r Reason) Sentinel() error {
	switch r {
	case ReasonEmptyInput:
		return ErrEmptyInput
	case ReasonNetwork:
		return ErrNetwork
	case ReasonQuota:
		return ErrQuota
	case ReasonPermission:
		return ErrPermission
	case ReasonUnavailable:
		return ErrUnavailable
	default:
		return ErrInvalidResponse
	}
}

// ProviderError is returned by generators to tag a failure with a reason.
type ProviderError struct {
	Reason Reason
	Err    error
}

// NewProviderError wraps err with reason.
func NewProviderError(reason Reason, err error) *ProviderError {
	return &ProviderError{Reason: reason, Err: err}
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's reason, so callers can write
// errors.Is(err, chat.ErrQuota).
func (e *ProviderError) Is(target error) bool {
	return target == e.Reason.Sentinel()
}

// ReasonOf classifies an arbitrary generator error.
func ReasonOf(err error) Reason {
	if err == nil {
		return ""
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Reason
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ReasonNetwork
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ReasonNetwork
	}

	return ReasonInvalidResponse
}

// ReasonForStatus maps an HTTP status reported by a provider to a reason.
// status and message are the provider's error status string and message,
// used to tell billing and key problems apart from ordinary bad requests.
func ReasonForStatus(code int, status, message string) Reason {
	upper := strings.ToUpper(status)
	lower := strings.ToLower(message)

	switch {
	case code == http.StatusTooManyRequests || upper == "RESOURCE_EXHAUSTED":
		return ReasonQuota
	case code == http.StatusUnauthorized || code == http.StatusForbidden,
		upper == "PERMISSION_DENIED" || upper == "UNAUTHENTICATED":
		return ReasonPermission
	case code == http.StatusBadRequest && (strings.Contains(lower, "api key") ||
		strings.Contains(lower, "api_key") || strings.Contains(lower, "billing")):
		return ReasonPermission
	case code == http.StatusNotFound:
		return ReasonUnavailable
	case code >= http.StatusInternalServerError:
		return ReasonNetwork
	default:
		return ReasonInvalidResponse
	}
}
