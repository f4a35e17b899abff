package stellarbeat

import (
	"errors"
	"fmt"
)

// Kind classifies a failed upstream call.
type Kind string

const (
	// KindRateLimited covers both an HTTP 429 and the local request budget.
	KindRateLimited Kind = "rate_limited"
	KindNotFound    Kind = "not_found"
	KindServerError Kind = "server_error"
	// KindNetworkError is everything else: transport failures, timeouts,
	// other 4xx responses and undecodable bodies.
	KindNetworkError Kind = "network_error"
)

// APIError is the only error type returned by the client.
type APIError struct {
	Kind       Kind
	StatusCode int    // 0 when no response was received
	Endpoint   string // request path, e.g. /v1/node/GABC...
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: GET %s (%d): %s", e.Kind, e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: GET %s: %s", e.Kind, e.Endpoint, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// KindOf returns the kind of the first APIError in err's chain.
func KindOf(err error) (Kind, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind, true
	}
	return "", false
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindNotFound
}

// IsRateLimited reports whether err was caused by either rate limit.
func IsRateLimited(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindRateLimited
}

func kindForStatus(code int) Kind {
	switch {
	case code == 429:
		return KindRateLimited
	case code == 404:
		return KindNotFound
	case code >= 500:
		return KindServerError
	default:
		return KindNetworkError
	}
}
