package fetcher

import (
	"fmt"
)

// Kind classifies a fetch failure. The orchestrator decides
// retry-versus-skip from it: permanent kinds (forbidden, notFound,
// hostNotFound) are never retried, transient kinds degrade the item.
type Kind string

const (
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindRateLimited  Kind = "rate_limited"
	KindTimeout      Kind = "timeout"
	KindHostNotFound Kind = "host_not_found"
	KindHTTPError    Kind = "http_error"
	KindNetworkError Kind = "network_error"
)

// Retryable reports whether the failure may be transient.
func (k Kind) Retryable() bool {
	switch k {
	case KindForbidden, KindNotFound, KindHostNotFound:
		return false
	}
	return true
}

type FetchError struct {
	Kind   Kind
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case KindForbidden:
		return fmt.Sprintf("access forbidden (403) fetching %s", e.URL)
	case KindNotFound:
		return fmt.Sprintf("page not found (404) fetching %s", e.URL)
	case KindRateLimited:
		return fmt.Sprintf("rate limited (429) fetching %s", e.URL)
	case KindTimeout:
		return fmt.Sprintf("timeout fetching %s", e.URL)
	case KindHostNotFound:
		return fmt.Sprintf("host not found fetching %s", e.URL)
	case KindHTTPError:
		return fmt.Sprintf("HTTP error %d fetching %s", e.Status, e.URL)
	default:
		return fmt.Sprintf("network error fetching %s: %v", e.URL, e.Err)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
