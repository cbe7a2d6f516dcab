package fetcher

import (
	"errors"
	"fmt"
)

// Kind classifies a fetch failure the way callers need to branch on it:
// transient network trouble, a deadline, a rate limit that survived retries,
// or a terminal HTTP status.
type Kind int

const (
	KindNetwork Kind = iota
	KindTimeout
	KindHTTPStatus
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindHTTPStatus:
		return "http_status"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// FetchError is the typed failure returned by Client. StatusCode is zero for
// network and timeout failures.
type FetchError struct {
	Kind       Kind
	StatusCode int
	URL        string
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %s (status %d)", e.URL, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// StatusOf returns the HTTP status carried by err, or zero.
func StatusOf(err error) int {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.StatusCode
	}
	return 0
}

// IsKind reports whether err is a FetchError of the given kind.
func IsKind(err error, kind Kind) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == kind
}
