package upstream

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the upstream answered with a non-2xx status.
	ErrNotFound = errors.New("upstream resource not found")

	// ErrUnavailable means the upstream could not be reached or the request
	// was cancelled before a response arrived.
	ErrUnavailable = errors.New("upstream unavailable")

	// ErrMalformedDocument means a metadata body did not parse as JSON.
	ErrMalformedDocument = errors.New("malformed metadata document")
)

// RequestError describes a failed upstream call.
type RequestError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Op, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}
