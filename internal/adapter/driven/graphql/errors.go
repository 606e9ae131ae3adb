package graphql

import (
	"errors"
	"fmt"
)

// ErrRateLimited marks a response that carried application-level errors and
// no data, which this client treats as a suspected quota or rate-limit
// condition.
var ErrRateLimited = errors.New("suspected rate limit")

// ErrMalformed marks a 200 response whose body carried neither a data key
// nor an errors key.
var ErrMalformed = errors.New("malformed response")

// StatusError reports a non-200 HTTP status from the remote endpoint.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d", e.Code)
}

// ExhaustedError wraps the last failure after the retry budget ran out. The
// query is retained so a failed task can be resumed with full context.
type ExhaustedError struct {
	Attempts int
	Query    string
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retry budget exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}
