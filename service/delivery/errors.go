package delivery

import (
	"errors"
	"fmt"
)

// PermanentError marks a failure that another attempt cannot fix.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

func IsPermanent(err error) bool {
	var permErr *PermanentError
	return errors.As(err, &permErr)
}

// TransportError is a connection or I/O failure during one attempt.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("push to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPStatusError is any response other than 200.
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("push to %s returned %s", e.URL, e.Status)
	}
	return fmt.Sprintf("push to %s returned %s: %s", e.URL, e.Status, e.Body)
}

// RetriesExhaustedError is returned once every attempt has failed. AlertID is
// the id embedded in the last attempted payload.
type RetriesExhaustedError struct {
	Attempts int
	AlertID  string
	Last     error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("push not delivered after %d attempts (last alert id %s): %v", e.Attempts, e.AlertID, e.Last)
}

func (e *RetriesExhaustedError) Unwrap() error {
	return e.Last
}
