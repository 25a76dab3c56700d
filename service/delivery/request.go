package delivery

import "time"

const (
	DefaultMaxAttempts = 3
	DefaultBackoff     = 3 * time.Second
)

// RetryPolicy bounds the attempts of one logical send. Backoff is a fixed
// pause between attempts.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		Backoff:     DefaultBackoff,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.Backoff < 0 {
		p.Backoff = 0
	}
	return p
}

// Request is the fixed part of a send: where it goes and how it authenticates.
type Request struct {
	URL          string
	AppKey       string
	MasterSecret string
	Headers      map[string]string
}

// RenderFunc produces a fresh alert id and body for the given attempt
// (starting at 1).
type RenderFunc func(attempt int) (alertID string, body []byte, err error)

// Outcome reports a finished send. Err is nil on success.
type Outcome struct {
	AlertID  string
	Attempts int
	Err      error
}

func (o Outcome) OK() bool {
	return o.Err == nil
}
