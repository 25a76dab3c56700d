package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"uapush/service/metrics"
	"uapush/service/util"
)

const maxErrorBody = 512

// SleepFunc waits between attempts. It must return early with ctx.Err() when
// ctx is cancelled.
type SleepFunc func(ctx context.Context, d time.Duration) error

type Client struct {
	httpClient *http.Client
	policy     RetryPolicy
	logger     *slog.Logger
	metrics    *metrics.Metrics
	sleep      SleepFunc
}

type ClientOption func(*Client)

func WithSleep(sleep SleepFunc) ClientOption {
	return func(c *Client) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

func NewClient(httpClient *http.Client, policy RetryPolicy, logger *slog.Logger, m *metrics.Metrics, opts ...ClientOption) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = util.DiscardLogger()
	}
	c := &Client{
		httpClient: httpClient,
		policy:     policy.normalized(),
		logger:     logger,
		metrics:    m,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Policy() RetryPolicy {
	return c.policy
}

// Deliver runs up to MaxAttempts POSTs to req.URL. Each attempt calls render
// for a new alert id and body. Render errors and permanent request errors
// stop immediately; everything else is retried after the fixed backoff.
func (c *Client) Deliver(ctx context.Context, req Request, render RenderFunc) Outcome {
	var (
		alertID string
		lastErr error
	)

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		id, body, err := render(attempt)
		if err != nil {
			c.metrics.IncSend(metrics.ResultRejected)
			c.logger.Error("Failed to render push", "url", req.URL, "attempt", attempt, "error", err)
			return Outcome{AlertID: alertID, Attempts: attempt - 1, Err: NewPermanentError(err)}
		}
		alertID = id

		c.logger.Debug("Sending push", "url", req.URL, "attempt", attempt, "alertID", alertID, "body", string(body))

		err = c.post(ctx, req, body)
		if err == nil {
			if attempt > 1 {
				c.logger.Info("Push sent after retry", "url", req.URL, "alertID", alertID, "attempt", attempt)
			} else {
				c.logger.Info("Push sent", "url", req.URL, "alertID", alertID)
			}
			c.metrics.IncSend(metrics.ResultDelivered)
			return Outcome{AlertID: alertID, Attempts: attempt}
		}

		lastErr = err

		if ctxErr := ctx.Err(); ctxErr != nil {
			return c.cancelled(alertID, attempt, err, ctxErr)
		}

		if IsPermanent(err) {
			c.metrics.IncSend(metrics.ResultRejected)
			c.logger.Error("Permanent error, not retrying", "url", req.URL, "alertID", alertID, "error", err)
			return Outcome{AlertID: alertID, Attempts: attempt, Err: err}
		}

		if attempt < c.policy.MaxAttempts {
			c.logger.Warn("Failed to send push, retrying", "url", req.URL, "alertID", alertID, "attempt", attempt, "error", err, "retryIn", c.policy.Backoff)
			if sleepErr := c.sleep(ctx, c.policy.Backoff); sleepErr != nil {
				return c.cancelled(alertID, attempt, err, sleepErr)
			}
		}
	}

	c.metrics.IncSend(metrics.ResultExhausted)
	c.logger.Error("Failed to send push after retries", "url", req.URL, "alertID", alertID, "attempts", c.policy.MaxAttempts, "error", lastErr)
	return Outcome{
		AlertID:  alertID,
		Attempts: c.policy.MaxAttempts,
		Err:      &RetriesExhaustedError{Attempts: c.policy.MaxAttempts, AlertID: alertID, Last: lastErr},
	}
}

func (c *Client) cancelled(alertID string, attempts int, last, cause error) Outcome {
	c.metrics.IncSend(metrics.ResultCancelled)
	c.logger.Warn("Push cancelled", "alertID", alertID, "attempts", attempts, "error", cause)
	return Outcome{
		AlertID:  alertID,
		Attempts: attempts,
		Err:      fmt.Errorf("push cancelled after %d attempts: %w", attempts, errors.Join(cause, last)),
	}
}

func (c *Client) post(ctx context.Context, req Request, body []byte) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, bytes.NewReader(body))
	if err != nil {
		return NewPermanentError(fmt.Errorf("failed to build request for %s: %w", req.URL, err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", util.BasicAuth(req.AppKey, req.MasterSecret))
	for name, value := range req.Headers {
		httpReq.Header.Set(name, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.ObserveAttempt(metrics.OutcomeTransport, time.Since(start))
		return &TransportError{URL: req.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.metrics.ObserveAttempt(metrics.OutcomeStatus, time.Since(start))
		return &HTTPStatusError{
			URL:        req.URL,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(msg)),
		}
	}

	_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck
	c.metrics.ObserveAttempt(metrics.OutcomeOK, time.Since(start))
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
