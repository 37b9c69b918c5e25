package client

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/Layr-Labs/hww-signer-go/pkg/codec"
)

// RetryConfig configures retry behavior. Only failures where the device
// cannot have seen the frame are retried: refused connections and rate
// limiting. Anything else could repeat a signing step.
type RetryConfig struct {
	MaxAttempts     int
	InitialBackoff  time.Duration
	MaxBackoff      time.Duration
	BackoffMultiple float64
}

// DefaultRetryConfig provides default retry settings
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     5,
	InitialBackoff:  100 * time.Millisecond,
	MaxBackoff:      5 * time.Second,
	BackoffMultiple: 2.0,
}

type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// send posts one frame and returns the reply body.
func (c *Client) send(ctx context.Context, body []byte) ([]byte, error) {
	attempts := c.retry.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := c.retry.InitialBackoff

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		data, err := c.post(ctx, body)
		if err == nil {
			return data, nil
		}
		var retryable *retryableError
		if !errors.As(err, &retryable) {
			return nil, err
		}
		lastErr = retryable.err

		if attempt < attempts-1 {
			c.logger.Sugar().Debugw("Retrying device request", "attempt", attempt+1, "backoff", backoff, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), "gave up waiting for device")
			case <-time.After(backoff):
			}
			backoff = time.Duration(float64(backoff) * c.retry.BackoffMultiple)
			if backoff > c.retry.MaxBackoff {
				backoff = c.retry.MaxBackoff
			}
		}
	}
	return nil, errors.Wrapf(lastErr, "failed to reach device after %d attempts", attempts)
}

func (c *Client) post(ctx context.Context, body []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	httpReq.Header.Set("Content-Type", contentType)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		var opErr *net.OpError
		if errors.As(err, &opErr) && opErr.Op == "dial" {
			return nil, &retryableError{err: errors.Wrapf(err, "failed to connect to %s", c.endpoint)}
		}
		return nil, errors.Wrapf(err, "failed to reach device at %s", c.endpoint)
	}
	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, codec.MaxMessageSize+1))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}

	switch httpResp.StatusCode {
	case http.StatusOK:
		return data, nil
	case http.StatusTooManyRequests:
		return nil, &retryableError{err: errors.New("device is rate limiting requests")}
	default:
		return nil, errors.Errorf("device returned HTTP %d: %s", httpResp.StatusCode, strings.TrimSpace(string(data)))
	}
}
