package downloader

import (
	"context"
	"errors"
	"math/rand/v2"
	"net"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// retryConfig controls how asset requests are retried.
type retryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

var defaultRetryConfig = retryConfig{
	MaxRetries:   2,
	InitialDelay: 300 * time.Millisecond,
	MaxDelay:     2 * time.Second,
}

// retryTransport retries GET requests on transient network errors and
// 429/5xx responses with exponential backoff and jitter.
type retryTransport struct {
	base   http.RoundTripper
	config retryConfig
}

func newRetryTransport(base http.RoundTripper, config retryConfig) *retryTransport {
	return &retryTransport{base: base, config: config}
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return t.base.RoundTrip(req)
	}

	var resp *http.Response
	var err error
	for attempt := 0; ; attempt++ {
		resp, err = t.base.RoundTrip(req.Clone(req.Context()))
		retry := false
		switch {
		case err != nil:
			retry = isRetryableError(err)
		default:
			retry = isRetryableStatus(resp.StatusCode)
		}
		if !retry || attempt >= t.config.MaxRetries {
			return resp, err
		}
		if resp != nil {
			resp.Body.Close()
		}
		log.WithFields(log.Fields{"url": req.URL.String(), "attempt": attempt + 1}).Debug("retrying request")
		if werr := sleepWithContext(req.Context(), t.backoffDelay(attempt+1)); werr != nil {
			return nil, werr
		}
	}
}

func (t *retryTransport) backoffDelay(attempt int) time.Duration {
	delay := t.config.InitialDelay << (attempt - 1)
	if delay <= 0 || delay > t.config.MaxDelay {
		delay = t.config.MaxDelay
	}
	// ±25% jitter
	jitter := time.Duration(float64(delay) * 0.25 * (rand.Float64()*2 - 1))
	return delay + jitter
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func isRetryableError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
