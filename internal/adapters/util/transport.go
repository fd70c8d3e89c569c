package util

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LoggingTransport is an http.RoundTripper that logs request and response bodies
// when the global level is debug.
type LoggingTransport struct {
	Base http.RoundTripper
}

func (t *LoggingTransport) base() http.RoundTripper {
	if t.Base == nil {
		return http.DefaultTransport
	}
	return t.Base
}

func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if zerolog.GlobalLevel() > zerolog.DebugLevel {
		return t.base().RoundTrip(req)
	}

	var reqBody []byte
	if req.Body != nil {
		reqBody, _ = io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewBuffer(reqBody))
	}

	// Query strings may carry API keys.
	target := req.URL.Scheme + "://" + req.URL.Host + req.URL.Path
	evt := log.Debug().Str("component", "http").Str("method", req.Method).Str("url", target)
	if len(reqBody) > 0 {
		evt = evt.Bytes("body", reqBody)
	}
	evt.Msg("outbound request")

	start := time.Now()
	resp, err := t.base().RoundTrip(req)
	if err != nil {
		log.Debug().Err(err).Str("component", "http").Str("url", target).Msg("outbound request failed")
		return resp, err
	}

	respBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewBuffer(respBody))

	log.Debug().
		Str("component", "http").
		Str("url", target).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Bytes("body", respBody).
		Msg("outbound response")

	return resp, nil
}

// RetryTransport retries idempotent requests that failed at the transport level
// or returned a 5xx status.
type RetryTransport struct {
	Base       http.RoundTripper
	MaxRetries int
	// Backoff is the delay before the first retry; it doubles on each attempt.
	Backoff time.Duration
}

func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return base.RoundTrip(req)
	}

	delay := t.Backoff
	if delay <= 0 {
		delay = 200 * time.Millisecond
	}

	for attempt := 0; ; attempt++ {
		resp, err := base.RoundTrip(req)
		retryable := err != nil || resp.StatusCode >= http.StatusInternalServerError
		if !retryable || attempt >= t.MaxRetries {
			return resp, err
		}

		if resp != nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}

		log.Debug().Str("component", "http").Str("path", req.URL.Path).Int("attempt", attempt+1).Dur("delay", delay).Msg("retrying request")

		timer := time.NewTimer(delay)
		select {
		case <-req.Context().Done():
			timer.Stop()
			return nil, req.Context().Err()
		case <-timer.C:
		}
		delay *= 2
	}
}

// NewHTTPClient builds the client used by the external adapters: retries over debug logging.
func NewHTTPClient(timeout time.Duration, maxRetries int) *http.Client {
	return &http.Client{
		Transport: &RetryTransport{
			Base:       &LoggingTransport{},
			MaxRetries: maxRetries,
		},
		Timeout: timeout,
	}
}
