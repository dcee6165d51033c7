// Copyright Peter L. Morrell, 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the E-utility clients.
package httputil

import (
	"context"
	"io"
	"net/http"
	"time"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// retryable responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

const defaultMaxRetries = 4

// retryable reports whether an E-utilities response status is worth
// retrying: 429 for rate limiting, plus the transient 5xx codes the NCBI
// servers return under load.
func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable:
		return true
	}
	return false
}

// DoWithRetry executes an HTTP request and retries retryable statuses with
// exponential backoff. The delay starts at RetryBaseDelay and doubles each
// attempt: 2s, 4s, 8s, 16s.
//
// When maxRetries is 0 the default (4) is used. Before each retry the
// response body is drained and closed. If the context is cancelled during a
// backoff wait the function returns ctx.Err(). After exhausting retries the
// last response is returned so the caller can inspect its status.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	delay := RetryBaseDelay
	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}

		if !retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}
