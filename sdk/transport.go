package sdk

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"
)

// doRequestWithRetry performs an HTTP request with exponential backoff retry logic.
// It retries on network errors and 5xx server errors.
func (c *Client) doRequestWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	for attempt := 0; attempt <= c.retryAttempts; attempt++ {
		resp, err = c.httpClient.Do(req.WithContext(ctx))

		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}

		if attempt == c.retryAttempts {
			if resp != nil {
				resp.Body.Close()
			}
			break
		}

		if resp != nil {
			resp.Body.Close()
		}

		backoff := c.calculateBackoff(attempt)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	if err != nil {
		return nil, fmt.Errorf("request failed after %d attempts: %w", c.retryAttempts+1, err)
	}
	if resp != nil && resp.StatusCode >= 500 {
		return resp, fmt.Errorf("%w: status code %d", ErrServerError, resp.StatusCode)
	}
	return resp, err
}

// calculateBackoff computes exponential backoff with jitter for a retry attempt.
func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := float64(c.retryWaitMin) * math.Pow(2, float64(attempt))
	if backoff > float64(c.retryWaitMax) {
		backoff = float64(c.retryWaitMax)
	}
	jitter := rand.Float64() * backoff
	return time.Duration(jitter)
}

// drainAndCloseBody reads and closes the response body to enable connection reuse.
func drainAndCloseBody(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
}
