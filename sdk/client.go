package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is the SDK client node agents use to talk to a NebulaFleet
// control plane. Unlike the teacher's multi-tenant, HA-aware client,
// NebulaFleet runs a single control plane instance per fleet, so there
// is no master discovery or replica failover here.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	retryAttempts int
	retryWaitMin  time.Duration
	retryWaitMax  time.Duration
}

// NewClient creates a new SDK client with the given configuration.
func NewClient(config ClientConfig) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		baseURL:       config.BaseURL,
		httpClient:    config.HTTPClient,
		retryAttempts: config.RetryAttempts,
		retryWaitMin:  config.RetryWaitMin,
		retryWaitMax:  config.RetryWaitMax,
	}, nil
}

// doJSONRequest performs a request with a JSON body and parses a JSON response.
func (c *Client) doJSONRequest(ctx context.Context, method, path string, reqBody, respBody interface{}) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.doRequestWithRetry(ctx, req)
	if err != nil {
		return err
	}
	defer drainAndCloseBody(resp)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.parseErrorResponse(resp)
	}

	if respBody != nil {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response body: %w", err)
		}
		if err := json.Unmarshal(data, respBody); err != nil {
			return fmt.Errorf("parse JSON response: %w", err)
		}
	}

	return nil
}

// parseErrorResponse maps a non-2xx response to a sentinel SDK error.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	var body errorResponse
	data, _ := io.ReadAll(resp.Body)
	json.Unmarshal(data, &body)

	detail := body.Detail
	if detail == "" {
		detail = fmt.Sprintf("request failed with status %d", resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, detail)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, detail)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, detail)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrConflict, detail)
	case http.StatusServiceUnavailable:
		return fmt.Errorf("%w: %s", ErrPrerequisiteMissing, detail)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrBadRequest, detail)
	default:
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, detail)
	}
}

// FetchConfig performs the node agent's hot-path config fetch: it trades
// a bearer token and node metadata for a freshly rendered Nebula config
// plus signed certificate material.
func (c *Client) FetchConfig(ctx context.Context, req ConfigRequest) (*ConfigResponse, error) {
	var resp ConfigResponse
	if err := c.doJSONRequest(ctx, http.MethodPost, "/v1/client/config", req, &resp); err != nil {
		return nil, fmt.Errorf("fetch config: %w", err)
	}
	return &resp, nil
}

// GetVersion retrieves the control plane's reported Nebula version, used
// by the agent to decide whether a binary upgrade is needed.
func (c *Client) GetVersion(ctx context.Context) (*VersionResponse, error) {
	var resp VersionResponse
	if err := c.doJSONRequest(ctx, http.MethodGet, "/v1/version", nil, &resp); err != nil {
		return nil, fmt.Errorf("get version: %w", err)
	}
	return &resp, nil
}

// Healthz checks that the control plane is reachable and healthy.
func (c *Client) Healthz(ctx context.Context) error {
	var resp HealthResponse
	if err := c.doJSONRequest(ctx, http.MethodGet, "/v1/healthz", nil, &resp); err != nil {
		return fmt.Errorf("healthz: %w", err)
	}
	if resp.Status != "ok" {
		return fmt.Errorf("control plane reported status %q", resp.Status)
	}
	return nil
}
