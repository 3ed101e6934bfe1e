package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"nebulafleet.dev/sdk"
)

// CachedConfigFile is the filename cached_config.json is persisted under.
const CachedConfigFile = "cached_config.json"

// Fetcher performs the agent's config-fetch step: POST /v1/client/config
// with exponential backoff, falling back to the last cached response if
// every retry is exhausted.
type Fetcher struct {
	client      *sdk.Client
	stateDir    string
	maxRetries  int
	logger      *zap.Logger
	incFailure  func()
}

// NewFetcher creates a config Fetcher.
func NewFetcher(client *sdk.Client, stateDir string, maxRetries int, logger *zap.Logger, incFailure func()) *Fetcher {
	return &Fetcher{client: client, stateDir: stateDir, maxRetries: maxRetries, logger: logger, incFailure: incFailure}
}

// Fetch retries POST /v1/client/config up to maxRetries times with
// backoff min(2^attempt, 60) seconds. If every attempt fails, it falls
// back to the cached response from the last successful fetch, if any.
func (f *Fetcher) Fetch(ctx context.Context, req sdk.ConfigRequest) (*sdk.ConfigResponse, bool, error) {
	var lastErr error

	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		resp, err := f.client.FetchConfig(ctx, req)
		if err == nil {
			if err := f.persistCache(resp); err != nil {
				f.logger.Warn("failed to persist cached config", zap.Error(err))
			}
			return resp, false, nil
		}

		lastErr = err
		if f.incFailure != nil {
			f.incFailure()
		}
		f.logger.Warn("config fetch attempt failed",
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt == f.maxRetries {
			break
		}

		backoff := time.Duration(math.Min(math.Pow(2, float64(attempt)), 60)) * time.Second
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-time.After(backoff):
		}
	}

	cached, cacheErr := f.loadCache()
	if cacheErr != nil {
		return nil, false, fmt.Errorf("config fetch exhausted retries and no cache available: %w", lastErr)
	}

	f.logger.Warn("config fetch exhausted retries, falling back to cached config", zap.Error(lastErr))
	return cached, true, nil
}

func (f *Fetcher) persistCache(resp *sdk.ConfigResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(f.stateDir, CachedConfigFile), data, 0644)
}

func (f *Fetcher) loadCache() (*sdk.ConfigResponse, error) {
	return LoadCachedConfig(f.stateDir)
}

// LoadCachedConfig reads the last config response persisted under stateDir,
// independent of any running Fetcher. Used by the status command to report
// on the client certificate without a live connection to the control plane.
func LoadCachedConfig(stateDir string) (*sdk.ConfigResponse, error) {
	data, err := os.ReadFile(filepath.Join(stateDir, CachedConfigFile))
	if err != nil {
		return nil, err
	}
	var resp sdk.ConfigResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse cached config: %w", err)
	}
	return &resp, nil
}
