// Package status fetches resource processing status from the backend's
// REST surface. It backs the polling fallback when the realtime channel
// is unavailable.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/sawtfeel/livesync/internal/domain"
	"github.com/sawtfeel/livesync/internal/errors"
	"github.com/sawtfeel/livesync/internal/retry"
)

const requestTimeout = 10 * time.Second

// Client reads resource status from GET {baseURL}/api/files/{id}/status.
type Client struct {
	baseURL    string
	httpClient *http.Client
	clock      clockwork.Clock
	retryOpts  retry.Options
}

func NewClient(baseURL string, clock clockwork.Clock) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
		clock:      clock,
		retryOpts:  retry.DefaultOptions(),
	}
}

// FetchStatus retrieves the processing status of resourceID, retrying
// transient failures per the default backoff policy.
func (c *Client) FetchStatus(ctx context.Context, resourceID string) (domain.ResourceStatus, error) {
	return retry.Do(ctx, c.clock, c.retryOpts, func(ctx context.Context) (domain.ResourceStatus, error) {
		return c.fetchOnce(ctx, resourceID)
	})
}

func (c *Client) fetchOnce(ctx context.Context, resourceID string) (domain.ResourceStatus, error) {
	url := fmt.Sprintf("%s/api/files/%s/status", c.baseURL, resourceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.ResourceStatus{}, errors.Protocol("building status request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ResourceStatus{}, errors.Connectivity("requesting resource status", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return domain.ResourceStatus{}, errors.HTTPStatus(resp.StatusCode, "status endpoint returned "+resp.Status)
	}

	var status domain.ResourceStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return domain.ResourceStatus{}, errors.Protocol("decoding status response", err)
	}
	return status, nil
}
