package facetdex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Health reports the server's component health. An unhealthy server answers
// 503 with the same body, which is returned without error.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/health", nil, nil, "")
	if err != nil {
		return HealthStatus{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return HealthStatus{}, fmt.Errorf("health: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return HealthStatus{}, fmt.Errorf("health: %w", decodeError(resp))
	}
	var h HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return HealthStatus{}, fmt.Errorf("health: decode response: %w", err)
	}
	return h, nil
}
