package relaysdk

import (
	"context"
	"fmt"
	"net/http"
)

// Health calls GET /health on endpoint. A 200 body without a status, such
// as `null` or `{}`, is malformed.
func (c *Client) Health(ctx context.Context, endpoint string) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, endpointURL(endpoint, "/health"), nil, nil)
	if err != nil {
		return nil, err
	}

	var health HealthResponse
	if err := decodeJSON(resp, &health, http.StatusOK); err != nil {
		return nil, err
	}
	if health.Status == "" {
		return nil, fmt.Errorf("%w: health response has no status", ErrMalformedResponse)
	}
	return &health, nil
}
