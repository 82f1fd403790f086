package relaysdk

import (
	"context"
	"net/http"
)

// IP calls GET /ip. Token and session id are optional; when set the relay
// sees the request as coming from that session.
func (c *Client) IP(ctx context.Context, endpoint, token, sessionID string) (*InfoResponse, error) {
	return c.info(ctx, endpoint, "/ip", token, sessionID)
}

// Info calls GET /info.
func (c *Client) Info(ctx context.Context, endpoint, token, sessionID string) (*InfoResponse, error) {
	return c.info(ctx, endpoint, "/info", token, sessionID)
}

func (c *Client) info(ctx context.Context, endpoint, path, token, sessionID string) (*InfoResponse, error) {
	var headers map[string]string
	if token != "" {
		headers = authHeaders(token, sessionID)
	}

	resp, err := c.doRequest(ctx, http.MethodGet, endpointURL(endpoint, path), nil, headers)
	if err != nil {
		return nil, err
	}

	var info InfoResponse
	if err := decodeJSON(resp, &info, http.StatusOK); err != nil {
		return nil, err
	}
	return &info, nil
}
