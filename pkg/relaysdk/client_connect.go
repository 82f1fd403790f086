package relaysdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Connect performs the session handshake against endpoint. The token goes
// both in the body and as the bearer credential.
func (c *Client) Connect(ctx context.Context, endpoint, token, sessionID string) (*ConnectResponse, error) {
	payload, err := json.Marshal(ConnectRequest{
		Action:    "connect",
		Token:     token,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode connect request: %w", err)
	}

	headers := authHeaders(token, "")
	headers["Content-Type"] = "application/json"

	resp, err := c.doRequest(ctx, http.MethodPost, endpointURL(endpoint, "/connect"), bytes.NewReader(payload), headers)
	if err != nil {
		return nil, err
	}

	var ack ConnectResponse
	if err := decodeJSON(resp, &ack, http.StatusOK); err != nil {
		return nil, err
	}
	return &ack, nil
}
