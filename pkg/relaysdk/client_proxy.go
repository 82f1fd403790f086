package relaysdk

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
)

// Proxy sends method/body to target through the relay's /proxy route. The
// caller owns the returned response body. Relay side rejections (401, 400)
// come back as *StatusError; anything else is the target's own response.
func (c *Client) Proxy(
	ctx context.Context,
	endpoint, sessionID, token string,
	method, target string,
	body io.Reader,
) (*http.Response, error) {
	if target == "" {
		return nil, errors.New("relaysdk: empty proxy target")
	}

	u := endpointURL(endpoint, "/proxy") + "?" + url.Values{"url": {target}}.Encode()
	resp, err := c.doRequest(ctx, method, u, body, authHeaders(token, sessionID))
	if err != nil {
		return nil, err
	}

	if resp.Header.Get(RelayRejectHeader) != "" {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	return resp, nil
}

// RelayRejectHeader marks responses generated by the relay itself rather
// than relayed from the proxy target.
const RelayRejectHeader = "X-Relay-Reject"
