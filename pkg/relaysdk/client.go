package relaysdk

import (
	"net/http"
	"strings"
)

// Client talks to relay endpoints.
type Client struct {
	HTTPClient *http.Client

	// UserAgent is sent with every request when non-empty.
	UserAgent string
}

// NewClient returns a Client with its own transport and no global timeout.
func NewClient() *Client {
	return &Client{
		HTTPClient: &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()},
		UserAgent:  "geohop-client",
	}
}

// endpointURL joins an endpoint base URL and a path.
func endpointURL(endpoint, path string) string {
	return strings.TrimSuffix(endpoint, "/") + path
}
