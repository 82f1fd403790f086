package relaysdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrMalformedResponse is wrapped when a 200 body cannot be decoded.
var ErrMalformedResponse = errors.New("relaysdk: malformed response body")

// StatusError is returned for any response with an unexpected status code.
type StatusError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("relay responded %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("relay responded %d: %s", e.StatusCode, e.Body)
}

// Detail returns the relay's own message when the body is an ErrorResponse,
// otherwise the trimmed body.
func (e *StatusError) Detail() string {
	var er ErrorResponse
	if err := json.Unmarshal([]byte(e.Body), &er); err == nil && er.Error != "" {
		if er.Message != "" {
			return er.Error + ": " + er.Message
		}
		return er.Error
	}
	return strings.TrimSpace(e.Body)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
