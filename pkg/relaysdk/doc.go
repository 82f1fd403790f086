/*
Package relaysdk is the client side of the relay endpoint contract.

Every relay exposes the same small HTTP surface:

  - GET  /health   liveness plus metadata, used for endpoint selection
  - POST /connect  the session handshake
  - ANY  /proxy    forwards ?url=<target> for an established session
  - GET  /ip       observed client address and location
  - GET  /info     same as /ip with a little more detail

A Client is not bound to one relay; each call takes the endpoint base URL so a
single Client can probe a whole region:

	c := relaysdk.NewClient()

	health, err := c.Health(ctx, "https://us-1.relay.example.com")

	ack, err := c.Connect(ctx, endpoint, token, sessionID)
	fmt.Println(ack.IP, ack.Country)

# Timeouts

The embedded http.Client carries no global timeout. Callers bound each call
with a context deadline, which is how the health probe and the handshake get
their own configured limits.

# Errors

Non-200 responses come back as *StatusError carrying the status code and the
raw body, so the relay's explanation can be shown to the user:

	var se *relaysdk.StatusError
	if errors.As(err, &se) {
		fmt.Println(se.StatusCode, se.Body)
	}

A 200 response whose body is not the expected JSON wraps ErrMalformedResponse.
*/
package relaysdk
