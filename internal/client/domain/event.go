package domain

import "time"

// EventType names a lifecycle notification.
type EventType string

const (
	EventConnected    EventType = "connected"
	EventRefreshed    EventType = "refreshed"
	EventDisconnected EventType = "disconnected"
	EventSessionLost  EventType = "session_lost"
)

// Event is delivered to observers after the transition it describes has
// completed.
type Event struct {
	Type      EventType
	Region    string
	Endpoint  string
	SessionID string
	At        time.Time
	Err       error // set for EventSessionLost
}
