package domain

// State is the connection manager's lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateRefreshing
	StateSwitching
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateRefreshing:
		return "refreshing"
	case StateSwitching:
		return "switching"
	default:
		return "unknown"
	}
}
