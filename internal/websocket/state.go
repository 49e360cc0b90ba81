package websocket

// State is the lifecycle state of a client Conn.
type State uint8

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateBackoff
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateBackoff:
		return "backoff"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
