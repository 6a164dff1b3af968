package lifecycle

// State describes where a channel connection is in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateDisconnected
	StateError
)

var stateNames = map[State]string{
	StateIdle:         "IDLE",
	StateConnecting:   "CONNECTING",
	StateConnected:    "CONNECTED",
	StateDisconnected: "DISCONNECTED",
	StateError:        "ERROR",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}
