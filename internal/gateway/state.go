package gateway

// State is the connection lifecycle phase. It is owned by the Client and
// read atomically by the dispatch gate; events are delivered only in
// StateReady.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateIdentifying
	StateReady
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateIdentifying:
		return "identifying"
	case StateReady:
		return "ready"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}
