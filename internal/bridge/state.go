package bridge

// State names the orchestrator's position in one poll-dispatch-stream
// cycle.
type State int

const (
	// StateIdle is the loop re-entry point between cycles.
	StateIdle State = iota
	// StatePolling fetches the latest-query snapshot.
	StatePolling
	// StateAuthenticating rebuilds the session after a poll failure.
	StateAuthenticating
	// StateDispatching halts playback and sends the query to the chat
	// backend.
	StateDispatching
	// StateStreaming drives the reply segmenter until the final fragment.
	StateStreaming
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StatePolling:
		return "polling"
	case StateAuthenticating:
		return "authenticating"
	case StateDispatching:
		return "dispatching"
	case StateStreaming:
		return "streaming"
	default:
		return "idle"
	}
}
