// ABOUTME: Send lifecycle states reported to observers of the SendController
// ABOUTME: Every submission starts in Sending and ends back in Idle

package chat

// State is a step of the send lifecycle.
type State int

const (
	Idle State = iota
	Sending
	StreamOpening
	StreamReading
	Completed
	StreamOpenFailed
	FallbackRequest
	FallbackSucceeded
	FallbackFailed
	StreamFailed
)

var stateNames = [...]string{
	Idle:              "idle",
	Sending:           "sending",
	StreamOpening:     "stream_opening",
	StreamReading:     "stream_reading",
	Completed:         "completed",
	StreamOpenFailed:  "stream_open_failed",
	FallbackRequest:   "fallback_request",
	FallbackSucceeded: "fallback_succeeded",
	FallbackFailed:    "fallback_failed",
	StreamFailed:      "stream_failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Busy reports whether a submission is in flight in this state.
func (s State) Busy() bool {
	return s != Idle
}
