package metrics

import "time"

// Guard decision outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "capacity_exceeded"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// Recorder receives capacity guard instrumentation.
type Recorder interface {
	GuardDecision(op, outcome string)
	GuardRetry(op string)
	GuardLatency(op string, d time.Duration)
}

// Nop discards everything.
type Nop struct{}

var _ Recorder = Nop{}

func (Nop) GuardDecision(string, string)        {}
func (Nop) GuardRetry(string)                   {}
func (Nop) GuardLatency(string, time.Duration) {}
