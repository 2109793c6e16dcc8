package domain

import "time"

type CallStatus string

const (
	CallRinging   CallStatus = "ringing"
	CallConnected CallStatus = "connected"
)

type CallOutcome string

const (
	CallCompleted CallOutcome = "completed"
	CallRejected  CallOutcome = "rejected"
	CallMissed    CallOutcome = "missed"
)

// ActiveCall is the in-progress state of a 1:1 call within a conversation.
// At most one exists per conversation at any time.
type ActiveCall struct {
	Status     CallStatus
	Initiator  UserID
	Callee     UserID
	StartedAt  time.Time
	AcceptedAt time.Time // zero until accepted
}

// CallRecord is one append-only call history entry. Never mutated after
// creation.
type CallRecord struct {
	Initiator       UserID
	StartedAt       time.Time
	EndedAt         time.Time
	DurationSeconds int
	Outcome         CallOutcome
}
