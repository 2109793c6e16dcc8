package core

import "github.com/youneskazemi/chatcord/internal/domain"

// Frame is an encoded wire event ready to be written to a connection.
type Frame []byte

// SessionID is the opaque per-connection handle. A new one is minted for
// every websocket connection; it never outlives the connection.
type SessionID string

// SignalConnection abstracts the system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// MemberSession binds a user identity and its transport endpoint.
// This is what a room stores and fans out to.
type MemberSession interface {
	User() *domain.User
	Signal() SignalConnection
}

// PublishResult reports delivery stats/backpressure to the caller.
type PublishResult struct {
	SentTo  int
	Dropped []MemberSession
}

// MemberDTO is a read-only roster view for clients (no transport fields).
type MemberDTO struct {
	ID       domain.UserID `json:"id"`
	Username string        `json:"username"`
	Color    string        `json:"color,omitempty"`
}

// RoomService is the core-facing API of a room. It owns the membership set
// but never touches transport resources. Roster order is join order.
type RoomService interface {
	ID() domain.RoomID
	MemberCount() int
	Contains(sid SessionID) bool
	Roster() []MemberDTO

	AddMember(sid SessionID, ms MemberSession) bool
	RemoveMember(sid SessionID) bool
	Broadcast(from SessionID, data Frame) PublishResult
}
