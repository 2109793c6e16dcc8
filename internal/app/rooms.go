package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/youneskazemi/chatcord/internal/core"
	"github.com/youneskazemi/chatcord/internal/domain"
	"github.com/youneskazemi/chatcord/internal/protocol"
)

// Rooms tracks membership of text channels and voice rooms. All membership
// transitions happen under one manager lock (room count is small), which
// makes Switch atomic: no observer sees the session in zero rooms between
// the leave and the join.
type Rooms struct {
	mu    sync.Mutex
	rooms map[domain.RoomID]core.RoomService
}

func NewRooms(bus *Bus) *Rooms {
	m := &Rooms{rooms: make(map[domain.RoomID]core.RoomService)}
	bus.SessionEnded.Subscribe(m.onSessionEnded)
	return m
}

func (m *Rooms) getOrCreateLocked(id domain.RoomID) core.RoomService {
	room, ok := m.rooms[id]
	if !ok {
		room = core.NewRoom(id)
		m.rooms[id] = room
	}
	return room
}

// Join adds the session to a room and announces it to the other members.
// Idempotent: a repeat join changes nothing and still returns the roster.
func (m *Rooms) Join(roomID domain.RoomID, sess *Session) []core.MemberDTO {
	m.mu.Lock()
	room := m.getOrCreateLocked(roomID)
	added := room.AddMember(sess.ID(), sess)
	roster := room.Roster()
	m.mu.Unlock()

	if added {
		m.announce(room, sess, true)
	}
	return roster
}

// Leave removes the session from a room. Leaving a room not joined is a
// no-op with no events.
func (m *Rooms) Leave(roomID domain.RoomID, sess *Session) {
	m.mu.Lock()
	room, ok := m.rooms[roomID]
	var removed bool
	if ok {
		removed = room.RemoveMember(sess.ID())
		if room.MemberCount() == 0 {
			delete(m.rooms, roomID)
		}
	}
	m.mu.Unlock()

	if removed {
		m.announce(room, sess, false)
	}
}

// Switch performs leave(old)+join(new) as one transition under the manager
// lock, then announces both sides.
func (m *Rooms) Switch(oldRoom, newRoom domain.RoomID, sess *Session) []core.MemberDTO {
	if oldRoom == newRoom {
		m.mu.Lock()
		roster := m.getOrCreateLocked(newRoom).Roster()
		m.mu.Unlock()
		return roster
	}

	m.mu.Lock()
	var left core.RoomService
	var removed bool
	if room, ok := m.rooms[oldRoom]; ok {
		removed = room.RemoveMember(sess.ID())
		left = room
		if room.MemberCount() == 0 {
			delete(m.rooms, oldRoom)
		}
	}
	joined := m.getOrCreateLocked(newRoom)
	added := joined.AddMember(sess.ID(), sess)
	roster := joined.Roster()
	m.mu.Unlock()

	if removed {
		m.announce(left, sess, false)
	}
	if added {
		m.announce(joined, sess, true)
	}
	return roster
}

// Roster returns the room membership in join order, or nil for an unknown
// room.
func (m *Rooms) Roster(roomID domain.RoomID) []core.MemberDTO {
	m.mu.Lock()
	room, ok := m.rooms[roomID]
	m.mu.Unlock()
	if !ok {
		return nil
	}
	return room.Roster()
}

func (m *Rooms) Room(roomID domain.RoomID) (core.RoomService, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[roomID]
	return room, ok
}

// Broadcast fans an encoded frame out to every room member except from.
func (m *Rooms) Broadcast(roomID domain.RoomID, from core.SessionID, frame core.Frame) {
	m.mu.Lock()
	room, ok := m.rooms[roomID]
	m.mu.Unlock()
	if !ok {
		return
	}
	res := room.Broadcast(from, frame)
	if len(res.Dropped) > 0 {
		log.Warn().Str("module", "app.rooms").Str("room", string(roomID)).
			Int("dropped", len(res.Dropped)).Msg("slow consumers dropped frame")
	}
}

// onSessionEnded removes the dead session from every room it occupied,
// emitting the same leave announcements as an explicit leave. The membership
// sets are swept directly rather than read from the session's location
// fields: those are recorded after the join mutation, so a displacement
// landing in between would miss the room and leave a ghost in the roster.
func (m *Rooms) onSessionEnded(e SessionEnded) {
	sess := e.Session
	m.mu.Lock()
	var occupied []domain.RoomID
	for id, room := range m.rooms {
		if room.Contains(sess.ID()) {
			occupied = append(occupied, id)
		}
	}
	m.mu.Unlock()

	for _, id := range occupied {
		m.Leave(id, sess)
	}
}

// announce composes the membership event for the room kind and fans it out
// to the remaining members (never to the subject itself).
func (m *Rooms) announce(room core.RoomService, sess *Session, joined bool) {
	u := sess.User()
	channel := room.ID().Channel()

	var eventType string
	var payload any
	switch {
	case room.ID().IsVoice() && joined:
		eventType = protocol.TypeUserJoinedVoice
		payload = protocol.VoiceMembershipChange{ChannelName: channel, UserID: u.ID, Username: u.Username}
	case room.ID().IsVoice():
		eventType = protocol.TypeUserLeftVoice
		payload = protocol.VoiceMembershipChange{ChannelName: channel, UserID: u.ID, Username: u.Username}
	case joined:
		eventType = protocol.TypeUserJoined
		payload = protocol.MembershipChange{ChannelName: channel, UserID: u.ID, Username: u.Username}
	default:
		eventType = protocol.TypeUserLeft
		payload = protocol.MembershipChange{ChannelName: channel, UserID: u.ID, Username: u.Username}
	}

	frame, err := protocol.Encode(eventType, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "app.rooms").Msg("encode announcement")
		return
	}
	room.Broadcast(sess.ID(), frame)
}
