package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/youneskazemi/chatcord/internal/core"
	"github.com/youneskazemi/chatcord/internal/domain"
)

// Session is one live authenticated connection. The registry exclusively
// owns its lifecycle; location fields are only mutated through it.
type Session struct {
	sid  core.SessionID
	user *domain.User
	conn core.SignalConnection

	mu           sync.Mutex
	textChannel  domain.RoomID         // "" when viewing a DM instead
	conversation domain.ConversationID // "" when in a text channel
	voiceRoom    domain.RoomID         // independent of the text location
}

func (s *Session) ID() core.SessionID            { return s.sid }
func (s *Session) User() *domain.User            { return s.user }
func (s *Session) Signal() core.SignalConnection { return s.conn }

// SetTextChannel moves the session's text location to a channel. A session
// views either a channel or a DM conversation, never both.
func (s *Session) SetTextChannel(room domain.RoomID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.textChannel = room
	s.conversation = ""
}

func (s *Session) SetConversation(id domain.ConversationID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversation = id
	s.textChannel = ""
}

func (s *Session) SetVoiceRoom(room domain.RoomID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voiceRoom = room
}

func (s *Session) TextChannel() domain.RoomID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.textChannel
}

func (s *Session) Conversation() domain.ConversationID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversation
}

func (s *Session) VoiceRoom() domain.RoomID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voiceRoom
}

// Registry is the single source of truth for who is connected right now.
// A handle exists in it iff the connection is live.
type Registry struct {
	mu       sync.RWMutex
	byHandle map[core.SessionID]*Session
	byUser   map[domain.UserID]core.SessionID
	bus      *Bus
}

func NewRegistry(bus *Bus) *Registry {
	return &Registry{
		byHandle: make(map[core.SessionID]*Session),
		byUser:   make(map[domain.UserID]core.SessionID),
		bus:      bus,
	}
}

// Register binds a connection to a user. A second login for the same user
// displaces the prior session: the old connection is closed and unregistered
// before the new one is inserted, so LookupByUser stays single-valued.
func (r *Registry) Register(sid core.SessionID, user *domain.User, conn core.SignalConnection) *Session {
	r.mu.Lock()
	displaced, hadOld := r.removeLocked(r.byUser[user.ID])
	sess := &Session{sid: sid, user: user, conn: conn}
	r.byHandle[sid] = sess
	r.byUser[user.ID] = sid
	r.mu.Unlock()

	if hadOld {
		displaced.conn.Close()
		r.bus.SessionEnded.Publish(SessionEnded{Session: displaced})
		log.Info().Str("module", "app.registry").Str("user", string(user.ID)).
			Str("old_sid", string(displaced.sid)).Msg("displaced prior session")
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).
		Str("user", string(user.ID)).Str("username", user.Username).Msg("session registered")
	return sess
}

// Unregister is idempotent: unknown handles are a no-op with no event.
// Must be called exactly once per disconnect; it is the trigger that
// cascades room and call cleanup via the SessionEnded feed.
func (r *Registry) Unregister(sid core.SessionID) {
	r.mu.Lock()
	sess, ok := r.removeLocked(sid)
	r.mu.Unlock()
	if !ok {
		return
	}
	r.bus.SessionEnded.Publish(SessionEnded{Session: sess})
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).
		Str("user", string(sess.user.ID)).Msg("session unregistered")
}

func (r *Registry) removeLocked(sid core.SessionID) (*Session, bool) {
	sess, ok := r.byHandle[sid]
	if !ok {
		return nil, false
	}
	delete(r.byHandle, sid)
	if r.byUser[sess.user.ID] == sid {
		delete(r.byUser, sess.user.ID)
	}
	return sess, true
}

func (r *Registry) Lookup(sid core.SessionID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.byHandle[sid]
	return sess, ok
}

func (r *Registry) LookupByUser(id domain.UserID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sid, ok := r.byUser[id]
	if !ok {
		return nil, false
	}
	sess, ok := r.byHandle[sid]
	return sess, ok
}

// Sessions snapshots every live session, for presence broadcasts.
func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.byHandle))
	for _, s := range r.byHandle {
		out = append(out, s)
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byHandle)
}
