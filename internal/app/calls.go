package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/youneskazemi/chatcord/internal/domain"
	"github.com/youneskazemi/chatcord/internal/protocol"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotParticipant       = errors.New("not a participant of this conversation")
	ErrRecipientOffline     = errors.New("recipient is offline")
	ErrCallInProgress       = errors.New("a call is already active for this conversation")
	ErrNoActiveCall         = errors.New("no active call")
	ErrNotRinging           = errors.New("call is not ringing")
	ErrNotCallee            = errors.New("only the called party may do this")
	ErrInitiatorMismatch    = errors.New("call initiator mismatch")
)

// CallManager drives the 1:1 call lifecycle per DM conversation:
// idle -> ringing -> connected -> idle. It exclusively owns the active call
// and history for a conversation. Transitions on one conversation are
// serialized by that conversation's mutex; different conversations never
// block each other.
type CallManager struct {
	mu     sync.Mutex
	convs  map[domain.ConversationID]*convCall
	byUser map[domain.UserID]map[domain.ConversationID]struct{}

	registry *Registry
	relay    *Relay
	dir      ConversationDirectory
	callLog  CallLog
	nowFn    func() time.Time
}

type convCall struct {
	mu     sync.Mutex
	active *domain.ActiveCall
}

func NewCallManager(registry *Registry, relay *Relay, dir ConversationDirectory, callLog CallLog, bus *Bus) *CallManager {
	m := &CallManager{
		convs:    make(map[domain.ConversationID]*convCall),
		byUser:   make(map[domain.UserID]map[domain.ConversationID]struct{}),
		registry: registry,
		relay:    relay,
		dir:      dir,
		callLog:  callLog,
		nowFn:    time.Now,
	}
	bus.SessionEnded.Subscribe(m.onSessionEnded)
	return m
}

func (m *CallManager) conv(id domain.ConversationID) *convCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.convs[id]
	if !ok {
		c = &convCall{}
		m.convs[id] = c
	}
	return c
}

// lookup never creates state; transitions other than Initiate operate on
// calls that already exist.
func (m *CallManager) lookup(id domain.ConversationID) (*convCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.convs[id]
	return c, ok
}

func (m *CallManager) indexLocked(id domain.ConversationID, users ...domain.UserID) {
	for _, u := range users {
		set, ok := m.byUser[u]
		if !ok {
			set = make(map[domain.ConversationID]struct{})
			m.byUser[u] = set
		}
		set[id] = struct{}{}
	}
}

// clearCall drops the user index entries for an ended call. The convCall
// entry itself stays in the map: concurrent transitions may already hold
// its pointer, so it must keep serializing them. Callers hold the
// conversation lock and have set active to nil.
func (m *CallManager) clearCall(id domain.ConversationID, call *domain.ActiveCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range []domain.UserID{call.Initiator, call.Callee} {
		if set, ok := m.byUser[u]; ok {
			delete(set, id)
			if len(set) == 0 {
				delete(m.byUser, u)
			}
		}
	}
}

// Initiate places a call. The conversation must be idle and both users must
// be its participants; an offline callee fails immediately (no queueing, no
// ring). A second initiate while a call is active is an error, never an
// overwrite, which is also what makes simultaneous initiates glare-free:
// one of them loses.
func (m *CallManager) Initiate(ctx context.Context, caller *Session, p protocol.InitiateDirectCall) error {
	conv, err := m.dir.GetConversationByID(ctx, p.ConversationID)
	if err != nil {
		return ErrConversationNotFound
	}
	from := caller.User().ID
	if !conv.HasParticipant(from) || !conv.HasParticipant(p.RecipientID) || from == p.RecipientID {
		return ErrNotParticipant
	}

	c := m.conv(p.ConversationID)
	c.mu.Lock()
	if c.active != nil {
		c.mu.Unlock()
		return ErrCallInProgress
	}
	if _, online := m.registry.LookupByUser(p.RecipientID); !online {
		c.mu.Unlock()
		return ErrRecipientOffline
	}
	call := &domain.ActiveCall{
		Status:    domain.CallRinging,
		Initiator: from,
		Callee:    p.RecipientID,
		StartedAt: m.nowFn(),
	}
	c.active = call
	m.mu.Lock()
	m.indexLocked(p.ConversationID, call.Initiator, call.Callee)
	m.mu.Unlock()
	c.mu.Unlock()

	delivered := m.relay.Deliver(p.RecipientID, protocol.TypeDirectCallOffer, protocol.DirectCallOffer{
		CallerID:       from,
		CallerName:     caller.User().Username,
		CallerColor:    caller.User().Color,
		ConversationID: p.ConversationID,
		SDP:            p.SDP,
	})
	if !delivered {
		// The callee vanished between the check and the send. Back to idle.
		c.mu.Lock()
		if c.active == call {
			c.active = nil
			m.clearCall(p.ConversationID, call)
		}
		c.mu.Unlock()
		return ErrRecipientOffline
	}

	log.Info().Str("module", "app.calls").Str("conv", string(p.ConversationID)).
		Str("caller", string(from)).Str("callee", string(p.RecipientID)).Msg("call ringing")
	return nil
}

// Accept transitions ringing -> connected. Only the non-initiator may
// accept, which is the second half of the glare guarantee.
func (m *CallManager) Accept(callee *Session, p protocol.AcceptDirectCall) error {
	by := callee.User().ID
	c, ok := m.lookup(p.ConversationID)
	if !ok {
		return ErrNoActiveCall
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	call := c.active
	switch {
	case call == nil:
		return ErrNoActiveCall
	case call.Status != domain.CallRinging:
		return ErrNotRinging
	case by != call.Callee:
		return ErrNotCallee
	case p.CallerID != call.Initiator:
		return ErrInitiatorMismatch
	}

	call.Status = domain.CallConnected
	call.AcceptedAt = m.nowFn()

	m.relay.Deliver(call.Initiator, protocol.TypeDirectCallAccepted, protocol.DirectCallAccepted{
		RecipientID:    by,
		ConversationID: p.ConversationID,
		SDP:            p.SDP,
	})
	log.Info().Str("module", "app.calls").Str("conv", string(p.ConversationID)).Msg("call connected")
	return nil
}

// Reject is valid only while ringing and only for the called party.
func (m *CallManager) Reject(ctx context.Context, callee *Session, p protocol.RejectDirectCall) error {
	by := callee.User().ID
	c, ok := m.lookup(p.ConversationID)
	if !ok {
		return ErrNoActiveCall
	}
	c.mu.Lock()

	call := c.active
	switch {
	case call == nil:
		c.mu.Unlock()
		return ErrNoActiveCall
	case call.Status != domain.CallRinging:
		c.mu.Unlock()
		return ErrNotRinging
	case by != call.Callee:
		c.mu.Unlock()
		return ErrNotCallee
	}

	rec := domain.CallRecord{
		Initiator:       call.Initiator,
		StartedAt:       call.StartedAt,
		EndedAt:         m.nowFn(),
		DurationSeconds: 0,
		Outcome:         domain.CallRejected,
	}
	c.active = nil
	m.clearCall(p.ConversationID, call)
	c.mu.Unlock()

	m.appendRecord(ctx, p.ConversationID, rec)
	m.relay.Deliver(call.Initiator, protocol.TypeDirectCallRejected, protocol.DirectCallRejected{
		RecipientID:    by,
		ConversationID: p.ConversationID,
	})
	log.Info().Str("module", "app.calls").Str("conv", string(p.ConversationID)).Msg("call rejected")
	return nil
}

// End terminates a ringing or connected call. A ringing call ends as
// missed with zero duration; a connected one as completed with the elapsed
// time since accept. The other participant is notified regardless of who
// ended it.
func (m *CallManager) End(ctx context.Context, by domain.UserID, convID domain.ConversationID) error {
	c, ok := m.lookup(convID)
	if !ok {
		return ErrNoActiveCall
	}
	c.mu.Lock()

	call := c.active
	if call == nil {
		c.mu.Unlock()
		return ErrNoActiveCall
	}
	if by != call.Initiator && by != call.Callee {
		c.mu.Unlock()
		return ErrNotParticipant
	}

	now := m.nowFn()
	rec := domain.CallRecord{
		Initiator: call.Initiator,
		StartedAt: call.StartedAt,
		EndedAt:   now,
	}
	if call.Status == domain.CallConnected {
		rec.Outcome = domain.CallCompleted
		rec.DurationSeconds = int(now.Sub(call.AcceptedAt) / time.Second)
	} else {
		rec.Outcome = domain.CallMissed
		rec.DurationSeconds = 0
	}
	other := call.Initiator
	if by == call.Initiator {
		other = call.Callee
	}
	c.active = nil
	m.clearCall(convID, call)
	c.mu.Unlock()

	m.appendRecord(ctx, convID, rec)
	m.relay.Deliver(other, protocol.TypeDirectCallEnded, protocol.DirectCallEnded{
		UserID:         by,
		ConversationID: convID,
		Duration:       rec.DurationSeconds,
	})
	log.Info().Str("module", "app.calls").Str("conv", string(convID)).
		Str("outcome", string(rec.Outcome)).Int("duration", rec.DurationSeconds).Msg("call ended")
	return nil
}

// RelayCandidate forwards a trickled ICE candidate between the two call
// parties. Candidates for a conversation with no live call are dropped;
// they can only be stragglers from a call that already ended.
func (m *CallManager) RelayCandidate(sess *Session, p protocol.DirectCallCandidate) {
	c, ok := m.lookup(p.ConversationID)
	if !ok {
		return
	}
	c.mu.Lock()
	live := c.active != nil
	c.mu.Unlock()
	if !live {
		return
	}
	m.relay.Deliver(p.RecipientID, protocol.TypeDirectCallCandidate, protocol.DirectCallCandidateForward{
		SenderID:       sess.User().ID,
		ConversationID: p.ConversationID,
		Candidate:      p.Candidate,
	})
}

// ActiveCall exposes a snapshot for tests and the HTTP API.
func (m *CallManager) ActiveCall(convID domain.ConversationID) (domain.ActiveCall, bool) {
	c, ok := m.lookup(convID)
	if !ok {
		return domain.ActiveCall{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return domain.ActiveCall{}, false
	}
	return *c.active, true
}

// onSessionEnded ends every active call the disconnected user participates
// in, exactly as if that user had issued End. The state machine is never
// left dangling in ringing/connected.
func (m *CallManager) onSessionEnded(e SessionEnded) {
	userID := e.Session.User().ID
	m.mu.Lock()
	ids := make([]domain.ConversationID, 0, len(m.byUser[userID]))
	for id := range m.byUser[userID] {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		if err := m.End(context.Background(), userID, id); err != nil && !errors.Is(err, ErrNoActiveCall) {
			log.Warn().Err(err).Str("module", "app.calls").Str("conv", string(id)).Msg("disconnect cleanup")
		}
	}
}

func (m *CallManager) appendRecord(ctx context.Context, convID domain.ConversationID, rec domain.CallRecord) {
	if err := m.callLog.AppendCallRecord(ctx, convID, rec); err != nil {
		log.Error().Err(err).Str("module", "app.calls").Str("conv", string(convID)).Msg("append call record")
	}
}
