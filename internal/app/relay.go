package app

import (
	"github.com/rs/zerolog/log"

	"github.com/youneskazemi/chatcord/internal/domain"
	"github.com/youneskazemi/chatcord/internal/protocol"
)

// Relay is the shared addressing layer: it resolves a user to their live
// connection and forwards a payload verbatim. An offline target is a silent
// no-op; the sender's own WebRTC timers are the recovery mechanism.
type Relay struct {
	registry *Registry
}

func NewRelay(registry *Registry) *Relay {
	return &Relay{registry: registry}
}

// Deliver forwards payload to targetUserID under eventType. Returns whether
// a live session was found; callers that care (the call machine) can check,
// everyone else ignores it.
func (r *Relay) Deliver(target domain.UserID, eventType string, payload any) bool {
	sess, ok := r.registry.LookupByUser(target)
	if !ok {
		log.Debug().Str("module", "app.relay").Str("target", string(target)).
			Str("event", eventType).Msg("target offline, dropping")
		return false
	}
	frame, err := protocol.Encode(eventType, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "app.relay").Str("event", eventType).Msg("encode")
		return false
	}
	if err := sess.Signal().TrySend(frame); err != nil {
		log.Warn().Str("module", "app.relay").Str("target", string(target)).
			Str("event", eventType).Msg("send failed, dropping")
		return false
	}
	return true
}

// BroadcastAll sends an event to every live session, for presence changes.
func (r *Relay) BroadcastAll(eventType string, payload any, except domain.UserID) {
	frame, err := protocol.Encode(eventType, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "app.relay").Str("event", eventType).Msg("encode")
		return
	}
	for _, sess := range r.registry.Sessions() {
		if sess.User().ID == except {
			continue
		}
		_ = sess.Signal().TrySend(frame)
	}
}
