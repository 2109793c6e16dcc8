package app

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/youneskazemi/chatcord/internal/domain"
	"github.com/youneskazemi/chatcord/internal/protocol"
)

var ErrNotInVoice = errors.New("not in a voice channel")

// Voice orchestrates N-way voice presence in a channel. The server tracks
// roster membership only; peer connections live in the clients.
type Voice struct {
	rooms *Rooms
	relay *Relay
}

func NewVoice(rooms *Rooms, relay *Relay) *Voice {
	return &Voice{rooms: rooms, relay: relay}
}

// Join adds the session to the channel's voice room and returns the
// participants that were already there, each flagged with the offer
// arbitration result: the joiner dials exactly the peers whose user ID
// compares greater than its own, the others dial the joiner when notified.
// Exactly one offer per pair, no coordination message needed.
func (v *Voice) Join(channel string, sess *Session) []protocol.VoiceParticipant {
	roomID := domain.VoiceRoomID(channel)

	// If the session was voice-connected elsewhere, that membership ends
	// first; voice rooms only ever change through explicit join/leave.
	if old := sess.VoiceRoom(); old != "" && old != roomID {
		v.rooms.Leave(old, sess)
	}

	roster := v.rooms.Join(roomID, sess)
	sess.SetVoiceRoom(roomID)

	self := sess.User().ID
	existing := make([]protocol.VoiceParticipant, 0, len(roster))
	for _, m := range roster {
		if m.ID == self {
			continue
		}
		existing = append(existing, protocol.VoiceParticipant{
			UserID:      m.ID,
			Username:    m.Username,
			ShouldOffer: self.Less(m.ID),
		})
	}

	log.Info().Str("module", "app.voice").Str("channel", channel).
		Str("user", string(self)).Int("peers", len(existing)).Msg("joined voice")
	return existing
}

// Leave is idempotent; a session not in any voice room is a no-op.
func (v *Voice) Leave(sess *Session) {
	roomID := sess.VoiceRoom()
	if roomID == "" {
		return
	}
	v.rooms.Leave(roomID, sess)
	sess.SetVoiceRoom("")
	log.Info().Str("module", "app.voice").Str("room", string(roomID)).
		Str("user", string(sess.User().ID)).Msg("left voice")
}

// inRoom reports whether the sender still occupies the channel's voice room.
// Late signaling from sessions that already left is dropped.
func (v *Voice) inRoom(channel string, sess *Session) bool {
	room, ok := v.rooms.Room(domain.VoiceRoomID(channel))
	return ok && room.Contains(sess.ID())
}

func (v *Voice) RelayOffer(sess *Session, p protocol.VoiceSignal) {
	if !v.inRoom(p.ChannelName, sess) {
		return
	}
	v.relay.Deliver(p.TargetUserID, protocol.TypeVoiceOffer, protocol.VoiceSignalForward{
		From: sess.User().ID, ChannelName: p.ChannelName, SDP: p.SDP,
	})
}

func (v *Voice) RelayAnswer(sess *Session, p protocol.VoiceSignal) {
	if !v.inRoom(p.ChannelName, sess) {
		return
	}
	v.relay.Deliver(p.TargetUserID, protocol.TypeVoiceAnswer, protocol.VoiceSignalForward{
		From: sess.User().ID, ChannelName: p.ChannelName, SDP: p.SDP,
	})
}

func (v *Voice) RelayCandidate(sess *Session, p protocol.VoiceCandidate) {
	if !v.inRoom(p.ChannelName, sess) {
		return
	}
	v.relay.Deliver(p.TargetUserID, protocol.TypeVoiceIceCandidate, protocol.VoiceCandidateForward{
		From: sess.User().ID, ChannelName: p.ChannelName, Candidate: p.Candidate,
	})
}

// SetMute rebroadcasts a mute toggle to the rest of the room.
func (v *Voice) SetMute(sess *Session, p protocol.ToggleMute) error {
	roomID := domain.VoiceRoomID(p.ChannelName)
	if !v.inRoom(p.ChannelName, sess) {
		return ErrNotInVoice
	}
	frame, err := protocol.Encode(protocol.TypeUserMuteChanged, protocol.VoiceMuteChanged{
		ChannelName: p.ChannelName, UserID: sess.User().ID, IsMuted: p.IsMuted,
	})
	if err != nil {
		return err
	}
	v.rooms.Broadcast(roomID, sess.ID(), frame)
	return nil
}

func (v *Voice) SetDeafen(sess *Session, p protocol.ToggleDeafen) error {
	roomID := domain.VoiceRoomID(p.ChannelName)
	if !v.inRoom(p.ChannelName, sess) {
		return ErrNotInVoice
	}
	frame, err := protocol.Encode(protocol.TypeUserDeafenChanged, protocol.VoiceDeafenChanged{
		ChannelName: p.ChannelName, UserID: sess.User().ID, IsDeafened: p.IsDeafened,
	})
	if err != nil {
		return err
	}
	v.rooms.Broadcast(roomID, sess.ID(), frame)
	return nil
}
