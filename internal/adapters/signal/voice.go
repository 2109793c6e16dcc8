package signal

import (
	"encoding/json"
	"errors"

	"github.com/youneskazemi/chatcord/internal/app"
	"github.com/youneskazemi/chatcord/internal/protocol"
)

func (cl *client) handleJoinVoice(data json.RawMessage) {
	var p protocol.JoinVoiceChannel
	if err := json.Unmarshal(data, &p); err != nil || p.ChannelName == "" {
		cl.sendError("Invalid request.")
		return
	}
	existing := cl.ctl.Voice.Join(p.ChannelName, cl.sess)
	cl.send(protocol.TypeVoiceChannelJoined, protocol.VoiceChannelJoined{
		ChannelName:          p.ChannelName,
		ExistingParticipants: existing,
	})
}

func (cl *client) handleLeaveVoice(json.RawMessage) {
	cl.ctl.Voice.Leave(cl.sess)
}

func (cl *client) handleToggleMute(data json.RawMessage) {
	var p protocol.ToggleMute
	if err := json.Unmarshal(data, &p); err != nil {
		cl.sendError("Invalid request.")
		return
	}
	if err := cl.ctl.Voice.SetMute(cl.sess, p); errors.Is(err, app.ErrNotInVoice) {
		cl.sendError("Not in a voice channel.")
	}
}

func (cl *client) handleToggleDeafen(data json.RawMessage) {
	var p protocol.ToggleDeafen
	if err := json.Unmarshal(data, &p); err != nil {
		cl.sendError("Invalid request.")
		return
	}
	if err := cl.ctl.Voice.SetDeafen(cl.sess, p); errors.Is(err, app.ErrNotInVoice) {
		cl.sendError("Not in a voice channel.")
	}
}

func (cl *client) handleVoiceOffer(data json.RawMessage) {
	var p protocol.VoiceSignal
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	cl.ctl.Voice.RelayOffer(cl.sess, p)
}

func (cl *client) handleVoiceAnswer(data json.RawMessage) {
	var p protocol.VoiceSignal
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	cl.ctl.Voice.RelayAnswer(cl.sess, p)
}

func (cl *client) handleVoiceCandidate(data json.RawMessage) {
	var p protocol.VoiceCandidate
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	cl.ctl.Voice.RelayCandidate(cl.sess, p)
}
