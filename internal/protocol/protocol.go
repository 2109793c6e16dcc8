// Package protocol defines the signaling wire format: a thin JSON envelope
// carrying a typed payload. Both directions use the same envelope so the
// adapters can dispatch on Type alone.
package protocol

import "encoding/json"

type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Encode wraps payload into an envelope frame.
func Encode(eventType string, payload any) ([]byte, error) {
	env := Envelope{Type: eventType}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Data = data
	}
	return json.Marshal(env)
}

// Decode parses just the envelope; payload stays raw for the dispatch table.
func Decode(frame []byte) (Envelope, error) {
	var env Envelope
	err := json.Unmarshal(frame, &env)
	return env, err
}

// Inbound event types.
const (
	TypeSwitchChannel        = "switchChannel"
	TypeSendMessage          = "sendMessage"
	TypeTyping               = "typing"
	TypeStopTyping           = "stopTyping"
	TypeJoinVoiceChannel     = "joinVoiceChannel"
	TypeLeaveVoiceChannel    = "leaveVoiceChannel"
	TypeToggleMute           = "toggleMute"
	TypeToggleDeafen         = "toggleDeafen"
	TypeVoiceOffer           = "voiceOffer"
	TypeVoiceAnswer          = "voiceAnswer"
	TypeVoiceIceCandidate    = "voiceIceCandidate"
	TypeInitiateDirectCall   = "initiateDirectCall"
	TypeAcceptDirectCall     = "acceptDirectCall"
	TypeRejectDirectCall     = "rejectDirectCall"
	TypeEndDirectCall        = "endDirectCall"
	TypeDirectCallCandidate  = "directCallIceCandidate"
	TypeGetDMConversations   = "getDMConversations"
	TypeCreateDMConversation = "createDMConversation"
	TypePing                 = "ping"
)

// Outbound event types.
const (
	TypeJoinSuccess           = "joinSuccess"
	TypeUserJoined            = "userJoined"
	TypeUserLeft              = "userLeft"
	TypeChannelSwitched       = "channelSwitched"
	TypeNewMessage            = "newMessage"
	TypeNewDMMessage          = "newDMMessage"
	TypeUserTyping            = "userTyping"
	TypeUserStoppedTyping     = "userStoppedTyping"
	TypeUserStatusChanged     = "userStatusChanged"
	TypeVoiceChannelJoined    = "voiceChannelJoined"
	TypeUserJoinedVoice       = "userJoinedVoice"
	TypeUserLeftVoice         = "userLeftVoice"
	TypeUserMuteChanged       = "userMuteChanged"
	TypeUserDeafenChanged     = "userDeafenChanged"
	TypeDirectCallOffer       = "directCallOffer"
	TypeDirectCallAccepted    = "directCallAccepted"
	TypeDirectCallRejected    = "directCallRejected"
	TypeDirectCallEnded       = "directCallEnded"
	TypeDMConversations       = "dmConversations"
	TypeDMConversationCreated = "dmConversationCreated"
	TypePong                  = "pong"
	TypeError                 = "error"
)
