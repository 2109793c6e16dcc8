package protocol

import (
	"github.com/pion/webrtc/v4"

	"github.com/youneskazemi/chatcord/internal/domain"
)

// Inbound payloads. SDP and ICE payloads use pion types so malformed
// signaling is rejected at the decode boundary instead of being relayed.

type SwitchChannel struct {
	ChannelName string `json:"channelName"`
}

type SendMessage struct {
	Text           string                `json:"text"`
	ChannelName    string                `json:"channelName,omitempty"`
	ConversationID domain.ConversationID `json:"conversationId,omitempty"`
}

type JoinVoiceChannel struct {
	ChannelName string `json:"channelName"`
}

type ToggleMute struct {
	ChannelName string `json:"channelName"`
	IsMuted     bool   `json:"isMuted"`
}

type ToggleDeafen struct {
	ChannelName string `json:"channelName"`
	IsDeafened  bool   `json:"isDeafened"`
}

type VoiceSignal struct {
	TargetUserID domain.UserID             `json:"targetUserId"`
	ChannelName  string                    `json:"channelName"`
	SDP          webrtc.SessionDescription `json:"sdp"`
}

type VoiceCandidate struct {
	TargetUserID domain.UserID           `json:"targetUserId"`
	ChannelName  string                  `json:"channelName"`
	Candidate    webrtc.ICECandidateInit `json:"candidate"`
}

type InitiateDirectCall struct {
	RecipientID    domain.UserID             `json:"recipientId"`
	ConversationID domain.ConversationID     `json:"conversationId"`
	SDP            webrtc.SessionDescription `json:"sdp"`
}

type AcceptDirectCall struct {
	CallerID       domain.UserID             `json:"callerId"`
	ConversationID domain.ConversationID     `json:"conversationId"`
	SDP            webrtc.SessionDescription `json:"sdp"`
}

type RejectDirectCall struct {
	CallerID       domain.UserID         `json:"callerId"`
	ConversationID domain.ConversationID `json:"conversationId"`
}

type EndDirectCall struct {
	RecipientID    domain.UserID         `json:"recipientId"`
	ConversationID domain.ConversationID `json:"conversationId"`
}

type DirectCallCandidate struct {
	RecipientID    domain.UserID           `json:"recipientId"`
	ConversationID domain.ConversationID   `json:"conversationId"`
	Candidate      webrtc.ICECandidateInit `json:"candidate"`
}

type CreateDMConversation struct {
	TargetUserID domain.UserID `json:"targetUserId"`
}

// Outbound payloads.

type UserRef struct {
	ID       domain.UserID `json:"id"`
	Username string        `json:"username"`
	Color    string        `json:"color,omitempty"`
}

type MembershipChange struct {
	ChannelName string        `json:"channelName"`
	UserID      domain.UserID `json:"userId"`
	Username    string        `json:"username"`
}

type UserStatusChanged struct {
	UserID domain.UserID `json:"userId"`
	Status string        `json:"status"` // "online" | "offline"
}

type Typing struct {
	ChannelName string        `json:"channelName"`
	UserID      domain.UserID `json:"userId"`
	Username    string        `json:"username"`
}

// VoiceParticipant is a roster entry handed to a joining session so its
// client knows who to dial. ShouldOffer carries the server-side arbitration:
// true means the joiner initiates the offer to this peer.
type VoiceParticipant struct {
	UserID      domain.UserID `json:"userId"`
	Username    string        `json:"username"`
	ShouldOffer bool          `json:"shouldOffer"`
}

type VoiceChannelJoined struct {
	ChannelName          string             `json:"channel"`
	ExistingParticipants []VoiceParticipant `json:"existingParticipants"`
}

type VoiceMembershipChange struct {
	ChannelName string        `json:"channelName"`
	UserID      domain.UserID `json:"userId"`
	Username    string        `json:"username"`
}

type VoiceMuteChanged struct {
	ChannelName string        `json:"channelName"`
	UserID      domain.UserID `json:"userId"`
	IsMuted     bool          `json:"isMuted"`
}

type VoiceDeafenChanged struct {
	ChannelName string        `json:"channelName"`
	UserID      domain.UserID `json:"userId"`
	IsDeafened  bool          `json:"isDeafened"`
}

type VoiceSignalForward struct {
	From        domain.UserID             `json:"from"`
	ChannelName string                    `json:"channelName"`
	SDP         webrtc.SessionDescription `json:"sdp"`
}

type VoiceCandidateForward struct {
	From        domain.UserID           `json:"from"`
	ChannelName string                  `json:"channelName"`
	Candidate   webrtc.ICECandidateInit `json:"candidate"`
}

type DirectCallOffer struct {
	CallerID       domain.UserID             `json:"callerId"`
	CallerName     string                    `json:"callerName"`
	CallerColor    string                    `json:"callerColor,omitempty"`
	ConversationID domain.ConversationID     `json:"conversationId"`
	SDP            webrtc.SessionDescription `json:"sdp"`
}

type DirectCallAccepted struct {
	RecipientID    domain.UserID             `json:"recipientId"`
	ConversationID domain.ConversationID     `json:"conversationId"`
	SDP            webrtc.SessionDescription `json:"sdp"`
}

type DirectCallRejected struct {
	RecipientID    domain.UserID         `json:"recipientId"`
	ConversationID domain.ConversationID `json:"conversationId"`
}

type DirectCallEnded struct {
	UserID         domain.UserID         `json:"userId"`
	ConversationID domain.ConversationID `json:"conversationId"`
	Duration       int                   `json:"duration"`
}

type DirectCallCandidateForward struct {
	SenderID       domain.UserID           `json:"senderId"`
	ConversationID domain.ConversationID   `json:"conversationId"`
	Candidate      webrtc.ICECandidateInit `json:"candidate"`
}

type ErrorEvent struct {
	Message string `json:"message"`
}
