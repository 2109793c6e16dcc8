package signal

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/youneskazemi/chatcord/internal/domain"
	"github.com/youneskazemi/chatcord/internal/protocol"
)

const maxMessageLen = 2000

// clampMessage caps a message at maxMessageLen bytes, backing up to a rune
// boundary so a multi-byte character is never cut in half.
func clampMessage(text string) string {
	if len(text) <= maxMessageLen {
		return text
	}
	cut := maxMessageLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

func (cl *client) handleSwitchChannel(data json.RawMessage) {
	var p protocol.SwitchChannel
	if err := json.Unmarshal(data, &p); err != nil {
		cl.sendError("Invalid request.")
		return
	}
	ch, err := cl.ctl.Store.GetChannelByName(cl.ctx, p.ChannelName)
	if err != nil {
		cl.sendError("Channel not found.")
		return
	}
	messages, err := cl.ctl.Store.ChannelMessages(cl.ctx, ch.ID)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("load channel history")
	}

	newRoom := domain.TextRoomID(ch.Name)
	roster := cl.ctl.Rooms.Switch(cl.sess.TextChannel(), newRoom, cl.sess)
	cl.sess.SetTextChannel(newRoom)

	cl.send(protocol.TypeChannelSwitched, gin.H{
		"channel":  ch,
		"messages": messages,
		"users":    roster,
	})
}

func (cl *client) handleSendMessage(data json.RawMessage) {
	var p protocol.SendMessage
	if err := json.Unmarshal(data, &p); err != nil {
		cl.sendError("Invalid request.")
		return
	}
	text := clampMessage(strings.TrimSpace(p.Text))
	if text == "" {
		return
	}

	if p.ConversationID != "" {
		cl.sendDirectMessage(p.ConversationID, text)
		return
	}
	cl.sendChannelMessage(p.ChannelName, text)
}

func (cl *client) sendChannelMessage(channelName, text string) {
	if channelName == "" {
		channelName = cl.sess.TextChannel().Channel()
	}
	ch, err := cl.ctl.Store.GetChannelByName(cl.ctx, channelName)
	if err != nil {
		cl.sendError("Channel not found.")
		return
	}
	msg, err := cl.ctl.Store.SaveChannelMessage(cl.ctx, ch.ID, cl.sess.User().ID, text)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("save message")
		cl.sendError("Could not send message.")
		return
	}

	frame, err := protocol.Encode(protocol.TypeNewMessage, gin.H{
		"channelName": ch.Name,
		"message":     msg,
	})
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("encode message")
		return
	}
	// Empty sender id so the author receives its own message back too.
	cl.ctl.Rooms.Broadcast(domain.TextRoomID(ch.Name), "", frame)
}

func (cl *client) sendDirectMessage(convID domain.ConversationID, text string) {
	conv, err := cl.ctl.Store.GetConversationByID(cl.ctx, convID)
	if err != nil {
		cl.sendError("Conversation not found.")
		return
	}
	self := cl.sess.User().ID
	if !conv.HasParticipant(self) {
		cl.sendError("Not a participant of this conversation.")
		return
	}
	dm, err := cl.ctl.Store.SaveDirectMessage(cl.ctx, convID, self, text)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("save direct message")
		cl.sendError("Could not send message.")
		return
	}

	payload := gin.H{"conversationId": convID, "message": dm}
	cl.ctl.Relay.Deliver(conv.Other(self), protocol.TypeNewDMMessage, payload)
	cl.send(protocol.TypeNewDMMessage, payload)
}

func (cl *client) handleTyping(json.RawMessage) { cl.broadcastTyping(protocol.TypeUserTyping) }

func (cl *client) handleStopTyping(json.RawMessage) {
	cl.broadcastTyping(protocol.TypeUserStoppedTyping)
}

func (cl *client) broadcastTyping(eventType string) {
	room := cl.sess.TextChannel()
	if room == "" {
		return
	}
	u := cl.sess.User()
	frame, err := protocol.Encode(eventType, protocol.Typing{
		ChannelName: room.Channel(),
		UserID:      u.ID,
		Username:    u.Username,
	})
	if err != nil {
		return
	}
	cl.ctl.Rooms.Broadcast(room, cl.sess.ID(), frame)
}

func (cl *client) handleGetDMConversations(json.RawMessage) {
	self := cl.sess.User().ID
	convs, err := cl.ctl.Store.ListConversations(cl.ctx, self)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("list conversations")
		cl.sendError("Could not load conversations.")
		return
	}

	out := make([]gin.H, 0, len(convs))
	for _, conv := range convs {
		partner, err := cl.ctl.Store.GetUserByID(cl.ctx, conv.Other(self))
		if err != nil {
			continue
		}
		out = append(out, gin.H{
			"id": conv.ID,
			"targetUser": protocol.UserRef{
				ID: partner.ID, Username: partner.Username, Color: partner.Color,
			},
		})
	}
	cl.send(protocol.TypeDMConversations, gin.H{"conversations": out})
}

func (cl *client) handleCreateDMConversation(data json.RawMessage) {
	var p protocol.CreateDMConversation
	if err := json.Unmarshal(data, &p); err != nil {
		cl.sendError("Invalid request.")
		return
	}
	self := cl.sess.User().ID
	if p.TargetUserID == "" || p.TargetUserID == self {
		cl.sendError("Invalid conversation target.")
		return
	}
	partner, err := cl.ctl.Store.GetUserByID(cl.ctx, p.TargetUserID)
	if err != nil {
		cl.sendError("User not found.")
		return
	}
	conv, err := cl.ctl.Store.GetOrCreateConversation(cl.ctx, self, p.TargetUserID)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("create conversation")
		cl.sendError("Could not open conversation.")
		return
	}
	messages, err := cl.ctl.Store.ConversationMessages(cl.ctx, conv.ID)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("load conversation history")
	}
	if old := cl.sess.TextChannel(); old != "" {
		cl.ctl.Rooms.Leave(old, cl.sess)
	}
	cl.sess.SetConversation(conv.ID)

	cl.send(protocol.TypeDMConversationCreated, gin.H{
		"conversation": gin.H{
			"id": conv.ID,
			"targetUser": protocol.UserRef{
				ID: partner.ID, Username: partner.Username, Color: partner.Color,
			},
		},
		"messages": messages,
	})
}
