package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/youneskazemi/chatcord/internal/auth"
	"github.com/youneskazemi/chatcord/internal/domain"
	"github.com/youneskazemi/chatcord/internal/store"
	"github.com/youneskazemi/chatcord/internal/turnserver"
)

type handlers struct {
	auth  *auth.Service
	store *store.Store
	turn  *turnserver.Server
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func currentUser(c *gin.Context) *domain.User {
	return c.MustGet(userKey).(*domain.User)
}

func (h *handlers) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}
	res, err := h.auth.Register(c.Request.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
	case errors.Is(err, auth.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		log.Error().Err(err).Str("module", "adapters.http").Msg("register")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
	default:
		c.JSON(http.StatusCreated, res)
	}
}

func (h *handlers) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}
	res, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case err != nil:
		log.Error().Err(err).Str("module", "adapters.http").Msg("login")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
	default:
		c.JSON(http.StatusOK, res)
	}
}

// iceConfig hands the client its STUN/TURN servers. Without an embedded TURN
// server only the public STUN entry is returned.
func (h *handlers) iceConfig(c *gin.Context) {
	servers := []gin.H{
		{"urls": "stun:stun.l.google.com:19302"},
	}
	if h.turn != nil {
		creds := h.turn.Credentials()
		servers = append(servers, gin.H{
			"urls":       h.turn.URL(),
			"username":   creds.Username,
			"credential": creds.Password,
		})
	}
	c.JSON(http.StatusOK, gin.H{"iceServers": servers})
}

func (h *handlers) listUsers(c *gin.Context) {
	users, err := h.store.ListUsers(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *handlers) listChannels(c *gin.Context) {
	channels, err := h.store.ListChannels(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list channels"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"channels": channels})
}

func (h *handlers) channelMessages(c *gin.Context) {
	ch, err := h.store.GetChannelByName(c.Request.Context(), c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
		return
	}
	messages, err := h.store.ChannelMessages(c.Request.Context(), ch.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"channel": ch.Name, "messages": messages})
}

func (h *handlers) listConversations(c *gin.Context) {
	self := currentUser(c).ID
	convs, err := h.store.ListConversations(c.Request.Context(), self)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list conversations"})
		return
	}
	out := make([]gin.H, 0, len(convs))
	for _, conv := range convs {
		partner, err := h.store.GetUserByID(c.Request.Context(), conv.Other(self))
		if err != nil {
			continue
		}
		out = append(out, gin.H{"id": conv.ID, "targetUser": partner})
	}
	c.JSON(http.StatusOK, gin.H{"conversations": out})
}

// conversationAccess loads the conversation and rejects callers that are not
// one of its two participants.
func (h *handlers) conversationAccess(c *gin.Context) (*domain.Conversation, bool) {
	conv, err := h.store.GetConversationByID(c.Request.Context(), domain.ConversationID(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return nil, false
	}
	if !conv.HasParticipant(currentUser(c).ID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant"})
		return nil, false
	}
	return conv, true
}

func (h *handlers) conversationMessages(c *gin.Context) {
	conv, ok := h.conversationAccess(c)
	if !ok {
		return
	}
	messages, err := h.store.ConversationMessages(c.Request.Context(), conv.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversationId": conv.ID, "messages": messages})
}

func (h *handlers) callHistory(c *gin.Context) {
	conv, ok := h.conversationAccess(c)
	if !ok {
		return
	}
	calls, err := h.store.CallHistory(c.Request.Context(), conv.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load call history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversationId": conv.ID, "calls": calls})
}
