// Package signal is the websocket adapter: it authenticates connections,
// registers sessions, and dispatches inbound signaling events to the app
// layer. One reader goroutine per connection keeps events FIFO.
package signal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/youneskazemi/chatcord/internal/app"
	"github.com/youneskazemi/chatcord/internal/auth"
	"github.com/youneskazemi/chatcord/internal/config"
	"github.com/youneskazemi/chatcord/internal/core"
	"github.com/youneskazemi/chatcord/internal/domain"
	"github.com/youneskazemi/chatcord/internal/protocol"
	"github.com/youneskazemi/chatcord/internal/store"
)

var ErrBackpressure = errors.New("backpressure")

const defaultChannel = "general"

type Controller struct {
	Cfg      *config.Config
	Auth     *auth.Service
	Store    *store.Store
	Registry *app.Registry
	Rooms    *app.Rooms
	Voice    *app.Voice
	Calls    *app.CallManager
	Relay    *app.Relay
}

// wsConn wraps a websocket connection with a bounded send queue. TrySend
// never blocks: a full queue drops the frame and reports backpressure.
type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// client is the per-connection state: the registered session plus the
// dispatch table mapping event names to handlers.
type client struct {
	ctl      *Controller
	ctx      context.Context
	sess     *app.Session
	conn     *wsConn
	handlers map[string]func(json.RawMessage)
}

// HandleSignal upgrades the connection, authenticates it via the bearer
// token, registers the session, and joins the default channel.
func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	token := c.Query("token")
	user, err := ctl.Auth.UserFromToken(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if ctl.Cfg.ReadLimit > 0 {
		ws.SetReadLimit(ctl.Cfg.ReadLimit)
	}

	sid := core.SessionID(uuid.NewString())
	conn := &wsConn{conn: ws, send: make(chan core.Frame, 32)}
	sess := ctl.Registry.Register(sid, user, conn)

	log.Info().Str("module", "signal").Str("sid", string(sid)).
		Str("username", user.Username).Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctx)
	cl := &client{ctl: ctl, ctx: ctx, sess: sess, conn: conn}
	cl.handlers = cl.dispatchTable()

	go ctl.writePump(ctx, conn)

	cl.joinDefaultChannel()
	ctl.Relay.BroadcastAll(protocol.TypeUserStatusChanged,
		protocol.UserStatusChanged{UserID: user.ID, Status: "online"}, user.ID)

	go func() {
		defer cancel()
		ctl.readPump(ctx, cl)

		ctl.Registry.Unregister(sid)
		// A displaced session must not report the user offline: the
		// replacement connection is still live.
		if _, online := ctl.Registry.LookupByUser(user.ID); !online {
			ctl.Relay.BroadcastAll(protocol.TypeUserStatusChanged,
				protocol.UserStatusChanged{UserID: user.ID, Status: "offline"}, user.ID)
			if err := ctl.Store.TouchLastSeen(context.Background(), user.ID); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("touch last seen")
			}
		}
		conn.Close()
	}()
}

// dispatchTable maps every inbound event to its handler. Unknown events are
// logged and ignored.
func (cl *client) dispatchTable() map[string]func(json.RawMessage) {
	return map[string]func(json.RawMessage){
		protocol.TypeSwitchChannel:        cl.handleSwitchChannel,
		protocol.TypeSendMessage:          cl.handleSendMessage,
		protocol.TypeTyping:               cl.handleTyping,
		protocol.TypeStopTyping:           cl.handleStopTyping,
		protocol.TypeGetDMConversations:   cl.handleGetDMConversations,
		protocol.TypeCreateDMConversation: cl.handleCreateDMConversation,
		protocol.TypeJoinVoiceChannel:     cl.handleJoinVoice,
		protocol.TypeLeaveVoiceChannel:    cl.handleLeaveVoice,
		protocol.TypeToggleMute:           cl.handleToggleMute,
		protocol.TypeToggleDeafen:         cl.handleToggleDeafen,
		protocol.TypeVoiceOffer:           cl.handleVoiceOffer,
		protocol.TypeVoiceAnswer:          cl.handleVoiceAnswer,
		protocol.TypeVoiceIceCandidate:    cl.handleVoiceCandidate,
		protocol.TypeInitiateDirectCall:   cl.handleInitiateCall,
		protocol.TypeAcceptDirectCall:     cl.handleAcceptCall,
		protocol.TypeRejectDirectCall:     cl.handleRejectCall,
		protocol.TypeEndDirectCall:        cl.handleEndCall,
		protocol.TypeDirectCallCandidate:  cl.handleCallCandidate,
		protocol.TypePing:                 cl.handlePing,
	}
}

func (cl *client) dispatch(frame []byte) {
	env, err := protocol.Decode(frame)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		return
	}
	h, ok := cl.handlers[env.Type]
	if !ok {
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
		return
	}
	h(env.Data)
}

func (cl *client) send(eventType string, payload any) {
	frame, err := protocol.Encode(eventType, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("event", eventType).Msg("encode")
		return
	}
	_ = cl.conn.TrySend(frame)
}

// sendError surfaces a non-fatal failure to this connection only; errors
// never broadcast to rooms or other users.
func (cl *client) sendError(msg string) {
	cl.send(protocol.TypeError, protocol.ErrorEvent{Message: msg})
}

func (cl *client) handlePing(json.RawMessage) {
	cl.send(protocol.TypePong, nil)
}

// joinDefaultChannel lands a fresh session in the default channel and hands
// it the channel state: its own user record, roster, and recent history.
func (cl *client) joinDefaultChannel() {
	ch, err := cl.ctl.Store.GetChannelByName(cl.ctx, defaultChannel)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("default channel missing")
		cl.sendError("Server error. Please try again.")
		return
	}
	messages, err := cl.ctl.Store.ChannelMessages(cl.ctx, ch.ID)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("load channel history")
	}

	roomID := domain.TextRoomID(ch.Name)
	roster := cl.ctl.Rooms.Join(roomID, cl.sess)
	cl.sess.SetTextChannel(roomID)

	cl.send(protocol.TypeJoinSuccess, gin.H{
		"user":     cl.sess.User(),
		"channel":  ch,
		"messages": messages,
		"users":    roster,
	})
}
