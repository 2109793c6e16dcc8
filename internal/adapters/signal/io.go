package signal

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 10 * time.Second

// readPump drains the connection and dispatches every frame. It returns when
// the peer disconnects, a read fails, or the context is cancelled.
func (ctl *Controller) readPump(ctx context.Context, cl *client) {
	pongWait := ctl.Cfg.PingPeriod + ctl.Cfg.PingPeriod/2
	_ = cl.conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.conn.SetPongHandler(func(string) error {
		return cl.conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		_, frame, err := cl.conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("module", "signal").
					Str("sid", string(cl.sess.ID())).Msg("ws read")
			}
			return
		}
		cl.dispatch(frame)
	}
}

// writePump owns all writes to the socket: queued frames plus the keepalive
// pings. Nothing else may call WriteMessage.
func (ctl *Controller) writePump(ctx context.Context, conn *wsConn) {
	ticker := time.NewTicker(ctl.Cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-conn.send:
			_ = conn.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
