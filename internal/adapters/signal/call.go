package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/youneskazemi/chatcord/internal/app"
	"github.com/youneskazemi/chatcord/internal/protocol"
)

// callErrorMessage translates call state errors into the user-facing strings
// the client renders. Unexpected errors fall through to a generic message.
func callErrorMessage(err error) string {
	switch {
	case errors.Is(err, app.ErrConversationNotFound):
		return "Conversation not found."
	case errors.Is(err, app.ErrNotParticipant):
		return "Not a participant of this conversation."
	case errors.Is(err, app.ErrRecipientOffline):
		return "User is not online."
	case errors.Is(err, app.ErrCallInProgress):
		return "A call is already in progress."
	case errors.Is(err, app.ErrNoActiveCall):
		return "No active call."
	case errors.Is(err, app.ErrNotRinging):
		return "Call is no longer ringing."
	case errors.Is(err, app.ErrNotCallee), errors.Is(err, app.ErrInitiatorMismatch):
		return "Call state mismatch."
	default:
		return "Call failed. Please try again."
	}
}

func (cl *client) handleInitiateCall(data json.RawMessage) {
	var p protocol.InitiateDirectCall
	if err := json.Unmarshal(data, &p); err != nil {
		cl.sendError("Invalid request.")
		return
	}
	if err := cl.ctl.Calls.Initiate(cl.ctx, cl.sess, p); err != nil {
		log.Debug().Err(err).Str("module", "signal").
			Str("conversation", string(p.ConversationID)).Msg("initiate call")
		cl.sendError(callErrorMessage(err))
	}
}

func (cl *client) handleAcceptCall(data json.RawMessage) {
	var p protocol.AcceptDirectCall
	if err := json.Unmarshal(data, &p); err != nil {
		cl.sendError("Invalid request.")
		return
	}
	if err := cl.ctl.Calls.Accept(cl.sess, p); err != nil {
		cl.sendError(callErrorMessage(err))
	}
}

func (cl *client) handleRejectCall(data json.RawMessage) {
	var p protocol.RejectDirectCall
	if err := json.Unmarshal(data, &p); err != nil {
		cl.sendError("Invalid request.")
		return
	}
	if err := cl.ctl.Calls.Reject(cl.ctx, cl.sess, p); err != nil {
		cl.sendError(callErrorMessage(err))
	}
}

func (cl *client) handleEndCall(data json.RawMessage) {
	var p protocol.EndDirectCall
	if err := json.Unmarshal(data, &p); err != nil {
		cl.sendError("Invalid request.")
		return
	}
	if err := cl.ctl.Calls.End(cl.ctx, cl.sess.User().ID, p.ConversationID); err != nil {
		if !errors.Is(err, app.ErrNoActiveCall) {
			cl.sendError(callErrorMessage(err))
		}
	}
}

func (cl *client) handleCallCandidate(data json.RawMessage) {
	var p protocol.DirectCallCandidate
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	cl.ctl.Calls.RelayCandidate(cl.sess, p)
}
