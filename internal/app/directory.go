package app

import (
	"context"

	"github.com/youneskazemi/chatcord/internal/domain"
)

// The signaling core never talks to storage directly; it consumes these
// narrow directories, satisfied by *store.Store in production and by fakes
// in tests.

type ConversationDirectory interface {
	GetConversationByID(ctx context.Context, id domain.ConversationID) (*domain.Conversation, error)
}

type CallLog interface {
	AppendCallRecord(ctx context.Context, convID domain.ConversationID, rec domain.CallRecord) error
}
