package store

import (
	"context"

	"github.com/youneskazemi/chatcord/internal/domain"
)

// AppendCallRecord writes one history entry. Rows are never updated.
func (s *Store) AppendCallRecord(ctx context.Context, convID domain.ConversationID, rec domain.CallRecord) error {
	row := CallRecord{
		ConversationID:  string(convID),
		InitiatorID:     string(rec.Initiator),
		StartedAt:       rec.StartedAt,
		EndedAt:         rec.EndedAt,
		DurationSeconds: rec.DurationSeconds,
		Outcome:         string(rec.Outcome),
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *Store) CallHistory(ctx context.Context, convID domain.ConversationID) ([]CallRecord, error) {
	var rows []CallRecord
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", string(convID)).
		Order("started_at").Find(&rows).Error
	return rows, err
}
