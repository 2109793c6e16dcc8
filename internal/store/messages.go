package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/youneskazemi/chatcord/internal/domain"
)

const historyLimit = 50

func (s *Store) GetChannelByName(ctx context.Context, name string) (*Channel, error) {
	var ch Channel
	if err := s.db.WithContext(ctx).First(&ch, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ch, nil
}

func (s *Store) ListChannels(ctx context.Context) ([]Channel, error) {
	var out []Channel
	err := s.db.WithContext(ctx).Order("id").Find(&out).Error
	return out, err
}

func (s *Store) SaveChannelMessage(ctx context.Context, channelID uint, userID domain.UserID, content string) (*Message, error) {
	m := Message{ChannelID: channelID, UserID: string(userID), Content: content}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Preload("User").First(&m, m.ID).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// ChannelMessages returns the most recent messages in chronological order.
func (s *Store) ChannelMessages(ctx context.Context, channelID uint) ([]Message, error) {
	var rows []Message
	err := s.db.WithContext(ctx).Preload("User").
		Where("channel_id = ?", channelID).
		Order("created_at DESC").Limit(historyLimit).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

func (s *Store) SaveDirectMessage(ctx context.Context, convID domain.ConversationID, sender domain.UserID, content string) (*DirectMessage, error) {
	m := DirectMessage{ConversationID: string(convID), SenderID: string(sender), Content: content}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) ConversationMessages(ctx context.Context, convID domain.ConversationID) ([]DirectMessage, error) {
	var rows []DirectMessage
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", string(convID)).
		Order("created_at DESC").Limit(historyLimit).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}
