package store

import (
	"context"
	"errors"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"

	"github.com/youneskazemi/chatcord/internal/domain"
)

// GetOrCreateConversation resolves the conversation for an unordered user
// pair, creating it on first contact.
func (s *Store) GetOrCreateConversation(ctx context.Context, a, b domain.UserID) (*domain.Conversation, error) {
	u1, u2 := domain.CanonicalPair(a, b)

	var c Conversation
	err := s.db.WithContext(ctx).
		First(&c, "user1_id = ? AND user2_id = ?", string(u1), string(u2)).Error
	if err == nil {
		return toDomainConversation(&c), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	id, err := gonanoid.New(16)
	if err != nil {
		return nil, err
	}
	c = Conversation{ID: id, User1ID: string(u1), User2ID: string(u2)}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		// Lost a create race: the unique pair index rejected us, re-read.
		var existing Conversation
		if err2 := s.db.WithContext(ctx).
			First(&existing, "user1_id = ? AND user2_id = ?", string(u1), string(u2)).Error; err2 == nil {
			return toDomainConversation(&existing), nil
		}
		return nil, err
	}
	return toDomainConversation(&c), nil
}

func (s *Store) GetConversationByID(ctx context.Context, id domain.ConversationID) (*domain.Conversation, error) {
	var c Conversation
	if err := s.db.WithContext(ctx).First(&c, "id = ?", string(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toDomainConversation(&c), nil
}

func (s *Store) ListConversations(ctx context.Context, userID domain.UserID) ([]*domain.Conversation, error) {
	var rows []Conversation
	if err := s.db.WithContext(ctx).
		Where("user1_id = ? OR user2_id = ?", string(userID), string(userID)).
		Order("created_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Conversation, 0, len(rows))
	for i := range rows {
		out = append(out, toDomainConversation(&rows[i]))
	}
	return out, nil
}

func toDomainConversation(c *Conversation) *domain.Conversation {
	return &domain.Conversation{
		ID:    domain.ConversationID(c.ID),
		UserA: domain.UserID(c.User1ID),
		UserB: domain.UserID(c.User2ID),
	}
}
