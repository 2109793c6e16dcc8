package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/youneskazemi/chatcord/internal/domain"
)

var ErrNotFound = errors.New("not found")

func (s *Store) CreateUser(ctx context.Context, username, passwordHash, color string) (*domain.User, error) {
	u := User{Username: username, PasswordHash: passwordHash, Color: color, LastSeen: time.Now()}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, err
	}
	return toDomainUser(&u), nil
}

func (s *Store) GetUserByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	var u User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", string(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toDomainUser(&u), nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, string, error) {
	var u User
	if err := s.db.WithContext(ctx).First(&u, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	return toDomainUser(&u), u.PasswordHash, nil
}

// ListUsers returns everyone except the given user, for DM partner search.
func (s *Store) ListUsers(ctx context.Context, except domain.UserID) ([]*domain.User, error) {
	var rows []User
	if err := s.db.WithContext(ctx).Where("id <> ?", string(except)).Order("username").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.User, 0, len(rows))
	for i := range rows {
		out = append(out, toDomainUser(&rows[i]))
	}
	return out, nil
}

func (s *Store) TouchLastSeen(ctx context.Context, id domain.UserID) error {
	return s.db.WithContext(ctx).Model(&User{}).Where("id = ?", string(id)).
		Update("last_seen", time.Now()).Error
}

func toDomainUser(u *User) *domain.User {
	return &domain.User{ID: domain.UserID(u.ID), Username: u.Username, Color: u.Color}
}
