package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Username     string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"type:varchar(100)" json:"-"`
	Color        string    `gorm:"type:varchar(16)" json:"color"`
	CreatedAt    time.Time `json:"created_at"`
	LastSeen     time.Time `json:"last_seen"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

type Channel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ChannelID uint      `gorm:"index;not null" json:"channel_id"`
	UserID    string    `gorm:"type:varchar(36);index;not null" json:"user_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"user"`
}

// Conversation stores the canonical user pair: User1ID is always the lesser
// ID so (a,b) and (b,a) resolve to the same row.
type Conversation struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	User1ID   string    `gorm:"type:varchar(36);index:idx_conv_pair,unique;not null" json:"user1_id"`
	User2ID   string    `gorm:"type:varchar(36);index:idx_conv_pair,unique;not null" json:"user2_id"`
	CreatedAt time.Time `json:"created_at"`
}

type DirectMessage struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	ConversationID string     `gorm:"type:varchar(36);index;not null" json:"conversation_id"`
	SenderID       string     `gorm:"type:varchar(36);not null" json:"sender_id"`
	Content        string     `gorm:"type:text;not null" json:"content"`
	CreatedAt      time.Time  `json:"created_at"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
}

// CallRecord rows are append-only; nothing updates them after creation.
type CallRecord struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ConversationID  string    `gorm:"type:varchar(36);index;not null" json:"conversation_id"`
	InitiatorID     string    `gorm:"type:varchar(36);not null" json:"initiator_id"`
	StartedAt       time.Time `json:"started_at"`
	EndedAt         time.Time `json:"ended_at"`
	DurationSeconds int       `json:"duration_seconds"`
	Outcome         string    `gorm:"type:varchar(16);not null" json:"outcome"`
}
