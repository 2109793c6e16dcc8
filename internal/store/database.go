// Package store is the persistence collaborator: users, channels, messages,
// conversations and call history. The signaling core only consumes the
// narrow directory interfaces defined in internal/app.
package store

import (
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Store struct {
	db *gorm.DB
}

func Open(dbPath string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&User{},
		&Channel{},
		&Message{},
		&Conversation{},
		&DirectMessage{},
		&CallRecord{},
	); err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.seedDefaultChannels(); err != nil {
		return nil, err
	}

	log.Info().Str("module", "store").Str("path", dbPath).Msg("database ready")
	return s, nil
}

var defaultChannels = []string{"general", "random", "tech"}

func (s *Store) seedDefaultChannels() error {
	for _, name := range defaultChannels {
		if err := s.db.Where(Channel{Name: name}).FirstOrCreate(&Channel{Name: name}).Error; err != nil {
			return err
		}
	}
	return nil
}
