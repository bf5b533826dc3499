package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apocalypse96/FeedbackPro/internal/domain"
)

// sessionRow holds the single active identity. The fixed primary key
// makes every save overwrite the same row.
type sessionRow struct {
	ID       int    `gorm:"primaryKey"`
	UserID   int    `gorm:"not null"`
	UserName string `gorm:"not null"`
	Role     string `gorm:"not null"`
}

func (sessionRow) TableName() string { return "session" }

const sessionRowID = 1

// SessionStore persists the identity used to stamp outgoing requests.
type SessionStore struct {
	db *gorm.DB
}

// NewSessionStore wraps an open state database.
func NewSessionStore(db *gorm.DB) *SessionStore { return &SessionStore{db: db} }

// Save stores sess as the active session, replacing any previous one.
func (s *SessionStore) Save(ctx context.Context, sess domain.Session) error {
	row := sessionRow{
		ID:       sessionRowID,
		UserID:   sess.UserID,
		UserName: sess.UserName,
		Role:     string(sess.Role),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "user_name", "role"}),
		}).
		Create(&row).Error
}

// Load returns the active session, or ErrNoSession.
func (s *SessionStore) Load(ctx context.Context) (domain.Session, error) {
	var row sessionRow
	err := s.db.WithContext(ctx).First(&row, sessionRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Session{}, ErrNoSession
	}
	if err != nil {
		return domain.Session{}, err
	}
	return domain.Session{
		UserID:   row.UserID,
		UserName: row.UserName,
		Role:     domain.Role(row.Role),
	}, nil
}

// Clear removes the active session.
func (s *SessionStore) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).Delete(&sessionRow{}, sessionRowID).Error
}
