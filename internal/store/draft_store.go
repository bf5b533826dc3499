package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apocalypse96/FeedbackPro/internal/domain"
)

// draftRow is the persisted form of a draft: an opaque JSON payload
// under its storage key. Keeping the payload as JSON means schema
// changes to DraftSnapshot never require a migration.
type draftRow struct {
	Key       string    `gorm:"primaryKey;size:64"`
	Payload   []byte    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (draftRow) TableName() string { return "drafts" }

// DraftStore persists at most one in-progress feedback draft per
// employee. Writes are last-write-wins upserts.
type DraftStore struct {
	db *gorm.DB
}

// NewDraftStore wraps an open state database.
func NewDraftStore(db *gorm.DB) *DraftStore { return &DraftStore{db: db} }

// Save upserts the draft for snapshot.EmployeeID.
func (s *DraftStore) Save(ctx context.Context, snapshot domain.DraftSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	row := draftRow{
		Key:       domain.DraftKey(snapshot.EmployeeID),
		Payload:   payload,
		UpdatedAt: time.Now().UTC(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&row).Error
}

// Load returns the draft stored for employeeID, or ErrNoDraft.
func (s *DraftStore) Load(ctx context.Context, employeeID int) (domain.DraftSnapshot, error) {
	var row draftRow
	err := s.db.WithContext(ctx).
		Where("key = ?", domain.DraftKey(employeeID)).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.DraftSnapshot{}, ErrNoDraft
	}
	if err != nil {
		return domain.DraftSnapshot{}, err
	}
	var snap domain.DraftSnapshot
	if err := json.Unmarshal(row.Payload, &snap); err != nil {
		return domain.DraftSnapshot{}, fmt.Errorf("decode draft: %w", err)
	}
	return snap, nil
}

// Delete removes the draft for employeeID. Deleting a missing draft is
// not an error.
func (s *DraftStore) Delete(ctx context.Context, employeeID int) error {
	return s.db.WithContext(ctx).
		Where("key = ?", domain.DraftKey(employeeID)).
		Delete(&draftRow{}).Error
}
