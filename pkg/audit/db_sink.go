package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/pos-backend/pkg/db/models"
)

// DBSink appends entries to the audit_logs table.
type DBSink struct {
	db *gorm.DB
}

// NewDBSink requires a gorm handle.
func NewDBSink(db *gorm.DB) (*DBSink, error) {
	if db == nil {
		return nil, errors.New("db required")
	}
	return &DBSink{db: db}, nil
}

// Write inserts one audit_logs row.
func (s *DBSink) Write(ctx context.Context, entry Entry) error {
	row := models.AuditLog{
		ActorUserID:  entry.ActorUserID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		CreatedAt:    entry.OccurredAt,
	}
	if entry.ResourceID != "" {
		id := entry.ResourceID
		row.ResourceID = &id
	}
	if len(entry.Metadata) > 0 {
		payload, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("marshal audit metadata: %w", err)
		}
		row.Metadata = payload
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}
