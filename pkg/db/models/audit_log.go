package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/pos-backend/pkg/enums"
)

// AuditLog records an append-only audit entry for a stock or order mutation.
type AuditLog struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	ActorUserID  *uuid.UUID        `gorm:"column:actor_user_id;type:uuid"`
	Action       enums.AuditAction `gorm:"column:action;type:text;not null;index"`
	ResourceType string            `gorm:"column:resource_type;not null"`
	ResourceID   *string           `gorm:"column:resource_id"`
	Metadata     json.RawMessage   `gorm:"column:metadata;type:jsonb"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (a *AuditLog) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
