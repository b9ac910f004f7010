package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danielcastano/abasto-backend/pkg/enums"
)

// AuditEvent is an append-only record of who did what. Written best-effort
// after the owning transaction commits. UserID is nil for system events
// such as low-stock alerts.
type AuditEvent struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    *uuid.UUID           `gorm:"column:user_id;type:uuid;index"`
	EventType enums.AuditEventType `gorm:"column:event_type;type:text;not null"`
	Detail    string               `gorm:"column:detail;type:text;not null"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
}

func (a *AuditEvent) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
