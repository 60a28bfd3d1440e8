package models

import "time"

// AuditLog is an append-only trail of financial mutations and webhook
// ingestion. Rows are never updated or deleted.
type AuditLog struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        *uint     `gorm:"index" json:"user_id"`
	Action        string    `gorm:"size:100;not null;index" json:"action"`
	Resource      string    `gorm:"size:100;index" json:"resource"`
	ResourceID    string    `gorm:"size:100;index" json:"resource_id"`
	CorrelationID string    `gorm:"size:64;index" json:"correlation_id"`
	IP            string    `gorm:"size:45" json:"ip"`
	Metadata      string    `gorm:"type:text" json:"metadata"`
	CreatedAt     time.Time `json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
