package models

import (
	"time"

	"gorm.io/gorm"
)

// TontineInvite moves pending -> accepted | declined | expired. The admin
// approval path lands in the same accepted state and records ApprovedBy.
type TontineInvite struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	TontineID   uint           `gorm:"not null;index" json:"tontine_id"`
	Email       string         `gorm:"size:255" json:"email"`
	UserID      *uint          `gorm:"index" json:"user_id"`
	InviteToken string         `gorm:"size:64;uniqueIndex;not null" json:"-"`
	Status      string         `gorm:"size:20;not null;default:'pending';index" json:"status"`
	ApprovedBy  *uint          `json:"approved_by"`
	ExpiresAt   time.Time      `json:"expires_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (TontineInvite) TableName() string {
	return "tontine_invites"
}
