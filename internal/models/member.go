package models

import (
	"time"
)

// TontineMember enrolls an external user into a tontine. PriorityOrder is
// dense 1..N within a tontine and fixes the payout rotation.
type TontineMember struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	TontineID     uint      `gorm:"not null;index:idx_member_pair,unique;index:idx_member_priority,unique" json:"tontine_id"`
	UserID        uint      `gorm:"not null;index:idx_member_pair,unique" json:"user_id"`
	IsAdmin       bool      `gorm:"not null;default:false" json:"is_admin"`
	PriorityOrder int       `gorm:"not null;index:idx_member_priority,unique" json:"priority_order"`
	JoinedAt      time.Time `json:"joined_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (TontineMember) TableName() string {
	return "tontine_members"
}
