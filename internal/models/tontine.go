package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Tontine is a rotating savings group. TotalPot is the authoritative running
// balance: it is only ever changed by the contribution/payout write paths and
// the reconciliation sweep, never recomputed on reads.
type Tontine struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	Name               string          `gorm:"size:255;not null" json:"name"`
	Description        string          `gorm:"type:text" json:"description"`
	Type               string          `gorm:"size:50;default:'rotating'" json:"type"`
	ContributionAmount decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"contribution_amount"`
	Frequency          string          `gorm:"size:20;not null" json:"frequency"` // daily, weekly, monthly
	DurationMonths     int             `json:"duration_months"`
	StartDate          *time.Time      `json:"start_date"`
	Status             string          `gorm:"size:20;not null;default:'forming';index" json:"status"`
	TotalPot           decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"total_pot"`
	CurrentRound       int             `gorm:"not null;default:1" json:"current_round"`
	MinMembers         int             `gorm:"not null;default:2" json:"min_members"`
	MaxMembers         int             `gorm:"not null;default:30" json:"max_members"`
	CreatorID          uint            `gorm:"not null;index" json:"creator_id"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	DeletedAt          gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Tontine) TableName() string {
	return "tontines"
}
