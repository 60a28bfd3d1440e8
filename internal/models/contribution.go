package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TontineContribution is one member's payment toward one round. Once the row
// reaches completed, Amount and ExternalPaymentRef are immutable.
// ExternalPaymentRef is the idempotency key for reconciliation events; the
// unique index swallows at-least-once redelivery.
type TontineContribution struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	TontineID          uint            `gorm:"not null;index" json:"tontine_id"`
	TontineMemberID    uint            `gorm:"not null;index" json:"tontine_member_id"`
	UserID             uint            `gorm:"not null;index" json:"user_id"`
	Amount             decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	RoundNumber        int             `gorm:"not null;index" json:"round_number"`
	Status             string          `gorm:"size:20;not null;default:'pending';index" json:"status"`
	ContributionDate   time.Time       `json:"contribution_date"`
	PaymentMethod      string          `gorm:"size:50" json:"payment_method"`
	ExternalPaymentRef *string         `gorm:"size:191;uniqueIndex" json:"external_payment_ref"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	DeletedAt          gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (TontineContribution) TableName() string {
	return "tontine_contributions"
}
