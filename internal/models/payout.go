package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TontinePayout records one round's disbursement. The composite unique index
// on (tontine_id, round_number) makes double payout for a round impossible at
// the storage layer, whatever the callers race on.
type TontinePayout struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	TontineID       uint            `gorm:"not null;index:idx_payout_round,unique" json:"tontine_id"`
	RoundNumber     int             `gorm:"not null;index:idx_payout_round,unique" json:"round_number"`
	TontineMemberID uint            `gorm:"not null;index" json:"tontine_member_id"`
	Amount          decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	PayoutDate      time.Time       `json:"payout_date"`
	Status          string          `gorm:"size:20;not null;default:'pending'" json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (TontinePayout) TableName() string {
	return "tontine_payouts"
}
